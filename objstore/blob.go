package objstore

import "io"

// Blob is raw file content, content-addressed like every other object.
// The engine does not interpret blob bytes; file diffing and text
// detection are boundary concerns (spec.md §1 non-goals).
type Blob struct {
	ID      Hash
	Content []byte
}

func (b *Blob) Encode(w io.Writer) error {
	if _, err := w.Write(blobMagic[:]); err != nil {
		return err
	}
	_, err := w.Write(b.Content)
	return err
}

// DecodeBlob parses the canonical body produced by Encode.
func DecodeBlob(id Hash, r io.Reader) (*Blob, error) {
	magic, err := readMagic(r)
	if err != nil {
		return nil, err
	}
	if magic != blobMagic {
		return nil, invalidMagicErr(magic)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &Blob{ID: id, Content: content}, nil
}

// CanonicalID computes the content-addressed id b would be written under.
func (b *Blob) CanonicalID() (Hash, error) { return hashOf(b) }
