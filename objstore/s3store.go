package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Store is a read-mostly "cold archive" Store backend, the second
// concrete instance of the "native format or Git repository" capability
// set spec.md §4.1 allows: objects that have aged out of local loose
// storage are fetched from object storage instead. Grounded on the
// teacher's dual local/S3 backend split (modules/zeta/backend, go.mod's
// aws-sdk-go-v2/service/s3); the teacher also carries a GCS twin via
// cloud.google.com/go/storage which this module does not reimplement.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store builds an archive-backed Store against bucket, using the
// default AWS credential chain (environment, shared config, IMDS).
func NewS3Store(ctx context.Context, bucket, prefix string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("chronocore: load aws config: %w", err)
	}
	return &S3Store{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: prefix}, nil
}

func (s *S3Store) key(id Hash) string {
	hex := id.String()
	if s.prefix == "" {
		return hex
	}
	return s.prefix + "/" + hex
}

func isNoSuchKey(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey"
}

func (s *S3Store) read(ctx context.Context, id Hash) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if isNoSuchKey(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, err
	}
	r, err := decompress(buf)
	if err != nil {
		return nil, err
	}
	decoded := &bytes.Buffer{}
	if _, err := decoded.ReadFrom(r); err != nil {
		return nil, err
	}
	return decoded.Bytes(), nil
}

func (s *S3Store) write(ctx context.Context, id Hash, e encoder) error {
	buf := &bytes.Buffer{}
	if err := compress(buf, e); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	return err
}

func (s *S3Store) GetCommit(ctx context.Context, id Hash) (*Commit, error) {
	if IsRootCommit(id) {
		return rootCommit, nil
	}
	body, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := DecodeCommit(id, bytes.NewReader(body))
	if err != nil {
		return nil, ErrCorrupt
	}
	return c, nil
}

func (s *S3Store) GetTree(ctx context.Context, id Hash) (*Tree, error) {
	body, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := DecodeTree(id, bytes.NewReader(body))
	if err != nil {
		return nil, ErrCorrupt
	}
	return t, nil
}

func (s *S3Store) GetBlob(ctx context.Context, id Hash) (*Blob, error) {
	body, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}
	b, err := DecodeBlob(id, bytes.NewReader(body))
	if err != nil {
		return nil, ErrCorrupt
	}
	return b, nil
}

func (s *S3Store) WriteCommit(ctx context.Context, c *Commit) (Hash, error) {
	id, err := c.CanonicalID()
	if err != nil {
		return ZeroHash, err
	}
	return id, s.write(ctx, id, c)
}

func (s *S3Store) WriteTree(ctx context.Context, t *Tree) (Hash, error) {
	id, err := t.CanonicalID()
	if err != nil {
		return ZeroHash, err
	}
	return id, s.write(ctx, id, t)
}

func (s *S3Store) WriteBlob(ctx context.Context, b *Blob) (Hash, error) {
	id, err := b.CanonicalID()
	if err != nil {
		return ZeroHash, err
	}
	return id, s.write(ctx, id, b)
}

func (s *S3Store) RootCommitID() Hash { return rootCommit.ID }

func (s *S3Store) Close() error { return nil }

var _ Store = (*S3Store)(nil)
