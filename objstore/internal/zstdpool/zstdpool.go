// Package zstdpool pools zstd encoders/decoders so compressing and
// decompressing stored commits/trees on a hot ancestry walk doesn't pay
// allocation cost per object. Adapted from the teacher's modules/streamio/zstd.go.
package zstdpool

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	readers = sync.Pool{
		New: func() any {
			d, _ := zstd.NewReader(nil)
			return &Decoder{Decoder: d}
		},
	}
	writers = sync.Pool{
		New: func() any {
			e, _ := zstd.NewWriter(nil)
			return &Encoder{Encoder: e}
		},
	}
)

type Decoder struct{ *zstd.Decoder }

// GetReader returns a pool-managed *Decoder reset to read from r. Callers
// must call PutReader when done.
func GetReader(r io.Reader) (*Decoder, error) {
	d := readers.Get().(*Decoder)
	if err := d.Reset(r); err != nil {
		return nil, err
	}
	return d, nil
}

func PutReader(d *Decoder) { readers.Put(d) }

type Encoder struct{ *zstd.Encoder }

// GetWriter returns a pool-managed *Encoder reset to write to w. Callers
// must call PutWriter when done, which flushes and closes the frame.
func GetWriter(w io.Writer) *Encoder {
	e := writers.Get().(*Encoder)
	e.Reset(w)
	return e
}

func PutWriter(e *Encoder) {
	_ = e.Encoder.Close()
	writers.Put(e)
}
