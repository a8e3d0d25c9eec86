package resource

import (
	"context"
	"io"
)

// IOReader charges every byte read from an underlying reader against the
// controller's IO budget and stops once ctx is done.
type IOReader struct {
	ctx  context.Context
	src  io.Reader
	rc   *Controller
	read int64
}

// NewRateLimitedReader wraps src. A nil controller only checks ctx.
func NewRateLimitedReader(ctx context.Context, src io.Reader, rc *Controller) *IOReader {
	return &IOReader{ctx: ctx, src: src, rc: rc}
}

func (r *IOReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := r.src.Read(p)
	if n > 0 {
		r.read += int64(n)
		if werr := r.rc.AcquireIO(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// BytesRead returns the bytes read through r.
func (r *IOReader) BytesRead() int64 { return r.read }
