package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hupe1980/triton/arena"
	"github.com/hupe1980/triton/blobstore"
	"github.com/hupe1980/triton/factory"
	"github.com/hupe1980/triton/internal/conv"
	"github.com/hupe1980/triton/object"
	"github.com/hupe1980/triton/resource"
	"golang.org/x/sync/errgroup"
)

// DefaultReadBlockSize is the size of each rate-limited read.
const DefaultReadBlockSize = 256 * 1024

// Loader reads blobs into arena memory.
type Loader struct {
	arena     *arena.Arena
	store     blobstore.BlobStore
	files     *factory.Factory[File, *File]
	rc        *resource.Controller
	logger    *slog.Logger
	blockSize int
}

// Option configures a Loader.
type Option func(*Loader)

// WithResourceController limits read throughput and LoadAll concurrency.
func WithResourceController(rc *resource.Controller) Option {
	return func(l *Loader) {
		l.rc = rc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithReadBlockSize sets the size of each rate-limited read.
func WithReadBlockSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.blockSize = n
		}
	}
}

// NewLoader creates a loader placing files into a and identifying them
// through r.
func NewLoader(a *arena.Arena, r *object.Registry, store blobstore.BlobStore, opts ...Option) *Loader {
	l := &Loader{
		arena:     a,
		store:     store,
		logger:    slog.New(slog.DiscardHandler),
		blockSize: DefaultReadBlockSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.files = factory.New[File](a, r, factory.WithTypeName("File"), factory.WithLogger(l.logger))
	return l
}

// Live returns the number of loaded files.
func (l *Loader) Live() int { return l.files.Live() }

// Load reads the blob name into arena memory. With asString a zero byte is
// appended after the content.
func (l *Loader) Load(ctx context.Context, name string, asString bool) (*File, error) {
	b, err := l.store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("asset: open %s: %w", name, err)
	}
	defer b.Close()

	r := resource.NewRateLimitedReader(ctx, &blobReader{ctx: ctx, blob: b, block: l.blockSize}, l.rc)

	var head []byte
	if b.Size() >= HeaderSize {
		head = make([]byte, HeaderSize)
		if _, err := io.ReadFull(r, head); err != nil {
			return nil, fmt.Errorf("asset: read %s: %w", name, err)
		}
	}

	if IsPacked(head) {
		h, err := ParseHeader(head)
		if err != nil {
			return nil, fmt.Errorf("asset: %s: %w", name, err)
		}
		if uint64(b.Size()-HeaderSize) != h.PayloadSize {
			return nil, fmt.Errorf("asset: %s: %w: payload is %d bytes, header says %d", name, ErrCorrupt, b.Size()-HeaderSize, h.PayloadSize)
		}
		payload := make([]byte, h.PayloadSize)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("asset: read %s: %w", name, err)
		}
		return l.placePacked(name, h, payload, asString)
	}

	return l.place(name, int(b.Size()), asString, func(dst []byte) error {
		n := copy(dst, head)
		_, err := io.ReadFull(r, dst[n:])
		return err
	})
}

// LoadAll loads every name. Blobs are fetched concurrently, each fetch
// holding one of the resource controller's background slots, and placed into the arena in the
// order given. On error, files placed so far are unloaded.
func (l *Loader) LoadAll(ctx context.Context, names []string, asString bool) ([]*File, error) {
	blobs := make([][]byte, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.rc.BackgroundSlots())

	for i, name := range names {
		g.Go(func() error {
			if err := l.rc.AcquireBackground(gctx); err != nil {
				return err
			}
			defer l.rc.ReleaseBackground()

			data, err := l.fetch(gctx, name)
			if err != nil {
				return err
			}
			blobs[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := make([]*File, 0, len(names))
	for i, name := range names {
		f, err := l.placeBlob(name, blobs[i], asString)
		if err != nil {
			for _, placed := range files {
				_ = l.Unload(placed)
			}
			return nil, err
		}
		blobs[i] = nil
		files = append(files, f)
	}
	return files, nil
}

// Unload frees the file's bytes and the file object.
func (l *Loader) Unload(f *File) error {
	if f == nil {
		return fmt.Errorf("%w: nil file", factory.ErrNotPlaced)
	}
	data := f.data
	if err := l.files.Destroy(f); err != nil {
		return err
	}
	if !l.arena.Free(data) {
		return fmt.Errorf("asset: %s: %w", f.name, errInvalidFree)
	}
	return nil
}

var errInvalidFree = errors.New("content already freed")

func (l *Loader) fetch(ctx context.Context, name string) ([]byte, error) {
	b, err := l.store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("asset: open %s: %w", name, err)
	}
	defer b.Close()

	data := make([]byte, b.Size())
	r := resource.NewRateLimitedReader(ctx, &blobReader{ctx: ctx, blob: b, block: l.blockSize}, l.rc)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("asset: read %s: %w", name, err)
	}
	return data, nil
}

func (l *Loader) placeBlob(name string, data []byte, asString bool) (*File, error) {
	if !IsPacked(data) {
		return l.place(name, len(data), asString, func(dst []byte) error {
			copy(dst, data)
			return nil
		})
	}

	h, err := ParseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("asset: %s: %w", name, err)
	}
	return l.placePacked(name, h, data[HeaderSize:], asString)
}

func (l *Loader) placePacked(name string, h Header, payload []byte, asString bool) (*File, error) {
	size, err := conv.Uint64ToInt(h.RawSize)
	if err != nil {
		return nil, fmt.Errorf("asset: %s: %w: %w", name, ErrCorrupt, err)
	}
	if size > l.arena.ByteSize() {
		return nil, fmt.Errorf("asset: %s: %d bytes: %w", name, size, arena.ErrOutOfMemory)
	}
	return l.place(name, size, asString, func(dst []byte) error {
		return decodeInto(h, payload, dst)
	})
}

// place allocates size (+1 for strings) bytes, lets fill write the content
// and wraps the allocation in a File.
func (l *Loader) place(name string, size int, asString bool, fill func([]byte) error) (*File, error) {
	n := size
	if asString {
		n++
	}

	addr, err := l.arena.Allocate(max(n, 1))
	if err != nil {
		l.logger.Warn("asset: allocation failed", "name", name, "bytes", n, "error", err)
		return nil, fmt.Errorf("asset: %s: %w", name, err)
	}
	buf := l.arena.Bytes(addr)[:n]

	if err := fill(buf[:size]); err != nil {
		l.arena.Free(addr)
		return nil, fmt.Errorf("asset: %s: %w", name, err)
	}
	if asString {
		buf[size] = 0
	}

	f, err := l.files.Create(func(f *File) {
		f.name = name
		f.data = addr
		f.buf = buf
		f.size = size
		f.asText = asString
	})
	if err != nil {
		l.arena.Free(addr)
		return nil, fmt.Errorf("asset: %s: %w", name, err)
	}

	l.logger.Debug("asset: loaded", "name", name, "id", f.ID().String(), "bytes", size)
	return f, nil
}

// blobReader adapts a Blob to io.Reader in read-block steps.
type blobReader struct {
	ctx   context.Context
	blob  blobstore.Blob
	off   int64
	block int
}

func (r *blobReader) Read(p []byte) (int, error) {
	if r.off >= r.blob.Size() {
		return 0, io.EOF
	}
	if r.block > 0 && len(p) > r.block {
		p = p[:r.block]
	}
	n, err := r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}
