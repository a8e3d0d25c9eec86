// Package factory creates identified engine objects whose memory is reserved
// from the arena.
//
// A Factory does not index what it creates; objects that must be found by
// identifier belong in a store.
package factory

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/hupe1980/triton/arena"
	"github.com/hupe1980/triton/object"
)

// ErrNotPlaced is returned by Destroy for objects this factory does not own,
// including objects already destroyed.
var ErrNotPlaced = errors.New("factory: object not placed")

// Factory creates and destroys objects of type T.
type Factory[T any, PT object.Ptr[T]] struct {
	arena    *arena.Arena
	registry *object.Registry
	typeName string
	size     int
	live     int
	logger   *slog.Logger
}

// Option configures a Factory.
type Option func(*options)

type options struct {
	typeName string
	logger   *slog.Logger
}

// WithTypeName overrides the identifier seed, which defaults to the Go type name of T.
func WithTypeName(name string) Option {
	return func(o *options) {
		o.typeName = name
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New returns a factory for T.
func New[T any, PT object.Ptr[T]](a *arena.Arena, r *object.Registry, opts ...Option) *Factory[T, PT] {
	o := options{
		typeName: reflect.TypeFor[T]().Name(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.typeName == "" {
		o.typeName = "Object"
	}

	return &Factory[T, PT]{
		arena:    a,
		registry: r,
		typeName: o.typeName,
		size:     arena.SizeOf[T](1),
		logger:   o.logger,
	}
}

// Create reserves sizeof(T) bytes from the arena, constructs T with init and
// stamps a fresh identifier on it.
//
// The identifier ceiling is checked before the arena is touched, so an
// exhausted type never consumes memory.
func (f *Factory[T, PT]) Create(init func(*T)) (*T, error) {
	if err := f.registry.CanGenerate(f.typeName); err != nil {
		f.logger.Error("factory: create failed", "type", f.typeName, "error", err)
		return nil, err
	}

	addr, err := f.arena.Allocate(max(f.size, 1))
	if err != nil {
		return nil, fmt.Errorf("factory %s: %w", f.typeName, err)
	}

	p := new(T)
	if init != nil {
		init(p)
	}

	id, err := f.registry.Generate(f.typeName)
	if err != nil {
		f.arena.Free(addr)
		return nil, err
	}
	object.Stamp(PT(p), id)
	object.Place(PT(p), f, addr)
	f.live++

	return p, nil
}

// Destroy releases obj and returns its memory to the arena.
func (f *Factory[T, PT]) Destroy(obj *T) error {
	if obj == nil {
		return fmt.Errorf("%w: nil %s", ErrNotPlaced, f.typeName)
	}

	addr, ok := object.PlacedBy(PT(obj), f)
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrNotPlaced, f.typeName, PT(obj).ID())
	}

	object.Release(PT(obj))
	object.Unplace(PT(obj))

	if !f.arena.Free(addr) {
		return fmt.Errorf("%w: %s %s at %d", ErrNotPlaced, f.typeName, PT(obj).ID(), addr)
	}
	f.live--
	return nil
}

// Live returns the number of objects created and not yet destroyed.
func (f *Factory[T, PT]) Live() int { return f.live }

// TypeName returns the identifier seed.
func (f *Factory[T, PT]) TypeName() string { return f.typeName }
