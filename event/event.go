// Package event dispatches typed events to subscribed receivers.
//
// Listeners are kept per event type in a chunked store keyed by the
// receiver's identifier, so a receiver holds at most one handler per type and
// dispatch is a dense walk over the store.
//
// A Dispatcher is not safe for concurrent use. Work done on worker goroutines
// should hand its results back to the owning goroutine before sending events.
package event

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/triton/arena"
	"github.com/hupe1980/triton/object"
	"github.com/hupe1980/triton/store"
)

var (
	// ErrClosed is returned when the dispatcher has been closed.
	ErrClosed = errors.New("event: dispatcher closed")
	// ErrNilHandler is returned when subscribing a nil handler.
	ErrNilHandler = errors.New("event: nil handler")
)

// Type identifies a kind of event.
type Type uint32

// Built-in event types. Applications define their own above UserType.
const (
	None Type = iota
	KeyPress
	KeyRelease
	WindowResize
	AssetLoaded
	UserType Type = 1 << 16
)

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case KeyPress:
		return "key_press"
	case KeyRelease:
		return "key_release"
	case WindowResize:
		return "window_resize"
	case AssetLoaded:
		return "asset_loaded"
	default:
		return fmt.Sprintf("event(%d)", uint32(t))
	}
}

// Buffer is an event payload.
type Buffer struct {
	data []byte
}

// NewBuffer wraps data as an event payload. The buffer does not copy data.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Bytes returns the payload.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Len returns the payload size.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Handler is invoked with the payload of a sent event.
type Handler func(*Buffer)

type listener struct {
	object.Base
	typ     Type
	handler Handler
}

func (l *listener) Release() {
	l.handler = nil
}

// DefaultStoreConfig sizes the per-type listener stores.
func DefaultStoreConfig() store.Config {
	return store.Config{
		ChunkByteSize: 4096,
		MaxChunkCount: 64,
		BucketCount:   64,
	}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStoreConfig sets the configuration of the per-type listener stores.
func WithStoreConfig(cfg store.Config) Option {
	return func(d *Dispatcher) {
		d.cfg = cfg
	}
}

// WithRegistry shares an identifier registry with the listener stores.
func WithRegistry(r *object.Registry) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.registry = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithStoreObserver forwards listener store events to obs.
func WithStoreObserver(obs store.Observer) Option {
	return func(d *Dispatcher) {
		d.observer = obs
	}
}

// Dispatcher routes events to listeners.
type Dispatcher struct {
	arena     *arena.Arena
	registry  *object.Registry
	cfg       store.Config
	listeners map[Type]*store.Store[listener, *listener]
	observer  store.Observer
	logger    *slog.Logger
	sent      uint64
	closed    bool
}

// New returns a dispatcher whose listener stores are reserved from a.
func New(a *arena.Arena, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		arena:     a,
		registry:  object.NewRegistry(),
		cfg:       DefaultStoreConfig(),
		listeners: make(map[Type]*store.Store[listener, *listener]),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Subscribe registers fn for events of type t on behalf of receiver.
// Subscribing again replaces the receiver's handler.
func (d *Dispatcher) Subscribe(receiver object.Identifier, t Type, fn Handler) error {
	if d.closed {
		return ErrClosed
	}
	if fn == nil {
		return ErrNilHandler
	}

	s, err := d.storeFor(t)
	if err != nil {
		return err
	}

	if l := s.Find(receiver); l != nil {
		l.handler = fn
		return nil
	}

	if _, err := s.InsertWithID(receiver, func(l *listener) {
		l.typ = t
		l.handler = fn
	}); err != nil {
		return fmt.Errorf("event: subscribe %s to %s: %w", receiver, t, err)
	}

	return nil
}

// Unsubscribe removes the receiver's handler for t. It reports whether one
// was registered.
func (d *Dispatcher) Unsubscribe(receiver object.Identifier, t Type) bool {
	s, ok := d.listeners[t]
	if !ok {
		return false
	}
	return s.Erase(receiver)
}

// Send dispatches an event of type t with an empty payload.
func (d *Dispatcher) Send(t Type) {
	d.SendData(t, &Buffer{})
}

// SendData dispatches an event of type t to every listener in storage order.
// Handlers must not subscribe or unsubscribe listeners of t.
func (d *Dispatcher) SendData(t Type, data *Buffer) {
	s, ok := d.listeners[t]
	if !ok {
		return
	}
	d.sent++

	for i := 0; i < s.Len(); i++ {
		if l := s.Element(i); l.handler != nil {
			l.handler(data)
		}
	}
}

// Listeners returns the number of listeners subscribed to t.
func (d *Dispatcher) Listeners(t Type) int {
	if s, ok := d.listeners[t]; ok {
		return s.Len()
	}
	return 0
}

// Sent returns the number of events dispatched to at least a listener store.
func (d *Dispatcher) Sent() uint64 { return d.sent }

// Close unsubscribes every listener and returns the listener stores to the arena.
func (d *Dispatcher) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	var errs []error
	for t, s := range d.listeners {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(d.listeners, t)
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) storeFor(t Type) (*store.Store[listener, *listener], error) {
	if s, ok := d.listeners[t]; ok {
		return s, nil
	}

	opts := []store.Option{
		store.WithTypeName("Listener"),
		store.WithLogger(d.logger),
	}
	if d.observer != nil {
		opts = append(opts, store.WithObserver(d.observer))
	}

	s, err := store.New[listener](d.arena, d.registry, d.cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("event: listener store for %s: %w", t, err)
	}
	d.listeners[t] = s
	d.logger.Debug("event: listener store created", "type", t.String())

	return s, nil
}
