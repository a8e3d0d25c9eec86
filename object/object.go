package object

import "github.com/hupe1980/triton/arena"

// Object is implemented by types embedding Base.
type Object interface {
	ID() Identifier
	Addr() (arena.Addr, bool)
	base() *Base
}

// Ptr constrains a pointer to T that is an Object.
type Ptr[T any] interface {
	*T
	Object
}

// Releaser is implemented by objects that hold resources to release when
// they are destroyed.
type Releaser interface {
	Release()
}

// Base carries the identity of an engine object.
type Base struct {
	id     Identifier
	addr   arena.Addr
	owner  any
	placed bool
}

// ID returns the object's identifier.
func (b *Base) ID() Identifier { return b.id }

// Addr returns the arena address of a factory-created object.
func (b *Base) Addr() (arena.Addr, bool) { return b.addr, b.placed }

func (b *Base) base() *Base { return b }

// Stamp assigns id to o.
func Stamp(o Object, id Identifier) {
	o.base().id = id
}

// Place records that o owns the arena allocation at addr on behalf of
// owner, the factory that created it.
func Place(o Object, owner any, addr arena.Addr) {
	b := o.base()
	b.addr = addr
	b.owner = owner
	b.placed = true
}

// PlacedBy returns the arena address of o if owner placed it.
func PlacedBy(o Object, owner any) (arena.Addr, bool) {
	b := o.base()
	if !b.placed || b.owner != owner {
		return 0, false
	}
	return b.addr, true
}

// Unplace clears and returns the arena placement of o.
func Unplace(o Object) (arena.Addr, bool) {
	b := o.base()
	addr, ok := b.addr, b.placed
	b.addr, b.owner, b.placed = 0, nil, false
	return addr, ok
}

// Release calls o.Release when o implements Releaser.
func Release(o any) {
	if r, ok := o.(Releaser); ok {
		r.Release()
	}
}
