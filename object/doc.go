// Package object defines engine object identity.
//
// Every object managed by a store or created by a factory carries an
// Identifier: a fixed 32-byte, human-readable name of the form
// "<seed><counter>", e.g. "Listener0", "Listener1". Identifiers are issued by a
// Registry that keeps one monotonic counter per seed; a counter value is never
// issued twice.
//
// Object types opt in by embedding Base:
//
//	type Listener struct {
//		object.Base
//		Handler func()
//	}
//
// An object type may implement Releaser to run cleanup when the owning store
// or factory destroys it.
package object
