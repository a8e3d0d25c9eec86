package object

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/hupe1980/triton/internal/hash"
)

// IdentifierSize is the fixed byte capacity of an Identifier.
const IdentifierSize = 32

var (
	// ErrIdentifierExhausted is returned when a seed's counter reached the registry ceiling.
	ErrIdentifierExhausted = errors.New("object: identifier counter exhausted")
	// ErrIdentifierTooLong is returned when text does not fit an Identifier.
	ErrIdentifierTooLong = errors.New("object: identifier too long")
)

// Identifier is a fixed-capacity, zero-padded identifier string.
// Two identifiers are equal iff their bytes are equal, so == works.
type Identifier [IdentifierSize]byte

// ParseIdentifier builds an Identifier from text, e.g. to use as a lookup key.
func ParseIdentifier(s string) (Identifier, error) {
	var id Identifier
	if len(s) > IdentifierSize {
		return id, fmt.Errorf("%w: %q is %d bytes, capacity %d", ErrIdentifierTooLong, s, len(s), IdentifierSize)
	}
	copy(id[:], s)
	return id, nil
}

// MustParseIdentifier is like ParseIdentifier but panics on error.
// It is intended for constants in tests and examples.
func MustParseIdentifier(s string) Identifier {
	id, err := ParseIdentifier(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the identifier text without padding.
func (id Identifier) String() string {
	if i := bytes.IndexByte(id[:], 0); i >= 0 {
		return string(id[:i])
	}
	return string(id[:])
}

// Equal reports whether id and other hold the same bytes.
func (id Identifier) Equal(other Identifier) bool {
	return id == other
}

// IsZero reports whether id was never assigned.
func (id Identifier) IsZero() bool {
	return id == Identifier{}
}

// Hash returns a non-cryptographic 64-bit hash of the raw identifier bytes.
func (id Identifier) Hash() uint64 {
	return hash.Identifier(id[:])
}
