package object

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
)

// Registry issues identifiers with one monotonic counter per stem.
// It is safe for concurrent use.
//
// The stem is the seed as it appears in the identifier: truncated so the
// counter digits fit, and suffixed with '_' when it would otherwise end in a
// digit. Every identifier therefore splits uniquely into stem and counter,
// and a (stem, counter) pair is issued at most once.
type Registry struct {
	mu       sync.Mutex
	counters map[string]uint64
	ceiling  uint64
	issued   uint64
	logger   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithCeiling limits the number of identifiers issued per stem.
func WithCeiling(n uint64) RegistryOption {
	return func(r *Registry) {
		r.ceiling = n
	}
}

// WithLogger sets the logger used to report exhausted seeds.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		counters: make(map[string]uint64),
		ceiling:  math.MaxUint64,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate issues the next identifier for seed.
//
// A seed that does not fit next to its counter digits is truncated from the
// right; the digits are always kept. Seeds that share their stem share its
// counter, so truncation never repeats an identifier.
func (r *Registry) Generate(seed string) (Identifier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stem, n := r.next(seed)
	if n >= r.ceiling {
		r.logger.Error("object: identifier counter exhausted", "seed", seed, "stem", stem, "ceiling", r.ceiling)
		return Identifier{}, fmt.Errorf("%w: seed %q issued %d identifiers", ErrIdentifierExhausted, seed, n)
	}
	r.counters[stem] = n + 1
	r.issued++

	var id Identifier
	copy(id[copy(id[:], stem):], strconv.AppendUint(nil, n, 10))
	return id, nil
}

// CanGenerate reports whether Generate(seed) would currently succeed.
func (r *Registry) CanGenerate(seed string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, n := r.next(seed); n >= r.ceiling {
		return fmt.Errorf("%w: seed %q issued %d identifiers", ErrIdentifierExhausted, seed, n)
	}
	return nil
}

// Next returns the counter value the next Generate(seed) would use.
func (r *Registry) Next(seed string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, n := r.next(seed)
	return n
}

// next picks the stem for seed: the longest one whose counter still fits
// next to it.
func (r *Registry) next(seed string) (string, uint64) {
	for width := 1; ; width++ {
		stem := stemOf(seed, IdentifierSize-width)
		n := r.counters[stem]
		if digits(n) <= width || width >= maxDigits {
			return stem, n
		}
	}
}

// Issued returns the total number of identifiers issued.
func (r *Registry) Issued() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.issued
}

// Seeds returns the number of distinct stems seen.
func (r *Registry) Seeds() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.counters)
}

// maxDigits is the width of math.MaxUint64 in decimal.
const maxDigits = 20

func stemOf(seed string, limit int) string {
	if len(seed) > limit {
		seed = seed[:limit]
	}
	if seed != "" && isDigit(seed[len(seed)-1]) {
		seed = seed[:min(len(seed), limit-1)] + "_"
	}
	return seed
}

func digits(n uint64) int {
	d := 1
	for ; n >= 10; n /= 10 {
		d++
	}
	return d
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
