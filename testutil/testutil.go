package testutil

import (
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic test data
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed)) //nolint:gosec // deterministic test data
}

// InitialSeed returns the initial seed.
func (r *RNG) InitialSeed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// IntRange returns a pseudo-random number in [lo,hi].
func (r *RNG) IntRange(lo, hi int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo + r.rand.Intn(hi-lo+1)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Bytes returns n pseudo-random bytes.
func (r *RNG) Bytes(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, n)
	_, _ = r.rand.Read(b)
	return b
}

const seedAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789_"

// Seed returns prefix followed by random characters, n characters in total.
func (r *RNG) Seed(prefix string, n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := []byte(prefix)
	for len(b) < n {
		b = append(b, seedAlphabet[r.rand.Intn(len(seedAlphabet))])
	}
	return string(b[:n])
}

// Op is one step of an allocation plan.
type Op struct {
	// Free releases the live allocation at index Victim (modulo live count)
	// instead of allocating.
	Free   bool
	Victim int
	Size   int
}

// AllocPlan returns n random allocate/free steps. Sizes are drawn from
// [minSize,maxSize]; freeRatio is the probability of a free step.
func (r *RNG) AllocPlan(n, minSize, maxSize int, freeRatio float64) []Op {
	plan := make([]Op, n)
	for i := range plan {
		if r.Float64() < freeRatio {
			plan[i] = Op{Free: true, Victim: r.Intn(1 << 30)}
			continue
		}
		plan[i] = Op{Size: r.IntRange(minSize, maxSize)}
	}
	return plan
}

// Shuffle pseudo-randomizes the order of n elements using swap.
func (r *RNG) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(n, swap)
}
