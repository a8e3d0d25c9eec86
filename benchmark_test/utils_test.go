package benchmark_test

import (
	"testing"

	"github.com/hupe1980/triton"
	"github.com/hupe1980/triton/object"
)

// Particle is a small fixed-size object.
type Particle struct {
	object.Base
	X, Y, Z    float32
	VX, VY, VZ float32
	Life       float32
}

// Mesh is a larger object spanning several cache lines.
type Mesh struct {
	object.Base
	Vertices [64]float32
	Material uint32
}

func newEngine(b *testing.B, byteSize int) *triton.Engine {
	b.Helper()
	e, err := triton.New(triton.WithArena(byteSize, 0, 0), triton.WithWorkers(4))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = e.Close() })
	return e
}
