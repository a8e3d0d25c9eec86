package triton

import (
	"time"

	"github.com/hupe1980/triton/arena"
	"github.com/hupe1980/triton/resource"
	"github.com/hupe1980/triton/worker"
)

// Snapshot is an immutable view of engine statistics captured by Publish.
type Snapshot struct {
	Sequence uint64
	Time     time.Time

	Arena arena.Stats

	IdentifiersIssued uint64
	IdentifierSeeds   int

	Workers    worker.Stats
	EventsSent uint64

	Resources resource.Stats
}
