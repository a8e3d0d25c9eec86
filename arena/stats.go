package arena

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Stats is a point-in-time view of arena usage.
//
// Note on semantics:
//   - BytesUsed: reserved (aligned) bytes of live allocations
//   - BytesRequested: bytes asked for by live allocations, before alignment
//   - LargestFree: largest single reservation that can currently succeed
//   - Fragmentation: 1 - LargestFree/free bytes, 0 when free space is contiguous
type Stats struct {
	ByteSize       uint64
	BytesUsed      uint64
	BytesRequested uint64
	LargestFree    uint64
	Records        int
	FreeRecords    int
	LiveAllocs     int
	MaxAllocs      int
	Fragmentation  float64

	TotalAllocs  uint64 // Historical
	TotalFrees   uint64 // Historical
	FailedAllocs uint64 // Historical
	InvalidFrees uint64 // Historical
	BytesFreed   uint64 // Historical
}

// Stats returns the current arena statistics.
func (a *Arena) Stats() Stats {
	s := Stats{
		ByteSize:     uint64(a.byteSize),
		BytesUsed:    uint64(a.bytesUsed),
		Records:      len(a.records),
		LiveAllocs:   a.live,
		MaxAllocs:    a.maxAllocs,
		TotalAllocs:  a.counters.allocs,
		TotalFrees:   a.counters.frees,
		FailedAllocs: a.counters.failedAllocs,
		InvalidFrees: a.counters.invalidFrees,
		BytesFreed:   a.counters.bytesFreed,
	}

	if a.data == nil {
		return s
	}

	for _, r := range a.records {
		if r.free {
			s.FreeRecords++
			s.LargestFree = max(s.LargestFree, uint64(r.reserved))
			continue
		}
		s.BytesRequested += uint64(r.occupied)
	}
	if len(a.records) < a.maxAllocs {
		s.LargestFree = max(s.LargestFree, uint64(a.byteSize-a.tail))
	}

	if free := s.ByteSize - s.BytesUsed; free > 0 {
		s.Fragmentation = 1 - float64(s.LargestFree)/float64(free)
	}

	return s
}

// Usage returns the share of the block held by live allocations, in percent.
func (a *Arena) Usage() float64 {
	if a.byteSize == 0 {
		return 0
	}
	return float64(a.bytesUsed) / float64(a.byteSize) * 100
}

func (s Stats) String() string {
	return fmt.Sprintf(
		"Arena{size: %s, used: %s, requested: %s, largest free: %s, records: %d/%d, live: %d, fragmentation: %.1f%%}",
		humanize.IBytes(s.ByteSize),
		humanize.IBytes(s.BytesUsed),
		humanize.IBytes(s.BytesRequested),
		humanize.IBytes(s.LargestFree),
		s.Records,
		s.MaxAllocs,
		s.LiveAllocs,
		s.Fragmentation*100,
	)
}

func (a *Arena) String() string {
	return a.Stats().String()
}
