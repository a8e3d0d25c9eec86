package store

// Stats is a point-in-time view of a store.
type Stats struct {
	Elements        int
	Chunks          int
	MaxChunks       int
	ObjectsPerChunk int
	Buckets         int
	BucketsUsed     uint64
	BytesReserved   int
	State           State

	Inserts    uint64
	Erases     uint64
	Collisions uint64 // inserts that overwrote an occupied bucket
	FastHits   uint64 // Find answered by the hash index
	SlowHits   uint64 // Find answered by the linear scan
	Misses     uint64
}

// Stats returns the current store statistics.
func (s *Store[T, PT]) Stats() Stats {
	st := Stats{
		Elements:        s.count,
		Chunks:          len(s.chunks),
		MaxChunks:       s.maxChunks,
		ObjectsPerChunk: s.perChunk,
		Buckets:         s.mask + 1,
		BucketsUsed:     s.occupied.GetCardinality(),
		State:           s.state,
		Inserts:         s.counters.inserts,
		Erases:          s.counters.erases,
		Collisions:      s.counters.collisions,
		FastHits:        s.counters.fastHits,
		SlowHits:        s.counters.slowHits,
		Misses:          s.counters.misses,
	}
	if !s.closed {
		st.BytesReserved = s.arena.Reserved(s.tableAddr) + s.arena.Reserved(s.indexAddr)
		for c := range s.chunks {
			st.BytesReserved += s.arena.Reserved(s.table[c])
		}
	}
	return st
}
