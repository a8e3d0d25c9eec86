// Package testutil provides testing utilities for Triton.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random source and generators for allocation
// workloads and payloads.
//
// # Random Generation
//
//	rng := testutil.NewRNG(seed)
//	buf := rng.Bytes(256)
//	seed := rng.Seed("obj", 12)
//
// # Allocation Plans
//
//	plan := rng.AllocPlan(1000, 1, 512, 0.4)
//	for _, op := range plan {
//		if op.Free { ... } else { ... op.Size ... }
//	}
package testutil
