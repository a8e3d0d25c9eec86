// Package triton provides the runtime core of a small game engine: a
// fixed-capacity arena allocator, string identifiers, chunked object stores,
// a worker pool, an event dispatcher and an asset loader, owned by one Engine.
//
// # Quick Start
//
//	eng, err := triton.New(triton.WithArena(1<<20, 65536, 64))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	type Enemy struct {
//	    object.Base
//	    HP int
//	}
//
//	enemies, _ := triton.NewStore[Enemy](eng, store.Config{})
//	e, _ := enemies.Insert(func(e *Enemy) { e.HP = 100 })
//	fmt.Println(e.ID()) // Enemy0
//
// # Ownership
//
// The arena, the stores and the dispatcher are single-owner: call them from
// the goroutine that created the Engine (the frame loop). Worker tasks must
// hand results back to that goroutine instead of touching engine state.
// Snapshot is the exception; Publish captures statistics on the owner and
// Snapshot may be read from any goroutine.
//
// # Configuration
//
// Engines are configured with functional options or from a TOML/YAML
// descriptor:
//
//	cfg, _ := config.Load("engine.toml")
//	eng, _ := triton.New(triton.WithConfig(cfg))
//
// # Key Features
//
//   - First-fit arena with neighbour coalescing and optional off-heap backing
//   - Chunked stores with O(1) identifier lookup and dense iteration
//   - Identifier registry with per-seed ceilings
//   - Pausable worker pool and per-type event dispatch
//   - Packed (LZ4/Zstd) assets from local disk, S3 or MinIO
package triton
