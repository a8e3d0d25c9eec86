package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hupe1980/triton"
	"github.com/hupe1980/triton/event"
	"github.com/hupe1980/triton/factory"
	"github.com/hupe1980/triton/object"
	"github.com/hupe1980/triton/store"
)

// Collision is sent when a worker reports two entities in the same cell.
const Collision = event.UserType + 1

// Entity is a stored, indexed game object.
type Entity struct {
	object.Base
	X, Y   float32
	VX, VY float32
	HP     int32
}

// Projectile is an individually placed object with a short lifetime.
type Projectile struct {
	object.Base
	TTL int
}

type benchConfig struct {
	Spawn    int
	Despawn  int
	Seed     uint64
	Interval time.Duration
}

type bench struct {
	cfg         benchConfig
	eng         *triton.Engine
	rng         *rand.Rand
	entities    *store.Store[Entity, *Entity]
	projectiles *factory.Factory[Projectile, *Projectile]
	live        []*Projectile
	hud         object.Identifier

	spawned    int
	despawned  int
	collisions int
	peak       uint64
}

func newBench(eng *triton.Engine, cfg benchConfig) (*bench, error) {
	entities, err := triton.NewStore[Entity](eng, store.Config{})
	if err != nil {
		return nil, err
	}

	b := &bench{
		cfg:         cfg,
		eng:         eng,
		rng:         rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		entities:    entities,
		projectiles: triton.NewFactory[Projectile](eng),
	}

	b.hud, err = eng.Registry().Generate("Hud")
	if err != nil {
		_ = entities.Close()
		return nil, err
	}
	if err := eng.Events().Subscribe(b.hud, Collision, func(buf *event.Buffer) {
		if buf.Len() == 8 {
			b.collisions++
		}
	}); err != nil {
		_ = entities.Close()
		return nil, err
	}

	return b, nil
}

// run simulates frames on the calling goroutine. Workers only compute
// collisions; the results are dispatched here.
func (b *bench) run(ctx context.Context, frames int) error {
	for range frames {
		start := time.Now()
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.frame(); err != nil {
			return err
		}
		b.eng.Publish()
		b.peak = max(b.peak, b.eng.Snapshot().Arena.BytesUsed)

		if d := b.cfg.Interval - time.Since(start); d > 0 {
			time.Sleep(d)
		}
	}
	return nil
}

func (b *bench) frame() error {
	for range b.cfg.Spawn {
		if _, err := b.entities.Insert(func(e *Entity) {
			e.X, e.Y = b.rng.Float32()*100, b.rng.Float32()*100
			e.VX, e.VY = b.rng.Float32()-0.5, b.rng.Float32()-0.5
			e.HP = 100
		}); err != nil {
			return fmt.Errorf("spawn: %w", err)
		}
		b.spawned++
	}

	for range min(b.cfg.Despawn, b.entities.Len()) {
		victim := b.entities.Element(b.rng.IntN(b.entities.Len()))
		if b.entities.Erase(victim.ID()) {
			b.despawned++
		}
	}

	if err := b.fire(); err != nil {
		return err
	}

	for _, e := range b.entities.All() {
		e.X += e.VX
		e.Y += e.VY
	}

	return b.detect()
}

func (b *bench) fire() error {
	kept := b.live[:0]
	for _, p := range b.live {
		p.TTL--
		if p.TTL > 0 {
			kept = append(kept, p)
			continue
		}
		if err := b.projectiles.Destroy(p); err != nil {
			return err
		}
	}
	b.live = kept

	p, err := b.projectiles.Create(func(p *Projectile) { p.TTL = 1 + b.rng.IntN(30) })
	if err != nil {
		return fmt.Errorf("fire: %w", err)
	}
	b.live = append(b.live, p)
	return nil
}

type cell struct{ x, y int32 }

// detect partitions the entity positions across the worker pool and sends a
// Collision event for every shared grid cell found.
func (b *bench) detect() error {
	n := b.entities.Len()
	if n == 0 {
		return nil
	}

	cells := make([]cell, n)
	for i, e := range b.entities.All() {
		cells[i] = cell{int32(e.X), int32(e.Y)}
	}

	workers := b.eng.Workers().Size()
	results := make(chan []uint64, workers)
	per := (n + workers - 1) / workers
	tasks := 0
	for lo := 0; lo < n; lo += per {
		part := cells[lo:min(lo+per, n)]
		base := lo
		if err := b.eng.Workers().Submit(func() {
			seen := make(map[cell]int, len(part))
			var hits []uint64
			for i, c := range part {
				if j, ok := seen[c]; ok {
					hits = append(hits, uint64(j)<<32|uint64(base+i))
					continue
				}
				seen[c] = base + i
			}
			results <- hits
		}); err != nil {
			return err
		}
		tasks++
	}

	for range tasks {
		for _, hit := range <-results {
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], hit)
			b.eng.Events().SendData(Collision, event.NewBuffer(buf[:]))
		}
	}
	return nil
}

func (b *bench) close() error {
	for _, p := range b.live {
		if err := b.projectiles.Destroy(p); err != nil {
			return err
		}
	}
	b.live = nil
	b.eng.Events().Unsubscribe(b.hud, Collision)
	return b.entities.Close()
}
