// Profiling:
// go build ./cmd/churn
// ./churn -mode mem && go tool pprof -http=":8000" ./churn mem.pprof

package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/pkg/profile"
	"github.com/zeusync/ownership/internal/core/handle"
	"github.com/zeusync/ownership/internal/core/identity"
	"github.com/zeusync/ownership/internal/core/models"
	"github.com/zeusync/ownership/internal/core/registry"
	"github.com/zeusync/ownership/pkg/concurrent"
	"github.com/zeusync/ownership/pkg/sequence"
)

type particle struct {
	models.Object
	V int64
}

func main() {
	mode := flag.String("mode", "cpu", "profile to record: cpu, mem or none")
	rounds := flag.Int("rounds", 50, "registry rounds")
	entities := flag.Int("entities", 1000, "entities per round")
	workers := flag.Int("workers", 8, "goroutines used for the sharded round")
	flag.Parse()

	var p interface{ Stop() }
	switch *mode {
	case "cpu":
		p = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case "mem":
		p = profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	}

	start := time.Now()
	local := runLocal(*rounds, *entities)
	sharded := runSharded(*rounds, *entities, *workers)
	if p != nil {
		p.Stop()
	}

	fmt.Printf("registry: %+v\n", local)
	fmt.Printf("sharded:  %+v\n", sharded)
	fmt.Printf("elapsed:  %s\n", time.Since(start))
}

// runLocal fills a registry, touches every entity through weak handles and
// then removes everything again.
func runLocal(rounds, n int) registry.Stats {
	ids := identity.NewSequence()
	reg := registry.New[*particle]()
	for range rounds {
		for range n {
			reg.Add(handle.New(&particle{Object: models.NewObject(ids), V: 1}))
		}
		reg.ForEach(func(w handle.Weak[*particle]) {
			_ = w.Do(func(p *particle) { p.V++ })
		})
		reg.Clear()
	}
	return reg.Stats()
}

// runSharded spreads inserts and lookups of each round over workers goroutines.
func runSharded(rounds, n, workers int) registry.Stats {
	ids := identity.NewSequence()
	reg := registry.NewSharded[*particle](workers * 2)
	batch := max(n/max(workers, 1), 1)
	for range rounds {
		particles := make([]*particle, n)
		for i := range particles {
			particles[i] = &particle{Object: models.NewObject(ids)}
		}
		concurrent.Batch(sequence.From(particles), batch, func(chunk []*particle) {
			for _, p := range chunk {
				reg.Add(handle.New(p))
				if s, ok := reg.Acquire(p.ID()); ok {
					s.MustGet().V++
					s.Release()
				}
			}
		})
		reg.Clear()
	}
	return reg.Stats()
}
