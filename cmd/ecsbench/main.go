// Entity churn benchmark.
//
// Profiling:
// go build ./cmd/ecsbench
// ./ecsbench -mode cpu -entities 20000 -ticks 600
// go tool pprof -http=":8000" ./ecsbench cpu.pprof
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/maze-engine/world/internal/component"
	"github.com/maze-engine/world/internal/core/ecs"
	"github.com/maze-engine/world/internal/system"
	"github.com/pkg/profile"
	"go.uber.org/zap"
)

func main() {
	var (
		mode     = flag.String("mode", "cpu", "profile mode: cpu, mem, none")
		entities = flag.Int("entities", 10000, "entities kept alive")
		ticks    = flag.Int("ticks", 600, "ticks to run")
		churn    = flag.Float64("churn", 0.02, "fraction of entities replaced per tick")
		out      = flag.String("out", ".", "profile output directory")
	)
	flag.Parse()

	switch *mode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*out), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(*out), profile.NoShutdownHook).Stop()
	}

	w := ecs.NewWorld(ecs.WithLogger(zap.NewNop()))
	system.RegisterLinearMovement(w)
	system.RegisterRotor(w)
	system.RegisterLifetime(w, zap.NewNop())
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < *entities; i++ {
		spawn(w, rng)
	}

	dt := 16 * time.Millisecond
	start := time.Now()
	perTick := int(float64(*entities) * *churn)
	for t := 0; t < *ticks; t++ {
		for i := 0; i < perTick; i++ {
			spawn(w, rng)
		}
		w.Update(dt)
	}
	elapsed := time.Since(start)

	stats := w.Stats()
	fmt.Printf("ticks=%d live=%d samples=%d systems=%d last_id=%d\n",
		stats.Tick, stats.Live, stats.Samples, stats.Systems, w.EntityIDCounter())
	fmt.Printf("total=%v per_tick=%v\n", elapsed, elapsed/time.Duration(*ticks))
}

func spawn(w *ecs.World, rng *rand.Rand) {
	e := w.CreateEntity()
	t := ecs.CreateComponent[component.Transform3D](e)
	t.Scale = component.Vec3{X: 1, Y: 1, Z: 1}
	ecs.CreateComponent[component.LinearMovement3D](e).Velocity = component.Vec3{
		X: rng.Float64()*2 - 1,
		Y: rng.Float64()*2 - 1,
	}
	if rng.Intn(2) == 0 {
		ecs.CreateComponent[component.Rotor3D](e).AngularVelocity = component.Vec3{Z: rng.Float64()}
	}
	ecs.CreateComponent[component.Lifetime](e).Remaining = time.Duration(1+rng.Intn(5)) * time.Second
}
