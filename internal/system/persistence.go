package system

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/maze-engine/world/internal/core/ecs"
	coresys "github.com/maze-engine/world/internal/core/system"
	"github.com/maze-engine/world/internal/persist"
	"github.com/maze-engine/world/internal/scene"
	"go.uber.org/zap"
)

// SnapshotStore is the part of persist.SnapshotRepo the snapshot system
// needs.
type SnapshotStore interface {
	Save(ctx context.Context, s *persist.Snapshot) (uuid.UUID, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// SnapshotSystem periodically captures the world as a scene document and
// stores it. Persist band.
type SnapshotSystem struct {
	world     *ecs.World
	registry  *scene.Registry
	store     SnapshotStore
	log       *zap.Logger
	tickCount int
	interval  int // snapshot every N ticks
	keep      int // snapshots retained after each save, 0 = all
}

func NewSnapshotSystem(w *ecs.World, reg *scene.Registry, store SnapshotStore, log *zap.Logger, intervalTicks, keep int) *SnapshotSystem {
	return &SnapshotSystem{
		world:    w,
		registry: reg,
		store:    store,
		log:      log,
		interval: intervalTicks,
		keep:     keep,
	}
}

func (s *SnapshotSystem) Order() coresys.Order { return coresys.OrderPersist }

func (s *SnapshotSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.SaveNow(ctx); err != nil {
		s.log.Error("snapshot failed", zap.Error(err))
	}
}

// SaveNow captures and stores a snapshot immediately. Called on shutdown.
func (s *SnapshotSystem) SaveNow(ctx context.Context) (uuid.UUID, error) {
	doc, err := scene.Capture(s.world, s.registry)
	if err != nil {
		return uuid.Nil, fmt.Errorf("capture: %w", err)
	}
	body, err := doc.Marshal()
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode: %w", err)
	}
	snap := &persist.Snapshot{
		Tick:      s.world.Tick(),
		IDCounter: int32(doc.IDCounter),
		Entities:  len(doc.Entities),
		Body:      body,
	}
	id, err := s.store.Save(ctx, snap)
	if err != nil {
		return uuid.Nil, err
	}
	s.log.Info("snapshot saved",
		zap.Stringer("id", id),
		zap.Uint64("tick", snap.Tick),
		zap.Int("entities", snap.Entities),
	)
	if s.keep > 0 {
		if n, err := s.store.Prune(ctx, s.keep); err != nil {
			s.log.Warn("snapshot prune failed", zap.Error(err))
		} else if n > 0 {
			s.log.Debug("snapshots pruned", zap.Int64("count", n))
		}
	}
	return id, nil
}
