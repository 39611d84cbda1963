package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Snapshot is one saved scene document plus the world metadata needed to
// restore its id space.
type Snapshot struct {
	ID        uuid.UUID
	Tick      uint64
	IDCounter int32
	Entities  int
	Body      []byte // scene YAML
	CreatedAt time.Time
}

type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Save inserts s and returns its id. A nil s.ID is replaced by a new one.
func (r *SnapshotRepo) Save(ctx context.Context, s *Snapshot) (uuid.UUID, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO world_snapshots (id, tick, id_counter, entities, body)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		s.ID, int64(s.Tick), s.IDCounter, s.Entities, s.Body,
	).Scan(&s.CreatedAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert snapshot: %w", err)
	}
	return s.ID, nil
}

// Latest returns the most recent snapshot, or nil if there is none.
func (r *SnapshotRepo) Latest(ctx context.Context) (*Snapshot, error) {
	return r.scanOne(ctx,
		`SELECT id, tick, id_counter, entities, body, created_at
		 FROM world_snapshots ORDER BY created_at DESC LIMIT 1`)
}

// Get returns the snapshot with id, or nil if it does not exist.
func (r *SnapshotRepo) Get(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	return r.scanOne(ctx,
		`SELECT id, tick, id_counter, entities, body, created_at
		 FROM world_snapshots WHERE id = $1`, id)
}

// Prune deletes all but the newest keep snapshots.
func (r *SnapshotRepo) Prune(ctx context.Context, keep int) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM world_snapshots WHERE id NOT IN (
			SELECT id FROM world_snapshots ORDER BY created_at DESC LIMIT $1
		 )`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SnapshotRepo) scanOne(ctx context.Context, query string, args ...any) (*Snapshot, error) {
	var (
		s    Snapshot
		tick int64
	)
	err := r.db.Pool.QueryRow(ctx, query, args...).Scan(
		&s.ID, &tick, &s.IDCounter, &s.Entities, &s.Body, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	s.Tick = uint64(tick)
	return &s, nil
}
