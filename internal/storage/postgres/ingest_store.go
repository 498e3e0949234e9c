package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"listing-lab/internal/domain"
	"listing-lab/internal/storage"
)

// execer is satisfied by both *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// IngestStore implements storage.Ingestor using PostgreSQL. The transition
// append and the snapshot upsert commit in a single transaction so a failure
// for one property can never leave a transition without its snapshot row.
type IngestStore struct {
	pool *Pool
}

// NewIngestStore creates a new IngestStore.
func NewIngestStore(pool *Pool) *IngestStore {
	return &IngestStore{pool: pool}
}

// Compile-time interface check.
var _ storage.Ingestor = (*IngestStore)(nil)

// ApplyIngest records the transition (when non-nil) and upserts the snapshot
// atomically. Any transition already recorded for the property on the same day
// is replaced, so re-running a day never stacks duplicate transition rows.
func (s *IngestStore) ApplyIngest(ctx context.Context, snap *domain.Snapshot, t *domain.Transition) error {
	if snap == nil || snap.PropertyID == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ingest tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM transitions WHERE property_id = $1 AND transition_date = $2`,
		snap.PropertyID, domain.Day(snap.SnapshotDate),
	)
	if err != nil {
		return fmt.Errorf("clear same-day transitions: %w", err)
	}

	if t != nil {
		if err := execAppendTransition(ctx, tx, t); err != nil {
			return err
		}
	}
	if err := execUpsertSnapshot(ctx, tx, snap); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ingest tx: %w", err)
	}
	return nil
}
