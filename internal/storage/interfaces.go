package storage

import (
	"context"
	"time"

	"listing-lab/internal/domain"
)

// SnapshotStore provides access to the snapshots table, one row per
// (property_id, snapshot_date). The store is the sole owner of snapshot rows.
type SnapshotStore interface {
	// Upsert writes the snapshot row for (property_id, snapshot_date),
	// overwriting mutable fields when the row already exists. FirstSeenDate is
	// preserved from the existing row on conflict. Same-day re-ingestion is
	// therefore idempotent, never an error.
	Upsert(ctx context.Context, s *domain.Snapshot) error

	// GetLatestBefore retrieves the most recent snapshot of a property with a
	// date strictly before the given day. Returns ErrNotFound if none exists.
	GetLatestBefore(ctx context.Context, propertyID string, day time.Time) (*domain.Snapshot, error)

	// GetByPropertyID retrieves all snapshots for a property, ordered by
	// snapshot_date ASC.
	GetByPropertyID(ctx context.Context, propertyID string) ([]*domain.Snapshot, error)

	// GetActiveInventory retrieves the FOR_SALE snapshots for a given day.
	GetActiveInventory(ctx context.Context, day time.Time) ([]*domain.Snapshot, error)

	// GetMissingSince retrieves properties that were FOR_SALE on prevDay but
	// have no snapshot on day. These may have sold, been delisted, or simply
	// been missed by the collector.
	GetMissingSince(ctx context.Context, prevDay, day time.Time) ([]*domain.Snapshot, error)

	// InventoryStats computes status/market breakdowns and price/DOM
	// aggregates for a given day. Rows without a price are excluded from the
	// price aggregates but still counted.
	InventoryStats(ctx context.Context, day time.Time) (*domain.InventoryStats, error)
}

// Ingestor atomically applies one property's daily ingest result: the
// transition append (when a status change was detected) followed by the
// snapshot upsert. A failed ingest for one property must leave every other
// property's state untouched.
type Ingestor interface {
	ApplyIngest(ctx context.Context, snap *domain.Snapshot, t *domain.Transition) error
}

// TransitionStore provides access to the append-only transitions log.
// The transition detector is the only writer.
type TransitionStore interface {
	// Append adds a detected transition. The log is append-only; there is no
	// natural unique key because rapid repeated flips each produce their own row.
	Append(ctx context.Context, t *domain.Transition) error

	// GetByStatusPair retrieves transitions within the trailing window ending
	// at asOf. Zero-valued from/to match any status; empty market matches all
	// markets. Results are ordered by transition_date ASC.
	GetByStatusPair(ctx context.Context, from, to domain.ListingStatus, asOf time.Time, windowDays int, market string) ([]*domain.Transition, error)
}

// LiquidityArchiveStore persists derived liquidity snapshots for historical
// trend queries. The archive is a convenience copy, never the system of record.
type LiquidityArchiveStore interface {
	// InsertDaily stores one derived snapshot keyed by (as_of, market).
	// Re-archiving the same day replaces the prior row.
	InsertDaily(ctx context.Context, ls *domain.LiquiditySnapshot) error

	// GetRange retrieves archived snapshots for a market within [start, end],
	// ordered by as_of ASC. Empty market selects the all-markets rows.
	GetRange(ctx context.Context, market string, start, end time.Time) ([]*domain.LiquiditySnapshot, error)
}
