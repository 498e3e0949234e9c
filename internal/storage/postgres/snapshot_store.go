package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"listing-lab/internal/domain"
	"listing-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const snapshotColumns = `
	property_id, snapshot_date, address, address_normalized, city, state, zip,
	market, list_price, status, beds, baths, sqft, first_seen_date,
	days_on_market, previous_price, price_change, price_cuts_count, source,
	url, ingested_at
`

// Upsert writes the snapshot row for (property_id, snapshot_date). On
// conflict, mutable fields are overwritten in place while first_seen_date
// keeps its existing value.
func (s *SnapshotStore) Upsert(ctx context.Context, snap *domain.Snapshot) error {
	return execUpsertSnapshot(ctx, s.pool, snap)
}

// execUpsertSnapshot runs the snapshot upsert against a pool or transaction.
func execUpsertSnapshot(ctx context.Context, e execer, snap *domain.Snapshot) error {
	if snap == nil || snap.PropertyID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (property_id, snapshot_date) DO UPDATE SET
			address            = EXCLUDED.address,
			address_normalized = EXCLUDED.address_normalized,
			city               = EXCLUDED.city,
			state              = EXCLUDED.state,
			zip                = EXCLUDED.zip,
			market             = EXCLUDED.market,
			list_price         = EXCLUDED.list_price,
			status             = EXCLUDED.status,
			beds               = EXCLUDED.beds,
			baths              = EXCLUDED.baths,
			sqft               = EXCLUDED.sqft,
			days_on_market     = EXCLUDED.days_on_market,
			previous_price     = EXCLUDED.previous_price,
			price_change       = EXCLUDED.price_change,
			price_cuts_count   = EXCLUDED.price_cuts_count,
			source             = EXCLUDED.source,
			url                = EXCLUDED.url,
			ingested_at        = EXCLUDED.ingested_at
	`

	_, err := e.Exec(ctx, query,
		snap.PropertyID,
		domain.Day(snap.SnapshotDate),
		snap.Address,
		snap.AddressNormalized,
		snap.City,
		snap.State,
		snap.Zip,
		snap.Market,
		snap.ListPrice,
		string(snap.Status),
		snap.Beds,
		snap.Baths,
		snap.Sqft,
		domain.Day(snap.FirstSeenDate),
		snap.DaysOnMarket,
		snap.PreviousPrice,
		snap.PriceChange,
		snap.PriceCutsCount,
		snap.Source,
		snap.URL,
		snap.IngestedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// GetLatestBefore retrieves the most recent snapshot of a property strictly
// before the given day. Returns ErrNotFound if none exists.
func (s *SnapshotStore) GetLatestBefore(ctx context.Context, propertyID string, day time.Time) (*domain.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM snapshots
		WHERE property_id = $1 AND snapshot_date < $2
		ORDER BY snapshot_date DESC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, propertyID, domain.Day(day))
	snap, err := scanSnapshot(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest snapshot before %s: %w", day.Format(domain.DateFormat), err)
	}
	return snap, nil
}

// GetByPropertyID retrieves all snapshots for a property, ordered by
// snapshot_date ASC.
func (s *SnapshotStore) GetByPropertyID(ctx context.Context, propertyID string) ([]*domain.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM snapshots
		WHERE property_id = $1
		ORDER BY snapshot_date ASC
	`

	rows, err := s.pool.Query(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("get snapshots by property id: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetActiveInventory retrieves the FOR_SALE snapshots for a given day.
func (s *SnapshotStore) GetActiveInventory(ctx context.Context, day time.Time) ([]*domain.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM snapshots
		WHERE snapshot_date = $1 AND status = $2
		ORDER BY market ASC, property_id ASC
	`

	rows, err := s.pool.Query(ctx, query, domain.Day(day), string(domain.StatusForSale))
	if err != nil {
		return nil, fmt.Errorf("get active inventory: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetMissingSince retrieves properties FOR_SALE on prevDay with no snapshot
// on day.
func (s *SnapshotStore) GetMissingSince(ctx context.Context, prevDay, day time.Time) ([]*domain.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM snapshots p1
		WHERE p1.snapshot_date = $1
		  AND p1.status = $2
		  AND NOT EXISTS (
			SELECT 1 FROM snapshots p2
			WHERE p2.property_id = p1.property_id AND p2.snapshot_date = $3
		  )
		ORDER BY market ASC, property_id ASC
	`

	rows, err := s.pool.Query(ctx, query, domain.Day(prevDay), string(domain.StatusForSale), domain.Day(day))
	if err != nil {
		return nil, fmt.Errorf("get missing properties: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// InventoryStats computes status/market breakdowns and price/DOM aggregates
// for a given day. Price aggregates cover FOR_SALE rows with a non-null
// price; days-on-market and the price-cut counts cover all FOR_SALE rows.
func (s *SnapshotStore) InventoryStats(ctx context.Context, day time.Time) (*domain.InventoryStats, error) {
	stats := &domain.InventoryStats{
		Date:     domain.Day(day),
		ByStatus: make(map[domain.ListingStatus]int),
		ByMarket: make(map[string]int),
	}

	statusQuery := `
		SELECT status, COUNT(*)
		FROM snapshots
		WHERE snapshot_date = $1
		GROUP BY status
	`
	rows, err := s.pool.Query(ctx, statusQuery, domain.Day(day))
	if err != nil {
		return nil, fmt.Errorf("inventory stats by status: %w", err)
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.ByStatus[domain.ListingStatus(status)] = count
		stats.TotalTracked += count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inventory stats by status: %w", err)
	}
	stats.ActiveCount = stats.ByStatus[domain.StatusForSale]

	marketQuery := `
		SELECT market, COUNT(*)
		FROM snapshots
		WHERE snapshot_date = $1 AND status = $2
		GROUP BY market
	`
	rows, err = s.pool.Query(ctx, marketQuery, domain.Day(day), string(domain.StatusForSale))
	if err != nil {
		return nil, fmt.Errorf("inventory stats by market: %w", err)
	}
	for rows.Next() {
		var market string
		var count int
		if err := rows.Scan(&market, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan market count: %w", err)
		}
		stats.ByMarket[market] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inventory stats by market: %w", err)
	}

	// DOM and price-cut aggregates cover all FOR_SALE rows; AVG/SUM skip the
	// NULL prices, so the price aggregates cover only priced rows and come
	// back NULL when the day has none.
	aggQuery := `
		SELECT
			AVG(list_price), SUM(list_price), AVG(days_on_market),
			COUNT(*) FILTER (WHERE price_cuts_count > 0),
			COALESCE(SUM(price_cuts_count), 0)
		FROM snapshots
		WHERE snapshot_date = $1 AND status = $2
	`
	err = s.pool.QueryRow(ctx, aggQuery, domain.Day(day), string(domain.StatusForSale)).Scan(
		&stats.AvgPrice, &stats.TotalValue, &stats.AvgDaysOnMkt,
		&stats.WithPriceCuts, &stats.TotalPriceCuts,
	)
	if err != nil {
		return nil, fmt.Errorf("inventory price aggregates: %w", err)
	}

	return stats, nil
}

// scanSnapshot scans a single snapshot row.
func scanSnapshot(row pgx.Row) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	var status string
	err := row.Scan(
		&snap.PropertyID,
		&snap.SnapshotDate,
		&snap.Address,
		&snap.AddressNormalized,
		&snap.City,
		&snap.State,
		&snap.Zip,
		&snap.Market,
		&snap.ListPrice,
		&status,
		&snap.Beds,
		&snap.Baths,
		&snap.Sqft,
		&snap.FirstSeenDate,
		&snap.DaysOnMarket,
		&snap.PreviousPrice,
		&snap.PriceChange,
		&snap.PriceCutsCount,
		&snap.Source,
		&snap.URL,
		&snap.IngestedAt,
	)
	if err != nil {
		return nil, err
	}
	snap.Status = domain.ListingStatus(status)
	return &snap, nil
}

// scanSnapshots scans all snapshot rows.
func scanSnapshots(rows pgx.Rows) ([]*domain.Snapshot, error) {
	var result []*domain.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return result, nil
}
