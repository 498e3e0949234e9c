package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"listing-lab/internal/domain"
	"listing-lab/internal/storage"
)

// TransitionStore implements storage.TransitionStore using PostgreSQL.
// The transitions table is append-only.
type TransitionStore struct {
	pool *Pool
}

// NewTransitionStore creates a new TransitionStore.
func NewTransitionStore(pool *Pool) *TransitionStore {
	return &TransitionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransitionStore = (*TransitionStore)(nil)

// Append adds a detected transition row.
func (s *TransitionStore) Append(ctx context.Context, t *domain.Transition) error {
	return execAppendTransition(ctx, s.pool, t)
}

// execAppendTransition runs the transition insert against a pool or transaction.
func execAppendTransition(ctx context.Context, e execer, t *domain.Transition) error {
	if t == nil || t.PropertyID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO transitions (
			property_id, transition_date, from_status, to_status,
			days_in_previous_status, list_price_at_transition, market
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := e.Exec(ctx, query,
		t.PropertyID,
		domain.Day(t.TransitionDate),
		string(t.FromStatus),
		string(t.ToStatus),
		t.DaysInPreviousStatus,
		t.ListPriceAtTransition,
		t.Market,
	)
	if err != nil {
		return fmt.Errorf("append transition: %w", err)
	}
	return nil
}

// GetByStatusPair retrieves transitions within the trailing window ending at
// asOf. Zero-valued from/to match any status; empty market matches all markets.
func (s *TransitionStore) GetByStatusPair(ctx context.Context, from, to domain.ListingStatus, asOf time.Time, windowDays int, market string) ([]*domain.Transition, error) {
	query := `
		SELECT property_id, transition_date, from_status, to_status,
		       days_in_previous_status, list_price_at_transition, market
		FROM transitions
		WHERE transition_date > $1 AND transition_date <= $2
		  AND ($3 = '' OR from_status = $3)
		  AND ($4 = '' OR to_status = $4)
		  AND ($5 = '' OR market = $5)
		ORDER BY transition_date ASC, property_id ASC
	`

	end := domain.Day(asOf)
	start := end.AddDate(0, 0, -windowDays)

	rows, err := s.pool.Query(ctx, query, start, end, string(from), string(to), market)
	if err != nil {
		return nil, fmt.Errorf("get transitions by status pair: %w", err)
	}
	defer rows.Close()

	return scanTransitions(rows)
}

// scanTransitions scans all transition rows.
func scanTransitions(rows pgx.Rows) ([]*domain.Transition, error) {
	var result []*domain.Transition
	for rows.Next() {
		var t domain.Transition
		var from, to string
		err := rows.Scan(
			&t.PropertyID,
			&t.TransitionDate,
			&from,
			&to,
			&t.DaysInPreviousStatus,
			&t.ListPriceAtTransition,
			&t.Market,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t.FromStatus = domain.ListingStatus(from)
		t.ToStatus = domain.ListingStatus(to)
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return result, nil
}
