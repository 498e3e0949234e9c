package clickhouse

import (
	"context"
	"fmt"
	"time"

	"listing-lab/internal/domain"
	"listing-lab/internal/storage"
)

// LiquidityArchiveStore implements storage.LiquidityArchiveStore using
// ClickHouse. The liquidity_daily table is a ReplacingMergeTree keyed by
// (as_of, market), so re-archiving a day replaces the prior row on merge.
type LiquidityArchiveStore struct {
	conn *Conn
}

// NewLiquidityArchiveStore creates a new LiquidityArchiveStore.
func NewLiquidityArchiveStore(conn *Conn) *LiquidityArchiveStore {
	return &LiquidityArchiveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.LiquidityArchiveStore = (*LiquidityArchiveStore)(nil)

// InsertDaily stores one derived snapshot keyed by (as_of, market).
func (s *LiquidityArchiveStore) InsertDaily(ctx context.Context, ls *domain.LiquiditySnapshot) error {
	if ls == nil {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO liquidity_daily (
			as_of, market, active_inventory, total_value, avg_price,
			median_days_to_pending, mean_days_to_pending, days_to_pending_n,
			exits_30d, exits_90d, monthly_velocity, turnover_rate_90d,
			months_of_inventory, survival_rate_30d, survival_rate_60d,
			survival_rate_90d, hazard_rate_weekly, pct_with_price_cuts,
			total_price_cuts, confidence_grade, data_coverage
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare liquidity_daily batch: %w", err)
	}

	err = batch.Append(
		domain.Day(ls.AsOf),
		ls.Market,
		uint32(ls.ActiveInventory),
		ls.TotalValue,
		ls.AvgPrice,
		ls.MedianDaysToPending,
		ls.MeanDaysToPending,
		uint32(ls.DaysToPendingSampleSize),
		uint32(ls.ExitsLast30d),
		uint32(ls.ExitsLast90d),
		uint32(ls.MonthlyVelocity),
		ls.TurnoverRate90d,
		ls.MonthsOfInventory,
		ls.SurvivalRate30d,
		ls.SurvivalRate60d,
		ls.SurvivalRate90d,
		ls.HazardRateWeekly,
		ls.PctWithPriceCuts,
		uint32(ls.TotalPriceCuts),
		string(ls.Confidence),
		ls.DataCoverage,
	)
	if err != nil {
		return fmt.Errorf("append to liquidity_daily batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send liquidity_daily batch: %w", err)
	}
	return nil
}

// GetRange retrieves archived snapshots for a market within [start, end],
// ordered by as_of ASC. Empty market selects the all-markets rows.
func (s *LiquidityArchiveStore) GetRange(ctx context.Context, market string, start, end time.Time) ([]*domain.LiquiditySnapshot, error) {
	query := `
		SELECT
			as_of, market, active_inventory, total_value, avg_price,
			median_days_to_pending, mean_days_to_pending, days_to_pending_n,
			exits_30d, exits_90d, monthly_velocity, turnover_rate_90d,
			months_of_inventory, survival_rate_30d, survival_rate_60d,
			survival_rate_90d, hazard_rate_weekly, pct_with_price_cuts,
			total_price_cuts, confidence_grade, data_coverage
		FROM liquidity_daily FINAL
		WHERE market = ? AND as_of >= ? AND as_of <= ?
		ORDER BY as_of ASC
	`

	rows, err := s.conn.Query(ctx, query, market, domain.Day(start), domain.Day(end))
	if err != nil {
		return nil, fmt.Errorf("query liquidity_daily range: %w", err)
	}
	defer rows.Close()

	var result []*domain.LiquiditySnapshot
	for rows.Next() {
		var ls domain.LiquiditySnapshot
		var active, sampleN, exits30, exits90, velocity, totalCuts uint32
		var grade string
		err := rows.Scan(
			&ls.AsOf,
			&ls.Market,
			&active,
			&ls.TotalValue,
			&ls.AvgPrice,
			&ls.MedianDaysToPending,
			&ls.MeanDaysToPending,
			&sampleN,
			&exits30,
			&exits90,
			&velocity,
			&ls.TurnoverRate90d,
			&ls.MonthsOfInventory,
			&ls.SurvivalRate30d,
			&ls.SurvivalRate60d,
			&ls.SurvivalRate90d,
			&ls.HazardRateWeekly,
			&ls.PctWithPriceCuts,
			&totalCuts,
			&grade,
			&ls.DataCoverage,
		)
		if err != nil {
			return nil, fmt.Errorf("scan liquidity_daily row: %w", err)
		}
		ls.ActiveInventory = int(active)
		ls.DaysToPendingSampleSize = int(sampleN)
		ls.ExitsLast30d = int(exits30)
		ls.ExitsLast90d = int(exits90)
		ls.MonthlyVelocity = int(velocity)
		ls.TotalPriceCuts = int(totalCuts)
		ls.Confidence = domain.ConfidenceGrade(grade)
		result = append(result, &ls)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liquidity_daily rows: %w", err)
	}
	return result, nil
}
