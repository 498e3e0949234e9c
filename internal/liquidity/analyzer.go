package liquidity

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"listing-lab/internal/domain"
	"listing-lab/internal/storage"
)

// Params controls one analysis run. AsOf should be strictly before any
// in-flight ingest day so the analyzer never reads a half-written batch.
type Params struct {
	LookbackDays        int
	SurvivalHorizonDays int    // minimum curve extent; 0 means 90
	Market              string // empty for all markets
	AsOf                time.Time
	Thresholds          Thresholds
	EraStart            time.Time // zero value disables era filtering
}

// Analyzer derives liquidity metrics from the snapshot and transition stores.
// It only reads.
type Analyzer struct {
	snapshots   storage.SnapshotStore
	transitions storage.TransitionStore
	logger      *log.Logger
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(snapshots storage.SnapshotStore, transitions storage.TransitionStore, logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = log.Default()
	}
	return &Analyzer{snapshots: snapshots, transitions: transitions, logger: logger}
}

// Compute derives the full liquidity picture as of Params.AsOf. Partial data
// problems degrade the affected fields to nil and the confidence grade to C
// rather than failing the run; only store errors on the core inventory read
// are fatal.
func (a *Analyzer) Compute(ctx context.Context, params Params) (*domain.LiquiditySnapshot, error) {
	if params.LookbackDays <= 0 {
		params.LookbackDays = 90
	}
	asOf := domain.Day(params.AsOf)

	ls := &domain.LiquiditySnapshot{
		AsOf:    asOf,
		Market:  params.Market,
		Cohorts: make(map[domain.CohortName]int),
	}

	inv, err := a.snapshots.InventoryStats(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("inventory stats: %w", err)
	}

	if params.Market == "" {
		ls.ActiveInventory = inv.ActiveCount
		ls.TotalValue = inv.TotalValue
		ls.AvgPrice = inv.AvgPrice
		ls.TotalPriceCuts = inv.TotalPriceCuts
		if inv.ActiveCount > 0 {
			ls.PctWithPriceCuts = float64(inv.WithPriceCuts) / float64(inv.ActiveCount) * 100
		}
	} else {
		ls.ActiveInventory = inv.ByMarket[params.Market]
	}

	a.fillCohorts(ctx, ls, asOf, params.Market)

	// Exit velocity from the transition log. 30-day exits stand in for
	// monthly velocity.
	exits30, err := a.countExits(ctx, asOf, 30, params)
	if err != nil {
		a.logger.Printf("[liquidity] 30d exit count failed: %v", err)
	}
	exits90, err := a.countExits(ctx, asOf, 90, params)
	if err != nil {
		a.logger.Printf("[liquidity] 90d exit count failed: %v", err)
	}
	ls.ExitsLast30d = exits30
	ls.ExitsLast90d = exits90
	ls.MonthlyVelocity = exits30
	if ls.ActiveInventory > 0 {
		ls.TurnoverRate90d = float64(exits90) / float64(ls.ActiveInventory) * 100
	}
	ls.MonthsOfInventory = MonthsOfInventory(ls.ActiveInventory, ls.MonthlyVelocity)

	// Days to pending from actual FOR_SALE -> PENDING transitions.
	pending, err := a.exitTransitions(ctx, domain.StatusPending, asOf, params.LookbackDays, params)
	if err != nil {
		a.logger.Printf("[liquidity] pending transitions read failed: %v", err)
	}
	pendingStats := DaysToPending(pending)
	ls.MedianDaysToPending = pendingStats.Median
	ls.MeanDaysToPending = pendingStats.Mean
	ls.DaysToPendingSampleSize = pendingStats.Count

	// Survival over all exits (pending or sold) in the lookback window.
	sold, err := a.exitTransitions(ctx, domain.StatusSold, asOf, params.LookbackDays, params)
	if err != nil {
		a.logger.Printf("[liquidity] sold transitions read failed: %v", err)
	}
	var exitDays []int
	for _, t := range append(pending, sold...) {
		exitDays = append(exitDays, t.DaysInPreviousStatus)
	}
	curve := BuildSurvivalCurve(exitDays, params.SurvivalHorizonDays)
	ls.SurvivalRate30d = SurvivalAt(curve, 28)
	ls.SurvivalRate60d = SurvivalAt(curve, 56)
	ls.SurvivalRate90d = SurvivalAt(curve, 84)
	ls.HazardRateWeekly = MeanWeeklyHazard(curve)

	ls.DataCoverage = Coverage(pendingStats.Count, params.LookbackDays)
	ls.Confidence = Grade(ls.DataCoverage, pendingStats.Count, params.Thresholds)

	if params.Market == "" {
		byMarket, err := a.marketBreakdown(ctx, inv, asOf, params)
		if err != nil {
			a.logger.Printf("[liquidity] market breakdown failed: %v", err)
		}
		ls.ByMarket = byMarket
	}

	return ls, nil
}

// fillCohorts buckets the active inventory by days on market. Failures leave
// the cohort map empty.
func (a *Analyzer) fillCohorts(ctx context.Context, ls *domain.LiquiditySnapshot, asOf time.Time, market string) {
	active, err := a.snapshots.GetActiveInventory(ctx, asOf)
	if err != nil {
		a.logger.Printf("[liquidity] active inventory read failed: %v", err)
		return
	}
	for _, snap := range active {
		if market != "" && snap.Market != market {
			continue
		}
		ls.Cohorts[domain.Cohort(snap.DaysOnMarket)]++
	}
}

// countExits counts FOR_SALE exits (to PENDING or SOLD) within the trailing
// window.
func (a *Analyzer) countExits(ctx context.Context, asOf time.Time, windowDays int, params Params) (int, error) {
	pending, err := a.exitTransitions(ctx, domain.StatusPending, asOf, windowDays, params)
	if err != nil {
		return 0, err
	}
	sold, err := a.exitTransitions(ctx, domain.StatusSold, asOf, windowDays, params)
	if err != nil {
		return 0, err
	}
	return len(pending) + len(sold), nil
}

// exitTransitions reads FOR_SALE -> to transitions, applying the era cutoff.
func (a *Analyzer) exitTransitions(ctx context.Context, to domain.ListingStatus, asOf time.Time, windowDays int, params Params) ([]*domain.Transition, error) {
	ts, err := a.transitions.GetByStatusPair(ctx, domain.StatusForSale, to, asOf, windowDays, params.Market)
	if err != nil {
		return nil, err
	}
	if params.EraStart.IsZero() {
		return ts, nil
	}

	filtered := ts[:0]
	for _, t := range ts {
		if domain.InEra(t.TransitionDate, params.EraStart) {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// marketBreakdown computes the per-market slice, sorted by turnover desc.
func (a *Analyzer) marketBreakdown(ctx context.Context, inv *domain.InventoryStats, asOf time.Time, params Params) ([]domain.MarketLiquidity, error) {
	var result []domain.MarketLiquidity

	for market, activeCount := range inv.ByMarket {
		mp := params
		mp.Market = market

		pending, err := a.exitTransitions(ctx, domain.StatusPending, asOf, params.LookbackDays, mp)
		if err != nil {
			return result, err
		}
		sold, err := a.exitTransitions(ctx, domain.StatusSold, asOf, params.LookbackDays, mp)
		if err != nil {
			return result, err
		}

		exits := len(pending) + len(sold)
		ml := domain.MarketLiquidity{
			Market:      market,
			ActiveCount: activeCount,
			Exits90d:    exits,
			SampleSize:  len(pending),
		}
		if activeCount > 0 {
			ml.TurnoverRate = float64(exits) / float64(activeCount) * 100
		}

		ml.MedianDaysToPending = DaysToPending(pending).Median

		var exitDays []int
		for _, t := range append(pending, sold...) {
			exitDays = append(exitDays, t.DaysInPreviousStatus)
		}
		ml.SurvivalRate30d = SurvivalAt(BuildSurvivalCurve(exitDays, params.SurvivalHorizonDays), 28)

		result = append(result, ml)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TurnoverRate != result[j].TurnoverRate {
			return result[i].TurnoverRate > result[j].TurnoverRate
		}
		return result[i].Market < result[j].Market
	})
	return result, nil
}
