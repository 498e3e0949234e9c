package reporting

import (
	"time"

	"listing-lab/internal/domain"
	"listing-lab/internal/liquidity"
)

// Generator builds reports from analyzer output.
type Generator struct {
	thresholds liquidity.Thresholds
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(thresholds liquidity.Thresholds) *Generator {
	return &Generator{
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report view of a liquidity snapshot.
func (g *Generator) Generate(ls *domain.LiquiditySnapshot, lookbackDays int) *Report {
	r := &Report{
		GeneratedAt:  g.now(),
		AsOf:         ls.AsOf,
		Market:       ls.Market,
		LookbackDays: lookbackDays,

		Inventory: InventorySection{
			ActiveListings: ls.ActiveInventory,
			TotalValue:     ls.TotalValue,
			AvgPrice:       ls.AvgPrice,
			Cohorts:        ls.Cohorts,
		},
		Velocity: VelocitySection{
			Exits30d:          ls.ExitsLast30d,
			Exits90d:          ls.ExitsLast90d,
			MonthlyVelocity:   ls.MonthlyVelocity,
			TurnoverRate90d:   ls.TurnoverRate90d,
			TurnoverSignal:    g.thresholds.TurnoverSignal(ls.TurnoverRate90d),
			MonthsOfInventory: ls.MonthsOfInventory,
			MonthsInvSignal:   g.thresholds.MonthsInventorySignal(ls.MonthsOfInventory),
		},
		Pending: PendingSection{
			SampleSize: ls.DaysToPendingSampleSize,
			Median:     ls.MedianDaysToPending,
			Mean:       ls.MeanDaysToPending,
		},
		Survival: SurvivalSection{
			Rate30d:      ls.SurvivalRate30d,
			Rate60d:      ls.SurvivalRate60d,
			Rate90d:      ls.SurvivalRate90d,
			WeeklyHazard: ls.HazardRateWeekly,
		},
		Stress: StressSection{
			PctWithPriceCuts: ls.PctWithPriceCuts,
			TotalPriceCuts:   ls.TotalPriceCuts,
		},
		Confidence: ConfidenceSection{
			Grade:    ls.Confidence,
			Coverage: ls.DataCoverage,
			Source:   "daily_snapshots",
		},
	}

	for _, m := range ls.ByMarket {
		r.ByMarket = append(r.ByMarket, MarketRow{
			Market:              m.Market,
			ActiveCount:         m.ActiveCount,
			Exits90d:            m.Exits90d,
			TurnoverRate:        m.TurnoverRate,
			MedianDaysToPending: m.MedianDaysToPending,
			SurvivalRate30d:     m.SurvivalRate30d,
			SampleSize:          m.SampleSize,
		})
	}

	return r
}
