// Package reporting renders liquidity analysis results for human and
// machine consumers. This is the JSON boundary for external dashboards.
package reporting

import (
	"time"

	"listing-lab/internal/domain"
	"listing-lab/internal/liquidity"
)

// Report is the rendered view of one liquidity analysis run.
type Report struct {
	GeneratedAt  time.Time `json:"generated_at"`
	AsOf         time.Time `json:"as_of"`
	Market       string    `json:"market,omitempty"`
	LookbackDays int       `json:"lookback_days"`

	Inventory InventorySection `json:"inventory"`
	Velocity  VelocitySection  `json:"velocity"`
	Pending   PendingSection   `json:"days_to_pending"`
	Survival  SurvivalSection  `json:"survival"`
	Stress    StressSection    `json:"price_stress"`

	Confidence ConfidenceSection `json:"confidence"`
	ByMarket   []MarketRow       `json:"by_market,omitempty"`
}

// InventorySection describes the active inventory.
type InventorySection struct {
	ActiveListings int                       `json:"active_listings"`
	TotalValue     *float64                  `json:"total_value,omitempty"`
	AvgPrice       *float64                  `json:"avg_price,omitempty"`
	Cohorts        map[domain.CohortName]int `json:"cohorts,omitempty"`
}

// VelocitySection describes exit velocity and absorption.
type VelocitySection struct {
	Exits30d          int                    `json:"exits_30d"`
	Exits90d          int                    `json:"exits_90d"`
	MonthlyVelocity   int                    `json:"monthly_velocity"`
	TurnoverRate90d   float64                `json:"turnover_rate_90d"`
	TurnoverSignal    liquidity.SignalStatus `json:"turnover_signal"`
	MonthsOfInventory *float64               `json:"months_of_inventory,omitempty"`
	MonthsInvSignal   liquidity.SignalStatus `json:"months_of_inventory_signal"`
}

// PendingSection describes the FOR_SALE -> PENDING latency distribution.
type PendingSection struct {
	SampleSize int      `json:"sample_size"`
	Median     *float64 `json:"median,omitempty"`
	Mean       *float64 `json:"mean,omitempty"`
}

// SurvivalSection carries life-table summary points.
type SurvivalSection struct {
	Rate30d      *float64 `json:"rate_30d,omitempty"`
	Rate60d      *float64 `json:"rate_60d,omitempty"`
	Rate90d      *float64 `json:"rate_90d,omitempty"`
	WeeklyHazard *float64 `json:"weekly_hazard,omitempty"`
}

// StressSection describes repricing pressure on the active inventory.
type StressSection struct {
	PctWithPriceCuts float64 `json:"pct_with_price_cuts"`
	TotalPriceCuts   int     `json:"total_price_cuts"`
}

// ConfidenceSection grades the data behind the numbers.
type ConfidenceSection struct {
	Grade    domain.ConfidenceGrade `json:"grade"`
	Coverage float64                `json:"coverage"`
	Source   string                 `json:"source"`
}

// MarketRow is one market in the breakdown, sorted by turnover.
type MarketRow struct {
	Market              string   `json:"market"`
	ActiveCount         int      `json:"active_count"`
	Exits90d            int      `json:"exits_90d"`
	TurnoverRate        float64  `json:"turnover_rate"`
	MedianDaysToPending *float64 `json:"median_days_to_pending,omitempty"`
	SurvivalRate30d     *float64 `json:"survival_rate_30d,omitempty"`
	SampleSize          int      `json:"sample_size"`
}
