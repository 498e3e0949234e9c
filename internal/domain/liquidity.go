package domain

import "time"

// ConfidenceGrade labels whether a derived statistic rests on sufficient data.
type ConfidenceGrade string

const (
	GradeA ConfidenceGrade = "A"
	GradeB ConfidenceGrade = "B"
	GradeC ConfidenceGrade = "C"
)

// DaysToPendingStats describes the FOR_SALE -> PENDING latency distribution
// within a lookback window. Count is always present so callers can suppress
// small-sample results; the remaining fields are nil when Count is zero.
type DaysToPendingStats struct {
	Count  int
	Median *float64
	Mean   *float64
	Min    *float64
	Max    *float64

	// Distribution over fixed latency buckets, in days.
	Under30     int
	Days30To90  int
	Days90To180 int
	Over180     int
}

// SurvivalBucket is one 7-day bin of the discrete-time life table.
type SurvivalBucket struct {
	Day          int // bucket start, days since listing
	DayEnd       int // bucket end (exclusive)
	Exits        int // exit events whose latency falls in [Day, DayEnd)
	Remaining    int // listings still at risk at bucket start
	HazardRate   float64 // Exits / Remaining at bucket start, 0 when Remaining is 0
	SurvivalRate float64 // Remaining at bucket start / initial total
}

// SurvivalCurve is the weekly life table of exit events plus its sample size.
type SurvivalCurve struct {
	TotalExits int
	Buckets    []SurvivalBucket
}

// MarketLiquidity is the per-market slice of a LiquiditySnapshot.
type MarketLiquidity struct {
	Market              string
	ActiveCount         int
	Exits90d            int
	TurnoverRate        float64
	MedianDaysToPending *float64
	SurvivalRate30d     *float64
	SampleSize          int
}

// LiquiditySnapshot is the derived, on-demand description of how fast
// inventory clears. It is never the system of record; every rate carries the
// sample size it was computed from.
type LiquiditySnapshot struct {
	AsOf   time.Time
	Market string // empty for all markets

	ActiveInventory int
	TotalValue      *float64
	AvgPrice        *float64

	MedianDaysToPending     *float64
	MeanDaysToPending       *float64
	DaysToPendingSampleSize int

	ExitsLast30d    int
	ExitsLast90d    int
	MonthlyVelocity int
	TurnoverRate90d float64

	MonthsOfInventory *float64

	SurvivalRate30d  *float64
	SurvivalRate60d  *float64
	SurvivalRate90d  *float64
	HazardRateWeekly *float64

	PctWithPriceCuts float64
	TotalPriceCuts   int

	Confidence   ConfidenceGrade
	DataCoverage float64 // pct of expected transition observations present

	// Active inventory grouped by age cohort, from days on market.
	Cohorts map[CohortName]int

	ByMarket []MarketLiquidity // sorted by turnover rate desc
}
