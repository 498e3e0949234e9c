package liquidity

import (
	"sort"

	"listing-lab/internal/domain"
)

const survivalBinDays = 7

// median returns the median of values, averaging the middle pair for even
// lengths. The slice is sorted in place. Returns nil for an empty slice.
func median(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sort.Float64s(values)

	mid := len(values) / 2
	var m float64
	if len(values)%2 == 1 {
		m = values[mid]
	} else {
		m = (values[mid-1] + values[mid]) / 2
	}
	return &m
}

// mean returns the arithmetic mean, or nil for an empty slice.
func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}

// DaysToPending summarizes FOR_SALE -> PENDING latencies. An empty input
// yields Count 0 with nil summary fields and a zeroed distribution; nothing
// here ever divides by the sample size.
func DaysToPending(transitions []*domain.Transition) *domain.DaysToPendingStats {
	stats := &domain.DaysToPendingStats{}

	var latencies []float64
	for _, t := range transitions {
		d := float64(t.DaysInPreviousStatus)
		latencies = append(latencies, d)

		switch {
		case d < 30:
			stats.Under30++
		case d < 90:
			stats.Days30To90++
		case d < 180:
			stats.Days90To180++
		default:
			stats.Over180++
		}
	}

	stats.Count = len(latencies)
	if stats.Count == 0 {
		return stats
	}

	stats.Mean = mean(latencies)
	stats.Median = median(latencies) // sorts latencies
	min, max := latencies[0], latencies[len(latencies)-1]
	stats.Min = &min
	stats.Max = &max
	return stats
}

// BuildSurvivalCurve computes a discrete-time life table over exit latencies
// (days from listing to exit), in 7-day bins from 0 to at least horizonDays
// (90 when non-positive).
//
// For each bin, hazard is exits-in-bin over listings still at risk at the bin
// start, and survival is the at-risk count over the initial total. Listings
// still active at observation time are right-censored and not part of the
// input; the curve therefore describes completed exits only, which overstates
// hazard when many listings linger unsold.
func BuildSurvivalCurve(exitDays []int, horizonDays int) *domain.SurvivalCurve {
	curve := &domain.SurvivalCurve{TotalExits: len(exitDays)}
	if len(exitDays) == 0 {
		return curve
	}

	maxDay := horizonDays
	if maxDay <= 0 {
		maxDay = 90
	}
	for _, d := range exitDays {
		if d > maxDay {
			maxDay = d
		}
	}

	total := len(exitDays)
	remaining := total
	for start := 0; start <= maxDay; start += survivalBinDays {
		end := start + survivalBinDays

		exits := 0
		for _, d := range exitDays {
			if d >= start && d < end {
				exits++
			}
		}

		bucket := domain.SurvivalBucket{
			Day:          start,
			DayEnd:       end,
			Exits:        exits,
			Remaining:    remaining,
			SurvivalRate: float64(remaining) / float64(total),
		}
		if remaining > 0 {
			bucket.HazardRate = float64(exits) / float64(remaining)
		}
		curve.Buckets = append(curve.Buckets, bucket)

		remaining -= exits
	}

	return curve
}

// SurvivalAt returns the survival rate of the bucket starting at the given
// day, or nil when the curve has no such bucket.
func SurvivalAt(curve *domain.SurvivalCurve, day int) *float64 {
	if curve == nil {
		return nil
	}
	for _, b := range curve.Buckets {
		if b.Day == day {
			rate := b.SurvivalRate
			return &rate
		}
	}
	return nil
}

// MeanWeeklyHazard averages the non-zero weekly hazard rates, or nil when
// every bucket is empty.
func MeanWeeklyHazard(curve *domain.SurvivalCurve) *float64 {
	if curve == nil {
		return nil
	}
	var rates []float64
	for _, b := range curve.Buckets {
		if b.HazardRate > 0 {
			rates = append(rates, b.HazardRate)
		}
	}
	return mean(rates)
}

// MonthsOfInventory is active inventory over monthly exit velocity. Returns
// nil when velocity is zero or negative; an empty market has no meaningful
// absorption rate.
func MonthsOfInventory(active, monthlyVelocity int) *float64 {
	if monthlyVelocity <= 0 {
		return nil
	}
	m := float64(active) / float64(monthlyVelocity)
	return &m
}
