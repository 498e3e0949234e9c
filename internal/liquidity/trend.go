package liquidity

import (
	"errors"
	"time"

	"listing-lab/internal/domain"
)

// ErrNoArchiveData is returned when a trend is requested over an empty
// archive range.
var ErrNoArchiveData = errors.New("no archived liquidity data available")

// ArchiveAt returns the archived snapshot at or before the target day.
// Rows must be ordered by as_of ASC, as GetRange returns them. If no row
// is at or before target, the first available row is returned.
func ArchiveAt(target time.Time, rows []*domain.LiquiditySnapshot) (*domain.LiquiditySnapshot, error) {
	if len(rows) == 0 {
		return nil, ErrNoArchiveData
	}

	day := domain.Day(target)
	for i := len(rows) - 1; i >= 0; i-- {
		if !rows[i].AsOf.After(day) {
			return rows[i], nil
		}
	}

	return rows[0], nil
}

// Trend compares two archived snapshots of the same market.
type Trend struct {
	From *domain.LiquiditySnapshot
	To   *domain.LiquiditySnapshot

	ActiveInventoryChange int
	TurnoverChange        float64 // percentage points
	MonthsInventoryChange *float64
	MedianDaysChange      *float64
}

// ComputeTrend pairs the archived row at asOf with the one backDays earlier
// and reports the movement between them. Pointer-valued deltas are nil when
// either side is missing the metric.
func ComputeTrend(rows []*domain.LiquiditySnapshot, asOf time.Time, backDays int) (*Trend, error) {
	to, err := ArchiveAt(asOf, rows)
	if err != nil {
		return nil, err
	}
	from, err := ArchiveAt(asOf.AddDate(0, 0, -backDays), rows)
	if err != nil {
		return nil, err
	}

	t := &Trend{
		From:                  from,
		To:                    to,
		ActiveInventoryChange: to.ActiveInventory - from.ActiveInventory,
		TurnoverChange:        to.TurnoverRate90d - from.TurnoverRate90d,
	}
	if from.MonthsOfInventory != nil && to.MonthsOfInventory != nil {
		d := *to.MonthsOfInventory - *from.MonthsOfInventory
		t.MonthsInventoryChange = &d
	}
	if from.MedianDaysToPending != nil && to.MedianDaysToPending != nil {
		d := *to.MedianDaysToPending - *from.MedianDaysToPending
		t.MedianDaysChange = &d
	}
	return t, nil
}
