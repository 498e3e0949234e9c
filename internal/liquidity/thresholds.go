// Package liquidity derives market liquidity metrics from snapshot and
// transition data. Everything here is computed on demand; the snapshots and
// transitions tables stay the system of record.
package liquidity

// SignalStatus classifies a metric value against its thresholds.
type SignalStatus string

const (
	SignalGreen   SignalStatus = "green"
	SignalYellow  SignalStatus = "yellow"
	SignalRed     SignalStatus = "red"
	SignalUnknown SignalStatus = "unknown"
)

// Thresholds holds the tunable cut lines for confidence grading and signal
// classification.
type Thresholds struct {
	// Confidence grades: A needs both minimums, B the lower pair, else C.
	GradeAMinCoverage float64 `yaml:"grade_a_min_coverage"`
	GradeAMinSamples  int     `yaml:"grade_a_min_samples"`
	GradeBMinCoverage float64 `yaml:"grade_b_min_coverage"`
	GradeBMinSamples  int     `yaml:"grade_b_min_samples"`

	// 90-day turnover rate, percent. Higher is better.
	TurnoverGreenMin  float64 `yaml:"turnover_green_min"`
	TurnoverYellowMin float64 `yaml:"turnover_yellow_min"`

	// Months of inventory. Lower is better.
	MonthsInvGreenMax  float64 `yaml:"months_inv_green_max"`
	MonthsInvYellowMax float64 `yaml:"months_inv_yellow_max"`
}

// DefaultThresholds returns the standard cut lines.
func DefaultThresholds() Thresholds {
	return Thresholds{
		GradeAMinCoverage: 80.0,
		GradeAMinSamples:  100,
		GradeBMinCoverage: 50.0,
		GradeBMinSamples:  50,

		TurnoverGreenMin:  15.0,
		TurnoverYellowMin: 10.0,

		MonthsInvGreenMax:  6.0,
		MonthsInvYellowMax: 12.0,
	}
}

// TurnoverSignal classifies a 90-day turnover rate.
func (t Thresholds) TurnoverSignal(rate float64) SignalStatus {
	switch {
	case rate >= t.TurnoverGreenMin:
		return SignalGreen
	case rate >= t.TurnoverYellowMin:
		return SignalYellow
	default:
		return SignalRed
	}
}

// MonthsInventorySignal classifies a months-of-inventory value. A nil value
// means velocity was zero and no classification is possible.
func (t Thresholds) MonthsInventorySignal(months *float64) SignalStatus {
	if months == nil {
		return SignalUnknown
	}
	switch {
	case *months <= t.MonthsInvGreenMax:
		return SignalGreen
	case *months <= t.MonthsInvYellowMax:
		return SignalYellow
	default:
		return SignalRed
	}
}
