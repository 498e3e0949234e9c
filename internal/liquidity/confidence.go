package liquidity

import "listing-lab/internal/domain"

// Coverage estimates how much of the expected observation stream the sample
// represents, as a percentage capped at 100. The expectation is one usable
// transition per three lookback days.
func Coverage(sampleSize, lookbackDays int) float64 {
	expected := float64(lookbackDays) / 3
	if expected < 1 {
		expected = 1
	}
	pct := float64(sampleSize) / expected * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Grade assigns a confidence grade from data coverage and sample size. The
// grading is monotone: more coverage or more samples never lowers the grade.
func Grade(coverage float64, sampleSize int, th Thresholds) domain.ConfidenceGrade {
	if coverage >= th.GradeAMinCoverage && sampleSize >= th.GradeAMinSamples {
		return domain.GradeA
	}
	if coverage >= th.GradeBMinCoverage && sampleSize >= th.GradeBMinSamples {
		return domain.GradeB
	}
	return domain.GradeC
}
