package domain

import "time"

// CohortName buckets a holding period at time of sale.
type CohortName string

const (
	CohortNew   CohortName = "new"   // <90 days
	CohortMid   CohortName = "mid"   // 90-180 days
	CohortOld   CohortName = "old"   // 180-365 days
	CohortToxic CohortName = "toxic" // >365 days
)

// Cohort age thresholds in days held.
const (
	cohortNewMaxDays = 90
	cohortMidMaxDays = 180
	cohortOldMaxDays = 365
)

// Cohort returns the age cohort for a holding period.
func Cohort(daysHeld int) CohortName {
	switch {
	case daysHeld < cohortNewMaxDays:
		return CohortNew
	case daysHeld < cohortMidMaxDays:
		return CohortMid
	case daysHeld < cohortOldMaxDays:
		return CohortOld
	default:
		return CohortToxic
	}
}

// InEra reports whether a date falls on or after the configured era cutoff.
// The cutoff is passed explicitly so analysis stays testable; there is no
// process-wide default.
func InEra(date, eraStart time.Time) bool {
	return !Day(date).Before(Day(eraStart))
}
