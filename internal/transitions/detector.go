// Package transitions detects listing status changes between consecutive
// daily snapshots of the same property.
package transitions

import "listing-lab/internal/domain"

// Detect compares a property's latest prior snapshot against the current one
// and returns the transition if the status changed, or nil otherwise.
//
// Detection is a pure diff: a reversion such as PENDING back to FOR_SALE is a
// normal transition, and every flip is emitted without collapsing. A nil prior
// means the property is new and carries no transition.
func Detect(prior, current *domain.Snapshot) *domain.Transition {
	if prior == nil || current == nil {
		return nil
	}
	if prior.Status == current.Status {
		return nil
	}

	return &domain.Transition{
		PropertyID:            current.PropertyID,
		TransitionDate:        domain.Day(current.SnapshotDate),
		FromStatus:            prior.Status,
		ToStatus:              current.Status,
		DaysInPreviousStatus:  domain.DaysBetween(prior.SnapshotDate, current.SnapshotDate),
		ListPriceAtTransition: current.ListPrice,
		Market:                current.Market,
	}
}
