package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"listing-lab/internal/domain"
	"listing-lab/internal/idhash"
	"listing-lab/internal/storage"
	"listing-lab/internal/transitions"
)

// ErrEmptyRecord marks a record with no address information at all.
var ErrEmptyRecord = errors.New("record has no identifying location fields")

// Upserter converts raw records into snapshot rows for a given day. It reads
// the property's latest prior snapshot to carry history forward (first seen
// date, price cuts) and to detect status transitions, then hands both writes
// to the storage layer so the transition never lands without its snapshot.
type Upserter struct {
	snapshots storage.SnapshotStore
	ingestor  storage.Ingestor
}

// NewUpserter creates a new Upserter.
func NewUpserter(snapshots storage.SnapshotStore, ingestor storage.Ingestor) *Upserter {
	return &Upserter{snapshots: snapshots, ingestor: ingestor}
}

// UpsertResult describes what a single record upsert did.
type UpsertResult struct {
	PropertyID string
	IsNew      bool
	PriceCut   bool
	Transition *domain.Transition
}

// Upsert processes one record for the given snapshot date. It returns the
// resolved property id, whether the property was seen for the first time,
// whether the price dropped since the prior snapshot, and the transition if
// the status changed.
//
// Re-running the same day overwrites the existing row in place; history
// fields are recomputed from the snapshot strictly before the day, so the
// operation is idempotent per (property, day).
func (u *Upserter) Upsert(ctx context.Context, rec *Record, date time.Time) (*UpsertResult, error) {
	if rec == nil {
		return nil, ErrEmptyRecord
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	day := domain.Day(date)
	propertyID := idhash.ComputePropertyID(rec.Address, rec.City, rec.State, rec.Zip)

	prior, err := u.snapshots.GetLatestBefore(ctx, propertyID, day)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load prior snapshot for %s: %w", propertyID, err)
	}
	result := &UpsertResult{PropertyID: propertyID, IsNew: prior == nil}

	snap := &domain.Snapshot{
		PropertyID:        propertyID,
		SnapshotDate:      day,
		Address:           rec.Address,
		AddressNormalized: idhash.NormalizeAddress(rec.Address, rec.City, rec.State),
		City:              rec.City,
		State:             rec.State,
		Zip:               rec.Zip,
		Market:            rec.normalizedMarket(),
		ListPrice:         rec.Price,
		Status:            rec.parsedStatus(),
		Beds:              rec.Beds,
		Baths:             rec.Baths,
		Sqft:              rec.Sqft,
		Source:            rec.Source,
		URL:               rec.URL,
		IngestedAt:        time.Now().UTC(),
	}

	if prior == nil {
		snap.FirstSeenDate = day
	} else {
		snap.FirstSeenDate = domain.Day(prior.FirstSeenDate)
		snap.PriceCutsCount = prior.PriceCutsCount

		if prior.ListPrice != nil {
			prev := *prior.ListPrice
			snap.PreviousPrice = &prev
		}
		if prior.ListPrice != nil && rec.Price != nil {
			change := *rec.Price - *prior.ListPrice
			snap.PriceChange = &change
			if change < 0 {
				snap.PriceCutsCount++
				result.PriceCut = true
			}
		}
	}
	snap.DaysOnMarket = domain.DaysBetween(snap.FirstSeenDate, day)

	result.Transition = transitions.Detect(prior, snap)

	if err := u.ingestor.ApplyIngest(ctx, snap, result.Transition); err != nil {
		return nil, fmt.Errorf("apply ingest for %s: %w", propertyID, err)
	}

	return result, nil
}
