package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"listing-lab/internal/domain"
	"listing-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu sync.RWMutex
	// keyed by property_id, each slice ordered by snapshot_date ASC
	data map[string][]*domain.Snapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string][]*domain.Snapshot),
	}
}

// Verify interface compliance at compile time.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Upsert writes the row for (property_id, snapshot_date), overwriting mutable
// fields when the day already exists. FirstSeenDate is preserved on conflict.
func (s *SnapshotStore) Upsert(_ context.Context, snap *domain.Snapshot) error {
	if snap == nil || snap.PropertyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	day := domain.Day(snap.SnapshotDate)

	snapCopy := *snap
	snapCopy.SnapshotDate = day
	snapCopy.FirstSeenDate = domain.Day(snap.FirstSeenDate)

	rows := s.data[snap.PropertyID]
	for i, existing := range rows {
		if existing.SnapshotDate.Equal(day) {
			// Same-day re-ingestion overwrites in place, keeping first_seen_date.
			snapCopy.FirstSeenDate = existing.FirstSeenDate
			rows[i] = &snapCopy
			return nil
		}
	}

	rows = append(rows, &snapCopy)
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].SnapshotDate.Before(rows[j].SnapshotDate)
	})
	s.data[snap.PropertyID] = rows
	return nil
}

// GetLatestBefore retrieves the most recent snapshot strictly before the
// given day. Returns ErrNotFound if none exists.
func (s *SnapshotStore) GetLatestBefore(_ context.Context, propertyID string, day time.Time) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := domain.Day(day)
	var latest *domain.Snapshot
	for _, snap := range s.data[propertyID] {
		if snap.SnapshotDate.Before(cutoff) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	snapCopy := *latest
	return &snapCopy, nil
}

// GetByPropertyID retrieves all snapshots for a property, ordered by
// snapshot_date ASC.
func (s *SnapshotStore) GetByPropertyID(_ context.Context, propertyID string) ([]*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.data[propertyID]
	result := make([]*domain.Snapshot, 0, len(rows))
	for _, snap := range rows {
		snapCopy := *snap
		result = append(result, &snapCopy)
	}
	return result, nil
}

// GetActiveInventory retrieves the FOR_SALE snapshots for a given day.
func (s *SnapshotStore) GetActiveInventory(_ context.Context, day time.Time) ([]*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target := domain.Day(day)
	var result []*domain.Snapshot
	for _, rows := range s.data {
		for _, snap := range rows {
			if snap.SnapshotDate.Equal(target) && snap.Status == domain.StatusForSale {
				snapCopy := *snap
				result = append(result, &snapCopy)
			}
		}
	}
	sortSnapshots(result)
	return result, nil
}

// GetMissingSince retrieves properties FOR_SALE on prevDay with no snapshot
// on day.
func (s *SnapshotStore) GetMissingSince(_ context.Context, prevDay, day time.Time) ([]*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prev := domain.Day(prevDay)
	target := domain.Day(day)

	var result []*domain.Snapshot
	for _, rows := range s.data {
		var prevSnap *domain.Snapshot
		seenToday := false
		for _, snap := range rows {
			if snap.SnapshotDate.Equal(prev) && snap.Status == domain.StatusForSale {
				prevSnap = snap
			}
			if snap.SnapshotDate.Equal(target) {
				seenToday = true
			}
		}
		if prevSnap != nil && !seenToday {
			snapCopy := *prevSnap
			result = append(result, &snapCopy)
		}
	}
	sortSnapshots(result)
	return result, nil
}

// InventoryStats computes status/market breakdowns and price/DOM aggregates
// for a given day.
func (s *SnapshotStore) InventoryStats(_ context.Context, day time.Time) (*domain.InventoryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target := domain.Day(day)
	stats := &domain.InventoryStats{
		Date:     target,
		ByStatus: make(map[domain.ListingStatus]int),
		ByMarket: make(map[string]int),
	}

	var priceSum, domSum float64
	var pricedCount int
	for _, rows := range s.data {
		for _, snap := range rows {
			if !snap.SnapshotDate.Equal(target) {
				continue
			}
			stats.TotalTracked++
			stats.ByStatus[snap.Status]++
			if snap.Status != domain.StatusForSale {
				continue
			}
			stats.ByMarket[snap.Market]++
			domSum += float64(snap.DaysOnMarket)
			if snap.PriceCutsCount > 0 {
				stats.WithPriceCuts++
			}
			stats.TotalPriceCuts += snap.PriceCutsCount
			if snap.ListPrice == nil {
				continue
			}
			pricedCount++
			priceSum += *snap.ListPrice
		}
	}
	stats.ActiveCount = stats.ByStatus[domain.StatusForSale]

	// Price aggregates cover priced FOR_SALE rows only; days-on-market and the
	// price-cut counts cover all FOR_SALE rows.
	if pricedCount > 0 {
		avg := priceSum / float64(pricedCount)
		total := priceSum
		stats.AvgPrice = &avg
		stats.TotalValue = &total
	}
	if stats.ActiveCount > 0 {
		avgDOM := domSum / float64(stats.ActiveCount)
		stats.AvgDaysOnMkt = &avgDOM
	}

	return stats, nil
}

func sortSnapshots(snaps []*domain.Snapshot) {
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].Market != snaps[j].Market {
			return snaps[i].Market < snaps[j].Market
		}
		return snaps[i].PropertyID < snaps[j].PropertyID
	})
}
