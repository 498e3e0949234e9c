package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"listing-lab/internal/domain"
	"listing-lab/internal/storage"
)

// TransitionStore is an in-memory implementation of storage.TransitionStore.
// The log is append-only; repeated flips each keep their own row.
type TransitionStore struct {
	mu   sync.RWMutex
	data []*domain.Transition
}

// NewTransitionStore creates a new in-memory transition store.
func NewTransitionStore() *TransitionStore {
	return &TransitionStore{}
}

// Verify interface compliance at compile time.
var _ storage.TransitionStore = (*TransitionStore)(nil)

// Append adds a detected transition row.
func (s *TransitionStore) Append(_ context.Context, t *domain.Transition) error {
	if t == nil || t.PropertyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tCopy := *t
	tCopy.TransitionDate = domain.Day(t.TransitionDate)
	s.data = append(s.data, &tCopy)
	return nil
}

// GetByStatusPair retrieves transitions within the trailing window ending at
// asOf. Zero-valued from/to match any status; empty market matches all markets.
func (s *TransitionStore) GetByStatusPair(_ context.Context, from, to domain.ListingStatus, asOf time.Time, windowDays int, market string) ([]*domain.Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	end := domain.Day(asOf)
	start := end.AddDate(0, 0, -windowDays)

	var result []*domain.Transition
	for _, t := range s.data {
		if !t.TransitionDate.After(start) || t.TransitionDate.After(end) {
			continue
		}
		if from != "" && t.FromStatus != from {
			continue
		}
		if to != "" && t.ToStatus != to {
			continue
		}
		if market != "" && t.Market != market {
			continue
		}
		tCopy := *t
		result = append(result, &tCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].TransitionDate.Equal(result[j].TransitionDate) {
			return result[i].TransitionDate.Before(result[j].TransitionDate)
		}
		return result[i].PropertyID < result[j].PropertyID
	})

	return result, nil
}

// removeForDay drops any transitions recorded for the property on the given
// day. Used by the ingestor so re-running a day replaces the day's transition
// instead of stacking a duplicate.
func (s *TransitionStore) removeForDay(propertyID string, day time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.data[:0]
	for _, t := range s.data {
		if t.PropertyID == propertyID && t.TransitionDate.Equal(day) {
			continue
		}
		kept = append(kept, t)
	}
	s.data = kept
}

// IngestStore implements storage.Ingestor over the in-memory stores. The two
// writes are applied back to back; per-property serialization is the batch
// runner's job, so this is sufficient for the memory backend.
type IngestStore struct {
	snapshots   *SnapshotStore
	transitions *TransitionStore
}

// NewIngestStore creates a new in-memory ingestor.
func NewIngestStore(snapshots *SnapshotStore, transitions *TransitionStore) *IngestStore {
	return &IngestStore{snapshots: snapshots, transitions: transitions}
}

// Verify interface compliance at compile time.
var _ storage.Ingestor = (*IngestStore)(nil)

// ApplyIngest records the transition (when non-nil) and upserts the snapshot.
// Any transition already recorded for the property on the same day is
// replaced, so re-running a day never stacks duplicate transition rows.
func (s *IngestStore) ApplyIngest(ctx context.Context, snap *domain.Snapshot, t *domain.Transition) error {
	if snap == nil || snap.PropertyID == "" {
		return storage.ErrInvalidInput
	}

	s.transitions.removeForDay(snap.PropertyID, domain.Day(snap.SnapshotDate))
	if t != nil {
		if err := s.transitions.Append(ctx, t); err != nil {
			return err
		}
	}
	return s.snapshots.Upsert(ctx, snap)
}
