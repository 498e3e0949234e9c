package transitions

import (
	"testing"
	"time"

	"listing-lab/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

func snap(id string, date string, status domain.ListingStatus, price *float64) *domain.Snapshot {
	return &domain.Snapshot{
		PropertyID:   id,
		SnapshotDate: day(date),
		Status:       status,
		ListPrice:    price,
		Market:       "phoenix",
	}
}

func fptr(v float64) *float64 { return &v }

func TestDetect_NilPrior(t *testing.T) {
	cur := snap("abc", "2026-03-10", domain.StatusForSale, fptr(300000))
	if got := Detect(nil, cur); got != nil {
		t.Fatalf("expected nil transition for new property, got %+v", got)
	}
}

func TestDetect_NoChange(t *testing.T) {
	prior := snap("abc", "2026-03-09", domain.StatusForSale, fptr(300000))
	cur := snap("abc", "2026-03-10", domain.StatusForSale, fptr(290000))
	if got := Detect(prior, cur); got != nil {
		t.Fatalf("price change alone should not produce a transition, got %+v", got)
	}
}

func TestDetect_ForSaleToPending(t *testing.T) {
	prior := snap("abc", "2026-03-05", domain.StatusForSale, fptr(300000))
	cur := snap("abc", "2026-03-12", domain.StatusPending, fptr(290000))

	got := Detect(prior, cur)
	if got == nil {
		t.Fatal("expected a transition")
	}
	if got.FromStatus != domain.StatusForSale || got.ToStatus != domain.StatusPending {
		t.Errorf("wrong pair: %s -> %s", got.FromStatus, got.ToStatus)
	}
	if got.DaysInPreviousStatus != 7 {
		t.Errorf("expected 7 days in previous status, got %d", got.DaysInPreviousStatus)
	}
	if !got.TransitionDate.Equal(day("2026-03-12")) {
		t.Errorf("transition date mismatch: %s", got.TransitionDate)
	}
	if got.ListPriceAtTransition == nil || *got.ListPriceAtTransition != 290000 {
		t.Errorf("expected price at transition 290000, got %v", got.ListPriceAtTransition)
	}
	if got.Market != "phoenix" {
		t.Errorf("market not carried: %q", got.Market)
	}
}

func TestDetect_Reversion(t *testing.T) {
	prior := snap("abc", "2026-03-12", domain.StatusPending, fptr(290000))
	cur := snap("abc", "2026-03-20", domain.StatusForSale, fptr(285000))

	got := Detect(prior, cur)
	if got == nil {
		t.Fatal("reversion should be a normal transition")
	}
	if got.FromStatus != domain.StatusPending || got.ToStatus != domain.StatusForSale {
		t.Errorf("wrong pair: %s -> %s", got.FromStatus, got.ToStatus)
	}
	if got.DaysInPreviousStatus != 8 {
		t.Errorf("expected 8 days, got %d", got.DaysInPreviousStatus)
	}
}

func TestDetect_UnknownParticipates(t *testing.T) {
	prior := snap("abc", "2026-03-01", domain.StatusUnknown, nil)
	cur := snap("abc", "2026-03-02", domain.StatusForSale, fptr(400000))

	got := Detect(prior, cur)
	if got == nil {
		t.Fatal("UNKNOWN -> FOR_SALE should be emitted")
	}
	if got.ListPriceAtTransition == nil {
		t.Error("price at transition should reflect current snapshot")
	}
}

func TestDetect_NilPriceAtTransition(t *testing.T) {
	prior := snap("abc", "2026-03-01", domain.StatusForSale, fptr(400000))
	cur := snap("abc", "2026-03-08", domain.StatusSold, nil)

	got := Detect(prior, cur)
	if got == nil {
		t.Fatal("expected transition")
	}
	if got.ListPriceAtTransition != nil {
		t.Errorf("expected nil price at transition, got %v", *got.ListPriceAtTransition)
	}
}
