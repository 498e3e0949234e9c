package ingestion

import (
	"context"
	"testing"
	"time"

	"listing-lab/internal/domain"
	"listing-lab/internal/storage/memory"
)

func newTestUpserter() (*Upserter, *memory.SnapshotStore, *memory.TransitionStore) {
	snapshots := memory.NewSnapshotStore()
	transitions := memory.NewTransitionStore()
	ingestor := memory.NewIngestStore(snapshots, transitions)
	return NewUpserter(snapshots, ingestor), snapshots, transitions
}

func day(s string) time.Time {
	t, err := time.Parse(domain.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

func fptr(v float64) *float64 { return &v }

func oakAve(status string, price *float64) *Record {
	return &Record{
		Address: "456 Oak Avenue",
		City:    "Phoenix",
		State:   "AZ",
		Zip:     "85001",
		Market:  "phoenix",
		Status:  status,
		Price:   price,
		Source:  "test",
	}
}

// Follows one listing through its first two weeks: listed, price cut, then
// pending.
func TestUpsert_Lifecycle(t *testing.T) {
	ctx := context.Background()
	u, snapshots, transitionStore := newTestUpserter()

	// Day 1: first sighting at $300k.
	res, err := u.Upsert(ctx, oakAve("FOR_SALE", fptr(300000)), day("2026-03-01"))
	if err != nil {
		t.Fatalf("day 1 upsert: %v", err)
	}
	if !res.IsNew {
		t.Error("day 1 should be a new property")
	}
	if res.Transition != nil {
		t.Errorf("day 1 should have no transition, got %+v", res.Transition)
	}

	// Day 5: price cut to $290k.
	res, err = u.Upsert(ctx, oakAve("FOR_SALE", fptr(290000)), day("2026-03-05"))
	if err != nil {
		t.Fatalf("day 5 upsert: %v", err)
	}
	if res.IsNew {
		t.Error("day 5 should not be new")
	}
	if !res.PriceCut {
		t.Error("day 5 should register a price cut")
	}
	if res.Transition != nil {
		t.Error("price cut alone should not produce a transition")
	}

	// Day 12: goes pending.
	res, err = u.Upsert(ctx, oakAve("PENDING", fptr(290000)), day("2026-03-12"))
	if err != nil {
		t.Fatalf("day 12 upsert: %v", err)
	}
	if res.Transition == nil {
		t.Fatal("day 12 should produce FOR_SALE -> PENDING")
	}
	if res.Transition.FromStatus != domain.StatusForSale || res.Transition.ToStatus != domain.StatusPending {
		t.Errorf("wrong pair: %s -> %s", res.Transition.FromStatus, res.Transition.ToStatus)
	}
	if res.Transition.DaysInPreviousStatus != 7 {
		t.Errorf("expected 7 days since prior snapshot, got %d", res.Transition.DaysInPreviousStatus)
	}

	snaps, err := snapshots.GetByPropertyID(ctx, res.PropertyID)
	if err != nil {
		t.Fatalf("get snapshots: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snaps))
	}

	last := snaps[2]
	if !last.FirstSeenDate.Equal(day("2026-03-01")) {
		t.Errorf("first seen date not carried forward: %s", last.FirstSeenDate)
	}
	if last.DaysOnMarket != 11 {
		t.Errorf("expected 11 days on market, got %d", last.DaysOnMarket)
	}
	if last.PriceCutsCount != 1 {
		t.Errorf("expected 1 price cut, got %d", last.PriceCutsCount)
	}

	mid := snaps[1]
	if mid.PreviousPrice == nil || *mid.PreviousPrice != 300000 {
		t.Errorf("day 5 previous price: %v", mid.PreviousPrice)
	}
	if mid.PriceChange == nil || *mid.PriceChange != -10000 {
		t.Errorf("day 5 price change: %v", mid.PriceChange)
	}

	stored, err := transitionStore.GetByStatusPair(ctx, domain.StatusForSale, domain.StatusPending, day("2026-03-12"), 30, "")
	if err != nil {
		t.Fatalf("get transitions: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored transition, got %d", len(stored))
	}
}

func TestUpsert_SameDayRerunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	u, snapshots, _ := newTestUpserter()

	res1, err := u.Upsert(ctx, oakAve("FOR_SALE", fptr(300000)), day("2026-03-01"))
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	res2, err := u.Upsert(ctx, oakAve("FOR_SALE", fptr(305000)), day("2026-03-01"))
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if res1.PropertyID != res2.PropertyID {
		t.Fatal("same address must resolve to same id")
	}

	snaps, err := snapshots.GetByPropertyID(ctx, res1.PropertyID)
	if err != nil {
		t.Fatalf("get snapshots: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("same-day rerun must overwrite, got %d rows", len(snaps))
	}
	if snaps[0].ListPrice == nil || *snaps[0].ListPrice != 305000 {
		t.Errorf("rerun should take the latest price, got %v", snaps[0].ListPrice)
	}
	if !snaps[0].FirstSeenDate.Equal(day("2026-03-01")) {
		t.Errorf("first seen date moved: %s", snaps[0].FirstSeenDate)
	}
}

func TestUpsert_SameDayRerunDoesNotDuplicateTransition(t *testing.T) {
	ctx := context.Background()
	u, _, transitionStore := newTestUpserter()

	if _, err := u.Upsert(ctx, oakAve("FOR_SALE", fptr(300000)), day("2026-03-01")); err != nil {
		t.Fatalf("day 1 upsert: %v", err)
	}

	// The same PENDING record lands twice on day 2; both runs re-detect the
	// change against the day-1 snapshot, but only one row may remain.
	for i := 0; i < 2; i++ {
		res, err := u.Upsert(ctx, oakAve("PENDING", fptr(300000)), day("2026-03-02"))
		if err != nil {
			t.Fatalf("day 2 upsert %d: %v", i+1, err)
		}
		if res.Transition == nil {
			t.Fatalf("day 2 upsert %d should detect the status change", i+1)
		}
	}

	stored, err := transitionStore.GetByStatusPair(ctx, domain.StatusForSale, domain.StatusPending, day("2026-03-02"), 7, "")
	if err != nil {
		t.Fatalf("get transitions: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 transition row after the rerun, got %d", len(stored))
	}

	// A same-day correction back to FOR_SALE retracts the day's transition.
	if _, err := u.Upsert(ctx, oakAve("FOR_SALE", fptr(300000)), day("2026-03-02")); err != nil {
		t.Fatalf("correction upsert: %v", err)
	}
	stored, err = transitionStore.GetByStatusPair(ctx, "", "", day("2026-03-02"), 7, "")
	if err != nil {
		t.Fatalf("get transitions: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("corrected day should have no transitions, got %d", len(stored))
	}
}

func TestUpsert_AddressVariantsCollapse(t *testing.T) {
	ctx := context.Background()
	u, _, _ := newTestUpserter()

	rec1 := oakAve("FOR_SALE", fptr(300000))
	rec2 := oakAve("FOR_SALE", fptr(300000))
	rec2.Address = "456 oak ave."

	res1, err := u.Upsert(ctx, rec1, day("2026-03-01"))
	if err != nil {
		t.Fatal(err)
	}
	res2, err := u.Upsert(ctx, rec2, day("2026-03-02"))
	if err != nil {
		t.Fatal(err)
	}
	if res1.PropertyID != res2.PropertyID {
		t.Errorf("variants hash apart: %s vs %s", res1.PropertyID, res2.PropertyID)
	}
	if res2.IsNew {
		t.Error("day 2 variant should resolve to the existing property")
	}
}

func TestUpsert_UnchangedPriceKeepsPreviousPrice(t *testing.T) {
	ctx := context.Background()
	u, snapshots, _ := newTestUpserter()

	if _, err := u.Upsert(ctx, oakAve("FOR_SALE", fptr(300000)), day("2026-03-01")); err != nil {
		t.Fatal(err)
	}
	res, err := u.Upsert(ctx, oakAve("FOR_SALE", fptr(300000)), day("2026-03-02"))
	if err != nil {
		t.Fatal(err)
	}
	if res.PriceCut {
		t.Error("unchanged price is not a cut")
	}

	snaps, err := snapshots.GetByPropertyID(ctx, res.PropertyID)
	if err != nil {
		t.Fatal(err)
	}
	last := snaps[len(snaps)-1]
	if last.PreviousPrice == nil || *last.PreviousPrice != 300000 {
		t.Errorf("previous price should carry the prior snapshot's price, got %v", last.PreviousPrice)
	}
	if last.PriceChange == nil || *last.PriceChange != 0 {
		t.Errorf("price change should be zero, got %v", last.PriceChange)
	}
}

func TestUpsert_NilPriceStored(t *testing.T) {
	ctx := context.Background()
	u, snapshots, _ := newTestUpserter()

	res, err := u.Upsert(ctx, oakAve("FOR_SALE", nil), day("2026-03-01"))
	if err != nil {
		t.Fatalf("upsert without price: %v", err)
	}

	snaps, err := snapshots.GetByPropertyID(ctx, res.PropertyID)
	if err != nil {
		t.Fatal(err)
	}
	if snaps[0].ListPrice != nil {
		t.Errorf("expected nil list price, got %v", *snaps[0].ListPrice)
	}

	// A priced snapshot after an unpriced one has no price change baseline.
	res, err = u.Upsert(ctx, oakAve("FOR_SALE", fptr(250000)), day("2026-03-02"))
	if err != nil {
		t.Fatal(err)
	}
	if res.PriceCut {
		t.Error("no prior price means no cut")
	}
}

func TestUpsert_EmptyRecordRejected(t *testing.T) {
	ctx := context.Background()
	u, _, _ := newTestUpserter()

	_, err := u.Upsert(ctx, &Record{Status: "FOR_SALE"}, day("2026-03-01"))
	if err == nil {
		t.Fatal("record with no location fields at all must be rejected")
	}
}

func TestUpsert_CityStateOnlyStillResolves(t *testing.T) {
	ctx := context.Background()
	u, snapshots, _ := newTestUpserter()

	rec := &Record{City: "Phoenix", State: "AZ", Status: "FOR_SALE", Price: fptr(300000)}
	res, err := u.Upsert(ctx, rec, day("2026-03-01"))
	if err != nil {
		t.Fatalf("city/state-only record must still resolve: %v", err)
	}
	if len(res.PropertyID) != 16 {
		t.Errorf("property id length = %d, want 16", len(res.PropertyID))
	}

	snaps, err := snapshots.GetByPropertyID(ctx, res.PropertyID)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snaps))
	}
}

func TestUpsert_UnknownStatusText(t *testing.T) {
	ctx := context.Background()
	u, snapshots, _ := newTestUpserter()

	res, err := u.Upsert(ctx, oakAve("Coming Soon??", fptr(300000)), day("2026-03-01"))
	if err != nil {
		t.Fatal(err)
	}
	snaps, err := snapshots.GetByPropertyID(ctx, res.PropertyID)
	if err != nil {
		t.Fatal(err)
	}
	if snaps[0].Status != domain.StatusUnknown {
		t.Errorf("unmapped status text should store UNKNOWN, got %s", snaps[0].Status)
	}
}
