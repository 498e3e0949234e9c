package ingestion

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"listing-lab/internal/domain"
)

func TestRunBatch_CountsAndPartitioning(t *testing.T) {
	ctx := context.Background()
	u, snapshots, _ := newTestUpserter()
	runner := NewRunner(RunnerOptions{Upserter: u, Workers: 3})

	var records []*Record
	for i := 0; i < 20; i++ {
		records = append(records, &Record{
			Address: fmt.Sprintf("%d Main Street", 100+i),
			City:    "Phoenix",
			State:   "AZ",
			Zip:     "85001",
			Market:  "phoenix",
			Status:  "FOR_SALE",
			Price:   fptr(300000),
			Source:  "test",
		})
	}

	summary, err := runner.RunBatch(ctx, day("2026-03-01"), records)
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}
	if summary.Total != 20 || summary.New != 20 || summary.Updated != 0 || summary.Failed != 0 {
		t.Fatalf("day 1 summary off: %+v", summary)
	}
	if summary.ByStatus[domain.StatusForSale] != 20 {
		t.Errorf("status breakdown: %v", summary.ByStatus)
	}
	if summary.ByMarket["phoenix"] != 20 {
		t.Errorf("market breakdown: %v", summary.ByMarket)
	}

	active, err := snapshots.GetActiveInventory(ctx, day("2026-03-01"))
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 20 {
		t.Fatalf("expected 20 active rows, got %d", len(active))
	}

	// Day 2: five go pending, one cuts price, rest unchanged.
	for i := 0; i < 5; i++ {
		records[i].Status = "PENDING"
	}
	records[10].Price = fptr(290000)

	summary, err = runner.RunBatch(ctx, day("2026-03-02"), records)
	if err != nil {
		t.Fatalf("run batch day 2: %v", err)
	}
	if summary.New != 0 || summary.Updated != 20 {
		t.Fatalf("day 2 summary off: %+v", summary)
	}
	if got := summary.Transitions["FOR_SALE->PENDING"]; got != 5 {
		t.Errorf("expected 5 pending transitions, got %d (%v)", got, summary.Transitions)
	}
	if summary.PriceCuts != 1 {
		t.Errorf("expected 1 price cut, got %d", summary.PriceCuts)
	}
}

func TestRunBatch_FailedRecordDoesNotAbort(t *testing.T) {
	ctx := context.Background()
	u, _, _ := newTestUpserter()
	runner := NewRunner(RunnerOptions{Upserter: u, Workers: 2})

	records := []*Record{
		{Address: "1 First St", Zip: "85001", Status: "FOR_SALE", Price: fptr(100000)},
		{Status: "FOR_SALE"}, // no address, no zip
		{Address: "2 Second St", Zip: "85001", Status: "FOR_SALE", Price: fptr(200000)},
	}

	summary, err := runner.RunBatch(ctx, day("2026-03-01"), records)
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}
	if summary.Failed != 1 {
		t.Errorf("expected 1 failure, got %d", summary.Failed)
	}
	if summary.New != 2 {
		t.Errorf("expected 2 new despite failure, got %d", summary.New)
	}
}

func TestRunBatch_TransitionKeysSorted(t *testing.T) {
	s := &BatchSummary{Transitions: map[string]int{
		"PENDING->FOR_SALE": 1,
		"FOR_SALE->PENDING": 3,
		"FOR_SALE->SOLD":    2,
	}}
	keys := s.TransitionKeys()
	if strings.Join(keys, ",") != "FOR_SALE->PENDING,FOR_SALE->SOLD,PENDING->FOR_SALE" {
		t.Errorf("keys not sorted: %v", keys)
	}
}

func TestReadRecords_JSONL(t *testing.T) {
	input := `
# comment line
{"address":"1 First St","city":"Phoenix","state":"AZ","zip":"85001","status":"FOR_SALE","price":300000}

{"address":"2 Second St","zip":"85002","status":"PENDING"}
`
	records, err := ReadRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Price == nil || *records[0].Price != 300000 {
		t.Errorf("price not decoded: %v", records[0].Price)
	}
	if records[1].Price != nil {
		t.Errorf("missing price should stay nil, got %v", *records[1].Price)
	}
}

func TestReadRecords_MalformedLineFails(t *testing.T) {
	input := `{"address":"1 First St","zip":"85001"}
{not json}`
	if _, err := ReadRecords(strings.NewReader(input)); err == nil {
		t.Fatal("malformed line must fail the read")
	}
}
