package ingestion

import (
	"context"
	"hash/fnv"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"listing-lab/internal/domain"
	"listing-lab/internal/idhash"
	"listing-lab/internal/observability"
)

// Runner fans a batch of records out across workers. Records are partitioned
// by property id hash so every worker owns its properties exclusively; the
// prior-snapshot read and the snapshot write for one property never race.
type Runner struct {
	upserter *Upserter
	workers  int
	metrics  *observability.Metrics
	logger   *log.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Upserter *Upserter
	Workers  int // Default: 4
	Metrics  *observability.Metrics
	Logger   *log.Logger
}

// NewRunner creates a new batch runner.
func NewRunner(opts RunnerOptions) *Runner {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		upserter: opts.Upserter,
		workers:  workers,
		metrics:  opts.Metrics,
		logger:   logger,
	}
}

// BatchSummary reports what one day's batch did.
type BatchSummary struct {
	Date     time.Time
	Total    int
	New      int
	Updated  int
	Failed   int
	Duration time.Duration

	PriceCuts   int
	Transitions map[string]int // "FOR_SALE->PENDING" style keys
	ByMarket    map[string]int
	ByStatus    map[domain.ListingStatus]int
}

// TransitionKeys returns the transition pair keys in sorted order, for stable
// logging and reporting.
func (s *BatchSummary) TransitionKeys() []string {
	keys := make([]string, 0, len(s.Transitions))
	for k := range s.Transitions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RunBatch ingests all records for one snapshot date. A record that fails is
// logged and counted but does not abort the rest of the batch; the returned
// error is reserved for context cancellation.
func (r *Runner) RunBatch(ctx context.Context, date time.Time, records []*Record) (*BatchSummary, error) {
	start := time.Now()
	summary := &BatchSummary{
		Date:        domain.Day(date),
		Total:       len(records),
		Transitions: make(map[string]int),
		ByMarket:    make(map[string]int),
		ByStatus:    make(map[domain.ListingStatus]int),
	}

	// Partition by property id so one worker owns all records of a property.
	partitions := make([][]*Record, r.workers)
	for _, rec := range records {
		if rec == nil {
			continue
		}
		id := idhash.ComputePropertyID(rec.Address, rec.City, rec.State, rec.Zip)
		h := fnv.New32a()
		h.Write([]byte(id))
		idx := int(h.Sum32()) % r.workers
		partitions[idx] = append(partitions[idx], rec)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, part := range partitions {
		if len(part) == 0 {
			continue
		}
		part := part
		g.Go(func() error {
			for _, rec := range part {
				if err := gctx.Err(); err != nil {
					return err
				}

				res, err := r.upserter.Upsert(gctx, rec, date)

				mu.Lock()
				if err != nil {
					summary.Failed++
					mu.Unlock()
					r.logger.Printf("[ingest] record failed (%s, %s): %v", rec.Address, rec.Zip, err)
					if r.metrics != nil {
						r.metrics.RecordsFailed.Inc()
					}
					continue
				}

				if res.IsNew {
					summary.New++
				} else {
					summary.Updated++
				}
				if res.PriceCut {
					summary.PriceCuts++
				}
				summary.ByStatus[rec.parsedStatus()]++
				summary.ByMarket[rec.normalizedMarket()]++
				if res.Transition != nil {
					summary.Transitions[string(res.Transition.FromStatus)+"->"+string(res.Transition.ToStatus)]++
				}
				mu.Unlock()

				if r.metrics != nil {
					r.metrics.RecordsIngested.Inc()
					if res.IsNew {
						r.metrics.PropertiesNew.Inc()
					}
					if res.PriceCut {
						r.metrics.PriceCutsDetected.Inc()
					}
					if res.Transition != nil {
						r.metrics.TransitionsDetected.WithLabelValues(string(res.Transition.FromStatus), string(res.Transition.ToStatus)).Inc()
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	summary.Duration = time.Since(start)

	r.logger.Printf("[ingest] batch %s: total=%d new=%d updated=%d failed=%d transitions=%d in %v",
		summary.Date.Format(domain.DateFormat), summary.Total, summary.New, summary.Updated,
		summary.Failed, len(summary.Transitions), summary.Duration)

	return summary, nil
}
