package detector

import (
	"context"
	"sync"
	"time"

	"github.com/rawblock/pbn-detector/internal/aggregator"
	"github.com/rawblock/pbn-detector/internal/cache"
	"github.com/rawblock/pbn-detector/internal/features"
	"github.com/rawblock/pbn-detector/internal/models"
	"github.com/rawblock/pbn-detector/internal/similarity"
	"github.com/rawblock/pbn-detector/internal/threshold"
)

// Concurrency defaults per spec.md §5/§6.
const (
	DefaultParallelWorkers  = 4
	DefaultParallelThreshold = 50
)

// Detector is the request-scoped entry point: it owns no mutable state
// beyond what one Detect call produces, so the same value is safe to
// reuse concurrently across requests (spec.md §9).
type Detector struct {
	Scorer             Scorer
	ContentCache       *cache.Cache
	ParallelWorkers    int
	ParallelThreshold  int
	MinhashThreshold   float64
}

// Detect runs the full pipeline for one batch: the aggregation and
// content-similarity passes run sequentially on the calling goroutine,
// then per-backlink scoring fans out according to spec.md §5's two
// regimes. The returned slice is always the same length and order as
// backlinks. ctx cancellation stops dispatching further work and
// returns ctx.Err(); no partial response is ever assembled from that
// path — the caller must discard results on error.
func (d *Detector) Detect(ctx context.Context, backlinks []models.BacklinkSignal, now time.Time, domainContext *models.DomainContext) ([]models.DetectionItem, error) {
	agg := aggregator.Build(backlinks, now)
	pop := features.BuildPopulationStats(backlinks)

	snippets := make([]string, len(backlinks))
	for i := range backlinks {
		snippets[i] = backlinks[i].TextPre() + " " + backlinks[i].TextPost()
	}
	contentSimilarity := similarity.DetectDuplicates(snippets, d.MinhashThreshold, d.ContentCache)

	thresholds := threshold.Adjust(d.Scorer.Thresholds, len(backlinks), domainContext)
	scorer := d.Scorer
	scorer.Thresholds = thresholds

	items := make([]models.DetectionItem, len(backlinks))

	workers := d.ParallelWorkers
	if workers <= 0 {
		workers = DefaultParallelWorkers
	}
	parallelThreshold := d.ParallelThreshold
	if parallelThreshold <= 0 {
		parallelThreshold = DefaultParallelThreshold
	}

	if len(backlinks) <= parallelThreshold {
		for i := range backlinks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			items[i] = scorer.ScoreOne(&backlinks[i], agg, pop, contentSimilarity)
		}
		return items, nil
	}

	if err := runPool(ctx, len(backlinks), workers, func(i int) {
		items[i] = scorer.ScoreOne(&backlinks[i], agg, pop, contentSimilarity)
	}); err != nil {
		return nil, err
	}

	return items, nil
}

// runPool dispatches [0, n) indices across workers goroutines pulling
// from a shared work queue, stopping early if ctx is canceled.
func runPool(ctx context.Context, n, workers int, work func(i int)) error {
	indices := make(chan int)
	var wg sync.WaitGroup

	cancelled := make(chan struct{})
	var once sync.Once
	signalCancel := func() { once.Do(func() { close(cancelled) }) }

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				select {
				case <-ctx.Done():
					signalCancel()
					return
				default:
				}
				work(i)
			}
		}()
	}

	go func() {
		defer close(indices)
		for i := 0; i < n; i++ {
			select {
			case <-ctx.Done():
				return
			case <-cancelled:
				return
			case indices <- i:
			}
		}
	}()

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// Summarize computes the risk-level tallies for the response envelope.
func Summarize(items []models.DetectionItem) models.DetectionSummary {
	var s models.DetectionSummary
	for _, it := range items {
		switch it.RiskLevel {
		case models.RiskHigh:
			s.HighRiskCount++
		case models.RiskMedium:
			s.MediumRiskCount++
		default:
			s.LowRiskCount++
		}
	}
	return s
}
