package detector

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawblock/pbn-detector/internal/classifier"
	"github.com/rawblock/pbn-detector/internal/models"
	"github.com/rawblock/pbn-detector/internal/threshold"
)

func newTestDetector(parallelThreshold int) *Detector {
	return &Detector{
		Scorer: Scorer{
			Lightweight: classifier.Lightweight{},
			Thresholds:  threshold.Thresholds{High: 0.75, Medium: 0.45},
			Options: Options{
				UseEnsemble:         true,
				UseEnhancedFeatures: true,
				MinhashThreshold:    0.8,
			},
		},
		ParallelWorkers:   2,
		ParallelThreshold: parallelThreshold,
		MinhashThreshold:  0.8,
	}
}

func backlinkWithURL(url string) models.BacklinkSignal {
	rank := 80.0
	age := 900
	return models.BacklinkSignal{
		SourceURL:  url,
		DomainFrom: url,
		DomainRank: &rank,
		DomainAge:  &age,
	}
}

func TestDetect_SequentialRegimePreservesOrder(t *testing.T) {
	d := newTestDetector(50)
	backlinks := make([]models.BacklinkSignal, 10)
	for i := range backlinks {
		backlinks[i] = backlinkWithURL(fmt.Sprintf("https://example-%d.com/page", i))
	}

	items, err := d.Detect(context.Background(), backlinks, time.Now(), nil)
	require.NoError(t, err)
	require.Len(t, items, len(backlinks))
	for i, it := range items {
		assert.Equal(t, backlinks[i].SourceURL, it.SourceURL)
	}
}

func TestDetect_ParallelRegimePreservesOrder(t *testing.T) {
	d := newTestDetector(5)
	backlinks := make([]models.BacklinkSignal, 60)
	for i := range backlinks {
		backlinks[i] = backlinkWithURL(fmt.Sprintf("https://example-%d.com/page", i))
	}

	items, err := d.Detect(context.Background(), backlinks, time.Now(), nil)
	require.NoError(t, err)
	require.Len(t, items, len(backlinks))
	for i, it := range items {
		assert.Equal(t, backlinks[i].SourceURL, it.SourceURL)
	}
}

func TestDetect_CancelledContextReturnsErrorNoPartialResult(t *testing.T) {
	d := newTestDetector(5)
	backlinks := make([]models.BacklinkSignal, 200)
	for i := range backlinks {
		backlinks[i] = backlinkWithURL(fmt.Sprintf("https://example-%d.com/page", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items, err := d.Detect(ctx, backlinks, time.Now(), nil)
	assert.Error(t, err)
	assert.Nil(t, items)
}

func TestSummarize_TalliesByRiskLevel(t *testing.T) {
	items := []models.DetectionItem{
		{RiskLevel: models.RiskHigh},
		{RiskLevel: models.RiskHigh},
		{RiskLevel: models.RiskMedium},
		{RiskLevel: models.RiskLow},
	}
	s := Summarize(items)
	assert.Equal(t, 2, s.HighRiskCount)
	assert.Equal(t, 1, s.MediumRiskCount)
	assert.Equal(t, 1, s.LowRiskCount)
}
