package detector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawblock/pbn-detector/internal/classifier"
	"github.com/rawblock/pbn-detector/internal/models"
	"github.com/rawblock/pbn-detector/internal/threshold"
)

// TestDetect_SpamAndLowRankTriggersHighRisk exercises the literal
// scenario of a low domain_rank, high backlink_spam_score record: both
// dataforseo_spam_score and domain_quality fire, the record qualifies as
// a high-risk signal, and the composite bonus pushes it over the high
// threshold.
func TestDetect_SpamAndLowRankTriggersHighRisk(t *testing.T) {
	d := newTestDetector(50)

	rank := 7.0
	age := 20
	spam := 75
	link := models.BacklinkSignal{
		SourceURL:  "https://spammy-pbn.example/post",
		DomainFrom: "spammy-pbn.example",
		DomainRank: &rank,
		DomainAge:  &age,
		SpamScore:  &spam,
		IP:         "10.0.0.1",
		Registrar:  "cheap-registrar",
	}

	items, err := d.Detect(context.Background(), []models.BacklinkSignal{link}, time.Now(), nil)
	require.NoError(t, err)
	require.Len(t, items, 1)

	got := items[0]
	assert.GreaterOrEqual(t, got.PBNProbability, 0.75)
	assert.Equal(t, models.RiskHigh, got.RiskLevel)
	assert.NotEmpty(t, got.Reasons)
}

// TestDetect_SafeBrowsingFlaggedScoresHigherThanClean mirrors scenario 7:
// two otherwise-identical records differ only by safe_browsing_status,
// and the flagged one must score strictly higher.
func TestDetect_SafeBrowsingFlaggedScoresHigherThanClean(t *testing.T) {
	d := newTestDetector(50)

	rank := 60.0
	age := 500
	base := models.BacklinkSignal{
		DomainFrom: "ordinary-site.example",
		DomainRank: &rank,
		DomainAge:  &age,
		IP:         "203.0.113.5",
		Registrar:  "ordinary-registrar",
	}

	clean := base
	clean.SourceURL = "https://ordinary-site.example/clean"
	clean.SafeBrowsingStatus = "clean"

	flagged := base
	flagged.SourceURL = "https://ordinary-site.example/flagged"
	flagged.SafeBrowsingStatus = "flagged"

	items, err := d.Detect(context.Background(), []models.BacklinkSignal{clean, flagged}, time.Now(), nil)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Greater(t, items[1].PBNProbability, items[0].PBNProbability)
}

// TestDetect_SingleCleanLinkIsLowRiskWithBaselineReason covers the
// trivial single-clean-backlink scenario: no rules fire, so reasons
// falls back to the baseline marker.
func TestDetect_SingleCleanLinkIsLowRiskWithBaselineReason(t *testing.T) {
	d := &Detector{
		Scorer: Scorer{
			Lightweight: classifier.Lightweight{},
			Thresholds:  threshold.Thresholds{High: 0.75, Medium: 0.45},
			Options: Options{
				UseEnsemble:         true,
				UseEnhancedFeatures: true,
				MinhashThreshold:    0.8,
			},
		},
		ParallelThreshold: 50,
		MinhashThreshold:  0.8,
	}

	// No ip or registrar: in a one-item batch either would give a reuse
	// ratio of 1.0 (the record shares it with itself).
	rank := 85.0
	age := 3000
	spam := 0
	dofollow := true
	clean := models.BacklinkSignal{
		SourceURL:          "https://trusted-publisher.example/article",
		DomainFrom:         "trusted-publisher.example",
		DomainRank:         &rank,
		DomainAge:          &age,
		SpamScore:          &spam,
		SafeBrowsingStatus: "clean",
		Dofollow:           &dofollow,
	}

	items, err := d.Detect(context.Background(), []models.BacklinkSignal{clean}, time.Now(), nil)
	require.NoError(t, err)
	require.Len(t, items, 1)

	got := items[0]
	assert.Equal(t, models.RiskLow, got.RiskLevel)
	assert.Contains(t, got.Reasons, models.ReasonBaselineScore)
}
