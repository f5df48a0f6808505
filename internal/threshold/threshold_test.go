package threshold

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rawblock/pbn-detector/internal/models"
)

func baseThresholds() Thresholds { return Thresholds{High: 0.75, Medium: 0.45} }

func TestAdjust_LargeBatchRaisesCutoffs(t *testing.T) {
	got := Adjust(baseThresholds(), 20000, nil)
	assert.InDelta(t, 0.80, got.High, 1e-9)
	assert.InDelta(t, 0.50, got.Medium, 1e-9)
}

func TestAdjust_SmallBatchLowersCutoffs(t *testing.T) {
	got := Adjust(baseThresholds(), 10, nil)
	assert.InDelta(t, 0.70, got.High, 1e-9)
	assert.InDelta(t, 0.40, got.Medium, 1e-9)
}

func TestAdjust_HighDomainAuthorityRaisesCutoffsFurther(t *testing.T) {
	authority := 90.0
	ctx := &models.DomainContext{DomainAuthority: &authority}
	got := Adjust(baseThresholds(), 1000, ctx)
	assert.InDelta(t, 0.78, got.High, 1e-9)
	assert.InDelta(t, 0.48, got.Medium, 1e-9)
}

func TestAdjust_CapsNeverExceedBounds(t *testing.T) {
	authority := 95.0
	rate := 0.9
	ctx := &models.DomainContext{DomainAuthority: &authority, HistoricalPBNRate: &rate}
	got := Adjust(Thresholds{High: 0.94, Medium: 0.84}, 50000, ctx)
	assert.LessOrEqual(t, got.High, 0.95)
	assert.LessOrEqual(t, got.Medium, 0.85)
}

func TestThresholds_Classify(t *testing.T) {
	th := Thresholds{High: 0.8, Medium: 0.5}
	assert.Equal(t, models.RiskHigh, th.Classify(0.9))
	assert.Equal(t, models.RiskMedium, th.Classify(0.6))
	assert.Equal(t, models.RiskLow, th.Classify(0.1))
}
