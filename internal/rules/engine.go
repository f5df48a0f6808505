// Package rules implements the independent heuristic rule evaluations and
// rule-chaining multipliers from spec.md §4.3.
package rules

import (
	"regexp"
	"strings"

	"github.com/rawblock/pbn-detector/internal/aggregator"
	"github.com/rawblock/pbn-detector/internal/models"
)

// Rule names — the closed set referenced by spec.md §8.
const (
	SharedIPNetwork        = "shared_ip_network"
	SharedRegistrarNetwork = "shared_registrar_network"
	AnchorQuality          = "anchor_quality"
	VelocitySpike          = "velocity_spike"
	DomainQuality          = "domain_quality"
	CompositeRisk          = "composite_risk"
	DataForSEOSpamScore    = "dataforseo_spam_score"
)

// Names, in evaluation order. Reasons are reported in this same order.
var evaluationOrder = []string{
	SharedIPNetwork,
	SharedRegistrarNetwork,
	AnchorQuality,
	VelocitySpike,
	DomainQuality,
	CompositeRisk,
	DataForSEOSpamScore,
}

var (
	highRiskAnchorWords   = []string{"casino", "poker", "adult", "viagra", "cialis", "loan", "debt", "forex", "crypto", "bitcoin"}
	mediumRiskAnchorWords = []string{"buy", "cheap", "discount", "free", "click here", "visit now", "order now"}
	punctuationPatterns   = []string{"!!!", "$$$", "www.", "http"}

	compositeRiskyAnchorWords = []string{"buy", "cheap", "casino"}

	consecutiveDigitsPattern = regexp.MustCompile(`\d{4,}`)
)

// Result is an ordered, deduplicated-by-construction rule evaluation: the
// map gives O(1) lookup, Order preserves the evaluation sequence so
// reasons come out in the order spec.md §3 requires.
type Result struct {
	Scores map[string]float64
	Order  []string
}

// Sum returns Σ(scores), used directly by the rule-sum ensemble
// contributor and the assembler.
func (r Result) Sum() float64 {
	total := 0.0
	for _, name := range r.Order {
		total += r.Scores[name]
	}
	return total
}

// Has reports whether a rule triggered.
func (r Result) Has(name string) bool {
	_, ok := r.Scores[name]
	return ok
}

func (r *Result) set(name string, score float64) {
	if score <= 0 {
		return
	}
	if _, exists := r.Scores[name]; !exists {
		r.Order = append(r.Order, name)
	}
	r.Scores[name] = score
}

// Evaluate runs every independent rule against one backlink and its peers
// (via the shared Network Aggregate), then applies the rule-chaining
// multipliers from spec.md §4.3. A panic recovered from any individual
// rule degrades this backlink to an empty result without failing the
// request, per spec.md §4.3/§4.10.
func Evaluate(b *models.BacklinkSignal, agg *aggregator.Aggregate) (result Result) {
	result = Result{Scores: make(map[string]float64, len(evaluationOrder))}

	defer func() {
		if recover() != nil {
			result = Result{Scores: make(map[string]float64)}
		}
	}()

	result.set(SharedIPNetwork, sharedCountScore(b.IP, agg.MaybeSharedIP(b.IP), agg.IPCounts, agg.TotalPeers, 0.3, 0.2, 0.1))
	result.set(SharedRegistrarNetwork, sharedCountScore(b.Registrar, agg.MaybeSharedRegistrar(b.Registrar), agg.RegistrarCounts, agg.TotalPeers, 0.25, 0.15, 0.1))
	result.set(AnchorQuality, anchorQualityScore(b.Anchor))
	result.set(VelocitySpike, velocitySpikeScore(agg))
	result.set(DomainQuality, domainQualityScore(b))
	result.set(CompositeRisk, compositeRiskScore(b, agg))
	result.set(DataForSEOSpamScore, spamScoreRuleScore(b.SpamScore))

	applyChaining(&result)

	return result
}

// sharedCountScore implements the common "≥10 and share≥0.4 / ≥5 and
// ≥0.2 / ≥3" shape used by both shared_ip_network and
// shared_registrar_network (spec.md §4.3).
func sharedCountScore(key string, mightBeShared bool, counts map[string]int, total int, hi, mid, lo float64) float64 {
	if key == "" || total == 0 || !mightBeShared {
		return 0
	}
	count := counts[key]
	share := float64(count) / float64(total)

	switch {
	case count >= 10 && share >= 0.4:
		return hi
	case count >= 5 && share >= 0.2:
		return mid
	case count >= 3:
		return lo
	default:
		return 0
	}
}

func anchorQualityScore(anchor string) float64 {
	if anchor == "" {
		return 0
	}
	lower := strings.ToLower(anchor)

	for _, w := range highRiskAnchorWords {
		if strings.Contains(lower, w) {
			return 0.3
		}
	}
	for _, w := range mediumRiskAnchorWords {
		if strings.Contains(lower, w) {
			return 0.2
		}
	}
	for _, p := range punctuationPatterns {
		if strings.Contains(lower, p) {
			return 0.15
		}
	}
	return 0
}

func velocitySpikeScore(agg *aggregator.Aggregate) float64 {
	if agg.TotalPeers == 0 {
		return 0
	}
	windows := []struct {
		key   string
		score float64
	}{
		{"7d", 0.2},
		{"30d", 0.15},
		{"90d", 0.1},
	}
	max := 0.0
	for _, w := range windows {
		share := float64(agg.VelocityWindows[w.key]) / float64(agg.TotalPeers)
		if share >= 0.5 && w.score > max {
			max = w.score
		}
	}
	return max
}

func domainQualityScore(b *models.BacklinkSignal) float64 {
	score := 0.0
	if b.DomainRank != nil && *b.DomainRank < 50 {
		score += 0.15
	}
	if b.DomainAge != nil && *b.DomainAge < 180 {
		score += 0.1
	}
	if b.DomainFrom != "" {
		lower := strings.ToLower(b.DomainFrom)
		if consecutiveDigitsPattern.MatchString(lower) || len(lower) < 6 {
			score += 0.1
		}
	}
	if score > 0.25 {
		return 0.25
	}
	return score
}

func compositeRiskScore(b *models.BacklinkSignal, agg *aggregator.Aggregate) float64 {
	factors := 0

	if b.DomainRank != nil && *b.DomainRank < 200 && b.DomainAge != nil && *b.DomainAge < 365 {
		factors++
	}
	if b.IP != "" && agg.IPCounts[b.IP] >= 3 {
		factors++
	}
	if b.Anchor != "" {
		lower := strings.ToLower(b.Anchor)
		for _, w := range compositeRiskyAnchorWords {
			if strings.Contains(lower, w) {
				factors++
				break
			}
		}
	}

	switch {
	case factors >= 3:
		return 0.2
	case factors >= 2:
		return 0.12
	case factors >= 1:
		return 0.05
	default:
		return 0
	}
}

// spamScoreMembership is the fuzzy membership function μ(s) from
// spec.md §4.3's dataforseo_spam_score rule.
func spamScoreMembership(s int) float64 {
	switch {
	case s >= 80:
		return 1.0
	case s >= 60:
		return 0.5 + float64(s-60)/20.0*0.5
	case s >= 40:
		return float64(s-40) / 20.0 * 0.5
	default:
		return 0.0
	}
}

func spamScoreRuleScore(spamScore *int) float64 {
	if spamScore == nil {
		return 0
	}
	mu := spamScoreMembership(*spamScore)
	switch {
	case mu >= 0.9:
		return 0.3
	case mu >= 0.5:
		return 0.2
	case mu > 0:
		return 0.1
	default:
		return 0
	}
}

// applyChaining re-weights named rule combinations that indicate a
// composite pattern, per spec.md §4.3. Applied once, in the order the
// spec lists the three combinations.
func applyChaining(r *Result) {
	if r.Has(DataForSEOSpamScore) && r.Has(SharedIPNetwork) {
		r.Scores[DataForSEOSpamScore] = clamp01(r.Scores[DataForSEOSpamScore] * 1.2)
		r.Scores[SharedIPNetwork] = clamp01(r.Scores[SharedIPNetwork] * 1.2)
	}
	if r.Has(SharedRegistrarNetwork) && r.Has(DomainQuality) {
		r.Scores[DomainQuality] = clamp01(r.Scores[DomainQuality] * 1.3)
	}
	if r.Has(SharedIPNetwork) && r.Has(DomainQuality) {
		r.Scores[DomainQuality] = clamp01(r.Scores[DomainQuality] * 1.2)
	}
}

func clamp01(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < 0 {
		return 0
	}
	return v
}
