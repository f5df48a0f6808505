// Package detector runs the per-backlink scoring pipeline (the item
// state machine of spec.md §4.10) and assembles the final probability
// and risk verdict (spec.md §4.9), then fans the work out across a
// bounded worker pool (spec.md §5).
package detector

import (
	"github.com/rawblock/pbn-detector/internal/models"
	"github.com/rawblock/pbn-detector/internal/rules"
	"github.com/rawblock/pbn-detector/internal/threshold"
)

const (
	baseRuleWeight    = 0.30
	highRiskRuleWeight = 0.40
	contentWeight      = 0.15
)

// isHighRiskSignal mirrors the assembler's own definition: an
// unusually spammy or unusually authoritative-looking record gets a
// heavier rule weight.
func isHighRiskSignal(b *models.BacklinkSignal) bool {
	if b.SpamScore != nil && *b.SpamScore >= 60 {
		return true
	}
	if b.DomainRank != nil && *b.DomainRank < 20 {
		return true
	}
	return false
}

// assemblerInput is everything one item's final scoring step needs —
// produced by the earlier pipeline stages (features, rules, ensemble).
type assemblerInput struct {
	backlink           *models.BacklinkSignal
	ruleResult         rules.Result
	ensembleProbability float64
	contentSimilarity  float64
	minhashThreshold   float64
}

// assemble implements the Risk Assembler formula from spec.md §4.9,
// producing the final probability, risk level, and reasons for one
// backlink.
func assemble(in assemblerInput, thresholds threshold.Thresholds) (probability float64, risk string, reasons []string) {
	ruleWeight := baseRuleWeight
	highRisk := isHighRiskSignal(in.backlink)
	if highRisk {
		ruleWeight = highRiskRuleWeight
	}
	baseWeight := 1 - ruleWeight - contentWeight

	rawRuleSum := in.ruleResult.Sum()
	effectiveRuleSum := rawRuleSum

	flagged := in.backlink.SafeBrowsingStatus == "flagged"
	if flagged {
		effectiveRuleSum += 0.30
	}
	if effectiveRuleSum > 1.0 {
		effectiveRuleSum = 1.0
	}

	prob := in.ensembleProbability*baseWeight + effectiveRuleSum*ruleWeight + in.contentSimilarity*contentWeight

	if highRisk && rawRuleSum > 0 {
		switch {
		case in.ruleResult.Has(rules.DataForSEOSpamScore) && in.ruleResult.Has(rules.DomainQuality):
			prob += 0.25
		case rawRuleSum >= 0.3:
			prob += 0.15
		}
	}

	prob = clamp(prob, 0, 0.999)
	risk = thresholds.Classify(prob)

	reasons = append(reasons, in.ruleResult.Order...)
	if flagged {
		reasons = append(reasons, models.ReasonSafeBrowsingFlagged)
	}
	if in.contentSimilarity >= in.minhashThreshold {
		reasons = append(reasons, models.ReasonContentSimilarity)
	}
	if len(reasons) == 0 {
		reasons = []string{models.ReasonBaselineScore}
	}

	return prob, risk, reasons
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
