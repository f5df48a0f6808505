package detector

import (
	"github.com/rawblock/pbn-detector/internal/aggregator"
	"github.com/rawblock/pbn-detector/internal/classifier"
	"github.com/rawblock/pbn-detector/internal/ensemble"
	"github.com/rawblock/pbn-detector/internal/features"
	"github.com/rawblock/pbn-detector/internal/models"
	"github.com/rawblock/pbn-detector/internal/rules"
	"github.com/rawblock/pbn-detector/internal/threshold"
)

// Options toggles the optional pipeline stages, bound once at startup
// from configuration (spec.md §6).
type Options struct {
	UseEnsemble         bool
	UseEnhancedFeatures bool
	MinhashThreshold    float64
}

// Scorer holds everything the per-item pipeline needs that is shared,
// read-only, and request-scoped: the two classifiers, the adaptive
// thresholds, and the toggles. It has no mutable state of its own, so a
// single Scorer value is reused across every worker (spec.md §9's
// "singletons" note).
type Scorer struct {
	Lightweight classifier.Classifier
	Learned     classifier.Classifier // may be nil; contributes only while Loaded() is true
	Thresholds  threshold.Thresholds
	Options     Options
}

// ScoreOne runs the full item state machine from spec.md §4.10:
// Received → FeaturesBuilt → BaseScored → RulesEvaluated → Ensembled →
// EnhancementsApplied → Assembled → Emitted. Any stage that panics
// degrades to its neutral fallback and the pipeline continues — only
// envelope-level validation errors are fatal to the whole request.
func (s *Scorer) ScoreOne(b *models.BacklinkSignal, agg *aggregator.Aggregate, pop features.PopulationStats, contentSimilarity float64) models.DetectionItem {
	vector := s.extractFeatures(b, agg)
	ruleResult := s.evaluateRules(b, agg)
	basePrediction := s.runBaseClassifier(vector, b)

	ensembleProbability := s.blendEnsemble(vector, b, ruleResult, basePrediction)
	ensembleProbability = s.applyEnhancements(b, agg, pop, ensembleProbability)

	prob, risk, reasons := assemble(assemblerInput{
		backlink:            b,
		ruleResult:          ruleResult,
		ensembleProbability: ensembleProbability,
		contentSimilarity:   contentSimilarity,
		minhashThreshold:    s.Options.MinhashThreshold,
	}, s.Thresholds)

	return models.DetectionItem{
		SourceURL:      b.SourceURL,
		PBNProbability: prob,
		RiskLevel:      risk,
		Reasons:        reasons,
		Signals: map[string]any{
			"rule_scores": ruleResult.Scores,
		},
	}
}

func (s *Scorer) extractFeatures(b *models.BacklinkSignal, agg *aggregator.Aggregate) (v features.Vector) {
	defer func() {
		if recover() != nil {
			v = features.Vector{}
		}
	}()
	return features.Extract(b, agg)
}

func (s *Scorer) evaluateRules(b *models.BacklinkSignal, agg *aggregator.Aggregate) rules.Result {
	return rules.Evaluate(b, agg)
}

func (s *Scorer) runBaseClassifier(v features.Vector, b *models.BacklinkSignal) (p float64) {
	defer func() {
		if recover() != nil {
			p = 0.5
		}
	}()
	if s.Lightweight == nil {
		return 0.5
	}
	return s.Lightweight.PredictProba(v, b)
}

// blendEnsemble builds the ensemble contributors and blends them, or —
// when ensembling is disabled — returns the lightweight probability
// directly so base probability flows to the assembler unchanged.
func (s *Scorer) blendEnsemble(v features.Vector, b *models.BacklinkSignal, ruleResult rules.Result, basePrediction float64) (p float64) {
	defer func() {
		if recover() != nil {
			p = basePrediction
		}
	}()

	if !s.Options.UseEnsemble {
		return basePrediction
	}

	var contributors []ensemble.Contributor
	contributors = append(contributors, ensemble.Lightweight(basePrediction))

	if s.Learned != nil && s.Learned.Loaded() {
		contributors = append(contributors, ensemble.MLModel(s.Learned.PredictProba(v, b)))
	}
	if ruleResult.Sum() > 0 {
		contributors = append(contributors, ensemble.RuleBased(ruleResult.Sum()))
	}

	result := ensemble.Blend(contributors, basePrediction)
	return result.Probability
}

func (s *Scorer) applyEnhancements(b *models.BacklinkSignal, agg *aggregator.Aggregate, pop features.PopulationStats, base float64) (p float64) {
	defer func() {
		if recover() != nil {
			p = base
		}
	}()
	if !s.Options.UseEnhancedFeatures {
		return base
	}
	ev := features.ExtractEnhanced(b, agg, pop)
	return features.ApplyEnhancedBoosts(base, ev)
}
