// Package classifier implements the two interchangeable base classifiers
// from spec.md §4.4 behind one interface, plus the learned model's
// hot-reload machinery.
package classifier

import (
	"github.com/rawblock/pbn-detector/internal/features"
	"github.com/rawblock/pbn-detector/internal/models"
)

// Classifier maps one backlink's feature vector (plus the raw signal, for
// the handful of non-numeric fields like safe_browsing_status) to a PBN
// probability in [0, 1].
type Classifier interface {
	PredictProba(v features.Vector, b *models.BacklinkSignal) float64
	ModelVersion() string

	// Loaded reports whether this classifier has a real model backing it,
	// as opposed to running purely on its fallback. blendEnsemble checks
	// this, not a nil interface, to decide whether the learned arm
	// contributes a distinct signal or its weight must be renormalized
	// across the remaining contributors (spec.md §9).
	Loaded() bool
}
