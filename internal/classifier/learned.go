package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/rawblock/pbn-detector/internal/features"
	"github.com/rawblock/pbn-detector/internal/metrics"
	"github.com/rawblock/pbn-detector/internal/models"
)

// linearModel is a serialized logistic-regression artifact: a weight per
// feature dimension plus an intercept, scored as sigmoid(w·x + b).
type linearModel struct {
	Weights   [11]float64 `json:"weights"`
	Intercept float64     `json:"intercept"`
	Version   string      `json:"version"`
}

func (m *linearModel) predict(v features.Vector) float64 {
	z := m.Intercept
	for i, w := range m.Weights {
		z += w * v[i]
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

// Learned wraps a hot-reloadable linear model behind the Classifier
// interface. It falls back to Lightweight whenever no model is loaded
// (no path, or the artifact could not be read or parsed), exactly as the
// reference implementation's classifier service falls through to its
// lightweight companion (spec.md §4.4). A reload that fails keeps the
// previously loaded model.
type Learned struct {
	path     string
	fallback Lightweight
	model    atomic.Pointer[linearModel]
	log      zerolog.Logger
}

// NewLearned returns a Learned classifier for the artifact at path. The
// artifact is read once here, at construction — a missing or unreadable
// file at startup is not an error; PredictProba simply falls back to the
// scorecard until the model watcher loads a valid file.
func NewLearned(path string, log zerolog.Logger) *Learned {
	c := &Learned{path: path, log: log.With().Str("component", "classifier.learned").Logger()}
	if path != "" {
		if err := c.reload(); err != nil {
			c.log.Warn().Err(err).Str("path", path).Msg("no learned model at startup, using lightweight fallback")
		}
	}
	return c
}

func (c *Learned) reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		metrics.ModelReloadsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("read model file: %w", err)
	}
	var m linearModel
	if err := json.Unmarshal(data, &m); err != nil {
		metrics.ModelReloadsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("parse model file: %w", err)
	}
	if m.Version == "" {
		m.Version = models.ModelVersionLearned
	}
	c.model.Store(&m)
	metrics.ModelReloadsTotal.WithLabelValues("ok").Inc()
	c.log.Info().Str("version", m.Version).Msg("learned model (re)loaded")
	return nil
}

// PredictProba implements Classifier. Any panic from a corrupt in-memory
// model degrades to the lightweight scorecard rather than failing the
// caller's request.
func (c *Learned) PredictProba(v features.Vector, b *models.BacklinkSignal) (p float64) {
	m := c.model.Load()
	if m == nil {
		return c.fallback.PredictProba(v, b)
	}

	defer func() {
		if recover() != nil {
			p = c.fallback.PredictProba(v, b)
		}
	}()
	return clamp01(m.predict(v))
}

// ModelVersion implements Classifier.
func (c *Learned) ModelVersion() string {
	if m := c.model.Load(); m != nil {
		return m.Version
	}
	return c.fallback.ModelVersion()
}

// Loaded implements Classifier. It reports false whenever no artifact has
// been read yet, so callers can tell "scoring via the fallback" apart from
// "scoring via a real model" rather than relying on a nil interface check —
// NewLearned always returns a non-nil *Learned, model or no model.
func (c *Learned) Loaded() bool {
	return c.model.Load() != nil
}

// Watch returns a suture.Service that watches the model file for changes
// and atomically swaps in the new model on every write, so a retrain can
// be rolled out without a restart. Serve blocks until ctx is canceled.
func (c *Learned) Watch() *ModelWatcher {
	return &ModelWatcher{classifier: c}
}

// ModelWatcher is the suture-supervised background service backing
// Learned.Watch.
type ModelWatcher struct {
	classifier *Learned
}

// Serve implements suture.Service.
func (w *ModelWatcher) Serve(ctx context.Context) error {
	if w.classifier.path == "" {
		<-ctx.Done()
		return ctx.Err()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.classifier.path); err != nil {
		w.classifier.log.Warn().Err(err).Msg("cannot watch model path, hot reload disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, func() {
				if err := w.classifier.reload(); err != nil {
					w.classifier.log.Warn().Err(err).Msg("model reload failed, keeping previous model")
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.classifier.log.Warn().Err(err).Msg("model watcher error")
		}
	}
}
