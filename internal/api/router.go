// Package api exposes the detection pipeline over HTTP: POST /detect plus
// health, readiness, and Prometheus endpoints, following the teacher's
// gin-based router-setup convention.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rawblock/pbn-detector/internal/classifier"
	"github.com/rawblock/pbn-detector/internal/detector"
	"github.com/rawblock/pbn-detector/internal/metrics"
	"github.com/rawblock/pbn-detector/internal/models"
)

// Handler wires the HTTP surface to the detector.
type Handler struct {
	det          *detector.Detector
	maxBacklinks int
	log          zerolog.Logger
	ready        func() bool
}

// NewHandler builds a Handler. ready reports whether the service
// considers itself ready to serve (e.g. the cache store opened).
func NewHandler(det *detector.Detector, maxBacklinks int, log zerolog.Logger, ready func() bool) *Handler {
	return &Handler{det: det, maxBacklinks: maxBacklinks, log: log.With().Str("component", "api").Logger(), ready: ready}
}

// SetupRouter builds the gin engine with every route from spec.md §6.
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(h.log))

	r.POST("/detect", h.handleDetect)
	r.GET("/health", h.handleHealth)
	r.GET("/readyz", h.handleReadyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	}
}

// handleDetect implements POST /detect: validate the envelope (400 on
// failure), run the pipeline, and return 500 on any systemic failure —
// never a partial response (spec.md §7).
func (h *Handler) handleDetect(c *gin.Context) {
	start := time.Now()
	defer func() { metrics.RequestDuration.Observe(time.Since(start).Seconds()) }()

	var req models.DetectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.RequestsTotal.WithLabelValues("validation_error").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "detail": err.Error()})
		return
	}

	if err := validateRequest(&req, h.maxBacklinks); err != nil {
		metrics.RequestsTotal.WithLabelValues("validation_error").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.TaskID == "" {
		req.TaskID = uuid.NewString()
	}

	domainContext := domainContextFromSummary(req.Summary)

	items, err := h.det.Detect(c.Request.Context(), req.Backlinks, time.Now(), domainContext)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("internal_error").Inc()
		h.log.Error().Err(err).Str("task_id", req.TaskID).Msg("detection failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "detection failed", "detail": err.Error()})
		return
	}

	metrics.BacklinksScored.Observe(float64(len(req.Backlinks)))
	riskLevels := make([]string, len(items))
	for i, it := range items {
		riskLevels[i] = it.RiskLevel
	}
	metrics.ObserveItems(riskLevels)
	metrics.RequestsTotal.WithLabelValues("ok").Inc()

	resp := models.DetectionResponse{
		Domain:      req.Domain,
		TaskID:      req.TaskID,
		GeneratedAt: time.Now().UTC(),
		Items:       items,
		Summary:     detector.Summarize(items),
		Meta: models.DetectionMeta{
			LatencyMS:    time.Since(start).Milliseconds(),
			ModelVersion: h.modelVersion(),
		},
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) modelVersion() string {
	if h.det == nil {
		return ""
	}
	if h.det.Scorer.Learned != nil {
		return h.det.Scorer.Learned.ModelVersion()
	}
	if h.det.Scorer.Lightweight != nil {
		return h.det.Scorer.Lightweight.ModelVersion()
	}
	return classifier.Lightweight{}.ModelVersion()
}

func validateRequest(req *models.DetectionRequest, maxBacklinks int) error {
	if len(req.Backlinks) == 0 {
		return errors.New("backlinks must not be empty")
	}
	if len(req.Backlinks) > maxBacklinks {
		return fmt.Errorf("backlinks count %d exceeds max_backlinks %d", len(req.Backlinks), maxBacklinks)
	}
	return nil
}

// domainContextFromSummary lifts the optional adaptive-threshold hints out
// of the request's free-form summary map, if present.
func domainContextFromSummary(summary map[string]any) *models.DomainContext {
	if summary == nil {
		return nil
	}
	ctx := &models.DomainContext{}
	found := false
	if v, ok := summary["domain_authority"]; ok {
		if f, ok := toFloat(v); ok {
			ctx.DomainAuthority = &f
			found = true
		}
	}
	if v, ok := summary["historical_pbn_rate"]; ok {
		if f, ok := toFloat(v); ok {
			ctx.HistoricalPBNRate = &f
			found = true
		}
	}
	if !found {
		return nil
	}
	return ctx
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// handleHealth is a liveness probe: the process is up.
func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

// handleReadyz reports the handler's ready func: 503 when it returns
// false, 200 otherwise (a nil func counts as ready).
func (h *Handler) handleReadyz(c *gin.Context) {
	if h.ready != nil && !h.ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
