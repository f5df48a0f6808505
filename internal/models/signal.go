// Package models holds the request/response data shapes shared by every
// stage of the detection pipeline.
package models

import (
	"fmt"
	"time"
)

// naiveLayouts are the offset-less forms enrichment sources emit for
// first_seen/last_seen. spec.md §3/§4.1: these timestamps "may be naïve —
// interpret as UTC," matching the original service's bare datetime fields.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FlexTime unmarshals an RFC3339 timestamp, with or without an explicit
// offset. An offset-less value is interpreted as UTC rather than rejected.
type FlexTime time.Time

// UnmarshalJSON implements json.Unmarshaler.
func (t *FlexTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		*t = FlexTime(parsed)
		return nil
	}
	for _, layout := range naiveLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			*t = FlexTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("parse timestamp %q: not RFC3339 or a known naive layout", s)
}

// MarshalJSON implements json.Marshaler, always emitting RFC3339 in UTC.
func (t FlexTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(time.RFC3339) + `"`), nil
}

// UTC returns the underlying time in UTC, matching the time.Time method
// every consumer of FirstSeen/LastSeen already calls.
func (t FlexTime) UTC() time.Time { return time.Time(t).UTC() }

// BacklinkSignal is one observed backlink pointing at the target domain.
// It is treated as immutable once the request has been parsed. Optional
// fields are pointers so that "absent" and "explicit zero value" stay
// distinguishable, which several rules and features depend on.
type BacklinkSignal struct {
	SourceURL  string `json:"source_url"`
	DomainFrom string `json:"domain_from,omitempty"`
	Anchor     string `json:"anchor,omitempty"`
	LinkType   string `json:"link_type,omitempty"`

	DomainRank *float64 `json:"domain_rank,omitempty"`
	DomainAge  *int     `json:"domain_age_days,omitempty"`
	SpamScore  *int     `json:"backlink_spam_score,omitempty"`

	IP        string `json:"ip,omitempty"`
	Registrar string `json:"whois_registrar,omitempty"`

	FirstSeen *FlexTime `json:"first_seen,omitempty"`
	LastSeen  *FlexTime `json:"last_seen,omitempty"`

	Dofollow   *bool `json:"dofollow,omitempty"`
	LinksCount *int  `json:"links_count,omitempty"`

	SafeBrowsingStatus  string           `json:"safe_browsing_status,omitempty"`
	SafeBrowsingThreats []map[string]any `json:"safe_browsing_threats,omitempty"`

	Raw map[string]any `json:"raw,omitempty"`
}

// RankOrZero returns domain_rank, or 0 if absent.
func (b *BacklinkSignal) RankOrZero() float64 {
	if b.DomainRank == nil {
		return 0
	}
	return *b.DomainRank
}

// AgeOrZero returns domain_age_days, or 0 if absent.
func (b *BacklinkSignal) AgeOrZero() int {
	if b.DomainAge == nil {
		return 0
	}
	return *b.DomainAge
}

// SpamScoreOrNil returns the spam score pointer unchanged; callers treat
// nil specially (it normalizes to 0.5, not 0).
func (b *BacklinkSignal) SpamScoreOrNil() *int {
	return b.SpamScore
}

// IsDofollow reports whether dofollow is explicitly set true.
func (b *BacklinkSignal) IsDofollow() bool {
	return b.Dofollow != nil && *b.Dofollow
}

// TextPre returns the raw["text_pre"] snippet, or "" if absent or not a string.
func (b *BacklinkSignal) TextPre() string {
	return rawString(b.Raw, "text_pre")
}

// TextPost returns the raw["text_post"] snippet, or "" if absent or not a string.
func (b *BacklinkSignal) TextPost() string {
	return rawString(b.Raw, "text_post")
}

func rawString(raw map[string]any, key string) string {
	if raw == nil {
		return ""
	}
	if v, ok := raw[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// NetworkAggregate is computed once per request in a single O(n) pass over
// all backlinks and then shared read-only across every per-item computation.
type NetworkAggregate struct {
	IPCounts        map[string]int
	RegistrarCounts map[string]int
	TotalPeers      int
	VelocityWindows map[string]int // keys: "7d", "30d", "90d"

	ContentSimilarityRatio float64
}

// DetectionItem is the per-backlink output record.
type DetectionItem struct {
	SourceURL      string         `json:"source_url"`
	PBNProbability float64        `json:"pbn_probability"`
	RiskLevel      string         `json:"risk_level"`
	Reasons        []string       `json:"reasons"`
	Signals        map[string]any `json:"signals"`
}

// DetectionSummary tallies items by risk level.
type DetectionSummary struct {
	HighRiskCount   int `json:"high_risk_count"`
	MediumRiskCount int `json:"medium_risk_count"`
	LowRiskCount    int `json:"low_risk_count"`
}

// DetectionMeta carries request-level diagnostics.
type DetectionMeta struct {
	LatencyMS    int64  `json:"latency_ms"`
	ModelVersion string `json:"model_version"`
}

// DetectionRequest is the POST /detect envelope.
type DetectionRequest struct {
	Domain    string           `json:"domain"`
	TaskID    string           `json:"task_id"`
	Backlinks []BacklinkSignal `json:"backlinks"`
	Summary   map[string]any   `json:"summary,omitempty"`
}

// DomainContext carries optional adaptive-threshold hints (spec.md §4.7).
type DomainContext struct {
	DomainAuthority   *float64
	HistoricalPBNRate *float64
}

// DetectionResponse is the POST /detect envelope.
type DetectionResponse struct {
	Domain      string           `json:"domain"`
	TaskID      string           `json:"task_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Items       []DetectionItem  `json:"items"`
	Summary     DetectionSummary `json:"summary"`
	Meta        DetectionMeta    `json:"meta"`
}

// Model version tags, per spec.md §3.
const (
	ModelVersionLearned     = "lr-1.0"
	ModelVersionLightweight = "lightweight-v1.0"
)

// Risk level names, per spec.md §3.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// The three synthetic reasons the assembler may append after the rule
// names (defined in internal/rules), per spec.md §8.
const (
	ReasonSafeBrowsingFlagged  = "safe_browsing_flagged"
	ReasonContentSimilarity    = "content_similarity_high"
	ReasonBaselineScore        = "baseline_score"
)
