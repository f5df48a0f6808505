package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexTime_UnmarshalJSON_AcceptsOffsetAndNaiveForms(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339 with offset", `"2026-01-15T10:30:00Z"`, time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"naive datetime", `"2026-01-15T10:30:00"`, time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"naive space-separated", `"2026-01-15 10:30:00"`, time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"naive date only", `"2026-01-15"`, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got FlexTime
			require.NoError(t, json.Unmarshal([]byte(tc.in), &got))
			assert.True(t, time.Time(got).Equal(tc.want))
		})
	}
}

func TestFlexTime_UnmarshalJSON_RejectsGarbage(t *testing.T) {
	var got FlexTime
	err := json.Unmarshal([]byte(`"not a timestamp"`), &got)
	assert.Error(t, err)
}

func TestBacklinkSignal_FirstSeenAcceptsNaiveTimestamp(t *testing.T) {
	raw := []byte(`{"source_url": "https://a.example/p", "first_seen": "2026-01-15T10:30:00"}`)

	var b BacklinkSignal
	require.NoError(t, json.Unmarshal(raw, &b))
	require.NotNil(t, b.FirstSeen)
	assert.Equal(t, time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC), b.FirstSeen.UTC())
}
