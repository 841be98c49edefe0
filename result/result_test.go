// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

package result

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReachable(t *testing.T) {
	tests := []struct {
		name     string
		outcomes map[Kind]TestOutcome
		want     bool
	}{
		{
			name: "one success among failures",
			outcomes: map[Kind]TestOutcome{
				KindDNS:  Failed("timed out"),
				KindPing: Success(),
				KindHTTP: Failed("connection refused"),
			},
			want: true,
		},
		{
			name: "unanimous failure",
			outcomes: map[Kind]TestOutcome{
				KindDNS:  Failed("timed out"),
				KindPing: Failed("no replies"),
				KindHTTP: Failed("connection refused"),
			},
			want: false,
		},
		{
			name: "disabled kinds do not count as failures",
			outcomes: map[Kind]TestOutcome{
				KindDNS:  Failed("timed out"),
				KindPing: Disabled("ping test disabled in configuration"),
			},
			want: false,
		},
		{
			name: "everything disabled is not down",
			outcomes: map[Kind]TestOutcome{
				KindDNS:  Disabled("disabled"),
				KindPing: Disabled("disabled"),
			},
			want: true,
		},
		{
			name:     "no outcomes at all is not down",
			outcomes: nil,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New("example.com", time.Now())
			for kind, o := range tt.outcomes {
				res.Set(kind, o)
			}
			assert.Equal(t, tt.want, res.Reachable())
		})
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	res := New("example.com", time.Now())
	for _, kind := range Kinds() {
		assert.Nil(t, res.Get(kind))
	}

	o := Success()
	o.TimeMs = Float(1.5)
	res.Set(KindDNS, o)

	got := res.Get(KindDNS)
	require.NotNil(t, got)
	assert.Equal(t, StatusSuccess, got.Status)
	require.NotNil(t, got.TimeMs)
	assert.Equal(t, 1.5, *got.TimeMs)
}

func TestTimestampIsUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	res := New("example.com", time.Date(2026, 3, 1, 20, 0, 0, 0, loc))
	assert.Equal(t, time.UTC, res.Timestamp.Location())
}

func TestOutcomeSerializationOmitsUnsetMetrics(t *testing.T) {
	res := New("example.com", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	res.Set(KindPing, Failed("no replies"))

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "target")
	assert.Contains(t, doc, "ping")
	assert.NotContains(t, doc, "dns", "kinds never run must not appear")

	var ping map[string]any
	require.NoError(t, json.Unmarshal(doc["ping"], &ping))
	assert.Equal(t, "failed", ping["status"])
	assert.Equal(t, "no replies", ping["error"])
	assert.NotContains(t, ping, "time_ms")
	assert.NotContains(t, ping, "open_ports")
}

func TestRunSummary(t *testing.T) {
	s := NewRunSummary()
	assert.NotEmpty(t, s.RunID)

	s.Record("up.example.com", true)
	s.Record("down.example.com", false)
	s.RecordSkipped()

	assert.Equal(t, 2, s.Total())
	assert.Equal(t, []string{"down.example.com"}, s.FailedTargets())
	assert.Equal(t, 1, s.Skipped())
	assert.False(t, s.AllReachable())
}

func TestRunIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewRunID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
