package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/quotes", "GET", 200, 2*time.Millisecond)
	m.RecordRequest("/quotes", "GET", 200, 4*time.Millisecond)
	m.RecordError("/quotes/:id", "POST", "FORBIDDEN")

	snap := m.Snapshot()
	require.Len(t, snap.Requests, 1)
	assert.Equal(t, "/quotes|GET|200", snap.Requests[0].Key)
	assert.EqualValues(t, 2, snap.Requests[0].Count)
	assert.InDelta(t, 3.0, snap.Requests[0].AvgLatencyMS, 0.001)
	require.Len(t, snap.Errors, 1)
	assert.Equal(t, "/quotes/:id|POST|FORBIDDEN", snap.Errors[0].Key)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	assert.Empty(t, m.Snapshot().Requests)
}
