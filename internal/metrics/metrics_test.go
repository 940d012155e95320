package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Admission(t *testing.T) {
	r := NewRecorder()

	r.SetAdmission(3, 2, true)
	assert.Equal(t, 3.0, testutil.ToFloat64(r.sessions))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.queueDepth))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.busy))

	r.SetAdmission(0, 0, false)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.busy))
}

func TestRecorder_Counters(t *testing.T) {
	r := NewRecorder()

	r.IncTakeover()
	r.IncQuery("database")
	r.IncQuery("database")
	r.IncQuery("knowledge")
	r.IncCollectionFailure("osm")
	r.IncFallback("generation")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.takeovers))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.queries.WithLabelValues("database")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.queries.WithLabelValues("knowledge")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.collectionFailures.WithLabelValues("osm")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fallbacks.WithLabelValues("generation")))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ObserveSearch(120 * time.Millisecond)
	r.ObserveGeneration(2 * time.Second)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, "atlas_search_duration_seconds_count 1"))
	assert.True(t, strings.Contains(text, "atlas_generation_duration_seconds_count 1"))
	assert.Contains(t, text, "go_goroutines")
}
