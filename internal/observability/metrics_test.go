package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveCycle(t *testing.T) {
	m := NewMetrics("")
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m.ObserveCycle(CycleOK, started, started.Add(2*time.Second))
	m.ObserveCycle(CycleSkipped, started, started.Add(time.Second))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CyclesTotal.WithLabelValues(CycleOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CyclesTotal.WithLabelValues(CycleSkipped)))
	assert.Equal(t, float64(started.Add(2*time.Second).Unix()), testutil.ToFloat64(m.LastSuccessfulCycle))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CycleDuration))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics("gemwatch")
	b := NewMetrics("gemwatch")

	a.GemsDetected.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.GemsDetected))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.GemsDetected))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("gemwatch")
	m.Decisions.WithLabelValues("first_sighting").Inc()

	server := httptest.NewServer(m.NewServer(":0").Handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `gemwatch_scoring_decisions_total{reason="first_sighting"} 1`)
}
