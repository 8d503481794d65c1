package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.LiveEvent("pointer.down")
	m.LiveEvent("pointer.down")
	m.PointChange("add")
	m.FrameSent()
	m.ObserveHTTP(http.MethodGet, "/api/points", http.StatusOK, 12*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.liveSessions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.liveEvents.WithLabelValues("pointer.down")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pointChanges.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.framesSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/points", "200")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.PointChange("commit")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pointdash_point_changes_total{kind="commit"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SessionOpened()
	m.LiveEvent("wheel")
	m.ObserveHTTP("GET", "/", 200, time.Second)
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
