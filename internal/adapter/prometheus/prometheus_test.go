package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusAdapter_DomainMetrics(t *testing.T) {
	p := NewPrometheusAdapter()

	p.RecordFlow("swap", "success", 20*time.Millisecond)
	p.RecordFlow("swap", "success", 10*time.Millisecond)
	p.RecordFlow("assign", "partial", time.Millisecond)
	p.RecordCompensation("assign", "claim_bike", true)
	p.RecordCompensation("assign", "update_user", false)
	p.RecordCounterDrift()
	p.RecordRepairs("bike_released", 2)
	p.RecordRepairs("user_repaired", 0)
	p.SetBreakerState("documents", "open")

	assert.Equal(t, 2.0, testutil.ToFloat64(p.flows.WithLabelValues("swap", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.flows.WithLabelValues("assign", "partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.compensations.WithLabelValues("assign", "update_user", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.counterDrift))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.repairs.WithLabelValues("bike_released")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.breakerState.WithLabelValues("documents")))

	p.SetBreakerState("documents", "closed")
	assert.Equal(t, 0.0, testutil.ToFloat64(p.breakerState.WithLabelValues("documents")))
}

func TestPrometheusAdapter_HTTPMetricsAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := NewPrometheusAdapter()

	r := gin.New()
	r.GET("/bikes/:id", func(c *gin.Context) {
		start := time.Now()
		defer func() { p.RecordMetrics(c, start) }()
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	r.GET("/metrics", gin.WrapH(p.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bikes/42", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.httpRequests.WithLabelValues("GET", "/bikes/:id", "404")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `caption_http_requests_total{method="GET",path="/bikes/:id",status="404"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
