package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCheckout(t *testing.T) {
	m := New()

	m.ObserveCheckout("COMMITTED")
	m.ObserveCheckout("COMMITTED")
	m.ObserveCheckout("EMPTY_CART")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CheckoutOutcomes.WithLabelValues("COMMITTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckoutOutcomes.WithLabelValues("EMPTY_CART")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCheckout("ABORTED")
		m.ObserveRequest("/health", 200, time.Millisecond)
	})
}

func TestHandler_ExposesCounters(t *testing.T) {
	m := New()
	m.ObserveRequest("/api/v1/cart", http.StatusOK, 12*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `marketplace_http_requests_total{route="/api/v1/cart",status="200"} 1`)
}
