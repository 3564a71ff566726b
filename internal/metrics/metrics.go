package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Requests          *prometheus.CounterVec
	LatencyMS         *prometheus.HistogramVec
	CheckoutOutcomes  *prometheus.CounterVec
	OutboxPublished   prometheus.Counter
	OutboxPublishFail prometheus.Counter
	registry          *prometheus.Registry
}

func New() *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "marketplace",
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "checkouts_total",
		Help:      "Checkouts by terminal state.",
	}, []string{"state"})
	published := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "outbox_events_published_total",
		Help:      "Outbox events delivered to Kafka.",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "outbox_publish_failures_total",
		Help:      "Outbox events that failed to publish.",
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		requests, latency, checkouts, published, failed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		Requests:          requests,
		LatencyMS:         latency,
		CheckoutOutcomes:  checkouts,
		OutboxPublished:   published,
		OutboxPublishFail: failed,
		registry:          reg,
	}
}

func (m *Metrics) ObserveCheckout(state string) {
	if m == nil {
		return
	}
	m.CheckoutOutcomes.WithLabelValues(state).Inc()
}

func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(route).Observe(float64(elapsed.Milliseconds()))
}

func (m *Metrics) OutboxPublishSucceeded() {
	if m == nil {
		return
	}
	m.OutboxPublished.Inc()
}

func (m *Metrics) OutboxPublishFailed() {
	if m == nil {
		return
	}
	m.OutboxPublishFail.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
