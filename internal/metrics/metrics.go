package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/mikey/contact-guard/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Verdict outcome labels
const (
	OutcomeAllowed     = "allowed"
	OutcomeSpam        = "spam"
	OutcomeHoneypot    = "honeypot"
	OutcomeRateLimited = "rate_limited"
	OutcomeFailOpen    = "fail_open"
)

// Metrics holds all the Prometheus metrics for the contact service
type Metrics struct {
	registry *prometheus.Registry

	// Counters
	Verdicts     *prometheus.CounterVec
	SinkWrites   *prometheus.CounterVec
	HTTPRequests *prometheus.CounterVec

	// Histograms
	SpamScore    prometheus.Histogram
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_guard_verdicts_total",
				Help: "Spam check verdicts by outcome",
			},
			[]string{"outcome"},
		),

		SinkWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_guard_sink_writes_total",
				Help: "Submission writes by sink and result",
			},
			[]string{"sink", "result"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_guard_http_requests_total",
				Help: "Total HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),

		SpamScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "contact_guard_spam_score",
				Help:    "Content scores of evaluated submissions",
				Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 8, 10, 15, 20},
			},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contact_guard_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"route", "method"},
		),
	}

	m.registry.MustRegister(
		m.Verdicts,
		m.SinkWrites,
		m.HTTPRequests,
		m.SpamScore,
		m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveVerdict records one spam check outcome
func (m *Metrics) ObserveVerdict(v *core.Verdict) {
	if m == nil || v == nil {
		return
	}
	m.Verdicts.WithLabelValues(Outcome(v)).Inc()
	if v.Details != nil {
		m.SpamScore.Observe(float64(v.Score))
	}
}

// ObserveSinkWrite records a persistence attempt
func (m *Metrics) ObserveSinkWrite(sink string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SinkWrites.WithLabelValues(sink, result).Inc()
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// TrackRateLimitEntries exposes the number of tracked identities, read from store on every scrape
func (m *Metrics) TrackRateLimitEntries(store core.RateLimitStore) {
	if m == nil || store == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "contact_guard_ratelimit_entries",
			Help: "Client identities currently tracked by the rate limiter",
		},
		func() float64 {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			n, err := store.Len(ctx)
			if err != nil {
				return -1
			}
			return float64(n)
		},
	))
}

// Outcome classifies a verdict into a metric label
func Outcome(v *core.Verdict) string {
	switch {
	case v.IsSpam && v.Details == nil:
		return OutcomeHoneypot
	case v.IsSpam:
		return OutcomeSpam
	case !v.Allow:
		return OutcomeRateLimited
	case v.Details == nil:
		return OutcomeFailOpen
	default:
		return OutcomeAllowed
	}
}
