package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the ledger service.
// Every method is safe on a nil *Metrics so components can run without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	// Ledger
	Mutations       *prometheus.CounterVec
	MutationsFailed *prometheus.CounterVec
	Assets          prometheus.Gauge
	Projects        prometheus.Gauge
	PortfolioValue  prometheus.Gauge

	// Price refresh
	RefreshRuns    *prometheus.CounterVec
	OracleDuration *prometheus.HistogramVec
	QuotesApplied  prometheus.Counter

	// Persistence
	PersistWrites   *prometheus.CounterVec
	PersistDuration prometheus.Histogram

	// Snapshots
	SnapshotsCaptured prometheus.Counter

	// Events
	EventsPublished *prometheus.CounterVec

	// HTTP
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates all collectors on a dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_ledger_mutations_total",
			Help: "Ledger mutations applied",
		}, []string{"op"}),

		MutationsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_ledger_mutations_failed_total",
			Help: "Ledger mutations rejected",
		}, []string{"op"}),

		Assets: f.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_assets",
			Help: "Assets currently held",
		}),

		Projects: f.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_projects",
			Help: "Projects currently tracked",
		}),

		PortfolioValue: f.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_portfolio_value",
			Help: "Assets value at the last snapshot check",
		}),

		RefreshRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_price_refresh_total",
			Help: "Price refresh gate outcomes",
		}, []string{"result"}),

		OracleDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_oracle_request_duration_seconds",
			Help:    "Price oracle batch request latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"result"}),

		QuotesApplied: f.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_quotes_applied_total",
			Help: "Asset prices replaced by a quote",
		}),

		PersistWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_persist_writes_total",
			Help: "Ledger saves to the persistent store",
		}, []string{"result"}),

		PersistDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_persist_duration_seconds",
			Help:    "Ledger save duration",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}),

		SnapshotsCaptured: f.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_snapshots_captured_total",
			Help: "Daily valuation snapshots appended",
		}),

		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_events_published_total",
			Help: "Ledger events handed to the broker",
		}, []string{"result"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_http_requests_total",
			Help: "HTTP requests served",
		}, []string{"route", "method", "status"}),

		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) MutationApplied(op string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(op).Inc()
}

func (m *Metrics) MutationFailed(op string) {
	if m == nil {
		return
	}
	m.MutationsFailed.WithLabelValues(op).Inc()
}

func (m *Metrics) LedgerSize(assets, projects int) {
	if m == nil {
		return
	}
	m.Assets.Set(float64(assets))
	m.Projects.Set(float64(projects))
}

func (m *Metrics) ObserveValue(v float64) {
	if m == nil {
		return
	}
	m.PortfolioValue.Set(v)
}

func (m *Metrics) RefreshResult(result string) {
	if m == nil {
		return
	}
	m.RefreshRuns.WithLabelValues(result).Inc()
}

func (m *Metrics) OracleRequest(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.OracleDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Metrics) QuotesMatched(n int) {
	if m == nil {
		return
	}
	m.QuotesApplied.Add(float64(n))
}

func (m *Metrics) PersistResult(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.PersistWrites.WithLabelValues(result).Inc()
	m.PersistDuration.Observe(d.Seconds())
}

func (m *Metrics) SnapshotCaptured() {
	if m == nil {
		return
	}
	m.SnapshotsCaptured.Inc()
}

func (m *Metrics) EventPublished(result string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(result).Inc()
}

func (m *Metrics) HTTPRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}
