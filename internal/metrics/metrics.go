package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	Namespace         = "goexp"
	SubsystemHTTP     = "http"
	SubsystemAnalysis = "analysis"
	SubsystemWorkbook = "workbook"
)

// Metrics records request and analysis activity. A nil *Collector is a valid
// no-op recorder so callers never need to guard.
type Metrics interface {
	GetRegistry() *prometheus.Registry
	Handler() http.Handler

	ObserveRequest(route, method, statusCode string, elapsed float64)
	IncrementAnalyses(family, kind string)
	IncrementSignificant(family, kind string)
	IncrementValidationErrors(family string)
	ObserveWorkbookSheets(outcome string, sheets int)
}

type Collector struct {
	registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	requestsTotal    *prometheus.CounterVec
	analysesTotal    *prometheus.CounterVec
	significantTotal *prometheus.CounterVec
	validationErrors *prometheus.CounterVec
	workbookSheets   *prometheus.CounterVec
}

// NewMetrics builds a collector on its own registry, with process and Go
// runtime collectors attached.
func NewMetrics() *Collector {
	m := &Collector{registry: prometheus.NewRegistry()}

	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: Namespace}))
	m.registry.MustRegister(collectors.NewGoCollector())

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: SubsystemHTTP,
		Name:      "request_duration_seconds",
		Help:      "Time to execute an API handler.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status_code"})
	m.registry.MustRegister(m.requestDuration)

	m.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: SubsystemHTTP,
		Name:      "requests_total",
		Help:      "The total number of API requests.",
	}, []string{"route", "status_code"})
	m.registry.MustRegister(m.requestsTotal)

	m.analysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: SubsystemAnalysis,
		Name:      "runs_total",
		Help:      "The total number of completed analyses.",
	}, []string{"family", "kind"})
	m.registry.MustRegister(m.analysesTotal)

	m.significantTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: SubsystemAnalysis,
		Name:      "significant_total",
		Help:      "The total number of analyses that reached significance.",
	}, []string{"family", "kind"})
	m.registry.MustRegister(m.significantTotal)

	m.validationErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: SubsystemAnalysis,
		Name:      "validation_errors_total",
		Help:      "The total number of rejected inputs.",
	}, []string{"family"})
	m.registry.MustRegister(m.validationErrors)

	m.workbookSheets = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: SubsystemWorkbook,
		Name:      "sheets_total",
		Help:      "The total number of workbook sheets evaluated, by outcome.",
	}, []string{"outcome"})
	m.registry.MustRegister(m.workbookSheets)

	return m
}

func (m *Collector) GetRegistry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the registry in the Prometheus text format.
func (m *Collector) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Collector) ObserveRequest(route, method, statusCode string, elapsed float64) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requestDuration.With(prometheus.Labels{"route": route, "method": method, "status_code": statusCode}).Observe(elapsed)
	m.requestsTotal.With(prometheus.Labels{"route": route, "status_code": statusCode}).Inc()
}

func (m *Collector) IncrementAnalyses(family, kind string) {
	if m != nil {
		m.analysesTotal.With(prometheus.Labels{"family": family, "kind": kind}).Inc()
	}
}

func (m *Collector) IncrementSignificant(family, kind string) {
	if m != nil {
		m.significantTotal.With(prometheus.Labels{"family": family, "kind": kind}).Inc()
	}
}

func (m *Collector) IncrementValidationErrors(family string) {
	if m != nil {
		m.validationErrors.With(prometheus.Labels{"family": family}).Inc()
	}
}

func (m *Collector) ObserveWorkbookSheets(outcome string, sheets int) {
	if m != nil && sheets > 0 {
		m.workbookSheets.With(prometheus.Labels{"outcome": outcome}).Add(float64(sheets))
	}
}
