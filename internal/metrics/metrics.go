// Package metrics exposes Prometheus counters for diagnostic sessions and CRM sync.
package metrics

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"diagnostic-lead-service/internal/domain"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	SessionsBegun     *prometheus.CounterVec
	SessionsCompleted *prometheus.CounterVec
	LeadSyncs         *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(namespace, reg)
}

// NewWithRegistry registers the collectors on reg.
func NewWithRegistry(namespace string, reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsBegun: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_begun_total",
				Help:      "Diagnostic sessions opened",
			},
			[]string{"quiz"},
		),
		SessionsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_completed_total",
				Help:      "Diagnostic sessions completed, by resulting level",
			},
			[]string{"quiz", "level"},
		),
		LeadSyncs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lead_sync_total",
				Help:      "CRM lead calls by operation and outcome",
			},
			[]string{"op", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		gatherer: reg,
	}
}

func (m *Metrics) SessionBegun(quizID string) {
	m.SessionsBegun.WithLabelValues(quizID).Inc()
}

func (m *Metrics) SessionCompleted(quizID, level string) {
	m.SessionsCompleted.WithLabelValues(quizID, level).Inc()
}

func (m *Metrics) LeadSync(op string, status domain.SyncStatus) {
	m.LeadSyncs.WithLabelValues(op, string(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware times every request, labelled by its mux route template.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.RequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
