package infra

import (
	"context"
	"net/http"

	"admission-gateway/middleware/admission/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusStats exporta as decisões como métricas Prometheus.
//
// O label route só leva rotas configuradas; todo path desconhecido aparece
// como "<unknown>" para a cardinalidade não crescer.
type PrometheusStats struct {
	registry *prometheus.Registry
	quotas   domain.QuotaTable

	decisions   *prometheus.CounterVec
	storeErrors *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	quota       *prometheus.GaugeVec
}

// NewPrometheusStats registra as métricas de admissão em registry, ou em um
// registry novo quando nil.
func NewPrometheusStats(quotas domain.QuotaTable, registry *prometheus.Registry) *PrometheusStats {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	p := &PrometheusStats{
		registry: registry,
		quotas:   quotas,
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admission",
			Name:      "decisions_total",
			Help:      "Admission decisions by route and outcome.",
		}, []string{"route", "outcome"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admission",
			Name:      "store_errors_total",
			Help:      "Admission checks that failed because the counter store was unavailable.",
		}, []string{"route"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "admission",
			Name:      "decision_duration_seconds",
			Help:      "Time spent deciding admission, store round trips included.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"outcome"}),
		quota: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "admission",
			Name:      "route_quota",
			Help:      "Configured quota per route.",
		}, []string{"route"}),
	}
	registry.MustRegister(p.decisions, p.storeErrors, p.duration, p.quota)

	for _, r := range quotas.Routes() {
		limit, _ := quotas.Limit(r)
		p.quota.WithLabelValues(string(r)).Set(float64(limit))
	}
	return p
}

func (p *PrometheusStats) Record(_ context.Context, ev domain.StatsEvent) error {
	route := string(unknownRouteBucket)
	if _, ok := p.quotas.Limit(ev.Route); ok {
		route = string(ev.Route)
	}

	if ev.Err != nil {
		p.storeErrors.WithLabelValues(route).Inc()
		p.duration.WithLabelValues("store_error").Observe(ev.Duration.Seconds())
		return nil
	}
	outcome := ev.Outcome.String()
	p.decisions.WithLabelValues(route, outcome).Inc()
	p.duration.WithLabelValues(outcome).Observe(ev.Duration.Seconds())
	return nil
}

func (p *PrometheusStats) Registry() *prometheus.Registry { return p.registry }

// Handler serve o registry no formato de exposição do Prometheus.
func (p *PrometheusStats) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
