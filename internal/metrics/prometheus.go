package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exports metrics through a dedicated registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	usersCreated       prometheus.Counter
	userCreateFailures *prometheus.CounterVec
	listDuration       prometheus.Histogram
	listCache          *prometheus.CounterVec
	eventsPublished    *prometheus.CounterVec
	pageRenders        *prometheus.CounterVec
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheus registers the application collectors plus Go and process collectors.
func NewPrometheus(namespace string) *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		usersCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_created_total",
			Help:      "Number of users inserted.",
		}),
		userCreateFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "user_create_failures_total",
			Help:      "Number of rejected or failed add-user requests.",
		}, []string{"reason"}),
		listDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "user_list_duration_seconds",
			Help:      "Time spent loading the user list.",
			Buckets:   prometheus.DefBuckets,
		}),
		listCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "user_list_cache_total",
			Help:      "User list cache lookups.",
		}, []string{"result"}),
		eventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "User events sent to the event stream.",
		}, []string{"status"}),
		pageRenders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_renders_total",
			Help:      "Rendered index pages.",
		}, []string{"status"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) IncUserCreated() {
	p.usersCreated.Inc()
}

func (p *PrometheusRecorder) IncUserCreateFailed(reason string) {
	p.userCreateFailures.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) ObserveListDuration(duration time.Duration) {
	p.listDuration.Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncListCacheHit() {
	p.listCache.WithLabelValues("hit").Inc()
}

func (p *PrometheusRecorder) IncListCacheMiss() {
	p.listCache.WithLabelValues("miss").Inc()
}

func (p *PrometheusRecorder) IncEventPublished(status string) {
	p.eventsPublished.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncPageRender(status string) {
	p.pageRenders.WithLabelValues(status).Inc()
}
