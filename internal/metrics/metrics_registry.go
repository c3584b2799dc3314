package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "logrelay"

// Registry owns the relay's collectors. A nil *Registry is valid and
// records nothing, so components can be built without metrics.
type Registry struct {
	reg *prometheus.Registry

	events      *prometheus.CounterVec
	attribution *prometheus.CounterVec
	sends       *prometheus.CounterVec
	sendLatency prometheus.Histogram
	configWrite *prometheus.CounterVec
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Registry{
		reg: reg,
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Gateway events handled, by kind and outcome.",
		}, []string{"kind", "status", "reason"}),
		attribution: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attribution_total",
			Help:      "Audit log attribution lookups, by action and result.",
		}, []string{"action", "result"}),
		sends: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification sends, by result.",
		}, []string{"result"}),
		sendLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notification_send_seconds",
			Help:      "Time spent sending one notification, retries included.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		configWrite: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_writes_total",
			Help:      "Channel configuration writes, by persistence result.",
		}, []string{"result"}),
	}
}

// Gatherer exposes the underlying registry for the HTTP handler and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.reg
}

// RegisterGauge adds a gauge read from fn at scrape time.
func (r *Registry) RegisterGauge(name, help string, fn func() float64) {
	if r == nil {
		return
	}
	promauto.With(r.reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn)
}

func (r *Registry) ObserveEvent(kind, status, reason string) {
	if r == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	r.events.WithLabelValues(kind, status, reason).Inc()
}

func (r *Registry) ObserveAttribution(action, result string) {
	if r == nil {
		return
	}
	r.attribution.WithLabelValues(action, result).Inc()
}

func (r *Registry) ObserveSend(err error, took time.Duration) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.sends.WithLabelValues(result).Inc()
	r.sendLatency.Observe(took.Seconds())
}

func (r *Registry) ObserveConfigWrite(persisted bool) {
	if r == nil {
		return
	}
	result := "persisted"
	if !persisted {
		result = "memory_only"
	}
	r.configWrite.WithLabelValues(result).Inc()
}
