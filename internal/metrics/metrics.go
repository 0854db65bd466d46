package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Redirects      *prometheus.CounterVec
	ClicksRecorded prometheus.Counter
	ClickFailures  prometheus.Counter
	Tasks          *prometheus.CounterVec
	TasksDropped   *prometheus.CounterVec
	StreamEvents   *prometheus.CounterVec
}

// New creates the service metrics on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Redirects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "brandlink_redirects_total",
			Help: "Redirect requests by outcome",
		}, []string{"outcome"}),
		ClicksRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "brandlink_clicks_recorded_total",
			Help: "Clicks persisted or handed to the click stream",
		}),
		ClickFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "brandlink_click_failures_total",
			Help: "Clicks lost because the sink rejected them",
		}),
		Tasks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "brandlink_tasks_total",
			Help: "Background tasks run, by task and result",
		}, []string{"task", "result"}),
		TasksDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "brandlink_tasks_dropped_total",
			Help: "Background tasks dropped because the queue was full or closed",
		}, []string{"task"}),
		StreamEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "brandlink_stream_events_total",
			Help: "Stream messages consumed, by topic and result",
		}, []string{"topic", "result"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRedirect(outcome string) {
	m.Redirects.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ClickRecorded() {
	m.ClicksRecorded.Inc()
}

func (m *Metrics) ClickFailed() {
	m.ClickFailures.Inc()
}

func (m *Metrics) TaskFinished(name string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	m.Tasks.WithLabelValues(name, result).Inc()
}

func (m *Metrics) TaskDropped(name string) {
	m.TasksDropped.WithLabelValues(name).Inc()
}

func (m *Metrics) StreamEvent(topic, result string) {
	m.StreamEvents.WithLabelValues(topic, result).Inc()
}
