package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics holds the live gauges and counters relay exposes to
// Prometheus, wiring promhttp through a fasthttp adaptor the way a web
// request-count registry would; here the registry tracks the process
// fleet instead. Collector sets the four gauges; nothing in this
// repository increments SpawnTotal or ExitFanoutTotal, so both stay 0.
type Metrics struct {
	registry *prometheus.Registry

	LiveProcesses     prometheus.Gauge
	MailboxDepth      prometheus.Gauge
	SpawnTotal        prometheus.Counter
	ExitFanoutTotal   prometheus.Counter
	ReactorQueueDepth prometheus.Gauge
	AuditQueueDepth   prometheus.Gauge
}

// NewMetrics registers relay's gauges and counters on a private
// registry, so embedding a Metrics does not pollute the global
// prometheus.DefaultRegisterer.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		LiveProcesses: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relay_live_processes",
			Help: "Number of processes currently registered with the runtime.",
		}),
		MailboxDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relay_mailbox_depth_total",
			Help: "Sum of queued envelopes across all live mailboxes.",
		}),
		SpawnTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_spawn_total",
			Help: "Total number of processes spawned since runtime start.",
		}),
		ExitFanoutTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_exit_fanout_total",
			Help: "Total number of EXIT envelopes delivered across link edges.",
		}),
		ReactorQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relay_collector_reactor_queue_depth",
			Help: "Pending events in the telemetry collector's sampling reactor.",
		}),
		AuditQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relay_audit_queue_depth",
			Help: "Pending writes queued on the audit recorder's worker pool, 0 if no audit recorder is configured or it exposes no queue depth.",
		}),
	}
	reg.MustRegister(m.LiveProcesses, m.MailboxDepth, m.SpawnTotal, m.ExitFanoutTotal,
		m.ReactorQueueDepth, m.AuditQueueDepth)
	return m
}

// Handler returns a fasthttp handler serving this registry in the
// Prometheus exposition format, mounted by pkg/admin at /metrics.
func (m *Metrics) Handler() fasthttp.RequestHandler {
	stdHandler := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
	return fasthttpadaptor.NewFastHTTPHandler(stdHandler)
}
