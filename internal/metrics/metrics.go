// Package metrics exposes the server's Prometheus instrumentation and
// a gopsutil-backed system resource sampler. Consolidated from the
// teacher's five-file metrics split (metrics.go, system.go,
// interface.go, simple_metrics.go, enhanced.go) into one type exposing
// exactly the counters this domain needs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the single Prometheus instrumentation surface shared by
// every component. Grounded on the teacher's internal/metrics/metrics.go
// promauto construction pattern, narrowed to this server's own counters.
type Metrics struct {
	clientsActive        prometheus.Gauge
	clientsAccepted      prometheus.Counter
	clientsEvicted       prometheus.Counter
	clientsDisconnected  prometheus.Counter

	subscriptionsActive *prometheus.GaugeVec

	quotesGenerated prometheus.Counter
	quotesSent      prometheus.Counter
	quotesDropped   prometheus.Counter

	heartbeatsReceived prometheus.Counter

	commandsTotal *prometheus.CounterVec
	commandErrors *prometheus.CounterVec

	reaperEvictions prometheus.Counter
	reaperSweeps    prometheus.Counter

	emitterSendsTotal      *prometheus.CounterVec
	emitterSendErrorsTotal *prometheus.CounterVec

	goroutines prometheus.Gauge
	heapBytes  prometheus.Gauge
	cpuPercent prometheus.Gauge
}

// New registers and returns the server's metrics. Call once at startup.
func New() *Metrics {
	return &Metrics{
		clientsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "quoteserver_clients_active",
			Help: "Number of control-channel connections currently open.",
		}),
		clientsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quoteserver_clients_accepted_total",
			Help: "Total control-channel connections accepted.",
		}),
		clientsEvicted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quoteserver_clients_evicted_total",
			Help: "Total clients evicted by the reaper for heartbeat timeout.",
		}),
		clientsDisconnected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quoteserver_clients_disconnected_total",
			Help: "Total clients that disconnected their control connection.",
		}),
		subscriptionsActive: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "quoteserver_subscriptions_active",
			Help: "Active subscriptions per ticker.",
		}, []string{"ticker"}),
		quotesGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quoteserver_quotes_generated_total",
			Help: "Total quotes generated across all tickers.",
		}),
		quotesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quoteserver_quotes_sent_total",
			Help: "Total quotes enqueued to a subscriber (including those later overwritten by drop-oldest).",
		}),
		quotesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quoteserver_quotes_dropped_total",
			Help: "Total quotes dropped from a full subscription queue.",
		}),
		heartbeatsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quoteserver_heartbeats_received_total",
			Help: "Total PING datagrams received on the heartbeat port.",
		}),
		commandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quoteserver_commands_total",
			Help: "Control-channel commands received, by verb.",
		}, []string{"verb"}),
		commandErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quoteserver_command_errors_total",
			Help: "Control-channel commands rejected, by reason.",
		}, []string{"reason"}),
		reaperEvictions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quoteserver_reaper_evictions_total",
			Help: "Total clients evicted across all reaper sweeps.",
		}),
		reaperSweeps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quoteserver_reaper_sweeps_total",
			Help: "Total reaper sweep cycles run.",
		}),
		emitterSendsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quoteserver_emitter_sends_total",
			Help: "Total UDP datagram send attempts, by ticker.",
		}, []string{"ticker"}),
		emitterSendErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quoteserver_emitter_send_errors_total",
			Help: "Total UDP datagram send failures, by ticker.",
		}, []string{"ticker"}),
		goroutines: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "quoteserver_goroutines",
			Help: "Current goroutine count.",
		}),
		heapBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "quoteserver_heap_bytes",
			Help: "Current heap allocation in bytes.",
		}),
		cpuPercent: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "quoteserver_cpu_percent",
			Help: "Smoothed system-wide CPU usage percentage.",
		}),
	}
}

func (m *Metrics) ClientAccepted() { m.clientsAccepted.Inc(); m.clientsActive.Inc() }
func (m *Metrics) ClientDisconnected() {
	m.clientsDisconnected.Inc()
	m.clientsActive.Dec()
}
func (m *Metrics) ClientEvicted() {
	m.clientsEvicted.Inc()
}

func (m *Metrics) SetSubscribers(ticker string, n int) {
	m.subscriptionsActive.WithLabelValues(ticker).Set(float64(n))
}

// ObserveTick implements quote.GeneratorStats.
func (m *Metrics) ObserveTick(generated, sent, dropped int) {
	m.quotesGenerated.Add(float64(generated))
	m.quotesSent.Add(float64(sent))
	m.quotesDropped.Add(float64(dropped))
}

// ObserveSend implements emitter.Stats.
func (m *Metrics) ObserveSend(ticker string, ok bool) {
	m.emitterSendsTotal.WithLabelValues(ticker).Inc()
	if !ok {
		m.emitterSendErrorsTotal.WithLabelValues(ticker).Inc()
	}
}

func (m *Metrics) HeartbeatReceived() { m.heartbeatsReceived.Inc() }

func (m *Metrics) CommandReceived(verb string) { m.commandsTotal.WithLabelValues(verb).Inc() }

func (m *Metrics) CommandRejected(reason string) { m.commandErrors.WithLabelValues(reason).Inc() }

// ObserveSweep implements client.ReaperStats.
func (m *Metrics) ObserveSweep(evicted int) {
	m.reaperSweeps.Inc()
	m.reaperEvictions.Add(float64(evicted))
}

func (m *Metrics) SetResourceUsage(goroutines int, heapBytes uint64, cpuPct float64) {
	m.goroutines.Set(float64(goroutines))
	m.heapBytes.Set(float64(heapBytes))
	m.cpuPercent.Set(cpuPct)
}
