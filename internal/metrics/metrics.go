// Package metrics 客户端核心的 Prometheus 指标与调试 HTTP 接口
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "arena"

// Metrics 客户端指标
// 所有方法对 nil 接收者安全，未启用指标时可直接传 nil
type Metrics struct {
	reg prometheus.Gatherer

	reconnects      prometheus.Counter
	status          prometheus.Gauge
	latency         prometheus.Gauge
	sent            *prometheus.CounterVec
	dropped         *prometheus.CounterVec
	protocolErrors  prometheus.Counter
	snapshots       prometheus.Counter
	snapshotsDrop   prometheus.Counter
	pendingInputs   prometheus.Gauge
	qualityLevel    prometheus.Gauge
	framesPerSecond prometheus.Gauge
}

// New 在 reg 上注册所有指标
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		reg: reg,
		reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "reconnect_attempts_total",
			Help:      "Reconnect attempts scheduled after a connection failure",
		}),
		status: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "status",
			Help:      "Connection status: 0 disconnected, 1 connecting, 2 connected, 3 error",
		}),
		latency: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "latency_seconds",
			Help:      "Round trip time of the last ping",
		}),
		sent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "messages_sent_total",
			Help:      "Messages written to the connection",
		}, []string{"type"}),
		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "messages_dropped_total",
			Help:      "Outbound messages dropped",
		}, []string{"type", "reason"}),
		protocolErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "protocol_errors_total",
			Help:      "Inbound payloads that failed to decode or validate",
		}),
		snapshots: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "snapshots_applied_total",
			Help:      "Authoritative snapshots applied",
		}),
		snapshotsDrop: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "snapshots_dropped_total",
			Help:      "Snapshots dropped because the event buffer was full",
		}),
		pendingInputs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "pending_inputs",
			Help:      "Input commands not yet acknowledged by the server",
		}),
		qualityLevel: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "quality_level",
			Help:      "Render quality: 0 low, 1 medium, 2 high",
		}),
		framesPerSecond: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "fps",
			Help:      "Frames per second derived from the last quality window",
		}),
	}
}

// Gatherer 用于 /metrics
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.reg
}

func (m *Metrics) ReconnectAttempt() {
	if m != nil {
		m.reconnects.Inc()
	}
}

func (m *Metrics) SetStatus(v int) {
	if m != nil {
		m.status.Set(float64(v))
	}
}

func (m *Metrics) SetLatency(seconds float64) {
	if m != nil {
		m.latency.Set(seconds)
	}
}

func (m *Metrics) MessageSent(typ string) {
	if m != nil {
		m.sent.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) MessageDropped(typ, reason string) {
	if m != nil {
		m.dropped.WithLabelValues(typ, reason).Inc()
	}
}

func (m *Metrics) ProtocolError() {
	if m != nil {
		m.protocolErrors.Inc()
	}
}

func (m *Metrics) SnapshotApplied() {
	if m != nil {
		m.snapshots.Inc()
	}
}

func (m *Metrics) SnapshotDropped() {
	if m != nil {
		m.snapshotsDrop.Inc()
	}
}

func (m *Metrics) SetPendingInputs(n int) {
	if m != nil {
		m.pendingInputs.Set(float64(n))
	}
}

func (m *Metrics) SetQuality(level, fps int) {
	if m != nil {
		m.qualityLevel.Set(float64(level))
		m.framesPerSecond.Set(float64(fps))
	}
}
