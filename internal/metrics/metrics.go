package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for the realtime layer.
type Metrics struct {
	ActiveSessions prometheus.Gauge
	SessionsTotal  prometheus.Counter
	Events         *prometheus.CounterVec
	Broadcasts     *prometheus.CounterVec
	DroppedSends   prometheus.Counter
}

// New registers the chat collectors against reg. A nil reg falls back to the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chat_sessions_active",
			Help: "Current number of live websocket sessions.",
		}),
		SessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_sessions_total",
			Help: "Total number of websocket sessions accepted since start.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_events_total",
			Help: "Inbound envelopes by source tag.",
		}, []string{"source"}),
		Broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_broadcasts_total",
			Help: "Frames delivered to sessions by event name.",
		}, []string{"event"}),
		DroppedSends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_broadcast_drops_total",
			Help: "Frames dropped because a session send buffer was full.",
		}),
	}

	reg.MustRegister(
		m.ActiveSessions,
		m.SessionsTotal,
		m.Events,
		m.Broadcasts,
		m.DroppedSends,
	)
	return m
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
	m.SessionsTotal.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

func (m *Metrics) RecordEvent(source string) {
	if m == nil || source == "" {
		return
	}
	m.Events.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordBroadcast(event string) {
	if m == nil {
		return
	}
	m.Broadcasts.WithLabelValues(event).Inc()
}

func (m *Metrics) RecordDrop() {
	if m == nil {
		return
	}
	m.DroppedSends.Inc()
}
