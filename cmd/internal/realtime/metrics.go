package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the realtime client's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	state      prometheus.Gauge
	dials      *prometheus.CounterVec
	reconnects prometheus.Counter
	events     *prometheus.CounterVec
	malformed  prometheus.Counter
	dropped    *prometheus.CounterVec
	handlerErr *prometheus.CounterVec
}

// NewMetrics registers the realtime collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		state: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "leadflow",
			Subsystem: "realtime",
			Name:      "connection_state",
			Help:      "0 disconnected, 1 connecting, 2 connected, 3 closing.",
		}),
		dials: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "realtime",
			Name:      "dials_total",
			Help:      "Socket dial attempts by result.",
		}, []string{"result"}),
		reconnects: f.NewCounter(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "realtime",
			Name:      "reconnects_scheduled_total",
			Help:      "Reconnects put on the backoff schedule.",
		}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Inbound events by type.",
		}, []string{"type"}),
		malformed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "realtime",
			Name:      "malformed_frames_total",
			Help:      "Inbound frames dropped because they did not decode.",
		}),
		dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "realtime",
			Name:      "dropped_sends_total",
			Help:      "Outbound frames dropped, by reason.",
		}, []string{"reason"}),
		handlerErr: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadflow",
			Subsystem: "realtime",
			Name:      "handler_failures_total",
			Help:      "Handlers that returned an error or panicked, by event type.",
		}, []string{"type"}),
	}
}

func (m *Metrics) setState(s State) {
	if m == nil {
		return
	}
	m.state.Set(float64(s))
}

func (m *Metrics) dial(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.dials.WithLabelValues("ok").Inc()
		return
	}
	m.dials.WithLabelValues("error").Inc()
}

func (m *Metrics) reconnectScheduled() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) event(typ string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventLabel(typ)).Inc()
}

func (m *Metrics) malformedFrame() {
	if m == nil {
		return
	}
	m.malformed.Inc()
}

func (m *Metrics) droppedSend(reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) handlerFailure(typ string) {
	if m == nil {
		return
	}
	m.handlerErr.WithLabelValues(eventLabel(typ)).Inc()
}
