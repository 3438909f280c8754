// Package metrics holds the Prometheus collectors for CMDU traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ieee1905"

// Drop reasons.
const (
	ReasonMalformed = "malformed"
	ReasonEmpty     = "empty"
	ReasonOversized = "oversized"
	ReasonEcho      = "echo"
)

// Send error reasons.
const (
	ReasonEncode     = "encode"
	ReasonAddress    = "address"
	ReasonWrite      = "write"
	ReasonShortWrite = "short_write"
)

// Metrics holds the CMDU traffic counters of one transport context.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	FramesSent     *prometheus.CounterVec
	FramesReceived *prometheus.CounterVec
	FramesDropped  *prometheus.CounterVec
	SendErrors     *prometheus.CounterVec
	BytesSent      prometheus.Counter
	BytesReceived  prometheus.Counter
	Fragments      prometheus.Counter
}

// New creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		FramesSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "CMDU frames transmitted",
		}, []string{"message_type"}),

		FramesReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "CMDU frames decoded and dispatched",
		}, []string{"message_type"}),

		FramesDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Inbound datagrams dropped before dispatch",
		}, []string{"reason"}),

		SendErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_errors_total",
			Help:      "CMDU sends that failed",
		}, []string{"reason"}),

		BytesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Frame bytes transmitted",
		}),

		BytesReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_received_total",
			Help:      "Datagram bytes received",
		}),

		Fragments: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragments_total",
			Help:      "Inbound frames carrying fragment fields, dispatched unassembled",
		}),
	}
}

// FrameSent records one transmitted frame of n bytes.
func (m *Metrics) FrameSent(messageType string, n int) {
	if m == nil {
		return
	}
	m.FramesSent.WithLabelValues(messageType).Inc()
	m.BytesSent.Add(float64(n))
}

// FrameReceived records one dispatched frame.
func (m *Metrics) FrameReceived(messageType string) {
	if m == nil {
		return
	}
	m.FramesReceived.WithLabelValues(messageType).Inc()
}

// DatagramReceived records n raw bytes read off the socket.
func (m *Metrics) DatagramReceived(n int) {
	if m == nil {
		return
	}
	m.BytesReceived.Add(float64(n))
}

// FrameDropped records one inbound datagram dropped for reason.
func (m *Metrics) FrameDropped(reason string) {
	if m == nil {
		return
	}
	m.FramesDropped.WithLabelValues(reason).Inc()
}

// SendFailed records one failed send.
func (m *Metrics) SendFailed(reason string) {
	if m == nil {
		return
	}
	m.SendErrors.WithLabelValues(reason).Inc()
}

// Fragment records one inbound frame with fragment fields set.
func (m *Metrics) Fragment() {
	if m == nil {
		return
	}
	m.Fragments.Inc()
}
