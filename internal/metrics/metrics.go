// Package metrics holds the Prometheus collectors shared by the dispatcher
// and the connection manager.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "bobba"

// Dispatch results recorded in FramesDispatched.
const (
	ResultHandled      = "handled"
	ResultUnroutable   = "unroutable"
	ResultDecodeError  = "decode_error"
	ResultHandlerError = "handler_error"
)

// Metrics is the set of protocol-layer collectors.
type Metrics struct {
	FramesReceived   prometheus.Counter
	FramesDispatched *prometheus.CounterVec
	HandlerDuration  *prometheus.HistogramVec
	MessagesSent     *prometheus.CounterVec
	MessagesDropped  prometheus.Counter
	ConnectionState  prometheus.Gauge
}

// New registers the collectors on reg. A nil reg registers nowhere, which
// keeps tests and embedded uses free of global state.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "frames_received_total",
			Help:      "Total number of raw frames read from the transport",
		}),
		FramesDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "frames_dispatched_total",
			Help:      "Total number of frames routed, by opcode and result",
		}, []string{"opcode", "result"}),
		HandlerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "handler_duration_seconds",
			Help:      "Time spent inside message handlers",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"opcode"}),
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "messages_sent_total",
			Help:      "Total number of outgoing messages written, by opcode",
		}, []string{"opcode"}),
		MessagesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "messages_dropped_total",
			Help:      "Outgoing messages dropped because the connection was not open",
		}),
		ConnectionState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "connection_state",
			Help:      "Connection state: 0 disconnected, 1 connecting, 2 connected",
		}),
	}
}
