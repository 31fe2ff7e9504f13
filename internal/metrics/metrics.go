// Package metrics holds the prometheus collectors shared by the hub, the
// coordination engine and the persistence layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ConnectedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "threadboard_connected_clients",
			Help: "Number of websocket connections registered with the hub.",
		},
	)

	InboundEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threadboard_inbound_events_total",
			Help: "Inbound events handled, by event name.",
		},
		[]string{"event"},
	)

	RejectedFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threadboard_rejected_frames_total",
			Help: "Inbound frames discarded before dispatch, by reason.",
		},
		[]string{"reason"},
	)

	PersistFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threadboard_persist_failures_total",
			Help: "Failed writes of a persisted document, by document.",
		},
		[]string{"document"},
	)

	DroppedDeliveries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "threadboard_dropped_deliveries_total",
			Help: "Outbound frames not queued because the client buffer was full or closed.",
		},
	)
)

func init() {
	prometheus.MustRegister(ConnectedClients)
	prometheus.MustRegister(InboundEvents)
	prometheus.MustRegister(RejectedFrames)
	prometheus.MustRegister(PersistFailures)
	prometheus.MustRegister(DroppedDeliveries)
}
