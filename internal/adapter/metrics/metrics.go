package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gitlab.com/renderfarm.net/internal/tcp/defs"
)

var (
	// MessagesReceived counts decoded inbound messages by type
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderfarm_messages_received_total",
			Help: "Total number of messages received from clients",
		},
		[]string{"type"},
	)

	// MessagesDispatched counts messages queued on a client connection
	MessagesDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderfarm_messages_dispatched_total",
			Help: "Total number of outbound messages queued for delivery",
		},
		[]string{"type"},
	)

	// DispatchFailures counts messages that could not be delivered
	DispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderfarm_dispatch_failures_total",
			Help: "Total number of outbound messages that failed to send",
		},
		[]string{"type", "reason"},
	)

	// ConnectionsActive tracks open client connections
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "renderfarm_connections_active",
			Help: "Number of open client connections",
		},
	)

	// RendersOnline tracks renders currently online
	RendersOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "renderfarm_renders_online",
			Help: "Number of renders currently online",
		},
	)

	// RenderTransitions counts render lifecycle transitions
	RenderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderfarm_render_transitions_total",
			Help: "Total number of render lifecycle transitions",
		},
		[]string{"transition"},
	)

	// MonitorEventsFlushed counts event ids delivered to monitors
	MonitorEventsFlushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderfarm_monitor_events_flushed_total",
			Help: "Total number of event ids sent to monitors",
		},
		[]string{"type"},
	)

	// PersistFailures counts dropped or failed persistence requests
	PersistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderfarm_persist_failures_total",
			Help: "Total number of persistence requests that were dropped or failed",
		},
		[]string{"reason"},
	)

	// HTTPRequests counts API requests by route and status code
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renderfarm_http_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"route", "method", "code"},
	)

	// PersistQueueDepth tracks queued persistence requests
	PersistQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "renderfarm_persist_queue_depth",
			Help: "Number of persistence requests waiting to be written",
		},
	)
)

// RecordMessageReceived records an inbound message
func RecordMessageReceived(t defs.MsgType) {
	MessagesReceived.WithLabelValues(t.String()).Inc()
}

// RecordMessageDispatched records an outbound message handed to a connection
func RecordMessageDispatched(t defs.MsgType) {
	MessagesDispatched.WithLabelValues(t.String()).Inc()
}

// RecordDispatchFailure records a delivery failure
func RecordDispatchFailure(t defs.MsgType, reason string) {
	DispatchFailures.WithLabelValues(t.String(), reason).Inc()
}

func RecordConnectionOpened() { ConnectionsActive.Inc() }
func RecordConnectionClosed() { ConnectionsActive.Dec() }

// SetRendersOnline sets the online renders gauge
func SetRendersOnline(n int) { RendersOnline.Set(float64(n)) }

// RecordRenderTransitions adds n transitions of one kind
func RecordRenderTransitions(transition string, n int) {
	if n > 0 {
		RenderTransitions.WithLabelValues(transition).Add(float64(n))
	}
}

// RecordEventsFlushed records event ids sent in one monitor message
func RecordEventsFlushed(t defs.MsgType, count int) {
	MonitorEventsFlushed.WithLabelValues(t.String()).Add(float64(count))
}

// RecordPersistFailure records a dropped or failed persistence request
func RecordPersistFailure(reason string) {
	PersistFailures.WithLabelValues(reason).Inc()
}

func SetPersistQueueDepth(n int) { PersistQueueDepth.Set(float64(n)) }

// RecordHTTPRequest records one served API request
func RecordHTTPRequest(route, method string, code int) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
}
