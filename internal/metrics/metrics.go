// Package metrics provides Prometheus metrics for the chat service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks authenticated websocket connections.
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_active_connections",
			Help: "Number of authenticated websocket connections",
		},
	)

	// ConnectionsReplaced counts connections closed because the same user connected again.
	ConnectionsReplaced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_connections_replaced_total",
			Help: "Total number of connections displaced by a newer connection for the same user",
		},
	)

	// AuthFailures counts rejected handshakes by reason.
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_auth_failures_total",
			Help: "Total number of rejected websocket handshakes",
		},
		[]string{"reason"},
	)

	// ActiveRooms tracks conversations with at least one listener.
	ActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_active_rooms",
			Help: "Number of conversations with at least one joined connection",
		},
	)

	// CommandsTotal counts inbound commands by type and outcome.
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_commands_total",
			Help: "Total number of inbound commands processed",
		},
		[]string{"type", "outcome"},
	)

	// MessagesPersisted counts stored chat messages.
	MessagesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_persisted_total",
			Help: "Total number of chat messages stored",
		},
	)

	// SendDuration tracks the send pipeline up to fan-out.
	SendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_send_duration_seconds",
			Help:    "Duration of the message pipeline from authorization to fan-out",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// FanoutRecipients tracks how many connections each event reached.
	FanoutRecipients = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_fanout_recipients",
			Help:    "Number of connections a room event was queued for",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		},
	)

	// NotificationsCreated counts offline notification records.
	NotificationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_notifications_created_total",
			Help: "Total number of offline notification records created",
		},
	)

	// NotificationErrors counts per-recipient dispatch failures by stage.
	NotificationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_notification_errors_total",
			Help: "Total number of notification dispatch failures",
		},
		[]string{"stage"},
	)

	// Throttled counts events dropped or rejected by rate limiting.
	Throttled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_throttled_total",
			Help: "Total number of events suppressed by per-user throttling",
		},
		[]string{"type"},
	)
)

// RecordCommand increments the command counter.
func RecordCommand(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	CommandsTotal.WithLabelValues(kind, outcome).Inc()
}
