package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connected - whether the chat connection is up (1) or not (0).
	Connected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bot_connected",
		Help: "Whether the chat connection is established (1) or not (0)",
	})

	// JoinedChannels - number of channels in the live join set.
	JoinedChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bot_joined_channels",
		Help: "Number of channels the client is currently joined to",
	})

	// Reconnects - reconnect attempts by outcome.
	Reconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_reconnects_total",
			Help: "Total number of reconnect attempts by result",
		},
		[]string{"result"},
	)

	// ReconnectSteps - completed steps of the reconnect sequence.
	ReconnectSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_reconnect_steps_total",
			Help: "Total number of completed reconnect steps",
		},
		[]string{"step"},
	)

	// MessagesReceived - classified inbound messages by type.
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_messages_received_total",
			Help: "Total number of classified inbound messages per type",
		},
		[]string{"type"},
	)

	// ChatMessages - chat lines per channel, counted by the stats mode.
	ChatMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_messages_total",
			Help: "Total number of chat messages per channel",
		},
		[]string{"channel"},
	)

	// Bytes - raw bytes moved through the transport.
	Bytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_transport_bytes_total",
			Help: "Total number of bytes read from or written to the chat connection",
		},
		[]string{"direction"},
	)

	// CommandInvocations - command and mode runs by result (ok, denied, limited, unknown).
	CommandInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_user_commands_total",
			Help: "Total number of command invocations per command and result",
		},
		[]string{"command", "result"},
	)

	// MessageProcessingTime - time spent dispatching one read batch.
	MessageProcessingTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bot_message_processing_milliseconds",
			Help:    "Time to frame, classify and dispatch one read batch",
			Buckets: prometheus.ExponentialBuckets(0.00005, 1.5, 25),
		},
	)
)

const (
	ResultOK      = "ok"
	ResultDenied  = "denied"
	ResultLimited = "limited"
	ResultUnknown = "unknown"
	ResultFailed  = "failed"
)

func Bool(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
