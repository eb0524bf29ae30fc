package irc

import (
	"github.com/prometheus/client_golang/prometheus"
	"log/slog"
	"strings"
	"twitchbot/internal/app/adapters/metrics"
	"twitchbot/internal/app/domain/message"
	"twitchbot/internal/app/infrastructure/executor"
	"twitchbot/pkg/logger"
)

// Router receives chat messages for command handling.
type Router interface {
	Route(msg message.Message)
}

// Submitter runs independent work without blocking the caller.
type Submitter interface {
	TrySubmit(task func()) error
}

type replyWriter interface {
	WriteAsync(data []byte, onError func(error)) error
}

// server notices that mean the session is misconfigured or throttled
var noticeErrors = map[string]string{
	"Login authentication failed": "Login authentication to IRC failed",
	"Improperly formatted auth":   "Improperly formatted auth to IRC",
	"Your message was not sent because you are sending messages too quickly": "Rate limit to IRC exceeded",
}

// Dispatcher acts on classified messages: PING is answered, chat goes to the router,
// everything else is logged.
type Dispatcher struct {
	log    logger.Logger
	pool   Submitter
	swap   *executor.Lane
	router Router

	// conn is only read and replaced on the swap lane.
	conn replyWriter
}

func NewDispatcher(log logger.Logger, pool Submitter, swap *executor.Lane, router Router) *Dispatcher {
	return &Dispatcher{
		log:    log,
		pool:   pool,
		swap:   swap,
		router: router,
	}
}

// Rebind replaces the connection used for replies. It must run on the swap lane.
func (d *Dispatcher) Rebind(conn replyWriter) {
	d.conn = conn
}

func (d *Dispatcher) Handle(msgs []message.Message) {
	for _, msg := range msgs {
		metrics.MessagesReceived.With(prometheus.Labels{"type": msg.Type().String()}).Inc()

		switch msg.Type() {
		case message.Ping:
			d.pong(msg.Content())
		case message.PrivMsg:
			d.route(msg)
		case message.Unknown:
			d.logUnknown(msg.Content())
		case message.Empty:
		default:
			d.log.Debug("Message", slog.String("type", msg.Type().String()), slog.String("content", msg.Content()))
		}
	}
}

func (d *Dispatcher) pong(payload string) {
	data := []byte(cmdPong + payload + "\r\n")

	d.swap.Post(func() {
		if d.conn == nil {
			d.log.Warn("PONG dropped: no connection bound")
			return
		}
		if err := d.conn.WriteAsync(data, nil); err != nil {
			d.log.Error("Failed to send PONG", err)
		}
	})
}

func (d *Dispatcher) route(msg message.Message) {
	if d.router == nil {
		d.log.Debug("Chat message without router", slog.String("content", msg.Content()))
		return
	}

	if err := d.pool.TrySubmit(func() { d.router.Route(msg) }); err != nil {
		d.log.Warn("Chat message dropped", slog.String("error", err.Error()))
	}
}

func (d *Dispatcher) logUnknown(line string) {
	for needle, text := range noticeErrors {
		if strings.Contains(line, needle) {
			d.log.Error(text, nil, slog.String("line", line))
			return
		}
	}
	d.log.Trace("Unclassified line", slog.String("line", line))
}
