package admin

import (
	"github.com/prometheus/client_golang/prometheus"
	"log/slog"
	"twitchbot/internal/app/adapters/metrics"
	"twitchbot/internal/app/domain/command"
)

func (a *Admin) handleChatLog(inv command.Invocation) {
	a.log.Debug("Chat",
		slog.String("channel", inv.Channel),
		slog.String("user", inv.User),
		slog.String("role", inv.Role.String()),
		slog.String("text", inv.Args),
	)
}

func handleStats(inv command.Invocation) {
	metrics.ChatMessages.With(prometheus.Labels{"channel": inv.Channel}).Inc()
}
