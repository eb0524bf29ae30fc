package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"twitchbot/internal/app/domain/access"
	"twitchbot/internal/app/domain/command"
	"twitchbot/internal/app/domain/message"
	"twitchbot/internal/app/ports"
	"twitchbot/pkg/logger"
)

const (
	CmdPing     = "ping"
	CmdSay      = "say"
	ModeChatLog = "chatlog"
	ModeStats   = "stats"
)

const replyTimeout = 10 * time.Second

// DefaultRules are used for built-ins that have no rule in the config.
var DefaultRules = map[string]access.Rule{
	CmdPing:     {Threshold: message.RoleModerator},
	CmdSay:      {Threshold: message.RoleBroadcaster},
	ModeChatLog: {Threshold: message.RoleEmpty},
	ModeStats:   {Threshold: message.RoleEmpty},
}

type Registrar interface {
	AddCommand(name string, action command.Action, ctrl *access.Controller) (*command.Command, error)
	AddMode(name string, action command.Action, ctrl *access.Controller) (*command.Command, error)
}

// Admin owns the commands the bot ships with.
type Admin struct {
	ctx  context.Context
	log  logger.Logger
	chat ports.ChatPort

	ping *Ping
}

func New(ctx context.Context, log logger.Logger, chat ports.ChatPort) *Admin {
	return &Admin{
		ctx:  ctx,
		log:  log,
		chat: chat,
		ping: NewPing(),
	}
}

// Register adds every built-in to r. rules override DefaultRules per name.
func (a *Admin) Register(r Registrar, rules map[string]access.Rule) error {
	rule := func(name string) *access.Controller {
		if rr, ok := rules[name]; ok {
			return access.NewFromRule(rr)
		}
		return access.NewFromRule(DefaultRules[name])
	}

	if _, err := r.AddCommand(CmdPing, a.handlePing, rule(CmdPing)); err != nil {
		return fmt.Errorf("register %s: %w", CmdPing, err)
	}
	if _, err := r.AddCommand(CmdSay, a.handleSay, rule(CmdSay)); err != nil {
		return fmt.Errorf("register %s: %w", CmdSay, err)
	}
	if _, err := r.AddMode(ModeChatLog, a.handleChatLog, rule(ModeChatLog)); err != nil {
		return fmt.Errorf("register %s: %w", ModeChatLog, err)
	}
	if _, err := r.AddMode(ModeStats, handleStats, rule(ModeStats)); err != nil {
		return fmt.Errorf("register %s: %w", ModeStats, err)
	}
	return nil
}

// Builtin reports whether name is one of the commands registered by Register.
func Builtin(name string) bool {
	_, ok := DefaultRules[name]
	return ok
}

func (a *Admin) reply(inv command.Invocation, text string) {
	ctx, cancel := context.WithTimeout(a.ctx, replyTimeout)
	defer cancel()

	if err := a.chat.Say(ctx, inv.Channel, text); err != nil {
		a.log.Warn("Failed to send reply",
			slog.String("command", inv.Command),
			slog.String("channel", inv.Channel),
			slog.String("error", err.Error()),
		)
	}
}
