package command

import (
	"errors"
	"fmt"
	"github.com/maypok86/otter/v2"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"twitchbot/internal/app/adapters/metrics"
	"twitchbot/internal/app/domain/access"
	"twitchbot/internal/app/domain/message"
	"twitchbot/pkg/logger"
	"unicode"
)

const (
	DefaultTrigger = '!'

	cooldownCacheSize = 10_000
)

var (
	ErrUnknownCommand   = errors.New("command: unknown command")
	ErrDuplicateCommand = errors.New("command: name already registered")
	ErrEmptyName        = errors.New("command: empty name")
)

// Submitter queues work without blocking the caller.
type Submitter interface {
	TrySubmit(task func()) error
}

type Router struct {
	log  logger.Logger
	pool Submitter

	mu       sync.RWMutex
	trigger  rune
	commands map[string]*Command
	modes    []*Command

	cooldown   *otter.Cache[string, *rate.Limiter]
	limitEvery rate.Limit
	limitBurst int
}

type Option func(*Router)

// WithCooldown allows each user at most requests invocations of one command per period.
func WithCooldown(requests int, per time.Duration) Option {
	return func(r *Router) {
		if requests <= 0 || per <= 0 {
			return
		}
		r.limitEvery = rate.Every(per)
		r.limitBurst = requests
		r.cooldown = otter.Must(&otter.Options[string, *rate.Limiter]{
			MaximumSize:      cooldownCacheSize,
			ExpiryCalculator: otter.ExpiryAccessing[string, *rate.Limiter](per * time.Duration(requests)),
		})
	}
}

func WithTrigger(ch rune) Option {
	return func(r *Router) {
		r.trigger = ch
	}
}

func NewRouter(log logger.Logger, pool Submitter, opts ...Option) *Router {
	r := &Router{
		log:      log,
		pool:     pool,
		trigger:  DefaultTrigger,
		commands: make(map[string]*Command),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) SetTriggerChar(ch rune) {
	r.mu.Lock()
	r.trigger = ch
	r.mu.Unlock()
}

func (r *Router) TriggerChar() rune {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.trigger
}

// AddCommand registers a triggered command. A nil controller gets the default moderator threshold.
func (r *Router) AddCommand(name string, action Action, ctrl *access.Controller) (*Command, error) {
	return r.add(name, KindCommand, action, ctrl)
}

// AddMode registers an action that sees every chat line.
func (r *Router) AddMode(name string, action Action, ctrl *access.Controller) (*Command, error) {
	return r.add(name, KindMode, action, ctrl)
}

func (r *Router) add(name string, kind Kind, action Action, ctrl *access.Controller) (*Command, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, ErrEmptyName
	}
	if action == nil {
		return nil, fmt.Errorf("command %q: nil action", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.commands[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCommand, key)
	}

	cmd := newCommand(key, kind, action, ctrl)
	r.commands[key] = cmd
	if kind == KindMode {
		r.modes = append(r.modes, cmd)
	}
	return cmd, nil
}

// Get looks up a command or mode by name.
func (r *Router) Get(name string) (*Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, ok := r.commands[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return cmd, nil
}

// List returns every registered command and mode sorted by name.
func (r *Router) List() []Info {
	r.mu.RLock()
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	r.mu.RUnlock()

	sort.Slice(cmds, func(i, j int) bool { return cmds[i].name < cmds[j].name })

	out := make([]Info, 0, len(cmds))
	for _, cmd := range cmds {
		out = append(out, Info{Name: cmd.name, Kind: cmd.kind.String(), Rule: cmd.access.Snapshot()})
	}
	return out
}

// Route runs the modes and the triggered command for one chat message as two independent pool tasks.
// Messages without user metadata are ignored.
func (r *Router) Route(msg message.Message) {
	role, err := msg.Role()
	if err != nil {
		r.log.Debug("Skipping non-chat message", slog.String("type", msg.Type().String()))
		return
	}

	user := msg.Login()
	if user == "" {
		if user, err = msg.Nick(); err != nil {
			r.log.Warn("Chat message without user", slog.String("content", msg.Content()))
			return
		}
	}

	inv := Invocation{
		User:    user,
		Role:    role,
		Channel: msg.Channel(),
	}
	content := message.StripInvisible(msg.Content())

	r.mu.RLock()
	hasModes := len(r.modes) > 0
	r.mu.RUnlock()

	if hasModes {
		r.submit("modes", func() { r.runModes(content, inv) })
	}
	r.submit("command", func() { r.runCommand(content, inv) })
}

func (r *Router) submit(what string, task func()) {
	if err := r.pool.TrySubmit(task); err != nil {
		r.log.Warn("Dropped chat message", slog.String("stage", what), slog.String("error", err.Error()))
	}
}

func (r *Router) runModes(content string, inv Invocation) {
	r.mu.RLock()
	modes := make([]*Command, len(r.modes))
	copy(modes, r.modes)
	r.mu.RUnlock()

	for _, mode := range modes {
		call := inv
		call.Command = mode.name
		call.Args = content
		mode.setArgs(content)

		if !mode.access.Verify(inv.User, inv.Role) {
			continue
		}
		r.invoke(mode, call)
	}
}

func (r *Router) runCommand(content string, inv Invocation) {
	trigger := r.TriggerChar()

	rest, ok := strings.CutPrefix(content, string(trigger))
	if !ok {
		return
	}

	name, args := splitCommand(rest)
	if name == "" {
		return
	}

	cmd, err := r.Get(name)
	if err != nil || cmd.kind != KindCommand {
		r.log.Debug("Unknown command", slog.String("command", name), slog.String("user", inv.User))
		metrics.CommandInvocations.With(prometheus.Labels{"command": "", "result": metrics.ResultUnknown}).Inc()
		return
	}

	cmd.setArgs(args)
	inv.Command = cmd.name
	inv.Args = args

	if !cmd.access.Verify(inv.User, inv.Role) {
		r.log.Info("Command denied",
			slog.String("command", cmd.name),
			slog.String("user", inv.User),
			slog.String("role", inv.Role.String()),
		)
		metrics.CommandInvocations.With(prometheus.Labels{"command": cmd.name, "result": metrics.ResultDenied}).Inc()
		return
	}

	if !r.allow(inv.User, cmd.name) {
		r.log.Debug("Command rate limited", slog.String("command", cmd.name), slog.String("user", inv.User))
		metrics.CommandInvocations.With(prometheus.Labels{"command": cmd.name, "result": metrics.ResultLimited}).Inc()
		return
	}

	r.invoke(cmd, inv)
}

func (r *Router) invoke(cmd *Command, inv Invocation) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("Command panicked", fmt.Errorf("%v", p), slog.String("command", cmd.name))
			metrics.CommandInvocations.With(prometheus.Labels{"command": cmd.name, "result": metrics.ResultFailed}).Inc()
		}
	}()

	cmd.action(inv)
	metrics.CommandInvocations.With(prometheus.Labels{"command": cmd.name, "result": metrics.ResultOK}).Inc()
}

func (r *Router) allow(user, command string) bool {
	if r.cooldown == nil {
		return true
	}

	key := strings.ToLower(user) + "|" + command
	lim, ok := r.cooldown.GetIfPresent(key)
	if !ok {
		lim, _ = r.cooldown.SetIfAbsent(key, rate.NewLimiter(r.limitEvery, r.limitBurst))
	}
	return lim.Allow()
}

// splitCommand cuts the name at the first whitespace; the rest, trimmed, is the argument.
func splitCommand(s string) (name, args string) {
	idx := strings.IndexFunc(s, unicode.IsSpace)
	if idx < 0 {
		return normalizeName(s), ""
	}
	return normalizeName(s[:idx]), strings.TrimSpace(s[idx:])
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
