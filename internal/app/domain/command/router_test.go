package command

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
	"time"
	"twitchbot/internal/app/domain/access"
	"twitchbot/internal/app/domain/message"
	"twitchbot/pkg/logger"
)

type inlinePool struct{}

func (inlinePool) TrySubmit(task func()) error {
	task()
	return nil
}

type fullPool struct{}

func (fullPool) TrySubmit(func()) error {
	return errors.New("queue is full")
}

type recorder struct {
	mu    sync.Mutex
	calls []Invocation
}

func (r *recorder) action(inv Invocation) {
	r.mu.Lock()
	r.calls = append(r.calls, inv)
	r.mu.Unlock()
}

func (r *recorder) get() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Invocation(nil), r.calls...)
}

func chat(content, tags, login string) message.Message {
	return message.NewUser(message.PrivMsg, content, tags).WithLogin(login).WithChannel("#chan")
}

func TestRouter_Route(t *testing.T) {
	const modTags = "badges=moderator/1;display-name=Mod"

	tests := []struct {
		name     string
		msg      message.Message
		wantCall *Invocation
		wantArgs string
	}{
		{
			name: "command with argument",
			msg:  chat("!echo hello   world ", modTags, "mod"),
			wantCall: &Invocation{
				Command: "echo", Args: "hello   world", User: "mod", Role: message.RoleModerator, Channel: "chan",
			},
			wantArgs: "hello   world",
		},
		{
			name:     "command without argument",
			msg:      chat("!echo", modTags, "mod"),
			wantCall: &Invocation{Command: "echo", User: "mod", Role: message.RoleModerator, Channel: "chan"},
		},
		{
			name:     "name is case-insensitive",
			msg:      chat("!ECHO x", modTags, "mod"),
			wantCall: &Invocation{Command: "echo", Args: "x", User: "mod", Role: message.RoleModerator, Channel: "chan"},
			wantArgs: "x",
		},
		{
			name:     "invisible suffix stripped",
			msg:      chat("!echo x \U000E0000", modTags, "mod"),
			wantCall: &Invocation{Command: "echo", Args: "x", User: "mod", Role: message.RoleModerator, Channel: "chan"},
			wantArgs: "x",
		},
		{
			name:     "denied keeps the argument",
			msg:      chat("!echo secret", "badges=subscriber/3", "viewer"),
			wantArgs: "secret",
		},
		{
			name: "no trigger",
			msg:  chat("echo hi", modTags, "mod"),
		},
		{
			name: "unknown command",
			msg:  chat("!nope hi", modTags, "mod"),
		},
		{
			name: "trigger only",
			msg:  chat("!", modTags, "mod"),
		},
		{
			name: "non-chat message ignored",
			msg:  message.New(message.Ping, "!echo hi"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			r := NewRouter(logger.NewNop(), inlinePool{})
			cmd, err := r.AddCommand("echo", rec.action, nil)
			require.NoError(t, err)

			r.Route(tt.msg)

			calls := rec.get()
			if tt.wantCall == nil {
				assert.Empty(t, calls)
			} else {
				require.Len(t, calls, 1)
				assert.Equal(t, *tt.wantCall, calls[0])
			}
			assert.Equal(t, tt.wantArgs, cmd.LastArgs())
		})
	}
}

func TestRouter_NickFallback(t *testing.T) {
	rec := &recorder{}
	r := NewRouter(logger.NewNop(), inlinePool{})
	_, err := r.AddCommand("echo", rec.action, access.Open())
	require.NoError(t, err)

	r.Route(message.NewUser(message.PrivMsg, "!echo", "display-name=Someone"))

	calls := rec.get()
	require.Len(t, calls, 1)
	assert.Equal(t, "Someone", calls[0].User)
}

func TestRouter_Modes(t *testing.T) {
	open := &recorder{}
	modsOnly := &recorder{}
	cmd := &recorder{}

	r := NewRouter(logger.NewNop(), inlinePool{})
	_, err := r.AddMode("log", open.action, access.Open())
	require.NoError(t, err)
	_, err = r.AddMode("modlog", modsOnly.action, nil)
	require.NoError(t, err)
	_, err = r.AddCommand("echo", cmd.action, access.Open())
	require.NoError(t, err)

	r.Route(chat("!echo hi", "badges=vip/1", "v"))

	require.Len(t, open.get(), 1)
	assert.Equal(t, Invocation{Command: "log", Args: "!echo hi", User: "v", Role: message.RoleVIP, Channel: "chan"}, open.get()[0])
	assert.Empty(t, modsOnly.get())
	assert.Len(t, cmd.get(), 1)

	// modes are not reachable through the trigger
	r.Route(chat("!log x", "badges=broadcaster/1", "b"))
	assert.Len(t, open.get(), 2)
}

func TestRouter_SetTriggerChar(t *testing.T) {
	rec := &recorder{}
	r := NewRouter(logger.NewNop(), inlinePool{})
	_, err := r.AddCommand("echo", rec.action, access.Open())
	require.NoError(t, err)

	r.SetTriggerChar('?')
	r.Route(chat("!echo a", "", "u"))
	r.Route(chat("?echo b", "", "u"))

	calls := rec.get()
	require.Len(t, calls, 1)
	assert.Equal(t, "b", calls[0].Args)
}

func TestRouter_Cooldown(t *testing.T) {
	rec := &recorder{}
	r := NewRouter(logger.NewNop(), inlinePool{}, WithCooldown(1, time.Hour))
	_, err := r.AddCommand("echo", rec.action, access.Open())
	require.NoError(t, err)
	_, err = r.AddCommand("other", rec.action, access.Open())
	require.NoError(t, err)

	r.Route(chat("!echo 1", "", "u"))
	r.Route(chat("!echo 2", "", "U"))
	r.Route(chat("!echo 3", "", "someone"))
	r.Route(chat("!other 4", "", "u"))

	var args []string
	for _, c := range rec.get() {
		args = append(args, c.Args)
	}
	assert.Equal(t, []string{"1", "3", "4"}, args)
}

func TestRouter_Registration(t *testing.T) {
	r := NewRouter(logger.NewNop(), inlinePool{})
	noop := func(Invocation) {}

	_, err := r.AddCommand("", noop, nil)
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = r.AddCommand("ping", nil, nil)
	assert.Error(t, err)

	_, err = r.AddCommand("ping", noop, nil)
	require.NoError(t, err)
	_, err = r.AddMode("PING", noop, nil)
	assert.ErrorIs(t, err, ErrDuplicateCommand)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = r.AddMode("chatlog", noop, access.Open())
	require.NoError(t, err)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "chatlog", list[0].Name)
	assert.Equal(t, "mode", list[0].Kind)
	assert.Equal(t, message.RoleEmpty, list[0].Rule.Threshold)
	assert.Equal(t, "ping", list[1].Name)
	assert.Equal(t, "command", list[1].Kind)
	assert.Equal(t, access.DefaultThreshold, list[1].Rule.Threshold)
}

func TestRouter_PanickingActionIsContained(t *testing.T) {
	r := NewRouter(logger.NewNop(), inlinePool{})
	_, err := r.AddCommand("boom", func(Invocation) { panic("boom") }, access.Open())
	require.NoError(t, err)

	assert.NotPanics(t, func() { r.Route(chat("!boom", "", "u")) })
}

func TestRouter_FullPoolDrops(t *testing.T) {
	rec := &recorder{}
	r := NewRouter(logger.NewNop(), fullPool{})
	_, err := r.AddCommand("echo", rec.action, access.Open())
	require.NoError(t, err)

	r.Route(chat("!echo", "", "u"))
	assert.Empty(t, rec.get())
}
