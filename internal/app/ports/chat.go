package ports

import (
	"context"
	"time"
	"twitchbot/internal/app/adapters/platform/twitch/irc"
)

// ChatPort is the chat session as seen by the admin API and the built-in commands.
type ChatPort interface {
	State() irc.State
	ConnectionID() string
	Join(channels ...string) error
	Part(channel string) error
	JoinedChannels() []string
	Say(ctx context.Context, channel, text string) error
	ReconnectDelay() time.Duration
	SetReconnectDelay(d time.Duration)
}
