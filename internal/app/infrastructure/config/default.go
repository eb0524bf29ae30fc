package config

import "time"

const (
	RoleEveryone    = 0
	RoleModerator   = 3
	RoleBroadcaster = 4
)

// Level returns a pointer for AccessRule.Role.
func Level(v int) *int {
	return &v
}

func (m *Manager) GetDefault() *Config {
	return &Config{
		App: App{
			LogLevel: "info",
			LogFile:  "logs/chatbot.log",
			GinMode:  "release",
			Addr:     "127.0.0.1:8080",
		},
		IRC: IRC{
			Host:           "irc.chat.twitch.tv",
			Port:           6697,
			Transport:      "tls",
			ReconnectDelay: 30 * time.Second,
			ReadBufferSize: 4096,
			Workers:        8,
			QueueSize:      1024,
		},
		Commands: Commands{
			Trigger: "!",
			Cooldown: Limiter{
				Requests: 1,
				Per:      3 * time.Second,
			},
			Rules: map[string]*AccessRule{
				"ping":    {Role: Level(RoleModerator)},
				"say":     {Role: Level(RoleBroadcaster)},
				"chatlog": {Role: Level(RoleEveryone)},
				"stats":   {Role: Level(RoleEveryone)},
			},
		},
		Limiter: Limiter{
			Requests: 20,
			Per:      30 * time.Second,
		},
	}
}
