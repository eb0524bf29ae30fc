package config

import "time"

type Config struct {
	App      App      `json:"app"`
	Proxy    *Proxy   `json:"proxy"`
	IRC      IRC      `json:"irc"`
	Commands Commands `json:"commands"`
	Limiter  Limiter  `json:"limiter"` // outbound chat messages
}

type App struct {
	LogLevel  string `json:"log_level"`
	LogFile   string `json:"log_file"`
	GinMode   string `json:"gin_mode"`
	AuthToken string `json:"auth_token"` // bearer token for the admin API, empty disables it
	Addr      string `json:"addr"`
}

type Proxy struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
}

type IRC struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	Transport      string        `json:"transport"` // "tls", "plain" or "websocket"
	Nick           string        `json:"nick"`
	OAuth          string        `json:"oauth"`
	Channels       []string      `json:"channels"`
	ReconnectDelay time.Duration `json:"reconnect_delay"`
	ReadBufferSize int           `json:"read_buffer_size"`
	Workers        int           `json:"workers"`
	QueueSize      int           `json:"queue_size"`
	CAFile         string        `json:"ca_file"`
}

type Commands struct {
	Trigger  string                 `json:"trigger"`
	Cooldown Limiter                `json:"cooldown"` // per user and command
	Rules    map[string]*AccessRule `json:"rules"`
}

type AccessRule struct {
	Role          *int     `json:"role,omitempty"` // 0 everyone .. 4 broadcaster; omitted keeps the command's default
	WhitelistOnly bool     `json:"whitelist_only"`
	Whitelist     []string `json:"whitelist"`
	Blacklist     []string `json:"blacklist"`
}

type Limiter struct {
	Requests int           `json:"requests"` // requests allowed
	Per      time.Duration `json:"per"`      // per this period
}
