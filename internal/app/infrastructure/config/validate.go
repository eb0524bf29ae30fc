package config

import (
	"errors"
	"fmt"
	"strings"
	"twitchbot/internal/app/infrastructure/transport"
	"unicode/utf8"
)

func (m *Manager) validate(cfg *Config) error {
	// app
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if cfg.App.LogLevel != "" && !validLevels[cfg.App.LogLevel] {
		return fmt.Errorf("app.log_level must be one of trace, debug, info, warn, error; got %s", cfg.App.LogLevel)
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if cfg.App.GinMode != "" && !validModes[cfg.App.GinMode] {
		return fmt.Errorf("app.gin_mode must be one of debug, release, test; got %s", cfg.App.GinMode)
	}

	// proxy
	if cfg.Proxy != nil && cfg.Proxy.Address != "" && (cfg.Proxy.Port <= 0 || cfg.Proxy.Port > 65535) {
		return errors.New("proxy.port must be in [1,65535]")
	}

	// irc
	if cfg.IRC.Host == "" {
		return errors.New("irc.host is required")
	}
	if cfg.IRC.Port < 0 || cfg.IRC.Port > 65535 {
		return errors.New("irc.port must be in [0,65535]")
	}
	if _, err := transport.ParseKind(cfg.IRC.Transport); err != nil {
		return fmt.Errorf("irc.transport: %w", err)
	}
	if cfg.IRC.ReconnectDelay < 0 {
		return errors.New("irc.reconnect_delay must not be negative")
	}
	if cfg.IRC.ReadBufferSize < 0 || cfg.IRC.ReadBufferSize > 1<<20 {
		return errors.New("irc.read_buffer_size must be in [0,1048576]")
	}
	if cfg.IRC.Workers < 0 || cfg.IRC.Workers > 256 {
		return errors.New("irc.workers must be in [0,256]")
	}
	if cfg.IRC.QueueSize < 0 {
		return errors.New("irc.queue_size must not be negative")
	}
	for _, ch := range cfg.IRC.Channels {
		if strings.TrimSpace(strings.TrimPrefix(ch, "#")) == "" {
			return errors.New("irc.channels must not contain empty names")
		}
	}

	// commands
	if cfg.Commands.Trigger == "" {
		cfg.Commands.Trigger = "!"
	}
	if utf8.RuneCountInString(cfg.Commands.Trigger) != 1 {
		return fmt.Errorf("commands.trigger must be a single character; got %q", cfg.Commands.Trigger)
	}
	if err := validateLimiter("commands.cooldown", cfg.Commands.Cooldown); err != nil {
		return err
	}
	if cfg.Commands.Rules == nil {
		cfg.Commands.Rules = make(map[string]*AccessRule)
	}
	for name, rule := range cfg.Commands.Rules {
		if rule == nil {
			return fmt.Errorf("commands.rules.%s is required", name)
		}
		if rule.Role != nil && (*rule.Role < RoleEveryone || *rule.Role > RoleBroadcaster) {
			return fmt.Errorf("commands.rules.%s.role must be in [0,4]", name)
		}
	}

	// limiter
	return validateLimiter("limiter", cfg.Limiter)
}

func validateLimiter(name string, l Limiter) error {
	if (l.Requests != 0 && l.Per == 0) || (l.Requests == 0 && l.Per != 0) {
		return fmt.Errorf("%s.requests and %s.per must both be set or both be zero", name, name)
	}
	if l.Requests < 0 || l.Per < 0 {
		return fmt.Errorf("%s values must not be negative", name)
	}
	return nil
}
