package app

import (
	"context"
	"errors"
	"fmt"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	"twitchbot/internal/app/adapters/http"
	"twitchbot/internal/app/adapters/message/admin"
	"twitchbot/internal/app/adapters/metrics"
	"twitchbot/internal/app/adapters/platform/twitch/irc"
	"twitchbot/internal/app/domain/command"
	"twitchbot/internal/app/domain/message"
	"twitchbot/internal/app/infrastructure/config"
	"twitchbot/internal/app/infrastructure/executor"
	"twitchbot/internal/app/infrastructure/transport"
	"twitchbot/pkg/logger"
)

// New loads the config at configPath, connects the bot and serves the admin API until SIGINT or SIGTERM.
func New(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	manager, err := config.New(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := manager.Get()

	log := logger.NewWithOptions(logger.Options{FilePath: cfg.App.LogFile, Stdout: os.Stdout})
	log.SetLogLevel(cfg.App.LogLevel)

	if err := prometheus.Register(metrics.MessageProcessingTime); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return fmt.Errorf("register metrics: %w", err)
		}
	}

	kind, err := transport.ParseKind(cfg.IRC.Transport)
	if err != nil {
		return err
	}

	streamOpts := transport.StreamOptions{
		TLS: &transport.DefaultTLSProvider{CAFile: cfg.IRC.CAFile},
	}
	if cfg.Proxy != nil && cfg.Proxy.Address != "" && cfg.Proxy.Port != 0 {
		dialer, err := transport.SOCKS5Dialer(cfg.Proxy.Address, cfg.Proxy.Port)
		if err != nil {
			return err
		}
		streamOpts.Dialer = dialer
		log.Info("Using SOCKS5 proxy", slog.String("address", cfg.Proxy.Address), slog.Int("port", cfg.Proxy.Port))
	}

	pool := executor.NewPool(logger.NewPrefixedLogger(log, "pool"), cfg.IRC.Workers, cfg.IRC.QueueSize)
	defer pool.Stop()

	routerOpts := []command.Option{command.WithTrigger([]rune(cfg.Commands.Trigger)[0])}
	if cfg.Commands.Cooldown.Requests > 0 {
		routerOpts = append(routerOpts, command.WithCooldown(cfg.Commands.Cooldown.Requests, cfg.Commands.Cooldown.Per))
	}
	commands := command.NewRouter(logger.NewPrefixedLogger(log, "commands"), pool, routerOpts...)

	sayEvery := cfg.Limiter.Per
	if cfg.Limiter.Requests > 0 {
		sayEvery = cfg.Limiter.Per / time.Duration(cfg.Limiter.Requests)
	}
	client := irc.New(logger.NewPrefixedLogger(log, "irc"), pool, commands, irc.Options{
		Host:           cfg.IRC.Host,
		Port:           cfg.IRC.Port,
		Kind:           kind,
		Auth:           message.NewAuthorizationData(cfg.IRC.Nick, cfg.IRC.OAuth),
		Channels:       cfg.IRC.Channels,
		ReconnectDelay: cfg.IRC.ReconnectDelay,
		ReadBufferSize: cfg.IRC.ReadBufferSize,
		StreamOptions:  streamOpts,
		SayEvery:       sayEvery,
		SayBurst:       cfg.Limiter.Requests,
	})
	defer client.Close()

	rules, err := admin.Rules(cfg.Commands.Rules)
	if err != nil {
		return err
	}
	for name := range rules {
		if !admin.Builtin(name) {
			log.Warn("Access rule for unknown command ignored", slog.String("command", name))
		}
	}
	if err := admin.New(ctx, logger.NewPrefixedLogger(log, "admin"), client).Register(commands, rules); err != nil {
		return err
	}

	if err := client.Connect(ctx); err != nil {
		log.Error("Error connecting to chat", err)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if cfg.App.AuthToken == "" {
			log.Warn("Admin API disabled: app.auth_token is empty")
		}
		return http.NewRouter(logger.NewPrefixedLogger(log, "http"), manager, commands, client).Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		client.Close()
		return nil
	})

	log.Info("Chatbot started", slog.String("nick", cfg.IRC.Nick), slog.Any("channels", cfg.IRC.Channels))
	if err := g.Wait(); err != nil {
		log.Error("Chatbot stopped with error", err)
		return err
	}
	log.Info("Chatbot stopped")
	return nil
}
