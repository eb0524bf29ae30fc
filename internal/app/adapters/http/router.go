package http

import (
	"context"
	"errors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"
	"net/http"
	"time"
	"twitchbot/internal/app/adapters/http/handlers"
	"twitchbot/internal/app/adapters/http/middlewares"
	"twitchbot/internal/app/infrastructure/config"
	"twitchbot/internal/app/ports"
	"twitchbot/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

type Router struct {
	router      *gin.Engine
	handlers    *handlers.Handlers
	middlewares *middlewares.Middlewares

	log     logger.Logger
	manager *config.Manager
}

func NewRouter(log logger.Logger, manager *config.Manager, commands ports.CommandRegistry, chat ports.ChatPort) *Router {
	cfg := manager.Get()
	if cfg.App.GinMode != "" {
		gin.SetMode(cfg.App.GinMode)
	}

	r := &Router{
		router:      gin.New(),
		handlers:    handlers.New(log, manager, commands, chat),
		middlewares: middlewares.New(log),
		log:         log,
		manager:     manager,
	}
	r.router.Use(gin.Recovery(), r.middlewares.Logger())

	r.router.GET("/healthz", r.handlers.Health)

	authorized := r.router.Group("/", r.middlewares.Auth(cfg.App.AuthToken))
	pprof.RouteRegister(authorized, "debug/pprof")
	authorized.GET("/metrics", gin.WrapH(promhttp.Handler()))

	cmds := authorized.Group("/commands")
	cmds.GET("", r.handlers.ListCommands)
	cmds.GET("/:name", r.handlers.GetCommand)
	cmds.PUT("/:name/role", r.handlers.SetRole)
	cmds.PUT("/:name/whitelist-only", r.handlers.SetWhitelistOnly)
	cmds.POST("/:name/whitelist", r.handlers.AddToWhitelist)
	cmds.DELETE("/:name/whitelist", r.handlers.RemoveFromWhitelist)
	cmds.POST("/:name/blacklist", r.handlers.AddToBlacklist)
	cmds.DELETE("/:name/blacklist", r.handlers.RemoveFromBlacklist)

	ircGroup := authorized.Group("/irc")
	ircGroup.POST("/join", r.handlers.Join)
	ircGroup.POST("/part", r.handlers.Part)
	ircGroup.GET("/reconnect-timeout", r.handlers.GetReconnectTimeout)
	ircGroup.PUT("/reconnect-timeout", r.handlers.SetReconnectTimeout)

	return r
}

func (r *Router) Handler() http.Handler {
	return r.router
}

// Run serves the admin API on app.addr until ctx is cancelled, then shuts the server down gracefully.
func (r *Router) Run(ctx context.Context) error {
	srv := r.newServer(r.manager.Get().App.Addr, r.router)

	errCh := make(chan error, 1)
	go func() {
		r.log.Info("Admin API listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	r.log.Info("Admin API stopped")
	return nil
}

func (r *Router) newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}
