package middlewares

import (
	"github.com/gin-gonic/gin"
	"log/slog"
	"time"
	"twitchbot/pkg/logger"
)

type Middlewares struct {
	log logger.Logger
}

func New(log logger.Logger) *Middlewares {
	return &Middlewares{log: log}
}

// Logger replaces gin's stdout access log with the application logger.
func (m *Middlewares) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			m.log.Warn("Admin request failed", append(args, slog.String("errors", c.Errors.String()))...)
			return
		}
		m.log.Debug("Admin request", args...)
	}
}
