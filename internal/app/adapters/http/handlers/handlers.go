package handlers

import (
	"errors"
	"github.com/gin-gonic/gin"
	"net/http"
	"twitchbot/internal/app/domain/command"
	"twitchbot/internal/app/infrastructure/config"
	"twitchbot/internal/app/ports"
	"twitchbot/pkg/logger"
)

type Handlers struct {
	log      logger.Logger
	manager  *config.Manager
	commands ports.CommandRegistry
	chat     ports.ChatPort
}

func New(log logger.Logger, manager *config.Manager, commands ports.CommandRegistry, chat ports.ChatPort) *Handlers {
	return &Handlers{
		log:      log,
		manager:  manager,
		commands: commands,
		chat:     chat,
	}
}

func (h *Handlers) abort(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// command resolves the :name path parameter, answering 404 itself when it is unknown.
func (h *Handlers) command(c *gin.Context) (*command.Command, bool) {
	cmd, err := h.commands.Get(c.Param("name"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, command.ErrUnknownCommand) {
			status = http.StatusNotFound
		}
		h.abort(c, status, err)
		return nil, false
	}
	return cmd, true
}

// bind decodes the JSON body into req, answering 400 on failure.
func (h *Handlers) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.abort(c, http.StatusBadRequest, err)
		return false
	}
	return true
}
