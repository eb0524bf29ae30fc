package handlers

import (
	"errors"
	"github.com/gin-gonic/gin"
	"log/slog"
	"net/http"
	"time"
	"twitchbot/internal/app/adapters/platform/twitch/irc"
	"twitchbot/internal/app/infrastructure/config"
)

type channelRequest struct {
	Channel string `json:"channel" binding:"required"`
}

type reconnectTimeoutRequest struct {
	Seconds int `json:"seconds" binding:"required,gt=0"`
}

func (h *Handlers) Join(c *gin.Context) {
	var req channelRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.chat.Join(req.Channel); err != nil {
		h.chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": h.chat.JoinedChannels()})
}

func (h *Handlers) Part(c *gin.Context) {
	var req channelRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.chat.Part(req.Channel); err != nil {
		h.chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": h.chat.JoinedChannels()})
}

func (h *Handlers) GetReconnectTimeout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"seconds": int(h.chat.ReconnectDelay() / time.Second)})
}

func (h *Handlers) SetReconnectTimeout(c *gin.Context) {
	var req reconnectTimeoutRequest
	if !h.bind(c, &req) {
		return
	}

	delay := time.Duration(req.Seconds) * time.Second
	h.chat.SetReconnectDelay(delay)

	if err := h.manager.Update(func(cfg *config.Config) {
		cfg.IRC.ReconnectDelay = delay
	}); err != nil {
		h.log.Error("Failed to save reconnect delay", err)
		h.abort(c, http.StatusInternalServerError, err)
		return
	}

	h.log.Info("Reconnect delay updated", slog.Duration("delay", delay))
	c.JSON(http.StatusOK, gin.H{"seconds": req.Seconds})
}

func (h *Handlers) chatError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, irc.ErrEmptyChannel) {
		status = http.StatusBadRequest
	}
	h.abort(c, status, err)
}
