package handlers

import (
	"github.com/gin-gonic/gin"
	"net/http"
)

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":      h.chat.State().String(),
		"connection": h.chat.ConnectionID(),
		"channels":   h.chat.JoinedChannels(),
	})
}
