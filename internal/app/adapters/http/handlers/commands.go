package handlers

import (
	"fmt"
	"github.com/gin-gonic/gin"
	"log/slog"
	"net/http"
	"twitchbot/internal/app/domain/access"
	"twitchbot/internal/app/domain/command"
	"twitchbot/internal/app/domain/message"
	"twitchbot/internal/app/infrastructure/config"
)

type commandView struct {
	Name          string   `json:"name"`
	Kind          string   `json:"kind"`
	Role          int      `json:"role"`
	RoleName      string   `json:"role_name"`
	WhitelistOnly bool     `json:"whitelist_only"`
	Whitelist     []string `json:"whitelist"`
	Blacklist     []string `json:"blacklist"`
}

type roleRequest struct {
	Level *int `json:"level" binding:"required"`
}

type whitelistOnlyRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type userRequest struct {
	UserName string `json:"user_name" binding:"required"`
}

func newCommandView(info command.Info) commandView {
	return commandView{
		Name:          info.Name,
		Kind:          info.Kind,
		Role:          int(info.Rule.Threshold),
		RoleName:      info.Rule.Threshold.String(),
		WhitelistOnly: info.Rule.WhitelistOnly,
		Whitelist:     nonNil(info.Rule.Whitelist),
		Blacklist:     nonNil(info.Rule.Blacklist),
	}
}

func (h *Handlers) ListCommands(c *gin.Context) {
	infos := h.commands.List()
	views := make([]commandView, 0, len(infos))
	for _, info := range infos {
		views = append(views, newCommandView(info))
	}
	c.JSON(http.StatusOK, gin.H{"commands": views})
}

func (h *Handlers) GetCommand(c *gin.Context) {
	cmd, ok := h.command(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newCommandView(command.Info{Name: cmd.Name(), Kind: cmd.Kind().String(), Rule: cmd.Access().Snapshot()}))
}

func (h *Handlers) SetRole(c *gin.Context) {
	cmd, ok := h.command(c)
	if !ok {
		return
	}

	var req roleRequest
	if !h.bind(c, &req) {
		return
	}
	role, err := message.RoleFromLevel(*req.Level)
	if err != nil {
		h.abort(c, http.StatusBadRequest, err)
		return
	}

	cmd.Access().SetRoleThreshold(role)
	h.persist(c, cmd)
}

func (h *Handlers) SetWhitelistOnly(c *gin.Context) {
	cmd, ok := h.command(c)
	if !ok {
		return
	}

	var req whitelistOnlyRequest
	if !h.bind(c, &req) {
		return
	}

	cmd.Access().SetWhitelistOnly(*req.Enabled)
	h.persist(c, cmd)
}

func (h *Handlers) AddToWhitelist(c *gin.Context) {
	h.editList(c, func(ctrl *access.Controller, user string) { ctrl.AddToWhitelist(user) })
}

func (h *Handlers) RemoveFromWhitelist(c *gin.Context) {
	h.editList(c, func(ctrl *access.Controller, user string) { ctrl.RemoveFromWhitelist(user) })
}

func (h *Handlers) AddToBlacklist(c *gin.Context) {
	h.editList(c, func(ctrl *access.Controller, user string) { ctrl.AddToBlacklist(user) })
}

func (h *Handlers) RemoveFromBlacklist(c *gin.Context) {
	h.editList(c, func(ctrl *access.Controller, user string) { ctrl.RemoveFromBlacklist(user) })
}

func (h *Handlers) editList(c *gin.Context, edit func(ctrl *access.Controller, user string)) {
	cmd, ok := h.command(c)
	if !ok {
		return
	}

	var req userRequest
	if !h.bind(c, &req) {
		return
	}

	edit(cmd.Access(), req.UserName)
	h.persist(c, cmd)
}

// persist stores the command's current rule in the config file and answers with it.
// The snapshot is taken under the config lock so the last save always holds the latest state.
// The in-memory rule stays applied even when saving fails.
func (h *Handlers) persist(c *gin.Context, cmd *command.Command) {
	var rule access.Rule
	err := h.manager.Update(func(cfg *config.Config) {
		rule = cmd.Access().Snapshot()
		if cfg.Commands.Rules == nil {
			cfg.Commands.Rules = make(map[string]*config.AccessRule)
		}
		cfg.Commands.Rules[cmd.Name()] = &config.AccessRule{
			Role:          config.Level(int(rule.Threshold)),
			WhitelistOnly: rule.WhitelistOnly,
			Whitelist:     rule.Whitelist,
			Blacklist:     rule.Blacklist,
		}
	})
	if err != nil {
		h.log.Error("Failed to save access rule", err, slog.String("command", cmd.Name()))
		h.abort(c, http.StatusInternalServerError, fmt.Errorf("rule applied but not saved: %w", err))
		return
	}

	h.log.Info("Access rule updated", slog.String("command", cmd.Name()), slog.Int("role", int(rule.Threshold)))
	c.JSON(http.StatusOK, newCommandView(command.Info{Name: cmd.Name(), Kind: cmd.Kind().String(), Rule: rule}))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
