package message

import (
	"fmt"
	"strings"
)

// Role is the viewer privilege level; higher values carry more privilege.
type Role int

const (
	RoleEmpty Role = iota
	RoleSubscriber
	RoleVIP
	RoleModerator
	RoleBroadcaster
)

func (r Role) String() string {
	switch r {
	case RoleSubscriber:
		return "SUBSCRIBER"
	case RoleVIP:
		return "VIP"
	case RoleModerator:
		return "MODERATOR"
	case RoleBroadcaster:
		return "BROADCASTER"
	}
	return "EMPTY"
}

func RoleFromLevel(level int) (Role, error) {
	if level < int(RoleEmpty) || level > int(RoleBroadcaster) {
		return RoleEmpty, fmt.Errorf("role level must be in [0,4], got %d", level)
	}
	return Role(level), nil
}

var badgeRoles = map[string]Role{
	"broadcaster": RoleBroadcaster,
	"moderator":   RoleModerator,
	"vip":         RoleVIP,
	"subscriber":  RoleSubscriber,
}

// deriveRole reads "name/value" entries of the badges tag. Entries with value "0" are ignored and
// the most privileged recognised badge wins, whatever the entry order.
func deriveRole(b Badges) Role {
	entries, ok := b.Get("badges")
	if !ok {
		return RoleEmpty
	}

	role := RoleEmpty
	for _, entry := range entries {
		name, value, found := strings.Cut(entry, "/")
		if !found || value == "0" {
			continue
		}
		if r, ok := badgeRoles[name]; ok && r > role {
			role = r
			if role == RoleBroadcaster {
				break
			}
		}
	}
	return role
}
