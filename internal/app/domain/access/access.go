package access

import (
	"slices"
	"strings"
	"sync"
	"twitchbot/internal/app/domain/message"
)

// DefaultThreshold is the lowest role admitted when a rule sets none.
const DefaultThreshold = message.RoleModerator

// Rule is a plain copy of a controller's state, used for config round trips and the admin API.
type Rule struct {
	Whitelist     []string     `json:"whitelist"`
	Blacklist     []string     `json:"blacklist"`
	WhitelistOnly bool         `json:"whitelist_only"`
	Threshold     message.Role `json:"role"`
}

// Controller decides whether a user may trigger a command or mode.
// Precedence: blacklist, whitelist, whitelist-only, role threshold.
type Controller struct {
	mu            sync.RWMutex
	whitelist     map[string]struct{}
	blacklist     map[string]struct{}
	whitelistOnly bool
	threshold     message.Role
}

func New() *Controller {
	return &Controller{
		whitelist: make(map[string]struct{}),
		blacklist: make(map[string]struct{}),
		threshold: DefaultThreshold,
	}
}

// NewFromRule builds a controller already holding r.
func NewFromRule(r Rule) *Controller {
	c := New()
	c.Apply(r)
	return c
}

// Open admits every user that is not blacklisted.
func Open() *Controller {
	c := New()
	c.threshold = message.RoleEmpty
	return c
}

func (c *Controller) Verify(username string, role message.Role) bool {
	name := normalize(username)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.blacklist[name]; ok {
		return false
	}
	if _, ok := c.whitelist[name]; ok {
		return true
	}
	if c.whitelistOnly {
		return false
	}
	return role >= c.threshold
}

func (c *Controller) AddToWhitelist(username string) {
	c.mu.Lock()
	c.whitelist[normalize(username)] = struct{}{}
	c.mu.Unlock()
}

// RemoveFromWhitelist reports whether the user was listed.
func (c *Controller) RemoveFromWhitelist(username string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := normalize(username)
	_, ok := c.whitelist[name]
	delete(c.whitelist, name)
	return ok
}

func (c *Controller) AddToBlacklist(username string) {
	c.mu.Lock()
	c.blacklist[normalize(username)] = struct{}{}
	c.mu.Unlock()
}

func (c *Controller) RemoveFromBlacklist(username string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := normalize(username)
	_, ok := c.blacklist[name]
	delete(c.blacklist, name)
	return ok
}

func (c *Controller) SetRoleThreshold(role message.Role) {
	c.mu.Lock()
	c.threshold = role
	c.mu.Unlock()
}

func (c *Controller) RoleThreshold() message.Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.threshold
}

func (c *Controller) SetWhitelistOnly(enabled bool) {
	c.mu.Lock()
	c.whitelistOnly = enabled
	c.mu.Unlock()
}

func (c *Controller) WhitelistOnly() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.whitelistOnly
}

// Snapshot returns the current state with sorted user lists.
func (c *Controller) Snapshot() Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Rule{
		Whitelist:     sortedKeys(c.whitelist),
		Blacklist:     sortedKeys(c.blacklist),
		WhitelistOnly: c.whitelistOnly,
		Threshold:     c.threshold,
	}
}

// Apply replaces the whole state with r.
func (c *Controller) Apply(r Rule) {
	whitelist := make(map[string]struct{}, len(r.Whitelist))
	for _, u := range r.Whitelist {
		whitelist[normalize(u)] = struct{}{}
	}
	blacklist := make(map[string]struct{}, len(r.Blacklist))
	for _, u := range r.Blacklist {
		blacklist[normalize(u)] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.whitelist = whitelist
	c.blacklist = blacklist
	c.whitelistOnly = r.WhitelistOnly
	c.threshold = r.Threshold
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
