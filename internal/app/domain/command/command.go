package command

import (
	"sync"
	"twitchbot/internal/app/domain/access"
	"twitchbot/internal/app/domain/message"
)

type Kind int

const (
	KindCommand Kind = iota
	KindMode
)

func (k Kind) String() string {
	if k == KindMode {
		return "mode"
	}
	return "command"
}

// Invocation is what an action receives for one admitted chat line.
type Invocation struct {
	Command string
	Args    string
	User    string
	Role    message.Role
	Channel string
}

type Action func(inv Invocation)

// Command binds a name to an action behind its own access controller.
// Modes are Commands that run on every chat line; their Args is the whole line.
type Command struct {
	name   string
	kind   Kind
	action Action
	access *access.Controller

	mu       sync.Mutex
	lastArgs string
}

func newCommand(name string, kind Kind, action Action, ctrl *access.Controller) *Command {
	if ctrl == nil {
		ctrl = access.New()
	}
	return &Command{name: name, kind: kind, action: action, access: ctrl}
}

func (c *Command) Name() string {
	return c.name
}

func (c *Command) Kind() Kind {
	return c.kind
}

func (c *Command) Access() *access.Controller {
	return c.access
}

// LastArgs returns the argument of the most recent invocation, admitted or not.
func (c *Command) LastArgs() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastArgs
}

func (c *Command) setArgs(args string) {
	c.mu.Lock()
	c.lastArgs = args
	c.mu.Unlock()
}

// Info describes a registered command for listings.
type Info struct {
	Name string      `json:"name"`
	Kind string      `json:"kind"`
	Rule access.Rule `json:"rule"`
}
