package message

import (
	"errors"
	"strings"
)

var (
	ErrNotUserMessage = errors.New("message: badges, role and nick exist only on PRIVMSG and USERNOTICE")
	ErrNoNick         = errors.New("message: no display-name tag and no login prefix")
)

type Type int

const (
	Unknown Type = iota
	Empty
	RoomState
	Join
	Part
	PrivMsg
	Ping
	StatusCode
	CapRes
	ClearChat
	UserNotice
)

func (t Type) String() string {
	switch t {
	case Empty:
		return "EMPTY"
	case RoomState:
		return "ROOMSTATE"
	case Join:
		return "JOIN"
	case Part:
		return "PART"
	case PrivMsg:
		return "PRIVMSG"
	case Ping:
		return "PING"
	case StatusCode:
		return "STATUSCODE"
	case CapRes:
		return "CAPRES"
	case ClearChat:
		return "CLEARCHAT"
	case UserNotice:
		return "USERNOTICE"
	}
	return "UNKNOWN"
}

// IsUser reports whether messages of this type carry badges and a role.
func (t Type) IsUser() bool {
	return t == PrivMsg || t == UserNotice
}

// Message is one classified protocol event. It is never modified after construction;
// Merge and the With* helpers return copies.
type Message struct {
	typ     Type
	content string
	badges  Badges
	role    Role
	channel string
	login   string
}

func New(t Type, content string) Message {
	return Message{typ: t, content: content}
}

// NewUser builds a PRIVMSG or USERNOTICE from its content and raw tag block, deriving the role once.
func NewUser(t Type, content, rawTags string) Message {
	m := Message{typ: t, content: content}
	if rawTags == "" {
		return m
	}

	m.badges = ParseBadges(rawTags)
	m.role = deriveRole(m.badges)
	return m
}

// Merge takes other's type and appends its content and badges.
func (m Message) Merge(other Message) Message {
	merged := Message{
		typ:     other.typ,
		content: m.content + other.content,
		badges:  m.badges.clone(),
		role:    m.role,
		channel: m.channel,
		login:   m.login,
	}
	for _, b := range other.badges {
		merged.badges = merged.badges.add(b.Name, b.Values...)
	}
	if other.role > merged.role {
		merged.role = other.role
	}
	if other.channel != "" {
		merged.channel = other.channel
	}
	if other.login != "" {
		merged.login = other.login
	}
	return merged
}

func (m Message) WithChannel(channel string) Message {
	m.channel = strings.TrimPrefix(channel, "#")
	return m
}

func (m Message) WithLogin(login string) Message {
	m.login = login
	return m
}

func (m Message) Type() Type {
	return m.typ
}

func (m Message) Content() string {
	return m.content
}

// Channel is the channel name without '#', empty when the line carried none.
func (m Message) Channel() string {
	return m.channel
}

func (m Message) Login() string {
	return m.login
}

func (m Message) Badges() (Badges, error) {
	if !m.typ.IsUser() {
		return nil, ErrNotUserMessage
	}
	return m.badges.clone(), nil
}

func (m Message) Role() (Role, error) {
	if !m.typ.IsUser() {
		return RoleEmpty, ErrNotUserMessage
	}
	return m.role, nil
}

// Nick prefers the display-name tag and falls back to the login from the line prefix.
func (m Message) Nick() (string, error) {
	if !m.typ.IsUser() {
		return "", ErrNotUserMessage
	}
	if v, ok := m.badges.First("display-name"); ok && v != "" {
		return v, nil
	}
	if m.login != "" {
		return m.login, nil
	}
	return "", ErrNoNick
}

// Color returns the user's chat color as hex digits without the leading '#'.
func (m Message) Color() string {
	v, ok := m.badges.First("color")
	if !ok || v == "" {
		return ""
	}
	return strings.TrimPrefix(v, "#")
}

func (m Message) Equal(other Message) bool {
	return m.typ == other.typ && m.content == other.content && m.badges.equal(other.badges)
}
