package irc

import (
	"strings"
	"twitchbot/internal/app/domain/message"
)

const (
	cmdPrivMsg    = "PRIVMSG"
	cmdUserNotice = "USERNOTICE"
	cmdJoin       = "JOIN"
	cmdPart       = "PART"
	cmdPing       = "PING"
	cmdPong       = "PONG"
	cmdRoomState  = "ROOMSTATE"
	cmdCap        = "CAP"
	cmdClearChat  = "CLEARCHAT"
)

// Classify turns one framed line into a Message. Token positions overlap between
// message kinds, so the checks run in a fixed order and the first match wins.
func Classify(line string) message.Message {
	tokens := splitSpaces(line)
	if len(tokens) == 0 {
		return message.New(message.Empty, "")
	}

	// chat messages first: almost all traffic
	if len(tokens) >= 4 && (tokens[2] == cmdPrivMsg || tokens[2] == cmdUserNotice) {
		return classifyUser(tokens)
	}

	if len(tokens) == 3 {
		return classifyMembership(tokens, line)
	}

	if tokens[0] == cmdPing && len(tokens) >= 2 {
		raw := strings.TrimLeft(line, " ")
		return message.New(message.Ping, raw[len(cmdPing):])
	}

	base := message.New(message.Unknown, "")
	switch {
	case len(tokens) >= 3 && tokens[2] == cmdRoomState:
		return base.Merge(message.New(message.RoomState, tokens[1]))
	case len(tokens) >= 3 && isNumber(tokens[1]):
		return base.Merge(message.New(message.StatusCode, tokens[1]))
	case len(tokens) >= 4 && tokens[1] == cmdCap:
		return base.Merge(message.New(message.CapRes, line))
	case len(tokens) >= 4 && tokens[2] == cmdClearChat:
		return base.Merge(message.New(message.ClearChat, line))
	}

	return message.New(message.Unknown, line)
}

// splitSpaces splits on runs of ASCII spaces only; tabs and other Unicode spaces belong to the text.
func splitSpaces(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool { return r == ' ' })
}

func classifyUser(tokens []string) message.Message {
	typ := message.PrivMsg
	if tokens[2] == cmdUserNotice {
		typ = message.UserNotice
	}

	content := strings.Join(tokens[4:], " ")
	content = strings.TrimPrefix(content, ":")

	return message.NewUser(typ, content, tokens[0]).
		WithLogin(loginFromPrefix(tokens[1])).
		WithChannel(tokens[3])
}

func classifyMembership(tokens []string, line string) message.Message {
	var typ message.Type
	switch tokens[1] {
	case cmdJoin:
		typ = message.Join
	case cmdPart:
		typ = message.Part
	default:
		return message.New(message.Unknown, line)
	}

	return message.New(typ, tokens[2]).
		WithLogin(loginFromPrefix(tokens[0])).
		WithChannel(tokens[2])
}

// loginFromPrefix extracts nick from ":nick!user@host".
func loginFromPrefix(prefix string) string {
	prefix, ok := strings.CutPrefix(prefix, ":")
	if !ok {
		return ""
	}
	nick, _, found := strings.Cut(prefix, "!")
	if !found {
		return ""
	}
	return nick
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
