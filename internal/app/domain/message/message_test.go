package message

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestAuthorizationData_AuthMessage(t *testing.T) {
	auth := NewAuthorizationData("nick123", "tok123")
	assert.Equal(t, "PASS oauth:tok123\r\nNICK nick123\r\n", auth.AuthMessage())

	anon := NewAuthorizationData("", "")
	assert.Equal(t, "PASS oauth:undefined\r\nNICK justinfan12345\r\n", anon.AuthMessage())
}

func TestParseBadges(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Badges
	}{
		{
			name: "empty",
			raw:  "",
			want: nil,
		},
		{
			name: "single group",
			raw:  "badges=moderator/1",
			want: Badges{{Name: "badges", Values: []string{"moderator/1"}}},
		},
		{
			name: "multiple values and groups",
			raw:  "name1=v1,v2;name2=v3",
			want: Badges{
				{Name: "name1", Values: []string{"v1", "v2"}},
				{Name: "name2", Values: []string{"v3"}},
			},
		},
		{
			name: "leading at sign and empty value",
			raw:  "@badge-info=;color=#FF0000;display-name=Nick",
			want: Badges{
				{Name: "badge-info", Values: []string{""}},
				{Name: "color", Values: []string{"#FF0000"}},
				{Name: "display-name", Values: []string{"Nick"}},
			},
		},
		{
			name: "whitespace kept verbatim",
			raw:  " a = b ",
			want: Badges{{Name: " a ", Values: []string{" b "}}},
		},
		{
			name: "trailing separator",
			raw:  "badges=vip/1;",
			want: Badges{{Name: "badges", Values: []string{"vip/1"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBadges(tt.raw))
		})
	}
}

func TestNewUser_Role(t *testing.T) {
	tests := []struct {
		name string
		tags string
		want Role
	}{
		{name: "moderator beats subscriber", tags: "badges=moderator/1,subscriber/12", want: RoleModerator},
		{name: "order does not matter", tags: "badges=subscriber/12,moderator/1", want: RoleModerator},
		{name: "zero value ignored", tags: "badges=subscriber/0", want: RoleEmpty},
		{name: "broadcaster", tags: "badges=broadcaster/1;display-name=Nick", want: RoleBroadcaster},
		{name: "vip", tags: "badge-info=subscriber/3;badges=vip/1,subscriber/3", want: RoleVIP},
		{name: "unknown badge", tags: "badges=glhf-pledge/1", want: RoleEmpty},
		{name: "malformed entry", tags: "badges=moderator", want: RoleEmpty},
		{name: "no badges tag", tags: "display-name=Nick", want: RoleEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewUser(PrivMsg, "hi", tt.tags)
			role, err := msg.Role()
			require.NoError(t, err)
			assert.Equal(t, tt.want, role)
		})
	}
}

func TestMessage_UserAccessorsOnOtherTypes(t *testing.T) {
	for _, typ := range []Type{Unknown, Empty, RoomState, Join, Part, Ping, StatusCode, CapRes, ClearChat} {
		msg := New(typ, "x")

		_, err := msg.Role()
		assert.ErrorIs(t, err, ErrNotUserMessage, typ.String())

		_, err = msg.Badges()
		assert.ErrorIs(t, err, ErrNotUserMessage, typ.String())

		_, err = msg.Nick()
		assert.ErrorIs(t, err, ErrNotUserMessage, typ.String())
	}

	notice := NewUser(UserNotice, "resub", "badges=subscriber/6")
	role, err := notice.Role()
	require.NoError(t, err)
	assert.Equal(t, RoleSubscriber, role)
}

func TestMessage_Nick(t *testing.T) {
	msg := NewUser(PrivMsg, "hi", "display-name=Nick").WithLogin("nick")
	nick, err := msg.Nick()
	require.NoError(t, err)
	assert.Equal(t, "Nick", nick)

	fallback := NewUser(PrivMsg, "hi", "display-name=").WithLogin("nick")
	nick, err = fallback.Nick()
	require.NoError(t, err)
	assert.Equal(t, "nick", nick)

	_, err = NewUser(PrivMsg, "hi", "").Nick()
	assert.ErrorIs(t, err, ErrNoNick)
}

func TestMessage_Merge(t *testing.T) {
	base := New(Unknown, "")
	merged := base.Merge(New(RoomState, "#chan"))

	assert.Equal(t, RoomState, merged.Type())
	assert.Equal(t, "#chan", merged.Content())
	assert.Equal(t, Unknown, base.Type(), "merge must not modify the receiver")

	user := NewUser(PrivMsg, "a", "badges=vip/1").Merge(NewUser(PrivMsg, "b", "badges=moderator/1;color=#00FF00"))
	badges, err := user.Badges()
	require.NoError(t, err)
	values, ok := badges.Get("badges")
	require.True(t, ok)
	assert.Equal(t, []string{"vip/1", "moderator/1"}, values)
	assert.Equal(t, "ab", user.Content())
	assert.Equal(t, "00FF00", user.Color())
}

func TestMessage_BadgesAreCopied(t *testing.T) {
	msg := NewUser(PrivMsg, "hi", "badges=vip/1")
	badges, err := msg.Badges()
	require.NoError(t, err)
	badges[0].Values[0] = "broadcaster/1"

	again, err := msg.Badges()
	require.NoError(t, err)
	assert.Equal(t, "vip/1", again[0].Values[0])
}

func TestRoleFromLevel(t *testing.T) {
	r, err := RoleFromLevel(3)
	require.NoError(t, err)
	assert.Equal(t, RoleModerator, r)

	_, err = RoleFromLevel(5)
	assert.Error(t, err)
	_, err = RoleFromLevel(-1)
	assert.Error(t, err)
}

func TestStripInvisible(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "!ping", want: "!ping"},
		{name: "chatterino duplicate marker", in: "!ping \U000E0000", want: "!ping"},
		{name: "zero width inside", in: "!pi\u200Bng", want: "!ping"},
		{name: "cyrillic kept", in: "привет", want: "привет"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripInvisible(tt.in))
		})
	}
}

func TestType_String(t *testing.T) {
	names := map[Type]string{
		Unknown:    "UNKNOWN",
		Empty:      "EMPTY",
		RoomState:  "ROOMSTATE",
		Join:       "JOIN",
		Part:       "PART",
		PrivMsg:    "PRIVMSG",
		Ping:       "PING",
		StatusCode: "STATUSCODE",
		CapRes:     "CAPRES",
		ClearChat:  "CLEARCHAT",
		UserNotice: "USERNOTICE",
	}

	for typ, want := range names {
		assert.Equal(t, want, typ.String())
	}
}
