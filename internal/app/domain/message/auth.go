package message

const (
	DefaultNick  = "justinfan12345"
	DefaultToken = "undefined"
)

// AuthorizationData is the login pair sent right after connecting.
type AuthorizationData struct {
	Nick  string
	Token string
}

func NewAuthorizationData(nick, token string) AuthorizationData {
	if nick == "" {
		nick = DefaultNick
	}
	if token == "" {
		token = DefaultToken
	}
	return AuthorizationData{Nick: nick, Token: token}
}

// AuthMessage renders PASS before NICK, both CRLF-terminated.
func (a AuthorizationData) AuthMessage() string {
	return "PASS oauth:" + a.Token + "\r\n" + "NICK " + a.Nick + "\r\n"
}
