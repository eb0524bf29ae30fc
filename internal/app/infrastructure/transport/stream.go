package transport

import (
	"context"
	"fmt"
	"golang.org/x/net/proxy"
	"net"
	"strconv"
	"time"
)

type Kind int

const (
	KindPlain Kind = iota
	KindTLS
	KindWebSocket
)

func (k Kind) String() string {
	switch k {
	case KindTLS:
		return "tls"
	case KindWebSocket:
		return "websocket"
	}
	return "plain"
}

// ParseKind maps a config value to a Kind. Empty means TLS.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "plain", "tcp":
		return KindPlain, nil
	case "", "tls":
		return KindTLS, nil
	case "websocket", "ws", "wss":
		return KindWebSocket, nil
	}
	return KindPlain, fmt.Errorf("unknown transport %q", s)
}

const dialTimeout = 10 * time.Second

// Stream is one byte stream to the chat server. Implementations are used by a single
// reader and a single writer at a time.
type Stream interface {
	Kind() Kind
	Secured() bool
	// Dial connects and completes any handshake. host is used for SNI and the WebSocket URL.
	Dial(ctx context.Context, host string, port int) error
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	// Shutdown ends the session gracefully without releasing the socket.
	Shutdown() error
	Close() error
}

// Dialer opens the underlying TCP connection.
type Dialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

type StreamOptions struct {
	Dialer Dialer
	TLS    TLSProvider
}

// NewStream builds an unconnected stream of the given kind.
func NewStream(kind Kind, opts StreamOptions) Stream {
	if opts.Dialer == nil {
		opts.Dialer = &net.Dialer{Timeout: dialTimeout}
	}
	if opts.TLS == nil {
		opts.TLS = DefaultTLSProvider{}
	}

	switch kind {
	case KindTLS:
		return &tlsStream{dialer: opts.Dialer, provider: opts.TLS}
	case KindWebSocket:
		return &wsStream{dialer: opts.Dialer, provider: opts.TLS}
	default:
		return &tcpStream{dialer: opts.Dialer}
	}
}

// SOCKS5Dialer routes connections through a SOCKS5 proxy at address:port.
func SOCKS5Dialer(address string, port int) (Dialer, error) {
	d, err := proxy.SOCKS5("tcp", net.JoinHostPort(address, strconv.Itoa(port)), nil, &net.Dialer{Timeout: dialTimeout})
	if err != nil {
		return nil, fmt.Errorf("socks5 dialer: %w", err)
	}

	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("socks5 dialer: %T does not support contexts", d)
	}
	return cd, nil
}
