package transport

import (
	"context"
	"errors"
	"fmt"
	"github.com/gorilla/websocket"
	"io"
	"net"
	"net/url"
	"strconv"
	"time"
)

const wsCloseTimeout = 5 * time.Second

// wsStream carries chat lines in WebSocket text frames. Reads flatten frames back into a byte
// stream so framing stays the framer's job.
type wsStream struct {
	dialer   Dialer
	provider TLSProvider

	conn   *websocket.Conn
	reader io.Reader
}

func (s *wsStream) Kind() Kind    { return KindWebSocket }
func (s *wsStream) Secured() bool { return true }

func (s *wsStream) Dial(ctx context.Context, host string, port int) error {
	cfg, err := s.provider.TLSConfig(host)
	if err != nil {
		return err
	}

	d := websocket.Dialer{
		NetDialContext:   s.dialer.DialContext,
		TLSClientConfig:  cfg,
		HandshakeTimeout: dialTimeout,
	}

	u := url.URL{Scheme: "wss", Host: net.JoinHostPort(host, strconv.Itoa(port))}
	conn, resp, err := d.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", u.String(), err)
	}

	s.conn = conn
	return nil
}

func (s *wsStream) Read(p []byte) (int, error) {
	if s.conn == nil {
		return 0, net.ErrClosed
	}

	for {
		if s.reader == nil {
			typ, r, err := s.conn.NextReader()
			if err != nil {
				var ce *websocket.CloseError
				if errors.As(err, &ce) {
					return 0, fmt.Errorf("%w: %s", io.EOF, ce.Error())
				}
				return 0, err
			}
			if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
				continue
			}
			s.reader = r
		}

		n, err := s.reader.Read(p)
		if errors.Is(err, io.EOF) {
			s.reader = nil
			if n == 0 {
				continue
			}
			return n, nil
		}
		return n, err
	}
}

func (s *wsStream) Write(p []byte) (int, error) {
	if s.conn == nil {
		return 0, net.ErrClosed
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Shutdown sends a normal close frame.
func (s *wsStream) Shutdown() error {
	if s.conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	return s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsCloseTimeout))
}

func (s *wsStream) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
