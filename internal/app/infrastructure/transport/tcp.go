package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

type tcpStream struct {
	dialer Dialer
	conn   net.Conn
}

func (s *tcpStream) Kind() Kind    { return KindPlain }
func (s *tcpStream) Secured() bool { return false }

func (s *tcpStream) Dial(ctx context.Context, host string, port int) error {
	conn, err := s.dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	s.conn = conn
	return nil
}

func (s *tcpStream) Read(p []byte) (int, error) {
	if s.conn == nil {
		return 0, net.ErrClosed
	}
	return s.conn.Read(p)
}

func (s *tcpStream) Write(p []byte) (int, error) {
	if s.conn == nil {
		return 0, net.ErrClosed
	}
	return s.conn.Write(p)
}

func (s *tcpStream) Shutdown() error {
	if cw, ok := s.conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return nil
}

func (s *tcpStream) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
