package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strconv"
)

// TLSProvider supplies the client TLS configuration; it is called once per connect.
type TLSProvider interface {
	TLSConfig(serverName string) (*tls.Config, error)
}

// DefaultTLSProvider trusts the system roots plus an optional PEM bundle.
type DefaultTLSProvider struct {
	CAFile string
}

func (p DefaultTLSProvider) TLSConfig(serverName string) (*tls.Config, error) {
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}

	if p.CAFile != "" {
		pem, err := os.ReadFile(p.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA bundle: %w", err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("CA bundle %s has no certificates", p.CAFile)
		}
	}

	return &tls.Config{
		ServerName: serverName,
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
		// TLS 1.3 suites are not configurable and always enabled
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
		},
	}, nil
}

type tlsStream struct {
	dialer   Dialer
	provider TLSProvider
	conn     *tls.Conn
}

func (s *tlsStream) Kind() Kind    { return KindTLS }
func (s *tlsStream) Secured() bool { return true }

// Dial fails closed: a handshake or verification error closes the socket.
func (s *tlsStream) Dial(ctx context.Context, host string, port int) error {
	cfg, err := s.provider.TLSConfig(host)
	if err != nil {
		return err
	}
	if cfg.ServerName == "" {
		cfg.ServerName = host
	}

	raw, err := s.dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	conn := tls.Client(raw, cfg)
	if err := conn.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return fmt.Errorf("tls handshake: %w", err)
	}

	s.conn = conn
	return nil
}

func (s *tlsStream) Read(p []byte) (int, error) {
	if s.conn == nil {
		return 0, net.ErrClosed
	}
	return s.conn.Read(p)
}

func (s *tlsStream) Write(p []byte) (int, error) {
	if s.conn == nil {
		return 0, net.ErrClosed
	}
	return s.conn.Write(p)
}

// Shutdown sends close_notify.
func (s *tlsStream) Shutdown() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.CloseWrite()
}

func (s *tlsStream) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
