// Package transporttest provides an in-memory transport.Stream for tests.
package transporttest

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"twitchbot/internal/app/infrastructure/transport"
)

type readResult struct {
	data []byte
	err  error
}

// Stream is a scripted transport.Stream. Inbound data is queued with Push or Fail;
// everything written is recorded.
type Stream struct {
	kind transport.Kind

	mu      sync.Mutex
	dialErr error
	dials   int
	written []string
	pending []byte
	shut    bool

	reads     chan readResult
	closed    chan struct{}
	closeOnce sync.Once
}

func New(kind transport.Kind) *Stream {
	return &Stream{
		kind:   kind,
		reads:  make(chan readResult, 64),
		closed: make(chan struct{}),
	}
}

// FailDial makes the next Dial calls return err until cleared with nil.
func (s *Stream) FailDial(err error) {
	s.mu.Lock()
	s.dialErr = err
	s.mu.Unlock()
}

// Push queues one read result carrying data.
func (s *Stream) Push(data string) {
	s.reads <- readResult{data: []byte(data)}
}

// Fail queues a read that returns err.
func (s *Stream) Fail(err error) {
	s.reads <- readResult{err: err}
}

func (s *Stream) Written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.written...)
}

// WrittenString is everything written so far, concatenated.
func (s *Stream) WrittenString() string {
	return strings.Join(s.Written(), "")
}

func (s *Stream) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

func (s *Stream) IsShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shut
}

func (s *Stream) IsClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *Stream) Kind() transport.Kind {
	return s.kind
}

func (s *Stream) Secured() bool {
	return s.kind != transport.KindPlain
}

func (s *Stream) Dial(ctx context.Context, host string, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dials++
	if s.dialErr != nil {
		return s.dialErr
	}
	return ctx.Err()
}

func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	if len(s.pending) > 0 {
		n := copy(p, s.pending)
		s.pending = s.pending[n:]
		s.mu.Unlock()
		return n, nil
	}
	s.mu.Unlock()

	select {
	case r := <-s.reads:
		if r.err != nil {
			return 0, r.err
		}
		n := copy(p, r.data)
		if n < len(r.data) {
			s.mu.Lock()
			s.pending = append(s.pending, r.data[n:]...)
			s.mu.Unlock()
		}
		return n, nil
	case <-s.closed:
		return 0, net.ErrClosed
	}
}

func (s *Stream) Write(p []byte) (int, error) {
	if s.IsClosed() {
		return 0, io.ErrClosedPipe
	}

	s.mu.Lock()
	s.written = append(s.written, string(p))
	s.mu.Unlock()
	return len(p), nil
}

func (s *Stream) Shutdown() error {
	s.mu.Lock()
	s.shut = true
	s.mu.Unlock()
	return nil
}

func (s *Stream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}
