package transport

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"twitchbot/internal/app/adapters/metrics"
	"twitchbot/internal/app/infrastructure/executor"
	"twitchbot/pkg/logger"
)

const DefaultReadBufferSize = 4096

var (
	ErrWriteWithoutConnection = errors.New("transport: write on a disconnected stream")
	ErrReadWithoutConnection  = errors.New("transport: read on a disconnected stream")
	ErrReadInProgress         = errors.New("transport: a read is already armed")
)

// Lanes are the serialized queues a Connection runs its I/O completions on.
// They outlive connections: a replacement connection reuses the same lanes.
type Lanes struct {
	Read  *executor.Lane
	Write *executor.Lane
}

// Connection owns one Stream for its whole life. It is never reconnected; the owner builds
// a new one instead.
type Connection struct {
	id     uuid.UUID
	log    logger.Logger
	stream Stream
	lanes  Lanes

	bufSize int

	connected atomic.Bool
	closed    atomic.Bool
	reading   atomic.Bool
	// reconnect is raised by any transport error and consumed by IsReconnectRequired.
	reconnect atomic.Bool
}

func NewConnection(log logger.Logger, stream Stream, lanes Lanes, readBufferSize int) *Connection {
	if readBufferSize <= 0 {
		readBufferSize = DefaultReadBufferSize
	}

	id := uuid.New()
	connLog := logger.NewPrefixedLogger(log, "conn "+id.String()[:8]).
		With(slog.String("connection", id.String()), slog.String("transport", stream.Kind().String()))

	return &Connection{
		id:      id,
		log:     connLog,
		stream:  stream,
		lanes:   lanes,
		bufSize: readBufferSize,
	}
}

func (c *Connection) ID() string {
	return c.id.String()
}

func (c *Connection) Kind() Kind {
	return c.stream.Kind()
}

func (c *Connection) IsSecured() bool {
	return c.stream.Secured()
}

func (c *Connection) IsConnected() bool {
	return c.connected.Load()
}

// IsReconnectRequired reports a pending transport failure and clears it, so each failure
// is observed exactly once.
func (c *Connection) IsReconnectRequired() bool {
	return c.reconnect.CompareAndSwap(true, false)
}

func (c *Connection) Connect(ctx context.Context, host string, port int) error {
	if c.closed.Load() {
		return fmt.Errorf("connect: %w", net.ErrClosed)
	}

	c.log.Debug("Connecting",
		slog.String("host", host),
		slog.Int("port", port),
		slog.String("transport", c.Kind().String()),
	)

	if err := c.stream.Dial(ctx, host, port); err != nil {
		c.log.Error("Failed to connect", err, slog.String("host", host), slog.Int("port", port))
		_ = c.stream.Close()
		return fmt.Errorf("connect %s:%d: %w", host, port, err)
	}

	c.connected.Store(true)
	metrics.Connected.Set(1)
	c.log.Info("Connected", slog.String("host", host), slog.Bool("secured", c.IsSecured()))
	return nil
}

// Read arms exactly one read. The blocking read runs on its own goroutine; handler runs on
// the read lane with the received bytes. On a read error the reconnect flag is raised and
// handler still runs so the owner can observe it.
func (c *Connection) Read(handler func([]byte)) error {
	if !c.connected.Load() {
		return ErrReadWithoutConnection
	}
	if !c.reading.CompareAndSwap(false, true) {
		return ErrReadInProgress
	}

	go func() {
		buf := make([]byte, c.bufSize)
		n, err := c.stream.Read(buf)
		data := buf[:n]

		c.lanes.Read.Post(func() {
			c.reading.Store(false)

			if err != nil {
				c.reconnect.Store(true)
				c.logReadError(err)
				handler(data)
				return
			}

			if n == 0 {
				c.log.Error("Zero-byte read", nil)
				if err := c.Read(handler); err != nil {
					c.log.Warn("Failed to re-arm read", slog.String("error", err.Error()))
				}
				return
			}

			metrics.Bytes.With(prometheus.Labels{"direction": "read"}).Add(float64(n))
			handler(data)
		})
	}()

	return nil
}

// Write sends data on the write lane and waits for the result.
// It must not be called from a task running on the write lane.
func (c *Connection) Write(data []byte) error {
	if !c.connected.Load() {
		return ErrWriteWithoutConnection
	}

	var err error
	c.lanes.Write.Do(func() {
		err = c.write(data)
	})
	return err
}

// WriteAsync queues data on the write lane. onError receives the write error; when nil the
// error is logged.
func (c *Connection) WriteAsync(data []byte, onError func(error)) error {
	if !c.connected.Load() {
		return ErrWriteWithoutConnection
	}

	c.lanes.Write.Post(func() {
		if err := c.write(data); err != nil {
			if onError != nil {
				onError(err)
				return
			}
			c.logWriteError(err)
		}
	})
	return nil
}

func (c *Connection) write(data []byte) error {
	if !c.connected.Load() {
		return ErrWriteWithoutConnection
	}

	n, err := c.stream.Write(data)
	metrics.Bytes.With(prometheus.Labels{"direction": "write"}).Add(float64(n))
	if err != nil {
		c.reconnect.Store(true)
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Disconnect shuts the stream down gracefully and, when closeSocket is set, releases it.
// Repeated calls are no-ops.
func (c *Connection) Disconnect(closeSocket bool) {
	if c.connected.Swap(false) {
		metrics.Connected.Set(0)
		if err := c.stream.Shutdown(); err != nil && !isClosed(err) {
			c.log.Warn("Shutdown failed", slog.String("error", err.Error()))
		}
		c.log.Info("Disconnected")
	}

	if closeSocket && c.closed.CompareAndSwap(false, true) {
		if err := c.stream.Close(); err != nil && !isClosed(err) {
			c.log.Warn("Close failed", slog.String("error", err.Error()))
		}
	}
}

func (c *Connection) logReadError(err error) {
	if isClosed(err) {
		c.log.Info("Connection closed", slog.String("reason", err.Error()))
		return
	}
	c.log.Error("Read failed", err)
}

func (c *Connection) logWriteError(err error) {
	if isClosed(err) {
		c.log.Info("Connection closed while writing", slog.String("reason", err.Error()))
		return
	}
	c.log.Error("Write failed", err)
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}
