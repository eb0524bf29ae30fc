package irc

import (
	"context"
	"errors"
	"fmt"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"twitchbot/internal/app/adapters/metrics"
	"twitchbot/internal/app/domain/message"
	"twitchbot/internal/app/infrastructure/executor"
	"twitchbot/internal/app/infrastructure/transport"
	"twitchbot/pkg/logger"
	"unicode/utf8"
)

const (
	DefaultHost           = "irc.chat.twitch.tv"
	DefaultPlainPort      = 6667
	DefaultTLSPort        = 6697
	DefaultWebSocketHost  = "irc-ws.chat.twitch.tv"
	DefaultWebSocketPort  = 443
	DefaultReconnectDelay = 30 * time.Second

	// MaxMessageLength is Twitch's limit for one chat message.
	MaxMessageLength = 500

	capRequest     = "CAP REQ :twitch.tv/commands twitch.tv/membership twitch.tv/tags\r\n"
	connectTimeout = 15 * time.Second
)

var (
	ErrEmptyReplayBuffer = errors.New("irc: nothing recorded to replay")
	ErrAlreadyConnected  = errors.New("irc: client already connected")
	ErrClientClosed      = errors.New("irc: client closed")
	ErrNotConnected      = errors.New("irc: not connected")
	ErrMessageTooLong    = fmt.Errorf("irc: message longer than %d characters", MaxMessageLength)
	ErrEmptyChannel      = errors.New("irc: empty channel name")
)

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	}
	return "disconnected"
}

// Step is one stage of the reconnect sequence, reported in this order.
type Step int

const (
	StepConnected Step = iota
	StepDispatcherRebound
	StepFramerFlushed
	StepAuthReplayed
	StepReadArmed
	StepCapSent
	StepJoinsReplayed
)

func (s Step) String() string {
	switch s {
	case StepConnected:
		return "connected"
	case StepDispatcherRebound:
		return "dispatcher-rebound"
	case StepFramerFlushed:
		return "framer-flushed"
	case StepAuthReplayed:
		return "auth-replayed"
	case StepReadArmed:
		return "read-armed"
	case StepCapSent:
		return "cap-sent"
	case StepJoinsReplayed:
		return "joins-replayed"
	}
	return "unknown"
}

// StreamFactory builds an unconnected stream of the client's transport kind.
type StreamFactory func(kind transport.Kind) transport.Stream

type Options struct {
	Host           string
	Port           int
	Kind           transport.Kind
	Auth           message.AuthorizationData
	Channels       []string
	ReconnectDelay time.Duration
	ReadBufferSize int

	Streams       StreamFactory
	StreamOptions transport.StreamOptions

	// SayEvery and SayBurst throttle outbound chat messages; zero disables throttling.
	SayEvery time.Duration
	SayBurst int

	// OnStep observes every completed reconnect step.
	OnStep func(Step)
}

// Client keeps one chat session alive. It owns the current connection and replaces it
// wholesale when the transport fails, replaying login, capabilities and joins.
type Client struct {
	log  logger.Logger
	opts Options
	pool *executor.Pool

	readLane  *executor.Lane
	writeLane *executor.Lane
	swapLane  *executor.Lane

	framer     Framer
	dispatcher *Dispatcher

	conn  atomic.Pointer[transport.Connection]
	state atomic.Int32
	delay atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	mu         sync.Mutex
	authLine   string
	authSet    bool
	joinReplay []string
	live       map[string]struct{}
	timer      *time.Timer

	limiter *rate.Limiter
}

func New(log logger.Logger, pool *executor.Pool, router Router, opts Options) *Client {
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.Port == 0 {
		opts.Port = defaultPort(opts.Kind)
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.Streams == nil {
		streamOpts := opts.StreamOptions
		opts.Streams = func(kind transport.Kind) transport.Stream {
			return transport.NewStream(kind, streamOpts)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		log:       log,
		opts:      opts,
		pool:      pool,
		readLane:  executor.NewLane("read", pool),
		writeLane: executor.NewLane("write", pool),
		swapLane:  executor.NewLane("swap", pool),
		ctx:       ctx,
		cancel:    cancel,
		live:      make(map[string]struct{}),
		limiter:   rate.NewLimiter(rate.Inf, 0),
	}
	if opts.SayEvery > 0 && opts.SayBurst > 0 {
		c.limiter = rate.NewLimiter(rate.Every(opts.SayEvery), opts.SayBurst)
	}
	c.dispatcher = NewDispatcher(log, pool, c.swapLane, router)
	c.framer.OnOverflow = func(dropped int) {
		log.Warn("Dropped unterminated line over the size limit", slog.Int("bytes", dropped))
	}
	c.delay.Store(int64(opts.ReconnectDelay))
	c.conn.Store(c.newConnection())

	return c
}

func defaultPort(kind transport.Kind) int {
	switch kind {
	case transport.KindPlain:
		return DefaultPlainPort
	case transport.KindWebSocket:
		return DefaultWebSocketPort
	}
	return DefaultTLSPort
}

func (c *Client) newConnection() *transport.Connection {
	lanes := transport.Lanes{Read: c.readLane, Write: c.writeLane}
	return transport.NewConnection(c.log, c.opts.Streams(c.opts.Kind), lanes, c.opts.ReadBufferSize)
}

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// ConnectionID identifies the current transport connection.
func (c *Client) ConnectionID() string {
	return c.conn.Load().ID()
}

func (c *Client) ReconnectDelay() time.Duration {
	return time.Duration(c.delay.Load())
}

// SetReconnectDelay applies to reconnect timers armed after the call.
func (c *Client) SetReconnectDelay(d time.Duration) {
	if d <= 0 {
		d = DefaultReconnectDelay
	}
	c.delay.Store(int64(d))
}

// Connect logs in, starts reading and joins the configured channels.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if !c.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return ErrAlreadyConnected
	}

	var err error
	c.swapLane.Do(func() {
		if err = c.establish(ctx, c.conn.Load()); err != nil {
			c.conn.Load().Disconnect(true)
			c.conn.Store(c.newConnection())
			c.setState(StateDisconnected)
			return
		}
		c.setState(StateConnected)
	})
	if err != nil {
		c.log.Error("Failed to connect to chat", err, slog.String("host", c.opts.Host))
		return err
	}

	c.log.Info("Connected to chat", slog.String("host", c.opts.Host), slog.String("nick", c.opts.Auth.Nick))
	return nil
}

// establish runs on the swap lane.
func (c *Client) establish(ctx context.Context, conn *transport.Connection) error {
	if err := conn.Connect(ctx, c.opts.Host, c.opts.Port); err != nil {
		return err
	}
	c.dispatcher.Rebind(conn)
	c.readLane.Do(c.framer.Flush)

	if err := c.login(conn, c.opts.Auth); err != nil {
		return err
	}
	if err := c.armRead(conn); err != nil {
		return err
	}
	if err := conn.Write([]byte(capRequest)); err != nil {
		return fmt.Errorf("cap request: %w", err)
	}

	// configured channels plus any joined before the session was up
	c.mu.Lock()
	channels := append(slices.Clone(c.opts.Channels), c.joinReplay...)
	c.mu.Unlock()

	if len(channels) > 0 {
		if err := c.join(conn, channels); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) login(conn *transport.Connection, auth message.AuthorizationData) error {
	line := auth.AuthMessage()
	if err := conn.Write([]byte(line)); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	c.mu.Lock()
	c.authLine = line
	c.authSet = true
	c.mu.Unlock()
	return nil
}

func (c *Client) replayAuth(conn *transport.Connection) error {
	c.mu.Lock()
	line, ok := c.authLine, c.authSet
	c.mu.Unlock()

	if !ok {
		return ErrEmptyReplayBuffer
	}
	if err := conn.Write([]byte(line)); err != nil {
		return fmt.Errorf("replay login: %w", err)
	}
	return nil
}

func (c *Client) replayJoins(conn *transport.Connection) error {
	c.mu.Lock()
	channels := slices.Clone(c.joinReplay)
	c.mu.Unlock()

	if len(channels) == 0 {
		return ErrEmptyReplayBuffer
	}
	if err := conn.Write([]byte(joinCommand(cmdJoin, channels))); err != nil {
		return fmt.Errorf("replay joins: %w", err)
	}
	return nil
}

func (c *Client) armRead(conn *transport.Connection) error {
	if err := conn.Read(func(b []byte) { c.onRead(conn, b) }); err != nil {
		return fmt.Errorf("arm read: %w", err)
	}
	return nil
}

// onRead runs on the read lane.
func (c *Client) onRead(conn *transport.Connection, data []byte) {
	if c.conn.Load() != conn {
		// completion from a connection that has already been replaced
		return
	}

	start := time.Now()
	lines := c.framer.Feed(data)
	if len(lines) > 0 {
		msgs := make([]message.Message, 0, len(lines))
		for _, line := range lines {
			msgs = append(msgs, Classify(line))
		}
		c.dispatcher.Handle(msgs)
		metrics.MessageProcessingTime.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}

	if c.closed.Load() {
		return
	}

	if conn.IsReconnectRequired() {
		c.reconnect(conn)
		return
	}

	if err := c.armRead(conn); err != nil {
		c.log.Error("Read loop stopped", err)
		c.reconnect(conn)
	}
}

// reconnect discards old and arms the timer for a fresh connection. Calls for a
// connection that was already replaced are ignored.
func (c *Client) reconnect(old *transport.Connection) {
	c.swapLane.Post(func() {
		if c.closed.Load() || c.conn.Load() != old {
			return
		}

		c.setState(StateReconnecting)
		delay := c.ReconnectDelay()
		c.log.Warn("Connection lost, reconnecting",
			slog.String("connection", old.ID()),
			slog.Duration("delay", delay),
		)

		old.Disconnect(true)
		fresh := c.newConnection()
		c.conn.Store(fresh)
		c.scheduleAttempt(fresh, delay)
	})
}

func (c *Client) scheduleAttempt(conn *transport.Connection, delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = c.pool.AfterFunc(delay, func() {
		c.swapLane.Post(func() { c.attempt(conn) })
	})
}

// attempt runs on the swap lane and replays the session on conn in a fixed order.
func (c *Client) attempt(conn *transport.Connection) {
	if c.closed.Load() || c.conn.Load() != conn {
		return
	}
	c.setState(StateConnecting)

	ctx, cancel := context.WithTimeout(c.ctx, connectTimeout)
	defer cancel()

	if err := c.runSteps(ctx, conn); err != nil {
		c.log.Error("Reconnect attempt failed", err, slog.Duration("retry_in", c.ReconnectDelay()))
		metrics.Reconnects.With(prometheus.Labels{"result": metrics.ResultFailed}).Inc()

		conn.Disconnect(true)
		if c.closed.Load() {
			return
		}
		fresh := c.newConnection()
		c.conn.Store(fresh)
		c.setState(StateReconnecting)
		c.scheduleAttempt(fresh, c.ReconnectDelay())
		return
	}

	c.setState(StateConnected)
	metrics.Reconnects.With(prometheus.Labels{"result": metrics.ResultOK}).Inc()
	c.log.Info("Reconnected", slog.String("connection", conn.ID()))
}

func (c *Client) runSteps(ctx context.Context, conn *transport.Connection) error {
	if err := conn.Connect(ctx, c.opts.Host, c.opts.Port); err != nil {
		return err
	}
	c.step(StepConnected)

	c.dispatcher.Rebind(conn)
	c.step(StepDispatcherRebound)

	c.readLane.Do(c.framer.Flush)
	c.step(StepFramerFlushed)

	if err := c.replayAuth(conn); err != nil {
		return err
	}
	c.step(StepAuthReplayed)

	if err := c.armRead(conn); err != nil {
		return err
	}
	c.step(StepReadArmed)

	if err := conn.Write([]byte(capRequest)); err != nil {
		return fmt.Errorf("cap request: %w", err)
	}
	c.step(StepCapSent)

	switch err := c.replayJoins(conn); {
	case errors.Is(err, ErrEmptyReplayBuffer):
		c.log.Debug("No channels to rejoin")
	case err != nil:
		return err
	}
	c.step(StepJoinsReplayed)

	return nil
}

func (c *Client) step(s Step) {
	metrics.ReconnectSteps.With(prometheus.Labels{"step": s.String()}).Inc()
	c.log.Debug("Reconnect step", slog.String("step", s.String()))
	if c.opts.OnStep != nil {
		c.opts.OnStep(s)
	}
}

// Join sends one combined JOIN and remembers the channels for reconnects.
// When not connected the channels are only remembered.
func (c *Client) Join(channels ...string) error {
	names, err := normalizeChannels(channels)
	if err != nil {
		return err
	}

	var joinErr error
	c.swapLane.Do(func() {
		conn := c.conn.Load()
		if c.State() == StateConnected && conn.IsConnected() {
			joinErr = c.join(conn, names)
			return
		}
		c.remember(names)
	})
	return joinErr
}

// join runs on the swap lane.
func (c *Client) join(conn *transport.Connection, names []string) error {
	names, err := normalizeChannels(names)
	if err != nil {
		return err
	}
	if err := conn.Write([]byte(joinCommand(cmdJoin, names))); err != nil {
		return fmt.Errorf("join: %w", err)
	}
	c.remember(names)
	c.log.Info("Joined channels", slog.String("channels", strings.Join(names, ",")))
	return nil
}

func (c *Client) remember(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, name := range names {
		c.live[name] = struct{}{}
		if !slices.Contains(c.joinReplay, name) {
			c.joinReplay = append(c.joinReplay, name)
		}
	}
	metrics.JoinedChannels.Set(float64(len(c.live)))
}

// Part leaves channel and drops it from the reconnect replay list.
func (c *Client) Part(channel string) error {
	names, err := normalizeChannels([]string{channel})
	if err != nil {
		return err
	}
	name := names[0]

	var partErr error
	c.swapLane.Do(func() {
		conn := c.conn.Load()
		if c.State() == StateConnected && conn.IsConnected() {
			if err := conn.Write([]byte(joinCommand(cmdPart, names))); err != nil {
				partErr = fmt.Errorf("part: %w", err)
				return
			}
		}

		c.mu.Lock()
		delete(c.live, name)
		c.joinReplay = slices.DeleteFunc(c.joinReplay, func(s string) bool { return s == name })
		metrics.JoinedChannels.Set(float64(len(c.live)))
		c.mu.Unlock()
	})
	if partErr == nil {
		c.log.Info("Left channel", slog.String("channel", name))
	}
	return partErr
}

// JoinedChannels returns the live channel set, sorted.
func (c *Client) JoinedChannels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.live))
	for name := range c.live {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Say sends text to channel, waiting for the outbound limiter.
func (c *Client) Say(ctx context.Context, channel, text string) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	names, err := normalizeChannels([]string{channel})
	if err != nil {
		return err
	}

	text = strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(text))
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return ErrMessageTooLong
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	conn := c.conn.Load()
	if c.State() != StateConnected {
		return ErrNotConnected
	}
	return conn.WriteAsync([]byte(cmdPrivMsg+" #"+names[0]+" :"+text+"\r\n"), nil)
}

// Close stops reconnecting and drops the connection. The client cannot be reused.
func (c *Client) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.cancel()

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()

	c.setState(StateClosed)
	c.conn.Load().Disconnect(true)
	c.log.Info("Chat client closed")
}

func normalizeChannels(channels []string) ([]string, error) {
	out := make([]string, 0, len(channels))
	for _, ch := range channels {
		ch = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ch), "#"))
		if ch == "" {
			return nil, ErrEmptyChannel
		}
		if !slices.Contains(out, ch) {
			out = append(out, ch)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyChannel
	}
	return out, nil
}

func joinCommand(cmd string, channels []string) string {
	return cmd + " #" + strings.Join(channels, ",#") + "\r\n"
}
