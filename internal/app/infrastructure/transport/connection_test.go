package transport_test

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"testing"
	"time"
	"twitchbot/internal/app/infrastructure/executor"
	"twitchbot/internal/app/infrastructure/transport"
	"twitchbot/internal/app/infrastructure/transport/transporttest"
	"twitchbot/pkg/logger"
)

const waitFor = 2 * time.Second

func newLanes(t *testing.T) transport.Lanes {
	t.Helper()

	pool := executor.NewPool(logger.NewNop(), 2, 64)
	t.Cleanup(pool.Stop)

	return transport.Lanes{
		Read:  executor.NewLane("read", pool),
		Write: executor.NewLane("write", pool),
	}
}

func connected(t *testing.T, kind transport.Kind) (*transport.Connection, *transporttest.Stream) {
	t.Helper()

	stream := transporttest.New(kind)
	conn := transport.NewConnection(logger.NewNop(), stream, newLanes(t), 16)
	require.NoError(t, conn.Connect(context.Background(), "irc.example", 6667))
	t.Cleanup(func() { conn.Disconnect(true) })
	return conn, stream
}

func TestConnection_ConnectAndIdentity(t *testing.T) {
	conn, stream := connected(t, transport.KindTLS)

	assert.True(t, conn.IsConnected())
	assert.True(t, conn.IsSecured())
	assert.Equal(t, transport.KindTLS, conn.Kind())
	assert.Len(t, conn.ID(), 36)
	assert.Equal(t, 1, stream.Dials())
}

func TestConnection_ConnectFailure(t *testing.T) {
	stream := transporttest.New(transport.KindPlain)
	stream.FailDial(errors.New("refused"))

	conn := transport.NewConnection(logger.NewNop(), stream, newLanes(t), 0)
	err := conn.Connect(context.Background(), "irc.example", 6667)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
	assert.False(t, conn.IsConnected())
	assert.False(t, conn.IsSecured())
}

func TestConnection_ReadDeliversOnLane(t *testing.T) {
	conn, stream := connected(t, transport.KindPlain)

	got := make(chan string, 1)
	require.NoError(t, conn.Read(func(b []byte) { got <- string(b) }))
	assert.ErrorIs(t, conn.Read(func([]byte) {}), transport.ErrReadInProgress)

	stream.Push("PING :tmi\r\n")

	select {
	case s := <-got:
		assert.Equal(t, "PING :tmi\r\n", s)
	case <-time.After(waitFor):
		t.Fatal("handler not called")
	}
	assert.False(t, conn.IsReconnectRequired())
}

func TestConnection_ReadLargerThanBuffer(t *testing.T) {
	conn, stream := connected(t, transport.KindPlain)

	stream.Push("0123456789abcdefXYZ")

	var got string
	for len(got) < 19 {
		ch := make(chan string, 1)
		require.NoError(t, conn.Read(func(b []byte) { ch <- string(b) }))
		select {
		case s := <-ch:
			got += s
		case <-time.After(waitFor):
			t.Fatal("handler not called")
		}
	}
	assert.Equal(t, "0123456789abcdefXYZ", got)
}

func TestConnection_ReadErrorRaisesFlagOnce(t *testing.T) {
	conn, stream := connected(t, transport.KindPlain)

	done := make(chan []byte, 1)
	require.NoError(t, conn.Read(func(b []byte) { done <- b }))
	stream.Fail(io.ErrUnexpectedEOF)

	select {
	case b := <-done:
		assert.Empty(t, b)
	case <-time.After(waitFor):
		t.Fatal("handler not called on error")
	}

	assert.True(t, conn.IsReconnectRequired())
	assert.False(t, conn.IsReconnectRequired(), "flag is edge-triggered")
}

func TestConnection_ZeroByteReadIsRearmed(t *testing.T) {
	conn, stream := connected(t, transport.KindPlain)

	got := make(chan string, 2)
	require.NoError(t, conn.Read(func(b []byte) { got <- string(b) }))

	stream.Push("")
	stream.Push("data")

	select {
	case s := <-got:
		assert.Equal(t, "data", s)
	case <-time.After(waitFor):
		t.Fatal("read was not re-armed")
	}
	assert.False(t, conn.IsReconnectRequired())
}

func TestConnection_Write(t *testing.T) {
	conn, stream := connected(t, transport.KindPlain)

	require.NoError(t, conn.Write([]byte("PASS oauth:x\r\n")))
	require.NoError(t, conn.WriteAsync([]byte("NICK y\r\n"), nil))

	assert.Eventually(t, func() bool {
		return stream.WrittenString() == "PASS oauth:x\r\nNICK y\r\n"
	}, waitFor, 5*time.Millisecond)
}

func TestConnection_WriteWithoutConnection(t *testing.T) {
	stream := transporttest.New(transport.KindPlain)
	conn := transport.NewConnection(logger.NewNop(), stream, newLanes(t), 0)

	assert.ErrorIs(t, conn.Write([]byte("x")), transport.ErrWriteWithoutConnection)
	assert.ErrorIs(t, conn.WriteAsync([]byte("x"), nil), transport.ErrWriteWithoutConnection)
	assert.ErrorIs(t, conn.Read(func([]byte) {}), transport.ErrReadWithoutConnection)
	assert.Empty(t, stream.Written())
}

func TestConnection_WriteAsyncReportsError(t *testing.T) {
	conn, stream := connected(t, transport.KindPlain)
	require.NoError(t, stream.Close())

	errs := make(chan error, 1)
	require.NoError(t, conn.WriteAsync([]byte("x"), func(err error) { errs <- err }))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, io.ErrClosedPipe)
	case <-time.After(waitFor):
		t.Fatal("onError not called")
	}
	assert.True(t, conn.IsReconnectRequired())
}

func TestConnection_DisconnectIsIdempotent(t *testing.T) {
	conn, stream := connected(t, transport.KindPlain)

	done := make(chan struct{})
	require.NoError(t, conn.Read(func([]byte) { close(done) }))

	conn.Disconnect(true)
	conn.Disconnect(true)

	assert.False(t, conn.IsConnected())
	assert.True(t, stream.IsShutdown())
	assert.True(t, stream.IsClosed())

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("pending read not cancelled by close")
	}
	assert.True(t, conn.IsReconnectRequired())
	assert.ErrorIs(t, conn.Write([]byte("x")), transport.ErrWriteWithoutConnection)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    transport.Kind
		wantErr bool
	}{
		{in: "", want: transport.KindTLS},
		{in: "tls", want: transport.KindTLS},
		{in: "plain", want: transport.KindPlain},
		{in: "websocket", want: transport.KindWebSocket},
		{in: "carrier-pigeon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := transport.ParseKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
