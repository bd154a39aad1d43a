package acceptor

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/rs-world-go/internal/network"
	"github.com/lk2023060901/rs-world-go/internal/network/codec"
	"github.com/lk2023060901/rs-world-go/internal/network/connector"
	"github.com/lk2023060901/rs-world-go/internal/network/framer"
	"github.com/lk2023060901/rs-world-go/internal/network/serializer"
	"github.com/lk2023060901/rs-world-go/internal/network/session"
)

type echo struct {
	Text string `json:"text"`
}

type echoHandler struct {
	nextID atomic.Uint64
	closed chan uint64
	mu     sync.Mutex
	errs   []error
}

func (h *echoHandler) OnAccept(ctx context.Context, conn net.Conn, c codec.Codec) (session.Session, error) {
	return session.NewBaseSession(ctx, h.nextID.Add(1), conn, c), nil
}

func (h *echoHandler) OnMessage(sess session.Session, header *framer.Header, payload []byte) {
	var in echo
	_ = serializer.NewJSONSerializer().Unmarshal(payload, &in)
	_ = sess.Send(header.Op+1, &echo{Text: in.Text + "!"})
	_ = sess.Flush()
}

func (h *echoHandler) OnSessionClosed(sess session.Session, _ error) {
	h.closed <- sess.ID()
}

func (h *echoHandler) OnError(_ session.Session, _ network.Stage, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

func (h *echoHandler) OnTimeout(session.Session) error { return nil }

func newCodec(t *testing.T) codec.Codec {
	c, err := codec.New(codec.Options{
		Framer:     framer.NewLengthPrefixedFramer(0),
		Serializer: serializer.NewJSONSerializer(),
	})
	require.NoError(t, err)
	return c
}

func TestBaseAcceptor_Echo(t *testing.T) {
	c := newCodec(t)
	a, err := NewTCPAcceptor("127.0.0.1:0", c, Config{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	h := &echoHandler{closed: make(chan uint64, 4)}
	served := make(chan error, 1)
	go func() { served <- a.Serve(ctx, h) }()

	dialer, err := connector.NewTCPConnector(connector.Config{Codec: c})
	require.NoError(t, err)
	conn, err := dialer.Dial(context.Background(), a.Addr().String())
	require.NoError(t, err)

	require.NoError(t, conn.Send(10, &echo{Text: "ping"}))

	select {
	case pkt := <-conn.Recv():
		assert.Equal(t, uint32(11), pkt.Header.Op)
		var out echo
		require.NoError(t, c.Unmarshal(pkt.Payload, &out))
		assert.Equal(t, "ping!", out.Text)
	case <-time.After(3 * time.Second):
		t.Fatal("no echo received")
	}

	require.Eventually(t, func() bool { return a.Sessions().Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	select {
	case id := <-h.closed:
		assert.Equal(t, uint64(1), id)
	case <-time.After(3 * time.Second):
		t.Fatal("session not closed")
	}
	require.Eventually(t, func() bool { return a.Sessions().Count() == 0 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not return")
	}
}

func TestBaseAcceptor_CloseEndsSessions(t *testing.T) {
	c := newCodec(t)
	a, err := NewTCPAcceptor("127.0.0.1:0", c, Config{})
	require.NoError(t, err)

	h := &echoHandler{closed: make(chan uint64, 4)}
	served := make(chan error, 1)
	go func() { served <- a.Serve(context.Background(), h) }()

	dialer, err := connector.NewTCPConnector(connector.Config{Codec: c})
	require.NoError(t, err)
	conn, err := dialer.Dial(context.Background(), a.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return a.Sessions().Count() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, a.Close())

	select {
	case <-h.closed:
	case <-time.After(3 * time.Second):
		t.Fatal("session not closed")
	}
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not return")
	}

	// 客户端在服务器关闭连接后收到通道关闭。
	select {
	case _, ok := <-conn.Recv():
		assert.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("client not notified")
	}
}

func TestNewBaseAcceptor_Invalid(t *testing.T) {
	_, err := NewBaseAcceptor(nil, newCodec(t), Config{})
	assert.Error(t, err)
	_, err = NewTCPAcceptor("", newCodec(t), Config{})
	assert.Error(t, err)
}
