package session

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/rs-world-go/internal/network"
	"github.com/lk2023060901/rs-world-go/internal/network/codec"
	"github.com/lk2023060901/rs-world-go/internal/network/framer"
	"github.com/lk2023060901/rs-world-go/internal/network/serializer"
)

type greeting struct {
	Text string `json:"text"`
}

func newTestCodec(t *testing.T) codec.Codec {
	c, err := codec.New(codec.Options{
		Framer:     framer.NewLengthPrefixedFramer(0),
		Serializer: serializer.NewJSONSerializer(),
	})
	require.NoError(t, err)
	return c
}

func readAll(t *testing.T, c codec.Codec, r io.Reader, n int) []greeting {
	out := make([]greeting, 0, n)
	for i := 0; i < n; i++ {
		var g greeting
		h, err := c.Decode(r, &g)
		require.NoError(t, err)
		assert.Equal(t, uint32(7), h.Op)
		assert.Equal(t, uint64(i+1), h.Seq)
		out = append(out, g)
	}
	return out
}

func TestBaseSession_SendFlushOrder(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	c := newTestCodec(t)
	sess := NewBaseSession(nil, 1, server, c)
	defer sess.Close()

	require.NoError(t, sess.Send(7, &greeting{Text: "a"}))
	require.NoError(t, sess.Send(7, &greeting{Text: "b"}))
	require.NoError(t, sess.Flush())
	require.NoError(t, sess.Send(7, &greeting{Text: "c"}))
	require.NoError(t, sess.Flush())

	got := readAll(t, c, client, 3)
	assert.Equal(t, []greeting{{"a"}, {"b"}, {"c"}}, got)
}

func TestBaseSession_FlushEmpty(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	sess := NewBaseSession(nil, 1, server, newTestCodec(t))
	defer sess.Close()
	assert.NoError(t, sess.Flush())
}

func TestBaseSession_CloseDrainsPending(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	c := newTestCodec(t)
	sess := NewBaseSession(nil, 2, server, c)

	require.NoError(t, sess.Send(7, &greeting{Text: "bye"}))
	require.NoError(t, sess.Close())

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(&buf, client)
		close(done)
	}()

	select {
	case <-sess.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not shut down")
	}
	<-done

	got := readAll(t, c, &buf, 1)
	assert.Equal(t, "bye", got[0].Text)
	assert.Error(t, sess.Context().Err())

	assert.ErrorIs(t, sess.Send(7, &greeting{}), network.ErrSessionClosed)
	assert.ErrorIs(t, sess.Flush(), network.ErrSessionClosed)
	assert.NoError(t, sess.Close())
}

func TestBaseSession_QueueFull(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	// 对端不读取，发送协程阻塞在第一个批次上，队列容量为 1。
	sess := NewBaseSession(nil, 3, server, newTestCodec(t), WithSendQueueSize(1), WithWriteTimeout(0))
	defer sess.Close()

	var err error
	for i := 0; i < 10 && err == nil; i++ {
		require.NoError(t, sess.Send(7, &greeting{Text: "x"}))
		err = sess.Flush()
	}
	assert.ErrorIs(t, err, network.ErrQueueFull)
}

func TestBaseSession_EncodeError(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	sess := NewBaseSession(nil, 4, server, newTestCodec(t))
	defer sess.Close()

	err := sess.Send(7, nil)
	assert.ErrorIs(t, err, network.ErrEncodeFailed)
}

func TestBaseSessionManager(t *testing.T) {
	m := NewBaseSessionManager()

	a, ac := net.Pipe()
	defer ac.Close()
	b, bc := net.Pipe()
	defer bc.Close()

	c := newTestCodec(t)
	s1 := NewBaseSession(nil, 1, a, c)
	s2 := NewBaseSession(nil, 2, b, c)

	require.NoError(t, m.Register(s1))
	require.NoError(t, m.Register(s2))
	assert.Error(t, m.Register(s1))
	assert.Equal(t, 2, m.Count())

	got, ok := m.Get(2)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), got.ID())

	visited := 0
	m.Range(func(Session) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)

	m.CloseAll()
	<-s1.Done()
	<-s2.Done()

	require.NoError(t, m.Unregister(1))
	assert.Error(t, m.Unregister(1))
	assert.Equal(t, 1, m.Count())
}
