package funcutil

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckCtxValid(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	assert.True(t, CheckCtxValid(ctx))
	cancel()
	assert.False(t, CheckCtxValid(ctx))
}

func TestHostOf(t *testing.T) {
	addr := &net.TCPAddr{IP: net.ParseIP("10.0.0.7"), Port: 43594}
	assert.Equal(t, "10.0.0.7", HostOf(addr))
	assert.Equal(t, "", HostOf(nil))
}

func TestParsePort(t *testing.T) {
	port, err := ParsePort("0.0.0.0:43594")
	assert.NoError(t, err)
	assert.Equal(t, 43594, port)

	_, err = ParsePort("nope")
	assert.Error(t, err)
}
