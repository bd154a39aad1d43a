package framer

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

func TestWriteReadFrame(t *testing.T) {
	f := NewLengthPrefixedFramer(0)
	var buf bytes.Buffer

	in := &Envelope{
		Header:  &Header{Op: 7, Seq: 42, Flags: FlagCompressed, Timestamp: 1700000000},
		Payload: []byte(`{"text":"hi"}`),
	}
	require.NoError(t, f.WriteFrame(&buf, in))
	assert.Equal(t, 4+HeaderSize+len(in.Payload), buf.Len())

	out, err := f.ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), out.Header.Op)
	assert.Equal(t, uint64(42), out.Header.Seq)
	assert.True(t, out.Header.Has(FlagCompressed))
	assert.False(t, out.Header.Has(FlagEncrypted))
	assert.Equal(t, int64(1700000000), out.Header.Timestamp)
	assert.Equal(t, uint32(len(in.Payload)), out.Header.Size)
	assert.Equal(t, in.Payload, out.Payload)
}

func TestEmptyPayload(t *testing.T) {
	f := NewLengthPrefixedFramer(0)
	var buf bytes.Buffer
	require.NoError(t, f.WriteFrame(&buf, &Envelope{Header: &Header{Op: 3}}))

	out, err := f.ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), out.Header.Op)
	assert.Empty(t, out.Payload)
}

func TestMultipleFramesInStream(t *testing.T) {
	f := NewLengthPrefixedFramer(0)
	var buf bytes.Buffer
	for i := uint32(1); i <= 3; i++ {
		require.NoError(t, f.WriteFrame(&buf, &Envelope{Header: &Header{Op: i}, Payload: []byte{byte(i)}}))
	}
	for i := uint32(1); i <= 3; i++ {
		out, err := f.ReadFrame(&buf)
		require.NoError(t, err)
		assert.Equal(t, i, out.Header.Op)
		assert.Equal(t, []byte{byte(i)}, out.Payload)
	}
	_, err := f.ReadFrame(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrameTooLarge(t *testing.T) {
	f := NewLengthPrefixedFramer(HeaderSize + 4)
	var buf bytes.Buffer
	err := f.WriteFrame(&buf, &Envelope{Header: &Header{Op: 1}, Payload: make([]byte, 5)})
	assert.ErrorIs(t, err, merr.ErrNetworkFrameTooLarge)

	// 伪造一个超长前缀。
	big := NewLengthPrefixedFramer(0)
	require.NoError(t, big.WriteFrame(&buf, &Envelope{Header: &Header{Op: 1}, Payload: make([]byte, 5)}))
	_, err = f.ReadFrame(&buf)
	assert.ErrorIs(t, err, merr.ErrNetworkFrameTooLarge)
}

func TestAADStable(t *testing.T) {
	h := &Header{Op: 1, Seq: 2, Timestamp: 3}
	a := AAD(h)
	h.Flags = FlagEncrypted
	h.Size = 99
	assert.Equal(t, a, AAD(h))
}
