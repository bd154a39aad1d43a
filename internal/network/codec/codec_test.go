package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/rs-world-go/internal/network/compressor"
	"github.com/lk2023060901/rs-world-go/internal/network/crypto"
	"github.com/lk2023060901/rs-world-go/internal/network/framer"
	"github.com/lk2023060901/rs-world-go/internal/network/serializer"
)

type greeting struct {
	Text string `json:"text"`
}

func newCodec(t *testing.T, compress, encrypt bool) Codec {
	t.Helper()
	zstd, err := compressor.NewZstdCompressorWithConcurrency(1)
	require.NoError(t, err)
	t.Cleanup(zstd.Close)

	enc, err := crypto.New(crypto.CipherXChaCha, strings.Repeat("11", 32))
	require.NoError(t, err)

	c, err := New(Options{
		Framer:            framer.NewLengthPrefixedFramer(0),
		Serializer:        serializer.NewJSONSerializer(),
		Compressor:        zstd,
		Encryptor:         enc,
		EnableCompression: compress,
		EnableEncryption:  encrypt,
		MinCompressSize:   16,
	})
	require.NoError(t, err)
	return c
}

func TestEncodeDecode(t *testing.T) {
	cases := []struct {
		name     string
		compress bool
		encrypt  bool
	}{
		{"plain", false, false},
		{"compressed", true, false},
		{"encrypted", false, true},
		{"compressed+encrypted", true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newCodec(t, tc.compress, tc.encrypt)
			var buf bytes.Buffer

			msg := &greeting{Text: strings.Repeat("Welcome to RuneSource! ", 8)}
			header := &framer.Header{Op: 9, Seq: 1}
			require.NoError(t, c.Encode(&buf, header, msg))
			assert.Equal(t, tc.compress, header.Has(framer.FlagCompressed))
			assert.Equal(t, tc.encrypt, header.Has(framer.FlagEncrypted))

			var out greeting
			h, err := c.Decode(&buf, &out)
			require.NoError(t, err)
			assert.Equal(t, uint32(9), h.Op)
			assert.Equal(t, msg.Text, out.Text)
		})
	}
}

func TestSmallPayloadNotCompressed(t *testing.T) {
	c := newCodec(t, true, false)
	var buf bytes.Buffer
	header := &framer.Header{Op: 1}
	require.NoError(t, c.Encode(&buf, header, &greeting{}))
	assert.False(t, header.Has(framer.FlagCompressed))
}

func TestDecodeRejectsUnexpectedFlags(t *testing.T) {
	src := newCodec(t, true, false)
	dst := newCodec(t, false, false)

	var buf bytes.Buffer
	require.NoError(t, src.Encode(&buf, &framer.Header{Op: 1}, &greeting{Text: strings.Repeat("x", 64)}))
	_, _, err := dst.DecodeRaw(&buf)
	assert.Error(t, err)
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{Serializer: serializer.NewJSONSerializer()})
	assert.Error(t, err)
	_, err = New(Options{Framer: framer.NewLengthPrefixedFramer(0)})
	assert.Error(t, err)
}

func TestEncodeValidatesArgs(t *testing.T) {
	c := newCodec(t, false, false)
	var buf bytes.Buffer
	assert.Error(t, c.Encode(nil, &framer.Header{}, &greeting{}))
	assert.Error(t, c.Encode(&buf, &framer.Header{}, nil))
	assert.Error(t, c.Encode(&buf, nil, &greeting{}))
}
