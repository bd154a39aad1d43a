package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = strings.Repeat("ab", 48)

func TestEncryptorsRoundTrip(t *testing.T) {
	for _, name := range []string{CipherNone, CipherAESGCM, CipherXChaCha} {
		t.Run(name, func(t *testing.T) {
			enc, err := New(name, testKey)
			require.NoError(t, err)

			aad := []byte("op|seq|ts")
			packet, err := enc.Encrypt([]byte("welcome"), aad)
			require.NoError(t, err)

			plain, err := enc.Decrypt(packet, aad)
			require.NoError(t, err)
			assert.Equal(t, []byte("welcome"), plain)

			if name == CipherNone {
				return
			}
			_, err = enc.Decrypt(packet, []byte("tampered"))
			assert.Error(t, err)
			_, err = enc.Decrypt(packet[:4], aad)
			assert.ErrorIs(t, err, ErrPacketTooShort)
		})
	}
}

func TestNewRejectsBadKeys(t *testing.T) {
	_, err := New(CipherAESGCM, "zz")
	assert.Error(t, err)
	_, err = New(CipherXChaCha, "abcd")
	assert.Error(t, err)
	_, err = New("rot13", testKey)
	assert.Error(t, err)
}

func TestAESGCMHMACDetectsMacTamper(t *testing.T) {
	enc, err := New(CipherAESGCM, testKey)
	require.NoError(t, err)
	packet, err := enc.Encrypt([]byte("hello"), nil)
	require.NoError(t, err)
	packet[len(packet)-1] ^= 0xff
	_, err = enc.Decrypt(packet, nil)
	assert.ErrorIs(t, err, ErrInvalidMAC)
}
