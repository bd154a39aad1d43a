package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// XChaChaCodec 使用 XChaCha20-Poly1305 加密帧 payload。
//
// 报文格式：nonce(24) || ciphertext；随机 nonce 足够长，无需维护计数器。
type XChaChaCodec struct {
	aead cipher.AEAD
}

var _ Encryptor = (*XChaChaCodec)(nil)

// NewXChaChaCodec 使用 32 字节密钥创建编码器。
func NewXChaChaCodec(key []byte) (*XChaChaCodec, error) {
	aead, err := chacha20poly1305.NewX(key[:chacha20poly1305.KeySize])
	if err != nil {
		return nil, err
	}
	return &XChaChaCodec{aead: aead}, nil
}

func (c *XChaChaCodec) Encrypt(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, aad), nil
}

func (c *XChaChaCodec) Decrypt(packet, aad []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(packet) < nonceSize+c.aead.Overhead() {
		return nil, ErrPacketTooShort
	}
	return c.aead.Open(nil, packet[:nonceSize], packet[nonceSize:], aad)
}
