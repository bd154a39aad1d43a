package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Encryptor 抽象了单一“帧加密方案”的能力：
//   - Encrypt：加密并附带完整性保护，生成完整报文
//   - Decrypt：校验并解密，还原明文
//
// aad（Associated Data）为关联数据，不加密但需要完整性保护（帧头中的 op/seq/timestamp）。
type Encryptor interface {
	Encrypt(plaintext, aad []byte) (packet []byte, err error)
	Decrypt(packet, aad []byte) (plaintext []byte, err error)
}

// NopEncryptor 是一个空实现：不做加密也不做验签，直接透传数据。
type NopEncryptor struct{}

func (NopEncryptor) Encrypt(plaintext, _ []byte) ([]byte, error) {
	return plaintext, nil
}

func (NopEncryptor) Decrypt(packet, _ []byte) ([]byte, error) {
	return packet, nil
}

// 编译期断言：确保 NopEncryptor 实现了 Encryptor 接口。
var _ Encryptor = NopEncryptor{}

const (
	CipherNone     = "none"
	CipherAESGCM   = "aes-gcm"
	CipherXChaCha  = "xchacha20"
	hexKeyMinBytes = 32
)

// New 按名称构造帧加密器。
//
// keyHex 为十六进制编码的密钥：
//   - aes-gcm   ：前 32 字节作为 AES-256 密钥，其余字节（不足时复用整个密钥）作为 HMAC 密钥；
//   - xchacha20 ：恰好 32 字节。
func New(name string, keyHex string) (Encryptor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CipherNone:
		return NopEncryptor{}, nil
	case CipherAESGCM:
		key, err := decodeKey(keyHex)
		if err != nil {
			return nil, err
		}
		macKey := key[aes256KeySizeBytes:]
		if len(macKey) == 0 {
			macKey = key
		}
		return NewAESGCMHMACCodec(key[:aes256KeySizeBytes], macKey)
	case CipherXChaCha:
		key, err := decodeKey(keyHex)
		if err != nil {
			return nil, err
		}
		return NewXChaChaCodec(key)
	default:
		return nil, fmt.Errorf("crypto: unknown cipher %q", name)
	}
}

func decodeKey(keyHex string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(keyHex))
	if err != nil {
		return nil, fmt.Errorf("crypto: decode key: %w", err)
	}
	if len(key) < hexKeyMinBytes {
		return nil, fmt.Errorf("crypto: key must be at least %d bytes, got %d", hexKeyMinBytes, len(key))
	}
	return key, nil
}
