package codec

import (
	"fmt"
	"io"

	"github.com/lk2023060901/rs-world-go/internal/network/compressor"
	"github.com/lk2023060901/rs-world-go/internal/network/crypto"
	"github.com/lk2023060901/rs-world-go/internal/network/framer"
	"github.com/lk2023060901/rs-world-go/internal/network/serializer"
)

// Codec 抽象了“从业务对象到网络帧，以及从网络帧回到业务对象”的完整编解码流程。
//
// Pipeline（写出 Encode）：
//
//	msg --> serializer --> [compress?] --> [encrypt?] --> Envelope{Header+Payload} --> framer.WriteFrame
//
// Pipeline（读入 Decode）：
//
//	framer.ReadFrame --> Envelope{Header+Payload} --> [decrypt?] --> [decompress?] --> serializer --> msg
type Codec interface {
	// Encode 将业务对象编码并写入到底层流。
	Encode(w io.Writer, header *framer.Header, msg any) error

	// Decode 从底层流中读取一帧报文，并解码到 msg 中。
	//
	// msg 为 nil 时仅解析并返回 Header。
	Decode(r io.Reader, msg any) (*framer.Header, error)

	// DecodeRaw 从底层流中读取一帧报文，返回帧头和已完成解密/解压的业务字节。
	DecodeRaw(r io.Reader) (*framer.Header, []byte, error)

	// Unmarshal 使用 Codec 的序列化器将业务字节解码到 msg。
	Unmarshal(data []byte, msg any) error
}

// Options 用于构造 Codec 的依赖注入参数。
type Options struct {
	Framer     framer.Framer
	Serializer serializer.Serializer
	Compressor compressor.Compressor // 允许为 nil（内部会用 NopCompressor）
	Encryptor  crypto.Encryptor      // 允许为 nil（内部会用 NopEncryptor）

	EnableCompression bool // 是否启用压缩（影响压缩行为与 Header.Flags）
	EnableEncryption  bool // 是否启用加密（影响加密行为与 Header.Flags）

	// MinCompressSize 为触发压缩的最小 payload 字节数，小于该值的帧原样发送。
	MinCompressSize int
}

type codec struct {
	framer     framer.Framer
	serializer serializer.Serializer
	compressor compressor.Compressor
	encryptor  crypto.Encryptor

	compress        bool
	encrypt         bool
	minCompressSize int
}

var _ Codec = (*codec)(nil)

// New 创建一个基于给定依赖的 Codec。
func New(opts Options) (Codec, error) {
	if opts.Framer == nil {
		return nil, fmt.Errorf("codec: framer is nil")
	}
	if opts.Serializer == nil {
		return nil, fmt.Errorf("codec: serializer is nil")
	}

	c := &codec{
		framer:          opts.Framer,
		serializer:      opts.Serializer,
		compress:        opts.EnableCompression,
		encrypt:         opts.EnableEncryption,
		minCompressSize: opts.MinCompressSize,
	}

	if opts.Compressor != nil {
		c.compressor = opts.Compressor
	} else {
		c.compressor = compressor.NopCompressor{}
	}
	if opts.Encryptor != nil {
		c.encryptor = opts.Encryptor
	} else {
		c.encryptor = crypto.NopEncryptor{}
	}

	return c, nil
}

// Encode 实现 Codec.Encode。
func (c *codec) Encode(w io.Writer, header *framer.Header, msg any) error {
	if w == nil {
		return fmt.Errorf("codec: writer is nil")
	}
	if msg == nil {
		return fmt.Errorf("codec: msg is nil")
	}
	if header == nil {
		return fmt.Errorf("codec: header is nil")
	}

	// 第一步：业务对象序列化。
	body, err := c.serializer.Marshal(msg)
	if err != nil {
		return fmt.Errorf("codec: marshal failed: %w", err)
	}

	// 复用 header 时清理遗留的压缩/加密位。
	header.Flags &^= framer.FlagCompressed | framer.FlagEncrypted

	// 第二步：可选压缩。
	if c.compress && len(body) > 0 && len(body) >= c.minCompressSize {
		compressed, err := c.compressor.Compress(nil, body)
		if err != nil {
			return fmt.Errorf("codec: compress failed: %w", err)
		}
		body = compressed
		header.Flags |= framer.FlagCompressed
	}

	// 第三步：可选加密。
	if c.encrypt && len(body) > 0 {
		packet, err := c.encryptor.Encrypt(body, framer.AAD(header))
		if err != nil {
			return fmt.Errorf("codec: encrypt failed: %w", err)
		}
		body = packet
		header.Flags |= framer.FlagEncrypted
	}

	if err := c.framer.WriteFrame(w, &framer.Envelope{Header: header, Payload: body}); err != nil {
		return fmt.Errorf("codec: write frame failed: %w", err)
	}
	return nil
}

// decodeFrame 完成从底层流到“帧头 + 业务明文字节”的解码流程。
//
// 读取前缀阶段的 io 错误原样返回，便于上层识别 EOF/连接关闭。
func (c *codec) decodeFrame(r io.Reader) (*framer.Header, []byte, error) {
	if r == nil {
		return nil, nil, fmt.Errorf("codec: reader is nil")
	}

	env, err := c.framer.ReadFrame(r)
	if err != nil {
		return nil, nil, err
	}

	header := env.Header
	data := env.Payload

	// 第一阶段：解密。
	if header.Has(framer.FlagEncrypted) {
		if !c.encrypt {
			return nil, nil, fmt.Errorf("codec: encrypted payload but encryption disabled")
		}
		if len(data) == 0 {
			return nil, nil, fmt.Errorf("codec: encrypted payload is empty")
		}

		plain, err := c.encryptor.Decrypt(data, framer.AAD(header))
		if err != nil {
			return nil, nil, fmt.Errorf("codec: decrypt failed: %w", err)
		}
		data = plain
	}

	// 第二阶段：解压。
	if header.Has(framer.FlagCompressed) {
		if !c.compress {
			return nil, nil, fmt.Errorf("codec: compressed payload but compression disabled")
		}
		if len(data) == 0 {
			return nil, nil, fmt.Errorf("codec: compressed payload is empty")
		}

		plain, err := c.compressor.Decompress(nil, data)
		if err != nil {
			return nil, nil, fmt.Errorf("codec: decompress failed: %w", err)
		}
		data = plain
	}

	return header, data, nil
}

// DecodeRaw 实现 Codec.DecodeRaw。
func (c *codec) DecodeRaw(r io.Reader) (*framer.Header, []byte, error) {
	return c.decodeFrame(r)
}

// Decode 实现 Codec.Decode。
func (c *codec) Decode(r io.Reader, msg any) (*framer.Header, error) {
	header, data, err := c.decodeFrame(r)
	if err != nil {
		return nil, err
	}

	// 第三阶段：反序列化到业务对象。
	if msg != nil && len(data) > 0 {
		if err := c.Unmarshal(data, msg); err != nil {
			return nil, err
		}
	}

	return header, nil
}

// Unmarshal 实现 Codec.Unmarshal。
func (c *codec) Unmarshal(data []byte, msg any) error {
	if err := c.serializer.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("codec: unmarshal failed: %w", err)
	}
	return nil
}
