package framer

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/valyala/bytebufferpool"

	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

// Framer 抽象了基于 Envelope 的打包/解包能力。
//
// 约定：
//   - 一帧数据的格式为：4 字节大端无符号整型（表示后续内容长度）+ 帧头（HeaderSize 字节）+ payload。
//   - 帧头字段均为大端编码。
type Framer interface {
	// WriteFrame 将 Envelope 打包为一帧并写入到 w 中。
	WriteFrame(w io.Writer, env *Envelope) error

	// ReadFrame 从 r 中读取一帧数据并解包为 Envelope。
	ReadFrame(r io.Reader) (*Envelope, error)
}

// LengthPrefixedFramer 使用长度前缀（4 字节大端）作为帧边界。
// 适用于基于流的连接（如 TCP）。
type LengthPrefixedFramer struct {
	// MaxFrameSize 为允许的最大帧大小（帧头 + payload），单位字节。
	// 为 0 时使用默认值 defaultMaxFrameSize。
	MaxFrameSize uint32
}

var _ Framer = (*LengthPrefixedFramer)(nil)

const defaultMaxFrameSize uint32 = 1 << 20 // 1MB

// NewLengthPrefixedFramer 创建一个长度前缀帧编码器。
// maxFrameSize 为 0 时使用默认值。
func NewLengthPrefixedFramer(maxFrameSize uint32) *LengthPrefixedFramer {
	if maxFrameSize == 0 {
		maxFrameSize = defaultMaxFrameSize
	}
	return &LengthPrefixedFramer{
		MaxFrameSize: maxFrameSize,
	}
}

// WriteFrame 将 Envelope 编码为长度前缀帧并写入。
//
// 长度前缀、帧头与 payload 拼接到同一个池化缓冲区后一次写出，避免短写导致的报文交叉。
func (f *LengthPrefixedFramer) WriteFrame(w io.Writer, env *Envelope) error {
	if env == nil || env.Header == nil {
		return fmt.Errorf("framer: envelope or header is nil")
	}

	length := uint32(HeaderSize + len(env.Payload))
	if length > f.effectiveMaxSize() {
		return merr.WrapErrNetworkFrameTooLarge(int(length), int(f.effectiveMaxSize()))
	}
	env.Header.Size = uint32(len(env.Payload))

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	var head [4 + HeaderSize]byte
	binary.BigEndian.PutUint32(head[0:4], length)
	putHeader(head[4:], env.Header)
	_, _ = buf.Write(head[:])
	_, _ = buf.Write(env.Payload)

	if _, err := w.Write(buf.B); err != nil {
		return fmt.Errorf("framer: write frame failed: %w", err)
	}
	return nil
}

// ReadFrame 从流中读取一帧数据并解码为 Envelope。
func (f *LengthPrefixedFramer) ReadFrame(r io.Reader) (*Envelope, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(prefix[:])
	if length > f.effectiveMaxSize() {
		return nil, merr.WrapErrNetworkFrameTooLarge(int(length), int(f.effectiveMaxSize()))
	}
	if length < HeaderSize {
		return nil, fmt.Errorf("framer: frame size %d smaller than header", length)
	}

	// 使用 ByteBuffer 池降低频繁 make 带来的分配与 GC 压力。
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if cap(buf.B) < int(length) {
		buf.B = make([]byte, int(length))
	} else {
		buf.B = buf.B[:int(length)]
	}
	if _, err := io.ReadFull(r, buf.B); err != nil {
		return nil, fmt.Errorf("framer: read body failed: %w", err)
	}

	header := readHeader(buf.B[:HeaderSize])
	header.Size = length - HeaderSize

	// payload 需要拷贝出池化缓冲区。
	var payload []byte
	if header.Size > 0 {
		payload = make([]byte, header.Size)
		copy(payload, buf.B[HeaderSize:])
	}
	return &Envelope{Header: header, Payload: payload}, nil
}

func (f *LengthPrefixedFramer) effectiveMaxSize() uint32 {
	if f == nil || f.MaxFrameSize == 0 {
		return defaultMaxFrameSize
	}
	return f.MaxFrameSize
}

func putHeader(dst []byte, h *Header) {
	binary.BigEndian.PutUint32(dst[0:4], h.Op)
	binary.BigEndian.PutUint64(dst[4:12], h.Seq)
	binary.BigEndian.PutUint64(dst[12:20], uint64(h.Flags))
	binary.BigEndian.PutUint64(dst[20:28], uint64(h.Timestamp))
}

func readHeader(src []byte) *Header {
	return &Header{
		Op:        binary.BigEndian.Uint32(src[0:4]),
		Seq:       binary.BigEndian.Uint64(src[4:12]),
		Flags:     Flag(binary.BigEndian.Uint64(src[12:20])),
		Timestamp: int64(binary.BigEndian.Uint64(src[20:28])),
	}
}

// AAD 将帧头中与完整性相关的字段编码为加密关联数据。
//
// 字段顺序：op(uint32) | seq(uint64) | timestamp(int64)。
// 不包含 flags 与 size，二者在加密之后才最终确定。
func AAD(h *Header) []byte {
	var buf [20]byte
	binary.BigEndian.PutUint32(buf[0:4], h.Op)
	binary.BigEndian.PutUint64(buf[4:12], h.Seq)
	binary.BigEndian.PutUint64(buf[12:20], uint64(h.Timestamp))
	return buf[:]
}
