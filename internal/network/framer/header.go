package framer

// Flag 为帧头中的标志位。
type Flag uint64

const (
	// FlagCompressed 表示 payload 经过压缩。
	FlagCompressed Flag = 1 << iota
	// FlagEncrypted 表示 payload 经过加密。
	FlagEncrypted
)

// HeaderSize 为编码后的帧头长度：op(4) | seq(8) | flags(8) | timestamp(8)。
const HeaderSize = 28

// Header 为每一帧携带的元数据。
type Header struct {
	Op        uint32
	Seq       uint64
	Flags     Flag
	Timestamp int64
	// Size 为 payload 长度，仅在解码后有效。
	Size uint32
}

// Has 判断是否设置了指定标志位。
func (h *Header) Has(f Flag) bool {
	return h.Flags&f != 0
}

// Envelope 为一帧的完整内容：帧头 + 业务字节。
type Envelope struct {
	Header  *Header
	Payload []byte
}
