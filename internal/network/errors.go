package network

import "errors"

// Stage 表示网络收发链路中的处理阶段。
//
// 主要用于在回调中标记错误发生的位置，便于监控与排查。
type Stage string

const (
	StageAccept   Stage = "accept"   // 接受连接、创建会话
	StageRecvRaw  Stage = "recv_raw" // 从底层连接读取原始字节
	StageDecode   Stage = "decode"   // 原始字节 -> 帧
	StageDispatch Stage = "dispatch" // 帧 -> 业务处理
	StageEncode   Stage = "encode"   // 业务对象 -> 帧字节
	StageSend     Stage = "send"     // 底层发送
)

// 统一的错误码常量。
//
// 注意：这些是用于日志/监控的稳定字符串，真正的 error 对象在下面通过 errors.New 构造。
const (
	ErrCodeAcceptFailed   = "network:accept_failed"
	ErrCodeRecvFailed     = "network:recv_failed"
	ErrCodeDecodeFailed   = "network:decode_failed"
	ErrCodeDispatchFailed = "network:dispatch_failed"
	ErrCodeEncodeFailed   = "network:encode_failed"
	ErrCodeSendFailed     = "network:send_failed"
	ErrCodeSessionClosed  = "network:session_closed"
	ErrCodeQueueFull      = "network:queue_full"
)

var (
	// ErrAcceptFailed 表示接入阶段失败（例如同一主机连接数超限）。
	ErrAcceptFailed = errors.New(ErrCodeAcceptFailed)

	// ErrRecvFailed 表示在读取底层连接数据时发生错误。
	ErrRecvFailed = errors.New(ErrCodeRecvFailed)

	// ErrDecodeFailed 表示在将原始字节解码为帧时发生错误。
	ErrDecodeFailed = errors.New(ErrCodeDecodeFailed)

	// ErrDispatchFailed 表示在将帧分发给业务处理时发生错误。
	ErrDispatchFailed = errors.New(ErrCodeDispatchFailed)

	// ErrEncodeFailed 表示在将业务对象编码为帧字节时发生错误。
	ErrEncodeFailed = errors.New(ErrCodeEncodeFailed)

	// ErrSendFailed 表示在发送数据到对端时发生错误。
	ErrSendFailed = errors.New(ErrCodeSendFailed)

	// ErrSessionClosed 表示会话已关闭，不再接受发送。
	ErrSessionClosed = errors.New(ErrCodeSessionClosed)

	// ErrQueueFull 表示会话的出站队列已满（对端读取过慢）。
	ErrQueueFull = errors.New(ErrCodeQueueFull)
)
