package session

import (
	"context"
	"net"
)

// Session 抽象了一条网络会话/连接。
//
// 约定：
//   - 每个 Session 对应一条底层 TCP 连接；
//   - Session ID 使用 64 位无符号整型，在进程内保持唯一；
//   - 框架层只关心会话本身，不关心“玩家”等具体业务概念。
type Session interface {
	// ID 返回该会话在进程内的唯一标识。
	ID() uint64

	// Context 返回与该会话关联的上下文，会话结束时被取消。
	Context() context.Context

	// RemoteAddr 返回远端地址（客户端地址）。
	RemoteAddr() net.Addr

	// LocalAddr 返回本端地址（服务器监听地址）。
	LocalAddr() net.Addr

	// Send 将一条业务消息编码后追加到会话的出站缓冲区。
	//
	// 消息不会立即写出，需要调用 Flush 才会交给发送协程。
	Send(op uint32, msg any) error

	// Flush 将出站缓冲区中已编码的帧整体交给发送协程写出。
	//
	// 出站队列已满（对端读取过慢）时返回 network.ErrQueueFull，调用方应断开该会话。
	Flush() error

	// Close 主动关闭该会话。
	//
	// 已缓冲但尚未写出的帧会在关闭连接前尽量写出；多次调用是幂等的。
	Close() error

	// OnConnected 在会话建立成功后被调用一次。
	OnConnected()

	// OnDisconnected 在会话检测到底层连接断开时被调用。
	//
	// err 为断开原因；正常关闭时可为 nil。
	OnDisconnected(err error)
}
