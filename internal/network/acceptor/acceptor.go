package acceptor

import (
	"context"
	"net"

	"github.com/lk2023060901/rs-world-go/internal/network"
	"github.com/lk2023060901/rs-world-go/internal/network/codec"
	"github.com/lk2023060901/rs-world-go/internal/network/framer"
	"github.com/lk2023060901/rs-world-go/internal/network/session"
)

// Handler 描述接入器在连接生命周期各阶段的回调。
//
// 同一 Session 上的 OnMessage 串行调用；不同 Session 之间可能并发。
type Handler interface {
	// OnAccept 在新连接建立后被调用，用于创建 Session。
	//
	// 返回 error 时连接会被立即关闭；返回 nil Session 表示静默拒绝。
	OnAccept(ctx context.Context, conn net.Conn, c codec.Codec) (session.Session, error)

	// OnMessage 在收到一条完整帧时被调用，payload 已完成解密与解压缩。
	OnMessage(sess session.Session, header *framer.Header, payload []byte)

	// OnSessionClosed 在会话结束后被调用一次，err 为 nil 表示正常断开。
	OnSessionClosed(sess session.Session, err error)

	// OnError 在任意阶段发生错误时被调用，sess 在接入阶段可能为 nil。
	OnError(sess session.Session, stage network.Stage, err error)

	// OnTimeout 在读超时时被调用，返回非 nil 将结束对应会话。
	OnTimeout(sess session.Session) error
}

// Acceptor 抽象了服务器侧的连接接入器。
type Acceptor interface {
	// Serve 阻塞地接受连接，直到 ctx 被取消或监听器被关闭。
	Serve(ctx context.Context, h Handler) error

	// Addr 返回监听地址。
	Addr() net.Addr

	// Close 关闭监听器及所有由其接入的会话。
	Close() error
}
