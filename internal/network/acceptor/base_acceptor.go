package acceptor

import (
	"context"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/rs-world-go/internal/network"
	"github.com/lk2023060901/rs-world-go/internal/network/codec"
	"github.com/lk2023060901/rs-world-go/internal/network/framer"
	"github.com/lk2023060901/rs-world-go/internal/network/session"
	"github.com/lk2023060901/rs-world-go/pkg/metrics"
	"github.com/lk2023060901/rs-world-go/pkg/util/conc"
)

// Config 描述接入器的可选参数。
type Config struct {
	// ReadTimeout 为单次读取帧的超时时间，0 表示不设置。
	ReadTimeout time.Duration
	// InboundQueueSize 为每个会话的入站帧队列容量。
	InboundQueueSize int
}

const defaultInboundQueueSize = 1024

// BaseAcceptor 是 Acceptor 接口的基础 TCP 实现。
//
//   - 负责监听端口、接受连接、创建 Session、驱动解码并回调 Handler；
//   - 每个连接使用独立的读协程，消息在连接处理协程中按序回调。
type BaseAcceptor struct {
	ln       net.Listener
	codec    codec.Codec
	sessions *session.BaseSessionManager
	cfg      Config

	closeOnce sync.Once
}

// 确保 BaseAcceptor 实现了 Acceptor 接口。
var _ Acceptor = (*BaseAcceptor)(nil)

// inboundFrame 表示一条已解码但尚未交由业务处理的消息帧。
type inboundFrame struct {
	header  *framer.Header
	payload []byte
}

// NewBaseAcceptor 使用已有的 Listener 创建一个基础接入器。
func NewBaseAcceptor(ln net.Listener, c codec.Codec, cfg Config) (*BaseAcceptor, error) {
	if ln == nil {
		return nil, errors.New("acceptor: listener is nil")
	}
	if c == nil {
		return nil, errors.New("acceptor: codec is nil")
	}
	if cfg.InboundQueueSize <= 0 {
		cfg.InboundQueueSize = defaultInboundQueueSize
	}
	return &BaseAcceptor{
		ln:       ln,
		codec:    c,
		sessions: session.NewBaseSessionManager(),
		cfg:      cfg,
	}, nil
}

// NewTCPAcceptor 在给定地址上监听 TCP，并创建一个基础接入器。
func NewTCPAcceptor(addr string, c codec.Codec, cfg Config) (*BaseAcceptor, error) {
	if addr == "" {
		return nil, errors.New("acceptor: addr is empty")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "acceptor: listen %s", addr)
	}
	return NewBaseAcceptor(ln, c, cfg)
}

// Addr 实现 Acceptor.Addr。
func (a *BaseAcceptor) Addr() net.Addr {
	return a.ln.Addr()
}

// Sessions 返回由该接入器维护的会话索引。
func (a *BaseAcceptor) Sessions() session.SessionManager {
	return a.sessions
}

// Serve 实现 Acceptor.Serve。
//
// ctx 被取消时监听器会被关闭，Serve 在所有连接处理协程退出后返回 nil。
func (a *BaseAcceptor) Serve(ctx context.Context, h Handler) error {
	if h == nil {
		return errors.New("acceptor: handler is nil")
	}

	stop := make(chan struct{})
	defer close(stop)
	conc.Go(func() (struct{}, error) {
		select {
		case <-ctx.Done():
			_ = a.Close()
		case <-stop:
		}
		return struct{}{}, nil
	})

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := a.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}

			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				if terr := h.OnTimeout(nil); terr != nil {
					return terr
				}
				continue
			}

			h.OnError(nil, network.StageAccept, err)
			return errors.Mark(err, network.ErrAcceptFailed)
		}
		metrics.NetworkAcceptedConns.Inc()

		wg.Add(1)
		go func(conn net.Conn) {
			defer wg.Done()
			a.handleConnection(ctx, conn, h)
		}(conn)
	}
}

// Close 实现 Acceptor.Close。
func (a *BaseAcceptor) Close() error {
	var err error
	a.closeOnce.Do(func() {
		err = a.ln.Close()
		a.sessions.CloseAll()
	})
	return err
}

// handleConnection 处理单个连接的生命周期。
//
//  1. 调用 Handler.OnAccept 创建 Session 并注册；
//  2. 读协程循环解码帧并投递到 per-session 队列；
//  3. 当前协程按序回调 Handler.OnMessage；
//  4. 读结束后通知 OnDisconnected 与 OnSessionClosed，并关闭会话。
func (a *BaseAcceptor) handleConnection(ctx context.Context, conn net.Conn, h Handler) {
	sess, err := h.OnAccept(ctx, conn, a.codec)
	if err != nil {
		_ = conn.Close()
		h.OnError(nil, network.StageAccept, err)
		return
	}
	if sess == nil {
		_ = conn.Close()
		return
	}

	if err := a.sessions.Register(sess); err != nil {
		h.OnError(sess, network.StageAccept, err)
		_ = sess.Close()
		return
	}
	defer func() {
		_ = a.sessions.Unregister(sess.ID())
	}()

	sess.OnConnected()

	frames := make(chan inboundFrame, a.cfg.InboundQueueSize)
	var cause error
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		cause = a.readLoop(sess, conn, h, frames)
		close(frames)
	}()

	for frame := range frames {
		h.OnMessage(sess, frame.header, frame.payload)
	}
	<-readDone

	_ = sess.Close()
	sess.OnDisconnected(cause)
	h.OnSessionClosed(sess, cause)
}

// readLoop 持续从连接中读取并解码消息帧，将结果写入 frames 通道。
//
// 返回 nil 表示正常结束（对端关闭或会话被主动关闭）。
func (a *BaseAcceptor) readLoop(sess session.Session, conn net.Conn, h Handler, frames chan<- inboundFrame) error {
	for {
		if a.cfg.ReadTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(a.cfg.ReadTimeout)); err != nil {
				return nil
			}
		}

		header, payload, err := a.codec.DecodeRaw(conn)
		if err != nil {
			if isClosedErr(err) || sess.Context().Err() != nil {
				return nil
			}

			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				if terr := h.OnTimeout(sess); terr != nil {
					return terr
				}
				continue
			}

			h.OnError(sess, network.StageDecode, err)
			return errors.Mark(err, network.ErrDecodeFailed)
		}
		metrics.NetworkInboundFrames.WithLabelValues(strconv.FormatUint(uint64(header.Op), 10)).Inc()

		select {
		case frames <- inboundFrame{header: header, payload: payload}:
		case <-sess.Context().Done():
			return nil
		}
	}
}

func isClosedErr(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe)
}
