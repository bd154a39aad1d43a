package session

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/lk2023060901/rs-world-go/internal/network"
	"github.com/lk2023060901/rs-world-go/internal/network/codec"
	"github.com/lk2023060901/rs-world-go/internal/network/framer"
	"github.com/lk2023060901/rs-world-go/pkg/metrics"
)

// BaseSession 提供了 Session 接口的基础实现。
//
//   - Send 在调用方协程中完成编码，帧字节追加到 pending 缓冲区；
//   - Flush 将 pending 整体交给独立的发送协程，写出顺序与 Send 顺序一致；
//   - Close 先写出剩余的帧，再关闭连接并取消上下文。
type BaseSession struct {
	id uint64

	ctx    context.Context
	cancel context.CancelFunc

	conn  net.Conn
	codec codec.Codec

	remoteAddr net.Addr
	localAddr  net.Addr

	mu sync.Mutex
	// pending 为尚未 Flush 的已编码帧。
	pending *bytebufferpool.ByteBuffer
	// seq 为服务器侧发送消息的本地自增序号。
	seq uint64

	// sendQueue 为等待发送协程写出的帧批次。
	sendQueue    chan *bytebufferpool.ByteBuffer
	writeTimeout time.Duration

	closing   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// 确保 BaseSession 实现了 Session 接口。
var _ Session = (*BaseSession)(nil)

const (
	defaultSendQueueSize = 64
	defaultWriteTimeout  = 5 * time.Second
)

// Option 用于调整 BaseSession 的发送行为。
type Option func(s *BaseSession)

// WithSendQueueSize 设置出站批次队列容量。
func WithSendQueueSize(n int) Option {
	return func(s *BaseSession) {
		if n > 0 {
			s.sendQueue = make(chan *bytebufferpool.ByteBuffer, n)
		}
	}
}

// WithWriteTimeout 设置单次写出的超时时间，0 表示不设置 deadline。
func WithWriteTimeout(d time.Duration) Option {
	return func(s *BaseSession) {
		s.writeTimeout = d
	}
}

// NewBaseSession 创建一个基于 net.Conn 的基础 Session 实例。
//
// parent 为会话所属的上层上下文（例如 Acceptor 的 Serve ctx），为 nil 时使用 context.Background()。
func NewBaseSession(parent context.Context, id uint64, conn net.Conn, c codec.Codec, opts ...Option) *BaseSession {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	s := &BaseSession{
		id:           id,
		ctx:          ctx,
		cancel:       cancel,
		conn:         conn,
		codec:        c,
		remoteAddr:   conn.RemoteAddr(),
		localAddr:    conn.LocalAddr(),
		pending:      bytebufferpool.Get(),
		sendQueue:    make(chan *bytebufferpool.ByteBuffer, defaultSendQueueSize),
		writeTimeout: defaultWriteTimeout,
		closing:      make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.sendLoop()
	return s
}

// ID 实现 Session.ID。
func (s *BaseSession) ID() uint64 {
	return s.id
}

// Context 实现 Session.Context。
func (s *BaseSession) Context() context.Context {
	return s.ctx
}

// RemoteAddr 实现 Session.RemoteAddr。
func (s *BaseSession) RemoteAddr() net.Addr {
	return s.remoteAddr
}

// LocalAddr 实现 Session.LocalAddr。
func (s *BaseSession) LocalAddr() net.Addr {
	return s.localAddr
}

// Done 返回发送协程退出（连接已关闭）时关闭的通道。
func (s *BaseSession) Done() <-chan struct{} {
	return s.done
}

// Send 实现 Session.Send。
func (s *BaseSession) Send(op uint32, msg any) error {
	if s.closed() {
		return network.ErrSessionClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return network.ErrSessionClosed
	}

	s.seq++
	header := &framer.Header{
		Op:        op,
		Seq:       s.seq,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := s.codec.Encode(s.pending, header, msg); err != nil {
		return errors.Mark(errors.Wrapf(err, "session %d op %d", s.id, op), network.ErrEncodeFailed)
	}
	return nil
}

// Flush 实现 Session.Flush。
func (s *BaseSession) Flush() error {
	if s.closed() {
		return network.ErrSessionClosed
	}

	batch := s.takePending()
	if batch == nil {
		return nil
	}

	select {
	case s.sendQueue <- batch:
		return nil
	case <-s.ctx.Done():
		bytebufferpool.Put(batch)
		return network.ErrSessionClosed
	default:
		bytebufferpool.Put(batch)
		return network.ErrQueueFull
	}
}

// Close 实现 Session.Close。
func (s *BaseSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.closing)
	})
	return nil
}

// OnConnected 默认实现为空，方便在自定义 Session 中覆写。
func (s *BaseSession) OnConnected() {}

// OnDisconnected 默认实现为空，方便在自定义 Session 中覆写。
func (s *BaseSession) OnDisconnected(error) {}

func (s *BaseSession) closed() bool {
	select {
	case <-s.closing:
		return true
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}

// takePending 取出当前 pending 缓冲区并换上新的缓冲区；无数据时返回 nil。
func (s *BaseSession) takePending() *bytebufferpool.ByteBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil || s.pending.Len() == 0 {
		return nil
	}
	batch := s.pending
	s.pending = bytebufferpool.Get()
	return batch
}

// sendLoop 为每个会话启动的专职发送协程，conn 的写操作只发生在此协程中。
func (s *BaseSession) sendLoop() {
	defer close(s.done)
	defer s.shutdown()

	for {
		select {
		case batch := <-s.sendQueue:
			if err := s.write(batch); err != nil {
				return
			}
		case <-s.closing:
			s.drain()
			return
		case <-s.ctx.Done():
			s.drain()
			return
		}
	}
}

// drain 写出队列中与 pending 中剩余的帧，任何写错误都会终止写出。
func (s *BaseSession) drain() {
	for {
		select {
		case batch := <-s.sendQueue:
			if err := s.write(batch); err != nil {
				return
			}
		default:
			if batch := s.takePending(); batch != nil {
				_ = s.write(batch)
			}
			return
		}
	}
}

func (s *BaseSession) write(batch *bytebufferpool.ByteBuffer) error {
	defer bytebufferpool.Put(batch)

	if s.writeTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return err
		}
	}
	n, err := s.conn.Write(batch.B)
	metrics.NetworkOutboundBytes.Observe(float64(n))
	return err
}

func (s *BaseSession) shutdown() {
	s.mu.Lock()
	if s.pending != nil {
		bytebufferpool.Put(s.pending)
		s.pending = nil
	}
	s.mu.Unlock()

	_ = s.conn.Close()
	s.cancel()
}
