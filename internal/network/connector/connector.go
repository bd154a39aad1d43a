package connector

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/rs-world-go/internal/network"
	"github.com/lk2023060901/rs-world-go/internal/network/codec"
	"github.com/lk2023060901/rs-world-go/internal/network/framer"
	"github.com/lk2023060901/rs-world-go/pkg/util/conc"
)

// Packet 与服务器侧保持一致，直接使用 Envelope。
type Packet = framer.Envelope

// Config 描述客户端连接的基础配置。
type Config struct {
	SendQueueSize int
	RecvQueueSize int

	DialTimeout  time.Duration
	WriteTimeout time.Duration

	// Codec 为当前连接使用的编解码器。
	Codec codec.Codec
}

func defaultConfig() Config {
	return Config{
		SendQueueSize: 1024,
		RecvQueueSize: 1024,
		DialTimeout:   5 * time.Second,
	}
}

// ClientConn 抽象了客户端侧的一条连接。
//
// 注意：客户端连接不包含会话 ID 概念。
type ClientConn interface {
	Context() context.Context
	RemoteAddr() net.Addr
	LocalAddr() net.Addr

	Send(op uint32, msg any) error
	Recv() <-chan *Packet

	Close() error
}

// Connector 抽象了客户端的拨号器。
type Connector interface {
	Dial(ctx context.Context, addr string) (ClientConn, error)
}

// tcpConnector 是基于 TCP 的默认 Connector 实现。
type tcpConnector struct {
	cfg Config
}

// NewTCPConnector 创建一个基于 TCP 的 Connector。
func NewTCPConnector(cfg Config) (Connector, error) {
	def := defaultConfig()
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = def.SendQueueSize
	}
	if cfg.RecvQueueSize <= 0 {
		cfg.RecvQueueSize = def.RecvQueueSize
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = def.DialTimeout
	}
	if cfg.Codec == nil {
		return nil, errors.New("connector: codec is nil")
	}
	return &tcpConnector{cfg: cfg}, nil
}

func (c *tcpConnector) Dial(ctx context.Context, addr string) (ClientConn, error) {
	dialer := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "connector: dial %s", addr)
	}
	connCtx, cancel := context.WithCancel(context.Background())
	return newTCPClientConn(connCtx, cancel, conn, c.cfg), nil
}

// tcpClientConn 是基于 TCP 的 ClientConn 默认实现。
type tcpClientConn struct {
	conn net.Conn

	ctx    context.Context
	cancel context.CancelFunc

	cfg   Config
	codec codec.Codec

	sendChan chan outboundMessage
	recvChan chan *Packet

	seq       uint64
	closeOnce sync.Once
}

// outboundMessage 表示一条待发送的业务消息。
type outboundMessage struct {
	op  uint32
	msg any
}

func newTCPClientConn(ctx context.Context, cancel context.CancelFunc, conn net.Conn, cfg Config) *tcpClientConn {
	c := &tcpClientConn{
		conn:     conn,
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		codec:    cfg.Codec,
		sendChan: make(chan outboundMessage, cfg.SendQueueSize),
		recvChan: make(chan *Packet, cfg.RecvQueueSize),
	}

	conc.Go(func() (struct{}, error) {
		c.recvLoop()
		return struct{}{}, nil
	})
	conc.Go(func() (struct{}, error) {
		c.sendLoop()
		return struct{}{}, nil
	})

	return c
}

func (c *tcpClientConn) Context() context.Context { return c.ctx }
func (c *tcpClientConn) RemoteAddr() net.Addr     { return c.conn.RemoteAddr() }
func (c *tcpClientConn) LocalAddr() net.Addr      { return c.conn.LocalAddr() }

// Recv 返回入站帧通道，连接关闭后通道被关闭。
func (c *tcpClientConn) Recv() <-chan *Packet { return c.recvChan }

func (c *tcpClientConn) Close() error {
	c.close()
	return nil
}

func (c *tcpClientConn) Send(op uint32, msg any) error {
	select {
	case <-c.ctx.Done():
		return network.ErrSessionClosed
	case c.sendChan <- outboundMessage{op: op, msg: msg}:
		return nil
	}
}

func (c *tcpClientConn) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.conn.Close()
	})
}

// recvLoop 持续读取帧并投递到 recvChan，是 recvChan 唯一的写入方。
func (c *tcpClientConn) recvLoop() {
	defer close(c.recvChan)
	defer c.close()

	for {
		header, payload, err := c.codec.DecodeRaw(c.conn)
		if err != nil {
			return
		}
		select {
		case c.recvChan <- &Packet{Header: header, Payload: payload}:
		case <-c.ctx.Done():
			return
		}
	}
}

// sendLoop 从 sendChan 读取业务消息，编码后写入连接。
func (c *tcpClientConn) sendLoop() {
	defer c.close()

	var buf bytes.Buffer
	for {
		select {
		case <-c.ctx.Done():
			return
		case msg := <-c.sendChan:
			c.seq++
			header := &framer.Header{
				Op:        msg.op,
				Seq:       c.seq,
				Timestamp: time.Now().UnixMilli(),
			}

			buf.Reset()
			if err := c.codec.Encode(&buf, header, msg.msg); err != nil {
				continue
			}
			if c.cfg.WriteTimeout > 0 {
				if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
					return
				}
			}
			if _, err := io.Copy(c.conn, &buf); err != nil {
				return
			}
		}
	}
}
