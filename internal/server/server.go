// Package server 将网络接入器与世界连接起来：为每个连接创建会话与玩家，
// 把入站帧排入玩家队列，并注册关系与聊天相关的路由。
package server

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/lk2023060901/rs-world-go/internal/game/player"
	"github.com/lk2023060901/rs-world-go/internal/game/world"
	"github.com/lk2023060901/rs-world-go/internal/network"
	"github.com/lk2023060901/rs-world-go/internal/network/acceptor"
	"github.com/lk2023060901/rs-world-go/internal/network/codec"
	"github.com/lk2023060901/rs-world-go/internal/network/framer"
	"github.com/lk2023060901/rs-world-go/internal/network/session"
	"github.com/lk2023060901/rs-world-go/pkg/log"
	"github.com/lk2023060901/rs-world-go/pkg/metrics"
	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

// Config 为会话相关参数。
type Config struct {
	SendQueueSize int
	WriteTimeout  time.Duration
}

// Server 实现 acceptor.Handler。
type Server struct {
	log.Binder

	cfg      Config
	world    *world.World
	acceptor acceptor.Acceptor

	ctx    context.Context
	nextID atomic.Uint64

	mu      sync.RWMutex
	players map[uint64]*player.Player
}

var _ acceptor.Handler = (*Server)(nil)

// New 创建服务器并向世界的路由表注册玩家操作。
func New(w *world.World, acc acceptor.Acceptor, cfg Config) (*Server, error) {
	if w == nil || acc == nil {
		return nil, merr.WrapErrParameterMissing("world/acceptor")
	}
	s := &Server{
		cfg:      cfg,
		world:    w,
		acceptor: acc,
		ctx:      context.Background(),
		players:  make(map[uint64]*player.Player),
	}
	if err := registerRoutes(s.ctx, w); err != nil {
		return nil, err
	}
	return s, nil
}

// Addr 返回监听地址。
func (s *Server) Addr() net.Addr {
	return s.acceptor.Addr()
}

// Serve 阻塞接受连接，直到 ctx 结束。
func (s *Server) Serve(ctx context.Context) error {
	s.Logger().Info("server listening", zap.Stringer("addr", s.acceptor.Addr()))
	return s.acceptor.Serve(ctx, s)
}

func (s *Server) Close() error {
	return s.acceptor.Close()
}

func (s *Server) OnAccept(ctx context.Context, conn net.Conn, c codec.Codec) (session.Session, error) {
	var opts []session.Option
	if s.cfg.SendQueueSize > 0 {
		opts = append(opts, session.WithSendQueueSize(s.cfg.SendQueueSize))
	}
	if s.cfg.WriteTimeout > 0 {
		opts = append(opts, session.WithWriteTimeout(s.cfg.WriteTimeout))
	}
	sess := session.NewBaseSession(ctx, s.nextID.Inc(), conn, c, opts...)
	p := s.world.Connect(sess)

	s.mu.Lock()
	s.players[sess.ID()] = p
	s.mu.Unlock()
	return sess, nil
}

func (s *Server) OnMessage(sess session.Session, header *framer.Header, payload []byte) {
	p, ok := s.player(sess.ID())
	if !ok {
		return
	}
	if !s.world.Receive(p, &framer.Envelope{Header: header, Payload: payload}) {
		metrics.NetworkRejectedConns.Inc()
		s.Logger().RatedWarn(10, "inbound queue overflow, closing", zap.Stringer("client", p))
		_ = sess.Close()
	}
}

func (s *Server) OnSessionClosed(sess session.Session, err error) {
	s.mu.Lock()
	p, ok := s.players[sess.ID()]
	delete(s.players, sess.ID())
	s.mu.Unlock()
	if ok {
		s.world.Disconnected(s.ctx, p, err)
	}
}

func (s *Server) OnError(sess session.Session, stage network.Stage, err error) {
	fields := []zap.Field{zap.String("stage", string(stage)), zap.Error(err)}
	if sess != nil {
		fields = append(fields, log.FieldHost(sess.RemoteAddr()))
	}
	if errors.Is(err, network.ErrDecodeFailed) || stage == network.StageDecode {
		s.Logger().RatedDebug(10, "network error", fields...)
		return
	}
	s.Logger().RatedWarn(10, "network error", fields...)
}

// OnTimeout 不结束会话，空闲超时由世界的 tick 负责。
func (s *Server) OnTimeout(session.Session) error {
	return nil
}

func (s *Server) player(id uint64) (*player.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	return p, ok
}
