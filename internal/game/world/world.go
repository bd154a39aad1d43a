// Package world 实现会话注册表、登录流程与 tick 循环。
//
// 每个 tick 依次执行：
//  1. 应用已完成的凭据校验；
//  2. 检查连接的空闲超时；
//  3. 在协程池中处理每个连接排队的入站帧；
//  4. 在协程池中为每个在线玩家生成同步帧；
//  5. 等待全部同步帧生成后统一清理更新上下文，再刷新所有出站缓冲区。
package world

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/blang/semver/v4"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/lk2023060901/rs-world-go/internal/game/event"
	"github.com/lk2023060901/rs-world-go/internal/game/player"
	"github.com/lk2023060901/rs-world-go/internal/game/presence"
	"github.com/lk2023060901/rs-world-go/internal/game/protocol"
	"github.com/lk2023060901/rs-world-go/internal/game/storage"
	"github.com/lk2023060901/rs-world-go/internal/network/framer"
	"github.com/lk2023060901/rs-world-go/internal/network/router"
	"github.com/lk2023060901/rs-world-go/internal/network/serializer"
	"github.com/lk2023060901/rs-world-go/pkg/log"
	"github.com/lk2023060901/rs-world-go/pkg/metrics"
	"github.com/lk2023060901/rs-world-go/pkg/util/conc"
	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

// Deps 为世界依赖的外部组件。
type Deps struct {
	Dispatcher *event.Dispatcher
	Store      storage.Store
	Hasher     storage.Hasher
	// Saver 可选，非空时新账号在登录成功后立即存档。
	Saver      *storage.Saver
	Serializer serializer.Serializer
}

// Option 调整 World 的可选行为。
type Option func(w *World)

// WithClock 替换时钟，用于测试。
func WithClock(now func() time.Time) Option {
	return func(w *World) {
		w.now = now
	}
}

// World 为会话注册表与 tick 循环。
type World struct {
	log.Binder

	cfg        Config
	worldLabel string

	registry   *Registry
	gateway    *HostGateway
	throttle   *Throttle
	dispatcher *event.Dispatcher
	presence   *presence.Engine
	router     *router.Router[*player.Player]
	store      storage.Store
	hasher     storage.Hasher
	saver      *storage.Saver
	versions   semver.Range

	pool           *conc.Pool[struct{}]
	credentialPool *conc.Pool[*credentials]

	pendingMu sync.Mutex
	pending   []pendingLogin

	tick atomic.Uint64
	now  func() time.Time
}

// New 创建世界，并注册登录、登出与心跳路由。
func New(cfg Config, deps Deps, opts ...Option) (*World, error) {
	cfg.initialize()
	if deps.Dispatcher == nil || deps.Store == nil || deps.Hasher == nil || deps.Serializer == nil {
		return nil, merr.WrapErrParameterMissing("world deps")
	}
	versions, err := parseClientVersions(cfg.ClientVersions)
	if err != nil {
		return nil, merr.WrapErrParameterInvalidMsg("%v", err)
	}

	w := &World{
		cfg:            cfg,
		worldLabel:     strconv.Itoa(int(cfg.ID)),
		registry:       NewRegistry(),
		gateway:        NewHostGateway(),
		throttle:       NewThrottle(cfg.Throttle.Attempts, cfg.Throttle.Window),
		dispatcher:     deps.Dispatcher,
		router:         router.New[*player.Player](deps.Serializer),
		store:          deps.Store,
		hasher:         deps.Hasher,
		saver:          deps.Saver,
		versions:       versions,
		pool:           conc.NewPool[struct{}](cfg.Workers, conc.WithPreAlloc(true), conc.WithDisablePurge(true)),
		credentialPool: conc.NewPool[*credentials](cfg.Workers, conc.WithExpiryDuration(cfg.WorkerExpiry), conc.WithConcealPanic(true)),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.presence = presence.NewEngine(w.registry, w.dispatcher, cfg.ID)
	w.presence.Subscribe()

	if err := w.registerRoutes(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *World) registerRoutes() error {
	routes := map[uint32]router.Route[*player.Player]{
		protocol.OpLogin: {
			NewRequest: func() any { return &protocol.LoginRequest{} },
			Handler: func(p *player.Player, req any) (any, error) {
				return nil, w.beginLogin(p, req.(*protocol.LoginRequest))
			},
		},
		protocol.OpLogout: {
			NewRequest: func() any { return &protocol.Empty{} },
			Handler: func(p *player.Player, _ any) (any, error) {
				_ = p.Send(protocol.OpLogoutAck, &protocol.Empty{})
				w.Logout(context.Background(), p, nil)
				_ = p.Flush()
				return nil, p.Disconnect()
			},
		},
		protocol.OpKeepAlive: {
			NewRequest: func() any { return &protocol.Empty{} },
			Handler:    func(*player.Player, any) (any, error) { return nil, nil },
		},
	}
	for op, route := range routes {
		if err := w.router.Register(op, route); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) Config() Config                         { return w.cfg }
func (w *World) Registry() *Registry                    { return w.registry }
func (w *World) Presence() *presence.Engine             { return w.presence }
func (w *World) Router() *router.Router[*player.Player] { return w.router }
func (w *World) Gateway() *HostGateway                  { return w.gateway }
func (w *World) Dispatcher() *event.Dispatcher          { return w.dispatcher }
func (w *World) CurrentTick() uint64                    { return w.tick.Load() }

// Connect 为新连接创建玩家并登记主机连接数。
func (w *World) Connect(conn player.Conn) *player.Player {
	p := player.New(conn, w.now())
	w.gateway.Enter(p.Host())
	w.registry.Attach(p)
	metrics.WorldClients.WithLabelValues(w.worldLabel).Set(float64(w.registry.ClientCount()))
	w.Logger().Debug("client connected", zap.Stringer("client", p))
	return p
}

// Receive 将一条入站帧排入玩家队列，队列已满时返回 false。
func (w *World) Receive(p *player.Player, env *framer.Envelope) bool {
	return p.Enqueue(env, w.now())
}

// Disconnected 在连接断开后调用，可以重复调用。
func (w *World) Disconnected(ctx context.Context, p *player.Player, reason error) {
	w.Logout(ctx, p, reason)
	if w.registry.Detach(p) {
		w.gateway.Exit(p.Host())
		metrics.WorldClients.WithLabelValues(w.worldLabel).Set(float64(w.registry.ClientCount()))
	}
}

// Logout 将玩家移出世界并分发 PlayerLoggedOut，仅对 LoggedIn 玩家生效一次。
func (w *World) Logout(ctx context.Context, p *player.Player, reason error) {
	if !p.Advance(player.StageLoggedIn, player.StageLoggedOut) {
		p.SetStage(player.StageLoggedOut)
		// 登录尚未完成时可能已注册，仅移除本连接持有的条目
		w.registry.Unregister(p)
		return
	}
	w.registry.Unregister(p)
	metrics.WorldPlayersOnline.WithLabelValues(w.worldLabel).Set(float64(w.registry.Count()))
	w.Logger().Info("player logged out", zap.Stringer("player", p), zap.Error(reason))
	w.dispatcher.Dispatch(ctx, &event.PlayerLoggedOut{Player: p})
}

// Run 以固定间隔驱动 tick，直到 ctx 结束；退出前登出所有在线玩家。
func (w *World) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.TickInterval)
	defer ticker.Stop()

	w.Logger().Info("world started",
		zap.String("name", w.cfg.Name),
		zap.Uint16("id", w.cfg.ID),
		zap.Duration("tickInterval", w.cfg.TickInterval))
	for {
		select {
		case <-ctx.Done():
			w.shutdown()
			return nil
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

func (w *World) shutdown() {
	ctx := context.Background()
	for _, p := range w.registry.Clients() {
		w.Logout(ctx, p, merr.WrapErrServiceNotReady("world", "stopping"))
		_ = p.Flush()
		_ = p.Disconnect()
	}
	w.Logger().Info("world stopped")
}

// Close 释放协程池，应在 Run 返回后调用。
func (w *World) Close() {
	w.pool.Release()
	w.credentialPool.Release()
}

// Tick 执行一次完整的 tick。
func (w *World) Tick(ctx context.Context) {
	start := time.Now()
	tick := w.tick.Inc()
	now := w.now()

	w.applyLogins(ctx, now)
	w.checkLiveness(ctx, now)

	w.fanOut(w.registry.Clients(), func(p *player.Player) {
		w.process(ctx, p)
	})

	players := w.registry.Players()
	w.fanOut(players, func(p *player.Player) {
		w.update(p, players, tick)
	})
	for _, p := range players {
		p.ResetTick()
	}

	for _, p := range w.registry.Clients() {
		if err := p.Flush(); err != nil {
			w.Logger().RatedWarn(10, "flush failed, dropping client", zap.Stringer("client", p), zap.Error(err))
			w.Logout(ctx, p, err)
			_ = p.Disconnect()
		}
	}

	if tick%100 == 0 {
		w.throttle.Sweep(now)
	}
	metrics.WorldTickLatency.WithLabelValues(w.worldLabel).Observe(float64(time.Since(start).Microseconds()) / 1000)
}

// fanOut 在协程池中对每个玩家执行 fn 并等待全部完成。
func (w *World) fanOut(players []*player.Player, fn func(p *player.Player)) {
	futures := make([]*conc.Future[struct{}], 0, len(players))
	for _, p := range players {
		futures = append(futures, w.pool.Submit(func() (struct{}, error) {
			defer func() {
				if r := recover(); r != nil {
					w.Logger().Error("player task panicked", zap.Stringer("player", p), zap.Any("recovered", r))
					w.Logout(context.Background(), p, merr.WrapErrServiceInternal(fmt.Sprint(r)))
					_ = p.Disconnect()
				}
			}()
			fn(p)
			return struct{}{}, nil
		}))
	}
	_ = conc.AwaitAll(futures...)
}

// checkLiveness 断开空闲超时的连接，包括尚未完成登录的连接。
func (w *World) checkLiveness(ctx context.Context, now time.Time) {
	for _, p := range w.registry.Clients() {
		if p.Stage() == player.StageLoggedOut {
			continue
		}
		idle := p.IdleFor(now)
		if idle <= w.cfg.IdleTimeout {
			continue
		}
		metrics.WorldIdleDisconnects.Inc()
		w.Logger().RatedInfo(1, "disconnecting idle client", zap.Stringer("client", p), zap.Duration("idle", idle))
		w.Logout(ctx, p, merr.WrapErrSessionTimeout(p.String(), idle))
		_ = p.Disconnect()
	}
}

// process 处理玩家排队的入站帧。
func (w *World) process(ctx context.Context, p *player.Player) {
	for _, env := range p.Drain() {
		stage := p.Stage()
		if stage == player.StageLoggedOut {
			return
		}
		op := env.Header.Op
		switch {
		case stage == player.StageConnecting && op == protocol.OpLogin:
		case stage == player.StageLoggedIn && op != protocol.OpLogin:
		default:
			w.Logger().Debug("frame rejected in stage",
				zap.Stringer("client", p), zap.Uint32("op", op), zap.Stringer("stage", stage))
			continue
		}
		if err := w.router.Handle(p, env.Header, env.Payload); err != nil {
			w.Logger().Debug("handle frame failed", zap.Stringer("client", p), zap.Uint32("op", op), zap.Error(err))
		}
	}
}

// update 生成玩家本 tick 的同步帧：自身块加上视野内其他玩家的块。
func (w *World) update(p *player.Player, players []*player.Player, tick uint64) {
	if p.Stage() != player.StageLoggedIn {
		return
	}
	frame := &protocol.PlayerUpdate{Tick: tick, Self: p.UpdateBlock()}
	for _, other := range players {
		if p.UpdatableFor(other) {
			frame.Others = append(frame.Others, other.UpdateBlock())
		}
	}
	if err := p.Send(protocol.OpPlayerUpdate, frame); err != nil {
		w.Logger().RatedDebug(10, "send player update failed", zap.Stringer("player", p), zap.Error(err))
	}
}
