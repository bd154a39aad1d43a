// Package player 定义了服务器侧的玩家会话：身份、连接阶段、活跃时钟、
// 权限、坐标、每 tick 的同步上下文以及好友关系记录。
package player

import (
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/lk2023060901/rs-world-go/internal/game/protocol"
	"github.com/lk2023060901/rs-world-go/internal/network/framer"
	"github.com/lk2023060901/rs-world-go/pkg/util/funcutil"
)

// Conn 为玩家使用的底层连接能力，session.Session 满足该接口。
type Conn interface {
	ID() uint64
	RemoteAddr() net.Addr
	Send(op uint32, msg any) error
	Flush() error
	Close() error
}

// MaxInbound 为单个玩家在两次 tick 之间可排队的入站帧数量。
const MaxInbound = 64

// Player 表示一条已接入的客户端连接，登录成功后即为在线玩家。
type Player struct {
	conn Conn
	host string

	stage        atomic.Int32
	lastActivity atomic.Time
	// everLoggedIn 标记玩家是否至少进入过 LoggedIn，决定登出时是否存档。
	everLoggedIn atomic.Bool

	// 以下身份字段在登录完成后只读。
	key        uint64
	name       string
	credential string
	privilege  Privilege
	createdAt  time.Time

	// 以下字段只在 tick 的处理阶段由所属任务修改，广播阶段只读。
	position       Position
	needsPlacement bool
	primaryDir     int8
	secondaryDir   int8

	update    *UpdateContext
	relations *Relations

	inboundMu sync.Mutex
	inbound   []*framer.Envelope
}

// New 创建一个处于 Connecting 阶段的玩家。
func New(conn Conn, now time.Time) *Player {
	p := &Player{
		conn:      conn,
		host:      funcutil.HostOf(conn.RemoteAddr()),
		position:  DefaultSpawn,
		update:    &UpdateContext{},
		relations: NewRelations(),
	}
	p.lastActivity.Store(now)
	p.primaryDir, p.secondaryDir = -1, -1
	return p
}

// ID 返回底层会话 ID。
func (p *Player) ID() uint64 { return p.conn.ID() }

// Key 返回身份键，登录完成前为 0。
func (p *Player) Key() uint64 { return p.key }

// Name 返回展示名，登录完成前为空。
func (p *Player) Name() string { return p.name }

// Host 返回客户端 IP。
func (p *Player) Host() string { return p.host }

func (p *Player) Credential() string     { return p.credential }
func (p *Player) Privilege() Privilege   { return p.privilege }
func (p *Player) CreatedAt() time.Time   { return p.createdAt }
func (p *Player) Update() *UpdateContext { return p.update }
func (p *Player) Relations() *Relations  { return p.relations }

// SetIdentity 在登录完成时写入身份信息。
func (p *Player) SetIdentity(key uint64, name, credential string, privilege Privilege, createdAt time.Time) {
	p.key = key
	p.name = name
	p.credential = credential
	p.privilege = privilege
	p.createdAt = createdAt
}

func (p *Player) Stage() Stage {
	return Stage(p.stage.Load())
}

// SetStage 无条件设置阶段。
func (p *Player) SetStage(s Stage) {
	p.stage.Store(int32(s))
	if s == StageLoggedIn {
		p.everLoggedIn.Store(true)
	}
}

// Advance 仅当当前阶段为 from 时推进到 to。
func (p *Player) Advance(from, to Stage) bool {
	if !p.stage.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	if to == StageLoggedIn {
		p.everLoggedIn.Store(true)
	}
	return true
}

// EverLoggedIn 判断玩家是否进入过 LoggedIn。
func (p *Player) EverLoggedIn() bool {
	return p.everLoggedIn.Load()
}

// Touch 重置活跃时钟。
func (p *Player) Touch(now time.Time) {
	p.lastActivity.Store(now)
}

// IdleFor 返回自上次活跃以来的时长。
func (p *Player) IdleFor(now time.Time) time.Duration {
	return now.Sub(p.lastActivity.Load())
}

// Enqueue 追加一条入站帧并重置活跃时钟；队列已满时返回 false。
func (p *Player) Enqueue(env *framer.Envelope, now time.Time) bool {
	p.Touch(now)

	p.inboundMu.Lock()
	defer p.inboundMu.Unlock()
	if len(p.inbound) >= MaxInbound {
		return false
	}
	p.inbound = append(p.inbound, env)
	return true
}

// Drain 取出全部排队的入站帧。
func (p *Player) Drain() []*framer.Envelope {
	p.inboundMu.Lock()
	defer p.inboundMu.Unlock()
	frames := p.inbound
	p.inbound = nil
	return frames
}

// Send 将消息写入出站缓冲区，在 tick 结束后统一 Flush。
func (p *Player) Send(op uint32, msg any) error {
	return p.conn.Send(op, msg)
}

// Flush 将出站缓冲区交给发送协程。
func (p *Player) Flush() error {
	return p.conn.Flush()
}

// Disconnect 关闭底层连接，已缓冲的消息会在关闭前写出。
func (p *Player) Disconnect() error {
	return p.conn.Close()
}

// SendMessage 发送一条系统消息。
func (p *Player) SendMessage(text string) error {
	return p.Send(protocol.OpGameMessage, &protocol.GameMessage{Text: text})
}

// SendMapRegion 通知客户端加载当前坐标所在的地图区域。
func (p *Player) SendMapRegion() error {
	return p.Send(protocol.OpMapRegion, &protocol.MapRegion{X: p.position.X, Y: p.position.Y})
}

func (p *Player) Position() Position {
	return p.position
}

// SetPosition 直接设置坐标，用于登录时恢复存档。
func (p *Player) SetPosition(pos Position) {
	p.position = pos
}

// Teleport 重置移动、移动到目标坐标并重新发送地图区域。
func (p *Player) Teleport(pos Position) error {
	p.primaryDir, p.secondaryDir = -1, -1
	p.position = pos
	p.needsPlacement = true
	return p.SendMapRegion()
}

// NeedsPlacement 判断玩家本 tick 是否需要完整重新定位。
func (p *Player) NeedsPlacement() bool {
	return p.needsPlacement
}

// SetMovement 设置本 tick 的移动方向，-1 表示不移动。
func (p *Player) SetMovement(primary, secondary int8) {
	p.primaryDir, p.secondaryDir = primary, secondary
}

// UpdatableFor 判断 other 是否应出现在 p 的同步帧中。
func (p *Player) UpdatableFor(other *Player) bool {
	return other != p &&
		other.Stage() == StageLoggedIn &&
		!other.NeedsPlacement() &&
		other.Position().ViewableFrom(p.Position())
}

// UpdateBlock 生成玩家当前 tick 的同步块。
func (p *Player) UpdateBlock() protocol.UpdateBlock {
	block := protocol.UpdateBlock{
		Key:       p.key,
		Primary:   p.primaryDir,
		Secondary: p.secondaryDir,
	}
	p.update.Fill(&block)
	if p.update.Has(FlagAppearance) {
		block.Appearance = &protocol.Appearance{Name: p.name, Privilege: uint8(p.privilege)}
	}
	return block
}

// ResetTick 在本 tick 所有玩家的同步帧生成后调用。
func (p *Player) ResetTick() {
	p.update.Clear()
	p.needsPlacement = false
	p.primaryDir, p.secondaryDir = -1, -1
}

func (p *Player) String() string {
	if p.name == "" {
		return fmt.Sprintf("Client(%s)", p.host)
	}
	return fmt.Sprintf("Player(%s@%s)", p.name, p.host)
}
