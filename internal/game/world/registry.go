package world

import (
	"sync"

	"github.com/lk2023060901/rs-world-go/internal/game/player"
	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

// Registry 维护世界中的连接与在线玩家。
//
// clients 按会话 ID 索引所有连接（含未登录），players 按身份键索引 LoggedIn 玩家。
type Registry struct {
	mu      sync.RWMutex
	clients map[uint64]*player.Player
	players map[uint64]*player.Player
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[uint64]*player.Player),
		players: make(map[uint64]*player.Player),
	}
}

// Attach 记录一个新连接。
func (r *Registry) Attach(p *player.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[p.ID()] = p
}

// Detach 移除连接，返回连接是否存在。
func (r *Registry) Detach(p *player.Player) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.clients[p.ID()]; !ok || cur != p {
		return false
	}
	delete(r.clients, p.ID())
	return true
}

// Register 将玩家登记为在线，同一身份已在线时返回 merr.ErrLoginAccountOnline。
func (r *Registry) Register(p *player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[p.Key()]; ok {
		return merr.WrapErrLoginAccountOnline(p.Name())
	}
	r.players[p.Key()] = p
	return nil
}

// Unregister 移除在线玩家；只有登记的正是 p 时才会移除。
func (r *Registry) Unregister(p *player.Player) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.players[p.Key()]; !ok || cur != p {
		return false
	}
	delete(r.players, p.Key())
	return true
}

func (r *Registry) Lookup(key uint64) (*player.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[key]
	return p, ok
}

// Range 在快照上遍历在线玩家，fn 返回 false 时停止。
func (r *Registry) Range(fn func(p *player.Player) bool) {
	for _, p := range r.Players() {
		if !fn(p) {
			return
		}
	}
}

// Players 返回在线玩家快照。
func (r *Registry) Players() []*player.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*player.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	return out
}

// Clients 返回全部连接快照。
func (r *Registry) Clients() []*player.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*player.Player, 0, len(r.clients))
	for _, p := range r.clients {
		out = append(out, p)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

func (r *Registry) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
