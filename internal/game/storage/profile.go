// Package storage 负责玩家档案的读取与保存。
package storage

import (
	"context"
	"time"

	"github.com/lk2023060901/rs-world-go/internal/game/player"
)

// Profile 为玩家的持久化档案。
type Profile struct {
	Key         uint64             `json:"key"`
	Username    string             `json:"username"`
	Credential  string             `json:"credential"`
	Privilege   player.Privilege   `json:"privilege"`
	Position    player.Position    `json:"position"`
	PrivacyMode player.PrivacyMode `json:"privacy_mode"`
	Friends     []uint64           `json:"friends"`
	Ignores     []uint64           `json:"ignores"`
	Disabled    bool               `json:"disabled"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Store 为档案存储。
type Store interface {
	// Load 读取档案，不存在时返回 merr.ErrProfileNotFound。
	Load(ctx context.Context, key uint64) (*Profile, error)
	// Save 以 Key 为主键写入或覆盖档案。
	Save(ctx context.Context, profile *Profile) error
	Close() error
}

// ProfileOf 生成玩家当前状态的档案快照。
func ProfileOf(p *player.Player) *Profile {
	r := p.Relations()
	return &Profile{
		Key:         p.Key(),
		Username:    p.Name(),
		Credential:  p.Credential(),
		Privilege:   p.Privilege(),
		Position:    p.Position(),
		PrivacyMode: r.Mode(),
		Friends:     r.FriendKeys(),
		Ignores:     r.IgnoredKeys(),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   time.Now(),
	}
}

// Apply 将档案中的坐标与关系恢复到玩家身上。
func (pr *Profile) Apply(p *player.Player) {
	p.SetPosition(pr.Position)
	p.Relations().Restore(pr.Friends, pr.Ignores, pr.PrivacyMode)
}

func (pr *Profile) clone() *Profile {
	cp := *pr
	cp.Friends = append([]uint64(nil), pr.Friends...)
	cp.Ignores = append([]uint64(nil), pr.Ignores...)
	return &cp
}
