package player

import (
	"sync"

	"github.com/lk2023060901/rs-world-go/internal/game/protocol"
)

// UpdateFlag 标记当前 tick 内发生变化的同步字段。
type UpdateFlag uint16

const (
	FlagForceChat UpdateFlag = 1 << iota
	FlagPublicChat
	FlagAnimation
	FlagGraphics
	FlagPrimaryHit
	FlagSecondaryHit
	FlagFacing
	FlagAsyncMovement
	FlagAppearance
)

// UpdateContext 收集玩家在一个 tick 内的瞬时状态变化。
//
// 由所属玩家在处理阶段写入，广播阶段只读，广播全部完成后统一 Clear。
// 同一字段在一个 tick 内多次写入时以最后一次为准。
type UpdateContext struct {
	mu    sync.Mutex
	flags UpdateFlag

	forceChat     string
	publicChat    protocol.PublicChat
	animation     protocol.Animation
	graphics      protocol.Graphics
	primaryHit    protocol.Hit
	secondaryHit  protocol.Hit
	facing        Position
	asyncMovement protocol.AsyncMovement
}

func (c *UpdateContext) set(flag UpdateFlag, apply func()) {
	c.mu.Lock()
	apply()
	c.flags |= flag
	c.mu.Unlock()
}

func (c *UpdateContext) SetForceChat(text string) {
	c.set(FlagForceChat, func() { c.forceChat = text })
}

func (c *UpdateContext) SetPublicChat(chat protocol.PublicChat) {
	c.set(FlagPublicChat, func() { c.publicChat = chat })
}

func (c *UpdateContext) SetAnimation(a protocol.Animation) {
	c.set(FlagAnimation, func() { c.animation = a })
}

func (c *UpdateContext) SetGraphics(g protocol.Graphics) {
	c.set(FlagGraphics, func() { c.graphics = g })
}

func (c *UpdateContext) SetPrimaryHit(h protocol.Hit) {
	c.set(FlagPrimaryHit, func() { c.primaryHit = h })
}

func (c *UpdateContext) SetSecondaryHit(h protocol.Hit) {
	c.set(FlagSecondaryHit, func() { c.secondaryHit = h })
}

func (c *UpdateContext) SetFacing(pos Position) {
	c.set(FlagFacing, func() { c.facing = pos })
}

func (c *UpdateContext) SetAsyncMovement(m protocol.AsyncMovement) {
	c.set(FlagAsyncMovement, func() { c.asyncMovement = m })
}

// SetAppearanceRequired 标记外观需要重新同步。
func (c *UpdateContext) SetAppearanceRequired() {
	c.set(FlagAppearance, func() {})
}

// Flags 返回当前置位的标记。
func (c *UpdateContext) Flags() UpdateFlag {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flags
}

// Has 判断标记是否置位。
func (c *UpdateContext) Has(flag UpdateFlag) bool {
	return c.Flags()&flag != 0
}

// Required 判断本 tick 是否有任何字段需要同步。
func (c *UpdateContext) Required() bool {
	return c.Flags() != 0
}

// Fill 将已置位的字段写入 block，未置位的可选字段保持为 nil。
// 外观块需要玩家信息，由 Player.UpdateBlock 负责。
func (c *UpdateContext) Fill(block *protocol.UpdateBlock) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.flags&FlagForceChat != 0 {
		text := c.forceChat
		block.ForceChat = &text
	}
	if c.flags&FlagPublicChat != 0 {
		chat := c.publicChat
		block.PublicChat = &chat
	}
	if c.flags&FlagAnimation != 0 {
		a := c.animation
		block.Animation = &a
	}
	if c.flags&FlagGraphics != 0 {
		g := c.graphics
		block.Graphics = &g
	}
	if c.flags&FlagPrimaryHit != 0 {
		h := c.primaryHit
		block.PrimaryHit = &h
	}
	if c.flags&FlagSecondaryHit != 0 {
		h := c.secondaryHit
		block.SecondaryHit = &h
	}
	if c.flags&FlagFacing != 0 {
		block.Facing = &protocol.Facing{X: c.facing.X, Y: c.facing.Y}
	}
	if c.flags&FlagAsyncMovement != 0 {
		m := c.asyncMovement
		block.AsyncMovement = &m
	}
}

// Clear 清除全部标记与负载。
func (c *UpdateContext) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flags = 0
	c.forceChat = ""
	c.publicChat = protocol.PublicChat{}
	c.animation = protocol.Animation{}
	c.graphics = protocol.Graphics{}
	c.primaryHit = protocol.Hit{}
	c.secondaryHit = protocol.Hit{}
	c.facing = Position{}
	c.asyncMovement = protocol.AsyncMovement{}
}
