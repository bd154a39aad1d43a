package storage

import (
	"context"

	"github.com/lk2023060901/rs-world-go/internal/game/event"
)

// HandlerID 为持久化处理器在事件分发器中的 ID。
const HandlerID = "persistence"

// Persistence 在玩家登出时保存档案。
type Persistence struct {
	saver *Saver
}

var _ event.Handler = (*Persistence)(nil)

func NewPersistence(saver *Saver) *Persistence {
	return &Persistence{saver: saver}
}

// Subscribe 将处理器注册到登出事件。
func (h *Persistence) Subscribe(d *event.Dispatcher) {
	d.Register(event.KindPlayerLoggedOut, h)
}

func (h *Persistence) ID() string { return HandlerID }

func (h *Persistence) Handle(_ context.Context, ev event.Event) error {
	out, ok := ev.(*event.PlayerLoggedOut)
	if !ok || out.Player == nil || !out.Player.EverLoggedIn() {
		return nil
	}
	h.saver.Save(ProfileOf(out.Player))
	return nil
}
