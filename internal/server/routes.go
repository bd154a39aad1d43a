package server

import (
	"context"

	"github.com/lk2023060901/rs-world-go/internal/game/player"
	"github.com/lk2023060901/rs-world-go/internal/game/protocol"
	"github.com/lk2023060901/rs-world-go/internal/game/world"
	"github.com/lk2023060901/rs-world-go/internal/network/router"
	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

type route = router.Route[*player.Player]

// registerRoutes 注册好友、屏蔽、隐私模式、聊天与传送的路由。
func registerRoutes(ctx context.Context, w *world.World) error {
	engine := w.Presence()
	target := func(fn func(ctx context.Context, p *player.Player, key uint64) error) route {
		return route{
			NewRequest: func() any { return &protocol.TargetRequest{} },
			Handler: func(p *player.Player, req any) (any, error) {
				return nil, fn(ctx, p, req.(*protocol.TargetRequest).Key)
			},
		}
	}

	routes := map[uint32]route{
		protocol.OpAddFriend:    target(engine.AddFriend),
		protocol.OpRemoveFriend: target(engine.RemoveFriend),
		protocol.OpAddIgnore:    target(engine.AddIgnore),
		protocol.OpRemoveIgnore: target(engine.RemoveIgnore),
		protocol.OpPrivacyMode: {
			NewRequest: func() any { return &protocol.PrivacyModeRequest{} },
			Handler: func(p *player.Player, req any) (any, error) {
				mode := player.PrivacyMode(req.(*protocol.PrivacyModeRequest).Mode)
				if !mode.Valid() {
					return nil, merr.WrapErrParameterInvalidRange(0, 2, int(mode), "privacy mode")
				}
				return nil, engine.SetPrivacyMode(ctx, p, mode)
			},
		},
		protocol.OpPrivateMessage: {
			NewRequest: func() any { return &protocol.PrivateMessageRequest{} },
			Handler: func(p *player.Player, req any) (any, error) {
				msg := req.(*protocol.PrivateMessageRequest)
				return nil, engine.SendPrivateMessage(ctx, p, msg.Key, msg.Text)
			},
		},
		protocol.OpPublicChat: {
			NewRequest: func() any { return &protocol.PublicChatRequest{} },
			Handler: func(p *player.Player, req any) (any, error) {
				chat := req.(*protocol.PublicChatRequest)
				p.Update().SetPublicChat(protocol.PublicChat{Color: chat.Color, Effects: chat.Effects, Text: chat.Text})
				return nil, nil
			},
		},
		protocol.OpTeleport: {
			NewRequest: func() any { return &protocol.TeleportRequest{} },
			Handler: func(p *player.Player, req any) (any, error) {
				if p.Privilege() < player.PrivilegeAdministrator {
					return nil, merr.WrapErrOperationNotSupported("teleport", p.Privilege().String())
				}
				to := req.(*protocol.TeleportRequest)
				return nil, p.Teleport(player.Position{X: to.X, Y: to.Y, Z: to.Z})
			},
		},
	}
	r := w.Router()
	for op, rt := range routes {
		if err := r.Register(op, rt); err != nil {
			return err
		}
	}
	return nil
}
