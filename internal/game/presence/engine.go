// Package presence 实现好友与屏蔽关系、私聊隐私模式以及在线状态的传播。
//
// 玩家 T 对于把 T 加为好友的玩家 P 是否“在线”由 Visible(T, P) 决定：
//   - T 在线；
//   - P 不在 T 的屏蔽列表中；
//   - T 的隐私模式不是 Private；
//   - T 的隐私模式为 FriendsOnly 时，P 必须在 T 的好友列表中。
//
// 每次影响上述条件的变化都会重新计算，并只在结果变化时推送给对应的 P。
package presence

import (
	"context"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/lk2023060901/rs-world-go/internal/game/event"
	"github.com/lk2023060901/rs-world-go/internal/game/identity"
	"github.com/lk2023060901/rs-world-go/internal/game/player"
	"github.com/lk2023060901/rs-world-go/internal/game/protocol"
	"github.com/lk2023060901/rs-world-go/pkg/log"
	"github.com/lk2023060901/rs-world-go/pkg/metrics"
	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

// OfflineNotice 为私聊目标不在线时发送给发送方的提示。
const OfflineNotice = "That player is currently offline."

// HandlerID 为好友引擎在事件分发器中的处理器 ID。
const HandlerID = "presence"

// Registry 为好友引擎所需的在线玩家索引。
type Registry interface {
	Lookup(key uint64) (*player.Player, bool)
	Range(fn func(p *player.Player) bool)
}

// Engine 为好友关系与在线状态引擎。
type Engine struct {
	log.Binder

	registry   Registry
	dispatcher *event.Dispatcher
	worldID    uint16

	// sequence 为全进程共享的私聊序号，第一条消息为 1。
	sequence atomic.Uint64
}

var _ event.Handler = (*Engine)(nil)

// NewEngine 创建好友引擎，worldID 为推送在线状态时携带的世界编号。
func NewEngine(registry Registry, dispatcher *event.Dispatcher, worldID uint16) *Engine {
	if worldID == 0 {
		worldID = 1
	}
	return &Engine{
		registry:   registry,
		dispatcher: dispatcher,
		worldID:    worldID,
	}
}

// Subscribe 将引擎注册到分发器的登录与登出事件。
func (e *Engine) Subscribe() {
	e.dispatcher.RegisterAll(e, event.KindPlayerLoggedOn, event.KindPlayerLoggedOut)
}

// Visible 计算 target 对 observer 是否可见。
func (e *Engine) Visible(target, observer *player.Player) bool {
	if target == nil || observer == nil || target.Stage() != player.StageLoggedIn {
		return false
	}
	return target.Relations().AllowsObserver(observer.Key())
}

// AddFriend 将 targetKey 加入 requester 的好友列表。
//
// 目标是自己、目标已被屏蔽、列表已满或名字不合法时不做任何改变，返回对应错误。
// 重复添加返回 nil 且不推送。
func (e *Engine) AddFriend(ctx context.Context, requester *player.Player, targetKey uint64) error {
	if err := e.checkTarget(requester, targetKey); err != nil {
		return err
	}

	target, added, err := e.mutate(requester, targetKey, func(r *player.Relations) (bool, error) {
		return r.AddFriend(targetKey, identity.Display(targetKey))
	})
	if err != nil || !added {
		return err
	}

	e.push(requester, targetKey, e.Visible(target, requester))
	e.dispatcher.Dispatch(ctx, &event.FriendAdded{Player: requester, Target: targetKey})
	return nil
}

// RemoveFriend 从 requester 的好友列表移除 targetKey。
func (e *Engine) RemoveFriend(ctx context.Context, requester *player.Player, targetKey uint64) error {
	_, removed, _ := e.mutate(requester, targetKey, func(r *player.Relations) (bool, error) {
		return r.RemoveFriend(targetKey), nil
	})
	if !removed {
		return merr.WrapErrRelationNotFound(identity.Display(targetKey), "friends")
	}
	e.dispatcher.Dispatch(ctx, &event.FriendRemoved{Player: requester, Target: targetKey})
	return nil
}

// AddIgnore 将 targetKey 加入 requester 的屏蔽列表。
func (e *Engine) AddIgnore(ctx context.Context, requester *player.Player, targetKey uint64) error {
	if err := e.checkTarget(requester, targetKey); err != nil {
		return err
	}

	_, added, err := e.mutate(requester, targetKey, func(r *player.Relations) (bool, error) {
		return r.AddIgnore(targetKey, identity.Display(targetKey))
	})
	if err != nil || !added {
		return err
	}
	e.dispatcher.Dispatch(ctx, &event.IgnoreAdded{Player: requester, Target: targetKey})
	return nil
}

// RemoveIgnore 从 requester 的屏蔽列表移除 targetKey。
func (e *Engine) RemoveIgnore(ctx context.Context, requester *player.Player, targetKey uint64) error {
	_, removed, _ := e.mutate(requester, targetKey, func(r *player.Relations) (bool, error) {
		return r.RemoveIgnore(targetKey), nil
	})
	if !removed {
		return merr.WrapErrRelationNotFound(identity.Display(targetKey), "ignored")
	}
	e.dispatcher.Dispatch(ctx, &event.IgnoreRemoved{Player: requester, Target: targetKey})
	return nil
}

// SetPrivacyMode 修改隐私模式并向所有把 p 加为好友的在线玩家推送新的可见性。
//
// 模式未变化时不做任何推送。
func (e *Engine) SetPrivacyMode(ctx context.Context, p *player.Player, mode player.PrivacyMode) error {
	if !mode.Valid() {
		return merr.WrapErrParameterInvalidMsg("invalid privacy mode %d", mode)
	}
	prev, changed := p.Relations().SetMode(mode)
	if !changed {
		return nil
	}

	_ = p.Send(protocol.OpPrivacySettings, &protocol.PrivacySettings{Mode: uint8(mode)})
	for _, observer := range e.observers(p) {
		e.push(observer, p.Key(), e.Visible(p, observer))
	}
	e.dispatcher.Dispatch(ctx, &event.ChatModeChanged{Player: p, Previous: prev, Mode: mode})
	return nil
}

// SendPrivateMessage 向 targetKey 投递一条私聊消息。
//
// 目标不在线时只提示发送方。发送方的隐私模式会按需放宽，使接收方能够回复：
// Private 放宽为 FriendsOnly（目标是好友）或 Public；FriendsOnly 且目标不是好友时放宽为 Public。
// 目标屏蔽了发送方时消息被丢弃。
func (e *Engine) SendPrivateMessage(ctx context.Context, sender *player.Player, targetKey uint64, text string) error {
	target, ok := e.registry.Lookup(targetKey)
	if !ok || target.Stage() != player.StageLoggedIn {
		_ = sender.SendMessage(OfflineNotice)
		return merr.WrapErrPlayerOffline(identity.Display(targetKey))
	}

	relations := sender.Relations()
	isFriend := relations.HasFriend(targetKey)
	switch mode := relations.Mode(); {
	case mode == player.PrivacyPrivate && isFriend:
		_ = e.SetPrivacyMode(ctx, sender, player.PrivacyFriendsOnly)
	case mode == player.PrivacyPrivate,
		mode == player.PrivacyFriendsOnly && !isFriend:
		_ = e.SetPrivacyMode(ctx, sender, player.PrivacyPublic)
	}

	if target.Relations().IsIgnoring(sender.Key()) {
		e.Logger().Debug("private message dropped, sender is ignored",
			log.FieldPlayer(sender.String()), zap.String("target", target.String()))
		return nil
	}

	seq := e.sequence.Inc()
	err := target.Send(protocol.OpPrivateMessageRecv, &protocol.PrivateMessage{
		SenderKey: sender.Key(),
		Sequence:  seq,
		Privilege: uint8(sender.Privilege()),
		Text:      text,
	})
	if err != nil {
		return err
	}
	metrics.PresencePrivateMessages.Inc()
	e.dispatcher.Dispatch(ctx, &event.PrivateMessageSent{Player: sender, Target: targetKey, Sequence: seq, Text: text})
	return nil
}

// LastSequence 返回最近一次分配的私聊序号。
func (e *Engine) LastSequence() uint64 {
	return e.sequence.Load()
}

// ID 实现 event.Handler。
func (e *Engine) ID() string {
	return HandlerID
}

// Handle 实现 event.Handler，响应登录与登出。
func (e *Engine) Handle(_ context.Context, ev event.Event) error {
	switch ev := ev.(type) {
	case *event.PlayerLoggedOn:
		e.onLogin(ev.Player)
	case *event.PlayerLoggedOut:
		e.onLogout(ev.Player)
	}
	return nil
}

// onLogin 向新登录的玩家推送好友与屏蔽列表，并通知把他加为好友的在线玩家。
func (e *Engine) onLogin(p *player.Player) {
	_ = p.Send(protocol.OpFriendsListStatus, &protocol.FriendsListStatus{Status: protocol.FriendsListConnecting})
	_ = p.Send(protocol.OpIgnoreList, &protocol.IgnoreList{Keys: p.Relations().IgnoredKeys()})
	for _, key := range p.Relations().FriendKeys() {
		friend, _ := e.registry.Lookup(key)
		e.push(p, key, e.Visible(friend, p))
	}
	_ = p.Send(protocol.OpFriendsListStatus, &protocol.FriendsListStatus{Status: protocol.FriendsListConnected})

	for _, observer := range e.observers(p) {
		e.push(observer, p.Key(), e.Visible(p, observer))
	}
}

// onLogout 通知把离线玩家加为好友的在线玩家。
func (e *Engine) onLogout(p *player.Player) {
	for _, observer := range e.observers(p) {
		e.push(observer, p.Key(), false)
	}
}

func (e *Engine) checkTarget(requester *player.Player, targetKey uint64) error {
	if targetKey == requester.Key() {
		return merr.WrapErrRelationSelf(requester.Name())
	}
	return identity.ValidateUsername(identity.Decode(targetKey))
}

// mutate 对 requester 的关系记录执行 fn，并在 requester 对目标的可见性发生变化
// 且目标把 requester 加为好友时向目标推送。返回在线的目标（可能为 nil）。
func (e *Engine) mutate(requester *player.Player, targetKey uint64, fn func(r *player.Relations) (bool, error)) (*player.Player, bool, error) {
	target, online := e.registry.Lookup(targetKey)
	before := online && e.Visible(requester, target)

	changed, err := fn(requester.Relations())
	if err != nil || !changed || !online {
		return target, changed, err
	}
	if target.Relations().HasFriend(requester.Key()) {
		if after := e.Visible(requester, target); after != before {
			e.push(target, requester.Key(), after)
		}
	}
	return target, changed, nil
}

// observers 返回把 target 加为好友的在线玩家快照。
func (e *Engine) observers(target *player.Player) []*player.Player {
	var out []*player.Player
	e.registry.Range(func(q *player.Player) bool {
		if q != target && q.Stage() == player.StageLoggedIn && q.Relations().HasFriend(target.Key()) {
			out = append(out, q)
		}
		return true
	})
	return out
}

// push 向 observer 推送 key 的在线状态。
func (e *Engine) push(observer *player.Player, key uint64, online bool) {
	var world uint16
	status := "offline"
	if online {
		world = e.worldID
		status = "online"
	}
	if err := observer.Send(protocol.OpFriendStatus, &protocol.FriendStatus{Key: key, World: world}); err != nil {
		e.Logger().RatedDebug(1, "push friend status failed", log.FieldPlayer(observer.String()), zap.Error(err))
		return
	}
	metrics.PresenceStatusPushes.WithLabelValues(status).Inc()
}
