// Package event 提供进程级的事件分发：会话生命周期与好友关系变化通过 Dispatcher
// 通知给已注册的处理器（好友引擎、持久化、扩展等）。
package event

import (
	"github.com/lk2023060901/rs-world-go/internal/game/player"
)

// Kind 为事件类型。
type Kind uint8

const (
	KindPlayerLoggedOn Kind = iota + 1
	KindPlayerLoggedOut
	KindFriendAdded
	KindFriendRemoved
	KindIgnoreAdded
	KindIgnoreRemoved
	KindPrivateMessageSent
	KindChatModeChanged
)

// Kinds 返回全部事件类型。
func Kinds() []Kind {
	return []Kind{
		KindPlayerLoggedOn,
		KindPlayerLoggedOut,
		KindFriendAdded,
		KindFriendRemoved,
		KindIgnoreAdded,
		KindIgnoreRemoved,
		KindPrivateMessageSent,
		KindChatModeChanged,
	}
}

func (k Kind) String() string {
	switch k {
	case KindPlayerLoggedOn:
		return "PlayerLoggedOn"
	case KindPlayerLoggedOut:
		return "PlayerLoggedOut"
	case KindFriendAdded:
		return "FriendAdded"
	case KindFriendRemoved:
		return "FriendRemoved"
	case KindIgnoreAdded:
		return "IgnoreAdded"
	case KindIgnoreRemoved:
		return "IgnoreRemoved"
	case KindPrivateMessageSent:
		return "PrivateMessageSent"
	case KindChatModeChanged:
		return "ChatModeChanged"
	default:
		return "Unknown"
	}
}

// Event 为分发后不可修改的事件负载。
type Event interface {
	Kind() Kind
	// Source 返回触发事件的玩家。
	Source() *player.Player
}

type PlayerLoggedOn struct {
	Player     *player.Player
	NewAccount bool
}

func (e *PlayerLoggedOn) Kind() Kind             { return KindPlayerLoggedOn }
func (e *PlayerLoggedOn) Source() *player.Player { return e.Player }

type PlayerLoggedOut struct {
	Player *player.Player
}

func (e *PlayerLoggedOut) Kind() Kind             { return KindPlayerLoggedOut }
func (e *PlayerLoggedOut) Source() *player.Player { return e.Player }

type FriendAdded struct {
	Player *player.Player
	Target uint64
}

func (e *FriendAdded) Kind() Kind             { return KindFriendAdded }
func (e *FriendAdded) Source() *player.Player { return e.Player }

type FriendRemoved struct {
	Player *player.Player
	Target uint64
}

func (e *FriendRemoved) Kind() Kind             { return KindFriendRemoved }
func (e *FriendRemoved) Source() *player.Player { return e.Player }

type IgnoreAdded struct {
	Player *player.Player
	Target uint64
}

func (e *IgnoreAdded) Kind() Kind             { return KindIgnoreAdded }
func (e *IgnoreAdded) Source() *player.Player { return e.Player }

type IgnoreRemoved struct {
	Player *player.Player
	Target uint64
}

func (e *IgnoreRemoved) Kind() Kind             { return KindIgnoreRemoved }
func (e *IgnoreRemoved) Source() *player.Player { return e.Player }

type PrivateMessageSent struct {
	Player   *player.Player
	Target   uint64
	Sequence uint64
	Text     string
}

func (e *PrivateMessageSent) Kind() Kind             { return KindPrivateMessageSent }
func (e *PrivateMessageSent) Source() *player.Player { return e.Player }

type ChatModeChanged struct {
	Player   *player.Player
	Previous player.PrivacyMode
	Mode     player.PrivacyMode
}

func (e *ChatModeChanged) Kind() Kind             { return KindChatModeChanged }
func (e *ChatModeChanged) Source() *player.Player { return e.Player }
