// Package protocol 定义世界服务器与客户端之间的操作码与消息结构。
package protocol

// 客户端 -> 服务器。
const (
	OpLogin uint32 = iota + 1
	OpLogout
	OpKeepAlive
	OpAddFriend
	OpRemoveFriend
	OpAddIgnore
	OpRemoveIgnore
	OpPrivacyMode
	OpPrivateMessage
	OpPublicChat
	OpTeleport
)

// 服务器 -> 客户端。
const (
	OpLoginResponse uint32 = iota + 100
	OpGameMessage
	OpMapRegion
	OpInventory
	OpSkills
	OpEquipment
	OpWeaponInterface
	OpSidebarInterface
	OpRunEnergy
	OpResetButtons
	OpFriendsListStatus
	OpFriendStatus
	OpIgnoreList
	OpPrivateMessageRecv
	OpPrivacySettings
	OpPlayerUpdate
	OpLogoutAck
)

// LoginCode 为登录响应码。
type LoginCode uint8

const (
	LoginOk                   LoginCode = 2
	LoginInvalidCredentials   LoginCode = 3
	LoginAccountDisabled      LoginCode = 4
	LoginAccountAlreadyOnline LoginCode = 5
	LoginGameUpdated          LoginCode = 6
	LoginWorldFull            LoginCode = 7
	LoginLimitExceeded        LoginCode = 9
	LoginAttemptsExceeded     LoginCode = 16
)

func (c LoginCode) String() string {
	switch c {
	case LoginOk:
		return "ok"
	case LoginInvalidCredentials:
		return "invalid_credentials"
	case LoginAccountDisabled:
		return "account_disabled"
	case LoginAccountAlreadyOnline:
		return "account_online"
	case LoginGameUpdated:
		return "game_updated"
	case LoginWorldFull:
		return "world_full"
	case LoginLimitExceeded:
		return "login_limit_exceeded"
	case LoginAttemptsExceeded:
		return "attempts_exceeded"
	default:
		return "unknown"
	}
}

// FriendsListStatus 为好友列表加载状态。
const (
	FriendsListLoading    uint8 = 0
	FriendsListConnecting uint8 = 1
	FriendsListConnected  uint8 = 2
)
