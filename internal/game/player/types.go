package player

import "fmt"

// Stage 为会话所处的连接阶段，只能单向推进。
type Stage int32

const (
	StageConnecting Stage = iota
	StageLoggingIn
	StageLoggedIn
	StageLoggedOut
)

func (s Stage) String() string {
	switch s {
	case StageConnecting:
		return "Connecting"
	case StageLoggingIn:
		return "LoggingIn"
	case StageLoggedIn:
		return "LoggedIn"
	case StageLoggedOut:
		return "LoggedOut"
	default:
		return fmt.Sprintf("Stage(%d)", int32(s))
	}
}

// Privilege 为玩家权限等级，登录后不再变化。
type Privilege uint8

const (
	PrivilegeRegular Privilege = iota
	PrivilegeModerator
	PrivilegeAdministrator
)

func (p Privilege) String() string {
	switch p {
	case PrivilegeRegular:
		return "Regular"
	case PrivilegeModerator:
		return "Moderator"
	case PrivilegeAdministrator:
		return "Administrator"
	default:
		return fmt.Sprintf("Privilege(%d)", uint8(p))
	}
}

// PrivacyMode 为私聊隐私模式，决定谁能看到该玩家在线。
type PrivacyMode uint8

const (
	PrivacyPublic PrivacyMode = iota
	PrivacyFriendsOnly
	PrivacyPrivate
)

// Valid 判断模式取值是否合法。
func (m PrivacyMode) Valid() bool {
	return m <= PrivacyPrivate
}

func (m PrivacyMode) String() string {
	switch m {
	case PrivacyPublic:
		return "Public"
	case PrivacyFriendsOnly:
		return "FriendsOnly"
	case PrivacyPrivate:
		return "Private"
	default:
		return fmt.Sprintf("PrivacyMode(%d)", uint8(m))
	}
}

// ViewDistance 为玩家视野半径（格）。
const ViewDistance = 15

// Position 为世界坐标，Z 为楼层。
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// DefaultSpawn 为新账号的出生点。
var DefaultSpawn = Position{X: 3222, Y: 3218, Z: 0}

// ViewableFrom 判断 p 是否位于 other 的视野内。
func (p Position) ViewableFrom(other Position) bool {
	if p.Z != other.Z {
		return false
	}
	dx, dy := p.X-other.X, p.Y-other.Y
	return dx >= -ViewDistance && dx <= ViewDistance && dy >= -ViewDistance && dy <= ViewDistance
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}
