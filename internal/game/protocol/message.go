package protocol

// LoginRequest 为客户端登录请求。
type LoginRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	ClientVersion string `json:"client_version"`
}

// LoginResponse 为固定三字段的登录响应。
type LoginResponse struct {
	Code      LoginCode `json:"code"`
	Privilege uint8     `json:"privilege"`
	Reserved  uint8     `json:"reserved"`
}

// Empty 用于没有负载的请求与推送（登出、心跳、按钮重置等）。
type Empty struct{}

// TargetRequest 为针对某个玩家的关系操作请求。
type TargetRequest struct {
	Key uint64 `json:"key"`
}

// PrivacyModeRequest 设置私聊隐私模式。
type PrivacyModeRequest struct {
	Mode uint8 `json:"mode"`
}

// PrivateMessageRequest 为私聊请求。
type PrivateMessageRequest struct {
	Key  uint64 `json:"key"`
	Text string `json:"text"`
}

// PublicChatRequest 为公共聊天请求。
type PublicChatRequest struct {
	Color   uint8  `json:"color"`
	Effects uint8  `json:"effects"`
	Text    string `json:"text"`
}

// TeleportRequest 为管理员传送指令。
type TeleportRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// GameMessage 为显示在聊天框中的系统消息。
type GameMessage struct {
	Text string `json:"text"`
}

// MapRegion 通知客户端加载以 (X, Y) 为中心的地图区域。
type MapRegion struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Inventory、Skills、Equipment 的具体内容由外部协作方填充。
type Inventory struct {
	Items []ItemSlot `json:"items,omitempty"`
}

type ItemSlot struct {
	ID     int `json:"id"`
	Amount int `json:"amount"`
}

type Skills struct {
	Levels []int `json:"levels,omitempty"`
}

type Equipment struct {
	Items []ItemSlot `json:"items,omitempty"`
}

type WeaponInterface struct {
	ID int `json:"id"`
}

type SidebarInterface struct {
	Tab int `json:"tab"`
	ID  int `json:"id"`
}

type RunEnergy struct {
	Energy int `json:"energy"`
}

// FriendsListStatus 推送好友列表状态：1 连接中，2 已连接。
type FriendsListStatus struct {
	Status uint8 `json:"status"`
}

// FriendStatus 推送某个好友的在线状态，World 为 0 表示离线。
type FriendStatus struct {
	Key   uint64 `json:"key"`
	World uint16 `json:"world"`
}

// IgnoreList 推送完整的屏蔽列表。
type IgnoreList struct {
	Keys []uint64 `json:"keys"`
}

// PrivateMessage 为投递给接收方的私聊消息。
type PrivateMessage struct {
	SenderKey uint64 `json:"sender_key"`
	Sequence  uint64 `json:"sequence"`
	Privilege uint8  `json:"privilege"`
	Text      string `json:"text"`
}

// PrivacySettings 回显玩家当前的隐私模式。
type PrivacySettings struct {
	Mode uint8 `json:"mode"`
}

// PlayerUpdate 为每个 tick 下发的玩家同步帧：自身块与可见玩家块。
type PlayerUpdate struct {
	Tick   uint64        `json:"tick"`
	Self   UpdateBlock   `json:"self"`
	Others []UpdateBlock `json:"others,omitempty"`
}

// UpdateBlock 为单个玩家的同步块，可选字段仅在对应标记置位时出现。
type UpdateBlock struct {
	Key       uint64 `json:"key"`
	Primary   int8   `json:"primary"`
	Secondary int8   `json:"secondary"`

	ForceChat     *string        `json:"force_chat,omitempty"`
	PublicChat    *PublicChat    `json:"public_chat,omitempty"`
	Animation     *Animation     `json:"animation,omitempty"`
	Graphics      *Graphics      `json:"graphics,omitempty"`
	PrimaryHit    *Hit           `json:"primary_hit,omitempty"`
	SecondaryHit  *Hit           `json:"secondary_hit,omitempty"`
	Facing        *Facing        `json:"facing,omitempty"`
	AsyncMovement *AsyncMovement `json:"async_movement,omitempty"`
	Appearance    *Appearance    `json:"appearance,omitempty"`
}

type PublicChat struct {
	Color   uint8  `json:"color"`
	Effects uint8  `json:"effects"`
	Text    string `json:"text"`
}

type Animation struct {
	ID    int `json:"id"`
	Delay int `json:"delay"`
}

type Graphics struct {
	ID    int `json:"id"`
	Delay int `json:"delay"`
}

type Hit struct {
	Damage int `json:"damage"`
	Type   int `json:"type"`
}

type Facing struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type AsyncMovement struct {
	StartX    int `json:"start_x"`
	StartY    int `json:"start_y"`
	EndX      int `json:"end_x"`
	EndY      int `json:"end_y"`
	StartTick int `json:"start_tick"`
	EndTick   int `json:"end_tick"`
	Direction int `json:"direction"`
}

type Appearance struct {
	Name      string `json:"name"`
	Privilege uint8  `json:"privilege"`
}
