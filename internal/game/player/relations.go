package player

import (
	"sync"

	"github.com/samber/lo"

	"github.com/lk2023060901/rs-world-go/internal/game/identity"
	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
	"github.com/lk2023060901/rs-world-go/pkg/util/typeutil"
)

const (
	MaxFriends = 100
	MaxIgnores = 100
)

// Relations 为玩家的好友列表、屏蔽列表与隐私模式。
//
// 只由所属玩家（通过好友引擎）修改，其他玩家在计算可见性时并发读取。
// 好友与屏蔽的互斥只在添加时检查。
type Relations struct {
	mu      sync.RWMutex
	friends map[uint64]string
	ignored typeutil.KeySet
	mode    PrivacyMode
}

// NewRelations 创建一个空的关系记录，隐私模式为 Public。
func NewRelations() *Relations {
	return &Relations{
		friends: make(map[uint64]string),
		ignored: typeutil.NewKeySet(),
	}
}

// Restore 用持久化的数据覆盖当前记录，超出上限的部分被截断。
func (r *Relations) Restore(friends []uint64, ignored []uint64, mode PrivacyMode) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.friends = make(map[uint64]string, len(friends))
	for _, key := range lo.Uniq(friends) {
		if len(r.friends) >= MaxFriends {
			break
		}
		r.friends[key] = identity.Display(key)
	}
	r.ignored = typeutil.NewKeySet()
	for _, key := range lo.Uniq(ignored) {
		if r.ignored.Len() >= MaxIgnores {
			break
		}
		if _, ok := r.friends[key]; ok {
			continue
		}
		r.ignored.Insert(key)
	}
	if !mode.Valid() {
		mode = PrivacyPublic
	}
	r.mode = mode
}

// AddFriend 添加好友，已存在时返回 false。
func (r *Relations) AddFriend(key uint64, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.friends[key]; ok {
		return false, nil
	}
	if r.ignored.Contain(key) {
		return false, merr.WrapErrRelationConflict(name, "ignored")
	}
	if len(r.friends) >= MaxFriends {
		return false, merr.WrapErrRelationListFull("friends", MaxFriends)
	}
	r.friends[key] = name
	return true, nil
}

// RemoveFriend 移除好友，不存在时返回 false。
func (r *Relations) RemoveFriend(key uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.friends[key]; !ok {
		return false
	}
	delete(r.friends, key)
	return true
}

// AddIgnore 添加屏蔽，已存在时返回 false。
func (r *Relations) AddIgnore(key uint64, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ignored.Contain(key) {
		return false, nil
	}
	if _, ok := r.friends[key]; ok {
		return false, merr.WrapErrRelationConflict(name, "friends")
	}
	if r.ignored.Len() >= MaxIgnores {
		return false, merr.WrapErrRelationListFull("ignored", MaxIgnores)
	}
	r.ignored.Insert(key)
	return true, nil
}

// RemoveIgnore 移除屏蔽，不存在时返回 false。
func (r *Relations) RemoveIgnore(key uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ignored.Contain(key) {
		return false
	}
	r.ignored.Remove(key)
	return true
}

func (r *Relations) HasFriend(key uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.friends[key]
	return ok
}

func (r *Relations) IsIgnoring(key uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ignored.Contain(key)
}

func (r *Relations) Mode() PrivacyMode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mode
}

// SetMode 设置隐私模式，返回之前的模式以及是否发生变化。
func (r *Relations) SetMode(mode PrivacyMode) (PrivacyMode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.mode
	if prev == mode {
		return prev, false
	}
	r.mode = mode
	return prev, true
}

// FriendKeys 返回好友身份键的快照。
func (r *Relations) FriendKeys() []uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.friends)
}

// IgnoredKeys 返回屏蔽身份键的快照。
func (r *Relations) IgnoredKeys() []uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ignored.Collect()
}

func (r *Relations) FriendCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.friends)
}

// AllowsObserver 在一次加锁内判断 observer 是否能看到该记录所属的玩家在线。
//
// 不包含“所属玩家是否在线”的判断。
func (r *Relations) AllowsObserver(observer uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.ignored.Contain(observer) {
		return false
	}
	switch r.mode {
	case PrivacyPrivate:
		return false
	case PrivacyFriendsOnly:
		_, ok := r.friends[observer]
		return ok
	default:
		return true
	}
}
