package storage

import (
	"context"
	"sync"

	"github.com/lk2023060901/rs-world-go/internal/game/identity"
	"github.com/lk2023060901/rs-world-go/pkg/util/merr"
)

// MemoryStore 为基于内存的档案存储，用于测试与无持久化部署。
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[uint64]*Profile
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[uint64]*Profile)}
}

func (s *MemoryStore) Load(ctx context.Context, key uint64) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	pr, ok := s.profiles[key]
	if !ok {
		return nil, merr.WrapErrProfileNotFound(identity.Decode(key))
	}
	return pr.clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, profile *Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if profile == nil || profile.Key == 0 {
		return merr.WrapErrParameterMissing("profile.key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.Key] = profile.clone()
	return nil
}

// Len 返回档案数量。
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

func (s *MemoryStore) Close() error { return nil }
