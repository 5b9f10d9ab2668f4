// Package memstore 进程内用户存储
//
// 用于测试和无外部依赖的本地运行。数据不持久化，进程退出即丢失。
package memstore

import (
	"context"
	"sync"
	"time"

	"biovault/internal/shared/model"
	"biovault/internal/shared/storage"

	"github.com/google/uuid"
)

// Store 以钱包地址为键的内存存储，互斥锁保证检查与插入的原子性
type Store struct {
	mu       sync.RWMutex
	byWallet map[string]*model.User
	byID     map[string]*model.User
}

var _ storage.UserStore = (*Store)(nil)

// New 创建空的内存存储
func New() *Store {
	return &Store{
		byWallet: make(map[string]*model.User),
		byID:     make(map[string]*model.User),
	}
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byWallet[user.WalletAddress]; ok {
		return storage.ErrDuplicate
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	stored := *user
	s.byWallet[stored.WalletAddress] = &stored
	s.byID[stored.ID] = &stored
	return nil
}

func (s *Store) GetUserByWallet(ctx context.Context, address string) (*model.User, error) {
	return s.get(ctx, s.byWallet, address)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.get(ctx, s.byID, id)
}

func (s *Store) get(ctx context.Context, index map[string]*model.User, key string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := index[key]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}
