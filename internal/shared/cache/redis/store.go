// Package redis Redis 缓存实现
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"biovault/internal/shared/cache"
	"biovault/internal/shared/model"
)

// Store Redis 用户缓存
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

var _ cache.UserCache = (*Store)(nil)

// NewStoreFromURL 从 URL 创建 Redis 缓存实例
func NewStoreFromURL(redisURL string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[Redis/Cache] Connected to %s", opts.Addr)
	return NewStoreFromClient(client, ttl), nil
}

// NewStoreFromClient 从现有 Redis 客户端创建缓存实例
func NewStoreFromClient(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = cache.DefaultUserTTL
	}
	return &Store{client: client, ttl: ttl}
}

// GetUser 读取缓存的用户记录，未命中返回 (nil, nil)
func (s *Store) GetUser(ctx context.Context, address string) (*model.User, error) {
	data, err := s.client.Get(ctx, cache.KeyUserByWallet+address).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUser 写入用户记录
func (s *Store) SetUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cache.KeyUserByWallet+user.WalletAddress, data, s.ttl).Err()
}

// Close 关闭 Redis 连接
func (s *Store) Close() error {
	return s.client.Close()
}

// Client 返回底层 Redis 客户端
func (s *Store) Client() *redis.Client {
	return s.client
}
