// Package cache 缓存层 mock 实现
package cache

import (
	"context"

	"biovault/internal/shared/model"
)

// NoOpCache 是一个不做任何操作的 UserCache 实现
// 未配置 Redis 时使用，每次查询都直接访问存储层
type NoOpCache struct{}

// NewNoOpCache 创建 NoOpCache 实例
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) GetUser(ctx context.Context, address string) (*model.User, error) {
	return nil, nil
}

func (c *NoOpCache) SetUser(ctx context.Context, user *model.User) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}

var _ UserCache = (*NoOpCache)(nil)
