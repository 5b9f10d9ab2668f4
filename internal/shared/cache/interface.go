// Package cache 缓存层抽象接口
//
// 提供用户记录的读穿缓存，当前由 Redis 实现。
// 用户记录创建后不可变，因此缓存无需失效逻辑，只依赖 TTL 过期。
package cache

import (
	"context"
	"time"

	"biovault/internal/shared/model"
)

// ============================================================================
// Key 前缀和 TTL 常量
// ============================================================================

const (
	// KeyUserByWallet 按钱包地址缓存用户记录
	KeyUserByWallet = "biovault:user:wallet:"

	// DefaultUserTTL 用户记录默认缓存时间
	DefaultUserTTL = 10 * time.Minute
)

// UserCache 用户缓存接口
//
// GetUser 未命中时返回 (nil, nil)。不缓存"用户不存在"，
// 否则注册后的首次查询会读到过期的否定结果。
type UserCache interface {
	GetUser(ctx context.Context, address string) (*model.User, error)
	SetUser(ctx context.Context, user *model.User) error
	Close() error
}
