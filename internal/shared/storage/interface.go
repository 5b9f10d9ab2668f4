// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/、repository/（PostgreSQL、SQLite）、memstore/
//   - 初始化时通过依赖注入传入实现（见 infra.NewUserStore）
package storage

import (
	"context"

	"biovault/internal/shared/model"
)

// UserStore 用户存储接口
//
// 钱包地址唯一性必须由存储引擎的唯一约束保证，
// CreateUser 在冲突时返回 ErrDuplicate，调用方不得依赖"先查后写"。
type UserStore interface {
	// CreateUser 创建用户；若 user.ID 为空由存储分配
	CreateUser(ctx context.Context, user *model.User) error
	// GetUserByWallet 按钱包地址查找（大小写敏感），不存在返回 (nil, nil)
	GetUserByWallet(ctx context.Context, address string) (*model.User, error)
	// GetUserByID 按 ID 查找，不存在返回 (nil, nil)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// Ping 健康检查
	Ping(ctx context.Context) error
	Close() error
}
