package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"biovault/internal/shared/model"
	"biovault/internal/shared/storage"

	"github.com/google/uuid"
)

const userColumns = `id, wallet_address, role, created_at`

// CreateUser 创建用户，wallet_address 唯一约束冲突时返回 storage.ErrDuplicate
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.CreatedAt = user.CreatedAt.UTC().Truncate(time.Microsecond)

	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4)`),
		user.ID, user.WalletAddress, string(user.Role), user.CreatedAt,
	)
	if err != nil && s.dialect.IsUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

// GetUserByWallet 通过钱包地址查找用户（精确匹配，大小写敏感）
func (s *Store) GetUserByWallet(ctx context.Context, address string) (*model.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE wallet_address = $1`, address)
}

// GetUserByID 通过 ID 查找用户
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}
	var role string
	err := s.db.QueryRowContext(ctx, s.rebind(query), arg).
		Scan(&user.ID, &user.WalletAddress, &role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user.Role = model.UserRole(role)
	return user, nil
}
