// Package repository SQLite 集成测试
//
// 使用临时文件 SQLite 数据库验证 repository 层用户存储的正确性。
// 无需外部数据库依赖，可在任何环境下运行。
package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"biovault/internal/shared/model"
	"biovault/internal/shared/storage"
	"biovault/internal/shared/storage/dbutil"
	sqlitedriver "biovault/internal/shared/storage/driver/sqlite"
	"biovault/internal/shared/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore 创建用于测试的 SQLite 临时文件数据库 Store
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlitedriver.Open(filepath.Join(t.TempDir(), "biovault.db"))
	require.NoError(t, err)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })
	return store
}

// ============================================================================
// Dialect 基础测试
// ============================================================================

func TestDialectTypes(t *testing.T) {
	d := sqlitedriver.NewDialect()
	assert.Equal(t, dbutil.DriverSQLite, d.DriverType())
	assert.Equal(t, "datetime('now')", d.CurrentTimestamp())
	assert.False(t, d.IsUniqueViolation(nil))
}

func TestRebind(t *testing.T) {
	d := sqlitedriver.NewDialect()
	assert.Equal(t, "SELECT * FROM users WHERE id = ? AND role = ?",
		d.Rebind("SELECT * FROM users WHERE id = $1 AND role = $2"))
	assert.Equal(t, "SELECT * FROM users WHERE role = ?",
		d.Rebind("SELECT * FROM users WHERE role = $1::varchar"))
}

// ============================================================================
// UserStore 测试
// ============================================================================

func TestUserStore(t *testing.T) {
	storagetest.RunUserStoreTests(t, func(t *testing.T) storage.UserStore {
		return newTestStore(t)
	})
}

func TestCreateUser_AssignsUUID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &model.User{WalletAddress: "0xUUID", Role: model.UserRolePatient}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.Len(t, u.ID, 36)
	assert.WithinDuration(t, time.Now(), u.CreatedAt, 5*time.Second)

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "0xUUID", got.WalletAddress)
	assert.Equal(t, model.UserRolePatient, got.Role)
}

func TestCreateUser_RejectsUnknownRole(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateUser(context.Background(), &model.User{WalletAddress: "0xBAD", Role: "admin"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrDuplicate)
}
