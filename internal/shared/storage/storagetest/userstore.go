// Package storagetest 提供 storage.UserStore 的通用一致性测试
//
// 每个驱动（mongostore、repository、memstore）在自己的测试中调用 RunUserStoreTests，
// 保证各实现对唯一性、大小写敏感和"不存在返回 (nil, nil)"的约定一致。
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"biovault/internal/shared/model"
	"biovault/internal/shared/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory 为每个子测试创建一个干净的存储实例
type Factory func(t *testing.T) storage.UserStore

// RunUserStoreTests 运行 UserStore 一致性测试
func RunUserStoreTests(t *testing.T, newStore Factory) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("Duplicate", func(t *testing.T) { testDuplicate(t, newStore(t)) })
	t.Run("CaseSensitive", func(t *testing.T) { testCaseSensitive(t, newStore(t)) })
	t.Run("ConcurrentCreate", func(t *testing.T) { testConcurrentCreate(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) {
		require.NoError(t, newStore(t).Ping(context.Background()))
	})
}

func testCreateAndGet(t *testing.T, s storage.UserStore) {
	ctx := context.Background()

	user := &model.User{WalletAddress: "0xABC", Role: model.UserRolePatient}
	require.NoError(t, s.CreateUser(ctx, user))
	require.NotEmpty(t, user.ID, "store must assign an id")
	require.False(t, user.CreatedAt.IsZero(), "store must set created_at")

	got, err := s.GetUserByWallet(ctx, "0xABC")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "0xABC", got.WalletAddress)
	assert.Equal(t, model.UserRolePatient, got.Role)
	assert.WithinDuration(t, user.CreatedAt, got.CreatedAt, time.Second)

	byID, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "0xABC", byID.WalletAddress)
}

func testNotFound(t *testing.T, s storage.UserStore) {
	ctx := context.Background()

	got, err := s.GetUserByWallet(ctx, "0xDEF")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.GetUserByID(ctx, "missing-id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testDuplicate(t *testing.T, s storage.UserStore) {
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &model.User{WalletAddress: "0xABC", Role: model.UserRolePatient}))

	err := s.CreateUser(ctx, &model.User{WalletAddress: "0xABC", Role: model.UserRoleResearcher})
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrDuplicate), "want ErrDuplicate, got %v", err)

	// 原记录未被覆盖
	got, err := s.GetUserByWallet(ctx, "0xABC")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.UserRolePatient, got.Role)
}

func testCaseSensitive(t *testing.T, s storage.UserStore) {
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &model.User{WalletAddress: "0xAbC", Role: model.UserRolePatient}))

	got, err := s.GetUserByWallet(ctx, "0xabc")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.CreateUser(ctx, &model.User{WalletAddress: "0xabc", Role: model.UserRoleResearcher}))
}

func testConcurrentCreate(t *testing.T, s storage.UserStore) {
	ctx := context.Background()
	const workers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dups      int
		others    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			role := model.UserRolePatient
			if i%2 == 1 {
				role = model.UserRoleResearcher
			}
			err := s.CreateUser(ctx, &model.User{WalletAddress: "0xRACE", Role: role})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, storage.ErrDuplicate):
				dups++
			default:
				others = append(others, fmt.Errorf("worker %d: %w", i, err))
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, others)
	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, dups)
}
