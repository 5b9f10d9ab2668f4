package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biovault/internal/shared/cache"
	"biovault/internal/shared/model"
)

// testStore 连接测试 Redis（默认 db 15），不可用时跳过
func testStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		url = "redis://localhost:6379/15"
	}
	s, err := NewStoreFromURL(url, time.Minute)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SetAndGetUser(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	user := &model.User{
		ID:            "665f1c2e9b1d4a0012345678",
		WalletAddress: "0xCacheTest",
		Role:          model.UserRoleResearcher,
		CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
	t.Cleanup(func() { s.Client().Del(ctx, cache.KeyUserByWallet+user.WalletAddress) })

	require.NoError(t, s.SetUser(ctx, user))

	got, err := s.GetUser(ctx, "0xCacheTest")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Role, got.Role)
	assert.True(t, user.CreatedAt.Equal(got.CreatedAt))

	ttl, err := s.Client().TTL(ctx, cache.KeyUserByWallet+user.WalletAddress).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestStore_GetUserMiss(t *testing.T) {
	s := testStore(t)

	got, err := s.GetUser(context.Background(), "0xNeverCached")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewStoreFromClient_DefaultTTL(t *testing.T) {
	s := NewStoreFromClient(nil, 0)
	assert.Equal(t, cache.DefaultUserTTL, s.ttl)
}
