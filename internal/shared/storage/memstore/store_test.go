package memstore

import (
	"context"
	"testing"

	"biovault/internal/shared/model"
	"biovault/internal/shared/storage"
	"biovault/internal/shared/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserStore(t *testing.T) {
	storagetest.RunUserStoreTests(t, func(t *testing.T) storage.UserStore {
		return New()
	})
}

func TestGetUser_ReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &model.User{WalletAddress: "0xABC", Role: model.UserRolePatient}))

	got, err := s.GetUserByWallet(ctx, "0xABC")
	require.NoError(t, err)
	got.Role = model.UserRoleResearcher

	again, err := s.GetUserByWallet(ctx, "0xABC")
	require.NoError(t, err)
	assert.Equal(t, model.UserRolePatient, again.Role)
}

func TestCanceledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.CreateUser(ctx, &model.User{WalletAddress: "0xABC", Role: model.UserRolePatient})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Ping(ctx), context.Canceled)
}
