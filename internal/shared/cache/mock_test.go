package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biovault/internal/shared/model"
)

func TestNoOpCache_AlwaysMisses(t *testing.T) {
	c := NewNoOpCache()
	ctx := context.Background()

	require.NoError(t, c.SetUser(ctx, &model.User{WalletAddress: "0xABC"}))
	got, err := c.GetUser(ctx, "0xABC")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, c.Close())
}
