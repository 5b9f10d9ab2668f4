package mongostore

import (
	"context"
	"time"

	"biovault/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = bson.NewObjectID().Hex()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	// BSON 日期精度为毫秒，提前截断保证返回值与库中一致
	user.CreatedAt = user.CreatedAt.UTC().Truncate(time.Millisecond)
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) GetUserByWallet(ctx context.Context, address string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "wallet_address", Value: address}})
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}
