package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	autherrors "roombook/internal/auth/errors"
	"roombook/pkg/config"
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const TokenCollectionName = "Tokens"

type TokenRepository interface {
	Create(ctx context.Context, token *model.Token) error
	FindByKey(ctx context.Context, key string) (*model.Token, error)
	Delete(ctx context.Context, key string) error
	EnsureIndexes(ctx context.Context) error
}

type mongoTokenRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTokenRepository(cfg *config.Config) TokenRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTokenRepository{
		cfg:        cfg,
		collection: db.Collection(TokenCollectionName),
	}
}

// EnsureIndexes creates the TTL index that reaps expired tokens.
func (r *mongoTokenRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("failed to create token TTL index: %w", err)
	}
	return nil
}

func (r *mongoTokenRepository) Create(ctx context.Context, token *model.Token) error {
	token.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.collection.InsertOne(ctx, token); err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

func (r *mongoTokenRepository) FindByKey(ctx context.Context, key string) (*model.Token, error) {
	var token model.Token
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, autherrors.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to find token: %w", err)
	}

	return &token, nil
}

func (r *mongoTokenRepository) Delete(ctx context.Context, key string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	if result.DeletedCount == 0 {
		return autherrors.ErrTokenNotFound
	}

	return nil
}
