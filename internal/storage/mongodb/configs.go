package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sirosfoundation/go-vc-authn/internal/domain"
	"github.com/sirosfoundation/go-vc-authn/internal/storage"
)

// PresentationConfigStore implements MongoDB presentation configuration storage
type PresentationConfigStore struct {
	collection *mongo.Collection
}

func (s *PresentationConfigStore) GetByID(ctx context.Context, id string) (*domain.PresentationConfig, error) {
	var config domain.PresentationConfig
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&config)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get presentation config: %w", err)
	}
	return &config, nil
}

func (s *PresentationConfigStore) Put(ctx context.Context, config *domain.PresentationConfig) error {
	if config.ID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": config.ID},
		config,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to store presentation config: %w", err)
	}
	return nil
}

func (s *PresentationConfigStore) GetAll(ctx context.Context) ([]*domain.PresentationConfig, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to get presentation configs: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var configs []*domain.PresentationConfig
	if err := cursor.All(ctx, &configs); err != nil {
		return nil, fmt.Errorf("failed to decode presentation configs: %w", err)
	}
	return configs, nil
}

func (s *PresentationConfigStore) Delete(ctx context.Context, id string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete presentation config: %w", err)
	}
	if result.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ShortURLStore implements MongoDB short URL storage
type ShortURLStore struct {
	collection *mongo.Collection
}

func (s *ShortURLStore) Put(ctx context.Context, shortURL *domain.ShortURL) error {
	if shortURL.Key == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": shortURL.Key},
		shortURL,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to store short URL: %w", err)
	}
	return nil
}

func (s *ShortURLStore) Get(ctx context.Context, key string) (*domain.ShortURL, error) {
	var shortURL domain.ShortURL
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&shortURL)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get short URL: %w", err)
	}
	return &shortURL, nil
}

func (s *ShortURLStore) Delete(ctx context.Context, key string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return fmt.Errorf("failed to delete short URL: %w", err)
	}
	if result.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
