package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sirosfoundation/go-vc-authn/internal/domain"
	"github.com/sirosfoundation/go-vc-authn/internal/storage"
)

// SessionStore implements MongoDB auth session storage
type SessionStore struct {
	collection *mongo.Collection
}

func (s *SessionStore) Create(ctx context.Context, session *domain.AuthSession) error {
	if session.ID == "" || session.CorrelationID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.collection.InsertOne(ctx, session)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *SessionStore) GetBySessionID(ctx context.Context, id string) (*domain.AuthSession, error) {
	var session domain.AuthSession
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (s *SessionStore) GetByCorrelationID(ctx context.Context, id string) (*domain.AuthSession, error) {
	var session domain.AuthSession
	err := s.collection.FindOne(ctx, bson.M{"correlation_id": id}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (s *SessionStore) MarkSatisfiedByCorrelationID(ctx context.Context, correlationID string, proof *domain.PartialPresentation) error {
	// A single conditional update makes the false->true transition atomic:
	// of any number of concurrent identical calls, only one matches the
	// satisfied:false filter.
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"correlation_id": correlationID, "satisfied": false},
		bson.M{"$set": bson.M{"satisfied": true, "proof": proof}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark session satisfied: %w", err)
	}
	if result.MatchedCount == 1 {
		return nil
	}

	// Nothing matched: either the session is unknown or it was already
	// satisfied. The latter is a no-op success.
	count, err := s.collection.CountDocuments(ctx, bson.M{"correlation_id": correlationID})
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if count == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *SessionStore) DeleteIfPresent(ctx context.Context, sessionID string) (bool, error) {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": sessionID})
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return result.DeletedCount == 1, nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.collection.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lt": time.Now()},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.DeletedCount, nil
}
