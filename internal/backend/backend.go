// Package backend assembles the configured storage implementations into a
// single storage.Store, including the optional Redis session store overlay.
package backend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-vc-authn/internal/storage"
	"github.com/sirosfoundation/go-vc-authn/internal/storage/memory"
	"github.com/sirosfoundation/go-vc-authn/internal/storage/mongodb"
	redisstore "github.com/sirosfoundation/go-vc-authn/internal/storage/redis"
	"github.com/sirosfoundation/go-vc-authn/pkg/config"
)

// Type defines the type of storage backend
type Type string

const (
	// TypeMemory uses in-memory storage (for testing/development)
	TypeMemory Type = "memory"
	// TypeMongoDB uses MongoDB storage (for production)
	TypeMongoDB Type = "mongodb"
)

// New creates a storage backend per the configuration. When sessions are
// configured for Redis, the session store is swapped out while configs and
// short URLs stay in the primary store.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	var base storage.Store

	switch Type(cfg.Storage.Type) {
	case TypeMemory:
		base = memory.NewStore()
	case TypeMongoDB:
		store, err := mongodb.NewStore(ctx, &cfg.Storage.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("failed to create mongodb store: %w", err)
		}
		base = store
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}

	if cfg.Sessions.Store != "redis" {
		return base, nil
	}

	sessions, err := redisstore.NewSessionStore(&redisstore.Config{
		Address:    cfg.Sessions.Redis.Address,
		Password:   cfg.Sessions.Redis.Password,
		DB:         cfg.Sessions.Redis.DB,
		KeyPrefix:  cfg.Sessions.Redis.KeyPrefix,
		DefaultTTL: time.Duration(cfg.Sessions.LifetimeSeconds) * time.Second,
	}, logger)
	if err != nil {
		_ = base.Close()
		return nil, fmt.Errorf("failed to create redis session store: %w", err)
	}

	return &redisSessionBackend{Store: base, sessions: sessions}, nil
}

// redisSessionBackend overlays a Redis session store on another store
type redisSessionBackend struct {
	storage.Store
	sessions *redisstore.SessionStore
}

func (b *redisSessionBackend) Sessions() storage.SessionStore { return b.sessions }

func (b *redisSessionBackend) Close() error {
	err := b.sessions.Close()
	if baseErr := b.Store.Close(); baseErr != nil {
		return baseErr
	}
	return err
}
