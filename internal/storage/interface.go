package storage

import (
	"context"
	"errors"

	"github.com/sirosfoundation/go-vc-authn/internal/domain"
)

// Common errors
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDatabase      = errors.New("database error")
)

// SessionStore defines the interface for auth session storage. It is the sole
// synchronization point between the authorize, webhook, poll and exchange
// paths, so implementations must provide the stated atomicity guarantees and
// be safe for concurrent use. No implementation may hold an internal lock
// across a network call to anything but its own backing store.
type SessionStore interface {
	// Create persists a new session. Returns ErrAlreadyExists if a session
	// with the same id or correlation id already exists.
	Create(ctx context.Context, session *domain.AuthSession) error

	// GetBySessionID retrieves a session by its id
	GetBySessionID(ctx context.Context, id string) (*domain.AuthSession, error)

	// GetByCorrelationID retrieves a session by the thread id the agent
	// echoes back in webhook events
	GetByCorrelationID(ctx context.Context, id string) (*domain.AuthSession, error)

	// MarkSatisfiedByCorrelationID atomically records that the presentation
	// request behind correlationID has been satisfied, storing the revealed
	// proof. Returns ErrNotFound for unknown ids. Calling it again for an
	// already satisfied session is a no-op success; concurrent duplicate
	// calls collapse to a single effective transition.
	MarkSatisfiedByCorrelationID(ctx context.Context, correlationID string, proof *domain.PartialPresentation) error

	// DeleteIfPresent removes the session and reports whether it was
	// actually there. Under concurrent calls for the same id, exactly one
	// caller observes true; this is what makes redemption one-time.
	DeleteIfPresent(ctx context.Context, sessionID string) (bool, error)

	// DeleteExpired removes sessions past their expiry, returning the count.
	// Purely storage hygiene; expiry is enforced lazily at every read.
	DeleteExpired(ctx context.Context) (int64, error)
}

// PresentationConfigStore defines the interface for presentation
// configuration storage
type PresentationConfigStore interface {
	// GetByID retrieves a configuration by ID
	GetByID(ctx context.Context, id string) (*domain.PresentationConfig, error)

	// Put creates or replaces a configuration
	Put(ctx context.Context, config *domain.PresentationConfig) error

	// GetAll retrieves all configurations
	GetAll(ctx context.Context) ([]*domain.PresentationConfig, error)

	// Delete deletes a configuration
	Delete(ctx context.Context, id string) error
}

// ShortURLStore defines the interface for short deep-link storage
type ShortURLStore interface {
	// Put creates or replaces a short URL mapping
	Put(ctx context.Context, shortURL *domain.ShortURL) error

	// Get retrieves the mapping for a key
	Get(ctx context.Context, key string) (*domain.ShortURL, error)

	// Delete deletes a mapping
	Delete(ctx context.Context, key string) error
}

// Store aggregates all storage interfaces
type Store interface {
	Sessions() SessionStore
	PresentationConfigs() PresentationConfigStore
	ShortURLs() ShortURLStore

	// Close closes the storage connection
	Close() error

	// Ping checks if the storage is alive
	Ping(ctx context.Context) error
}
