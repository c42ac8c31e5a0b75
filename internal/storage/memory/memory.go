package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sirosfoundation/go-vc-authn/internal/domain"
	"github.com/sirosfoundation/go-vc-authn/internal/storage"
)

// Store implements an in-memory storage
type Store struct {
	sessions  *SessionStore
	configs   *PresentationConfigStore
	shortURLs *ShortURLStore
}

// NewStore creates a new in-memory store
func NewStore() *Store {
	return &Store{
		sessions: &SessionStore{
			data:    make(map[string]*domain.AuthSession),
			byCorr:  make(map[string]string),
			nowFunc: time.Now,
		},
		configs:   &PresentationConfigStore{data: make(map[string]*domain.PresentationConfig)},
		shortURLs: &ShortURLStore{data: make(map[string]*domain.ShortURL)},
	}
}

func (s *Store) Sessions() storage.SessionStore                       { return s.sessions }
func (s *Store) PresentationConfigs() storage.PresentationConfigStore { return s.configs }
func (s *Store) ShortURLs() storage.ShortURLStore                     { return s.shortURLs }
func (s *Store) Close() error                                         { return nil }
func (s *Store) Ping(ctx context.Context) error                       { return nil }

// SessionStore implements in-memory auth session storage
type SessionStore struct {
	mu      sync.RWMutex
	data    map[string]*domain.AuthSession
	byCorr  map[string]string // correlationID -> sessionID
	nowFunc func() time.Time
}

func (s *SessionStore) Create(ctx context.Context, session *domain.AuthSession) error {
	if session.ID == "" || session.CorrelationID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[session.ID]; exists {
		return storage.ErrAlreadyExists
	}
	if _, exists := s.byCorr[session.CorrelationID]; exists {
		return storage.ErrAlreadyExists
	}

	copied := *session
	s.data[session.ID] = &copied
	s.byCorr[session.CorrelationID] = session.ID
	return nil
}

func (s *SessionStore) GetBySessionID(ctx context.Context, id string) (*domain.AuthSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	copied := *session
	return &copied, nil
}

func (s *SessionStore) GetByCorrelationID(ctx context.Context, id string) (*domain.AuthSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionID, ok := s.byCorr[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	session, ok := s.data[sessionID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	copied := *session
	return &copied, nil
}

func (s *SessionStore) MarkSatisfiedByCorrelationID(ctx context.Context, correlationID string, proof *domain.PartialPresentation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID, ok := s.byCorr[correlationID]
	if !ok {
		return storage.ErrNotFound
	}

	session, ok := s.data[sessionID]
	if !ok {
		return storage.ErrNotFound
	}

	if session.Satisfied {
		return nil // Idempotent
	}

	session.Satisfied = true
	session.Proof = proof
	return nil
}

func (s *SessionStore) DeleteIfPresent(ctx context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.data[sessionID]
	if !exists {
		return false, nil
	}

	delete(s.byCorr, session.CorrelationID)
	delete(s.data, sessionID)
	return true, nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	now := s.nowFunc()
	for id, session := range s.data {
		if session.IsExpired(now) {
			delete(s.byCorr, session.CorrelationID)
			delete(s.data, id)
			count++
		}
	}
	return count, nil
}

// PresentationConfigStore implements in-memory configuration storage
type PresentationConfigStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PresentationConfig
}

func (s *PresentationConfigStore) GetByID(ctx context.Context, id string) (*domain.PresentationConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	config, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return config, nil
}

func (s *PresentationConfigStore) Put(ctx context.Context, config *domain.PresentationConfig) error {
	if config.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[config.ID] = config
	return nil
}

func (s *PresentationConfigStore) GetAll(ctx context.Context) ([]*domain.PresentationConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	configs := make([]*domain.PresentationConfig, 0, len(s.data))
	for _, config := range s.data {
		configs = append(configs, config)
	}
	return configs, nil
}

func (s *PresentationConfigStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, id)
	return nil
}

// ShortURLStore implements in-memory short URL storage
type ShortURLStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ShortURL
}

func (s *ShortURLStore) Put(ctx context.Context, shortURL *domain.ShortURL) error {
	if shortURL.Key == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[shortURL.Key] = shortURL
	return nil
}

func (s *ShortURLStore) Get(ctx context.Context, key string) (*domain.ShortURL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shortURL, exists := s.data[key]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return shortURL, nil
}

func (s *ShortURLStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, key)
	return nil
}
