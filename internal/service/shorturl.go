package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-vc-authn/internal/domain"
	"github.com/sirosfoundation/go-vc-authn/internal/storage"
	"github.com/sirosfoundation/go-vc-authn/pkg/config"
)

// ErrShortURLNotFound is returned when a short-URL key does not resolve
var ErrShortURLNotFound = errors.New("short URL not found")

// ShortURLService shortens presentation-request deep links so they fit in a
// QR code. Entries live only as long as the session they belong to.
type ShortURLService struct {
	store   storage.Store
	cfg     *config.Config
	logger  *zap.Logger
	nowFunc func() time.Time
}

// NewShortURLService creates a new ShortURLService
func NewShortURLService(store storage.Store, cfg *config.Config, logger *zap.Logger) *ShortURLService {
	return &ShortURLService{
		store:   store,
		cfg:     cfg,
		logger:  logger.Named("shorturl-service"),
		nowFunc: time.Now,
	}
}

// Shorten stores a long URL under a random key and returns the resolver URL
func (s *ShortURLService) Shorten(ctx context.Context, longURL string, expiresAt time.Time) (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate short URL key: %w", err)
	}
	key := base64.RawURLEncoding.EncodeToString(buf)

	entry := &domain.ShortURL{
		Key:       key,
		URL:       longURL,
		ExpiresAt: expiresAt,
	}
	if err := s.store.ShortURLs().Put(ctx, entry); err != nil {
		return "", fmt.Errorf("failed to store short URL: %w", err)
	}

	return fmt.Sprintf("%s/url/%s", s.cfg.Server.BaseURL, key), nil
}

// Resolve returns the long URL behind a key. Expired entries resolve like
// missing ones.
func (s *ShortURLService) Resolve(ctx context.Context, key string) (string, error) {
	entry, err := s.store.ShortURLs().Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrShortURLNotFound
		}
		return "", fmt.Errorf("failed to look up short URL: %w", err)
	}

	if entry.IsExpired(s.nowFunc()) {
		return "", ErrShortURLNotFound
	}
	return entry.URL, nil
}
