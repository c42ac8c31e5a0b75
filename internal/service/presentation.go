package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-vc-authn/internal/domain"
	"github.com/sirosfoundation/go-vc-authn/internal/storage"
)

// ErrConfigNotFound is returned when a presentation configuration id does not
// resolve to a stored configuration.
var ErrConfigNotFound = errors.New("presentation configuration not found")

// nonceMax bounds the AnonCreds proof-request nonce at 80 bits, expressed as
// a decimal string on the wire.
var nonceMax = new(big.Int).Lsh(big.NewInt(1), 80)

// PresentationService resolves stored presentation configurations and
// materializes fresh presentation requests from them.
type PresentationService struct {
	store  storage.Store
	logger *zap.Logger
}

// NewPresentationService creates a new PresentationService
func NewPresentationService(store storage.Store, logger *zap.Logger) *PresentationService {
	return &PresentationService{
		store:  store,
		logger: logger.Named("presentation-service"),
	}
}

// GetConfig retrieves a presentation configuration by id
func (s *PresentationService) GetConfig(ctx context.Context, id string) (*domain.PresentationConfig, error) {
	config, err := s.store.PresentationConfigs().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to get presentation config: %w", err)
	}
	return config, nil
}

// PutConfig creates or replaces a presentation configuration
func (s *PresentationService) PutConfig(ctx context.Context, config *domain.PresentationConfig) error {
	if config.ID == "" {
		return fmt.Errorf("presentation config id is required")
	}
	if config.SubjectIdentifier == "" {
		return fmt.Errorf("presentation config subject identifier is required")
	}

	if err := s.store.PresentationConfigs().Put(ctx, config); err != nil {
		return fmt.Errorf("failed to store presentation config: %w", err)
	}

	s.logger.Info("Presentation config stored", zap.String("id", config.ID))
	return nil
}

// GetAllConfigs retrieves all presentation configurations
func (s *PresentationService) GetAllConfigs(ctx context.Context) ([]*domain.PresentationConfig, error) {
	configs, err := s.store.PresentationConfigs().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get presentation configs: %w", err)
	}
	return configs, nil
}

// DeleteConfig removes a presentation configuration
func (s *PresentationService) DeleteConfig(ctx context.Context, id string) error {
	if err := s.store.PresentationConfigs().Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrConfigNotFound
		}
		return fmt.Errorf("failed to delete presentation config: %w", err)
	}

	s.logger.Info("Presentation config deleted", zap.String("id", id))
	return nil
}

// BuildRequest materializes a one-shot presentation request from a stored
// configuration: a fresh thread id for correlation, a fresh nonce against
// replay, and a deep copy of the attribute/predicate template. The stored
// configuration is never mutated.
func (s *PresentationService) BuildRequest(config *domain.PresentationConfig) (*domain.PresentationRequest, error) {
	nonce, err := newNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	request := config.Configuration.Clone()
	request.Nonce = nonce

	return &domain.PresentationRequest{
		ID:       uuid.NewString(),
		Type:     domain.PresentationRequestType,
		Request:  request,
		ThreadID: uuid.NewString(),
	}, nil
}

// newNonce returns a fresh random decimal nonce
func newNonce() (string, error) {
	n, err := rand.Int(rand.Reader, nonceMax)
	if err != nil {
		return "", err
	}
	return n.String(), nil
}
