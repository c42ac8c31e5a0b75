package service

import (
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-vc-authn/internal/storage"
	"github.com/sirosfoundation/go-vc-authn/pkg/config"
)

// Services aggregates all application services
type Services struct {
	Session        *SessionService
	Token          *TokenService
	Presentation   *PresentationService
	ShortURL       *ShortURLService
	Client         *ClientService
	SessionCleanup *SessionCleanupWorker
}

// NewServices creates a new Services instance
func NewServices(store storage.Store, cfg *config.Config, logger *zap.Logger) *Services {
	return &Services{
		Session:        NewSessionService(store, cfg, logger),
		Token:          NewTokenService(cfg, logger),
		Presentation:   NewPresentationService(store, logger),
		ShortURL:       NewShortURLService(store, cfg, logger),
		Client:         NewClientService(cfg, logger),
		SessionCleanup: NewSessionCleanupWorker(cfg.SessionCleanup, store, logger),
	}
}

// Start starts background workers
func (s *Services) Start() {
	if s.SessionCleanup != nil {
		s.SessionCleanup.Start()
	}
}

// Stop gracefully stops background workers
func (s *Services) Stop() {
	if s.SessionCleanup != nil {
		s.SessionCleanup.Stop()
	}
}
