package service

import (
	"crypto/subtle"
	"errors"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-vc-authn/internal/domain"
	"github.com/sirosfoundation/go-vc-authn/pkg/config"
)

// ErrInvalidClient is returned for unknown client ids or bad secrets
var ErrInvalidClient = errors.New("invalid client")

// ClientService authenticates relying parties against the statically
// configured client list. An empty list disables client authentication, which
// keeps single-tenant deployments simple.
type ClientService struct {
	clients map[string]*domain.Client
	logger  *zap.Logger
}

// NewClientService creates a new ClientService from configuration
func NewClientService(cfg *config.Config, logger *zap.Logger) *ClientService {
	clients := make(map[string]*domain.Client, len(cfg.Clients))
	for _, c := range cfg.Clients {
		clients[c.ID] = &domain.Client{
			ID:           c.ID,
			Secret:       c.Secret,
			RedirectURIs: c.RedirectURIs,
		}
	}
	return &ClientService{
		clients: clients,
		logger:  logger.Named("client-service"),
	}
}

// Enabled reports whether any clients are configured
func (c *ClientService) Enabled() bool {
	return len(c.clients) > 0
}

// Authenticate validates a client id and secret pair
func (c *ClientService) Authenticate(clientID, clientSecret string) (*domain.Client, error) {
	if !c.Enabled() {
		return nil, nil
	}

	client, ok := c.clients[clientID]
	if !ok {
		return nil, ErrInvalidClient
	}
	if client.Secret != "" && subtle.ConstantTimeCompare([]byte(client.Secret), []byte(clientSecret)) != 1 {
		c.logger.Warn("Client secret mismatch", zap.String("client_id", clientID))
		return nil, ErrInvalidClient
	}
	return client, nil
}

// Lookup returns a configured client without checking its secret. Used by the
// authorize endpoint, where the front channel carries no secret.
func (c *ClientService) Lookup(clientID string) (*domain.Client, error) {
	if !c.Enabled() {
		return nil, nil
	}

	client, ok := c.clients[clientID]
	if !ok {
		return nil, ErrInvalidClient
	}
	return client, nil
}
