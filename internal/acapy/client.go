// Package acapy is a thin client for the credential-exchange agent's admin
// API. The broker only needs two calls: creating a presentation exchange and
// reading the agent's public wallet DID. Failed calls surface as errors to
// the handler that made them; nothing is retried here.
package acapy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-vc-authn/internal/domain"
	"github.com/sirosfoundation/go-vc-authn/pkg/config"
)

// Client calls the agent admin API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// WalletDID is the agent's public DID
type WalletDID struct {
	DID    string `json:"did"`
	VerKey string `json:"verkey"`
}

type walletDIDResponse struct {
	Result WalletDID `json:"result"`
}

// NewClient creates a new agent client
func NewClient(cfg *config.ACAPyConfig, logger *zap.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.Timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    cfg.AdminURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("acapy-client"),
	}
}

// CreatePresentationExchange registers a presentation request with the agent
// so the wallet's eventual proof is matched against it.
func (c *Client) CreatePresentationExchange(ctx context.Context, request *domain.PresentationRequest) error {
	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal presentation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/presentation_exchange/create_request", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("presentation exchange call failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Debug("Presentation exchange creation rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", payload))
		return fmt.Errorf("presentation exchange creation error: status %d", resp.StatusCode)
	}

	c.logger.Debug("Presentation exchange created",
		zap.String("thread_id", request.ThreadID))
	return nil
}

// WalletDIDPublic fetches the agent's public wallet DID
func (c *Client) WalletDIDPublic(ctx context.Context) (*WalletDID, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/wallet/did/public", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wallet DID call failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wallet DID request error: status %d", resp.StatusCode)
	}

	var parsed walletDIDResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode wallet DID response: %w", err)
	}
	return &parsed.Result, nil
}
