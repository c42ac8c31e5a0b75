package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-vc-authn/internal/domain"
	"github.com/sirosfoundation/go-vc-authn/internal/storage"
	"github.com/sirosfoundation/go-vc-authn/pkg/config"
)

// ErrInvalidSession covers every way a session can fail redemption: unknown
// id, not yet satisfied, expired, or already consumed. Callers surface it
// without distinguishing the cases so session ids cannot be probed.
var ErrInvalidSession = errors.New("invalid session")

// PollStatus is the outcome of a poll lookup
type PollStatus string

const (
	// PollUnknown means no session exists for the correlation id
	PollUnknown PollStatus = "unknown"
	// PollPending means the wallet has not completed the presentation yet
	PollPending PollStatus = "pending"
	// PollExpired means the session can no longer be redeemed
	PollExpired PollStatus = "expired"
	// PollReady means the session is satisfied and still redeemable
	PollReady PollStatus = "ready"
)

// SessionService is the broker's correlation state machine. It creates
// sessions bound to presentation requests, applies the webhook transition,
// answers polls, and consumes sessions exactly once on redemption. All
// synchronization happens inside the session store.
type SessionService struct {
	store   storage.Store
	cfg     *config.Config
	logger  *zap.Logger
	nowFunc func() time.Time
}

// NewSessionService creates a new SessionService
func NewSessionService(store storage.Store, cfg *config.Config, logger *zap.Logger) *SessionService {
	return &SessionService{
		store:   store,
		cfg:     cfg,
		logger:  logger.Named("session-service"),
		nowFunc: time.Now,
	}
}

// NewSessionParams carries the validated authorize-request values a new
// session is built from
type NewSessionParams struct {
	CorrelationID        string
	PresentationConfigID string
	RedirectURI          string
	ResponseType         domain.ResponseType
	ResponseMode         string
}

// NewSession creates an unsatisfied session with a fresh opaque id and the
// configured lifetime
func (s *SessionService) NewSession(ctx context.Context, params NewSessionParams) (*domain.AuthSession, error) {
	now := s.nowFunc()
	session := &domain.AuthSession{
		ID:                   uuid.NewString(),
		CorrelationID:        params.CorrelationID,
		PresentationConfigID: params.PresentationConfigID,
		RedirectURI:          params.RedirectURI,
		ResponseType:         params.ResponseType,
		ResponseMode:         params.ResponseMode,
		CreatedAt:            now,
		ExpiresAt:            now.Add(time.Duration(s.cfg.Sessions.LifetimeSeconds) * time.Second),
	}

	if err := s.store.Sessions().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Debug("Session created",
		zap.String("session_id", session.ID),
		zap.String("correlation_id", session.CorrelationID),
		zap.Time("expires_at", session.ExpiresAt))
	return session, nil
}

// Satisfy applies the webhook transition for a completed presentation. It is
// idempotent; unknown correlation ids return storage.ErrNotFound so the
// ingress can log and still acknowledge.
func (s *SessionService) Satisfy(ctx context.Context, correlationID string, proof *domain.PartialPresentation) error {
	if err := s.store.Sessions().MarkSatisfiedByCorrelationID(ctx, correlationID, proof); err != nil {
		return err
	}

	s.logger.Info("Session satisfied", zap.String("correlation_id", correlationID))
	return nil
}

// Poll reports whether the presentation behind a correlation id has been
// completed. Reads only; repeated polling never changes session state.
func (s *SessionService) Poll(ctx context.Context, correlationID string) (PollStatus, error) {
	session, err := s.store.Sessions().GetByCorrelationID(ctx, correlationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return PollUnknown, nil
		}
		return PollUnknown, fmt.Errorf("failed to look up session: %w", err)
	}

	if !session.Satisfied {
		return PollPending, nil
	}
	// Satisfied sessions stop being redeemable the moment they expire,
	// even though the presentation itself succeeded.
	if session.IsExpired(s.nowFunc()) {
		return PollExpired, nil
	}
	return PollReady, nil
}

// Lookup fetches a session by id and checks it is redeemable: present,
// satisfied, and not expired. Any failure is ErrInvalidSession.
func (s *SessionService) Lookup(ctx context.Context, sessionID string) (*domain.AuthSession, error) {
	session, err := s.store.Sessions().GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	if !session.Consumable(s.nowFunc()) {
		return nil, ErrInvalidSession
	}
	return session, nil
}

// Consume redeems a session exactly once: it validates the session and then
// deletes it, and only the caller whose delete actually removed the row gets
// the session back. A concurrent second redeemer loses the delete race and
// gets ErrInvalidSession.
func (s *SessionService) Consume(ctx context.Context, sessionID string) (*domain.AuthSession, error) {
	session, err := s.Lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	deleted, err := s.store.Sessions().DeleteIfPresent(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete session: %w", err)
	}
	if !deleted {
		s.logger.Warn("Session consumed concurrently", zap.String("session_id", sessionID))
		return nil, ErrInvalidSession
	}

	s.logger.Info("Session consumed", zap.String("session_id", sessionID))
	return session, nil
}

// DeleteExpired removes expired sessions for storage hygiene
func (s *SessionService) DeleteExpired(ctx context.Context) (int64, error) {
	return s.store.Sessions().DeleteExpired(ctx)
}
