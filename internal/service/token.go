package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-vc-authn/internal/domain"
	"github.com/sirosfoundation/go-vc-authn/pkg/config"
)

// ErrClaimsRequired is returned when a satisfied session carries no revealed
// attributes to build claims from
var ErrClaimsRequired = errors.New("presentation revealed no attributes")

// TokenService mints the JWTs handed out when a session is redeemed. Claims
// mirror the attributes the wallet revealed, plus the standard fields a
// relying party expects.
type TokenService struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTokenService creates a new TokenService
func NewTokenService(cfg *config.Config, logger *zap.Logger) *TokenService {
	return &TokenService{
		cfg:    cfg,
		logger: logger.Named("token-service"),
	}
}

// Issue signs a token for a consumed session. The presentation config decides
// which revealed attribute becomes the subject: the one whose name matches
// SubjectIdentifier case-insensitively. Without a match the token has no sub
// claim but is still issued.
func (t *TokenService) Issue(session *domain.AuthSession, presConfig *domain.PresentationConfig) (string, error) {
	if session.Proof == nil || len(session.Proof.RequestedProof.RevealedAttributes) == 0 {
		return "", ErrClaimsRequired
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":              t.cfg.Token.Issuer,
		"iat":              now.Unix(),
		"exp":              now.Add(time.Duration(t.cfg.Token.LifetimeSeconds) * time.Second).Unix(),
		"nonce":            session.CorrelationID,
		"pres_req_conf_id": session.PresentationConfigID,
		"acr":              "vc_authn",
		"amr":              []string{"vc_authn"},
	}

	for name, attr := range session.Proof.RequestedProof.RevealedAttributes {
		claims[name] = attr.Raw
		if presConfig != nil && strings.EqualFold(name, presConfig.SubjectIdentifier) {
			claims["sub"] = attr.Raw
		}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(t.cfg.Token.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	t.logger.Debug("Token issued",
		zap.String("session_id", session.ID),
		zap.Int("claim_count", len(claims)))
	return signed, nil
}
