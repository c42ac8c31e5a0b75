package domain

import (
	"time"
)

// ResponseType is the OIDC response type requested by the relying party
type ResponseType string

const (
	ResponseTypeCode  ResponseType = "code"
	ResponseTypeToken ResponseType = "token"
)

// AuthSession binds an OIDC authorization attempt to a presentation exchange.
// The session id doubles as the session cookie value and, in the code flow,
// as the authorization code handed back to the relying party.
type AuthSession struct {
	ID                   string               `json:"id" bson:"_id"`
	CorrelationID        string               `json:"correlation_id" bson:"correlation_id"`
	PresentationConfigID string               `json:"pres_req_conf_id" bson:"pres_req_conf_id"`
	RedirectURI          string               `json:"redirect_uri" bson:"redirect_uri"`
	ResponseType         ResponseType         `json:"response_type" bson:"response_type"`
	ResponseMode         string               `json:"response_mode" bson:"response_mode"`
	CreatedAt            time.Time            `json:"created_at" bson:"created_at"`
	ExpiresAt            time.Time            `json:"expires_at" bson:"expires_at"`
	Satisfied            bool                 `json:"satisfied" bson:"satisfied"`
	Proof                *PartialPresentation `json:"proof,omitempty" bson:"proof,omitempty"`
}

// IsExpired checks if the session has expired
func (s *AuthSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Consumable reports whether the session can be redeemed for a code or
// token: it must have been satisfied by the agent and not yet expired.
func (s *AuthSession) Consumable(now time.Time) bool {
	return s.Satisfied && !s.IsExpired(now)
}

// PartialPresentation is the slice of the agent's presentation payload the
// broker keeps: the revealed attributes of the requested proof. Everything
// else the wallet disclosed to the agent stays with the agent.
type PartialPresentation struct {
	RequestedProof RequestedProof `json:"requested_proof" bson:"requested_proof"`
}

// RequestedProof carries the attribute values the holder agreed to reveal
type RequestedProof struct {
	RevealedAttributes map[string]ProofAttribute `json:"revealed_attrs" bson:"revealed_attrs"`
}

// ProofAttribute is a single revealed attribute value
type ProofAttribute struct {
	Raw string `json:"raw" bson:"raw"`
}
