package acapy

import (
	"encoding/json"

	"github.com/sirosfoundation/go-vc-authn/internal/domain"
)

// Presentation exchange states reported on the webhook topic. Only
// StatePresentationReceived moves a session; everything else is
// acknowledged and ignored.
const (
	TopicPresentations        = "presentations"
	StatePresentationReceived = "presentation_received"
	StateRequestSent          = "request_sent"
	StatePresentationVerified = "verified"
)

// PresentationUpdate is the agent's webhook payload for the presentations
// topic. ThreadID is the correlation id the broker handed out when it
// created the exchange.
type PresentationUpdate struct {
	CreatedAt                string                      `json:"created_at"`
	UpdatedAt                string                      `json:"updated_at"`
	Initiator                string                      `json:"initiator"`
	PresentationExchangeID   string                      `json:"presentation_exchange_id"`
	ConnectionID             string                      `json:"connection_id"`
	State                    string                      `json:"state"`
	ThreadID                 string                      `json:"thread_id"`
	PresentationRequest      json.RawMessage             `json:"presentation_request,omitempty"`
	Presentation             *domain.PartialPresentation `json:"presentation,omitempty"`
}
