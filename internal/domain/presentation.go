package domain

// PresentationRequestType is the DIDComm message type stamped on every
// presentation request envelope.
const PresentationRequestType = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/credential-presentation/0.1/presentation-request"

// PresentationConfig is an externally supplied, immutable template describing
// which credential attributes a relying party wants proven. SubjectIdentifier
// names the revealed attribute promoted to the token's "sub" claim.
type PresentationConfig struct {
	ID                string       `json:"id" bson:"_id"`
	SubjectIdentifier string       `json:"subject_identifier" bson:"subject_identifier"`
	Configuration     ProofRequest `json:"configuration" bson:"configuration"`
}

// ProofRequest is an AnonCreds-style proof request
type ProofRequest struct {
	Name                string                   `json:"name" bson:"name"`
	Version             string                   `json:"version" bson:"version"`
	Nonce               string                   `json:"nonce,omitempty" bson:"nonce,omitempty"`
	RequestedAttributes map[string]AttributeInfo `json:"requested_attributes" bson:"requested_attributes"`
	RequestedPredicates map[string]PredicateInfo `json:"requested_predicates,omitempty" bson:"requested_predicates,omitempty"`
	NonRevoked          *RevocationInterval      `json:"non_revoked,omitempty" bson:"non_revoked,omitempty"`
}

// AttributeInfo describes one requested attribute and the credentials that
// may satisfy it
type AttributeInfo struct {
	Name         string              `json:"name" bson:"name"`
	Restrictions []AttributeFilter   `json:"restrictions,omitempty" bson:"restrictions,omitempty"`
	NonRevoked   *RevocationInterval `json:"non_revoked,omitempty" bson:"non_revoked,omitempty"`
}

// PredicateInfo describes a requested predicate over an attribute
type PredicateInfo struct {
	AttributeInfo  `bson:",inline"`
	PredicateType  string `json:"p_type" bson:"p_type"`
	PredicateValue string `json:"p_value" bson:"p_value"`
}

// AttributeFilter restricts which credentials may satisfy an attribute
type AttributeFilter struct {
	SchemaID               string `json:"schema_id,omitempty" bson:"schema_id,omitempty"`
	SchemaIssuerDID        string `json:"schema_issuer_did,omitempty" bson:"schema_issuer_did,omitempty"`
	SchemaName             string `json:"schema_name,omitempty" bson:"schema_name,omitempty"`
	SchemaVersion          string `json:"schema_version,omitempty" bson:"schema_version,omitempty"`
	IssuerDID              string `json:"issuer_did,omitempty" bson:"issuer_did,omitempty"`
	CredentialDefinitionID string `json:"cred_def_id,omitempty" bson:"cred_def_id,omitempty"`
}

// RevocationInterval is a non-revocation window in epoch seconds
type RevocationInterval struct {
	From uint64 `json:"from" bson:"from"`
	To   uint64 `json:"to" bson:"to"`
}

// PresentationRequest is an ephemeral, nonce-bearing request materialized from
// a PresentationConfig. ThreadID is the correlation id the agent echoes back
// in its webhook events; it is never reused across requests.
type PresentationRequest struct {
	ID       string       `json:"@id"`
	Type     string       `json:"@type"`
	Request  ProofRequest `json:"request"`
	Comment  string       `json:"comment,omitempty"`
	ThreadID string       `json:"thread_id"`
}

// Clone returns a deep copy of the proof request so callers can materialize a
// request without mutating the stored template.
func (r ProofRequest) Clone() ProofRequest {
	out := r
	if r.RequestedAttributes != nil {
		out.RequestedAttributes = make(map[string]AttributeInfo, len(r.RequestedAttributes))
		for k, v := range r.RequestedAttributes {
			v.Restrictions = append([]AttributeFilter(nil), v.Restrictions...)
			if v.NonRevoked != nil {
				nr := *v.NonRevoked
				v.NonRevoked = &nr
			}
			out.RequestedAttributes[k] = v
		}
	}
	if r.RequestedPredicates != nil {
		out.RequestedPredicates = make(map[string]PredicateInfo, len(r.RequestedPredicates))
		for k, v := range r.RequestedPredicates {
			v.Restrictions = append([]AttributeFilter(nil), v.Restrictions...)
			if v.NonRevoked != nil {
				nr := *v.NonRevoked
				v.NonRevoked = &nr
			}
			out.RequestedPredicates[k] = v
		}
	}
	if r.NonRevoked != nil {
		nr := *r.NonRevoked
		out.NonRevoked = &nr
	}
	return out
}
