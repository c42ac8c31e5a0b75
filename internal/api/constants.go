package api

// Constants holds the OIDC protocol vocabulary the handlers speak: parameter
// names, error codes, the credential scope, and cookie/grant identifiers.
// They are injected as a value so deployments bridging to a differently
// configured identity provider can rename them without code changes.
type Constants struct {
	// Request parameter names
	ParamScope         string
	ParamPresReqConfID string
	ParamRedirectURI   string
	ParamResponseType  string
	ParamResponseMode  string
	ParamClientID      string
	ParamClientSecret  string
	ParamGrantType     string
	ParamPresReq       string
	ParamChallenge     string

	// Scope that activates credential-based authentication
	VCScope string

	// Error codes
	ErrorMissingScope        string
	ErrorInvalidPresReqConf  string
	ErrorInvalidRedirectURI  string
	ErrorInvalidResponseType string
	ErrorInvalidClient       string
	ErrorInvalidGrantType    string
	ErrorInvalidSession      string

	// Cookie carrying the session id between authorize and token calls
	SessionCookieName string

	// Grant type accepted by the token endpoint
	GrantType string

	// Defaults applied when the authorize request omits them
	DefaultResponseType string
	DefaultResponseMode string
}

// DefaultConstants returns the stock protocol vocabulary
func DefaultConstants() Constants {
	return Constants{
		ParamScope:         "scope",
		ParamPresReqConfID: "pres_req_conf_id",
		ParamRedirectURI:   "redirect_uri",
		ParamResponseType:  "response_type",
		ParamResponseMode:  "response_mode",
		ParamClientID:      "client_id",
		ParamClientSecret:  "client_secret",
		ParamGrantType:     "grant_type",
		ParamPresReq:       "pres_req",
		ParamChallenge:     "m",

		VCScope: "vc_authn",

		ErrorMissingScope:        "missing_vc_authn_scope",
		ErrorInvalidPresReqConf:  "invalid_pres_req_conf_id",
		ErrorInvalidRedirectURI:  "invalid_redirect_uri",
		ErrorInvalidResponseType: "invalid_response_type",
		ErrorInvalidClient:       "invalid_client",
		ErrorInvalidGrantType:    "invalid_grant_type",
		ErrorInvalidSession:      "invalid_session",

		SessionCookieName: "sessionid",
		GrantType:         "verification_code",

		DefaultResponseType: "code",
		DefaultResponseMode: "form_post",
	}
}
