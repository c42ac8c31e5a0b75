package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-vc-authn/internal/acapy"
	"github.com/sirosfoundation/go-vc-authn/internal/domain"
	"github.com/sirosfoundation/go-vc-authn/internal/service"
	"github.com/sirosfoundation/go-vc-authn/pkg/config"
)

// Handlers aggregates all HTTP handlers
type Handlers struct {
	services  *service.Services
	agent     *acapy.Client
	cfg       *config.Config
	constants Constants
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services *service.Services, agent *acapy.Client, cfg *config.Config, constants Constants, logger *zap.Logger) *Handlers {
	return &Handlers{
		services:  services,
		agent:     agent,
		cfg:       cfg,
		constants: constants,
		logger:    logger.Named("handlers"),
	}
}

// Status handles the /status endpoint
func (h *Handlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "vc-authn",
	})
}

// AuthorizeResponse is returned to the relying party after a successful
// authorize call. The short URL (usually rendered as a QR code) and the
// base64 presentation both launch the same credential exchange.
type AuthorizeResponse struct {
	URL             string `json:"url"`
	B64Presentation string `json:"b64_presentation"`
	PresReq         string `json:"pres_req"`
	SessionID       string `json:"session_id"`
}

// oidcError writes the structured OIDC-style error body
func (h *Handlers) oidcError(c *gin.Context, status int, code, description string) {
	c.JSON(status, gin.H{
		"error":             code,
		"error_description": description,
	})
}

// param reads a request parameter from the form body first, the query second
func param(c *gin.Context, name string) string {
	if v := c.PostForm(name); v != "" {
		return v
	}
	return c.Query(name)
}

func scopeContains(scope, want string) bool {
	for _, s := range strings.Fields(scope) {
		if s == want {
			return true
		}
	}
	return false
}

// Authorize starts a credential-presentation authentication attempt. The
// checks run fail-fast in a fixed order so a request with several problems
// always reports the same one.
func (h *Handlers) Authorize(c *gin.Context) {
	ctx := c.Request.Context()

	// Client authentication (front channel, id only)
	var client *domain.Client
	if h.services.Client.Enabled() {
		var err error
		client, err = h.services.Client.Lookup(param(c, h.constants.ParamClientID))
		if err != nil {
			h.oidcError(c, http.StatusBadRequest, h.constants.ErrorInvalidClient, "unknown client")
			return
		}
	}

	if !scopeContains(param(c, h.constants.ParamScope), h.constants.VCScope) {
		h.oidcError(c, http.StatusBadRequest, h.constants.ErrorMissingScope,
			fmt.Sprintf("scope must include %s", h.constants.VCScope))
		return
	}

	presReqConfID := param(c, h.constants.ParamPresReqConfID)
	if presReqConfID == "" {
		h.oidcError(c, http.StatusBadRequest, h.constants.ErrorInvalidPresReqConf,
			fmt.Sprintf("%s is required", h.constants.ParamPresReqConfID))
		return
	}

	redirectURI := param(c, h.constants.ParamRedirectURI)
	if redirectURI == "" {
		h.oidcError(c, http.StatusBadRequest, h.constants.ErrorInvalidRedirectURI,
			fmt.Sprintf("%s is required", h.constants.ParamRedirectURI))
		return
	}
	if _, err := url.ParseRequestURI(redirectURI); err != nil {
		h.oidcError(c, http.StatusBadRequest, h.constants.ErrorInvalidRedirectURI, "malformed redirect uri")
		return
	}
	if client != nil && !client.AllowsRedirectURI(redirectURI) {
		h.oidcError(c, http.StatusBadRequest, h.constants.ErrorInvalidRedirectURI, "redirect uri not registered")
		return
	}

	responseType := param(c, h.constants.ParamResponseType)
	if responseType == "" {
		responseType = h.constants.DefaultResponseType
	}
	if responseType != string(domain.ResponseTypeCode) && responseType != string(domain.ResponseTypeToken) {
		h.oidcError(c, http.StatusBadRequest, h.constants.ErrorInvalidResponseType,
			fmt.Sprintf("unsupported %s", h.constants.ParamResponseType))
		return
	}

	responseMode := param(c, h.constants.ParamResponseMode)
	if responseMode == "" {
		responseMode = h.constants.DefaultResponseMode
	}

	presConfig, err := h.services.Presentation.GetConfig(ctx, presReqConfID)
	if err != nil {
		if errors.Is(err, service.ErrConfigNotFound) {
			h.oidcError(c, http.StatusBadRequest, h.constants.ErrorInvalidPresReqConf, "unknown presentation configuration")
			return
		}
		h.logger.Error("Failed to load presentation configuration", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load presentation configuration"})
		return
	}

	request, err := h.services.Presentation.BuildRequest(presConfig)
	if err != nil {
		h.logger.Error("Failed to build presentation request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build presentation request"})
		return
	}

	if err := h.agent.CreatePresentationExchange(ctx, request); err != nil {
		h.logger.Error("Agent rejected presentation exchange", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create presentation exchange"})
		return
	}

	session, err := h.services.Session.NewSession(ctx, service.NewSessionParams{
		CorrelationID:        request.ThreadID,
		PresentationConfigID: presConfig.ID,
		RedirectURI:          redirectURI,
		ResponseType:         domain.ResponseType(responseType),
		ResponseMode:         responseMode,
	})
	if err != nil {
		h.logger.Error("Failed to create session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	payload, err := json.Marshal(request)
	if err != nil {
		h.logger.Error("Failed to encode presentation request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode presentation request"})
		return
	}
	b64 := base64.URLEncoding.EncodeToString(payload)

	deepLink := fmt.Sprintf("%s?%s=%s", h.cfg.Server.BaseURL, h.constants.ParamChallenge, b64)
	// Stamp the verifier DID on the deep link when the agent has a public one;
	// wallets use it to pre-verify who is asking.
	if did, err := h.agent.WalletDIDPublic(ctx); err == nil && did.DID != "" {
		deepLink += "&did=" + url.QueryEscape(did.DID)
	} else if err != nil {
		h.logger.Warn("Failed to fetch wallet public DID", zap.Error(err))
	}

	shortURL, err := h.services.ShortURL.Shorten(ctx, deepLink, session.ExpiresAt)
	if err != nil {
		h.logger.Error("Failed to shorten deep link", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to shorten deep link"})
		return
	}

	c.SetCookie(h.constants.SessionCookieName, session.ID,
		h.cfg.Sessions.LifetimeSeconds, "/", "", false, true)

	c.JSON(http.StatusOK, AuthorizeResponse{
		URL:             shortURL,
		B64Presentation: b64,
		PresReq:         session.CorrelationID,
		SessionID:       session.ID,
	})
}

// Poll reports whether the wallet has completed the presentation for a
// correlation id. Safe to call repeatedly; it never changes session state.
func (h *Handlers) Poll(c *gin.Context) {
	presReq := param(c, h.constants.ParamPresReq)
	if presReq == "" {
		h.oidcError(c, http.StatusBadRequest, h.constants.ErrorInvalidSession,
			fmt.Sprintf("%s is required", h.constants.ParamPresReq))
		return
	}

	status, err := h.services.Session.Poll(c.Request.Context(), presReq)
	if err != nil {
		h.logger.Error("Failed to poll session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to poll session"})
		return
	}

	switch status {
	case service.PollReady:
		c.JSON(http.StatusOK, gin.H{"status": string(status)})
	case service.PollUnknown:
		c.JSON(http.StatusNotFound, gin.H{"status": string(status)})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"status": string(status)})
	}
}

// Callback finishes the front-channel flow once polling reports ready. Code
// flow redirects with a one-time code (the session survives for the token
// endpoint); token flow issues the JWT here and consumes the session.
func (h *Handlers) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID := c.Query(h.constants.ParamPresReq)
	session, err := h.services.Session.Lookup(ctx, sessionID)
	if err != nil {
		h.oidcError(c, http.StatusBadRequest, h.constants.ErrorInvalidSession, "session cannot be redeemed")
		return
	}

	if session.ResponseType == domain.ResponseTypeCode {
		redirect := fmt.Sprintf("%s?code=%s", session.RedirectURI, url.QueryEscape(session.ID))
		c.Redirect(http.StatusFound, redirect)
		return
	}

	// Token flow: this redirect is the final issuance.
	token, err := h.issueToken(ctx, session)
	if err != nil {
		h.logger.Error("Failed to issue token", zap.Error(err), zap.String("session_id", session.ID))
		h.oidcError(c, http.StatusBadRequest, h.constants.ErrorInvalidSession, "session cannot be redeemed")
		return
	}
	if _, err := h.services.Session.Consume(ctx, session.ID); err != nil {
		h.oidcError(c, http.StatusBadRequest, h.constants.ErrorInvalidSession, "session cannot be redeemed")
		return
	}

	redirect := fmt.Sprintf("%s#access_token=%s&token_type=Bearer", session.RedirectURI, url.QueryEscape(token))
	c.Redirect(http.StatusFound, redirect)
}

// Token exchanges the session cookie set by the authorize call for the
// verification JWT. One-time use: the session is consumed on success.
func (h *Handlers) Token(c *gin.Context) {
	ctx := c.Request.Context()

	if grantType := c.PostForm(h.constants.ParamGrantType); grantType != h.constants.GrantType {
		h.oidcError(c, http.StatusBadRequest, h.constants.ErrorInvalidGrantType,
			fmt.Sprintf("%s must be %s", h.constants.ParamGrantType, h.constants.GrantType))
		return
	}

	if h.services.Client.Enabled() {
		clientID, clientSecret, ok := c.Request.BasicAuth()
		if !ok {
			clientID = c.PostForm(h.constants.ParamClientID)
			clientSecret = c.PostForm(h.constants.ParamClientSecret)
		}
		if _, err := h.services.Client.Authenticate(clientID, clientSecret); err != nil {
			h.oidcError(c, http.StatusUnauthorized, h.constants.ErrorInvalidClient, "client authentication failed")
			return
		}
	}

	sessionID, err := c.Cookie(h.constants.SessionCookieName)
	if err != nil || sessionID == "" {
		h.oidcError(c, http.StatusBadRequest, h.constants.ErrorInvalidSession, "missing session cookie")
		return
	}

	session, err := h.services.Session.Lookup(ctx, sessionID)
	if err != nil {
		h.oidcError(c, http.StatusBadRequest, h.constants.ErrorInvalidSession, "session cannot be redeemed")
		return
	}

	token, err := h.issueToken(ctx, session)
	if err != nil {
		h.logger.Error("Failed to issue token", zap.Error(err), zap.String("session_id", session.ID))
		h.oidcError(c, http.StatusBadRequest, h.constants.ErrorInvalidSession, "session cannot be redeemed")
		return
	}
	if _, err := h.services.Session.Consume(ctx, session.ID); err != nil {
		h.oidcError(c, http.StatusBadRequest, h.constants.ErrorInvalidSession, "session cannot be redeemed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"verification_token": token})
}

// issueToken signs the JWT for a redeemable session. The presentation config
// may have been deleted since the authorize call; the token is still issued,
// just without a subject claim.
func (h *Handlers) issueToken(ctx context.Context, session *domain.AuthSession) (string, error) {
	presConfig, err := h.services.Presentation.GetConfig(ctx, session.PresentationConfigID)
	if err != nil && !errors.Is(err, service.ErrConfigNotFound) {
		return "", err
	}
	return h.services.Token.Issue(session, presConfig)
}

// ResolveShortURL redirects a shortened deep link to its long form
func (h *Handlers) ResolveShortURL(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing short URL key"})
		return
	}

	long, err := h.services.ShortURL.Resolve(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown short URL"})
		return
	}

	c.Redirect(http.StatusFound, long)
}
