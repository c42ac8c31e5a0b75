package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-vc-authn/internal/acapy"
	"github.com/sirosfoundation/go-vc-authn/internal/domain"
	"github.com/sirosfoundation/go-vc-authn/internal/service"
	"github.com/sirosfoundation/go-vc-authn/internal/storage/memory"
	"github.com/sirosfoundation/go-vc-authn/pkg/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testTokenSecret = "test-secret-test-secret-test-secret!"

// fakeAgent is a stand-in ACA-Py admin API
func fakeAgent(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/presentation_exchange/create_request", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"state": "request_sent"}`)
	})
	mux.HandleFunc("/wallet/did/public", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"result": {"did": "did:test:verifier", "verkey": "vk"}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type testAPI struct {
	router   *gin.Engine
	services *service.Services
	cfg      *config.Config
}

func setupTestAPI(t *testing.T, mutate func(*config.Config)) *testAPI {
	t.Helper()
	logger := zap.NewNop()
	agentSrv := fakeAgent(t)

	cfg := &config.Config{
		Server: config.ServerConfig{BaseURL: "http://localhost:8080"},
		Token: config.TokenConfig{
			Secret:          testTokenSecret,
			Issuer:          "http://localhost:8080",
			LifetimeSeconds: 10000,
		},
		Sessions: config.SessionConfig{LifetimeSeconds: 600},
		ACAPy:    config.ACAPyConfig{AdminURL: agentSrv.URL, Timeout: 5},
	}
	if mutate != nil {
		mutate(cfg)
	}

	store := memory.NewStore()
	services := service.NewServices(store, cfg, logger)
	agent := acapy.NewClient(&cfg.ACAPy, logger)
	handlers := NewHandlers(services, agent, cfg, DefaultConstants(), logger)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	registerTestRoutes(router, handlers)

	return &testAPI{router: router, services: services, cfg: cfg}
}

func registerTestRoutes(router *gin.Engine, handlers *Handlers) {
	router.GET("/status", handlers.Status)
	vc := router.Group("/vc/connect")
	{
		vc.POST("/authorize", handlers.Authorize)
		vc.GET("/poll", handlers.Poll)
		vc.POST("/poll", handlers.Poll)
		vc.GET("/callback", handlers.Callback)
		vc.POST("/token", handlers.Token)
	}
	router.POST("/topic/:topic", handlers.Webhook)
	router.GET("/url/:key", handlers.ResolveShortURL)
}

func (a *testAPI) seedConfig(t *testing.T) *domain.PresentationConfig {
	t.Helper()
	cfg := &domain.PresentationConfig{
		ID:                "test-proof",
		SubjectIdentifier: "attribute1",
		Configuration: domain.ProofRequest{
			Name:    "proof of attribute",
			Version: "1.0",
			RequestedAttributes: map[string]domain.AttributeInfo{
				"attr_0": {Name: "attribute1"},
			},
		},
	}
	if err := a.services.Presentation.PutConfig(context.Background(), cfg); err != nil {
		t.Fatalf("Failed to seed presentation config: %v", err)
	}
	return cfg
}

func (a *testAPI) post(path string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) authorize(t *testing.T, extra url.Values) (AuthorizeResponse, *httptest.ResponseRecorder) {
	t.Helper()
	form := url.Values{
		"scope":            {"openid vc_authn"},
		"pres_req_conf_id": {"test-proof"},
		"redirect_uri":     {"http://localhost/cb"},
	}
	for k, v := range extra {
		form[k] = v
	}
	w := a.post("/vc/connect/authorize", form)
	if w.Code != http.StatusOK {
		t.Fatalf("authorize status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp AuthorizeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse authorize response: %v", err)
	}
	return resp, w
}

// deliverProof simulates the agent webhook for a completed presentation
func (a *testAPI) deliverProof(t *testing.T, threadID string, attrs map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	revealed := make(map[string]map[string]string, len(attrs))
	for name, raw := range attrs {
		revealed[name] = map[string]string{"raw": raw}
	}
	body, err := json.Marshal(map[string]interface{}{
		"state":     "presentation_received",
		"thread_id": threadID,
		"presentation_exchange_id": "pxid-1",
		"presentation": map[string]interface{}{
			"requested_proof": map[string]interface{}{"revealed_attrs": revealed},
		},
	})
	if err != nil {
		t.Fatalf("Failed to encode webhook body: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/topic/presentations", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	a.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("Cookie %q not set", name)
	return nil
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse error body %q: %v", w.Body.String(), err)
	}
	code, _ := body["error"].(string)
	return code
}

func TestHandlers_Status(t *testing.T) {
	a := setupTestAPI(t, nil)

	w := a.get("/status")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got %v", response["status"])
	}
	if response["service"] != "vc-authn" {
		t.Errorf("Expected service 'vc-authn', got %v", response["service"])
	}
}

func TestHandlers_Authorize_ValidationOrder(t *testing.T) {
	a := setupTestAPI(t, nil)
	a.seedConfig(t)

	tests := []struct {
		name      string
		form      url.Values
		wantError string
	}{
		{
			name:      "missing scope",
			form:      url.Values{"pres_req_conf_id": {"test-proof"}, "redirect_uri": {"http://localhost/cb"}},
			wantError: "missing_vc_authn_scope",
		},
		{
			name:      "wrong scope",
			form:      url.Values{"scope": {"openid profile"}, "pres_req_conf_id": {"test-proof"}, "redirect_uri": {"http://localhost/cb"}},
			wantError: "missing_vc_authn_scope",
		},
		{
			// Scope is checked before the config id, so a request missing
			// both reports the scope problem.
			name:      "scope checked before config id",
			form:      url.Values{"redirect_uri": {"http://localhost/cb"}},
			wantError: "missing_vc_authn_scope",
		},
		{
			name:      "missing pres_req_conf_id",
			form:      url.Values{"scope": {"vc_authn"}, "redirect_uri": {"http://localhost/cb"}},
			wantError: "invalid_pres_req_conf_id",
		},
		{
			name:      "unknown pres_req_conf_id",
			form:      url.Values{"scope": {"vc_authn"}, "pres_req_conf_id": {"no-such"}, "redirect_uri": {"http://localhost/cb"}},
			wantError: "invalid_pres_req_conf_id",
		},
		{
			name:      "missing redirect_uri",
			form:      url.Values{"scope": {"vc_authn"}, "pres_req_conf_id": {"test-proof"}},
			wantError: "invalid_redirect_uri",
		},
		{
			name:      "malformed redirect_uri",
			form:      url.Values{"scope": {"vc_authn"}, "pres_req_conf_id": {"test-proof"}, "redirect_uri": {"not a uri"}},
			wantError: "invalid_redirect_uri",
		},
		{
			name: "unsupported response_type",
			form: url.Values{
				"scope": {"vc_authn"}, "pres_req_conf_id": {"test-proof"},
				"redirect_uri": {"http://localhost/cb"}, "response_type": {"id_token"},
			},
			wantError: "invalid_response_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.post("/vc/connect/authorize", tt.form)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d: %s", w.Code, w.Body.String())
			}
			if code := errorCode(t, w); code != tt.wantError {
				t.Errorf("Expected error %q, got %q", tt.wantError, code)
			}
		})
	}
}

func TestHandlers_Authorize_ClientChecks(t *testing.T) {
	a := setupTestAPI(t, func(cfg *config.Config) {
		cfg.Clients = []config.ClientConfig{
			{ID: "rp-1", Secret: "s3cret", RedirectURIs: []string{"http://localhost/cb"}},
		}
	})
	a.seedConfig(t)

	w := a.post("/vc/connect/authorize", url.Values{
		"client_id": {"unknown"}, "scope": {"vc_authn"},
		"pres_req_conf_id": {"test-proof"}, "redirect_uri": {"http://localhost/cb"},
	})
	if code := errorCode(t, w); w.Code != http.StatusBadRequest || code != "invalid_client" {
		t.Errorf("Expected 400 invalid_client, got %d %q", w.Code, code)
	}

	w = a.post("/vc/connect/authorize", url.Values{
		"client_id": {"rp-1"}, "scope": {"vc_authn"},
		"pres_req_conf_id": {"test-proof"}, "redirect_uri": {"http://evil.example/cb"},
	})
	if code := errorCode(t, w); w.Code != http.StatusBadRequest || code != "invalid_redirect_uri" {
		t.Errorf("Expected 400 invalid_redirect_uri, got %d %q", w.Code, code)
	}

	w = a.post("/vc/connect/authorize", url.Values{
		"client_id": {"rp-1"}, "scope": {"vc_authn"},
		"pres_req_conf_id": {"test-proof"}, "redirect_uri": {"http://localhost/cb"},
	})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for registered client, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandlers_Authorize_Success(t *testing.T) {
	a := setupTestAPI(t, nil)
	a.seedConfig(t)

	resp, w := a.authorize(t, nil)

	if !strings.HasPrefix(resp.URL, "http://localhost:8080/url/") {
		t.Errorf("Expected shortened URL, got %q", resp.URL)
	}
	if resp.PresReq == "" {
		t.Error("Expected non-empty pres_req")
	}

	cookie := sessionCookie(t, w, "sessionid")
	if cookie.Value != resp.SessionID {
		t.Errorf("Cookie value %q does not match session id %q", cookie.Value, resp.SessionID)
	}

	// The b64 payload is the signed-over presentation request.
	payload, err := base64.URLEncoding.DecodeString(resp.B64Presentation)
	if err != nil {
		t.Fatalf("Failed to decode b64 presentation: %v", err)
	}
	var request domain.PresentationRequest
	if err := json.Unmarshal(payload, &request); err != nil {
		t.Fatalf("Failed to parse presentation request: %v", err)
	}
	if request.ThreadID != resp.PresReq {
		t.Errorf("Thread id %q does not match pres_req %q", request.ThreadID, resp.PresReq)
	}
	if request.Request.Nonce == "" {
		t.Error("Expected non-empty nonce in published request")
	}
}

func TestHandlers_Authorize_FreshSessionPerCall(t *testing.T) {
	a := setupTestAPI(t, nil)
	a.seedConfig(t)

	first, _ := a.authorize(t, nil)
	second, _ := a.authorize(t, nil)

	if first.SessionID == second.SessionID {
		t.Error("Session ids must differ between authorize calls")
	}
	if first.PresReq == second.PresReq {
		t.Error("Correlation ids must differ between authorize calls")
	}
}

func TestHandlers_Poll_Lifecycle(t *testing.T) {
	a := setupTestAPI(t, nil)
	a.seedConfig(t)

	w := a.get("/vc/connect/poll?pres_req=no-such-thread")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown pres_req, got %d", w.Code)
	}

	w = a.get("/vc/connect/poll")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing pres_req, got %d", w.Code)
	}

	resp, _ := a.authorize(t, nil)

	w = a.get("/vc/connect/poll?pres_req=" + resp.PresReq)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 while pending, got %d", w.Code)
	}

	if w := a.deliverProof(t, resp.PresReq, map[string]string{"attribute1": "did:example:123"}); w.Code != http.StatusOK {
		t.Fatalf("Webhook status = %d", w.Code)
	}

	// Polling is repeatable and read-only.
	for i := 0; i < 3; i++ {
		w = a.get("/vc/connect/poll?pres_req=" + resp.PresReq)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200 after webhook, got %d", w.Code)
		}
	}
}

// Sessions with an expiry in the future are redeemable; only a past expiry
// blocks them.
func TestHandlers_Poll_FutureExpiryIsNotExpired(t *testing.T) {
	a := setupTestAPI(t, func(cfg *config.Config) {
		cfg.Sessions.LifetimeSeconds = 100000
	})
	a.seedConfig(t)

	resp, _ := a.authorize(t, nil)
	a.deliverProof(t, resp.PresReq, map[string]string{"attribute1": "did:example:123"})

	w := a.get("/vc/connect/poll?pres_req=" + resp.PresReq)
	if w.Code != http.StatusOK {
		t.Errorf("Session with future expiry polled %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestHandlers_Poll_Expired(t *testing.T) {
	a := setupTestAPI(t, func(cfg *config.Config) {
		cfg.Sessions.LifetimeSeconds = -1
	})
	a.seedConfig(t)

	resp, _ := a.authorize(t, nil)
	a.deliverProof(t, resp.PresReq, map[string]string{"attribute1": "did:example:123"})

	w := a.get("/vc/connect/poll?pres_req=" + resp.PresReq)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for expired session, got %d", w.Code)
	}
}

func TestHandlers_Webhook_AlwaysAcknowledges(t *testing.T) {
	a := setupTestAPI(t, nil)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"unknown topic", "/topic/connections", `{"state": "active"}`},
		{"ignored state", "/topic/presentations", `{"state": "request_sent", "thread_id": "t1"}`},
		{"unknown thread id", "/topic/presentations", `{"state": "presentation_received", "thread_id": "never-created", "presentation": {"requested_proof": {"revealed_attrs": {"a": {"raw": "x"}}}}}`},
		{"garbage body", "/topic/presentations", `{{{`},
		{"missing proof", "/topic/presentations", `{"state": "presentation_received", "thread_id": "t1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			a.router.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("Webhook must always return 200, got %d", w.Code)
			}
		})
	}
}

func TestHandlers_Webhook_DuplicateDeliveryKeepsFirstProof(t *testing.T) {
	a := setupTestAPI(t, nil)
	a.seedConfig(t)

	resp, _ := a.authorize(t, nil)
	if w := a.deliverProof(t, resp.PresReq, map[string]string{"attribute1": "did:example:123"}); w.Code != http.StatusOK {
		t.Fatalf("First webhook status = %d", w.Code)
	}
	if w := a.deliverProof(t, resp.PresReq, map[string]string{"attribute1": "did:evil:999"}); w.Code != http.StatusOK {
		t.Fatalf("Second webhook status = %d", w.Code)
	}

	session, err := a.services.Session.Lookup(context.Background(), resp.SessionID)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got := session.Proof.RequestedProof.RevealedAttributes["attribute1"].Raw; got != "did:example:123" {
		t.Errorf("Duplicate webhook replaced the proof: got %q", got)
	}
}

func TestHandlers_CodeFlow_EndToEnd(t *testing.T) {
	a := setupTestAPI(t, nil)
	a.seedConfig(t)

	resp, authW := a.authorize(t, nil)
	a.deliverProof(t, resp.PresReq, map[string]string{"attribute1": "did:example:123"})

	// Callback redirects with the code and leaves the session alone.
	w := a.get("/vc/connect/callback?pres_req=" + resp.SessionID)
	if w.Code != http.StatusFound {
		t.Fatalf("Callback status = %d: %s", w.Code, w.Body.String())
	}
	loc := w.Header().Get("Location")
	if loc != "http://localhost/cb?code="+resp.SessionID {
		t.Errorf("Unexpected callback redirect %q", loc)
	}

	// Token exchange with the session cookie.
	tokenReq := httptest.NewRequest(http.MethodPost, "/vc/connect/token",
		strings.NewReader(url.Values{"grant_type": {"verification_code"}}.Encode()))
	tokenReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	tokenReq.AddCookie(sessionCookie(t, authW, "sessionid"))

	tw := httptest.NewRecorder()
	a.router.ServeHTTP(tw, tokenReq)
	if tw.Code != http.StatusOK {
		t.Fatalf("Token status = %d: %s", tw.Code, tw.Body.String())
	}

	var tokenResp map[string]string
	if err := json.Unmarshal(tw.Body.Bytes(), &tokenResp); err != nil {
		t.Fatalf("Failed to parse token response: %v", err)
	}

	parsed, err := jwt.Parse(tokenResp["verification_token"], func(token *jwt.Token) (interface{}, error) {
		return []byte(testTokenSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("Issued token invalid: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != "did:example:123" {
		t.Errorf("Expected sub did:example:123, got %v", claims["sub"])
	}
	if claims["attribute1"] != "did:example:123" {
		t.Errorf("Expected attribute1 claim, got %v", claims["attribute1"])
	}
	if claims["pres_req_conf_id"] != "test-proof" {
		t.Errorf("Expected pres_req_conf_id claim, got %v", claims["pres_req_conf_id"])
	}

	// One-time use: the same cookie cannot be exchanged twice.
	tokenReq2 := httptest.NewRequest(http.MethodPost, "/vc/connect/token",
		strings.NewReader(url.Values{"grant_type": {"verification_code"}}.Encode()))
	tokenReq2.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	tokenReq2.AddCookie(sessionCookie(t, authW, "sessionid"))

	tw2 := httptest.NewRecorder()
	a.router.ServeHTTP(tw2, tokenReq2)
	if tw2.Code != http.StatusBadRequest {
		t.Fatalf("Second exchange status = %d, want 400", tw2.Code)
	}
	if code := errorCode(t, tw2); code != "invalid_session" {
		t.Errorf("Second exchange error = %q, want invalid_session", code)
	}
}

func TestHandlers_TokenFlow_CallbackConsumes(t *testing.T) {
	a := setupTestAPI(t, nil)
	a.seedConfig(t)

	resp, _ := a.authorize(t, url.Values{"response_type": {"token"}})
	a.deliverProof(t, resp.PresReq, map[string]string{"attribute1": "did:example:123"})

	w := a.get("/vc/connect/callback?pres_req=" + resp.SessionID)
	if w.Code != http.StatusFound {
		t.Fatalf("Callback status = %d: %s", w.Code, w.Body.String())
	}
	loc := w.Header().Get("Location")
	if !strings.HasPrefix(loc, "http://localhost/cb#access_token=") {
		t.Errorf("Expected fragment redirect, got %q", loc)
	}
	if !strings.HasSuffix(loc, "&token_type=Bearer") {
		t.Errorf("Expected Bearer token type in %q", loc)
	}

	// Token flow issues at the callback, so the session is gone.
	w = a.get("/vc/connect/callback?pres_req=" + resp.SessionID)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Second callback status = %d, want 400", w.Code)
	}
}

func TestHandlers_Callback_InvalidSessions(t *testing.T) {
	a := setupTestAPI(t, nil)
	a.seedConfig(t)

	// Unknown session id.
	w := a.get("/vc/connect/callback?pres_req=no-such-session")
	if code := errorCode(t, w); w.Code != http.StatusBadRequest || code != "invalid_session" {
		t.Errorf("Expected 400 invalid_session, got %d %q", w.Code, code)
	}

	// Unsatisfied session.
	resp, _ := a.authorize(t, nil)
	w = a.get("/vc/connect/callback?pres_req=" + resp.SessionID)
	if code := errorCode(t, w); w.Code != http.StatusBadRequest || code != "invalid_session" {
		t.Errorf("Expected 400 invalid_session for unsatisfied session, got %d %q", w.Code, code)
	}
}

func TestHandlers_Callback_MethodNotAllowed(t *testing.T) {
	a := setupTestAPI(t, nil)

	w := a.post("/vc/connect/callback", url.Values{"pres_req": {"x"}})
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for POST callback, got %d", w.Code)
	}
}

func TestHandlers_Token_Errors(t *testing.T) {
	a := setupTestAPI(t, nil)
	a.seedConfig(t)

	// Wrong grant type.
	w := a.post("/vc/connect/token", url.Values{"grant_type": {"authorization_code"}})
	if code := errorCode(t, w); w.Code != http.StatusBadRequest || code != "invalid_grant_type" {
		t.Errorf("Expected 400 invalid_grant_type, got %d %q", w.Code, code)
	}

	// Missing cookie.
	w = a.post("/vc/connect/token", url.Values{"grant_type": {"verification_code"}})
	if code := errorCode(t, w); w.Code != http.StatusBadRequest || code != "invalid_session" {
		t.Errorf("Expected 400 invalid_session without cookie, got %d %q", w.Code, code)
	}
}

func TestHandlers_Token_ClientAuth(t *testing.T) {
	a := setupTestAPI(t, func(cfg *config.Config) {
		cfg.Clients = []config.ClientConfig{{ID: "rp-1", Secret: "s3cret"}}
	})
	a.seedConfig(t)

	resp, authW := a.authorize(t, url.Values{"client_id": {"rp-1"}})
	a.deliverProof(t, resp.PresReq, map[string]string{"attribute1": "did:example:123"})

	// Wrong secret via form.
	req := httptest.NewRequest(http.MethodPost, "/vc/connect/token",
		strings.NewReader(url.Values{
			"grant_type": {"verification_code"}, "client_id": {"rp-1"}, "client_secret": {"wrong"},
		}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(sessionCookie(t, authW, "sessionid"))
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for bad client secret, got %d", w.Code)
	}

	// Correct credentials via basic auth.
	req = httptest.NewRequest(http.MethodPost, "/vc/connect/token",
		strings.NewReader(url.Values{"grant_type": {"verification_code"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("rp-1", "s3cret")
	req.AddCookie(sessionCookie(t, authW, "sessionid"))
	w = httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with basic auth, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandlers_ResolveShortURL(t *testing.T) {
	a := setupTestAPI(t, nil)
	a.seedConfig(t)

	resp, _ := a.authorize(t, nil)
	key := strings.TrimPrefix(resp.URL, "http://localhost:8080/url/")

	w := a.get("/url/" + key)
	if w.Code != http.StatusFound {
		t.Fatalf("Resolve status = %d", w.Code)
	}
	loc := w.Header().Get("Location")
	if !strings.Contains(loc, "?m="+resp.B64Presentation) {
		t.Errorf("Deep link %q does not carry the b64 challenge", loc)
	}
	if !strings.Contains(loc, "did=did%3Atest%3Averifier") {
		t.Errorf("Deep link %q is missing the verifier DID", loc)
	}

	w = a.get("/url/unknown-key")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown key, got %d", w.Code)
	}
}
