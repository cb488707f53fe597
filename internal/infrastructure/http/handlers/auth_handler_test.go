package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xamogh/medxz/internal/application/auth"
	"github.com/xamogh/medxz/internal/domain"
	httpinfra "github.com/xamogh/medxz/internal/infrastructure/http"
	"github.com/xamogh/medxz/internal/infrastructure/http/handlers"
	"github.com/xamogh/medxz/internal/infrastructure/queue"
	"github.com/xamogh/medxz/internal/infrastructure/security"
)

// fakeStore backs the full stack with in-memory data: one organization, one
// user, and whatever sessions login creates.
type fakeStore struct {
	mu       sync.Mutex
	org      *domain.Organization
	user     *domain.User
	sessions map[string]*domain.Session
}

func newFakeStore(passwordHash string) *fakeStore {
	org := &domain.Organization{
		ID:        domain.NewOrganizationID(uuid.New()),
		Code:      "acme-dental",
		Name:      "Acme Dental",
		CreatedAt: time.Now(),
	}
	user := &domain.User{
		ID:             domain.NewUserID(uuid.New()),
		OrganizationID: org.ID,
		Email:          "front@desk.com",
		PasswordHash:   passwordHash,
		Role:           "front_desk",
		IsActive:       true,
	}
	return &fakeStore{org: org, user: user, sessions: make(map[string]*domain.Session)}
}

func (s *fakeStore) FindOrganizationByCode(_ context.Context, code string) (*domain.Organization, error) {
	if code == s.org.Code {
		return s.org, nil
	}
	return nil, nil
}

func (s *fakeStore) FindUserByEmail(_ context.Context, orgID domain.OrganizationID, email string) (*domain.User, error) {
	if orgID == s.user.OrganizationID && email == s.user.Email {
		return s.user, nil
	}
	return nil, nil
}

func (s *fakeStore) Create(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[string(session.TokenDigest)] = session
	return nil
}

func (s *fakeStore) FindActiveByDigest(_ context.Context, tokenDigest []byte) (*domain.AuthContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[string(tokenDigest)]
	if !ok || session.RevokedAt != nil || !session.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	return &domain.AuthContext{
		SessionID:        session.ID,
		OrganizationID:   s.org.ID,
		OrganizationCode: s.org.Code,
		OrganizationName: s.org.Name,
		UserID:           s.user.ID,
		UserEmail:        s.user.Email,
		UserRole:         s.user.Role,
	}, nil
}

func (s *fakeStore) TouchLastUsed(_ context.Context, id domain.SessionID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.ID == id {
			session.LastUsedAt = at
		}
	}
	return nil
}

func (s *fakeStore) Revoke(_ context.Context, id domain.SessionID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.ID == id && session.RevokedAt == nil {
			revoked := at
			session.RevokedAt = &revoked
		}
	}
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeStore) {
	t.Helper()

	hasher := security.NewArgon2Hasher(security.Argon2Params{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	hash, err := hasher.Hash("pw123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	store := newFakeStore(hash)

	log := zerolog.Nop()
	login := auth.NewLogin(store, store, hasher, auth.DefaultSessionTTL)
	authenticate := auth.NewAuthenticate(store, queue.NewNoopEnqueuer(), log)
	logout := auth.NewLogout(authenticate, store)

	handler := handlers.NewAuthHandler(login, authenticate, logout, log)
	router := httpinfra.NewRouter(httpinfra.RouterConfig{
		AuthHandler: handler,
		Log:         log,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func doAuthorized(t *testing.T, method, url, authorization string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		t.Fatalf("decode body %q: %v", raw, err)
	}
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestLoginMeLogoutFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/auth/login",
		`{"organization_code":"acme-dental","email":"front@desk.com","password":"pw123"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	var loginBody struct {
		SessionToken string `json:"session_token"`
		Organization struct {
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"organization"`
		User struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	decodeBody(t, resp, &loginBody)
	if loginBody.SessionToken == "" {
		t.Fatal("login response has no session_token")
	}
	if loginBody.Organization.Code != "acme-dental" || loginBody.User.Role != "front_desk" {
		t.Fatalf("unexpected login body: %+v", loginBody)
	}

	bearer := "Bearer " + loginBody.SessionToken

	resp = doAuthorized(t, http.MethodGet, srv.URL+"/v1/auth/me", bearer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d, want 200", resp.StatusCode)
	}
	var meBody struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeBody(t, resp, &meBody)
	if meBody.User.Email != "front@desk.com" {
		t.Fatalf("me email = %q", meBody.User.Email)
	}

	resp = doAuthorized(t, http.MethodPost, srv.URL+"/v1/auth/logout", bearer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", resp.StatusCode)
	}
	var logoutBody struct {
		OK bool `json:"ok"`
	}
	decodeBody(t, resp, &logoutBody)
	if !logoutBody.OK {
		t.Fatal("logout response ok = false")
	}

	resp = doAuthorized(t, http.MethodGet, srv.URL+"/v1/auth/me", bearer)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout status = %d, want 401", resp.StatusCode)
	}
	var errBody errorPayload
	decodeBody(t, resp, &errBody)
	if errBody.Code != "unauthorized" || errBody.Message != "invalid or expired session token" {
		t.Fatalf("unexpected error body: %+v", errBody)
	}
}

func TestMeWithoutAuthorizationHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doAuthorized(t, http.MethodGet, srv.URL+"/v1/auth/me", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	var errBody errorPayload
	decodeBody(t, resp, &errBody)
	if errBody.Code != "unauthorized" || errBody.Message != "missing Authorization header" {
		t.Fatalf("unexpected error body: %+v", errBody)
	}
}

func TestLoginRejectsBadJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/auth/login", `{"organization_code":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var errBody errorPayload
	decodeBody(t, resp, &errBody)
	if errBody.Code != "bad_request" {
		t.Fatalf("error code = %q, want bad_request", errBody.Code)
	}
}

func TestLoginRejectsOversizedFields(t *testing.T) {
	srv, _ := newTestServer(t)

	longEmail := strings.Repeat("a", 255) + "@desk.com"
	resp := postJSON(t, srv.URL+"/v1/auth/login",
		`{"organization_code":"acme-dental","email":"`+longEmail+`","password":"pw123"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var errBody errorPayload
	decodeBody(t, resp, &errBody)
	if errBody.Code != "bad_request" {
		t.Fatalf("error code = %q, want bad_request", errBody.Code)
	}
}

func TestLoginFailures(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "wrong password",
			body:        `{"organization_code":"acme-dental","email":"front@desk.com","password":"nope"}`,
			wantStatus:  http.StatusUnauthorized,
			wantCode:    "unauthorized",
			wantMessage: "incorrect password",
		},
		{
			name:        "unknown organization",
			body:        `{"organization_code":"other-clinic","email":"front@desk.com","password":"pw123"}`,
			wantStatus:  http.StatusNotFound,
			wantCode:    "not_found",
			wantMessage: "unknown organization code: other-clinic",
		},
		{
			name:        "missing organization code",
			body:        `{"email":"front@desk.com","password":"pw123"}`,
			wantStatus:  http.StatusBadRequest,
			wantCode:    "bad_request",
			wantMessage: "organization_code is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/v1/auth/login", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var errBody errorPayload
			decodeBody(t, resp, &errBody)
			if errBody.Code != tt.wantCode || errBody.Message != tt.wantMessage {
				t.Fatalf("error body = %+v, want code %q message %q", errBody, tt.wantCode, tt.wantMessage)
			}
		})
	}
}

func TestHealthzWithoutHealthHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Status string `json:"status"`
	}
	decodeBody(t, resp, &body)
	if body.Status != "ok" {
		t.Fatalf("status field = %q, want ok", body.Status)
	}
}
