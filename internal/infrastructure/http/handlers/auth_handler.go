package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/xamogh/medxz/internal/application/auth"
	"github.com/xamogh/medxz/internal/domain"
	domerrors "github.com/xamogh/medxz/internal/domain/errors"
	"github.com/xamogh/medxz/internal/infrastructure/http/middleware"
)

// AuthHandler exposes login, me and logout over HTTP.
type AuthHandler struct {
	login        *auth.Login
	authenticate *auth.Authenticate
	logout       *auth.Logout
	validate     *validator.Validate
	log          zerolog.Logger
}

func NewAuthHandler(login *auth.Login, authenticate *auth.Authenticate, logout *auth.Logout, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		login:        login,
		authenticate: authenticate,
		logout:       logout,
		validate:     validator.New(),
		log:          log,
	}
}

type organizationInfo struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type userInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginResponse struct {
	SessionToken string           `json:"session_token"`
	Organization organizationInfo `json:"organization"`
	User         userInfo         `json:"user"`
}

type meResponse struct {
	Organization organizationInfo `json:"organization"`
	User         userInfo         `json:"user"`
}

type logoutResponse struct {
	OK bool `json:"ok"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrganizationCode string `json:"organization_code" validate:"max=128"`
		Email            string `json:"email" validate:"max=254"`
		Password         string `json:"password" validate:"max=128"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, h.log, domerrors.BadRequest("invalid JSON body"))
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeError(w, h.log, domerrors.BadRequest(err.Error()))
		return
	}

	orgCode := strings.TrimSpace(body.OrganizationCode)
	result, err := h.login.Execute(r.Context(), auth.LoginInput{
		OrganizationCode: body.OrganizationCode,
		Email:            body.Email,
		Password:         body.Password,
	})
	if err != nil {
		h.logEvent(r, "auth.login", orgCode, "", false, err)
		middleware.RecordAuthAttempt("login", orgCode, false)
		writeError(w, h.log, err)
		return
	}

	h.logEvent(r, "auth.login", result.Organization.Code, result.User.ID.String(), true, nil)
	middleware.RecordAuthAttempt("login", result.Organization.Code, true)
	writeJSON(w, http.StatusOK, loginResponse{
		SessionToken: result.SessionToken,
		Organization: organizationInfo{
			ID:   result.Organization.ID.String(),
			Code: result.Organization.Code,
			Name: result.Organization.Name,
		},
		User: userInfo{
			ID:    result.User.ID.String(),
			Email: result.User.Email,
			Role:  result.User.Role,
		},
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authenticate.Execute(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		Organization: identityOrganization(identity),
		User:         identityUser(identity),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, err := h.logout.Execute(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		middleware.RecordAuthAttempt("logout", "", false)
		writeError(w, h.log, err)
		return
	}
	h.logEvent(r, "auth.logout", identity.OrganizationCode, identity.UserID.String(), true, nil)
	middleware.RecordAuthAttempt("logout", identity.OrganizationCode, true)
	writeJSON(w, http.StatusOK, logoutResponse{OK: true})
}

func identityOrganization(identity *domain.AuthContext) organizationInfo {
	return organizationInfo{
		ID:   identity.OrganizationID.String(),
		Code: identity.OrganizationCode,
		Name: identity.OrganizationName,
	}
}

func identityUser(identity *domain.AuthContext) userInfo {
	return userInfo{
		ID:    identity.UserID.String(),
		Email: identity.UserEmail,
		Role:  identity.UserRole,
	}
}

// logEvent records an auth event. Nothing secret is logged: no passwords, no
// tokens, no digests.
func (h *AuthHandler) logEvent(r *http.Request, event, orgCode, userID string, success bool, err error) {
	ev := h.log.Info()
	if !success {
		ev = h.log.Warn()
	}
	ev.
		Str("event", event).
		Str("organization", orgCode).
		Str("request_id", chimid.GetReqID(r.Context())).
		Bool("success", success)
	if userID != "" {
		ev.Str("user_id", userID)
	}
	if err != nil {
		ev.Str("error", domerrors.MessageOf(err))
	}
	ev.Msg("auth_event")
}
