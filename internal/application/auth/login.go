package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xamogh/medxz/internal/application/ports"
	"github.com/xamogh/medxz/internal/domain"
	domerrors "github.com/xamogh/medxz/internal/domain/errors"
)

// DefaultSessionTTL is how long an issued session stays valid.
const DefaultSessionTTL = 30 * 24 * time.Hour

type LoginInput struct {
	OrganizationCode string
	Email            string
	Password         string
}

type LoginResult struct {
	SessionToken string
	Organization *domain.Organization
	User         *domain.User
}

// Login validates credentials for an organization-scoped user and issues an
// opaque session token. The token is returned exactly once; only its SHA-256
// digest is persisted.
type Login struct {
	creds    ports.CredentialStore
	sessions ports.SessionStore
	hasher   ports.PasswordHasher
	ttl      time.Duration
	now      func() time.Time
}

func NewLogin(creds ports.CredentialStore, sessions ports.SessionStore, hasher ports.PasswordHasher, ttl time.Duration) *Login {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Login{
		creds:    creds,
		sessions: sessions,
		hasher:   hasher,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (uc *Login) Execute(ctx context.Context, input LoginInput) (*LoginResult, error) {
	orgCode := strings.TrimSpace(input.OrganizationCode)
	if orgCode == "" {
		return nil, domerrors.BadRequest("organization_code is required")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, domerrors.BadRequest("email is required")
	}
	if input.Password == "" {
		return nil, domerrors.BadRequest("password is required")
	}

	org, err := uc.creds.FindOrganizationByCode(ctx, orgCode)
	if err != nil {
		return nil, domerrors.Internal("database error", err)
	}
	if org == nil {
		return nil, domerrors.NotFoundf("unknown organization code: %s", orgCode)
	}

	user, err := uc.creds.FindUserByEmail(ctx, org.ID, email)
	if err != nil {
		return nil, domerrors.Internal("database error", err)
	}
	if user == nil {
		return nil, domerrors.NotFoundf("no user with email %s in this organization", email)
	}
	if !user.IsActive {
		return nil, domerrors.Forbiddenf("user %s is disabled", email)
	}

	ok, err := uc.hasher.Verify(user.PasswordHash, input.Password)
	if err != nil {
		// Parse failure means a corrupt stored hash, not a bad login.
		return nil, domerrors.Internal("internal error", err)
	}
	if !ok {
		return nil, domerrors.Unauthorized("incorrect password")
	}

	token, digest, err := mintSessionToken()
	if err != nil {
		return nil, domerrors.Internal("internal error", err)
	}

	now := uc.now()
	session := &domain.Session{
		ID:             domain.NewSessionID(newUUIDv7()),
		OrganizationID: org.ID,
		UserID:         user.ID,
		TokenDigest:    digest,
		CreatedAt:      now,
		ExpiresAt:      now.Add(uc.ttl),
		LastUsedAt:     now,
	}
	if err := uc.sessions.Create(ctx, session); err != nil {
		return nil, domerrors.Internal("database error", err)
	}

	return &LoginResult{
		SessionToken: token,
		Organization: org,
		User:         user,
	}, nil
}

// mintSessionToken draws 32 random bytes and returns their URL-safe unpadded
// base64 form plus the SHA-256 digest of the raw bytes. The digest is computed
// over the decoded bytes, not the encoded text, matching digestSessionToken.
func mintSessionToken() (token string, digest []byte, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, err
	}
	sum := sha256.Sum256(raw)
	return base64.RawURLEncoding.EncodeToString(raw), sum[:], nil
}

func newUUIDv7() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 fails only if the random source does; fall back to v4.
		return uuid.New()
	}
	return id
}
