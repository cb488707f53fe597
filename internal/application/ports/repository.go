package ports

import (
	"context"
	"time"

	"github.com/xamogh/medxz/internal/domain"
)

// CredentialStore resolves organizations and users by their natural keys.
// Read-only. Lookups return (nil, nil) when no row matches; the caller decides
// what absence means. Email must already be normalized (trimmed, lowercased)
// by the caller.
type CredentialStore interface {
	FindOrganizationByCode(ctx context.Context, code string) (*domain.Organization, error)
	FindUserByEmail(ctx context.Context, orgID domain.OrganizationID, email string) (*domain.User, error)
}

// SessionStore persists session records. Sessions are soft-lifecycle: Revoke
// sets revoked_at once and is a no-op afterwards, and nothing ever deletes a
// row.
type SessionStore interface {
	Create(ctx context.Context, session *domain.Session) error

	// FindActiveByDigest resolves a token digest to its full auth context in a
	// single joined query, filtering revoked and expired sessions at query
	// time. Returns (nil, nil) when no active session matches.
	FindActiveByDigest(ctx context.Context, tokenDigest []byte) (*domain.AuthContext, error)

	TouchLastUsed(ctx context.Context, id domain.SessionID, at time.Time) error
	Revoke(ctx context.Context, id domain.SessionID, at time.Time) error
}
