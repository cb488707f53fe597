package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionID is a value object for session identity.
type SessionID struct{ uuid.UUID }

// NewSessionID creates a new SessionID from uuid.
func NewSessionID(id uuid.UUID) SessionID { return SessionID{UUID: id} }

// String returns the canonical string form.
func (s SessionID) String() string { return s.UUID.String() }

// Session is a server-side record of an issued bearer token. Only the SHA-256
// digest of the token's random bytes is kept; the plaintext token exists only
// in the login response. Sessions are never hard-deleted: expiry is a
// query-time predicate and revocation sets RevokedAt once, permanently.
type Session struct {
	ID             SessionID
	OrganizationID OrganizationID
	UserID         UserID
	TokenDigest    []byte
	CreatedAt      time.Time
	ExpiresAt      time.Time
	LastUsedAt     time.Time
	RevokedAt      *time.Time
}

// AuthContext is the identity resolved from a valid bearer token: the session
// joined with its user and organization in a single lookup.
type AuthContext struct {
	SessionID        SessionID
	OrganizationID   OrganizationID
	OrganizationCode string
	OrganizationName string
	UserID           UserID
	UserEmail        string
	UserRole         string
}
