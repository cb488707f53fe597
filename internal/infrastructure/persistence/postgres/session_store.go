package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xamogh/medxz/internal/application/ports"
	"github.com/xamogh/medxz/internal/domain"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (id, organization_id, user_id, token_digest, created_at, expires_at, last_used_at)
VALUES ($1, $2, $3, $4, $5, $6, $5)`

	// Validity is evaluated inside the query so the read and the
	// revoked/expired filter happen against the same snapshot.
	findActiveByDigestSQL = `
SELECT
	s.id AS session_id,
	s.organization_id,
	o.code AS organization_code,
	o.name AS organization_name,
	s.user_id,
	u.email AS user_email,
	u.role AS user_role
FROM sessions s
JOIN users u ON u.id = s.user_id
JOIN organizations o ON o.id = s.organization_id
WHERE s.token_digest = $1
  AND s.revoked_at IS NULL
  AND s.expires_at > now()`

	touchSessionSQL = `UPDATE sessions SET last_used_at = $2 WHERE id = $1`

	// COALESCE keeps the first revocation timestamp; revoking twice is a no-op.
	revokeSessionSQL = `UPDATE sessions SET revoked_at = COALESCE(revoked_at, $2) WHERE id = $1`
)

// SessionStore persists session rows. token_digest carries a UNIQUE
// constraint, so a digest collision fails the insert instead of silently
// aliasing another session.
type SessionStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewSessionStore(pool *pgxpool.Pool, timeout time.Duration) *SessionStore {
	return &SessionStore{pool: pool, timeout: timeout}
}

func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, insertSessionSQL,
		session.ID.UUID,
		session.OrganizationID.UUID,
		session.UserID.UUID,
		session.TokenDigest,
		session.CreatedAt,
		session.ExpiresAt,
	)
	return err
}

func (s *SessionStore) FindActiveByDigest(ctx context.Context, tokenDigest []byte) (*domain.AuthContext, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var identity domain.AuthContext
	err := s.pool.QueryRow(ctx, findActiveByDigestSQL, tokenDigest).Scan(
		&identity.SessionID.UUID,
		&identity.OrganizationID.UUID,
		&identity.OrganizationCode,
		&identity.OrganizationName,
		&identity.UserID.UUID,
		&identity.UserEmail,
		&identity.UserRole,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &identity, nil
}

func (s *SessionStore) TouchLastUsed(ctx context.Context, id domain.SessionID, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, touchSessionSQL, id.UUID, at)
	return err
}

func (s *SessionStore) Revoke(ctx context.Context, id domain.SessionID, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, revokeSessionSQL, id.UUID, at)
	return err
}

// Ensure SessionStore implements ports.SessionStore.
var _ ports.SessionStore = (*SessionStore)(nil)
