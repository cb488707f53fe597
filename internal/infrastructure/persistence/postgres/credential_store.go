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
	findOrganizationByCodeSQL = `
SELECT id, code, name, created_at
FROM organizations
WHERE code = $1`

	findUserByEmailSQL = `
SELECT id, organization_id, email, password_hash, role, is_active, created_at, updated_at
FROM users
WHERE organization_id = $1 AND email = $2`
)

// CredentialStore reads organizations and users. Lookups are exact-match;
// email must already be normalized by the caller.
type CredentialStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewCredentialStore(pool *pgxpool.Pool, timeout time.Duration) *CredentialStore {
	return &CredentialStore{pool: pool, timeout: timeout}
}

func (s *CredentialStore) FindOrganizationByCode(ctx context.Context, code string) (*domain.Organization, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var org domain.Organization
	err := s.pool.QueryRow(ctx, findOrganizationByCodeSQL, code).Scan(
		&org.ID.UUID, &org.Code, &org.Name, &org.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (s *CredentialStore) FindUserByEmail(ctx context.Context, orgID domain.OrganizationID, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var user domain.User
	err := s.pool.QueryRow(ctx, findUserByEmailSQL, orgID.UUID, email).Scan(
		&user.ID.UUID, &user.OrganizationID.UUID, &user.Email, &user.PasswordHash,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Ensure CredentialStore implements ports.CredentialStore.
var _ ports.CredentialStore = (*CredentialStore)(nil)
