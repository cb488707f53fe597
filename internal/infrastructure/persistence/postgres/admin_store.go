package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xamogh/medxz/internal/domain"
)

const (
	insertOrganizationSQL = `
INSERT INTO organizations (id, code, name, created_at)
VALUES ($1, $2, $3, $4)`

	insertUserSQL = `
INSERT INTO users (id, organization_id, email, password_hash, role, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`

	updateUserPasswordSQL = `
UPDATE users SET password_hash = $3, updated_at = $4
WHERE organization_id = $1 AND email = $2`
)

// Duplicate-key sentinels for the provisioning path. The server never creates
// organizations or users; these exist for the admin CLI.
var (
	ErrOrganizationExists = errors.New("organization code already taken")
	ErrUserExists         = errors.New("user already exists in this organization")
)

// AdminStore is the write side of provisioning: organizations and users are
// created out of band, never by the auth endpoints.
type AdminStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewAdminStore(pool *pgxpool.Pool, timeout time.Duration) *AdminStore {
	return &AdminStore{pool: pool, timeout: timeout}
}

func (s *AdminStore) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, insertOrganizationSQL, org.ID.UUID, org.Code, org.Name, org.CreatedAt)
	if isUniqueViolation(err) {
		return ErrOrganizationExists
	}
	return err
}

func (s *AdminStore) CreateUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, insertUserSQL,
		user.ID.UUID,
		user.OrganizationID.UUID,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrUserExists
	}
	return err
}

// SetPassword rehashes out of band (e.g. operator reset). Returns false when
// no user matched.
func (s *AdminStore) SetPassword(ctx context.Context, orgID domain.OrganizationID, email, passwordHash string, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, updateUserPasswordSQL, orgID.UUID, email, passwordHash, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
