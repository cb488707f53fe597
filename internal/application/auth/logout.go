package auth

import (
	"context"
	"time"

	"github.com/xamogh/medxz/internal/application/ports"
	"github.com/xamogh/medxz/internal/domain"
	domerrors "github.com/xamogh/medxz/internal/domain/errors"
)

// Logout authenticates the presented token and revokes its session. An
// already-invalid token fails exactly like any other authenticated call.
// Revocation itself is idempotent.
type Logout struct {
	authenticate *Authenticate
	sessions     ports.SessionStore
	now          func() time.Time
}

func NewLogout(authenticate *Authenticate, sessions ports.SessionStore) *Logout {
	return &Logout{
		authenticate: authenticate,
		sessions:     sessions,
		now:          time.Now,
	}
}

func (uc *Logout) Execute(ctx context.Context, authorization string) (*domain.AuthContext, error) {
	identity, err := uc.authenticate.Execute(ctx, authorization)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Revoke(ctx, identity.SessionID, uc.now()); err != nil {
		return nil, domerrors.Internal("database error", err)
	}
	return identity, nil
}
