package auth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/xamogh/medxz/internal/application/ports"
	"github.com/xamogh/medxz/internal/domain"
	domerrors "github.com/xamogh/medxz/internal/domain/errors"
)

// Authenticate resolves an Authorization header value to the session identity
// behind it. Nonexistent, expired, and revoked sessions all produce the same
// unauthorized message so an unauthenticated caller learns nothing about
// session state.
type Authenticate struct {
	sessions ports.SessionStore
	tasks    ports.TaskEnqueuer
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthenticate(sessions ports.SessionStore, tasks ports.TaskEnqueuer, log zerolog.Logger) *Authenticate {
	return &Authenticate{
		sessions: sessions,
		tasks:    tasks,
		log:      log,
		now:      time.Now,
	}
}

// Execute authenticates the request. authorization is the raw Authorization
// header value, empty when the header was absent.
func (uc *Authenticate) Execute(ctx context.Context, authorization string) (*domain.AuthContext, error) {
	token, err := bearerToken(authorization)
	if err != nil {
		return nil, err
	}

	digest, err := digestSessionToken(token)
	if err != nil {
		return nil, err
	}

	identity, err := uc.sessions.FindActiveByDigest(ctx, digest)
	if err != nil {
		return nil, domerrors.Internal("database error", err)
	}
	if identity == nil {
		return nil, domerrors.Unauthorized("invalid or expired session token")
	}

	// The session is valid at this point; updating last_used_at is best
	// effort and must not retroactively deny the request.
	uc.touchLastUsed(ctx, identity.SessionID)

	return identity, nil
}

func (uc *Authenticate) touchLastUsed(ctx context.Context, id domain.SessionID) {
	now := uc.now()
	if uc.tasks != nil {
		err := uc.tasks.EnqueueSessionTouch(ctx, id, now)
		if err == nil {
			return
		}
		if !errors.Is(err, ports.ErrQueueDisabled) {
			uc.log.Warn().Err(err).Str("session_id", id.String()).Msg("enqueue session touch failed; touching inline")
		}
	}
	if err := uc.sessions.TouchLastUsed(ctx, id, now); err != nil {
		uc.log.Warn().Err(err).Str("session_id", id.String()).Msg("update session last_used_at failed")
	}
}

// bearerToken extracts the token from an Authorization header value. The
// "Bearer" scheme is matched case-insensitively.
func bearerToken(authorization string) (string, error) {
	if authorization == "" {
		return "", domerrors.Unauthorized("missing Authorization header")
	}
	if !utf8.ValidString(authorization) {
		return "", domerrors.Unauthorized("invalid Authorization header")
	}
	const prefix = "Bearer "
	if len(authorization) < len(prefix) || !strings.EqualFold(authorization[:len(prefix)], prefix) {
		return "", domerrors.Unauthorized("Authorization must be a Bearer token")
	}
	token := authorization[len(prefix):]
	if strings.TrimSpace(token) == "" {
		return "", domerrors.Unauthorized("empty Bearer token")
	}
	return token, nil
}

// digestSessionToken decodes the URL-safe unpadded base64 token and digests
// the raw bytes. A decode failure is an authentication failure, not a client
// error: a malformed token is indistinguishable from a wrong one.
func digestSessionToken(token string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, domerrors.Unauthorized("invalid session token encoding")
	}
	sum := sha256.Sum256(raw)
	return sum[:], nil
}
