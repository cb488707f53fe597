package auth

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xamogh/medxz/internal/domain"
)

// memStore is an in-memory stand-in for the row store, implementing both
// ports.CredentialStore and ports.SessionStore with the same query-time
// semantics the SQL versions have.
type memStore struct {
	mu       sync.Mutex
	orgs     []*domain.Organization
	users    []*domain.User
	sessions map[uuid.UUID]*domain.Session

	now        func() time.Time
	failCreate error
	failTouch  error
	touches    int
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[uuid.UUID]*domain.Session),
		now:      time.Now,
	}
}

func (s *memStore) addOrg(code, name string) *domain.Organization {
	org := &domain.Organization{
		ID:        domain.NewOrganizationID(uuid.New()),
		Code:      code,
		Name:      name,
		CreatedAt: s.now(),
	}
	s.orgs = append(s.orgs, org)
	return org
}

func (s *memStore) addUser(org *domain.Organization, email, passwordHash, role string, active bool) *domain.User {
	user := &domain.User{
		ID:             domain.NewUserID(uuid.New()),
		OrganizationID: org.ID,
		Email:          email,
		PasswordHash:   passwordHash,
		Role:           role,
		IsActive:       active,
		CreatedAt:      s.now(),
		UpdatedAt:      s.now(),
	}
	s.users = append(s.users, user)
	return user
}

func (s *memStore) FindOrganizationByCode(ctx context.Context, code string) (*domain.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, org := range s.orgs {
		if org.Code == code {
			return org, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindUserByEmail(ctx context.Context, orgID domain.OrganizationID, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.OrganizationID == orgID && user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (s *memStore) Create(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return s.failCreate
	}
	for _, existing := range s.sessions {
		if bytes.Equal(existing.TokenDigest, session.TokenDigest) {
			return errors.New("duplicate token digest")
		}
	}
	copied := *session
	s.sessions[session.ID.UUID] = &copied
	return nil
}

func (s *memStore) FindActiveByDigest(ctx context.Context, tokenDigest []byte) (*domain.AuthContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, session := range s.sessions {
		if !bytes.Equal(session.TokenDigest, tokenDigest) {
			continue
		}
		if session.RevokedAt != nil || !session.ExpiresAt.After(now) {
			return nil, nil
		}
		return s.joinLocked(session), nil
	}
	return nil, nil
}

func (s *memStore) joinLocked(session *domain.Session) *domain.AuthContext {
	identity := &domain.AuthContext{SessionID: session.ID}
	for _, org := range s.orgs {
		if org.ID == session.OrganizationID {
			identity.OrganizationID = org.ID
			identity.OrganizationCode = org.Code
			identity.OrganizationName = org.Name
		}
	}
	for _, user := range s.users {
		if user.ID == session.UserID {
			identity.UserID = user.ID
			identity.UserEmail = user.Email
			identity.UserRole = user.Role
		}
	}
	return identity
}

func (s *memStore) TouchLastUsed(ctx context.Context, id domain.SessionID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTouch != nil {
		return s.failTouch
	}
	if session, ok := s.sessions[id.UUID]; ok {
		session.LastUsedAt = at
		s.touches++
	}
	return nil
}

func (s *memStore) Revoke(ctx context.Context, id domain.SessionID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id.UUID]; ok && session.RevokedAt == nil {
		session.RevokedAt = &at
	}
	return nil
}

func (s *memStore) sessionByDigest(digest []byte) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if bytes.Equal(session.TokenDigest, digest) {
			return session
		}
	}
	return nil
}

// recordingEnqueuer captures enqueued touches or rejects them.
type recordingEnqueuer struct {
	mu       sync.Mutex
	err      error
	enqueued []domain.SessionID
}

func (e *recordingEnqueuer) EnqueueSessionTouch(ctx context.Context, id domain.SessionID, at time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.enqueued = append(e.enqueued, id)
	return nil
}
