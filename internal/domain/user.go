package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserID is a value object for user identity.
type UserID struct{ uuid.UUID }

// NewUserID creates a new UserID from uuid.
func NewUserID(id uuid.UUID) UserID { return UserID{UUID: id} }

// String returns the canonical string form.
func (u UserID) String() string { return u.UUID.String() }

// User is an organization-scoped account. Email is stored trimmed and
// lowercased; (OrganizationID, Email) is unique. Disabled users never
// authenticate and never hold a valid session.
type User struct {
	ID             UserID
	OrganizationID OrganizationID
	Email          string
	PasswordHash   string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
