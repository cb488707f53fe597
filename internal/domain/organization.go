package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrganizationID is a value object for organization identity.
type OrganizationID struct{ uuid.UUID }

// NewOrganizationID creates a new OrganizationID from uuid.
func NewOrganizationID(id uuid.UUID) OrganizationID { return OrganizationID{UUID: id} }

// String returns the canonical string form.
func (o OrganizationID) String() string { return o.UUID.String() }

// Organization is the tenant boundary. Users and sessions always belong to
// exactly one organization. Code is the human-chosen unique key used at login.
type Organization struct {
	ID        OrganizationID
	Code      string
	Name      string
	CreatedAt time.Time
}
