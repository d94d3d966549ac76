package domain

import "github.com/google/uuid"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor is the authenticated caller as handed to the core by the delivery
// layer. The core authorizes with these flags and never authenticates.
type Actor struct {
	UserID    uuid.UUID
	ProfileID uuid.UUID
	Verified  bool
	Role      Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
