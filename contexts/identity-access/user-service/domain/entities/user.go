package entities

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// User is the identity aggregate. PasswordHash never leaves this context;
// transport DTOs carry the public fields only.
type User struct {
	ID                string
	Email             string
	PasswordHash      string
	Role              Role
	Verified          bool
	VerificationToken string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
