package ports

import (
	"context"
	"time"

	"digitalhippo/contexts/identity-access/user-service/domain/entities"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type Repository interface {
	// CreateUser fails with the email-taken sentinel when the address is
	// already registered, case-insensitively.
	CreateUser(ctx context.Context, user entities.User) error
	GetUser(ctx context.Context, userID string) (entities.User, error)
	GetUserByEmail(ctx context.Context, email string) (entities.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (entities.User, error)
	UpdateUser(ctx context.Context, user entities.User) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash string, plain string) bool
}

// SessionClaims is what a signed session token asserts about its bearer.
type SessionClaims struct {
	UserID string
	Role   entities.Role
}

type TokenSigner interface {
	Sign(claims SessionClaims, now time.Time) (string, error)
	Verify(token string) (SessionClaims, error)
}
