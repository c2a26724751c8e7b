package application

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"digitalhippo/contexts/identity-access/user-service/domain/entities"
	domainerrors "digitalhippo/contexts/identity-access/user-service/domain/errors"
	"digitalhippo/contexts/identity-access/user-service/ports"
)

const minPasswordLength = 8

// Service owns registration, email verification, and session issuance.
type Service struct {
	Repo        ports.Repository
	Hasher      ports.PasswordHasher
	Signer      ports.TokenSigner
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Register creates a customer account and returns it with the pending
// verification token. Admin accounts are never self-service.
func (s Service) Register(ctx context.Context, email string, password string) (entities.User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return entities.User{}, domainerrors.ErrInvalidUserInput
	}
	if len(password) < minPasswordLength {
		return entities.User{}, domainerrors.ErrInvalidUserInput
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return entities.User{}, err
	}
	userID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.User{}, err
	}
	token, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.User{}, err
	}

	now := s.now()
	user := entities.User{
		ID:                userID,
		Email:             normalized,
		PasswordHash:      hash,
		Role:              entities.RoleCustomer,
		Verified:          false,
		VerificationToken: token,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return entities.User{}, err
	}

	resolveLogger(s.Logger).Info("user registered",
		"event", "user_registered",
		"module", "identity-access/user-service",
		"layer", "application",
		"user_id", user.ID,
	)
	return user, nil
}

// VerifyEmail flips the account to verified. Tokens are single use.
func (s Service) VerifyEmail(ctx context.Context, token string) (entities.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return entities.User{}, domainerrors.ErrVerificationInvalid
	}

	user, err := s.Repo.GetUserByVerificationToken(ctx, token)
	if err != nil {
		return entities.User{}, err
	}

	user.Verified = true
	user.VerificationToken = ""
	user.UpdatedAt = s.now()
	if err := s.Repo.UpdateUser(ctx, user); err != nil {
		return entities.User{}, err
	}

	resolveLogger(s.Logger).Info("user email verified",
		"event", "user_verified",
		"module", "identity-access/user-service",
		"layer", "application",
		"user_id", user.ID,
	)
	return user, nil
}

// Login checks credentials and returns a signed session token. The error
// for a missing account and a wrong password is the same on purpose.
func (s Service) Login(ctx context.Context, email string, password string) (entities.User, string, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return entities.User{}, "", domainerrors.ErrInvalidCredentials
	}

	user, err := s.Repo.GetUserByEmail(ctx, normalized)
	if err != nil {
		return entities.User{}, "", domainerrors.ErrInvalidCredentials
	}
	if !s.Hasher.Compare(user.PasswordHash, password) {
		return entities.User{}, "", domainerrors.ErrInvalidCredentials
	}

	token, err := s.Signer.Sign(ports.SessionClaims{
		UserID: user.ID,
		Role:   user.Role,
	}, s.now())
	if err != nil {
		return entities.User{}, "", err
	}

	resolveLogger(s.Logger).Info("user logged in",
		"event", "user_login",
		"module", "identity-access/user-service",
		"layer", "application",
		"user_id", user.ID,
	)
	return user, token, nil
}

// GetUser is self-or-admin scoped.
func (s Service) GetUser(ctx context.Context, actorID string, actorIsAdmin bool, userID string) (entities.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.User{}, domainerrors.ErrInvalidUserInput
	}
	if !actorIsAdmin && actorID != userID {
		return entities.User{}, domainerrors.ErrForbidden
	}
	return s.Repo.GetUser(ctx, userID)
}

// ChangeRole is admin only.
func (s Service) ChangeRole(ctx context.Context, actorIsAdmin bool, userID string, role entities.Role) (entities.User, error) {
	if !actorIsAdmin {
		return entities.User{}, domainerrors.ErrForbidden
	}
	if !role.Valid() {
		return entities.User{}, domainerrors.ErrInvalidUserInput
	}

	user, err := s.Repo.GetUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		return entities.User{}, err
	}
	user.Role = role
	user.UpdatedAt = s.now()
	if err := s.Repo.UpdateUser(ctx, user); err != nil {
		return entities.User{}, err
	}

	resolveLogger(s.Logger).Info("user role changed",
		"event", "user_role_changed",
		"module", "identity-access/user-service",
		"layer", "application",
		"user_id", user.ID,
		"role", string(role),
	)
	return user, nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", domainerrors.ErrInvalidUserInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", domainerrors.ErrInvalidUserInput
	}
	return email, nil
}
