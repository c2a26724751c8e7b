package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"digitalhippo/contexts/identity-access/user-service/domain/entities"
	domainerrors "digitalhippo/contexts/identity-access/user-service/domain/errors"
)

// Store is the in-memory user repository used by tests and the local
// runtime.
type Store struct {
	mu sync.RWMutex

	usersByID    map[string]entities.User
	idsByEmail   map[string]string
	idsByVerify  map[string]string
	sequence     uint64
}

func NewStore() *Store {
	return &Store{
		usersByID:   make(map[string]entities.User),
		idsByEmail:  make(map[string]string),
		idsByVerify: make(map[string]string),
	}
}

func (s *Store) SeedUser(user entities.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersByID[user.ID] = user
	s.idsByEmail[strings.ToLower(user.Email)] = user.ID
	if user.VerificationToken != "" {
		s.idsByVerify[user.VerificationToken] = user.ID
	}
}

func (s *Store) CreateUser(_ context.Context, user entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.idsByEmail[email]; exists {
		return domainerrors.ErrEmailTaken
	}
	s.usersByID[user.ID] = user
	s.idsByEmail[email] = user.ID
	if user.VerificationToken != "" {
		s.idsByVerify[user.VerificationToken] = user.ID
	}
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByID[userID]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.idsByEmail[strings.ToLower(email)]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return s.usersByID[userID], nil
}

func (s *Store) GetUserByVerificationToken(_ context.Context, token string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.idsByVerify[token]
	if !ok {
		return entities.User{}, domainerrors.ErrVerificationInvalid
	}
	return s.usersByID[userID], nil
}

func (s *Store) UpdateUser(_ context.Context, user entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.usersByID[user.ID]
	if !ok {
		return domainerrors.ErrUserNotFound
	}
	if existing.VerificationToken != "" && existing.VerificationToken != user.VerificationToken {
		delete(s.idsByVerify, existing.VerificationToken)
	}
	if user.VerificationToken != "" {
		s.idsByVerify[user.VerificationToken] = user.ID
	}
	s.usersByID[user.ID] = user
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	next := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("user_%d", next), nil
}
