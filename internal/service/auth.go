package service

import (
	"context"
	"log"

	"github.com/google/uuid"

	"taxi/internal/domain"
	"taxi/internal/repository"
	"taxi/internal/session"
)

// AuthService authenticates users and owns the token lifecycle. The registry
// stores only user IDs; Resolve re-fetches the canonical user from the store
// so sessions never observe a stale profile.
type AuthService struct {
	registry  *session.Registry
	userRepo  repository.UserRepository
	validator Validator
}

// NewAuthService creates a new AuthService.
func NewAuthService(registry *session.Registry, userRepo repository.UserRepository, validator Validator) *AuthService {
	return &AuthService{
		registry:  registry,
		userRepo:  userRepo,
		validator: validator,
	}
}

// Login authenticates by exact phone match plus the validator's credential
// check and returns a fresh opaque token. A user may hold any number of
// concurrent sessions.
func (s *AuthService) Login(ctx context.Context, phone, password string) (string, error) {
	if !s.validator.CanLogin(ctx, phone, password) {
		return "", ErrAuthentication
	}

	var found *domain.User
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return "", err
	}
	for _, user := range users {
		if user.Phone == phone {
			found = user
		}
	}
	if found == nil {
		return "", ErrAuthentication
	}

	token := uuid.New().String()
	s.registry.Bind(token, found.ID)

	log.Printf("user %s logged in", phone)

	return token, nil
}

// Resolve returns the user bound to a token, re-fetched from the store.
// A token whose user has been deleted resolves to ErrSessionNotFound.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.User, error) {
	userID, ok := s.registry.Resolve(token)
	if !ok {
		return nil, ErrSessionNotFound
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return user, nil
}

// Rebind points an existing token at a user ID after a profile update.
// A missing token is logged rather than silently ignored.
func (s *AuthService) Rebind(token, userID string) {
	if !s.registry.Rebind(token, userID) {
		log.Printf("rebind skipped: token not registered for user %s", userID)
	}
}

// Logout removes a single token binding.
func (s *AuthService) Logout(token string) {
	s.registry.Remove(token)
}

// RevokeUser removes every session of the given user.
func (s *AuthService) RevokeUser(userID string) {
	s.registry.RemoveUser(userID)
}
