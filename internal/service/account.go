package service

import (
	"context"
	"log"

	"github.com/google/uuid"

	"taxi/internal/domain"
	"taxi/internal/repository"
)

// AccountService orchestrates registration, profile updates and deletion
// against the user store and the validation policy.
type AccountService struct {
	userRepo  repository.UserRepository
	auth      *AuthService
	validator Validator
}

// NewAccountService creates a new AccountService.
func NewAccountService(userRepo repository.UserRepository, auth *AuthService, validator Validator) *AccountService {
	return &AccountService{
		userRepo:  userRepo,
		auth:      auth,
		validator: validator,
	}
}

// RegisterPassenger creates a passenger account.
func (s *AccountService) RegisterPassenger(ctx context.Context, phone, password, name, homeAddressLine string) (*domain.User, error) {
	if !s.validator.CanRegister(ctx, phone) {
		log.Printf("rejected registration with phone %s", phone)
		return nil, ErrRegistration
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	home := domain.ParseAddress(homeAddressLine)
	user := &domain.User{
		ID:           uuid.New().String(),
		Role:         domain.RolePassenger,
		Phone:        phone,
		PasswordHash: hash,
		Name:         name,
		HomeAddress:  &home,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("new passenger %s registered", user.Name)

	return user, nil
}

// RegisterDriver creates a driver account.
func (s *AccountService) RegisterDriver(ctx context.Context, phone, password, name string, car domain.Car) (*domain.User, error) {
	if !s.validator.CanRegister(ctx, phone) {
		log.Printf("rejected registration with phone %s", phone)
		return nil, ErrRegistration
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Role:         domain.RoleDriver,
		Phone:        phone,
		PasswordHash: hash,
		Name:         name,
		Car:          &car,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("new driver %s registered", user.Name)

	return user, nil
}

// UpdateRequest carries the replacement profile fields. The role, the id and
// the order list of the account never change.
type UpdateRequest struct {
	Phone           string
	Password        string // empty keeps the current password
	Name            string
	HomeAddressLine string     // passengers only
	Car             domain.Car // drivers only
}

// Update replaces the caller's mutable profile fields and rebinds the session
// so the same token resolves to the updated profile.
func (s *AccountService) Update(ctx context.Context, token string, req UpdateRequest) (*domain.User, error) {
	user, err := s.auth.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	if !s.validator.CanChangeRegistration(ctx, user.Role, user.ID, req.Phone) {
		log.Printf("rejected update for user %s: phone %s in use", user.Phone, req.Phone)
		return nil, ErrRegistration
	}

	updated := &domain.User{
		ID:           user.ID,
		Role:         user.Role,
		Phone:        req.Phone,
		PasswordHash: user.PasswordHash,
		Name:         req.Name,
		OrderIDs:     user.OrderIDs,
	}
	if req.Password != "" {
		hash, err := HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		updated.PasswordHash = hash
	}
	switch user.Role {
	case domain.RolePassenger:
		home := domain.ParseAddress(req.HomeAddressLine)
		updated.HomeAddress = &home
	case domain.RoleDriver:
		car := req.Car
		updated.Car = &car
	}

	if err := s.userRepo.Update(ctx, updated); err != nil {
		return nil, err
	}

	s.auth.Rebind(token, updated.ID)

	log.Printf("user %s was updated", updated.Phone)

	return updated, nil
}

// Delete removes the caller's account and revokes all of its sessions.
func (s *AccountService) Delete(ctx context.Context, token string) (*domain.User, error) {
	user, err := s.auth.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	deleted, err := s.userRepo.Delete(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.auth.RevokeUser(user.ID)

	log.Printf("user %s was deleted", user.Phone)

	return deleted, nil
}
