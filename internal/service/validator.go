package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"taxi/internal/domain"
	"taxi/internal/repository"
)

// Validator is the external validation policy. Every check is a pass/fail
// predicate; the services decide which error a failed check maps to.
type Validator interface {
	// CanRegister reports whether a new account may use the phone number.
	CanRegister(ctx context.Context, phone string) bool

	// CanLogin checks the credentials for the phone number.
	CanLogin(ctx context.Context, phone, password string) bool

	// AddressIsValid reports whether an address is usable for an order.
	AddressIsValid(addr domain.Address) bool

	// CanChangeRegistration reports whether the identified user may switch
	// to the new phone number.
	CanChangeRegistration(ctx context.Context, role domain.Role, userID, newPhone string) bool
}

// DefaultValidator validates against the user store: phone uniqueness for
// registration and bcrypt credential checks for login.
type DefaultValidator struct {
	userRepo repository.UserRepository
}

// NewDefaultValidator creates a DefaultValidator.
func NewDefaultValidator(userRepo repository.UserRepository) *DefaultValidator {
	return &DefaultValidator{userRepo: userRepo}
}

var _ Validator = (*DefaultValidator)(nil)

// CanRegister reports whether no existing account uses the phone number.
func (v *DefaultValidator) CanRegister(ctx context.Context, phone string) bool {
	if phone == "" {
		return false
	}
	_, err := v.userRepo.GetByPhone(ctx, phone)
	return errors.Is(err, repository.ErrNotFound)
}

// CanLogin checks the password against the stored bcrypt hash.
func (v *DefaultValidator) CanLogin(ctx context.Context, phone, password string) bool {
	user, err := v.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		return false
	}
	if user.PasswordHash == "" {
		// Anonymous accounts have no credentials.
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// AddressIsValid requires country, city and street to be present.
func (v *DefaultValidator) AddressIsValid(addr domain.Address) bool {
	return addr.Country != "" && addr.City != "" && addr.Street != ""
}

// CanChangeRegistration reports whether the new phone is free or still owned
// by the same user.
func (v *DefaultValidator) CanChangeRegistration(ctx context.Context, role domain.Role, userID, newPhone string) bool {
	if newPhone == "" {
		return false
	}
	owner, err := v.userRepo.GetByPhone(ctx, newPhone)
	if errors.Is(err, repository.ErrNotFound) {
		return true
	}
	if err != nil {
		return false
	}
	return owner.ID == userID
}

// HashPassword returns a bcrypt hash of the provided password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}
