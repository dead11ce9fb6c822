package repository

import (
	"context"

	"taxi/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create persists a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID, including its order-id list.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByPhone retrieves a user by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)

	// GetAll retrieves all users.
	GetAll(ctx context.Context) ([]*domain.User, error)

	// Update replaces the mutable fields of an existing user.
	// The ID and the order-id list are preserved.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user and returns the removed record.
	Delete(ctx context.Context, id string) (*domain.User, error)
}
