package repository

import (
	"context"

	"taxi/internal/domain"
)

// OrderRepository defines the persistence operations for orders.
//
// Find-then-update sequences issued by the order lifecycle rely on the store
// being free of lost updates for the same order id; implementations back this
// with row-level semantics (Postgres) or a single mutex (mocks).
type OrderRepository interface {
	// Create persists a new order owned by the given user, assigns its id
	// and appends that id to the owner's order list.
	Create(ctx context.Context, owner *domain.User, order *domain.Order) error

	// GetByID retrieves an order by id.
	GetByID(ctx context.Context, id int64) (*domain.Order, error)

	// Update updates an existing order.
	Update(ctx context.Context, order *domain.Order) error

	// GetByStatus retrieves all orders with the given status.
	GetByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error)

	// GetByUser retrieves the orders of a user, ordered by insertion into
	// the user's order list.
	GetByUser(ctx context.Context, user *domain.User) ([]*domain.Order, error)

	// AddToDriver appends an order to a driver's order list.
	AddToDriver(ctx context.Context, driver *domain.User, order *domain.Order) error
}
