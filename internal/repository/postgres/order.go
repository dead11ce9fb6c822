package postgres

import (
	"context"
	"database/sql"
	"errors"

	"taxi/internal/domain"
	"taxi/internal/repository"
)

// OrderRepository is a PostgreSQL implementation of repository.OrderRepository.
type OrderRepository struct {
	q Querier
}

// NewOrderRepository creates a new PostgreSQL order repository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{q: db}
}

// NewOrderRepositoryWithTx creates an order repository using a transaction.
func NewOrderRepositoryWithTx(tx *sql.Tx) *OrderRepository {
	return &OrderRepository{q: tx}
}

const orderColumns = `id, from_country, from_city, from_street, from_house,
	to_country, to_city, to_street, to_house,
	passenger_id, driver_id, distance_km, price, message, status, created_at`

// Create persists a new order owned by the given user. The database assigns
// the id; it is written back into the order and appended to the owner's list.
func (r *OrderRepository) Create(ctx context.Context, owner *domain.User, order *domain.Order) error {
	query := `
		INSERT INTO orders (from_country, from_city, from_street, from_house,
			to_country, to_city, to_street, to_house,
			passenger_id, driver_id, distance_km, price, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`

	var driverID sql.NullString
	if order.DriverID != "" {
		driverID = sql.NullString{String: order.DriverID, Valid: true}
	}

	err := r.q.QueryRowContext(ctx, query,
		order.From.Country, order.From.City, order.From.Street, order.From.House,
		order.To.Country, order.To.City, order.To.Street, order.To.House,
		order.PassengerID,
		driverID,
		order.DistanceKm,
		order.Price,
		order.Message,
		order.Status,
		order.CreatedAt,
	).Scan(&order.ID)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO user_orders (user_id, order_id) VALUES ($1, $2)`,
		owner.ID, order.ID)
	if err != nil {
		return err
	}

	owner.OrderIDs = append(owner.OrderIDs, order.ID)
	return nil
}

// GetByID retrieves an order by id.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.scanOrder(r.q.QueryRowContext(ctx, query, id))
}

// Update updates an existing order.
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET from_country = $1, from_city = $2, from_street = $3, from_house = $4,
			to_country = $5, to_city = $6, to_street = $7, to_house = $8,
			passenger_id = $9, driver_id = $10, distance_km = $11,
			price = $12, message = $13, status = $14
		WHERE id = $15
	`

	var driverID sql.NullString
	if order.DriverID != "" {
		driverID = sql.NullString{String: order.DriverID, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query,
		order.From.Country, order.From.City, order.From.Street, order.From.House,
		order.To.Country, order.To.City, order.To.Street, order.To.House,
		order.PassengerID,
		driverID,
		order.DistanceKm,
		order.Price,
		order.Message,
		order.Status,
		order.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetByStatus retrieves all orders with the given status.
func (r *OrderRepository) GetByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY id`

	rows, err := r.q.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectOrders(rows)
}

// GetByUser retrieves the orders of a user, ordered by insertion into the
// user's order list.
func (r *OrderRepository) GetByUser(ctx context.Context, user *domain.User) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		JOIN user_orders uo ON uo.order_id = orders.id
		WHERE uo.user_id = $1
		ORDER BY uo.id
	`

	rows, err := r.q.QueryContext(ctx, query, user.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectOrders(rows)
}

// AddToDriver appends an order to a driver's order list.
func (r *OrderRepository) AddToDriver(ctx context.Context, driver *domain.User, order *domain.Order) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO user_orders (user_id, order_id) VALUES ($1, $2)`,
		driver.ID, order.ID)
	return err
}

func (r *OrderRepository) collectOrders(rows *sql.Rows) ([]*domain.Order, error) {
	var orders []*domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var driverID sql.NullString

	err := row.Scan(
		&order.ID,
		&order.From.Country, &order.From.City, &order.From.Street, &order.From.House,
		&order.To.Country, &order.To.City, &order.To.Street, &order.To.House,
		&order.PassengerID,
		&driverID,
		&order.DistanceKm,
		&order.Price,
		&order.Message,
		&order.Status,
		&order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	order.DriverID = driverID.String
	return &order, nil
}
