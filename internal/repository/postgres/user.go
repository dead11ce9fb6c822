package postgres

import (
	"context"
	"database/sql"
	"errors"

	"taxi/internal/domain"
	"taxi/internal/repository"
)

// UserRepository is a PostgreSQL implementation of repository.UserRepository.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// NewUserRepositoryWithTx creates a user repository using a transaction.
func NewUserRepositoryWithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `id, role, phone, password_hash, name,
	home_country, home_city, home_street, home_house,
	car_type, car_model, car_number`

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, role, phone, password_hash, name,
			home_country, home_city, home_street, home_house,
			car_type, car_model, car_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	home := nullAddress(user.HomeAddress)
	car := nullCar(user.Car)

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Role,
		user.Phone,
		nullString(user.PasswordHash),
		user.Name,
		home.country, home.city, home.street, home.house,
		car.typ, car.model, car.number,
	)
	return err
}

// GetByID retrieves a user by ID, including its order-id list.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := r.scanUser(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	user.OrderIDs, err = r.orderIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByPhone retrieves a user by phone number.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`

	user, err := r.scanUser(r.q.QueryRowContext(ctx, query, phone))
	if err != nil {
		return nil, err
	}

	user.OrderIDs, err = r.orderIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetAll retrieves all users.
func (r *UserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Update replaces the mutable fields of an existing user.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET role = $1, phone = $2, password_hash = $3, name = $4,
			home_country = $5, home_city = $6, home_street = $7, home_house = $8,
			car_type = $9, car_model = $10, car_number = $11
		WHERE id = $12
	`

	home := nullAddress(user.HomeAddress)
	car := nullCar(user.Car)

	result, err := r.q.ExecContext(ctx, query,
		user.Role,
		user.Phone,
		nullString(user.PasswordHash),
		user.Name,
		home.country, home.city, home.street, home.house,
		car.typ, car.model, car.number,
		user.ID,
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

// Delete removes a user and returns the removed record.
func (r *UserRepository) Delete(ctx context.Context, id string) (*domain.User, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := r.q.ExecContext(ctx, `DELETE FROM user_orders WHERE user_id = $1`, id); err != nil {
		return nil, err
	}
	if _, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return user, nil
}

// orderIDs loads the user's order-id list ordered by insertion.
func (r *UserRepository) orderIDs(ctx context.Context, userID string) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT order_id FROM user_orders WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var passwordHash sql.NullString
	var homeCountry, homeCity, homeStreet, homeHouse sql.NullString
	var carType, carModel, carNumber sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Role,
		&user.Phone,
		&passwordHash,
		&user.Name,
		&homeCountry, &homeCity, &homeStreet, &homeHouse,
		&carType, &carModel, &carNumber,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	user.PasswordHash = passwordHash.String
	if homeCountry.Valid || homeCity.Valid || homeStreet.Valid || homeHouse.Valid {
		user.HomeAddress = &domain.Address{
			Country: homeCountry.String,
			City:    homeCity.String,
			Street:  homeStreet.String,
			House:   homeHouse.String,
		}
	}
	if carType.Valid || carModel.Valid || carNumber.Valid {
		user.Car = &domain.Car{
			Type:   carType.String,
			Model:  carModel.String,
			Number: carNumber.String,
		}
	}
	return &user, nil
}

type addressColumns struct {
	country, city, street, house sql.NullString
}

func nullAddress(a *domain.Address) addressColumns {
	if a == nil {
		return addressColumns{}
	}
	return addressColumns{
		country: nullString(a.Country),
		city:    nullString(a.City),
		street:  nullString(a.Street),
		house:   nullString(a.House),
	}
}

type carColumns struct {
	typ, model, number sql.NullString
}

func nullCar(c *domain.Car) carColumns {
	if c == nil {
		return carColumns{}
	}
	return carColumns{
		typ:    nullString(c.Type),
		model:  nullString(c.Model),
		number: nullString(c.Number),
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
