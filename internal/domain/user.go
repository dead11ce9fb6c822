package domain

// Role identifies what kind of account a user holds.
type Role string

const (
	RolePassenger Role = "PASSENGER"
	RoleDriver    Role = "DRIVER"
	RoleAnonymous Role = "ANONYMOUS"
)

// Car describes a driver's vehicle.
type Car struct {
	Type   string
	Model  string
	Number string
}

// User represents an account in the system. Passengers carry a home address,
// drivers carry a car; anonymous users carry neither and have no password.
type User struct {
	ID           string
	Role         Role
	Phone        string
	PasswordHash string
	Name         string
	HomeAddress  *Address
	Car          *Car

	// OrderIDs holds the ids of orders owned by this user, ordered by
	// insertion. The last element is the user's most recent order.
	OrderIDs []int64
}
