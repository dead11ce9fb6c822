package domain

import "time"

// OrderStatus represents the current status of an order.
type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "NEW"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusDone       OrderStatus = "DONE"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// Terminal reports whether no regular transition leaves the status.
// A forced cancel still applies to terminal orders.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDone || s == OrderStatusCancelled
}

// ParseOrderStatus validates a status string.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusNew, OrderStatusInProgress, OrderStatusDone, OrderStatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

// Order represents a trip order. The id is assigned by the store on creation
// and never changes afterwards.
type Order struct {
	ID          int64
	From        Address
	To          Address
	PassengerID string
	DriverID    string // empty until a driver takes the order
	DistanceKm  int
	Price       int
	Message     string
	Status      OrderStatus
	CreatedAt   time.Time
}
