package service

import (
	"context"
	"log"
	"time"

	"taxi/internal/domain"
	"taxi/internal/geo"
	"taxi/internal/redis"
	"taxi/internal/repository"

	"github.com/google/uuid"
)

// orderLockTTL bounds how long a take/close/cancel may hold an order lock.
const orderLockTTL = 10 * time.Second

// OrderService drives orders through their lifecycle:
//
//	NEW -> IN_PROGRESS -> DONE
//
// with CANCELLED reachable from any state. Take and close carry the
// authorization rules described on the methods; cancel is deliberately
// unguarded.
type OrderService struct {
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	auth      *AuthService
	validator Validator
	pricing   *PricingEngine
	provider  geo.Provider
	resolver  addressResolver
	locks     redis.LockStoreInterface // nil disables locking
}

// NewOrderService creates a new OrderService. geoCache and lockStore may be
// nil; the service then runs uncached and unlocked.
func NewOrderService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	auth *AuthService,
	validator Validator,
	pricing *PricingEngine,
	provider geo.Provider,
	geoCache redis.GeoCacheInterface,
	lockStore redis.LockStoreInterface,
) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		auth:      auth,
		validator: validator,
		pricing:   pricing,
		provider:  provider,
		resolver:  addressResolver{provider: provider, cache: geoCache},
		locks:     lockStore,
	}
}

// checkAddressGate applies the order-acceptance gate: the order is rejected
// only when BOTH addresses fail validation. A single invalid address slips
// through. This matches the behavior the system has always had and that the
// transport layer's clients depend on; see DESIGN.md before changing it.
func (s *OrderService) checkAddressGate(from, to domain.Address) error {
	if !s.validator.AddressIsValid(from) && !s.validator.AddressIsValid(to) {
		return ErrAddressInvalid
	}
	return nil
}

// quote resolves both addresses and prices the trip. Nothing is persisted;
// any resolution failure surfaces as ErrGeoResolution.
func (s *OrderService) quote(ctx context.Context, from, to domain.Address) (distanceKm, price int, err error) {
	origin, err := s.resolver.resolve(ctx, from)
	if err != nil {
		return 0, 0, err
	}
	destination, err := s.resolver.resolve(ctx, to)
	if err != nil {
		return 0, 0, err
	}

	distanceKm = int(s.provider.DistanceMeters(origin, destination)) / 1000
	return distanceKm, s.pricing.Price(distanceKm), nil
}

// Create makes a new order for the authenticated requester. The order is
// persisted in NEW with no driver, and its id is appended to the requester's
// order list.
func (s *OrderService) Create(ctx context.Context, token, fromLine, toLine, message string) (*domain.Order, error) {
	from := domain.ParseAddress(fromLine)
	to := domain.ParseAddress(toLine)

	if err := s.checkAddressGate(from, to); err != nil {
		return nil, err
	}

	requester, err := s.auth.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	distanceKm, price, err := s.quote(ctx, from, to)
	if err != nil {
		return nil, err
	}

	if message != "" {
		message = requester.Name + ": " + message
	}

	order := &domain.Order{
		From:        from,
		To:          to,
		PassengerID: requester.ID,
		DistanceKm:  distanceKm,
		Price:       price,
		Message:     message,
		Status:      domain.OrderStatusNew,
		CreatedAt:   time.Now(),
	}

	if err := s.orderRepo.Create(ctx, requester, order); err != nil {
		return nil, err
	}

	log.Printf("user %s makes new order %d", requester.Phone, order.ID)

	return order, nil
}

// CreateAnonymous makes an order without a pre-existing account. A throwaway
// anonymous user (no password, no session) is persisted to own the order; if
// the order itself cannot be persisted, the throwaway user is removed again
// so a failed request leaves nothing behind.
func (s *OrderService) CreateAnonymous(ctx context.Context, phone, name, fromLine, toLine, message string) (*domain.Order, error) {
	from := domain.ParseAddress(fromLine)
	to := domain.ParseAddress(toLine)

	if err := s.checkAddressGate(from, to); err != nil {
		return nil, err
	}

	distanceKm, price, err := s.quote(ctx, from, to)
	if err != nil {
		return nil, err
	}

	anonymous := &domain.User{
		ID:    uuid.New().String(),
		Role:  domain.RoleAnonymous,
		Phone: phone,
		Name:  name,
	}
	if err := s.userRepo.Create(ctx, anonymous); err != nil {
		return nil, err
	}

	order := &domain.Order{
		From:        from,
		To:          to,
		PassengerID: anonymous.ID,
		DistanceKm:  distanceKm,
		Price:       price,
		Message:     message,
		Status:      domain.OrderStatusNew,
		CreatedAt:   time.Now(),
	}

	if err := s.orderRepo.Create(ctx, anonymous, order); err != nil {
		if _, delErr := s.userRepo.Delete(ctx, anonymous.ID); delErr != nil {
			log.Printf("orphaned anonymous user %s after failed order: %v", anonymous.ID, delErr)
		}
		return nil, err
	}

	log.Printf("anonymous user makes new order %d", order.ID)

	return order, nil
}

// Estimate holds a priced but unpersisted trip.
type Estimate struct {
	DistanceKm int
	Price      int
}

// Calculate prices a trip without creating an order.
func (s *OrderService) Calculate(ctx context.Context, fromLine, toLine string) (*Estimate, error) {
	from := domain.ParseAddress(fromLine)
	to := domain.ParseAddress(toLine)

	if err := s.checkAddressGate(from, to); err != nil {
		return nil, err
	}

	distanceKm, price, err := s.quote(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &Estimate{DistanceKm: distanceKm, Price: price}, nil
}

// Take assigns a NEW order to the calling driver and moves it to IN_PROGRESS.
// The busy check runs before the existence check: a driver with any order
// already IN_PROGRESS is refused even for an unknown order id. The driver
// lock is held across the busy check and the assignment, so two concurrent
// takes by one driver on different orders cannot both pass the check.
func (s *OrderService) Take(ctx context.Context, driverToken string, orderID int64) (*domain.Order, error) {
	driver, err := s.auth.Resolve(ctx, driverToken)
	if err != nil {
		return nil, err
	}

	unlockDriver, err := s.lockDriver(ctx, driver.ID)
	if err != nil {
		return nil, err
	}
	defer unlockDriver()

	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	driverOrders, err := s.orderRepo.GetByUser(ctx, driver)
	if err != nil {
		return nil, err
	}
	for _, o := range driverOrders {
		if o.Status == domain.OrderStatusInProgress {
			return nil, ErrDriverBusy
		}
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.Status != domain.OrderStatusNew {
		return nil, ErrInvalidStatus
	}

	order.DriverID = driver.ID
	order.Status = domain.OrderStatusInProgress

	if err := s.orderRepo.AddToDriver(ctx, driver, order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	driver.OrderIDs = append(driver.OrderIDs, order.ID)

	log.Printf("driver %s took order %d", driver.Phone, orderID)

	return order, nil
}

// Close completes an IN_PROGRESS order. Ownership is checked against the
// caller's own order list, not the order's assigned-driver field.
func (s *OrderService) Close(ctx context.Context, driverToken string, orderID int64) (*domain.Order, error) {
	caller, err := s.auth.Resolve(ctx, driverToken)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	callerOrders, err := s.orderRepo.GetByUser(ctx, caller)
	if err != nil {
		return nil, err
	}
	var owned *domain.Order
	for _, o := range callerOrders {
		if o.ID == order.ID {
			owned = o
		}
	}
	if owned == nil {
		return nil, ErrDriverOrderMismatch
	}
	if owned.Status != domain.OrderStatusInProgress {
		return nil, ErrInvalidStatus
	}

	order.Status = domain.OrderStatusDone
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	log.Printf("user %s closed order %d", caller.Phone, orderID)

	return order, nil
}

// Cancel force-transitions an existing order to CANCELLED. There is no
// ownership check and no status guard: any caller may cancel any order,
// including one already DONE or CANCELLED. That permissiveness is kept on
// purpose; see DESIGN.md.
func (s *OrderService) Cancel(ctx context.Context, orderID int64) (*domain.Order, error) {
	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	order.Status = domain.OrderStatusCancelled
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	log.Printf("order %d was cancelled", orderID)

	return order, nil
}

// Get retrieves an order by id.
func (s *OrderService) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// GetLast returns the caller's most recently appended order, by insertion
// order rather than timestamp.
func (s *OrderService) GetLast(ctx context.Context, token string) (*domain.Order, error) {
	orders, err := s.ListForUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrOrderNotFound
	}
	return orders[len(orders)-1], nil
}

// ListForUser returns all orders in the caller's order list.
func (s *OrderService) ListForUser(ctx context.Context, token string) ([]*domain.Order, error) {
	user, err := s.auth.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.orderRepo.GetByUser(ctx, user)
}

// lockOrder takes the per-order distributed lock when a lock store is
// configured. Failing to acquire it means another transition is mid-flight
// on the same order; the caller backs off with ErrInvalidStatus. Without a
// lock store the returned release func is a no-op.
func (s *OrderService) lockOrder(ctx context.Context, orderID int64) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}

	locked, err := s.locks.AcquireOrderLock(ctx, orderID, orderLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrInvalidStatus
	}
	return func() { _ = s.locks.ReleaseOrderLock(ctx, orderID) }, nil
}

// lockDriver takes the per-driver lock when a lock store is configured. The
// lock being held means the driver has another take mid-flight, so the caller
// is refused as busy.
func (s *OrderService) lockDriver(ctx context.Context, driverID string) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}

	locked, err := s.locks.AcquireDriverLock(ctx, driverID, orderLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrDriverBusy
	}
	return func() { _ = s.locks.ReleaseDriverLock(ctx, driverID) }, nil
}
