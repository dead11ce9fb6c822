package tests

import (
	"context"
	"errors"
	"testing"

	"taxi/internal/domain"
	"taxi/internal/repository"
	"taxi/internal/service"
	"taxi/internal/session"
)

// env wires the services against in-memory mocks the way main wires them
// against Postgres and Redis. Locking and caching are off unless a test
// installs them.
type env struct {
	users    *MockUserRepository
	orders   *MockOrderRepository
	geo      *MockGeoProvider
	registry *session.Registry
	auth     *service.AuthService
	accounts *service.AccountService
	trips    *service.OrderService
	matching *service.MatchingService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	users := NewMockUserRepository()
	orders := NewMockOrderRepository()
	geoProv := NewMockGeoProvider()
	registry := session.NewRegistry()
	validator := service.NewDefaultValidator(users)
	auth := service.NewAuthService(registry, users, validator)
	pricing := service.NewPricingEngine(5.0, 30, 60)

	return &env{
		users:    users,
		orders:   orders,
		geo:      geoProv,
		registry: registry,
		auth:     auth,
		accounts: service.NewAccountService(users, auth, validator),
		trips:    service.NewOrderService(orders, users, auth, validator, pricing, geoProv, nil, nil),
		matching: service.NewMatchingService(orders, geoProv, pricing, nil),
	}
}

func (e *env) registerPassenger(t *testing.T, phone, password, name, home string) string {
	t.Helper()
	if _, err := e.accounts.RegisterPassenger(context.Background(), phone, password, name, home); err != nil {
		t.Fatalf("RegisterPassenger: %v", err)
	}
	token, err := e.auth.Login(context.Background(), phone, password)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return token
}

func (e *env) registerDriver(t *testing.T, phone, password, name string) string {
	t.Helper()
	car := domain.Car{Type: "sedan", Model: "Camry", Number: "A123BC"}
	if _, err := e.accounts.RegisterDriver(context.Background(), phone, password, name, car); err != nil {
		t.Fatalf("RegisterDriver: %v", err)
	}
	token, err := e.auth.Login(context.Background(), phone, password)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return token
}

const (
	fromLine = "Russia, Moscow, Tverskaya, 1"
	toLine   = "Russia, Moscow, Arbat, 10"
)

func TestOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.geo.DistanceM = 10000

	driverToken := e.registerDriver(t, "111", "pass1", "Alex")
	passengerToken := e.registerPassenger(t, "222", "pass2", "Bob", "Russia, Moscow, Lenina, 5")

	order, err := e.trips.Create(ctx, passengerToken, fromLine, toLine, "hurry please")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if order.Status != domain.OrderStatusNew {
		t.Errorf("expected status NEW, got %s", order.Status)
	}
	if order.DistanceKm != 10 {
		t.Errorf("expected distance 10 km, got %d", order.DistanceKm)
	}
	if want := 5*10 + 30; order.Price != want {
		t.Errorf("expected price %d, got %d", want, order.Price)
	}
	if order.Message != "Bob: hurry please" {
		t.Errorf("expected message prefixed with passenger name, got %q", order.Message)
	}
	if order.DriverID != "" {
		t.Errorf("fresh order must have no driver, got %q", order.DriverID)
	}

	taken, err := e.trips.Take(ctx, driverToken, order.ID)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if taken.Status != domain.OrderStatusInProgress {
		t.Errorf("expected status IN_PROGRESS, got %s", taken.Status)
	}
	if taken.DriverID == "" {
		t.Error("taken order must carry the driver id")
	}

	closed, err := e.trips.Close(ctx, driverToken, order.ID)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed.Status != domain.OrderStatusDone {
		t.Errorf("expected status DONE, got %s", closed.Status)
	}

	// A finished order cannot be taken again.
	if _, err := e.trips.Take(ctx, driverToken, order.ID); !errors.Is(err, service.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus on re-take, got %v", err)
	}
}

func TestTakeDriverBusy(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.geo.DistanceM = 3000

	driverToken := e.registerDriver(t, "111", "pass1", "Alex")
	passengerToken := e.registerPassenger(t, "222", "pass2", "Bob", "Russia, Moscow, Lenina, 5")

	first, err := e.trips.Create(ctx, passengerToken, fromLine, toLine, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := e.trips.Create(ctx, passengerToken, fromLine, toLine, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := e.trips.Take(ctx, driverToken, first.ID); err != nil {
		t.Fatalf("Take first: %v", err)
	}

	if _, err := e.trips.Take(ctx, driverToken, second.ID); !errors.Is(err, service.ErrDriverBusy) {
		t.Errorf("expected ErrDriverBusy, got %v", err)
	}

	// The busy check runs before the existence check, so a busy driver gets
	// refused even for an unknown order id.
	if _, err := e.trips.Take(ctx, driverToken, 9999); !errors.Is(err, service.ErrDriverBusy) {
		t.Errorf("expected ErrDriverBusy for unknown id while busy, got %v", err)
	}
}

func TestTakeUnknownOrder(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	driverToken := e.registerDriver(t, "111", "pass1", "Alex")

	if _, err := e.trips.Take(ctx, driverToken, 42); !errors.Is(err, service.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestCloseOwnership(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.geo.DistanceM = 3000

	driverToken := e.registerDriver(t, "111", "pass1", "Alex")
	otherToken := e.registerDriver(t, "333", "pass3", "Carl")
	passengerToken := e.registerPassenger(t, "222", "pass2", "Bob", "Russia, Moscow, Lenina, 5")

	order, err := e.trips.Create(ctx, passengerToken, fromLine, toLine, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := e.trips.Take(ctx, driverToken, order.ID); err != nil {
		t.Fatalf("Take: %v", err)
	}

	// A driver who never took the order cannot close it.
	if _, err := e.trips.Close(ctx, otherToken, order.ID); !errors.Is(err, service.ErrDriverOrderMismatch) {
		t.Errorf("expected ErrDriverOrderMismatch, got %v", err)
	}

	// Ownership is decided by the caller's own order list, so the passenger
	// who created the order may close it too.
	closed, err := e.trips.Close(ctx, passengerToken, order.ID)
	if err != nil {
		t.Fatalf("Close by passenger: %v", err)
	}
	if closed.Status != domain.OrderStatusDone {
		t.Errorf("expected status DONE, got %s", closed.Status)
	}
}

func TestCloseNotInProgress(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.geo.DistanceM = 3000

	passengerToken := e.registerPassenger(t, "222", "pass2", "Bob", "Russia, Moscow, Lenina, 5")

	order, err := e.trips.Create(ctx, passengerToken, fromLine, toLine, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Still NEW: the owner cannot close it before a driver takes it.
	if _, err := e.trips.Close(ctx, passengerToken, order.ID); !errors.Is(err, service.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestCancelFromAnyState(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.geo.DistanceM = 3000

	driverToken := e.registerDriver(t, "111", "pass1", "Alex")
	passengerToken := e.registerPassenger(t, "222", "pass2", "Bob", "Russia, Moscow, Lenina, 5")

	order, err := e.trips.Create(ctx, passengerToken, fromLine, toLine, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cancelled, err := e.trips.Cancel(ctx, order.ID)
	if err != nil {
		t.Fatalf("Cancel NEW: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled {
		t.Errorf("expected status CANCELLED, got %s", cancelled.Status)
	}

	// Cancel is a force transition: even a DONE order flips to CANCELLED.
	done, err := e.trips.Create(ctx, passengerToken, fromLine, toLine, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := e.trips.Take(ctx, driverToken, done.ID); err != nil {
		t.Fatalf("Take: %v", err)
	}
	if _, err := e.trips.Close(ctx, driverToken, done.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	recancelled, err := e.trips.Cancel(ctx, done.ID)
	if err != nil {
		t.Fatalf("Cancel DONE: %v", err)
	}
	if recancelled.Status != domain.OrderStatusCancelled {
		t.Errorf("expected status CANCELLED, got %s", recancelled.Status)
	}

	if _, err := e.trips.Cancel(ctx, 9999); !errors.Is(err, service.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestAddressGate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.geo.DistanceM = 3000

	passengerToken := e.registerPassenger(t, "222", "pass2", "Bob", "Russia, Moscow, Lenina, 5")

	// Both addresses unusable: rejected.
	if _, err := e.trips.Create(ctx, passengerToken, "nowhere", "elsewhere", ""); !errors.Is(err, service.ErrAddressInvalid) {
		t.Errorf("expected ErrAddressInvalid, got %v", err)
	}

	// One usable address is enough to pass the gate.
	if _, err := e.trips.Create(ctx, passengerToken, fromLine, "elsewhere", ""); err != nil {
		t.Errorf("expected order with one valid address to pass, got %v", err)
	}
}

func TestCalculateDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.geo.DistanceM = 12500

	estimate, err := e.trips.Calculate(ctx, fromLine, toLine)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if estimate.DistanceKm != 12 {
		t.Errorf("expected 12 km, got %d", estimate.DistanceKm)
	}
	if want := 5*12 + 30; estimate.Price != want {
		t.Errorf("expected price %d, got %d", want, estimate.Price)
	}
	if got := e.orders.CreateCallCount; got != 0 {
		t.Errorf("Calculate must not create orders, saw %d creates", got)
	}
}

func TestCreateAnonymous(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.geo.DistanceM = 3000

	order, err := e.trips.CreateAnonymous(ctx, "555", "Dana", fromLine, toLine, "call me")
	if err != nil {
		t.Fatalf("CreateAnonymous: %v", err)
	}
	if order.Status != domain.OrderStatusNew {
		t.Errorf("expected status NEW, got %s", order.Status)
	}
	// Anonymous orders keep the raw message.
	if order.Message != "call me" {
		t.Errorf("expected unprefixed message, got %q", order.Message)
	}

	owner, err := e.users.GetByID(ctx, order.PassengerID)
	if err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	if owner.Role != domain.RoleAnonymous {
		t.Errorf("expected anonymous owner, got role %s", owner.Role)
	}
	if owner.PasswordHash != "" {
		t.Error("anonymous user must have no credentials")
	}
	// And no credentials means no login.
	if _, err := e.auth.Login(ctx, "555", ""); !errors.Is(err, service.ErrAuthentication) {
		t.Errorf("expected ErrAuthentication for anonymous login, got %v", err)
	}
}

func TestCreateAnonymousCleansUpOnFailure(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.geo.DistanceM = 3000

	e.orders.CreateError = errors.New("store unavailable")

	if _, err := e.trips.CreateAnonymous(ctx, "555", "Dana", fromLine, toLine, ""); err == nil {
		t.Fatal("expected error when the order store fails")
	}

	// The throwaway user must not outlive the failed order.
	if _, err := e.users.GetByPhone(ctx, "555"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected anonymous user to be removed, got %v", err)
	}
}

func TestGeoResolutionFailure(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	passengerToken := e.registerPassenger(t, "222", "pass2", "Bob", "Russia, Moscow, Lenina, 5")

	e.geo.FailOn("Russia", "Moscow", "Tverskaya", "1")

	if _, err := e.trips.Create(ctx, passengerToken, fromLine, toLine, ""); !errors.Is(err, service.ErrGeoResolution) {
		t.Errorf("expected ErrGeoResolution, got %v", err)
	}
	if got := e.orders.CreateCallCount; got != 0 {
		t.Errorf("failed resolution must not create orders, saw %d creates", got)
	}
}

func TestGetLast(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.geo.DistanceM = 3000

	passengerToken := e.registerPassenger(t, "222", "pass2", "Bob", "Russia, Moscow, Lenina, 5")

	if _, err := e.trips.GetLast(ctx, passengerToken); !errors.Is(err, service.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound with no orders, got %v", err)
	}

	if _, err := e.trips.Create(ctx, passengerToken, fromLine, toLine, "first"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := e.trips.Create(ctx, passengerToken, fromLine, toLine, "second")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	last, err := e.trips.GetLast(ctx, passengerToken)
	if err != nil {
		t.Fatalf("GetLast: %v", err)
	}
	if last.ID != second.ID {
		t.Errorf("expected last order %d, got %d", second.ID, last.ID)
	}
}

// gatedOrderRepo parks GetByUser until the gate opens. It widens the window
// between the busy check and the assignment in Take so concurrent callers
// can be forced into it.
type gatedOrderRepo struct {
	*MockOrderRepository
	entered chan struct{}
	gate    chan struct{}
}

func (g *gatedOrderRepo) GetByUser(ctx context.Context, user *domain.User) ([]*domain.Order, error) {
	g.entered <- struct{}{}
	<-g.gate
	return g.MockOrderRepository.GetByUser(ctx, user)
}

func TestTakeConcurrentSameDriver(t *testing.T) {
	ctx := context.Background()

	users := NewMockUserRepository()
	orders := NewMockOrderRepository()
	geoProv := NewMockGeoProvider()
	geoProv.DistanceM = 3000
	locks := NewMockLockStore()
	registry := session.NewRegistry()
	validator := service.NewDefaultValidator(users)
	auth := service.NewAuthService(registry, users, validator)
	pricing := service.NewPricingEngine(5.0, 30, 60)
	accounts := service.NewAccountService(users, auth, validator)
	trips := service.NewOrderService(orders, users, auth, validator, pricing, geoProv, nil, locks)

	car := domain.Car{Type: "sedan", Model: "Camry", Number: "A123BC"}
	driver, err := accounts.RegisterDriver(ctx, "111", "pass1", "Alex", car)
	if err != nil {
		t.Fatalf("RegisterDriver: %v", err)
	}
	driverToken, err := auth.Login(ctx, "111", "pass1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := accounts.RegisterPassenger(ctx, "222", "pass2", "Bob", "Russia, Moscow, Lenina, 5"); err != nil {
		t.Fatalf("RegisterPassenger: %v", err)
	}
	passengerToken, err := auth.Login(ctx, "222", "pass2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	first, err := trips.Create(ctx, passengerToken, fromLine, toLine, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := trips.Create(ctx, passengerToken, fromLine, toLine, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	gated := &gatedOrderRepo{
		MockOrderRepository: orders,
		entered:             make(chan struct{}),
		gate:                make(chan struct{}),
	}
	taking := service.NewOrderService(gated, users, auth, validator, pricing, geoProv, nil, locks)

	errs := make(chan error, 2)
	go func() {
		_, err := taking.Take(ctx, driverToken, first.ID)
		errs <- err
	}()
	// Wait until the first take sits inside the busy check, holding the
	// driver lock, then race a second take on a different order.
	<-gated.entered
	go func() {
		_, err := taking.Take(ctx, driverToken, second.ID)
		errs <- err
	}()

	// The racing take must be refused without ever reaching the busy check.
	if err := <-errs; !errors.Is(err, service.ErrDriverBusy) {
		t.Fatalf("expected ErrDriverBusy for the concurrent take, got %v", err)
	}

	close(gated.gate)
	if err := <-errs; err != nil {
		t.Fatalf("first take must succeed: %v", err)
	}

	driverOrders, err := orders.GetByUser(ctx, driver)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	inProgress := 0
	for _, o := range driverOrders {
		if o.Status == domain.OrderStatusInProgress {
			inProgress++
		}
	}
	if inProgress != 1 {
		t.Errorf("driver must hold exactly one IN_PROGRESS order, got %d", inProgress)
	}
}

func TestTakeLockContention(t *testing.T) {
	ctx := context.Background()

	users := NewMockUserRepository()
	orders := NewMockOrderRepository()
	geoProv := NewMockGeoProvider()
	geoProv.DistanceM = 3000
	locks := NewMockLockStore()
	registry := session.NewRegistry()
	validator := service.NewDefaultValidator(users)
	auth := service.NewAuthService(registry, users, validator)
	pricing := service.NewPricingEngine(5.0, 30, 60)
	accounts := service.NewAccountService(users, auth, validator)
	trips := service.NewOrderService(orders, users, auth, validator, pricing, geoProv, nil, locks)

	car := domain.Car{Type: "sedan", Model: "Camry", Number: "A123BC"}
	if _, err := accounts.RegisterDriver(ctx, "111", "pass1", "Alex", car); err != nil {
		t.Fatalf("RegisterDriver: %v", err)
	}
	driverToken, err := auth.Login(ctx, "111", "pass1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := accounts.RegisterPassenger(ctx, "222", "pass2", "Bob", "Russia, Moscow, Lenina, 5"); err != nil {
		t.Fatalf("RegisterPassenger: %v", err)
	}
	passengerToken, err := auth.Login(ctx, "222", "pass2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	order, err := trips.Create(ctx, passengerToken, fromLine, toLine, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Simulate a concurrent transition holding the per-order lock.
	if ok, _ := locks.AcquireOrderLock(ctx, order.ID, 0); !ok {
		t.Fatal("precondition: lock must be free")
	}
	if _, err := trips.Take(ctx, driverToken, order.ID); !errors.Is(err, service.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus while locked, got %v", err)
	}

	if err := locks.ReleaseOrderLock(ctx, order.ID); err != nil {
		t.Fatalf("ReleaseOrderLock: %v", err)
	}
	if _, err := trips.Take(ctx, driverToken, order.ID); err != nil {
		t.Fatalf("Take after release: %v", err)
	}
	if got := locks.ReleaseCallCount; got < 2 {
		t.Errorf("expected lock releases after transitions, saw %d", got)
	}
}
