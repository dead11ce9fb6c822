package tests

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"taxi/internal/domain"
	"taxi/internal/geo"
	"taxi/internal/redis"
	"taxi/internal/repository"
	"taxi/internal/service"
)

// Ensure mocks satisfy the interfaces they stand in for.
var (
	_ repository.UserRepository  = (*MockUserRepository)(nil)
	_ repository.OrderRepository = (*MockOrderRepository)(nil)
	_ geo.Provider               = (*MockGeoProvider)(nil)
	_ service.Validator          = (*MockValidator)(nil)
	_ redis.LockStoreInterface   = (*MockLockStore)(nil)
)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32
	DeleteCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Phone == phone {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		copy := *u
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) (*domain.User, error) {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(m.users, id)
	return user, nil
}

// ──────────────────────────────────────────────
// MOCK ORDER REPOSITORY
// ──────────────────────────────────────────────

// MockOrderRepository is a mock implementation of repository.OrderRepository.
// Order ids are assigned from an atomic counter, mirroring the serial ids the
// real store hands out.
type MockOrderRepository struct {
	mu         sync.RWMutex
	orders     map[int64]*domain.Order
	userOrders map[string][]int64
	nextID     int64

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockOrderRepository creates a new mock order repository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders:     make(map[int64]*domain.Order),
		userOrders: make(map[string][]int64),
	}
}

func (m *MockOrderRepository) Create(ctx context.Context, owner *domain.User, order *domain.Order) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	order.ID = m.nextID
	copy := *order
	m.orders[order.ID] = &copy
	m.userOrders[owner.ID] = append(m.userOrders[owner.ID], order.ID)
	owner.OrderIDs = append(owner.OrderIDs, order.ID)
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *order
	return &copy, nil
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *order
	m.orders[order.ID] = &copy
	return nil
}

func (m *MockOrderRepository) GetByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Order
	// Iterate in id order so results are deterministic.
	for id := int64(1); id <= m.nextID; id++ {
		order, ok := m.orders[id]
		if !ok || order.Status != status {
			continue
		}
		copy := *order
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockOrderRepository) GetByUser(ctx context.Context, user *domain.User) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.userOrders[user.ID]
	result := make([]*domain.Order, 0, len(ids))
	for _, id := range ids {
		if order, ok := m.orders[id]; ok {
			copy := *order
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockOrderRepository) AddToDriver(ctx context.Context, driver *domain.User, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userOrders[driver.ID] = append(m.userOrders[driver.ID], order.ID)
	return nil
}

// SeedOrder inserts an order with a fixed id and owner.
func (m *MockOrderRepository) SeedOrder(ownerID string, order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID == 0 {
		m.nextID++
		order.ID = m.nextID
	} else if order.ID > m.nextID {
		m.nextID = order.ID
	}
	m.orders[order.ID] = order
	if ownerID != "" {
		m.userOrders[ownerID] = append(m.userOrders[ownerID], order.ID)
	}
}

// ──────────────────────────────────────────────
// MOCK GEO PROVIDER
// ──────────────────────────────────────────────

// MockGeoProvider is a mock implementation of geo.Provider. By default every
// address resolves; specific addresses can be pinned to coordinates or made
// to fail, and distances can be configured globally or per coordinate pair.
type MockGeoProvider struct {
	mu         sync.RWMutex
	locations  map[string]geo.Coordinates
	failing    map[string]struct{}
	DistanceM  float64
	DistanceFn func(from, to geo.Coordinates) float64

	ResolveCallCount int32

	// Error injection for every resolve
	ResolveError error
}

// NewMockGeoProvider creates a new mock geo provider.
func NewMockGeoProvider() *MockGeoProvider {
	return &MockGeoProvider{
		locations: make(map[string]geo.Coordinates),
		failing:   make(map[string]struct{}),
	}
}

func geoKey(country, city, street, house string) string {
	return strings.ToLower(country + "|" + city + "|" + street + "|" + house)
}

// SetLocation pins an address to coordinates.
func (m *MockGeoProvider) SetLocation(country, city, street, house string, coords geo.Coordinates) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[geoKey(country, city, street, house)] = coords
}

// FailOn makes a specific address unresolvable.
func (m *MockGeoProvider) FailOn(country, city, street, house string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[geoKey(country, city, street, house)] = struct{}{}
}

func (m *MockGeoProvider) Resolve(ctx context.Context, country, city, street, house string) (geo.Coordinates, error) {
	atomic.AddInt32(&m.ResolveCallCount, 1)
	if m.ResolveError != nil {
		return geo.Coordinates{}, m.ResolveError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := geoKey(country, city, street, house)
	if _, failed := m.failing[key]; failed {
		return geo.Coordinates{}, geo.ErrUnresolvable
	}
	if coords, ok := m.locations[key]; ok {
		return coords, nil
	}
	// Unpinned addresses resolve to a deterministic point.
	return geo.Coordinates{Lat: float64(len(key)), Lng: float64(len(key))}, nil
}

func (m *MockGeoProvider) DistanceMeters(from, to geo.Coordinates) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.DistanceFn != nil {
		return m.DistanceFn(from, to)
	}
	return m.DistanceM
}

// ──────────────────────────────────────────────
// MOCK VALIDATOR
// ──────────────────────────────────────────────

// MockValidator is a configurable implementation of service.Validator.
// The zero value accepts everything except empty addresses.
type MockValidator struct {
	RejectRegister bool
	RejectLogin    bool
	RejectChange   bool

	// AddressFn overrides the address predicate.
	AddressFn func(addr domain.Address) bool
}

func (v *MockValidator) CanRegister(ctx context.Context, phone string) bool {
	return !v.RejectRegister
}

func (v *MockValidator) CanLogin(ctx context.Context, phone, password string) bool {
	return !v.RejectLogin
}

func (v *MockValidator) AddressIsValid(addr domain.Address) bool {
	if v.AddressFn != nil {
		return v.AddressFn(addr)
	}
	return addr.Country != "" && addr.City != "" && addr.Street != ""
}

func (v *MockValidator) CanChangeRegistration(ctx context.Context, role domain.Role, userID, newPhone string) bool {
	return !v.RejectChange
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is an in-memory implementation of the order and driver lock
// store.
type MockLockStore struct {
	mu          sync.Mutex
	locks       map[int64]bool
	driverLocks map[string]bool

	AcquireCallCount int32
	ReleaseCallCount int32
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks:       make(map[int64]bool),
		driverLocks: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireOrderLock(ctx context.Context, orderID int64, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[orderID] {
		return false, nil
	}
	m.locks[orderID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseOrderLock(ctx context.Context, orderID int64) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, orderID)
	return nil
}

func (m *MockLockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.driverLocks[driverID] {
		return false, nil
	}
	m.driverLocks[driverID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseDriverLock(ctx context.Context, driverID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.driverLocks, driverID)
	return nil
}
