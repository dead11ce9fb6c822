package redis

import (
	"context"
	"time"

	"taxi/internal/geo"
)

// GeoCacheInterface defines the interface for address-resolution caching.
type GeoCacheInterface interface {
	Get(ctx context.Context, normalizedAddr string) (geo.Coordinates, bool, error)
	Set(ctx context.Context, normalizedAddr string, coords geo.Coordinates) error
}

// LockStoreInterface defines the interface for per-order and per-driver
// distributed locking.
type LockStoreInterface interface {
	AcquireOrderLock(ctx context.Context, orderID int64, ttl time.Duration) (bool, error)
	ReleaseOrderLock(ctx context.Context, orderID int64) error
	AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error)
	ReleaseDriverLock(ctx context.Context, driverID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ GeoCacheInterface  = (*GeoCache)(nil)
	_ LockStoreInterface = (*LockStore)(nil)
)
