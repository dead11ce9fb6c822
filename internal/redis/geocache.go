package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"taxi/internal/geo"
)

// GeoCacheTTL bounds how long a resolved address stays cached. Street-level
// coordinates are effectively static, so the TTL only limits memory growth.
const GeoCacheTTL = 24 * time.Hour

const geoCachePrefix = "cache:geo:"

// GeoCache caches address resolutions in Redis, keyed by the normalized
// address line. A cache hit skips the provider call entirely; observable
// behavior is unchanged because coordinates for a fixed address are stable.
type GeoCache struct {
	client *redis.Client
}

// NewGeoCache creates a new GeoCache.
func NewGeoCache(client *redis.Client) *GeoCache {
	return &GeoCache{client: client}
}

type cachedCoordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Get retrieves cached coordinates for a normalized address.
// A cache miss returns ok=false with no error.
func (c *GeoCache) Get(ctx context.Context, normalizedAddr string) (geo.Coordinates, bool, error) {
	data, err := c.client.Get(ctx, geoCachePrefix+normalizedAddr).Bytes()
	if err != nil {
		if err == redis.Nil {
			return geo.Coordinates{}, false, nil
		}
		return geo.Coordinates{}, false, err
	}

	var cached cachedCoordinates
	if err := json.Unmarshal(data, &cached); err != nil {
		return geo.Coordinates{}, false, err
	}
	return geo.Coordinates{Lat: cached.Lat, Lng: cached.Lng}, true, nil
}

// Set stores resolved coordinates for a normalized address.
func (c *GeoCache) Set(ctx context.Context, normalizedAddr string, coords geo.Coordinates) error {
	data, err := json.Marshal(cachedCoordinates{Lat: coords.Lat, Lng: coords.Lng})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, geoCachePrefix+normalizedAddr, data, GeoCacheTTL).Err()
}
