package service

import (
	"context"
	"errors"
	"fmt"

	"taxi/internal/domain"
	"taxi/internal/geo"
	"taxi/internal/redis"
)

// addressResolver resolves addresses through the geolocation provider with an
// optional Redis cache in front. The cache is keyed by the normalized address
// line and is transparent: a miss or a cache error falls through to the
// provider.
type addressResolver struct {
	provider geo.Provider
	cache    redis.GeoCacheInterface // nil disables caching
}

// resolve converts an address into coordinates. Every provider failure is
// surfaced as ErrGeoResolution; there is no retry.
func (r *addressResolver) resolve(ctx context.Context, addr domain.Address) (geo.Coordinates, error) {
	key := addr.Normalized()

	if r.cache != nil {
		if coords, ok, err := r.cache.Get(ctx, key); err == nil && ok {
			return coords, nil
		}
	}

	coords, err := r.provider.Resolve(ctx, addr.Country, addr.City, addr.Street, addr.House)
	if err != nil {
		if errors.Is(err, geo.ErrUnresolvable) {
			return geo.Coordinates{}, fmt.Errorf("%w: %s", ErrGeoResolution, addr.Line())
		}
		return geo.Coordinates{}, fmt.Errorf("%w: %v", ErrGeoResolution, err)
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, key, coords)
	}
	return coords, nil
}
