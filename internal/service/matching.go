package service

import (
	"context"
	"log"
	"sort"

	"taxi/internal/domain"
	"taxi/internal/geo"
	"taxi/internal/redis"
	"taxi/internal/repository"
)

// Distance is a measured distance in whole meters. It exists so ordering is
// defined on a concrete value type instead of ad-hoc integer comparisons.
type Distance int

// Less reports whether d orders before other.
func (d Distance) Less(other Distance) bool { return d < other }

// Km returns the distance in whole kilometers, truncated.
func (d Distance) Km() int { return int(d) / 1000 }

// RankedOrder pairs an order with its distance from the driver.
type RankedOrder struct {
	Order      *domain.Order
	Distance   Distance
	EtaMinutes int
}

// MatchingService ranks pending orders by their pickup distance from a
// driver's current address.
type MatchingService struct {
	orderRepo repository.OrderRepository
	provider  geo.Provider
	pricing   *PricingEngine
	resolver  addressResolver
}

// NewMatchingService creates a new MatchingService. geoCache may be nil.
func NewMatchingService(
	orderRepo repository.OrderRepository,
	provider geo.Provider,
	pricing *PricingEngine,
	geoCache redis.GeoCacheInterface,
) *MatchingService {
	return &MatchingService{
		orderRepo: orderRepo,
		provider:  provider,
		pricing:   pricing,
		resolver:  addressResolver{provider: provider, cache: geoCache},
	}
}

// RankByDistance fetches all orders with the given status and returns them
// sorted ascending by pickup distance from the driver's address. The sort is
// stable over (distance, fetch order), so orders at identical distances are
// all retained and keep their relative order.
func (s *MatchingService) RankByDistance(ctx context.Context, status domain.OrderStatus, driverAddressLine string) ([]RankedOrder, error) {
	driverAddr := domain.ParseAddress(driverAddressLine)

	orders, err := s.orderRepo.GetByStatus(ctx, status)
	if err != nil {
		return nil, err
	}

	log.Printf("found %d orders with status %s", len(orders), status)

	// The driver's address resolves once; each candidate origin resolves
	// per order. Any failure aborts the whole ranking.
	driverCoords, err := s.resolver.resolve(ctx, driverAddr)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedOrder, 0, len(orders))
	for _, order := range orders {
		origin, err := s.resolver.resolve(ctx, order.From)
		if err != nil {
			return nil, err
		}

		distance := Distance(s.provider.DistanceMeters(driverCoords, origin))
		ranked = append(ranked, RankedOrder{
			Order:      order,
			Distance:   distance,
			EtaMinutes: s.pricing.TravelMinutes(int(distance)),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance.Less(ranked[j].Distance)
	})

	return ranked, nil
}
