package tests

import (
	"context"
	"errors"
	"math"
	"testing"

	"taxi/internal/domain"
	"taxi/internal/geo"
	"taxi/internal/service"
)

const driverLine = "Russia, Moscow, Baza, 1"

func newMatchingEnv(t *testing.T) (*MockOrderRepository, *MockGeoProvider, *service.MatchingService) {
	t.Helper()

	orders := NewMockOrderRepository()
	geoProv := NewMockGeoProvider()
	geoProv.SetLocation("Russia", "Moscow", "Baza", "1", geo.Coordinates{Lat: 0})
	// Distance is latitude delta in kilometers, expressed in meters.
	geoProv.DistanceFn = func(from, to geo.Coordinates) float64 {
		return math.Abs(from.Lat-to.Lat) * 1000
	}
	pricing := service.NewPricingEngine(5.0, 30, 60)
	return orders, geoProv, service.NewMatchingService(orders, geoProv, pricing, nil)
}

func seedNewOrder(orders *MockOrderRepository, geoProv *MockGeoProvider, street string, lat float64) *domain.Order {
	geoProv.SetLocation("Russia", "Moscow", street, "1", geo.Coordinates{Lat: lat})
	order := &domain.Order{
		From:   domain.Address{Country: "Russia", City: "Moscow", Street: street, House: "1"},
		To:     domain.Address{Country: "Russia", City: "Moscow", Street: "Arbat", House: "10"},
		Status: domain.OrderStatusNew,
	}
	orders.SeedOrder("", order)
	return order
}

func TestRankByDistance(t *testing.T) {
	ctx := context.Background()
	orders, geoProv, matching := newMatchingEnv(t)

	far := seedNewOrder(orders, geoProv, "Dalniy", 8)
	near := seedNewOrder(orders, geoProv, "Blizhniy", 2)
	mid := seedNewOrder(orders, geoProv, "Sredniy", 5)

	ranked, err := matching.RankByDistance(ctx, domain.OrderStatusNew, driverLine)
	if err != nil {
		t.Fatalf("RankByDistance: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked orders, got %d", len(ranked))
	}

	wantIDs := []int64{near.ID, mid.ID, far.ID}
	for i, want := range wantIDs {
		if ranked[i].Order.ID != want {
			t.Errorf("position %d: expected order %d, got %d", i, want, ranked[i].Order.ID)
		}
	}

	if ranked[0].Distance != 2000 {
		t.Errorf("expected nearest distance 2000m, got %d", ranked[0].Distance)
	}
	// At 60 km/h the ETA in minutes equals the distance in kilometers.
	if ranked[2].EtaMinutes != 8 {
		t.Errorf("expected 8 min ETA for the far order, got %d", ranked[2].EtaMinutes)
	}
}

func TestRankByDistanceKeepsTies(t *testing.T) {
	ctx := context.Background()
	orders, geoProv, matching := newMatchingEnv(t)

	first := seedNewOrder(orders, geoProv, "Pervaya", 5)
	second := seedNewOrder(orders, geoProv, "Vtoraya", 5)
	nearest := seedNewOrder(orders, geoProv, "Tretya", 1)

	ranked, err := matching.RankByDistance(ctx, domain.OrderStatusNew, driverLine)
	if err != nil {
		t.Fatalf("RankByDistance: %v", err)
	}
	// Every order at the same distance stays in the result, in fetch order.
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked orders, got %d", len(ranked))
	}
	wantIDs := []int64{nearest.ID, first.ID, second.ID}
	for i, want := range wantIDs {
		if ranked[i].Order.ID != want {
			t.Errorf("position %d: expected order %d, got %d", i, want, ranked[i].Order.ID)
		}
	}
}

func TestRankByDistanceFiltersStatus(t *testing.T) {
	ctx := context.Background()
	orders, geoProv, matching := newMatchingEnv(t)

	seedNewOrder(orders, geoProv, "Pervaya", 5)
	taken := seedNewOrder(orders, geoProv, "Vtoraya", 2)
	taken.Status = domain.OrderStatusInProgress

	ranked, err := matching.RankByDistance(ctx, domain.OrderStatusNew, driverLine)
	if err != nil {
		t.Fatalf("RankByDistance: %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("expected only NEW orders, got %d results", len(ranked))
	}
}

func TestRankByDistanceGeoError(t *testing.T) {
	ctx := context.Background()
	orders, geoProv, matching := newMatchingEnv(t)

	seedNewOrder(orders, geoProv, "Pervaya", 5)
	broken := seedNewOrder(orders, geoProv, "Vtoraya", 2)
	geoProv.FailOn(broken.From.Country, broken.From.City, broken.From.Street, broken.From.House)

	if _, err := matching.RankByDistance(ctx, domain.OrderStatusNew, driverLine); !errors.Is(err, service.ErrGeoResolution) {
		t.Errorf("expected ErrGeoResolution, got %v", err)
	}
}

func TestRankByDistanceDriverAddressError(t *testing.T) {
	ctx := context.Background()
	orders, geoProv, matching := newMatchingEnv(t)

	seedNewOrder(orders, geoProv, "Pervaya", 5)
	geoProv.FailOn("Russia", "Moscow", "Baza", "1")

	if _, err := matching.RankByDistance(ctx, domain.OrderStatusNew, driverLine); !errors.Is(err, service.ErrGeoResolution) {
		t.Errorf("expected ErrGeoResolution, got %v", err)
	}
}
