package service

import "math"

// PricingEngine converts a computed distance into a price: a per-kilometer
// rate plus a flat base fare, both process-wide configuration.
type PricingEngine struct {
	ratePerKm       float64
	baseFare        int
	averageSpeedKmH int
}

// NewPricingEngine creates a PricingEngine.
func NewPricingEngine(ratePerKm float64, baseFare, averageSpeedKmH int) *PricingEngine {
	return &PricingEngine{
		ratePerKm:       ratePerKm,
		baseFare:        baseFare,
		averageSpeedKmH: averageSpeedKmH,
	}
}

// Price computes the fare for a trip of the given whole-kilometer distance.
//
// The rate is truncated to an integer BEFORE multiplying. A fractional rate
// therefore loses its fraction entirely: with rate 5.5 a 10 km trip costs
// 5*10 + base, not 55 + base. This reproduces the billing behavior the rest
// of the system was built around; do not "fix" it to round the product.
func (p *PricingEngine) Price(distanceKm int) int {
	return int(math.Floor(p.ratePerKm))*distanceKm + p.baseFare
}

// TravelMinutes estimates travel time for a distance in meters at the
// configured average speed.
func (p *PricingEngine) TravelMinutes(distanceMeters int) int {
	if p.averageSpeedKmH <= 0 {
		return 0
	}
	return (distanceMeters / 1000) * 60 / p.averageSpeedKmH
}
