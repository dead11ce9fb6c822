package service

import "testing"

func TestPrice(t *testing.T) {
	tests := []struct {
		name       string
		ratePerKm  float64
		baseFare   int
		distanceKm int
		want       int
	}{
		{"default rate", 5.0, 30, 10, 80},
		{"zero distance pays the base fare", 5.0, 30, 0, 30},
		// The rate truncates before multiplying, so the fraction is lost
		// entirely rather than rounded into the product.
		{"fractional rate truncates", 5.9, 30, 10, 80},
		{"sub-unit rate collapses to zero", 0.9, 30, 100, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPricingEngine(tt.ratePerKm, tt.baseFare, 60)
			if got := p.Price(tt.distanceKm); got != tt.want {
				t.Errorf("Price(%d) = %d, want %d", tt.distanceKm, got, tt.want)
			}
		})
	}
}

func TestTravelMinutes(t *testing.T) {
	p := NewPricingEngine(5.0, 30, 60)

	if got := p.TravelMinutes(10000); got != 10 {
		t.Errorf("TravelMinutes(10000) = %d, want 10", got)
	}
	if got := p.TravelMinutes(500); got != 0 {
		t.Errorf("TravelMinutes(500) = %d, want 0", got)
	}

	unset := NewPricingEngine(5.0, 30, 0)
	if got := unset.TravelMinutes(10000); got != 0 {
		t.Errorf("TravelMinutes with zero speed = %d, want 0", got)
	}
}
