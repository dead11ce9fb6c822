// Package geo abstracts the external geolocation provider: resolving a
// structured address to coordinates and measuring the distance between two
// coordinate pairs.
package geo

import (
	"context"
	"errors"
	"math"
)

// ErrUnresolvable is returned when the provider cannot resolve an address.
var ErrUnresolvable = errors.New("address could not be resolved")

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Provider resolves addresses and measures distances.
type Provider interface {
	// Resolve converts a structured address into coordinates.
	// It fails with ErrUnresolvable when the provider has no match.
	Resolve(ctx context.Context, country, city, street, house string) (Coordinates, error)

	// DistanceMeters returns the distance between two coordinate pairs.
	DistanceMeters(from, to Coordinates) float64
}

const earthRadiusMeters = 6371000

// HaversineMeters computes the great-circle distance between two points.
func HaversineMeters(from, to Coordinates) float64 {
	lat1 := from.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dLat := (to.Lat - from.Lat) * math.Pi / 180
	dLng := (to.Lng - from.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
