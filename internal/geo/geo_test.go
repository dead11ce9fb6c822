package geo

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("city"); got != "Moscow" {
			t.Errorf("expected city=Moscow, got %q", got)
		}
		if got := r.URL.Query().Get("street"); got != "1 Tverskaya" {
			t.Errorf("expected street=1 Tverskaya, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"55.7572","lon":"37.6112"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	coords, err := c.Resolve(context.Background(), "Russia", "Moscow", "Tverskaya", "1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if math.Abs(coords.Lat-55.7572) > 1e-6 || math.Abs(coords.Lng-37.6112) > 1e-6 {
		t.Errorf("unexpected coordinates: %+v", coords)
	}
}

func TestClientResolveNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	if _, err := c.Resolve(context.Background(), "Nowhere", "", "", ""); !errors.Is(err, ErrUnresolvable) {
		t.Errorf("expected ErrUnresolvable, got %v", err)
	}
}

func TestClientResolveMalformedCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Trailing garbage must not parse as a partial coordinate.
		w.Write([]byte(`[{"lat":"55.7abc","lon":"37.6112"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	if _, err := c.Resolve(context.Background(), "Russia", "Moscow", "Tverskaya", "1"); !errors.Is(err, ErrUnresolvable) {
		t.Errorf("expected ErrUnresolvable for malformed coordinates, got %v", err)
	}
}

func TestClientResolveServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	if _, err := c.Resolve(context.Background(), "Russia", "Moscow", "Tverskaya", "1"); err == nil {
		t.Error("expected error on upstream failure")
	}
}

func TestHaversineMeters(t *testing.T) {
	// Moscow to Saint Petersburg, roughly 634 km.
	moscow := Coordinates{Lat: 55.7558, Lng: 37.6173}
	spb := Coordinates{Lat: 59.9311, Lng: 30.3609}

	d := HaversineMeters(moscow, spb)
	if d < 620000 || d > 650000 {
		t.Errorf("expected ~634km, got %.0f m", d)
	}

	if d := HaversineMeters(moscow, moscow); d != 0 {
		t.Errorf("distance to self must be 0, got %f", d)
	}

	// Symmetric.
	if back := HaversineMeters(spb, moscow); math.Abs(back-d) > 1e-6 {
		t.Errorf("distance must be symmetric: %f vs %f", d, back)
	}
}
