package domain

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	// London to Paris is roughly 344 km
	d := HaversineKm(51.5074, -0.1278, 48.8566, 2.3522)
	if math.Abs(d-344) > 5 {
		t.Errorf("expected ~344 km, got %.1f", d)
	}
	if HaversineKm(10, 10, 10, 10) != 0 {
		t.Error("distance to self should be zero")
	}
}

func TestGeoRadius_Within(t *testing.T) {
	vesuvius := GeoRadius{Lat: 40.821, Lon: 14.426, RadiusKm: 50}
	if !vesuvius.Within(40.749, 14.485) {
		t.Error("Pompeii should be within 50 km of Vesuvius")
	}
	if vesuvius.Within(41.902, 12.496) {
		t.Error("Rome should not be within 50 km of Vesuvius")
	}
}
