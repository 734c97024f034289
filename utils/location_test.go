package utils

import (
	"math"
	"testing"
)

func TestHaversineDistance(t *testing.T) {
	t.Run("zero distance for identical points", func(t *testing.T) {
		d := HaversineDistance(19.0760, 72.8777, 19.0760, 72.8777)
		if d != 0 {
			t.Fatalf("expected 0, got %f", d)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		d1 := HaversineDistance(19.0760, 72.8777, 28.7041, 77.1025)
		d2 := HaversineDistance(28.7041, 77.1025, 19.0760, 72.8777)
		if math.Abs(d1-d2) > 1e-9 {
			t.Fatalf("expected symmetric distances, got %f and %f", d1, d2)
		}
	})

	t.Run("mumbai to delhi", func(t *testing.T) {
		d := HaversineDistance(19.0760, 72.8777, 28.7041, 77.1025)
		// Great-circle distance is roughly 1150 km
		if d < 1130 || d > 1180 {
			t.Fatalf("expected ~1150 km, got %f", d)
		}
	})

	t.Run("short urban distance", func(t *testing.T) {
		// Two points ~1.1 km apart in Mumbai
		d := HaversineDistance(19.0760, 72.8777, 19.0860, 72.8777)
		if d < 1.0 || d > 1.3 {
			t.Fatalf("expected ~1.1 km, got %f", d)
		}
	})
}

func TestIsLocationValid(t *testing.T) {
	cases := []struct {
		name  string
		lat   float64
		lng   float64
		valid bool
	}{
		{"valid city center", 19.0760, 72.8777, true},
		{"equator meridian", 0, 0, true},
		{"lat too high", 91, 0, false},
		{"lat too low", -91, 0, false},
		{"lng too high", 0, 181, false},
		{"lng too low", 0, -181, false},
		{"boundary values", 90, 180, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsLocationValid(tc.lat, tc.lng); got != tc.valid {
				t.Fatalf("IsLocationValid(%f, %f) = %v, want %v", tc.lat, tc.lng, got, tc.valid)
			}
		})
	}
}

func TestIsWithinRadius(t *testing.T) {
	t.Run("point inside radius", func(t *testing.T) {
		if !IsWithinRadius(19.0760, 72.8777, 19.0860, 72.8777, 5) {
			t.Fatal("expected point ~1.1 km away to be within 5 km")
		}
	})

	t.Run("point outside radius", func(t *testing.T) {
		if IsWithinRadius(19.0760, 72.8777, 28.7041, 77.1025, 50) {
			t.Fatal("expected Delhi to be outside 50 km of Mumbai")
		}
	})
}

func TestCalculateETA(t *testing.T) {
	if eta := CalculateETA(0); eta != 1 {
		t.Fatalf("expected minimum ETA of 1 minute, got %d", eta)
	}
	if eta := CalculateETA(30); eta != 60 {
		t.Fatalf("expected 60 minutes for 30 km, got %d", eta)
	}
}
