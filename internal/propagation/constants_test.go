package propagation

import (
	"errors"
	"math"
	"testing"
)

func TestConstantsDerivation(t *testing.T) {
	tests := []struct {
		name   string
		model  GravityModel
		xkmper float64
		xke    float64
		xkeTol float64
	}{
		{"wgs72 old", GravityWGS72Old, 6378.135, 0.0743669161, 0},
		{"wgs72", GravityWGS72, 6378.135, 0.0743669161, 1e-9},
		{"wgs84", GravityWGS84, 6378.137, 0.0743669161, 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := constantsFor(tt.model)
			if err != nil {
				t.Fatal(err)
			}
			if c.AE != 1.0 {
				t.Errorf("AE = %v, want 1", c.AE)
			}
			if c.XKMPER != tt.xkmper {
				t.Errorf("XKMPER = %v, want %v", c.XKMPER, tt.xkmper)
			}
			if diff := math.Abs(c.XKE - tt.xke); diff > tt.xkeTol {
				t.Errorf("XKE = %.12f, want %.12f ± %v", c.XKE, tt.xke, tt.xkeTol)
			}

			// Derived values.
			if want := 0.5 * c.XJ2; c.CK2 != want {
				t.Errorf("CK2 = %v, want %v", c.CK2, want)
			}
			if want := -0.375 * c.XJ4; c.CK4 != want {
				t.Errorf("CK4 = %v, want %v", c.CK4, want)
			}
			if want := math.Pow(42.0/c.XKMPER, 4.0); math.Abs(c.QOMS2T-want) > 1e-20 {
				t.Errorf("QOMS2T = %v, want %v", c.QOMS2T, want)
			}
			if c.J3OJ2 != c.XJ3/c.XJ2 {
				t.Errorf("J3OJ2 = %v, want %v", c.J3OJ2, c.XJ3/c.XJ2)
			}
			if want := c.AE * (1.0 + 78.0/c.XKMPER); c.S != want {
				t.Errorf("S = %v, want %v", c.S, want)
			}
		})
	}
}

func TestConstantsUnknownModel(t *testing.T) {
	_, err := constantsFor(GravityModel(-1))
	if !errors.Is(err, ErrUnknownGravityModel) {
		t.Errorf("expected ErrUnknownGravityModel, got %v", err)
	}
}

func TestFmod2p(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{twoPi, 0},
		{3 * math.Pi, math.Pi},
		{-math.Pi / 2, 3 * math.Pi / 2},
	}
	for _, tt := range tests {
		if got := fmod2p(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("fmod2p(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
