package passes

import (
	"context"
	"testing"

	"github.com/star/orbitd/internal/tle"
	"github.com/star/orbitd/internal/transform"
)

// Real ISS TLE (epoch Feb 2025, valid for testing pass geometry).
const (
	issLine1 = "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993"
	issLine2 = "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058"
)

// NYC observer.
var nycObserver = transform.NewObserverPosition(40.7128, -74.006, 10)

func issElements(t *testing.T) tle.Elements {
	t.Helper()
	el, err := tle.ParseLines(issLine1, issLine2)
	if err != nil {
		t.Fatalf("ParseLines failed: %v", err)
	}
	el.Name = "ISS (ZARYA)"
	return el
}

func TestPredictISS(t *testing.T) {
	el := issElements(t)

	req := Request{
		Observer:     nycObserver,
		Entries:      []tle.Elements{el},
		Start:        el.Epoch.Time,
		HorizonHours: 24,
		MinElevation: 0,
		MaxPasses:    10,
	}

	results := Predict(context.Background(), req)

	if len(results) != 1 {
		t.Fatalf("expected 1 satellite result, got %d", len(results))
	}

	sat := results[0]
	if sat.NORADID != 25544 {
		t.Errorf("NORAD ID = %d, want 25544", sat.NORADID)
	}
	if sat.Error != "" {
		t.Fatalf("unexpected error: %s", sat.Error)
	}

	// ISS in LEO should have multiple passes over 24h from NYC.
	if len(sat.Passes) == 0 {
		t.Fatal("expected at least 1 ISS pass over NYC in 24h")
	}

	for i, p := range sat.Passes {
		if p.DurationSeconds < 10 {
			t.Errorf("pass %d: duration %.1fs too short", i, p.DurationSeconds)
		}
		if p.MaxElevation <= 0 {
			t.Errorf("pass %d: max elevation %.2f should be positive", i, p.MaxElevation)
		}
		if p.MaxElevation > 90 {
			t.Errorf("pass %d: max elevation %.2f exceeds 90 degrees", i, p.MaxElevation)
		}
		if p.AzimuthAtMax < 0 || p.AzimuthAtMax >= 360 {
			t.Errorf("pass %d: azimuth at max %.2f out of range", i, p.AzimuthAtMax)
		}
		if p.StartTime.After(p.MaxElevationTime) || p.MaxElevationTime.After(p.EndTime) {
			t.Errorf("pass %d: time ordering violated: start=%v max=%v end=%v",
				i, p.StartTime, p.MaxElevationTime, p.EndTime)
		}
		if len(p.GroundTrack) == 0 {
			t.Errorf("pass %d: expected ground track points, got none", i)
		}
		for _, gt := range p.GroundTrack {
			if gt.Latitude < -90 || gt.Latitude > 90 {
				t.Errorf("pass %d: ground track latitude %.2f out of range", i, gt.Latitude)
			}
			if gt.Longitude < -180 || gt.Longitude > 180 {
				t.Errorf("pass %d: ground track longitude %.2f out of range", i, gt.Longitude)
			}
			// ISS altitude band.
			if gt.Altitude < 300000 || gt.Altitude > 500000 {
				t.Errorf("pass %d: ground track altitude %.0f m outside ISS band", i, gt.Altitude)
			}
		}
	}
}

func TestPredictCancelled(t *testing.T) {
	el := issElements(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := Request{
		Observer:     nycObserver,
		Entries:      []tle.Elements{el},
		Start:        el.Epoch.Time,
		HorizonHours: 24,
		MinElevation: 0,
		MaxPasses:    10,
	}

	results := Predict(ctx, req)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	// Either the goroutine never acquired the semaphore ("cancelled") or it
	// returned early with no passes; both are acceptable.
	if results[0].Error == "" && len(results[0].Passes) > 0 {
		t.Error("expected no completed passes with a cancelled context")
	}
}

func TestPredictInvalidElements(t *testing.T) {
	el := issElements(t)
	el.Inclination = -1.0

	req := Request{
		Observer:     nycObserver,
		Entries:      []tle.Elements{el},
		Start:        el.Epoch.Time,
		HorizonHours: 1,
		MinElevation: 0,
		MaxPasses:    10,
	}

	results := Predict(context.Background(), req)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == "" {
		t.Error("expected an error for invalid elements")
	}
}
