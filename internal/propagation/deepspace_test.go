package propagation

import (
	"math"
	"testing"
)

// Synthetic geosynchronous-class orbit: 1.0027 rev/day, low inclination.
// Exercises the 24h synchronous resonance branch and, through the 1.5°
// inclination, the Lyddane periodic corrector.
const (
	geoLine1 = "1 90001U 25001A   25180.50000000  .00000000  00000-0  00000-0 0  9996"
	geoLine2 = "2 90001   1.5000  80.0000 0003000  50.0000 310.0000  1.00273790    04"
)

// Synthetic Molniya-class orbit: ~2.006 rev/day, e = 0.70, critical
// inclination. Exercises the 12h semi-synchronous resonance branch.
const (
	molniyaLine1 = "1 90002U 25001A   25180.50000000  .00000000  00000-0  00000-0 0  9990"
	molniyaLine2 = "2 90002  63.4000 120.0000 7000000 270.0000  10.0000  2.00570000    07"
)

func TestSynchronousClassification(t *testing.T) {
	prop := mustPropagator(t, geoLine1, geoLine2)

	if !prop.DeepSpace() {
		t.Fatalf("period %.1f min must select the deep-space model", prop.PeriodMinutes())
	}
	d := prop.deep
	if !d.resonant || !d.synchronous {
		t.Fatalf("geosynchronous orbit must be 24h synchronous resonant (resonant=%v synchronous=%v)",
			d.resonant, d.synchronous)
	}

	// Semi-major axis near the geostationary radius.
	aKm := prop.recoveredSemiMajorAxis * prop.consts.XKMPER
	if math.Abs(aKm-42164.0) > 100.0 {
		t.Errorf("semi-major axis = %.1f km, want ~42164", aKm)
	}

	// Integrator seeded at epoch.
	if d.atime != 0 || d.xli != d.xlamo || d.xni != prop.recoveredMeanMotion {
		t.Errorf("integrator not seeded: atime=%v xli=%v xni=%v", d.atime, d.xli, d.xni)
	}
}

func TestSemiSynchronousClassification(t *testing.T) {
	prop := mustPropagator(t, molniyaLine1, molniyaLine2)

	if !prop.DeepSpace() {
		t.Fatalf("period %.1f min must select the deep-space model", prop.PeriodMinutes())
	}
	d := prop.deep
	if !d.resonant || d.synchronous {
		t.Fatalf("Molniya orbit must be 12h resonant, not synchronous (resonant=%v synchronous=%v)",
			d.resonant, d.synchronous)
	}

	// All ten resonance coefficients must be populated.
	coeffs := []float64{d.d2201, d.d2211, d.d3210, d.d3222, d.d4410,
		d.d4422, d.d5220, d.d5232, d.d5421, d.d5433}
	for i, c := range coeffs {
		if c == 0 {
			t.Errorf("resonance coefficient %d is zero", i)
		}
	}
}

// TestSemiSynchronousRequiresHighEccentricity: the 12h band only activates
// for e >= 0.5; below that the orbit is deep-space but non-resonant.
func TestSemiSynchronousRequiresHighEccentricity(t *testing.T) {
	// Same mean motion, e = 0.40.
	line2 := "2 90003  63.4000 120.0000 4000000 270.0000  10.0000  2.00570000    00"
	line1 := "1 90003U 25001A   25180.50000000  .00000000  00000-0  00000-0 0  9994"

	prop := mustPropagator(t, line1, line2)
	if !prop.DeepSpace() {
		t.Fatal("expected deep-space model")
	}
	if prop.deep.resonant {
		t.Error("12h resonance must not activate below e = 0.5")
	}
}

// TestGCoefficientEccentricityBranches covers the piecewise polynomial
// splits at e = 0.65, 0.7 and 0.715: each branch must initialize and
// propagate without error and keep the state finite.
func TestGCoefficientEccentricityBranches(t *testing.T) {
	line1 := "1 90004U 25001A   25180.50000000  .00000000  00000-0  00000-0 0  9993"
	tests := []struct {
		name string
		ecc  string // 7-digit implied-decimal field
	}{
		{"e=0.60", "6000000"},
		{"e=0.65 boundary", "6500000"},
		{"e=0.66", "6600000"},
		{"e=0.70 boundary", "7000000"},
		{"e=0.715 boundary", "7150000"},
		{"e=0.72", "7200000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line2 := "2 90004  63.4000 120.0000 " + tt.ecc + " 270.0000  10.0000  2.00570000    01"
			prop := mustPropagator(t, line1, line2)

			if !prop.deep.resonant || prop.deep.synchronous {
				t.Fatal("expected 12h resonance")
			}

			for _, tsince := range []float64{0, 360, 1440} {
				sv, err := prop.FindPosition(tsince)
				if err != nil {
					t.Fatalf("FindPosition(%v) failed: %v", tsince, err)
				}
				if math.IsNaN(sv.X) || math.IsNaN(sv.VX) {
					t.Fatalf("FindPosition(%v) produced NaN", tsince)
				}
			}
		})
	}
}

// TestIntegratorAdvance verifies the ±720-minute stepping: after a
// propagation to t the last integrated time is within one half-step of t.
func TestIntegratorAdvance(t *testing.T) {
	prop := mustPropagator(t, geoLine1, geoLine2)

	for _, tsince := range []float64{10, 720, 1440, 3000} {
		if _, err := prop.FindPosition(tsince); err != nil {
			t.Fatalf("FindPosition(%v) failed: %v", tsince, err)
		}
		if math.Abs(tsince-prop.deep.atime) >= stepp {
			t.Errorf("t=%v: atime=%v not within %v of t", tsince, prop.deep.atime, stepp)
		}
	}
}

// TestIntegratorReplayIdempotent: repeating the same request must not move
// the integrator and must return bitwise identical output.
func TestIntegratorReplayIdempotent(t *testing.T) {
	prop := mustPropagator(t, geoLine1, geoLine2)

	first, err := prop.FindPosition(1440)
	if err != nil {
		t.Fatal(err)
	}
	atime := prop.deep.atime

	second, err := prop.FindPosition(1440)
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Errorf("replay differs: %+v vs %+v", first, second)
	}
	if prop.deep.atime != atime {
		t.Errorf("replay moved atime: %v vs %v", prop.deep.atime, atime)
	}
}

// TestIntegratorRestartOnSignChange: crossing the epoch reverses the
// integration direction and must restart from epoch, reproducing the state
// a fresh propagator computes.
func TestIntegratorRestartOnSignChange(t *testing.T) {
	prop := mustPropagator(t, molniyaLine1, molniyaLine2)

	if _, err := prop.FindPosition(1440); err != nil {
		t.Fatal(err)
	}
	if prop.deep.atime <= 0 {
		t.Fatalf("atime = %v, expected positive after forward integration", prop.deep.atime)
	}

	back, err := prop.FindPosition(-1440)
	if err != nil {
		t.Fatal(err)
	}
	if prop.deep.atime >= 0 {
		t.Errorf("atime = %v, expected negative after backward integration", prop.deep.atime)
	}

	fresh := mustPropagator(t, molniyaLine1, molniyaLine2)
	want, err := fresh.FindPosition(-1440)
	if err != nil {
		t.Fatal(err)
	}
	if back != want {
		t.Errorf("restart state differs from fresh propagator: %+v vs %+v", back, want)
	}
}

// TestIntegratorRestartOnBacktrack: a request closer to epoch than the last
// integrated time restarts rather than stepping backwards from stale state.
func TestIntegratorRestartOnBacktrack(t *testing.T) {
	prop := mustPropagator(t, geoLine1, geoLine2)

	if _, err := prop.FindPosition(2880); err != nil {
		t.Fatal(err)
	}

	got, err := prop.FindPosition(360)
	if err != nil {
		t.Fatal(err)
	}

	fresh := mustPropagator(t, geoLine1, geoLine2)
	want, err := fresh.FindPosition(360)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("backtracked state differs from fresh propagator: %+v vs %+v", got, want)
	}
}

// TestGeoStateSanity: the synchronous orbit must stay near the
// geostationary radius with a sub-km/s inertial speed mismatch.
func TestGeoStateSanity(t *testing.T) {
	prop := mustPropagator(t, geoLine1, geoLine2)

	for _, tsince := range []float64{0, 360, 720, 1440, 2880} {
		sv, err := prop.FindPosition(tsince)
		if err != nil {
			t.Fatalf("FindPosition(%v) failed: %v", tsince, err)
		}
		r := math.Sqrt(sv.X*sv.X + sv.Y*sv.Y + sv.Z*sv.Z)
		if math.Abs(r-42164.0) > 300.0 {
			t.Errorf("t=%v: |r| = %.1f km, want near 42164", tsince, r)
		}
		v := math.Sqrt(sv.VX*sv.VX + sv.VY*sv.VY + sv.VZ*sv.VZ)
		if math.Abs(v-3.0747) > 0.1 {
			t.Errorf("t=%v: |v| = %.4f km/s, want near 3.075", tsince, v)
		}
	}
}

// TestMolniyaStateSanity checks the 12h orbit over a full revolution:
// apogee/perigee radii bracket the expected range.
func TestMolniyaStateSanity(t *testing.T) {
	prop := mustPropagator(t, molniyaLine1, molniyaLine2)

	var minR, maxR float64 = math.Inf(1), 0
	for tsince := 0.0; tsince <= 720.0; tsince += 30.0 {
		sv, err := prop.FindPosition(tsince)
		if err != nil {
			t.Fatalf("FindPosition(%v) failed: %v", tsince, err)
		}
		r := math.Sqrt(sv.X*sv.X + sv.Y*sv.Y + sv.Z*sv.Z)
		if r < minR {
			minR = r
		}
		if r > maxR {
			maxR = r
		}
	}

	// a ≈ 26560 km, e ≈ 0.70: perigee ~8000 km, apogee ~45200 km.
	if minR < 6800 || minR > 11000 {
		t.Errorf("min |r| = %.1f km outside Molniya perigee range", minR)
	}
	if maxR < 40000 || maxR > 50000 {
		t.Errorf("max |r| = %.1f km outside Molniya apogee range", maxR)
	}
}

// TestLyddaneBranchSelection: below 0.2 rad the periodic corrector must use
// the Lyddane form; the state must remain finite right at the low
// inclination where 1/sin(i) would otherwise blow up.
func TestLyddaneBranchSelection(t *testing.T) {
	// 0.5° inclination geosynchronous orbit.
	line1 := "1 90005U 25001A   25180.50000000  .00000000  00000-0  00000-0 0  9992"
	line2 := "2 90005   0.5000  80.0000 0003000  50.0000 310.0000  1.00273790    00"
	prop := mustPropagator(t, line1, line2)

	if prop.inclination >= 0.2 {
		t.Fatalf("test orbit inclination %.4f rad should be below the Lyddane threshold", prop.inclination)
	}

	for _, tsince := range []float64{0, 720, 1440, 4320} {
		sv, err := prop.FindPosition(tsince)
		if err != nil {
			t.Fatalf("FindPosition(%v) failed: %v", tsince, err)
		}
		r := math.Sqrt(sv.X*sv.X + sv.Y*sv.Y + sv.Z*sv.Z)
		if math.IsNaN(r) || math.Abs(r-42164.0) > 500.0 {
			t.Errorf("t=%v: |r| = %.1f km, Lyddane branch produced implausible state", tsince, r)
		}
	}
}

// TestDeepSecularRatesApplied: the lunar/solar secular rates must shift the
// mean elements linearly in time before resonance handling.
func TestDeepSecularRatesApplied(t *testing.T) {
	prop := mustPropagator(t, molniyaLine1, molniyaLine2)
	d := prop.deep

	tsince := 1440.0
	xll, omgasm, xnodes := 1.0, 2.0, 3.0
	var em, xinc, xn float64
	prop.deepSecular(tsince, &xll, &omgasm, &xnodes, &em, &xinc, &xn)

	if math.Abs(em-(prop.eccentricity+d.sse*tsince)) > 1e-15 {
		t.Errorf("em = %v, want %v", em, prop.eccentricity+d.sse*tsince)
	}
	if math.Abs(xinc-(prop.inclination+d.ssi*tsince)) > 1e-15 {
		t.Errorf("xinc = %v, want %v", xinc, prop.inclination+d.ssi*tsince)
	}
	if math.Abs(omgasm-(2.0+d.ssg*tsince)) > 1e-15 {
		t.Errorf("omgasm = %v, want %v", omgasm, 2.0+d.ssg*tsince)
	}
	if math.Abs(xnodes-(3.0+d.ssh*tsince)) > 1e-12 {
		t.Errorf("xnodes = %v, want %v", xnodes, 3.0+d.ssh*tsince)
	}
}

// TestFirstRunPeriodicsNoApply: the initialization-time calibration call
// must not modify the state it is handed.
func TestFirstRunPeriodicsNoApply(t *testing.T) {
	prop := mustPropagator(t, geoLine1, geoLine2)

	em, xinc, omgasm, xnodes, xll := 0.1, 0.5, 1.0, 2.0, 3.0
	prop.deepPeriodics(0.0, true, &em, &xinc, &omgasm, &xnodes, &xll)

	if em != 0.1 || xinc != 0.5 || omgasm != 1.0 || xnodes != 2.0 || xll != 3.0 {
		t.Errorf("first-run periodics modified state: em=%v xinc=%v omgasm=%v xnodes=%v xll=%v",
			em, xinc, omgasm, xnodes, xll)
	}
}

// TestLunarSolarAccumulation: the secular accumulators must be populated,
// and the periodic coefficient families must differ between the solar bank
// and the lunar slots (the lunar pass must not overwrite the solar one).
func TestLunarSolarAccumulation(t *testing.T) {
	prop := mustPropagator(t, molniyaLine1, molniyaLine2)
	d := prop.deep

	if d.ssl == 0 || d.sse == 0 {
		t.Fatal("secular accumulators must be populated for a deep-space orbit")
	}
	if d.se2 == d.ee2 && d.sl2 == d.xl2 && d.sgh2 == d.xgh2 {
		t.Error("solar and lunar periodic coefficient families are identical; lunar pass likely overwrote the solar bank")
	}
}
