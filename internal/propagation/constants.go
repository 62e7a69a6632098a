package propagation

import "math"

const (
	twoPi     = 2.0 * math.Pi
	twoThirds = 2.0 / 3.0
)

// GravityModel selects the Earth gravitational constant set used to derive
// the propagation coefficients. TLEs are fitted against WGS-72, which is the
// default throughout; WGS-84 is provided for callers that need consistency
// with WGS-84 ground coordinates at the cost of small offsets from the
// fitted elements.
type GravityModel int

const (
	// GravityWGS72Old is the original Spacetrack Report #3 constant set,
	// with XKE given directly rather than derived from MU.
	GravityWGS72Old GravityModel = iota
	// GravityWGS72 is the standard constant set for TLE propagation.
	GravityWGS72
	// GravityWGS84 uses the WGS-84 ellipsoid and harmonics.
	GravityWGS84
)

// Constants is a derived gravitational constant set. AE is the unit distance
// (one Earth radius); all internal distances are in Earth radii and all
// internal times in minutes.
type Constants struct {
	AE     float64
	MU     float64 // km^3/s^2, zero for the old WGS-72 set
	XKMPER float64 // km per Earth radius
	XKE    float64 // sqrt(GM) in Earth-radii^1.5 per minute
	XJ2    float64
	XJ3    float64
	XJ4    float64
	J3OJ2  float64
	CK2    float64
	CK4    float64
	QOMS2T float64
	S      float64 // default density-profile parameter (AE + 78 km)
}

func constantsFor(model GravityModel) (Constants, error) {
	c := Constants{AE: 1.0}

	switch model {
	case GravityWGS72Old:
		c.MU = 0.0
		c.XKMPER = 6378.135
		c.XKE = 0.0743669161
		c.XJ2 = 0.001082616
		c.XJ3 = -0.00000253881
		c.XJ4 = -0.00000165597
	case GravityWGS72:
		c.MU = 398600.8
		c.XKMPER = 6378.135
		c.XKE = 60.0 / math.Sqrt(c.XKMPER*c.XKMPER*c.XKMPER/c.MU)
		c.XJ2 = 0.001082616
		c.XJ3 = -0.00000253881
		c.XJ4 = -0.00000165597
	case GravityWGS84:
		c.MU = 398600.5
		c.XKMPER = 6378.137
		c.XKE = 60.0 / math.Sqrt(c.XKMPER*c.XKMPER*c.XKMPER/c.MU)
		c.XJ2 = 0.00108262998905
		c.XJ3 = -0.00000253215306
		c.XJ4 = -0.00000161098761
	default:
		return Constants{}, ErrUnknownGravityModel
	}

	c.J3OJ2 = c.XJ3 / c.XJ2
	c.CK2 = 0.5 * c.XJ2 * c.AE * c.AE
	c.CK4 = -0.375 * c.XJ4 * c.AE * c.AE * c.AE * c.AE
	c.QOMS2T = math.Pow((120.0-78.0)*c.AE/c.XKMPER, 4.0)
	c.S = c.AE * (1.0 + 78.0/c.XKMPER)

	return c, nil
}

// fmod2p wraps an angle into [0, 2π).
func fmod2p(x float64) float64 {
	x = math.Mod(x, twoPi)
	if x < 0 {
		x += twoPi
	}
	return x
}
