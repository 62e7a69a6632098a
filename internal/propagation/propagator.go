// Package propagation implements the SGP4/SDP4 analytic orbital propagator:
// given a two-line element set it computes TEME position and velocity at any
// offset from the TLE epoch, modeling Earth zonal harmonics (J2–J4),
// atmospheric drag through B*, and — for orbits with periods of 225 minutes
// or more — lunar/solar perturbations and Earth-resonance effects.
//
// A Propagator is bound to one TLE by SetElements and then queried with
// FindPosition. After binding, all fields are read-only except the
// deep-space resonance integrator, so an instance is safe for concurrent
// reads only for non-resonant orbits; resonant orbits need one instance per
// goroutine (the worker pool in this package does exactly that).
package propagation

import (
	"math"
	"time"

	"github.com/star/orbitd/internal/tle"
	"github.com/star/orbitd/internal/transform"
)

// deepSpacePeriodMinutes is the orbital period at and above which the SDP4
// deep-space model replaces plain SGP4.
const deepSpacePeriodMinutes = 225.0

// Propagator holds the per-TLE derived model state. Construct with
// NewPropagator, bind with SetElements, query with FindPosition.
type Propagator struct {
	consts Constants
	bound  bool

	// Elements as bound (radians, rad/min).
	meanAnomaly   float64
	ascendingNode float64
	argPerigee    float64
	eccentricity  float64
	inclination   float64
	meanMotion    float64
	bstar         float64
	epoch         tle.Epoch

	// Brouwer elements recovered from the Kozai mean motion.
	recoveredMeanMotion    float64 // xnodp, rad/min
	recoveredSemiMajorAxis float64 // aodp, Earth radii
	perigeeKm              float64
	periodMin              float64

	// Coefficients shared by both branches.
	cosio, sinio            float64
	x3thm1, x1mth2, x7thm1  float64
	eta                     float64
	c1, c4                  float64
	a3ovk2, xlcof, aycof    float64
	xmdot, omgdot, xnodot   float64
	xnodcf, t2cof           float64

	// Near-Earth-only coefficients.
	c5, omgcof, xmcof       float64
	delmo, sinmo            float64
	d2, d3, d4              float64
	t3cof, t4cof, t5cof     float64

	useDeepSpace   bool
	useSimpleModel bool

	deep *deepSpace
}

// NewPropagator creates a propagator using the given gravitational constant
// set. Fails with ErrUnknownGravityModel for unrecognized models.
func NewPropagator(model GravityModel) (*Propagator, error) {
	consts, err := constantsFor(model)
	if err != nil {
		return nil, err
	}
	return &Propagator{consts: consts}, nil
}

// SetElements binds a TLE to the propagator and performs all initialization.
// On failure the previous binding, if any, is left untouched.
func (p *Propagator) SetElements(el tle.Elements) error {
	next := Propagator{consts: p.consts}
	if err := next.initialize(el); err != nil {
		return err
	}
	*p = next
	return nil
}

// Epoch returns the epoch of the bound elements.
func (p *Propagator) Epoch() tle.Epoch {
	return p.epoch
}

// DeepSpace reports whether the bound orbit uses the SDP4 deep-space model.
func (p *Propagator) DeepSpace() bool {
	return p.useDeepSpace
}

// PerigeeKm returns the perigee altitude of the bound orbit in km.
func (p *Propagator) PerigeeKm() float64 {
	return p.perigeeKm
}

// PeriodMinutes returns the orbital period of the bound orbit in minutes.
func (p *Propagator) PeriodMinutes() float64 {
	return p.periodMin
}

func (p *Propagator) initialize(el tle.Elements) error {
	if el.Eccentricity < 0.0 || el.Eccentricity > 1.0-1.0e-3 {
		return &InvalidTleError{Field: "eccentricity", Value: el.Eccentricity}
	}
	if el.Inclination < 0.0 || el.Inclination > math.Pi {
		return &InvalidTleError{Field: "inclination", Value: el.Inclination}
	}
	if el.MeanMotion <= 0.0 {
		return &InvalidTleError{Field: "mean_motion", Value: el.MeanMotion}
	}

	p.meanAnomaly = el.MeanAnomaly
	p.ascendingNode = el.AscendingNode
	p.argPerigee = el.ArgPerigee
	p.eccentricity = el.Eccentricity
	p.inclination = el.Inclination
	p.meanMotion = el.MeanMotion
	p.bstar = el.BStar
	p.epoch = el.Epoch

	// Recover the Brouwer mean motion (xnodp) and semi-major axis (aodp)
	// from the Kozai elements in the TLE.
	a1 := math.Pow(p.consts.XKE/p.meanMotion, twoThirds)
	p.cosio = math.Cos(p.inclination)
	p.sinio = math.Sin(p.inclination)
	theta2 := p.cosio * p.cosio
	p.x3thm1 = 3.0*theta2 - 1.0
	eosq := p.eccentricity * p.eccentricity
	betao2 := 1.0 - eosq
	betao := math.Sqrt(betao2)
	temp := (1.5 * p.consts.CK2) * p.x3thm1 / (betao * betao2)
	del1 := temp / (a1 * a1)
	a0 := a1 * (1.0 - del1*(1.0/3.0+del1*(1.0+del1*134.0/81.0)))
	del0 := temp / (a0 * a0)

	p.recoveredMeanMotion = p.meanMotion / (1.0 + del0)
	p.recoveredSemiMajorAxis = a0 / (1.0 - del0)

	p.perigeeKm = (p.recoveredSemiMajorAxis*(1.0-p.eccentricity) - p.consts.AE) * p.consts.XKMPER
	p.periodMin = twoPi / p.recoveredMeanMotion

	if p.periodMin >= deepSpacePeriodMinutes {
		p.useDeepSpace = true
	} else {
		// For perigee below 220 km the equations are truncated to linear
		// variation in sqrt(a) and quadratic variation in mean anomaly;
		// the c3, delta-omega and delta-m terms are dropped.
		p.useSimpleModel = p.perigeeKm < 220.0
	}

	// For perigee below 156 km the values of s4 and qoms2t are altered.
	s4 := p.consts.S
	qoms24 := p.consts.QOMS2T
	if p.perigeeKm < 156.0 {
		s4 = p.perigeeKm - 78.0
		if p.perigeeKm <= 98.0 {
			s4 = 20.0
		}
		qoms24 = math.Pow((120.0-s4)*p.consts.AE/p.consts.XKMPER, 4.0)
		s4 = s4/p.consts.XKMPER + p.consts.AE
	}

	pinvsq := 1.0 / (p.recoveredSemiMajorAxis * p.recoveredSemiMajorAxis * betao2 * betao2)
	tsi := 1.0 / (p.recoveredSemiMajorAxis - s4)
	p.eta = p.recoveredSemiMajorAxis * p.eccentricity * tsi
	etasq := p.eta * p.eta
	eeta := p.eccentricity * p.eta
	psisq := math.Abs(1.0 - etasq)
	coef := qoms24 * math.Pow(tsi, 4.0)
	coef1 := coef / math.Pow(psisq, 3.5)

	c2 := coef1 * p.recoveredMeanMotion * (p.recoveredSemiMajorAxis*
		(1.0+1.5*etasq+eeta*(4.0+etasq)) +
		0.75*p.consts.CK2*tsi/psisq*
			p.x3thm1*(8.0+3.0*etasq*(8.0+etasq)))
	p.c1 = p.bstar * c2
	p.a3ovk2 = -p.consts.XJ3 / p.consts.CK2 * math.Pow(p.consts.AE, 3.0)
	p.x1mth2 = 1.0 - theta2
	p.c4 = 2.0 * p.recoveredMeanMotion * coef1 * p.recoveredSemiMajorAxis * betao2 *
		(p.eta*(2.0+0.5*etasq) + p.eccentricity*(0.5+2.0*etasq) -
			2.0*p.consts.CK2*tsi/(p.recoveredSemiMajorAxis*psisq)*
				(-3.0*p.x3thm1*(1.0-2.0*eeta+etasq*(1.5-0.5*eeta))+
					0.75*p.x1mth2*(2.0*etasq-eeta*(1.0+etasq))*math.Cos(2.0*p.argPerigee)))

	theta4 := theta2 * theta2
	temp1 := 3.0 * p.consts.CK2 * pinvsq * p.recoveredMeanMotion
	temp2 := temp1 * p.consts.CK2 * pinvsq
	temp3 := 1.25 * p.consts.CK4 * pinvsq * pinvsq * p.recoveredMeanMotion
	p.xmdot = p.recoveredMeanMotion + 0.5*temp1*betao*p.x3thm1 +
		0.0625*temp2*betao*(13.0-78.0*theta2+137.0*theta4)
	x1m5th := 1.0 - 5.0*theta2
	p.omgdot = -0.5*temp1*x1m5th +
		0.0625*temp2*(7.0-114.0*theta2+395.0*theta4) +
		temp3*(3.0-36.0*theta2+49.0*theta4)
	xhdot1 := -temp1 * p.cosio
	p.xnodot = xhdot1 + (0.5*temp2*(4.0-19.0*theta2)+2.0*temp3*
		(3.0-7.0*theta2))*p.cosio
	p.xnodcf = 3.5 * betao2 * xhdot1 * p.c1
	p.t2cof = 1.5 * p.c1

	// xlcof has a removable 1/(1+cos i) singularity at i = 180°.
	if math.Abs(p.cosio+1.0) > 1.5e-12 {
		p.xlcof = 0.125 * p.a3ovk2 * p.sinio * (3.0 + 5.0*p.cosio) / (1.0 + p.cosio)
	} else {
		p.xlcof = 0.125 * p.a3ovk2 * p.sinio * (3.0 + 5.0*p.cosio) / 1.5e-12
	}
	p.aycof = 0.25 * p.a3ovk2 * p.sinio
	p.x7thm1 = 7.0*theta2 - 1.0

	if p.useDeepSpace {
		p.initDeepSpace(eosq, betao, theta2, betao2)
	} else {
		c3 := 0.0
		if p.eccentricity > 1.0e-4 {
			c3 = coef * tsi * p.a3ovk2 * p.recoveredMeanMotion * p.consts.AE *
				p.sinio / p.eccentricity
		}

		p.c5 = 2.0 * coef1 * p.recoveredSemiMajorAxis * betao2 *
			(1.0 + 2.75*(etasq+eeta) + eeta*etasq)
		p.omgcof = p.bstar * c3 * math.Cos(p.argPerigee)

		p.xmcof = 0.0
		if p.eccentricity > 1.0e-4 {
			p.xmcof = -twoThirds * coef * p.bstar * p.consts.AE / eeta
		}

		p.delmo = math.Pow(1.0+p.eta*math.Cos(p.meanAnomaly), 3.0)
		p.sinmo = math.Sin(p.meanAnomaly)

		if !p.useSimpleModel {
			c1sq := p.c1 * p.c1
			p.d2 = 4.0 * p.recoveredSemiMajorAxis * tsi * c1sq
			dtemp := p.d2 * tsi * p.c1 / 3.0
			p.d3 = (17.0*p.recoveredSemiMajorAxis + s4) * dtemp
			p.d4 = 0.5 * dtemp * p.recoveredSemiMajorAxis * tsi *
				(221.0*p.recoveredSemiMajorAxis + 31.0*s4) * p.c1
			p.t3cof = p.d2 + 2.0*c1sq
			p.t4cof = 0.25 * (3.0*p.d3 + p.c1*(12.0*p.d2+10.0*c1sq))
			p.t5cof = 0.2 * (3.0*p.d4 + 12.0*p.c1*p.d3 + 6.0*p.d2*p.d2 +
				15.0*c1sq*(2.0*p.d2+c1sq))
		}
	}

	p.bound = true
	return nil
}

// FindPosition propagates to tsince minutes since the TLE epoch and returns
// the TEME position (km) and velocity (km/s).
func (p *Propagator) FindPosition(tsince float64) (transform.PositionTEME, error) {
	if !p.bound {
		return transform.PositionTEME{}, ErrNoElements
	}

	// Secular gravity and atmospheric drag.
	xmdf := p.meanAnomaly + p.xmdot*tsince
	omgadf := p.argPerigee + p.omgdot*tsince
	xnoddf := p.ascendingNode + p.xnodot*tsince

	tsq := tsince * tsince
	xnode := xnoddf + p.xnodcf*tsq
	tempa := 1.0 - p.c1*tsince
	tempe := p.bstar * p.c4 * tsince
	templ := p.t2cof * tsq

	if p.useDeepSpace {
		return p.findPositionSDP4(tsince, xmdf, omgadf, xnode, tempa, tempe, templ)
	}

	xincl := p.inclination
	omega := omgadf
	xmp := xmdf

	if !p.useSimpleModel {
		delomg := p.omgcof * tsince
		delm := p.xmcof * (math.Pow(1.0+p.eta*math.Cos(xmdf), 3.0) - p.delmo)
		temp := delomg + delm

		xmp += temp
		omega -= temp

		tcube := tsq * tsince
		tfour := tsince * tcube

		tempa -= p.d2*tsq + p.d3*tcube + p.d4*tfour
		tempe += p.bstar * p.c5 * (math.Sin(xmp) - p.sinmo)
		templ += p.t3cof*tcube + tfour*(p.t4cof+tsince*p.t5cof)
	}

	a := p.recoveredSemiMajorAxis * tempa * tempa
	e := p.eccentricity - tempe
	xl := xmp + omega + xnode + p.recoveredMeanMotion*templ

	return p.finalPosition(tsince, e, a, omega, xl, xnode, xincl,
		p.xlcof, p.aycof, p.x3thm1, p.x1mth2, p.x7thm1, p.cosio, p.sinio)
}

// FindPositionAtTime propagates to an absolute time using the bound epoch.
func (p *Propagator) FindPositionAtTime(t time.Time) (transform.PositionTEME, error) {
	if !p.bound {
		return transform.PositionTEME{}, ErrNoElements
	}
	tsince := t.Sub(p.epoch.Time).Minutes()
	return p.FindPosition(tsince)
}
