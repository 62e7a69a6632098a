package propagation

import (
	"math"

	"github.com/star/orbitd/internal/transform"
)

// keplerState is the converged solution of Kepler's equation in the
// (axn, ayn, capu) formulation.
type keplerState struct {
	epw    float64
	sinepw float64
	cosepw float64
	ecose  float64
	esine  float64
}

// solveKepler iterates capu = epw - esine by modified Newton-Raphson: the
// first correction is clamped to ±1.25·|e| against a bad seed, later
// corrections use a second-order term built from the previous step. At most
// 10 iterations; terminates when |capu - epw + esine| < 1e-12.
func solveKepler(axn, ayn, capu float64) keplerState {
	epw := capu

	var sinepw, cosepw, ecose, esine float64

	maxNewtonRaphson := 1.25 * math.Sqrt(axn*axn+ayn*ayn)

	var deltaEpw float64
	for i := 0; i < 10; i++ {
		sinepw = math.Sin(epw)
		cosepw = math.Cos(epw)
		ecose = axn*cosepw + ayn*sinepw
		esine = axn*sinepw - ayn*cosepw

		f := capu - epw + esine
		if math.Abs(f) < 1.0e-12 {
			break
		}

		fdot := 1.0 - ecose
		if i == 0 {
			deltaEpw = f / fdot
			if deltaEpw > maxNewtonRaphson {
				deltaEpw = maxNewtonRaphson
			} else if deltaEpw < -maxNewtonRaphson {
				deltaEpw = -maxNewtonRaphson
			}
		} else {
			deltaEpw = f / (fdot + 0.5*esine*deltaEpw)
		}

		epw += deltaEpw
	}

	return keplerState{
		epw:    epw,
		sinepw: sinepw,
		cosepw: cosepw,
		ecose:  ecose,
		esine:  esine,
	}
}

// finalPosition applies long-period periodics, solves Kepler's equation in
// the (axn, ayn, capu) formulation, applies the short-period corrections and
// builds the TEME state vector. The inclination-dependent coefficients are
// passed in because the deep-space branch recomputes them from the perturbed
// inclination.
func (p *Propagator) finalPosition(tsince, e, a, omega, xl, xnode, xincl,
	xlcof, aycof, x3thm1, x1mth2, x7thm1, cosio, sinio float64) (transform.PositionTEME, error) {

	if a < 1.0 {
		return transform.PositionTEME{}, &DecayedError{Tsince: tsince, Reason: "semi-major axis below Earth surface (a < 1)"}
	}
	if e < -1.0e-3 {
		return transform.PositionTEME{}, &DecayedError{Tsince: tsince, Reason: "modified eccentricity below limit (e < -1e-3)"}
	}
	if e >= 1.0 {
		return transform.PositionTEME{}, ErrHyperbolic
	}

	beta := math.Sqrt(1.0 - e*e)
	xn := p.consts.XKE / math.Pow(a, 1.5)

	// Long period periodics.
	axn := e * math.Cos(omega)
	temp := 1.0 / (a * beta * beta)
	xll := temp * xlcof * axn
	aynl := temp * aycof
	xlt := xl + xll
	ayn := e*math.Sin(omega) + aynl
	elsq := axn*axn + ayn*ayn

	if elsq >= 1.0 {
		return transform.PositionTEME{}, ErrHyperbolic
	}

	// Solve Kepler's equation for the eccentric longitude. capu is nearly
	// the mean anomaly; the mod keeps the sin/cos arguments reduced and
	// avoids convergence problems.
	capu := math.Mod(xlt-xnode, twoPi)
	ks := solveKepler(axn, ayn, capu)
	sinepw, cosepw := ks.sinepw, ks.cosepw
	ecose, esine := ks.ecose, ks.esine

	// Short period preliminary quantities.
	temp = 1.0 - elsq
	pl := a * temp
	r := a * (1.0 - ecose)
	temp1 := 1.0 / r
	rdot := p.consts.XKE * math.Sqrt(a) * esine * temp1
	rfdot := p.consts.XKE * math.Sqrt(pl) * temp1
	temp2 := a * temp1
	betal := math.Sqrt(temp)
	temp3 := 1.0 / (1.0 + betal)
	cosu := temp2 * (cosepw - axn + ayn*esine*temp3)
	sinu := temp2 * (sinepw - ayn - axn*esine*temp3)
	u := math.Atan2(sinu, cosu)
	sin2u := 2.0 * sinu * cosu
	cos2u := 2.0*cosu*cosu - 1.0
	temp = 1.0 / pl
	temp1 = p.consts.CK2 * temp
	temp2 = temp1 * temp

	// Update for short periodics.
	rk := r*(1.0-1.5*temp2*betal*x3thm1) + 0.5*temp1*x1mth2*cos2u
	uk := u - 0.25*temp2*x7thm1*sin2u
	xnodek := xnode + 1.5*temp2*cosio*sin2u
	xinck := xincl + 1.5*temp2*cosio*sinio*cos2u
	rdotk := rdot - xn*temp1*x1mth2*sin2u
	rfdotk := rfdot + xn*temp1*(x1mth2*cos2u+1.5*x3thm1)

	if rk < 0.0 {
		return transform.PositionTEME{}, &DecayedError{Tsince: tsince, Reason: "perturbed radius negative (rk < 0)"}
	}

	// Orientation vectors.
	sinuk := math.Sin(uk)
	cosuk := math.Cos(uk)
	sinik := math.Sin(xinck)
	cosik := math.Cos(xinck)
	sinnok := math.Sin(xnodek)
	cosnok := math.Cos(xnodek)
	xmx := -sinnok * cosik
	xmy := cosnok * cosik
	ux := xmx*sinuk + cosnok*cosuk
	uy := xmy*sinuk + sinnok*cosuk
	uz := sinik * sinuk
	vx := xmx*cosuk - cosnok*sinuk
	vy := xmy*cosuk - sinnok*sinuk
	vz := sinik * cosuk

	// Position in km and velocity in km/s.
	vFactor := p.consts.XKMPER / 60.0
	return transform.PositionTEME{
		X:  rk * ux * p.consts.XKMPER,
		Y:  rk * uy * p.consts.XKMPER,
		Z:  rk * uz * p.consts.XKMPER,
		VX: (rdotk*ux + rfdotk*vx) * vFactor,
		VY: (rdotk*uy + rfdotk*vy) * vFactor,
		VZ: (rdotk*uz + rfdotk*vz) * vFactor,
	}, nil
}
