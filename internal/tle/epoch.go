package tle

import (
	"math"
	"time"
)

const twoPi = 2.0 * math.Pi

// jd1900 is the Julian Date of 1900 January 0.5, the day-number origin used
// by the deep-space lunar/solar geometry.
const jd1900 = 2415020.0

// Epoch is a TLE epoch: an absolute instant carried both as a Julian Date
// (for the sidereal-time and day-number formulas, which need the full
// fractional-day precision) and as a time.Time (for wall-clock arithmetic).
type Epoch struct {
	JD   float64
	Time time.Time
}

// NewEpoch builds an Epoch from a TLE-style year and fractional day of year
// (day 1.0 = January 1, 00:00 UTC).
func NewEpoch(year int, dayOfYear float64) Epoch {
	return Epoch{
		JD:   julianFromYearDay(year, dayOfYear),
		Time: timeFromYearDay(year, dayOfYear),
	}
}

// julianFromYearDay converts (year, fractional day of year) to a Julian Date.
// Valid for the Gregorian era covered by the TLE format.
func julianFromYearDay(year int, dayOfYear float64) float64 {
	y := year - 1
	a := y / 100
	b := 2 - a + a/4

	monthTerm := 30.6001 * 14
	jan0 := float64(int(365.25*float64(y))) + float64(int(monthTerm)) + 1720994.5 + float64(b)
	return jan0 + dayOfYear
}

func timeFromYearDay(year int, dayOfYear float64) time.Time {
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour)))
}

// GMST returns the Greenwich Mean Sidereal Time at the epoch in radians,
// using the AFSPC formulation (FK5-corrected 1970 reference). The deep-space
// resonance phase is referenced to this angle, so the propagator needs this
// exact formulation rather than the IAU-82 one used for output frame
// rotation.
func (e Epoch) GMST() float64 {
	const (
		c1     = 1.72027916940703639e-2
		thgr70 = 1.7321343856509374
		fk5r   = 5.07551419432269442e-15
	)

	// Days from 0 Jan 1970, split into whole days and day fraction.
	ts70 := e.JD - 2433281.5 - 7305.0
	ds70 := math.Floor(ts70 + 1.0e-8)
	tfrac := ts70 - ds70

	c1p2p := c1 + twoPi
	gsto := math.Mod(thgr70+c1*ds70+c1p2p*tfrac+ts70*ts70*fk5r, twoPi)
	if gsto < 0 {
		gsto += twoPi
	}
	return gsto
}

// DaysSince1900 returns fractional days since 1900 January 0.5 (JD 2415020.0),
// the argument of the lunar/solar orientation polynomials.
func (e Epoch) DaysSince1900() float64 {
	return e.JD - jd1900
}
