package astro

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
)

// SunDistance returns the Earth-Sun distance at t.
// Uses the Meeus low-precision solar theory (~0.0001 AU), which is ample for
// placing an observer for disk-offset conversions.
func SunDistance(t time.Time) Length {
	jd := julian.TimeToJD(t.UTC())
	return LengthFromAU(solar.Radius(base.J2000Century(jd)))
}

// AngularRadius returns the apparent angular radius of the solar limb seen
// from the frame's observer. Observers inside the Sun see it filling half
// the sky.
func (h Helioprojective) AngularRadius() unit.Angle {
	if h.Observer <= h.RSun {
		return unit.Angle(math.Pi / 2)
	}
	return unit.Angle(math.Asin(float64(h.RSun / h.Observer)))
}

// AngularSeparation calculates the angular separation between two points on a sphere.
func AngularSeparation(lon1, lat1, lon2, lat2 unit.Angle) unit.Angle {
	// Haversine formula for angular separation
	dLon := (lon2 - lon1).Rad()
	dLat := (lat2 - lat1).Rad()

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		lat1.Cos()*lat2.Cos()*math.Sin(dLon/2)*math.Sin(dLon/2)

	// Clamp to avoid numerical errors with asin
	a = clamp(a, 0, 1)

	return unit.Angle(2 * math.Asin(math.Sqrt(a)))
}
