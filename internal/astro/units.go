// Package astro provides coordinate frames, points, and unit handling for arc geometry.
package astro

import (
	"errors"
	"fmt"
	"strings"

	"github.com/soniakeys/unit"
)

// Length is a distance in kilometres.
type Length float64

const (
	Kilometre        Length = 1
	SolarRadius      Length = 695700
	AstronomicalUnit Length = 149597870.7
)

// LengthFromAU converts Astronomical Units to a Length.
func LengthFromAU(au float64) Length {
	return Length(au) * AstronomicalUnit
}

// LengthFromSolarRadii converts solar radii to a Length.
func LengthFromSolarRadii(r float64) Length {
	return Length(r) * SolarRadius
}

// Km returns the length in kilometres.
func (l Length) Km() float64 { return float64(l) }

// AU returns the length in Astronomical Units.
func (l Length) AU() float64 { return float64(l / AstronomicalUnit) }

// SolarRadii returns the length in solar radii.
func (l Length) SolarRadii() float64 { return float64(l / SolarRadius) }

// AngleUnit names the unit an angular value is expressed in at the I/O boundary.
type AngleUnit string

const (
	UnitArcsec AngleUnit = "arcsec"
	UnitArcmin AngleUnit = "arcmin"
	UnitDegree AngleUnit = "deg"
	UnitRadian AngleUnit = "rad"
)

// ErrUnknownUnit is returned when an angle unit name is not recognised.
var ErrUnknownUnit = errors.New("unknown angle unit")

// ParseAngleUnit parses a unit name. Common aliases are accepted.
func ParseAngleUnit(s string) (AngleUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arcsec", "asec", "\"", "sec":
		return UnitArcsec, nil
	case "arcmin", "amin", "'", "min":
		return UnitArcmin, nil
	case "deg", "degree", "degrees", "°":
		return UnitDegree, nil
	case "rad", "radian", "radians":
		return UnitRadian, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
}

// Angle converts a value in this unit to an angle.
func (u AngleUnit) Angle(v float64) unit.Angle {
	switch u {
	case UnitArcsec:
		return unit.AngleFromSec(v)
	case UnitArcmin:
		return unit.AngleFromMin(v)
	case UnitDegree:
		return unit.AngleFromDeg(v)
	default:
		return unit.Angle(v)
	}
}

// Value expresses an angle in this unit.
func (u AngleUnit) Value(a unit.Angle) float64 {
	switch u {
	case UnitArcsec:
		return a.Sec()
	case UnitArcmin:
		return a.Min()
	case UnitDegree:
		return a.Deg()
	default:
		return a.Rad()
	}
}

// String returns the unit name.
func (u AngleUnit) String() string { return string(u) }
