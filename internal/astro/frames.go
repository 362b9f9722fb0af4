package astro

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/soniakeys/unit"
)

// Errors for frame conversions.
var (
	ErrOffDisk          = errors.New("line of sight does not intersect the solar surface")
	ErrNegativeDistance = errors.New("negative radial distance")
	ErrInvalidFrame     = errors.New("invalid frame parameters")
)

// Frame is a coordinate reference system that maps an angular pair (plus an
// optional radial distance) to a Cartesian position and back.
//
// Cartesian positions are in kilometres relative to the centre of the frame's
// reference sphere.
type Frame interface {
	// Name returns the frame name for display/logging.
	Name() string

	// Equal reports whether other is the same frame with the same parameters.
	Equal(other Frame) bool

	// ToCartesian maps a point in this frame to a Cartesian position.
	// A zero Distance is resolved by the frame.
	ToCartesian(p Point) (r3.Vector, error)

	// FromCartesian maps a Cartesian position back into this frame.
	// The returned point always carries its resolved Distance.
	FromCartesian(v r3.Vector) Point
}

// SameFrame reports whether a and b are the same frame. Nil frames never match.
func SameFrame(a, b Frame) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Equal(b)
}

// Spherical is a lon/lat frame on a sphere of fixed reference radius centred
// on the origin. Heliographic Stonyhurst and the plain unit sphere are both
// Spherical frames.
type Spherical struct {
	Label  string
	Radius Length
}

// NewSpherical creates a spherical frame with the given label and reference radius.
func NewSpherical(label string, radius Length) Spherical {
	return Spherical{Label: label, Radius: radius}
}

// UnitSphere returns a spherical frame with unit reference radius.
func UnitSphere() Spherical {
	return Spherical{Label: "unit_sphere", Radius: 1}
}

// HeliographicStonyhurst returns a heliographic frame on the solar surface.
func HeliographicStonyhurst() Spherical {
	return Spherical{Label: "heliographic_stonyhurst", Radius: SolarRadius}
}

// Name returns the frame label.
func (s Spherical) Name() string { return s.Label }

// Equal reports whether other is a Spherical frame with the same label and radius.
func (s Spherical) Equal(other Frame) bool {
	o, ok := other.(Spherical)
	return ok && o == s
}

// ToCartesian maps lon/lat/distance to a Cartesian position.
func (s Spherical) ToCartesian(p Point) (r3.Vector, error) {
	if s.Radius <= 0 {
		return r3.Vector{}, fmt.Errorf("%w: %s radius %v", ErrInvalidFrame, s.Label, s.Radius)
	}
	d := p.Distance
	if d < 0 {
		return r3.Vector{}, fmt.Errorf("%w: %v", ErrNegativeDistance, d)
	}
	if d == 0 {
		d = s.Radius
	}
	ll := s2.LatLng{Lat: s1.Angle(p.Lat.Rad()), Lng: s1.Angle(p.Lon.Rad())}
	return s2.PointFromLatLng(ll).Vector.Mul(d.Km()), nil
}

// FromCartesian maps a Cartesian position to lon/lat/distance.
// Longitude is returned in (-π, π].
func (s Spherical) FromCartesian(v r3.Vector) Point {
	ll := s2.LatLngFromPoint(s2.Point{Vector: v})
	return Point{
		Lon:      unit.Angle(ll.Lng.Radians()),
		Lat:      unit.Angle(ll.Lat.Radians()),
		Distance: Length(v.Norm()),
		Frame:    s,
	}
}

// Helioprojective is the observer-centred frame of angular offsets on the
// sky: Lon is Tx (positive west), Lat is Ty (positive north).
//
// Its Cartesian space is heliocentric: the Sun is at the origin and the
// observer sits on +Z at distance Observer.
type Helioprojective struct {
	Observer Length
	RSun     Length
}

// NewHelioprojective creates a helioprojective frame for an observer at the
// given distance from Sun centre.
func NewHelioprojective(observer Length) Helioprojective {
	return Helioprojective{Observer: observer, RSun: SolarRadius}
}

// EarthObserver returns the helioprojective frame of an Earth-based observer at t.
func EarthObserver(t time.Time) Helioprojective {
	return NewHelioprojective(SunDistance(t))
}

// Name returns "helioprojective".
func (h Helioprojective) Name() string { return "helioprojective" }

// Equal reports whether other is a Helioprojective frame with the same observer and solar radius.
func (h Helioprojective) Equal(other Frame) bool {
	o, ok := other.(Helioprojective)
	return ok && o == h
}

// ToCartesian maps disk offsets to heliocentric Cartesian coordinates.
// A point without Distance is placed on the near solar surface along the line
// of sight; ErrOffDisk is returned when the line of sight misses the Sun.
func (h Helioprojective) ToCartesian(p Point) (r3.Vector, error) {
	if h.Observer <= 0 || h.RSun <= 0 {
		return r3.Vector{}, fmt.Errorf("%w: observer %v, rsun %v", ErrInvalidFrame, h.Observer, h.RSun)
	}
	if p.Distance < 0 {
		return r3.Vector{}, fmt.Errorf("%w: %v", ErrNegativeDistance, p.Distance)
	}

	sinTx, cosTx := p.Lon.Sincos()
	sinTy, cosTy := p.Lat.Sincos()
	d0 := h.Observer.Km()

	d := p.Distance.Km()
	if d == 0 {
		// |P|² = R² along the ray: d² - 2·d·d0·cosTy·cosTx + d0² - R² = 0.
		// b² - d0² is rewritten with sines to avoid cancellation near disk centre.
		b := d0 * cosTy * cosTx
		r := h.RSun.Km()
		off := sinTy*sinTy + cosTy*cosTy*sinTx*sinTx
		disc := r*r - d0*d0*off
		if disc < 0 {
			return r3.Vector{}, fmt.Errorf("%w: Tx=%.2f\" Ty=%.2f\"", ErrOffDisk, p.Lon.Sec(), p.Lat.Sec())
		}
		d = b - math.Sqrt(disc)
	}

	return r3.Vector{
		X: d * cosTy * sinTx,
		Y: d * sinTy,
		Z: d0 - d*cosTy*cosTx,
	}, nil
}

// FromCartesian maps heliocentric Cartesian coordinates to disk offsets.
func (h Helioprojective) FromCartesian(v r3.Vector) Point {
	dx := v.X
	dy := v.Y
	dz := h.Observer.Km() - v.Z
	d := math.Sqrt(dx*dx + dy*dy + dz*dz)

	var ty float64
	if d > 0 {
		ty = math.Asin(clamp(dy/d, -1, 1))
	}

	return Point{
		Lon:      unit.Angle(math.Atan2(dx, dz)),
		Lat:      unit.Angle(ty),
		Distance: Length(d),
		Frame:    h,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
