package astro

import (
	"fmt"

	"github.com/soniakeys/unit"
)

// Point is a position expressed in a frame: two angular components plus an
// optional radial distance. A zero Distance means "let the frame decide".
type Point struct {
	Lon      unit.Angle
	Lat      unit.Angle
	Distance Length
	Frame    Frame
}

// NewPoint creates a point with unspecified distance.
func NewPoint(lon, lat unit.Angle, frame Frame) Point {
	return Point{Lon: lon, Lat: lat, Frame: frame}
}

// PointIn creates a point from raw values in the given angle unit.
func PointIn(u AngleUnit, lon, lat float64, frame Frame) Point {
	return NewPoint(u.Angle(lon), u.Angle(lat), frame)
}

// WithDistance returns a copy of p with an explicit radial distance.
func (p Point) WithDistance(d Length) Point {
	p.Distance = d
	return p
}

// Separation returns the angular separation between p and q, ignoring
// distance and frame.
func (p Point) Separation(q Point) unit.Angle {
	return AngularSeparation(p.Lon, p.Lat, q.Lon, q.Lat)
}

// String formats the point in degrees.
func (p Point) String() string {
	name := "<nil>"
	if p.Frame != nil {
		name = p.Frame.Name()
	}
	if p.Distance == 0 {
		return fmt.Sprintf("%s(%.6f°, %.6f°)", name, p.Lon.Deg(), p.Lat.Deg())
	}
	return fmt.Sprintf("%s(%.6f°, %.6f°, %.3f km)", name, p.Lon.Deg(), p.Lat.Deg(), p.Distance.Km())
}
