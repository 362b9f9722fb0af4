// Package greatarc samples great-circle arcs between two points of a frame.
//
// A GreatArc converts its endpoints to Cartesian positions relative to the
// centre of the frame's sphere, then interpolates direction by rotation in the
// plane of the arc (slerp) and radial distance linearly. Samples are mapped
// back into the endpoints' frame.
//
// All geometry is computed by New. A constructed GreatArc is immutable and
// safe for concurrent use; every accessor is a pure function of it.
package greatarc

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/golang/geo/r3"
	"github.com/soniakeys/unit"

	"github.com/litescript/ls-greatarc/internal/astro"
)

const (
	// DefaultPoints is the number of samples when no sampling option is given.
	DefaultPoints = 100

	// DefaultTolerance is the angular tolerance for detecting coincident and
	// antipodal endpoints.
	DefaultTolerance unit.Angle = 1e-9
)

// Errors for arc construction.
var (
	ErrFrameMismatch      = errors.New("points are in different frames")
	ErrAntipodal          = errors.New("endpoints are antipodal, great circle is ambiguous")
	ErrInvalidSampleCount = errors.New("invalid sample specification")
	ErrDegenerateInput    = errors.New("degenerate arc")
	ErrInvalidPoint       = errors.New("point is not finite")
)

// Sample is one sampled position along the arc.
type Sample struct {
	T          float64     // arc parameter in [0,1]
	Point      astro.Point // position in the arc's frame
	Cartesian  r3.Vector   // position in the frame's Cartesian space, km
	InnerAngle unit.Angle  // angle swept from the start
	Distance   astro.Length
}

// GreatArc is the sampled great-circle arc between two points.
type GreatArc struct {
	start astro.Point
	end   astro.Point
	frame astro.Frame
	cfg   settings

	center r3.Vector
	p0     r3.Vector // start position
	u0     r3.Vector // start direction
	u1     r3.Vector // end direction
	v3     r3.Vector // unit vector orthogonal to u0 in the arc plane, along the direction of travel
	axis   r3.Vector
	r0, r1 float64

	angle      unit.Angle
	degenerate bool
	ts         []float64
}

// New creates the arc from start to end. Both points and the optional centre
// must share a frame.
func New(start, end astro.Point, opts ...Option) (*GreatArc, error) {
	cfg := defaultSettings()
	for _, o := range opts {
		o(&cfg)
	}
	return build(start, end, cfg)
}

func build(start, end astro.Point, cfg settings) (*GreatArc, error) {
	if !astro.SameFrame(start.Frame, end.Frame) {
		return nil, fmt.Errorf("%w: start %s, end %s", ErrFrameMismatch, frameName(start.Frame), frameName(end.Frame))
	}
	frame := start.Frame
	if cfg.center != nil && !astro.SameFrame(frame, cfg.center.Frame) {
		return nil, fmt.Errorf("%w: arc %s, centre %s", ErrFrameMismatch, frame.Name(), frameName(cfg.center.Frame))
	}

	ts, err := cfg.parameters()
	if err != nil {
		return nil, err
	}

	a := &GreatArc{
		start: start,
		end:   end,
		frame: frame,
		cfg:   cfg,
		ts:    ts,
	}

	p0, err := frame.ToCartesian(start)
	if err != nil {
		return nil, fmt.Errorf("start point: %w", err)
	}
	p1, err := frame.ToCartesian(end)
	if err != nil {
		return nil, fmt.Errorf("end point: %w", err)
	}
	if cfg.center != nil {
		if a.center, err = frame.ToCartesian(*cfg.center); err != nil {
			return nil, fmt.Errorf("centre point: %w", err)
		}
	}
	for _, c := range []struct {
		name string
		v    r3.Vector
	}{{"start", p0}, {"end", p1}, {"centre", a.center}} {
		if !finite(c.v) {
			return nil, fmt.Errorf("%w: %s at %v", ErrInvalidPoint, c.name, c.v)
		}
	}
	a.p0 = p0

	v0 := p0.Sub(a.center)
	v1 := p1.Sub(a.center)
	a.r0, a.r1 = v0.Norm(), v1.Norm()
	if a.r0 == 0 || a.r1 == 0 {
		return nil, fmt.Errorf("%w: endpoint at the sphere centre has no direction", ErrDegenerateInput)
	}
	a.u0 = v0.Normalize()
	a.u1 = v1.Normalize()

	// atan2(|u0×u1|, u0·u1) stays accurate near 0 and π where acos does not,
	// and is never the reflex angle.
	theta := a.u0.Angle(a.u1).Radians()
	tol := cfg.tolerance.Rad()

	if theta <= tol {
		if cfg.strict {
			return nil, fmt.Errorf("%w: start and end coincide (separation %g rad)", ErrDegenerateInput, theta)
		}
		a.degenerate = true
		return a, nil
	}
	if math.Pi-theta <= tol {
		return nil, fmt.Errorf("%w: separation %.9f°", ErrAntipodal, theta*180/math.Pi)
	}

	a.axis = a.u0.Cross(a.u1).Normalize()
	a.v3 = a.axis.Cross(a.u0).Normalize()
	a.angle = unit.Angle(theta)

	if cfg.major {
		a.axis = a.axis.Mul(-1)
		a.v3 = a.v3.Mul(-1)
		a.angle = unit.Angle(2*math.Pi) - a.angle
	}

	return a, nil
}

func finite(v r3.Vector) bool {
	for _, x := range [...]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Resample returns an arc over the same endpoints with the sampling options
// replaced. Options other than sampling are carried over unless overridden.
func (a *GreatArc) Resample(opts ...Option) (*GreatArc, error) {
	cfg := a.cfg.clone()
	cfg.fractions = nil
	cfg.points = DefaultPoints
	for _, o := range opts {
		o(&cfg)
	}
	return build(a.start, a.end, cfg)
}

// Reverse returns the arc from end to start with the same options.
func (a *GreatArc) Reverse() (*GreatArc, error) {
	return build(a.end, a.start, a.cfg.clone())
}

// Start returns the start point as given.
func (a *GreatArc) Start() astro.Point { return a.start }

// End returns the end point as given.
func (a *GreatArc) End() astro.Point { return a.end }

// Frame returns the frame shared by both endpoints.
func (a *GreatArc) Frame() astro.Frame { return a.frame }

// Center returns the centre of the sphere in the arc's frame.
func (a *GreatArc) Center() astro.Point { return a.frame.FromCartesian(a.center) }

// InnerAngle returns the total angle swept from start to end.
// It is in [0, π] unless the major arc was requested.
func (a *GreatArc) InnerAngle() unit.Angle { return a.angle }

// Radius returns the distance of the start point from the sphere centre.
func (a *GreatArc) Radius() astro.Length { return astro.Length(a.r0) }

// EndRadius returns the distance of the end point from the sphere centre.
func (a *GreatArc) EndRadius() astro.Length { return astro.Length(a.r1) }

// Distance returns the path length of the whole arc.
func (a *GreatArc) Distance() astro.Length { return a.pathLength(1) }

// Len returns the number of samples.
func (a *GreatArc) Len() int { return len(a.ts) }

// Degenerate reports whether start and end coincide.
func (a *GreatArc) Degenerate() bool { return a.degenerate }

// Major reports whether the arc follows the major (reflex) arc.
func (a *GreatArc) Major() bool { return a.cfg.major }

// Coordinates yields the sampled points from start to end, in the arc's frame.
func (a *GreatArc) Coordinates() iter.Seq[astro.Point] {
	return func(yield func(astro.Point) bool) {
		for _, t := range a.ts {
			if !yield(a.pointAt(t)) {
				return
			}
		}
	}
}

// InnerAngles yields the angle swept from the start to each sample.
func (a *GreatArc) InnerAngles() iter.Seq[unit.Angle] {
	return func(yield func(unit.Angle) bool) {
		for _, t := range a.ts {
			if !yield(a.angle.Mul(t)) {
				return
			}
		}
	}
}

// Distances yields the path length from the start to each sample.
func (a *GreatArc) Distances() iter.Seq[astro.Length] {
	return func(yield func(astro.Length) bool) {
		for _, t := range a.ts {
			if !yield(a.pathLength(t)) {
				return
			}
		}
	}
}

// CartesianCoordinates yields the sampled positions in the frame's Cartesian space.
func (a *GreatArc) CartesianCoordinates() iter.Seq[r3.Vector] {
	return func(yield func(r3.Vector) bool) {
		for _, t := range a.ts {
			if !yield(a.position(t)) {
				return
			}
		}
	}
}

// Samples yields every sample with all of its derived values.
func (a *GreatArc) Samples() iter.Seq2[int, Sample] {
	return func(yield func(int, Sample) bool) {
		for i, t := range a.ts {
			s := Sample{
				T:          t,
				Point:      a.pointAt(t),
				Cartesian:  a.position(t),
				InnerAngle: a.angle.Mul(t),
				Distance:   a.pathLength(t),
			}
			if !yield(i, s) {
				return
			}
		}
	}
}

func (a *GreatArc) pointAt(t float64) astro.Point {
	if a.degenerate {
		return a.start
	}
	return a.frame.FromCartesian(a.position(t))
}

// position rotates u0 by t·angle in the arc plane and scales by the
// linearly interpolated radius.
func (a *GreatArc) position(t float64) r3.Vector {
	if a.degenerate {
		return a.p0
	}

	var u r3.Vector
	switch t {
	case 0:
		u = a.u0
	case 1:
		u = a.u1
	default:
		sin, cos := math.Sincos(t * a.angle.Rad())
		u = a.u0.Mul(cos).Add(a.v3.Mul(sin))
	}

	r := a.r0 + t*(a.r1-a.r0)
	return a.center.Add(u.Mul(r))
}

// pathLength is the length of the curve r(φ) = r0 + k·φ from φ = 0 to t·angle.
func (a *GreatArc) pathLength(t float64) astro.Length {
	if a.degenerate || t == 0 {
		return 0
	}
	phi := t * a.angle.Rad()
	r := a.r0 + t*(a.r1-a.r0)
	k := (a.r1 - a.r0) / a.angle.Rad()

	if math.Abs(k) <= 1e-12*math.Max(a.r0, a.r1) {
		return astro.Length(0.5 * (a.r0 + r) * phi)
	}

	// ∫ sqrt(ρ² + k²) dφ with dρ = k dφ
	g := func(rho float64) float64 {
		h := math.Hypot(rho, k)
		return 0.5*rho*h + 0.5*k*k*math.Log(rho+h)
	}
	return astro.Length((g(r) - g(a.r0)) / k)
}

func frameName(f astro.Frame) string {
	if f == nil {
		return "<nil>"
	}
	return f.Name()
}
