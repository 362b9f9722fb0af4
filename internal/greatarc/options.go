package greatarc

import (
	"fmt"
	"math"
	"slices"

	"github.com/soniakeys/unit"

	"github.com/litescript/ls-greatarc/internal/astro"
)

// Option configures a GreatArc.
type Option func(*settings)

type settings struct {
	points    int
	fractions []float64
	center    *astro.Point
	tolerance unit.Angle
	strict    bool
	major     bool
}

func defaultSettings() settings {
	return settings{
		points:    DefaultPoints,
		tolerance: DefaultTolerance,
	}
}

func (s settings) clone() settings {
	s.fractions = slices.Clone(s.fractions)
	return s
}

// WithPoints samples n evenly spaced points, start and end included.
func WithPoints(n int) Option {
	return func(s *settings) {
		s.points = n
		s.fractions = nil
	}
}

// WithFractions samples at explicit arc parameters in [0,1], given in
// non-decreasing order. 0 is the start and 1 the end.
func WithFractions(fs ...float64) Option {
	return func(s *settings) {
		s.fractions = slices.Clone(fs)
		if s.fractions == nil {
			s.fractions = []float64{}
		}
	}
}

// WithCenter sets the centre of the sphere the arc lies on. It defaults to
// the origin of the frame's Cartesian space.
func WithCenter(c astro.Point) Option {
	return func(s *settings) {
		s.center = &c
	}
}

// WithTolerance sets the angular tolerance for coincident/antipodal detection.
func WithTolerance(tol unit.Angle) Option {
	return func(s *settings) {
		s.tolerance = tol
	}
}

// WithStrictDistinct rejects coincident endpoints with ErrDegenerateInput
// instead of producing a constant arc.
func WithStrictDistinct() Option {
	return func(s *settings) {
		s.strict = true
	}
}

// WithMajorArc follows the longer of the two arcs between the endpoints.
func WithMajorArc() Option {
	return func(s *settings) {
		s.major = true
	}
}

// parameters returns the arc parameter of every sample.
func (s settings) parameters() ([]float64, error) {
	if s.fractions != nil {
		if len(s.fractions) < 2 {
			return nil, fmt.Errorf("%w: %d fractions, need at least 2", ErrInvalidSampleCount, len(s.fractions))
		}
		for i, f := range s.fractions {
			if math.IsNaN(f) || f < 0 || f > 1 {
				return nil, fmt.Errorf("%w: fraction %v outside [0,1]", ErrInvalidSampleCount, f)
			}
			if i > 0 && f < s.fractions[i-1] {
				return nil, fmt.Errorf("%w: fractions decrease at index %d", ErrInvalidSampleCount, i)
			}
		}
		return slices.Clone(s.fractions), nil
	}

	if s.points < 2 {
		return nil, fmt.Errorf("%w: %d points, need at least 2", ErrInvalidSampleCount, s.points)
	}
	ts := make([]float64, s.points)
	last := float64(s.points - 1)
	for i := range ts {
		ts[i] = float64(i) / last
	}
	return ts, nil
}
