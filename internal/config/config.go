// Package config loads arc job files.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"

	"github.com/litescript/ls-greatarc/internal/astro"
	"github.com/litescript/ls-greatarc/internal/greatarc"
)

// Frame names accepted in job files and on the command line.
const (
	FrameHelioprojective = "helioprojective"
	FrameStonyhurst      = "heliographic_stonyhurst"
	FrameUnitSphere      = "unit_sphere"
	FrameSpherical       = "spherical"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents a complete job file.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Defaults Defaults       `yaml:"defaults"`
	Observer ObserverConfig `yaml:"observer"`
	Arcs     []ArcSpec      `yaml:"arcs"`
}

// Defaults apply to every arc that does not override them.
type Defaults struct {
	Points          int     `yaml:"points"`
	Unit            string  `yaml:"unit"`
	ToleranceArcsec float64 `yaml:"tolerance_arcsec"`
}

// ObserverConfig places the helioprojective observer. DistanceAU wins over
// Date; with neither set the observer is at 1 AU.
type ObserverConfig struct {
	DistanceAU float64   `yaml:"distance_au"`
	Date       time.Time `yaml:"date"`
}

// Coord is an endpoint in the arc's angle unit. DistanceKm of zero lets the
// frame resolve the distance.
type Coord struct {
	Lon        float64 `yaml:"lon"`
	Lat        float64 `yaml:"lat"`
	DistanceKm float64 `yaml:"distance_km"`
}

// ArcSpec describes one arc to compute.
type ArcSpec struct {
	Name      string    `yaml:"name"`
	Frame     string    `yaml:"frame"`
	RadiusKm  float64   `yaml:"radius_km"`
	Unit      string    `yaml:"unit"`
	Start     Coord     `yaml:"start"`
	End       Coord     `yaml:"end"`
	Center    *Coord    `yaml:"center"`
	Points    int       `yaml:"points"`
	Fractions []float64 `yaml:"fractions"`
	Major     bool      `yaml:"major"`
	Strict    bool      `yaml:"strict"`
}

// Default returns the configuration used when no job file is given.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Defaults: Defaults{
			Points: greatarc.DefaultPoints,
			Unit:   string(astro.UnitArcsec),
		},
	}
}

// Load loads configuration from a YAML file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// Parse decodes and validates a job file. Missing fields keep their defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every arc for a known frame and unit and usable sampling.
func (c *Config) Validate() error {
	if _, err := parseUnit(c.Defaults.Unit); err != nil {
		return fmt.Errorf("%w: defaults: %w", ErrInvalidConfig, err)
	}
	if c.Defaults.Points < 2 {
		return fmt.Errorf("%w: defaults: points must be at least 2, got %d", ErrInvalidConfig, c.Defaults.Points)
	}
	if c.Defaults.ToleranceArcsec < 0 {
		return fmt.Errorf("%w: defaults: negative tolerance", ErrInvalidConfig)
	}
	if c.Observer.DistanceAU < 0 {
		return fmt.Errorf("%w: observer: negative distance", ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Arcs))
	for i, a := range c.Arcs {
		label := a.Name
		if label == "" {
			return fmt.Errorf("%w: arc %d: missing name", ErrInvalidConfig, i)
		}
		if seen[label] {
			return fmt.Errorf("%w: arc %q: duplicate name", ErrInvalidConfig, label)
		}
		seen[label] = true

		if _, err := a.FrameFor(c.Observer.Distance()); err != nil {
			return fmt.Errorf("%w: arc %q: %w", ErrInvalidConfig, label, err)
		}
		if _, err := a.AngleUnit(c.Defaults); err != nil {
			return fmt.Errorf("%w: arc %q: %w", ErrInvalidConfig, label, err)
		}
		if a.Points != 0 && a.Points < 2 {
			return fmt.Errorf("%w: arc %q: points must be at least 2, got %d", ErrInvalidConfig, label, a.Points)
		}
	}
	return nil
}

// Distance returns the observer distance from Sun centre.
func (o ObserverConfig) Distance() astro.Length {
	switch {
	case o.DistanceAU > 0:
		return astro.LengthFromAU(o.DistanceAU)
	case !o.Date.IsZero():
		return astro.EarthObserver(o.Date).Observer
	default:
		return astro.AstronomicalUnit
	}
}

// FrameByName builds a frame from its name. radius is only used by the
// generic spherical frame.
func FrameByName(name string, observer, radius astro.Length) (astro.Frame, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FrameHelioprojective, "hpc":
		return astro.NewHelioprojective(observer), nil
	case FrameStonyhurst, "hgs":
		return astro.HeliographicStonyhurst(), nil
	case FrameUnitSphere, "unit":
		return astro.UnitSphere(), nil
	case FrameSpherical:
		if radius <= 0 {
			return nil, fmt.Errorf("frame %q needs a positive radius_km", name)
		}
		return astro.NewSpherical(FrameSpherical, radius), nil
	default:
		return nil, fmt.Errorf("unknown frame %q%s", name, didYouMean(name, frameNames))
	}
}

var (
	frameNames = []string{FrameHelioprojective, FrameStonyhurst, FrameUnitSphere, FrameSpherical}
	unitNames  = []string{
		string(astro.UnitArcsec), string(astro.UnitArcmin),
		string(astro.UnitDegree), string(astro.UnitRadian),
	}
)

// didYouMean returns a hint naming the closest known name, or "" when
// nothing is close.
func didYouMean(name string, known []string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	best, bestDist := "", 4
	for _, k := range known {
		if d := levenshtein.ComputeDistance(name, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}

func parseUnit(name string) (astro.AngleUnit, error) {
	u, err := astro.ParseAngleUnit(name)
	if err != nil {
		return "", fmt.Errorf("%w%s", err, didYouMean(name, unitNames))
	}
	return u, nil
}

// FrameFor builds the arc's frame for an observer at the given distance.
func (a ArcSpec) FrameFor(observer astro.Length) (astro.Frame, error) {
	return FrameByName(a.Frame, observer, astro.Length(a.RadiusKm))
}

// AngleUnit returns the arc's angle unit, falling back to the defaults.
func (a ArcSpec) AngleUnit(d Defaults) (astro.AngleUnit, error) {
	if a.Unit == "" {
		return parseUnit(d.Unit)
	}
	return parseUnit(a.Unit)
}

// Point converts a coordinate to a point in frame.
func (c Coord) Point(u astro.AngleUnit, frame astro.Frame) astro.Point {
	return astro.PointIn(u, c.Lon, c.Lat, frame).WithDistance(astro.Length(c.DistanceKm))
}

// Endpoints returns the arc's start and end points.
func (a ArcSpec) Endpoints(u astro.AngleUnit, frame astro.Frame) (astro.Point, astro.Point) {
	return a.Start.Point(u, frame), a.End.Point(u, frame)
}

// Options translates the arc spec into GreatArc options.
func (a ArcSpec) Options(d Defaults, u astro.AngleUnit, frame astro.Frame) []greatarc.Option {
	var opts []greatarc.Option

	switch {
	case len(a.Fractions) > 0:
		opts = append(opts, greatarc.WithFractions(a.Fractions...))
	case a.Points > 0:
		opts = append(opts, greatarc.WithPoints(a.Points))
	default:
		opts = append(opts, greatarc.WithPoints(d.Points))
	}
	if a.Major {
		opts = append(opts, greatarc.WithMajorArc())
	}
	return append(opts, a.GeometryOptions(d, u, frame)...)
}

// GeometryOptions returns the options that do not affect sampling or arc
// direction: centre, tolerance and strictness.
func (a ArcSpec) GeometryOptions(d Defaults, u astro.AngleUnit, frame astro.Frame) []greatarc.Option {
	var opts []greatarc.Option
	if a.Center != nil {
		opts = append(opts, greatarc.WithCenter(a.Center.Point(u, frame)))
	}
	if d.ToleranceArcsec > 0 {
		opts = append(opts, greatarc.WithTolerance(astro.UnitArcsec.Angle(d.ToleranceArcsec)))
	}
	if a.Strict {
		opts = append(opts, greatarc.WithStrictDistinct())
	}
	return opts
}

// SamplePoints returns the arc's point count, falling back to the defaults.
func (a ArcSpec) SamplePoints(d Defaults) int {
	if a.Points > 0 {
		return a.Points
	}
	return d.Points
}

// Build constructs the arc described by a.
func (c *Config) Build(a ArcSpec) (*greatarc.GreatArc, error) {
	frame, err := a.FrameFor(c.Observer.Distance())
	if err != nil {
		return nil, fmt.Errorf("arc %q: %w", a.Name, err)
	}
	u, err := a.AngleUnit(c.Defaults)
	if err != nil {
		return nil, fmt.Errorf("arc %q: %w", a.Name, err)
	}
	start, end := a.Endpoints(u, frame)
	arc, err := greatarc.New(start, end, a.Options(c.Defaults, u, frame)...)
	if err != nil {
		return nil, fmt.Errorf("arc %q: %w", a.Name, err)
	}
	return arc, nil
}

// Print writes a human-readable summary of the configuration.
func (c *Config) Print(w io.Writer) {
	fmt.Fprintf(w, "Observer: %.6f AU\n", c.Observer.Distance().AU())
	fmt.Fprintf(w, "Defaults: %d points, unit %s\n", c.Defaults.Points, c.Defaults.Unit)
	for _, a := range c.Arcs {
		unitName := a.Unit
		if unitName == "" {
			unitName = c.Defaults.Unit
		}
		fmt.Fprintf(w, "Arc %s: %s (%g, %g) -> (%g, %g) %s\n",
			a.Name, a.Frame, a.Start.Lon, a.Start.Lat, a.End.Lon, a.End.Lat, unitName)
	}
}
