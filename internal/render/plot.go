package render

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/litescript/ls-greatarc/internal/astro"
	"github.com/litescript/ls-greatarc/internal/greatarc"
)

// ErrNotPNG is returned by SavePNG for paths without a .png extension.
var ErrNotPNG = errors.New("plot path must end in .png")

// Default plot size.
const (
	PlotWidth  = 6 * vg.Inch
	PlotHeight = 4 * vg.Inch
)

// TrackPlot plots the sampled track in the arc's lon/lat plane with angles in u.
// Longitudes are unwrapped so tracks across ±180° stay continuous.
func TrackPlot(arc *greatarc.GreatArc, u astro.AngleUnit) (*plot.Plot, error) {
	pts := make(plotter.XYs, 0, arc.Len())
	var prev float64
	turn := u.Value(astro.UnitDegree.Angle(360))
	for i, s := range arc.Samples() {
		lon := u.Value(s.Point.Lon)
		if i > 0 {
			lon = unwrap(prev, lon, turn)
		}
		pts = append(pts, plotter.XY{X: lon, Y: u.Value(s.Point.Lat)})
		prev = lon
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Great arc in %s", arc.Frame().Name())
	p.X.Label.Text = fmt.Sprintf("lon (%s)", u)
	p.Y.Label.Text = fmt.Sprintf("lat (%s)", u)

	if err := plotutil.AddLinePoints(p, "track", pts); err != nil {
		return nil, fmt.Errorf("add track: %w", err)
	}

	ends := plotter.XYs{pts[0], pts[len(pts)-1]}
	s, err := plotter.NewScatter(ends)
	if err != nil {
		return nil, fmt.Errorf("add endpoints: %w", err)
	}
	s.GlyphStyle.Radius = vg.Points(4)
	p.Add(s)
	p.Legend.Add("endpoints", s)

	return p, nil
}

// ProfilePlot plots path length from the start against swept angle.
func ProfilePlot(arc *greatarc.GreatArc) (*plot.Plot, error) {
	pts := make(plotter.XYs, 0, arc.Len())
	for _, s := range arc.Samples() {
		pts = append(pts, plotter.XY{X: s.InnerAngle.Deg(), Y: s.Distance.Km()})
	}

	p := plot.New()
	p.Title.Text = "Path length along arc"
	p.X.Label.Text = "inner angle (deg)"
	p.Y.Label.Text = "distance (km)"

	if err := plotutil.AddLines(p, pts); err != nil {
		return nil, fmt.Errorf("profile line: %w", err)
	}
	return p, nil
}

// SavePNG writes p to path at the default size.
func SavePNG(p *plot.Plot, path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".png") {
		return fmt.Errorf("%s: %w", path, ErrNotPNG)
	}
	if err := p.Save(PlotWidth, PlotHeight, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// unwrap shifts v by whole turns so it is within half a turn of prev.
func unwrap(prev, v, turn float64) float64 {
	return v - turn*math.Round((v-prev)/turn)
}
