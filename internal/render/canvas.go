// Package render draws sampled arcs as terminal text and PNG plots.
package render

import (
	"math"

	"github.com/soniakeys/unit"

	"github.com/litescript/ls-greatarc/internal/astro"
	"github.com/litescript/ls-greatarc/internal/greatarc"
)

// Glyphs used on the canvas.
const (
	GlyphBackground = ' '
	GlyphLimb       = '·'
	GlyphGrid       = '·'
	GlyphDiskCenter = '+'
	GlyphArc        = '•'
	GlyphStart      = 'S'
	GlyphEnd        = 'E'
	GlyphCursor     = '◆'
)

// Canvas is a character grid mapped onto a rectangle of the plane.
// Row 0 is the top edge (largest y).
type Canvas struct {
	Width, Height          int
	XMin, XMax, YMin, YMax float64
	cells                  [][]rune
}

// NewCanvas creates a blank canvas covering [xMin,xMax] x [yMin,yMax].
func NewCanvas(width, height int, xMin, xMax, yMin, yMax float64) *Canvas {
	width = max(width, 2)
	height = max(height, 2)
	cells := make([][]rune, height)
	for i := range cells {
		cells[i] = make([]rune, width)
		for j := range cells[i] {
			cells[i][j] = GlyphBackground
		}
	}
	return &Canvas{
		Width: width, Height: height,
		XMin: xMin, XMax: xMax, YMin: yMin, YMax: yMax,
		cells: cells,
	}
}

// Cell returns the column and row of (x, y) and whether it lies on the canvas.
func (c *Canvas) Cell(x, y float64) (col, row int, ok bool) {
	if math.IsNaN(x) || math.IsNaN(y) || c.XMax <= c.XMin || c.YMax <= c.YMin {
		return 0, 0, false
	}
	col = int(math.Round((x - c.XMin) / (c.XMax - c.XMin) * float64(c.Width-1)))
	row = int(math.Round((c.YMax - y) / (c.YMax - c.YMin) * float64(c.Height-1)))
	if col < 0 || col >= c.Width || row < 0 || row >= c.Height {
		return col, row, false
	}
	return col, row, true
}

// Set draws r at (x, y). It reports false when the point is off the canvas.
func (c *Canvas) Set(x, y float64, r rune) bool {
	col, row, ok := c.Cell(x, y)
	if !ok {
		return false
	}
	c.cells[row][col] = r
	return true
}

// At returns the glyph at a cell.
func (c *Canvas) At(col, row int) rune {
	if col < 0 || col >= c.Width || row < 0 || row >= c.Height {
		return GlyphBackground
	}
	return c.cells[row][col]
}

// Rows returns the canvas as strings, top row first.
func (c *Canvas) Rows() []string {
	rows := make([]string, c.Height)
	for i, r := range c.cells {
		rows[i] = string(r)
	}
	return rows
}

// Projection maps arc points to canvas coordinates.
type Projection struct {
	// Unit of the canvas axes.
	Unit astro.AngleUnit
	// Disk is true for helioprojective arcs drawn on the solar disk.
	Disk bool
	// Limb is the solar angular radius when Disk is set.
	Limb unit.Angle
}

// XY returns the canvas coordinates of p.
func (pr Projection) XY(p astro.Point) (float64, float64) {
	if pr.Disk {
		return pr.Unit.Value(p.Lon), pr.Unit.Value(p.Lat)
	}
	return pr.Unit.Value(wrapLon(p.Lon)), pr.Unit.Value(p.Lat)
}

// wrapLon wraps a longitude into [-180°, 180°].
func wrapLon(a unit.Angle) unit.Angle {
	return unit.Angle(math.Remainder(a.Rad(), 2*math.Pi))
}

// ProjectionFor picks the drawing mode for the arc's frame.
func ProjectionFor(arc *greatarc.GreatArc) Projection {
	if hpc, ok := arc.Frame().(astro.Helioprojective); ok {
		return Projection{Unit: astro.UnitArcsec, Disk: true, Limb: hpc.AngularRadius()}
	}
	return Projection{Unit: astro.UnitDegree}
}

// DrawArc renders the arc on a width x height canvas. cursor marks one sample;
// pass a negative value to draw none.
func DrawArc(arc *greatarc.GreatArc, width, height, cursor int) (*Canvas, Projection) {
	pr := ProjectionFor(arc)

	var c *Canvas
	if pr.Disk {
		c = diskCanvas(arc, pr, width, height)
	} else {
		c = gridCanvas(width, height)
	}

	for p := range arc.Coordinates() {
		x, y := pr.XY(p)
		c.Set(x, y, GlyphArc)
	}

	x, y := pr.XY(arc.Start())
	c.Set(x, y, GlyphStart)
	x, y = pr.XY(arc.End())
	c.Set(x, y, GlyphEnd)

	if cursor >= 0 {
		for i, s := range arc.Samples() {
			if i == cursor {
				x, y := pr.XY(s.Point)
				c.Set(x, y, GlyphCursor)
				break
			}
		}
	}
	return c, pr
}

// diskCanvas frames the solar disk and every sample with a small margin.
func diskCanvas(arc *greatarc.GreatArc, pr Projection, width, height int) *Canvas {
	extent := pr.Unit.Value(pr.Limb)
	for p := range arc.Coordinates() {
		x, y := pr.XY(p)
		extent = max(extent, math.Abs(x), math.Abs(y))
	}
	extent *= 1.1

	c := NewCanvas(width, height, -extent, extent, -extent, extent)

	limb := pr.Unit.Value(pr.Limb)
	steps := 4 * (c.Width + c.Height)
	for i := range steps {
		phi := 2 * math.Pi * float64(i) / float64(steps)
		c.Set(limb*math.Cos(phi), limb*math.Sin(phi), GlyphLimb)
	}
	c.Set(0, 0, GlyphDiskCenter)
	return c
}

// gridCanvas is an equirectangular lon/lat grid with lines every 30 degrees.
func gridCanvas(width, height int) *Canvas {
	c := NewCanvas(width, height, -180, 180, -90, 90)
	for row := range c.Height {
		for col := range c.Width {
			lon := c.XMin + float64(col)/float64(c.Width-1)*(c.XMax-c.XMin)
			lat := c.YMax - float64(row)/float64(c.Height-1)*(c.YMax-c.YMin)
			if onGridLine(lon, (c.XMax-c.XMin)/float64(c.Width-1)) ||
				onGridLine(lat, (c.YMax-c.YMin)/float64(c.Height-1)) {
				c.cells[row][col] = GlyphGrid
			}
		}
	}
	return c
}

func onGridLine(v, step float64) bool {
	m := math.Mod(math.Abs(v), 30)
	return m < step/2 || 30-m < step/2
}
