package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/litescript/ls-greatarc/internal/astro"
	"github.com/litescript/ls-greatarc/internal/export"
	"github.com/litescript/ls-greatarc/internal/greatarc"
)

// MiniDiskConfig controls the ASCII mini disk output.
type MiniDiskConfig struct {
	Width  int
	Height int
	// Unit of the legend coordinates. Empty uses the drawing unit.
	Unit astro.AngleUnit
}

// DefaultMiniDiskConfig returns a canvas that is roughly square in a terminal.
func DefaultMiniDiskConfig() MiniDiskConfig {
	return MiniDiskConfig{Width: 45, Height: 21}
}

// WriteMiniDisk writes a boxed text rendering of the arc followed by a legend.
// Helioprojective arcs are drawn on the solar disk, other frames on a
// lon/lat grid.
func WriteMiniDisk(w io.Writer, arc *greatarc.GreatArc, cfg MiniDiskConfig) {
	if arc == nil {
		fmt.Fprintln(w, "No arc")
		return
	}

	c, pr := DrawArc(arc, cfg.Width, cfg.Height, -1)

	title := " " + arc.Frame().Name() + " "
	border := strings.Repeat("─", max(c.Width-len([]rune(title)), 0))
	fmt.Fprintf(w, "┌%s%s┐\n", title, border)
	for _, row := range c.Rows() {
		fmt.Fprintf(w, "│%s│\n", row)
	}
	fmt.Fprintf(w, "└%s┘\n", strings.Repeat("─", c.Width))

	u := cfg.Unit
	if u == "" {
		u = pr.Unit
	}
	start, end := arc.Start(), arc.End()
	fmt.Fprintf(w, "%c start (%.2f, %.2f) %s\n", GlyphStart, u.Value(start.Lon), u.Value(start.Lat), u)
	fmt.Fprintf(w, "%c end   (%.2f, %.2f) %s\n", GlyphEnd, u.Value(end.Lon), u.Value(end.Lat), u)
	fmt.Fprintf(w, "%c %d samples, %.4f° swept, %s\n",
		GlyphArc, arc.Len(), arc.InnerAngle().Deg(), export.FormatDistance(arc.Distance().Km()))
	if pr.Disk {
		fmt.Fprintf(w, "%c limb at %.1f″\n", GlyphLimb, pr.Limb.Sec())
	}
}
