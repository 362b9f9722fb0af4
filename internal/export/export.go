// Package export writes sampled arcs as JSON, CSV, and text tables.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"

	"github.com/litescript/ls-greatarc/internal/astro"
	"github.com/litescript/ls-greatarc/internal/greatarc"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ArcExport is the JSON-serializable representation of a sampled arc.
type ArcExport struct {
	Name          string         `json:"name"`
	Frame         string         `json:"frame"`
	Unit          string         `json:"unit"`
	Start         PointExport    `json:"start"`
	End           PointExport    `json:"end"`
	InnerAngleDeg float64        `json:"inner_angle_deg"`
	DistanceKm    float64        `json:"distance_km"`
	RadiusKm      float64        `json:"radius_km"`
	Major         bool           `json:"major,omitempty"`
	Degenerate    bool           `json:"degenerate,omitempty"`
	Samples       []SampleExport `json:"samples"`
}

// PointExport is an endpoint in the export's angle unit.
type PointExport struct {
	Lon        float64 `json:"lon"`
	Lat        float64 `json:"lat"`
	DistanceKm float64 `json:"distance_km,omitempty"`
}

// SampleExport is one sample along the arc.
type SampleExport struct {
	Index         int     `json:"index"`
	T             float64 `json:"t"`
	Lon           float64 `json:"lon"`
	Lat           float64 `json:"lat"`
	DistanceKm    float64 `json:"distance_km"`
	InnerAngleDeg float64 `json:"inner_angle_deg"`
	PathKm        float64 `json:"path_km"`
}

func exportPoint(p astro.Point, u astro.AngleUnit) PointExport {
	return PointExport{Lon: u.Value(p.Lon), Lat: u.Value(p.Lat), DistanceKm: p.Distance.Km()}
}

// FromArc converts a GreatArc to an exportable format with angles in u.
func FromArc(name string, a *greatarc.GreatArc, u astro.AngleUnit) *ArcExport {
	e := &ArcExport{
		Name:          name,
		Frame:         a.Frame().Name(),
		Unit:          u.String(),
		Start:         exportPoint(a.Start(), u),
		End:           exportPoint(a.End(), u),
		InnerAngleDeg: a.InnerAngle().Deg(),
		DistanceKm:    a.Distance().Km(),
		RadiusKm:      a.Radius().Km(),
		Major:         a.Major(),
		Degenerate:    a.Degenerate(),
		Samples:       make([]SampleExport, 0, a.Len()),
	}

	for i, s := range a.Samples() {
		e.Samples = append(e.Samples, SampleExport{
			Index:         i,
			T:             s.T,
			Lon:           u.Value(s.Point.Lon),
			Lat:           u.Value(s.Point.Lat),
			DistanceKm:    s.Point.Distance.Km(),
			InnerAngleDeg: s.InnerAngle.Deg(),
			PathKm:        s.Distance.Km(),
		})
	}
	return e
}

// WriteJSON writes the arc as indented JSON.
func (e *ArcExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// WriteJSON writes several arcs as one indented JSON array.
func WriteJSON(w io.Writer, arcs []*ArcExport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(arcs)
}

var csvHeader = []string{"arc", "index", "t", "lon", "lat", "unit", "distance_km", "inner_angle_deg", "path_km"}

// WriteCSV writes every sample of every arc as one CSV row.
func WriteCSV(w io.Writer, arcs []*ArcExport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	ff := func(v float64) string { return strconv.FormatFloat(v, 'g', 12, 64) }
	for _, a := range arcs {
		for _, s := range a.Samples {
			row := []string{
				a.Name,
				strconv.Itoa(s.Index),
				ff(s.T),
				ff(s.Lon),
				ff(s.Lat),
				a.Unit,
				ff(s.DistanceKm),
				ff(s.InnerAngleDeg),
				ff(s.PathKm),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write CSV row %s/%d: %w", a.Name, s.Index, err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSummaryTable writes one line per arc with sexagesimal angles.
func WriteSummaryTable(w io.Writer, arcs []*ArcExport) {
	fmt.Fprintln(w, strings.Repeat("─", 100))

	if len(arcs) == 0 {
		fmt.Fprintln(w, "No arcs")
		return
	}

	// Header
	fmt.Fprintf(w, "%-12s %-24s %-22s %-22s %-14s %-14s %6s\n",
		"Arc", "Frame", "Start", "End", "Angle", "Length", "N")
	fmt.Fprintln(w, strings.Repeat("─", 100))

	// Rows
	for _, a := range arcs {
		fmt.Fprintf(w, "%-12s %-24s %-22s %-22s %-14s %-14s %6s\n",
			truncateStr(a.Name, 12),
			truncateStr(a.Frame, 24),
			formatPair(a.Start, a.Unit),
			formatPair(a.End, a.Unit),
			fmt.Sprintf("%.1s", sexa.FmtAngle(unit.AngleFromDeg(a.InnerAngleDeg))),
			FormatDistance(a.DistanceKm),
			humanize.Comma(int64(len(a.Samples))),
		)
	}

	fmt.Fprintf(w, "\nTotal: %d arcs\n", len(arcs))
}

func formatPair(p PointExport, unitName string) string {
	return fmt.Sprintf("(%.1f, %.1f) %s", p.Lon, p.Lat, shortUnit(unitName))
}

func shortUnit(u string) string {
	switch astro.AngleUnit(u) {
	case astro.UnitArcsec:
		return "\""
	case astro.UnitArcmin:
		return "'"
	case astro.UnitDegree:
		return "°"
	default:
		return u
	}
}

// FormatDistance formats a path length in km with a readable magnitude.
func FormatDistance(km float64) string {
	switch {
	case km >= astro.AstronomicalUnit.Km()/10:
		return fmt.Sprintf("%.2f AU", km/astro.AstronomicalUnit.Km())
	case km >= 1e6:
		return fmt.Sprintf("%.2fM km", km/1e6)
	case km >= 1:
		return humanize.CommafWithDigits(km, 1) + " km"
	default:
		return fmt.Sprintf("%.3g km", km)
	}
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
