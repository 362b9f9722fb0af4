// Package ui provides the terminal arc explorer using Bubble Tea.
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-greatarc/internal/astro"
	"github.com/litescript/ls-greatarc/internal/export"
	"github.com/litescript/ls-greatarc/internal/greatarc"
	"github.com/litescript/ls-greatarc/internal/logging"
	"github.com/litescript/ls-greatarc/internal/render"
	"github.com/litescript/ls-greatarc/internal/version"
)

// Sample count limits for the +/- keys.
const (
	minPoints  = 2
	maxPoints  = 1000
	pointsStep = 10
)

const panelWidth = 38

// Input describes the arc the explorer starts with.
type Input struct {
	Name       string
	Start, End astro.Point
	Points     int
	// Fractions, when set, sample at these arc parameters until the
	// point count is changed with +/-.
	Fractions []float64
	Major     bool
	Unit      astro.AngleUnit
	// Options are passed to every rebuild, after the explorer's own
	// sampling and major arc options.
	Options []greatarc.Option
}

// Msg types for Bubble Tea
type (
	// ArcUpdateMsg replaces the explored arc, e.g. after the job file is reloaded.
	ArcUpdateMsg struct {
		Input Input
	}

	// ErrorMsg shows an error in the status line. The arc on screen is kept.
	ErrorMsg struct {
		Error error
	}
)

// Model is the root Bubble Tea model.
type Model struct {
	log *logging.Logger

	// Arc inputs
	name       string
	start, end astro.Point
	points     int
	fractions  []float64
	major      bool
	unit       astro.AngleUnit
	opts       []greatarc.Option

	// Last successfully built arc; nil until one builds.
	arc *greatarc.GreatArc
	err error

	// UI state
	width     int
	height    int
	ready     bool
	cursor    int
	statusMsg string
}

// New creates the explorer and builds its first arc. A build error is kept
// for display rather than returned.
func New(in Input, log *logging.Logger) Model {
	if log == nil {
		log = logging.Discard()
	}
	m := Model{log: log.Named("ui")}
	m.load(in)
	return m
}

// load replaces every arc input and rebuilds.
func (m *Model) load(in Input) {
	if in.Points < minPoints {
		in.Points = greatarc.DefaultPoints
	}
	if in.Unit == "" {
		in.Unit = astro.UnitArcsec
	}
	m.name = in.Name
	m.start, m.end = in.Start, in.End
	m.points = in.Points
	m.fractions = in.Fractions
	m.major = in.Major
	m.unit = in.Unit
	m.opts = in.Options
	m.rebuild()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "left", "h":
			m.moveCursor(-1)
		case "right", "l":
			m.moveCursor(1)
		case "home":
			m.cursor = 0
		case "end":
			m.cursor = m.lastIndex()

		case "+", "=":
			m.setPoints(m.points + pointsStep)
		case "-", "_":
			m.setPoints(m.points - pointsStep)

		case "r":
			m.start, m.end = m.end, m.start
			m.cursor = m.lastIndex() - m.cursor
			m.rebuild()
			m.statusMsg = "Reversed"

		case "m":
			m.major = !m.major
			m.rebuild()
			if m.major {
				m.statusMsg = "Major arc"
			} else {
				m.statusMsg = "Minor arc"
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case ArcUpdateMsg:
		m.load(msg.Input)
		if m.err == nil {
			m.statusMsg = "Reloaded " + m.name
		}

	case ErrorMsg:
		m.log.Warn("%v", msg.Error)
		m.err = msg.Error
	}

	return m, nil
}

// rebuild constructs the arc from the current inputs. On failure the previous
// arc stays on screen and the error goes to the status line.
func (m *Model) rebuild() {
	var opts []greatarc.Option
	if len(m.fractions) > 0 {
		opts = append(opts, greatarc.WithFractions(m.fractions...))
	} else {
		opts = append(opts, greatarc.WithPoints(m.points))
	}
	if m.major {
		opts = append(opts, greatarc.WithMajorArc())
	}
	opts = append(opts, m.opts...)

	arc, err := greatarc.New(m.start, m.end, opts...)
	if err != nil {
		m.log.Warn("rebuild %s: %v", m.name, err)
		m.err = err
		return
	}
	m.log.Debug("rebuild %s: %d points, %.6f deg", m.name, arc.Len(), arc.InnerAngle().Deg())
	m.arc = arc
	m.err = nil
	m.cursor = min(max(m.cursor, 0), m.lastIndex())
}

func (m *Model) setPoints(n int) {
	n = min(max(n, minPoints), maxPoints)
	if n == m.points && len(m.fractions) == 0 {
		return
	}
	// Keep the cursor at the same place along the arc.
	frac := 0.0
	if last := m.lastIndex(); last > 0 {
		frac = float64(m.cursor) / float64(last)
	}
	m.points = n
	m.fractions = nil
	m.rebuild()
	m.cursor = int(frac*float64(m.lastIndex()) + 0.5)
	m.statusMsg = fmt.Sprintf("%d points", m.points)
}

func (m *Model) moveCursor(delta int) {
	m.cursor = min(max(m.cursor+delta, 0), m.lastIndex())
}

func (m Model) lastIndex() int {
	if m.arc == nil {
		return 0
	}
	return m.arc.Len() - 1
}

// Arc returns the arc on screen.
func (m Model) Arc() *greatarc.GreatArc { return m.arc }

// Cursor returns the selected sample index.
func (m Model) Cursor() int { return m.cursor }

// Err returns the last build error, if the current inputs do not build.
func (m Model) Err() error { return m.err }

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	header := m.renderHeader()
	footer := m.renderFooter()

	if m.arc == nil {
		return header + "\n\n  No arc to show\n\n" + footer
	}

	canvasW := max(m.width-panelWidth-6, 20)
	canvasH := max(m.height-8, 9)
	content := lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(m.renderCanvas(canvasW, canvasH)),
		" ",
		boxStyle.Width(panelWidth).Render(m.renderPanel()),
	)
	return header + "\n" + content + "\n" + footer
}

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("60"))

	glyphStyles = map[rune]lipgloss.Style{
		render.GlyphLimb:       lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		render.GlyphDiskCenter: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		render.GlyphArc:        lipgloss.NewStyle().Foreground(lipgloss.Color("#d0c8ff")),
		render.GlyphStart:      lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true),
		render.GlyphEnd:        lipgloss.NewStyle().Foreground(lipgloss.Color("#EC4899")).Bold(true),
		render.GlyphCursor:     lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true),
	}
)

func (m Model) renderHeader() string {
	title := titleStyle.Render(fmt.Sprintf("  ls-greatarc v%s", version.Version))
	name := m.name
	if name == "" {
		name = "arc"
	}
	frame := ""
	if m.arc != nil {
		frame = m.arc.Frame().Name()
	}
	return title + dimStyle.Render(fmt.Sprintf("  %s · %s", name, frame))
}

func (m Model) renderCanvas(width, height int) string {
	c, _ := render.DrawArc(m.arc, width, height, m.cursor)
	var b strings.Builder
	for i, row := range c.Rows() {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, r := range row {
			if st, ok := glyphStyles[r]; ok {
				b.WriteString(st.Render(string(r)))
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func (m Model) renderPanel() string {
	a := m.arc
	u := m.unit
	var b strings.Builder

	line := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-10s", label)))
		b.WriteString(value)
		b.WriteByte('\n')
	}
	pair := func(p astro.Point) string {
		return fmt.Sprintf("(%.2f, %.2f) %s", u.Value(p.Lon), u.Value(p.Lat), u)
	}

	b.WriteString(titleStyle.Render("Arc"))
	b.WriteByte('\n')
	line("start", pair(a.Start()))
	line("end", pair(a.End()))
	line("angle", fmt.Sprintf("%.4f°", a.InnerAngle().Deg()))
	line("length", export.FormatDistance(a.Distance().Km()))
	line("radius", export.FormatDistance(a.Radius().Km()))
	kind := "minor"
	if a.Major() {
		kind = "major"
	}
	if a.Degenerate() {
		kind = "degenerate"
	}
	line("kind", kind)
	line("points", fmt.Sprintf("%d", a.Len()))

	b.WriteByte('\n')
	b.WriteString(titleStyle.Render(fmt.Sprintf("Sample %d/%d", m.cursor, a.Len()-1)))
	b.WriteByte('\n')
	for i, s := range a.Samples() {
		if i != m.cursor {
			continue
		}
		line("t", fmt.Sprintf("%.4f", s.T))
		line("position", pair(s.Point))
		line("swept", fmt.Sprintf("%.4f°", s.InnerAngle.Deg()))
		line("path", export.FormatDistance(s.Distance.Km()))
		line("distance", export.FormatDistance(s.Point.Distance.Km()))
		break
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderFooter() string {
	var status string
	switch {
	case m.err != nil:
		status = errorStyle.Render("ERROR: " + m.err.Error())
	case m.statusMsg != "":
		status = accentStyle.Render(m.statusMsg)
	default:
		status = accentStyle.Render("ready")
	}
	help := dimStyle.Render("←/→: sample | +/-: points | r: reverse | m: major arc | q: quit")
	return "  " + status + "  " + dimStyle.Render("|") + "  " + help
}
