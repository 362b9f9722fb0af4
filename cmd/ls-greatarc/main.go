// Command ls-greatarc samples great-circle arcs on spheres and on the solar disk.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/litescript/ls-greatarc/internal/astro"
	"github.com/litescript/ls-greatarc/internal/config"
	"github.com/litescript/ls-greatarc/internal/export"
	"github.com/litescript/ls-greatarc/internal/greatarc"
	"github.com/litescript/ls-greatarc/internal/logging"
	"github.com/litescript/ls-greatarc/internal/render"
	"github.com/litescript/ls-greatarc/internal/ui"
	"github.com/litescript/ls-greatarc/internal/version"
)

// Default arc when neither -config nor -start/-end is given.
const (
	demoStart = "735,-471"
	demoEnd   = "-100,800"
)

type options struct {
	configPath string
	frame      string
	start      string
	end        string
	unit       string
	points     int
	radiusKm   float64
	major      bool
	strict     bool
	observerAU float64
	date       string
	logLevel   string
	logFile    string
	showVer    bool

	// Headless outputs
	summary     bool
	jsonPath    string
	csvPath     string
	plotPath    string
	profilePath string
	miniDisk    bool

	explicit map[string]bool
}

func (o *options) headless() bool {
	return o.summary || o.jsonPath != "" || o.csvPath != "" || o.plotPath != "" || o.profilePath != "" || o.miniDisk
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("ls-greatarc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.configPath, "config", "", "YAML job file with one or more arcs")
	fs.StringVar(&o.frame, "frame", config.FrameHelioprojective, "Frame of -start/-end (helioprojective, heliographic_stonyhurst, unit_sphere, spherical)")
	fs.StringVar(&o.start, "start", "", "Start point as lon,lat")
	fs.StringVar(&o.end, "end", "", "End point as lon,lat")
	fs.StringVar(&o.unit, "unit", string(astro.UnitArcsec), "Angle unit of -start/-end (arcsec, arcmin, deg, rad)")
	fs.IntVar(&o.points, "points", greatarc.DefaultPoints, "Number of samples, endpoints included")
	fs.Float64Var(&o.radiusKm, "radius-km", 0, "Sphere radius for -frame spherical")
	fs.BoolVar(&o.major, "major", false, "Follow the longer arc")
	fs.BoolVar(&o.strict, "strict", false, "Reject coincident endpoints")
	fs.Float64Var(&o.observerAU, "observer-au", 0, "Helioprojective observer distance in AU")
	fs.StringVar(&o.date, "date", "", "Observation date for the observer distance (2006-01-02 or RFC 3339)")
	fs.StringVar(&o.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&o.logFile, "log-file", "", "Write logs to file while the explorer is open")
	fs.BoolVar(&o.showVer, "version", false, "Print version and exit")
	fs.BoolVar(&o.summary, "summary", false, "Print text summary instead of TUI")
	fs.StringVar(&o.jsonPath, "json", "", "Export samples as JSON to file (use - for stdout)")
	fs.StringVar(&o.csvPath, "csv", "", "Export samples as CSV to file (use - for stdout)")
	fs.StringVar(&o.plotPath, "plot", "", "Save track plot as PNG")
	fs.StringVar(&o.profilePath, "profile-plot", "", "Save path length profile as PNG")
	fs.BoolVar(&o.miniDisk, "mini-disk", false, "Show ASCII mini disk view")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.explicit = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.explicit[f.Name] = true })
	return o, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.showVer {
		fmt.Fprintf(stdout, "ls-greatarc v%s\n", version.Version)
		return 0
	}

	// Set up logging; the job file's level applies unless -log-level was given
	logger := logging.NewWithWriter(logging.ParseLevel(opts.logLevel), stderr)

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if !opts.explicit["log-level"] && cfg.LogLevel != "" {
		logger.SetLevel(logging.ParseLevel(cfg.LogLevel))
	}
	if logger.Enabled(logging.LevelDebug) {
		var b strings.Builder
		cfg.Print(&b)
		for _, line := range strings.Split(strings.TrimSpace(b.String()), "\n") {
			logger.Debug("%s", line)
		}
	}

	// Headless mode: no TUI
	headless := opts.headless()
	if !headless && !isTerminal(stdout) {
		logger.Debug("stdout is not a terminal, printing summary")
		opts.summary = true
		headless = true
	}
	if headless {
		if err := runHeadless(cfg, opts, stdout, logger); err != nil {
			logger.Error("%v", err)
			return 1
		}
		return 0
	}

	model, err := explorerModel(cfg, logger)
	if err != nil {
		logger.Error("%v", err)
		return 1
	}

	// Log lines would tear the alternate screen
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Error("open log file: %v", err)
			return 1
		}
		defer f.Close()
		logger.SetOutput(f)
	} else {
		logger.SetOutput(io.Discard)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if opts.configPath != "" {
		stop := reloadOnHangup(p, opts, logger)
		defer stop()
	}
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(stderr, "Error running TUI: %v\n", err)
		return 1
	}
	return 0
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// arcFlags describe a single arc and cannot be combined with -config.
var arcFlags = []string{"frame", "start", "end", "unit", "points", "radius-km", "major", "strict"}

// loadConfig reads the job file or builds a single arc from flags. Observer
// flags override the job file.
func loadConfig(opts *options) (*config.Config, error) {
	var cfg *config.Config
	if opts.configPath != "" {
		for _, name := range arcFlags {
			if opts.explicit[name] {
				return nil, fmt.Errorf("-%s cannot be combined with -config; set it in the job file", name)
			}
		}
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
		if len(cfg.Arcs) == 0 {
			return nil, fmt.Errorf("%s: no arcs", opts.configPath)
		}
	} else {
		cfg = config.Default()
		arc, err := flagArc(opts)
		if err != nil {
			return nil, err
		}
		cfg.Arcs = []config.ArcSpec{arc}
	}

	if opts.observerAU != 0 {
		cfg.Observer.DistanceAU = opts.observerAU
	}
	if opts.date != "" {
		t, err := parseDate(opts.date)
		if err != nil {
			return nil, err
		}
		cfg.Observer.Date = t
		if opts.observerAU == 0 {
			cfg.Observer.DistanceAU = 0
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func flagArc(opts *options) (config.ArcSpec, error) {
	startStr, endStr := opts.start, opts.end
	if startStr == "" && endStr == "" {
		startStr, endStr = demoStart, demoEnd
		if opts.explicit["frame"] || opts.explicit["unit"] {
			return config.ArcSpec{}, errors.New("-start and -end are required with -frame or -unit")
		}
	}
	start, err := parseCoord(startStr)
	if err != nil {
		return config.ArcSpec{}, fmt.Errorf("-start: %w", err)
	}
	end, err := parseCoord(endStr)
	if err != nil {
		return config.ArcSpec{}, fmt.Errorf("-end: %w", err)
	}
	return config.ArcSpec{
		Name:     "arc",
		Frame:    opts.frame,
		RadiusKm: opts.radiusKm,
		Unit:     opts.unit,
		Start:    start,
		End:      end,
		Points:   opts.points,
		Major:    opts.major,
		Strict:   opts.strict,
	}, nil
}

// parseCoord parses "lon,lat".
func parseCoord(s string) (config.Coord, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return config.Coord{}, fmt.Errorf("want lon,lat, got %q", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return config.Coord{}, fmt.Errorf("longitude: %w", err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return config.Coord{}, fmt.Errorf("latitude: %w", err)
	}
	return config.Coord{Lon: lon, Lat: lat}, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("-date: cannot parse %q", s)
}

type builtArc struct {
	name string
	unit astro.AngleUnit
	arc  *greatarc.GreatArc
}

func buildArcs(cfg *config.Config, logger *logging.Logger) ([]builtArc, error) {
	arcs := make([]builtArc, 0, len(cfg.Arcs))
	for _, spec := range cfg.Arcs {
		u, err := spec.AngleUnit(cfg.Defaults)
		if err != nil {
			return nil, err
		}
		a, err := cfg.Build(spec)
		if err != nil {
			return nil, err
		}
		logger.Debug("%s: %d samples, %.6f deg, %.3f km", spec.Name, a.Len(), a.InnerAngle().Deg(), a.Distance().Km())
		arcs = append(arcs, builtArc{name: spec.Name, unit: u, arc: a})
	}
	return arcs, nil
}

func runHeadless(cfg *config.Config, opts *options, stdout io.Writer, logger *logging.Logger) error {
	arcs, err := buildArcs(cfg, logger)
	if err != nil {
		return err
	}

	exports := make([]*export.ArcExport, len(arcs))
	for i, b := range arcs {
		exports[i] = export.FromArc(b.name, b.arc, b.unit)
	}

	// Export JSON if requested
	if opts.jsonPath != "" {
		err := writeTo(opts.jsonPath, stdout, func(w io.Writer) error {
			if len(exports) == 1 {
				return exports[0].WriteJSON(w)
			}
			return export.WriteJSON(w, exports)
		})
		if err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
	}

	if opts.csvPath != "" {
		if err := writeTo(opts.csvPath, stdout, func(w io.Writer) error {
			return export.WriteCSV(w, exports)
		}); err != nil {
			return fmt.Errorf("write CSV: %w", err)
		}
	}

	// Plots, one file per arc when there are several
	for _, b := range arcs {
		if opts.plotPath != "" {
			p, err := render.TrackPlot(b.arc, b.unit)
			if err != nil {
				return err
			}
			path := plotPath(opts.plotPath, b.name, len(arcs))
			if err := render.SavePNG(p, path); err != nil {
				return err
			}
			logger.Info("wrote %s", path)
		}
		if opts.profilePath != "" {
			p, err := render.ProfilePlot(b.arc)
			if err != nil {
				return err
			}
			path := plotPath(opts.profilePath, b.name, len(arcs))
			if err := render.SavePNG(p, path); err != nil {
				return err
			}
			logger.Info("wrote %s", path)
		}
	}

	// Print summary table if requested
	if opts.summary {
		export.WriteSummaryTable(stdout, exports)
	}

	// Mini disk view
	if opts.miniDisk {
		for _, b := range arcs {
			fmt.Fprintln(stdout)
			mc := render.DefaultMiniDiskConfig()
			mc.Unit = b.unit
			render.WriteMiniDisk(stdout, b.arc, mc)
		}
	}
	return nil
}

// writeTo writes to stdout for "-" and to a new file otherwise.
func writeTo(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// plotPath inserts the arc name before the extension when several arcs share
// one output flag.
func plotPath(path, name string, n int) string {
	if n <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + name + ext
}

// explorerModel opens the TUI on the first arc of the job.
func explorerModel(cfg *config.Config, logger *logging.Logger) (ui.Model, error) {
	in, err := explorerInput(cfg)
	if err != nil {
		return ui.Model{}, err
	}
	return ui.New(in, logger), nil
}

// explorerInput describes the first arc of the job for the explorer.
func explorerInput(cfg *config.Config) (ui.Input, error) {
	spec := cfg.Arcs[0]
	frame, err := spec.FrameFor(cfg.Observer.Distance())
	if err != nil {
		return ui.Input{}, err
	}
	u, err := spec.AngleUnit(cfg.Defaults)
	if err != nil {
		return ui.Input{}, err
	}
	start, end := spec.Endpoints(u, frame)
	return ui.Input{
		Name:      spec.Name,
		Start:     start,
		End:       end,
		Points:    spec.SamplePoints(cfg.Defaults),
		Fractions: spec.Fractions,
		Major:     spec.Major,
		Unit:      u,
		Options:   spec.GeometryOptions(cfg.Defaults, u, frame),
	}, nil
}

// reloadMsg rereads the job file and returns the explorer update, or the
// error to show in its status line.
func reloadMsg(opts *options) tea.Msg {
	cfg, err := loadConfig(opts)
	if err != nil {
		return ui.ErrorMsg{Error: fmt.Errorf("reload: %w", err)}
	}
	in, err := explorerInput(cfg)
	if err != nil {
		return ui.ErrorMsg{Error: fmt.Errorf("reload: %w", err)}
	}
	return ui.ArcUpdateMsg{Input: in}
}

// reloadOnHangup reloads the job file into the explorer on SIGHUP until the
// returned stop function is called.
func reloadOnHangup(p *tea.Program, opts *options, logger *logging.Logger) (stop func()) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-hup:
				logger.Info("reloading %s", opts.configPath)
				p.Send(reloadMsg(opts))
			}
		}
	}()

	return func() {
		signal.Stop(hup)
		close(done)
	}
}
