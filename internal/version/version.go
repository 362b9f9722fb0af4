// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - Interactive explorer, major arc toggle, PNG track and profile plots
// 0.2.0 - YAML job files, helioprojective observer from date, CSV/JSON export
// 0.1.0 - Initial release: great arc sampling on spheres and the solar disk, headless summary
