// Package wine locates a Wine installation and wraps the Wine subprocess
// surface: version probing and Unix/Windows path translation.
package wine

import (
	"context"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/vintner/vintner/pkg/werrors"
)

// Wine describes a detected Wine installation.
type Wine struct {
	// Bin is the path to the wine binary.
	Bin string

	// ServerBin is the path to the wineserver binary.
	ServerBin string

	// Version is the raw `wine --version` output, e.g. "wine-8.0".
	Version string

	// VersionStripped is the version with the "wine-" prefix and any
	// "-rcN" suffix removed, e.g. "8.0".
	VersionStripped string

	runner Runner
}

// New builds a Wine handle around an already-known installation. Detect
// is the usual entry point; New exists for callers that manage discovery
// themselves.
func New(bin, serverBin, version string, runner Runner) *Wine {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Wine{
		Bin:             bin,
		ServerBin:       serverBin,
		Version:         version,
		VersionStripped: StripVersion(version),
		runner:          runner,
	}
}

// Detect locates wine and wineserver in PATH and probes the version.
func Detect(runner Runner) (*Wine, error) {
	if runner == nil {
		runner = ExecRunner{}
	}

	bin, err := exec.LookPath("wine")
	if err != nil {
		return nil, werrors.Wine("wine binary not found in PATH")
	}
	serverBin, err := exec.LookPath("wineserver")
	if err != nil {
		return nil, werrors.Wine("wineserver binary not found in PATH")
	}

	w := &Wine{
		Bin:       bin,
		ServerBin: serverBin,
		runner:    runner,
	}

	result, err := runner.Run(context.Background(), Command{Name: bin, Args: []string{"--version"}})
	if err != nil {
		return nil, err
	}
	version := strings.TrimSpace(result.Stdout)
	if version == "" || !result.Success() {
		return nil, werrors.Wine("wine --version returned empty")
	}

	w.Version = version
	w.VersionStripped = StripVersion(version)
	return w, nil
}

// Run executes a subprocess through the probe's runner.
func (w *Wine) Run(ctx context.Context, cmd Command) (Result, error) {
	return w.runner.Run(ctx, cmd)
}

// StripVersion reduces a raw version string to its number, e.g.
// "wine-9.0-rc2 (Staging)" becomes "9.0".
func StripVersion(version string) string {
	v := version
	if fields := strings.Fields(v); len(fields) > 0 {
		v = fields[0]
	}
	v = strings.TrimPrefix(v, "wine-")
	if i := strings.Index(v, "-rc"); i >= 0 {
		v = v[:i]
	}
	return v
}

// UnixToWindows converts a Unix path to its Windows form inside the given
// prefix by delegating to `wine winepath -w`. On subprocess failure it
// falls back to the literal Z: drive mapping.
func (w *Wine) UnixToWindows(ctx context.Context, wineprefix, unixPath string) string {
	result, err := w.runner.Run(ctx, Command{
		Name: w.Bin,
		Args: []string{"winepath", "-w", unixPath},
		Env:  map[string]string{"WINEPREFIX": wineprefix},
	})
	if err == nil && result.Success() {
		if p := strings.TrimSpace(result.Stdout); p != "" {
			return p
		}
	}
	return ZDrivePath(unixPath)
}

// ZDrivePath is the fallback translation: Z: plus the Unix absolute path
// with forward slashes rewritten.
func ZDrivePath(unixPath string) string {
	return `Z:\` + strings.ReplaceAll(strings.TrimPrefix(unixPath, "/"), "/", `\`)
}

// VersionGE reports whether the detected Wine version is at least v.
// Versions that parse as semver are compared numerically; anything else
// falls back to a lexicographic comparison.
func (w *Wine) VersionGE(v string) bool {
	return CompareVersions(w.VersionStripped, v) >= 0
}

// CompareVersions compares two stripped Wine version strings, returning
// -1, 0, or 1. Dotted numeric versions compare numerically so that
// "10.0" orders above "9.0".
func CompareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return strings.Compare(a, b)
}
