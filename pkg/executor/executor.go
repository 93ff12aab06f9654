// Package executor drives verb installs and uninstalls against a Wine
// prefix: resolving descriptors, fetching artifacts, running installers,
// and maintaining the per-prefix install log.
package executor

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vintner/vintner/pkg/config"
	"github.com/vintner/vintner/pkg/download"
	"github.com/vintner/vintner/pkg/history"
	"github.com/vintner/vintner/pkg/telemetry"
	"github.com/vintner/vintner/pkg/verb"
	"github.com/vintner/vintner/pkg/wine"
)

// Executor owns one install/uninstall pipeline. Construct with New; the
// Config is cloned by value and not shared with the caller afterwards.
type Executor struct {
	cfg     config.Config
	wine    *wine.Wine
	dl      *download.Manager
	reg     *verb.Registry
	log     *telemetry.Logger
	metrics *telemetry.Metrics
	hist    *history.Store
	runner  wine.Runner
}

// Option customizes executor construction, mostly for tests.
type Option func(*Executor)

// WithRunner substitutes the subprocess runner used for every Wine child.
func WithRunner(r wine.Runner) Option {
	return func(e *Executor) { e.runner = r }
}

// WithWine injects an already-detected Wine installation.
func WithWine(w *wine.Wine) Option {
	return func(e *Executor) { e.wine = w }
}

// WithRegistry injects a pre-built verb registry, skipping the metadata
// directory scan.
func WithRegistry(r *verb.Registry) Option {
	return func(e *Executor) { e.reg = r }
}

// WithLogger sets the logger.
func WithLogger(log *telemetry.Logger) Option {
	return func(e *Executor) { e.log = log }
}

// WithMetrics sets the metrics recorder. Nil is a valid no-op.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithHistory sets the optional install-history store.
func WithHistory(h *history.Store) Option {
	return func(e *Executor) { e.hist = h }
}

// New builds an executor: detects Wine, prepares the download cache, and
// loads the descriptor registry.
func New(cfg *config.Config, opts ...Option) (*Executor, error) {
	e := &Executor{
		cfg: *cfg,
		log: telemetry.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.runner == nil {
		e.runner = wine.ExecRunner{}
	}

	if e.wine == nil {
		w, err := wine.Detect(e.runner)
		if err != nil {
			return nil, err
		}
		e.wine = w
	}

	dl, err := download.NewManager(e.cfg.CacheDir,
		download.WithLogger(e.log),
		download.WithMetrics(e.metrics),
	)
	if err != nil {
		return nil, err
	}
	e.dl = dl

	if e.reg == nil {
		if err := e.cfg.EnsureCacheInitialized(e.log); err != nil {
			return nil, err
		}
		metadataDir := e.cfg.MetadataDir()
		if info, err := os.Stat(metadataDir); err == nil && info.IsDir() {
			reg, err := verb.LoadDir(metadataDir, e.log)
			if err != nil {
				return nil, err
			}
			e.reg = reg
		} else {
			e.log.WithField("dir", metadataDir).Warn("no descriptor tree found, registry is empty")
			e.reg = verb.NewRegistry()
		}
	}

	return e, nil
}

// Registry exposes the loaded descriptor registry for list queries.
func (e *Executor) Registry() *verb.Registry {
	return e.reg
}

// Wine exposes the detected Wine installation.
func (e *Executor) Wine() *wine.Wine {
	return e.wine
}

// installEnv assembles the environment for installer subprocesses. The
// second return lists variables to remove from the inherited environment.
func (e *Executor) installEnv() (map[string]string, []string) {
	env := map[string]string{
		"WINEPREFIX": e.cfg.Wineprefix(),
	}
	if e.cfg.Unattended {
		env["W_OPT_UNATTENDED"] = "1"
	} else {
		env["W_OPT_UNATTENDED"] = "0"
	}
	if e.cfg.Renderer != "" {
		env["WINE_D3D_CONFIG"] = "renderer=" + config.MapRenderer(e.cfg.Renderer)
	}
	if e.cfg.WineArch != "" {
		env["WINEARCH"] = e.cfg.WineArch
	}

	var unset []string
	switch e.cfg.Wayland {
	case "wayland":
		unset = append(unset, "DISPLAY")
	case "xwayland":
		display := os.Getenv("DISPLAY")
		if display == "" {
			display = ":0"
		}
		env["DISPLAY"] = display
	}
	return env, unset
}

// CachedEntry describes the cached artifacts of one verb.
type CachedEntry struct {
	Verb  string
	Files []string
}

// ListCached enumerates the download cache, one entry per verb
// subdirectory, sorted by verb name.
func (e *Executor) ListCached() ([]CachedEntry, error) {
	entries, err := os.ReadDir(e.cfg.CacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cached []CachedEntry
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(e.cfg.CacheDir, entry.Name()))
		if err != nil {
			continue
		}
		var names []string
		for _, f := range files {
			if !f.IsDir() && !strings.HasSuffix(f.Name(), ".part") {
				names = append(names, f.Name())
			}
		}
		if len(names) > 0 {
			cached = append(cached, CachedEntry{Verb: entry.Name(), Files: names})
		}
	}

	sort.Slice(cached, func(i, j int) bool { return cached[i].Verb < cached[j].Verb })
	return cached, nil
}
