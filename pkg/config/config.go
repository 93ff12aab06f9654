// Package config holds per-process settings: user directories, the active
// Wine prefix, and the scalar options shared by every frontend.
package config

import (
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vintner/vintner/pkg/werrors"
)

// devSentinel marks a development checkout. When data_dir ends in this
// component the descriptor tree next to it is authoritative and the user
// cache is bypassed.
const devSentinel = "winetricks-dev"

// Config is cloned by value into the executor. The invoking frontend owns
// it exclusively.
type Config struct {
	CacheDir     string `yaml:"cache_dir"`
	DataDir      string `yaml:"data_dir"`
	PrefixesRoot string `yaml:"prefixes_root"`

	// WinePrefix overrides prefix resolution when set; see Wineprefix.
	WinePrefix string `yaml:"wineprefix"`

	Verbosity  int    `yaml:"verbosity" validate:"min=0,max=2"`
	Force      bool   `yaml:"force"`
	Unattended bool   `yaml:"unattended"`
	Torify     bool   `yaml:"torify"`
	Isolate    bool   `yaml:"isolate"`
	NoClean    bool   `yaml:"no_clean"`

	WineArch string `yaml:"winearch" validate:"omitempty,oneof=win32 win64"`
	Renderer string `yaml:"renderer" validate:"omitempty,oneof=opengl vulkan gdi no3d"`
	Wayland  string `yaml:"wayland" validate:"omitempty,oneof=wayland xwayland auto"`
}

// New builds a Config with default user directories resolved from the
// XDG base directories.
func New() (*Config, error) {
	cacheRoot, err := os.UserCacheDir()
	if err != nil {
		return nil, werrors.Config("could not determine cache directory")
	}

	dataRoot := os.Getenv("XDG_DATA_HOME")
	if dataRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, werrors.Config("could not determine data directory")
		}
		dataRoot = filepath.Join(home, ".local", "share")
	}

	return &Config{
		CacheDir:     filepath.Join(cacheRoot, "winetricks"),
		DataDir:      filepath.Join(dataRoot, "winetricks"),
		PrefixesRoot: filepath.Join(dataRoot, "wineprefixes"),
	}, nil
}

// Load builds a default Config and merges the YAML settings file at path
// over it. A missing file is not an error; flags applied by the caller
// afterwards take precedence over both.
func Load(path string) (*Config, error) {
	cfg, err := New()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, werrors.IO(err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, werrors.Config("invalid settings file " + path + ": " + err.Error())
	}
	return cfg, nil
}

// Validate checks the enumerated option values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return werrors.Config(err.Error())
	}
	return nil
}

// Wineprefix resolves the active prefix: configured path, then
// $WINEPREFIX, then ~/.wine.
func (c *Config) Wineprefix() string {
	if c.WinePrefix != "" {
		return c.WinePrefix
	}
	if env := os.Getenv("WINEPREFIX"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wine"
	}
	return filepath.Join(home, ".wine")
}

// EnsureDirs idempotently creates the cache, data, prefixes-root, and
// cached-verbs directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.CacheDir, c.DataDir, c.PrefixesRoot, c.CachedVerbsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return werrors.IO(err)
		}
	}
	return nil
}

// CachedVerbsDir is the user-writable mirror of the descriptor tree.
func (c *Config) CachedVerbsDir() string {
	if configRoot, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configRoot, "winetricks", "verbs")
	}
	return filepath.Join(c.DataDir, "verbs")
}

// systemVerbDirs are checked last when resolving the descriptor tree.
var systemVerbDirs = []string{
	"/usr/share/winetricks/json",
	"/usr/local/share/winetricks/json",
}

// MetadataDir resolves the authoritative descriptor directory. Precedence:
// development checkout, the user cache when populated, <data_dir>/json,
// then system locations.
func (c *Config) MetadataDir() string {
	if filepath.Base(c.DataDir) == devSentinel {
		return filepath.Join(c.DataDir, "json")
	}

	cached := c.CachedVerbsDir()
	if hasCategoryDirs(cached) {
		return cached
	}

	local := filepath.Join(c.DataDir, "json")
	if dirExists(local) {
		return local
	}

	for _, dir := range systemVerbDirs {
		if dirExists(dir) {
			return dir
		}
	}
	return local
}

// sourceVerbsDir is the read-only tree EnsureCacheInitialized mirrors from.
func (c *Config) sourceVerbsDir() string {
	local := filepath.Join(c.DataDir, "json")
	if dirExists(local) {
		return local
	}
	for _, dir := range systemVerbDirs {
		if dirExists(dir) {
			return dir
		}
	}
	return ""
}

// DetectDisplayServer probes the environment only. Returns "wayland",
// "xwayland", or "".
func (c *Config) DetectDisplayServer() string {
	if os.Getenv("WAYLAND_DISPLAY") != "" && os.Getenv("DISPLAY") == "" {
		return "wayland"
	}
	if os.Getenv("DISPLAY") != "" {
		return "xwayland"
	}
	return ""
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func hasCategoryDirs(path string) bool {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() {
			return true
		}
	}
	return false
}
