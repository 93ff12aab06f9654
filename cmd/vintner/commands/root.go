// Package commands implements the vintner CLI. Commands build a Config
// from flags and the optional settings file, then drive the executor.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vintner/vintner/pkg/config"
	"github.com/vintner/vintner/pkg/executor"
	"github.com/vintner/vintner/pkg/telemetry"
)

var (
	// Global flags
	configPath string
	verbosity  int

	force      bool
	unattended bool
	torify     bool
	isolate    bool
	noClean    bool

	prefix   string
	winearch string
	renderer string
	wayland  string
)

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vintner",
		Short: "Vintner - package manager for Wine prefixes",
		Long: `Vintner installs Windows redistributables, fonts, and applications
into Wine prefixes from a tree of verb descriptors.

Features:
  - Verb descriptors with per-file SHA-256 verification
  - Cached downloads shared across prefixes
  - Silent installer execution with per-family switches
  - Idempotent installs tracked in winetricks.log`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "settings file path")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&force, "force", "f", false, "reinstall even if already installed")
	rootCmd.PersistentFlags().BoolVarP(&unattended, "unattended", "q", false, "suppress installer UI and prompts")
	rootCmd.PersistentFlags().BoolVar(&torify, "torify", false, "route downloads through torify")
	rootCmd.PersistentFlags().BoolVar(&isolate, "isolate", false, "isolate each app in its own prefix")
	rootCmd.PersistentFlags().BoolVar(&noClean, "no-clean", false, "keep temporary directories")
	rootCmd.PersistentFlags().StringVar(&prefix, "prefix", "", "wineprefix path (default $WINEPREFIX or ~/.wine)")
	rootCmd.PersistentFlags().StringVar(&winearch, "winearch", "", "wine architecture (win32 or win64)")
	rootCmd.PersistentFlags().StringVar(&renderer, "renderer", "", "Direct3D renderer (opengl, vulkan, gdi, no3d)")
	rootCmd.PersistentFlags().StringVar(&wayland, "wayland", "", "display backend (wayland, xwayland, auto)")

	// Add subcommands
	rootCmd.AddCommand(newInstallCommand())
	rootCmd.AddCommand(newUninstallCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newCachedCommand())
	rootCmd.AddCommand(newSyncCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}

// buildConfig merges the settings file and command-line flags, flags
// winning.
func buildConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if verbosity > 0 {
		cfg.Verbosity = verbosity
	}
	if cfg.Verbosity > 2 {
		cfg.Verbosity = 2
	}
	if force {
		cfg.Force = true
	}
	if unattended {
		cfg.Unattended = true
	}
	if torify {
		cfg.Torify = true
	}
	if isolate {
		cfg.Isolate = true
	}
	if noClean {
		cfg.NoClean = true
	}
	if prefix != "" {
		cfg.WinePrefix = prefix
	}
	if winearch != "" {
		cfg.WineArch = winearch
	}
	if renderer != "" {
		cfg.Renderer = renderer
	}
	if wayland != "" {
		cfg.Wayland = wayland
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildLogger(cfg *config.Config) (*telemetry.Logger, error) {
	return telemetry.NewLogger(telemetry.LoggingConfig{
		Level:  telemetry.LevelForVerbosity(cfg.Verbosity),
		Format: "console",
		Output: "stderr",
	})
}

func buildExecutor(cfg *config.Config, log *telemetry.Logger, opts ...executor.Option) (*executor.Executor, error) {
	opts = append([]executor.Option{executor.WithLogger(log)}, opts...)
	return executor.New(cfg, opts...)
}
