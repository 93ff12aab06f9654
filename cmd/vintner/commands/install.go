package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vintner/vintner/pkg/config"
	"github.com/vintner/vintner/pkg/executor"
	"github.com/vintner/vintner/pkg/telemetry"
)

func newInstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <verb>...",
		Short: "Install one or more verbs into the wineprefix",
		Long: `Install verbs in order. Each verb's artifacts are downloaded into the
cache (with SHA-256 verification when the descriptor provides digests),
its installers are executed through Wine, and the verb is recorded in the
prefix's winetricks.log.

Already-installed verbs are skipped unless --force is given.`,
		Example: `  # Install the core fonts
  vintner install corefonts

  # Silent install of several verbs
  vintner install -q vcrun2019 dotnet48

  # Reinstall ignoring the install log
  vintner install --force corefonts`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig()
			if err != nil {
				return err
			}
			log, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			exec, err := buildExecutor(cfg, log, historyOption(cmd.Context(), cfg, log))
			if err != nil {
				return err
			}

			for _, name := range args {
				if err := exec.Install(cmd.Context(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}

	return cmd
}

// historyOption opens the per-user history database. Failure to open it
// never blocks an install.
func historyOption(ctx context.Context, cfg *config.Config, log *telemetry.Logger) executor.Option {
	store, err := openHistory(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("install history disabled")
		return executor.WithHistory(nil)
	}
	return executor.WithHistory(store)
}
