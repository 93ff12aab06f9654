package commands

import (
	"github.com/spf13/cobra"
)

func newSyncCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync verb descriptors into the user cache",
		Long: `Mirror the verb descriptor tree from the data directory into the
per-user descriptor cache. With --watch the source tree is watched and
re-synced whenever descriptors change.`,
		Example: `  # One-shot sync
  vintner sync

  # Keep the cache updated while editing descriptors
  vintner sync --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig()
			if err != nil {
				return err
			}
			log, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			if watch {
				return cfg.WatchVerbs(cmd.Context(), log)
			}
			return cfg.SyncVerbs(log)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "watch the descriptor source and re-sync on change")

	return cmd
}
