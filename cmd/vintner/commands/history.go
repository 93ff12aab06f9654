package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vintner/vintner/pkg/config"
	"github.com/vintner/vintner/pkg/history"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded install and uninstall runs",
		Long: `Inspect the per-user run history. Every install and uninstall is
recorded with its outcome; individual runs carry an append-only event
trail (fetch, installer executions, log updates).`,
	}

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())

	return cmd
}

func newHistoryListCommand() *cobra.Command {
	var (
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Example: `  vintner history list
  vintner history list --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig()
			if err != nil {
				return err
			}

			store, err := openHistory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no recorded runs")
				return nil
			}

			for _, run := range runs {
				fmt.Printf("%s  %-9s %-9s %-24s %s\n",
					run.StartedAt.Format("2006-01-02 15:04:05"),
					run.Action, run.Status, run.Verb, run.ID)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of runs to skip")

	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show <run-id>",
		Short:   "Show one run and its event trail",
		Example: `  vintner history show 2f1c2f64-9f2a-4a57-9a0e-1f7f8a2d9c01`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig()
			if err != nil {
				return err
			}

			store, err := openHistory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("run:        %s\n", run.ID)
			fmt.Printf("verb:       %s\n", run.Verb)
			fmt.Printf("action:     %s\n", run.Action)
			fmt.Printf("wineprefix: %s\n", run.Wineprefix)
			fmt.Printf("status:     %s\n", run.Status)
			fmt.Printf("started:    %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
			if run.CompletedAt != nil {
				fmt.Printf("completed:  %s\n", run.CompletedAt.Format("2006-01-02 15:04:05"))
			}
			if run.Error != nil {
				fmt.Printf("error:      %s\n", *run.Error)
			}

			events, err := store.ListEvents(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			if len(events) > 0 {
				fmt.Println("events:")
				for _, ev := range events {
					fmt.Printf("  %s  %-5s %s\n",
						ev.Timestamp.Format("15:04:05"), ev.Level, ev.Message)
				}
			}
			return nil
		},
	}

	return cmd
}

func openHistory(ctx context.Context, cfg *config.Config) (*history.Store, error) {
	store, err := history.NewStore(filepath.Join(cfg.DataDir, "history.db"))
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
