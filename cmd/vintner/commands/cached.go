package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCachedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cached",
		Short: "Show downloaded installer files in the cache",
		Long: `Show the artifacts currently present in the download cache, grouped by
verb. Cached files are reused on reinstall without downloading again.`,
		Example: `  vintner cached`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig()
			if err != nil {
				return err
			}
			log, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			exec, err := buildExecutor(cfg, log)
			if err != nil {
				return err
			}

			entries, err := exec.ListCached()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("cache is empty")
				return nil
			}

			for _, entry := range entries {
				fmt.Println(entry.Verb)
				for _, f := range entry.Files {
					fmt.Printf("  %s\n", f)
				}
			}
			return nil
		},
	}

	return cmd
}
