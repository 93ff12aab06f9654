package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vintner/vintner/pkg/config"
	"github.com/vintner/vintner/pkg/executor"
	"github.com/vintner/vintner/pkg/telemetry"
	"github.com/vintner/vintner/pkg/verb"
)

func newListCommand() *cobra.Command {
	var installedOnly bool

	cmd := &cobra.Command{
		Use:   "list [category]",
		Short: "List available verbs",
		Long: `List the verbs known to the descriptor registry, optionally limited to
one category (apps, benchmarks, dlls, fonts, settings, download,
manual-download).`,
		Example: `  # All verbs
  vintner list

  # Only the DLL verbs
  vintner list dlls

  # Verbs recorded as installed in the current prefix
  vintner list --installed`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig()
			if err != nil {
				return err
			}
			log, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			reg, err := loadRegistry(cfg, log)
			if err != nil {
				return err
			}

			var verbs []*verb.Verb
			if len(args) == 1 {
				category, err := verb.ParseCategory(args[0])
				if err != nil {
					return err
				}
				verbs = reg.ListByCategory(category)
			} else {
				verbs = reg.List()
			}

			if installedOnly {
				exec, err := buildExecutor(cfg, log, executor.WithRegistry(reg))
				if err != nil {
					return err
				}
				verbs, err = filterInstalled(exec, verbs)
				if err != nil {
					return err
				}
			}

			for _, v := range verbs {
				fmt.Printf("%-28s %-16s %s\n", v.Name, v.Category, v.Title)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&installedOnly, "installed", false, "only show verbs recorded in the prefix install log")

	return cmd
}

func filterInstalled(exec *executor.Executor, verbs []*verb.Verb) ([]*verb.Verb, error) {
	out := make([]*verb.Verb, 0, len(verbs))
	for _, v := range verbs {
		installed, err := exec.IsInstalled(v.Name)
		if err != nil {
			return nil, err
		}
		if installed {
			out = append(out, v)
		}
	}
	return out, nil
}

// loadRegistry loads descriptors without touching Wine, so listing works
// on machines that have no Wine installed.
func loadRegistry(cfg *config.Config, log *telemetry.Logger) (*verb.Registry, error) {
	if err := cfg.EnsureCacheInitialized(log); err != nil {
		return nil, err
	}
	dir := cfg.MetadataDir()
	reg, err := verb.LoadDir(dir, log)
	if err != nil {
		log.WithField("dir", dir).WithError(err).Warn("no descriptor tree found, registry is empty")
		return verb.NewRegistry(), nil
	}
	return reg, nil
}
