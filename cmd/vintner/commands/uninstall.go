package commands

import (
	"github.com/spf13/cobra"
)

func newUninstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall <verb>...",
		Short: "Remove verbs from the wineprefix install log",
		Long: `Remove verbs from the prefix's winetricks.log so they can be
reinstalled. Depending on the verb's category this may leave files in the
prefix; run the application's own uninstaller for a full removal.`,
		Example: `  vintner uninstall corefonts
  vintner uninstall vcrun2019 dotnet48`,
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
				if err := exec.Uninstall(cmd.Context(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}

	return cmd
}
