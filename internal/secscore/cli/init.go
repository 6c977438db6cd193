package cli

import (
	"github.com/spf13/cobra"

	"github.com/build-flow-labs/secscore/internal/secscore/config"
	"github.com/build-flow-labs/secscore/internal/secscore/setup"
)

func newInitCmd(root *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactive setup wizard that writes secscore.yaml",
		Long: `Walks through the settings secscore needs to read a tenant's Secure Score:

  1. Tenant ID or primary domain
  2. App registration client ID and the variable holding its secret
  3. Microsoft cloud (global, usgov, usgovdod, china)
  4. Optional custom URL mapping file, validated on entry
  5. Output directory and report formats
  6. Write the config file

Use --dry-run to walk through the steps without writing anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if root.logLevel != "" {
				cfg.LogLevel = root.logLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg)
			wiz := setup.NewWizard(cmd.InOrStdin(), cmd.OutOrStdout(), root.configPath, dryRun, logger)
			_, err := wiz.Run()
			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview without writing the config file")
	return cmd
}
