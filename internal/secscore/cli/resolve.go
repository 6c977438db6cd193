package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/build-flow-labs/secscore/internal/secscore/urlmap"
)

func newResolveCmd(root *rootOptions) *cobra.Command {
	var title, rawURL, tenant, mappings string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show the portal link chosen for one control",
		Example: `  secscore resolve --title "Ensure multifactor authentication is enabled for all users" \
    --url "https://aad.portal.azure.com/#blade/Microsoft_AAD_IAM/UsersManagementMenuBlade"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("mappings") {
				mappings = cfg.Mappings
			}
			tbl, err := loadTable(mappings)
			if err != nil {
				return err
			}
			tbl.LogCollisions(newLogger(cmd.ErrOrStderr(), cfg))

			got, err := urlmap.NewNormalizer(tbl).Resolve(rawURL, title, tenant)
			if err != nil {
				return err
			}
			if got == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "(no link)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), got)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Control title")
	cmd.Flags().StringVar(&rawURL, "url", "", "Action URL reported by Graph")
	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant ID to inject into portal links")
	cmd.Flags().StringVar(&mappings, "mappings", "", "Mapping file (default: configured or built-in)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}
