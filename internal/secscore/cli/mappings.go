package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/build-flow-labs/secscore/internal/secscore/urlmap"
)

// loadTable returns the mapping table at path, or the built-in one when
// path is empty.
func loadTable(path string) (*urlmap.Table, error) {
	if path == "" {
		return urlmap.Default()
	}
	return urlmap.LoadFile(path)
}

func newMappingsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Inspect URL mapping tables",
	}

	var strict bool
	check := &cobra.Command{
		Use:   "check [file]",
		Short: "Load a mapping file and report its contents",
		Long: `Loads a URL mapping document (or the configured one, or the built-in
table) and prints how many exact mappings, fallback rules and URL
replacements it holds. Control titles mapped in more than one category
are listed; with --strict they are treated as an error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			path := cfg.Mappings
			if len(args) == 1 {
				path = args[0]
			}

			tbl, err := loadTable(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			source := path
			if source == "" {
				source = "built-in"
			}
			st := tbl.Stats()
			fmt.Fprintf(out, "Mapping table: %s\n", source)
			fmt.Fprintf(out, "  Exact mappings: %d in %d categories\n", st.Mappings, st.Categories)
			fmt.Fprintf(out, "  Fallback rules: %d\n", st.Rules)
			for _, r := range tbl.Rules() {
				fmt.Fprintf(out, "    - %s (%d keywords)\n", r.Name, len(r.Keywords))
			}
			fmt.Fprintf(out, "  URL replacements: %d\n", st.Replacements)
			for _, r := range tbl.Replacements() {
				fmt.Fprintf(out, "    - %s -> %s\n", r.Old, r.New)
			}

			if st.Collisions == 0 {
				return nil
			}
			fmt.Fprintf(out, "  Duplicate titles: %d\n", st.Collisions)
			for _, c := range tbl.Collisions() {
				fmt.Fprintf(out, "    - %q: %s overrides %s\n", c.Name, c.Category, c.PreviousCategory)
			}
			if strict {
				return fmt.Errorf("%d duplicate control titles", st.Collisions)
			}
			return nil
		},
	}
	check.Flags().BoolVar(&strict, "strict", false, "Fail when a control title is mapped in more than one category")

	cmd.AddCommand(check)
	return cmd
}
