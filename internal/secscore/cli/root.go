// Package cli wires the secscore commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/build-flow-labs/secscore/internal/secscore/config"
)

// Version is set at build time with -ldflags "-X .../cli.Version=...".
var Version = "dev"

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCmd builds the secscore command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "secscore",
		Short: "Microsoft Secure Score compliance reports",
		Long: `secscore reads a tenant's Microsoft Secure Score from Microsoft Graph and
turns every control into a report row: compliance status, risk, the
current and proposed setting, its score impact and a direct link to the
admin portal page that fixes it.

Reports are written as HTML, CSV, JSON or a Prometheus textfile.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultFile, "Config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	root.AddCommand(newReportCmd(opts))
	root.AddCommand(newMappingsCmd(opts))
	root.AddCommand(newResolveCmd(opts))
	root.AddCommand(newInitCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig reads the config file, then the environment, then the log
// level flag. The default config file may be absent.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath, !cmd.Flags().Changed("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the secscore version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "secscore %s\n", Version)
		},
	}
}
