package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/build-flow-labs/secscore/internal/secscore/config"
	"github.com/build-flow-labs/secscore/internal/secscore/graph"
	"github.com/build-flow-labs/secscore/internal/secscore/model"
	"github.com/build-flow-labs/secscore/internal/secscore/render"
	"github.com/build-flow-labs/secscore/internal/secscore/report"
	"github.com/build-flow-labs/secscore/internal/secscore/urlmap"
)

// graphSource is the part of the Graph client a report run needs.
type graphSource interface {
	ControlProfiles(ctx context.Context) ([]model.ControlDefinition, error)
	LatestScore(ctx context.Context) (*model.ScoreSnapshot, error)
	Organization(ctx context.Context) (*graph.Organization, error)
	Me(ctx context.Context) (*graph.User, error)
}

// newGraphSource is replaced in tests.
var newGraphSource = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (graphSource, error) {
	cloud, err := graph.LookupCloud(cfg.Cloud)
	if err != nil {
		return nil, err
	}
	c, err := graph.NewClient(ctx, graph.Credentials{
		TenantID:     cfg.TenantID,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Token:        cfg.Token,
	}, graph.Options{
		Cloud:     cloud,
		RateLimit: cfg.RateLimit,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

var now = time.Now

type reportOptions struct {
	root      *rootOptions
	tenant    string
	cloud     string
	mappings  string
	outputDir string
	name      string
	formats   []string
}

func newReportCmd(root *rootOptions) *cobra.Command {
	o := &reportOptions{root: root}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Fetch the tenant's Secure Score and write the compliance report",
		Long: `Fetches the tenant's Secure Score control profiles and latest score from
Microsoft Graph, classifies every active control and writes the report in
each requested format.

Authentication uses the client credentials grant (client ID from config,
secret from the configured environment variable) unless
SECSCORE_GRAPH_TOKEN holds a bearer token.`,
		Args: cobra.NoArgs,
		RunE: o.run,
	}
	cmd.Flags().StringVar(&o.tenant, "tenant", "", "Tenant ID or primary domain")
	cmd.Flags().StringVar(&o.cloud, "cloud", "", "Microsoft cloud: global, usgov, usgovdod, china")
	cmd.Flags().StringVar(&o.mappings, "mappings", "", "URL mapping file (default: built-in)")
	cmd.Flags().StringVarP(&o.outputDir, "output", "o", "", "Output directory")
	cmd.Flags().StringVar(&o.name, "name", "", "Report file name without extension")
	cmd.Flags().StringSliceVarP(&o.formats, "format", "f", nil, "Output formats: html, csv, json, metrics")
	return cmd
}

func (o *reportOptions) config(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := o.root.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("tenant") {
		cfg.TenantID = o.tenant
	}
	if flags.Changed("cloud") {
		cfg.Cloud = o.cloud
	}
	if flags.Changed("mappings") {
		cfg.Mappings = o.mappings
	}
	if flags.Changed("output") {
		cfg.OutputDir = o.outputDir
	}
	if flags.Changed("name") {
		cfg.ReportName = o.name
	}
	if flags.Changed("format") {
		cfg.Formats = o.formats
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (o *reportOptions) run(cmd *cobra.Command, args []string) error {
	cfg, err := o.config(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	table, err := loadTable(cfg.Mappings)
	if err != nil {
		return err
	}
	table.LogCollisions(logger)

	src, err := newGraphSource(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating Graph client: %w", err)
	}

	data, err := buildReport(ctx, src, table, cfg, logger)
	if err != nil {
		var apiErr *graph.APIError
		if errors.As(err, &apiErr) && apiErr.Throttled() {
			logger.Warn("Graph is throttling requests; lower rate_limit or retry later",
				"status", apiErr.StatusCode,
				"retry_after", apiErr.RetryAfter,
			)
		}
		return err
	}

	outputs, err := writeOutputs(data, cfg)
	if err != nil {
		return err
	}
	for _, p := range outputs {
		logger.Info("report written", "path", p)
	}
	return render.Summary(cmd.OutOrStdout(), data, outputs)
}

// buildReport fetches everything from Graph and assembles the report.
func buildReport(ctx context.Context, src graphSource, table *urlmap.Table, cfg *config.Config, logger *slog.Logger) (*report.Data, error) {
	data := report.New()
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	data.SetMetadata(report.Metadata{
		RunID:       runID,
		TenantID:    cfg.TenantID,
		GeneratedBy: generatedBy(ctx, src, cfg, logger),
		GeneratedAt: now().UTC(),
	})

	// Portal links want the tenant GUID; a configured domain is replaced
	// once the organization record is known.
	tenantID := cfg.TenantID
	if org, err := src.Organization(ctx); err != nil {
		logger.Warn("could not read organization, using configured tenant", "error", err)
	} else {
		data.SetMetadata(report.Metadata{TenantID: org.ID, TenantName: org.DisplayName})
		if org.ID != "" {
			tenantID = org.ID
		}
	}

	snap, err := src.LatestScore(ctx)
	switch {
	case errors.Is(err, graph.ErrNoScore):
		logger.Warn("tenant has no secure score yet; controls will have no achieved score")
		snap = &model.ScoreSnapshot{TenantID: tenantID}
	case err != nil:
		return nil, err
	}
	data.SetMetadata(report.Metadata{CurrentScore: snap.CurrentScore, MaxScore: snap.MaxScore})

	controls, err := src.ControlProfiles(ctx)
	if err != nil {
		return nil, err
	}

	asm := report.NewAssembler(urlmap.NewNormalizer(table), tenantID, logger)
	if err := asm.Assemble(controls, snap, data); err != nil {
		return nil, err
	}
	return data, nil
}

// generatedBy names who ran the report: the signed-in user for delegated
// tokens, the app registration otherwise.
func generatedBy(ctx context.Context, src graphSource, cfg *config.Config, logger *slog.Logger) string {
	if cfg.Token == "" {
		return "app:" + cfg.ClientID
	}
	u, err := src.Me(ctx)
	if err != nil {
		logger.Debug("token has no signed-in user", "error", err)
		return "token"
	}
	if u.UserPrincipalName != "" {
		return u.UserPrincipalName
	}
	return u.DisplayName
}

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// reportName is the file name used for every output, without extension.
func reportName(cfg *config.Config, d *report.Data) string {
	if cfg.ReportName != "" {
		return cfg.ReportName
	}
	m := d.Metadata()
	tenant := m.TenantName
	if tenant == "" {
		tenant = m.TenantID
	}
	tenant = strings.Trim(unsafeNameRe.ReplaceAllString(tenant, "-"), "-")
	if tenant == "" {
		tenant = "tenant"
	}
	return fmt.Sprintf("secure-score-%s-%s", strings.ToLower(tenant), m.GeneratedAt.Format("20060102-150405"))
}

// writeOutputs writes one file per configured format and returns their paths.
func writeOutputs(d *report.Data, cfg *config.Config) ([]string, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	base := filepath.Join(cfg.OutputDir, reportName(cfg, d))

	writers := []struct {
		format string
		ext    string
		write  func(io.Writer, *report.Data) error
	}{
		{config.FormatHTML, ".html", render.HTML},
		{config.FormatCSV, ".csv", render.CSV},
		{config.FormatJSON, ".json", render.JSON},
	}

	var paths []string
	for _, w := range writers {
		if !cfg.HasFormat(w.format) {
			continue
		}
		path := base + w.ext
		if err := writeFile(path, d, w.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	if cfg.HasFormat(config.FormatMetrics) {
		path := base + ".prom"
		if err := render.Metrics(path, d); err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, d *report.Data, write func(io.Writer, *report.Data) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	if err := write(f, d); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
