// Package setup implements the interactive `secscore init` wizard that
// writes secscore.yaml.
package setup

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/build-flow-labs/secscore/internal/secscore/config"
	"github.com/build-flow-labs/secscore/internal/secscore/urlmap"
)

// StepResult records the outcome of a single wizard step.
type StepResult struct {
	Step   string
	Action string // "set", "skipped", "dry-run", "error"
	Detail string
}

// Wizard collects tenant and app registration details and saves them.
type Wizard struct {
	prompt  *prompter
	out     io.Writer
	path    string
	dryRun  bool
	logger  *slog.Logger
	cfg     *config.Config
	results []StepResult
}

var cloudNames = []string{"global", "usgov", "usgovdod", "china"}

var formatNames = []string{config.FormatHTML, config.FormatCSV, config.FormatJSON, config.FormatMetrics}

// NewWizard creates a setup wizard that writes to path. Existing values in
// path, if any, are offered as defaults.
func NewWizard(in io.Reader, out io.Writer, path string, dryRun bool, logger *slog.Logger) *Wizard {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Wizard{
		prompt: newPrompter(in, out),
		out:    out,
		path:   path,
		dryRun: dryRun,
		logger: logger,
	}
}

// Run executes every step and writes the config file.
func (w *Wizard) Run() (*config.Config, error) {
	cfg, err := config.Load(w.path, true)
	if err != nil {
		return nil, err
	}
	w.cfg = cfg

	fmt.Fprintln(w.out, "")
	fmt.Fprintln(w.out, "  Secure Score Setup")
	fmt.Fprintln(w.out, "  ==================")
	if w.dryRun {
		fmt.Fprintln(w.out, "  (dry-run mode: the config file will not be written)")
	}
	fmt.Fprintln(w.out, "")

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Tenant", w.askTenant},
		{"App registration", w.askApp},
		{"Cloud", w.askCloud},
		{"URL mappings", w.askMappings},
		{"Output", w.askOutput},
		{"Write config", w.write},
	}

	for i, step := range steps {
		fmt.Fprintf(w.out, "\n--- Step %d/%d: %s ---\n", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			w.record(step.name, "error", err.Error())
			return nil, fmt.Errorf("setup failed at step %d (%s): %w", i+1, step.name, err)
		}
	}

	w.printSummary()
	return w.cfg, nil
}

// Results returns the recorded step outcomes.
func (w *Wizard) Results() []StepResult {
	return slices.Clone(w.results)
}

func (w *Wizard) askTenant() error {
	tenant, err := w.prompt.askValid("Tenant ID or primary domain", w.cfg.TenantID, config.ValidateTenant)
	if err != nil {
		return err
	}
	w.cfg.TenantID = tenant
	w.record("Tenant", "set", tenant)
	return nil
}

func (w *Wizard) askApp() error {
	fmt.Fprintln(w.out, "  The app registration needs the SecurityEvents.Read.All application permission.")
	id, err := w.prompt.askValid("Application (client) ID", w.cfg.ClientID, config.ValidateClientID)
	if err != nil {
		return err
	}
	w.cfg.ClientID = id

	env := w.prompt.askDefault("Environment variable holding the client secret", w.cfg.ClientSecretEnv)
	if strings.ContainsAny(env, " =") {
		return fmt.Errorf("invalid environment variable name %q", env)
	}
	w.cfg.ClientSecretEnv = env
	w.record("App registration", "set", fmt.Sprintf("client %s, secret from $%s", id, env))

	if os.Getenv(env) == "" {
		w.logger.Warn("client secret variable is not set in this shell", "env", env)
	}
	return nil
}

func (w *Wizard) askCloud() error {
	def := max(slices.Index(cloudNames, strings.ToLower(w.cfg.Cloud)), 0)
	idx := w.prompt.askChoice("Microsoft cloud:", cloudNames, def)
	w.cfg.Cloud = cloudNames[idx]
	w.record("Cloud", "set", w.cfg.Cloud)
	return nil
}

func (w *Wizard) askMappings() error {
	if !w.prompt.askYesNo("Use a custom URL mapping file?", w.cfg.Mappings != "") {
		w.cfg.Mappings = ""
		w.record("URL mappings", "skipped", "using built-in mappings")
		return nil
	}
	check := func(path string) error {
		if path == "" {
			return errors.New("path is required")
		}
		tbl, err := urlmap.LoadFile(path)
		if err != nil {
			return err
		}
		st := tbl.Stats()
		fmt.Fprintf(w.out, "  Loaded %d mappings, %d fallback rules, %d replacements.\n", st.Mappings, st.Rules, st.Replacements)
		tbl.LogCollisions(w.logger)
		return nil
	}
	path, err := w.prompt.askValid("Mapping file path", w.cfg.Mappings, check)
	if err != nil {
		return err
	}
	w.cfg.Mappings = path
	w.record("URL mappings", "set", path)
	return nil
}

func (w *Wizard) askOutput() error {
	w.cfg.OutputDir = w.prompt.askDefault("Output directory", w.cfg.OutputDir)

	var def []int
	for i, f := range formatNames {
		if w.cfg.HasFormat(f) {
			def = append(def, i)
		}
	}
	if len(def) == 0 {
		def = []int{0}
	}
	picked := w.prompt.askMultiSelect("Report formats:", formatNames, def)
	w.cfg.Formats = w.cfg.Formats[:0]
	for _, i := range picked {
		if !slices.Contains(w.cfg.Formats, formatNames[i]) {
			w.cfg.Formats = append(w.cfg.Formats, formatNames[i])
		}
	}
	w.record("Output", "set", fmt.Sprintf("%s in %s", strings.Join(w.cfg.Formats, ", "), w.cfg.OutputDir))
	return nil
}

func (w *Wizard) write() error {
	if w.dryRun {
		w.record("Write config", "dry-run", "would write "+w.path)
		return nil
	}
	if _, err := os.Stat(w.path); err == nil {
		if !w.prompt.askYesNo(fmt.Sprintf("Overwrite %s?", w.path), false) {
			w.record("Write config", "skipped", w.path+" left unchanged")
			return nil
		}
	}
	if err := w.cfg.Save(w.path); err != nil {
		return err
	}
	w.record("Write config", "set", "wrote "+w.path)
	return nil
}

// record adds a step result and prints it.
func (w *Wizard) record(step, action, detail string) {
	w.results = append(w.results, StepResult{Step: step, Action: action, Detail: detail})
	marker := "+"
	switch action {
	case "skipped":
		marker = "-"
	case "dry-run":
		marker = "~"
	case "error":
		marker = "!"
	}
	fmt.Fprintf(w.out, "  [%s] %s: %s\n", marker, action, detail)
}

func (w *Wizard) printSummary() {
	fmt.Fprintln(w.out, "\n  Summary")
	fmt.Fprintln(w.out, "  -------")
	for _, r := range w.results {
		fmt.Fprintf(w.out, "  %-18s %-8s %s\n", r.Step, r.Action, r.Detail)
	}
	fmt.Fprintf(w.out, "\n  Next: export %s and run `secscore report`.\n", w.cfg.ClientSecretEnv)
}
