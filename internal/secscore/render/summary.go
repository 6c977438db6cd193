package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/build-flow-labs/secscore/internal/secscore/report"
)

var (
	colorPrimary = lipgloss.Color("#4A9EFF")
	colorSuccess = lipgloss.Color("#22C55E")
	colorWarning = lipgloss.Color("#EAB308")
	colorDanger  = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#9CA3AF")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	labelStyle  = lipgloss.NewStyle().Width(16).Foreground(colorMuted)
	okStyle     = lipgloss.NewStyle().Foreground(colorSuccess)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	dangerStyle = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	boxStyle    = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)
)

// Summary prints a short overview of the run to w.
func Summary(w io.Writer, d *report.Data, outputs []string) error {
	m, s := d.Metadata(), d.Summary()

	tenant := m.TenantName
	if tenant == "" {
		tenant = m.TenantID
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Secure Score: "+tenant) + "\n")
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}
	row("Score", fmt.Sprintf("%.2f / %.2f (%.1f%%)", m.CurrentScore, m.MaxScore, d.ScorePercent()))
	row("Controls", fmt.Sprintf("%d", s.Total))
	row("Compliant", okStyle.Render(fmt.Sprintf("%d", s.Compliant)))
	row("Non-compliant", dangerStyle.Render(fmt.Sprintf("%d", s.NonCompliant)))
	row("Not applicable", fmt.Sprintf("%d", s.NotApplicable))
	row("Compliance", fmt.Sprintf("%.1f%% of scored controls", s.CompliancePercent()))
	row("Risk H/M/L", fmt.Sprintf("%s / %s / %d",
		dangerStyle.Render(fmt.Sprintf("%d", s.HighRisk)),
		warnStyle.Render(fmt.Sprintf("%d", s.MediumRisk)),
		s.LowRisk))
	if s.Invalid > 0 || s.Deprecated > 0 {
		row("Skipped", warnStyle.Render(fmt.Sprintf("%d invalid, %d deprecated", s.Invalid, s.Deprecated)))
	}
	for _, o := range outputs {
		row("Wrote", o)
	}

	_, err := fmt.Fprintln(w, boxStyle.Render(strings.TrimRight(b.String(), "\n")))
	return err
}
