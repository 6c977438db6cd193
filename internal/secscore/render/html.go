// Package render writes a report in the formats the CLI offers: a
// self-contained HTML page, CSV, JSON, a Prometheus textfile and a console
// summary.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/build-flow-labs/secscore/internal/secscore/report"
	"github.com/build-flow-labs/secscore/internal/secscore/score"
)

//go:embed templates/*.html
var templateFS embed.FS

var titleCaser = cases.Title(language.English)

var reportTmpl = template.Must(template.New("").
	Funcs(sprig.FuncMap()).
	Funcs(template.FuncMap{
		"statusClass":   statusClass,
		"riskClass":     riskClass,
		"categoryTitle": CategoryTitle,
		"truncate":      truncate,
		"pct":           func(f float64) string { return fmt.Sprintf("%.1f", f) },
		"points":        func(f float64) string { return fmt.Sprintf("%.2f", f) },
		"timestamp":     func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04 MST") },
	}).
	ParseFS(templateFS, "templates/*.html"))

type htmlData struct {
	Meta         report.Metadata
	Summary      report.Summary
	Categories   []report.CategoryGroup
	ScorePercent float64
}

// HTML renders the interactive report page.
func HTML(w io.Writer, d *report.Data) error {
	data := htmlData{
		Meta:         d.Metadata(),
		Summary:      d.Summary(),
		Categories:   d.Categories(),
		ScorePercent: d.ScorePercent(),
	}
	if err := reportTmpl.ExecuteTemplate(w, "report", data); err != nil {
		return fmt.Errorf("rendering html report: %w", err)
	}
	return nil
}

// CategoryTitle formats a Graph control category for display.
func CategoryTitle(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return "Uncategorized"
	}
	return titleCaser.String(c)
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(n int, s string) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func statusClass(s score.Status) string {
	switch s {
	case score.Compliant:
		return "ok"
	case score.NonCompliant:
		return "fail"
	case score.NotApplicable:
		return "na"
	default:
		return "unknown"
	}
}

func riskClass(r score.Risk) string {
	return "risk-" + strings.ToLower(string(r))
}
