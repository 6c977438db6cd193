package render

import (
	"fmt"
	"io"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/build-flow-labs/secscore/internal/secscore/report"
)

type jsonReport struct {
	RunID        string     `json:"runId,omitempty"`
	TenantID     string     `json:"tenantId,omitempty"`
	TenantName   string     `json:"tenantName,omitempty"`
	GeneratedBy  string     `json:"generatedBy,omitempty"`
	GeneratedAt  time.Time  `json:"generatedAt,omitzero"`
	CurrentScore float64    `json:"currentScore"`
	MaxScore     float64    `json:"maxScore"`
	Summary      jsonCounts `json:"summary"`
	Items        []jsonItem `json:"items"`
}

type jsonCounts struct {
	Total         int `json:"totalChecks"`
	Compliant     int `json:"compliant"`
	NonCompliant  int `json:"nonCompliant"`
	NotApplicable int `json:"notApplicable"`
	Unknown       int `json:"unknown"`
	HighRisk      int `json:"highRisk"`
	MediumRisk    int `json:"mediumRisk"`
	LowRisk       int `json:"lowRisk"`
	Invalid       int `json:"invalid"`
	Deprecated    int `json:"deprecated"`
}

type jsonItem struct {
	ControlID     string `json:"controlId"`
	Category      string `json:"category"`
	SettingName   string `json:"settingName"`
	Status        string `json:"status"`
	Risk          string `json:"risk"`
	CurrentValue  string `json:"currentValue"`
	ProposedValue string `json:"proposedValue"`
	Justification string `json:"justification"`
	ScoreImpact   string `json:"secureScoreImpact"`
	ReferenceURL  string `json:"referenceUrl,omitempty"`
	ActionURL     string `json:"actionUrl"`
}

// JSON writes the report as an indented JSON document.
func JSON(w io.Writer, d *report.Data) error {
	m, s := d.Metadata(), d.Summary()
	out := jsonReport{
		RunID:        m.RunID,
		TenantID:     m.TenantID,
		TenantName:   m.TenantName,
		GeneratedBy:  m.GeneratedBy,
		GeneratedAt:  m.GeneratedAt,
		CurrentScore: m.CurrentScore,
		MaxScore:     m.MaxScore,
		Summary: jsonCounts{
			Total:         s.Total,
			Compliant:     s.Compliant,
			NonCompliant:  s.NonCompliant,
			NotApplicable: s.NotApplicable,
			Unknown:       s.Unknown,
			HighRisk:      s.HighRisk,
			MediumRisk:    s.MediumRisk,
			LowRisk:       s.LowRisk,
			Invalid:       s.Invalid,
			Deprecated:    s.Deprecated,
		},
		Items: []jsonItem{},
	}
	for _, it := range d.Items() {
		out.Items = append(out.Items, jsonItem{
			ControlID:     it.ControlID,
			Category:      it.Category,
			SettingName:   it.SettingName,
			Status:        string(it.Status),
			Risk:          string(it.Risk),
			CurrentValue:  it.CurrentValue,
			ProposedValue: it.ProposedValue,
			Justification: it.Justification,
			ScoreImpact:   it.ScoreImpact,
			ReferenceURL:  it.ReferenceURL,
			ActionURL:     it.ActionURL,
		})
	}
	if err := json.MarshalWrite(w, out, jsontext.WithIndent("  ")); err != nil {
		return fmt.Errorf("writing json report: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
