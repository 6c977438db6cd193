package render

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/build-flow-labs/secscore/internal/secscore/report"
	"github.com/build-flow-labs/secscore/internal/secscore/score"
)

func sampleReport() *report.Data {
	d := report.New()
	d.SetMetadata(report.Metadata{
		RunID:        "7d5f3b0c-3c41-4a57-9b8e-0f4e54e7f3aa",
		TenantID:     "8f3c1b7e-0000-4000-8000-000000000001",
		TenantName:   "Contoso",
		GeneratedBy:  "admin@contoso.com",
		GeneratedAt:  time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC),
		CurrentScore: 312.5,
		MaxScore:     540,
	})
	d.AddItem(report.Item{
		ControlID:     "AdminMFAV2",
		Category:      "identity",
		SettingName:   "Require MFA for administrative roles",
		CurrentValue:  "Not implemented (0/10 points)",
		ProposedValue: `Implement "Require MFA for administrative roles" for 10 points`,
		Justification: "Admins hold privileged roles. <script>alert(1)</script>",
		Risk:          score.High,
		Status:        score.NonCompliant,
		ScoreImpact:   "+1.85%",
		ReferenceURL:  "https://learn.microsoft.com/entra/mfa",
		ActionURL:     "https://entra.microsoft.com/#view/Microsoft_AAD_ConditionalAccess",
	})
	d.AddItem(report.Item{
		ControlID:     "DLP1",
		Category:      "Data",
		SettingName:   "=HYPERLINK(\"http://evil\")",
		Status:        score.Compliant,
		Risk:          score.Low,
		ScoreImpact:   "+0.19%",
		Justification: "-starts with dash",
	})
	d.RecordInvalid()
	return d
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "<title>Secure Score Report - Contoso</title>")
	assert.Contains(t, out, "Identity <small>(1)</small>")
	assert.Contains(t, out, "Require MFA for administrative roles")
	assert.Contains(t, out, `data-status="NonCompliant"`)
	assert.Contains(t, out, "Non-Compliant")
	assert.Contains(t, out, "risk-high")
	assert.Contains(t, out, "https://entra.microsoft.com/#view/Microsoft_AAD_ConditionalAccess")
	assert.Contains(t, out, "Docs</a>")
	assert.Contains(t, out, "312.50")
	assert.Contains(t, out, "57.9%")
	assert.Contains(t, out, "1 invalid and 0 deprecated")
	assert.NotContains(t, out, "<script>alert(1)</script>")
}

func TestHTMLEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, report.New()))
	assert.Contains(t, buf.String(), "No controls were returned")
	assert.Contains(t, buf.String(), "Secure Score Report - Tenant")
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, sampleReport()))
	out := buf.String()
	require.True(t, strings.HasPrefix(out, utf8BOM))

	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, utf8BOM))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, "identity", rows[1][0])
	assert.Equal(t, "NonCompliant", rows[1][2])
	assert.Equal(t, "High", rows[1][3])
	assert.Equal(t, "+1.85%", rows[1][7])
	assert.Equal(t, "https://entra.microsoft.com/#view/Microsoft_AAD_ConditionalAccess", rows[1][8])

	assert.Equal(t, `'=HYPERLINK("http://evil")`, rows[2][1])
	assert.Equal(t, "'-starts with dash", rows[2][6])
	assert.Equal(t, "+0.19%", rows[2][7])
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleReport()))

	var got jsonReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Contoso", got.TenantName)
	assert.Equal(t, 2, got.Summary.Total)
	assert.Equal(t, 1, got.Summary.Invalid)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "AdminMFAV2", got.Items[0].ControlID)
	assert.Equal(t, "NonCompliant", got.Items[0].Status)
}

func TestMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secscore.prom")
	require.NoError(t, Metrics(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `secscore_secure_score_points{kind="current",tenant_id="8f3c1b7e-0000-4000-8000-000000000001"} 312.5`)
	assert.Contains(t, out, `secscore_controls{status="non_compliant",tenant_id="8f3c1b7e-0000-4000-8000-000000000001"} 1`)
	assert.Contains(t, out, `secscore_controls_by_risk{risk="high",tenant_id="8f3c1b7e-0000-4000-8000-000000000001"} 1`)
	assert.Contains(t, out, `secscore_controls_skipped{reason="invalid",tenant_id="8f3c1b7e-0000-4000-8000-000000000001"} 1`)
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, sampleReport(), []string{"out/report.html"}))
	out := buf.String()
	assert.Contains(t, out, "Secure Score: Contoso")
	assert.Contains(t, out, "312.50 / 540.00 (57.9%)")
	assert.Contains(t, out, "out/report.html")
	assert.Contains(t, out, "1 invalid, 0 deprecated")
	assert.Contains(t, out, "50.0% of scored controls")
}

func TestCategoryTitle(t *testing.T) {
	assert.Equal(t, "Identity", CategoryTitle("identity"))
	assert.Equal(t, "Uncategorized", CategoryTitle("  "))
}

func TestHTMLShowsCompliancePercent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, sampleReport()))
	assert.Contains(t, buf.String(), `<div class="v">50.0%</div><div class="l">Compliance</div>`)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		name string
		n    int
		in   string
		want string
	}{
		{"short", 10, "abc", "abc"},
		{"exact", 3, "abc", "abc"},
		{"ascii cut", 2, "abcd", "ab…"},
		{"multibyte cut", 3, "Zugriffsrechte für Gäste", "Zug…"},
		{"cut after accent", 2, "äöü", "äö…"},
		{"cjk", 1, "多要素認証", "多…"},
		{"zero", 0, "abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.n, tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestHTMLTruncatesLongJustification(t *testing.T) {
	d := report.New()
	d.AddItem(report.Item{
		ControlID:     "Long1",
		Category:      "Apps",
		SettingName:   "Long text",
		Status:        score.Compliant,
		Risk:          score.Low,
		Justification: strings.Repeat("é", 500),
	})
	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, d))
	out := buf.String()
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, strings.Repeat("é", 400)+"…")
	assert.NotContains(t, out, strings.Repeat("é", 401))
}

func unknownStatusReport() *report.Data {
	d := report.New()
	d.SetMetadata(report.Metadata{TenantID: "t1"})
	d.AddItem(report.Item{ControlID: "A", Category: "Apps", Status: score.Compliant, Risk: score.Low})
	d.AddItem(report.Item{ControlID: "B", Category: "Apps", Risk: score.Low})
	return d
}

func TestJSONCountsReconcile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, unknownStatusReport()))

	var got jsonReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	c := got.Summary
	assert.Equal(t, 1, c.Unknown)
	assert.Equal(t, c.Total, c.Compliant+c.NonCompliant+c.NotApplicable+c.Unknown)
}

func TestMetricsIncludeUnknownStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secscore.prom")
	require.NoError(t, Metrics(path, unknownStatusReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `secscore_controls{status="unknown",tenant_id="t1"} 1`)
	assert.Contains(t, string(data), `secscore_controls{status="compliant",tenant_id="t1"} 1`)
}
