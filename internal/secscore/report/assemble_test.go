package report

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/build-flow-labs/secscore/internal/secscore/model"
	"github.com/build-flow-labs/secscore/internal/secscore/score"
	"github.com/build-flow-labs/secscore/internal/secscore/urlmap"
)

const testMappings = `{
  "controlMappings": {
    "Identity": {
      "Require MFA for admins": "https://entra.microsoft.com/#view/Microsoft_AAD_ConditionalAccess/Policies"
    }
  },
  "fallbackRules": {
    "mail": {"keywords": ["phish"], "url": "https://security.microsoft.com/antiphishing"}
  },
  "urlReplacements": {}
}`

func newAssembler(t *testing.T, tenant string, logs *bytes.Buffer) *Assembler {
	t.Helper()
	tbl, err := urlmap.Load(strings.NewReader(testMappings))
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewAssembler(urlmap.NewNormalizer(tbl), tenant, logger)
}

func TestAssembleEndToEnd(t *testing.T) {
	var logs bytes.Buffer
	a := newAssembler(t, "", &logs)

	controls := []model.ControlDefinition{
		{ID: "MFA1", Title: "Require MFA for admins", Category: "Identity", MaxScore: 10, HasMaxScore: true, ActionURL: "https://learn.microsoft.com/x"},
		{ID: "Phish_2", Title: "Create anti-phish policy", Category: "Apps", MaxScore: 5, HasMaxScore: true, UserImpact: "Low", ActionURL: "Use Exchange Online PowerShell"},
		{ID: "Audit.3", Title: "Turn on audit log", Category: "Data", MaxScore: 2, HasMaxScore: true, ActionURL: ""},
		{ID: "bad id!", Title: "Broken", MaxScore: 1, HasMaxScore: true},
		{ID: "Old_4", Title: "Retired control", MaxScore: 3, HasMaxScore: true, Deprecated: true},
	}
	snap := &model.ScoreSnapshot{
		MaxScore: 100,
		Controls: map[string]model.TenantControlScore{
			"MFA1":    {ControlID: "MFA1", Score: 0},
			"Phish_2": {ControlID: "Phish_2", Score: 5},
		},
	}

	d := New()
	require.NoError(t, a.Assemble(controls, snap, d))

	items := d.Items()
	require.Len(t, items, 3)

	mfa := items[0]
	assert.Equal(t, "https://entra.microsoft.com/#view/Microsoft_AAD_ConditionalAccess/Policies", mfa.ActionURL)
	assert.Equal(t, "https://learn.microsoft.com/x", mfa.ReferenceURL)
	assert.Equal(t, score.NonCompliant, mfa.Status)
	assert.Equal(t, score.High, mfa.Risk)
	assert.Equal(t, "+10%", mfa.ScoreImpact)

	phish := items[1]
	assert.Equal(t, "https://security.microsoft.com/antiphishing", phish.ActionURL)
	assert.Empty(t, phish.ReferenceURL)
	assert.Equal(t, score.Compliant, phish.Status)
	assert.Equal(t, score.Medium, phish.Risk)

	audit := items[2]
	assert.Empty(t, audit.ActionURL, "control without a usable link is still reported")
	assert.Equal(t, score.NotApplicable, audit.Status)
	assert.Equal(t, score.Low, audit.Risk)

	s := d.Summary()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Invalid)
	assert.Equal(t, 1, s.Deprecated)
	assertCountersMatchItems(t, d)

	assert.Contains(t, logs.String(), "skipping control")
	assert.Contains(t, logs.String(), "non-HTTP action")
}

func TestAssembleInjectsTenant(t *testing.T) {
	var logs bytes.Buffer
	a := newAssembler(t, "abc-123", &logs)

	d := New()
	err := a.Assemble([]model.ControlDefinition{
		{ID: "AAD1", Title: "Security defaults", MaxScore: 4, ActionURL: "https://portal.azure.com/#view/Microsoft_AAD_IAM/SecurityDefaults"},
	}, nil, d)
	require.NoError(t, err)

	items := d.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "https://entra.microsoft.com/?tid=abc-123#view/Microsoft_AAD_IAM/SecurityDefaults", items[0].ActionURL)
	assert.Equal(t, "+4 points", items[0].ScoreImpact)
	assert.Equal(t, score.NotApplicable, items[0].Status)
}

func TestAssembleWithoutTable(t *testing.T) {
	a := NewAssembler(urlmap.NewNormalizer(nil), "", nil)
	err := a.Assemble([]model.ControlDefinition{{ID: "A", Title: "a"}}, nil, New())
	require.Error(t, err)
	assert.ErrorIs(t, err, urlmap.ErrNotLoaded)
}
