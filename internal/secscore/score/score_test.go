package score

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/build-flow-labs/secscore/internal/secscore/model"
)

func TestScoreImpact(t *testing.T) {
	tests := []struct {
		controlMax, totalMax float64
		want                 string
	}{
		{5, 100, "+5%"},
		{5, 0, "+5 points"},
		{1, 3, "+33.33%"},
		{2, 3, "+66.67%"},
		{10, 400, "+2.5%"},
		{0, 250, "+0%"},
		{7.5, 0, "+7.5 points"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScoreImpact(tt.controlMax, tt.totalMax), "ScoreImpact(%v, %v)", tt.controlMax, tt.totalMax)
	}
}

func TestClassifyCompliance(t *testing.T) {
	achieved := map[string]model.TenantControlScore{
		"full":    {ControlID: "full", Score: 10},
		"partial": {ControlID: "partial", Score: 4},
		"zero":    {ControlID: "zero", Score: 0},
	}

	tests := []struct {
		id   string
		max  float64
		want Status
	}{
		{"full", 10, Compliant},
		{"partial", 10, NonCompliant},
		{"zero", 10, NonCompliant},
		{"missing", 10, NotApplicable},
		{"zero", 0, Compliant},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCompliance(tt.id, achieved, tt.max))
		})
	}
}

func TestClassifyCompliancePropertyGrid(t *testing.T) {
	for max := 0; max <= 10; max++ {
		for got := 0; got <= max; got++ {
			achieved := map[string]model.TenantControlScore{"c": {ControlID: "c", Score: float64(got)}}
			status := ClassifyCompliance("c", achieved, float64(max))
			if got == max {
				assert.Equal(t, Compliant, status, "achieved %d of %d", got, max)
			} else {
				assert.Equal(t, NonCompliant, status, "achieved %d of %d", got, max)
			}
			assert.Equal(t, NotApplicable, ClassifyCompliance("other", achieved, float64(max)))
		}
	}
}

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		name   string
		max    float64
		impact string
		want   Risk
	}{
		{"high score", 7, "", High},
		{"high score low impact", 10, "Low", High},
		{"high impact low score", 1, "High", High},
		{"impact case-insensitive", 1, "high", High},
		{"medium score", 4, "", Medium},
		{"medium impact", 2, "Medium", Medium},
		{"medium score low impact", 6, "Low", Medium},
		{"low", 3, "Low", Low},
		{"low no impact", 0, "", Low},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRisk(tt.max, tt.impact))
		})
	}
}

func TestClassifyRiskHighScoreDominates(t *testing.T) {
	for _, impact := range []string{"", "Low", "Medium", "High", "unexpected"} {
		for max := 7.0; max <= 100; max += 3 {
			assert.Equal(t, High, ClassifyRisk(max, impact), "max %v impact %q", max, impact)
		}
	}
}

func TestValidate(t *testing.T) {
	base := model.ControlDefinition{ID: "Control_1.2-a", Title: "Do something", MaxScore: 5, HasMaxScore: true}

	tests := []struct {
		name   string
		mutate func(c *model.ControlDefinition)
		reason string
	}{
		{"valid", func(c *model.ControlDefinition) {}, ""},
		{"missing id", func(c *model.ControlDefinition) { c.ID = "" }, "missing identifier"},
		{"blank id", func(c *model.ControlDefinition) { c.ID = "   " }, "missing identifier"},
		{"missing title", func(c *model.ControlDefinition) { c.Title = "" }, "missing title"},
		{"bad id", func(c *model.ControlDefinition) { c.ID = "bad id!" }, "identifier contains invalid characters"},
		{"negative score", func(c *model.ControlDefinition) { c.MaxScore = -1 }, "max score -1 outside [0, 100]"},
		{"score over 100", func(c *model.ControlDefinition) { c.MaxScore = 101 }, "max score 101 outside [0, 100]"},
		{"score absent", func(c *model.ControlDefinition) { c.MaxScore = 500; c.HasMaxScore = false }, ""},
		{"non-http url accepted", func(c *model.ControlDefinition) { c.ActionURL = "Run Set-Mailbox" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := Validate(c)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.reason, ve.Reason)
		})
	}
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Non-Compliant", NonCompliant.Label())
	assert.Equal(t, "Not Applicable", NotApplicable.Label())
	assert.Equal(t, "Compliant", Compliant.Label())
	assert.Equal(t, "Unknown", Status("bogus").Label())
}
