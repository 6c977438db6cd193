package score

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/build-flow-labs/secscore/internal/secscore/model"
)

// CurrentValue describes what the tenant has achieved for a control.
func CurrentValue(status Status, achieved model.TenantControlScore, maxScore float64) string {
	switch status {
	case NotApplicable:
		return "Not scored in this tenant (license or service not in use)"
	case Compliant:
		return fmt.Sprintf("Implemented (%s/%s points)", formatNumber(achieved.Score), formatNumber(maxScore))
	}
	desc := fmt.Sprintf("%s/%s points", formatNumber(achieved.Score), formatNumber(maxScore))
	if achieved.Score > 0 {
		desc = "Partially implemented (" + desc + ")"
	} else {
		desc = "Not implemented (" + desc + ")"
	}
	if d := strings.TrimSpace(PlainText(achieved.Description)); d != "" {
		desc += ": " + d
	}
	return desc
}

// ProposedValue describes the target state for a control.
func ProposedValue(c model.ControlDefinition) string {
	p := fmt.Sprintf("Implement \"%s\" for %s points", c.Title, formatNumber(c.MaxScore))
	if c.ImplementationCost != "" {
		p += fmt.Sprintf(" (implementation cost: %s)", c.ImplementationCost)
	}
	return p
}

// Justification combines the remediation guidance and the threats a
// control mitigates into plain text.
func Justification(c model.ControlDefinition) string {
	text := PlainText(c.Remediation)
	if len(c.Threats) > 0 {
		threats := "Mitigates: " + strings.Join(c.Threats, ", ")
		if text == "" {
			return threats
		}
		text += " " + threats
	}
	return text
}

// PlainText strips markup from Graph-supplied HTML fragments and collapses
// whitespace.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.WriteString(z.Token().Data)
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			// Block-level tags separate words.
			b.WriteByte(' ')
		}
	}
}
