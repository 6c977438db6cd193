package score

import "strings"

// Risk is a control's risk tier.
type Risk string

const (
	High   Risk = "High"
	Medium Risk = "Medium"
	Low    Risk = "Low"
)

// ClassifyRisk assigns a tier from the control's maximum score and its
// user impact rating. Either signal alone is enough to raise the tier.
func ClassifyRisk(maxScore float64, userImpact string) Risk {
	impact := strings.TrimSpace(userImpact)
	switch {
	case maxScore >= HighRiskMinScore || strings.EqualFold(impact, string(High)):
		return High
	case maxScore >= MediumRiskMinScore || strings.EqualFold(impact, string(Medium)):
		return Medium
	default:
		return Low
	}
}
