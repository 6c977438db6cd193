// Package score derives the per-control fields shown in a Secure Score
// report: compliance status, risk tier, score impact and the current and
// proposed value descriptions.
//
// Compliance compares the tenant's achieved points with the control's
// maximum. Risk combines the maximum score with Microsoft's user impact
// rating. Score impact expresses a control's weight against the tenant's
// total achievable score.
package score

import (
	"fmt"
	"math"
	"strconv"
)

// Thresholds on a control's maximum score.
const (
	HighRiskMinScore   = 7
	MediumRiskMinScore = 4
)

// ScoreImpact returns a control's share of the total achievable score,
// e.g. "+5%" or "+3.33%". When the total is unknown it falls back to the
// control's own points, e.g. "+5 points".
func ScoreImpact(controlMax, totalMax float64) string {
	if totalMax > 0 {
		pct := math.RoundToEven(controlMax/totalMax*100*100) / 100
		return fmt.Sprintf("+%s%%", formatNumber(pct))
	}
	return fmt.Sprintf("+%s points", formatNumber(controlMax))
}

// formatNumber prints n without trailing zeros.
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
