package score

import "github.com/build-flow-labs/secscore/internal/secscore/model"

// Status is a control's compliance state in the tenant.
type Status string

const (
	Compliant     Status = "Compliant"
	NonCompliant  Status = "NonCompliant"
	NotApplicable Status = "NotApplicable"
	Unknown       Status = "Unknown"
)

// Label returns the human-readable form of s.
func (s Status) Label() string {
	switch s {
	case NonCompliant:
		return "Non-Compliant"
	case NotApplicable:
		return "Not Applicable"
	case Compliant, Unknown:
		return string(s)
	default:
		return string(Unknown)
	}
}

// ClassifyCompliance decides a control's status from the tenant's scores.
//
// A control missing from achieved is not scored for the tenant, typically
// because of licensing. Partial and zero credit both count as NonCompliant.
func ClassifyCompliance(controlID string, achieved map[string]model.TenantControlScore, maxScore float64) Status {
	s, ok := achieved[controlID]
	if !ok {
		return NotApplicable
	}
	if s.Score >= maxScore {
		return Compliant
	}
	return NonCompliant
}
