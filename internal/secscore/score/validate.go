package score

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/build-flow-labs/secscore/internal/secscore/model"
)

var controlIDRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// ValidationError explains why a control was rejected before classification.
type ValidationError struct {
	ControlID string
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.ControlID == "" {
		return "invalid control: " + e.Reason
	}
	return fmt.Sprintf("invalid control %s: %s", e.ControlID, e.Reason)
}

// Validate applies the data-quality gate to a control definition.
// A non-HTTP action URL is accepted; callers may log it.
func Validate(c model.ControlDefinition) error {
	id := strings.TrimSpace(c.ID)
	switch {
	case id == "":
		return &ValidationError{Reason: "missing identifier"}
	case strings.TrimSpace(c.Title) == "":
		return &ValidationError{ControlID: c.ID, Reason: "missing title"}
	case !controlIDRe.MatchString(c.ID):
		return &ValidationError{ControlID: c.ID, Reason: "identifier contains invalid characters"}
	case c.HasMaxScore && (c.MaxScore < 0 || c.MaxScore > 100):
		return &ValidationError{ControlID: c.ID, Reason: fmt.Sprintf("max score %s outside [0, 100]", formatNumber(c.MaxScore))}
	}
	return nil
}
