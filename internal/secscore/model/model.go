// Package model holds the Secure Score data shared between the Graph
// collaborator, the classifiers and the report assembler.
package model

import "time"

// ControlDefinition is a Secure Score control profile as returned by Graph.
type ControlDefinition struct {
	ID                 string
	Title              string
	Category           string
	MaxScore           float64
	HasMaxScore        bool
	ImplementationCost string
	UserImpact         string // High, Medium, Low or empty
	Threats            []string
	Remediation        string // may contain HTML markup
	ActionURL          string
	Service            string
	Tier               string
	Deprecated         bool
}

// TenantControlScore is the score a tenant achieved for one control.
type TenantControlScore struct {
	ControlID   string
	Score       float64
	Description string
}

// ScoreSnapshot is the latest tenant-wide Secure Score.
type ScoreSnapshot struct {
	TenantID     string
	CurrentScore float64
	MaxScore     float64
	CreatedAt    time.Time
	Controls     map[string]TenantControlScore
}

// ControlScores returns the per-control scores keyed by control ID.
// A control absent from the map is not scored in this tenant.
func (s *ScoreSnapshot) ControlScores() map[string]TenantControlScore {
	if s == nil || s.Controls == nil {
		return map[string]TenantControlScore{}
	}
	return s.Controls
}
