package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/build-flow-labs/secscore/internal/secscore/model"
)

// maxPages bounds @odata.nextLink traversal.
const maxPages = 100

// ErrNoScore is returned when the tenant has no Secure Score yet.
var ErrNoScore = errors.New("tenant has no secure score")

// ControlProfiles returns every Secure Score control profile, following
// pagination, in the order Graph returns them.
func (c *Client) ControlProfiles(ctx context.Context) ([]model.ControlDefinition, error) {
	var controls []model.ControlDefinition
	next := "/security/secureScoreControlProfiles"
	for page := 0; next != ""; page++ {
		if page == maxPages {
			return nil, fmt.Errorf("control profiles: more than %d pages", maxPages)
		}
		var resp ControlProfilesResponse
		if err := c.get(ctx, next, &resp); err != nil {
			return nil, fmt.Errorf("listing control profiles: %w", err)
		}
		for _, p := range resp.Value {
			controls = append(controls, p.toModel())
		}
		next = resp.NextLink
	}
	c.logger.Info("fetched control profiles", "count", len(controls))
	return controls, nil
}

// LatestScore returns the most recent tenant Secure Score.
func (c *Client) LatestScore(ctx context.Context) (*model.ScoreSnapshot, error) {
	var resp SecureScoresResponse
	if err := c.get(ctx, "/security/secureScores?$top=1", &resp); err != nil {
		return nil, fmt.Errorf("fetching secure score: %w", err)
	}
	if len(resp.Value) == 0 {
		return nil, ErrNoScore
	}

	latest := resp.Value[0]
	for _, s := range resp.Value[1:] {
		if s.CreatedDateTime.After(latest.CreatedDateTime) {
			latest = s
		}
	}
	return latest.toModel(), nil
}

// Organization returns the tenant's organization record.
func (c *Client) Organization(ctx context.Context) (*Organization, error) {
	var resp OrganizationResponse
	if err := c.get(ctx, "/organization?$select=id,displayName,verifiedDomains", &resp); err != nil {
		return nil, fmt.Errorf("fetching organization: %w", err)
	}
	if len(resp.Value) == 0 {
		return nil, errors.New("fetching organization: empty response")
	}
	return &resp.Value[0], nil
}

// Me returns the signed-in user. It fails for app-only tokens.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.get(ctx, "/me?$select=id,displayName,userPrincipalName", &u); err != nil {
		return nil, fmt.Errorf("fetching signed-in user: %w", err)
	}
	return &u, nil
}

func (p ControlProfile) toModel() model.ControlDefinition {
	c := model.ControlDefinition{
		ID:                 p.ID,
		Title:              p.Title,
		Category:           p.ControlCategory,
		ImplementationCost: p.ImplementationCost,
		UserImpact:         p.UserImpact,
		Threats:            p.Threats,
		Remediation:        p.Remediation,
		ActionURL:          p.ActionURL,
		Service:            p.Service,
		Tier:               p.Tier,
		Deprecated:         p.Deprecated,
	}
	if p.MaxScore != nil {
		c.MaxScore = *p.MaxScore
		c.HasMaxScore = true
	}
	return c
}

func (s SecureScore) toModel() *model.ScoreSnapshot {
	snap := &model.ScoreSnapshot{
		TenantID:     s.AzureTenantID,
		CurrentScore: s.CurrentScore,
		MaxScore:     s.MaxScore,
		CreatedAt:    s.CreatedDateTime,
		Controls:     make(map[string]model.TenantControlScore, len(s.ControlScores)),
	}
	for _, cs := range s.ControlScores {
		if cs.ControlName == "" || cs.Score == nil {
			continue
		}
		snap.Controls[cs.ControlName] = model.TenantControlScore{
			ControlID:   cs.ControlName,
			Score:       *cs.Score,
			Description: cs.Description,
		}
	}
	return snap
}
