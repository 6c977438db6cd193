package report

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/build-flow-labs/secscore/internal/secscore/model"
	"github.com/build-flow-labs/secscore/internal/secscore/score"
	"github.com/build-flow-labs/secscore/internal/secscore/urlmap"
)

var httpRe = regexp.MustCompile(`(?i)^https?://`)

// Assembler turns raw controls into report items.
type Assembler struct {
	normalizer *urlmap.Normalizer
	tenantID   string
	logger     *slog.Logger
}

// NewAssembler creates an assembler. tenantID is injected into portal links
// and may be empty.
func NewAssembler(normalizer *urlmap.Normalizer, tenantID string, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Assembler{normalizer: normalizer, tenantID: tenantID, logger: logger}
}

// Assemble processes controls in order and appends one item per valid,
// active control to data. Invalid and deprecated controls are counted and
// skipped. Only a normalizer without a mapping table stops the run.
func (a *Assembler) Assemble(controls []model.ControlDefinition, snap *model.ScoreSnapshot, data *Data) error {
	achieved := snap.ControlScores()
	var totalMax float64
	if snap != nil {
		totalMax = snap.MaxScore
	}

	for _, c := range controls {
		if err := score.Validate(c); err != nil {
			data.RecordInvalid()
			a.logger.Warn("skipping control", "error", err)
			continue
		}
		if c.Deprecated {
			data.RecordDeprecated()
			a.logger.Debug("skipping deprecated control", "control", c.ID)
			continue
		}

		item, err := a.Item(c, achieved, totalMax)
		if err != nil {
			return fmt.Errorf("control %s: %w", c.ID, err)
		}
		data.AddItem(item)
	}

	s := data.Summary()
	a.logger.Info("controls processed",
		"items", s.Total,
		"invalid", s.Invalid,
		"deprecated", s.Deprecated,
	)
	return nil
}

// Item classifies a single validated control.
func (a *Assembler) Item(c model.ControlDefinition, achieved map[string]model.TenantControlScore, totalMax float64) (Item, error) {
	if c.ActionURL != "" && !httpRe.MatchString(c.ActionURL) {
		a.logger.Debug("control has non-HTTP action", "control", c.ID, "action", c.ActionURL)
	}

	actionURL, err := a.normalizer.Resolve(c.ActionURL, c.Title, a.tenantID)
	if err != nil {
		return Item{}, err
	}

	status := score.ClassifyCompliance(c.ID, achieved, c.MaxScore)
	tenantScore := achieved[c.ID]

	item := Item{
		ControlID:     c.ID,
		Category:      c.Category,
		SettingName:   c.Title,
		CurrentValue:  score.CurrentValue(status, tenantScore, c.MaxScore),
		ProposedValue: score.ProposedValue(c),
		Justification: score.Justification(c),
		Risk:          score.ClassifyRisk(c.MaxScore, c.UserImpact),
		Status:        status,
		ScoreImpact:   score.ScoreImpact(c.MaxScore, totalMax),
		ActionURL:     actionURL,
		MaxScore:      c.MaxScore,
		Achieved:      tenantScore.Score,
	}
	if httpRe.MatchString(c.ActionURL) {
		item.ReferenceURL = c.ActionURL
	}
	return item, nil
}
