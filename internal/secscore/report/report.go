// Package report accumulates classified Secure Score controls into the
// structure handed to the renderers.
package report

import (
	"time"

	"github.com/build-flow-labs/secscore/internal/secscore/score"
)

// Item is one processed control. Items are values; Data hands out copies.
type Item struct {
	ControlID     string
	Category      string
	SettingName   string
	CurrentValue  string
	ProposedValue string
	Justification string
	Risk          score.Risk
	Status        score.Status
	ScoreImpact   string
	ReferenceURL  string
	ActionURL     string
	MaxScore      float64
	Achieved      float64
}

// Metadata describes the run and the tenant.
type Metadata struct {
	RunID        string
	TenantID     string
	TenantName   string
	GeneratedBy  string
	GeneratedAt  time.Time
	CurrentScore float64
	MaxScore     float64
}

// Summary holds the running counts. It is always derived from the items.
type Summary struct {
	Total         int
	Compliant     int
	NonCompliant  int
	NotApplicable int
	Unknown       int
	HighRisk      int
	MediumRisk    int
	LowRisk       int

	// Controls that never became items.
	Invalid    int
	Deprecated int
}

// CompliancePercent returns the share of scored controls that are compliant.
func (s Summary) CompliancePercent() float64 {
	scored := s.Compliant + s.NonCompliant
	if scored == 0 {
		return 0
	}
	return float64(s.Compliant) / float64(scored) * 100
}

// Data is the report aggregate for one run.
type Data struct {
	items    []Item
	summary  Summary
	metadata Metadata
}

// New returns an empty report.
func New() *Data {
	return &Data{}
}

// AddItem appends an item and updates the counters with it.
func (d *Data) AddItem(item Item) {
	d.items = append(d.items, item)
	d.summary.Total++

	switch item.Status {
	case score.Compliant:
		d.summary.Compliant++
	case score.NonCompliant:
		d.summary.NonCompliant++
	case score.NotApplicable:
		d.summary.NotApplicable++
	default:
		d.summary.Unknown++
	}

	switch item.Risk {
	case score.High:
		d.summary.HighRisk++
	case score.Medium:
		d.summary.MediumRisk++
	default:
		d.summary.LowRisk++
	}
}

// RecordInvalid counts a control rejected by validation.
func (d *Data) RecordInvalid() { d.summary.Invalid++ }

// RecordDeprecated counts a control skipped because Microsoft retired it.
func (d *Data) RecordDeprecated() { d.summary.Deprecated++ }

// SetMetadata overwrites the fields of m that are set. Empty strings,
// zero times and zero scores keep the previous value.
func (d *Data) SetMetadata(m Metadata) {
	cur := &d.metadata
	if m.RunID != "" {
		cur.RunID = m.RunID
	}
	if m.TenantID != "" {
		cur.TenantID = m.TenantID
	}
	if m.TenantName != "" {
		cur.TenantName = m.TenantName
	}
	if m.GeneratedBy != "" {
		cur.GeneratedBy = m.GeneratedBy
	}
	if !m.GeneratedAt.IsZero() {
		cur.GeneratedAt = m.GeneratedAt
	}
	if m.CurrentScore != 0 {
		cur.CurrentScore = m.CurrentScore
	}
	if m.MaxScore != 0 {
		cur.MaxScore = m.MaxScore
	}
}

// Items returns the items in processing order.
func (d *Data) Items() []Item {
	return append([]Item(nil), d.items...)
}

// Summary returns the current counts.
func (d *Data) Summary() Summary { return d.summary }

// Metadata returns the run metadata.
func (d *Data) Metadata() Metadata { return d.metadata }

// ScorePercent returns the tenant's current score as a share of the maximum.
func (d *Data) ScorePercent() float64 {
	if d.metadata.MaxScore <= 0 {
		return 0
	}
	return d.metadata.CurrentScore / d.metadata.MaxScore * 100
}

// CategoryGroup is the set of items sharing a category.
type CategoryGroup struct {
	Name  string
	Items []Item
}

// Categories groups items by category in first-seen order.
func (d *Data) Categories() []CategoryGroup {
	var groups []CategoryGroup
	index := make(map[string]int)
	for _, it := range d.items {
		i, ok := index[it.Category]
		if !ok {
			i = len(groups)
			index[it.Category] = i
			groups = append(groups, CategoryGroup{Name: it.Category})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}
