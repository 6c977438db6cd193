package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/build-flow-labs/secscore/internal/secscore/report"
)

// UTF-8 BOM so Excel opens the file with the right encoding.
const utf8BOM = "\xEF\xBB\xBF"

// CSVHeader is the fixed column order of the CSV export.
var CSVHeader = []string{
	"Category", "SettingName", "Status", "Risk", "CurrentValue",
	"ProposedValue", "Justification", "SecureScoreImpact", "ActionUrl",
}

// CSV writes one row per report item.
func CSV(w io.Writer, d *report.Data) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, it := range d.Items() {
		row := []string{
			it.Category,
			it.SettingName,
			string(it.Status),
			string(it.Risk),
			it.CurrentValue,
			it.ProposedValue,
			it.Justification,
			it.ScoreImpact,
			it.ActionURL,
		}
		for i := range row {
			row[i] = sanitizeCell(row[i])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// sanitizeCell neutralizes spreadsheet formulas. Score impacts such as
// "+5%" are generated values and kept as-is.
func sanitizeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '@', '\t', '\r':
		return "'" + s
	case '+', '-':
		if strings.HasSuffix(s, "%") || strings.HasSuffix(s, " points") {
			return s
		}
		return "'" + s
	}
	return s
}
