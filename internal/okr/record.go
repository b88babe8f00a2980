// Package okr turns raw spreadsheet grids into key-result records and derives
// progress, severity and display formats from them.
//
// Everything here is a pure function of its input: a table is parsed, viewed and
// summarized from scratch on every load. The package has no dependencies on the
// rest of the module.
package okr

// Table is a grid of cell values as fetched from a sheet tab. Rows may be
// ragged; row order is the sheet's row order starting at row 1.
type Table [][]string

// KeyResultRecord is one parsed KR row.
type KeyResultRecord struct {
	// Objective is the label of the most recent objective row above this KR,
	// or nil when the KR appears before any objective row.
	Objective    *string `json:"objective"`
	ID           string  `json:"id"`
	Description  string  `json:"description"`
	InitialValue string  `json:"initial_value"`
	CurrentValue string  `json:"current_value"`
	Target       string  `json:"target"`
	Row          int     `json:"row"` // 1-based sheet row
}

// ObjectiveLabel returns the objective label or "" when the record has none.
func (r KeyResultRecord) ObjectiveLabel() string {
	if r.Objective == nil {
		return ""
	}
	return *r.Objective
}
