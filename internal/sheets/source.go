// Package sheets reads and writes team tabs of the OKR spreadsheet.
//
// Two backends implement Source: Excel for a local .xlsx workbook and Google
// for a Google Sheets spreadsheet. Memory is an in-process source used by
// tests and demos.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jaakkos/okrboard/internal/okr"
)

// ErrTabNotFound is returned when a requested tab does not exist.
var ErrTabNotFound = errors.New("tab not found")

// CellUpdate is one value to write, addressed by tab and A1 cell name.
type CellUpdate struct {
	Tab   string
	Cell  string
	Value string
}

// String renders the update address as 'Tab'!D5.
func (u CellUpdate) String() string {
	return quoteTab(u.Tab) + "!" + u.Cell
}

// Source is a spreadsheet holding one tab per team.
type Source interface {
	// ReadTabs reads rng (e.g. "A1:H50") from every tab in one round trip.
	// Trailing empty cells and rows are dropped, like the Sheets API does.
	ReadTabs(ctx context.Context, rng string, tabs ...string) (map[string]okr.Table, error)
	// WriteCells writes every update in one batch. A partial failure is
	// reported as *BatchWriteError; any other error means nothing was written.
	WriteCells(ctx context.Context, updates []CellUpdate) error
	// AppendRows appends rows below the last used row of tab.
	AppendRows(ctx context.Context, tab string, rows [][]string) error
}

// BatchWriteError reports the updates of a batch that could not be written.
// Failed is keyed by the index into the submitted slice.
type BatchWriteError struct {
	Failed map[int]error
}

func (e *BatchWriteError) Error() string {
	idx := make([]int, 0, len(e.Failed))
	for i := range e.Failed {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	parts := make([]string, 0, len(idx))
	for _, i := range idx {
		parts = append(parts, fmt.Sprintf("#%d: %v", i, e.Failed[i]))
	}
	return fmt.Sprintf("%d cell writes failed (%s)", len(e.Failed), strings.Join(parts, "; "))
}

// Range is a rectangular A1 range.
type Range struct {
	FromCol, FromRow int
	ToCol, ToRow     int
}

// ParseRange parses "A1:H50". A single cell is a one-cell range.
func ParseRange(s string) (Range, error) {
	from, to, found := strings.Cut(strings.ToUpper(strings.TrimSpace(s)), ":")
	if !found {
		to = from
	}
	fc, fr, err := excelize.CellNameToCoordinates(from)
	if err != nil {
		return Range{}, fmt.Errorf("range %q: %w", s, err)
	}
	tc, tr, err := excelize.CellNameToCoordinates(to)
	if err != nil {
		return Range{}, fmt.Errorf("range %q: %w", s, err)
	}
	if tc < fc || tr < fr {
		return Range{}, fmt.Errorf("range %q: end before start", s)
	}
	return Range{FromCol: fc, FromRow: fr, ToCol: tc, ToRow: tr}, nil
}

func (r Range) String() string {
	from, _ := excelize.CoordinatesToCellName(r.FromCol, r.FromRow)
	to, _ := excelize.CoordinatesToCellName(r.ToCol, r.ToRow)
	return from + ":" + to
}

// Clip cuts a full-sheet grid (row 1 at index 0, column A at index 0) down
// to r and drops trailing empty cells and rows.
func (r Range) Clip(rows [][]string) okr.Table {
	var out okr.Table
	for i := r.FromRow - 1; i < len(rows) && i < r.ToRow; i++ {
		row := rows[i]
		var cells []string
		if r.FromCol-1 < len(row) {
			end := min(len(row), r.ToCol)
			cells = append([]string(nil), row[r.FromCol-1:end]...)
		}
		out = append(out, trimRow(cells))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out
}

// CellName returns the A1 name of column col (e.g. "D") at row.
func CellName(col string, row int) (string, error) {
	return excelize.JoinCellName(strings.ToUpper(col), row)
}

func trimRow(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	if n == 0 {
		return []string{}
	}
	return cells[:n]
}

func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}
