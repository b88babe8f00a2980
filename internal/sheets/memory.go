package sheets

import (
	"context"
	"fmt"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/jaakkos/okrboard/internal/okr"
)

// Memory is an in-process Source. Tabs are full-sheet grids with row 1 at
// index 0.
type Memory struct {
	mu    sync.Mutex
	tabs  map[string]okr.Table
	reads int

	// FailCells makes writes to the given 'Tab'!Cell addresses fail.
	FailCells map[string]error
	// FailReads makes every ReadTabs call fail.
	FailReads error
}

// NewMemory returns a Memory source holding a copy of tabs.
func NewMemory(tabs map[string]okr.Table) *Memory {
	m := &Memory{tabs: make(map[string]okr.Table, len(tabs))}
	for name, t := range tabs {
		m.tabs[name] = copyTable(t)
	}
	return m
}

func (m *Memory) ReadTabs(ctx context.Context, rng string, tabs ...string) (map[string]okr.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	out := make(map[string]okr.Table, len(tabs))
	for _, tab := range tabs {
		t, ok := m.tabs[tab]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrTabNotFound, tab)
		}
		out[tab] = r.Clip(t)
	}
	return out, nil
}

func (m *Memory) WriteCells(ctx context.Context, updates []CellUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	failed := make(map[int]error)
	for i, u := range updates {
		if err, ok := m.FailCells[u.String()]; ok {
			failed[i] = err
			continue
		}
		t, ok := m.tabs[u.Tab]
		if !ok {
			failed[i] = fmt.Errorf("%w: %s", ErrTabNotFound, u.Tab)
			continue
		}
		col, row, err := excelize.CellNameToCoordinates(u.Cell)
		if err != nil {
			failed[i] = err
			continue
		}
		for len(t) < row {
			t = append(t, []string{})
		}
		for len(t[row-1]) < col {
			t[row-1] = append(t[row-1], "")
		}
		t[row-1][col-1] = u.Value
		m.tabs[u.Tab] = t
	}
	if len(failed) > 0 {
		return &BatchWriteError{Failed: failed}
	}
	return nil
}

func (m *Memory) AppendRows(ctx context.Context, tab string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tabs[tab] = append(m.tabs[tab], copyTable(rows)...)
	return nil
}

// Tab returns a copy of the full grid of tab.
func (m *Memory) Tab(name string) okr.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyTable(m.tabs[name])
}

// Cell returns the value at an A1 cell of tab, or "" when unset.
func (m *Memory) Cell(tab, cell string) string {
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tabs[tab]
	if row > len(t) || col > len(t[row-1]) {
		return ""
	}
	return t[row-1][col-1]
}

// Reads returns how many ReadTabs calls were served.
func (m *Memory) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

func copyTable(t [][]string) okr.Table {
	if t == nil {
		return nil
	}
	out := make(okr.Table, len(t))
	for i, row := range t {
		out[i] = append([]string{}, row...)
	}
	return out
}
