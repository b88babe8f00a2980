package sheets

import (
	"context"
	"fmt"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jaakkos/okrboard/internal/okr"
)

// Excel is a Source backed by a local .xlsx workbook. Every call opens the
// file fresh so edits made in a spreadsheet application are picked up.
type Excel struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex // serializes read-modify-save cycles
}

// NewExcel returns a Source over the workbook at path.
func NewExcel(path string, logger *zap.Logger) *Excel {
	return &Excel{path: path, logger: logger.Named("xlsx")}
}

// Path returns the workbook path.
func (x *Excel) Path() string { return x.path }

func (x *Excel) ReadTabs(ctx context.Context, rng string, tabs ...string) (map[string]okr.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	out := make(map[string]okr.Table, len(tabs))
	for _, tab := range tabs {
		if idx, _ := f.GetSheetIndex(tab); idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrTabNotFound, tab)
		}
		rows, err := f.GetRows(tab)
		if err != nil {
			return nil, fmt.Errorf("read tab %s: %w", tab, err)
		}
		out[tab] = r.Clip(rows)
	}
	x.logger.Debug("read tabs", zap.Strings("tabs", tabs), zap.String("range", r.String()))
	return out, nil
}

func (x *Excel) WriteCells(ctx context.Context, updates []CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	failed := make(map[int]error)
	for i, u := range updates {
		if idx, _ := f.GetSheetIndex(u.Tab); idx < 0 {
			failed[i] = fmt.Errorf("%w: %s", ErrTabNotFound, u.Tab)
			continue
		}
		if err := f.SetCellValue(u.Tab, u.Cell, u.Value); err != nil {
			failed[i] = err
		}
	}
	if len(failed) == len(updates) {
		return &BatchWriteError{Failed: failed}
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	x.logger.Info("wrote cells", zap.Int("written", len(updates)-len(failed)), zap.Int("failed", len(failed)))
	if len(failed) > 0 {
		return &BatchWriteError{Failed: failed}
	}
	return nil
}

// AppendRows creates tab when it does not exist yet.
func (x *Excel) AppendRows(ctx context.Context, tab string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(tab); idx < 0 {
		if _, err := f.NewSheet(tab); err != nil {
			return fmt.Errorf("create tab %s: %w", tab, err)
		}
	}
	existing, err := f.GetRows(tab)
	if err != nil {
		return fmt.Errorf("read tab %s: %w", tab, err)
	}
	next := len(existing) + 1
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, next+i)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(tab, cell, &values); err != nil {
			return fmt.Errorf("append to %s: %w", tab, err)
		}
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
