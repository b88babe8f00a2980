package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/jaakkos/okrboard/internal/okr"
)

const userEntered = "USER_ENTERED"

// Google is a Source backed by the Google Sheets API. Reads and writes are
// one BatchGet and one BatchUpdate call respectively.
type Google struct {
	values        *gsheets.SpreadsheetsValuesService
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogle connects to the spreadsheet. With an empty credentialsFile the
// application default credentials are used.
func NewGoogle(ctx context.Context, spreadsheetID, credentialsFile string, logger *zap.Logger) (*Google, error) {
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &Google{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
		logger:        logger.Named("gsheets"),
	}, nil
}

func (g *Google) ReadTabs(ctx context.Context, rng string, tabs ...string) (map[string]okr.Table, error) {
	r, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}
	ranges := make([]string, len(tabs))
	for i, tab := range tabs {
		ranges[i] = quoteTab(tab) + "!" + r.String()
	}

	resp, err := g.values.BatchGet(g.spreadsheetID).Ranges(ranges...).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("batch get %v: %w", tabs, readError(err))
	}
	if len(resp.ValueRanges) != len(tabs) {
		return nil, fmt.Errorf("batch get: asked for %d ranges, got %d", len(tabs), len(resp.ValueRanges))
	}

	out := make(map[string]okr.Table, len(tabs))
	for i, vr := range resp.ValueRanges {
		table := make(okr.Table, len(vr.Values))
		for j, row := range vr.Values {
			cells := make([]string, len(row))
			for k, v := range row {
				cells[k] = fmt.Sprint(v)
			}
			table[j] = cells
		}
		out[tabs[i]] = table
	}
	g.logger.Debug("read tabs", zap.Strings("tabs", tabs), zap.String("range", r.String()))
	return out, nil
}

func (g *Google) WriteCells(ctx context.Context, updates []CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	data := make([]*gsheets.ValueRange, len(updates))
	for i, u := range updates {
		data[i] = &gsheets.ValueRange{
			Range:  u.String(),
			Values: [][]interface{}{{u.Value}},
		}
	}
	req := &gsheets.BatchUpdateValuesRequest{ValueInputOption: userEntered, Data: data}
	resp, err := g.values.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch update: %w", err)
	}
	g.logger.Info("wrote cells", zap.Int64("cells", resp.TotalUpdatedCells))
	return nil
}

func (g *Google) AppendRows(ctx context.Context, tab string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, v := range row {
			values[i][j] = v
		}
	}
	_, err := g.values.Append(g.spreadsheetID, quoteTab(tab)+"!A1", &gsheets.ValueRange{Values: values}).
		ValueInputOption(userEntered).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", tab, err)
	}
	return nil
}

// readError maps the API's answer for a range on a missing tab to
// ErrTabNotFound.
func readError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest &&
		strings.Contains(gerr.Message, "Unable to parse range") {
		return fmt.Errorf("%w: %s", ErrTabNotFound, gerr.Message)
	}
	return err
}
