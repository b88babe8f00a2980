package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaakkos/okrboard/internal/domain"
	"github.com/jaakkos/okrboard/internal/okr"
	"github.com/jaakkos/okrboard/internal/sheets"
)

// UpdateRequest asks to set the current value of one KR.
type UpdateRequest struct {
	Team  string
	KRID  string
	Value string // in the sheet's locale, e.g. "45,5%", "R$ 1.234,50" or "12"
	Actor string // email of the team member
	Note  string
}

// UpdateResult is the outcome of UpdateValue. Entry is nil unless the cell
// was written.
type UpdateResult struct {
	domain.RowResult
	Entry *domain.AuditEntry `json:"audit,omitempty"`
}

// PropagateRequest asks to copy one KR value to every team row with the same
// description. With an empty Value the source row's current value is used
// and the source row itself is left alone.
type PropagateRequest struct {
	Team  string
	KRID  string
	Value string
	Actor string
	Note  string
}

// PropagateReport lists the outcome of every row a propagation touched.
type PropagateReport struct {
	BatchID     string             `json:"batch_id"`
	Team        string             `json:"team"`
	KRID        string             `json:"kr_id"`
	Description string             `json:"description"`
	Value       float64            `json:"value"`
	Results     []domain.RowResult `json:"results"`
	Updated     int                `json:"updated"`
	Unchanged   int                `json:"unchanged"`
	Failed      int                `json:"failed"`
}

// UpdateValue writes a new current value into the KR's value cell and
// records it in the audit log. Writing a value equal to the current one is a
// no-op reported as unchanged.
func (s *BoardService) UpdateValue(ctx context.Context, req UpdateRequest) (*UpdateResult, error) {
	actor, team, err := s.authorize(req.Actor, req.Team)
	if err != nil {
		return nil, err
	}
	value, err := parseValue(req.Value)
	if err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tabs, err := s.readTabs(ctx, team)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", team, err)
	}
	rec, err := findKR(tabs[team], team, req.KRID)
	if err != nil {
		return nil, err
	}

	row, update, err := s.planRow(team, rec, value)
	if err != nil {
		return nil, err
	}
	res := &UpdateResult{RowResult: row}
	if update == nil {
		s.logger.Info("value unchanged", zap.String("team", team), zap.String("kr", rec.ID))
		return res, nil
	}

	if err := s.source.WriteCells(ctx, []sheets.CellUpdate{*update}); err != nil {
		res.Status = domain.RowFailed
		res.Error = err.Error()
		return res, fmt.Errorf("write %s: %w", update, err)
	}
	res.Status = domain.RowUpdated

	entry := s.newEntry("", actor, req.Note, row)
	res.Entry = &entry
	s.logger.Info("value updated",
		zap.String("team", team), zap.String("kr", rec.ID), zap.String("cell", row.Cell),
		zap.String("old", row.OldValue), zap.String("new", row.NewValue), zap.String("actor", actor))

	err = s.recordAudit(ctx, []domain.AuditEntry{entry})
	s.notify()
	return res, err
}

// Propagate copies one KR value to every row of every team whose description
// matches the source KR's (case-insensitive, trimmed). All tabs are read in
// one batch and only rows whose value differs are written, in one batch, so
// running it twice is a no-op. Per-row failures are reported, not returned.
func (s *BoardService) Propagate(ctx context.Context, req PropagateRequest) (*PropagateReport, error) {
	actor, team, err := s.authorize(req.Actor, req.Team)
	if err != nil {
		return nil, err
	}
	var explicit *float64
	if strings.TrimSpace(req.Value) != "" {
		v, err := parseValue(req.Value)
		if err != nil {
			return nil, err
		}
		explicit = &v
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	teams := s.policy.Teams()
	tabs, missing, err := s.readTeamTabs(ctx, teams)
	if err != nil {
		return nil, fmt.Errorf("propagate: read tabs: %w", err)
	}
	if err := missing[team]; err != nil {
		return nil, fmt.Errorf("propagate: read tabs: %w", err)
	}
	if len(tabs[team]) == 0 {
		return nil, &okr.EmptyDataError{Tab: team}
	}
	src, err := findKR(tabs[team], team, req.KRID)
	if err != nil {
		return nil, err
	}
	key := descriptionKey(src.Description)
	if key == "" {
		return nil, fmt.Errorf("propagate: KR %s in %s has no description to match on", src.ID, team)
	}

	var value float64
	if explicit != nil {
		value = *explicit
	} else if value, err = okr.Normalize(src.CurrentValue); err != nil {
		return nil, fmt.Errorf("propagate: source value: %w", err)
	}

	report := &PropagateReport{
		BatchID:     uuid.NewString(),
		Team:        team,
		KRID:        src.ID,
		Description: src.Description,
		Value:       value,
	}

	// Collect target rows: the source row when a new value was given, then
	// matching rows of every team in configured order.
	var (
		updates []sheets.CellUpdate
		pending []int // index into report.Results per update
	)
	for _, t := range teams {
		if err, ok := missing[t]; ok {
			report.Results = append(report.Results, domain.RowResult{Team: t, Status: domain.RowFailed, Error: err.Error()})
			continue
		}
		for _, rec := range okr.Parse(tabs[t]) {
			if descriptionKey(rec.Description) != key {
				continue
			}
			if t == team && rec.Row == src.Row && explicit == nil {
				continue
			}
			row, update, err := s.planRow(t, rec, value)
			if err != nil {
				row = domain.RowResult{Team: t, Row: rec.Row, KRID: rec.ID, Description: rec.Description,
					OldValue: rec.CurrentValue, Status: domain.RowFailed, Error: err.Error()}
			}
			report.Results = append(report.Results, row)
			if update != nil {
				updates = append(updates, *update)
				pending = append(pending, len(report.Results)-1)
			}
		}
	}

	if len(updates) > 0 {
		err := s.source.WriteCells(ctx, updates)
		var bwe *sheets.BatchWriteError
		switch {
		case err == nil:
		case errors.As(err, &bwe):
		default:
			bwe = &sheets.BatchWriteError{Failed: make(map[int]error, len(updates))}
			for i := range updates {
				bwe.Failed[i] = err
			}
		}
		for i, ri := range pending {
			r := &report.Results[ri]
			if bwe != nil {
				if ferr, failed := bwe.Failed[i]; failed {
					r.Status = domain.RowFailed
					r.Error = ferr.Error()
					continue
				}
			}
			r.Status = domain.RowUpdated
		}
	}

	var entries []domain.AuditEntry
	for _, r := range report.Results {
		switch r.Status {
		case domain.RowUpdated:
			report.Updated++
			entries = append(entries, s.newEntry(report.BatchID, actor, req.Note, r))
		case domain.RowUnchanged:
			report.Unchanged++
		case domain.RowFailed:
			report.Failed++
		}
	}
	s.logger.Info("propagated value",
		zap.String("batch", report.BatchID), zap.String("team", team), zap.String("kr", src.ID),
		zap.Int("updated", report.Updated), zap.Int("unchanged", report.Unchanged), zap.Int("failed", report.Failed))

	if len(entries) == 0 {
		return report, nil
	}
	err = s.recordAudit(ctx, entries)
	s.notify()
	return report, err
}

func (s *BoardService) authorize(actorEmail, team string) (actor, name string, err error) {
	actor, err = s.policy.ValidateActor(actorEmail)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	name, err = s.canonicalTeam(team)
	if err != nil {
		return "", "", err
	}
	return actor, name, nil
}

// planRow decides what to write for rec. The returned update is nil when the
// row already holds value.
func (s *BoardService) planRow(team string, rec okr.KeyResultRecord, value float64) (domain.RowResult, *sheets.CellUpdate, error) {
	cell, err := sheets.CellName(s.policy.ValueColumn(), rec.Row)
	if err != nil {
		return domain.RowResult{}, nil, err
	}
	newValue := okr.SheetValue(value, okr.Classify(rec.Target))
	row := domain.RowResult{
		Team:        team,
		Row:         rec.Row,
		Cell:        cell,
		KRID:        rec.ID,
		Description: rec.Description,
		OldValue:    rec.CurrentValue,
		NewValue:    newValue,
	}
	if old, err := okr.Normalize(rec.CurrentValue); err == nil && old == value {
		row.Status = domain.RowUnchanged
		row.NewValue = rec.CurrentValue
		return row, nil, nil
	}
	return row, &sheets.CellUpdate{Tab: team, Cell: cell, Value: newValue}, nil
}

func (s *BoardService) newEntry(batchID, actor, note string, r domain.RowResult) domain.AuditEntry {
	return domain.AuditEntry{
		ID:        uuid.NewString(),
		BatchID:   batchID,
		Timestamp: s.now().UTC(),
		Actor:     actor,
		Team:      r.Team,
		KRID:      r.KRID,
		OldValue:  r.OldValue,
		NewValue:  r.NewValue,
		Note:      note,
	}
}

// recordAudit appends entries to the audit repository and mirrors them to
// the audit tab when one is configured. Only the repository is authoritative;
// a failed mirror is logged.
func (s *BoardService) recordAudit(ctx context.Context, entries []domain.AuditEntry) error {
	if err := s.audit.Append(ctx, entries...); err != nil {
		s.logger.Error("audit append failed", zap.Int("entries", len(entries)), zap.Error(err))
		return fmt.Errorf("cell written but audit append failed: %w", err)
	}
	tab := s.policy.AuditTab()
	if tab == "" {
		return nil
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = e.Row()
	}
	if err := s.source.AppendRows(ctx, tab, rows); err != nil {
		s.logger.Warn("audit tab mirror failed", zap.String("tab", tab), zap.Error(err))
	}
	return nil
}

// readTeamTabs reads every team tab in one call. When a tab is missing it
// reads the teams one by one and returns the missing ones with their error.
func (s *BoardService) readTeamTabs(ctx context.Context, teams []string) (map[string]okr.Table, map[string]error, error) {
	tabs, err := s.source.ReadTabs(ctx, s.policy.ReadRange(), teams...)
	if err == nil {
		return tabs, nil, nil
	}
	if !errors.Is(err, sheets.ErrTabNotFound) {
		return nil, nil, err
	}

	tabs = make(map[string]okr.Table, len(teams))
	missing := make(map[string]error)
	for _, t := range teams {
		one, err := s.source.ReadTabs(ctx, s.policy.ReadRange(), t)
		switch {
		case err == nil:
			tabs[t] = one[t]
		case errors.Is(err, sheets.ErrTabNotFound):
			s.logger.Warn("team tab missing", zap.String("team", t), zap.Error(err))
			missing[t] = err
		default:
			return nil, nil, err
		}
	}
	return tabs, missing, nil
}

func (s *BoardService) notify() {
	if s.notifier != nil {
		s.notifier.Trigger()
	}
}

func findKR(table okr.Table, team, id string) (okr.KeyResultRecord, error) {
	want := okr.ParseID(id)
	for _, rec := range okr.Parse(table) {
		if strings.EqualFold(rec.ID, want) {
			return rec, nil
		}
	}
	return okr.KeyResultRecord{}, fmt.Errorf("%w: KR %s in %s", ErrKRNotFound, want, team)
}

func parseValue(raw string) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, &okr.FormatError{Field: "value", Value: raw, Err: errors.New("value is required")}
	}
	v, err := okr.Normalize(raw)
	var fe *okr.FormatError
	if errors.As(err, &fe) {
		fe.Field = "value"
	}
	return v, err
}

func descriptionKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
