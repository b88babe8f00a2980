package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jaakkos/okrboard/internal/domain"
	"github.com/jaakkos/okrboard/internal/okr"
	"github.com/jaakkos/okrboard/internal/sheets"
)

// Triggerable is something that can be triggered after a write-back (e.g. Watcher).
type Triggerable interface {
	Trigger()
}

// BoardService runs the dashboard use cases over a spreadsheet source.
// Reads always fetch fresh data; nothing is cached between calls.
type BoardService struct {
	source   sheets.Source
	audit    AuditRepository
	policy   Policy
	logger   *zap.Logger
	now      func() time.Time
	writeMu  sync.Mutex  // serializes read-modify-write cycles
	notifier Triggerable // optional; set via SetNotifier after construction
}

// NewBoardService returns a new BoardService.
func NewBoardService(source sheets.Source, audit AuditRepository, policy Policy, logger *zap.Logger) *BoardService {
	return &BoardService{
		source: source,
		audit:  audit,
		policy: policy,
		logger: logger.Named("board"),
		now:    time.Now,
	}
}

// SetNotifier attaches a Triggerable (e.g. *Watcher) that is poked after every write-back.
func (s *BoardService) SetNotifier(n Triggerable) {
	s.notifier = n
}

// Policy returns the policy for handlers that need configuration.
func (s *BoardService) Policy() Policy { return s.policy }

// Teams returns the configured teams in display order.
func (s *BoardService) Teams() []string { return s.policy.Teams() }

func (s *BoardService) canonicalTeam(team string) (string, error) {
	name, ok := s.policy.CanonicalTeam(team)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTeam, team)
	}
	return name, nil
}

// readTabs fetches every tab in one round trip and reports an empty tab as
// *okr.EmptyDataError.
func (s *BoardService) readTabs(ctx context.Context, teams ...string) (map[string]okr.Table, error) {
	tabs, err := s.source.ReadTabs(ctx, s.policy.ReadRange(), teams...)
	if err != nil {
		return nil, err
	}
	for _, team := range teams {
		if len(tabs[team]) == 0 {
			return nil, &okr.EmptyDataError{Tab: team}
		}
	}
	return tabs, nil
}

// LoadTeam fetches and builds the board of one team.
func (s *BoardService) LoadTeam(ctx context.Context, team string) (*TeamBoard, error) {
	name, err := s.canonicalTeam(team)
	if err != nil {
		return nil, err
	}
	tabs, err := s.readTabs(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	board := BuildBoard(name, tabs[name], s.now())
	if board.Unreadable > 0 {
		s.logger.Warn("unreadable key results", zap.String("team", name), zap.Int("count", board.Unreadable))
	}
	return board, nil
}

// Overview loads every team concurrently. A team that fails to load is
// reported on its row; only cancellation fails the whole overview.
func (s *BoardService) Overview(ctx context.Context) (*Overview, error) {
	teams := s.policy.Teams()
	statuses := make([]TeamStatus, len(teams))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.policy.OverviewConcurrency())
	for i, team := range teams {
		g.Go(func() error {
			board, err := s.LoadTeam(gctx, team)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.logger.Warn("team load failed", zap.String("team", team), zap.Error(err))
				statuses[i] = TeamStatus{
					Team:     team,
					Severity: okr.SeverityCritical,
					Color:    okr.SeverityCritical.Color(),
					Error:    errorMessage(err),
				}
				return nil
			}
			statuses[i] = teamStatus(board)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}

	ov := &Overview{Title: s.policy.Title(), Teams: statuses, LoadedAt: s.now()}
	var progress []float64
	for _, st := range statuses {
		if st.Error == "" {
			progress = append(progress, st.Progress)
		}
	}
	ov.Progress = okr.Mean(progress)
	ov.Severity = okr.Bucket(ov.Progress)
	return ov, nil
}

func teamStatus(b *TeamBoard) TeamStatus {
	st := TeamStatus{
		Team:        b.Team,
		Progress:    b.Progress,
		Severity:    b.Severity,
		Color:       b.Color,
		KRCount:     b.KRCount,
		LastUpdated: b.LastUpdated,
	}
	for _, sec := range b.Objectives {
		if sec.Progress != nil {
			st.Objectives = append(st.Objectives, *sec.Progress)
		}
	}
	return st
}

// errorMessage returns the user-facing text of a load error.
func errorMessage(err error) string {
	var empty *okr.EmptyDataError
	if errors.As(err, &empty) {
		return "no data for this selection"
	}
	return err.Error()
}

// AuditLog lists audit entries, newest first.
func (s *BoardService) AuditLog(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	if filter.Team != "" {
		name, err := s.canonicalTeam(filter.Team)
		if err != nil {
			return nil, err
		}
		filter.Team = name
	}
	if filter.KRID != "" {
		filter.KRID = okr.ParseID(filter.KRID)
	}
	return s.audit.List(ctx, filter)
}
