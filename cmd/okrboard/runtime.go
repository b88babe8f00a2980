package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jaakkos/okrboard/internal/app"
	"github.com/jaakkos/okrboard/internal/policy"
	"github.com/jaakkos/okrboard/internal/repository"
	"github.com/jaakkos/okrboard/internal/sheets"
)

// runtime holds the wired components shared by every command.
type runtime struct {
	pol     *policy.Policy
	source  sheets.Source
	audit   app.AuditRepository
	svc     *app.BoardService
	watcher *app.Watcher
	logger  *zap.Logger
}

// newRuntime opens the sheet source and the audit repository and wires the
// board service to a revision watcher.
func newRuntime(ctx context.Context, pol *policy.Policy, logger *zap.Logger) (*runtime, error) {
	source, watchPath, err := openSource(ctx, pol, logger)
	if err != nil {
		return nil, err
	}

	audit, err := repository.NewAuditRepository(pol.AuditDBPath())
	if err != nil {
		return nil, fmt.Errorf("audit repository: %w", err)
	}

	svc := app.NewBoardService(source, audit, pol, logger)
	watcher := app.NewWatcher(watchPath, logger, app.WithPollInterval(pol.WatchInterval()))
	svc.SetNotifier(watcher)

	logger.Debug("runtime ready",
		zap.String("source", pol.Config().Source.Kind),
		zap.String("audit_db", pol.AuditDBPath()),
		zap.Strings("teams", pol.Teams()))

	return &runtime{
		pol:     pol,
		source:  source,
		audit:   audit,
		svc:     svc,
		watcher: watcher,
		logger:  logger,
	}, nil
}

// openSource returns the configured sheet source and the local path the
// watcher should follow ("" for remote sources).
func openSource(ctx context.Context, pol *policy.Policy, logger *zap.Logger) (sheets.Source, string, error) {
	src := pol.Config().Source
	switch src.Kind {
	case policy.SourceGoogle:
		g, err := sheets.NewGoogle(ctx, src.SpreadsheetID, pol.CredentialsFile(), logger)
		if err != nil {
			return nil, "", fmt.Errorf("google sheets: %w", err)
		}
		return g, "", nil
	case policy.SourceXLSX, "":
		path := pol.WorkbookPath()
		return sheets.NewExcel(path, logger), path, nil
	default:
		return nil, "", fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

func (rt *runtime) Close() {
	rt.watcher.Stop()
	if err := rt.audit.Close(); err != nil {
		rt.logger.Warn("close audit repository", zap.Error(err))
	}
}
