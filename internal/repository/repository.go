package repository

import (
	"github.com/jaakkos/okrboard/internal/app"
	"github.com/jaakkos/okrboard/internal/repository/sqlite"
)

// NewAuditRepository returns an AuditRepository backed by SQLite at the given path.
// The path is typically from policy.AuditDBPath() (default ~/.config/okrboard/audit.sqlite).
func NewAuditRepository(path string) (app.AuditRepository, error) {
	return sqlite.New(path)
}
