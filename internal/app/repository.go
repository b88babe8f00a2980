// Package app implements the board use cases and defines ports (repository interfaces).
package app

import (
	"context"

	"github.com/jaakkos/okrboard/internal/domain"
)

// AuditRepository appends and lists write-back audit entries.
// Implementation: internal/repository/sqlite.
type AuditRepository interface {
	Append(ctx context.Context, entries ...domain.AuditEntry) error
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error)
	Close() error
}
