// Package sqlite persists the write-back audit log in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jaakkos/okrboard/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	batch_id TEXT NOT NULL DEFAULT '',
	timestamp TEXT NOT NULL,
	actor TEXT NOT NULL,
	team TEXT NOT NULL,
	kr_id TEXT NOT NULL,
	old_value TEXT NOT NULL,
	new_value TEXT NOT NULL,
	note TEXT NOT NULL DEFAULT ''
);
CREATE TRIGGER IF NOT EXISTS audit_log_no_update BEFORE UPDATE ON audit_log
BEGIN
	SELECT RAISE(ABORT, 'audit log is append-only');
END;
CREATE TRIGGER IF NOT EXISTS audit_log_no_delete BEFORE DELETE ON audit_log
BEGIN
	SELECT RAISE(ABORT, 'audit log is append-only');
END;
`

const indexes = `
CREATE INDEX IF NOT EXISTS idx_audit_team ON audit_log(team COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_audit_kr ON audit_log(kr_id COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_audit_batch ON audit_log(batch_id);
`

// Store is the SQLite audit log.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the audit database at path.
func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	if _, err := db.Exec(indexes); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite indexes: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database. Safe to call twice.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Append inserts entries in one transaction. Missing IDs and timestamps are
// filled in.
func (s *Store) Append(ctx context.Context, entries ...domain.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO audit_log
		(id, batch_id, timestamp, actor, team, kr_id, old_value, new_value, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.Timestamp.IsZero() {
			e.Timestamp = time.Now()
		}
		_, err := stmt.ExecContext(ctx, e.ID, e.BatchID, e.Timestamp.UTC().Format(time.RFC3339Nano),
			e.Actor, e.Team, e.KRID, e.OldValue, e.NewValue, e.Note)
		if err != nil {
			return fmt.Errorf("insert audit entry %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// List returns entries matching f, newest first.
func (s *Store) List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.Team != "" {
		where = append(where, "team = ? COLLATE NOCASE")
		args = append(args, f.Team)
	}
	if f.KRID != "" {
		where = append(where, "kr_id = ? COLLATE NOCASE")
		args = append(args, f.KRID)
	}
	if f.Actor != "" {
		where = append(where, "actor = ? COLLATE NOCASE")
		args = append(args, f.Actor)
	}
	q := `SELECT id, batch_id, timestamp, actor, team, kr_id, old_value, new_value, note FROM audit_log`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY seq DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var (
			e  domain.AuditEntry
			ts string
		)
		if err := rows.Scan(&e.ID, &e.BatchID, &ts, &e.Actor, &e.Team, &e.KRID, &e.OldValue, &e.NewValue, &e.Note); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if e.Timestamp, err = parseTime(ts, "audit "+e.ID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func parseTime(s, context string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: parse timestamp %q: %w", context, s, err)
	}
	return t, nil
}
