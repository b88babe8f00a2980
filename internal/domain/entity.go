// Package domain holds write-back entities: audit entries and per-row outcomes.
// It has no dependencies on other packages.
package domain

import (
	"strings"
	"time"
)

// AuditEntry records one value written back to a team tab. Entries are
// append-only.
type AuditEntry struct {
	ID        string    `json:"id"`
	BatchID   string    `json:"batch_id,omitempty"` // shared by entries of one propagation
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"` // email of the team member
	Team      string    `json:"team"`
	KRID      string    `json:"kr_id"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	Note      string    `json:"note,omitempty"`
}

// Row returns the entry as sheet cells in log-tab column order.
func (e AuditEntry) Row() []string {
	return []string{
		e.Timestamp.Format(time.RFC3339),
		e.Actor,
		e.Team,
		e.KRID,
		e.OldValue,
		e.NewValue,
		e.Note,
	}
}

// AuditFilter narrows an audit log listing. Zero values match everything.
type AuditFilter struct {
	Team  string
	KRID  string
	Actor string
	Limit int
}

// Matches reports whether e passes the filter (ignoring Limit).
func (f AuditFilter) Matches(e AuditEntry) bool {
	if f.Team != "" && !strings.EqualFold(f.Team, e.Team) {
		return false
	}
	if f.KRID != "" && !strings.EqualFold(f.KRID, e.KRID) {
		return false
	}
	if f.Actor != "" && !strings.EqualFold(f.Actor, e.Actor) {
		return false
	}
	return true
}

// RowStatus is the outcome of writing one KR row.
type RowStatus string

const (
	RowUpdated   RowStatus = "updated"
	RowUnchanged RowStatus = "unchanged"
	RowFailed    RowStatus = "failed"
)

// RowResult is the outcome for one KR row touched by a write-back.
type RowResult struct {
	Team        string    `json:"team"`
	Row         int       `json:"row"`
	Cell        string    `json:"cell"`
	KRID        string    `json:"kr_id"`
	Description string    `json:"description"`
	OldValue    string    `json:"old_value"`
	NewValue    string    `json:"new_value"`
	Status      RowStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
}
