package domain

import (
	"testing"
	"time"
)

func TestAuditEntryRow(t *testing.T) {
	ts := time.Date(2025, 3, 12, 14, 30, 0, 0, time.UTC)
	e := AuditEntry{
		Timestamp: ts, Actor: "ana@grougp.com.br", Team: "SDR", KRID: "2",
		OldValue: "10", NewValue: "12", Note: "weekly update",
	}

	row := e.Row()
	want := []string{"2025-03-12T14:30:00Z", "ana@grougp.com.br", "SDR", "2", "10", "12", "weekly update"}
	if len(row) != len(want) {
		t.Fatalf("len(row) = %d, want %d", len(row), len(want))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[%d] = %q, want %q", i, row[i], want[i])
		}
	}
}

func TestAuditFilterMatches(t *testing.T) {
	e := AuditEntry{Team: "Marketing", KRID: "1", Actor: "Ana@grougp.com.br"}

	tests := []struct {
		name   string
		filter AuditFilter
		want   bool
	}{
		{"empty filter", AuditFilter{}, true},
		{"team case-insensitive", AuditFilter{Team: "marketing"}, true},
		{"other team", AuditFilter{Team: "SDR"}, false},
		{"kr id", AuditFilter{KRID: "1"}, true},
		{"other kr", AuditFilter{KRID: "2"}, false},
		{"actor case-insensitive", AuditFilter{Actor: "ana@grougp.com.br"}, true},
		{"limit ignored", AuditFilter{Limit: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(e); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}
