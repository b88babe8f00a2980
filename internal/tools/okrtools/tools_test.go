package okrtools

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegisterAllTools(t *testing.T) {
	s, _ := testServer(t)
	got := toolNames(t, s)
	sort.Strings(got)
	want := []string{"get_audit_log", "get_overview", "get_team_okrs", "list_teams", "propagate_kr_value", "update_kr_value"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tools mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterEnabledToolsOnly(t *testing.T) {
	s, _ := testServer(t, "list_teams", "get_team_okrs")
	got := toolNames(t, s)
	sort.Strings(got)
	if diff := cmp.Diff([]string{"get_team_okrs", "list_teams"}, got); diff != "" {
		t.Errorf("tools mismatch (-want +got):\n%s", diff)
	}
	if _, err := callTool(t, s, "update_kr_value", map[string]any{}); err == nil {
		t.Error("expected error calling a disabled tool")
	}
}

func TestListTeams(t *testing.T) {
	s, _ := testServer(t)
	result, err := callTool(t, s, "list_teams", map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	for _, want := range []string{"Board", "- SDR", "- CS", "- ADM"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in output, got:\n%s", want, text)
		}
	}
}

func TestGetTeamOKRs(t *testing.T) {
	s, _ := testServer(t)

	result, err := callTool(t, s, "get_team_okrs", map[string]any{"team": "sdr"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	for _, want := range []string{"=== SDR === 65.5%", "Objective 1: Pipeline", "45.5% / 50.0%"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in output, got:\n%s", want, text)
		}
	}

	tests := []struct {
		name    string
		args    map[string]any
		wantErr string
	}{
		{"missing team", map[string]any{}, "team is required"},
		{"unknown team", map[string]any{"team": "Finance"}, "unknown team"},
		{"empty tab", map[string]any{"team": "ADM"}, "no data for this selection"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := callTool(t, s, "get_team_okrs", tt.args)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestGetOverview(t *testing.T) {
	s, _ := testServer(t)
	result, err := callTool(t, s, "get_overview", map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "=== Board ===") || !strings.Contains(text, "error: no data for this selection") {
		t.Errorf("unexpected overview:\n%s", text)
	}
}

func TestUpdateKRValue(t *testing.T) {
	s, src := testServer(t)

	result, err := callTool(t, s, "update_kr_value", map[string]any{
		"team": "SDR", "kr": "KR 1", "value": float64(55), "actor_email": actor, "note": "weekly",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "SDR KR 1 (D2): 40 -> 55") {
		t.Errorf("unexpected output: %s", text)
	}
	if got := src.Cell("SDR", "D2"); got != "55" {
		t.Errorf("D2 = %q, want 55", got)
	}

	result, err = callTool(t, s, "update_kr_value", map[string]any{
		"team": "SDR", "kr": "2", "value": "48%", "actor_email": actor,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := src.Cell("SDR", "D3"); got != "48%" {
		t.Errorf("D3 = %q, want 48%%", got)
	}

	result, err = callTool(t, s, "get_audit_log", map[string]any{"team": "sdr"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "SDR KR 2: 45,5% -> 48%") || !strings.Contains(text, `"weekly"`) {
		t.Errorf("unexpected audit log:\n%s", text)
	}
	if strings.Index(text, "KR 2") > strings.Index(text, "KR 1") {
		t.Errorf("expected newest entry first:\n%s", text)
	}

	result, err = callTool(t, s, "get_audit_log", map[string]any{"team": "SDR", "limit": float64(1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text := resultText(t, result); strings.Count(text, "\n") != 1 {
		t.Errorf("expected one entry, got:\n%s", text)
	}
}

func TestUpdateKRValueRejected(t *testing.T) {
	s, _ := testServer(t)
	tests := []struct {
		name    string
		args    map[string]any
		wantErr string
	}{
		{"missing actor", map[string]any{"team": "SDR", "kr": "1", "value": "1"}, "actor_email is required"},
		{"missing value", map[string]any{"team": "SDR", "kr": "1", "actor_email": actor}, "value is required"},
		{"foreign actor", map[string]any{"team": "SDR", "kr": "1", "value": "1", "actor_email": "x@gmail.com"}, "forbidden"},
		{"bad value", map[string]any{"team": "SDR", "kr": "1", "value": "muito", "actor_email": actor}, "value"},
		{"unknown kr", map[string]any{"team": "SDR", "kr": "7", "value": "1", "actor_email": actor}, "KR 7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := callTool(t, s, "update_kr_value", tt.args)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestUpdateKRValueWriteFailure(t *testing.T) {
	s, src := testServer(t)
	src.FailCells = map[string]error{"'SDR'!D2": errors.New("protected range")}

	result, err := callTool(t, s, "update_kr_value", map[string]any{
		"team": "SDR", "kr": "1", "value": "55", "actor_email": actor,
	})
	if err != nil {
		t.Fatalf("unexpected RPC error: %v", err)
	}
	if !result.IsError {
		t.Error("expected a tool error result")
	}
	if text := resultText(t, result); !strings.Contains(text, "protected range") {
		t.Errorf("unexpected output: %s", text)
	}
}

func TestPropagateKRValue(t *testing.T) {
	s, src := testServer(t)

	result, err := callTool(t, s, "propagate_kr_value", map[string]any{
		"team": "SDR", "kr": "1", "actor_email": actor,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Errorf("unexpected tool error: %s", resultText(t, result))
	}
	if text := resultText(t, result); !strings.Contains(text, "1 updated, 0 unchanged, 0 failed") {
		t.Errorf("unexpected output:\n%s", text)
	}
	if got := src.Cell("CS", "D2"); got != "40" {
		t.Errorf("CS D2 = %q, want 40", got)
	}

	src.FailCells = map[string]error{"'CS'!D2": errors.New("protected range")}
	result, err = callTool(t, s, "propagate_kr_value", map[string]any{
		"team": "SDR", "kr": "1", "value": "70", "actor_email": actor,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected a tool error result for a partial failure")
	}
	if text := resultText(t, result); !strings.Contains(text, "1 updated, 0 unchanged, 1 failed") {
		t.Errorf("unexpected output:\n%s", text)
	}
	if got := src.Cell("SDR", "D2"); got != "70" {
		t.Errorf("SDR D2 = %q, want 70", got)
	}
}

func TestStringOrNumber(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		want    string
		wantErr string
	}{
		{"string", map[string]any{"v": "45,5%"}, "45,5%", ""},
		{"whole number", map[string]any{"v": float64(12)}, "12", ""},
		{"fraction", map[string]any{"v": 45.5}, "45,5", ""},
		{"thousands", map[string]any{"v": float64(1234)}, "1.234", ""},
		{"missing", map[string]any{}, "", "v is required"},
		{"empty", map[string]any{"v": ""}, "", "v is required"},
		{"wrong type", map[string]any{"v": true}, "", "must be a string or number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stringOrNumber(tt.args, "v")
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
