package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/jaakkos/okrboard/internal/domain"
)

const testActor = "ana@grougp.com.br"

// writeFixture creates a workbook with SDR and CS tabs plus a config file
// pointing at it, and returns the config path.
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	f := excelize.NewFile()
	defer f.Close()
	tabs := map[string][][]string{
		"SDR": {
			{"OBJETIVO 1", "Pipeline"},
			{"KR 1", "Reuniões agendadas", "0", "40", "100"},
			{"KR 2", "Taxa de conversão", "0", "45,5%", "50%"},
		},
		"CS": {
			{"OBJETIVO 1", "Retention"},
			{"KR 1", "Reuniões agendadas", "0", "10", "100"},
		},
	}
	if err := f.SetSheetName("Sheet1", "SDR"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	if _, err := f.NewSheet("CS"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	for tab, rows := range tabs {
		for i, row := range rows {
			cells := make([]interface{}, len(row))
			for j, v := range row {
				cells[j] = v
			}
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetSheetRow(tab, cell, &cells); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	if err := f.SaveAs(filepath.Join(dir, "okrs.xlsx")); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	cfg := `title: Test board
teams: [SDR, CS]
source:
  kind: xlsx
  workbook: okrs.xlsx
auth:
  allowed_domains: [grougp.com.br]
audit_db: audit.sqlite
log_file: none
`
	path := filepath.Join(dir, "okrboard.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	actorEmail, note, syncValue = "", "", ""
	auditFilter = domain.AuditFilter{Limit: 50}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "okrboard "+Version) {
		t.Errorf("unexpected output %q", out)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeFixture(t)

	t.Setenv(configEnv, path)
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig from env: %v", err)
	}
	if cfg.Title != "Test board" {
		t.Errorf("expected title from file, got %q", cfg.Title)
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}

	t.Setenv(configEnv, "")
	if _, err := loadConfig(""); err == nil || !strings.Contains(err.Error(), "no config file") {
		t.Errorf("expected no-config error, got %v", err)
	}
}

func TestSetupLogger(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "okrboard.log")
	logger, closeFn := setupLogger(logFile, true)
	logger.Info("hello")
	_ = logger.Sync()
	closeFn()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("expected JSON log line, got %q", data)
	}

	logger, closeFn = setupLogger("none", false)
	if logger == nil {
		t.Fatal("expected a stderr logger")
	}
	closeFn()
}

func TestShowSetAuditCommands(t *testing.T) {
	cfg := writeFixture(t)

	out, err := execute(t, "--config", cfg, "show", "sdr")
	if err != nil {
		t.Fatalf("show: %v\n%s", err, out)
	}
	if !strings.Contains(out, "=== SDR === 65.5%") {
		t.Errorf("unexpected board:\n%s", out)
	}

	out, err = execute(t, "--config", cfg, "set", "SDR", "2", "48%", "--actor", testActor, "--note", "weekly")
	if err != nil {
		t.Fatalf("set: %v\n%s", err, out)
	}
	if !strings.Contains(out, "SDR KR 2 (D3): 45,5% -> 48%") {
		t.Errorf("unexpected set output: %s", out)
	}

	out, err = execute(t, "--config", cfg, "show", "SDR")
	if err != nil {
		t.Fatalf("show after set: %v", err)
	}
	if !strings.Contains(out, "48.0% / 50.0%") {
		t.Errorf("expected the new value on the board:\n%s", out)
	}

	out, err = execute(t, "--config", cfg, "audit", "--team", "sdr")
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if !strings.Contains(out, testActor) || !strings.Contains(out, `"weekly"`) {
		t.Errorf("unexpected audit output:\n%s", out)
	}

	if _, err := execute(t, "--config", cfg, "set", "SDR", "2", "50%"); err == nil {
		t.Error("expected set without --actor to fail")
	}
}

func TestSyncCommand(t *testing.T) {
	cfg := writeFixture(t)

	out, err := execute(t, "--config", cfg, "sync", "SDR", "1", "--actor", testActor)
	if err != nil {
		t.Fatalf("sync: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 updated, 0 unchanged, 0 failed") {
		t.Errorf("unexpected sync output:\n%s", out)
	}

	out, err = execute(t, "--config", cfg, "sync", "SDR", "1", "--actor", testActor)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if !strings.Contains(out, "0 updated, 1 unchanged, 0 failed") {
		t.Errorf("expected second sync to be a no-op:\n%s", out)
	}

	out, err = execute(t, "--config", cfg, "show")
	if err != nil {
		t.Fatalf("show overview: %v", err)
	}
	if !strings.Contains(out, "=== Test board ===") || !strings.Contains(out, "CS") {
		t.Errorf("unexpected overview:\n%s", out)
	}
}
