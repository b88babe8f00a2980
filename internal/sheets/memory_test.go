package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/jaakkos/okrboard/internal/okr"
)

func TestMemory_WriteAndRead(t *testing.T) {
	m := NewMemory(map[string]okr.Table{
		"SDR": {{"KR 1", "Meetings", "0", "40", "100"}},
	})
	ctx := context.Background()

	err := m.WriteCells(ctx, []CellUpdate{
		{Tab: "SDR", Cell: "D1", Value: "50"},
		{Tab: "SDR", Cell: "B3", Value: "grown"},
	})
	if err != nil {
		t.Fatalf("WriteCells: %v", err)
	}
	if got := m.Cell("SDR", "D1"); got != "50" {
		t.Errorf("D1 = %q", got)
	}
	if got := m.Cell("SDR", "B3"); got != "grown" {
		t.Errorf("B3 = %q", got)
	}
	if got := m.Cell("SDR", "Z99"); got != "" {
		t.Errorf("Z99 = %q, want empty", got)
	}

	tabs, err := m.ReadTabs(ctx, "A1:H50", "SDR")
	if err != nil {
		t.Fatalf("ReadTabs: %v", err)
	}
	if len(tabs["SDR"]) != 3 || len(tabs["SDR"][1]) != 0 {
		t.Errorf("unexpected grid %v", tabs["SDR"])
	}
	if m.Reads() != 1 {
		t.Errorf("Reads() = %d", m.Reads())
	}
}

func TestMemory_Failures(t *testing.T) {
	boom := errors.New("boom")
	m := NewMemory(map[string]okr.Table{"SDR": {{"x"}}})
	m.FailCells = map[string]error{"'SDR'!D2": boom}
	ctx := context.Background()

	err := m.WriteCells(ctx, []CellUpdate{
		{Tab: "SDR", Cell: "D1", Value: "1"},
		{Tab: "SDR", Cell: "D2", Value: "2"},
		{Tab: "CS", Cell: "D1", Value: "3"},
	})
	var bwe *BatchWriteError
	if !errors.As(err, &bwe) {
		t.Fatalf("expected BatchWriteError, got %v", err)
	}
	if !errors.Is(bwe.Failed[1], boom) || !errors.Is(bwe.Failed[2], ErrTabNotFound) || bwe.Failed[0] != nil {
		t.Errorf("unexpected failures %v", bwe.Failed)
	}
	if m.Cell("SDR", "D1") != "1" {
		t.Error("successful update in a partial batch was not applied")
	}

	m.FailReads = boom
	if _, err := m.ReadTabs(ctx, "A1:H50", "SDR"); !errors.Is(err, boom) {
		t.Errorf("expected injected read failure, got %v", err)
	}
}

func TestMemory_CopiesInput(t *testing.T) {
	in := okr.Table{{"a"}}
	m := NewMemory(map[string]okr.Table{"T": in})
	in[0][0] = "mutated"
	if m.Cell("T", "A1") != "a" {
		t.Error("NewMemory did not copy its input")
	}
	if err := m.AppendRows(context.Background(), "T", [][]string{{"b"}}); err != nil {
		t.Fatal(err)
	}
	if got := m.Tab("T"); len(got) != 2 || got[1][0] != "b" {
		t.Errorf("Tab after append = %v", got)
	}
}
