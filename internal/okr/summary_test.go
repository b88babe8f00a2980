package okr

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLastUpdated(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		want  string
	}{
		{"no second row", Table{{"x"}}, ""},
		{"short second row", Table{{"x"}, {"a", "b"}}, ""},
		{"prefixed", Table{{}, {"", "", "", "", "", "", "", "Última atualização: 12/03/2025"}}, "12/03/2025"},
		{"raw value", Table{{}, {"", "", "", "", "", "", "", "ontem"}}, "ontem"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LastUpdated(tt.table); got != tt.want {
				t.Errorf("LastUpdated = %q, want %q", got, tt.want)
			}
		})
	}
}

func sampleRecords() []KeyResultRecord {
	return Parse(Table{
		{"KR 0", "No objective", "0", "1", "1"},
		{"OBJETIVO", "Revenue"},
		{"KR 1", "Deals", "0", "4", "10"},
		{"KR 2", "Campaign", "0", "50%", "100%"},
		{"OBJETIVO", "Quality"},
		{"KR 3", "Tickets", "0", "150", "100"},
		{"KR 4", "Broken", "0", "n/a", "100"},
		{"OBJETIVO", "Revenue"},
		{"KR 5", "Upsell", "0", "R$ 0,00", "R$ 1.000,00"},
	})
}

func TestGroupByObjective(t *testing.T) {
	groups := GroupByObjective(sampleRecords())
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}

	if groups[0].Number != 2 || *groups[0].Objective != "Revenue" {
		t.Errorf("group 0 = #%d %q", groups[0].Number, *groups[0].Objective)
	}
	if len(groups[0].Records) != 3 {
		t.Errorf("expected Revenue to collect 3 records, got %d", len(groups[0].Records))
	}
	if groups[1].Number != 3 || *groups[1].Objective != "Quality" {
		t.Errorf("group 1 = #%d %q", groups[1].Number, *groups[1].Objective)
	}
	if groups[2].Objective != nil || groups[2].Number != 0 {
		t.Errorf("expected trailing unassigned group, got %+v", groups[2])
	}
	if len(groups[2].Records) != 1 || groups[2].Records[0].ID != "0" {
		t.Errorf("unexpected unassigned records: %+v", groups[2].Records)
	}
}

func TestGroupByObjective_Numbering(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		want  []int
	}{
		{"all assigned", Table{{"OBJETIVO", "A"}, {"KR 1", "x"}, {"OBJETIVO", "B"}, {"KR 2", "y"}}, []int{1, 2}},
		{"leading unassigned", Table{{"KR 0", "z"}, {"OBJETIVO", "A"}, {"KR 1", "x"}, {"OBJETIVO", "B"}, {"KR 2", "y"}}, []int{2, 3, 0}},
		{"only unassigned", Table{{"KR 0", "z"}}, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int
			for _, g := range GroupByObjective(Parse(tt.table)) {
				got = append(got, g.Number)
			}
			if !cmp.Equal(got, tt.want) {
				t.Errorf("expected numbers %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	sum := Summarize(GroupByObjective(sampleRecords()))

	if len(sum.Objectives) != 2 {
		t.Fatalf("expected 2 objective summaries, got %d", len(sum.Objectives))
	}
	// Revenue: (40 + 50 + 0) / 3
	if got := sum.Objectives[0].Progress; math.Abs(got-30) > 1e-9 {
		t.Errorf("Revenue progress = %v, want 30", got)
	}
	// Quality: KR 4 is unreadable, KR 3 clamps at 100.
	if sum.Objectives[1].Progress != 100 || sum.Objectives[1].Counted != 1 {
		t.Errorf("Quality = %+v, want progress 100 from 1 record", sum.Objectives[1])
	}
	if math.Abs(sum.Progress-65) > 1e-9 {
		t.Errorf("team progress = %v, want 65", sum.Progress)
	}
	if sum.Severity != SeverityWarning {
		t.Errorf("team severity = %s, want warning", sum.Severity)
	}
}

func TestSummarize_Empty(t *testing.T) {
	sum := Summarize(nil)
	if sum.Progress != 0 || len(sum.Objectives) != 0 {
		t.Errorf("expected empty summary, got %+v", sum)
	}
	if sum.Severity != SeverityCritical {
		t.Errorf("severity = %s, want critical", sum.Severity)
	}
}
