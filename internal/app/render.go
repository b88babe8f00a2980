package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jaakkos/okrboard/internal/domain"
	"github.com/jaakkos/okrboard/internal/okr"
)

// RenderBoard renders a team board as plain text for the CLI and MCP tools.
func RenderBoard(b *TeamBoard) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s === %s (%s)\n", b.Team, okr.FormatRatio(b.Progress), b.Severity)
	if b.LastUpdated != "" {
		fmt.Fprintf(&sb, "Última atualização: %s\n", b.LastUpdated)
	}
	if b.KRCount == 0 {
		sb.WriteString("\nNo key results found.\n")
		return sb.String()
	}
	for _, sec := range b.Objectives {
		sb.WriteString("\n")
		switch {
		case sec.Number == 0:
			sb.WriteString("Without objective\n")
		case sec.Progress != nil:
			fmt.Fprintf(&sb, "Objective %d: %s (%s)\n", sec.Number, sec.Objective, okr.FormatRatio(sec.Progress.Progress))
		default:
			fmt.Fprintf(&sb, "Objective %d: %s\n", sec.Number, sec.Objective)
		}
		for _, c := range sec.Cards {
			if c.Error != "" {
				fmt.Fprintf(&sb, "  KR %s  %s\n    ! %s\n", c.ID, c.Description, c.Error)
				continue
			}
			fmt.Fprintf(&sb, "  KR %s  %s\n    %s / %s  %s  remaining %s  [%s]\n",
				c.ID, c.Description,
				c.Display.Current, c.Display.Target, c.Display.Ratio, c.Display.Remaining, c.Progress.Severity)
		}
	}
	return sb.String()
}

// RenderOverview renders the all-teams overview as plain text.
func RenderOverview(ov *Overview) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s === %s (%s)\n\n", ov.Title, okr.FormatRatio(ov.Progress), ov.Severity)
	for _, t := range ov.Teams {
		if t.Error != "" {
			fmt.Fprintf(&sb, "  %-12s error: %s\n", t.Team, t.Error)
			continue
		}
		fmt.Fprintf(&sb, "  %-12s %7s  %-9s %d KRs", t.Team, okr.FormatRatio(t.Progress), t.Severity, t.KRCount)
		if t.LastUpdated != "" {
			fmt.Fprintf(&sb, "  (updated %s)", t.LastUpdated)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderUpdate renders the outcome of a single-cell update.
func RenderUpdate(r *UpdateResult) string {
	switch r.Status {
	case domain.RowUnchanged:
		return fmt.Sprintf("%s KR %s (%s) already holds %s; nothing written.\n", r.Team, r.KRID, r.Cell, r.OldValue)
	case domain.RowFailed:
		return fmt.Sprintf("%s KR %s (%s): write failed: %s\n", r.Team, r.KRID, r.Cell, r.Error)
	}
	return fmt.Sprintf("%s KR %s (%s): %s -> %s\n", r.Team, r.KRID, r.Cell, r.OldValue, r.NewValue)
}

// RenderPropagate renders a propagation report, one line per row.
func RenderPropagate(p *PropagateReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Propagated KR %s of %s (%q) as %s\n", p.KRID, p.Team, p.Description,
		humanize.CommafWithDigits(p.Value, 2))
	fmt.Fprintf(&sb, "batch %s: %d updated, %d unchanged, %d failed\n\n", p.BatchID, p.Updated, p.Unchanged, p.Failed)
	if len(p.Results) == 0 {
		sb.WriteString("No matching rows.\n")
	}
	for _, r := range p.Results {
		fmt.Fprintf(&sb, "  %-9s %-10s %-5s KR %s: %s -> %s", r.Status, r.Team, r.Cell, r.KRID, r.OldValue, r.NewValue)
		if r.Error != "" {
			fmt.Fprintf(&sb, " (%s)", r.Error)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderAudit renders audit entries, newest first.
func RenderAudit(entries []domain.AuditEntry, now time.Time) string {
	if len(entries) == 0 {
		return "No audit entries.\n"
	}
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s (%s)  %s  %s KR %s: %s -> %s",
			e.Timestamp.Local().Format("2006-01-02 15:04"), humanize.RelTime(e.Timestamp, now, "ago", "from now"),
			e.Actor, e.Team, e.KRID, e.OldValue, e.NewValue)
		if e.Note != "" {
			fmt.Fprintf(&sb, "  %q", e.Note)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
