package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaakkos/okrboard/internal/app"
	"github.com/jaakkos/okrboard/internal/domain"
	"github.com/jaakkos/okrboard/internal/okr"
)

var (
	actorEmail  string
	note        string
	syncValue   string
	auditFilter domain.AuditFilter
)

var showCmd = &cobra.Command{
	Use:   "show [team]",
	Short: "Print a team's board, or the overview of every team",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

var setCmd = &cobra.Command{
	Use:   "set <team> <kr> <value>",
	Short: "Write a new current value for one KR",
	Long: `Writes value into the KR's value cell, in the format of its target, and
records the change in the audit log. The value uses the sheet's locale:

  okrboard set SDR 2 "47,5%" --actor ana@empresa.com.br`,
	Args: cobra.ExactArgs(3),
	RunE: runSet,
}

var syncCmd = &cobra.Command{
	Use:   "sync <team> <kr>",
	Short: "Copy a KR value to every team row with the same description",
	Long: `Copies the source KR's current value (or --value) to every row of every
team whose description matches. Rows that already hold the value are left
alone, so running sync twice is a no-op.`,
	Args: cobra.ExactArgs(2),
	RunE: runSync,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List recent value changes, newest first",
	Args:  cobra.NoArgs,
	RunE:  runAudit,
}

func runShow(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context(), pol, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	if len(args) == 0 {
		ov, err := rt.svc.Overview(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), app.RenderOverview(ov))
		return nil
	}
	board, err := rt.svc.LoadTeam(cmd.Context(), args[0])
	if err != nil {
		return userError(err)
	}
	fmt.Fprint(cmd.OutOrStdout(), app.RenderBoard(board))
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context(), pol, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.svc.UpdateValue(cmd.Context(), app.UpdateRequest{
		Team:  args[0],
		KRID:  args[1],
		Value: args[2],
		Actor: actorEmail,
		Note:  note,
	})
	if res != nil {
		fmt.Fprint(cmd.OutOrStdout(), app.RenderUpdate(res))
	}
	return userError(err)
}

func runSync(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context(), pol, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.svc.Propagate(cmd.Context(), app.PropagateRequest{
		Team:  args[0],
		KRID:  args[1],
		Value: syncValue,
		Actor: actorEmail,
		Note:  note,
	})
	if report != nil {
		fmt.Fprint(cmd.OutOrStdout(), app.RenderPropagate(report))
		if err == nil && report.Failed > 0 {
			err = fmt.Errorf("%d of %d rows failed", report.Failed, len(report.Results))
		}
	}
	return userError(err)
}

func runAudit(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context(), pol, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	entries, err := rt.svc.AuditLog(cmd.Context(), auditFilter)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), app.RenderAudit(entries, time.Now()))
	return nil
}

// userError replaces an empty-tab error with the message users see everywhere.
func userError(err error) error {
	var empty *okr.EmptyDataError
	if errors.As(err, &empty) {
		return fmt.Errorf("%s: no data for this selection", empty.Tab)
	}
	return err
}
