package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-sobriety/internal/config"
	"github.com/tartampluch/go-sobriety/internal/engine"
	"github.com/tartampluch/go-sobriety/internal/store"
)

// milestoneRow joins a computed milestone state with its stored trace.
type milestoneRow struct {
	engine.MilestoneState
	RecordID   string `json:"milestone_record_id,omitempty" toml:"milestone_record_id,omitempty"`
	Celebrated bool   `json:"celebrated" toml:"celebrated"`
}

func newMilestonesCmd(a *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "milestones",
		Short: config.CmdShortMilestones,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listMilestones(cmd)
		},
	}
	addOutputFlag(cmd)

	list := &cobra.Command{
		Use:   "list",
		Short: config.CmdShortMilestones,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listMilestones(cmd)
		},
	}
	addOutputFlag(list)

	celebrate := &cobra.Command{
		Use:   "celebrate <milestone>",
		Short: config.CmdShortCelebrate,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			id, err := resolveMilestone(cmd.Context(), st, args[0])
			if err != nil {
				return err
			}
			if err := st.CelebrateMilestone(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, config.OutCelebrated, args[0])
			return nil
		},
	}

	cmd.AddCommand(list, celebrate)
	return cmd
}

func (a *cli) listMilestones(cmd *cobra.Command) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	st, err := a.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	tr := a.newTracker(st, nil)
	if err := tr.Refresh(cmd.Context()); err != nil {
		return err
	}
	snap := tr.Snapshot()
	if snap.Record == nil {
		return errors.New(config.ErrNoActiveRecord)
	}

	stored, err := st.RecordMilestones(cmd.Context(), snap.Record.ID)
	if err != nil {
		return err
	}
	byType := make(map[string]store.MilestoneRecord, len(stored))
	for _, m := range stored {
		byType[m.MilestoneType] = m
	}

	rows := make([]milestoneRow, 0, len(snap.Milestones))
	for _, state := range snap.Milestones {
		row := milestoneRow{MilestoneState: state}
		if m, ok := byType[state.ID]; ok {
			row.RecordID = m.ID
			row.Celebrated = m.Celebrated
		}
		rows = append(rows, row)
	}

	if format != config.OutputText {
		return writeStructured(a.out, format, struct {
			Milestones []milestoneRow `json:"milestones" toml:"milestones"`
		}{rows})
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, joinCols(
		config.ColID,
		a.locale.Msg(config.TKeyColMilestone),
		a.locale.Msg(config.TKeyColDays),
		a.locale.Msg(config.TKeyColReached),
		a.locale.Msg(config.TKeyColCelebrated),
	))
	for _, row := range rows {
		reached, celebrated := config.OutNone, config.OutNone
		if row.Achieved {
			reached = a.locale.Date(row.AchievedAt.In(time.Local))
			celebrated = yesNo(row.Celebrated)
		}
		fmt.Fprintln(tw, joinCols(
			row.ID,
			row.Icon+" "+a.locale.MilestoneName(row.Milestone),
			strconv.Itoa(row.Days),
			reached,
			celebrated,
		))
	}
	return tw.Flush()
}

// resolveMilestone accepts either a stored milestone record ID or a milestone
// ID ("1_week") of the active record.
func resolveMilestone(ctx context.Context, st *store.SQLiteStore, arg string) (string, error) {
	if _, ok := engine.MilestoneByID(arg); !ok {
		return arg, nil
	}

	rec, err := st.ActiveRecord(ctx)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", errors.New(config.ErrNoActiveRecord)
	}

	stored, err := st.RecordMilestones(ctx, rec.ID)
	if err != nil {
		return "", err
	}
	for _, m := range stored {
		if m.MilestoneType == arg {
			return m.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", store.ErrMilestoneNotFound, arg)
}
