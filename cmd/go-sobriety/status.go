package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-sobriety/internal/config"
	"github.com/tartampluch/go-sobriety/internal/engine"
	"github.com/tartampluch/go-sobriety/internal/tracker"
)

func newStatusCmd(a *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: config.CmdShortStatus,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			// Refresh also records the milestones reached since the last run.
			tr := a.newTracker(st, nil)
			if err := tr.Refresh(cmd.Context()); err != nil {
				return err
			}
			return a.writeStatus(format, tr.Snapshot())
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func (a *cli) writeStatus(format string, snap *tracker.Snapshot) error {
	if format != config.OutputText {
		return writeStructured(a.out, format, snap)
	}

	fmt.Fprintln(a.out, snap.Text)
	if snap.Record == nil {
		return nil
	}
	fmt.Fprintln(a.out, a.locale.Since(snap.Record.StartDate.In(time.Local)))

	if snap.Next != nil {
		fmt.Fprintln(a.out, a.locale.NextMilestone(*snap.Next, snap.DaysRemaining, true))
	} else {
		fmt.Fprintln(a.out, a.locale.NextMilestone(engine.Milestone{}, 0, false))
	}
	return nil
}
