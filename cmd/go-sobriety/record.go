package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-sobriety/internal/config"
	"github.com/tartampluch/go-sobriety/internal/engine"
	"github.com/tartampluch/go-sobriety/internal/store"
)

func newSetCmd(a *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <date>",
		Short: config.CmdShortSet,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := engine.ParseStart(args[0], time.Local)
			if err != nil {
				return err
			}
			substance, _ := cmd.Flags().GetString(config.FlagSubstance)
			notes, _ := cmd.Flags().GetString(config.FlagNotes)

			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.CreateRecord(cmd.Context(), store.NewRecord{
				StartDate:     start,
				SubstanceType: substance,
				Notes:         notes,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, config.OutRecordStarted, rec.ID, a.locale.Date(rec.StartDate.In(time.Local)))
			return nil
		},
	}
	cmd.Flags().String(config.FlagSubstance, config.DefaultSubstance, config.FlagDescSubstance)
	cmd.Flags().String(config.FlagNotes, "", config.FlagDescNotes)
	return cmd
}

func newUpdateCmd(a *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: config.CmdShortUpdate,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd store.RecordUpdate
			flags := cmd.Flags()

			if flags.Changed(config.FlagStart) {
				raw, _ := flags.GetString(config.FlagStart)
				start, err := engine.ParseStart(raw, time.Local)
				if err != nil {
					return err
				}
				upd.StartDate = &start
			}
			if flags.Changed(config.FlagSubstance) {
				substance, _ := flags.GetString(config.FlagSubstance)
				upd.SubstanceType = &substance
			}
			if flags.Changed(config.FlagNotes) {
				notes, _ := flags.GetString(config.FlagNotes)
				upd.Notes = &notes
			}
			if upd == (store.RecordUpdate{}) {
				return errors.New(config.ErrNothingToUpdate)
			}

			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.UpdateRecord(cmd.Context(), args[0], upd)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, config.OutRecordUpdated, rec.ID)
			return nil
		},
	}
	cmd.Flags().String(config.FlagStart, "", config.FlagDescStart)
	cmd.Flags().String(config.FlagSubstance, "", config.FlagDescSubstance)
	cmd.Flags().String(config.FlagNotes, "", config.FlagDescNotes)
	return cmd
}

func newResetCmd(a *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: config.CmdShortReset,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			notes, _ := cmd.Flags().GetString(config.FlagNotes)

			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.Reset(cmd.Context(), notes)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, config.OutRecordStarted, rec.ID, a.locale.Date(rec.StartDate.In(time.Local)))
			return nil
		},
	}
	cmd.Flags().String(config.FlagNotes, "", config.FlagDescNotes)
	return cmd
}

func newHistoryCmd(a *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: config.CmdShortHistory,
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

			records, err := st.History(cmd.Context())
			if err != nil {
				return err
			}

			if format != config.OutputText {
				return writeStructured(a.out, format, struct {
					Records []store.Record `json:"records" toml:"records"`
				}{records})
			}

			tw := newTable(a.out)
			fmt.Fprintln(tw, joinCols(config.ColID, config.ColStart, config.ColSubstance, config.ColActive, config.ColNotes))
			for _, r := range records {
				fmt.Fprintln(tw, joinCols(
					r.ID,
					r.StartDate.In(time.Local).Format(config.DateFormatDisplay),
					r.SubstanceType,
					yesNo(r.IsActive),
					r.Notes,
				))
			}
			return tw.Flush()
		},
	}
	addOutputFlag(cmd)
	return cmd
}
