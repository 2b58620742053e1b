package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-sobriety/internal/config"
	"github.com/tartampluch/go-sobriety/internal/secret"
	"github.com/tartampluch/go-sobriety/internal/server"
	"golang.org/x/sync/errgroup"
)

const serveCmdName = "serve"

func newServeCmd(a *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   serveCmdName,
		Short: config.CmdShortServe,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logStartupInfo()

			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			srv := server.NewFeedServer(a.settings.ServerPort)
			if a.settings.FeedTokenRequired {
				token, err := secret.FeedToken()
				if err != nil {
					return err
				}
				srv.SetToken(token)
			}

			tr := a.newTracker(st, srv)

			if a.v.ConfigFileUsed() != "" {
				config.Watch(a.v, func(s config.Settings) {
					tr.Configure(s.TickInterval, s.ReloadInterval, s.ReminderTrigger())
				})
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				tr.Run(ctx)
				return nil
			})
			g.Go(func() error {
				return srv.Start(ctx)
			})
			if err := g.Wait(); err != nil {
				return err
			}

			slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
			return nil
		},
	}
	cmd.Flags().String(config.FlagPort, "", config.FlagDescPort)
	return cmd
}
