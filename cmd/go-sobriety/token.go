package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-sobriety/internal/config"
	"github.com/tartampluch/go-sobriety/internal/secret"
)

func newTokenCmd(a *cli) *cobra.Command {
	show := func(cmd *cobra.Command, _ []string) error {
		if !a.settings.FeedTokenRequired {
			fmt.Fprintf(a.out, config.OutFeedURLOpen, config.LocalhostBindAddr, a.settings.ServerPort, config.RouteCalendar)
			return nil
		}
		token, err := secret.FeedToken()
		if err != nil {
			return err
		}
		a.printFeedURL(token)
		return nil
	}

	cmd := &cobra.Command{
		Use:   "token",
		Short: config.CmdShortToken,
		Args:  cobra.NoArgs,
		RunE:  show,
	}
	cmd.PersistentFlags().String(config.FlagPort, "", config.FlagDescPort)

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: config.CmdShortToken,
			Args:  cobra.NoArgs,
			RunE:  show,
		},
		&cobra.Command{
			Use:   "rotate",
			Short: config.CmdShortRotate,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				token, err := secret.RotateFeedToken()
				if err != nil {
					return err
				}
				a.printFeedURL(token)
				return nil
			},
		},
		&cobra.Command{
			Use:   "revoke",
			Short: config.CmdShortRevoke,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := secret.DeleteFeedToken(); err != nil {
					return err
				}
				fmt.Fprint(a.out, config.OutTokenRevoked)
				return nil
			},
		},
	)
	return cmd
}

func (a *cli) printFeedURL(token string) {
	fmt.Fprintf(a.out, config.OutFeedURL,
		config.LocalhostBindAddr, a.settings.ServerPort, config.RouteCalendar, config.QueryToken, token)
}
