package commands

import (
	"fmt"

	"github.com/cserlab/scopuswatch/internal/config"
	"github.com/spf13/cobra"
)

func NewPasscodeCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passcode",
		Short: "Manage the one-time access passcode",
	}

	cmd.AddCommand(
		newPasscodeResetCommand(cfg),
		newPasscodeIssueCommand(cfg),
	)

	return cmd
}

func newPasscodeResetCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Revoke the current passcode",
		Long: `Revoke the current passcode so any outstanding reset links stop
working immediately.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			store, err := buildStore(cfg)
			if err != nil {
				return err
			}
			if err := store.Reset(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Passcode reset, outstanding links revoked")
			return nil
		},
	}
}

func newPasscodeIssueCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "issue",
		Short: "Issue a fresh reset link without sending email",
		Long: `Issue a fresh passcode and print the reset link to stdout. Useful when
email delivery is broken and the link has to reach the administrator
another way.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			store, err := buildStore(cfg)
			if err != nil {
				return err
			}
			link, err := store.ResetLink(cfg.Definition.Admin.BaseURL)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}
}
