package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cserlab/scopuswatch/internal/config"
	"github.com/spf13/cobra"
)

func NewStatusCommand(cfg *config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the cached credential health status",
		Long: `Show the outcome of the most recent live check without performing one.

Examples:
  scopuswatch status
  scopuswatch status --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			checker, err := buildChecker(cfg)
			if err != nil {
				return err
			}
			if err := checker.LoadStoredCredentials(); err != nil {
				return err
			}

			status, err := checker.CachedStatus()
			if err != nil {
				return err
			}
			soon, err := checker.ExpiresSoon()
			if err != nil {
				return err
			}
			expiry := checker.Credentials().ExpiryDate

			if jsonOutput {
				output := map[string]interface{}{
					"success":     status.Success,
					"lastChecked": status.LastSaved,
					"expiryDate":  expiry,
					"expiresSoon": soon,
				}
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(output)
			}

			state := "PASSING"
			if !status.Success {
				state = "FAILING"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Credentials: %s\n", state)
			fmt.Fprintf(cmd.OutOrStdout(), "Last checked: %s\n", status.LastSaved)
			fmt.Fprintf(cmd.OutOrStdout(), "Expiry date: %s\n", expiry)
			if soon {
				fmt.Fprintln(cmd.OutOrStdout(), "Warning: credentials expire within the reminder window")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
