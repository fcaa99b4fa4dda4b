package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/cserlab/scopuswatch/internal/config"
	"github.com/cserlab/scopuswatch/internal/logging"
	"github.com/cserlab/scopuswatch/internal/notify"
	"github.com/cserlab/scopuswatch/internal/scopus"
	"github.com/spf13/cobra"
)

func NewCheckCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one live credential check (cron entry point)",
		Long: `Check the stored Scopus credentials against the live API and record
the outcome.

On failure a lock file is created so downstream batch jobs short-circuit,
and a notification email with a reproduction command and a reset link is
sent to the administrator.

On success the lock file is removed. If the credentials are due to expire
within the reminder window, a reminder email is sent instead.

Examples:
  # Typical crontab entry
  0 6 * * * scopuswatch check --config /etc/scopuswatch.yaml`,
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
			cfg.Logger.Debug("checking API key %s against %s",
				logging.Secret(checker.Credentials().APIKey), cfg.Definition.Scopus.Endpoint)

			result, err := checker.Run(cmd.Context())
			if err != nil {
				return err
			}

			if result.Success {
				fmt.Fprintf(cmd.OutOrStdout(), "SUCCESS: Valid authentication tokens downloaded test abstract: %s\n", result.Detail)
				return handleSuccess(cmd.Context(), cfg, checker, cmd)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "FAILURE: Sending notification as token checker error: %s\n", result.Detail)
			return handleFailure(cmd.Context(), cfg, checker, result)
		},
	}

	return cmd
}

func handleSuccess(ctx context.Context, cfg *config.Config, checker *scopus.Checker, cmd *cobra.Command) error {
	def := cfg.Definition
	logger := cfg.Logger

	if def.Files.LockFile != "" {
		if err := os.Remove(def.Files.LockFile); err == nil {
			logger.Info("credentials recovered, removed lock file %s", def.Files.LockFile)
		} else if !os.IsNotExist(err) {
			return err
		}
	}

	soon, err := checker.ExpiresSoon()
	if err != nil {
		return err
	}
	if !soon {
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "WARNING: Sending notification as tokens due to expire on %s - within %d days of now\n",
		checker.Credentials().ExpiryDate, def.Scopus.ReminderDays)

	mailer := buildMailer(cfg)
	if mailer == nil {
		logger.Warn("no SMTP host configured, skipping expiry reminder")
		return nil
	}

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	link, err := store.ResetLink(def.Admin.BaseURL)
	if err != nil {
		return err
	}

	msg := notify.ReminderMessage(checker.Credentials().ExpiryDate, link)
	attachInstructions(cfg, &msg)
	return mailer.Send(ctx, msg)
}

func handleFailure(ctx context.Context, cfg *config.Config, checker *scopus.Checker, result scopus.Result) error {
	def := cfg.Definition
	logger := cfg.Logger

	if def.Files.LockFile != "" {
		if err := os.WriteFile(def.Files.LockFile, []byte(result.Detail+"\n"), 0o644); err != nil {
			return err
		}
		logger.Warn("created lock file %s", def.Files.LockFile)
	}

	mailer := buildMailer(cfg)
	if mailer == nil {
		logger.Warn("no SMTP host configured, skipping failure notification")
		return nil
	}

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	link, err := store.ResetLink(def.Admin.BaseURL)
	if err != nil {
		return err
	}

	msg := notify.FailureMessage(result.Detail, checker.CurlCommand(), link)
	attachInstructions(cfg, &msg)
	return mailer.Send(ctx, msg)
}

func attachInstructions(cfg *config.Config, msg *notify.Message) {
	path := cfg.Definition.Files.Instructions
	if path == "" {
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		cfg.Logger.Warn("instructions attachment unavailable: %v", err)
		return
	}
	msg.Attachment = &notify.Attachment{Filename: "Instructions.pdf", Content: content}
}
