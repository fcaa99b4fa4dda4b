package commands

import (
	"net/http"
	"time"

	"github.com/cserlab/scopuswatch/internal/config"
	swerrors "github.com/cserlab/scopuswatch/internal/errors"
	"github.com/cserlab/scopuswatch/internal/passcode"
	"github.com/cserlab/scopuswatch/internal/scopus"
	"github.com/cserlab/scopuswatch/internal/web"
	"github.com/spf13/cobra"
)

func NewServeCommand(cfg *config.Config) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin web front end",
		Long: `Serve the status page and the passcode-gated credential rotation flow.

The front end shows the cached outcome of the most recent check, lets the
registered administrator request a reset link by email, and accepts new
credentials through an emailed one-time link. Prometheus metrics are
exposed on /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}
			def := cfg.Definition
			logger := cfg.Logger

			passcode.InitMetrics()
			scopus.InitMetrics()

			store, err := buildStore(cfg)
			if err != nil {
				return err
			}

			factory := func() (*scopus.Checker, error) {
				checker, err := buildChecker(cfg)
				if err != nil {
					return nil, err
				}
				if err := checker.LoadStoredCredentials(); err != nil {
					return nil, err
				}
				return checker, nil
			}

			mailer := buildMailer(cfg)
			if mailer == nil {
				return swerrors.ConfigError{
					Field:      "smtp.host",
					Message:    "the web front end needs SMTP to email reset links",
					Suggestion: "Set smtp.host and smtp.port in the config file",
				}
			}
			if err := mailer.Validate(); err != nil {
				return err
			}

			handler := web.NewHandler(web.HandlerConfig{
				AdminEmail:       def.Admin.Email,
				BaseURL:          def.Admin.BaseURL,
				PasscodeExpiry:   def.PasscodeExpiry(),
				InstructionsPath: def.Files.Instructions,
			}, store, factory, mailer, logger)

			addr := def.Listen
			if listenAddr != "" {
				addr = listenAddr
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           web.NewRouter(handler, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("listening on %s", addr)
			return server.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides config)")

	return cmd
}
