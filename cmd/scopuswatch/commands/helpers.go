package commands

import (
	"github.com/cserlab/scopuswatch/internal/config"
	"github.com/cserlab/scopuswatch/internal/notify"
	"github.com/cserlab/scopuswatch/internal/passcode"
	"github.com/cserlab/scopuswatch/internal/scopus"
)

// smtpSender, when non-nil, replaces the real SMTP transport. Tests set it
// to capture outgoing mail.
var smtpSender notify.SMTPSendFunc

func buildStore(cfg *config.Config) (*passcode.Store, error) {
	def := cfg.Definition
	return passcode.NewStore(passcode.StoreConfig{
		Path:             def.PasscodePath(),
		ExpiryWindow:     def.PasscodeExpiry(),
		ThrottleInterval: def.PasscodeThrottle(),
	})
}

func checkerConfig(cfg *config.Config) scopus.CheckerConfig {
	def := cfg.Definition
	return scopus.CheckerConfig{
		Endpoint:        def.Scopus.Endpoint,
		TestQuery:       def.Scopus.TestQuery,
		UserAgent:       def.Scopus.UserAgent,
		CredentialsPath: def.Files.Credentials,
		StatusCachePath: def.StatusCachePath(),
		ReminderWindow:  def.ReminderWindow(),
		Timeout:         def.HTTPTimeout(),
	}
}

func buildChecker(cfg *config.Config) (*scopus.Checker, error) {
	return scopus.NewChecker(checkerConfig(cfg))
}

// buildMailer returns nil when no SMTP host is configured; callers skip
// notifications in that case.
func buildMailer(cfg *config.Config) *notify.Mailer {
	def := cfg.Definition
	if def.SMTP.Host == "" {
		return nil
	}

	mailer := notify.NewMailer(notify.MailerConfig{
		SMTP: notify.SMTPConfig{
			Host:     def.SMTP.Host,
			Port:     def.SMTP.Port,
			Username: def.SMTP.Username,
			Password: def.SMTP.Password,
		},
		From: def.SMTP.From,
		To:   def.Admin.Email,
	})
	if smtpSender != nil {
		mailer.SetSender(smtpSender)
	}
	return mailer
}
