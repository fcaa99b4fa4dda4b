// Package web implements the admin front end: a status page plus the
// passcode-gated credential rotation flow.
package web

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cserlab/scopuswatch/internal/logging"
	"github.com/cserlab/scopuswatch/internal/notify"
	"github.com/cserlab/scopuswatch/internal/passcode"
	"github.com/cserlab/scopuswatch/internal/scopus"
	"github.com/go-chi/chi/v5"
)

// CheckerFactory builds a fresh credential checker with the stored
// credentials loaded. A new instance per request keeps candidate-mode
// state from one rotation attempt out of the next.
type CheckerFactory func() (*scopus.Checker, error)

// HandlerConfig holds the front end's own settings.
type HandlerConfig struct {
	// AdminEmail is the single registered admin address. Reset links are
	// only issued for case-insensitive exact matches against it.
	AdminEmail string

	// BaseURL is the externally reachable base URL of this front end.
	BaseURL string

	// PasscodeExpiry is shown to users when a link has expired.
	PasscodeExpiry time.Duration

	// InstructionsPath optionally points at a PDF attached to reset
	// emails.
	InstructionsPath string
}

// Handler serves the admin pages.
type Handler struct {
	config  HandlerConfig
	store   *passcode.Store
	checker CheckerFactory
	mailer  *notify.Mailer
	logger  *logging.Logger
}

// NewHandler creates the front end handler.
func NewHandler(config HandlerConfig, store *passcode.Store, checker CheckerFactory, mailer *notify.Mailer, logger *logging.Logger) *Handler {
	return &Handler{
		config:  config,
		store:   store,
		checker: checker,
		mailer:  mailer,
		logger:  logger,
	}
}

// Status renders the front page from the cached check outcome; it never
// performs a live call.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	checker, err := h.checker()
	if err != nil {
		h.serverError(w, err)
		return
	}

	status, err := checker.CachedStatus()
	if err != nil {
		h.serverError(w, err)
		return
	}

	expiryDate := checker.Credentials().ExpiryDate
	displayDate := expiryDate
	if parsed, err := time.Parse("2006-01-02", expiryDate); err == nil {
		displayDate = parsed.Format("02/01/2006")
	}

	data := indexData{
		Title:   "X-Risk Status",
		BaseURL: h.config.BaseURL,
	}
	if len(status.LastSaved) >= 16 {
		data.LastUpdated = status.LastSaved[:16]
	} else {
		data.LastUpdated = status.LastSaved
	}

	switch {
	case !status.Success:
		data.Heading = "Authentication tokens not working"
		data.HeadingColor = "#dc3545"
		data.ShowEmailForm = true
		data.Paragraphs = []string{
			"This will cause problems with the running of the X-Risk/TERRA website and new authentication tokens need to be obtained urgently.",
			"To receive an email providing instructions on how to obtain new authentication tokens from Elsevier, enter the registered admin email address for X-Risk/TERRA below.",
		}
	default:
		soon, err := checker.ExpiresSoon()
		if err != nil {
			h.serverError(w, err)
			return
		}
		if soon {
			data.Heading = "Authentication tokens due to expire on " + displayDate
			data.HeadingColor = "#fb8c00"
			data.ShowEmailForm = true
			data.Paragraphs = []string{
				"New authentication tokens need to be obtained as soon as possible from Elsevier to prevent loss of service to X-Risk/TERRA. If you've received an email notifying you that authentication tokens are due to expire soon, please follow the instructions in the email.",
				"To receive an email providing instructions on how to obtain new authentication tokens from Elsevier, enter the registered admin email address for X-Risk/TERRA below.",
			}
		} else {
			data.Heading = "Authentication tokens working correctly"
			data.HeadingColor = "#28a745"
			data.Paragraphs = []string{
				"They are due to expire on " + displayDate + ".",
			}
		}
	}

	h.render(w, indexTemplate, data)
}

// ResendPasscode mints a new passcode and emails the reset link, but only
// when the submitted address matches the registered admin email exactly
// (case-insensitive). The response is identical either way so the form
// cannot be used to probe for the admin address.
func (h *Handler) ResendPasscode(w http.ResponseWriter, r *http.Request) {
	submitted := strings.TrimSpace(r.FormValue("adminemail"))

	if strings.EqualFold(submitted, h.config.AdminEmail) {
		link, err := h.store.ResetLink(h.config.BaseURL)
		if err != nil {
			h.serverError(w, err)
			return
		}

		msg := notify.ResetMessage(link)
		h.attachInstructions(&msg)

		// Best-effort: the passcode is already issued and committed.
		if err := h.mailer.Send(r.Context(), msg); err != nil {
			h.logger.Error("failed to send reset link: %v", err)
		}
	} else {
		h.logger.Warn("reset link requested for non-admin address")
	}

	h.render(w, passcodeSentTemplate, passcodeSentData{
		Title:       "Link sent",
		ExpiryHours: int(h.config.PasscodeExpiry.Hours()),
		BaseURL:     h.config.BaseURL,
	})
}

// InitTokenUpdate handles an emailed reset link: validate the passcode,
// then either show the token entry form or explain why the link no
// longer works.
func (h *Handler) InitTokenUpdate(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "passcode")

	valid, err := h.store.IsValid(code)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if !valid {
		h.passcodeIncorrect(w)
		return
	}

	expired, err := h.store.IsExpired()
	if err != nil {
		h.serverError(w, err)
		return
	}
	if expired {
		h.passcodeExpired(w)
		return
	}

	h.render(w, enterTokensTemplate, enterTokensData{
		Title:    "Enter authentication tokens",
		BaseURL:  h.config.BaseURL,
		Passcode: code,
	})
}

// UpdateTokens verifies submitted candidate credentials live and, on
// success, promotes them and closes the access window.
func (h *Handler) UpdateTokens(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "passcode")

	valid, err := h.store.IsValid(code)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if !valid {
		h.passcodeIncorrect(w)
		return
	}

	checker, err := h.checker()
	if err != nil {
		h.serverError(w, err)
		return
	}

	apiKey := strings.TrimSpace(r.FormValue("apikey"))
	instToken := strings.TrimSpace(r.FormValue("insttoken"))
	expiryDate := strings.TrimSpace(r.FormValue("expirydate"))

	checker.SetCandidate(apiKey, instToken)
	result, err := checker.Run(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}

	if !result.Success {
		h.render(w, enterTokensTemplate, enterTokensData{
			Title:        "Tokens error",
			ErrorMessage: "Authentication tokens not valid",
			PreciseError: result.Detail,
			Body:         "Please reenter different authentication tokens below:",
			BaseURL:      h.config.BaseURL,
			Passcode:     code,
		})
		return
	}

	if err := checker.Promote(apiKey, instToken, expiryDate); err != nil {
		h.render(w, enterTokensTemplate, enterTokensData{
			Title:        "Tokens error",
			ErrorMessage: "Could not save tokens",
			PreciseError: err.Error(),
			Body:         "Please check the expiry date and try again:",
			BaseURL:      h.config.BaseURL,
			Passcode:     code,
		})
		return
	}

	// Rotation complete; the passcode has done its job.
	if err := h.store.Reset(); err != nil {
		h.serverError(w, err)
		return
	}

	h.logger.Info("credentials rotated, new expiry %s", expiryDate)
	http.Redirect(w, r, h.config.BaseURL, http.StatusSeeOther)
}

// passcodeIncorrect explains an invalid link. The link may simply have
// been reset after a successful rotation, so the wording stays neutral.
func (h *Handler) passcodeIncorrect(w http.ResponseWriter) {
	h.render(w, indexTemplate, indexData{
		Title:         "Invalid link",
		Heading:       "Invalid link",
		HeadingColor:  "#dc3545",
		ShowEmailForm: true,
		BaseURL:       h.config.BaseURL,
		Paragraphs: []string{
			"Your tokens reset link does not appear to be valid. It may have been reset following a successful attempt to update the tokens.",
			"To be sent another link, enter the registered admin email address for X-Risk/TERRA below:",
		},
	})
}

func (h *Handler) passcodeExpired(w http.ResponseWriter) {
	h.render(w, indexTemplate, indexData{
		Title:         "Link expired",
		Heading:       "Link expired",
		HeadingColor:  "#fb8c00",
		ShowEmailForm: true,
		BaseURL:       h.config.BaseURL,
		Paragraphs: []string{
			fmt.Sprintf("Reset authentication tokens link must be used within %d hours of being sent.", int(h.config.PasscodeExpiry.Hours())),
			"To be sent another link, enter the registered admin email address for X-Risk/TERRA below:",
		},
	})
}

func (h *Handler) attachInstructions(msg *notify.Message) {
	if h.config.InstructionsPath == "" {
		return
	}
	content, err := os.ReadFile(h.config.InstructionsPath)
	if err != nil {
		h.logger.Warn("instructions attachment unavailable: %v", err)
		return
	}
	msg.Attachment = &notify.Attachment{Filename: "Instructions.pdf", Content: content}
}

func (h *Handler) render(w http.ResponseWriter, tmpl *template.Template, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		h.logger.Error("template render failed: %v", err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	h.logger.Error("internal error: %v", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
