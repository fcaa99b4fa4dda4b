// Package notify composes and delivers the admin notification emails.
//
// Delivery is best-effort from the core's perspective: passcode issuance
// and status-cache writes have already committed by the time a message is
// composed, and a send failure rolls nothing back.
package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"regexp"
	"strings"
	"time"

	swerrors "github.com/cserlab/scopuswatch/internal/errors"
)

// headerPattern matches common email header injection patterns.
// This catches: Bcc:, Cc:, To:, From:, Subject:, Reply-To:, X-*: headers
var headerPattern = regexp.MustCompile(`(?i)\b(bcc|cc|to|from|subject|reply-to|x-[a-z0-9-]+)\s*:`)

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	// Host is the SMTP server hostname.
	Host string

	// Port is the SMTP server port.
	Port int

	// Username for SMTP authentication (optional).
	Username string

	// Password for SMTP authentication (optional).
	Password string
}

// MailerConfig holds configuration for the notification mailer.
type MailerConfig struct {
	// SMTP server configuration.
	SMTP SMTPConfig

	// From is the sender address.
	From string

	// To is the single admin recipient address.
	To string
}

// SMTPSendFunc is the function signature for sending emails via SMTP.
type SMTPSendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// Attachment is an optional file carried by a message.
type Attachment struct {
	Filename string
	Content  []byte
}

// Message is a composed notification ready for delivery.
type Message struct {
	Subject    string
	Text       string
	HTML       string
	Attachment *Attachment
}

// Mailer sends admin notifications via SMTP.
type Mailer struct {
	config     MailerConfig
	smtpSender SMTPSendFunc
}

// NewMailer creates a new notification mailer.
func NewMailer(config MailerConfig) *Mailer {
	return &Mailer{
		config:     config,
		smtpSender: smtp.SendMail,
	}
}

// SetSender sets a custom SMTP send function for testing.
func (m *Mailer) SetSender(sender SMTPSendFunc) {
	m.smtpSender = sender
}

// Validate checks if the mailer configuration is valid.
func (m *Mailer) Validate() error {
	if m.config.SMTP.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if m.config.SMTP.Port == 0 {
		return fmt.Errorf("SMTP port is required")
	}
	if m.config.From == "" {
		return fmt.Errorf("from address is required")
	}
	if m.config.To == "" {
		return fmt.Errorf("recipient address is required")
	}
	return nil
}

// Send delivers a composed message to the configured admin address.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	raw := m.buildMIMEMessage(msg)

	addr := fmt.Sprintf("%s:%d", m.config.SMTP.Host, m.config.SMTP.Port)

	var auth smtp.Auth
	if m.config.SMTP.Username != "" {
		auth = smtp.PlainAuth("", m.config.SMTP.Username, m.config.SMTP.Password, m.config.SMTP.Host)
	}

	if err := m.smtpSender(addr, auth, m.config.From, []string{m.config.To}, []byte(raw)); err != nil {
		return swerrors.MailError("send", err)
	}

	return nil
}

// buildMIMEMessage creates the raw MIME message: multipart/alternative
// for text+HTML, wrapped in multipart/mixed when an attachment rides
// along.
func (m *Mailer) buildMIMEMessage(msg Message) string {
	altBoundary := fmt.Sprintf("----=_Alt_%d", time.Now().UnixNano())

	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("From: %s\r\n", m.config.From))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", m.config.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", sanitizeHeader(msg.Subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")

	var mixedBoundary string
	if msg.Attachment != nil {
		mixedBoundary = fmt.Sprintf("----=_Mixed_%d", time.Now().UnixNano()+1)
		buf.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n", mixedBoundary))
		buf.WriteString("\r\n")
		buf.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
	}

	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", altBoundary))
	buf.WriteString("\r\n")

	// Plain-text part
	buf.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
	buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.Text)
	buf.WriteString("\r\n")

	// HTML part. Per RFC 2046 the last alternative is the preferred one.
	buf.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
	buf.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.HTML)
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s--\r\n", altBoundary))

	if msg.Attachment != nil {
		buf.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
		buf.WriteString("Content-Type: application/octet-stream\r\n")
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		buf.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n", msg.Attachment.Filename))
		buf.WriteString("\r\n")
		buf.WriteString(wrapBase64(base64.StdEncoding.EncodeToString(msg.Attachment.Content)))
		buf.WriteString("\r\n")
		buf.WriteString(fmt.Sprintf("--%s--\r\n", mixedBoundary))
	}

	return buf.String()
}

// wrapBase64 folds base64 output to the RFC 2045 76-character line limit.
func wrapBase64(s string) string {
	const lineLen = 76
	var buf strings.Builder
	for len(s) > lineLen {
		buf.WriteString(s[:lineLen])
		buf.WriteString("\r\n")
		s = s[lineLen:]
	}
	buf.WriteString(s)
	return buf.String()
}

// sanitizeHeader removes newlines and header-like patterns to prevent
// SMTP header injection.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")

	s = headerPattern.ReplaceAllString(s, "")

	return strings.Join(strings.Fields(s), " ")
}
