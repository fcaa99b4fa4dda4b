// Package errors defines user-facing error types with actionable
// suggestions for common failure modes (SMTP, Elsevier API, file stores).
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// StoreError wraps a persistence failure on one of the JSON store files.
// Store I/O failures are fatal to the current operation and never retried.
type StoreError struct {
	Path string
	Op   string
	Err  error
}

func (e StoreError) Error() string {
	msg := fmt.Sprintf("store %s failed for %s", e.Op, e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e StoreError) Unwrap() error {
	return e.Err
}

// MailError enhances SMTP delivery errors with context
func MailError(operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("email %s failed", operation),
		Suggestion: getMailSuggestion(err),
		Err:        err,
	}
}

// getMailSuggestion returns helpful suggestions based on the SMTP error
func getMailSuggestion(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "535") || strings.Contains(strings.ToLower(errStr), "authentication") {
		return "Check the SMTP username and password in scopuswatch.yaml"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Check the SMTP host and port, and that the server is reachable"
	}
	if strings.Contains(strings.ToLower(errStr), "tls") {
		return "The SMTP server may not support STARTTLS on this port; try port 587"
	}
	if strings.Contains(strings.ToLower(errStr), "timeout") {
		return "The SMTP server did not respond. Check your network connection"
	}

	return ""
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	// Already a user-friendly error
	if _, ok := err.(UserError); ok {
		return err
	}
	if _, ok := err.(ConfigError); ok {
		return err
	}
	if _, ok := err.(StoreError); ok {
		return err
	}

	// Simplify common technical errors
	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes in scopuswatch.yaml",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "The web server account must be able to write the passcode and token store files",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the data directory in scopuswatch.yaml exists",
			Err:        err,
		}
	}

	// Return original error if we can't simplify it
	return err
}
