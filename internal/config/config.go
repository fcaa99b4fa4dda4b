// Package config loads and validates the scopuswatch.yaml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	swerrors "github.com/cserlab/scopuswatch/internal/errors"
	"github.com/cserlab/scopuswatch/internal/logging"
	"gopkg.in/yaml.v3"
)

// Defaults mirror the constants the system has always run with.
const (
	DefaultEndpoint  = "https://api.elsevier.com/content/search/scopus/"
	DefaultTestQuery = "TITLE-ABS-KEY%28%22human+extinction%22%29+AND+PUBYEAR+%3D+2000&view=COMPLETE"
	DefaultUserAgent = "elsapy-v0.3.2"

	DefaultPasscodeExpiryMinutes = 24 * 60
	DefaultThrottleSeconds       = 1
	DefaultReminderDays          = 30
	DefaultHTTPTimeoutMs         = 30000
	DefaultListenAddr            = ":8080"
)

// Config holds the runtime configuration
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the scopuswatch.yaml structure
type Definition struct {
	Admin    AdminConfig    `yaml:"admin"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Scopus   ScopusConfig   `yaml:"scopus"`
	Files    FilesConfig    `yaml:"files"`
	Passcode PasscodeConfig `yaml:"passcode"`
	Listen   string         `yaml:"listen,omitempty"`
}

// AdminConfig identifies the single administrator this system notifies.
type AdminConfig struct {
	// Email is the statically configured admin contact address. Reset
	// links are only ever sent here.
	Email string `yaml:"email"`

	// BaseURL is the externally reachable URL of the admin front end,
	// used to compose reset links.
	BaseURL string `yaml:"baseURL"`
}

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// From is the envelope sender. Defaults to the admin address.
	From string `yaml:"from,omitempty"`
}

// ScopusConfig holds the external Elsevier endpoint configuration.
type ScopusConfig struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	TestQuery string `yaml:"testQuery,omitempty"`
	UserAgent string `yaml:"userAgent,omitempty"`
	TimeoutMs int    `yaml:"timeout_ms,omitempty"`

	// ReminderDays is how many days before token expiry reminder
	// notifications start.
	ReminderDays int `yaml:"reminderDays,omitempty"`
}

// FilesConfig locates the persisted JSON stores and the cron lock marker.
type FilesConfig struct {
	// DataDir is the directory holding passcode.json and tokenchecker.json.
	DataDir string `yaml:"dataDir"`

	// Credentials is the path of the rotatable credential file. It lives
	// outside DataDir because the ingestion pipeline reads it too.
	Credentials string `yaml:"credentials"`

	// LockFile is created while credentials are failing so downstream
	// batch jobs short-circuit.
	LockFile string `yaml:"lockFile,omitempty"`

	// Instructions is an optional PDF attached to notification emails.
	Instructions string `yaml:"instructions,omitempty"`
}

// PasscodeConfig tunes the one-time passcode lifecycle.
type PasscodeConfig struct {
	ExpiryMinutes   int `yaml:"expiryMinutes,omitempty"`
	ThrottleSeconds int `yaml:"throttleSeconds,omitempty"`
}

// Load reads and validates the configuration file.
func (c *Config) Load() error {
	if c.Path == "" {
		c.Path = "scopuswatch.yaml"
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return swerrors.UserError{
			Message:    fmt.Sprintf("cannot read config file %s", c.Path),
			Suggestion: "Create scopuswatch.yaml or pass --config",
			Err:        err,
		}
	}

	def := &Definition{}
	if err := yaml.Unmarshal(data, def); err != nil {
		return swerrors.SimplifyError(fmt.Errorf("failed to parse %s: %w", c.Path, err))
	}

	def.applyDefaults()
	if err := def.validate(); err != nil {
		return err
	}

	c.Definition = def
	return nil
}

func (d *Definition) applyDefaults() {
	if d.Scopus.Endpoint == "" {
		d.Scopus.Endpoint = DefaultEndpoint
	}
	if d.Scopus.TestQuery == "" {
		d.Scopus.TestQuery = DefaultTestQuery
	}
	if d.Scopus.UserAgent == "" {
		d.Scopus.UserAgent = DefaultUserAgent
	}
	if d.Scopus.TimeoutMs == 0 {
		d.Scopus.TimeoutMs = DefaultHTTPTimeoutMs
	}
	if d.Scopus.ReminderDays == 0 {
		d.Scopus.ReminderDays = DefaultReminderDays
	}
	if d.Passcode.ExpiryMinutes == 0 {
		d.Passcode.ExpiryMinutes = DefaultPasscodeExpiryMinutes
	}
	if d.Passcode.ThrottleSeconds == 0 {
		d.Passcode.ThrottleSeconds = DefaultThrottleSeconds
	}
	if d.Listen == "" {
		d.Listen = DefaultListenAddr
	}
	if d.SMTP.From == "" {
		d.SMTP.From = d.Admin.Email
	}
	if d.Files.Credentials == "" && d.Files.DataDir != "" {
		d.Files.Credentials = filepath.Join(d.Files.DataDir, "config.json")
	}
}

func (d *Definition) validate() error {
	if d.Admin.Email == "" {
		return swerrors.ConfigError{
			Field:      "admin.email",
			Message:    "admin contact email is required",
			Suggestion: "Set admin.email to the registered administrator address",
		}
	}
	if d.Admin.BaseURL == "" {
		return swerrors.ConfigError{
			Field:      "admin.baseURL",
			Message:    "admin base URL is required",
			Suggestion: "Set admin.baseURL to the externally reachable front end URL, e.g. https://example.org/sysadmin",
		}
	}
	if d.Files.DataDir == "" {
		return swerrors.ConfigError{
			Field:      "files.dataDir",
			Message:    "data directory is required",
			Suggestion: "Set files.dataDir to a directory writable by the web server account",
		}
	}
	if d.SMTP.Host != "" && d.SMTP.Port == 0 {
		return swerrors.ConfigError{
			Field:      "smtp.port",
			Message:    "SMTP port is required when an SMTP host is set",
			Suggestion: "587 is the usual STARTTLS submission port",
		}
	}
	return nil
}

// PasscodePath returns the location of the passcode store file.
func (d *Definition) PasscodePath() string {
	return filepath.Join(d.Files.DataDir, "passcode.json")
}

// StatusCachePath returns the location of the cached health status file.
func (d *Definition) StatusCachePath() string {
	return filepath.Join(d.Files.DataDir, "tokenchecker.json")
}

// HTTPTimeout returns the outbound request timeout as a duration.
func (d *Definition) HTTPTimeout() time.Duration {
	return time.Duration(d.Scopus.TimeoutMs) * time.Millisecond
}

// PasscodeExpiry returns the passcode expiry window as a duration.
func (d *Definition) PasscodeExpiry() time.Duration {
	return time.Duration(d.Passcode.ExpiryMinutes) * time.Minute
}

// PasscodeThrottle returns the minimum interval between passcode checks.
func (d *Definition) PasscodeThrottle() time.Duration {
	return time.Duration(d.Passcode.ThrottleSeconds) * time.Second
}

// ReminderWindow returns the expiry reminder window as a duration.
func (d *Definition) ReminderWindow() time.Duration {
	return time.Duration(d.Scopus.ReminderDays) * 24 * time.Hour
}
