// Package scopus verifies Elsevier Scopus API credentials with a live
// search call and maintains the cached pass/fail status of the last check.
//
// A Checker operates in one of two modes. After LoadStoredCredentials it
// holds the real, promotable credentials and every Run outcome is written
// to the status cache. After SetCandidate it holds operator-supplied trial
// credentials: Run still performs the live check but never touches the
// cache, so a failed trial cannot mask a previously working credential.
package scopus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	swerrors "github.com/cserlab/scopuswatch/internal/errors"
)

// descriptionField is the entry field whose presence proves the
// credentials grant full (COMPLETE view) access.
const descriptionField = "dc:description"

// missingFieldDetail is the fixed diagnostic for a 200 response whose
// sample entry lacks the description field.
const missingFieldDetail = "Missing 'dc:description' field from sample entry"

// detailExcerptLen is how much of the sample abstract ends up in the
// success detail.
const detailExcerptLen = 40

// CheckerConfig holds configuration for the credential checker.
type CheckerConfig struct {
	// Endpoint is the Scopus search endpoint.
	Endpoint string

	// TestQuery is the fixed canned query appended to the endpoint.
	TestQuery string

	// UserAgent is sent verbatim on every request.
	UserAgent string

	// CredentialsPath is the rotatable credential file.
	CredentialsPath string

	// StatusCachePath is the cached last-check-outcome file.
	StatusCachePath string

	// ReminderWindow is how long before token expiry reminders start.
	ReminderWindow time.Duration

	// Timeout is the outbound request timeout.
	Timeout time.Duration
}

// DefaultCheckerConfig returns the default checker configuration for the
// given store locations.
func DefaultCheckerConfig(credentialsPath, statusCachePath string) CheckerConfig {
	return CheckerConfig{
		Endpoint:        "https://api.elsevier.com/content/search/scopus/",
		TestQuery:       "TITLE-ABS-KEY%28%22human+extinction%22%29+AND+PUBYEAR+%3D+2000&view=COMPLETE",
		UserAgent:       "elsapy-v0.3.2",
		CredentialsPath: credentialsPath,
		StatusCachePath: statusCachePath,
		ReminderWindow:  30 * 24 * time.Hour,
		Timeout:         30 * time.Second,
	}
}

// HTTPClient is the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials is the rotatable credential record as persisted.
type Credentials struct {
	APIKey     string `json:"apikey"`
	InstToken  string `json:"insttoken"`
	ExpiryDate string `json:"expirydate"`
}

// Result is the outcome of a single live check.
type Result struct {
	// Success reports whether the credentials passed.
	Success bool

	// Detail is a human-readable explanation: a truncated abstract
	// excerpt on success, the vendor error text on failure.
	Detail string
}

// Status is the cached outcome of the last live check performed with the
// real stored credentials.
type Status struct {
	Success   bool   `json:"SUCCESS"`
	LastSaved string `json:"LASTSAVED"`
}

// lastSavedLayout matches the timestamp format of existing cache files.
const lastSavedLayout = "2006-01-02 15:04:05.000000"

// Checker performs live credential checks against the Scopus search API.
type Checker struct {
	config CheckerConfig
	client HTTPClient
	now    func() time.Time

	creds Credentials

	// real is true while the in-memory credentials are the stored,
	// promotable ones. Candidate credentials never write the cache.
	real bool
}

// NewChecker creates a credential checker, bootstrapping the status cache
// file with a passing record if it does not exist yet.
func NewChecker(config CheckerConfig) (*Checker, error) {
	c := &Checker{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		now:    time.Now,
	}

	if _, err := os.Stat(config.StatusCachePath); os.IsNotExist(err) {
		if err := c.writeStatus(Status{Success: true, LastSaved: c.now().Format(lastSavedLayout)}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, swerrors.StoreError{Path: config.StatusCachePath, Op: "stat", Err: err}
	}

	return c, nil
}

// SetClient sets a custom HTTP client for testing.
func (c *Checker) SetClient(client HTTPClient) {
	c.client = client
}

// SetClock sets a custom time function for testing.
func (c *Checker) SetClock(now func() time.Time) {
	c.now = now
}

// LoadStoredCredentials reads the persisted credential file and switches
// the checker to real (promotable, cache-writing) mode.
func (c *Checker) LoadStoredCredentials() error {
	data, err := os.ReadFile(c.config.CredentialsPath)
	if err != nil {
		return swerrors.StoreError{Path: c.config.CredentialsPath, Op: "read", Err: err}
	}

	if err := validateCredentialDocument(data); err != nil {
		return swerrors.StoreError{Path: c.config.CredentialsPath, Op: "validate", Err: err}
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return swerrors.StoreError{Path: c.config.CredentialsPath, Op: "parse", Err: err}
	}

	c.creds = creds
	c.real = true
	return nil
}

// SetCandidate overrides the in-memory credentials with operator-supplied
// trial values. The stored expiry date is kept; candidate checks do not
// consult it.
func (c *Checker) SetCandidate(apiKey, instToken string) {
	c.creds.APIKey = apiKey
	c.creds.InstToken = instToken
	c.real = false
}

// Credentials returns the credentials the checker currently operates on.
func (c *Checker) Credentials() Credentials {
	return c.creds
}

// Run performs one live check against the search endpoint and classifies
// the response. Transport errors and malformed bodies become failure
// results, never errors; the returned error is reserved for status-cache
// persistence failures.
func (c *Checker) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	result := c.check(ctx)
	recordDuration(time.Since(start).Seconds())

	if err := c.cacheOutcome(result.Success); err != nil {
		return result, err
	}
	recordCheck(c.real, result.Success)
	return result, nil
}

func (c *Checker) check(ctx context.Context) Result {
	url := c.config.Endpoint + "?query=" + c.config.TestQuery

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Success: false, Detail: fmt.Sprintf("failed to create request: %v", err)}
	}

	req.Header.Set("X-ELS-APIKey", c.creds.APIKey)
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.creds.InstToken != "" {
		req.Header.Set("X-ELS-Insttoken", c.creds.InstToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{Success: false, Detail: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Success: false, Detail: fmt.Sprintf("failed to read response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return Result{Success: false, Detail: extractErrorMessage(body)}
	}

	return classifyEntry(body)
}

// classifyEntry checks the first search result entry for the description
// field that a fully authorized request returns.
func classifyEntry(body []byte) Result {
	var payload struct {
		SearchResults struct {
			Entry []map[string]interface{} `json:"entry"`
		} `json:"search-results"`
	}

	if err := json.Unmarshal(body, &payload); err != nil || len(payload.SearchResults.Entry) == 0 {
		return Result{Success: false, Detail: missingFieldDetail}
	}

	desc, ok := payload.SearchResults.Entry[0][descriptionField].(string)
	if !ok {
		return Result{Success: false, Detail: missingFieldDetail}
	}

	excerpt := []rune(desc)
	if len(excerpt) > detailExcerptLen {
		excerpt = excerpt[:detailExcerptLen]
	}
	return Result{Success: true, Detail: string(excerpt) + "..."}
}

// cacheOutcome writes the outcome to the status cache, but only when the
// check ran with the real stored credentials.
func (c *Checker) cacheOutcome(success bool) error {
	if !c.real {
		return nil
	}
	return c.writeStatus(Status{Success: success, LastSaved: c.now().Format(lastSavedLayout)})
}

// Promote persists verified candidate credentials as the new live record,
// switches back to real mode and records a passing status. Only call this
// after a successful candidate-mode Run.
func (c *Checker) Promote(apiKey, instToken, expiryDate string) error {
	if _, err := time.Parse("2006-01-02", expiryDate); err != nil {
		return fmt.Errorf("invalid expiry date %q: want YYYY-MM-DD", expiryDate)
	}

	creds := Credentials{APIKey: apiKey, InstToken: instToken, ExpiryDate: expiryDate}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return swerrors.StoreError{Path: c.config.CredentialsPath, Op: "marshal", Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(c.config.CredentialsPath), 0700); err != nil {
		return swerrors.StoreError{Path: c.config.CredentialsPath, Op: "mkdir", Err: err}
	}

	if err := os.WriteFile(c.config.CredentialsPath, data, 0600); err != nil {
		return swerrors.StoreError{Path: c.config.CredentialsPath, Op: "write", Err: err}
	}

	c.creds = creds
	c.real = true

	return c.writeStatus(Status{Success: true, LastSaved: c.now().Format(lastSavedLayout)})
}

// CachedStatus reads the last recorded outcome without touching the
// network. Used for fast page rendering.
func (c *Checker) CachedStatus() (Status, error) {
	data, err := os.ReadFile(c.config.StatusCachePath)
	if err != nil {
		return Status{}, swerrors.StoreError{Path: c.config.StatusCachePath, Op: "read", Err: err}
	}

	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		return Status{}, swerrors.StoreError{Path: c.config.StatusCachePath, Op: "parse", Err: err}
	}

	return status, nil
}

// ExpiresSoon reports whether the expiry date is within the reminder
// window of now.
func (c *Checker) ExpiresSoon() (bool, error) {
	expiry, err := time.Parse("2006-01-02", c.creds.ExpiryDate)
	if err != nil {
		return false, fmt.Errorf("invalid stored expiry date %q: %w", c.creds.ExpiryDate, err)
	}

	reminder := expiry.Add(-c.config.ReminderWindow)
	return c.now().After(reminder), nil
}

// CurlCommand builds a command an admin can run locally to reproduce the
// exact request the checker makes. Embedded in failure notifications.
func (c *Checker) CurlCommand() string {
	cmd := `curl --header "Accept: application/json" --header "User-Agent: ` + c.config.UserAgent + `" `
	cmd += `--header "X-ELS-APIKey: ` + c.creds.APIKey + `" `
	if c.creds.InstToken != "" {
		cmd += `--header "X-ELS-Insttoken: ` + c.creds.InstToken + `" `
	}
	cmd += `"` + c.config.Endpoint + `?query=` + c.config.TestQuery + `"`
	return cmd
}

func (c *Checker) writeStatus(status Status) error {
	if err := os.MkdirAll(filepath.Dir(c.config.StatusCachePath), 0700); err != nil {
		return swerrors.StoreError{Path: c.config.StatusCachePath, Op: "mkdir", Err: err}
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return swerrors.StoreError{Path: c.config.StatusCachePath, Op: "marshal", Err: err}
	}

	if err := os.WriteFile(c.config.StatusCachePath, data, 0600); err != nil {
		return swerrors.StoreError{Path: c.config.StatusCachePath, Op: "write", Err: err}
	}

	return nil
}
