package scopus

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHTTPClient implements HTTPClient for testing.
type mockHTTPClient struct {
	response *http.Response
	err      error
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.response, m.err
}

type capturingHTTPClient struct {
	response    *http.Response
	err         error
	lastRequest *http.Request
}

func (c *capturingHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.lastRequest = req
	return c.response, c.err
}

func newMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

type mockError struct {
	msg string
}

func (e *mockError) Error() string {
	return e.msg
}

var testNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func newTestChecker(t *testing.T) (*Checker, string, string) {
	t.Helper()

	dir := t.TempDir()
	credPath := filepath.Join(dir, "config.json")
	cachePath := filepath.Join(dir, "tokenchecker.json")

	checker, err := NewChecker(DefaultCheckerConfig(credPath, cachePath))
	require.NoError(t, err)
	checker.SetClock(func() time.Time { return testNow })
	return checker, credPath, cachePath
}

func writeCredentials(t *testing.T, path string, creds Credentials) {
	t.Helper()
	data, err := json.MarshalIndent(creds, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))
}

func readStatus(t *testing.T, path string) Status {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var status Status
	require.NoError(t, json.Unmarshal(data, &status))
	return status
}

const successBody = `{
  "search-results": {
    "entry": [
      {"dc:title": "Sample", "dc:description": "Human extinction is the hypothetical end of the human species, either by population decline or by..."}
    ]
  }
}`

func TestChecker_Run_Success(t *testing.T) {
	t.Parallel()

	checker, credPath, _ := newTestChecker(t)
	writeCredentials(t, credPath, Credentials{APIKey: "key", InstToken: "tok", ExpiryDate: "2027-01-01"})
	require.NoError(t, checker.LoadStoredCredentials())

	checker.SetClient(&mockHTTPClient{response: newMockResponse(200, successBody)})

	result, err := checker.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Human extinction is the hypothetical end...", result.Detail)
	assert.Len(t, result.Detail, detailExcerptLen+3)
}

func TestChecker_Run_ShortDescription(t *testing.T) {
	t.Parallel()

	checker, credPath, _ := newTestChecker(t)
	writeCredentials(t, credPath, Credentials{APIKey: "key", ExpiryDate: "2027-01-01"})
	require.NoError(t, checker.LoadStoredCredentials())

	body := `{"search-results": {"entry": [{"dc:description": "Short abstract."}]}}`
	checker.SetClient(&mockHTTPClient{response: newMockResponse(200, body)})

	result, err := checker.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Short abstract....", result.Detail)
}

func TestChecker_Run_MissingDescription(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"field absent", `{"search-results": {"entry": [{"dc:title": "Sample"}]}}`},
		{"no entries", `{"search-results": {"entry": []}}`},
		{"wrong shape", `{"something": "else"}`},
		{"unparseable", `<html>not json</html>`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			checker, credPath, cachePath := newTestChecker(t)
			writeCredentials(t, credPath, Credentials{APIKey: "key", ExpiryDate: "2027-01-01"})
			require.NoError(t, checker.LoadStoredCredentials())

			checker.SetClient(&mockHTTPClient{response: newMockResponse(200, tt.body)})

			result, err := checker.Run(context.Background())
			require.NoError(t, err)
			assert.False(t, result.Success)
			assert.Equal(t, missingFieldDetail, result.Detail)
			assert.False(t, readStatus(t, cachePath).Success)
		})
	}
}

func TestChecker_Run_ServiceErrorEnvelope(t *testing.T) {
	t.Parallel()

	checker, credPath, _ := newTestChecker(t)
	writeCredentials(t, credPath, Credentials{APIKey: "bad", ExpiryDate: "2027-01-01"})
	require.NoError(t, checker.LoadStoredCredentials())

	body := `{"service-error": {"status": {"statusCode": "AUTHENTICATION_ERROR", "statusText": "Invalid API Key"}}}`
	checker.SetClient(&mockHTTPClient{response: newMockResponse(401, body)})

	result, err := checker.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid API Key", result.Detail)
}

func TestChecker_Run_ErrorResponseEnvelope(t *testing.T) {
	t.Parallel()

	checker, credPath, _ := newTestChecker(t)
	writeCredentials(t, credPath, Credentials{APIKey: "bad", ExpiryDate: "2027-01-01"})
	require.NoError(t, checker.LoadStoredCredentials())

	body := `{"error-response": {"error-code": "TOO_MANY_REQUESTS", "error-message": "Quota exceeded"}}`
	checker.SetClient(&mockHTTPClient{response: newMockResponse(429, body)})

	result, err := checker.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Quota exceeded", result.Detail)
}

func TestChecker_Run_UnstructuredErrorBody(t *testing.T) {
	t.Parallel()

	checker, credPath, _ := newTestChecker(t)
	writeCredentials(t, credPath, Credentials{APIKey: "bad", ExpiryDate: "2027-01-01"})
	require.NoError(t, checker.LoadStoredCredentials())

	checker.SetClient(&mockHTTPClient{response: newMockResponse(502, "Bad Gateway")})

	result, err := checker.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Bad Gateway", result.Detail)
}

func TestChecker_Run_TransportError(t *testing.T) {
	t.Parallel()

	checker, credPath, cachePath := newTestChecker(t)
	writeCredentials(t, credPath, Credentials{APIKey: "key", ExpiryDate: "2027-01-01"})
	require.NoError(t, checker.LoadStoredCredentials())

	checker.SetClient(&mockHTTPClient{err: &mockError{"dial tcp: connection refused"}})

	result, err := checker.Run(context.Background())
	require.NoError(t, err) // converted to a failure result, never propagated
	assert.False(t, result.Success)
	assert.Contains(t, result.Detail, "connection refused")
	assert.False(t, readStatus(t, cachePath).Success)
}

func TestChecker_Run_RealModeWritesCache(t *testing.T) {
	t.Parallel()

	checker, credPath, cachePath := newTestChecker(t)
	writeCredentials(t, credPath, Credentials{APIKey: "key", ExpiryDate: "2027-01-01"})
	require.NoError(t, checker.LoadStoredCredentials())

	checker.SetClient(&mockHTTPClient{response: newMockResponse(200, successBody)})
	_, err := checker.Run(context.Background())
	require.NoError(t, err)

	status := readStatus(t, cachePath)
	assert.True(t, status.Success)
	assert.Equal(t, testNow.Format(lastSavedLayout), status.LastSaved)
}

func TestChecker_Run_CandidateModeLeavesCacheUntouched(t *testing.T) {
	t.Parallel()

	checker, credPath, cachePath := newTestChecker(t)
	writeCredentials(t, credPath, Credentials{APIKey: "key", ExpiryDate: "2027-01-01"})
	require.NoError(t, checker.LoadStoredCredentials())

	// Record a passing real check first.
	checker.SetClient(&mockHTTPClient{response: newMockResponse(200, successBody)})
	_, err := checker.Run(context.Background())
	require.NoError(t, err)
	before := readStatus(t, cachePath)
	require.True(t, before.Success)

	// A failing candidate trial must not mask it.
	checker.SetCandidate("trial-key", "trial-token")
	checker.SetClient(&mockHTTPClient{response: newMockResponse(401, `{"service-error": {"status": {"statusText": "Invalid API Key"}}}`)})

	result, err := checker.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, before, readStatus(t, cachePath))
}

func TestChecker_Run_RequestHeaders(t *testing.T) {
	t.Parallel()

	checker, credPath, _ := newTestChecker(t)
	writeCredentials(t, credPath, Credentials{APIKey: "key-123", InstToken: "inst-456", ExpiryDate: "2027-01-01"})
	require.NoError(t, checker.LoadStoredCredentials())

	capture := &capturingHTTPClient{response: newMockResponse(200, successBody)}
	checker.SetClient(capture)

	_, err := checker.Run(context.Background())
	require.NoError(t, err)

	req := capture.lastRequest
	require.NotNil(t, req)
	assert.Equal(t, "key-123", req.Header.Get("X-ELS-APIKey"))
	assert.Equal(t, "inst-456", req.Header.Get("X-ELS-Insttoken"))
	assert.Equal(t, "elsapy-v0.3.2", req.Header.Get("User-Agent"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Contains(t, req.URL.String(), "api.elsevier.com/content/search/scopus/?query=")
}

func TestChecker_Run_OmitsEmptyInstToken(t *testing.T) {
	t.Parallel()

	checker, credPath, _ := newTestChecker(t)
	writeCredentials(t, credPath, Credentials{APIKey: "key-123", ExpiryDate: "2027-01-01"})
	require.NoError(t, checker.LoadStoredCredentials())

	capture := &capturingHTTPClient{response: newMockResponse(200, successBody)}
	checker.SetClient(capture)

	_, err := checker.Run(context.Background())
	require.NoError(t, err)

	_, present := capture.lastRequest.Header["X-Els-Insttoken"]
	assert.False(t, present)
}

func TestChecker_Promote(t *testing.T) {
	t.Parallel()

	checker, credPath, cachePath := newTestChecker(t)
	writeCredentials(t, credPath, Credentials{APIKey: "old", InstToken: "old-tok", ExpiryDate: "2026-09-01"})
	require.NoError(t, checker.LoadStoredCredentials())

	checker.SetCandidate("new-key", "new-tok")
	require.NoError(t, checker.Promote("new-key", "new-tok", "2027-09-01"))

	// Credential file overwritten wholesale.
	data, err := os.ReadFile(credPath)
	require.NoError(t, err)
	var creds Credentials
	require.NoError(t, json.Unmarshal(data, &creds))
	assert.Equal(t, Credentials{APIKey: "new-key", InstToken: "new-tok", ExpiryDate: "2027-09-01"}, creds)

	// Cache records success, and the checker is back in real mode.
	assert.True(t, readStatus(t, cachePath).Success)
	assert.True(t, checker.real)
}

func TestChecker_Promote_RejectsBadExpiryDate(t *testing.T) {
	t.Parallel()

	checker, _, _ := newTestChecker(t)
	err := checker.Promote("k", "t", "01/09/2027")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestChecker_LoadStoredCredentials_SchemaValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"missing apikey", `{"insttoken": "t", "expirydate": "2027-01-01"}`},
		{"empty apikey", `{"apikey": "", "insttoken": "t", "expirydate": "2027-01-01"}`},
		{"bad expiry format", `{"apikey": "k", "insttoken": "t", "expirydate": "soon"}`},
		{"unknown field", `{"apikey": "k", "insttoken": "t", "expirydate": "2027-01-01", "extra": 1}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			checker, credPath, _ := newTestChecker(t)
			require.NoError(t, os.WriteFile(credPath, []byte(tt.body), 0600))

			err := checker.LoadStoredCredentials()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate")
		})
	}
}

func TestChecker_LoadStoredCredentials_MissingFile(t *testing.T) {
	t.Parallel()

	checker, _, _ := newTestChecker(t)
	require.Error(t, checker.LoadStoredCredentials())
}

func TestNewChecker_BootstrapsStatusCache(t *testing.T) {
	t.Parallel()

	_, _, cachePath := newTestChecker(t)
	status := readStatus(t, cachePath)
	assert.True(t, status.Success)
	assert.NotEmpty(t, status.LastSaved)
}

func TestChecker_CachedStatus(t *testing.T) {
	t.Parallel()

	checker, _, cachePath := newTestChecker(t)

	require.NoError(t, os.WriteFile(cachePath,
		[]byte(`{"SUCCESS": false, "LASTSAVED": "2026-08-29 03:00:00.000000"}`), 0600))

	status, err := checker.CachedStatus()
	require.NoError(t, err)
	assert.False(t, status.Success)
	assert.Equal(t, "2026-08-29 03:00:00.000000", status.LastSaved)
}

func TestChecker_ExpiresSoon(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		expiryDate string
		want       bool
	}{
		{"far in the future", "2027-08-30", false},
		{"inside the window", "2026-09-10", true},
		{"already past", "2026-08-01", true},
		{"last day inside the window", "2026-09-29", true},
		{"first day outside", "2026-09-30", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			checker, credPath, _ := newTestChecker(t)
			writeCredentials(t, credPath, Credentials{APIKey: "k", ExpiryDate: tt.expiryDate})
			require.NoError(t, checker.LoadStoredCredentials())

			soon, err := checker.ExpiresSoon()
			require.NoError(t, err)
			assert.Equal(t, tt.want, soon)
		})
	}
}

func TestChecker_ExpiresSoon_BadDate(t *testing.T) {
	t.Parallel()

	checker, _, _ := newTestChecker(t)
	checker.creds.ExpiryDate = "never"
	_, err := checker.ExpiresSoon()
	require.Error(t, err)
}

func TestChecker_CurlCommand(t *testing.T) {
	t.Parallel()

	checker, credPath, _ := newTestChecker(t)
	writeCredentials(t, credPath, Credentials{APIKey: "key-123", InstToken: "inst-456", ExpiryDate: "2027-01-01"})
	require.NoError(t, checker.LoadStoredCredentials())

	cmd := checker.CurlCommand()
	assert.Contains(t, cmd, `--header "X-ELS-APIKey: key-123"`)
	assert.Contains(t, cmd, `--header "X-ELS-Insttoken: inst-456"`)
	assert.Contains(t, cmd, `--header "User-Agent: elsapy-v0.3.2"`)
	assert.Contains(t, cmd, "api.elsevier.com/content/search/scopus/?query=")
}

func TestExtractErrorMessage_PartialEnvelope(t *testing.T) {
	t.Parallel()

	// Descent stops at the deepest matching key; what remains is shown
	// as compact JSON.
	body := []byte(`{"service-error": {"status": {"statusCode": "RATE_LIMIT"}}}`)
	assert.Equal(t, `{"statusCode":"RATE_LIMIT"}`, extractErrorMessage(body))
}
