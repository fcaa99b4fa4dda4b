package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserError_Error(t *testing.T) {
	t.Parallel()

	err := UserError{
		Message:    "email send failed",
		Details:    "server said no",
		Suggestion: "check the SMTP password",
	}

	msg := err.Error()
	assert.Contains(t, msg, "email send failed")
	assert.Contains(t, msg, "Details: server said no")
	assert.Contains(t, msg, "Try: check the SMTP password")
}

func TestUserError_FallsBackToWrapped(t *testing.T) {
	t.Parallel()

	inner := fmt.Errorf("dial tcp: connection refused")
	err := UserError{Err: inner}

	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, inner, err.Unwrap())
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	inner := fmt.Errorf("open /data/passcode.json: permission denied")
	err := StoreError{Path: "/data/passcode.json", Op: "write", Err: inner}

	assert.Contains(t, err.Error(), "store write failed for /data/passcode.json")
	assert.Equal(t, inner, err.Unwrap())
}

func TestMailError_Suggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"auth failure", fmt.Errorf("535 5.7.8 authentication failed"), "username and password"},
		{"connection refused", fmt.Errorf("dial tcp: connection refused"), "SMTP host and port"},
		{"tls", fmt.Errorf("tls: first record does not look like a TLS handshake"), "STARTTLS"},
		{"timeout", fmt.Errorf("i/o timeout"), "did not respond"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := MailError("send", tt.err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSimplifyError(t *testing.T) {
	t.Parallel()

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, SimplifyError(nil))
	})

	t.Run("yaml error becomes config error", func(t *testing.T) {
		t.Parallel()
		err := SimplifyError(fmt.Errorf("yaml: line 3: mapping values are not allowed"))
		var cfgErr ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Message, "Invalid YAML")
	})

	t.Run("permission denied gets suggestion", func(t *testing.T) {
		t.Parallel()
		err := SimplifyError(fmt.Errorf("open passcode.json: permission denied"))
		assert.Contains(t, err.Error(), "web server account")
	})

	t.Run("user errors pass through", func(t *testing.T) {
		t.Parallel()
		orig := UserError{Message: "already friendly"}
		assert.Equal(t, error(orig), SimplifyError(orig))
	})

	t.Run("unknown errors pass through", func(t *testing.T) {
		t.Parallel()
		orig := fmt.Errorf("something opaque")
		assert.Equal(t, orig, SimplifyError(orig))
	})
}
