package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCommand_Passing(t *testing.T) {
	env := newCommandEnv(t, "https://api.example.org/", "2099-01-01")

	cache := `{"SUCCESS": true, "LASTSAVED": "2026-08-30 06:00:00.000000"}`
	require.NoError(t, os.WriteFile(filepath.Join(env.dir, "tokenchecker.json"), []byte(cache), 0o600))

	cmd := NewStatusCommand(env.cfg)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Credentials: PASSING")
	assert.Contains(t, output, "Last checked: 2026-08-30 06:00:00.000000")
	assert.Contains(t, output, "Expiry date: 2099-01-01")
	assert.NotContains(t, output, "Warning")
}

func TestStatusCommand_Failing(t *testing.T) {
	env := newCommandEnv(t, "https://api.example.org/", "2099-01-01")

	cache := `{"SUCCESS": false, "LASTSAVED": "2026-08-30 06:00:00.000000"}`
	require.NoError(t, os.WriteFile(filepath.Join(env.dir, "tokenchecker.json"), []byte(cache), 0o600))

	cmd := NewStatusCommand(env.cfg)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "Credentials: FAILING")
}

func TestStatusCommand_ExpiringSoonWarns(t *testing.T) {
	env := newCommandEnv(t, "https://api.example.org/", "2000-01-01")

	cmd := NewStatusCommand(env.cfg)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "Warning: credentials expire within the reminder window")
}

func TestStatusCommand_JSON(t *testing.T) {
	env := newCommandEnv(t, "https://api.example.org/", "2099-01-01")

	cache := `{"SUCCESS": true, "LASTSAVED": "2026-08-30 06:00:00.000000"}`
	require.NoError(t, os.WriteFile(filepath.Join(env.dir, "tokenchecker.json"), []byte(cache), 0o600))

	cmd := NewStatusCommand(env.cfg)
	cmd.SetArgs([]string{"--json"})

	stdout := captureStdout(t, func() {
		require.NoError(t, cmd.Execute())
	})

	var output map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &output))
	assert.Equal(t, true, output["success"])
	assert.Equal(t, "2099-01-01", output["expiryDate"])
	assert.Equal(t, false, output["expiresSoon"])
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()
	require.NoError(t, w.Close())

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	return buf.String()
}
