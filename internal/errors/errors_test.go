package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{ErrConfig, ErrAPI, ErrAuth, ErrStream, ErrStore, ErrExec}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code)
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	err := New(ErrConfig, "Dashboard URL is not set", "Run 'fleetdash init' first")

	assert.Equal(t, ErrConfig, err.Code)
	assert.Nil(t, err.Cause)
	assert.Equal(t, "✗ Dashboard URL is not set\n\n  Run 'fleetdash init' first\n", err.Error())
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := Wrap(cause, "Can't reach the dashboard")

	assert.Equal(t, ErrAPI, err.Code)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, strings.HasPrefix(err.Error(), "✗ Can't reach the dashboard\n"))
}

func TestWrapWithCode(t *testing.T) {
	cause := fmt.Errorf("database is locked")
	err := WrapWithCode(cause, ErrStore, "Failed to save samples", "Close other fleetdash instances")

	lines := strings.Split(strings.TrimSpace(err.Error()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "✗ Failed to save samples", lines[0])
	assert.Equal(t, "  database is locked", lines[2])
	assert.Equal(t, "  Close other fleetdash instances", lines[4])
}

func TestIsCode(t *testing.T) {
	err := New(ErrStream, "stream closed", "")
	wrapped := fmt.Errorf("outer: %w", err)

	assert.True(t, IsCode(err, ErrStream))
	assert.True(t, IsCode(wrapped, ErrStream))
	assert.False(t, IsCode(err, ErrAPI))
	assert.False(t, IsCode(nil, ErrStream))
	assert.False(t, IsCode(fmt.Errorf("plain"), ErrStream))
	assert.False(t, IsCode(fmt.Errorf("plain"), ""))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "", Code(nil))
	assert.Equal(t, "", Code(fmt.Errorf("plain")))
	assert.Equal(t, ErrStore, Code(fmt.Errorf("x: %w", New(ErrStore, "m", ""))))
}
