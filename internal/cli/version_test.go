package cli

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v, c, d string) {
	t.Helper()
	ov, oc, od := version, commit, date
	SetVersionInfo(v, c, d)
	t.Cleanup(func() { SetVersionInfo(ov, oc, od) })
}

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"dev", "dev"},
		{"1.2.3", "v1.2.3"},
		{"v1.2.3", "v1.2.3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatVersion(tt.in), tt.in)
	}
}

func TestVersionCommand(t *testing.T) {
	withVersion(t, "1.2.3", "abc123", "2026-01-01")

	out, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fleetdash v1.2.3")
	assert.Contains(t, out, "commit: abc123")
	assert.Contains(t, out, "built: 2026-01-01")
	assert.Contains(t, out, "go: "+runtime.Version())
	assert.Equal(t, "1.2.3", GetVersion())
}

func TestVersionCommand_Short(t *testing.T) {
	withVersion(t, "1.2.3", "abc123", "2026-01-01")

	out, err := runRoot(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)
}

func TestVersionCommand_JSON(t *testing.T) {
	withVersion(t, "1.2.3", "abc123", "2026-01-01")

	out, err := runRoot(t, "version", "--json")
	require.NoError(t, err)

	var env struct {
		Success bool          `json:"success"`
		Data    VersionOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "abc123", env.Data.Commit)
	assert.Equal(t, runtime.GOOS, env.Data.OS)
}
