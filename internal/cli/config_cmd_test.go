package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rileyhilliard/fleetdash/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSetCommand(t *testing.T) {
	path := withConfig(t, "# my fleet\ndashboard:\n  url: https://status.example.com\n")
	withMachineMode(t, false)

	var buf bytes.Buffer
	require.NoError(t, configSetCommand(&buf, "display.layout", "inline"))
	assert.Contains(t, buf.String(), "Set display.layout = inline in "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.LayoutInline, cfg.Display.Layout)
	assert.Equal(t, "https://status.example.com", cfg.Dashboard.URL)

	err = configSetCommand(&buf, "display.layout", "grid")
	require.Error(t, err)
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.LayoutInline, cfg.Display.Layout, "invalid values leave the file alone")
}

func TestConfigShowCommand_MasksToken(t *testing.T) {
	path := withConfig(t, "dashboard:\n  url: https://status.example.com\n  token: hunter2\n")
	withMachineMode(t, false)

	var buf bytes.Buffer
	require.NoError(t, configShowCommand(&buf))

	out := buf.String()
	assert.Contains(t, out, "# "+path)
	assert.Contains(t, out, "url: https://status.example.com")
	assert.Contains(t, out, maskedToken)
	assert.NotContains(t, out, "hunter2")
}

func TestConfigShowCommand_JSON(t *testing.T) {
	path := withConfig(t, "dashboard:\n  url: https://status.example.com\n  token: hunter2\n")
	withMachineMode(t, true)

	var buf bytes.Buffer
	require.NoError(t, configShowCommand(&buf))
	assert.NotContains(t, buf.String(), "hunter2")

	var env struct {
		Data struct {
			Path   string `json:"path"`
			Config struct {
				Dashboard struct {
					URL   string `json:"url"`
					Token string `json:"token"`
				} `json:"dashboard"`
			} `json:"config"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.Equal(t, path, env.Data.Path)
	assert.Equal(t, "https://status.example.com", env.Data.Config.Dashboard.URL)
	assert.Equal(t, maskedToken, env.Data.Config.Dashboard.Token)
}

func TestConfigPathCommand(t *testing.T) {
	path := withConfig(t, "refresh: 2s\n")
	withMachineMode(t, false)

	var buf bytes.Buffer
	require.NoError(t, configPathCommand(&buf))
	assert.Equal(t, path+"\n", buf.String())
}
