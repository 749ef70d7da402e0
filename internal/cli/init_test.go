package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rileyhilliard/fleetdash/internal/config"
	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_NonInteractive(t *testing.T) {
	srv := newDashboard(t, nil)
	path := filepath.Join(t.TempDir(), "fleet", ".fleetdash.yaml")

	var out bytes.Buffer
	err := Init(InitOptions{
		URL:            srv.URL + "/",
		Token:          "secret",
		Transport:      config.TransportPoll,
		NonInteractive: true,
		Path:           path,
		Out:            &out,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Connected to Status (dashboard 1.12.0)")
	assert.Contains(t, out.String(), "Created "+path)
	assert.Contains(t, out.String(), "fleetdash monitor")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, cfg.Dashboard.URL)
	assert.Equal(t, "secret", cfg.Dashboard.Token)
	assert.Equal(t, config.TransportPoll, cfg.Dashboard.Transport)
	assert.Equal(t, config.LayoutCard, cfg.Display.Layout)
}

func TestInit_EnvironmentDefaults(t *testing.T) {
	srv := newDashboard(t, nil)
	t.Setenv("FLEETDASH_DASHBOARD_URL", srv.URL)
	t.Setenv("CI", "true")
	path := filepath.Join(t.TempDir(), ".fleetdash.yaml")

	var out bytes.Buffer
	require.NoError(t, Init(InitOptions{Path: path, Out: &out}))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, cfg.Dashboard.URL)
	assert.Equal(t, config.TransportWebSocket, cfg.Dashboard.Transport)
}

func TestInit_RequiresURL(t *testing.T) {
	t.Setenv("FLEETDASH_DASHBOARD_URL", "")

	err := Init(InitOptions{
		NonInteractive: true,
		Path:           filepath.Join(t.TempDir(), ".fleetdash.yaml"),
		Out:            &bytes.Buffer{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Dashboard URL is required")
}

func TestInit_ExistingFile(t *testing.T) {
	srv := newDashboard(t, nil)
	path := filepath.Join(t.TempDir(), ".fleetdash.yaml")
	require.NoError(t, os.WriteFile(path, []byte("refresh: 5s\n"), 0600))

	opts := InitOptions{URL: srv.URL, NonInteractive: true, Path: path, Out: &bytes.Buffer{}}
	err := Init(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config file already exists")
	assert.Contains(t, err.Error(), "--force")

	opts.Overwrite = true
	require.NoError(t, Init(opts))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, cfg.Dashboard.URL)
}

func TestInit_ConnectionFails(t *testing.T) {
	srv := newDashboard(t, nil)
	url := srv.URL
	srv.Close()
	path := filepath.Join(t.TempDir(), ".fleetdash.yaml")

	err := Init(InitOptions{URL: url, NonInteractive: true, Path: path, Out: &bytes.Buffer{}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAPI))
	assert.Contains(t, err.Error(), "Couldn't reach the dashboard")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "config must not be written when the dashboard is unreachable")
}

func TestInit_InvalidURL(t *testing.T) {
	err := Init(InitOptions{URL: "ftp://status.example.com", NonInteractive: true,
		Path: filepath.Join(t.TempDir(), ".fleetdash.yaml"), Out: &bytes.Buffer{}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestInitTarget(t *testing.T) {
	assert.Equal(t, "/tmp/x.yaml", initTarget(InitOptions{Path: "/tmp/x.yaml", Global: true}))
	assert.Equal(t, config.GlobalConfigPath(), initTarget(InitOptions{Global: true}))
	assert.Equal(t, config.ConfigFileName, initTarget(InitOptions{}))
}
