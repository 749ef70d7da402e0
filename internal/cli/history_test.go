package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withHistory records samples into a fresh database and points the config at it.
func withHistory(t *testing.T, samples []storage.Sample) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := storage.Open(path, logger.Noop())
	require.NoError(t, err)
	if len(samples) > 0 {
		require.NoError(t, store.Save(samples))
	}
	require.NoError(t, store.Close())

	withConfig(t, "history:\n  enabled: true\n  path: "+path+"\n")
}

func historySamples() []storage.Sample {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	var out []storage.Sample
	for i := 0; i < 5; i++ {
		out = append(out, storage.Sample{
			Session:    "s1",
			ServerID:   1,
			ServerName: "tokyo-1",
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			CPU:        float64(10 * (i + 1)),
			Mem:        30,
			Storage:    40,
			Up:         1,
		})
	}
	out = append(out, storage.Sample{Session: "s1", ServerID: 2, ServerName: "fra-2", Timestamp: base, CPU: 5})
	return out
}

func TestHistoryCommand_Table(t *testing.T) {
	withHistory(t, historySamples())
	withMachineMode(t, false)

	var buf bytes.Buffer
	require.NoError(t, historyCommand(&buf, "tokyo-1", 3))

	out := buf.String()
	assert.Contains(t, out, "tokyo-1 (3 samples)")
	assert.Contains(t, out, "TIME")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "30.0%")
	assert.NotContains(t, out, "20.0%")
	assert.Contains(t, out, "CPU ")
	assert.Contains(t, out, "MEM ")
}

func TestHistoryCommand_JSON(t *testing.T) {
	withHistory(t, historySamples())
	withMachineMode(t, true)

	var buf bytes.Buffer
	require.NoError(t, historyCommand(&buf, "tokyo-1", 0))

	var env struct {
		Success bool          `json:"success"`
		Data    HistoryOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "tokyo-1", env.Data.Server)
	require.Len(t, env.Data.Samples, 5)
	assert.InDelta(t, 10, env.Data.Samples[0].CPU, 1e-9)
	assert.InDelta(t, 50, env.Data.Samples[4].CPU, 1e-9)
}

func TestHistoryCommand_ListsServers(t *testing.T) {
	withHistory(t, historySamples())
	withMachineMode(t, false)

	var buf bytes.Buffer
	require.NoError(t, historyCommand(&buf, "", 20))
	assert.Contains(t, buf.String(), "Recorded servers:")
	assert.Contains(t, buf.String(), "  fra-2\n  tokyo-1\n")

	buf.Reset()
	require.NoError(t, historyCommand(&buf, "nyc-9", 20))
	assert.Contains(t, buf.String(), "No samples for 'nyc-9'")
	assert.NotContains(t, buf.String(), "Did you mean")

	buf.Reset()
	require.NoError(t, historyCommand(&buf, "tokyo1", 20))
	assert.Contains(t, buf.String(), "Did you mean: tokyo-1")
	assert.Contains(t, buf.String(), "tokyo-1")
}

func TestHistoryCommand_Empty(t *testing.T) {
	withHistory(t, nil)
	withMachineMode(t, false)

	var buf bytes.Buffer
	require.NoError(t, historyCommand(&buf, "", 20))
	assert.Contains(t, buf.String(), "No servers recorded yet")
}

func TestHistoryCommand_NoDatabase(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.db")
	withConfig(t, "history:\n  path: "+missing+"\n")

	var buf bytes.Buffer
	err := historyCommand(&buf, "tokyo-1", 20)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrStore))
	assert.Contains(t, err.Error(), "fleetdash config set history.enabled true")
	assert.Equal(t, ErrCodeHistoryFailed, ErrorToJSON(err).Code)
}
