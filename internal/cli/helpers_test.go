package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/fleetdash/internal/ui"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	ui.DisableColors()
	os.Exit(m.Run())
}

// withConfig writes content to a temp config file and points --config at it.
func withConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".fleetdash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	old := configFlag
	configFlag = path
	t.Cleanup(func() { configFlag = old })
	return path
}

// withMachineMode sets --json for the duration of the test.
func withMachineMode(t *testing.T, on bool) {
	t.Helper()
	old := machineMode
	machineMode = on
	t.Cleanup(func() { machineMode = old })
}

type fakeServer struct {
	ID          int
	Name        string
	CountryCode string
	LastActive  time.Time
	Note        string
	CPU         float64
}

// newDashboard serves a v1 server list and settings for servers.
func newDashboard(t *testing.T, servers []fakeServer) *httptest.Server {
	t.Helper()

	var data []map[string]interface{}
	for _, s := range servers {
		data = append(data, map[string]interface{}{
			"id":           s.ID,
			"name":         s.Name,
			"country_code": s.CountryCode,
			"public_note":  s.Note,
			"last_active":  s.LastActive.UTC().Format(time.RFC3339),
			"host":         map[string]interface{}{"platform": "debian", "mem_total": 4096, "disk_total": 1000},
			"state":        map[string]interface{}{"cpu": s.CPU, "mem_used": 1024, "disk_used": 250},
		})
	}
	serversBody, err := json.Marshal(map[string]interface{}{"success": true, "data": data})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/server", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(serversBody)
	})
	mux.HandleFunc("/api/v1/setting", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"config":{"site_name":"Status"},"version":"1.12.0"}}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// fleetFixture is an online server with a long-running plan, an offline
// free server and an online server whose plan has expired.
func fleetFixture() []fakeServer {
	now := time.Now()
	return []fakeServer{
		{ID: 1, Name: "tokyo-1", CountryCode: "jp", LastActive: now, CPU: 42,
			Note: `{"billingDataMod":{"endDate":"2099-01-01T00:00:00Z","amount":"5$","cycle":"Month"},"planDataMod":{"bandwidth":"1Gbps","trafficVol":"2TB"}}`},
		{ID: 2, Name: "fra-2", LastActive: now.Add(-time.Hour),
			Note: `{"billingDataMod":{"endDate":"0000-00-00T00:00:00Z","amount":"0"}}`},
		{ID: 3, Name: "sfo-3", LastActive: now, CPU: 91,
			Note: `{"billingDataMod":{"endDate":"2020-01-01T00:00:00Z","amount":"-1"}}`},
	}
}
