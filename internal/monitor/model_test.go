package monitor

import (
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
	"github.com/rileyhilliard/fleetdash/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(servers []Server) []string {
	out := make([]string, 0, len(servers))
	for _, s := range servers {
		out = append(out, s.Metrics.Name)
	}
	return out
}

func TestNewModel_Defaults(t *testing.T) {
	m := NewModel(NewCollector(nil), Options{})

	assert.Equal(t, 2*time.Second, m.interval)
	assert.Equal(t, "fleetdash", m.title)
	assert.Equal(t, nezha.DefaultOnlineWindow, m.opts.OnlineWindow)
	assert.NotNil(t, m.clock)
	assert.Empty(t, m.servers)
	assert.False(t, m.received)
}

func TestNewModel_FilterPlaceholders(t *testing.T) {
	m := NewModel(NewCollector(nil), Options{Filter: []string{" tokyo ", "", "paris"}})

	require.Len(t, m.servers, 2)
	assert.Equal(t, StatusConnecting, m.servers[0].Status)
	assert.Equal(t, "tokyo", m.servers[0].Metrics.Name)
}

func TestModel_Init(t *testing.T) {
	m := testModel(nil, Options{})
	assert.NotNil(t, m.Init())
}

func TestModel_RefreshUsesOneClock(t *testing.T) {
	calls := 0
	m := testModel(map[string]nezha.Frame{
		"main": {Servers: []nezha.ServerSnapshot{onlineSnap(1, "a", 1)}},
	}, Options{Clock: func() time.Time {
		calls++
		return testNow
	}})

	msg := m.collectCmd()()
	r, ok := msg.(refreshMsg)
	require.True(t, ok)
	assert.Equal(t, testNow, r.Now)
	assert.Equal(t, 1, calls)

	updated, cmd := m.Update(msg)
	assert.Nil(t, cmd)
	m = updated.(Model)
	assert.Equal(t, testNow, m.now)
	assert.True(t, m.received)
	assert.Equal(t, 1, m.OnlineCount())
	assert.Equal(t, 1, m.history.Count("main/1"))
}

func TestModel_DefaultSort(t *testing.T) {
	low := onlineSnap(1, "low", 1)
	high := onlineSnap(2, "high", 1)
	high.DisplayIndex = 10
	down := offlineSnap(3, "down")
	down.DisplayIndex = 99

	m := refreshed(testModel(map[string]nezha.Frame{
		"main": {Now: testNow, Servers: []nezha.ServerSnapshot{down, low, high}},
	}, Options{}))

	assert.Equal(t, []string{"high", "low", "down"}, names(m.servers), "live first, then display index desc")
}

func TestModel_SortOrders(t *testing.T) {
	soon := withNote(onlineSnap(1, "soon", 10), `{"billingDataMod":{"endDate":"2025-03-12T12:00:00Z"}}`)
	later := withNote(onlineSnap(2, "later", 90), `{"billingDataMod":{"endDate":"2025-06-01T12:00:00Z"}}`)
	forever := withNote(onlineSnap(3, "forever", 50), `{"billingDataMod":{"endDate":"0000-00-00T00:00:00Z"}}`)
	none := onlineSnap(4, "Nobill", 70)
	past := withNote(offlineSnap(5, "past"), `{"billingDataMod":{"endDate":"2025-03-01T12:00:00Z"}}`)

	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortByName, []string{"forever", "later", "Nobill", "past", "soon"}},
		{SortByCPU, []string{"later", "Nobill", "forever", "soon", "past"}},
		{SortByMem, []string{"later", "Nobill", "forever", "soon", "past"}},
		{SortByExpiry, []string{"past", "soon", "later", "forever", "Nobill"}},
	}

	for _, tt := range tests {
		t.Run(tt.order.String(), func(t *testing.T) {
			opts := DefaultDisplayOptions()
			opts.Sort = tt.order
			m := refreshed(testModel(map[string]nezha.Frame{
				"main": {Now: testNow, Servers: []nezha.ServerSnapshot{soon, later, forever, none, past}},
			}, Options{Display: opts}))
			assert.Equal(t, tt.want, names(m.servers))
		})
	}
}

func TestModel_SelectionFollowsServer(t *testing.T) {
	m := refreshed(testModel(map[string]nezha.Frame{
		"main": {Now: testNow, Servers: []nezha.ServerSnapshot{onlineSnap(1, "a", 1), onlineSnap(2, "b", 1)}},
	}, Options{}))
	m.selected = 1
	key := m.SelectedKey()

	m.opts.Sort = SortByName
	m.sortServers()
	m.applyRefresh(m.collector.Refresh(t.Context(), testNow))
	assert.Equal(t, key, m.SelectedKey())
}

func TestModel_Filter(t *testing.T) {
	m := refreshed(testModel(map[string]nezha.Frame{
		"main": {Now: testNow, Servers: []nezha.ServerSnapshot{onlineSnap(1, "Tokyo", 1), onlineSnap(2, "paris", 1)}},
	}, Options{Filter: []string{"tokyo", "berlin"}}))

	require.Len(t, m.servers, 2)
	assert.Equal(t, "Tokyo", m.servers[0].Metrics.Name)
	assert.Equal(t, StatusOnline, m.servers[0].Status)
	assert.Equal(t, "berlin", m.servers[1].Metrics.Name)
	assert.Equal(t, StatusConnecting, m.servers[1].Status)
	assert.Zero(t, m.history.Count("main/2"), "filtered servers keep no history")
}

type fakeSeed struct {
	calls   []string
	samples []storage.Sample
	err     error
}

func (f *fakeSeed) Recent(name string, limit int) ([]storage.Sample, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s:%d", name, limit))
	return f.samples, f.err
}

func TestModel_SeedsHistoryOnce(t *testing.T) {
	seed := &fakeSeed{samples: []storage.Sample{{CPU: 5}, {CPU: 6}}}
	m := testModel(map[string]nezha.Frame{
		"main": {Now: testNow, Servers: []nezha.ServerSnapshot{onlineSnap(1, "a", 7)}},
	}, Options{Seed: seed})

	m = refreshed(m)
	m = refreshed(m)

	assert.Equal(t, []string{fmt.Sprintf("a:%d", DefaultHistorySize)}, seed.calls)
	assert.Equal(t, []float64{5, 6, 7, 7}, m.history.Get("main/1", MetricCPU, 10))
}

func TestModel_SeedErrorIsLogged(t *testing.T) {
	seed := &fakeSeed{err: fmt.Errorf("locked")}
	m := refreshed(testModel(map[string]nezha.Frame{
		"main": {Now: testNow, Servers: []nezha.ServerSnapshot{onlineSnap(1, "a", 7)}},
	}, Options{Seed: seed}))

	assert.Equal(t, []float64{7}, m.history.Get("main/1", MetricCPU, 10))
}

func TestModel_WindowResize(t *testing.T) {
	m := threeServerModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(Model)

	assert.True(t, m.viewportReady)
	assert.Equal(t, 120, m.detailViewport.Width)
	assert.Equal(t, 36, m.detailViewport.Height)

	updated, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 3})
	m = updated.(Model)
	assert.Equal(t, 1, m.detailViewport.Height)
}

func TestModel_TickSchedulesCollect(t *testing.T) {
	m := threeServerModel()
	_, cmd := m.Update(tickMsg(testNow))
	assert.NotNil(t, cmd)

	updated, cmd := m.Update(spinnerTickMsg(testNow))
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, updated.(Model).spinnerFrame)
}

func TestModel_SecondsSinceUpdate(t *testing.T) {
	now := testNow
	m := testModel(map[string]nezha.Frame{"main": {Now: testNow}}, Options{Clock: func() time.Time { return now }})
	assert.Zero(t, m.SecondsSinceUpdate())

	m = refreshed(m)
	now = testNow.Add(7 * time.Second)
	assert.Equal(t, 7, m.SecondsSinceUpdate())
}
