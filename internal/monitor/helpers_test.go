package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
)

func init() {
	// Plain output keeps rendered strings easy to match.
	lipgloss.SetColorProfile(termenv.Ascii)
}

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// sourceFunc adapts a function to client.Source.
type sourceFunc func(ctx context.Context) (nezha.Frame, error)

func (f sourceFunc) Fetch(ctx context.Context) (nezha.Frame, error) {
	return f(ctx)
}

func staticSource(frame nezha.Frame) sourceFunc {
	return func(context.Context) (nezha.Frame, error) { return frame, nil }
}

func onlineSnap(id uint64, name string, cpu float64) nezha.ServerSnapshot {
	return nezha.ServerSnapshot{
		ID:         id,
		Name:       name,
		LastActive: nezha.Timestamp{Time: testNow.Add(-5 * time.Second)},
		Host:       nezha.HostInfo{MemTotal: nezha.G(1000), DiskTotal: nezha.G(1000), Platform: "debian"},
		State: nezha.HostState{
			CPU:     nezha.G(cpu),
			MemUsed: nezha.G(cpu * 5),
			Uptime:  nezha.G(3 * 86400),
		},
	}
}

func offlineSnap(id uint64, name string) nezha.ServerSnapshot {
	s := onlineSnap(id, name, 0)
	s.LastActive = nezha.Timestamp{Time: testNow.Add(-10 * time.Minute)}
	return s
}

func withNote(s nezha.ServerSnapshot, note string) nezha.ServerSnapshot {
	s.PublicNote = note
	return s
}

// fakeRecorder captures Record calls.
type fakeRecorder struct {
	mu    sync.Mutex
	calls [][]nezha.DisplayMetrics
	at    []time.Time
	err   error
}

func (r *fakeRecorder) Record(at time.Time, metrics []nezha.DisplayMetrics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, metrics)
	r.at = append(r.at, at)
	return r.err
}

// testModel builds a model over static sources with a fixed clock.
func testModel(frames map[string]nezha.Frame, opts Options) Model {
	var sources []NamedSource
	for _, name := range []string{"main", "backup", "local"} {
		if f, ok := frames[name]; ok {
			sources = append(sources, NamedSource{Name: name, Source: staticSource(f)})
		}
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return testNow }
	}
	if opts.Display == (DisplayOptions{}) {
		opts.Display = DefaultDisplayOptions()
	}
	return NewModel(NewCollector(sources), opts)
}

// refreshed runs one collection through Update.
func refreshed(m Model) Model {
	msg := m.collectCmd()()
	updated, _ := m.Update(msg)
	return updated.(Model)
}
