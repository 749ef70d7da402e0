package monitor

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
	"github.com/rileyhilliard/fleetdash/internal/storage"
)

// Width breakpoints for the card grid.
const (
	BreakpointCompact  = 80
	BreakpointStandard = 120
	BreakpointWide     = 160
)

// HeightMinimal is the shortest terminal that still gets a footer.
const HeightMinimal = 16

// spinnerInterval is the frame rate of the connecting spinner.
const spinnerInterval = 150 * time.Millisecond

// HistorySource loads recorded samples to seed sparklines. *storage.Store
// satisfies it.
type HistorySource interface {
	Recent(serverName string, limit int) ([]storage.Sample, error)
}

// Options configures a Model.
type Options struct {
	Interval time.Duration
	Display  DisplayOptions
	// Filter limits the dashboard to these server names. Names no frame has
	// mentioned yet show as connecting.
	Filter []string
	Title  string
	// Seed, when set, preloads each server's sparklines on first sight.
	Seed HistorySource
	// Clock defaults to time.Now.
	Clock func() time.Time
	Log   logger.Logger
}

// Model is the Bubble Tea model for the fleet dashboard.
type Model struct {
	collector *Collector
	history   *History
	seed      HistorySource
	seeded    map[string]bool
	clock     func() time.Time
	log       logger.Logger

	opts     DisplayOptions
	filter   []string
	title    string
	interval time.Duration

	servers  []Server
	errors   map[string]string
	now      time.Time
	received bool
	selected int

	width      int
	height     int
	lastUpdate time.Time
	quitting   bool
	viewMode   ViewMode
	showHelp   bool

	spinnerFrame int

	detailViewport viewport.Model
	viewportReady  bool
}

// tickMsg signals a periodic refresh.
type tickMsg time.Time

// spinnerTickMsg advances the connecting spinner.
type spinnerTickMsg time.Time

// refreshMsg carries one merged refresh. Every card rendered from it uses
// its Now.
type refreshMsg Refresh

// NewModel creates a dashboard model over collector.
func NewModel(collector *Collector, opts Options) Model {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Display.OnlineWindow <= 0 {
		opts.Display.OnlineWindow = DefaultDisplayOptions().OnlineWindow
	}
	title := opts.Title
	if title == "" {
		title = "fleetdash"
	}

	m := Model{
		collector: collector,
		history:   NewHistory(DefaultHistorySize),
		seed:      opts.Seed,
		seeded:    make(map[string]bool),
		clock:     opts.Clock,
		log:       logger.OrDefault(opts.Log),
		opts:      opts.Display,
		filter:    normalizeFilter(opts.Filter),
		title:     title,
		interval:  opts.Interval,
		errors:    make(map[string]string),
	}
	m.servers = m.placeholders(nil)
	return m
}

// Init starts the tick timer and the first collection.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tickCmd(),
		m.collectCmd(),
		m.spinnerTickCmd(),
	)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight, footerHeight := 2, 2
		vh := m.height - headerHeight - footerHeight
		if vh < 1 {
			vh = 1
		}
		if !m.viewportReady {
			m.detailViewport = viewport.New(m.width, vh)
			m.detailViewport.YPosition = headerHeight
			m.viewportReady = true
		} else {
			m.detailViewport.Width = m.width
			m.detailViewport.Height = vh
		}
		if m.viewMode == ViewDetail {
			m.updateDetailViewportContent()
		}

	case tickMsg:
		return m, tea.Batch(m.tickCmd(), m.collectCmd())

	case spinnerTickMsg:
		m.spinnerFrame = (m.spinnerFrame + 1) % 10000
		return m, m.spinnerTickCmd()

	case refreshMsg:
		m.applyRefresh(Refresh(msg))
		if m.viewMode == ViewDetail {
			m.updateDetailViewportContent()
		}
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderDashboard()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) spinnerTickCmd() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}

// collectCmd runs one refresh off the UI goroutine. The clock is read once
// here and travels with the result.
func (m Model) collectCmd() tea.Cmd {
	collector, now := m.collector, m.clock()
	return func() tea.Msg {
		return refreshMsg(collector.Refresh(context.Background(), now))
	}
}

// applyRefresh replaces the server list with r, keeping the selection on
// the same server.
func (m *Model) applyRefresh(r Refresh) {
	m.now = r.Now
	m.lastUpdate = r.Now
	m.received = true
	m.errors = r.Errors
	if m.errors == nil {
		m.errors = make(map[string]string)
	}

	selectedKey := m.SelectedKey()

	keep := make(map[string]bool, len(r.Servers))
	var visible []Server
	for _, s := range r.Servers {
		if !m.matchesFilter(s.Metrics.Name) {
			continue
		}
		keep[s.Key] = true
		m.seedHistory(s)
		if s.Status.Live() {
			m.history.Push(s.Key, s.Metrics)
		}
		visible = append(visible, s)
	}
	m.history.Forget(keep)

	m.servers = append(visible, m.placeholders(visible)...)
	m.sortServers()

	m.selected = 0
	for i, s := range m.servers {
		if s.Key == selectedKey {
			m.selected = i
			break
		}
	}
}

// seedHistory loads recorded samples the first time a server shows up.
func (m *Model) seedHistory(s Server) {
	if m.seed == nil || m.seeded[s.Key] {
		return
	}
	m.seeded[s.Key] = true

	samples, err := m.seed.Recent(s.Metrics.Name, m.history.Size())
	if err != nil {
		m.log.Warn("loading history for %s: %v", s.Metrics.Name, err)
		return
	}
	m.history.Seed(s.Key, samples)
}

// placeholders returns a connecting entry for every filtered name not in have.
func (m Model) placeholders(have []Server) []Server {
	var out []Server
	for _, name := range m.filter {
		found := false
		for _, s := range have {
			if strings.EqualFold(s.Metrics.Name, name) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, Server{Key: "pending/" + name, Status: StatusConnecting, Metrics: nezha.DisplayMetrics{Name: name}})
		}
	}
	return out
}

func (m Model) matchesFilter(name string) bool {
	if len(m.filter) == 0 {
		return true
	}
	for _, f := range m.filter {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

func normalizeFilter(names []string) []string {
	var out []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Servers returns the servers in display order.
func (m Model) Servers() []Server {
	return m.servers
}

// OnlineCount returns the number of live servers.
func (m Model) OnlineCount() int {
	n := 0
	for _, s := range m.servers {
		if s.Status.Live() {
			n++
		}
	}
	return n
}

// SelectedKey returns the key of the selected server, or "".
func (m Model) SelectedKey() string {
	if m.selected >= 0 && m.selected < len(m.servers) {
		return m.servers[m.selected].Key
	}
	return ""
}

// selectedServer returns the selected server.
func (m Model) selectedServer() (Server, bool) {
	if m.selected >= 0 && m.selected < len(m.servers) {
		return m.servers[m.selected], true
	}
	return Server{}, false
}

// SecondsSinceUpdate returns whole seconds since the last refresh.
func (m Model) SecondsSinceUpdate() int {
	if m.lastUpdate.IsZero() {
		return 0
	}
	return int(m.clock().Sub(m.lastUpdate).Seconds())
}

// sortServers orders m.servers by the current sort order.
func (m *Model) sortServers() {
	SortServers(m.servers, m.opts.Sort)
}

// SortServers orders servers in place. Connecting placeholders go last;
// ties fall back to name then key so the order is stable between refreshes.
func SortServers(servers []Server, order SortOrder) {
	less := sortLess(order)
	sort.SliceStable(servers, func(i, j int) bool {
		a, b := servers[i], servers[j]
		if a.Status == StatusConnecting || b.Status == StatusConnecting {
			if (a.Status == StatusConnecting) != (b.Status == StatusConnecting) {
				return b.Status == StatusConnecting
			}
			return a.Metrics.Name < b.Metrics.Name
		}
		if r := less(a, b); r != 0 {
			return r < 0
		}
		if a.Metrics.Name != b.Metrics.Name {
			return a.Metrics.Name < b.Metrics.Name
		}
		return a.Key < b.Key
	})
}

// sortLess returns a comparator: negative when a sorts first.
func sortLess(order SortOrder) func(a, b Server) int {
	liveFirst := func(a, b Server) int {
		if a.Status.Live() != b.Status.Live() {
			if a.Status.Live() {
				return -1
			}
			return 1
		}
		return 0
	}
	desc := func(x, y float64) int {
		switch {
		case x > y:
			return -1
		case x < y:
			return 1
		}
		return 0
	}

	switch order {
	case SortByName:
		return func(a, b Server) int {
			return strings.Compare(strings.ToLower(a.Metrics.Name), strings.ToLower(b.Metrics.Name))
		}
	case SortByCPU:
		return func(a, b Server) int {
			if r := liveFirst(a, b); r != 0 {
				return r
			}
			return desc(a.Metrics.CPU, b.Metrics.CPU)
		}
	case SortByMem:
		return func(a, b Server) int {
			if r := liveFirst(a, b); r != 0 {
				return r
			}
			return desc(a.Metrics.Mem, b.Metrics.Mem)
		}
	case SortByExpiry:
		return func(a, b Server) int {
			ra, rb := expiryRank(a), expiryRank(b)
			if ra != rb {
				return ra - rb
			}
			if ra == 0 && a.Billing.DaysLeft != b.Billing.DaysLeft {
				return a.Billing.DaysLeft - b.Billing.DaysLeft
			}
			return 0
		}
	default:
		return func(a, b Server) int {
			if r := liveFirst(a, b); r != 0 {
				return r
			}
			if a.DisplayIndex != b.DisplayIndex {
				return b.DisplayIndex - a.DisplayIndex
			}
			switch {
			case a.Metrics.ID < b.Metrics.ID:
				return -1
			case a.Metrics.ID > b.Metrics.ID:
				return 1
			}
			return 0
		}
	}
}

// expiryRank groups servers: dated billing, never expiring, then unknown.
func expiryRank(s Server) int {
	switch {
	case s.Note.Billing == nil || !s.Billing.Known:
		return 2
	case s.Billing.NeverExpires:
		return 1
	default:
		return 0
	}
}
