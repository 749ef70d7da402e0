package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rileyhilliard/fleetdash/internal/config"
	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/monitor"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
	"github.com/rileyhilliard/fleetdash/internal/ui"
	"github.com/rileyhilliard/fleetdash/internal/util"
)

type listOptions struct {
	Offline bool
	Sort    string
	// Now defaults to time.Now.
	Now func() time.Time
}

// ListOutput is the --json payload of `fleetdash list`.
type ListOutput struct {
	Servers []ServerJSON      `json:"servers"`
	Total   int               `json:"total"`
	Online  int               `json:"online"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// ServerJSON is one server in ListOutput.
type ServerJSON struct {
	ID          uint64       `json:"id"`
	Name        string       `json:"name"`
	Source      string       `json:"source"`
	Status      string       `json:"status"`
	CountryCode string       `json:"country_code,omitempty"`
	OS          string       `json:"os,omitempty"`
	CPU         float64      `json:"cpu"`
	Mem         float64      `json:"mem"`
	Swap        float64      `json:"swap"`
	Disk        float64      `json:"disk"`
	Up          float64      `json:"up_mbps"`
	Down        float64      `json:"down_mbps"`
	InTransfer  float64      `json:"in_transfer"`
	OutTransfer float64      `json:"out_transfer"`
	UptimeSecs  int64        `json:"uptime_seconds"`
	LastActive  *time.Time   `json:"last_active,omitempty"`
	Billing     *BillingJSON `json:"billing,omitempty"`
	Plan        []string     `json:"plan,omitempty"`
}

// BillingJSON is the evaluated billing state of a server.
type BillingJSON struct {
	EndDate      string `json:"end_date,omitempty"`
	Cycle        string `json:"cycle,omitempty"`
	Amount       string `json:"amount,omitempty"`
	AmountLabel  string `json:"amount_label,omitempty"`
	AmountState  string `json:"amount_state"`
	NeverExpires bool   `json:"never_expires"`
	Known        bool   `json:"known"`
	DaysLeft     *int   `json:"days_left,omitempty"`
	Expired      bool   `json:"expired"`
}

// listCommand fetches the fleet once and prints it.
func listCommand(ctx context.Context, stdout, stderr io.Writer, opts listOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.RequireSource(cfg); err != nil {
		return err
	}
	display, err := displayOptions(cfg, "", opts.Sort)
	if err != nil {
		return err
	}

	lg := logger.NewEnvLogger("[list]")
	sources, err := fleetSources(ctx, cfg, lg, false)
	if err != nil {
		return err
	}
	collector := monitor.NewCollector(sources,
		monitor.WithTimeout(cfg.Dashboard.Timeout),
		monitor.WithOnlineWindow(cfg.OnlineWindow),
		monitor.WithLogger(lg),
	)

	var spinner *ui.Spinner
	if !machineMode && isTerminal(stderr) {
		spinner = ui.NewSpinner("Fetching servers", stderr)
		spinner.Start()
	}

	refresh := collector.Refresh(ctx, opts.Now())

	if len(refresh.Errors) == len(sources) {
		if spinner != nil {
			spinner.Fail()
		}
		return allSourcesFailed(refresh.Causes)
	}
	if spinner != nil {
		spinner.Success()
	}

	servers := refresh.Servers
	monitor.SortServers(servers, display.Sort)
	if opts.Offline {
		servers = offlineOnly(servers)
	}

	if machineMode {
		return WriteJSONSuccess(stdout, buildListOutput(servers, refresh))
	}

	if !isTerminal(stdout) {
		ui.DisableColors()
	}
	fmt.Fprint(stdout, renderList(servers, refresh))
	return nil
}

// allSourcesFailed picks the dashboard's error when there is one, since
// it carries the most useful suggestion.
func allSourcesFailed(causes map[string]error) error {
	if err, ok := causes[sourceDashboard]; ok {
		code := errors.ErrAPI
		if errors.IsCode(err, errors.ErrAuth) {
			code = errors.ErrAuth
		}
		return errors.New(code, "Couldn't reach the dashboard: "+firstLine(err.Error()),
			"Check dashboard.url and dashboard.token, or run 'fleetdash init' again.")
	}
	msg := ""
	if err := causes[sourceLocal]; err != nil {
		msg = firstLine(err.Error())
	}
	return errors.New(errors.ErrExec, "Couldn't read any source: "+msg,
		"Set dashboard.url or check local.enabled.")
}

func offlineOnly(servers []monitor.Server) []monitor.Server {
	var out []monitor.Server
	for _, s := range servers {
		if s.Status == monitor.StatusOffline || s.Status == monitor.StatusExpired {
			out = append(out, s)
		}
	}
	return out
}

func renderList(servers []monitor.Server, refresh monitor.Refresh) string {
	rows := make([]ui.FleetRow, len(servers))
	for i, s := range servers {
		m := s.Metrics
		rows[i] = ui.FleetRow{
			Status:  s.Status.String(),
			Name:    m.Name,
			Source:  s.Source,
			OS:      nezha.OSName(m.Platform),
			CPU:     m.CPU,
			Mem:     m.Mem,
			Disk:    m.Storage,
			Up:      m.UpRate(),
			Down:    m.DownRate(),
			Uptime:  m.UptimeLabel(),
			Billing: billingSummary(s),
		}
	}

	out := ui.RenderFleetTable(rows)
	if len(rows) > 0 {
		out += "\n"
	} else {
		out += "\n\n"
	}
	out += ui.MutedStyle().Render(fmt.Sprintf("%s, %d online", util.Count(len(refresh.Servers), "server", "servers"), refresh.Online())) + "\n"

	names := make([]string, 0, len(refresh.Errors))
	for name := range refresh.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		msg := refresh.Errors[name]
		out += ui.ErrorStyle().Render(fmt.Sprintf("%s %s: %s", ui.SymbolFail, name, firstLine(msg))) + "\n"
	}
	return out
}

// billingSummary is the short BILLING column: "12d left", "forever",
// "expired 3d", or the amount when no end date was given.
func billingSummary(s monitor.Server) string {
	if s.Note.Billing == nil {
		return ""
	}
	st := s.Billing
	switch {
	case st.NeverExpires:
		return "forever"
	case st.Expired:
		return fmt.Sprintf("expired %dd", -st.DaysLeft)
	case st.Known:
		return fmt.Sprintf("%dd left", st.DaysLeft)
	}
	return s.Note.Billing.AmountLabel()
}

func buildListOutput(servers []monitor.Server, refresh monitor.Refresh) ListOutput {
	out := ListOutput{
		Servers: make([]ServerJSON, 0, len(servers)),
		Total:   len(refresh.Servers),
		Online:  refresh.Online(),
	}
	if len(refresh.Errors) > 0 {
		out.Errors = refresh.Errors
	}
	for _, s := range servers {
		out.Servers = append(out.Servers, serverJSON(s))
	}
	return out
}

func serverJSON(s monitor.Server) ServerJSON {
	m := s.Metrics
	js := ServerJSON{
		ID:          m.ID,
		Name:        m.Name,
		Source:      s.Source,
		Status:      s.Status.String(),
		CountryCode: m.CountryCode,
		OS:          nezha.OSName(m.Platform),
		CPU:         m.CPU,
		Mem:         m.Mem,
		Swap:        m.Swap,
		Disk:        m.Storage,
		Up:          m.Up,
		Down:        m.Down,
		InTransfer:  m.NetInTransfer,
		OutTransfer: m.NetOutTransfer,
		UptimeSecs:  int64(m.Uptime / time.Second),
	}
	if !m.LastActive.IsZero() {
		t := m.LastActive
		js.LastActive = &t
	}
	if s.Note.Billing != nil {
		js.Billing = billingJSON(*s.Note.Billing, s.Billing)
	}
	if s.Note.Plan != nil {
		js.Plan = s.Note.Plan.Labels()
	}
	return js
}

func billingJSON(b nezha.BillingInfo, st nezha.BillingStatus) *BillingJSON {
	out := &BillingJSON{
		EndDate:      b.EndDate,
		Cycle:        b.Cycle,
		Amount:       b.Amount,
		AmountLabel:  b.AmountLabel(),
		AmountState:  st.Amount.String(),
		NeverExpires: st.NeverExpires,
		Known:        st.Known,
		Expired:      st.Expired,
	}
	if st.Known && !st.NeverExpires {
		days := st.DaysLeft
		out.DaysLeft = &days
	}
	return out
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
