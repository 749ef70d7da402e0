package monitor

import (
	"strconv"
	"time"

	"github.com/rileyhilliard/fleetdash/internal/nezha"
)

// ServerStatus is what the dashboard shows for a server.
type ServerStatus int

const (
	// StatusConnecting means no frame has mentioned the server yet.
	StatusConnecting ServerStatus = iota
	// StatusOnline means the server reported within the online window.
	StatusOnline
	// StatusOffline means the last report is older than the online window.
	StatusOffline
	// StatusExpired means the server is online but its billing end date has passed.
	StatusExpired
)

// String returns a human-readable status string.
func (s ServerStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusOnline:
		return "online"
	case StatusOffline:
		return "offline"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Live reports whether the server is reporting, expired or not.
func (s ServerStatus) Live() bool {
	return s == StatusOnline || s == StatusExpired
}

// Server is one dashboard entry: normalized metrics plus the parsed note,
// both computed against the same refresh clock.
type Server struct {
	Key          string
	Source       string
	DisplayIndex int
	Metrics      nezha.DisplayMetrics
	Note         nezha.NoteData
	Billing      nezha.BillingStatus
	Status       ServerStatus
}

// Layout selects how servers are drawn.
type Layout int

const (
	// LayoutCard draws a bordered card per server.
	LayoutCard Layout = iota
	// LayoutInline draws one row per server.
	LayoutInline
)

// String returns the config name of the layout.
func (l Layout) String() string {
	if l == LayoutInline {
		return "inline"
	}
	return "card"
}

// ParseLayout maps a config value to a Layout, defaulting to cards.
func ParseLayout(s string) Layout {
	if s == "inline" {
		return LayoutInline
	}
	return LayoutCard
}

// DisplayOptions are the presentation switches read from config. They are
// passed in explicitly rather than read from globals.
type DisplayOptions struct {
	ShowFlag        bool
	ShowNetTransfer bool
	Layout          Layout
	Sort            SortOrder
	OnlineWindow    time.Duration
}

// DefaultDisplayOptions mirrors the config defaults.
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{
		ShowFlag:     true,
		Layout:       LayoutCard,
		Sort:         SortByDefault,
		OnlineWindow: nezha.DefaultOnlineWindow,
	}
}

// BuildServer normalizes one snapshot and parses its note using now.
func BuildServer(source string, snap nezha.ServerSnapshot, now time.Time, window time.Duration) Server {
	m := nezha.Normalize(snap, now, nezha.WithOnlineWindow(window))
	note := nezha.ParseNote(snap.PublicNote)

	var billing nezha.BillingStatus
	if note.Billing != nil {
		billing = note.Billing.Status(now)
	}

	status := StatusOffline
	if m.Online {
		status = StatusOnline
		if billing.Expired {
			status = StatusExpired
		}
	}

	return Server{
		Key:          serverKey(source, snap),
		Source:       source,
		DisplayIndex: snap.DisplayIndex,
		Metrics:      m,
		Note:         note,
		Billing:      billing,
		Status:       status,
	}
}

// serverKey identifies a server across refreshes. Names can repeat across
// sources, so the source is part of the key.
func serverKey(source string, snap nezha.ServerSnapshot) string {
	if snap.ID != 0 {
		return source + "/" + strconv.FormatUint(snap.ID, 10)
	}
	return source + "/" + snap.Name
}
