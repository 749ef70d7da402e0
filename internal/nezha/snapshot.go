package nezha

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// ServerSnapshot is one polled record for a monitored server as served by
// the dashboard API. Every telemetry field is optional: a field that is
// missing, null, or not a number decodes as an absent Gauge.
type ServerSnapshot struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	PublicNote   string    `json:"public_note,omitempty"`
	CountryCode  string    `json:"country_code,omitempty"`
	DisplayIndex int       `json:"display_index,omitempty"`
	LastActive   Timestamp `json:"last_active"`
	Online       *bool     `json:"online,omitempty"`
	Host         HostInfo  `json:"host"`
	State        HostState `json:"state"`
}

// HostInfo holds the mostly static description of a server.
type HostInfo struct {
	Platform        string   `json:"platform,omitempty"`
	PlatformVersion string   `json:"platform_version,omitempty"`
	CPU             []string `json:"cpu,omitempty"`
	GPU             []string `json:"gpu,omitempty"`
	MemTotal        Gauge    `json:"mem_total"`
	DiskTotal       Gauge    `json:"disk_total"`
	SwapTotal       Gauge    `json:"swap_total"`
	Arch            string   `json:"arch,omitempty"`
	Virtualization  string   `json:"virtualization,omitempty"`
	BootTime        Gauge    `json:"boot_time"`
	Version         string   `json:"version,omitempty"`
}

// HostState holds the readings that change every poll.
type HostState struct {
	CPU            Gauge `json:"cpu"`
	MemUsed        Gauge `json:"mem_used"`
	SwapUsed       Gauge `json:"swap_used"`
	DiskUsed       Gauge `json:"disk_used"`
	NetInTransfer  Gauge `json:"net_in_transfer"`
	NetOutTransfer Gauge `json:"net_out_transfer"`
	NetInSpeed     Gauge `json:"net_in_speed"`
	NetOutSpeed    Gauge `json:"net_out_speed"`
	Uptime         Gauge `json:"uptime"`
	Load1          Gauge `json:"load_1"`
	Load5          Gauge `json:"load_5"`
	Load15         Gauge `json:"load_15"`
	TCPConnCount   Gauge `json:"tcp_conn_count"`
	UDPConnCount   Gauge `json:"udp_conn_count"`
	ProcessCount   Gauge `json:"process_count"`
}

// Gauge is an optional numeric reading. The zero value is absent.
type Gauge struct {
	Value float64
	Valid bool
}

// G returns a present Gauge holding v.
func G(v float64) Gauge {
	return Gauge{Value: v, Valid: true}
}

// Or returns the reading, or def when the gauge is absent or not finite.
func (g Gauge) Or(def float64) float64 {
	if !g.Valid || math.IsNaN(g.Value) || math.IsInf(g.Value, 0) {
		return def
	}
	return g.Value
}

// UnmarshalJSON accepts numbers and numeric strings. Anything else leaves
// the gauge absent instead of failing the surrounding record.
func (g *Gauge) UnmarshalJSON(data []byte) error {
	*g = Gauge{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*g = G(v)
	return nil
}

// MarshalJSON writes null for an absent gauge.
func (g Gauge) MarshalJSON() ([]byte, error) {
	if !g.Valid || math.IsNaN(g.Value) || math.IsInf(g.Value, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(g.Value, 'f', -1, 64)), nil
}

// Timestamp is a lenient time value. Unparsable input and the Go zero
// time both decode as absent.
type Timestamp struct {
	Time time.Time
}

// IsZero reports whether the timestamp is absent.
func (t Timestamp) IsZero() bool {
	return t.Time.IsZero() || t.Time.Year() <= 1
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// UnmarshalJSON accepts RFC3339 strings and unix milliseconds.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] != '"' {
		ms, err := strconv.ParseInt(string(data), 10, 64)
		if err == nil && ms > 0 {
			t.Time = time.UnixMilli(ms)
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if parsed, ok := parseTime(s); ok {
		t.Time = parsed
	}
	return nil
}

// MarshalJSON writes RFC3339Nano, or null when absent.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// parseTime tries the accepted layouts in order.
func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Frame is one batch of snapshots plus the server-side clock it was taken at.
type Frame struct {
	Now     time.Time
	Online  int
	Servers []ServerSnapshot
}
