package nezha

import (
	"math"
	"time"
)

// DefaultOnlineWindow is how long after its last report a server still
// counts as online.
const DefaultOnlineWindow = 30 * time.Second

const bytesPerMB = 1024 * 1024

// DisplayMetrics is the display-ready view of one ServerSnapshot.
// Percentages are always within [0,100]; rates and totals are never
// negative or NaN.
type DisplayMetrics struct {
	ID          uint64
	Name        string
	CountryCode string
	Online      bool
	LastActive  time.Time

	CPU     float64
	Mem     float64
	Swap    float64
	Storage float64

	// Up and Down are throughput in MB/s.
	Up   float64
	Down float64

	// NetInTransfer and NetOutTransfer are cumulative bytes.
	NetInTransfer  float64
	NetOutTransfer float64

	MemTotal  float64
	DiskTotal float64

	Uptime          time.Duration
	Platform        string
	PlatformVersion string
	Arch            string
	Version         string

	Load1  float64
	Load5  float64
	Load15 float64

	TCP       int
	UDP       int
	Processes int

	PublicNote string
}

type normalizeOptions struct {
	onlineWindow time.Duration
}

// NormalizeOption customizes Normalize.
type NormalizeOption func(*normalizeOptions)

// WithOnlineWindow overrides DefaultOnlineWindow. Non-positive values are ignored.
func WithOnlineWindow(d time.Duration) NormalizeOption {
	return func(o *normalizeOptions) {
		if d > 0 {
			o.onlineWindow = d
		}
	}
}

// Normalize turns a raw snapshot into DisplayMetrics using now as the
// reference clock. It never fails: absent readings become 0.
func Normalize(s ServerSnapshot, now time.Time, opts ...NormalizeOption) DisplayMetrics {
	o := normalizeOptions{onlineWindow: DefaultOnlineWindow}
	for _, opt := range opts {
		opt(&o)
	}

	st := s.State
	h := s.Host

	m := DisplayMetrics{
		ID:              s.ID,
		Name:            s.Name,
		CountryCode:     s.CountryCode,
		CPU:             clampPercent(st.CPU.Or(0)),
		Mem:             ratioPercent(st.MemUsed, h.MemTotal),
		Swap:            ratioPercent(st.SwapUsed, h.SwapTotal),
		Storage:         ratioPercent(st.DiskUsed, h.DiskTotal),
		Up:              nonNegative(st.NetOutSpeed.Or(0)) / bytesPerMB,
		Down:            nonNegative(st.NetInSpeed.Or(0)) / bytesPerMB,
		NetInTransfer:   nonNegative(st.NetInTransfer.Or(0)),
		NetOutTransfer:  nonNegative(st.NetOutTransfer.Or(0)),
		MemTotal:        nonNegative(h.MemTotal.Or(0)),
		DiskTotal:       nonNegative(h.DiskTotal.Or(0)),
		Uptime:          seconds(st.Uptime.Or(0)),
		Platform:        h.Platform,
		PlatformVersion: h.PlatformVersion,
		Arch:            h.Arch,
		Version:         h.Version,
		Load1:           nonNegative(st.Load1.Or(0)),
		Load5:           nonNegative(st.Load5.Or(0)),
		Load15:          nonNegative(st.Load15.Or(0)),
		TCP:             count(st.TCPConnCount.Or(0)),
		UDP:             count(st.UDPConnCount.Or(0)),
		Processes:       count(st.ProcessCount.Or(0)),
		PublicNote:      s.PublicNote,
	}

	switch {
	case !s.LastActive.IsZero():
		m.LastActive = s.LastActive.Time
		m.Online = now.Sub(s.LastActive.Time) <= o.onlineWindow
	case s.Online != nil:
		m.Online = *s.Online
	}

	return m
}

// NormalizeAll normalizes a batch against a single reference clock.
func NormalizeAll(servers []ServerSnapshot, now time.Time, opts ...NormalizeOption) []DisplayMetrics {
	out := make([]DisplayMetrics, 0, len(servers))
	for _, s := range servers {
		out = append(out, Normalize(s, now, opts...))
	}
	return out
}

// UpRate renders upload throughput, e.g. "1.00M/s".
func (m DisplayMetrics) UpRate() string {
	return FormatSpeed(m.Up)
}

// DownRate renders download throughput.
func (m DisplayMetrics) DownRate() string {
	return FormatSpeed(m.Down)
}

// InTransferLabel renders the cumulative inbound transfer.
func (m DisplayMetrics) InTransferLabel() string {
	return FormatBytes(m.NetInTransfer)
}

// OutTransferLabel renders the cumulative outbound transfer.
func (m DisplayMetrics) OutTransferLabel() string {
	return FormatBytes(m.NetOutTransfer)
}

// UptimeLabel renders uptime as whole days, or hours below one day.
func (m DisplayMetrics) UptimeLabel() string {
	return FormatUptime(m.Uptime)
}

func ratioPercent(used, total Gauge) float64 {
	t := total.Or(0)
	if t <= 0 {
		return 0
	}
	return clampPercent(used.Or(0) / t * 100)
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// maxSeconds is the longest uptime a time.Duration can hold.
const maxSeconds = int64(math.MaxInt64 / time.Second)

// seconds converts a reading in seconds, saturating at the largest Duration.
func seconds(v float64) time.Duration {
	v = nonNegative(v)
	if v >= float64(maxSeconds) {
		return time.Duration(maxSeconds) * time.Second
	}
	return time.Duration(int64(v)) * time.Second
}

// count converts a counter reading, saturating at math.MaxInt.
func count(v float64) int {
	v = nonNegative(v)
	// float64(math.MaxInt) rounds up past the int range.
	if v >= float64(math.MaxInt) {
		return math.MaxInt
	}
	return int(v)
}
