// Package local reports this machine as one more server in the fleet, using
// the same snapshot shape the dashboard sends.
package local

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
)

// Reading is one raw sample of host counters. Counters are cumulative;
// Source turns consecutive readings into rates.
type Reading struct {
	CPUTotal float64
	CPUIdle  float64

	MemUsed   uint64
	MemTotal  uint64
	SwapUsed  uint64
	SwapTotal uint64
	DiskUsed  uint64
	DiskTotal uint64

	NetRecv uint64
	NetSent uint64

	Load1  float64
	Load5  float64
	Load15 float64

	Uptime   uint64
	BootTime uint64
	Procs    uint64

	Platform        string
	PlatformVersion string
	Arch            string
	Virtualization  string
	CPUModels       []string
}

// ReadFunc takes one Reading.
type ReadFunc func(ctx context.Context) (Reading, error)

// Source implements client.Source for the local machine.
type Source struct {
	name string
	read ReadFunc
	now  func() time.Time
	log  logger.Logger

	mu     sync.Mutex
	prev   Reading
	prevAt time.Time
}

// New creates a source that reports this machine under name, reading disk
// usage for the root filesystem.
func New(name string, log logger.Logger) *Source {
	return NewWithReader(name, func(ctx context.Context) (Reading, error) {
		return Sample(ctx, "/")
	}, log)
}

// NewWithReader creates a source backed by a custom reader.
func NewWithReader(name string, read ReadFunc, log logger.Logger) *Source {
	if name == "" {
		name = "localhost"
	}
	return &Source{
		name: name,
		read: read,
		now:  time.Now,
		log:  logger.OrDefault(log),
	}
}

// Name returns the name the machine is reported under.
func (s *Source) Name() string {
	return s.name
}

// Fetch takes a reading and returns a single-server frame. CPU and network
// rates need two readings, so they are zero on the first call.
func (s *Source) Fetch(ctx context.Context) (nezha.Frame, error) {
	r, err := s.read(ctx)
	if err != nil {
		return nezha.Frame{}, errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't read local host metrics",
			"Disable local.enabled if this platform isn't supported")
	}
	at := s.now()

	s.mu.Lock()
	prev, prevAt := s.prev, s.prevAt
	s.prev, s.prevAt = r, at
	s.mu.Unlock()

	snap := s.snapshot(r, prev, prevAt, at)
	return nezha.Frame{Now: at, Online: 1, Servers: []nezha.ServerSnapshot{snap}}, nil
}

func (s *Source) snapshot(r, prev Reading, prevAt, at time.Time) nezha.ServerSnapshot {
	var cpuPct, inSpeed, outSpeed float64
	if !prevAt.IsZero() {
		cpuPct = cpuPercent(prev, r)
		if elapsed := at.Sub(prevAt).Seconds(); elapsed > 0 {
			inSpeed = counterRate(prev.NetRecv, r.NetRecv, elapsed)
			outSpeed = counterRate(prev.NetSent, r.NetSent, elapsed)
		}
	}

	online := true
	return nezha.ServerSnapshot{
		Name:       s.name,
		LastActive: nezha.Timestamp{Time: at},
		Online:     &online,
		Host: nezha.HostInfo{
			Platform:        r.Platform,
			PlatformVersion: r.PlatformVersion,
			CPU:             r.CPUModels,
			MemTotal:        nezha.G(float64(r.MemTotal)),
			DiskTotal:       nezha.G(float64(r.DiskTotal)),
			SwapTotal:       nezha.G(float64(r.SwapTotal)),
			Arch:            r.Arch,
			Virtualization:  r.Virtualization,
			BootTime:        nezha.G(float64(r.BootTime)),
			Version:         "local",
		},
		State: nezha.HostState{
			CPU:            nezha.G(cpuPct),
			MemUsed:        nezha.G(float64(r.MemUsed)),
			SwapUsed:       nezha.G(float64(r.SwapUsed)),
			DiskUsed:       nezha.G(float64(r.DiskUsed)),
			NetInTransfer:  nezha.G(float64(r.NetRecv)),
			NetOutTransfer: nezha.G(float64(r.NetSent)),
			NetInSpeed:     nezha.G(inSpeed),
			NetOutSpeed:    nezha.G(outSpeed),
			Uptime:         nezha.G(float64(r.Uptime)),
			Load1:          nezha.G(r.Load1),
			Load5:          nezha.G(r.Load5),
			Load15:         nezha.G(r.Load15),
			ProcessCount:   nezha.G(float64(r.Procs)),
		},
	}
}

func cpuPercent(prev, cur Reading) float64 {
	deltaTotal := cur.CPUTotal - prev.CPUTotal
	if deltaTotal <= 0 {
		return 0
	}
	used := deltaTotal - (cur.CPUIdle - prev.CPUIdle)
	if used < 0 {
		used = 0
	}
	pct := used / deltaTotal * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// counterRate is per-second growth of a counter. A counter that went
// backwards (interface reset) yields 0.
func counterRate(prev, cur uint64, elapsed float64) float64 {
	if cur < prev {
		return 0
	}
	return float64(cur-prev) / elapsed
}

// Sample reads the host counters via gopsutil. Only the CPU times are
// required; anything else that fails is left at zero.
func Sample(ctx context.Context, root string) (Reading, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return Reading{}, err
	}
	if len(times) == 0 {
		return Reading{}, fmt.Errorf("no cpu times reported")
	}

	t := times[0]
	r := Reading{
		CPUTotal: t.User + t.System + t.Nice + t.Idle + t.Iowait + t.Irq + t.Softirq + t.Steal + t.Guest + t.GuestNice,
		CPUIdle:  t.Idle + t.Iowait,
		Arch:     runtime.GOARCH,
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm != nil {
		r.MemUsed, r.MemTotal = vm.Used, vm.Total
	}
	if sw, err := mem.SwapMemoryWithContext(ctx); err == nil && sw != nil {
		r.SwapUsed, r.SwapTotal = sw.Used, sw.Total
	}
	if du, err := disk.UsageWithContext(ctx, root); err == nil && du != nil {
		r.DiskUsed, r.DiskTotal = du.Used, du.Total
	}
	if counters, err := net.IOCountersWithContext(ctx, false); err == nil {
		for _, c := range counters {
			r.NetRecv += c.BytesRecv
			r.NetSent += c.BytesSent
		}
	}
	if avg, err := load.AvgWithContext(ctx); err == nil && avg != nil {
		r.Load1, r.Load5, r.Load15 = avg.Load1, avg.Load5, avg.Load15
	}
	if info, err := host.InfoWithContext(ctx); err == nil && info != nil {
		r.Uptime = info.Uptime
		r.BootTime = info.BootTime
		r.Procs = info.Procs
		r.Platform = info.Platform
		r.PlatformVersion = info.PlatformVersion
		r.Virtualization = info.VirtualizationSystem
		if info.KernelArch != "" {
			r.Arch = info.KernelArch
		}
	}
	r.CPUModels = cpuModels(ctx)

	return r, nil
}

// cpuModels describes the CPUs as "<model> <n> Virtual Core", one entry per
// distinct model.
func cpuModels(ctx context.Context) []string {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil || len(infos) == 0 {
		return nil
	}
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil || cores <= 0 {
		cores = len(infos)
	}

	seen := make(map[string]bool)
	var out []string
	for _, info := range infos {
		model := strings.TrimSpace(info.ModelName)
		if model == "" || seen[model] {
			continue
		}
		seen[model] = true
		out = append(out, fmt.Sprintf("%s %d Virtual Core", model, cores))
	}
	return out
}
