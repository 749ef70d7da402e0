package monitor

import (
	"sync"

	"github.com/rileyhilliard/fleetdash/internal/nezha"
	"github.com/rileyhilliard/fleetdash/internal/storage"
)

// DefaultHistorySize is the number of points kept per metric.
const DefaultHistorySize = 60

// Metric names a tracked series.
type Metric int

const (
	MetricCPU Metric = iota
	MetricMem
	MetricUp
	MetricDown
	metricCount
)

// History keeps per-server ring buffers for sparklines. Safe for
// concurrent use.
type History struct {
	mu      sync.RWMutex
	size    int
	servers map[string]*[metricCount]*ringBuffer
}

type ringBuffer struct {
	data  []float64
	head  int
	count int
}

// NewHistory creates a history holding size points per metric.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		size:    size,
		servers: make(map[string]*[metricCount]*ringBuffer),
	}
}

// Size returns the per-metric capacity.
func (h *History) Size() int {
	return h.size
}

// Push appends one refresh worth of metrics for key.
func (h *History) Push(key string, m nezha.DisplayMetrics) {
	h.mu.Lock()
	defer h.mu.Unlock()

	bufs := h.buffers(key)
	bufs[MetricCPU].push(m.CPU)
	bufs[MetricMem].push(m.Mem)
	bufs[MetricUp].push(m.Up)
	bufs[MetricDown].push(m.Down)
}

// Seed preloads recorded samples (oldest first) for key. It does nothing
// if key already has points.
func (h *History) Seed(key string, samples []storage.Sample) {
	if len(samples) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if bufs, ok := h.servers[key]; ok && bufs[MetricCPU].count > 0 {
		return
	}
	bufs := h.buffers(key)
	for _, s := range samples {
		bufs[MetricCPU].push(s.CPU)
		bufs[MetricMem].push(s.Mem)
		bufs[MetricUp].push(s.Up)
		bufs[MetricDown].push(s.Down)
	}
}

// Get returns up to count points of metric for key, oldest first.
func (h *History) Get(key string, metric Metric, count int) []float64 {
	if metric < 0 || metric >= metricCount {
		return nil
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	bufs, ok := h.servers[key]
	if !ok {
		return nil
	}
	return bufs[metric].getLast(count)
}

// Count returns how many points key has.
func (h *History) Count(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	bufs, ok := h.servers[key]
	if !ok {
		return 0
	}
	return bufs[MetricCPU].count
}

// Forget drops every key not in keep.
func (h *History) Forget(keep map[string]bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for key := range h.servers {
		if !keep[key] {
			delete(h.servers, key)
		}
	}
}

// buffers returns key's buffers, creating them. Must be called with h.mu held.
func (h *History) buffers(key string) *[metricCount]*ringBuffer {
	bufs, ok := h.servers[key]
	if !ok {
		bufs = new([metricCount]*ringBuffer)
		for i := range bufs {
			bufs[i] = &ringBuffer{data: make([]float64, h.size)}
		}
		h.servers[key] = bufs
	}
	return bufs
}

func (r *ringBuffer) push(v float64) {
	r.data[r.head] = v
	r.head = (r.head + 1) % len(r.data)
	if r.count < len(r.data) {
		r.count++
	}
}

// getLast returns the newest count values in chronological order.
func (r *ringBuffer) getLast(count int) []float64 {
	if count <= 0 || r.count == 0 {
		return nil
	}
	if count > r.count {
		count = r.count
	}

	size := len(r.data)
	out := make([]float64, count)
	start := (r.head - count + size) % size
	for i := range out {
		out[i] = r.data[(start+i)%size]
	}
	return out
}
