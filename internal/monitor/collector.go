package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/fleetdash/internal/client"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
)

// DefaultCollectTimeout bounds one source fetch.
const DefaultCollectTimeout = 8 * time.Second

// NamedSource is a source plus the label it is shown and keyed under.
type NamedSource struct {
	Name   string
	Source client.Source
}

// Recorder receives the live metrics of each refresh. storage.Recorder
// satisfies it.
type Recorder interface {
	Record(at time.Time, metrics []nezha.DisplayMetrics) error
}

// Result is the outcome of fetching one source.
type Result struct {
	Source  string
	Frame   nezha.Frame
	Err     error
	Latency time.Duration
}

// Refresh is everything one refresh cycle produced.
type Refresh struct {
	// Now is the clock the refresh was taken at.
	Now     time.Time
	Servers []Server
	// Errors holds the latest failure per source, by source name.
	Errors map[string]string
	// Causes holds the errors behind Errors.
	Causes map[string]error
}

// Online counts live servers.
func (r Refresh) Online() int {
	n := 0
	for _, s := range r.Servers {
		if s.Status.Live() {
			n++
		}
	}
	return n
}

// seenServer is the last snapshot a source delivered for a server.
type seenServer struct {
	source string
	snap   nezha.ServerSnapshot
}

// Collector fans out to every source each cycle and merges the frames.
type Collector struct {
	sources  []NamedSource
	timeout  time.Duration
	window   time.Duration
	recorder Recorder
	log      logger.Logger

	mu   sync.Mutex
	seen map[string]seenServer
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithTimeout sets the per-source fetch timeout.
func WithTimeout(d time.Duration) CollectorOption {
	return func(c *Collector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithOnlineWindow sets how stale last_active may be for a server to count as online.
func WithOnlineWindow(d time.Duration) CollectorOption {
	return func(c *Collector) {
		if d > 0 {
			c.window = d
		}
	}
}

// WithRecorder records every refresh.
func WithRecorder(r Recorder) CollectorOption {
	return func(c *Collector) {
		c.recorder = r
	}
}

// WithLogger sets the collector's logger.
func WithLogger(l logger.Logger) CollectorOption {
	return func(c *Collector) {
		c.log = logger.OrDefault(l)
	}
}

// NewCollector creates a collector over sources.
func NewCollector(sources []NamedSource, opts ...CollectorOption) *Collector {
	c := &Collector{
		sources: sources,
		timeout: DefaultCollectTimeout,
		window:  nezha.DefaultOnlineWindow,
		log:     logger.Noop(),
		seen:    make(map[string]seenServer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sources returns the source names in configured order.
func (c *Collector) Sources() []string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name
	}
	return names
}

// Collect fetches every source in parallel. Results keep source order.
func (c *Collector) Collect(ctx context.Context) []Result {
	results := make([]Result, len(c.sources))
	var wg sync.WaitGroup

	for i, src := range c.sources {
		wg.Add(1)
		go func(i int, src NamedSource) {
			defer wg.Done()

			srcCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			start := time.Now()
			frame, err := src.Source.Fetch(srcCtx)
			results[i] = Result{
				Source:  src.Name,
				Frame:   frame,
				Err:     err,
				Latency: time.Since(start),
			}
		}(i, src)
	}

	wg.Wait()
	return results
}

// Refresh collects, merges, and records one cycle. now is the local clock
// for this cycle; servers are judged against the clock of the frame they
// arrived in, and servers of a failed source against now.
func (c *Collector) Refresh(ctx context.Context, now time.Time) Refresh {
	results := c.Collect(ctx)
	return c.merge(results, now)
}

func (c *Collector) merge(results []Result, now time.Time) Refresh {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := Refresh{Now: now, Errors: make(map[string]string), Causes: make(map[string]error)}
	var live []nezha.DisplayMetrics

	for _, res := range results {
		if res.Err != nil {
			out.Errors[res.Source] = res.Err.Error()
			out.Causes[res.Source] = res.Err
			c.log.Debug("source %s failed after %s: %v", res.Source, res.Latency, res.Err)

			for _, s := range c.seen {
				if s.source == res.Source {
					out.Servers = append(out.Servers, BuildServer(s.source, s.snap, now, c.window))
				}
			}
			continue
		}

		frameNow := res.Frame.Now
		if frameNow.IsZero() {
			frameNow = now
		}

		// A successful frame is the full server list; drop what it no longer has.
		for key, s := range c.seen {
			if s.source == res.Source {
				delete(c.seen, key)
			}
		}
		for _, snap := range res.Frame.Servers {
			srv := BuildServer(res.Source, snap, frameNow, c.window)
			c.seen[srv.Key] = seenServer{source: res.Source, snap: snap}
			out.Servers = append(out.Servers, srv)
			if srv.Status.Live() {
				live = append(live, srv.Metrics)
			}
		}
	}

	if c.recorder != nil && len(live) > 0 {
		if err := c.recorder.Record(now, live); err != nil {
			c.log.Warn("recording history: %v", err)
		}
	}
	return out
}
