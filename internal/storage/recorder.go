package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
)

// pruneEvery bounds how often Record runs a retention sweep.
const pruneEvery = 5 * time.Minute

// Recorder feeds refreshed metrics into a Store under one session id and
// applies the retention window.
type Recorder struct {
	store     *Store
	session   string
	retention time.Duration
	log       logger.Logger

	mu        sync.Mutex
	lastPrune time.Time
}

// NewRecorder creates a recorder with a fresh session id. A retention of 0
// keeps everything.
func NewRecorder(store *Store, retention time.Duration, log logger.Logger) *Recorder {
	return &Recorder{
		store:     store,
		session:   uuid.NewString(),
		retention: retention,
		log:       logger.OrDefault(log),
	}
}

// Session returns the id stamped on every sample this recorder writes.
func (r *Recorder) Session() string {
	return r.session
}

// Record saves one sample per online server, stamped at, and prunes
// expired samples at most every few minutes.
func (r *Recorder) Record(at time.Time, metrics []nezha.DisplayMetrics) error {
	samples := make([]Sample, 0, len(metrics))
	for _, m := range metrics {
		if !m.Online {
			continue
		}
		samples = append(samples, SampleFromMetrics(r.session, m, at))
	}
	if err := r.store.Save(samples); err != nil {
		return err
	}

	if r.retention <= 0 {
		return nil
	}

	r.mu.Lock()
	due := r.lastPrune.IsZero() || at.Sub(r.lastPrune) >= pruneEvery
	if due {
		r.lastPrune = at
	}
	r.mu.Unlock()

	if due {
		if _, err := r.store.Prune(at.Add(-r.retention)); err != nil {
			r.log.Warn("history prune failed: %v", err)
		}
	}
	return nil
}
