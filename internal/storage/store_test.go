package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "history.db"), logger.Noop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SaveAndRecent(t *testing.T) {
	s := openTestStore(t)

	var samples []Sample
	for i := 0; i < 5; i++ {
		samples = append(samples, Sample{
			Session:    "s1",
			ServerName: "tokyo-1",
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			CPU:        float64(i * 10),
		})
	}
	samples = append(samples, Sample{Session: "s1", ServerName: "fra-2", Timestamp: base, CPU: 99})
	require.NoError(t, s.Save(samples))

	recent, err := s.Recent("tokyo-1", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []float64{20, 30, 40}, []float64{recent[0].CPU, recent[1].CPU, recent[2].CPU}, "last three, oldest first")
	assert.True(t, recent[2].Timestamp.Equal(base.Add(4*time.Minute)))

	all, err := s.Recent("tokyo-1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	none, err := s.Recent("nowhere", 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	names, err := s.Servers()
	require.NoError(t, err)
	assert.Equal(t, []string{"fra-2", "tokyo-1"}, names)
}

func TestStore_SaveEmpty(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Save(nil))
}

func TestStore_Prune(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Save([]Sample{
		{ServerName: "a", Timestamp: base.Add(-2 * time.Hour)},
		{ServerName: "a", Timestamp: base.Add(-time.Hour)},
		{ServerName: "a", Timestamp: base},
	}))

	n, err := s.Prune(base.Add(-90 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := s.Recent("a", 0)
	require.NoError(t, err)
	assert.Len(t, left, 2)
}

func TestStore_MemoryPath(t *testing.T) {
	s, err := Open(MemoryPath, nil)
	require.NoError(t, err)
	defer s.Close()
	assert.NoError(t, s.Save([]Sample{{ServerName: "x", Timestamp: base}}))
}

func TestSampleFromMetrics(t *testing.T) {
	m := nezha.DisplayMetrics{ID: 4, Name: "ams-1", CPU: 10, Mem: 20, Storage: 30, Up: 1.5, Down: 0.5}
	at := time.Date(2025, 3, 10, 13, 0, 0, 0, time.FixedZone("CET", 3600))

	got := SampleFromMetrics("sess", m, at)
	assert.Equal(t, Sample{
		Session: "sess", ServerID: 4, ServerName: "ams-1", Timestamp: at.UTC(),
		CPU: 10, Mem: 20, Storage: 30, Up: 1.5, Down: 0.5,
	}, got)
}

func TestRecorder(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Save([]Sample{{ServerName: "old", Timestamp: base.Add(-48 * time.Hour)}}))

	r := NewRecorder(s, 24*time.Hour, logger.Noop())
	_, err := uuid.Parse(r.Session())
	require.NoError(t, err, "session is a uuid")

	metrics := []nezha.DisplayMetrics{
		{Name: "up-1", Online: true, CPU: 5},
		{Name: "down-1", Online: false, CPU: 7},
	}
	require.NoError(t, r.Record(base, metrics))

	up, err := s.Recent("up-1", 0)
	require.NoError(t, err)
	require.Len(t, up, 1)
	assert.Equal(t, r.Session(), up[0].Session)

	down, err := s.Recent("down-1", 0)
	require.NoError(t, err)
	assert.Empty(t, down, "offline servers aren't recorded")

	old, err := s.Recent("old", 0)
	require.NoError(t, err)
	assert.Empty(t, old, "first record prunes past retention")
}

func TestRecorder_NoRetention(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Save([]Sample{{ServerName: "old", Timestamp: base.Add(-48 * time.Hour)}}))

	r := NewRecorder(s, 0, logger.Noop())
	require.NoError(t, r.Record(base, nil))

	old, err := s.Recent("old", 0)
	require.NoError(t, err)
	assert.Len(t, old, 1)
}

func TestRecorder_DistinctSessions(t *testing.T) {
	s := openTestStore(t)
	assert.NotEqual(t, NewRecorder(s, 0, nil).Session(), NewRecorder(s, 0, nil).Session())
}
