// Package storage keeps a local SQLite history of normalized samples so
// trends survive between dashboard sessions.
package storage

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Sample is one recorded reading of one server.
type Sample struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	Session    string    `gorm:"index" json:"session"`
	ServerID   uint64    `json:"server_id"`
	ServerName string    `gorm:"index:idx_server_time,priority:1" json:"server"`
	Timestamp  time.Time `gorm:"index:idx_server_time,priority:2;index" json:"timestamp"`
	CPU        float64   `json:"cpu"`
	Mem        float64   `json:"mem"`
	Storage    float64   `json:"storage"`
	Up         float64   `json:"up"`
	Down       float64   `json:"down"`
}

// Store persists samples with GORM on SQLite.
type Store struct {
	db  *gorm.DB
	log logger.Logger
}

// SampleFromMetrics builds a sample from normalized metrics.
func SampleFromMetrics(session string, m nezha.DisplayMetrics, at time.Time) Sample {
	return Sample{
		Session:    session,
		ServerID:   m.ID,
		ServerName: m.Name,
		Timestamp:  at.UTC(),
		CPU:        m.CPU,
		Mem:        m.Mem,
		Storage:    m.Storage,
		Up:         m.Up,
		Down:       m.Down,
	}
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string, log logger.Logger) (*Store, error) {
	log = logger.OrDefault(log)

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrStore,
				"Couldn't create the history directory",
				"Check permissions on "+filepath.Dir(path))
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrStore,
			"Couldn't open history database "+path,
			"Check history.path, or disable history")
	}

	if path == MemoryPath {
		// Each pooled connection would get its own empty database.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	if err := db.AutoMigrate(&Sample{}); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrStore,
			"Couldn't migrate history database "+path,
			"Move the file aside and let fleetdash create a fresh one")
	}

	log.Debug("history store open at %s", path)
	return &Store{db: db, log: log}, nil
}

// newGormLogger keeps GORM quiet unless debugging, since stdout belongs to the TUI.
func newGormLogger() gormlogger.Interface {
	level := gormlogger.Silent
	if os.Getenv(logger.DebugEnv) != "" {
		level = gormlogger.Warn
	}
	return gormlogger.New(
		log.New(os.Stderr, "", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			IgnoreRecordNotFoundError: true,
			LogLevel:                  level,
		},
	)
}

// Save inserts samples in one batch.
func (s *Store) Save(samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}
	if err := s.db.CreateInBatches(samples, 100).Error; err != nil {
		return errors.WrapWithCode(err, errors.ErrStore, "Failed to save samples", "")
	}
	return nil
}

// Recent returns up to limit samples for serverName, oldest first.
// A limit of 0 or less returns everything.
func (s *Store) Recent(serverName string, limit int) ([]Sample, error) {
	q := s.db.Where("server_name = ?", serverName).Order("timestamp desc").Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var samples []Sample
	if err := q.Find(&samples).Error; err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrStore, "Failed to read samples for "+serverName, "")
	}

	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}
	return samples, nil
}

// Servers returns the distinct server names that have samples.
func (s *Store) Servers() ([]string, error) {
	var names []string
	if err := s.db.Model(&Sample{}).Distinct().Order("server_name").Pluck("server_name", &names).Error; err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrStore, "Failed to list recorded servers", "")
	}
	return names, nil
}

// Prune deletes samples older than before and returns how many went.
func (s *Store) Prune(before time.Time) (int64, error) {
	res := s.db.Where("timestamp < ?", before.UTC()).Delete(&Sample{})
	if res.Error != nil {
		return 0, errors.WrapWithCode(res.Error, errors.ErrStore, "Failed to prune history", "")
	}
	if res.RowsAffected > 0 {
		s.log.Debug("pruned %d samples older than %s", res.RowsAffected, before.Format(time.RFC3339))
	}
	return res.RowsAffected, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
