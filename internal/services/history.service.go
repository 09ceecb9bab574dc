package services

import (
	"context"
	"fmt"
	"sync"

	"sysinfo/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const DefaultStoragePath = "system_info.db"

const schema = `
CREATE TABLE IF NOT EXISTS system_info (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp      TEXT,
    cpu_percent    REAL,
    cpu_cores      INTEGER,
    cpu_threads    INTEGER,
    memory_total   INTEGER,
    memory_used    INTEGER,
    memory_percent REAL,
    disk_total     INTEGER,
    disk_used      INTEGER,
    disk_percent   REAL,
    uptime_seconds INTEGER
)`

// SampleWriter appends samples to the history log.
type SampleWriter interface {
	Append(ctx context.Context, sample *models.Sample) (int64, error)
}

// SampleReader reads the full history log, newest first.
type SampleReader interface {
	ReadAll(ctx context.Context) ([]models.Sample, error)
}

// SampleStore is the durable, append-only history of samples, kept in one SQLite table.
//
// Append and ReadAll are atomic with respect to each other. Connections come from
// the pool per operation; none is held between calls.
type SampleStore struct {
	mu     sync.RWMutex
	db     *gorm.DB
	path   string
	logger *zap.Logger
}

// OpenSampleStore opens (or creates) the SQLite file at path and ensures the schema exists
func OpenSampleStore(ctx context.Context, path string, logger *zap.Logger) (*SampleStore, error) {
	if path == "" {
		path = DefaultStoragePath
	}

	dsn := path + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorageInit, path, err)
	}

	store := &SampleStore{
		db:     db,
		path:   path,
		logger: logger.With(zap.String("path", path)),
	}

	if err := store.Init(ctx); err != nil {
		store.Close()
		return nil, err
	}

	store.logger.Info("Sample store ready")
	return store, nil
}

// Init creates the system_info table if it is absent. It is safe to call repeatedly.
func (s *SampleStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.WithContext(ctx).Exec(schema).Error; err != nil {
		return fmt.Errorf("%w: create schema in %s: %w", ErrStorageInit, s.path, err)
	}
	return nil
}

// Append inserts one sample and returns the id assigned to it.
// The id is also written back into sample.
func (s *SampleStore) Append(ctx context.Context, sample *models.Sample) (int64, error) {
	row := *sample
	row.ID = 0

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	sample.ID = row.ID
	return row.ID, nil
}

// ReadAll returns every stored sample ordered by id descending.
// An empty store yields an empty, non-nil slice.
func (s *SampleStore) ReadAll(ctx context.Context) ([]models.Sample, error) {
	samples := make([]models.Sample, 0)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.db.WithContext(ctx).Order("id DESC").Find(&samples).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	if samples == nil {
		samples = []models.Sample{}
	}
	return samples, nil
}

// Count returns the number of stored samples
func (s *SampleStore) Count(ctx context.Context) (int64, error) {
	var n int64

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.db.WithContext(ctx).Model(&models.Sample{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	return n, nil
}

// Close releases the underlying connection pool
func (s *SampleStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
