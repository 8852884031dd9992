package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
)

// ErrMissingDataSourceName is returned when the SQLite DSN is blank.
var ErrMissingDataSourceName = errors.New("settings: missing database data source name")

// SettingRecord is one persisted key/value row.
type SettingRecord struct {
	Key       string `gorm:"primaryKey;size:128"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName keeps the table name stable across gorm naming strategies.
func (SettingRecord) TableName() string {
	return "extension_settings"
}

// SQLStore caches settings in memory and upserts changed keys on Save.
type SQLStore struct {
	*MemoryStore
	db *gorm.DB

	mu    sync.Mutex
	dirty map[string]struct{}
}

// OpenSQLite opens dsn with the pure-Go SQLite driver and loads existing rows.
func OpenSQLite(ctx context.Context, dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrMissingDataSourceName
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("settings: open sqlite database: %w", err)
	}
	return NewSQLStore(ctx, db)
}

// NewSQLStore migrates the settings table on db and loads its rows.
func NewSQLStore(ctx context.Context, db *gorm.DB) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("settings: database is required")
	}
	if err := db.WithContext(ctx).AutoMigrate(&SettingRecord{}); err != nil {
		return nil, fmt.Errorf("settings: migrate: %w", err)
	}
	var rows []SettingRecord
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("settings: load: %w", err)
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return &SQLStore{
		MemoryStore: NewMemoryStore(values),
		db:          db,
		dirty:       make(map[string]struct{}),
	}, nil
}

var _ refresh.Settings = (*SQLStore)(nil)

// Set records value and marks key for the next Save.
func (s *SQLStore) Set(key, value string) {
	s.MemoryStore.Set(key, value)
	s.mu.Lock()
	s.dirty[key] = struct{}{}
	s.mu.Unlock()
}

// Save upserts every key changed since the last Save in one transaction.
func (s *SQLStore) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.dirty) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]SettingRecord, 0, len(s.dirty))
	for key := range s.dirty {
		rows = append(rows, SettingRecord{Key: key, Value: s.Get(key), UpdatedAt: now})
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	clear(s.dirty)
	return nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
