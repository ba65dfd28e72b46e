package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/arlen/sensorctl/internal/errors"
	"codeberg.org/arlen/sensorctl/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

// Repository is the durable sink for streamed telemetry.
type Repository interface {
	Save(ctx context.Context, sensorType string, s *Sample, syncStatus int) error
	Close() error
}

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewRepository(cfg Config) (Repository, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	logger.Debug().Msgf("Initializing telemetry repository at: %s", cfg.DBPath)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	return &sqliteRepository{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS telemetry (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            timestamp BIGINT NOT NULL,
            sensor_type VARCHAR(50) NOT NULL,
            data_json TEXT NOT NULL,
            sync_status INTEGER DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_telemetry_timestamp ON telemetry(timestamp);
        CREATE INDEX IF NOT EXISTS idx_telemetry_sync_status ON telemetry(sync_status);
    `)
	return err
}

func (r *sqliteRepository) Save(ctx context.Context, sensorType string, s *Sample, syncStatus int) error {
	errFactory := errors.New()

	if s == nil {
		return errFactory.New(ErrInvalidSample)
	}

	data, err := json.Marshal(s.Values)
	if err != nil {
		return errFactory.Wrap(ErrInvalidSample, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.ExecContext(ctx, `
        INSERT INTO telemetry (timestamp, sensor_type, data_json, sync_status)
        VALUES (?, ?, ?, ?)
    `, s.TS, sensorType, string(data), syncStatus)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}
	return nil
}

// NopRepository discards every sample. Used when persistence is disabled.
type NopRepository struct{}

func (NopRepository) Save(context.Context, string, *Sample, int) error { return nil }

func (NopRepository) Close() error { return nil }
