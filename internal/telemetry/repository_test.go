package telemetry_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"codeberg.org/arlen/sensorctl/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func TestRepositorySaveAndSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")
	repo, err := telemetry.NewRepository(telemetry.Config{DBPath: dbPath})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, "lidar", &telemetry.Sample{
		TS:     1700000000000,
		Values: map[string]any{"lidar.point_count": 275000},
	}, telemetry.SyncSent))
	require.NoError(t, repo.Save(ctx, "ultrasonic", &telemetry.Sample{
		TS:     1700000001000,
		Values: map[string]any{"ultrasonic.sensor_1.distance_cm": 42.0},
	}, telemetry.SyncFailed))
	require.NoError(t, repo.Close())

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM telemetry`).Scan(&count))
	assert.Equal(t, 2, count)

	var sensorType, dataJSON string
	var ts int64
	var syncStatus int
	require.NoError(t, db.QueryRow(
		`SELECT timestamp, sensor_type, data_json, sync_status FROM telemetry WHERE sensor_type = 'lidar'`,
	).Scan(&ts, &sensorType, &dataJSON, &syncStatus))
	assert.Equal(t, int64(1700000000000), ts)
	assert.Equal(t, "lidar", sensorType)
	assert.Contains(t, dataJSON, "lidar.point_count")
	assert.Equal(t, telemetry.SyncSent, syncStatus)
}

func TestRepositoryRejectsNilSample(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")
	repo, err := telemetry.NewRepository(telemetry.Config{DBPath: dbPath})
	require.NoError(t, err)
	defer repo.Close()

	err = repo.Save(context.Background(), "lidar", nil, telemetry.SyncSent)
	assert.Error(t, err)
}

func TestRepositoryCreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "telemetry.db")
	repo, err := telemetry.NewRepository(telemetry.Config{DBPath: dbPath})
	require.NoError(t, err)
	assert.NoError(t, repo.Close())
}

func TestRepositoryInvalidConfig(t *testing.T) {
	_, err := telemetry.NewRepository(telemetry.Config{})
	assert.Error(t, err)
}

func TestNopRepository(t *testing.T) {
	repo := telemetry.NopRepository{}
	assert.NoError(t, repo.Save(context.Background(), "lidar", &telemetry.Sample{TS: 1}, telemetry.SyncSent))
	assert.NoError(t, repo.Close())
}
