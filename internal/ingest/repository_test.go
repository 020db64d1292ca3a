package ingest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deng0529/GUItest-building-heating/internal/migrate"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = migrate.Run(context.Background(), db, nil)
	require.NoError(t, err)
	return db
}

func TestNewRepository_rejectsBadTableName(t *testing.T) {
	_, err := NewRepository(setupTestDB(t), `BUILDING_A"; DROP`)
	assert.Error(t, err)
}

func TestInsertReading(t *testing.T) {
	db := setupTestDB(t)
	repo, err := NewRepository(db, "BUILDING_A")
	require.NoError(t, err)

	ts := time.Date(2025, 1, 1, 1, 30, 0, 0, time.FixedZone("CET", 3600))
	require.NoError(t, repo.InsertReading(context.Background(), ZoneTelemetry{
		ZoneID: ptr(3), SampleTime: ts, ExtTemp: ptr(4.5), IndoorTemp: ptr(20.25),
	}))

	var (
		zone   int
		sample string
		ext    sql.NullFloat64
		target sql.NullFloat64
		indoor sql.NullFloat64
	)
	err = db.QueryRow(`SELECT ZONEID, SAMPLE_TIME, EXT_TEMP, TARGET_TEMP, INDOOR_TEMP FROM BUILDING_A`).
		Scan(&zone, &sample, &ext, &target, &indoor)
	require.NoError(t, err)
	assert.Equal(t, 3, zone)
	assert.Equal(t, "2025-01-01 00:30:00", sample)
	assert.Equal(t, 4.5, ext.Float64)
	assert.False(t, target.Valid)
	assert.Equal(t, 20.25, indoor.Float64)
}

func TestInsertReadings_batch(t *testing.T) {
	db := setupTestDB(t)
	repo, err := NewRepository(db, "BUILDING_A")
	require.NoError(t, err)

	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	batch := []ZoneTelemetry{
		{ZoneID: ptr(1), SampleTime: ts, ExtTemp: ptr(1.0)},
		{ZoneID: ptr(2), SampleTime: ts.Add(time.Hour), ExtTemp: ptr(2.0)},
	}
	n, err := repo.InsertReadings(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM BUILDING_A`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestInsertReadings_rollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	repo, err := NewRepository(db, "BUILDING_A")
	require.NoError(t, err)

	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	batch := []ZoneTelemetry{
		{ZoneID: ptr(1), SampleTime: ts, ExtTemp: ptr(1.0)},
		{SampleTime: ts, ExtTemp: ptr(2.0)}, // ZONEID is NOT NULL
	}
	_, err = repo.InsertReadings(context.Background(), batch)
	require.Error(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM BUILDING_A`).Scan(&count))
	assert.Zero(t, count)
}

func TestInsertReading_missingTable(t *testing.T) {
	repo, err := NewRepository(setupTestDB(t), "BUILDING_B")
	require.NoError(t, err)
	err = repo.InsertReading(context.Background(), ZoneTelemetry{ZoneID: ptr(1), SampleTime: time.Now(), ExtTemp: ptr(1.0)})
	assert.Error(t, err)
}
