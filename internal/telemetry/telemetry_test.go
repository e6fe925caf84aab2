package telemetry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.DBPath = filepath.Join(t.TempDir(), "telemetry.db")
	cfg.BatchSize = 2
	cfg.BatchTimeout = 60

	return cfg
}

func snapshotAt(ts time.Time, leftRaw int) *EstimateSnapshot {
	return &EstimateSnapshot{
		Timestamp: ts,
		Left: ComponentMetrics{
			Raw:        &leftRaw,
			Estimate:   float64(leftRaw),
			Confidence: 1.0,
			IsReal:     true,
		},
		Right: ComponentMetrics{Estimate: 70.0, Confidence: 0.5},
		Case:  ComponentMetrics{Estimate: 90.0, Confidence: 0.5, Charging: true},
	}
}

func countRows(t *testing.T, dbPath string) int {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM estimates"))

	return count
}

func TestDisabledConfigYieldsNoopCollector(t *testing.T) {
	cfg := DefaultConfig()
	require.False(t, cfg.Enabled)

	collector, err := NewService(cfg)
	require.NoError(t, err)

	assert.IsType(t, &noopCollector{}, collector)
	assert.NoError(t, collector.Record(context.Background(), nil))
	assert.NoError(t, collector.Close())
}

func TestEnabledConfigRequiresDBPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.DBPath = ""

	_, err := NewService(cfg)
	assert.Error(t, err)
}

func TestRecordRejectsNilSnapshot(t *testing.T) {
	collector, err := NewService(testConfig(t))
	require.NoError(t, err)
	defer collector.Close()

	assert.Error(t, collector.Record(context.Background(), nil))
}

func TestRecordHonorsCancelledContext(t *testing.T) {
	collector, err := NewService(testConfig(t))
	require.NoError(t, err)
	defer collector.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = collector.Record(ctx, snapshotAt(time.Now(), 72))
	assert.Error(t, err)
}

func TestBatchFlushesAtSize(t *testing.T) {
	cfg := testConfig(t)
	collector, err := NewService(cfg)
	require.NoError(t, err)
	defer collector.Close()

	base := time.Now()
	require.NoError(t, collector.Record(context.Background(), snapshotAt(base, 72)))
	require.NoError(t, collector.Record(context.Background(), snapshotAt(base.Add(time.Second), 71)))

	assert.Equal(t, 2, countRows(t, cfg.DBPath))
}

func TestCloseFlushesRemainingBuffer(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 100

	collector, err := NewService(cfg)
	require.NoError(t, err)

	require.NoError(t, collector.Record(context.Background(), snapshotAt(time.Now(), 72)))
	require.NoError(t, collector.Close())

	assert.Equal(t, 1, countRows(t, cfg.DBPath))
}

func TestStoredRowPreservesValues(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 1

	collector, err := NewService(cfg)
	require.NoError(t, err)
	defer collector.Close()

	ts := time.Now()
	require.NoError(t, collector.Record(context.Background(), snapshotAt(ts, 72)))

	db, err := sqlx.Connect("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	defer db.Close()

	var row struct {
		Timestamp    int64   `db:"timestamp"`
		LeftRaw      *int    `db:"left_raw"`
		RightRaw     *int    `db:"right_raw"`
		LeftEstimate float64 `db:"left_estimate"`
		LeftReal     int     `db:"left_real"`
		CaseCharging int     `db:"case_charging"`
	}
	require.NoError(t, db.Get(&row, `
        SELECT timestamp, left_raw, right_raw, left_estimate, left_real, case_charging
        FROM estimates
    `))

	assert.Equal(t, ts.Unix(), row.Timestamp)
	require.NotNil(t, row.LeftRaw)
	assert.Equal(t, 72, *row.LeftRaw)
	assert.Nil(t, row.RightRaw)
	assert.Equal(t, 72.0, row.LeftEstimate)
	assert.Equal(t, 1, row.LeftReal)
	assert.Equal(t, 1, row.CaseCharging)
}

func TestSchemaIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")

	db, err := sqlx.Connect("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, EnsureSchema(db))
	require.NoError(t, EnsureSchema(db))

	version, err := schemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}
