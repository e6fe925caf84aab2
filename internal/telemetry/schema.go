package telemetry

import (
	"database/sql"

	"github.com/Jay1/budsctl/internal/errors"
	"github.com/Jay1/budsctl/internal/logger"
	"github.com/jmoiron/sqlx"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS estimates (
	       timestamp        INTEGER PRIMARY KEY,
	       left_raw         INTEGER,
	       right_raw        INTEGER,
	       case_raw         INTEGER,
	       left_estimate    REAL NOT NULL,
	       right_estimate   REAL NOT NULL,
	       case_estimate    REAL NOT NULL,
	       left_confidence  REAL NOT NULL,
	       right_confidence REAL NOT NULL,
	       case_confidence  REAL NOT NULL,
	       left_real        INTEGER NOT NULL CHECK (left_real IN (0, 1)),
	       right_real       INTEGER NOT NULL CHECK (right_real IN (0, 1)),
	       case_real        INTEGER NOT NULL CHECK (case_real IN (0, 1)),
	       left_charging    INTEGER NOT NULL CHECK (left_charging IN (0, 1)),
	       right_charging   INTEGER NOT NULL CHECK (right_charging IN (0, 1)),
	       case_charging    INTEGER NOT NULL CHECK (case_charging IN (0, 1))
	   );`

	insertEstimateSQL = `
    INSERT INTO estimates (
        timestamp,
        left_raw, right_raw, case_raw,
        left_estimate, right_estimate, case_estimate,
        left_confidence, right_confidence, case_confidence,
        left_real, right_real, case_real,
        left_charging, right_charging, case_charging
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// EnsureSchema creates the schema on a fresh database and verifies the
// version on an existing one.
func EnsureSchema(db *sqlx.DB) error {
	errFactory := errors.New()

	version, err := schemaVersion(db)
	if err != nil {
		return err
	}

	if version == SchemaVersion {
		return nil
	}
	if version > 0 {
		return errFactory.WithData(ErrSchemaValidationFailed, struct {
			Found    int
			Expected int
		}{
			Found:    version,
			Expected: SchemaVersion,
		})
	}

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				logger.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	logger.Info().Int("version", SchemaVersion).Msg("Telemetry schema initialized")

	return nil
}

// schemaVersion returns the recorded schema version, 0 on a fresh
// database.
func schemaVersion(db *sqlx.DB) (int, error) {
	errFactory := errors.New()

	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name='schema_versions'
        )
    `).Scan(&exists)
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}

	return version, nil
}
