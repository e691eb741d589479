package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// one writer; uplinks are small and infrequent
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

const schemaReadings = `
CREATE TABLE IF NOT EXISTS readings (
    id TEXT PRIMARY KEY,
    dev_eui TEXT NOT NULL,
    ts TIMESTAMP NOT NULL,
    relay_time TEXT NOT NULL,
    temperature REAL NOT NULL,
    illuminance INTEGER NOT NULL,
    humidity INTEGER NOT NULL,
    counter INTEGER NOT NULL,
    debit REAL NOT NULL,
    voltage INTEGER NOT NULL
);
`

const schemaReadingsIndex = `
CREATE INDEX IF NOT EXISTS idx_readings_dev_ts ON readings (dev_eui, ts);
`

const schemaReadingsTSIndex = `
CREATE INDEX IF NOT EXISTS idx_readings_ts ON readings (ts);
`

const schemaDeviceAlarms = `
CREATE TABLE IF NOT EXISTS device_alarms (
    id TEXT PRIMARY KEY,
    dev_eui TEXT NOT NULL,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
`

const schemaDeviceStatus = `
CREATE TABLE IF NOT EXISTS device_status (
    dev_eui TEXT PRIMARY KEY,
    last_seen TIMESTAMP NOT NULL,
    last_frame TEXT NOT NULL,
    battery_low BOOLEAN NOT NULL,
    unexpected_flow BOOLEAN NOT NULL
);
`

const schemaOperators = `
CREATE TABLE IF NOT EXISTS operators (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

// EnsureSchema creates missing tables and indexes in one transaction.
func EnsureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaReadings,
		schemaReadingsIndex,
		schemaReadingsTSIndex,
		schemaDeviceAlarms,
		schemaDeviceStatus,
		schemaOperators,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
