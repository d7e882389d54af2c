package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrInvalidInput is returned for arguments the storage cannot act on.
var ErrInvalidInput = errors.New("invalid input")

// ExpectedSchemaVersion is the latest schema version the application expects.
const ExpectedSchemaVersion = 2

// Migration is one forward-only schema change.
type Migration struct {
	Up          func(*sqlx.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Response cache",
		Up: func(tx *sqlx.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS response_cache (
					key_hash TEXT PRIMARY KEY,
					request_text TEXT NOT NULL,
					response TEXT NOT NULL,
					created_at DATETIME NOT NULL,
					expires_at DATETIME NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_response_cache_expires ON response_cache(expires_at)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Last known exchange rates",
		Up: func(tx *sqlx.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS fx_rates (
					currency TEXT PRIMARY KEY,
					rate REAL NOT NULL CHECK (rate > 0),
					as_of DATETIME NOT NULL,
					source TEXT NOT NULL,
					fetched_at DATETIME NOT NULL
				)`,
			)
		},
	},
}

func execAll(tx *sqlx.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies every migration newer than the database's user_version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	var currentVersion int
	if err := s.db.GetContext(ctx, &currentVersion, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		s.logger.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	if err := s.db.GetContext(ctx, &finalVersion, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
