package store

import (
	"fmt"
)

// migrate runs all pending migrations
func (s *Store) migrate() error {
	createMigrationsTableSQL := `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY,
			version INTEGER NOT NULL UNIQUE,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`

	if _, err := s.db.Exec(createMigrationsTableSQL); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{
			version: 1,
			sql: `
				CREATE TABLE listings (
					release_tag TEXT PRIMARY KEY,
					fetched_at DATETIME NOT NULL
				);

				CREATE TABLE variants (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					release_tag TEXT NOT NULL,
					implementation TEXT NOT NULL,
					python_version TEXT NOT NULL,
					triplet TEXT NOT NULL,
					config TEXT NOT NULL DEFAULT '',
					flavor TEXT NOT NULL,
					url TEXT NOT NULL,
					build_info TEXT,
					UNIQUE(release_tag, url),
					FOREIGN KEY(release_tag) REFERENCES listings(release_tag)
				);

				CREATE INDEX idx_variants_key
					ON variants(release_tag, implementation, python_version, triplet);
			`,
		},
	}

	for _, migration := range migrations {
		if migration.version <= currentVersion {
			continue
		}

		s.logger.Info("applying migration", "version", migration.version)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if _, err := tx.Exec(migration.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d: %w", migration.version, err)
		}

		if _, err := tx.Exec("INSERT INTO migrations (version) VALUES (?)", migration.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.version, err)
		}
	}

	return nil
}
