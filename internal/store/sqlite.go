// Package store caches classified and enriched variant listings per upstream
// release tag, so repeated listings don't re-stream remote archives. Only
// metadata is persisted, never package payloads.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/BadgerOps/pybootstrap/internal/variant"
)

// Store provides SQLite-backed persistence for variant listings.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a Store, opening the SQLite database and running migrations.
func New(dbPath string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("store initialized", "path", dbPath)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// SaveListing replaces the cached listing for a release tag. BuildInfo is
// stored as JSON; variants that were never enriched keep a NULL column and
// come back unenriched.
func (s *Store) SaveListing(releaseTag string, variants []*variant.Variant) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM variants WHERE release_tag = ?", releaseTag); err != nil {
		return fmt.Errorf("failed to clear previous listing: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO listings (release_tag, fetched_at) VALUES (?, ?)",
		releaseTag, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("failed to record listing: %w", err)
	}

	const query = `
		INSERT INTO variants (
			release_tag, implementation, python_version, triplet,
			config, flavor, url, build_info
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i, v := range variants {
		var buildInfo sql.NullString
		if v.BuildInfo != nil {
			data, err := json.Marshal(v.BuildInfo)
			if err != nil {
				return fmt.Errorf("failed to encode build info for %s: %w", v.URL, err)
			}
			buildInfo = sql.NullString{String: string(data), Valid: true}
		}

		if _, err := tx.Exec(query,
			releaseTag, v.Implementation, v.PythonVersion, v.Triplet,
			string(v.Config), string(v.Flavor), v.URL, buildInfo,
		); err != nil {
			return fmt.Errorf("failed to insert variant %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit listing: %w", err)
	}

	s.logger.Debug("saved listing", "release_tag", releaseTag, "variants", len(variants))
	return nil
}

// LoadListing returns the cached variants for a release tag in insertion
// order. A tag with no cached listing returns (nil, false, nil).
func (s *Store) LoadListing(releaseTag string) ([]*variant.Variant, bool, error) {
	var fetchedAt time.Time
	err := s.db.QueryRow(
		"SELECT fetched_at FROM listings WHERE release_tag = ?", releaseTag,
	).Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query listing: %w", err)
	}

	const query = `
		SELECT implementation, python_version, triplet, config, flavor, url, build_info
		FROM variants WHERE release_tag = ? ORDER BY id
	`

	rows, err := s.db.Query(query, releaseTag)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	var variants []*variant.Variant
	for rows.Next() {
		var (
			v         variant.Variant
			config    string
			flavor    string
			buildInfo sql.NullString
		)
		if err := rows.Scan(
			&v.Implementation, &v.PythonVersion, &v.Triplet,
			&config, &flavor, &v.URL, &buildInfo,
		); err != nil {
			return nil, false, fmt.Errorf("failed to scan variant: %w", err)
		}
		v.ReleaseTag = releaseTag
		v.Config = variant.BuildConfig(config)
		v.Flavor = variant.Flavor(flavor)

		if buildInfo.Valid {
			if err := json.Unmarshal([]byte(buildInfo.String), &v.BuildInfo); err != nil {
				return nil, false, fmt.Errorf("failed to decode build info for %s: %w", v.URL, err)
			}
		}
		variants = append(variants, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to iterate variants: %w", err)
	}

	return variants, true, nil
}

// LatestTag returns the most recently fetched release tag, or "" when the
// cache is empty.
func (s *Store) LatestTag() (string, error) {
	var tag string
	err := s.db.QueryRow(
		"SELECT release_tag FROM listings ORDER BY fetched_at DESC LIMIT 1",
	).Scan(&tag)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest tag: %w", err)
	}
	return tag, nil
}
