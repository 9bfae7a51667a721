package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteCatalog implements Catalog using SQLite.
type SQLiteCatalog struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewSQLiteCatalog opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteCatalog(dbPath string) (*SQLiteCatalog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteCatalog{db: db, path: dbPath, now: time.Now}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS specs (
		source_id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		title TEXT,
		version TEXT,
		spec_version TEXT,
		operations INTEGER NOT NULL DEFAULT 0,
		content_hash TEXT NOT NULL,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		load_order INTEGER NOT NULL DEFAULT 0,
		build_id TEXT,
		warnings TEXT,
		first_seen_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		changed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		loaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_specs_load_order ON specs(load_order);
	`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteCatalog) Path() string {
	return s.path
}

// Sync replaces the catalog contents with records in one transaction.
func (s *SQLiteCatalog) Sync(ctx context.Context, records []*SpecRecord) (SyncStats, error) {
	var stats SyncStats
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to begin sync: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := loadHashes(ctx, tx)
	if err != nil {
		return stats, err
	}

	now := s.now().UTC()
	keep := make(map[string]bool, len(records))
	for _, rec := range records {
		keep[rec.SourceID] = true
		warnings, err := json.Marshal(rec.Warnings)
		if err != nil {
			return stats, fmt.Errorf("failed to marshal warnings: %w", err)
		}
		hash, found := existing[rec.SourceID]
		switch {
		case !found:
			_, err = tx.ExecContext(ctx,
				`INSERT INTO specs (source_id, path, title, version, spec_version, operations, content_hash,
				  size_bytes, load_order, build_id, warnings, first_seen_at, changed_at, loaded_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				rec.SourceID, rec.Path, rec.Title, rec.Version, rec.SpecVersion, rec.Operations, rec.ContentHash,
				rec.SizeBytes, rec.LoadOrder, rec.BuildID, string(warnings), now, now, now,
			)
			stats.Added++
		case hash != rec.ContentHash:
			_, err = tx.ExecContext(ctx,
				`UPDATE specs SET path = ?, title = ?, version = ?, spec_version = ?, operations = ?, content_hash = ?,
				  size_bytes = ?, load_order = ?, build_id = ?, warnings = ?, changed_at = ?, loaded_at = ?
				 WHERE source_id = ?`,
				rec.Path, rec.Title, rec.Version, rec.SpecVersion, rec.Operations, rec.ContentHash,
				rec.SizeBytes, rec.LoadOrder, rec.BuildID, string(warnings), now, now, rec.SourceID,
			)
			stats.Changed++
		default:
			_, err = tx.ExecContext(ctx,
				`UPDATE specs SET path = ?, load_order = ?, build_id = ?, warnings = ?, loaded_at = ?
				 WHERE source_id = ?`,
				rec.Path, rec.LoadOrder, rec.BuildID, string(warnings), now, rec.SourceID,
			)
			stats.Unchanged++
		}
		if err != nil {
			return stats, fmt.Errorf("failed to store spec %s: %w", rec.SourceID, err)
		}
	}

	for id := range existing {
		if keep[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM specs WHERE source_id = ?`, id); err != nil {
			return stats, fmt.Errorf("failed to remove spec %s: %w", id, err)
		}
		stats.Removed++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit sync: %w", err)
	}
	return stats, nil
}

func loadHashes(ctx context.Context, tx *sql.Tx) (map[string]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT source_id, content_hash FROM specs`)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	defer rows.Close()
	hashes := make(map[string]string)
	for rows.Next() {
		var id, hash string
		if err := rows.Scan(&id, &hash); err != nil {
			return nil, err
		}
		hashes[id] = hash
	}
	return hashes, rows.Err()
}

const selectColumns = `source_id, path, title, version, spec_version, operations, content_hash,
	size_bytes, load_order, build_id, warnings, first_seen_at, changed_at, loaded_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*SpecRecord, error) {
	var (
		rec      SpecRecord
		title    sql.NullString
		version  sql.NullString
		specVer  sql.NullString
		buildID  sql.NullString
		warnings sql.NullString
	)
	err := row.Scan(&rec.SourceID, &rec.Path, &title, &version, &specVer, &rec.Operations, &rec.ContentHash,
		&rec.SizeBytes, &rec.LoadOrder, &buildID, &warnings, &rec.FirstSeenAt, &rec.ChangedAt, &rec.LoadedAt)
	if err != nil {
		return nil, err
	}
	rec.Title, rec.Version, rec.SpecVersion, rec.BuildID = title.String, version.String, specVer.String, buildID.String
	if warnings.Valid && warnings.String != "" && warnings.String != "null" {
		if err := json.Unmarshal([]byte(warnings.String), &rec.Warnings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal warnings: %w", err)
		}
	}
	return &rec, nil
}

// List returns every record in load order.
func (s *SQLiteCatalog) List(ctx context.Context) ([]*SpecRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM specs ORDER BY load_order, source_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*SpecRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns the record for sourceID.
func (s *SQLiteCatalog) Get(ctx context.Context, sourceID string) (*SpecRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM specs WHERE source_id = ?`, sourceID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sourceID)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Count returns the number of records.
func (s *SQLiteCatalog) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM specs`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteCatalog) Close() error {
	return s.db.Close()
}
