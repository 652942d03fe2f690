// Package sqlite exports a dataset into a SQLite database for ad-hoc querying.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"deathmap/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS deaths (
	id           TEXT PRIMARY KEY,
	date         TEXT NOT NULL,
	year         INTEGER NOT NULL,
	type         TEXT NOT NULL,
	subtype      TEXT NOT NULL,
	department   TEXT NOT NULL,
	municipality TEXT NOT NULL,
	lat          REAL NOT NULL,
	lng          REAL NOT NULL,
	age          INTEGER NOT NULL,
	gender       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_deaths_type ON deaths(type);
CREATE INDEX IF NOT EXISTS idx_deaths_department ON deaths(department);
CREATE TABLE IF NOT EXISTS by_type (
	type  TEXT PRIMARY KEY,
	count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS dataset_metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Open opens (creating if needed) the database at path.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

// Migrate applies the schema.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	return nil
}

// Export replaces the database contents with ds in one transaction.
func Export(ctx context.Context, db *sql.DB, ds *models.Dataset) error {
	if err := Migrate(db); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"deaths", "by_type", "dataset_metadata"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO deaths
		(id, date, year, type, subtype, department, municipality, lat, lng, age, gender)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range ds.Data {
		year := 0
		if len(r.Date) >= 4 {
			year, _ = strconv.Atoi(r.Date[:4])
		}

		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Date, year, string(r.Type), string(r.Subtype),
			r.Location.Department, r.Location.Municipality, r.Location.Lat, r.Location.Lng,
			r.Demographics.Age, string(r.Demographics.Gender),
		); err != nil {
			return fmt.Errorf("insert %s: %w", r.ID, err)
		}
	}

	for t, n := range ds.ByType {
		if _, err := tx.ExecContext(ctx, `INSERT INTO by_type (type, count) VALUES (?, ?)`, string(t), n); err != nil {
			return fmt.Errorf("insert by_type %s: %w", t, err)
		}
	}

	meta := map[string]string{
		"year":        strconv.Itoa(ds.Year),
		"source":      ds.Metadata.Source,
		"sourceUrl":   ds.Metadata.SourceURL,
		"datasets":    strings.Join(ds.Metadata.Datasets, "\n"),
		"lastUpdated": ds.Metadata.LastUpdated,
		"checksum":    ds.Metadata.Checksum,
	}

	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO dataset_metadata (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("insert metadata %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// CountByType reads the per-type counts recomputed from the deaths table.
func CountByType(ctx context.Context, db *sql.DB) (map[models.DeathType]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT type, COUNT(*) FROM deaths GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.DeathType]int)

	for rows.Next() {
		var (
			t string
			n int
		)

		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan counts: %w", err)
		}

		counts[models.DeathType(t)] = n
	}

	return counts, rows.Err()
}
