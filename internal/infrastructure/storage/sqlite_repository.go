package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"FilmScanner/internal/domain"
	"FilmScanner/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS processed_releases (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	feed_url TEXT NOT NULL,
	title TEXT NOT NULL,
	year INTEGER NOT NULL,
	quality TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_processed_title_year ON processed_releases (LOWER(title), year);
`

// SQLiteRepository persists terminal decisions into a local sqlite file.
// Records are append-only; nothing ever updates or deletes them.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.ReleaseRepository = (*SQLiteRepository)(nil)

// Open connects to the store, creating the file and schema when absent.
func Open(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?cache=shared&mode=rwc&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init store schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// Close releases the underlying handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// IsProcessed matches the title case-insensitively and the year exactly;
// quality variants and the source feed are not part of the key.
func (r *SQLiteRepository) IsProcessed(ctx context.Context, title string, year int) (bool, error) {
	query, args, err := sq.Select("COUNT(1)").
		From("processed_releases").
		Where(sq.Expr("LOWER(title) = LOWER(?)", title)).
		Where(sq.Eq{"year": year}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build processed query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("query processed: %w", err)
	}
	return count > 0, nil
}

// Record appends the decision. The insert is synchronous, so the record is
// durable before the pipeline examines the next entry.
func (r *SQLiteRepository) Record(ctx context.Context, rec domain.ProcessedRelease) error {
	query, args, err := sq.Insert("processed_releases").
		Columns("feed_url", "title", "year", "quality").
		Values(rec.FeedURL, rec.Title, rec.Year, rec.Quality).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record release: %w", err)
	}
	return nil
}
