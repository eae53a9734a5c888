package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jo-room/job-scrape/internal/model"

	_ "modernc.org/sqlite"
)

var _ model.RunStore = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sources (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS seen_ids (
	source     TEXT NOT NULL,
	posting_id TEXT NOT NULL,
	first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (source, posting_id)
);
CREATE TABLE IF NOT EXISTS scrape_errors (
	position INTEGER PRIMARY KEY,
	source   TEXT NOT NULL,
	page_url TEXT NOT NULL DEFAULT '',
	message  TEXT NOT NULL DEFAULT '',
	is_new   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS saves (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

// SQLiteStore keeps the run record in a SQLite database. Seen ids are only
// ever inserted; the error table is rewritten on every save.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	now    func() time.Time
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating run record tables: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath, now: time.Now, logger: logger}, nil
}

// Load reads the record. A database that has never been saved to yields
// ErrNotFound.
func (s *SQLiteStore) Load(ctx context.Context) (*model.RunRecord, error) {
	var saves int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM saves").Scan(&saves); err != nil {
		return nil, fmt.Errorf("counting saves: %w", err)
	}
	if saves == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}

	rec := model.NewRunRecord()

	// Sources scanned with nothing seen yet still have an (empty) entry.
	srcRows, err := s.db.QueryContext(ctx, "SELECT name FROM sources")
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer srcRows.Close()
	for srcRows.Next() {
		var name string
		if err := srcRows.Scan(&name); err != nil {
			return nil, &DecodeError{Source: s.path, Err: err}
		}
		rec.SeenIDs[name] = []string{}
	}
	if err := srcRows.Err(); err != nil {
		return nil, fmt.Errorf("reading sources: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT source, posting_id FROM seen_ids ORDER BY source, posting_id")
	if err != nil {
		return nil, fmt.Errorf("querying seen ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var source, id string
		if err := rows.Scan(&source, &id); err != nil {
			return nil, &DecodeError{Source: s.path, Err: err}
		}
		rec.SeenIDs[source] = append(rec.SeenIDs[source], id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading seen ids: %w", err)
	}

	errRows, err := s.db.QueryContext(ctx, "SELECT source, page_url, message, is_new FROM scrape_errors ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying scrape errors: %w", err)
	}
	defer errRows.Close()
	for errRows.Next() {
		var se model.ScrapeError
		if err := errRows.Scan(&se.SourceName, &se.SourcePageURL, &se.Message, &se.IsNewThisRun); err != nil {
			return nil, &DecodeError{Source: s.path, Err: err}
		}
		rec.Errors = append(rec.Errors, se)
	}
	if err := errRows.Err(); err != nil {
		return nil, fmt.Errorf("reading scrape errors: %w", err)
	}

	return rec, nil
}

// Save writes rec according to opts. A backup is a full copy of the database
// taken with VACUUM INTO; a non-destructive save writes a fresh database and
// takes no backup.
func (s *SQLiteStore) Save(ctx context.Context, rec *model.RunRecord, opts model.SaveOptions) (string, error) {
	if opts.SkipWrite {
		s.logger.Info("skipping run record write", "path", s.path)
		return "", nil
	}

	// A non-destructive save leaves the database alone, so there is nothing to back up.
	if opts.BackupFirst && !opts.NonDestructive {
		backup := BackupPath(s.path)
		if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("removing old backup: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", backup); err != nil {
			return "", fmt.Errorf("backing up run record: %w", err)
		}
		s.logger.Info("backed up run record", "from", s.path, "to", backup)
	}

	if opts.NonDestructive {
		dest := TimestampPath(s.path, s.now())
		other, err := NewSQLiteStore(dest, s.logger)
		if err != nil {
			return "", err
		}
		defer other.Close()
		if err := other.write(ctx, rec); err != nil {
			return "", err
		}
		s.logger.Info("wrote run record", "path", dest)
		return dest, nil
	}

	if err := s.write(ctx, rec); err != nil {
		return "", err
	}
	s.logger.Info("wrote run record", "path", s.path)
	return s.path, nil
}

func (s *SQLiteStore) write(ctx context.Context, rec *model.RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run record tx: %w", err)
	}
	defer tx.Rollback()

	for source, ids := range rec.SeenIDs {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO sources (name) VALUES (?)", source); err != nil {
			return fmt.Errorf("recording source %s: %w", source, err)
		}
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO seen_ids (source, posting_id) VALUES (?, ?)", source, id); err != nil {
				return fmt.Errorf("marking %s/%s as seen: %w", source, id, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM scrape_errors"); err != nil {
		return fmt.Errorf("clearing scrape errors: %w", err)
	}
	for i, se := range rec.Errors {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO scrape_errors (position, source, page_url, message, is_new) VALUES (?, ?, ?, ?, ?)",
			i, se.SourceName, se.SourcePageURL, se.Message, se.IsNewThisRun); err != nil {
			return fmt.Errorf("recording error for %s: %w", se.SourceName, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO saves DEFAULT VALUES"); err != nil {
		return fmt.Errorf("recording save: %w", err)
	}
	return tx.Commit()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
