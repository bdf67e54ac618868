package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"diana/internal/config"
)

// Entry is one recorded failure.
type Entry struct {
	ID        int64
	Accession string
	Stage     string
	Reason    string
	CreatedAt time.Time
}

// Ledger manages retry persistence backed by SQLite.
type Ledger struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS retry_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    accession TEXT NOT NULL,
    stage TEXT NOT NULL,
    reason TEXT,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_retry_accession ON retry_items(accession);
`

// Open initializes or connects to the retry database under the meta directory.
func Open(cfg *config.Config) (*Ledger, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.MetaDir(), "retry.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Ledger{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Path returns the database file location.
func (l *Ledger) Path() string { return l.path }

// Append records one counted failure.
func (l *Ledger) Append(ctx context.Context, accession, stage, reason string) error {
	if accession == "" {
		return errors.New("accession must not be empty")
	}
	_, err := l.db.ExecContext(
		ctx,
		`INSERT INTO retry_items (accession, stage, reason, created_at) VALUES (?, ?, ?, ?)`,
		accession,
		stage,
		reason,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert retry item: %w", err)
	}
	return nil
}

// List returns all recorded failures ordered by insertion.
func (l *Ledger) List(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(
		ctx,
		`SELECT id, accession, stage, reason, created_at FROM retry_items ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list retry items: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			reason     sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&entry.ID, &entry.Accession, &entry.Stage, &reason, &createdRaw); err != nil {
			return nil, err
		}
		entry.Reason = reason.String
		if created, parseErr := time.Parse(time.RFC3339Nano, createdRaw); parseErr == nil {
			entry.CreatedAt = created
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Accessions returns the distinct accessions with recorded failures, ordered
// by first failure, for replay as a worklist.
func (l *Ledger) Accessions(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(
		ctx,
		`SELECT accession FROM retry_items GROUP BY accession ORDER BY MIN(id)`,
	)
	if err != nil {
		return nil, fmt.Errorf("list retry accessions: %w", err)
	}
	defer rows.Close()

	var accessions []string
	for rows.Next() {
		var accession string
		if err := rows.Scan(&accession); err != nil {
			return nil, err
		}
		accessions = append(accessions, accession)
	}
	return accessions, rows.Err()
}

// Clear removes all recorded failures and reports how many were deleted.
func (l *Ledger) Clear(ctx context.Context) (int64, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM retry_items`)
	if err != nil {
		return 0, fmt.Errorf("clear retry items: %w", err)
	}
	return res.RowsAffected()
}
