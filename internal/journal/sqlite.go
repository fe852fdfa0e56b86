package journal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for an unknown entry.
var ErrNotFound = errors.New("journal entry not found")

// timeLayout sorts lexicographically in UTC.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}

	// Enable WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: wal: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS commands (
			id              TEXT PRIMARY KEY,
			source          TEXT NOT NULL DEFAULT '',
			command         TEXT NOT NULL,
			final_response  TEXT NOT NULL DEFAULT '',
			process_details TEXT NOT NULL DEFAULT '[]',
			error           TEXT NOT NULL DEFAULT '',
			status          TEXT NOT NULL,
			provider        TEXT NOT NULL DEFAULT '',
			duration_ms     INTEGER NOT NULL DEFAULT 0,
			created_at      TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_commands_created_at ON commands(created_at);
		CREATE INDEX IF NOT EXISTS idx_commands_status ON commands(status);
	`)
	if err != nil {
		return fmt.Errorf("journal: migrate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Save(e *Entry) error {
	details, err := json.Marshal(e.ProcessDetails)
	if err != nil {
		return fmt.Errorf("journal: encode process details: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO commands (id, source, command, final_response, process_details, error, status, provider, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source=excluded.source, command=excluded.command, final_response=excluded.final_response,
			process_details=excluded.process_details, error=excluded.error, status=excluded.status,
			provider=excluded.provider, duration_ms=excluded.duration_ms
	`, e.ID, e.Source, e.Command, e.FinalResponse, string(details), e.Error, string(e.Status),
		e.Provider, e.DurationMS, formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("journal: save: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(id string) (*Entry, error) {
	row := s.db.QueryRow(`SELECT `+columns+` FROM commands WHERE id = ?`, id)

	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return nil, fmt.Errorf("journal: get: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) List(filter Filter) ([]*Entry, error) {
	where, args := filter.where()
	query := `SELECT ` + columns + ` FROM commands` + where + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("journal: list scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Count(filter Filter) (int, error) {
	where, args := filter.where()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM commands`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("journal: count: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) Prune(before time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM commands WHERE created_at < ?`, formatTime(before))
	if err != nil {
		return 0, fmt.Errorf("journal: prune: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- helpers ---

const columns = `id, source, command, final_response, process_details, error, status, provider, duration_ms, created_at`

func (f Filter) where() (string, []any) {
	var conds []string
	var args []any

	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, f.Source)
	}
	if f.Query != "" {
		conds = append(conds, "(command LIKE ? OR final_response LIKE ?)")
		pattern := "%" + f.Query + "%"
		args = append(args, pattern, pattern)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, formatTime(f.Since))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEntry(s scannable) (*Entry, error) {
	var e Entry
	var details, status, createdAt string

	err := s.Scan(&e.ID, &e.Source, &e.Command, &e.FinalResponse, &details, &e.Error,
		&status, &e.Provider, &e.DurationMS, &createdAt)
	if err != nil {
		return nil, err
	}

	e.Status = Status(status)
	if err := json.Unmarshal([]byte(details), &e.ProcessDetails); err != nil {
		return nil, fmt.Errorf("decode process details of %s: %w", e.ID, err)
	}
	e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &e, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
