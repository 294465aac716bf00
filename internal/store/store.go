// Package store handles persistence of the selection history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mlfcnt/tracer-picker/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// HistoryStore loads and extends the selection history.
type HistoryStore interface {
	LoadHistory(ctx context.Context) (model.SelectionHistory, error)
	SaveSelection(ctx context.Context, sel Selection) error
	Close() error
}

// Selection is one confirmed draw with the competition it was made for.
type Selection struct {
	ID          int64
	DrawID      string
	Competition model.Competition
	Entry       model.HistoryEntry
	ConfirmedAt time.Time
}

// NewSelection stamps a confirmed history entry with a fresh draw id.
func NewSelection(entry model.HistoryEntry, comp model.Competition) Selection {
	return Selection{
		DrawID:      uuid.NewString(),
		Competition: comp,
		Entry:       entry,
		ConfirmedAt: time.Now().UTC(),
	}
}

// Store wraps SQLite access for the selection history.
type Store struct {
	db *sql.DB
}

const busyTimeoutMs = 5000

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)", path, busyTimeoutMs)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS selections (
			id INTEGER PRIMARY KEY,
			key TEXT NOT NULL UNIQUE,
			draw_id TEXT NOT NULL,
			date TEXT NOT NULL,
			location TEXT NOT NULL,
			discipline TEXT NOT NULL,
			competition_code TEXT NOT NULL,
			home TEXT NOT NULL,
			manche1 TEXT NOT NULL,
			manche2 TEXT NOT NULL,
			manche3 TEXT NOT NULL,
			manche4 TEXT NOT NULL,
			confirmed_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_selections_confirmed_at ON selections(confirmed_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveSelection records a confirmed draw. Saving an existing key replaces the
// record but keeps its position in the history.
func (s *Store) SaveSelection(ctx context.Context, sel Selection) (err error) {
	if sel.Entry.Key == "" {
		return fmt.Errorf("selection has an empty key")
	}
	if err := sel.Entry.Record.Traceurs.Validate(); err != nil {
		return err
	}
	if sel.DrawID == "" {
		sel.DrawID = uuid.NewString()
	}
	if sel.ConfirmedAt.IsZero() {
		sel.ConfirmedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	t := sel.Entry.Record.Traceurs
	_, err = tx.ExecContext(ctx,
		`INSERT INTO selections (key, draw_id, date, location, discipline, competition_code, home, manche1, manche2, manche3, manche4, confirmed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			draw_id = excluded.draw_id,
			date = excluded.date,
			location = excluded.location,
			discipline = excluded.discipline,
			competition_code = excluded.competition_code,
			home = excluded.home,
			manche1 = excluded.manche1,
			manche2 = excluded.manche2,
			manche3 = excluded.manche3,
			manche4 = excluded.manche4,
			confirmed_at = excluded.confirmed_at`,
		sel.Entry.Key,
		sel.DrawID,
		sel.Competition.Date,
		sel.Competition.Location,
		sel.Competition.Discipline,
		sel.Competition.Code,
		string(sel.Competition.Home),
		string(t.Manche1),
		string(t.Manche2),
		string(t.Manche3),
		string(t.Manche4),
		sel.ConfirmedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// LoadHistory returns every stored selection, oldest first.
func (s *Store) LoadHistory(ctx context.Context) (model.SelectionHistory, error) {
	sels, err := s.ListSelections(ctx)
	if err != nil {
		return model.SelectionHistory{}, err
	}
	entries := make([]model.HistoryEntry, len(sels))
	for i, sel := range sels {
		entries[i] = sel.Entry
	}
	return model.NewSelectionHistory(entries...), nil
}

// ListSelections returns the stored selections with their metadata, oldest first.
func (s *Store) ListSelections(ctx context.Context) ([]Selection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, key, draw_id, date, location, discipline, competition_code, home, manche1, manche2, manche3, manche4, confirmed_at
		 FROM selections
		 ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []Selection
	for rows.Next() {
		var sel Selection
		var home, m1, m2, m3, m4, confirmedAt string
		if err := rows.Scan(&sel.ID, &sel.Entry.Key, &sel.DrawID,
			&sel.Competition.Date, &sel.Competition.Location, &sel.Competition.Discipline, &sel.Competition.Code,
			&home, &m1, &m2, &m3, &m4, &confirmedAt); err != nil {
			return nil, err
		}
		sel.Competition.Home = model.Committee(home)
		sel.Entry.Record.Traceurs = model.Traceurs{
			Manche1: model.Committee(m1),
			Manche2: model.Committee(m2),
			Manche3: model.Committee(m3),
			Manche4: model.Committee(m4),
		}
		parsed, err := time.Parse(time.RFC3339Nano, confirmedAt)
		if err != nil {
			return nil, err
		}
		sel.ConfirmedAt = parsed
		result = append(result, sel)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
