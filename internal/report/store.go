package report

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNoRuns is returned by Latest when the store is empty.
	ErrNoRuns = errors.New("no runs recorded")

	// ErrRunNotFound is returned by Load for an unknown run ID.
	ErrRunNotFound = errors.New("run not found")
)

// Store persists reports in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the report database at dbPath.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes a report in a single transaction. Saving the same run ID again
// replaces the earlier copy.
func (s *Store) Save(rep *Report) error {
	if rep.RunID == "" {
		return fmt.Errorf("report has no run ID")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	deletes := []sq.DeleteBuilder{
		sq.Delete("declarations").Where("entry_id IN (SELECT id FROM entries WHERE run_id = ?)", rep.RunID),
		sq.Delete("entries").Where(sq.Eq{"run_id": rep.RunID}),
		sq.Delete("runs").Where(sq.Eq{"id": rep.RunID}),
	}
	for _, del := range deletes {
		if _, err := del.RunWith(tx).Exec(); err != nil {
			return fmt.Errorf("failed to clear run %s: %w", rep.RunID, err)
		}
	}

	generated, skipped, errored := rep.Counts()
	_, err = sq.Insert("runs").
		Columns("id", "root", "started_at", "duration_ms", "generated", "skipped", "errored").
		Values(
			rep.RunID,
			rep.Root,
			rep.StartedAt.UTC().Format(time.RFC3339Nano),
			rep.Duration.Milliseconds(),
			generated,
			skipped,
			errored,
		).
		RunWith(tx).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", rep.RunID, err)
	}

	for i, e := range rep.Entries {
		res, err := sq.Insert("entries").
			Columns("run_id", "position", "type", "file", "status", "reason", "artifact").
			Values(rep.RunID, i, e.Type, e.File, string(e.Status), e.Reason, e.Artifact).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", e.File, err)
		}

		entryID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get entry id for %s: %w", e.File, err)
		}

		if len(e.Decls) == 0 {
			continue
		}
		insert := sq.Insert("declarations").Columns("entry_id", "position", "kind", "name", "line", "detail")
		for j, d := range e.Decls {
			insert = insert.Values(entryID, j, string(d.Kind), d.Name, d.Line, d.Detail)
		}
		if _, err := insert.RunWith(tx).Exec(); err != nil {
			return fmt.Errorf("failed to insert declarations for %s: %w", e.File, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	return nil
}

// Latest loads the most recently started run.
func (s *Store) Latest() (*Report, error) {
	var runID string
	err := sq.Select("id").
		From("runs").
		OrderBy("started_at DESC", "rowid DESC").
		Limit(1).
		RunWith(s.db).
		QueryRow().
		Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	return s.Load(runID)
}

// Load loads one run with all of its entries.
func (s *Store) Load(runID string) (*Report, error) {
	rep := &Report{RunID: runID}

	var startedAt string
	var durationMS int64
	err := sq.Select("root", "started_at", "duration_ms").
		From("runs").
		Where(sq.Eq{"id": runID}).
		RunWith(s.db).
		QueryRow().
		Scan(&rep.Root, &startedAt, &durationMS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", runID, err)
	}

	if rep.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("invalid start time for run %s: %w", runID, err)
	}
	rep.Duration = time.Duration(durationMS) * time.Millisecond

	ids, err := s.loadEntries(rep)
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		decls, err := s.loadDecls(id)
		if err != nil {
			return nil, err
		}
		rep.Entries[i].Decls = decls
	}
	return rep, nil
}

func (s *Store) loadEntries(rep *Report) ([]int64, error) {
	rows, err := sq.Select("id", "type", "file", "status", "reason", "artifact").
		From("entries").
		Where(sq.Eq{"run_id": rep.RunID}).
		OrderBy("position").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for run %s: %w", rep.RunID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		var e Entry
		var status string
		if err := rows.Scan(&id, &e.Type, &e.File, &status, &e.Reason, &e.Artifact); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Status = Status(status)
		ids = append(ids, id)
		rep.Entries = append(rep.Entries, e)
	}
	return ids, rows.Err()
}

func (s *Store) loadDecls(entryID int64) ([]Decl, error) {
	rows, err := sq.Select("kind", "name", "line", "detail").
		From("declarations").
		Where(sq.Eq{"entry_id": entryID}).
		OrderBy("position").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query declarations: %w", err)
	}
	defer rows.Close()

	var decls []Decl
	for rows.Next() {
		var d Decl
		var kind string
		if err := rows.Scan(&kind, &d.Name, &d.Line, &d.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan declaration: %w", err)
		}
		d.Kind = DeclKind(kind)
		decls = append(decls, d)
	}
	return decls, rows.Err()
}

// RunInfo is one row of the run listing.
type RunInfo struct {
	ID        string
	StartedAt time.Time
	Generated int
	Skipped   int
	Errored   int
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs() ([]RunInfo, error) {
	rows, err := sq.Select("id", "started_at", "generated", "skipped", "errored").
		From("runs").
		OrderBy("started_at DESC", "rowid DESC").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		var startedAt string
		if err := rows.Scan(&r.ID, &startedAt, &r.Generated, &r.Skipped, &r.Errored); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("invalid start time for run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
