// Package history records generation runs in a SQLite database. It stores
// the generated text and where it came from; chains themselves are never
// persisted.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"
)

const schemaRuns = `
CREATE TABLE IF NOT EXISTS generation_runs (
    run_id      INTEGER PRIMARY KEY,
    source      TEXT NOT NULL,
    seed_first  TEXT NOT NULL,
    seed_second TEXT NOT NULL,
    word_count  INTEGER NOT NULL,
    output      TEXT NOT NULL,
    created_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_generation_runs_created ON generation_runs (created_at);
`

// Run is one recorded generation.
type Run struct {
	ID         int64     `json:"id"`
	Source     string    `json:"source"`
	SeedFirst  string    `json:"seed_first"`
	SeedSecond string    `json:"seed_second"`
	WordCount  int       `json:"word_count"`
	Output     string    `json:"output"`
	CreatedAt  time.Time `json:"created_at"`
}

// SetupSchema creates the history tables. It is idempotent.
func SetupSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaRuns); err != nil {
		return fmt.Errorf("could not create history schema: %w", err)
	}
	return nil
}

// Store holds prepared statements for reading and writing runs.
type Store struct {
	db         *sql.DB
	stmtInsert *sql.Stmt
	stmtRecent *sql.Stmt
	stmtCount  *sql.Stmt
	logger     *slog.Logger
	now        func() time.Time
}

// NewStore prepares all statements against db. SetupSchema must have been
// called on db first.
func NewStore(db *sql.DB) (*Store, error) {
	stmtInsert, err := db.Prepare(`INSERT INTO generation_runs (source, seed_first, seed_second, word_count, output, created_at) VALUES (?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return nil, err
	}

	stmtRecent, err := db.Prepare(`SELECT run_id, source, seed_first, seed_second, word_count, output, created_at FROM generation_runs ORDER BY created_at DESC, run_id DESC LIMIT ?;`)
	if err != nil {
		_ = stmtInsert.Close()
		return nil, err
	}

	stmtCount, err := db.Prepare(`SELECT COUNT(*) FROM generation_runs;`)
	if err != nil {
		_ = stmtInsert.Close()
		_ = stmtRecent.Close()
		return nil, err
	}

	return &Store{
		db:         db,
		stmtInsert: stmtInsert,
		stmtRecent: stmtRecent,
		stmtCount:  stmtCount,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
	}, nil
}

// Close releases the prepared statements. The database is left open.
func (s *Store) Close() {
	_ = s.stmtInsert.Close()
	_ = s.stmtRecent.Close()
	_ = s.stmtCount.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Record stores run and returns it with ID and CreatedAt filled in. A zero
// CreatedAt is set to the current time.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now().UTC()
	}
	res, err := s.stmtInsert.ExecContext(ctx, run.Source, run.SeedFirst, run.SeedSecond, run.WordCount, run.Output, run.CreatedAt)
	if err != nil {
		return Run{}, fmt.Errorf("could not record run for %q: %w", run.Source, err)
	}
	if run.ID, err = res.LastInsertId(); err != nil {
		return Run{}, fmt.Errorf("could not read id of run for %q: %w", run.Source, err)
	}

	s.logger.DebugContext(ctx, "Generation run recorded",
		slog.Int64("run_id", run.ID),
		slog.String("source", run.Source),
		slog.Int("word_count", run.WordCount),
	)
	return run, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		return []Run{}, nil
	}
	rows, err := s.stmtRecent.QueryContext(ctx, limit)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	runs := make([]Run, 0, limit)
	for rows.Next() {
		var run Run
		if err = rows.Scan(&run.ID, &run.Source, &run.SeedFirst, &run.SeedSecond, &run.WordCount, &run.Output, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// Count returns the number of recorded runs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.stmtCount.QueryRowContext(ctx).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
