package history

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestStore creates a new SQLite database and a Store for testing.
func setupTestStore(t *testing.T) *Store {
	dbFile := filepath.Join(t.TempDir(), "history.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}
	// Calling it twice must be harmless.
	if err := SetupSchema(db); err != nil {
		t.Fatalf("second SetupSchema() failed: %v", err)
	}

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	outputs := []string{"Hi there juanita", "Mary hi there juanita", "There mary hi there juanita"}
	ids := make([]int64, 0, len(outputs))
	for _, out := range outputs {
		run, err := s.Record(ctx, Run{Source: "juanita.txt", SeedFirst: "hi", SeedSecond: "there", WordCount: 3, Output: out})
		if err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
		if run.ID == 0 || (len(ids) > 0 && run.ID <= ids[len(ids)-1]) {
			t.Errorf("expected increasing non-zero run IDs, got %d after %v", run.ID, ids)
		}
		ids = append(ids, run.ID)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 runs, got %d", count)
	}

	runs, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Output != outputs[2] || runs[1].Output != outputs[1] {
		t.Errorf("runs not newest first: %q, %q", runs[0].Output, runs[1].Output)
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("stored IDs %d, %d do not match recorded IDs %v", runs[0].ID, runs[1].ID, ids)
	}
	if !runs[0].CreatedAt.Equal(base.Add(3 * time.Minute)) {
		t.Errorf("unexpected created_at %v", runs[0].CreatedAt)
	}
	if runs[0].Source != "juanita.txt" || runs[0].SeedFirst != "hi" || runs[0].SeedSecond != "there" {
		t.Errorf("unexpected run fields: %+v", runs[0])
	}
}

func TestRecordClosedStore(t *testing.T) {
	s := setupTestStore(t)
	s.Close()
	run, err := s.Record(context.Background(), Run{Source: "closed.txt", Output: "Hi there"})
	if err == nil {
		t.Fatal("expected an error recording into a closed store")
	}
	if run.ID != 0 {
		t.Errorf("expected a zero Run on failure, got %+v", run)
	}
}

func TestRecentEmpty(t *testing.T) {
	s := setupTestStore(t)
	runs, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
	if runs, _ = s.Recent(context.Background(), 0); runs == nil || len(runs) != 0 {
		t.Error("a zero limit should return an empty, non-nil slice")
	}
}
