package database

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) (*Database, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, dbPath
}

func TestNewDatabase(t *testing.T) {
	db, dbPath := newTestDB(t)

	if db.db == nil {
		t.Error("Expected database connection")
	}
	if db.cache == nil {
		t.Error("Expected cache map")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Expected database file to be created")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("No home directory: %v", err)
	}
	got, err := ExpandPath("~/.fotix/fotix.db")
	if err != nil {
		t.Fatalf("ExpandPath() error = %v", err)
	}
	if got != filepath.Join(home, ".fotix", "fotix.db") {
		t.Errorf("ExpandPath() = %s", got)
	}
	if got, _ := ExpandPath("/abs/path.db"); got != "/abs/path.db" {
		t.Errorf("Absolute path should be unchanged, got %s", got)
	}
}

func TestDatabase_HashCache(t *testing.T) {
	db, _ := newTestDB(t)
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	if _, ok := db.LookupHash("/a.txt", 10, stamp); ok {
		t.Error("Expected cache miss initially")
	}

	if err := db.StoreHash("/a.txt", 10, stamp, "00000000deadbeef"); err != nil {
		t.Fatalf("StoreHash() error = %v", err)
	}

	h, ok := db.LookupHash("/a.txt", 10, stamp)
	if !ok || h != "00000000deadbeef" {
		t.Errorf("Expected cached hash, got %q ok=%v", h, ok)
	}

	if _, ok := db.LookupHash("/a.txt", 11, stamp); ok {
		t.Error("Size change should invalidate cache")
	}
	if _, ok := db.LookupHash("/a.txt", 10, stamp.Add(time.Second)); ok {
		t.Error("Timestamp change should invalidate cache")
	}

	if err := db.StoreHash("/a.txt", 11, stamp, "0000000000000001"); err != nil {
		t.Fatalf("StoreHash() update error = %v", err)
	}
	if h, ok := db.LookupHash("/a.txt", 11, stamp); !ok || h != "0000000000000001" {
		t.Errorf("Expected updated hash, got %q ok=%v", h, ok)
	}
}

func TestDatabase_HashCachePersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	db1, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("First NewDatabase() error = %v", err)
	}
	if err := db1.StoreHash("/p.txt", 5, stamp, "abc"); err != nil {
		t.Fatalf("StoreHash() error = %v", err)
	}
	if err := db1.Close(); err != nil {
		t.Fatalf("First Close() error = %v", err)
	}

	db2, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("Second NewDatabase() error = %v", err)
	}
	defer db2.Close()

	if h, ok := db2.LookupHash("/p.txt", 5, stamp); !ok || h != "abc" {
		t.Errorf("Expected hash to persist across reopen, got %q ok=%v", h, ok)
	}
}

func TestDatabase_Sessions(t *testing.T) {
	db, _ := newTestDB(t)

	if _, err := db.CreateSession("s1", "trash", false); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := db.CreateSession("s2", "delete", true); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if _, err := db.CreateSession("s1", "trash", false); err == nil {
		t.Error("Expected error for duplicate session id")
	}

	if err := db.FinishSession("s1", 3, 4096); err != nil {
		t.Fatalf("FinishSession() error = %v", err)
	}

	s, err := db.GetSession("s1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if s.FinishedAt == nil || s.Removed != 3 || s.FreedSpace != 4096 {
		t.Errorf("Unexpected session state %+v", s)
	}

	sessions, err := db.Sessions()
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "s2" {
		t.Errorf("Expected newest session first, got %+v", sessions)
	}

	if _, err := db.GetSession("missing"); err == nil {
		t.Error("Expected error for missing session")
	}
}

func TestDatabase_Removals(t *testing.T) {
	db, _ := newTestDB(t)
	if _, err := db.CreateSession("s1", "trash", false); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		err := db.RecordRemoval(&Removal{
			SessionID:    "s1",
			Hash:         "h",
			OriginalPath: fmt.Sprintf("/src/file%d.txt", i),
			StoredPath:   fmt.Sprintf("/backup/s1/h/file%d.txt", i),
			KeptPath:     "/src/keep.txt",
			Size:         100,
		})
		if err != nil {
			t.Fatalf("RecordRemoval() error = %v", err)
		}
	}

	removals, err := db.Removals("s1")
	if err != nil {
		t.Fatalf("Removals() error = %v", err)
	}
	if len(removals) != 3 {
		t.Fatalf("Expected 3 removals, got %d", len(removals))
	}
	if removals[0].RemovedAt.IsZero() {
		t.Error("Expected RemovedAt to be filled")
	}

	if err := db.MarkRestored(removals[0].ID); err != nil {
		t.Fatalf("MarkRestored() error = %v", err)
	}
	removals, err = db.Removals("s1")
	if err != nil {
		t.Fatalf("Removals() error = %v", err)
	}
	if len(removals) != 2 {
		t.Errorf("Expected 2 pending removals after restore, got %d", len(removals))
	}

	if other, _ := db.Removals("other"); len(other) != 0 {
		t.Errorf("Expected no removals for unknown session, got %d", len(other))
	}
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	_ = db.Close()
}
