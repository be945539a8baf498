package library

import (
	"path/filepath"
	"testing"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestFileDatabaseCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "nested", "catalog.db"))
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	db.Close()
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.db")

	db, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := db.AddBook("ISBN1", "Clean Code", "Robert C. Martin", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	db.Close()

	// Reopening must not re-run the schema or lose rows.
	db, err = NewDatabase(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer db.Close()
	b, err := db.GetBook("ISBN1")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if b.Title != "Clean Code" {
		t.Fatalf("unexpected title %q", b.Title)
	}
}

func TestSearchWildcardCharactersAreLiteral(t *testing.T) {
	db := tempDB(t)
	db.AddBook("ISBN1", "100% Go", "Gopher", 1)
	db.AddBook("ISBN2", "Plain Title", "Author", 1)

	// A literal % in the query must not act as a wildcard.
	res, err := db.SearchBooks("100%")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 1 || res[0].ISBN != "ISBN1" {
		t.Fatalf("want only ISBN1, got %d results", len(res))
	}

	res, _ = db.SearchBooks("%")
	if len(res) != 1 {
		t.Fatalf("bare %% should match only the literal occurrence, got %d", len(res))
	}
}

func TestBorrowerSetIsLoaded(t *testing.T) {
	db := tempDB(t)
	db.AddBook("ISBN1", "Clean Code", "Robert C. Martin", 2)
	db.RegisterUser(1, "Alice", "alice@example.com")
	db.RegisterUser(2, "Bob", "bob@example.com")
	db.BorrowBook(1, "ISBN1")
	db.BorrowBook(2, "ISBN1")

	b, err := db.GetBook("ISBN1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(b.Borrowers) != 2 || !b.Borrowers[1] || !b.Borrowers[2] {
		t.Fatalf("borrower set incomplete: %v", b.Borrowers)
	}
	if b.Available() != 0 {
		t.Fatalf("want 0 available, got %d", b.Available())
	}
}
