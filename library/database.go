package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Database is the sqlite3-backed Service implementation. Opened with the
// ":memory:" path it behaves exactly like Catalog (state is gone when the
// process exits); opened with a file path it doubles as a durable store
// for tooling.
type Database struct {
	db *sql.DB

	addBookStmt      *sql.Stmt
	registerUserStmt *sql.Stmt
}

// NewDatabase opens (or creates) the sqlite database at path, applies
// schema migrations, and prepares common statements. Pass ":memory:" for
// a process-lifetime store.
func NewDatabase(path string) (*Database, error) {
	var dsn string
	if path == ":memory:" {
		dsn = "file::memory:?_busy_timeout=5000&_foreign_keys=1"
	} else {
		// Ensure directory exists so first-run succeeds.
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Each pooled connection to a :memory: DSN gets its own database, so
	// the pool must stay at a single connection.
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.addBookStmt != nil {
		d.addBookStmt.Close()
	}
	if d.registerUserStmt != nil {
		d.registerUserStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            isbn TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            quantity INTEGER NOT NULL CHECK (quantity >= 0)
        );`,
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            contact TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS loans (
            isbn TEXT NOT NULL REFERENCES books(isbn),
            user_id INTEGER NOT NULL REFERENCES users(id),
            loan_time DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (isbn, user_id)
        );`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, schemaVersion); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	// Duplicate ISBN merges quantity; existing metadata wins.
	if d.addBookStmt, err = d.db.Prepare(`INSERT INTO books(isbn,title,author,quantity) VALUES(?,?,?,?)
        ON CONFLICT(isbn) DO UPDATE SET quantity = quantity + excluded.quantity`); err != nil {
		return err
	}
	// Re-registration updates name/contact only; loans are untouched.
	if d.registerUserStmt, err = d.db.Prepare(`INSERT INTO users(id,name,contact) VALUES(?,?,?)
        ON CONFLICT(id) DO UPDATE SET name=excluded.name, contact=excluded.contact`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Service operations
// ---------------------------------------------------------------------------

func (d *Database) AddBook(isbn, title, author string, qty int) error {
	_, err := d.addBookStmt.Exec(isbn, title, author, qty)
	return err
}

func (d *Database) RegisterUser(id int64, name, contact string) error {
	_, err := d.registerUserStmt.Exec(id, name, contact)
	return err
}

// RemoveBook decrements quantity inside one transaction and deletes the
// row when it reaches zero. Removal never touches copies that are on
// loan: the remaining quantity must still cover the borrower count.
func (d *Database) RemoveBook(isbn string, qty int) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var quantity int
	err = tx.QueryRow(`SELECT quantity FROM books WHERE isbn=?`, isbn).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUnknownBook
	}
	if err != nil {
		return err
	}
	if qty > quantity {
		return ErrNotEnoughCopies
	}

	var onLoan int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM loans WHERE isbn=?`, isbn).Scan(&onLoan); err != nil {
		return err
	}
	if quantity-qty < onLoan {
		return ErrCopiesOnLoan
	}

	if quantity == qty {
		if _, err := tx.Exec(`DELETE FROM books WHERE isbn=?`, isbn); err != nil {
			return err
		}
	} else {
		if _, err := tx.Exec(`UPDATE books SET quantity=quantity-? WHERE isbn=?`, qty, isbn); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// BorrowBook records the loan and validates availability in one
// transaction.
func (d *Database) BorrowBook(userID int64, isbn string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE id=?)`, userID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrUnknownUser
	}

	var quantity int
	err = tx.QueryRow(`SELECT quantity FROM books WHERE isbn=?`, isbn).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUnknownBook
	}
	if err != nil {
		return err
	}

	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM loans WHERE isbn=? AND user_id=?)`, isbn, userID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrAlreadyBorrowed
	}

	var onLoan int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM loans WHERE isbn=?`, isbn).Scan(&onLoan); err != nil {
		return err
	}
	if onLoan >= quantity {
		return ErrNoCopies
	}

	if _, err := tx.Exec(`INSERT INTO loans(isbn,user_id) VALUES(?,?)`, isbn, userID); err != nil {
		return err
	}
	return tx.Commit()
}

// ReturnBook removes the loan row in one transaction.
func (d *Database) ReturnBook(userID int64, isbn string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE id=?)`, userID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrUnknownUser
	}
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM books WHERE isbn=?)`, isbn).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrUnknownBook
	}

	res, err := tx.Exec(`DELETE FROM loans WHERE isbn=? AND user_id=?`, isbn, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotBorrowed
	}
	return tx.Commit()
}

// SearchBooks matches the query case-insensitively as a substring of
// title, author or ISBN. instr avoids the LIKE wildcard escaping problem
// for queries containing % or _.
func (d *Database) SearchBooks(query string) ([]*Book, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []*Book{}, nil
	}
	rows, err := d.db.Query(`
        SELECT isbn, title, author, quantity FROM books
        WHERE instr(lower(title), ?) > 0
           OR instr(lower(author), ?) > 0
           OR instr(lower(isbn), ?) > 0
        ORDER BY rowid`, q, q, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return d.collectBooks(rows)
}

// UserBooks joins through the loans table, so an ISBN missing from books
// simply drops out of the result. Unknown users get an empty list.
func (d *Database) UserBooks(userID int64) ([]*Book, error) {
	rows, err := d.db.Query(`
        SELECT b.isbn, b.title, b.author, b.quantity
        FROM loans l JOIN books b ON b.isbn = l.isbn
        WHERE l.user_id = ?
        ORDER BY l.rowid`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return d.collectBooks(rows)
}

func (d *Database) GetBook(isbn string) (*Book, error) {
	var b Book
	err := d.db.QueryRow(`SELECT isbn, title, author, quantity FROM books WHERE isbn=?`, isbn).
		Scan(&b.ISBN, &b.Title, &b.Author, &b.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownBook
	}
	if err != nil {
		return nil, err
	}
	if err := d.loadBorrowers(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (d *Database) GetUser(id int64) (*User, error) {
	var u User
	err := d.db.QueryRow(`SELECT id, name, contact FROM users WHERE id=?`, id).
		Scan(&u.ID, &u.Name, &u.Contact)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, err
	}
	rows, err := d.db.Query(`SELECT isbn FROM loans WHERE user_id=? ORDER BY rowid`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var isbn string
		if err := rows.Scan(&isbn); err != nil {
			return nil, err
		}
		u.Borrowed = append(u.Borrowed, isbn)
	}
	return &u, rows.Err()
}

func (d *Database) ListBooks() ([]*Book, error) {
	rows, err := d.db.Query(`SELECT isbn, title, author, quantity FROM books ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return d.collectBooks(rows)
}

func (d *Database) collectBooks(rows *sql.Rows) ([]*Book, error) {
	books := []*Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ISBN, &b.Title, &b.Author, &b.Quantity); err != nil {
			return nil, err
		}
		books = append(books, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, b := range books {
		if err := d.loadBorrowers(b); err != nil {
			return nil, err
		}
	}
	return books, nil
}

func (d *Database) loadBorrowers(b *Book) error {
	rows, err := d.db.Query(`SELECT user_id FROM loans WHERE isbn=?`, b.ISBN)
	if err != nil {
		return err
	}
	defer rows.Close()
	b.Borrowers = make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		b.Borrowers[id] = true
	}
	return rows.Err()
}
