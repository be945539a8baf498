package library

// Service is the catalog contract shared by the in-memory Catalog and the
// sqlite-backed Database. The chat layer only ever talks to this
// interface, so the two stores are interchangeable at startup.
//
// Implementations are not safe for concurrent use on their own; the
// dispatcher serializes one chat interaction at a time.
type Service interface {
	// AddBook inserts a new record, or merges the incoming quantity into
	// an existing record with the same ISBN. Metadata of an existing
	// record is left untouched even when the incoming title/author differ.
	AddBook(isbn, title, author string, qty int) error

	// RemoveBook takes qty copies out of the catalog. It fails when the
	// ISBN is unknown, qty exceeds the current quantity, or the removal
	// would leave fewer copies than there are current borrowers. Reaching
	// quantity zero deletes the record.
	RemoveBook(isbn string, qty int) error

	// RegisterUser creates the user, or updates name and contact of an
	// existing one. Borrowed state survives re-registration.
	RegisterUser(id int64, name, contact string) error

	// BorrowBook lends one copy to the user, updating both sides of the
	// loan relation together.
	BorrowBook(userID int64, isbn string) error

	// ReturnBook gives one copy back, removing both sides of the loan
	// relation together.
	ReturnBook(userID int64, isbn string) error

	// SearchBooks matches the query case-insensitively as a substring of
	// title, author or ISBN. Results come back in catalog insertion
	// order. An empty query matches nothing.
	SearchBooks(query string) ([]*Book, error)

	// UserBooks lists the books the user currently holds, in borrow
	// order. An unknown user yields an empty list, not an error.
	UserBooks(userID int64) ([]*Book, error)

	GetBook(isbn string) (*Book, error)
	GetUser(id int64) (*User, error)
	ListBooks() ([]*Book, error)

	Close() error
}
