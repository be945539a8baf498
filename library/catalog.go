package library

import "strings"

// Catalog is the in-memory Service implementation. It owns both mappings
// exclusively: all mutation of Book and User state goes through its
// methods. State lives for the lifetime of the process.
type Catalog struct {
	books map[string]*Book
	users map[int64]*User
	order []string // ISBNs in insertion order; map iteration is randomized
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		books: make(map[string]*Book),
		users: make(map[int64]*User),
	}
}

func (c *Catalog) AddBook(isbn, title, author string, qty int) error {
	if b, ok := c.books[isbn]; ok {
		b.Quantity += qty
		return nil
	}
	c.books[isbn] = &Book{
		ISBN:      isbn,
		Title:     title,
		Author:    author,
		Quantity:  qty,
		Borrowers: make(map[int64]bool),
	}
	c.order = append(c.order, isbn)
	return nil
}

func (c *Catalog) RemoveBook(isbn string, qty int) error {
	b, ok := c.books[isbn]
	if !ok {
		return ErrUnknownBook
	}
	if qty > b.Quantity {
		return ErrNotEnoughCopies
	}
	if b.Quantity-qty < len(b.Borrowers) {
		return ErrCopiesOnLoan
	}
	b.Quantity -= qty
	if b.Quantity == 0 {
		delete(c.books, isbn)
		for i, id := range c.order {
			if id == isbn {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (c *Catalog) RegisterUser(id int64, name, contact string) error {
	if u, ok := c.users[id]; ok {
		u.Name = name
		u.Contact = contact
		return nil
	}
	c.users[id] = &User{ID: id, Name: name, Contact: contact}
	return nil
}

func (c *Catalog) BorrowBook(userID int64, isbn string) error {
	u, ok := c.users[userID]
	if !ok {
		return ErrUnknownUser
	}
	b, ok := c.books[isbn]
	if !ok {
		return ErrUnknownBook
	}
	if b.Borrowers[userID] {
		return ErrAlreadyBorrowed
	}
	if b.Available() == 0 {
		return ErrNoCopies
	}
	b.Borrowers[userID] = true
	u.Borrowed = append(u.Borrowed, isbn)
	return nil
}

func (c *Catalog) ReturnBook(userID int64, isbn string) error {
	u, ok := c.users[userID]
	if !ok {
		return ErrUnknownUser
	}
	b, ok := c.books[isbn]
	if !ok {
		return ErrUnknownBook
	}
	if !b.Borrowers[userID] {
		return ErrNotBorrowed
	}
	delete(b.Borrowers, userID)
	for i, held := range u.Borrowed {
		if held == isbn {
			u.Borrowed = append(u.Borrowed[:i], u.Borrowed[i+1:]...)
			break
		}
	}
	return nil
}

func (c *Catalog) SearchBooks(query string) ([]*Book, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	results := []*Book{}
	if q == "" {
		return results, nil
	}
	for _, isbn := range c.order {
		b := c.books[isbn]
		if strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Author), q) ||
			strings.Contains(strings.ToLower(b.ISBN), q) {
			results = append(results, cloneBook(b))
		}
	}
	return results, nil
}

// UserBooks skips any borrowed ISBN that is no longer in the catalog
// rather than failing; the remove policy should make that impossible, but
// stale references must never break a listing.
func (c *Catalog) UserBooks(userID int64) ([]*Book, error) {
	books := []*Book{}
	u, ok := c.users[userID]
	if !ok {
		return books, nil
	}
	for _, isbn := range u.Borrowed {
		if b, ok := c.books[isbn]; ok {
			books = append(books, cloneBook(b))
		}
	}
	return books, nil
}

func (c *Catalog) GetBook(isbn string) (*Book, error) {
	b, ok := c.books[isbn]
	if !ok {
		return nil, ErrUnknownBook
	}
	return cloneBook(b), nil
}

func (c *Catalog) GetUser(id int64) (*User, error) {
	u, ok := c.users[id]
	if !ok {
		return nil, ErrUnknownUser
	}
	cp := *u
	cp.Borrowed = append([]string(nil), u.Borrowed...)
	return &cp, nil
}

func (c *Catalog) ListBooks() ([]*Book, error) {
	books := make([]*Book, 0, len(c.order))
	for _, isbn := range c.order {
		books = append(books, cloneBook(c.books[isbn]))
	}
	return books, nil
}

func (c *Catalog) Close() error { return nil }

// cloneBook hands out a copy so callers cannot reach into the catalog's
// own state.
func cloneBook(b *Book) *Book {
	cp := *b
	cp.Borrowers = make(map[int64]bool, len(b.Borrowers))
	for id := range b.Borrowers {
		cp.Borrowers[id] = true
	}
	return &cp
}
