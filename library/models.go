package library

// Book is the catalog record for one edition, keyed by ISBN.
// Quantity counts every copy the library owns; Borrowers holds the users
// currently holding one, so len(Borrowers) never exceeds Quantity.
type Book struct {
	ISBN      string         `json:"isbn"`
	Title     string         `json:"title"`
	Author    string         `json:"author"`
	Quantity  int            `json:"quantity"`
	Borrowers map[int64]bool `json:"borrowers"`
}

// Available reports how many copies are on the shelf right now.
func (b *Book) Available() int { return b.Quantity - len(b.Borrowers) }

// User represents a registered member, keyed by their chat platform identity.
type User struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Contact  string   `json:"contact"`
	Borrowed []string `json:"borrowed"` // ISBNs in borrow order, no duplicates
}
