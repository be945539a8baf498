package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"library-bot/library"
)

const helpText = `Welcome to the library bot!

/register - register as a member
/search - find books by title, author or ISBN
/borrow - borrow a book by ISBN
/return - return a borrowed book
/mybooks - list the books you hold
/help - show this message`

// Handler turns chat commands and follow-up replies into catalog
// operations. It is transport-agnostic: the Telegram loop and the local
// terminal session both feed it one message at a time, so no locking is
// needed around the sessions map or the catalog.
type Handler struct {
	svc      library.Service
	logger   *slog.Logger
	sessions map[int64]*Session
}

// NewHandler wires a dispatcher to the given catalog service.
func NewHandler(svc library.Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		logger:   logger,
		sessions: make(map[int64]*Session),
	}
}

func (h *Handler) session(userID int64) *Session {
	s, ok := h.sessions[userID]
	if !ok {
		s = &Session{UserID: userID}
		h.sessions[userID] = s
	}
	return s
}

// HandleCommand processes a command (without the leading slash) and
// returns the reply text. Any command cancels a pending interaction.
func (h *Handler) HandleCommand(userID int64, cmd string) string {
	s := h.session(userID)
	s.Pending = PendingNone

	switch cmd {
	case "start", "help":
		return helpText
	case "register":
		s.Pending = AwaitingRegistration
		return "Send your name and contact, separated by a comma (e.g. Jane Doe, jane@example.com)."
	case "search":
		s.Pending = AwaitingSearchQuery
		return "What are you looking for? Send a title, author or ISBN."
	case "borrow":
		s.Pending = AwaitingBorrowISBN
		return "Send the ISBN of the book you want to borrow."
	case "return":
		s.Pending = AwaitingReturnISBN
		return "Send the ISBN of the book you want to return."
	case "mybooks":
		return h.myBooks(userID)
	default:
		return "Unknown command. Send /help to see what I can do."
	}
}

// HandleMessage processes a plain-text message according to the session's
// pending interaction.
func (h *Handler) HandleMessage(userID int64, text string) string {
	s := h.session(userID)
	pending := s.Pending
	s.Pending = PendingNone

	text = strings.TrimSpace(text)
	switch pending {
	case AwaitingRegistration:
		return h.register(s, text)
	case AwaitingSearchQuery:
		return h.search(text)
	case AwaitingBorrowISBN:
		return h.borrow(userID, text)
	case AwaitingReturnISBN:
		return h.returnBook(userID, text)
	default:
		return "Send /help to see the available commands."
	}
}

func (h *Handler) register(s *Session, text string) string {
	name, contact, ok := strings.Cut(text, ",")
	if !ok {
		// Stay in the registration step so the user can just retry.
		s.Pending = AwaitingRegistration
		return "Invalid format. Send your name and contact separated by a comma."
	}
	name = strings.TrimSpace(name)
	contact = strings.TrimSpace(contact)

	if err := h.svc.RegisterUser(s.UserID, name, contact); err != nil {
		h.logger.Error("register user", "user", s.UserID, "err", err)
		return "Something went wrong, please try again."
	}
	return fmt.Sprintf("You are registered, %s. Send /search to find a book.", name)
}

func (h *Handler) search(query string) string {
	books, err := h.svc.SearchBooks(query)
	if err != nil {
		h.logger.Error("search books", "query", query, "err", err)
		return "Something went wrong, please try again."
	}
	if len(books) == 0 {
		return fmt.Sprintf("No books found matching %q.", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d book(s):\n", len(books))
	for _, b := range books {
		fmt.Fprintf(&sb, "%s by %s (ISBN %s), %d of %d available\n",
			b.Title, b.Author, b.ISBN, b.Available(), b.Quantity)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (h *Handler) borrow(userID int64, isbn string) string {
	err := h.svc.BorrowBook(userID, isbn)
	switch {
	case err == nil:
		b, getErr := h.svc.GetBook(isbn)
		if getErr != nil {
			return "Enjoy your book!"
		}
		return fmt.Sprintf("You borrowed %q. Copies left: %d.", b.Title, b.Available())
	case errors.Is(err, library.ErrUnknownUser):
		return "You are not registered yet. Send /register first."
	case errors.Is(err, library.ErrUnknownBook):
		return fmt.Sprintf("No book with ISBN %s in the catalog.", isbn)
	case errors.Is(err, library.ErrNoCopies):
		return "All copies of that book are currently borrowed."
	case errors.Is(err, library.ErrAlreadyBorrowed):
		return "You already have that book. Return it before borrowing it again."
	default:
		h.logger.Error("borrow book", "user", userID, "isbn", isbn, "err", err)
		return "Something went wrong, please try again."
	}
}

func (h *Handler) returnBook(userID int64, isbn string) string {
	err := h.svc.ReturnBook(userID, isbn)
	switch {
	case err == nil:
		b, getErr := h.svc.GetBook(isbn)
		if getErr != nil {
			return "Thanks for returning the book!"
		}
		return fmt.Sprintf("You returned %q. Thanks!", b.Title)
	case errors.Is(err, library.ErrUnknownUser):
		return "You are not registered yet. Send /register first."
	case errors.Is(err, library.ErrUnknownBook):
		return fmt.Sprintf("No book with ISBN %s in the catalog.", isbn)
	case errors.Is(err, library.ErrNotBorrowed):
		return "You don't have that book on loan."
	default:
		h.logger.Error("return book", "user", userID, "isbn", isbn, "err", err)
		return "Something went wrong, please try again."
	}
}

func (h *Handler) myBooks(userID int64) string {
	books, err := h.svc.UserBooks(userID)
	if err != nil {
		h.logger.Error("list user books", "user", userID, "err", err)
		return "Something went wrong, please try again."
	}
	if len(books) == 0 {
		return "You have no borrowed books. Send /search to find one."
	}

	var sb strings.Builder
	sb.WriteString("Your books:\n")
	for _, b := range books {
		fmt.Fprintf(&sb, "%s by %s (ISBN %s)\n", b.Title, b.Author, b.ISBN)
	}
	return strings.TrimRight(sb.String(), "\n")
}
