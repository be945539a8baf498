package bot

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"library-bot/library"
)

func newHandler(t *testing.T) *Handler {
	t.Helper()
	svc := library.NewCatalog()
	t.Cleanup(func() { svc.Close() })
	return NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// seedCatalog puts a small known catalog behind the handler.
func seedCatalog(h *Handler) {
	h.svc.AddBook("ISBN1", "Clean Code", "Robert C. Martin", 2)
	h.svc.AddBook("ISBN2", "The Go Programming Language", "Donovan and Kernighan", 1)
}

func TestHelpCommands(t *testing.T) {
	h := newHandler(t)
	for _, cmd := range []string{"start", "help"} {
		reply := h.HandleCommand(1, cmd)
		if !strings.Contains(reply, "/register") || !strings.Contains(reply, "/mybooks") {
			t.Fatalf("%s reply missing command list: %q", cmd, reply)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	h := newHandler(t)
	reply := h.HandleCommand(1, "frobnicate")
	if !strings.Contains(reply, "Unknown command") {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestMessageWithoutPendingInteraction(t *testing.T) {
	h := newHandler(t)
	reply := h.HandleMessage(1, "hello there")
	if !strings.Contains(reply, "/help") {
		t.Fatalf("expected help hint, got %q", reply)
	}
}

func TestRegistrationFlow(t *testing.T) {
	h := newHandler(t)

	reply := h.HandleCommand(7, "register")
	if !strings.Contains(reply, "comma") {
		t.Fatalf("expected registration prompt, got %q", reply)
	}

	reply = h.HandleMessage(7, "Jane Doe, jane@example.com")
	if !strings.Contains(reply, "registered") || !strings.Contains(reply, "Jane Doe") {
		t.Fatalf("unexpected confirmation: %q", reply)
	}

	u, err := h.svc.GetUser(7)
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if u.Name != "Jane Doe" || u.Contact != "jane@example.com" {
		t.Fatalf("bad user record: %+v", u)
	}
}

func TestRegistrationInvalidFormat(t *testing.T) {
	h := newHandler(t)

	h.HandleCommand(7, "register")
	reply := h.HandleMessage(7, "Jane Doe without a comma")
	if !strings.Contains(reply, "Invalid format") {
		t.Fatalf("expected invalid-format reply, got %q", reply)
	}

	// The session stays in the registration step, so a corrected reply
	// goes through without re-sending /register.
	reply = h.HandleMessage(7, "Jane Doe, jane@example.com")
	if !strings.Contains(reply, "registered") {
		t.Fatalf("retry after invalid format failed: %q", reply)
	}
}

func TestSearchFlow(t *testing.T) {
	h := newHandler(t)
	seedCatalog(h)

	h.HandleCommand(1, "search")
	reply := h.HandleMessage(1, "clean")
	if !strings.Contains(reply, "Clean Code") || strings.Contains(reply, "Go Programming") {
		t.Fatalf("unexpected search result: %q", reply)
	}

	h.HandleCommand(1, "search")
	reply = h.HandleMessage(1, "zzz")
	if !strings.Contains(reply, "No books found") {
		t.Fatalf("expected empty result message, got %q", reply)
	}
}

func TestBorrowFlow(t *testing.T) {
	h := newHandler(t)
	seedCatalog(h)

	// Borrowing before registering fails with a pointer to /register.
	h.HandleCommand(9, "borrow")
	reply := h.HandleMessage(9, "ISBN1")
	if !strings.Contains(reply, "/register") {
		t.Fatalf("expected registration hint, got %q", reply)
	}

	h.HandleCommand(9, "register")
	h.HandleMessage(9, "Jane, jane@example.com")

	h.HandleCommand(9, "borrow")
	reply = h.HandleMessage(9, "ISBN1")
	if !strings.Contains(reply, "Clean Code") || !strings.Contains(reply, "Copies left: 1") {
		t.Fatalf("unexpected borrow confirmation: %q", reply)
	}

	h.HandleCommand(9, "borrow")
	reply = h.HandleMessage(9, "ISBN1")
	if !strings.Contains(reply, "already have") {
		t.Fatalf("expected double-borrow rejection, got %q", reply)
	}

	h.HandleCommand(9, "borrow")
	reply = h.HandleMessage(9, "NOPE")
	if !strings.Contains(reply, "No book with ISBN") {
		t.Fatalf("expected unknown-book reply, got %q", reply)
	}
}

func TestBorrowExhaustedCopies(t *testing.T) {
	h := newHandler(t)
	seedCatalog(h)
	h.svc.RegisterUser(1, "Alice", "a@example.com")
	h.svc.RegisterUser(2, "Bob", "b@example.com")
	h.svc.BorrowBook(1, "ISBN2")

	h.HandleCommand(2, "borrow")
	reply := h.HandleMessage(2, "ISBN2")
	if !strings.Contains(reply, "currently borrowed") {
		t.Fatalf("expected no-copies reply, got %q", reply)
	}
}

func TestReturnFlow(t *testing.T) {
	h := newHandler(t)
	seedCatalog(h)
	h.svc.RegisterUser(1, "Alice", "a@example.com")
	h.svc.BorrowBook(1, "ISBN1")

	h.HandleCommand(1, "return")
	reply := h.HandleMessage(1, "ISBN1")
	if !strings.Contains(reply, "You returned") {
		t.Fatalf("unexpected return confirmation: %q", reply)
	}

	h.HandleCommand(1, "return")
	reply = h.HandleMessage(1, "ISBN1")
	if !strings.Contains(reply, "don't have that book") {
		t.Fatalf("expected not-borrowed reply, got %q", reply)
	}
}

func TestMyBooks(t *testing.T) {
	h := newHandler(t)
	seedCatalog(h)

	// Unregistered users just see an empty listing, never an error.
	reply := h.HandleCommand(5, "mybooks")
	if !strings.Contains(reply, "no borrowed books") {
		t.Fatalf("expected empty listing, got %q", reply)
	}

	h.svc.RegisterUser(5, "Alice", "a@example.com")
	h.svc.BorrowBook(5, "ISBN1")
	h.svc.BorrowBook(5, "ISBN2")

	reply = h.HandleCommand(5, "mybooks")
	if !strings.Contains(reply, "Clean Code") || !strings.Contains(reply, "Go Programming") {
		t.Fatalf("listing incomplete: %q", reply)
	}
}

func TestCommandCancelsPendingInteraction(t *testing.T) {
	h := newHandler(t)
	seedCatalog(h)

	h.HandleCommand(1, "borrow")
	h.HandleCommand(1, "help")
	reply := h.HandleMessage(1, "ISBN1")
	if !strings.Contains(reply, "/help") {
		t.Fatalf("pending borrow should have been cancelled, got %q", reply)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	h := newHandler(t)
	seedCatalog(h)
	h.svc.RegisterUser(1, "Alice", "a@example.com")

	h.HandleCommand(1, "borrow")
	h.HandleCommand(2, "search")

	// User 2's search reply must not consume user 1's pending borrow.
	reply := h.HandleMessage(2, "clean")
	if !strings.Contains(reply, "Clean Code") {
		t.Fatalf("search for user 2 failed: %q", reply)
	}
	reply = h.HandleMessage(1, "ISBN1")
	if !strings.Contains(reply, "You borrowed") {
		t.Fatalf("borrow for user 1 failed: %q", reply)
	}
}
