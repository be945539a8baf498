package library

import "errors"

// Domain failures are sentinel errors, never panics, so callers can turn
// each one into a distinct user-facing message with errors.Is.
var (
	ErrUnknownBook     = errors.New("book not in catalog")
	ErrUnknownUser     = errors.New("user not registered")
	ErrNoCopies        = errors.New("no copies available")
	ErrAlreadyBorrowed = errors.New("user already holds this book")
	ErrNotBorrowed     = errors.New("user does not hold this book")
	ErrNotEnoughCopies = errors.New("not enough copies to remove")
	ErrCopiesOnLoan    = errors.New("copies are currently on loan")
)
