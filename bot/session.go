package bot

// Pending identifies which follow-up reply a user's session is waiting
// for. Commands that need more input park the session in one of these
// states and the next plain message advances it, replacing the dynamic
// one-shot reply handlers of older designs.
type Pending int

const (
	PendingNone Pending = iota
	AwaitingRegistration
	AwaitingSearchQuery
	AwaitingBorrowISBN
	AwaitingReturnISBN
)

// Session is the per-user conversation state.
type Session struct {
	UserID  int64
	Pending Pending
}
