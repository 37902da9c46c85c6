package actor

import "sync"

// Kind is the tag of a mailbox message. Dispatch switches on the tag,
// keeping the set of message variants closed and exhaustively
// checkable.
type Kind uint8

const (
	// KindSafetyCheck requests a safety evaluation of a game session
	KindSafetyCheck Kind = iota

	// KindCustomWork carries an arbitrary payload for the handler
	KindCustomWork

	// KindShutdown is the terminal message; the loop drains the
	// mailbox up to and including it, then exits
	KindShutdown
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSafetyCheck:
		return "safety-check"
	case KindCustomWork:
		return "custom-work"
	case KindShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Message is one tagged mailbox entry. The mailbox owns it until it is
// dispatched.
type Message struct {
	// Kind selects the handler branch
	Kind Kind

	// Payload carries kind-specific data
	Payload any

	// latch, when non-nil, is fired exactly once after dispatch so a
	// SendAndAwait caller can unblock
	latch     chan struct{}
	latchOnce sync.Once
}

// NewMessage creates a fire-and-forget message.
func NewMessage(kind Kind, payload any) *Message {
	return &Message{Kind: kind, Payload: payload}
}

// fire releases the completion latch, if any.
func (m *Message) fire() {
	if m.latch == nil {
		return
	}
	m.latchOnce.Do(func() {
		close(m.latch)
	})
}
