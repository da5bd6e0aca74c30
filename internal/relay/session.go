package relay

// DefaultEventBuffer is the outbound channel size used when none is configured.
const DefaultEventBuffer = 16

// Session is one client's live link to the relay as seen by the core layer.
// UserID is empty for anonymous sessions; the relay accepts them unless the
// transport enforces authentication.
type Session struct {
	ID       string
	UserID   string
	UserName string
	Commands chan *Command
	Events   chan *Event

	// rooms is owned by the relay loop; nothing else may touch it.
	rooms map[RoomID]struct{}
	// done is closed by the relay when the session is unregistered.
	done chan struct{}
}

// NewSession constructs a session with initialized channels.
func NewSession(id, userID, userName string, eventBuffer int) *Session {
	if eventBuffer <= 0 {
		eventBuffer = DefaultEventBuffer
	}
	return &Session{
		ID:       id,
		UserID:   userID,
		UserName: userName,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, eventBuffer),
		rooms:    make(map[RoomID]struct{}),
		done:     make(chan struct{}),
	}
}
