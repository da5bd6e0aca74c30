package relay

// Error codes for protocol-level errors. The relay never fails an operation
// over valid inputs; these only describe malformed or over-limit requests.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeInvalidPayload = "invalid_payload"
	ErrCodeRoomLimit      = "room_limit"
)

// Error wraps a code and human-readable message sent back to one session.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func errorEvent(code, msg string) *Event {
	return &Event{Kind: EventError, Error: &Error{Code: code, Message: msg}}
}
