package relay

import (
	"encoding/json"
	"time"
)

// EventKind is a notification the relay delivers to sessions.
type EventKind int

const (
	// EventChatMessage carries a chat message broadcast to a project room.
	EventChatMessage EventKind = iota
	// EventTaskChanged announces a task mutation to a project room.
	EventTaskChanged
	// EventNotification delivers a notification to a user room.
	EventNotification
	// EventError reports a protocol-level problem back to the session.
	EventError
)

// ChatMessage is a chat event scoped to a project room.
type ChatMessage struct {
	ProjectID  string
	SenderID   string
	SenderName string
	Text       string
	SentAt     time.Time
}

// TaskChanged announces that a task changed; Fields carries the updated
// task representation the emitting client supplied.
type TaskChanged struct {
	ProjectID string
	TaskID    string
	Fields    json.RawMessage
}

// NotificationPush delivers an ad-hoc notification payload to one user.
type NotificationPush struct {
	TargetUserID string
	Payload      json.RawMessage
}

// Event is sent to sessions to describe what happened. Exactly one of the
// payload pointers matching Kind is non-nil.
type Event struct {
	Kind         EventKind
	Chat         *ChatMessage
	Task         *TaskChanged
	Notification *NotificationPush
	Error        *Error
}
