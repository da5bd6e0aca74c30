package proto

import "encoding/json"

// Inbound is the envelope for frames coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoinProject      = "join-project"
	InboundTypeLeaveProject     = "leave-project"
	InboundTypeSendMessage      = "send-message"
	InboundTypeTaskUpdated      = "task-updated"
	InboundTypeSendNotification = "send-notification"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNewMessage      = "new-message"
	EventTaskChanged     = "task-changed"
	EventNewNotification = "new-notification"
)

// JoinProjectData subscribes the session to a project room.
type JoinProjectData struct {
	ProjectID string `json:"projectId"`
}

// SendMessageData is a chat message from the client. The sender block is
// whatever the client claims about itself; the relay forwards it unchanged.
type SendMessageData struct {
	ProjectID string      `json:"projectId"`
	User      MessageUser `json:"user"`
	Message   string      `json:"message"`
	Timestamp int64       `json:"timestamp,omitempty"`
}

// MessageUser identifies the chat sender.
type MessageUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TaskUpdatedData announces a task mutation. Fields beyond the ids are
// forwarded as-is to room members.
type TaskUpdatedData struct {
	ProjectID string          `json:"projectId"`
	TaskID    string          `json:"taskId"`
	Task      json.RawMessage `json:"task,omitempty"`
}

// SendNotificationData targets one user's notification room.
type SendNotificationData struct {
	UserID       string          `json:"userId"`
	Notification json.RawMessage `json:"notification,omitempty"`
}

// Outbound is the envelope for frames sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// NewMessageEvent echoes a chat message to every room member.
type NewMessageEvent struct {
	ProjectID string      `json:"projectId"`
	User      MessageUser `json:"user"`
	Message   string      `json:"message"`
	Timestamp int64       `json:"timestamp"`
}

// TaskChangedEvent echoes a task mutation to every room member.
type TaskChangedEvent struct {
	ProjectID string          `json:"projectId"`
	TaskID    string          `json:"taskId"`
	Task      json.RawMessage `json:"task,omitempty"`
}

// NewNotificationEvent delivers a notification payload to one user's room.
type NewNotificationEvent struct {
	UserID       string          `json:"userId"`
	Notification json.RawMessage `json:"notification,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
