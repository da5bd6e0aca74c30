package relay

// CommandKind describes what a session wants to do.
type CommandKind int

const (
	// CommandJoinRoom subscribes the session to a room.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom unsubscribes the session from a room.
	CommandLeaveRoom
	// CommandBroadcast fans an event out to a room's current members.
	CommandBroadcast
)

// Command represents an action requested by a session.
type Command struct {
	Kind  CommandKind
	Room  RoomID
	Event *Event
}
