package relay

// RoomKind discriminates the room namespace. Project rooms carry chat and
// task events; user rooms carry direct notification delivery. Keeping the
// namespaces disjoint guarantees a project id and a user id can never
// collide on the same room.
type RoomKind string

const (
	RoomProject RoomKind = "project"
	RoomUser    RoomKind = "user"
)

// RoomID identifies a fan-out target.
type RoomID struct {
	Kind RoomKind
	ID   string
}

// ProjectRoom returns the room id for a project's chat and task events.
func ProjectRoom(projectID string) RoomID {
	return RoomID{Kind: RoomProject, ID: projectID}
}

// UserRoom returns the room id for a user's notification delivery.
func UserRoom(userID string) RoomID {
	return RoomID{Kind: RoomUser, ID: userID}
}

func (r RoomID) String() string {
	return string(r.Kind) + ":" + r.ID
}

// room groups sessions subscribed to the same fan-out target. Rooms are
// derived state: one exists only while at least one session is joined.
type room struct {
	id       RoomID
	sessions map[*Session]struct{}
}

func newRoom(id RoomID) *room {
	return &room{
		id:       id,
		sessions: make(map[*Session]struct{}),
	}
}

// add inserts a session into the room. Returns true if newly added.
func (r *room) add(s *Session) bool {
	if _, exists := r.sessions[s]; exists {
		return false
	}
	r.sessions[s] = struct{}{}
	return true
}

// remove deletes a session from the room. Returns true if removed.
func (r *room) remove(s *Session) bool {
	if _, exists := r.sessions[s]; !exists {
		return false
	}
	delete(r.sessions, s)
	return true
}

// broadcast sends an event to all sessions in the room, the sender included.
func (r *room) broadcast(event *Event) {
	for s := range r.sessions {
		select {
		case s.Events <- event:
		default:
			// Drop if slow consumer.
		}
	}
}

// empty returns true if no sessions are in the room.
func (r *room) empty() bool {
	return len(r.sessions) == 0
}
