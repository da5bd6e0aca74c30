package relay

import (
	"context"

	"github.com/rs/zerolog"
)

// Options tunes relay behavior.
type Options struct {
	// MaxRoomsPerSession caps room memberships per session; 0 means the default.
	MaxRoomsPerSession int
}

// DefaultMaxRoomsPerSession bounds how many rooms one session may join.
const DefaultMaxRoomsPerSession = 100

type inbound struct {
	session *Session // nil for server-originated broadcasts
	cmd     *Command
}

// Relay owns the room membership table and fans events out to sessions.
// All mutation of shared state happens on the single Run loop, so joins,
// leaves, broadcasts and disconnects are serialized: per-room delivery order
// matches broadcast order.
type Relay struct {
	log      *zerolog.Logger
	maxRooms int

	register   chan *Session
	unregister chan *Session
	inbox      chan inbound

	// Loop-owned state.
	sessions map[*Session]struct{}
	rooms    map[RoomID]*room
}

// New creates a relay. Call Run before registering sessions.
func New(logger *zerolog.Logger, opts Options) *Relay {
	maxRooms := opts.MaxRoomsPerSession
	if maxRooms <= 0 {
		maxRooms = DefaultMaxRoomsPerSession
	}
	return &Relay{
		log:        logger,
		maxRooms:   maxRooms,
		register:   make(chan *Session),
		unregister: make(chan *Session),
		inbox:      make(chan inbound, 256),
		sessions:   make(map[*Session]struct{}),
		rooms:      make(map[RoomID]*room),
	}
}

// Run processes relay commands until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	for {
		select {
		case s := <-r.register:
			r.handleRegister(s)
		case s := <-r.unregister:
			r.handleUnregister(s)
		case in := <-r.inbox:
			r.handleCommand(in.session, in.cmd)
		case <-ctx.Done():
			for s := range r.sessions {
				r.handleUnregister(s)
			}
			return
		}
	}
}

// RegisterSession attaches a session to the relay and starts pumping its
// commands into the relay loop.
func (r *Relay) RegisterSession(s *Session) {
	r.register <- s

	go func() {
		for {
			select {
			case cmd, ok := <-s.Commands:
				if !ok {
					return
				}
				select {
				case r.inbox <- inbound{session: s, cmd: cmd}:
				case <-s.done:
					return
				}
			case <-s.done:
				return
			}
		}
	}()
}

// UnregisterSession removes the session from every room it joined and
// destroys it. Calling it again for the same session is a no-op.
func (r *Relay) UnregisterSession(s *Session) {
	select {
	case r.unregister <- s:
	case <-s.done:
		// Already unregistered.
	}
}

// Broadcast delivers an event to every session currently joined to roomID.
// A room with no members is a no-op. Delivery is best-effort: sessions that
// are mid-disconnect or slow may miss the event.
func (r *Relay) Broadcast(roomID RoomID, event *Event) {
	r.inbox <- inbound{cmd: &Command{Kind: CommandBroadcast, Room: roomID, Event: event}}
}

// SendChatMessage broadcasts a chat message to its project room.
func (r *Relay) SendChatMessage(msg ChatMessage) {
	r.Broadcast(ProjectRoom(msg.ProjectID), &Event{Kind: EventChatMessage, Chat: &msg})
}

// NotifyTaskChanged broadcasts a task change to its project room.
func (r *Relay) NotifyTaskChanged(tc TaskChanged) {
	r.Broadcast(ProjectRoom(tc.ProjectID), &Event{Kind: EventTaskChanged, Task: &tc})
}

// PushNotification delivers a notification to the target user's room.
func (r *Relay) PushNotification(np NotificationPush) {
	r.Broadcast(UserRoom(np.TargetUserID), &Event{Kind: EventNotification, Notification: &np})
}

func (r *Relay) handleRegister(s *Session) {
	if _, ok := r.sessions[s]; ok {
		return
	}
	r.sessions[s] = struct{}{}
	if r.log != nil {
		r.log.Debug().Str("session_id", s.ID).Str("user_id", s.UserID).Msg("session registered")
	}
}

func (r *Relay) handleUnregister(s *Session) {
	if _, ok := r.sessions[s]; !ok {
		return
	}
	delete(r.sessions, s)
	for id := range s.rooms {
		if rm, ok := r.rooms[id]; ok {
			rm.remove(s)
			if rm.empty() {
				delete(r.rooms, id)
			}
		}
	}
	s.rooms = make(map[RoomID]struct{})
	close(s.done)
	close(s.Events)
	if r.log != nil {
		r.log.Debug().Str("session_id", s.ID).Msg("session unregistered")
	}
}

func (r *Relay) handleCommand(s *Session, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinRoom:
		r.handleJoin(s, cmd.Room)
	case CommandLeaveRoom:
		r.handleLeave(s, cmd.Room)
	case CommandBroadcast:
		r.handleBroadcast(cmd.Room, cmd.Event)
	}
}

func (r *Relay) handleJoin(s *Session, id RoomID) {
	if s == nil {
		return
	}
	if _, ok := r.sessions[s]; !ok {
		return
	}
	if _, joined := s.rooms[id]; joined {
		// Joining a room twice is a no-op.
		return
	}
	if len(s.rooms) >= r.maxRooms {
		select {
		case s.Events <- errorEvent(ErrCodeRoomLimit, "room limit reached"):
		default:
		}
		return
	}

	rm, ok := r.rooms[id]
	if !ok {
		rm = newRoom(id)
		r.rooms[id] = rm
	}
	rm.add(s)
	s.rooms[id] = struct{}{}
	if r.log != nil {
		r.log.Debug().Str("session_id", s.ID).Str("room", id.String()).Msg("joined room")
	}
}

func (r *Relay) handleLeave(s *Session, id RoomID) {
	if s == nil {
		return
	}
	if _, joined := s.rooms[id]; !joined {
		// Leaving a room not joined is a no-op.
		return
	}
	delete(s.rooms, id)
	if rm, ok := r.rooms[id]; ok {
		rm.remove(s)
		if rm.empty() {
			delete(r.rooms, id)
		}
	}
	if r.log != nil {
		r.log.Debug().Str("session_id", s.ID).Str("room", id.String()).Msg("left room")
	}
}

func (r *Relay) handleBroadcast(id RoomID, event *Event) {
	if event == nil {
		return
	}
	rm, ok := r.rooms[id]
	if !ok {
		// No members, nothing to deliver.
		return
	}
	rm.broadcast(event)
}
