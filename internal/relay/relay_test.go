package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func startRelay(t *testing.T) *Relay {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := New(nil, Options{})
	go r.Run(ctx)
	return r
}

func TestJoinBroadcastLeave(t *testing.T) {
	r := startRelay(t)

	a := NewSession("a", "user-a", "alice", 0)
	b := NewSession("b", "user-b", "bob", 0)
	r.RegisterSession(a)
	r.RegisterSession(b)

	a.Commands <- &Command{Kind: CommandJoinRoom, Room: ProjectRoom("proj-1")}
	b.Commands <- &Command{Kind: CommandJoinRoom, Room: ProjectRoom("proj-1")}

	r.SendChatMessage(ChatMessage{ProjectID: "proj-1", SenderID: "user-a", SenderName: "alice", Text: "hi", SentAt: time.Now()})

	// Both members receive the message, the sender included.
	for _, s := range []*Session{a, b} {
		ev := mustEvent(t, s.Events, EventChatMessage)
		if ev.Chat.Text != "hi" || ev.Chat.SenderName != "alice" {
			t.Fatalf("unexpected chat event for %s: %+v", s.ID, ev.Chat)
		}
	}

	// B leaves; the next broadcast only reaches A.
	b.Commands <- &Command{Kind: CommandLeaveRoom, Room: ProjectRoom("proj-1")}
	// Give the leave time to land before broadcasting.
	time.Sleep(50 * time.Millisecond)

	r.SendChatMessage(ChatMessage{ProjectID: "proj-1", SenderID: "user-a", SenderName: "alice", Text: "bye"})

	ev := mustEvent(t, a.Events, EventChatMessage)
	if ev.Chat.Text != "bye" {
		t.Fatalf("unexpected second message: %+v", ev.Chat)
	}
	mustNoEvent(t, b.Events, 100*time.Millisecond)
}

func TestJoinIsIdempotent(t *testing.T) {
	r := startRelay(t)

	a := NewSession("a", "", "", 0)
	r.RegisterSession(a)

	a.Commands <- &Command{Kind: CommandJoinRoom, Room: ProjectRoom("proj-1")}
	a.Commands <- &Command{Kind: CommandJoinRoom, Room: ProjectRoom("proj-1")}
	time.Sleep(50 * time.Millisecond)

	r.SendChatMessage(ChatMessage{ProjectID: "proj-1", Text: "once"})

	ev := mustEvent(t, a.Events, EventChatMessage)
	if ev.Chat.Text != "once" {
		t.Fatalf("unexpected event: %+v", ev.Chat)
	}
	// A double join must not produce a duplicate delivery.
	mustNoEvent(t, a.Events, 100*time.Millisecond)
}

func TestLeaveUnknownRoomIsNoop(t *testing.T) {
	r := startRelay(t)

	a := NewSession("a", "", "", 0)
	r.RegisterSession(a)

	a.Commands <- &Command{Kind: CommandLeaveRoom, Room: ProjectRoom("ghost")}
	mustNoEvent(t, a.Events, 100*time.Millisecond)
}

func TestBroadcastToEmptyRoomIsNoop(t *testing.T) {
	r := startRelay(t)

	// Nobody joined; must not panic or error.
	r.SendChatMessage(ChatMessage{ProjectID: "proj-1", Text: "void"})
	time.Sleep(50 * time.Millisecond)
}

func TestUnregisterClearsAllRooms(t *testing.T) {
	r := startRelay(t)

	a := NewSession("a", "", "", 0)
	b := NewSession("b", "", "", 0)
	r.RegisterSession(a)
	r.RegisterSession(b)

	a.Commands <- &Command{Kind: CommandJoinRoom, Room: ProjectRoom("proj-1")}
	a.Commands <- &Command{Kind: CommandJoinRoom, Room: ProjectRoom("proj-2")}
	b.Commands <- &Command{Kind: CommandJoinRoom, Room: ProjectRoom("proj-1")}
	time.Sleep(50 * time.Millisecond)

	r.UnregisterSession(a)
	// Unregistering twice is a no-op.
	r.UnregisterSession(a)

	r.SendChatMessage(ChatMessage{ProjectID: "proj-1", Text: "after"})
	r.SendChatMessage(ChatMessage{ProjectID: "proj-2", Text: "after"})

	ev := mustEvent(t, b.Events, EventChatMessage)
	if ev.Chat.ProjectID != "proj-1" {
		t.Fatalf("unexpected project: %s", ev.Chat.ProjectID)
	}

	// A's channel is closed on unregister and must never see the broadcasts.
	for ev := range a.Events {
		t.Fatalf("unexpected event after unregister: %+v", ev)
	}
}

func TestPerRoomDeliveryOrder(t *testing.T) {
	r := startRelay(t)

	a := NewSession("a", "", "", 64)
	b := NewSession("b", "", "", 64)
	r.RegisterSession(a)
	r.RegisterSession(b)

	a.Commands <- &Command{Kind: CommandJoinRoom, Room: ProjectRoom("proj-1")}
	b.Commands <- &Command{Kind: CommandJoinRoom, Room: ProjectRoom("proj-1")}
	time.Sleep(50 * time.Millisecond)

	const n = 20
	for i := 0; i < n; i++ {
		r.SendChatMessage(ChatMessage{ProjectID: "proj-1", Text: fmt.Sprintf("m%d", i)})
	}

	for _, s := range []*Session{a, b} {
		for i := 0; i < n; i++ {
			ev := mustEvent(t, s.Events, EventChatMessage)
			if want := fmt.Sprintf("m%d", i); ev.Chat.Text != want {
				t.Fatalf("session %s: got %q at position %d, want %q", s.ID, ev.Chat.Text, i, want)
			}
		}
	}
}

func TestNotificationGoesToUserRoomOnly(t *testing.T) {
	r := startRelay(t)

	u42 := NewSession("u42", "user-42", "", 0)
	u43 := NewSession("u43", "user-43", "", 0)
	r.RegisterSession(u42)
	r.RegisterSession(u43)

	u42.Commands <- &Command{Kind: CommandJoinRoom, Room: UserRoom("user-42")}
	u43.Commands <- &Command{Kind: CommandJoinRoom, Room: UserRoom("user-43")}
	time.Sleep(50 * time.Millisecond)

	payload := json.RawMessage(`{"title":"Task assigned"}`)
	r.PushNotification(NotificationPush{TargetUserID: "user-42", Payload: payload})

	ev := mustEvent(t, u42.Events, EventNotification)
	if string(ev.Notification.Payload) != `{"title":"Task assigned"}` {
		t.Fatalf("unexpected payload: %s", ev.Notification.Payload)
	}
	mustNoEvent(t, u43.Events, 100*time.Millisecond)
}

func TestProjectAndUserRoomNamespacesAreDisjoint(t *testing.T) {
	r := startRelay(t)

	// Same raw id in both namespaces; membership must not bleed across.
	proj := NewSession("p", "", "", 0)
	user := NewSession("u", "shared-id", "", 0)
	r.RegisterSession(proj)
	r.RegisterSession(user)

	proj.Commands <- &Command{Kind: CommandJoinRoom, Room: ProjectRoom("shared-id")}
	user.Commands <- &Command{Kind: CommandJoinRoom, Room: UserRoom("shared-id")}
	time.Sleep(50 * time.Millisecond)

	r.PushNotification(NotificationPush{TargetUserID: "shared-id", Payload: json.RawMessage(`{}`)})

	mustEvent(t, user.Events, EventNotification)
	mustNoEvent(t, proj.Events, 100*time.Millisecond)
}

func TestRoomLimitProducesError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := New(nil, Options{MaxRoomsPerSession: 2})
	go r.Run(ctx)

	a := NewSession("a", "", "", 0)
	r.RegisterSession(a)

	a.Commands <- &Command{Kind: CommandJoinRoom, Room: ProjectRoom("p1")}
	a.Commands <- &Command{Kind: CommandJoinRoom, Room: ProjectRoom("p2")}
	a.Commands <- &Command{Kind: CommandJoinRoom, Room: ProjectRoom("p3")}

	ev := mustEvent(t, a.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeRoomLimit {
		t.Fatalf("expected room_limit error, got %+v", ev)
	}
}

func TestTaskChangedReachesRoomMembers(t *testing.T) {
	r := startRelay(t)

	a := NewSession("a", "", "", 0)
	r.RegisterSession(a)
	a.Commands <- &Command{Kind: CommandJoinRoom, Room: ProjectRoom("proj-1")}
	time.Sleep(50 * time.Millisecond)

	r.NotifyTaskChanged(TaskChanged{
		ProjectID: "proj-1",
		TaskID:    "task-9",
		Fields:    json.RawMessage(`{"status":"done"}`),
	})

	ev := mustEvent(t, a.Events, EventTaskChanged)
	if ev.Task.TaskID != "task-9" || string(ev.Task.Fields) != `{"status":"done"}` {
		t.Fatalf("unexpected task event: %+v", ev.Task)
	}
}
