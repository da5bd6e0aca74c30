package http

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/teamsphere/teamsphere-server/internal/proto"
)

type wsOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func dialWS(ctx context.Context, t *testing.T, srv *testServer, query string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(srv.ts.URL, "http", "ws", 1) + "/ws" + query
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", query, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendFrame(ctx context.Context, t *testing.T, conn *websocket.Conn, frameType string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", frameType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: frameType, Data: payload}); err != nil {
		t.Fatalf("write %s frame: %v", frameType, err)
	}
}

func readFrame(ctx context.Context, t *testing.T, conn *websocket.Conn) wsOutbound {
	t.Helper()

	var out wsOutbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return out
}

func TestWebSocketJoinAndBroadcast(t *testing.T) {
	srv := newTestServer(t)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	connA := dialWS(ctx, t, srv, "")
	connB := dialWS(ctx, t, srv, "")

	sendFrame(ctx, t, connA, proto.InboundTypeJoinProject, proto.JoinProjectData{ProjectID: "p1"})
	sendFrame(ctx, t, connB, proto.InboundTypeJoinProject, proto.JoinProjectData{ProjectID: "p1"})
	// Give the relay loop time to process both joins before broadcasting.
	time.Sleep(100 * time.Millisecond)

	sendFrame(ctx, t, connA, proto.InboundTypeSendMessage, proto.SendMessageData{
		ProjectID: "p1",
		User:      proto.MessageUser{ID: "client-a", Name: "Alice"},
		Message:   "hi there",
	})

	for _, conn := range []*websocket.Conn{connA, connB} {
		out := readFrame(ctx, t, conn)
		if out.Type != proto.OutboundTypeEvent || out.Event != proto.EventNewMessage {
			t.Fatalf("unexpected frame: %+v", out)
		}
		var msg proto.NewMessageEvent
		if err := json.Unmarshal(out.Data, &msg); err != nil {
			t.Fatalf("unmarshal event data: %v", err)
		}
		if msg.ProjectID != "p1" || msg.Message != "hi there" {
			t.Fatalf("unexpected message payload: %+v", msg)
		}
		if msg.User.ID != "client-a" || msg.User.Name != "Alice" {
			t.Fatalf("unexpected sender: %+v", msg.User)
		}
		if msg.Timestamp == 0 {
			t.Fatal("expected a server-assigned timestamp")
		}
	}
}

func TestWebSocketErrorFramesKeepConnection(t *testing.T) {
	srv := newTestServer(t)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dialWS(ctx, t, srv, "")

	sendFrame(ctx, t, conn, "self-destruct", struct{}{})
	out := readFrame(ctx, t, conn)
	if out.Type != proto.OutboundTypeError || out.Error == nil {
		t.Fatalf("expected error frame, got %+v", out)
	}

	sendFrame(ctx, t, conn, proto.InboundTypeJoinProject, proto.JoinProjectData{})
	out = readFrame(ctx, t, conn)
	if out.Type != proto.OutboundTypeError || out.Error == nil {
		t.Fatalf("expected error frame for missing projectId, got %+v", out)
	}

	// The connection survives protocol errors.
	sendFrame(ctx, t, conn, proto.InboundTypeJoinProject, proto.JoinProjectData{ProjectID: "p1"})
	time.Sleep(100 * time.Millisecond)
	sendFrame(ctx, t, conn, proto.InboundTypeSendMessage, proto.SendMessageData{
		ProjectID: "p1",
		Message:   "still alive",
	})
	out = readFrame(ctx, t, conn)
	if out.Event != proto.EventNewMessage {
		t.Fatalf("expected echoed message after errors, got %+v", out)
	}
}

func TestWebSocketNotificationRoom(t *testing.T) {
	srv := newTestServer(t)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	target := dialWS(ctx, t, srv, "?userId=user-42")
	sender := dialWS(ctx, t, srv, "")
	// The target auto-joins its user room on connect; wait for the relay to
	// process the registration.
	time.Sleep(100 * time.Millisecond)

	sendFrame(ctx, t, sender, proto.InboundTypeSendNotification, proto.SendNotificationData{
		UserID:       "user-42",
		Notification: json.RawMessage(`{"title":"ping"}`),
	})

	out := readFrame(ctx, t, target)
	if out.Type != proto.OutboundTypeEvent || out.Event != proto.EventNewNotification {
		t.Fatalf("unexpected frame: %+v", out)
	}
	var push proto.NewNotificationEvent
	if err := json.Unmarshal(out.Data, &push); err != nil {
		t.Fatalf("unmarshal notification data: %v", err)
	}
	if push.UserID != "user-42" || string(push.Notification) != `{"title":"ping"}` {
		t.Fatalf("unexpected notification payload: %+v", push)
	}
}

func TestWebSocketTokenIdentity(t *testing.T) {
	srv := newTestServer(t)
	token, userID := srv.register(t, "Alice", "alice@example.com")

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dialWS(ctx, t, srv, "?token="+token)

	sendFrame(ctx, t, conn, proto.InboundTypeJoinProject, proto.JoinProjectData{ProjectID: "p1"})
	time.Sleep(100 * time.Millisecond)
	// The client-claimed sender is overridden by the token identity.
	sendFrame(ctx, t, conn, proto.InboundTypeSendMessage, proto.SendMessageData{
		ProjectID: "p1",
		User:      proto.MessageUser{ID: "spoofed", Name: "Mallory"},
		Message:   "who am I",
	})

	out := readFrame(ctx, t, conn)
	if out.Event != proto.EventNewMessage {
		t.Fatalf("unexpected frame: %+v", out)
	}
	var msg proto.NewMessageEvent
	if err := json.Unmarshal(out.Data, &msg); err != nil {
		t.Fatalf("unmarshal event data: %v", err)
	}
	if msg.User.ID != userID || msg.User.Name != "Alice" {
		t.Fatalf("expected token identity, got %+v", msg.User)
	}
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	srv := newTestServer(t)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	wsURL := strings.Replace(srv.ts.URL, "http", "ws", 1) + "/ws?token=garbage"
	if _, _, err := websocket.Dial(ctx, wsURL, nil); err == nil {
		t.Fatal("expected handshake rejection for a bad token")
	}
}
