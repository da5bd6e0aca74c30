// Command ws_chat is a small interactive client for the relay endpoint.
// It joins one project room and bridges stdin to send-message frames.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/teamsphere/teamsphere-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	userID := flag.String("user", "cli-user", "user id to claim")
	name := flag.String("name", "cli", "display name")
	project := flag.String("project", "demo", "project room to join")
	token := flag.String("token", "", "optional JWT")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	url := *addr + "?userId=" + *userID
	if *token != "" {
		url = *addr + "?token=" + *token
	}
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(v interface{}) {
		if writeErr := wsjson.Write(ctx, conn, v); writeErr != nil {
			cancel()
			log.Printf("send: %v", writeErr)
		}
	}

	joinPayload, err := json.Marshal(proto.JoinProjectData{ProjectID: *project})
	if err != nil {
		return fmt.Errorf("marshal join: %w", err)
	}
	send(proto.Inbound{Type: proto.InboundTypeJoinProject, Data: joinPayload})

	fmt.Printf("Connected to %s as %s in project %s\n", *addr, *userID, *project)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, *project, *userID, *name, send)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if outbound.Error != nil {
			fmt.Printf("error: %s (%s)\n", outbound.Error.Msg, outbound.Error.Code)
			continue
		}

		switch outbound.Event {
		case proto.EventNewMessage:
			raw, err := json.Marshal(outbound.Data)
			if err != nil {
				log.Printf("marshal outbound data: %v", err)
				continue
			}
			var evt proto.NewMessageEvent
			if err := json.Unmarshal(raw, &evt); err != nil {
				log.Printf("unmarshal message: %v", err)
				continue
			}
			fmt.Printf("[%s] %s: %s\n", evt.ProjectID, evt.User.Name, evt.Message)
		case proto.EventTaskChanged:
			raw, err := json.Marshal(outbound.Data)
			if err != nil {
				log.Printf("marshal outbound data: %v", err)
				continue
			}
			var evt proto.TaskChangedEvent
			if err := json.Unmarshal(raw, &evt); err != nil {
				log.Printf("unmarshal task-changed: %v", err)
				continue
			}
			fmt.Printf("[%s] task %s changed\n", evt.ProjectID, evt.TaskID)
		case proto.EventNewNotification:
			fmt.Printf("notification: %v\n", outbound.Data)
		default:
			fmt.Printf("event=%s data=%v\n", outbound.Event, outbound.Data)
		}
	}
}

func writeLoop(ctx context.Context, project, userID, name string, send func(interface{})) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			payload, err := json.Marshal(proto.SendMessageData{
				ProjectID: project,
				User:      proto.MessageUser{ID: userID, Name: name},
				Message:   text,
				Timestamp: time.Now().UnixMilli(),
			})
			if err != nil {
				log.Printf("marshal message: %v", err)
				continue
			}
			send(proto.Inbound{Type: proto.InboundTypeSendMessage, Data: payload})
		}
	}
}
