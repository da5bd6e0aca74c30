package http

import (
	"encoding/json"
	"time"

	"github.com/teamsphere/teamsphere-server/internal/proto"
	"github.com/teamsphere/teamsphere-server/internal/relay"
)

// inboundToCommand maps a wire frame onto a relay command. Malformed frames
// produce a protocol error instead of a command; the connection stays up.
func inboundToCommand(session *relay.Session, inbound proto.Inbound) (*relay.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoinProject:
		var join proto.JoinProjectData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, &proto.Error{Code: relay.ErrCodeInvalidPayload, Msg: "malformed join payload"}
		}
		if join.ProjectID == "" {
			return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: "projectId is required"}
		}
		return &relay.Command{
			Kind: relay.CommandJoinRoom,
			Room: relay.ProjectRoom(join.ProjectID),
		}, nil

	case proto.InboundTypeLeaveProject:
		var leave proto.JoinProjectData
		if err := json.Unmarshal(inbound.Data, &leave); err != nil {
			return nil, &proto.Error{Code: relay.ErrCodeInvalidPayload, Msg: "malformed leave payload"}
		}
		if leave.ProjectID == "" {
			return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: "projectId is required"}
		}
		return &relay.Command{
			Kind: relay.CommandLeaveRoom,
			Room: relay.ProjectRoom(leave.ProjectID),
		}, nil

	case proto.InboundTypeSendMessage:
		var msg proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, &proto.Error{Code: relay.ErrCodeInvalidPayload, Msg: "malformed message payload"}
		}
		if msg.ProjectID == "" {
			return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: "projectId is required"}
		}
		sentAt := time.Now()
		if msg.Timestamp > 0 {
			sentAt = time.UnixMilli(msg.Timestamp)
		}
		senderID, senderName := msg.User.ID, msg.User.Name
		if session.UserID != "" {
			senderID = session.UserID
		}
		if session.UserName != "" {
			senderName = session.UserName
		}
		return &relay.Command{
			Kind: relay.CommandBroadcast,
			Room: relay.ProjectRoom(msg.ProjectID),
			Event: &relay.Event{
				Kind: relay.EventChatMessage,
				Chat: &relay.ChatMessage{
					ProjectID:  msg.ProjectID,
					SenderID:   senderID,
					SenderName: senderName,
					Text:       msg.Message,
					SentAt:     sentAt,
				},
			},
		}, nil

	case proto.InboundTypeTaskUpdated:
		var tu proto.TaskUpdatedData
		if err := json.Unmarshal(inbound.Data, &tu); err != nil {
			return nil, &proto.Error{Code: relay.ErrCodeInvalidPayload, Msg: "malformed task payload"}
		}
		if tu.ProjectID == "" {
			return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: "projectId is required"}
		}
		return &relay.Command{
			Kind: relay.CommandBroadcast,
			Room: relay.ProjectRoom(tu.ProjectID),
			Event: &relay.Event{
				Kind: relay.EventTaskChanged,
				Task: &relay.TaskChanged{
					ProjectID: tu.ProjectID,
					TaskID:    tu.TaskID,
					Fields:    tu.Task,
				},
			},
		}, nil

	case proto.InboundTypeSendNotification:
		var sn proto.SendNotificationData
		if err := json.Unmarshal(inbound.Data, &sn); err != nil {
			return nil, &proto.Error{Code: relay.ErrCodeInvalidPayload, Msg: "malformed notification payload"}
		}
		if sn.UserID == "" {
			return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: "userId is required"}
		}
		return &relay.Command{
			Kind: relay.CommandBroadcast,
			Room: relay.UserRoom(sn.UserID),
			Event: &relay.Event{
				Kind: relay.EventNotification,
				Notification: &relay.NotificationPush{
					TargetUserID: sn.UserID,
					Payload:      sn.Notification,
				},
			},
		}, nil

	default:
		return nil, &proto.Error{Code: relay.ErrCodeBadRequest, Msg: "unknown message type"}
	}
}

// outboundFromEvent maps a relay event onto a wire frame.
func outboundFromEvent(event *relay.Event) proto.Outbound {
	switch event.Kind {
	case relay.EventChatMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNewMessage,
			Data: proto.NewMessageEvent{
				ProjectID: event.Chat.ProjectID,
				User: proto.MessageUser{
					ID:   event.Chat.SenderID,
					Name: event.Chat.SenderName,
				},
				Message:   event.Chat.Text,
				Timestamp: event.Chat.SentAt.UnixMilli(),
			},
		}
	case relay.EventTaskChanged:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventTaskChanged,
			Data: proto.TaskChangedEvent{
				ProjectID: event.Task.ProjectID,
				TaskID:    event.Task.TaskID,
				Task:      event.Task.Fields,
			},
		}
	case relay.EventNotification:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNewNotification,
			Data: proto.NewNotificationEvent{
				UserID:       event.Notification.TargetUserID,
				Notification: event.Notification.Payload,
			},
		}
	case relay.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
