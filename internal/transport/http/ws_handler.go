package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/teamsphere/teamsphere-server/internal/auth"
	"github.com/teamsphere/teamsphere-server/internal/config"
	"github.com/teamsphere/teamsphere-server/internal/proto"
	"github.com/teamsphere/teamsphere-server/internal/relay"
	"github.com/teamsphere/teamsphere-server/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to relay sessions.
type WSHandler struct {
	relay       *relay.Relay
	authService *auth.Service
	cfg         config.RelayConfig
	log         *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(r *relay.Relay, authService *auth.Service, cfg config.RelayConfig, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{relay: r, authService: authService, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	userID, userName, err := h.identify(r)
	if err != nil {
		stdhttp.Error(w, "invalid token", stdhttp.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	session := relay.NewSession(utils.NewID(), userID, userName, h.cfg.EventBuffer)
	h.relay.RegisterSession(session)
	defer h.relay.UnregisterSession(session)

	// Known users are subscribed to their notification room up front so
	// directed pushes reach them without a protocol exchange.
	if session.UserID != "" {
		session.Commands <- &relay.Command{Kind: relay.CommandJoinRoom, Room: relay.UserRoom(session.UserID)}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// identify resolves the connecting user from a bearer token or the token
// query parameter. Anonymous connections are allowed unless require_auth
// is set; their user id comes from the userId query parameter and is
// client-claimed.
func (h *WSHandler) identify(r *stdhttp.Request) (userID, userName string, err error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}

	if token != "" {
		claims, err := h.authService.ValidateToken(token)
		if err != nil {
			return "", "", err
		}
		return claims.UserID, claims.Name, nil
	}
	if h.cfg.RequireAuth {
		return "", "", errors.New("token required")
	}
	return r.URL.Query().Get("userId"), "", nil
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *relay.Session) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			h.log.Debug().Err(err).Str("session_id", session.ID).Msg("read ws inbound")
			return err
		}

		cmd, protoErr := inboundToCommand(session, inbound)
		if protoErr != nil {
			if writeErr := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); writeErr != nil {
				return writeErr
			}
			continue
		}
		if cmd != nil {
			session.Commands <- cmd
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, session *relay.Session) error {
	for {
		select {
		case event, ok := <-session.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("session_id", session.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
