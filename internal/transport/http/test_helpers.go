package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/teamsphere/teamsphere-server/internal/auth"
	"github.com/teamsphere/teamsphere-server/internal/config"
	"github.com/teamsphere/teamsphere-server/internal/relay"
	"github.com/teamsphere/teamsphere-server/internal/service"
	"github.com/teamsphere/teamsphere-server/internal/store/memstore"
)

// testServer runs the full HTTP surface over the in-memory store.
type testServer struct {
	ts      *httptest.Server
	handler stdhttp.Handler
	st      *memstore.MemStore
	auth    *auth.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st := memstore.New()
	logger := zerolog.Nop()

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})

	rel := relay.New(&logger, relay.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	go rel.Run(ctx)

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second

	server := NewServer(Deps{
		Relay:         rel,
		Auth:          authService,
		Projects:      service.NewProjects(st, &logger),
		Tasks:         service.NewTasks(st, &logger),
		Milestones:    service.NewMilestones(st, &logger),
		Notifications: service.NewNotifications(st),
		Activities:    service.NewActivities(st),
	}, cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})

	return &testServer{ts: ts, handler: server.Handler, st: st, auth: authService}
}

// register creates a user through the API and returns its token and id.
func (s *testServer) register(t *testing.T, name, email string) (token, userID string) {
	t.Helper()

	rec := s.do(t, stdhttp.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "password123",
	})
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("register %s: status %d: %s", email, rec.Code, rec.Body.String())
	}

	var resp AuthResponse
	decodeBody(t, rec, &resp)
	return resp.Token, resp.User.ID
}

// do performs a request against the server handler.
func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
	}
}
