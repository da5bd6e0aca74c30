package http

import (
	"net/http"
	"testing"

	"github.com/teamsphere/teamsphere-server/internal/service"
)

func TestProjectLifecycle(t *testing.T) {
	srv := newTestServer(t)
	aliceToken, aliceID := srv.register(t, "Alice", "alice@example.com")
	bobToken, _ := srv.register(t, "Bob", "bob@example.com")

	// Create.
	rec := srv.do(t, http.MethodPost, "/api/projects", aliceToken, map[string]string{
		"name":            "Apollo",
		"description":     "moon landing",
		"primaryLanguage": "Go",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created service.ProjectView
	decodeBody(t, rec, &created)
	if created.Owner == nil || created.Owner.ID != aliceID {
		t.Fatalf("unexpected owner: %+v", created.Owner)
	}

	// Non-members cannot see it.
	rec = srv.do(t, http.MethodGet, "/api/projects/"+created.ID, bobToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-member, got %d", rec.Code)
	}

	// Add Bob by email; afterwards he can read it.
	rec = srv.do(t, http.MethodPost, "/api/projects/"+created.ID+"/members", aliceToken, map[string]string{
		"email": "bob@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add member: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = srv.do(t, http.MethodGet, "/api/projects/"+created.ID, bobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after invite, got %d", rec.Code)
	}
	var detail service.ProjectDetailView
	decodeBody(t, rec, &detail)
	if len(detail.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(detail.Members))
	}

	// Bob sees the project in his list.
	rec = srv.do(t, http.MethodGet, "/api/projects", bobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var list []service.ProjectView
	decodeBody(t, rec, &list)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("unexpected project list: %+v", list)
	}

	// Update is owner/admin only.
	rec = srv.do(t, http.MethodPut, "/api/projects/"+created.ID, bobToken, map[string]string{"name": "Hijacked"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for member update, got %d", rec.Code)
	}
	rec = srv.do(t, http.MethodPut, "/api/projects/"+created.ID, aliceToken, map[string]string{"name": "Apollo 11"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated service.ProjectView
	decodeBody(t, rec, &updated)
	if updated.Name != "Apollo 11" {
		t.Fatalf("expected renamed project, got %q", updated.Name)
	}

	// Delete is owner only.
	rec = srv.do(t, http.MethodDelete, "/api/projects/"+created.ID, bobToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for member delete, got %d", rec.Code)
	}
	rec = srv.do(t, http.MethodDelete, "/api/projects/"+created.ID, aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	rec = srv.do(t, http.MethodGet, "/api/projects/"+created.ID, aliceToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestProjectValidation(t *testing.T) {
	srv := newTestServer(t)
	token, _ := srv.register(t, "Alice", "alice@example.com")

	rec := srv.do(t, http.MethodPost, "/api/projects", token, map[string]string{"name": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, "/api/projects/missing", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown project, got %d", rec.Code)
	}
}

func TestNotesEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token, _ := srv.register(t, "Alice", "alice@example.com")
	strangerToken, _ := srv.register(t, "Mallory", "mallory@example.com")

	rec := srv.do(t, http.MethodPost, "/api/projects", token, map[string]string{"name": "Apollo"})
	var p service.ProjectView
	decodeBody(t, rec, &p)

	rec = srv.do(t, http.MethodPut, "/api/notes/project/"+p.ID, token, map[string]string{"notes": "remember the tiles"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update notes: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, "/api/notes/project/"+p.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get notes: expected 200, got %d", rec.Code)
	}
	var notes NotesResponse
	decodeBody(t, rec, &notes)
	if notes.Notes != "remember the tiles" {
		t.Fatalf("unexpected notes: %q", notes.Notes)
	}

	rec = srv.do(t, http.MethodGet, "/api/notes/project/"+p.ID, strangerToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger, got %d", rec.Code)
	}
}
