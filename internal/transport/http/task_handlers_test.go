package http

import (
	"net/http"
	"testing"

	"github.com/teamsphere/teamsphere-server/internal/service"
)

func TestTaskEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token, _ := srv.register(t, "Alice", "alice@example.com")

	rec := srv.do(t, http.MethodPost, "/api/projects", token, map[string]string{"name": "Apollo"})
	var p service.ProjectView
	decodeBody(t, rec, &p)

	// Create.
	rec = srv.do(t, http.MethodPost, "/api/tasks", token, map[string]string{
		"projectId": p.ID,
		"title":     "wire the API",
		"priority":  "high",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var task service.TaskView
	decodeBody(t, rec, &task)
	if task.Priority != "high" || task.Status != "todo" {
		t.Fatalf("unexpected task defaults: %+v", task)
	}

	// Missing title is a validation error.
	rec = srv.do(t, http.MethodPost, "/api/tasks", token, map[string]string{"projectId": p.ID})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing title, got %d", rec.Code)
	}

	// Update the status.
	rec = srv.do(t, http.MethodPut, "/api/tasks/"+task.ID, token, map[string]string{"status": "done"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated service.TaskView
	decodeBody(t, rec, &updated)
	if updated.Status != "done" {
		t.Fatalf("expected done, got %s", updated.Status)
	}

	// A second open task to exercise filtering.
	rec = srv.do(t, http.MethodPost, "/api/tasks", token, map[string]string{
		"projectId": p.ID,
		"title":     "write the docs",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create second: expected 201, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodGet, "/api/tasks/project/"+p.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var all []*service.TaskView
	decodeBody(t, rec, &all)
	if len(all) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(all))
	}

	rec = srv.do(t, http.MethodGet, "/api/tasks/project/"+p.ID+"?status=done", token, nil)
	var doneOnly []*service.TaskView
	decodeBody(t, rec, &doneOnly)
	if len(doneOnly) != 1 || doneOnly[0].ID != task.ID {
		t.Fatalf("expected only the done task, got %+v", doneOnly)
	}

	// Comment.
	rec = srv.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/comments", token, map[string]string{
		"content": "ready for review",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var withComment service.TaskView
	decodeBody(t, rec, &withComment)
	if len(withComment.Comments) != 1 || withComment.Comments[0].Content != "ready for review" {
		t.Fatalf("unexpected comments: %+v", withComment.Comments)
	}

	// Delete.
	rec = srv.do(t, http.MethodDelete, "/api/tasks/"+task.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	rec = srv.do(t, http.MethodGet, "/api/tasks/"+task.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestMilestoneEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token, _ := srv.register(t, "Alice", "alice@example.com")

	rec := srv.do(t, http.MethodPost, "/api/projects", token, map[string]string{"name": "Apollo"})
	var p service.ProjectView
	decodeBody(t, rec, &p)

	rec = srv.do(t, http.MethodPost, "/api/milestones", token, map[string]any{
		"projectId": p.ID,
		"title":     "v1",
		"dueDate":   "2026-12-01T00:00:00Z",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create milestone: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var m service.MilestoneView
	decodeBody(t, rec, &m)

	// Due date is required.
	rec = srv.do(t, http.MethodPost, "/api/milestones", token, map[string]any{
		"projectId": p.ID,
		"title":     "undated",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing due date, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodPost, "/api/tasks", token, map[string]string{
		"projectId": p.ID,
		"title":     "launch",
	})
	var task service.TaskView
	decodeBody(t, rec, &task)

	rec = srv.do(t, http.MethodPost, "/api/milestones/"+m.ID+"/tasks", token, map[string]string{
		"taskId": task.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("link task: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, "/api/milestones/project/"+p.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var list []*service.MilestoneView
	decodeBody(t, rec, &list)
	if len(list) != 1 || list[0].Progress != 0 {
		t.Fatalf("unexpected milestone list: %+v", list)
	}

	rec = srv.do(t, http.MethodPut, "/api/tasks/"+task.ID, token, map[string]string{"status": "done"})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete task: expected 200, got %d", rec.Code)
	}
	rec = srv.do(t, http.MethodGet, "/api/milestones/project/"+p.ID, token, nil)
	decodeBody(t, rec, &list)
	if list[0].Progress != 100 {
		t.Fatalf("expected 100%% progress, got %d", list[0].Progress)
	}
}

func TestNotificationEndpoints(t *testing.T) {
	srv := newTestServer(t)
	aliceToken, _ := srv.register(t, "Alice", "alice@example.com")
	bobToken, _ := srv.register(t, "Bob", "bob@example.com")

	rec := srv.do(t, http.MethodPost, "/api/projects", aliceToken, map[string]string{"name": "Apollo"})
	var p service.ProjectView
	decodeBody(t, rec, &p)
	rec = srv.do(t, http.MethodPost, "/api/projects/"+p.ID+"/members", aliceToken, map[string]string{
		"email": "bob@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add member: expected 200, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodGet, "/api/notifications/unread-count", bobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unread count: expected 200, got %d", rec.Code)
	}
	var count struct {
		Count int64 `json:"count"`
	}
	decodeBody(t, rec, &count)
	if count.Count != 1 {
		t.Fatalf("expected 1 unread invite, got %d", count.Count)
	}

	rec = srv.do(t, http.MethodGet, "/api/notifications", bobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var list []*service.NotificationView
	decodeBody(t, rec, &list)
	if len(list) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(list))
	}

	// Alice cannot mark Bob's notification.
	rec = srv.do(t, http.MethodPut, "/api/notifications/"+list[0].ID+"/read", aliceToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign notification, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodPut, "/api/notifications/read-all", bobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("read-all: expected 200, got %d", rec.Code)
	}
	rec = srv.do(t, http.MethodGet, "/api/notifications/unread-count", bobToken, nil)
	decodeBody(t, rec, &count)
	if count.Count != 0 {
		t.Fatalf("expected 0 unread, got %d", count.Count)
	}
}

func TestActivityEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token, _ := srv.register(t, "Alice", "alice@example.com")
	strangerToken, _ := srv.register(t, "Mallory", "mallory@example.com")

	rec := srv.do(t, http.MethodPost, "/api/projects", token, map[string]string{"name": "Apollo"})
	var p service.ProjectView
	decodeBody(t, rec, &p)
	rec = srv.do(t, http.MethodPost, "/api/tasks", token, map[string]string{"projectId": p.ID, "title": "a"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: expected 201, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodGet, "/api/activities/project/"+p.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var feed []*service.ActivityView
	decodeBody(t, rec, &feed)
	if len(feed) != 2 {
		t.Fatalf("expected project_created and task_created, got %d entries", len(feed))
	}

	rec = srv.do(t, http.MethodGet, "/api/activities/project/"+p.ID+"?limit=1", token, nil)
	decodeBody(t, rec, &feed)
	if len(feed) != 1 {
		t.Fatalf("expected limited feed, got %d entries", len(feed))
	}

	rec = srv.do(t, http.MethodGet, "/api/activities/project/"+p.ID, strangerToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger, got %d", rec.Code)
	}
}
