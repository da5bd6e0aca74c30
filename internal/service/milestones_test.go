package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teamsphere/teamsphere-server/internal/store"
)

func TestMilestoneAddTaskLinksBothSides(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.user(t, "Alice", "alice@example.com")

	p := env.project(t, owner.ID, "Apollo")
	task, err := env.tasks.Create(ctx, owner.ID, CreateTaskInput{ProjectID: p.ID, Title: "launch"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	m, err := env.milestones.Create(ctx, owner.ID, CreateMilestoneInput{
		ProjectID: p.ID,
		Title:     "v1",
		DueDate:   time.Now().Add(7 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create milestone: %v", err)
	}

	linked, err := env.milestones.AddTask(ctx, owner.ID, m.ID, task.ID)
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if len(linked.TaskIDs) != 1 || linked.TaskIDs[0] != task.ID {
		t.Fatalf("expected task linked in milestone, got %v", linked.TaskIDs)
	}
	stored, err := env.st.GetTaskByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if stored.MilestoneID != m.ID {
		t.Fatalf("expected back-reference %s, got %q", m.ID, stored.MilestoneID)
	}

	if !hasActivity(env.feed(t, owner.ID, p.ID), store.ActivityMilestoneCreated) {
		t.Fatal("expected milestone_created activity")
	}
}

func TestMilestoneAddTaskRejectsForeignTask(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.user(t, "Alice", "alice@example.com")

	p1 := env.project(t, owner.ID, "Apollo")
	p2 := env.project(t, owner.ID, "Gemini")

	task, err := env.tasks.Create(ctx, owner.ID, CreateTaskInput{ProjectID: p2.ID, Title: "elsewhere"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	m, err := env.milestones.Create(ctx, owner.ID, CreateMilestoneInput{
		ProjectID: p1.ID,
		Title:     "v1",
		DueDate:   time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create milestone: %v", err)
	}

	if _, err := env.milestones.AddTask(ctx, owner.ID, m.ID, task.ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for cross-project link, got %v", err)
	}
}

func TestMilestoneProgress(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.user(t, "Alice", "alice@example.com")

	p := env.project(t, owner.ID, "Apollo")
	m, err := env.milestones.Create(ctx, owner.ID, CreateMilestoneInput{
		ProjectID: p.ID,
		Title:     "v1",
		DueDate:   time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create milestone: %v", err)
	}

	var taskIDs []string
	for _, title := range []string{"a", "b", "c", "d"} {
		task, err := env.tasks.Create(ctx, owner.ID, CreateTaskInput{ProjectID: p.ID, Title: title, MilestoneID: m.ID})
		if err != nil {
			t.Fatalf("create task %s: %v", title, err)
		}
		taskIDs = append(taskIDs, task.ID)
	}
	done := string(store.StatusDone)
	if _, err := env.tasks.Update(ctx, owner.ID, taskIDs[0], UpdateTaskInput{Status: &done}); err != nil {
		t.Fatalf("complete a: %v", err)
	}

	milestones, err := env.milestones.ListByProject(ctx, owner.ID, p.ID)
	if err != nil {
		t.Fatalf("list milestones: %v", err)
	}
	if len(milestones) != 1 {
		t.Fatalf("expected 1 milestone, got %d", len(milestones))
	}
	if milestones[0].Progress != 25 {
		t.Fatalf("expected 25%% progress, got %d", milestones[0].Progress)
	}
}

func TestCompleteMilestoneNotifiesMembers(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.user(t, "Alice", "alice@example.com")
	member := env.user(t, "Bob", "bob@example.com")

	p := env.project(t, owner.ID, "Apollo")
	env.addMember(t, owner.ID, p.ID, "bob@example.com")

	m, err := env.milestones.Create(ctx, owner.ID, CreateMilestoneInput{
		ProjectID: p.ID,
		Title:     "v1",
		DueDate:   time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create milestone: %v", err)
	}

	completed := true
	view, err := env.milestones.Update(ctx, owner.ID, m.ID, UpdateMilestoneInput{Completed: &completed})
	if err != nil {
		t.Fatalf("complete milestone: %v", err)
	}
	if view.CompletedAt == nil {
		t.Fatal("expected completion timestamp")
	}

	notifications, err := env.notifications.List(ctx, member.ID, 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	var found bool
	for _, n := range notifications {
		if n.Type == store.NotificationMilestoneCompleted {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected milestone_completed notification, got %+v", notifications)
	}

	// The actor gets no notification, and re-completing stays quiet.
	ownerNotifications, err := env.notifications.List(ctx, owner.ID, 0)
	if err != nil {
		t.Fatalf("list owner notifications: %v", err)
	}
	for _, n := range ownerNotifications {
		if n.Type == store.NotificationMilestoneCompleted {
			t.Fatal("actor should not be notified")
		}
	}
	if _, err := env.milestones.Update(ctx, owner.ID, m.ID, UpdateMilestoneInput{Completed: &completed}); err != nil {
		t.Fatalf("re-complete: %v", err)
	}
	notifications, err = env.notifications.List(ctx, member.ID, 0)
	if err != nil {
		t.Fatalf("list notifications again: %v", err)
	}
	count := 0
	for _, n := range notifications {
		if n.Type == store.NotificationMilestoneCompleted {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected a single completion notification, got %d", count)
	}

	// Reopening clears the timestamp.
	reopened := false
	view, err = env.milestones.Update(ctx, owner.ID, m.ID, UpdateMilestoneInput{Completed: &reopened})
	if err != nil {
		t.Fatalf("reopen milestone: %v", err)
	}
	if view.CompletedAt != nil {
		t.Fatal("expected completion timestamp cleared")
	}
}

func TestDeleteMilestoneUnsetsBackReferences(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.user(t, "Alice", "alice@example.com")

	p := env.project(t, owner.ID, "Apollo")
	m, err := env.milestones.Create(ctx, owner.ID, CreateMilestoneInput{
		ProjectID: p.ID,
		Title:     "v1",
		DueDate:   time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create milestone: %v", err)
	}
	task, err := env.tasks.Create(ctx, owner.ID, CreateTaskInput{ProjectID: p.ID, Title: "linked", MilestoneID: m.ID})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if err := env.milestones.Delete(ctx, owner.ID, m.ID); err != nil {
		t.Fatalf("delete milestone: %v", err)
	}

	stored, err := env.st.GetTaskByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if stored.MilestoneID != "" {
		t.Fatalf("expected back-reference cleared, got %q", stored.MilestoneID)
	}
	proj, err := env.st.GetProjectByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	for _, id := range proj.MilestoneIDs {
		if id == m.ID {
			t.Fatal("expected milestone unlinked from project")
		}
	}
}

func TestNotificationOwnership(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	owner := env.user(t, "Alice", "alice@example.com")
	assignee := env.user(t, "Bob", "bob@example.com")

	p := env.project(t, owner.ID, "Apollo")
	env.addMember(t, owner.ID, p.ID, "bob@example.com")
	if _, err := env.tasks.Create(ctx, owner.ID, CreateTaskInput{
		ProjectID:  p.ID,
		Title:      "assigned",
		AssigneeID: assignee.ID,
	}); err != nil {
		t.Fatalf("create task: %v", err)
	}

	notifications, err := env.notifications.List(ctx, assignee.ID, 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	var target *NotificationView
	for _, n := range notifications {
		if n.Type == store.NotificationTaskAssigned {
			target = n
		}
	}
	if target == nil {
		t.Fatal("expected task_assigned notification")
	}

	if err := env.notifications.MarkRead(ctx, owner.ID, target.ID); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for foreign notification, got %v", err)
	}
	if err := env.notifications.MarkRead(ctx, assignee.ID, target.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	// The project invite from addMember is still unread.
	count, err := env.notifications.UnreadCount(ctx, assignee.ID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 unread, got %d", count)
	}
	if err := env.notifications.MarkAllRead(ctx, assignee.ID); err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	count, err = env.notifications.UnreadCount(ctx, assignee.ID)
	if err != nil {
		t.Fatalf("unread count after mark all: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread, got %d", count)
	}
}
