package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/teamsphere/teamsphere-server/internal/store"
	"github.com/teamsphere/teamsphere-server/internal/store/memstore"
)

type testEnv struct {
	st            *memstore.MemStore
	projects      *Projects
	tasks         *Tasks
	milestones    *Milestones
	notifications *Notifications
	activities    *Activities
}

func newTestEnv() *testEnv {
	st := memstore.New()
	logger := zerolog.Nop()
	return &testEnv{
		st:            st,
		projects:      NewProjects(st, &logger),
		tasks:         NewTasks(st, &logger),
		milestones:    NewMilestones(st, &logger),
		notifications: NewNotifications(st),
		activities:    NewActivities(st),
	}
}

func (e *testEnv) user(t *testing.T, name, email string) *store.User {
	t.Helper()
	u, err := e.st.CreateUser(context.Background(), name, email, "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func (e *testEnv) project(t *testing.T, ownerID, name string) *ProjectView {
	t.Helper()
	p, err := e.projects.Create(context.Background(), ownerID, CreateProjectInput{Name: name})
	if err != nil {
		t.Fatalf("create project %s: %v", name, err)
	}
	return p
}

func (e *testEnv) addMember(t *testing.T, actorID, projectID, email string) {
	t.Helper()
	if _, err := e.projects.AddMember(context.Background(), actorID, projectID, email, store.RoleMember); err != nil {
		t.Fatalf("add member %s: %v", email, err)
	}
}

func (e *testEnv) feed(t *testing.T, userID, projectID string) []*ActivityView {
	t.Helper()
	activities, err := e.activities.ListByProject(context.Background(), userID, projectID, 0)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	return activities
}

func hasActivity(activities []*ActivityView, kind store.ActivityType) bool {
	for _, a := range activities {
		if a.Type == kind {
			return true
		}
	}
	return false
}
