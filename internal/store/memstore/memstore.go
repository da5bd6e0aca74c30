// Package memstore provides an in-memory store.Store implementation.
// It backs the "memory" store driver for local development and is the
// fixture used by service and transport tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/teamsphere/teamsphere-server/internal/store"
)

// MemStore implements store.Store with process-local maps.
type MemStore struct {
	mu sync.RWMutex

	seq           int64
	users         map[string]*store.User
	projects      map[string]*store.Project
	tasks         map[string]*store.Task
	milestones    map[string]*store.Milestone
	notifications map[string]*store.Notification
	activities    map[string]*store.Activity
}

// New creates an empty in-memory store.
func New() *MemStore {
	return &MemStore{
		users:         make(map[string]*store.User),
		projects:      make(map[string]*store.Project),
		tasks:         make(map[string]*store.Task),
		milestones:    make(map[string]*store.Milestone),
		notifications: make(map[string]*store.Notification),
		activities:    make(map[string]*store.Activity),
	}
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error { return nil }

func (m *MemStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

// ==== UserStore ====

func (m *MemStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return nil, store.ErrDuplicate
		}
	}

	u := &store.User{
		ID:           m.nextID("user"),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	return copyUser(u), nil
}

func (m *MemStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyUser(u), nil
}

func (m *MemStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*store.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]*store.User, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = copyUser(u)
		}
	}
	return out, nil
}

func (m *MemStore) AddUserProject(ctx context.Context, userID, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	for _, id := range u.ProjectIDs {
		if id == projectID {
			return nil
		}
	}
	u.ProjectIDs = append(u.ProjectIDs, projectID)
	return nil
}

func (m *MemStore) RemoveProjectFromUsers(ctx context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		u.ProjectIDs = removeString(u.ProjectIDs, projectID)
	}
	return nil
}

// ==== ProjectStore ====

func (m *MemStore) CreateProject(ctx context.Context, p *store.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = m.nextID("proj")
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	m.projects[p.ID] = copyProject(p)
	return nil
}

func (m *MemStore) GetProjectByID(ctx context.Context, id string) (*store.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyProject(p), nil
}

func (m *MemStore) ListProjectsByMember(ctx context.Context, userID string) ([]*store.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*store.Project
	for _, p := range m.projects {
		if p.OwnerID == userID || isMember(p, userID) {
			out = append(out, copyProject(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *MemStore) UpdateProject(ctx context.Context, id string, upd store.ProjectUpdate) (*store.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.PrimaryLanguage != nil {
		p.PrimaryLanguage = *upd.PrimaryLanguage
	}
	if upd.Color != nil {
		p.Color = *upd.Color
	}
	if upd.Notes != nil {
		p.Notes = *upd.Notes
	}
	p.UpdatedAt = time.Now()
	return copyProject(p), nil
}

func (m *MemStore) AddProjectMember(ctx context.Context, projectID string, member store.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[projectID]
	if !ok {
		return store.ErrNotFound
	}
	p.Members = append(p.Members, member)
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MemStore) AddProjectTask(ctx context.Context, projectID, taskID string) error {
	return m.appendProjectRef(projectID, taskID, true)
}

func (m *MemStore) RemoveProjectTask(ctx context.Context, projectID, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[projectID]
	if !ok {
		return store.ErrNotFound
	}
	p.TaskIDs = removeString(p.TaskIDs, taskID)
	return nil
}

func (m *MemStore) AddProjectMilestone(ctx context.Context, projectID, milestoneID string) error {
	return m.appendProjectRef(projectID, milestoneID, false)
}

func (m *MemStore) RemoveProjectMilestone(ctx context.Context, projectID, milestoneID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[projectID]
	if !ok {
		return store.ErrNotFound
	}
	p.MilestoneIDs = removeString(p.MilestoneIDs, milestoneID)
	return nil
}

func (m *MemStore) appendProjectRef(projectID, refID string, task bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[projectID]
	if !ok {
		return store.ErrNotFound
	}
	if task {
		p.TaskIDs = appendUnique(p.TaskIDs, refID)
	} else {
		p.MilestoneIDs = appendUnique(p.MilestoneIDs, refID)
	}
	return nil
}

func (m *MemStore) DeleteProject(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

// ==== TaskStore ====

func (m *MemStore) CreateTask(ctx context.Context, t *store.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t.ID = m.nextID("task")
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	m.tasks[t.ID] = copyTask(t)
	return nil
}

func (m *MemStore) GetTaskByID(ctx context.Context, id string) (*store.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyTask(t), nil
}

func (m *MemStore) ListTasksByProject(ctx context.Context, projectID string, f store.TaskFilter) ([]*store.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*store.Task
	for _, t := range m.tasks {
		if t.ProjectID != projectID {
			continue
		}
		if f.Status != "" && string(t.Status) != f.Status {
			continue
		}
		if f.AssigneeID != "" && t.AssigneeID != f.AssigneeID {
			continue
		}
		if f.Priority != "" && string(t.Priority) != f.Priority {
			continue
		}
		if f.MilestoneID != "" && t.MilestoneID != f.MilestoneID {
			continue
		}
		out = append(out, copyTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) UpdateTask(ctx context.Context, id string, upd store.TaskUpdate) (*store.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.AssigneeID != nil {
		t.AssigneeID = *upd.AssigneeID
	}
	if upd.Status != nil {
		t.Status = store.TaskStatus(*upd.Status)
	}
	if upd.Priority != nil {
		t.Priority = store.TaskPriority(*upd.Priority)
	}
	if upd.DueDate != nil {
		due := *upd.DueDate
		t.DueDate = &due
	}
	if upd.ClearDueDate {
		t.DueDate = nil
	}
	if upd.MilestoneID != nil {
		t.MilestoneID = *upd.MilestoneID
	}
	if upd.Tags != nil {
		t.Tags = append([]string(nil), (*upd.Tags)...)
	}
	if upd.DependencyIDs != nil {
		t.DependencyIDs = append([]string(nil), (*upd.DependencyIDs)...)
	}
	t.UpdatedAt = time.Now()
	return copyTask(t), nil
}

func (m *MemStore) AddTaskComment(ctx context.Context, taskID string, c store.Comment) (*store.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return nil, store.ErrNotFound
	}
	t.Comments = append(t.Comments, c)
	t.UpdatedAt = time.Now()
	return copyTask(t), nil
}

func (m *MemStore) SetTaskMilestone(ctx context.Context, taskID, milestoneID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return store.ErrNotFound
	}
	t.MilestoneID = milestoneID
	return nil
}

func (m *MemStore) ClearMilestoneFromTasks(ctx context.Context, milestoneID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tasks {
		if t.MilestoneID == milestoneID {
			t.MilestoneID = ""
		}
	}
	return nil
}

func (m *MemStore) DeleteTask(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *MemStore) DeleteTasksByProject(ctx context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, t := range m.tasks {
		if t.ProjectID == projectID {
			delete(m.tasks, id)
		}
	}
	return nil
}

// ==== MilestoneStore ====

func (m *MemStore) CreateMilestone(ctx context.Context, ms *store.Milestone) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms.ID = m.nextID("mile")
	now := time.Now()
	ms.CreatedAt = now
	ms.UpdatedAt = now
	m.milestones[ms.ID] = copyMilestone(ms)
	return nil
}

func (m *MemStore) GetMilestoneByID(ctx context.Context, id string) (*store.Milestone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ms, ok := m.milestones[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyMilestone(ms), nil
}

func (m *MemStore) ListMilestonesByProject(ctx context.Context, projectID string) ([]*store.Milestone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*store.Milestone
	for _, ms := range m.milestones {
		if ms.ProjectID == projectID {
			out = append(out, copyMilestone(ms))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (m *MemStore) UpdateMilestone(ctx context.Context, id string, upd store.MilestoneUpdate) (*store.Milestone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, ok := m.milestones[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if upd.Title != nil {
		ms.Title = *upd.Title
	}
	if upd.Description != nil {
		ms.Description = *upd.Description
	}
	if upd.DueDate != nil {
		ms.DueDate = *upd.DueDate
	}
	if upd.CompletedAt != nil {
		done := *upd.CompletedAt
		ms.CompletedAt = &done
	}
	if upd.ClearCompleted {
		ms.CompletedAt = nil
	}
	ms.UpdatedAt = time.Now()
	return copyMilestone(ms), nil
}

func (m *MemStore) AddMilestoneTask(ctx context.Context, milestoneID, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, ok := m.milestones[milestoneID]
	if !ok {
		return store.ErrNotFound
	}
	ms.TaskIDs = appendUnique(ms.TaskIDs, taskID)
	ms.UpdatedAt = time.Now()
	return nil
}

func (m *MemStore) RemoveMilestoneTask(ctx context.Context, milestoneID, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, ok := m.milestones[milestoneID]
	if !ok {
		return store.ErrNotFound
	}
	ms.TaskIDs = removeString(ms.TaskIDs, taskID)
	ms.UpdatedAt = time.Now()
	return nil
}

func (m *MemStore) DeleteMilestone(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.milestones[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.milestones, id)
	return nil
}

func (m *MemStore) DeleteMilestonesByProject(ctx context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, ms := range m.milestones {
		if ms.ProjectID == projectID {
			delete(m.milestones, id)
		}
	}
	return nil
}

// ==== NotificationStore ====

func (m *MemStore) CreateNotification(ctx context.Context, n *store.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n.ID = m.nextID("notif")
	n.CreatedAt = time.Now()
	cp := *n
	m.notifications[n.ID] = &cp
	return nil
}

func (m *MemStore) GetNotificationByID(ctx context.Context, id string) (*store.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.notifications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *MemStore) ListNotifications(ctx context.Context, userID string, limit int) ([]*store.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*store.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) CountUnreadNotifications(ctx context.Context, userID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *MemStore) MarkNotificationRead(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notifications[id]
	if !ok {
		return store.ErrNotFound
	}
	n.Read = true
	return nil
}

func (m *MemStore) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

// ==== ActivityStore ====

func (m *MemStore) CreateActivity(ctx context.Context, a *store.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a.ID = m.nextID("act")
	a.CreatedAt = time.Now()
	cp := *a
	m.activities[a.ID] = &cp
	return nil
}

func (m *MemStore) ListActivitiesByProject(ctx context.Context, projectID string, limit int) ([]*store.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*store.Activity
	for _, a := range m.activities {
		if a.ProjectID == projectID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) DeleteActivitiesByProject(ctx context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, a := range m.activities {
		if a.ProjectID == projectID {
			delete(m.activities, id)
		}
	}
	return nil
}

// ==== helpers ====

func isMember(p *store.Project, userID string) bool {
	for _, m := range p.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func removeString(s []string, v string) []string {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func appendUnique(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

func copyUser(u *store.User) *store.User {
	cp := *u
	cp.ProjectIDs = append([]string(nil), u.ProjectIDs...)
	return &cp
}

func copyProject(p *store.Project) *store.Project {
	cp := *p
	cp.Members = append([]store.Member(nil), p.Members...)
	cp.TaskIDs = append([]string(nil), p.TaskIDs...)
	cp.MilestoneIDs = append([]string(nil), p.MilestoneIDs...)
	return &cp
}

func copyTask(t *store.Task) *store.Task {
	cp := *t
	cp.Tags = append([]string(nil), t.Tags...)
	cp.DependencyIDs = append([]string(nil), t.DependencyIDs...)
	cp.Comments = append([]store.Comment(nil), t.Comments...)
	if t.DueDate != nil {
		due := *t.DueDate
		cp.DueDate = &due
	}
	return &cp
}

func copyMilestone(ms *store.Milestone) *store.Milestone {
	cp := *ms
	cp.TaskIDs = append([]string(nil), ms.TaskIDs...)
	if ms.CompletedAt != nil {
		done := *ms.CompletedAt
		cp.CompletedAt = &done
	}
	return &cp
}
