package service

import (
	"context"
	"fmt"
	"time"

	"github.com/teamsphere/teamsphere-server/internal/store"
)

// MemberView is a membership entry with the user reference expanded.
type MemberView struct {
	User     *store.UserRef `json:"user"`
	Role     store.Role     `json:"role"`
	JoinedAt time.Time      `json:"joinedAt"`
}

// SettingsView exposes project settings.
type SettingsView struct {
	AllowMemberInvites  bool               `json:"allowMemberInvites"`
	DefaultTaskPriority store.TaskPriority `json:"defaultTaskPriority"`
}

// ProjectView is the API shape of a project.
type ProjectView struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	PrimaryLanguage string         `json:"primaryLanguage,omitempty"`
	Color           string         `json:"color,omitempty"`
	Owner           *store.UserRef `json:"owner"`
	Members         []MemberView   `json:"members"`
	TaskIDs         []string       `json:"taskIds"`
	MilestoneIDs    []string       `json:"milestoneIds"`
	Settings        SettingsView   `json:"settings"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// ProjectDetailView is a project with its tasks and milestones expanded.
type ProjectDetailView struct {
	ProjectView
	Tasks      []*TaskView      `json:"tasks"`
	Milestones []*MilestoneView `json:"milestones"`
}

// CommentView is a task comment with the author expanded.
type CommentView struct {
	User      *store.UserRef `json:"user"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
}

// TaskView is the API shape of a task.
type TaskView struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Description    string             `json:"description,omitempty"`
	ProjectID      string             `json:"projectId"`
	Assignee       *store.UserRef     `json:"assignee,omitempty"`
	Creator        *store.UserRef     `json:"creator,omitempty"`
	Status         store.TaskStatus   `json:"status"`
	Priority       store.TaskPriority `json:"priority"`
	Tags           []string           `json:"tags,omitempty"`
	DueDate        *time.Time         `json:"dueDate,omitempty"`
	MilestoneID    string             `json:"milestoneId,omitempty"`
	DependencyIDs  []string           `json:"dependencyIds,omitempty"`
	Comments       []CommentView      `json:"comments"`
	EstimatedHours float64            `json:"estimatedHours,omitempty"`
	ActualHours    float64            `json:"actualHours,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// MilestoneView is the API shape of a milestone. Progress is the percentage
// of its tasks in the done state.
type MilestoneView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	ProjectID   string         `json:"projectId"`
	DueDate     time.Time      `json:"dueDate"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	TaskIDs     []string       `json:"taskIds"`
	CreatedBy   *store.UserRef `json:"createdBy,omitempty"`
	Progress    int            `json:"progress"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// NotificationView is the API shape of a notification.
type NotificationView struct {
	ID        string                 `json:"id"`
	ProjectID string                 `json:"projectId,omitempty"`
	Type      store.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Read      bool                   `json:"read"`
	Meta      NotificationMetaView   `json:"meta"`
	CreatedAt time.Time              `json:"createdAt"`
}

// NotificationMetaView carries related entity references.
type NotificationMetaView struct {
	TaskID      string `json:"taskId,omitempty"`
	MilestoneID string `json:"milestoneId,omitempty"`
	FromUserID  string `json:"fromUserId,omitempty"`
}

// ActivityView is the API shape of an activity feed entry.
type ActivityView struct {
	ID          string             `json:"id"`
	User        *store.UserRef     `json:"user"`
	ProjectID   string             `json:"projectId"`
	Type        store.ActivityType `json:"type"`
	Description string             `json:"description"`
	Meta        ActivityMetaView   `json:"meta"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// ActivityMetaView carries related references and old/new values.
type ActivityMetaView struct {
	TaskID      string `json:"taskId,omitempty"`
	MilestoneID string `json:"milestoneId,omitempty"`
	OldValue    string `json:"oldValue,omitempty"`
	NewValue    string `json:"newValue,omitempty"`
}

// userRefs resolves ids into lightweight user references. Unknown ids are
// simply absent from the result.
func userRefs(ctx context.Context, users store.UserStore, ids []string) (map[string]*store.UserRef, error) {
	uniq := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	if len(uniq) == 0 {
		return map[string]*store.UserRef{}, nil
	}

	found, err := users.GetUsersByIDs(ctx, uniq)
	if err != nil {
		return nil, fmt.Errorf("resolve users: %w", err)
	}
	out := make(map[string]*store.UserRef, len(found))
	for id, u := range found {
		out[id] = u.Ref()
	}
	return out, nil
}

func projectView(p *store.Project, refs map[string]*store.UserRef) *ProjectView {
	members := make([]MemberView, 0, len(p.Members))
	for _, m := range p.Members {
		members = append(members, MemberView{
			User:     refs[m.UserID],
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
	}
	return &ProjectView{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		PrimaryLanguage: p.PrimaryLanguage,
		Color:           p.Color,
		Owner:           refs[p.OwnerID],
		Members:         members,
		TaskIDs:         emptyIfNil(p.TaskIDs),
		MilestoneIDs:    emptyIfNil(p.MilestoneIDs),
		Settings: SettingsView{
			AllowMemberInvites:  p.Settings.AllowMemberInvites,
			DefaultTaskPriority: p.Settings.DefaultTaskPriority,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func taskView(t *store.Task, refs map[string]*store.UserRef) *TaskView {
	comments := make([]CommentView, 0, len(t.Comments))
	for _, c := range t.Comments {
		comments = append(comments, CommentView{
			User:      refs[c.UserID],
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	return &TaskView{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		ProjectID:      t.ProjectID,
		Assignee:       refs[t.AssigneeID],
		Creator:        refs[t.CreatorID],
		Status:         t.Status,
		Priority:       t.Priority,
		Tags:           t.Tags,
		DueDate:        t.DueDate,
		MilestoneID:    t.MilestoneID,
		DependencyIDs:  t.DependencyIDs,
		Comments:       comments,
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// taskUserIDs collects the user ids a task view needs resolved.
func taskUserIDs(t *store.Task) []string {
	ids := []string{t.AssigneeID, t.CreatorID}
	for _, c := range t.Comments {
		ids = append(ids, c.UserID)
	}
	return ids
}

func milestoneView(m *store.Milestone, refs map[string]*store.UserRef, done, total int) *MilestoneView {
	progress := 0
	if total > 0 {
		progress = done * 100 / total
	}
	return &MilestoneView{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		ProjectID:   m.ProjectID,
		DueDate:     m.DueDate,
		CompletedAt: m.CompletedAt,
		TaskIDs:     emptyIfNil(m.TaskIDs),
		CreatedBy:   refs[m.CreatedBy],
		Progress:    progress,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func notificationView(n *store.Notification) *NotificationView {
	return &NotificationView{
		ID:        n.ID,
		ProjectID: n.ProjectID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		Meta: NotificationMetaView{
			TaskID:      n.Meta.TaskID,
			MilestoneID: n.Meta.MilestoneID,
			FromUserID:  n.Meta.FromUserID,
		},
		CreatedAt: n.CreatedAt,
	}
}

func activityView(a *store.Activity, refs map[string]*store.UserRef) *ActivityView {
	return &ActivityView{
		ID:          a.ID,
		User:        refs[a.UserID],
		ProjectID:   a.ProjectID,
		Type:        a.Type,
		Description: a.Description,
		Meta: ActivityMetaView{
			TaskID:      a.Meta.TaskID,
			MilestoneID: a.Meta.MilestoneID,
			OldValue:    a.Meta.OldValue,
			NewValue:    a.Meta.NewValue,
		},
		CreatedAt: a.CreatedAt,
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
