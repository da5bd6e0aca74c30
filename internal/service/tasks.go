package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/teamsphere/teamsphere-server/internal/store"
)

// Tasks implements task CRUD, comments and the related feed and
// notification side effects.
type Tasks struct {
	st  store.Store
	log *zerolog.Logger
}

// NewTasks creates the task service.
func NewTasks(st store.Store, logger *zerolog.Logger) *Tasks {
	return &Tasks{st: st, log: logger}
}

// CreateTaskInput carries the fields of a task creation request.
type CreateTaskInput struct {
	ProjectID      string             `json:"projectId"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	AssigneeID     string             `json:"assigneeId"`
	Priority       store.TaskPriority `json:"priority"`
	Tags           []string           `json:"tags"`
	DueDate        *time.Time         `json:"dueDate"`
	MilestoneID    string             `json:"milestoneId"`
	DependencyIDs  []string           `json:"dependencyIds"`
	EstimatedHours float64            `json:"estimatedHours"`
}

// UpdateTaskInput carries partial task updates; nil means unchanged. An
// empty AssigneeID or MilestoneID clears the reference.
type UpdateTaskInput struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	AssigneeID    *string    `json:"assigneeId"`
	Status        *string    `json:"status"`
	Priority      *string    `json:"priority"`
	DueDate       *time.Time `json:"dueDate"`
	ClearDueDate  bool       `json:"clearDueDate"`
	MilestoneID   *string    `json:"milestoneId"`
	Tags          *[]string  `json:"tags"`
	DependencyIDs *[]string  `json:"dependencyIds"`
}

// ListByProject returns the project's tasks with optional filters. The
// caller must be a member.
func (s *Tasks) ListByProject(ctx context.Context, userID, projectID string, f store.TaskFilter) ([]*TaskView, error) {
	p, err := s.st.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !IsMember(p, userID) {
		return nil, ErrAccessDenied
	}

	tasks, err := s.st.ListTasksByProject(ctx, projectID, f)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, t := range tasks {
		ids = append(ids, taskUserIDs(t)...)
	}
	refs, err := userRefs(ctx, s.st, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*TaskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskView(t, refs))
	}
	return out, nil
}

// Get returns a single task. The caller must be a member of its project.
func (s *Tasks) Get(ctx context.Context, userID, taskID string) (*TaskView, error) {
	t, _, err := s.loadTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, t)
}

// Create creates a task in the project, records the feed entry and
// notifies the assignee.
func (s *Tasks) Create(ctx context.Context, userID string, in CreateTaskInput) (*TaskView, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationf("title is required")
	}
	if in.ProjectID == "" {
		return nil, validationf("projectId is required")
	}

	p, err := s.st.GetProjectByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if !IsMember(p, userID) {
		return nil, ErrAccessDenied
	}
	if in.AssigneeID != "" && !IsMember(p, in.AssigneeID) {
		return nil, validationf("assignee is not a project member")
	}

	priority := in.Priority
	if priority == "" {
		priority = p.Settings.DefaultTaskPriority
	}
	if priority == "" {
		priority = store.PriorityMedium
	}

	if in.MilestoneID != "" {
		ms, err := s.st.GetMilestoneByID(ctx, in.MilestoneID)
		if err != nil {
			return nil, err
		}
		if ms.ProjectID != in.ProjectID {
			return nil, validationf("milestone belongs to another project")
		}
	}

	t := &store.Task{
		Title:          title,
		Description:    in.Description,
		ProjectID:      in.ProjectID,
		AssigneeID:     in.AssigneeID,
		CreatorID:      userID,
		Status:         store.StatusTodo,
		Priority:       priority,
		Tags:           in.Tags,
		DueDate:        in.DueDate,
		MilestoneID:    in.MilestoneID,
		DependencyIDs:  in.DependencyIDs,
		EstimatedHours: in.EstimatedHours,
	}
	if err := s.st.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	if err := s.st.AddProjectTask(ctx, in.ProjectID, t.ID); err != nil {
		s.log.Warn().Err(err).Str("task_id", t.ID).Msg("link task to project")
	}
	if in.MilestoneID != "" {
		if err := s.st.AddMilestoneTask(ctx, in.MilestoneID, t.ID); err != nil {
			s.log.Warn().Err(err).Str("task_id", t.ID).Msg("link task to milestone")
		}
	}

	s.recordActivity(ctx, &store.Activity{
		UserID:      userID,
		ProjectID:   t.ProjectID,
		Type:        store.ActivityTaskCreated,
		Description: fmt.Sprintf("created task %q", t.Title),
		Meta:        store.ActivityMeta{TaskID: t.ID},
	})
	if t.AssigneeID != "" && t.AssigneeID != userID {
		s.notifyAssigned(ctx, t, userID)
	}

	return s.expand(ctx, t)
}

// Update modifies task fields and records status and assignment side
// effects.
func (s *Tasks) Update(ctx context.Context, userID, taskID string, in UpdateTaskInput) (*TaskView, error) {
	t, p, err := s.loadTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, validationf("title cannot be empty")
	}
	if in.Status != nil && !validStatus(*in.Status) {
		return nil, validationf("unknown status %q", *in.Status)
	}
	if in.Priority != nil && !validPriority(*in.Priority) {
		return nil, validationf("unknown priority %q", *in.Priority)
	}
	if in.AssigneeID != nil && *in.AssigneeID != "" && !IsMember(p, *in.AssigneeID) {
		return nil, validationf("assignee is not a project member")
	}
	if in.MilestoneID != nil && *in.MilestoneID != "" {
		ms, err := s.st.GetMilestoneByID(ctx, *in.MilestoneID)
		if err != nil {
			return nil, err
		}
		if ms.ProjectID != t.ProjectID {
			return nil, validationf("milestone belongs to another project")
		}
	}

	updated, err := s.st.UpdateTask(ctx, taskID, store.TaskUpdate{
		Title:         in.Title,
		Description:   in.Description,
		AssigneeID:    in.AssigneeID,
		Status:        in.Status,
		Priority:      in.Priority,
		DueDate:       in.DueDate,
		ClearDueDate:  in.ClearDueDate,
		MilestoneID:   in.MilestoneID,
		Tags:          in.Tags,
		DependencyIDs: in.DependencyIDs,
	})
	if err != nil {
		return nil, err
	}

	// Keep the milestone's task list in step with the back-reference.
	if in.MilestoneID != nil && *in.MilestoneID != t.MilestoneID {
		if t.MilestoneID != "" {
			if err := s.st.RemoveMilestoneTask(ctx, t.MilestoneID, taskID); err != nil {
				s.log.Warn().Err(err).Str("task_id", taskID).Msg("unlink task from milestone")
			}
		}
		if *in.MilestoneID != "" {
			if err := s.st.AddMilestoneTask(ctx, *in.MilestoneID, taskID); err != nil {
				s.log.Warn().Err(err).Str("task_id", taskID).Msg("link task to milestone")
			}
		}
	}

	if in.Status != nil && *in.Status != string(t.Status) {
		kind := store.ActivityTaskUpdated
		desc := fmt.Sprintf("moved task %q to %s", updated.Title, *in.Status)
		if store.TaskStatus(*in.Status) == store.StatusDone {
			kind = store.ActivityTaskCompleted
			desc = fmt.Sprintf("completed task %q", updated.Title)
		}
		s.recordActivity(ctx, &store.Activity{
			UserID:      userID,
			ProjectID:   updated.ProjectID,
			Type:        kind,
			Description: desc,
			Meta: store.ActivityMeta{
				TaskID:   taskID,
				OldValue: string(t.Status),
				NewValue: *in.Status,
			},
		})
	}
	if in.AssigneeID != nil && *in.AssigneeID != "" &&
		*in.AssigneeID != t.AssigneeID && *in.AssigneeID != userID {
		s.notifyAssigned(ctx, updated, userID)
	}

	return s.expand(ctx, updated)
}

// AddComment appends a comment and records the feed entry.
func (s *Tasks) AddComment(ctx context.Context, userID, taskID, content string) (*TaskView, error) {
	if strings.TrimSpace(content) == "" {
		return nil, validationf("content is required")
	}

	t, _, err := s.loadTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	updated, err := s.st.AddTaskComment(ctx, taskID, store.Comment{
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	s.recordActivity(ctx, &store.Activity{
		UserID:      userID,
		ProjectID:   t.ProjectID,
		Type:        store.ActivityCommentAdded,
		Description: fmt.Sprintf("commented on task %q", t.Title),
		Meta:        store.ActivityMeta{TaskID: taskID},
	})
	return s.expand(ctx, updated)
}

// Delete removes the task and its project/milestone references.
func (s *Tasks) Delete(ctx context.Context, userID, taskID string) error {
	t, _, err := s.loadTask(ctx, userID, taskID)
	if err != nil {
		return err
	}

	if err := s.st.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	if err := s.st.RemoveProjectTask(ctx, t.ProjectID, taskID); err != nil {
		s.log.Warn().Err(err).Str("task_id", taskID).Msg("unlink task from project")
	}
	if t.MilestoneID != "" {
		if err := s.st.RemoveMilestoneTask(ctx, t.MilestoneID, taskID); err != nil {
			s.log.Warn().Err(err).Str("task_id", taskID).Msg("unlink task from milestone")
		}
	}
	return nil
}

// loadTask fetches the task and its project and enforces membership.
func (s *Tasks) loadTask(ctx context.Context, userID, taskID string) (*store.Task, *store.Project, error) {
	t, err := s.st.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.st.GetProjectByID(ctx, t.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if !IsMember(p, userID) {
		return nil, nil, ErrAccessDenied
	}
	return t, p, nil
}

func (s *Tasks) expand(ctx context.Context, t *store.Task) (*TaskView, error) {
	refs, err := userRefs(ctx, s.st, taskUserIDs(t))
	if err != nil {
		return nil, err
	}
	return taskView(t, refs), nil
}

func (s *Tasks) notifyAssigned(ctx context.Context, t *store.Task, fromUserID string) {
	err := s.st.CreateNotification(ctx, &store.Notification{
		UserID:    t.AssigneeID,
		ProjectID: t.ProjectID,
		Type:      store.NotificationTaskAssigned,
		Title:     "Task assigned",
		Message:   fmt.Sprintf("You were assigned task %q", t.Title),
		Meta:      store.NotificationMeta{TaskID: t.ID, FromUserID: fromUserID},
	})
	if err != nil {
		s.log.Warn().Err(err).Str("task_id", t.ID).Msg("record assignment notification")
	}
}

func (s *Tasks) recordActivity(ctx context.Context, a *store.Activity) {
	if err := s.st.CreateActivity(ctx, a); err != nil {
		s.log.Warn().Err(err).Str("project_id", a.ProjectID).Msg("record activity")
	}
}

func validStatus(v string) bool {
	switch store.TaskStatus(v) {
	case store.StatusTodo, store.StatusInProgress, store.StatusDone:
		return true
	}
	return false
}

func validPriority(v string) bool {
	switch store.TaskPriority(v) {
	case store.PriorityLow, store.PriorityMedium, store.PriorityHigh:
		return true
	}
	return false
}
