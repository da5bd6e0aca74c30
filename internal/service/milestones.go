package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/teamsphere/teamsphere-server/internal/store"
)

// Milestones implements milestone CRUD and the bidirectional task links.
type Milestones struct {
	st  store.Store
	log *zerolog.Logger
}

// NewMilestones creates the milestone service.
func NewMilestones(st store.Store, logger *zerolog.Logger) *Milestones {
	return &Milestones{st: st, log: logger}
}

// CreateMilestoneInput carries the fields of a milestone creation request.
type CreateMilestoneInput struct {
	ProjectID   string    `json:"projectId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
}

// UpdateMilestoneInput carries partial milestone updates; nil means
// unchanged. Completed toggles the completion timestamp.
type UpdateMilestoneInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Completed   *bool      `json:"completed"`
}

// ListByProject returns the project's milestones with progress computed
// from task statuses. The caller must be a member.
func (s *Milestones) ListByProject(ctx context.Context, userID, projectID string) ([]*MilestoneView, error) {
	p, err := s.st.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !IsMember(p, userID) {
		return nil, ErrAccessDenied
	}

	milestones, err := s.st.ListMilestonesByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	statuses, err := s.taskStatuses(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, m := range milestones {
		ids = append(ids, m.CreatedBy)
	}
	refs, err := userRefs(ctx, s.st, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*MilestoneView, 0, len(milestones))
	for _, m := range milestones {
		done, total := milestoneProgress(m, statuses)
		out = append(out, milestoneView(m, refs, done, total))
	}
	return out, nil
}

// Create creates a milestone in the project and records the feed entry.
func (s *Milestones) Create(ctx context.Context, userID string, in CreateMilestoneInput) (*MilestoneView, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationf("title is required")
	}
	if in.ProjectID == "" {
		return nil, validationf("projectId is required")
	}
	if in.DueDate.IsZero() {
		return nil, validationf("dueDate is required")
	}

	p, err := s.st.GetProjectByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if !IsMember(p, userID) {
		return nil, ErrAccessDenied
	}

	m := &store.Milestone{
		Title:       title,
		Description: in.Description,
		ProjectID:   in.ProjectID,
		DueDate:     in.DueDate,
		CreatedBy:   userID,
	}
	if err := s.st.CreateMilestone(ctx, m); err != nil {
		return nil, err
	}
	if err := s.st.AddProjectMilestone(ctx, in.ProjectID, m.ID); err != nil {
		s.log.Warn().Err(err).Str("milestone_id", m.ID).Msg("link milestone to project")
	}

	if err := s.st.CreateActivity(ctx, &store.Activity{
		UserID:      userID,
		ProjectID:   m.ProjectID,
		Type:        store.ActivityMilestoneCreated,
		Description: fmt.Sprintf("created milestone %q", m.Title),
		Meta:        store.ActivityMeta{MilestoneID: m.ID},
	}); err != nil {
		s.log.Warn().Err(err).Str("milestone_id", m.ID).Msg("record activity")
	}

	return s.expand(ctx, m)
}

// Update modifies milestone fields. Marking a milestone completed
// timestamps it and notifies the other project members.
func (s *Milestones) Update(ctx context.Context, userID, milestoneID string, in UpdateMilestoneInput) (*MilestoneView, error) {
	m, p, err := s.loadMilestone(ctx, userID, milestoneID)
	if err != nil {
		return nil, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, validationf("title cannot be empty")
	}

	upd := store.MilestoneUpdate{
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
	}
	completing := false
	if in.Completed != nil {
		if *in.Completed {
			completing = m.CompletedAt == nil
			now := time.Now()
			upd.CompletedAt = &now
		} else {
			upd.ClearCompleted = true
		}
	}

	updated, err := s.st.UpdateMilestone(ctx, milestoneID, upd)
	if err != nil {
		return nil, err
	}

	if completing {
		for _, member := range p.Members {
			if member.UserID == userID {
				continue
			}
			if err := s.st.CreateNotification(ctx, &store.Notification{
				UserID:    member.UserID,
				ProjectID: p.ID,
				Type:      store.NotificationMilestoneCompleted,
				Title:     "Milestone completed",
				Message:   fmt.Sprintf("Milestone %q was completed", updated.Title),
				Meta:      store.NotificationMeta{MilestoneID: milestoneID, FromUserID: userID},
			}); err != nil {
				s.log.Warn().Err(err).Str("milestone_id", milestoneID).Msg("record completion notification")
			}
		}
	}

	return s.expand(ctx, updated)
}

// AddTask links a task into the milestone. Both sides of the link are
// updated; the task must belong to the same project.
func (s *Milestones) AddTask(ctx context.Context, userID, milestoneID, taskID string) (*MilestoneView, error) {
	m, _, err := s.loadMilestone(ctx, userID, milestoneID)
	if err != nil {
		return nil, err
	}

	t, err := s.st.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.ProjectID != m.ProjectID {
		return nil, validationf("task belongs to another project")
	}

	if err := s.st.AddMilestoneTask(ctx, milestoneID, taskID); err != nil {
		return nil, err
	}
	if err := s.st.SetTaskMilestone(ctx, taskID, milestoneID); err != nil {
		return nil, err
	}

	updated, err := s.st.GetMilestoneByID(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, updated)
}

// Delete removes the milestone, unlinking it from the project and from
// every task that referenced it.
func (s *Milestones) Delete(ctx context.Context, userID, milestoneID string) error {
	m, _, err := s.loadMilestone(ctx, userID, milestoneID)
	if err != nil {
		return err
	}

	if err := s.st.ClearMilestoneFromTasks(ctx, milestoneID); err != nil {
		return fmt.Errorf("unset task references: %w", err)
	}
	if err := s.st.RemoveProjectMilestone(ctx, m.ProjectID, milestoneID); err != nil {
		s.log.Warn().Err(err).Str("milestone_id", milestoneID).Msg("unlink milestone from project")
	}
	return s.st.DeleteMilestone(ctx, milestoneID)
}

// loadMilestone fetches the milestone and its project and enforces
// membership.
func (s *Milestones) loadMilestone(ctx context.Context, userID, milestoneID string) (*store.Milestone, *store.Project, error) {
	m, err := s.st.GetMilestoneByID(ctx, milestoneID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.st.GetProjectByID(ctx, m.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if !IsMember(p, userID) {
		return nil, nil, ErrAccessDenied
	}
	return m, p, nil
}

func (s *Milestones) expand(ctx context.Context, m *store.Milestone) (*MilestoneView, error) {
	statuses, err := s.taskStatuses(ctx, m.ProjectID)
	if err != nil {
		return nil, err
	}
	refs, err := userRefs(ctx, s.st, []string{m.CreatedBy})
	if err != nil {
		return nil, err
	}
	done, total := milestoneProgress(m, statuses)
	return milestoneView(m, refs, done, total), nil
}

func (s *Milestones) taskStatuses(ctx context.Context, projectID string) (map[string]store.TaskStatus, error) {
	tasks, err := s.st.ListTasksByProject(ctx, projectID, store.TaskFilter{})
	if err != nil {
		return nil, err
	}
	statuses := make(map[string]store.TaskStatus, len(tasks))
	for _, t := range tasks {
		statuses[t.ID] = t.Status
	}
	return statuses, nil
}
