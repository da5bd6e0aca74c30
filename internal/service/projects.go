package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/teamsphere/teamsphere-server/internal/store"
)

// Projects implements project CRUD, membership and shared notes.
type Projects struct {
	st  store.Store
	log *zerolog.Logger
}

// NewProjects creates the project service.
func NewProjects(st store.Store, logger *zerolog.Logger) *Projects {
	return &Projects{st: st, log: logger}
}

// CreateProjectInput carries the fields of a project creation request.
type CreateProjectInput struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	PrimaryLanguage string `json:"primaryLanguage"`
	Color           string `json:"color"`
}

// UpdateProjectInput carries partial project updates; nil means unchanged.
type UpdateProjectInput struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	PrimaryLanguage *string `json:"primaryLanguage"`
	Color           *string `json:"color"`
}

// List returns the projects the user owns or is a member of.
func (s *Projects) List(ctx context.Context, userID string) ([]*ProjectView, error) {
	projects, err := s.st.ListProjectsByMember(ctx, userID)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, p := range projects {
		ids = append(ids, p.OwnerID)
		for _, m := range p.Members {
			ids = append(ids, m.UserID)
		}
	}
	refs, err := userRefs(ctx, s.st, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*ProjectView, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectView(p, refs))
	}
	return out, nil
}

// Get returns a project with its tasks and milestones expanded. The caller
// must be a member.
func (s *Projects) Get(ctx context.Context, userID, projectID string) (*ProjectDetailView, error) {
	p, err := s.st.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !IsMember(p, userID) {
		return nil, ErrAccessDenied
	}

	tasks, err := s.st.ListTasksByProject(ctx, projectID, store.TaskFilter{})
	if err != nil {
		return nil, err
	}
	milestones, err := s.st.ListMilestonesByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	ids := []string{p.OwnerID}
	for _, m := range p.Members {
		ids = append(ids, m.UserID)
	}
	for _, t := range tasks {
		ids = append(ids, taskUserIDs(t)...)
	}
	for _, m := range milestones {
		ids = append(ids, m.CreatedBy)
	}
	refs, err := userRefs(ctx, s.st, ids)
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]store.TaskStatus, len(tasks))
	taskViews := make([]*TaskView, 0, len(tasks))
	for _, t := range tasks {
		statuses[t.ID] = t.Status
		taskViews = append(taskViews, taskView(t, refs))
	}
	milestoneViews := make([]*MilestoneView, 0, len(milestones))
	for _, m := range milestones {
		done, total := milestoneProgress(m, statuses)
		milestoneViews = append(milestoneViews, milestoneView(m, refs, done, total))
	}

	return &ProjectDetailView{
		ProjectView: *projectView(p, refs),
		Tasks:       taskViews,
		Milestones:  milestoneViews,
	}, nil
}

// Create creates a project owned by the acting user.
func (s *Projects) Create(ctx context.Context, userID string, in CreateProjectInput) (*ProjectView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("name is required")
	}

	p := &store.Project{
		Name:            name,
		Description:     in.Description,
		PrimaryLanguage: in.PrimaryLanguage,
		Color:           in.Color,
		OwnerID:         userID,
		Members: []store.Member{
			{UserID: userID, Role: store.RoleOwner, JoinedAt: time.Now()},
		},
		Settings: store.ProjectSettings{
			AllowMemberInvites:  true,
			DefaultTaskPriority: store.PriorityMedium,
		},
	}
	if err := s.st.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	if err := s.st.AddUserProject(ctx, userID, p.ID); err != nil {
		s.log.Warn().Err(err).Str("project_id", p.ID).Msg("link project to owner")
	}

	s.recordActivity(ctx, &store.Activity{
		UserID:      userID,
		ProjectID:   p.ID,
		Type:        store.ActivityProjectCreated,
		Description: fmt.Sprintf("created project %q", p.Name),
	})

	refs, err := userRefs(ctx, s.st, []string{userID})
	if err != nil {
		return nil, err
	}
	return projectView(p, refs), nil
}

// Update modifies project fields. Only managers may update.
func (s *Projects) Update(ctx context.Context, userID, projectID string, in UpdateProjectInput) (*ProjectView, error) {
	p, err := s.st.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !CanManage(p, userID) {
		return nil, ErrAccessDenied
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, validationf("name cannot be empty")
	}

	p, err = s.st.UpdateProject(ctx, projectID, store.ProjectUpdate{
		Name:            in.Name,
		Description:     in.Description,
		PrimaryLanguage: in.PrimaryLanguage,
		Color:           in.Color,
	})
	if err != nil {
		return nil, err
	}

	ids := []string{p.OwnerID}
	for _, m := range p.Members {
		ids = append(ids, m.UserID)
	}
	refs, err := userRefs(ctx, s.st, ids)
	if err != nil {
		return nil, err
	}
	return projectView(p, refs), nil
}

// AddMember adds a user to the project by email. Only managers may invite.
func (s *Projects) AddMember(ctx context.Context, userID, projectID, email string, role store.Role) (*ProjectView, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, validationf("email is required")
	}
	if role == "" {
		role = store.RoleMember
	}
	if role != store.RoleMember && role != store.RoleAdmin {
		return nil, validationf("role must be member or admin")
	}

	p, err := s.st.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !CanManage(p, userID) {
		return nil, ErrAccessDenied
	}

	invitee, err := s.st.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if IsMember(p, invitee.ID) {
		return nil, validationf("user is already a member")
	}

	member := store.Member{UserID: invitee.ID, Role: role, JoinedAt: time.Now()}
	if err := s.st.AddProjectMember(ctx, projectID, member); err != nil {
		return nil, err
	}
	if err := s.st.AddUserProject(ctx, invitee.ID, projectID); err != nil {
		s.log.Warn().Err(err).Str("user_id", invitee.ID).Msg("link project to member")
	}

	s.recordActivity(ctx, &store.Activity{
		UserID:      userID,
		ProjectID:   projectID,
		Type:        store.ActivityProjectJoined,
		Description: fmt.Sprintf("added %s to the project", invitee.Name),
	})
	s.recordNotification(ctx, &store.Notification{
		UserID:    invitee.ID,
		ProjectID: projectID,
		Type:      store.NotificationProjectInvite,
		Title:     "Added to project",
		Message:   fmt.Sprintf("You were added to project %q", p.Name),
		Meta:      store.NotificationMeta{FromUserID: userID},
	})

	p, err = s.st.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ids := []string{p.OwnerID}
	for _, m := range p.Members {
		ids = append(ids, m.UserID)
	}
	refs, err := userRefs(ctx, s.st, ids)
	if err != nil {
		return nil, err
	}
	return projectView(p, refs), nil
}

// Delete removes the project and everything hanging off it. Owner only.
func (s *Projects) Delete(ctx context.Context, userID, projectID string) error {
	p, err := s.st.GetProjectByID(ctx, projectID)
	if err != nil {
		return err
	}
	if p.OwnerID != userID {
		return ErrAccessDenied
	}

	if err := s.st.DeleteTasksByProject(ctx, projectID); err != nil {
		return fmt.Errorf("cascade tasks: %w", err)
	}
	if err := s.st.DeleteMilestonesByProject(ctx, projectID); err != nil {
		return fmt.Errorf("cascade milestones: %w", err)
	}
	if err := s.st.DeleteActivitiesByProject(ctx, projectID); err != nil {
		return fmt.Errorf("cascade activities: %w", err)
	}
	if err := s.st.RemoveProjectFromUsers(ctx, projectID); err != nil {
		return fmt.Errorf("unlink members: %w", err)
	}
	return s.st.DeleteProject(ctx, projectID)
}

// GetNotes returns the project's shared notes. Member only.
func (s *Projects) GetNotes(ctx context.Context, userID, projectID string) (string, error) {
	p, err := s.st.GetProjectByID(ctx, projectID)
	if err != nil {
		return "", err
	}
	if !IsMember(p, userID) {
		return "", ErrAccessDenied
	}
	return p.Notes, nil
}

// UpdateNotes replaces the project's shared notes. Member only.
func (s *Projects) UpdateNotes(ctx context.Context, userID, projectID, notes string) (string, error) {
	p, err := s.st.GetProjectByID(ctx, projectID)
	if err != nil {
		return "", err
	}
	if !IsMember(p, userID) {
		return "", ErrAccessDenied
	}

	p, err = s.st.UpdateProject(ctx, projectID, store.ProjectUpdate{Notes: &notes})
	if err != nil {
		return "", err
	}

	s.recordActivity(ctx, &store.Activity{
		UserID:      userID,
		ProjectID:   projectID,
		Type:        store.ActivityNoteUpdated,
		Description: "updated project notes",
	})
	return p.Notes, nil
}

// Side effects are best-effort: a failed feed or notification write is
// logged, never surfaced to the caller.
func (s *Projects) recordActivity(ctx context.Context, a *store.Activity) {
	if err := s.st.CreateActivity(ctx, a); err != nil {
		s.log.Warn().Err(err).Str("project_id", a.ProjectID).Msg("record activity")
	}
}

func (s *Projects) recordNotification(ctx context.Context, n *store.Notification) {
	if err := s.st.CreateNotification(ctx, n); err != nil {
		s.log.Warn().Err(err).Str("user_id", n.UserID).Msg("record notification")
	}
}

// milestoneProgress counts done tasks among the milestone's linked tasks.
func milestoneProgress(m *store.Milestone, statuses map[string]store.TaskStatus) (done, total int) {
	for _, id := range m.TaskIDs {
		st, ok := statuses[id]
		if !ok {
			continue
		}
		total++
		if st == store.StatusDone {
			done++
		}
	}
	return done, total
}
