package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/teamsphere/teamsphere-server/internal/store"
)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Avatar       string             `bson:"avatar,omitempty"`
	ProjectIDs   []string           `bson:"project_ids,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (d *userDoc) toDomain() *store.User {
	return &store.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Avatar:       d.Avatar,
		ProjectIDs:   d.ProjectIDs,
		CreatedAt:    d.CreatedAt,
	}
}

type memberDoc struct {
	UserID   string    `bson:"user_id"`
	Role     string    `bson:"role"`
	JoinedAt time.Time `bson:"joined_at"`
}

type projectSettingsDoc struct {
	AllowMemberInvites  bool   `bson:"allow_member_invites"`
	DefaultTaskPriority string `bson:"default_task_priority"`
}

type projectDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Name            string             `bson:"name"`
	Description     string             `bson:"description,omitempty"`
	PrimaryLanguage string             `bson:"primary_language,omitempty"`
	Color           string             `bson:"color,omitempty"`
	OwnerID         string             `bson:"owner_id"`
	Members         []memberDoc        `bson:"members"`
	TaskIDs         []string           `bson:"task_ids,omitempty"`
	MilestoneIDs    []string           `bson:"milestone_ids,omitempty"`
	Notes           string             `bson:"notes,omitempty"`
	Settings        projectSettingsDoc `bson:"settings"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

func (d *projectDoc) toDomain() *store.Project {
	members := make([]store.Member, 0, len(d.Members))
	for _, m := range d.Members {
		members = append(members, store.Member{
			UserID:   m.UserID,
			Role:     store.Role(m.Role),
			JoinedAt: m.JoinedAt,
		})
	}
	return &store.Project{
		ID:              d.ID.Hex(),
		Name:            d.Name,
		Description:     d.Description,
		PrimaryLanguage: d.PrimaryLanguage,
		Color:           d.Color,
		OwnerID:         d.OwnerID,
		Members:         members,
		TaskIDs:         d.TaskIDs,
		MilestoneIDs:    d.MilestoneIDs,
		Notes:           d.Notes,
		Settings: store.ProjectSettings{
			AllowMemberInvites:  d.Settings.AllowMemberInvites,
			DefaultTaskPriority: store.TaskPriority(d.Settings.DefaultTaskPriority),
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func projectToDoc(p *store.Project) *projectDoc {
	members := make([]memberDoc, 0, len(p.Members))
	for _, m := range p.Members {
		members = append(members, memberDoc{
			UserID:   m.UserID,
			Role:     string(m.Role),
			JoinedAt: m.JoinedAt,
		})
	}
	return &projectDoc{
		Name:            p.Name,
		Description:     p.Description,
		PrimaryLanguage: p.PrimaryLanguage,
		Color:           p.Color,
		OwnerID:         p.OwnerID,
		Members:         members,
		TaskIDs:         p.TaskIDs,
		MilestoneIDs:    p.MilestoneIDs,
		Notes:           p.Notes,
		Settings: projectSettingsDoc{
			AllowMemberInvites:  p.Settings.AllowMemberInvites,
			DefaultTaskPriority: string(p.Settings.DefaultTaskPriority),
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type commentDoc struct {
	UserID    string    `bson:"user_id"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
}

type taskDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Title          string             `bson:"title"`
	Description    string             `bson:"description,omitempty"`
	ProjectID      string             `bson:"project_id"`
	AssigneeID     string             `bson:"assignee_id,omitempty"`
	CreatorID      string             `bson:"creator_id"`
	Status         string             `bson:"status"`
	Priority       string             `bson:"priority"`
	Tags           []string           `bson:"tags,omitempty"`
	DueDate        *time.Time         `bson:"due_date,omitempty"`
	MilestoneID    string             `bson:"milestone_id,omitempty"`
	DependencyIDs  []string           `bson:"dependency_ids,omitempty"`
	Comments       []commentDoc       `bson:"comments,omitempty"`
	EstimatedHours float64            `bson:"estimated_hours,omitempty"`
	ActualHours    float64            `bson:"actual_hours,omitempty"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func (d *taskDoc) toDomain() *store.Task {
	comments := make([]store.Comment, 0, len(d.Comments))
	for _, c := range d.Comments {
		comments = append(comments, store.Comment{
			UserID:    c.UserID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	return &store.Task{
		ID:             d.ID.Hex(),
		Title:          d.Title,
		Description:    d.Description,
		ProjectID:      d.ProjectID,
		AssigneeID:     d.AssigneeID,
		CreatorID:      d.CreatorID,
		Status:         store.TaskStatus(d.Status),
		Priority:       store.TaskPriority(d.Priority),
		Tags:           d.Tags,
		DueDate:        d.DueDate,
		MilestoneID:    d.MilestoneID,
		DependencyIDs:  d.DependencyIDs,
		Comments:       comments,
		EstimatedHours: d.EstimatedHours,
		ActualHours:    d.ActualHours,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func taskToDoc(t *store.Task) *taskDoc {
	comments := make([]commentDoc, 0, len(t.Comments))
	for _, c := range t.Comments {
		comments = append(comments, commentDoc{
			UserID:    c.UserID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	return &taskDoc{
		Title:          t.Title,
		Description:    t.Description,
		ProjectID:      t.ProjectID,
		AssigneeID:     t.AssigneeID,
		CreatorID:      t.CreatorID,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
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

type milestoneDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	ProjectID   string             `bson:"project_id"`
	DueDate     time.Time          `bson:"due_date"`
	CompletedAt *time.Time         `bson:"completed_at,omitempty"`
	TaskIDs     []string           `bson:"task_ids,omitempty"`
	CreatedBy   string             `bson:"created_by"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d *milestoneDoc) toDomain() *store.Milestone {
	return &store.Milestone{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		ProjectID:   d.ProjectID,
		DueDate:     d.DueDate,
		CompletedAt: d.CompletedAt,
		TaskIDs:     d.TaskIDs,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type notificationMetaDoc struct {
	TaskID      string `bson:"task_id,omitempty"`
	MilestoneID string `bson:"milestone_id,omitempty"`
	FromUserID  string `bson:"from_user_id,omitempty"`
}

type notificationDoc struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	UserID    string              `bson:"user_id"`
	ProjectID string              `bson:"project_id,omitempty"`
	Type      string              `bson:"type"`
	Title     string              `bson:"title"`
	Message   string              `bson:"message"`
	Read      bool                `bson:"read"`
	Meta      notificationMetaDoc `bson:"meta,omitempty"`
	CreatedAt time.Time           `bson:"created_at"`
}

func (d *notificationDoc) toDomain() *store.Notification {
	return &store.Notification{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		ProjectID: d.ProjectID,
		Type:      store.NotificationType(d.Type),
		Title:     d.Title,
		Message:   d.Message,
		Read:      d.Read,
		Meta: store.NotificationMeta{
			TaskID:      d.Meta.TaskID,
			MilestoneID: d.Meta.MilestoneID,
			FromUserID:  d.Meta.FromUserID,
		},
		CreatedAt: d.CreatedAt,
	}
}

type activityMetaDoc struct {
	TaskID      string `bson:"task_id,omitempty"`
	MilestoneID string `bson:"milestone_id,omitempty"`
	OldValue    string `bson:"old_value,omitempty"`
	NewValue    string `bson:"new_value,omitempty"`
}

type activityDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"user_id"`
	ProjectID   string             `bson:"project_id"`
	Type        string             `bson:"type"`
	Description string             `bson:"description"`
	Meta        activityMetaDoc    `bson:"meta,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func (d *activityDoc) toDomain() *store.Activity {
	return &store.Activity{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		ProjectID:   d.ProjectID,
		Type:        store.ActivityType(d.Type),
		Description: d.Description,
		Meta: store.ActivityMeta{
			TaskID:      d.Meta.TaskID,
			MilestoneID: d.Meta.MilestoneID,
			OldValue:    d.Meta.OldValue,
			NewValue:    d.Meta.NewValue,
		},
		CreatedAt: d.CreatedAt,
	}
}
