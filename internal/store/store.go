package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a referenced entity id does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned on unique constraint violations (e.g. email).
	ErrDuplicate = errors.New("duplicate")
)

// User represents a registered user.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Avatar       string
	ProjectIDs   []string
	CreatedAt    time.Time
}

// Ref returns the lightweight reference used in expanded API responses.
func (u *User) Ref() *UserRef {
	if u == nil {
		return nil
	}
	return &UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}

// UserRef is the subset of user fields embedded into related entities.
type UserRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// Role defines a member's role within a project.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Member is a project membership entry.
type Member struct {
	UserID   string
	Role     Role
	JoinedAt time.Time
}

// TaskPriority defines task priority levels.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// ProjectSettings holds per-project preferences.
type ProjectSettings struct {
	AllowMemberInvites  bool
	DefaultTaskPriority TaskPriority
}

// Project represents a collaboration project.
type Project struct {
	ID              string
	Name            string
	Description     string
	PrimaryLanguage string
	Color           string
	OwnerID         string
	Members         []Member
	TaskIDs         []string
	MilestoneIDs    []string
	Notes           string
	Settings        ProjectSettings
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TaskStatus defines the task workflow states.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
)

// Comment is a task discussion entry.
type Comment struct {
	UserID    string
	Content   string
	CreatedAt time.Time
}

// Task represents a unit of work within a project.
type Task struct {
	ID             string
	Title          string
	Description    string
	ProjectID      string
	AssigneeID     string
	CreatorID      string
	Status         TaskStatus
	Priority       TaskPriority
	Tags           []string
	DueDate        *time.Time
	MilestoneID    string
	DependencyIDs  []string
	Comments       []Comment
	EstimatedHours float64
	ActualHours    float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Milestone groups tasks toward a due date.
type Milestone struct {
	ID          string
	Title       string
	Description string
	ProjectID   string
	DueDate     time.Time
	CompletedAt *time.Time
	TaskIDs     []string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NotificationType enumerates notification kinds.
type NotificationType string

const (
	NotificationTaskAssigned       NotificationType = "task_assigned"
	NotificationTaskUpdated        NotificationType = "task_updated"
	NotificationProjectInvite      NotificationType = "project_invite"
	NotificationMilestoneCompleted NotificationType = "milestone_completed"
)

// NotificationMeta carries references related to a notification.
type NotificationMeta struct {
	TaskID      string
	MilestoneID string
	FromUserID  string
}

// Notification is a durable per-user alert.
type Notification struct {
	ID        string
	UserID    string
	ProjectID string
	Type      NotificationType
	Title     string
	Message   string
	Read      bool
	Meta      NotificationMeta
	CreatedAt time.Time
}

// ActivityType enumerates activity feed entry kinds.
type ActivityType string

const (
	ActivityProjectCreated   ActivityType = "project_created"
	ActivityProjectJoined    ActivityType = "project_joined"
	ActivityTaskCreated      ActivityType = "task_created"
	ActivityTaskUpdated      ActivityType = "task_updated"
	ActivityTaskCompleted    ActivityType = "task_completed"
	ActivityMilestoneCreated ActivityType = "milestone_created"
	ActivityCommentAdded     ActivityType = "comment_added"
	ActivityNoteUpdated      ActivityType = "note_updated"
)

// ActivityMeta carries references and old/new values for an activity entry.
type ActivityMeta struct {
	TaskID      string
	MilestoneID string
	OldValue    string
	NewValue    string
}

// Activity is a durable project feed entry.
type Activity struct {
	ID          string
	UserID      string
	ProjectID   string
	Type        ActivityType
	Description string
	Meta        ActivityMeta
	CreatedAt   time.Time
}

// ProjectUpdate holds partial project field updates; nil means unchanged.
type ProjectUpdate struct {
	Name            *string
	Description     *string
	PrimaryLanguage *string
	Color           *string
	Notes           *string
}

// TaskFilter narrows project task listings; empty fields match everything.
type TaskFilter struct {
	Status      string
	AssigneeID  string
	Priority    string
	MilestoneID string
}

// TaskUpdate holds partial task field updates; nil means unchanged.
// An empty string in AssigneeID or MilestoneID clears the reference.
type TaskUpdate struct {
	Title         *string
	Description   *string
	AssigneeID    *string
	Status        *string
	Priority      *string
	DueDate       *time.Time
	ClearDueDate  bool
	MilestoneID   *string
	Tags          *[]string
	DependencyIDs *[]string
}

// MilestoneUpdate holds partial milestone field updates; nil means unchanged.
type MilestoneUpdate struct {
	Title          *string
	Description    *string
	DueDate        *time.Time
	CompletedAt    *time.Time
	ClearCompleted bool
}

// UserStore handles user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// GetUsersByIDs returns the users that exist among ids, keyed by id.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*User, error)
	AddUserProject(ctx context.Context, userID, projectID string) error
	// RemoveProjectFromUsers pulls projectID from every user's project list.
	RemoveProjectFromUsers(ctx context.Context, projectID string) error
}

// ProjectStore handles project persistence.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProjectByID(ctx context.Context, id string) (*Project, error)
	// ListProjectsByMember returns projects the user owns or is a member of,
	// most recently updated first.
	ListProjectsByMember(ctx context.Context, userID string) ([]*Project, error)
	UpdateProject(ctx context.Context, id string, upd ProjectUpdate) (*Project, error)
	AddProjectMember(ctx context.Context, projectID string, m Member) error
	AddProjectTask(ctx context.Context, projectID, taskID string) error
	RemoveProjectTask(ctx context.Context, projectID, taskID string) error
	AddProjectMilestone(ctx context.Context, projectID, milestoneID string) error
	RemoveProjectMilestone(ctx context.Context, projectID, milestoneID string) error
	DeleteProject(ctx context.Context, id string) error
}

// TaskStore handles task persistence.
type TaskStore interface {
	CreateTask(ctx context.Context, t *Task) error
	GetTaskByID(ctx context.Context, id string) (*Task, error)
	// ListTasksByProject returns matching tasks, newest first.
	ListTasksByProject(ctx context.Context, projectID string, f TaskFilter) ([]*Task, error)
	UpdateTask(ctx context.Context, id string, upd TaskUpdate) (*Task, error)
	AddTaskComment(ctx context.Context, taskID string, c Comment) (*Task, error)
	// SetTaskMilestone updates a task's milestone back-reference; empty clears it.
	SetTaskMilestone(ctx context.Context, taskID, milestoneID string) error
	// ClearMilestoneFromTasks unsets the back-reference on every task pointing
	// at milestoneID.
	ClearMilestoneFromTasks(ctx context.Context, milestoneID string) error
	DeleteTask(ctx context.Context, id string) error
	DeleteTasksByProject(ctx context.Context, projectID string) error
}

// MilestoneStore handles milestone persistence.
type MilestoneStore interface {
	CreateMilestone(ctx context.Context, m *Milestone) error
	GetMilestoneByID(ctx context.Context, id string) (*Milestone, error)
	// ListMilestonesByProject returns milestones ordered by due date ascending.
	ListMilestonesByProject(ctx context.Context, projectID string) ([]*Milestone, error)
	UpdateMilestone(ctx context.Context, id string, upd MilestoneUpdate) (*Milestone, error)
	AddMilestoneTask(ctx context.Context, milestoneID, taskID string) error
	RemoveMilestoneTask(ctx context.Context, milestoneID, taskID string) error
	DeleteMilestone(ctx context.Context, id string) error
	DeleteMilestonesByProject(ctx context.Context, projectID string) error
}

// NotificationStore handles notification persistence.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *Notification) error
	GetNotificationByID(ctx context.Context, id string) (*Notification, error)
	// ListNotifications returns the user's notifications, newest first.
	ListNotifications(ctx context.Context, userID string, limit int) ([]*Notification, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int64, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
}

// ActivityStore handles activity feed persistence.
type ActivityStore interface {
	CreateActivity(ctx context.Context, a *Activity) error
	// ListActivitiesByProject returns the project feed, newest first.
	ListActivitiesByProject(ctx context.Context, projectID string, limit int) ([]*Activity, error)
	DeleteActivitiesByProject(ctx context.Context, projectID string) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ProjectStore
	TaskStore
	MilestoneStore
	NotificationStore
	ActivityStore

	// Close closes the underlying database connection.
	Close() error
}
