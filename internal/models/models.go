package models

import "time"

// Role is the global role of a user account.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleDeveloper   Role = "developer"
	RoleScrumMaster Role = "scrum_master"
)

// IsValid reports whether the role is one of the supported values.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDeveloper, RoleScrumMaster:
		return true
	}
	return false
}

// MemberRole is the role of a user within a single project.
type MemberRole string

const (
	MemberOwner  MemberRole = "owner"
	MemberAdmin  MemberRole = "admin"
	MemberMember MemberRole = "member"
)

func (r MemberRole) IsValid() bool {
	switch r {
	case MemberOwner, MemberAdmin, MemberMember:
		return true
	}
	return false
}

// IssueType classifies an issue card.
type IssueType string

const (
	TypeTask  IssueType = "task"
	TypeStory IssueType = "story"
	TypeBug   IssueType = "bug"
	TypeEpic  IssueType = "epic"
)

func (t IssueType) IsValid() bool {
	switch t {
	case TypeTask, TypeStory, TypeBug, TypeEpic:
		return true
	}
	return false
}

// Priority orders issues by urgency.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// SprintStatus is the lifecycle state of a sprint.
// Transitions: planned -> active -> completed; completed is terminal.
type SprintStatus string

const (
	SprintPlanned   SprintStatus = "planned"
	SprintActive    SprintStatus = "active"
	SprintCompleted SprintStatus = "completed"
)

func (s SprintStatus) IsValid() bool {
	switch s {
	case SprintPlanned, SprintActive, SprintCompleted:
		return true
	}
	return false
}

// StatusCategory is the coarse bucket an issue status maps to for statistics.
type StatusCategory string

const (
	CategoryTodo       StatusCategory = "todo"
	CategoryInProgress StatusCategory = "inprogress"
	CategoryDone       StatusCategory = "done"
)

func (c StatusCategory) IsValid() bool {
	switch c {
	case CategoryTodo, CategoryInProgress, CategoryDone:
		return true
	}
	return false
}

// User is an account that can report, be assigned to and comment on issues.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project groups issues, sprints and board statuses under a unique short key.
type Project struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectMember links a user to a project with a project-level role.
type ProjectMember struct {
	ID        int64      `json:"id"`
	ProjectID int64      `json:"project_id"`
	UserID    int64      `json:"user_id"`
	Role      MemberRole `json:"role"`
	Username  string     `json:"username,omitempty"`
	FullName  string     `json:"full_name,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IssueStatus is one board column of a project, ordered by Position.
type IssueStatus struct {
	ID        int64          `json:"id"`
	ProjectID int64          `json:"project_id"`
	Name      string         `json:"name"`
	Category  StatusCategory `json:"category"`
	Color     string         `json:"color"`
	Position  int64          `json:"position"`
	CreatedAt time.Time      `json:"created_at"`
}

// Sprint is a time-boxed container of issues. At most one sprint per project
// is active at any time.
type Sprint struct {
	ID        int64        `json:"id"`
	ProjectID int64        `json:"project_id"`
	Name      string       `json:"name"`
	Goal      string       `json:"goal"`
	Status    SprintStatus `json:"status"`
	StartDate *time.Time   `json:"start_date"`
	EndDate   *time.Time   `json:"end_date"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Issue is a single card. SprintID nil means the issue sits in the backlog.
// Display fields (StatusName, AssigneeName, ...) are joined in by the store.
type Issue struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	SprintID    *int64     `json:"sprint_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        IssueType  `json:"type"`
	Priority    Priority   `json:"priority"`
	StatusID    int64      `json:"status_id"`
	ReporterID  *int64     `json:"reporter_id"`
	AssigneeID  *int64     `json:"assignee_id"`
	StoryPoints *int64     `json:"story_points"`
	StartDate   *time.Time `json:"start_date"`
	ImageBefore string     `json:"image_before,omitempty"`
	ImageAfter  string     `json:"image_after,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	StatusName     string         `json:"status_name,omitempty"`
	StatusCategory StatusCategory `json:"status_category,omitempty"`
	StatusColor    string         `json:"status_color,omitempty"`
	ReporterName   string         `json:"reporter_name,omitempty"`
	AssigneeName   string         `json:"assignee_name,omitempty"`
}

// Comment belongs to one issue and one author; only the content may change.
type Comment struct {
	ID         int64     `json:"id"`
	IssueID    int64     `json:"issue_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ActionLog is an append-only audit record of a critical action.
type ActionLog struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id"`
	ProjectID *int64    `json:"project_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	RequestID string    `json:"request_id"`
	ActorName string    `json:"actor_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// KanbanColumn is one board column: a status plus the issues currently in it.
type KanbanColumn struct {
	Status IssueStatus `json:"status"`
	Issues []Issue     `json:"issues"`
}

// SprintIssues pairs a sprint with the issues assigned to it, for the
// backlog view.
type SprintIssues struct {
	Sprint Sprint  `json:"sprint"`
	Issues []Issue `json:"issues"`
}

// Backlog partitions a project's issues into unscheduled work and per-sprint
// buckets. The partition is exhaustive and disjoint by construction.
type Backlog struct {
	Backlog []Issue        `json:"backlog"`
	Sprints []SprintIssues `json:"sprints"`
}

// Stats aggregates issue counts and story points for a project or sprint.
type Stats struct {
	TotalIssues      int64 `json:"total_issues"`
	TodoIssues       int64 `json:"todo_issues"`
	InProgressIssues int64 `json:"in_progress_issues"`
	CompletedIssues  int64 `json:"completed_issues"`
	TotalPoints      int64 `json:"total_points"`
	CompletedPoints  int64 `json:"completed_points"`
}
