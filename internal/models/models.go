package models

import "time"

// User represents a bot user.
type User struct {
	ID              string    // Internal ID
	TelegramID      int64     // Telegram ID of the user
	Name            string    // Display name, set during onboarding
	CurrentPlanID   string    // Plan the user works with today, empty if none
	PublishedPlanID string    // Plan shared into a group, empty if none
	CreatedAt       time.Time // When the user was added to the system
}

// Plan is an ordered list of tasks. A plan without an owner is a base
// template available to everyone.
type Plan struct {
	ID        string
	OwnerID   string // Empty for base plans
	Name      string
	CreatedAt time.Time
}

// Base reports whether the plan is an ownerless template.
func (p *Plan) Base() bool {
	return p.OwnerID == ""
}

// Task is a single line of a plan. Checked state and comments are volatile:
// they are wiped when the plan's day is closed.
type Task struct {
	ID        string
	PlanID    string
	Position  int // Presentation order inside the plan
	Body      string
	Checked   bool
	CreatedAt time.Time
}

// Comment is attached to a task by a group member or the owner.
type Comment struct {
	ID         string
	TaskID     string
	AuthorID   string
	AuthorName string // Joined in on read, not stored
	Body       string
	CreatedAt  time.Time
}

// Statistic is a point-in-time record of a closed day. Rows accumulate
// forever; study hours get one late update after the day is closed.
type Statistic struct {
	ID             string
	UserID         string
	PlanID         string
	GroupID        int64 // 0 when the day was not bound to a group
	TotalTasks     int
	CompletedTasks int
	StudyHours     float64
	CreatedAt      time.Time
}
