package models

import (
	"strings"
	"time"
)

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority accepts low, medium or high in any letter case.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", NewValidationError("priority must be one of low, medium, high")
	}
	return p, nil
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	Priority    Priority  `json:"priority"`
	DueDate     *Date     `json:"due_date"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	Subtasks    []Subtask `json:"subtasks"`
}

// Subtask belongs to one task and inherits its owner.
type Subtask struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTask holds the fields accepted when creating a task.
type NewTask struct {
	Title       string
	Description *string
	Priority    Priority
	DueDate     *Date
}

// TaskChanges describes an update. Nil fields keep the stored value;
// ClearDescription and ClearDueDate remove the stored one.
type TaskChanges struct {
	Title            string
	Description      *string
	ClearDescription bool
	Completed        *bool
	Priority         *Priority
	DueDate          *Date
	ClearDueDate     bool
}

// SubtaskChanges is a partial subtask update.
type SubtaskChanges struct {
	Title     *string
	Completed *bool
}

// Empty reports whether the update carries no field at all.
func (c SubtaskChanges) Empty() bool {
	return c.Title == nil && c.Completed == nil
}

// ValidateTitle trims the title and rejects blank ones.
func ValidateTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", NewValidationError("title is required")
	}
	return t, nil
}
