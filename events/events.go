package events

import (
	"context"
	"time"
)

// Event types published after successful mutations.
const (
	TaskCreated    = "task.created"
	TaskUpdated    = "task.updated"
	TaskToggled    = "task.toggled"
	TaskDeleted    = "task.deleted"
	SubtaskCreated = "subtask.created"
	SubtaskUpdated = "subtask.updated"
	SubtaskDeleted = "subtask.deleted"
)

// Event describes one change to a user's tasks.
type Event struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	TaskID    string    `json:"task_id,omitempty"`
	SubtaskID string    `json:"subtask_id,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher delivers events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close()                               {}
