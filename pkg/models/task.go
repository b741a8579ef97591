package models

import "time"

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriority reports whether p is one of the four known priority levels.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ReminderChoices are the reminder lead times (in minutes before the due date)
// offered by the UI. The store itself accepts any positive value.
var ReminderChoices = []int{15, 30, 60, 120, 1440, 10080}

type Task struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	WorkspaceID     string     `json:"workspace_id"`
	FolderID        *string    `json:"folder_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DueDate         *time.Time `json:"due_date"`
	Priority        Priority   `json:"priority"`
	Status          TaskStatus `json:"status"`
	CompletedAt     *time.Time `json:"completed_at"`
	ReminderMinutes *int       `json:"reminder_minutes"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// WorkspaceName and FolderName are helper fields for joined queries.
	WorkspaceName string `json:"workspace_name,omitempty"`
	FolderName    string `json:"folder_name,omitempty"`

	// Tags is populated by queries that load tag links alongside the task.
	Tags []Tag `json:"tags,omitempty"`
}

// Complete marks the task completed at the given instant.
// Status and the completion timestamp always move together.
func (t *Task) Complete(now time.Time) {
	t.Status = TaskStatusCompleted
	completedAt := now.UTC()
	t.CompletedAt = &completedAt
}

// Reopen returns the task to pending and clears the completion timestamp.
func (t *Task) Reopen() {
	t.Status = TaskStatusPending
	t.CompletedAt = nil
}

// Completed reports whether the task is completed.
func (t *Task) Completed() bool {
	return t.Status == TaskStatusCompleted
}
