package models

import "time"

type Tag struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// TagLink associates a task with a tag.
type TagLink struct {
	TaskID string `json:"task_id"`
	TagID  string `json:"tag_id"`

	// Helper fields for snapshot resolution
	TaskTitle string `json:"task_title,omitempty"`
	TagName   string `json:"tag_name,omitempty"`
}
