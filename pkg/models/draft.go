package models

import "time"

// ParsedTaskDraft is the structured output of the natural-language task
// parser. It is never persisted as-is; callers consume it to prefill a
// task-creation form and then discard it.
type ParsedTaskDraft struct {
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Priority        Priority   `json:"priority,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	ReminderMinutes *int       `json:"reminder_minutes,omitempty"`

	// Degraded is set when the upstream model call failed and the draft was
	// produced by the local heuristic instead. DegradedReason carries the
	// cause for display.
	Degraded       bool   `json:"degraded,omitempty"`
	DegradedReason string `json:"degraded_reason,omitempty"`
}
