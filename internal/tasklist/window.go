package tasklist

import (
	"fmt"
	"strings"
	"time"

	"github.com/kirstym/tasknest/pkg/models"
)

// Window names a due-date predicate applied on top of the stored filter.
type Window string

const (
	WindowAll       Window = "all"
	WindowToday     Window = "today"
	WindowWeek      Window = "week"
	WindowOverdue   Window = "overdue"
	WindowUpcoming  Window = "upcoming"
	WindowCompleted Window = "completed"
)

// ParseWindow maps a user-supplied window name to a Window. The empty
// string selects WindowAll.
func ParseWindow(s string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(s))); w {
	case "":
		return WindowAll, nil
	case WindowAll, WindowToday, WindowWeek, WindowOverdue, WindowUpcoming, WindowCompleted:
		return w, nil
	default:
		return "", fmt.Errorf("unknown window %q", s)
	}
}

// MatchesWindow reports whether a task falls inside the window as of now.
// Day boundaries use now's location at local midnight.
func MatchesWindow(t *models.Task, w Window, now time.Time) bool {
	switch w {
	case WindowAll, "":
		return true
	case WindowCompleted:
		return t.Completed()
	}

	// The date windows only ever show open tasks.
	if t.Completed() || t.DueDate == nil {
		return false
	}
	due := t.DueDate.In(now.Location())

	switch w {
	case WindowToday:
		y1, m1, d1 := due.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case WindowWeek:
		start := midnight(now)
		end := start.AddDate(0, 0, 7)
		return !due.Before(start) && !due.After(end)
	case WindowOverdue:
		return due.Before(now)
	case WindowUpcoming:
		return due.After(midnight(now))
	}

	return false
}

// MatchesSearch reports whether the task title contains the search text,
// case-insensitively. Empty search matches everything.
func MatchesSearch(t *models.Task, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), strings.ToLower(search))
}

func midnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
