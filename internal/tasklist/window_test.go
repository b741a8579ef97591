package tasklist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirstym/tasknest/pkg/models"
)

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("")
	require.NoError(t, err)
	assert.Equal(t, WindowAll, w)

	w, err = ParseWindow(" Overdue ")
	require.NoError(t, err)
	assert.Equal(t, WindowOverdue, w)

	_, err = ParseWindow("someday")
	require.Error(t, err)
}

func TestMatchesWindow(t *testing.T) {
	// A Wednesday, mid-morning.
	now := time.Date(2025, 4, 2, 10, 30, 0, 0, time.UTC)

	at := func(t time.Time) *time.Time { return &t }
	open := func(due *time.Time) *models.Task {
		return &models.Task{Title: "t", Status: models.TaskStatusPending, DueDate: due}
	}

	dueYesterday := open(at(time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)))
	dueEarlierToday := open(at(time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)))
	dueLaterToday := open(at(time.Date(2025, 4, 2, 18, 0, 0, 0, time.UTC)))
	dueNextMonday := open(at(time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)))
	dueFarOut := open(at(time.Date(2025, 4, 20, 9, 0, 0, 0, time.UTC)))
	noDue := open(nil)

	completedAt := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	done := &models.Task{
		Title:       "t",
		Status:      models.TaskStatusCompleted,
		CompletedAt: &completedAt,
		DueDate:     at(time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)),
	}

	tests := []struct {
		name    string
		task    *models.Task
		windows map[Window]bool
	}{
		{"due yesterday", dueYesterday, map[Window]bool{
			WindowOverdue: true,
		}},
		{"due earlier today", dueEarlierToday, map[Window]bool{
			WindowToday: true, WindowWeek: true, WindowOverdue: true, WindowUpcoming: true,
		}},
		{"due later today", dueLaterToday, map[Window]bool{
			WindowToday: true, WindowWeek: true, WindowUpcoming: true,
		}},
		{"due next monday", dueNextMonday, map[Window]bool{
			WindowWeek: true, WindowUpcoming: true,
		}},
		{"due far out", dueFarOut, map[Window]bool{
			WindowUpcoming: true,
		}},
		{"no due date", noDue, map[Window]bool{}},
		{"completed with overdue due date", done, map[Window]bool{
			WindowCompleted: true,
		}},
	}

	windows := []Window{WindowToday, WindowWeek, WindowOverdue, WindowUpcoming, WindowCompleted}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, MatchesWindow(tt.task, WindowAll, now), "all must match everything")
			for _, w := range windows {
				assert.Equal(t, tt.windows[w], MatchesWindow(tt.task, w, now), "window %s", w)
			}
		})
	}
}

func TestWeekWindowIncludesBoundary(t *testing.T) {
	now := time.Date(2025, 4, 2, 10, 30, 0, 0, time.UTC)
	boundary := time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC)
	task := &models.Task{Status: models.TaskStatusPending, DueDate: &boundary}

	assert.True(t, MatchesWindow(task, WindowWeek, now))

	past := boundary.Add(time.Minute)
	task.DueDate = &past
	assert.False(t, MatchesWindow(task, WindowWeek, now))
}

func TestMatchesSearch(t *testing.T) {
	task := &models.Task{Title: "Finish English essay"}

	assert.True(t, MatchesSearch(task, ""))
	assert.True(t, MatchesSearch(task, "english"))
	assert.True(t, MatchesSearch(task, "SAY"))
	assert.False(t, MatchesSearch(task, "math"))
}
