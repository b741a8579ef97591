package db

import (
	"context"
	"testing"

	"github.com/kirstym/tasknest/pkg/models"
)

// openTestDB opens an initialized in-memory database with one workspace.
func openTestDB(t *testing.T) (*DB, *models.Workspace) {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := db.Init(ctx); err != nil {
		t.Fatalf("Failed to init database: %v", err)
	}

	w := &models.Workspace{UserID: "user-1", Name: "Personal"}
	if err := db.CreateWorkspace(ctx, w); err != nil {
		t.Fatalf("Failed to create workspace: %v", err)
	}

	return db, w
}

func TestFeedSubscribe(t *testing.T) {
	db, w := openTestDB(t)
	ctx := context.Background()

	var taskEvents []Event
	unsubscribe := db.Subscribe("tasks", func(e Event) {
		taskEvents = append(taskEvents, e)
	})

	var allEvents int
	unsubAll := db.Subscribe("", func(Event) { allEvents++ })
	defer unsubAll()

	task := &models.Task{UserID: "user-1", WorkspaceID: w.ID, Title: "Water plants"}
	if err := db.CreateTask(ctx, task); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	if err := db.SetTaskStatus(ctx, task.ID, models.TaskStatusCompleted); err != nil {
		t.Fatalf("Failed to complete task: %v", err)
	}
	if err := db.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("Failed to delete task: %v", err)
	}

	if len(taskEvents) != 3 {
		t.Fatalf("Expected 3 task events, got %d", len(taskEvents))
	}
	want := []Op{OpInsert, OpUpdate, OpDelete}
	for i, e := range taskEvents {
		if e.Op != want[i] {
			t.Errorf("Event %d: expected op %s, got %s", i, want[i], e.Op)
		}
		if e.Table != "tasks" {
			t.Errorf("Event %d: expected table tasks, got %s", i, e.Table)
		}
		if e.ID != task.ID {
			t.Errorf("Event %d: expected id %s, got %s", i, task.ID, e.ID)
		}
	}

	// Workspace creation happened before subscribing; the three task writes
	// are all the wildcard subscriber should have seen.
	if allEvents != 3 {
		t.Errorf("Expected 3 wildcard events, got %d", allEvents)
	}

	unsubscribe()
	task2 := &models.Task{UserID: "user-1", WorkspaceID: w.ID, Title: "After unsubscribe"}
	if err := db.CreateTask(ctx, task2); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	if len(taskEvents) != 3 {
		t.Errorf("Expected no events after unsubscribe, got %d", len(taskEvents))
	}
}

func TestFeedTableScoping(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	var tagEvents int
	defer db.Subscribe("tags", func(Event) { tagEvents++ })()

	w := &models.Workspace{UserID: "user-1", Name: "Work"}
	if err := db.CreateWorkspace(ctx, w); err != nil {
		t.Fatalf("Failed to create workspace: %v", err)
	}

	if tagEvents != 0 {
		t.Errorf("Expected tag subscriber to ignore workspace events, got %d", tagEvents)
	}
}
