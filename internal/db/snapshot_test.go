package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kirstym/tasknest/pkg/models"
)

func TestSnapshotRoundTrip(t *testing.T) {
	db, w := openTestDB(t)
	ctx := context.Background()

	folder := &models.Folder{WorkspaceID: w.ID, Name: "Errands"}
	if err := db.CreateFolder(ctx, folder); err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}

	tag := &models.Tag{UserID: "user-1", Name: "shopping"}
	if err := db.CreateTag(ctx, tag); err != nil {
		t.Fatalf("Failed to create tag: %v", err)
	}

	due := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	task := &models.Task{
		UserID:      "user-1",
		WorkspaceID: w.ID,
		FolderID:    &folder.ID,
		Title:       "Buy groceries",
		DueDate:     &due,
		Priority:    models.PriorityLow,
	}
	if err := db.CreateTask(ctx, task); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	if err := db.LinkTag(ctx, task.ID, tag.ID); err != nil {
		t.Fatalf("Failed to link tag: %v", err)
	}

	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	if err := db.ExportSnapshot(ctx, path); err != nil {
		t.Fatalf("Failed to export snapshot: %v", err)
	}

	// Import into a fresh database.
	fresh, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer fresh.Close()
	if err := fresh.Init(ctx); err != nil {
		t.Fatalf("Failed to init database: %v", err)
	}

	if err := fresh.ImportSnapshot(ctx, path); err != nil {
		t.Fatalf("Failed to import snapshot: %v", err)
	}

	got, err := fresh.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("Failed to get imported task: %v", err)
	}
	if got == nil {
		t.Fatalf("Imported task not found")
	}
	if got.Title != "Buy groceries" || got.WorkspaceName != "Personal" || got.FolderName != "Errands" {
		t.Errorf("Unexpected imported task: %+v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("Expected due date %v, got %v", due, got.DueDate)
	}

	tags, err := fresh.ListTaskTags(ctx, task.ID)
	if err != nil {
		t.Fatalf("Failed to list imported tags: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "shopping" {
		t.Errorf("Unexpected imported tags: %+v", tags)
	}

	// Importing the same snapshot again is additive and must not fail.
	if err := fresh.ImportSnapshot(ctx, path); err != nil {
		t.Fatalf("Re-import failed: %v", err)
	}
	tasks, err := fresh.ListTasks(ctx, TaskFilter{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Failed to list tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("Expected re-import to skip existing rows, got %d tasks", len(tasks))
	}
}

func TestAutoSnapshot(t *testing.T) {
	db, w := openTestDB(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	unsubscribe := db.EnableAutoSnapshot(path)
	defer unsubscribe()

	task := &models.Task{UserID: "user-1", WorkspaceID: w.ID, Title: "Water plants"}
	if err := db.CreateTask(ctx, task); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected snapshot file after write: %v", err)
	}
	if len(data) == 0 {
		t.Errorf("Expected non-empty snapshot")
	}
}
