package db

import (
	"context"
	"testing"

	"github.com/kirstym/tasknest/pkg/models"
)

func TestWorkspaceCRUD(t *testing.T) {
	db, w := openTestDB(t)
	ctx := context.Background()

	fetched, err := db.GetWorkspace(ctx, w.ID)
	if err != nil {
		t.Fatalf("Failed to get workspace: %v", err)
	}
	if fetched == nil || fetched.Name != "Personal" {
		t.Fatalf("Unexpected workspace: %+v", fetched)
	}
	if fetched.Color == "" {
		t.Errorf("Expected default color to be set")
	}

	byName, err := db.GetWorkspaceByName(ctx, "user-1", "Personal")
	if err != nil {
		t.Fatalf("Failed to get workspace by name: %v", err)
	}
	if byName == nil || byName.ID != w.ID {
		t.Errorf("Expected workspace %s by name, got %+v", w.ID, byName)
	}

	missing, err := db.GetWorkspaceByName(ctx, "user-1", "Nope")
	if err != nil {
		t.Fatalf("Failed to get workspace by name: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for missing workspace, got %+v", missing)
	}

	w.Name = "Home"
	w.Color = "#3a5a40"
	if err := db.UpdateWorkspace(ctx, w); err != nil {
		t.Fatalf("Failed to update workspace: %v", err)
	}
	fetched, err = db.GetWorkspace(ctx, w.ID)
	if err != nil {
		t.Fatalf("Failed to get workspace: %v", err)
	}
	if fetched.Name != "Home" || fetched.Color != "#3a5a40" {
		t.Errorf("Update not applied: %+v", fetched)
	}

	// Duplicate name for the same user is rejected.
	dup := &models.Workspace{UserID: "user-1", Name: "Home"}
	if err := db.CreateWorkspace(ctx, dup); err == nil {
		t.Errorf("Expected duplicate workspace name to fail")
	}
}

func TestDeleteWorkspaceCascades(t *testing.T) {
	db, w := openTestDB(t)
	ctx := context.Background()

	folder := &models.Folder{WorkspaceID: w.ID, Name: "Errands"}
	if err := db.CreateFolder(ctx, folder); err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}

	task := &models.Task{UserID: "user-1", WorkspaceID: w.ID, FolderID: &folder.ID, Title: "Buy groceries"}
	if err := db.CreateTask(ctx, task); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	if err := db.DeleteWorkspace(ctx, w.ID); err != nil {
		t.Fatalf("Failed to delete workspace: %v", err)
	}

	gone, err := db.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("Failed to get task: %v", err)
	}
	if gone != nil {
		t.Errorf("Expected task to cascade with workspace")
	}

	folders, err := db.ListFolders(ctx, w.ID)
	if err != nil {
		t.Fatalf("Failed to list folders: %v", err)
	}
	if len(folders) != 0 {
		t.Errorf("Expected folders to cascade with workspace, got %d", len(folders))
	}
}

func TestFolderHierarchy(t *testing.T) {
	db, w := openTestDB(t)
	ctx := context.Background()

	parent := &models.Folder{WorkspaceID: w.ID, Name: "Projects"}
	if err := db.CreateFolder(ctx, parent); err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}

	child := &models.Folder{WorkspaceID: w.ID, ParentID: &parent.ID, Name: "Garden"}
	if err := db.CreateFolder(ctx, child); err != nil {
		t.Fatalf("Failed to create subfolder: %v", err)
	}

	folders, err := db.ListFolders(ctx, w.ID)
	if err != nil {
		t.Fatalf("Failed to list folders: %v", err)
	}
	if len(folders) != 2 {
		t.Fatalf("Expected 2 folders, got %d", len(folders))
	}
	if folders[0].Name != "Projects" {
		t.Errorf("Expected parent folder first, got %q", folders[0].Name)
	}

	// Deleting the parent removes the subtree; tasks in it are detached.
	task := &models.Task{UserID: "user-1", WorkspaceID: w.ID, FolderID: &child.ID, Title: "Plant tomatoes"}
	if err := db.CreateTask(ctx, task); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	if err := db.DeleteFolder(ctx, parent.ID); err != nil {
		t.Fatalf("Failed to delete folder: %v", err)
	}

	folders, err = db.ListFolders(ctx, w.ID)
	if err != nil {
		t.Fatalf("Failed to list folders: %v", err)
	}
	if len(folders) != 0 {
		t.Errorf("Expected subtree to cascade, got %d folders", len(folders))
	}

	kept, err := db.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("Failed to get task: %v", err)
	}
	if kept == nil {
		t.Fatalf("Expected task to survive folder deletion")
	}
	if kept.FolderID != nil {
		t.Errorf("Expected task detached from folder, got %v", kept.FolderID)
	}
}
