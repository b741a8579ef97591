package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kirstym/tasknest/internal/config"
	"github.com/kirstym/tasknest/internal/db"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DBPath = filepath.Join(tmpDir, "tasknest.db")
	cfg.SnapshotPath = filepath.Join(tmpDir, "snapshot.jsonl")
	return &cfg
}

func TestInit(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	if err := runInit(ctx, cfg); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	workspace, err := database.GetWorkspaceByName(ctx, defaultUser, "Personal")
	if err != nil {
		t.Fatalf("failed to look up workspace: %v", err)
	}
	if workspace == nil {
		t.Fatal("'Personal' workspace was not seeded")
	}

	// Re-running init must not fail or duplicate the seed.
	if err := runInit(ctx, cfg); err != nil {
		t.Fatalf("second runInit failed: %v", err)
	}
	workspaces, err := database.ListWorkspaces(ctx, defaultUser)
	if err != nil {
		t.Fatalf("failed to list workspaces: %v", err)
	}
	if len(workspaces) != 1 {
		t.Errorf("expected 1 workspace after re-init, got %d", len(workspaces))
	}
}

func TestInitWithExistingSnapshot(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	snapshot := `{"type":"workspace","workspace":{"id":"ws-import","user_id":"local","name":"Imported","color":"#3a5a40"}}
`
	if err := os.WriteFile(cfg.SnapshotPath, []byte(snapshot), 0644); err != nil {
		t.Fatalf("failed to write snapshot: %v", err)
	}

	if err := runInit(ctx, cfg); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	workspace, err := database.GetWorkspaceByName(ctx, defaultUser, "Imported")
	if err != nil {
		t.Fatalf("failed to look up workspace: %v", err)
	}
	if workspace == nil {
		t.Fatal("snapshot workspace was not imported")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	if err := runInit(ctx, cfg); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	exportPath := filepath.Join(t.TempDir(), "export.jsonl")
	if err := runExport(ctx, cfg, exportPath); err != nil {
		t.Fatalf("runExport failed: %v", err)
	}
	if _, err := os.Stat(exportPath); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	// Import into a fresh database.
	fresh := testConfig(t)
	if err := runImport(ctx, fresh, exportPath); err != nil {
		t.Fatalf("runImport failed: %v", err)
	}

	database, err := db.Open(fresh.DBPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	workspace, err := database.GetWorkspaceByName(ctx, defaultUser, "Personal")
	if err != nil {
		t.Fatalf("failed to look up workspace: %v", err)
	}
	if workspace == nil {
		t.Fatal("exported workspace did not survive the round trip")
	}
}
