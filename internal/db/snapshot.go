package db

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kirstym/tasknest/pkg/models"
)

// snapshotRecord is one JSONL line. Type selects which field is set.
type snapshotRecord struct {
	Type      string            `json:"type"`
	Workspace *models.Workspace `json:"workspace,omitempty"`
	Folder    *models.Folder    `json:"folder,omitempty"`
	Tag       *models.Tag       `json:"tag,omitempty"`
	Task      *models.Task      `json:"task,omitempty"`
	TagLink   *models.TagLink   `json:"tag_link,omitempty"`
}

// EnableAutoSnapshot sets up a feed subscriber that exports a snapshot after
// every committed write, on any table.
func (db *DB) EnableAutoSnapshot(path string) (unsubscribe func()) {
	return db.Subscribe("", func(Event) {
		// Hooks are best-effort; a failed export must not fail the write
		// that triggered it.
		_ = db.ExportSnapshot(context.Background(), path)
	})
}

// ExportSnapshot writes the whole store as JSONL, referential order (parents
// before dependents), atomically via a temporary file.
func (db *DB) ExportSnapshot(ctx context.Context, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "snapshot-*.jsonl")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempFile.Name())
		}
	}()

	records, err := db.collectSnapshot(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(tempFile)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to write snapshot line: %w", err)
		}
	}

	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	filename := tempFile.Name()
	tempFile = nil // Prevent defer from removing it

	if err := os.Rename(filename, path); err != nil {
		os.Remove(filename)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

func (db *DB) collectSnapshot(ctx context.Context) ([]snapshotRecord, error) {
	var records []snapshotRecord

	workspaces, err := db.queryAllWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range workspaces {
		records = append(records, snapshotRecord{Type: "workspace", Workspace: w})
	}

	for _, w := range workspaces {
		folders, err := db.ListFolders(ctx, w.ID)
		if err != nil {
			return nil, err
		}
		for _, f := range folders {
			records = append(records, snapshotRecord{Type: "folder", Folder: f})
		}
	}

	tags, err := db.queryTags(ctx, `SELECT id, user_id, name, color, created_at FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	for _, tag := range tags {
		records = append(records, snapshotRecord{Type: "tag", Tag: tag})
	}

	tasks, err := db.queryTasks(ctx, `SELECT `+taskColumns+taskJoins+` ORDER BY t.created_at ASC`)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		// Joined helper fields are presentation-only; keep snapshots minimal.
		t.WorkspaceName = ""
		t.FolderName = ""
		records = append(records, snapshotRecord{Type: "task", Task: t})
	}

	links, err := db.queryTagLinks(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		records = append(records, snapshotRecord{Type: "tag_link", TagLink: l})
	}

	return records, nil
}

// ImportSnapshot reads a JSONL snapshot and populates the database. Records
// whose IDs already exist are skipped, so importing into a non-empty store is
// additive rather than destructive.
func (db *DB) ImportSnapshot(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec snapshotRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("failed to parse snapshot line %d: %w", line, err)
		}

		if err := db.importRecord(ctx, tx, rec); err != nil {
			return fmt.Errorf("failed to import snapshot line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot import: %w", err)
	}

	db.emit("tasks", OpInsert, "")
	return nil
}

func (db *DB) importRecord(ctx context.Context, exec executor, rec snapshotRecord) error {
	switch rec.Type {
	case "workspace":
		if rec.Workspace == nil {
			return fmt.Errorf("workspace record missing payload")
		}
		if exists, err := rowExists(ctx, exec, "workspaces", rec.Workspace.ID); err != nil || exists {
			return err
		}
		return db.createWorkspace(ctx, exec, rec.Workspace)
	case "folder":
		if rec.Folder == nil {
			return fmt.Errorf("folder record missing payload")
		}
		if exists, err := rowExists(ctx, exec, "folders", rec.Folder.ID); err != nil || exists {
			return err
		}
		return db.createFolder(ctx, exec, rec.Folder)
	case "tag":
		if rec.Tag == nil {
			return fmt.Errorf("tag record missing payload")
		}
		if exists, err := rowExists(ctx, exec, "tags", rec.Tag.ID); err != nil || exists {
			return err
		}
		return db.createTag(ctx, exec, rec.Tag)
	case "task":
		if rec.Task == nil {
			return fmt.Errorf("task record missing payload")
		}
		if exists, err := rowExists(ctx, exec, "tasks", rec.Task.ID); err != nil || exists {
			return err
		}
		return db.createTask(ctx, exec, rec.Task)
	case "tag_link":
		if rec.TagLink == nil {
			return fmt.Errorf("tag_link record missing payload")
		}
		return db.linkTag(ctx, exec, rec.TagLink.TaskID, rec.TagLink.TagID)
	default:
		return fmt.Errorf("unknown record type: %s", rec.Type)
	}
}

func rowExists(ctx context.Context, exec executor, table, id string) (bool, error) {
	var n int
	err := exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	return n > 0, nil
}

func (db *DB) queryAllWorkspaces(ctx context.Context) ([]*models.Workspace, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, name, color, created_at, updated_at
		FROM workspaces
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []*models.Workspace
	for rows.Next() {
		w := &models.Workspace{}
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Color, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workspace: %w", err)
		}
		workspaces = append(workspaces, w)
	}

	return workspaces, rows.Err()
}

func (db *DB) queryTagLinks(ctx context.Context) ([]*models.TagLink, error) {
	rows, err := db.QueryContext(ctx, `SELECT task_id, tag_id FROM task_tags ORDER BY task_id, tag_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tag links: %w", err)
	}
	defer rows.Close()

	var links []*models.TagLink
	for rows.Next() {
		l := &models.TagLink{}
		if err := rows.Scan(&l.TaskID, &l.TagID); err != nil {
			return nil, fmt.Errorf("failed to scan tag link: %w", err)
		}
		links = append(links, l)
	}

	return links, rows.Err()
}
