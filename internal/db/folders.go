package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kirstym/tasknest/pkg/models"
)

func (db *DB) CreateFolder(ctx context.Context, f *models.Folder) error {
	if err := db.createFolder(ctx, db.DB, f); err != nil {
		return err
	}

	db.emit("folders", OpInsert, f.ID)
	return nil
}

func (db *DB) createFolder(ctx context.Context, exec executor, f *models.Folder) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now

	query := `
		INSERT INTO folders (id, workspace_id, parent_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := exec.ExecContext(ctx, query,
		f.ID, f.WorkspaceID, nullString(f.ParentID), f.Name, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}

	return nil
}

func (db *DB) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	query := `
		SELECT id, workspace_id, parent_id, name, created_at, updated_at
		FROM folders
		WHERE id = ?
	`
	f, err := scanFolder(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}

	return f, nil
}

// ListFolders returns all folders in a workspace, parents before children.
func (db *DB) ListFolders(ctx context.Context, workspaceID string) ([]*models.Folder, error) {
	query := `
		SELECT id, workspace_id, parent_id, name, created_at, updated_at
		FROM folders
		WHERE workspace_id = ?
		ORDER BY parent_id IS NOT NULL, name ASC
	`
	rows, err := db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	var folders []*models.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return folders, nil
}

// DeleteFolder deletes a folder and its subfolders. Tasks pointing at them are
// kept and detached (folder_id set to null).
func (db *DB) DeleteFolder(ctx context.Context, id string) error {
	query := `DELETE FROM folders WHERE id = ?`
	res, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("folder not found: %s", id)
	}

	db.emit("folders", OpDelete, id)
	return nil
}

func scanFolder(row scannable) (*models.Folder, error) {
	f := &models.Folder{}
	var parentID sql.NullString

	err := row.Scan(&f.ID, &f.WorkspaceID, &parentID, &f.Name, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		f.ParentID = &parentID.String
	}

	return f, nil
}
