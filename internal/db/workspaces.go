package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kirstym/tasknest/pkg/models"
)

func (db *DB) CreateWorkspace(ctx context.Context, w *models.Workspace) error {
	if err := db.createWorkspace(ctx, db.DB, w); err != nil {
		return err
	}

	db.emit("workspaces", OpInsert, w.ID)
	return nil
}

func (db *DB) createWorkspace(ctx context.Context, exec executor, w *models.Workspace) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Color == "" {
		w.Color = "#588157"
	}

	now := time.Now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now

	query := `
		INSERT INTO workspaces (id, user_id, name, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := exec.ExecContext(ctx, query, w.ID, w.UserID, w.Name, w.Color, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	return nil
}

func (db *DB) GetWorkspace(ctx context.Context, id string) (*models.Workspace, error) {
	query := `
		SELECT id, user_id, name, color, created_at, updated_at
		FROM workspaces
		WHERE id = ?
	`
	w := &models.Workspace{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&w.ID, &w.UserID, &w.Name, &w.Color, &w.CreatedAt, &w.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}

	return w, nil
}

func (db *DB) GetWorkspaceByName(ctx context.Context, userID, name string) (*models.Workspace, error) {
	query := `
		SELECT id, user_id, name, color, created_at, updated_at
		FROM workspaces
		WHERE user_id = ? AND name = ?
	`
	w := &models.Workspace{}
	err := db.QueryRowContext(ctx, query, userID, name).Scan(
		&w.ID, &w.UserID, &w.Name, &w.Color, &w.CreatedAt, &w.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace by name: %w", err)
	}

	return w, nil
}

func (db *DB) ListWorkspaces(ctx context.Context, userID string) ([]*models.Workspace, error) {
	query := `
		SELECT id, user_id, name, color, created_at, updated_at
		FROM workspaces
		WHERE user_id = ?
		ORDER BY name ASC
	`
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
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

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return workspaces, nil
}

func (db *DB) UpdateWorkspace(ctx context.Context, w *models.Workspace) error {
	w.UpdatedAt = time.Now().UTC()

	query := `UPDATE workspaces SET name = ?, color = ?, updated_at = ? WHERE id = ?`
	res, err := db.ExecContext(ctx, query, w.Name, w.Color, w.UpdatedAt, w.ID)
	if err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("workspace not found: %s", w.ID)
	}

	db.emit("workspaces", OpUpdate, w.ID)
	return nil
}

// DeleteWorkspace deletes a workspace. Folders and tasks inside it go with it
// via cascade.
func (db *DB) DeleteWorkspace(ctx context.Context, id string) error {
	query := `DELETE FROM workspaces WHERE id = ?`
	res, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("workspace not found: %s", id)
	}

	db.emit("workspaces", OpDelete, id)
	return nil
}
