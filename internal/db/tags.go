package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kirstym/tasknest/pkg/models"
)

func (db *DB) CreateTag(ctx context.Context, tag *models.Tag) error {
	if err := db.createTag(ctx, db.DB, tag); err != nil {
		return err
	}

	db.emit("tags", OpInsert, tag.ID)
	return nil
}

func (db *DB) createTag(ctx context.Context, exec executor, tag *models.Tag) error {
	if tag.ID == "" {
		tag.ID = uuid.NewString()
	}
	if tag.Color == "" {
		tag.Color = "#a3b18a"
	}
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tags (id, user_id, name, color, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := exec.ExecContext(ctx, query, tag.ID, tag.UserID, tag.Name, tag.Color, tag.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}

	return nil
}

func (db *DB) GetTagByName(ctx context.Context, userID, name string) (*models.Tag, error) {
	query := `
		SELECT id, user_id, name, color, created_at
		FROM tags
		WHERE user_id = ? AND name = ?
	`
	tag := &models.Tag{}
	err := db.QueryRowContext(ctx, query, userID, name).Scan(
		&tag.ID, &tag.UserID, &tag.Name, &tag.Color, &tag.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag by name: %w", err)
	}

	return tag, nil
}

func (db *DB) ListTags(ctx context.Context, userID string) ([]*models.Tag, error) {
	query := `
		SELECT id, user_id, name, color, created_at
		FROM tags
		WHERE user_id = ?
		ORDER BY name ASC
	`
	return db.queryTags(ctx, query, userID)
}

func (db *DB) DeleteTag(ctx context.Context, id string) error {
	query := `DELETE FROM tags WHERE id = ?`
	res, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("tag not found: %s", id)
	}

	db.emit("tags", OpDelete, id)
	return nil
}

// LinkTag attaches a tag to a task. Linking the same pair twice is a no-op.
func (db *DB) LinkTag(ctx context.Context, taskID, tagID string) error {
	if err := db.linkTag(ctx, db.DB, taskID, tagID); err != nil {
		return err
	}

	db.emit("task_tags", OpInsert, taskID)
	return nil
}

func (db *DB) linkTag(ctx context.Context, exec executor, taskID, tagID string) error {
	query := `INSERT OR IGNORE INTO task_tags (task_id, tag_id) VALUES (?, ?)`
	if _, err := exec.ExecContext(ctx, query, taskID, tagID); err != nil {
		return fmt.Errorf("failed to link tag: %w", err)
	}
	return nil
}

func (db *DB) UnlinkTag(ctx context.Context, taskID, tagID string) error {
	query := `DELETE FROM task_tags WHERE task_id = ? AND tag_id = ?`
	res, err := db.ExecContext(ctx, query, taskID, tagID)
	if err != nil {
		return fmt.Errorf("failed to unlink tag: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("tag link not found: %s -> %s", taskID, tagID)
	}

	db.emit("task_tags", OpDelete, taskID)
	return nil
}

// ListTaskTags returns the tags attached to a task.
func (db *DB) ListTaskTags(ctx context.Context, taskID string) ([]*models.Tag, error) {
	query := `
		SELECT g.id, g.user_id, g.name, g.color, g.created_at
		FROM tags g
		JOIN task_tags tt ON g.id = tt.tag_id
		WHERE tt.task_id = ?
		ORDER BY g.name ASC
	`
	return db.queryTags(ctx, query, taskID)
}

func (db *DB) queryTags(ctx context.Context, query string, args ...any) ([]*models.Tag, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag := &models.Tag{}
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tags, nil
}
