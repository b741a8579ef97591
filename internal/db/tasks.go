package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kirstym/tasknest/pkg/models"
)

// TaskFilter narrows ListTasks. UserID is required; the remaining fields are
// optional. Date-window and title-search filtering happen client-side in the
// tasklist package, at the synchronizer's clock.
type TaskFilter struct {
	UserID      string
	WorkspaceID *string
	FolderID    *string
	Status      *models.TaskStatus
}

const taskColumns = `
	t.id, t.user_id, t.workspace_id, t.folder_id, t.title, t.description,
	t.due_date, t.priority, t.status, t.completed_at, t.reminder_minutes,
	t.created_at, t.updated_at,
	w.name AS workspace_name, f.name AS folder_name
`

const taskJoins = `
	FROM tasks t
	JOIN workspaces w ON t.workspace_id = w.id
	LEFT JOIN folders f ON t.folder_id = f.id
`

// CreateTask inserts a new task into the database.
// If t.ID is empty, a new UUID is generated.
func (db *DB) CreateTask(ctx context.Context, t *models.Task) error {
	if err := db.createTask(ctx, db.DB, t); err != nil {
		return err
	}

	db.emit("tasks", OpInsert, t.ID)
	return nil
}

func (db *DB) createTask(ctx context.Context, exec executor, t *models.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = models.TaskStatusPending
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}

	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	query := `
		INSERT INTO tasks (id, user_id, workspace_id, folder_id, title, description,
		                   due_date, priority, status, completed_at, reminder_minutes,
		                   created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := exec.ExecContext(ctx, query,
		t.ID, t.UserID, t.WorkspaceID, nullString(t.FolderID), t.Title, t.Description,
		nullTime(t.DueDate), t.Priority, t.Status, nullTime(t.CompletedAt),
		nullInt(t.ReminderMinutes), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetTask retrieves a task by its ID. Returns nil if not found.
func (db *DB) GetTask(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + taskJoins + ` WHERE t.id = ?`

	t, err := scanTask(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return t, nil
}

// ListTasks returns tasks matching the filter, soonest due date first.
func (db *DB) ListTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + taskJoins + ` WHERE t.user_id = ?`
	args := []any{filter.UserID}

	if filter.WorkspaceID != nil {
		query += " AND t.workspace_id = ?"
		args = append(args, *filter.WorkspaceID)
	}

	if filter.FolderID != nil {
		query += " AND t.folder_id = ?"
		args = append(args, *filter.FolderID)
	}

	if filter.Status != nil {
		query += " AND t.status = ?"
		args = append(args, *filter.Status)
	}

	query += " ORDER BY t.due_date IS NULL, t.due_date ASC, t.created_at ASC"

	return db.queryTasks(ctx, query, args...)
}

// queryTasks is a helper to execute a query that returns a list of tasks.
func (db *DB) queryTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tasks, nil
}

// UpdateTask updates an existing task's editable fields.
func (db *DB) UpdateTask(ctx context.Context, t *models.Task) error {
	t.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE tasks
		SET title = ?, description = ?, due_date = ?, priority = ?,
		    workspace_id = ?, folder_id = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := db.ExecContext(ctx, query,
		t.Title, t.Description, nullTime(t.DueDate), t.Priority,
		t.WorkspaceID, nullString(t.FolderID), t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("task not found: %s", t.ID)
	}

	db.emit("tasks", OpUpdate, t.ID)
	return nil
}

// SetTaskStatus transitions a task between pending and completed, keeping the
// completion timestamp in sync with the status.
func (db *DB) SetTaskStatus(ctx context.Context, id string, status models.TaskStatus) error {
	now := time.Now().UTC()

	var completedAt *time.Time
	switch status {
	case models.TaskStatusCompleted:
		completedAt = &now
	case models.TaskStatusPending:
		completedAt = nil
	default:
		return fmt.Errorf("invalid status: %s", status)
	}

	query := `
		UPDATE tasks
		SET status = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := db.ExecContext(ctx, query, status, nullTime(completedAt), now, id)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("task not found: %s", id)
	}

	db.emit("tasks", OpUpdate, id)
	return nil
}

// SetReminder sets or clears (minutes == nil) a task's reminder lead time.
func (db *DB) SetReminder(ctx context.Context, id string, minutes *int) error {
	if minutes != nil && *minutes <= 0 {
		return fmt.Errorf("reminder minutes must be positive, got %d", *minutes)
	}

	query := `UPDATE tasks SET reminder_minutes = ?, updated_at = ? WHERE id = ?`
	res, err := db.ExecContext(ctx, query, nullInt(minutes), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set reminder: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("task not found: %s", id)
	}

	db.emit("tasks", OpUpdate, id)
	return nil
}

// DeleteTask deletes a task by its ID. Tag links go with it via cascade.
func (db *DB) DeleteTask(ctx context.Context, id string) error {
	query := `DELETE FROM tasks WHERE id = ?`
	res, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("task not found: %s", id)
	}

	db.emit("tasks", OpDelete, id)
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTask(row scannable) (*models.Task, error) {
	t := &models.Task{}
	var (
		folderID        sql.NullString
		dueDate         sql.NullTime
		completedAt     sql.NullTime
		reminderMinutes sql.NullInt64
		workspaceName   sql.NullString
		folderName      sql.NullString
	)

	err := row.Scan(
		&t.ID, &t.UserID, &t.WorkspaceID, &folderID, &t.Title, &t.Description,
		&dueDate, &t.Priority, &t.Status, &completedAt, &reminderMinutes,
		&t.CreatedAt, &t.UpdatedAt,
		&workspaceName, &folderName,
	)
	if err != nil {
		return nil, err
	}

	if folderID.Valid {
		t.FolderID = &folderID.String
	}
	if dueDate.Valid {
		utc := dueDate.Time.UTC()
		t.DueDate = &utc
	}
	if completedAt.Valid {
		utc := completedAt.Time.UTC()
		t.CompletedAt = &utc
	}
	if reminderMinutes.Valid {
		m := int(reminderMinutes.Int64)
		t.ReminderMinutes = &m
	}
	t.WorkspaceName = workspaceName.String
	t.FolderName = folderName.String

	return t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
