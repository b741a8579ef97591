// Package mcp exposes the task store and the AI quick-add flow as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirstym/tasknest/internal/db"
	"github.com/kirstym/tasknest/internal/parse"
	"github.com/kirstym/tasknest/internal/tasklist"
	"github.com/kirstym/tasknest/pkg/models"
)

// NewServer creates a new MCP server. All tools operate on behalf of the
// given user.
func NewServer(database *db.DB, parser *parse.Service, user string) *server.MCPServer {
	s := server.NewMCPServer("TaskNest", "0.1.0")

	s.AddTool(mcp.NewTool("quick_add_task",
		mcp.WithDescription("Create a task from free text. The text is parsed by AI (due date, priority, tags); on parse failure a heuristic title is used."),
		mcp.WithString("text", mcp.Description("Free-text task description, e.g. 'finish essay by Monday morning'"), mcp.Required()),
		mcp.WithString("workspace", mcp.Description("Workspace name (defaults to 'Personal')")),
	), quickAddTaskHandler(database, parser, user))

	s.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a task with explicit fields."),
		mcp.WithString("title", mcp.Description("Task title"), mcp.Required()),
		mcp.WithString("workspace", mcp.Description("Workspace name"), mcp.Required()),
		mcp.WithString("description", mcp.Description("Task description")),
		mcp.WithString("priority", mcp.Description("Priority (low|medium|high|urgent)")),
		mcp.WithString("due_date", mcp.Description("Due date, RFC 3339 (e.g. 2025-04-07T09:00:00Z)")),
		mcp.WithNumber("reminder_minutes", mcp.Description("Reminder lead time in minutes before the due date")),
		mcp.WithString("tags", mcp.Description("Comma-separated tag names")),
	), createTaskHandler(database, user))

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks with optional filters."),
		mcp.WithString("workspace", mcp.Description("Filter by workspace name")),
		mcp.WithString("window", mcp.Description("Due-date window (today|week|overdue|upcoming|completed|all)")),
		mcp.WithString("search", mcp.Description("Case-insensitive title substring")),
	), listTasksHandler(database, user))

	s.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task completed."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
	), setStatusHandler(database, user, models.TaskStatusCompleted))

	s.AddTool(mcp.NewTool("reopen_task",
		mcp.WithDescription("Return a completed task to pending."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
	), setStatusHandler(database, user, models.TaskStatusPending))

	s.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task. Its tag links go with it."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
	), deleteTaskHandler(database, user))

	s.AddTool(mcp.NewTool("set_reminder",
		mcp.WithDescription("Set or clear a task's reminder lead time."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
		mcp.WithNumber("minutes", mcp.Description("Minutes before the due date (0 clears the reminder)"), mcp.Required()),
	), setReminderHandler(database, user))

	s.AddTool(mcp.NewTool("list_workspaces",
		mcp.WithDescription("List all workspaces."),
	), listWorkspacesHandler(database, user))

	s.AddTool(mcp.NewTool("create_workspace",
		mcp.WithDescription("Create a workspace."),
		mcp.WithString("name", mcp.Description("Workspace name (unique per user)"), mcp.Required()),
		mcp.WithString("color", mcp.Description("Display color, e.g. '#588157'")),
	), createWorkspaceHandler(database, user))

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func quickAddTaskHandler(database *db.DB, parser *parse.Service, user string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text := mcp.ParseString(request, "text", "")
		workspaceName := mcp.ParseString(request, "workspace", "Personal")

		workspace, err := resolveWorkspace(ctx, database, user, workspaceName)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		draft, err := parser.Parse(ctx, text)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		task := &models.Task{
			UserID:          user,
			WorkspaceID:     workspace.ID,
			Title:           draft.Title,
			Description:     draft.Description,
			DueDate:         draft.DueDate,
			Priority:        draft.Priority,
			ReminderMinutes: draft.ReminderMinutes,
		}
		if err := database.CreateTask(ctx, task); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		for _, name := range draft.Tags {
			tag, err := resolveTag(ctx, database, user, name)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := database.LinkTag(ctx, task.ID, tag.ID); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}

		msg := fmt.Sprintf("Task '%s' created in workspace '%s' (id %s).", task.Title, workspace.Name, task.ID)
		if draft.Degraded {
			msg += fmt.Sprintf(" AI parse was unavailable (%s); title was derived heuristically.", draft.DegradedReason)
		}
		return mcp.NewToolResultText(msg), nil
	}
}

func createTaskHandler(database *db.DB, user string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title := mcp.ParseString(request, "title", "")
		workspaceName := mcp.ParseString(request, "workspace", "")

		workspace, err := resolveWorkspace(ctx, database, user, workspaceName)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		task := &models.Task{
			UserID:      user,
			WorkspaceID: workspace.ID,
			Title:       title,
			Description: mcp.ParseString(request, "description", ""),
		}

		if p := mcp.ParseString(request, "priority", ""); p != "" {
			if !models.ValidPriority(models.Priority(p)) {
				return mcp.NewToolResultError(fmt.Sprintf("unknown priority '%s'", p)), nil
			}
			task.Priority = models.Priority(p)
		}
		if d := mcp.ParseString(request, "due_date", ""); d != "" {
			due, err := time.Parse(time.RFC3339, d)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("due_date must be RFC 3339: %v", err)), nil
			}
			utc := due.UTC()
			task.DueDate = &utc
		}
		if m := mcp.ParseInt(request, "reminder_minutes", 0); m > 0 {
			task.ReminderMinutes = &m
		}

		if err := database.CreateTask(ctx, task); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		for _, name := range strings.Split(mcp.ParseString(request, "tags", ""), ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			tag, err := resolveTag(ctx, database, user, name)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := database.LinkTag(ctx, task.ID, tag.ID); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}

		return mcp.NewToolResultText(fmt.Sprintf("Task '%s' created in workspace '%s' (id %s).", task.Title, workspace.Name, task.ID)), nil
	}
}

func listTasksHandler(database *db.DB, user string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		window, err := tasklist.ParseWindow(mcp.ParseString(request, "window", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		filter := db.TaskFilter{UserID: user}
		if name := mcp.ParseString(request, "workspace", ""); name != "" {
			workspace, err := resolveWorkspace(ctx, database, user, name)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			filter.WorkspaceID = &workspace.ID
		}

		tasks, err := database.ListTasks(ctx, filter)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		now := time.Now()
		search := mcp.ParseString(request, "search", "")
		matched := make([]*models.Task, 0, len(tasks))
		for _, t := range tasks {
			if tasklist.MatchesWindow(t, window, now) && tasklist.MatchesSearch(t, search) {
				matched = append(matched, t)
			}
		}

		data, err := json.Marshal(map[string]interface{}{"tasks": matched})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

func setStatusHandler(database *db.DB, user string, status models.TaskStatus) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		task, err := resolveTask(ctx, database, user, mcp.ParseString(request, "id", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if err := database.SetTaskStatus(ctx, task.ID, status); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if status == models.TaskStatusCompleted {
			return mcp.NewToolResultText(fmt.Sprintf("Task '%s' completed.", task.Title)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task '%s' reopened.", task.Title)), nil
	}
}

func deleteTaskHandler(database *db.DB, user string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		task, err := resolveTask(ctx, database, user, mcp.ParseString(request, "id", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if err := database.DeleteTask(ctx, task.ID); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Task '%s' deleted.", task.Title)), nil
	}
}

func setReminderHandler(database *db.DB, user string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		task, err := resolveTask(ctx, database, user, mcp.ParseString(request, "id", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		minutes := mcp.ParseInt(request, "minutes", 0)
		if minutes < 0 {
			return mcp.NewToolResultError("minutes must not be negative"), nil
		}

		var lead *int
		if minutes > 0 {
			lead = &minutes
		}
		if err := database.SetReminder(ctx, task.ID, lead); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if lead == nil {
			return mcp.NewToolResultText(fmt.Sprintf("Reminder cleared for task '%s'.", task.Title)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Reminder set to %d minutes before due for task '%s'.", minutes, task.Title)), nil
	}
}

func listWorkspacesHandler(database *db.DB, user string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		workspaces, err := database.ListWorkspaces(ctx, user)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := json.Marshal(map[string]interface{}{"workspaces": workspaces})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

func createWorkspaceHandler(database *db.DB, user string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		workspace := &models.Workspace{
			UserID: user,
			Name:   mcp.ParseString(request, "name", ""),
			Color:  mcp.ParseString(request, "color", ""),
		}

		if err := database.CreateWorkspace(ctx, workspace); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Workspace '%s' created (id %s).", workspace.Name, workspace.ID)), nil
	}
}

func resolveWorkspace(ctx context.Context, database *db.DB, user, name string) (*models.Workspace, error) {
	workspace, err := database.GetWorkspaceByName(ctx, user, name)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return nil, fmt.Errorf("workspace '%s' not found", name)
	}
	return workspace, nil
}

func resolveTask(ctx context.Context, database *db.DB, user, id string) (*models.Task, error) {
	task, err := database.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil || task.UserID != user {
		return nil, fmt.Errorf("task '%s' not found", id)
	}
	return task, nil
}

func resolveTag(ctx context.Context, database *db.DB, user, name string) (*models.Tag, error) {
	tag, err := database.GetTagByName(ctx, user, name)
	if err != nil {
		return nil, err
	}
	if tag != nil {
		return tag, nil
	}
	tag = &models.Tag{UserID: user, Name: name}
	if err := database.CreateTag(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}
