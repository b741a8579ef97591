package server

import (
	"net/http"
	"time"

	"github.com/kirstym/tasknest/internal/db"
	"github.com/kirstym/tasknest/internal/tasklist"
	"github.com/kirstym/tasknest/pkg/models"
)

type taskRequest struct {
	Title           string   `json:"title"`
	Description     *string  `json:"description"`
	DueDate         *string  `json:"due_date"`
	Priority        *string  `json:"priority"`
	WorkspaceID     string   `json:"workspace_id"`
	FolderID        *string  `json:"folder_id"`
	ReminderMinutes *int     `json:"reminder_minutes"`
	Tags            []string `json:"tags"`
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	window, err := tasklist.ParseWindow(q.Get("window"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := db.TaskFilter{UserID: userID(r)}
	if ws := q.Get("workspace"); ws != "" {
		filter.WorkspaceID = &ws
	}
	if f := q.Get("folder"); f != "" {
		filter.FolderID = &f
	}

	tasks, err := s.db.ListTasks(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := time.Now()
	search := q.Get("search")
	out := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !tasklist.MatchesWindow(t, window, now) || !tasklist.MatchesSearch(t, search) {
			continue
		}
		out = append(out, t)
	}

	if err := s.attachTags(r, out); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Title == "" {
		s.writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.WorkspaceID == "" {
		s.writeError(w, http.StatusBadRequest, "workspace_id is required")
		return
	}

	task := &models.Task{
		UserID:          userID(r),
		WorkspaceID:     req.WorkspaceID,
		FolderID:        req.FolderID,
		Title:           req.Title,
		ReminderMinutes: req.ReminderMinutes,
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		p := models.Priority(*req.Priority)
		if !models.ValidPriority(p) {
			s.writeError(w, http.StatusBadRequest, "unknown priority: "+*req.Priority)
			return
		}
		task.Priority = p
	}
	if req.DueDate != nil {
		due, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "due_date must be RFC 3339")
			return
		}
		utc := due.UTC()
		task.DueDate = &utc
	}
	if req.ReminderMinutes != nil && *req.ReminderMinutes <= 0 {
		s.writeError(w, http.StatusBadRequest, "reminder_minutes must be positive")
		return
	}

	if err := s.db.CreateTask(r.Context(), task); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	for _, name := range req.Tags {
		tag, err := s.getOrCreateTag(r, name)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := s.db.LinkTag(r.Context(), task.ID, tag.ID); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	created, err := s.loadTask(r, task.ID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.loadTask(r, r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	s.writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.db.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil || task.UserID != userID(r) {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}

	var req taskRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.WorkspaceID != "" {
		task.WorkspaceID = req.WorkspaceID
	}
	if req.FolderID != nil {
		if *req.FolderID == "" {
			task.FolderID = nil
		} else {
			task.FolderID = req.FolderID
		}
	}
	if req.Priority != nil {
		p := models.Priority(*req.Priority)
		if !models.ValidPriority(p) {
			s.writeError(w, http.StatusBadRequest, "unknown priority: "+*req.Priority)
			return
		}
		task.Priority = p
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			task.DueDate = nil
		} else {
			due, err := time.Parse(time.RFC3339, *req.DueDate)
			if err != nil {
				s.writeError(w, http.StatusBadRequest, "due_date must be RFC 3339")
				return
			}
			utc := due.UTC()
			task.DueDate = &utc
		}
	}

	if err := s.db.UpdateTask(r.Context(), task); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	updated, err := s.loadTask(r, task.ID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.db.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil || task.UserID != userID(r) {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}

	if err := s.db.DeleteTask(r.Context(), task.ID); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggleTask flips a task between pending and completed.
func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.db.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil || task.UserID != userID(r) {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}

	target := models.TaskStatusCompleted
	if task.Completed() {
		target = models.TaskStatusPending
	}
	if err := s.db.SetTaskStatus(r.Context(), task.ID, target); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	updated, err := s.loadTask(r, task.ID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleSetReminder(w http.ResponseWriter, r *http.Request) {
	task, err := s.db.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil || task.UserID != userID(r) {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}

	var req struct {
		Minutes *int `json:"minutes"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Minutes != nil && *req.Minutes <= 0 {
		s.writeError(w, http.StatusBadRequest, "minutes must be positive")
		return
	}

	if err := s.db.SetReminder(r.Context(), task.ID, req.Minutes); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	updated, err := s.loadTask(r, task.ID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleLinkTag(w http.ResponseWriter, r *http.Request) {
	task, err := s.db.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil || task.UserID != userID(r) {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil || req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "tag name is required")
		return
	}

	tag, err := s.getOrCreateTag(r, req.Name)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.db.LinkTag(r.Context(), task.ID, tag.ID); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	updated, err := s.loadTask(r, task.ID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleUnlinkTag(w http.ResponseWriter, r *http.Request) {
	task, err := s.db.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil || task.UserID != userID(r) {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}

	if err := s.db.UnlinkTag(r.Context(), task.ID, r.PathValue("tagID")); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadTask fetches one task scoped to the requesting user, tags attached.
// Returns nil when absent or owned by someone else.
func (s *Server) loadTask(r *http.Request, id string) (*models.Task, error) {
	task, err := s.db.GetTask(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if task == nil || task.UserID != userID(r) {
		return nil, nil
	}
	tags, err := s.db.ListTaskTags(r.Context(), task.ID)
	if err != nil {
		return nil, err
	}
	for _, tag := range tags {
		task.Tags = append(task.Tags, *tag)
	}
	return task, nil
}

func (s *Server) attachTags(r *http.Request, tasks []*models.Task) error {
	for _, t := range tasks {
		tags, err := s.db.ListTaskTags(r.Context(), t.ID)
		if err != nil {
			return err
		}
		for _, tag := range tags {
			t.Tags = append(t.Tags, *tag)
		}
	}
	return nil
}

func (s *Server) getOrCreateTag(r *http.Request, name string) (*models.Tag, error) {
	tag, err := s.db.GetTagByName(r.Context(), userID(r), name)
	if err != nil {
		return nil, err
	}
	if tag != nil {
		return tag, nil
	}
	tag = &models.Tag{UserID: userID(r), Name: name}
	if err := s.db.CreateTag(r.Context(), tag); err != nil {
		return nil, err
	}
	return tag, nil
}
