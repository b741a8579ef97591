package server

import (
	"errors"
	"net/http"

	"github.com/kirstym/tasknest/internal/parse"
)

// handleParse turns free text into a task draft. Upstream failures come
// back as a degraded draft, not an error; only a missing credential is a
// gateway failure.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if s.parser == nil {
		s.writeError(w, http.StatusBadGateway, "task parsing is not configured")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	draft, err := s.parser.Parse(r.Context(), req.Text)
	switch {
	case errors.Is(err, parse.ErrEmptyInput):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, parse.ErrNoAPIKey):
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, draft)
}

// handleSendReminder emails a reminder for one task, user-invoked.
func (s *Server) handleSendReminder(w http.ResponseWriter, r *http.Request) {
	if s.mailer == nil {
		s.writeError(w, http.StatusBadGateway, "reminder email is not configured")
		return
	}

	var req struct {
		TaskID string `json:"task_id"`
		To     string `json:"to"`
	}
	if err := decode(r, &req); err != nil || req.TaskID == "" || req.To == "" {
		s.writeError(w, http.StatusBadRequest, "task_id and to are required")
		return
	}

	task, err := s.loadTask(r, req.TaskID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}

	if err := s.mailer.SendReminder(r.Context(), req.To, task); err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
