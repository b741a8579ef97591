package server

import (
	"net/http"

	"github.com/kirstym/tasknest/pkg/models"
)

func (s *Server) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	workspaces, err := s.db.ListWorkspaces(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, workspaces)
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	workspace := &models.Workspace{UserID: userID(r), Name: req.Name, Color: req.Color}
	if err := s.db.CreateWorkspace(r.Context(), workspace); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, workspace)
}

func (s *Server) handleUpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	workspace, err := s.db.GetWorkspace(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if workspace == nil || workspace.UserID != userID(r) {
		s.writeError(w, http.StatusNotFound, "workspace not found")
		return
	}

	var req struct {
		Name  *string `json:"name"`
		Color *string `json:"color"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name != nil {
		if *req.Name == "" {
			s.writeError(w, http.StatusBadRequest, "name must not be empty")
			return
		}
		workspace.Name = *req.Name
	}
	if req.Color != nil {
		workspace.Color = *req.Color
	}

	if err := s.db.UpdateWorkspace(r.Context(), workspace); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, workspace)
}

func (s *Server) handleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	workspace, err := s.db.GetWorkspace(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if workspace == nil || workspace.UserID != userID(r) {
		s.writeError(w, http.StatusNotFound, "workspace not found")
		return
	}

	if err := s.db.DeleteWorkspace(r.Context(), workspace.ID); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.URL.Query().Get("workspace")
	if workspaceID == "" {
		s.writeError(w, http.StatusBadRequest, "workspace query parameter is required")
		return
	}
	if ok, err := s.ownsWorkspace(r, workspaceID); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	} else if !ok {
		s.writeError(w, http.StatusNotFound, "workspace not found")
		return
	}

	folders, err := s.db.ListFolders(r.Context(), workspaceID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, folders)
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkspaceID string  `json:"workspace_id"`
		ParentID    *string `json:"parent_id"`
		Name        string  `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.WorkspaceID == "" {
		s.writeError(w, http.StatusBadRequest, "name and workspace_id are required")
		return
	}
	if ok, err := s.ownsWorkspace(r, req.WorkspaceID); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	} else if !ok {
		s.writeError(w, http.StatusNotFound, "workspace not found")
		return
	}

	folder := &models.Folder{WorkspaceID: req.WorkspaceID, ParentID: req.ParentID, Name: req.Name}
	if err := s.db.CreateFolder(r.Context(), folder); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, folder)
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	folder, err := s.db.GetFolder(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if folder != nil {
		if ok, err := s.ownsWorkspace(r, folder.WorkspaceID); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		} else if !ok {
			folder = nil
		}
	}
	if folder == nil {
		s.writeError(w, http.StatusNotFound, "folder not found")
		return
	}

	if err := s.db.DeleteFolder(r.Context(), folder.ID); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.db.ListTags(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	tag := &models.Tag{UserID: userID(r), Name: req.Name, Color: req.Color}
	if err := s.db.CreateTag(r.Context(), tag); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, tag)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteTag(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ownsWorkspace(r *http.Request, id string) (bool, error) {
	workspace, err := s.db.GetWorkspace(r.Context(), id)
	if err != nil {
		return false, err
	}
	return workspace != nil && workspace.UserID == userID(r), nil
}
