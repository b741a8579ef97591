// Package server exposes the task store, the parse service, and the
// reminder sender over a JSON HTTP API, plus an SSE bridge for the store's
// change feed.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/kirstym/tasknest/internal/db"
	"github.com/kirstym/tasknest/internal/logging"
	"github.com/kirstym/tasknest/internal/notify"
	"github.com/kirstym/tasknest/internal/parse"
	"github.com/kirstym/tasknest/pkg/timefmt"
)

// defaultUser scopes requests that carry no X-User-ID header. The API has
// no authentication layer; identity is supplied by the fronting proxy.
const defaultUser = "local"

type Server struct {
	db     *db.DB
	parser *parse.Service
	mailer notify.Mailer
	clock  timefmt.Clock
	log    zerolog.Logger
	server *http.Server
}

func NewServer(database *db.DB, parser *parse.Service, mailer notify.Mailer, clock timefmt.Clock) *Server {
	if !clock.Valid() {
		clock = timefmt.Default
	}
	return &Server{
		db:     database,
		parser: parser,
		mailer: mailer,
		clock:  clock,
		log:    logging.Component("server"),
	}
}

// Handler builds the API routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthz", s.handleHealthz)
	mux.HandleFunc("GET /api/settings", s.handleSettings)
	mux.HandleFunc("POST /api/parse", s.handleParse)
	mux.HandleFunc("POST /api/reminders/send", s.handleSendReminder)
	mux.HandleFunc("GET /api/events", s.handleEvents)

	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("POST /api/tasks/{id}/toggle", s.handleToggleTask)
	mux.HandleFunc("POST /api/tasks/{id}/reminder", s.handleSetReminder)
	mux.HandleFunc("POST /api/tasks/{id}/tags", s.handleLinkTag)
	mux.HandleFunc("DELETE /api/tasks/{id}/tags/{tagID}", s.handleUnlinkTag)

	mux.HandleFunc("GET /api/workspaces", s.handleListWorkspaces)
	mux.HandleFunc("POST /api/workspaces", s.handleCreateWorkspace)
	mux.HandleFunc("PATCH /api/workspaces/{id}", s.handleUpdateWorkspace)
	mux.HandleFunc("DELETE /api/workspaces/{id}", s.handleDeleteWorkspace)

	mux.HandleFunc("GET /api/folders", s.handleListFolders)
	mux.HandleFunc("POST /api/folders", s.handleCreateFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", s.handleDeleteFolder)

	mux.HandleFunc("GET /api/tags", s.handleListTags)
	mux.HandleFunc("POST /api/tags", s.handleCreateTag)
	mux.HandleFunc("DELETE /api/tags/{id}", s.handleDeleteTag)

	return mux
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.log.Info().Str("addr", addr).Msg("listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSettings reports display preferences clients need before rendering,
// currently just the 12h/24h clock.
func (s *Server) handleSettings(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"time_format": string(s.clock)})
}

// userID resolves the requesting user. Identity comes from the X-User-ID
// header when present.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return defaultUser
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn().Err(err).Msg("write response failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
