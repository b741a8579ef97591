package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kirstym/tasknest/internal/db"
)

// handleEvents streams store change events as server-sent events. One
// subscription per connection; it is torn down when the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events := make(chan db.Event, 64)
	unsubscribe := s.db.Subscribe("", func(e db.Event) {
		// Feed delivery is synchronous with the write; never block it on a
		// slow client.
		select {
		case events <- e:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-events:
			payload, err := json.Marshal(e)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
