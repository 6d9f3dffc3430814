package http

import "net/http"

// handleDashboard recomputes the summary on every request; nothing is cached
// so a mutation is always visible on the next read.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := s.ledger.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}
