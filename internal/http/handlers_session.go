package http

import (
	"io"
	"net/http"
)

// Auth and task routes are compatibility placeholders: the SPA talks to its
// identity provider directly, and tasks never moved behind this API. They
// keep old clients from breaking on 404s.

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	respondMessage(w, http.StatusOK, "login is handled by the identity provider, not this API")
}

func (s *Server) handleListTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    []any{},
		Message: "tasks are not managed by this API",
	})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	respondMessage(w, http.StatusOK, "tasks are not managed by this API")
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, map[string]string{
		"name":    "opsledger",
		"version": "1.0.0",
	})
}

func (s *Server) handleAPINotFound(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusNotFound, "route not found")
}
