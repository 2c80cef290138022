package http

import (
	"net/http"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	views := make([]projectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, newProjectView(p))
	}
	respondData(w, http.StatusOK, views)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.store.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newProjectView(project))
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	draft, err := req.toProject()
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	saved, err := s.reconciler.SaveProjectWithDirectPayment(r.Context(), draft, "")
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.purgeReportCaches()
	respondData(w, http.StatusCreated, newProjectView(saved))
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	draft, err := req.toProject()
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	saved, err := s.reconciler.SaveProjectWithDirectPayment(r.Context(), draft, r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.purgeReportCaches()
	respondData(w, http.StatusOK, newProjectView(saved))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.reconciler.DeleteProject(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.purgeReportCaches()
	respondData(w, http.StatusOK, map[string]string{"deleted": id})
}

// handleSyncProject recomputes the project's paid amount from the ledger.
func (s *Server) handleSyncProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.reconciler.SyncProjectStats(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.purgeReportCaches()
	project, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newProjectView(project))
}
