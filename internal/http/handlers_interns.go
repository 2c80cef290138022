package http

import (
	"net/http"
)

func (s *Server) handleListInterns(w http.ResponseWriter, r *http.Request) {
	interns, err := s.store.ListInterns(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	views := make([]internView, 0, len(interns))
	for _, i := range interns {
		views = append(views, newInternView(i))
	}
	respondData(w, http.StatusOK, views)
}

func (s *Server) handleGetIntern(w http.ResponseWriter, r *http.Request) {
	intern, err := s.store.GetIntern(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newInternView(intern))
}

func (s *Server) handleCreateIntern(w http.ResponseWriter, r *http.Request) {
	var req internRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.reconciler.SaveInternWithDirectPayment(r.Context(), req.toIntern(), "")
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.purgeReportCaches()
	respondData(w, http.StatusCreated, newInternView(saved))
}

func (s *Server) handleUpdateIntern(w http.ResponseWriter, r *http.Request) {
	var req internRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.reconciler.SaveInternWithDirectPayment(r.Context(), req.toIntern(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.purgeReportCaches()
	respondData(w, http.StatusOK, newInternView(saved))
}

func (s *Server) handleDeleteIntern(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.reconciler.DeleteIntern(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.purgeReportCaches()
	respondData(w, http.StatusOK, map[string]string{"deleted": id})
}

// handleSyncIntern recomputes the intern's paid fee and payment status from
// the ledger.
func (s *Server) handleSyncIntern(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.reconciler.SyncInternStats(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.purgeReportCaches()
	intern, err := s.store.GetIntern(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newInternView(intern))
}
