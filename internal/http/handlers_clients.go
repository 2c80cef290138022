package http

import (
	"net/http"
)

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.store.ListClients(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	views := make([]clientView, 0, len(clients))
	for _, c := range clients {
		views = append(views, newClientView(c))
	}
	respondData(w, http.StatusOK, views)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	client, err := s.store.GetClient(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newClientView(client))
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	client := req.toClient()
	if err := client.Validate(); err != nil {
		respondDomainError(w, r, err)
		return
	}
	saved, err := s.store.InsertClient(r.Context(), client)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, newClientView(saved))
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	client := req.toClient()
	client.ID = r.PathValue("id")
	if err := client.Validate(); err != nil {
		respondDomainError(w, r, err)
		return
	}
	if err := s.store.UpdateClient(r.Context(), client); err != nil {
		respondDomainError(w, r, err)
		return
	}
	saved, err := s.store.GetClient(r.Context(), client.ID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newClientView(saved))
}

// handleDeleteClient removes the client together with its projects and every
// ledger row that referenced either.
func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.reconciler.DeleteClient(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.purgeReportCaches()
	respondData(w, http.StatusOK, map[string]string{"deleted": id})
}
