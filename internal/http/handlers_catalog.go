package http

import (
	"net/http"

	"opsledger/internal/core"
)

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.ListProducts(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, newProductView(p))
	}
	respondData(w, http.StatusOK, views)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.store.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newProductView(product))
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	product := req.toProduct()
	if err := product.Validate(); err != nil {
		respondDomainError(w, r, err)
		return
	}
	saved, err := s.store.InsertProduct(r.Context(), product)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, newProductView(saved))
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	product := req.toProduct()
	product.ID = r.PathValue("id")
	if err := product.Validate(); err != nil {
		respondDomainError(w, r, err)
		return
	}
	if err := s.store.UpdateProduct(r.Context(), product); err != nil {
		respondDomainError(w, r, err)
		return
	}
	saved, err := s.store.GetProduct(r.Context(), product.ID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newProductView(saved))
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteProduct(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.store.ListProfiles(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	views := make([]profileView, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, newProfileView(p))
	}
	respondData(w, http.StatusOK, views)
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	email := sanitizeInput(req.Email)
	if email == "" {
		respondError(w, http.StatusUnprocessableEntity, "email is required")
		return
	}
	if req.Role != "" && !validRole(req.Role) {
		respondError(w, http.StatusUnprocessableEntity, "unknown role")
		return
	}
	saved, err := s.store.InsertProfile(r.Context(), core.Profile{
		Email:    email,
		FullName: sanitizeInput(req.FullName),
		Role:     req.Role,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, newProfileView(saved))
}

func (s *Server) handleUpdateProfileRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !validRole(req.Role) {
		respondError(w, http.StatusUnprocessableEntity, "unknown role")
		return
	}
	if err := s.store.UpdateProfileRole(r.Context(), r.PathValue("id"), req.Role); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"role": req.Role})
}

func validRole(role string) bool {
	switch role {
	case core.RoleAdmin, core.RoleManager, core.RoleViewer:
		return true
	}
	return false
}
