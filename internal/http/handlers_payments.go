package http

import (
	"net/http"

	"opsledger/internal/core"
	"opsledger/internal/storage"
)

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.PaymentFilter{
		InternID:  q.Get("intern_id"),
		ClientID:  q.Get("client_id"),
		ProjectID: q.Get("project_id"),
		Status:    core.RecordStatus(q.Get("status")),
		Type:      core.PaymentType(q.Get("type")),
		Origin:    core.PaymentOrigin(q.Get("origin")),
	}
	payments, err := s.store.ListPayments(r.Context(), filter)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	views := make([]paymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, newPaymentView(p))
	}
	respondData(w, http.StatusOK, views)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := s.store.GetPayment(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, newPaymentView(payment))
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	draft, err := req.toRecord()
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	saved, err := s.reconciler.RecordPayment(r.Context(), draft, "")
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.purgeReportCaches()
	respondData(w, http.StatusCreated, newPaymentView(saved))
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	draft, err := req.toRecord()
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	saved, err := s.reconciler.RecordPayment(r.Context(), draft, r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.purgeReportCaches()
	respondData(w, http.StatusOK, newPaymentView(saved))
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.reconciler.DeletePayment(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.purgeReportCaches()
	respondData(w, http.StatusOK, map[string]string{"deleted": id})
}
