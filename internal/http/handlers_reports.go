package http

import (
	"net/http"
	"strconv"

	"opsledger/internal/log"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if metrics, ok := s.dashboardCache.Get("dashboard"); ok {
		respondData(w, http.StatusOK, newDashboardView(metrics))
		return
	}
	metrics, err := s.reporter.Dashboard(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.dashboardCache.Set("dashboard", metrics)
	respondData(w, http.StatusOK, newDashboardView(metrics))
}

func (s *Server) handleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	months := 6
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 60 {
			respondError(w, http.StatusUnprocessableEntity, "months must be between 1 and 60")
			return
		}
		months = n
	}

	key := strconv.Itoa(months)
	if buckets, ok := s.monthlyCache.Get(key); ok {
		respondData(w, http.StatusOK, newMonthBucketViews(buckets))
		return
	}
	buckets, err := s.reporter.MonthlyRevenue(r.Context(), months)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.monthlyCache.Set(key, buckets)
	respondData(w, http.StatusOK, newMonthBucketViews(buckets))
}

func (s *Server) handleDomainRadar(w http.ResponseWriter, r *http.Request) {
	if stats, ok := s.domainCache.Get("domains"); ok {
		respondData(w, http.StatusOK, newDomainStatViews(stats))
		return
	}
	stats, err := s.reporter.DomainRadar(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.domainCache.Set("domains", stats)
	respondData(w, http.StatusOK, newDomainStatViews(stats))
}

// handleRepairLedger runs both repair passes: intern rows first, project
// rows second, matching the cascade order used elsewhere.
func (s *Server) handleRepairLedger(w http.ResponseWriter, r *http.Request) {
	interns, err := s.reconciler.RepairInternLedger(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	projects, err := s.reconciler.RepairProjectLedger(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.purgeReportCaches()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Ledger repair finished",
		log.FieldOperation, log.OpRepair, "interns_repaired", interns, "projects_repaired", projects)
	respondData(w, http.StatusOK, map[string]int{
		"interns_repaired":  interns,
		"projects_repaired": projects,
	})
}

// handleRepairInterns backfills ledger rows for interns whose paid fee
// predates the ledger and resyncs every intern afterwards.
func (s *Server) handleRepairInterns(w http.ResponseWriter, r *http.Request) {
	repaired, err := s.reconciler.RepairInternLedger(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.purgeReportCaches()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Intern ledger repair finished",
		log.FieldOperation, log.OpRepair, "repaired", repaired)
	respondData(w, http.StatusOK, repairView{Repaired: repaired})
}

func (s *Server) handleRepairProjects(w http.ResponseWriter, r *http.Request) {
	repaired, err := s.reconciler.RepairProjectLedger(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	s.purgeReportCaches()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Project ledger repair finished",
		log.FieldOperation, log.OpRepair, "repaired", repaired)
	respondData(w, http.StatusOK, repairView{Repaired: repaired})
}
