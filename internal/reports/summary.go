// Package reports computes read-only aggregates over the ledger and the
// tracked entities. All revenue figures come from Completed ledger rows;
// entity-side paid fields are only consulted to surface drift that the
// ledger cannot explain.
package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"opsledger/internal/core"
	"opsledger/internal/storage"
)

type Service struct {
	store *storage.Repository
}

func NewService(store *storage.Repository) *Service {
	return &Service{store: store}
}

// Dashboard returns the headline numbers for the overview screen.
func (s *Service) Dashboard(ctx context.Context) (core.DashboardMetrics, error) {
	interns, err := s.store.ListInterns(ctx)
	if err != nil {
		return core.DashboardMetrics{}, fmt.Errorf("list interns: %w", err)
	}
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return core.DashboardMetrics{}, fmt.Errorf("list projects: %w", err)
	}
	payments, err := s.store.ListPayments(ctx, storage.PaymentFilter{Status: core.RecordCompleted})
	if err != nil {
		return core.DashboardMetrics{}, fmt.Errorf("list payments: %w", err)
	}

	var m core.DashboardMetrics
	for _, i := range interns {
		if i.Status == core.InternActive || i.Status == core.InternPending {
			m.ActiveInterns++
		}
		m.Outstanding.Paise += clamp0(i.TotalFee.Paise - i.PaidFee.Paise)
	}
	for _, p := range projects {
		if p.Status == core.ProjectInProgress {
			m.ActiveProjects++
		}
		m.Outstanding.Paise += clamp0(p.Value.Paise - p.PaidAmount.Paise)
	}
	for _, p := range payments {
		m.TotalRevenue.Paise += p.Amount.Paise
	}
	return m, nil
}

// MonthlyRevenue buckets Completed ledger rows into the last n calendar
// months, newest last. Project payments are attributed to the project's
// start-date month when one is set; everything else to the payment date.
// Rows dated outside the window are dropped, not
// folded into the edge buckets. The Unaccounted column is the part of the
// entity-side paid totals the ledger cannot explain, attributed to the
// month the entity was created (or the project started); after a ledger
// repair it reads zero everywhere.
func (s *Service) MonthlyRevenue(ctx context.Context, n int) ([]core.MonthBucket, error) {
	if n <= 0 {
		n = 6
	}
	payments, err := s.store.ListPayments(ctx, storage.PaymentFilter{Status: core.RecordCompleted})
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	interns, err := s.store.ListInterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list interns: %w", err)
	}
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	now := time.Now().UTC()
	buckets := make([]core.MonthBucket, n)
	index := map[string]int{}
	for i := 0; i < n; i++ {
		t := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, i-(n-1), 0)
		buckets[i] = core.MonthBucket{Year: t.Year(), Month: int(t.Month())}
		index[monthKey(t.Year(), int(t.Month()))] = i
	}

	projectStart := map[string]core.Date{}
	for _, project := range projects {
		projectStart[project.ID] = project.StartDate
	}

	internLedger := map[string]int64{}
	projectLedger := map[string]int64{}
	for _, p := range payments {
		// Milestone revenue counts toward the month the project started,
		// when a start date is known; everything else toward its payment
		// date.
		at := p.PaymentDate.Time
		if p.ProjectID != "" {
			if start, ok := projectStart[p.ProjectID]; ok && !start.IsEmpty() {
				at = start.Time
			}
		}
		if i, ok := index[monthKey(at.Year(), int(at.Month()))]; ok {
			buckets[i].Revenue.Paise += p.Amount.Paise
		}
		if p.InternID != "" {
			internLedger[p.InternID] += p.Amount.Paise
		}
		if p.ProjectID != "" {
			projectLedger[p.ProjectID] += p.Amount.Paise
		}
	}

	for _, intern := range interns {
		gap := clamp0(intern.PaidFee.Paise - internLedger[intern.ID])
		if gap == 0 {
			continue
		}
		if i, ok := index[monthKey(intern.CreatedAt.Year(), int(intern.CreatedAt.Month()))]; ok {
			buckets[i].Unaccounted.Paise += gap
		}
	}
	for _, project := range projects {
		gap := clamp0(project.PaidAmount.Paise - projectLedger[project.ID])
		if gap == 0 {
			continue
		}
		anchor := project.CreatedAt
		if !project.StartDate.IsEmpty() {
			anchor = project.StartDate.Time
		}
		if i, ok := index[monthKey(anchor.Year(), int(anchor.Month()))]; ok {
			buckets[i].Unaccounted.Paise += gap
		}
	}

	return buckets, nil
}

// DomainRadar groups interns by training domain with the revenue each
// domain brought in, sorted by revenue descending.
func (s *Service) DomainRadar(ctx context.Context) ([]core.DomainStat, error) {
	interns, err := s.store.ListInterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list interns: %w", err)
	}
	payments, err := s.store.ListPayments(ctx, storage.PaymentFilter{Status: core.RecordCompleted})
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	domainOf := map[string]string{}
	stats := map[string]*core.DomainStat{}
	for _, i := range interns {
		domain := i.Domain
		if domain == "" {
			domain = "Unassigned"
		}
		domainOf[i.ID] = domain
		if _, ok := stats[domain]; !ok {
			stats[domain] = &core.DomainStat{Domain: domain}
		}
		stats[domain].Interns++
	}
	for _, p := range payments {
		if p.InternID == "" {
			continue
		}
		if domain, ok := domainOf[p.InternID]; ok {
			stats[domain].Revenue.Paise += p.Amount.Paise
		}
	}

	out := make([]core.DomainStat, 0, len(stats))
	for _, s := range stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue.Paise != out[j].Revenue.Paise {
			return out[i].Revenue.Paise > out[j].Revenue.Paise
		}
		return out[i].Domain < out[j].Domain
	})
	return out, nil
}

func monthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

func clamp0(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
