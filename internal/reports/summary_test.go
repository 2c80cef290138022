package reports

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"opsledger/internal/core"
	"opsledger/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.Repository) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewService(repo), repo
}

func seedIntern(t *testing.T, repo *storage.Repository, i core.Intern) core.Intern {
	t.Helper()
	saved, err := repo.InsertIntern(context.Background(), i)
	if err != nil {
		t.Fatalf("InsertIntern() error = %v", err)
	}
	return saved
}

func seedPayment(t *testing.T, repo *storage.Repository, p core.PaymentRecord) core.PaymentRecord {
	t.Helper()
	if p.Origin == "" {
		p.Origin = core.OriginManual
	}
	saved, err := repo.InsertPayment(context.Background(), p)
	if err != nil {
		t.Fatalf("InsertPayment() error = %v", err)
	}
	return saved
}

func TestService_Dashboard(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	active := seedIntern(t, repo, core.Intern{
		FullName: "A", Status: core.InternActive,
		TotalFee: core.Money{Paise: 10000_00}, PaidFee: core.Money{Paise: 4000_00},
	})
	seedIntern(t, repo, core.Intern{
		FullName: "B", Status: core.InternDropped,
		TotalFee: core.Money{Paise: 5000_00}, PaidFee: core.Money{Paise: 6000_00}, // overpaid
	})
	seedIntern(t, repo, core.Intern{FullName: "C", Status: core.InternPending})

	if _, err := repo.InsertProject(ctx, core.Project{
		Title: "P1", Status: core.ProjectInProgress,
		Value: core.Money{Paise: 30000_00}, PaidAmount: core.Money{Paise: 10000_00},
	}); err != nil {
		t.Fatalf("InsertProject() error = %v", err)
	}
	if _, err := repo.InsertProject(ctx, core.Project{Title: "P2", Status: core.ProjectDelivered}); err != nil {
		t.Fatalf("InsertProject() error = %v", err)
	}

	seedPayment(t, repo, core.PaymentRecord{
		InternID: active.ID, Amount: core.Money{Paise: 4000_00},
		PaymentDate: core.NewDate(2025, 5, 1), Status: core.RecordCompleted, Type: core.TypeInternshipFee,
	})
	// Pending rows stay out of revenue.
	seedPayment(t, repo, core.PaymentRecord{
		InternID: active.ID, Amount: core.Money{Paise: 9999_00},
		PaymentDate: core.NewDate(2025, 5, 2), Status: core.RecordPending, Type: core.TypeInternshipFee,
	})

	m, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	if m.ActiveInterns != 2 {
		t.Errorf("ActiveInterns = %d, want 2 (Active + Pending)", m.ActiveInterns)
	}
	if m.ActiveProjects != 1 {
		t.Errorf("ActiveProjects = %d, want 1", m.ActiveProjects)
	}
	if m.TotalRevenue.Paise != 4000_00 {
		t.Errorf("TotalRevenue = %d, want 400000", m.TotalRevenue.Paise)
	}
	// 6000 outstanding from A, 0 from overpaid B (clamped), 0 from C,
	// 20000 from P1.
	if want := int64(6000_00 + 20000_00); m.Outstanding.Paise != want {
		t.Errorf("Outstanding = %d, want %d", m.Outstanding.Paise, want)
	}
}

func TestService_MonthlyRevenue(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	intern := seedIntern(t, repo, core.Intern{FullName: "A", Status: core.InternActive})

	now := time.Now().UTC()
	thisMonth := core.DateOf(now)
	lastMonth := core.DateOf(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0))

	seedPayment(t, repo, core.PaymentRecord{
		InternID: intern.ID, Amount: core.Money{Paise: 1000_00},
		PaymentDate: thisMonth, Status: core.RecordCompleted, Type: core.TypeInternshipFee,
	})
	seedPayment(t, repo, core.PaymentRecord{
		InternID: intern.ID, Amount: core.Money{Paise: 2000_00},
		PaymentDate: lastMonth, Status: core.RecordCompleted, Type: core.TypeInternshipFee,
	})
	// Far outside the window.
	seedPayment(t, repo, core.PaymentRecord{
		InternID: intern.ID, Amount: core.Money{Paise: 7000_00},
		PaymentDate: core.NewDate(2019, 1, 1), Status: core.RecordCompleted, Type: core.TypeInternshipFee,
	})

	buckets, err := svc.MonthlyRevenue(ctx, 3)
	if err != nil {
		t.Fatalf("MonthlyRevenue() error = %v", err)
	}
	if len(buckets) != 3 {
		t.Fatalf("buckets = %d, want 3", len(buckets))
	}

	last := buckets[2]
	if last.Year != now.Year() || last.Month != int(now.Month()) {
		t.Errorf("newest bucket = %d-%d, want current month", last.Year, last.Month)
	}
	if last.Revenue.Paise != 1000_00 {
		t.Errorf("current month revenue = %d, want 100000", last.Revenue.Paise)
	}
	if buckets[1].Revenue.Paise != 2000_00 {
		t.Errorf("previous month revenue = %d, want 200000", buckets[1].Revenue.Paise)
	}
	if buckets[0].Revenue.Paise != 0 {
		t.Errorf("oldest bucket revenue = %d, want 0", buckets[0].Revenue.Paise)
	}
}

func TestService_MonthlyRevenue_MilestonesFollowStartDate(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	now := time.Now().UTC()
	thisMonth := core.DateOf(now)
	lastMonth := core.DateOf(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0))

	started, err := repo.InsertProject(ctx, core.Project{
		Title: "Started", Status: core.ProjectInProgress, StartDate: lastMonth,
	})
	if err != nil {
		t.Fatalf("InsertProject() error = %v", err)
	}
	undated, err := repo.InsertProject(ctx, core.Project{
		Title: "Undated", Status: core.ProjectInProgress,
	})
	if err != nil {
		t.Fatalf("InsertProject() error = %v", err)
	}

	// A milestone recorded this month for a project started last month
	// counts toward the start month.
	seedPayment(t, repo, core.PaymentRecord{
		ProjectID: started.ID, Amount: core.Money{Paise: 500_00},
		PaymentDate: thisMonth, Status: core.RecordCompleted, Type: core.TypeProjectMilestone,
	})
	// Without a start date the payment date decides.
	seedPayment(t, repo, core.PaymentRecord{
		ProjectID: undated.ID, Amount: core.Money{Paise: 300_00},
		PaymentDate: thisMonth, Status: core.RecordCompleted, Type: core.TypeProjectMilestone,
	})

	buckets, err := svc.MonthlyRevenue(ctx, 3)
	if err != nil {
		t.Fatalf("MonthlyRevenue() error = %v", err)
	}
	if got := buckets[1].Revenue.Paise; got != 500_00 {
		t.Errorf("start-month revenue = %d, want 50000", got)
	}
	if got := buckets[2].Revenue.Paise; got != 300_00 {
		t.Errorf("payment-month revenue = %d, want 30000", got)
	}
}

func TestService_MonthlyRevenue_Unaccounted(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	// Legacy intern: stored paid fee with no ledger rows behind it.
	seedIntern(t, repo, core.Intern{
		FullName: "Legacy", Status: core.InternCompleted,
		TotalFee: core.Money{Paise: 5000_00}, PaidFee: core.Money{Paise: 5000_00},
	})

	buckets, err := svc.MonthlyRevenue(ctx, 2)
	if err != nil {
		t.Fatalf("MonthlyRevenue() error = %v", err)
	}
	// The intern was created just now, so the gap lands in the newest
	// bucket.
	if got := buckets[len(buckets)-1].Unaccounted.Paise; got != 5000_00 {
		t.Errorf("Unaccounted = %d, want 500000", got)
	}
}

func TestService_DomainRadar(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	web1 := seedIntern(t, repo, core.Intern{FullName: "W1", Domain: "Web Development", Status: core.InternActive})
	seedIntern(t, repo, core.Intern{FullName: "W2", Domain: "Web Development", Status: core.InternActive})
	data := seedIntern(t, repo, core.Intern{FullName: "D1", Domain: "Data Science", Status: core.InternActive})
	seedIntern(t, repo, core.Intern{FullName: "N1", Status: core.InternActive}) // no domain

	seedPayment(t, repo, core.PaymentRecord{
		InternID: web1.ID, Amount: core.Money{Paise: 1000_00},
		PaymentDate: core.NewDate(2025, 5, 1), Status: core.RecordCompleted, Type: core.TypeInternshipFee,
	})
	seedPayment(t, repo, core.PaymentRecord{
		InternID: data.ID, Amount: core.Money{Paise: 3000_00},
		PaymentDate: core.NewDate(2025, 5, 1), Status: core.RecordCompleted, Type: core.TypeInternshipFee,
	})

	stats, err := svc.DomainRadar(ctx)
	if err != nil {
		t.Fatalf("DomainRadar() error = %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("domains = %d, want 3", len(stats))
	}
	if stats[0].Domain != "Data Science" || stats[0].Revenue.Paise != 3000_00 {
		t.Errorf("top domain = %+v, want Data Science with 300000", stats[0])
	}
	if stats[1].Domain != "Web Development" || stats[1].Interns != 2 {
		t.Errorf("second domain = %+v, want Web Development with 2 interns", stats[1])
	}
	if stats[2].Domain != "Unassigned" {
		t.Errorf("third domain = %q, want Unassigned", stats[2].Domain)
	}
}
