package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"opsledger/internal/core"
	"opsledger/internal/storage"
)

func newTestReconciler(t *testing.T) (*Reconciler, *storage.Repository) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewReconciler(repo, nil), repo
}

func mustSaveIntern(t *testing.T, r *Reconciler, draft core.Intern, editingID string) core.Intern {
	t.Helper()
	saved, err := r.SaveInternWithDirectPayment(context.Background(), draft, editingID)
	if err != nil {
		t.Fatalf("SaveInternWithDirectPayment() error = %v", err)
	}
	return saved
}

func mustRecordPayment(t *testing.T, r *Reconciler, draft core.PaymentRecord) core.PaymentRecord {
	t.Helper()
	saved, err := r.RecordPayment(context.Background(), draft, "")
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	return saved
}

func internFeePayment(internID string, paise int64) core.PaymentRecord {
	return core.PaymentRecord{
		InternID:      internID,
		Amount:        core.Money{Paise: paise},
		PaymentDate:   core.NewDate(2025, 6, 15),
		PaymentMethod: "UPI",
		Status:        core.RecordCompleted,
		Type:          core.TypeInternshipFee,
	}
}

func TestReconciler_InternPaymentLifecycle(t *testing.T) {
	r, repo := newTestReconciler(t)
	ctx := context.Background()

	intern := mustSaveIntern(t, r, core.Intern{
		FullName: "Asha Verma",
		Domain:   "Web Development",
		Status:   core.InternActive,
		TotalFee: core.Money{Paise: 10000_00},
	}, "")

	if intern.PaymentStatus != core.PaymentUnpaid {
		t.Fatalf("new intern payment status = %v, want Unpaid", intern.PaymentStatus)
	}

	first := mustRecordPayment(t, r, internFeePayment(intern.ID, 4000_00))

	got, err := repo.GetIntern(ctx, intern.ID)
	if err != nil {
		t.Fatalf("GetIntern() error = %v", err)
	}
	if got.PaidFee.Paise != 4000_00 {
		t.Errorf("paid fee after first payment = %d, want 400000", got.PaidFee.Paise)
	}
	if got.PaymentStatus != core.PaymentPartial {
		t.Errorf("status after first payment = %v, want Partial", got.PaymentStatus)
	}

	mustRecordPayment(t, r, internFeePayment(intern.ID, 6000_00))

	got, _ = repo.GetIntern(ctx, intern.ID)
	if got.PaidFee.Paise != 10000_00 {
		t.Errorf("paid fee after second payment = %d, want 1000000", got.PaidFee.Paise)
	}
	if got.PaymentStatus != core.PaymentPaid {
		t.Errorf("status after second payment = %v, want Paid", got.PaymentStatus)
	}

	if err := r.DeletePayment(ctx, first.ID); err != nil {
		t.Fatalf("DeletePayment() error = %v", err)
	}

	got, _ = repo.GetIntern(ctx, intern.ID)
	if got.PaidFee.Paise != 6000_00 {
		t.Errorf("paid fee after delete = %d, want 600000", got.PaidFee.Paise)
	}
	if got.PaymentStatus != core.PaymentPartial {
		t.Errorf("status after delete = %v, want Partial", got.PaymentStatus)
	}
}

func TestReconciler_PendingPaymentsDoNotCount(t *testing.T) {
	r, repo := newTestReconciler(t)

	intern := mustSaveIntern(t, r, core.Intern{
		FullName: "Ravi Nair",
		Status:   core.InternActive,
		TotalFee: core.Money{Paise: 5000_00},
	}, "")

	pending := internFeePayment(intern.ID, 5000_00)
	pending.Status = core.RecordPending
	mustRecordPayment(t, r, pending)

	got, _ := repo.GetIntern(context.Background(), intern.ID)
	if got.PaidFee.Paise != 0 {
		t.Errorf("paid fee with only a pending payment = %d, want 0", got.PaidFee.Paise)
	}
	if got.PaymentStatus != core.PaymentUnpaid {
		t.Errorf("status = %v, want Unpaid", got.PaymentStatus)
	}
}

func TestReconciler_SyntheticInternRecord(t *testing.T) {
	r, repo := newTestReconciler(t)
	ctx := context.Background()

	intern := mustSaveIntern(t, r, core.Intern{
		FullName: "Divya Kulkarni",
		Status:   core.InternPending,
		TotalFee: core.Money{Paise: 2000_00},
		PaidFee:  core.Money{Paise: 500_00},
	}, "")

	synthetic, err := repo.GetSyntheticPayment(ctx, core.OriginAutoIntern, intern.ID)
	if err != nil {
		t.Fatalf("GetSyntheticPayment() error = %v", err)
	}
	if synthetic.Amount.Paise != 500_00 {
		t.Errorf("synthetic amount = %d, want 50000", synthetic.Amount.Paise)
	}
	if synthetic.TransactionID != core.InternEnrollmentTxnID {
		t.Errorf("synthetic transaction id = %q, want %q", synthetic.TransactionID, core.InternEnrollmentTxnID)
	}
	if synthetic.PaymentMethod != "UPI" {
		t.Errorf("synthetic method = %q, want UPI", synthetic.PaymentMethod)
	}
	if intern.PaymentStatus != core.PaymentPartial {
		t.Errorf("status = %v, want Partial", intern.PaymentStatus)
	}

	// Re-saving with a new amount refreshes the same row instead of adding
	// a second one.
	intern.PaidFee = core.Money{Paise: 800_00}
	intern = mustSaveIntern(t, r, intern, intern.ID)

	rows, err := repo.ListPayments(ctx, storage.PaymentFilter{InternID: intern.ID})
	if err != nil {
		t.Fatalf("ListPayments() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("ledger rows after re-save = %d, want 1", len(rows))
	}
	if rows[0].ID != synthetic.ID {
		t.Errorf("synthetic row id changed across saves: %q -> %q", synthetic.ID, rows[0].ID)
	}
	if rows[0].Amount.Paise != 800_00 {
		t.Errorf("refreshed amount = %d, want 80000", rows[0].Amount.Paise)
	}
	if intern.PaidFee.Paise != 800_00 {
		t.Errorf("derived paid fee = %d, want 80000", intern.PaidFee.Paise)
	}

	// Dropping the direct amount to zero removes the synthetic row.
	intern.PaidFee = core.Money{}
	intern = mustSaveIntern(t, r, intern, intern.ID)

	rows, _ = repo.ListPayments(ctx, storage.PaymentFilter{InternID: intern.ID})
	if len(rows) != 0 {
		t.Fatalf("ledger rows after zeroing = %d, want 0", len(rows))
	}
	if intern.PaymentStatus != core.PaymentUnpaid {
		t.Errorf("status after zeroing = %v, want Unpaid", intern.PaymentStatus)
	}
}

func TestReconciler_SyntheticProjectRecord(t *testing.T) {
	r, repo := newTestReconciler(t)
	ctx := context.Background()

	client, err := repo.InsertClient(ctx, core.Client{
		CompanyName: "Meridian Retail",
		Status:      core.ClientActive,
	})
	if err != nil {
		t.Fatalf("InsertClient() error = %v", err)
	}

	project, err := r.SaveProjectWithDirectPayment(ctx, core.Project{
		ClientID:   client.ID,
		Title:      "Inventory portal",
		Value:      core.Money{Paise: 50000_00},
		Status:     core.ProjectInProgress,
		StartDate:  core.NewDate(2025, 4, 1),
		PaidAmount: core.Money{Paise: 15000_00},
	}, "")
	if err != nil {
		t.Fatalf("SaveProjectWithDirectPayment() error = %v", err)
	}

	synthetic, err := repo.GetSyntheticPayment(ctx, core.OriginAutoProject, project.ID)
	if err != nil {
		t.Fatalf("GetSyntheticPayment() error = %v", err)
	}
	if synthetic.TransactionID != core.ProjectInitTxnID(project.ID) {
		t.Errorf("transaction id = %q, want %q", synthetic.TransactionID, core.ProjectInitTxnID(project.ID))
	}
	if synthetic.PaymentMethod != "Bank Transfer" {
		t.Errorf("method = %q, want Bank Transfer", synthetic.PaymentMethod)
	}
	if synthetic.ClientID != client.ID {
		t.Errorf("client id = %q, want %q", synthetic.ClientID, client.ID)
	}
	// The synthetic row takes the project's start date, not today.
	if !synthetic.PaymentDate.Equal(core.NewDate(2025, 4, 1).Time) {
		t.Errorf("payment date = %v, want 2025-04-01", synthetic.PaymentDate)
	}
	if project.PaidAmount.Paise != 15000_00 {
		t.Errorf("derived paid amount = %d, want 1500000", project.PaidAmount.Paise)
	}
}

func TestReconciler_InternalProjectKeepsDirectPayment(t *testing.T) {
	r, repo := newTestReconciler(t)
	ctx := context.Background()

	project, err := r.SaveProjectWithDirectPayment(ctx, core.Project{
		Title:      "Internal CRM revamp",
		Status:     core.ProjectInProgress,
		PaidAmount: core.Money{Paise: 3000_00},
	}, "")
	if err != nil {
		t.Fatalf("SaveProjectWithDirectPayment() error = %v", err)
	}

	// Internal projects have no client, but the direct amount still lands
	// in the ledger so the recompute keeps it.
	if project.PaidAmount.Paise != 3000_00 {
		t.Errorf("paid amount = %d, want 300000", project.PaidAmount.Paise)
	}
	synthetic, err := repo.GetSyntheticPayment(ctx, core.OriginAutoProject, project.ID)
	if err != nil {
		t.Fatalf("GetSyntheticPayment() error = %v", err)
	}
	if synthetic.ClientID != "" {
		t.Errorf("client id = %q, want empty", synthetic.ClientID)
	}
}

func TestReconciler_SyncIsIdempotent(t *testing.T) {
	r, repo := newTestReconciler(t)
	ctx := context.Background()

	intern := mustSaveIntern(t, r, core.Intern{
		FullName: "Karan Shah",
		Status:   core.InternActive,
		TotalFee: core.Money{Paise: 8000_00},
	}, "")
	mustRecordPayment(t, r, internFeePayment(intern.ID, 3000_00))

	for i := 0; i < 3; i++ {
		if err := r.SyncInternStats(ctx, intern.ID); err != nil {
			t.Fatalf("SyncInternStats() run %d error = %v", i, err)
		}
	}

	got, _ := repo.GetIntern(ctx, intern.ID)
	if got.PaidFee.Paise != 3000_00 {
		t.Errorf("paid fee after repeated sync = %d, want 300000", got.PaidFee.Paise)
	}
	if got.PaymentStatus != core.PaymentPartial {
		t.Errorf("status = %v, want Partial", got.PaymentStatus)
	}
}

func TestReconciler_EditPaymentMovesBetweenInterns(t *testing.T) {
	r, repo := newTestReconciler(t)
	ctx := context.Background()

	a := mustSaveIntern(t, r, core.Intern{FullName: "A", Status: core.InternActive, TotalFee: core.Money{Paise: 5000_00}}, "")
	b := mustSaveIntern(t, r, core.Intern{FullName: "B", Status: core.InternActive, TotalFee: core.Money{Paise: 5000_00}}, "")

	payment := mustRecordPayment(t, r, internFeePayment(a.ID, 2000_00))

	moved := payment
	moved.InternID = b.ID
	if _, err := r.RecordPayment(ctx, moved, payment.ID); err != nil {
		t.Fatalf("RecordPayment(edit) error = %v", err)
	}

	gotA, _ := repo.GetIntern(ctx, a.ID)
	gotB, _ := repo.GetIntern(ctx, b.ID)
	if gotA.PaidFee.Paise != 0 {
		t.Errorf("previous owner paid fee = %d, want 0", gotA.PaidFee.Paise)
	}
	if gotB.PaidFee.Paise != 2000_00 {
		t.Errorf("new owner paid fee = %d, want 200000", gotB.PaidFee.Paise)
	}
}

func TestReconciler_RecordPaymentValidation(t *testing.T) {
	r, _ := newTestReconciler(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		draft   core.PaymentRecord
		wantErr error
	}{
		{
			name: "zero amount",
			draft: core.PaymentRecord{
				InternID: "int-1", Amount: core.Money{},
				Status: core.RecordCompleted, Type: core.TypeInternshipFee,
			},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			draft: core.PaymentRecord{
				InternID: "int-1", Amount: core.Money{Paise: -100},
				Status: core.RecordCompleted, Type: core.TypeInternshipFee,
			},
			wantErr: core.ErrInvalidAmount,
		},
		{
			name: "no owner",
			draft: core.PaymentRecord{
				Amount: core.Money{Paise: 100_00},
				Status: core.RecordCompleted, Type: core.TypeProductSale,
			},
			wantErr: core.ErrMissingOwner,
		},
		{
			name: "milestone without project",
			draft: core.PaymentRecord{
				ClientID: "cli-1", Amount: core.Money{Paise: 100_00},
				Status: core.RecordCompleted, Type: core.TypeProjectMilestone,
			},
			wantErr: core.ErrTypeOwnerFields,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.RecordPayment(ctx, tt.draft, "")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RecordPayment() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReconciler_RepairInternLedger(t *testing.T) {
	r, repo := newTestReconciler(t)
	ctx := context.Background()

	// Legacy row: stored paid fee with no ledger history behind it.
	legacy, err := repo.InsertIntern(ctx, core.Intern{
		FullName:      "Meena Pillai",
		Status:        core.InternCompleted,
		TotalFee:      core.Money{Paise: 6000_00},
		PaidFee:       core.Money{Paise: 6000_00},
		PaymentStatus: core.PaymentPaid,
	})
	if err != nil {
		t.Fatalf("InsertIntern() error = %v", err)
	}

	// Healthy row: ledger already explains the paid fee.
	healthy := mustSaveIntern(t, r, core.Intern{
		FullName: "Rohit Iyer",
		Status:   core.InternActive,
		TotalFee: core.Money{Paise: 4000_00},
	}, "")
	mustRecordPayment(t, r, internFeePayment(healthy.ID, 1000_00))

	repaired, err := r.RepairInternLedger(ctx)
	if err != nil {
		t.Fatalf("RepairInternLedger() error = %v", err)
	}
	if repaired != 1 {
		t.Errorf("repaired = %d, want 1", repaired)
	}

	synthetic, err := repo.GetSyntheticPayment(ctx, core.OriginAutoIntern, legacy.ID)
	if err != nil {
		t.Fatalf("GetSyntheticPayment() error = %v", err)
	}
	if synthetic.Amount.Paise != 6000_00 {
		t.Errorf("backfilled amount = %d, want 600000", synthetic.Amount.Paise)
	}

	got, _ := repo.GetIntern(ctx, legacy.ID)
	if got.PaidFee.Paise != 6000_00 || got.PaymentStatus != core.PaymentPaid {
		t.Errorf("legacy intern after repair = %d/%v, want 600000/Paid", got.PaidFee.Paise, got.PaymentStatus)
	}

	// The healthy intern must not be double-booked.
	rows, _ := repo.ListPayments(ctx, storage.PaymentFilter{InternID: healthy.ID})
	if len(rows) != 1 {
		t.Errorf("healthy intern ledger rows = %d, want 1", len(rows))
	}

	// Re-running the repair changes nothing.
	repaired, err = r.RepairInternLedger(ctx)
	if err != nil {
		t.Fatalf("RepairInternLedger() second run error = %v", err)
	}
	if repaired != 0 {
		t.Errorf("second run repaired = %d, want 0", repaired)
	}
}

func TestReconciler_RepairProjectLedger(t *testing.T) {
	r, repo := newTestReconciler(t)
	ctx := context.Background()

	legacy, err := repo.InsertProject(ctx, core.Project{
		Title:      "Legacy migration",
		Status:     core.ProjectDelivered,
		Value:      core.Money{Paise: 20000_00},
		PaidAmount: core.Money{Paise: 20000_00},
		StartDate:  core.NewDate(2024, 11, 1),
	})
	if err != nil {
		t.Fatalf("InsertProject() error = %v", err)
	}

	repaired, err := r.RepairProjectLedger(ctx)
	if err != nil {
		t.Fatalf("RepairProjectLedger() error = %v", err)
	}
	if repaired != 1 {
		t.Errorf("repaired = %d, want 1", repaired)
	}

	synthetic, err := repo.GetSyntheticPayment(ctx, core.OriginAutoProject, legacy.ID)
	if err != nil {
		t.Fatalf("GetSyntheticPayment() error = %v", err)
	}
	if !synthetic.PaymentDate.Equal(core.NewDate(2024, 11, 1).Time) {
		t.Errorf("backfilled date = %v, want project start date", synthetic.PaymentDate)
	}

	got, _ := repo.GetProject(ctx, legacy.ID)
	if got.PaidAmount.Paise != 20000_00 {
		t.Errorf("paid amount after repair = %d, want 2000000", got.PaidAmount.Paise)
	}
}

func TestReconciler_DeleteClientCascades(t *testing.T) {
	r, repo := newTestReconciler(t)
	ctx := context.Background()

	client, err := repo.InsertClient(ctx, core.Client{CompanyName: "Northwind", Status: core.ClientActive})
	if err != nil {
		t.Fatalf("InsertClient() error = %v", err)
	}
	project, err := r.SaveProjectWithDirectPayment(ctx, core.Project{
		ClientID:   client.ID,
		Title:      "Storefront",
		Status:     core.ProjectInProgress,
		PaidAmount: core.Money{Paise: 1000_00},
	}, "")
	if err != nil {
		t.Fatalf("SaveProjectWithDirectPayment() error = %v", err)
	}
	// A milestone carrying only the project FK still has to go with the
	// client.
	mustRecordPayment(t, r, core.PaymentRecord{
		ProjectID:     project.ID,
		Amount:        core.Money{Paise: 500_00},
		PaymentDate:   core.NewDate(2025, 5, 5),
		PaymentMethod: "Bank Transfer",
		Status:        core.RecordCompleted,
		Type:          core.TypeProjectMilestone,
	})

	if err := r.DeleteClient(ctx, client.ID); err != nil {
		t.Fatalf("DeleteClient() error = %v", err)
	}

	if _, err := repo.GetClient(ctx, client.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetClient() after cascade = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetProject(ctx, project.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetProject() after cascade = %v, want ErrNotFound", err)
	}
	byProject, _ := repo.ListPayments(ctx, storage.PaymentFilter{ProjectID: project.ID})
	byClient, _ := repo.ListPayments(ctx, storage.PaymentFilter{ClientID: client.ID})
	if len(byProject)+len(byClient) != 0 {
		t.Errorf("payments left after cascade = %d, want 0", len(byProject)+len(byClient))
	}
}

func TestReconciler_DeleteInternRemovesHistory(t *testing.T) {
	r, repo := newTestReconciler(t)
	ctx := context.Background()

	intern := mustSaveIntern(t, r, core.Intern{
		FullName: "Sneha Rao",
		Status:   core.InternActive,
		TotalFee: core.Money{Paise: 3000_00},
		PaidFee:  core.Money{Paise: 1000_00},
	}, "")
	mustRecordPayment(t, r, internFeePayment(intern.ID, 500_00))

	if err := r.DeleteIntern(ctx, intern.ID); err != nil {
		t.Fatalf("DeleteIntern() error = %v", err)
	}

	if _, err := repo.GetIntern(ctx, intern.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetIntern() after delete = %v, want ErrNotFound", err)
	}
	rows, _ := repo.ListPayments(ctx, storage.PaymentFilter{InternID: intern.ID})
	if len(rows) != 0 {
		t.Errorf("payments left after delete = %d, want 0", len(rows))
	}
}

func TestReconciler_StaleVersionRejected(t *testing.T) {
	r, repo := newTestReconciler(t)
	ctx := context.Background()

	intern := mustSaveIntern(t, r, core.Intern{
		FullName: "Vikram Menon",
		Status:   core.InternActive,
		TotalFee: core.Money{Paise: 5000_00},
	}, "")

	// A concurrent editor saved first; our copy's version is now stale.
	fresh, _ := repo.GetIntern(ctx, intern.ID)
	fresh.College = "NIT Trichy"
	if _, err := r.SaveInternWithDirectPayment(ctx, fresh, fresh.ID); err != nil {
		t.Fatalf("first save error = %v", err)
	}

	stale := intern
	stale.College = "IIT Madras"
	_, err := r.SaveInternWithDirectPayment(ctx, stale, stale.ID)
	if !errors.Is(err, storage.ErrStaleVersion) {
		t.Errorf("stale save error = %v, want ErrStaleVersion", err)
	}
}
