package worker

import (
	"context"
	"path/filepath"
	"testing"

	"opsledger/internal/amqp"
	"opsledger/internal/core"
	"opsledger/internal/sheets"
	"opsledger/internal/sheets/memory"
	"opsledger/internal/storage"
)

func newTestWorker(t *testing.T) (*MirrorWorker, *storage.Repository, *memory.Store) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	mirror := memory.New()
	return NewMirrorWorker(repo, mirror, 10), repo, mirror
}

func seedPayment(t *testing.T, repo *storage.Repository, internName string, paise int64) core.PaymentRecord {
	t.Helper()
	ctx := context.Background()
	intern, err := repo.InsertIntern(ctx, core.Intern{FullName: internName, Status: core.InternActive})
	if err != nil {
		t.Fatalf("InsertIntern() error = %v", err)
	}
	p, err := repo.InsertPayment(ctx, core.PaymentRecord{
		InternID: intern.ID, Amount: core.Money{Paise: paise},
		PaymentDate: core.NewDate(2025, 4, 10), PaymentMethod: "UPI",
		Status: core.RecordCompleted, Type: core.TypeInternshipFee,
		Origin: core.OriginManual,
	})
	if err != nil {
		t.Fatalf("InsertPayment() error = %v", err)
	}
	return p
}

func TestMirrorWorker_HandleLedgerEvent(t *testing.T) {
	w, repo, mirror := newTestWorker(t)
	ctx := context.Background()

	payment := seedPayment(t, repo, "Asha Verma", 1500_00)

	ev := amqp.NewLedgerEvent(amqp.ActionCreated, payment)
	if err := w.HandleLedgerEvent(ctx, &ev); err != nil {
		t.Fatalf("HandleLedgerEvent() error = %v", err)
	}

	row, ok := mirror.Get(payment.ID)
	if !ok {
		t.Fatal("payment not mirrored")
	}
	if row.InternName != "Asha Verma" {
		t.Errorf("mirrored intern name = %q, want Asha Verma", row.InternName)
	}
	if row.AmountRupees != 1500 {
		t.Errorf("mirrored amount = %v, want 1500", row.AmountRupees)
	}
	if row.Date != "2025-04-10" {
		t.Errorf("mirrored date = %q, want 2025-04-10", row.Date)
	}

	// The event marked the row mirrored, so the sweep finds nothing.
	n, err := w.ProcessUnmirrored(ctx)
	if err != nil {
		t.Fatalf("ProcessUnmirrored() error = %v", err)
	}
	if n != 0 {
		t.Errorf("ProcessUnmirrored() = %d, want 0", n)
	}
}

func TestMirrorWorker_DeleteEvent(t *testing.T) {
	w, repo, mirror := newTestWorker(t)
	ctx := context.Background()

	payment := seedPayment(t, repo, "Ravi Nair", 1000_00)
	created := amqp.NewLedgerEvent(amqp.ActionCreated, payment)
	if err := w.HandleLedgerEvent(ctx, &created); err != nil {
		t.Fatalf("HandleLedgerEvent(created) error = %v", err)
	}

	deleted := amqp.NewLedgerEvent(amqp.ActionDeleted, payment)
	if err := w.HandleLedgerEvent(ctx, &deleted); err != nil {
		t.Fatalf("HandleLedgerEvent(deleted) error = %v", err)
	}
	if _, ok := mirror.Get(payment.ID); ok {
		t.Error("row still mirrored after delete event")
	}
}

func TestMirrorWorker_EventForMissingPaymentRemoves(t *testing.T) {
	w, _, mirror := newTestWorker(t)
	ctx := context.Background()

	// An update event arrives after the row was already deleted from
	// sqlite; the worker clears the mirror instead of failing.
	mirror.Upsert(ctx, sheets.MirrorRow{PaymentID: "gone-id"})
	ev := &amqp.LedgerEvent{PaymentID: "gone-id", Action: amqp.ActionUpdated}
	if err := w.HandleLedgerEvent(ctx, ev); err != nil {
		t.Fatalf("HandleLedgerEvent() error = %v", err)
	}
	if _, ok := mirror.Get("gone-id"); ok {
		t.Error("stale mirror row not removed")
	}
}

func TestMirrorWorker_ProcessUnmirroredSweep(t *testing.T) {
	w, repo, mirror := newTestWorker(t)
	ctx := context.Background()

	first := seedPayment(t, repo, "A", 100_00)
	second := seedPayment(t, repo, "B", 200_00)

	n, err := w.ProcessUnmirrored(ctx)
	if err != nil {
		t.Fatalf("ProcessUnmirrored() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("ProcessUnmirrored() = %d, want 2", n)
	}
	if mirror.Len() != 2 {
		t.Errorf("mirror rows = %d, want 2", mirror.Len())
	}
	if _, ok := mirror.Get(first.ID); !ok {
		t.Error("first payment not mirrored")
	}
	if _, ok := mirror.Get(second.ID); !ok {
		t.Error("second payment not mirrored")
	}

	// Second sweep is a no-op.
	n, _ = w.ProcessUnmirrored(ctx)
	if n != 0 {
		t.Errorf("second sweep = %d, want 0", n)
	}
}
