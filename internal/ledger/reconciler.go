// Package ledger keeps the payments table and the derived balances on
// interns and projects mutually consistent. Every operation here runs inside
// one storage transaction, so downstream readers never observe a ledger row
// without its entity-side effect.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"opsledger/internal/amqp"
	"opsledger/internal/core"
	"opsledger/internal/storage"
)

const repairConcurrency = 4

// Reconciler applies ledger mutations and recomputes derived entity state.
// The AMQP client is optional; with a nil client events are skipped and the
// sqlite write still succeeds.
type Reconciler struct {
	store  *storage.Repository
	events *amqp.Client
}

func NewReconciler(store *storage.Repository, events *amqp.Client) *Reconciler {
	return &Reconciler{store: store, events: events}
}

// RecordPayment inserts a new ledger row, or updates the row named by
// editingID in place, and resyncs every intern/project the write touches.
// When an edit moves a payment between owners, the previous owner is
// resynced too so its balance drops the departed amount.
func (r *Reconciler) RecordPayment(ctx context.Context, draft core.PaymentRecord, editingID string) (core.PaymentRecord, error) {
	if draft.PaymentDate.IsEmpty() {
		draft.PaymentDate = core.DateOf(time.Now())
	}
	if draft.Origin == "" {
		draft.Origin = core.OriginManual
	}
	if err := draft.Validate(); err != nil {
		return core.PaymentRecord{}, err
	}

	var saved core.PaymentRecord
	action := amqp.ActionCreated
	err := r.store.WithTx(ctx, func(q *storage.Queries) error {
		var prior core.PaymentRecord
		if editingID != "" {
			var err error
			prior, err = q.GetPayment(ctx, editingID)
			if err != nil {
				return fmt.Errorf("load payment %s: %w", editingID, err)
			}
			draft.ID = editingID
			draft.Origin = prior.Origin
			if err := q.UpdatePayment(ctx, draft); err != nil {
				return err
			}
			saved = draft
			action = amqp.ActionUpdated
		} else {
			var err error
			saved, err = q.InsertPayment(ctx, draft)
			if err != nil {
				return err
			}
		}
		return r.syncOwners(ctx, q, saved, prior)
	})
	if err != nil {
		return core.PaymentRecord{}, err
	}

	r.publish(ctx, action, saved)
	return saved, nil
}

// DeletePayment removes a ledger row and resyncs the entities it referenced,
// so their derived fields equal the sum over the remaining Completed rows.
func (r *Reconciler) DeletePayment(ctx context.Context, id string) error {
	var removed core.PaymentRecord
	err := r.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		removed, err = q.GetPayment(ctx, id)
		if err != nil {
			return fmt.Errorf("load payment %s: %w", id, err)
		}
		if err := q.DeletePayment(ctx, id); err != nil {
			return err
		}
		return r.syncOwners(ctx, q, removed, core.PaymentRecord{})
	})
	if err != nil {
		return err
	}

	r.publish(ctx, amqp.ActionDeleted, removed)
	return nil
}

// SyncInternStats recomputes paid_fee and payment_status for one intern from
// the Completed ledger rows. Idempotent.
func (r *Reconciler) SyncInternStats(ctx context.Context, internID string) error {
	return r.store.WithTx(ctx, func(q *storage.Queries) error {
		return syncIntern(ctx, q, internID)
	})
}

// SyncProjectStats recomputes paid_amount for one project. Idempotent.
func (r *Reconciler) SyncProjectStats(ctx context.Context, projectID string) error {
	return r.store.WithTx(ctx, func(q *storage.Queries) error {
		return syncProject(ctx, q, projectID)
	})
}

// SaveInternWithDirectPayment saves an intern whose form carried a direct
// paid-fee value and maintains the intern's synthetic ledger row: refreshed
// while the fee is positive, deleted when it returns to zero. Derived fields
// are then recomputed from the ledger rather than trusted from the caller.
func (r *Reconciler) SaveInternWithDirectPayment(ctx context.Context, draft core.Intern, editingID string) (core.Intern, error) {
	if err := draft.Validate(); err != nil {
		return core.Intern{}, err
	}

	var saved core.Intern
	var pending []pendingEvent
	err := r.store.WithTx(ctx, func(q *storage.Queries) error {
		directPaid := draft.PaidFee
		draft.PaymentStatus = core.PaymentStatusFor(directPaid, draft.TotalFee)

		var err error
		if editingID != "" {
			draft.ID = editingID
			saved, err = q.UpdateIntern(ctx, draft)
		} else {
			saved, err = q.InsertIntern(ctx, draft)
		}
		if err != nil {
			return err
		}

		synthetic := core.PaymentRecord{
			InternID:      saved.ID,
			Amount:        directPaid,
			PaymentDate:   core.DateOf(time.Now()),
			PaymentMethod: core.DefaultMethodFor(core.OriginAutoIntern),
			TransactionID: core.InternEnrollmentTxnID,
			Status:        core.RecordCompleted,
			Type:          core.TypeInternshipFee,
			Origin:        core.OriginAutoIntern,
		}
		if err := r.upsertSynthetic(ctx, q, core.OriginAutoIntern, saved.ID, directPaid, synthetic, &pending); err != nil {
			return err
		}

		if err := syncIntern(ctx, q, saved.ID); err != nil {
			return err
		}
		saved, err = q.GetIntern(ctx, saved.ID)
		return err
	})
	if err != nil {
		return core.Intern{}, err
	}
	r.flush(ctx, pending)
	return saved, nil
}

// SaveProjectWithDirectPayment is the project-side twin. The synthetic row
// is dated to the project's start date when one is set, and is created for
// internal projects too (client_id stays empty) so their paid amount survives
// the ledger recompute.
func (r *Reconciler) SaveProjectWithDirectPayment(ctx context.Context, draft core.Project, editingID string) (core.Project, error) {
	if err := draft.Validate(); err != nil {
		return core.Project{}, err
	}

	var saved core.Project
	var pending []pendingEvent
	err := r.store.WithTx(ctx, func(q *storage.Queries) error {
		directPaid := draft.PaidAmount

		var err error
		if editingID != "" {
			draft.ID = editingID
			saved, err = q.UpdateProject(ctx, draft)
		} else {
			saved, err = q.InsertProject(ctx, draft)
		}
		if err != nil {
			return err
		}

		paymentDate := saved.StartDate
		if paymentDate.IsEmpty() {
			paymentDate = core.DateOf(time.Now())
		}
		synthetic := core.PaymentRecord{
			ClientID:      saved.ClientID,
			ProjectID:     saved.ID,
			Amount:        directPaid,
			PaymentDate:   paymentDate,
			PaymentMethod: core.DefaultMethodFor(core.OriginAutoProject),
			TransactionID: core.ProjectInitTxnID(saved.ID),
			Status:        core.RecordCompleted,
			Type:          core.TypeProjectMilestone,
			Origin:        core.OriginAutoProject,
		}
		if err := r.upsertSynthetic(ctx, q, core.OriginAutoProject, saved.ID, directPaid, synthetic, &pending); err != nil {
			return err
		}

		if err := syncProject(ctx, q, saved.ID); err != nil {
			return err
		}
		saved, err = q.GetProject(ctx, saved.ID)
		return err
	})
	if err != nil {
		return core.Project{}, err
	}
	r.flush(ctx, pending)
	return saved, nil
}

// pendingEvent defers publishing until the surrounding transaction commits.
type pendingEvent struct {
	action  string
	payment core.PaymentRecord
}

// upsertSynthetic enforces the at-most-one synthetic row policy: refresh the
// existing row while the direct amount is positive, insert one if missing,
// delete it when the amount returns to zero. Absence, not a zero-amount row,
// represents "no direct payment".
func (r *Reconciler) upsertSynthetic(ctx context.Context, q *storage.Queries, origin core.PaymentOrigin, entityID string, amount core.Money, draft core.PaymentRecord, pending *[]pendingEvent) error {
	existing, err := q.GetSyntheticPayment(ctx, origin, entityID)
	switch {
	case err == nil && amount.Paise > 0:
		if err := q.RefreshSyntheticPayment(ctx, existing.ID, amount, draft.PaymentDate); err != nil {
			return err
		}
		existing.Amount = amount
		existing.PaymentDate = draft.PaymentDate
		*pending = append(*pending, pendingEvent{amqp.ActionUpdated, existing})
	case err == nil:
		if err := q.DeletePayment(ctx, existing.ID); err != nil {
			return err
		}
		*pending = append(*pending, pendingEvent{amqp.ActionDeleted, existing})
	case errors.Is(err, storage.ErrNotFound) && amount.Paise > 0:
		inserted, err := q.InsertPayment(ctx, draft)
		if err != nil {
			return err
		}
		*pending = append(*pending, pendingEvent{amqp.ActionCreated, inserted})
	case errors.Is(err, storage.ErrNotFound):
		// amount <= 0 and nothing to remove
	default:
		return err
	}
	return nil
}

func (r *Reconciler) flush(ctx context.Context, pending []pendingEvent) {
	for _, ev := range pending {
		r.publish(ctx, ev.action, ev.payment)
	}
}

// RepairInternLedger backfills synthetic rows for interns whose stored paid
// fee predates the ledger, then resyncs every intern. Idempotent; safe to
// re-trigger after a partial failure.
func (r *Reconciler) RepairInternLedger(ctx context.Context) (int, error) {
	interns, err := r.store.ListInterns(ctx)
	if err != nil {
		return 0, err
	}
	repaired := 0
	for _, intern := range interns {
		changed, err := r.repairIntern(ctx, intern)
		if err != nil {
			return repaired, fmt.Errorf("repair intern %s: %w", intern.ID, err)
		}
		if changed {
			repaired++
		}
	}
	if err := r.resyncAllInterns(ctx, interns); err != nil {
		return repaired, err
	}
	slog.InfoContext(ctx, "Intern ledger repair finished", "interns", len(interns), "repaired", repaired)
	return repaired, nil
}

// RepairProjectLedger is the project-side repair pass.
func (r *Reconciler) RepairProjectLedger(ctx context.Context) (int, error) {
	projects, err := r.store.ListProjects(ctx)
	if err != nil {
		return 0, err
	}
	repaired := 0
	for _, project := range projects {
		changed, err := r.repairProject(ctx, project)
		if err != nil {
			return repaired, fmt.Errorf("repair project %s: %w", project.ID, err)
		}
		if changed {
			repaired++
		}
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(repairConcurrency)
	for _, project := range projects {
		g.Go(func() error {
			return r.SyncProjectStats(gctx, project.ID)
		})
	}
	if err := g.Wait(); err != nil {
		return repaired, err
	}
	slog.InfoContext(ctx, "Project ledger repair finished", "projects", len(projects), "repaired", repaired)
	return repaired, nil
}

func (r *Reconciler) repairIntern(ctx context.Context, intern core.Intern) (bool, error) {
	if intern.PaidFee.Paise <= 0 {
		return false, nil
	}
	changed := false
	err := r.store.WithTx(ctx, func(q *storage.Queries) error {
		// Any existing row for the intern means the ledger already explains
		// some of the paid fee; backfilling on top would double-book.
		existing, err := q.ListPayments(ctx, storage.PaymentFilter{InternID: intern.ID})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		_, err = q.InsertPayment(ctx, core.PaymentRecord{
			InternID:      intern.ID,
			Amount:        intern.PaidFee,
			PaymentDate:   core.DateOf(time.Now()),
			PaymentMethod: core.DefaultMethodFor(core.OriginAutoIntern),
			TransactionID: core.InternEnrollmentTxnID,
			Status:        core.RecordCompleted,
			Type:          core.TypeInternshipFee,
			Origin:        core.OriginAutoIntern,
		})
		changed = err == nil
		return err
	})
	return changed, err
}

func (r *Reconciler) repairProject(ctx context.Context, project core.Project) (bool, error) {
	if project.PaidAmount.Paise <= 0 {
		return false, nil
	}
	changed := false
	err := r.store.WithTx(ctx, func(q *storage.Queries) error {
		existing, err := q.ListPayments(ctx, storage.PaymentFilter{ProjectID: project.ID})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		paymentDate := project.StartDate
		if paymentDate.IsEmpty() {
			paymentDate = core.DateOf(time.Now())
		}
		_, err = q.InsertPayment(ctx, core.PaymentRecord{
			ClientID:      project.ClientID,
			ProjectID:     project.ID,
			Amount:        project.PaidAmount,
			PaymentDate:   paymentDate,
			PaymentMethod: core.DefaultMethodFor(core.OriginAutoProject),
			TransactionID: core.ProjectInitTxnID(project.ID),
			Status:        core.RecordCompleted,
			Type:          core.TypeProjectMilestone,
			Origin:        core.OriginAutoProject,
		})
		changed = err == nil
		return err
	})
	return changed, err
}

func (r *Reconciler) resyncAllInterns(ctx context.Context, interns []core.Intern) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(repairConcurrency)
	for _, intern := range interns {
		g.Go(func() error {
			return r.SyncInternStats(gctx, intern.ID)
		})
	}
	return g.Wait()
}

// DeleteClient cascades in fixed order: payments, then projects, then the
// client, so a partial failure never leaves orphaned foreign keys behind
// rows that were already removed.
func (r *Reconciler) DeleteClient(ctx context.Context, clientID string) error {
	return r.store.WithTx(ctx, func(q *storage.Queries) error {
		projects, err := q.ListProjectsByClient(ctx, clientID)
		if err != nil {
			return err
		}
		for _, p := range projects {
			if err := q.DeletePaymentsByProject(ctx, p.ID); err != nil {
				return err
			}
		}
		if err := q.DeletePaymentsByClient(ctx, clientID); err != nil {
			return err
		}
		if err := q.DeleteProjectsByClient(ctx, clientID); err != nil {
			return err
		}
		return q.DeleteClient(ctx, clientID)
	})
}

// DeleteProject removes a project and its payment history.
func (r *Reconciler) DeleteProject(ctx context.Context, projectID string) error {
	return r.store.WithTx(ctx, func(q *storage.Queries) error {
		if err := q.DeletePaymentsByProject(ctx, projectID); err != nil {
			return err
		}
		return q.DeleteProject(ctx, projectID)
	})
}

// DeleteIntern removes an intern and their payment history.
func (r *Reconciler) DeleteIntern(ctx context.Context, internID string) error {
	return r.store.WithTx(ctx, func(q *storage.Queries) error {
		if err := q.DeletePaymentsByIntern(ctx, internID); err != nil {
			return err
		}
		return q.DeleteIntern(ctx, internID)
	})
}

// syncOwners resyncs every entity referenced by either the written payment
// or its prior state (for edits that changed foreign keys).
func (r *Reconciler) syncOwners(ctx context.Context, q *storage.Queries, current, prior core.PaymentRecord) error {
	for _, internID := range distinct(current.InternID, prior.InternID) {
		if err := syncIntern(ctx, q, internID); err != nil {
			return err
		}
	}
	for _, projectID := range distinct(current.ProjectID, prior.ProjectID) {
		if err := syncProject(ctx, q, projectID); err != nil {
			return err
		}
	}
	return nil
}

func syncIntern(ctx context.Context, q *storage.Queries, internID string) error {
	paid, err := q.SumCompletedByIntern(ctx, internID)
	if err != nil {
		return err
	}
	intern, err := q.GetIntern(ctx, internID)
	if err != nil {
		return fmt.Errorf("load intern %s: %w", internID, err)
	}
	status := core.PaymentStatusFor(paid, intern.TotalFee)
	if err := q.UpdateInternDerived(ctx, internID, paid, status); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Intern stats synced",
		"intern_id", internID, "paid_fee_paise", paid.Paise, "payment_status", string(status))
	return nil
}

func syncProject(ctx context.Context, q *storage.Queries, projectID string) error {
	paid, err := q.SumCompletedByProject(ctx, projectID)
	if err != nil {
		return err
	}
	if err := q.UpdateProjectDerived(ctx, projectID, paid); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Project stats synced",
		"project_id", projectID, "paid_amount_paise", paid.Paise)
	return nil
}

func (r *Reconciler) publish(ctx context.Context, action string, p core.PaymentRecord) {
	if r.events == nil {
		return
	}
	if err := r.events.PublishLedgerEvent(ctx, amqp.NewLedgerEvent(action, p)); err != nil {
		// The sqlite write already committed; the mirror catches up from
		// unmirrored rows on its next pass.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"action", action, "payment_id", p.ID, "error", err)
	}
}

func distinct(ids ...string) []string {
	var out []string
	seen := map[string]bool{}
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
