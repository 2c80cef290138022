// Package worker mirrors committed ledger rows into a LedgerMirror adapter.
// The primary feed is AMQP events from the API process; a periodic sweep of
// unmirrored rows catches up after lost messages or mirror downtime.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"opsledger/internal/amqp"
	"opsledger/internal/core"
	"opsledger/internal/sheets"
	"opsledger/internal/storage"
)

type MirrorWorker struct {
	store     *storage.Repository
	mirror    sheets.LedgerMirror
	batchSize int
}

func NewMirrorWorker(store *storage.Repository, mirror sheets.LedgerMirror, batchSize int) *MirrorWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &MirrorWorker{store: store, mirror: mirror, batchSize: batchSize}
}

// HandleLedgerEvent processes one event from the queue. The event only
// names the payment; current data is always reloaded from sqlite, so
// out-of-order or replayed deliveries converge on the same sheet state.
func (w *MirrorWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"payment_id", ev.PaymentID, "action", ev.Action)

	if ev.Action == amqp.ActionDeleted {
		if err := w.mirror.Remove(ctx, ev.PaymentID); err != nil {
			return fmt.Errorf("remove mirrored row: %w", err)
		}
		return nil
	}

	payment, err := w.store.GetPayment(ctx, ev.PaymentID)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted between publish and delivery; make sure the sheet agrees.
		return w.mirror.Remove(ctx, ev.PaymentID)
	}
	if err != nil {
		return fmt.Errorf("load payment: %w", err)
	}

	return w.mirrorPayment(ctx, payment)
}

// ProcessUnmirrored sweeps rows whose mirrored_at is unset and pushes them
// to the mirror. Returns how many rows were mirrored.
func (w *MirrorWorker) ProcessUnmirrored(ctx context.Context) (int, error) {
	pending, err := w.store.ListUnmirrored(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list unmirrored payments: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing unmirrored payments", "count", len(pending))

	done := 0
	for _, payment := range pending {
		if err := w.mirrorPayment(ctx, payment); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror payment",
				"payment_id", payment.ID, "error", err)
			continue
		}
		done++
	}
	return done, nil
}

// Run consumes ledger events and sweeps unmirrored rows on a ticker until
// the context is cancelled.
func (w *MirrorWorker) Run(ctx context.Context, events *amqp.Client, sweepInterval time.Duration) error {
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}

	// Catch up before consuming so a long outage drains promptly.
	if _, err := w.ProcessUnmirrored(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial unmirrored sweep failed", "error", err)
	}

	// A nil events client degrades to sweep-only mirroring.
	consumeErr := make(chan error, 1)
	if events != nil {
		go func() {
			consumeErr <- events.ConsumeLedgerEvents(ctx, func(ev *amqp.LedgerEvent) error {
				return w.HandleLedgerEvent(ctx, ev)
			})
		}()
	}

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-consumeErr:
			return err
		case <-ticker.C:
			if _, err := w.ProcessUnmirrored(ctx); err != nil {
				slog.ErrorContext(ctx, "Unmirrored sweep failed", "error", err)
			}
		}
	}
}

func (w *MirrorWorker) mirrorPayment(ctx context.Context, payment core.PaymentRecord) error {
	row, err := w.buildRow(ctx, payment)
	if err != nil {
		return err
	}
	if _, err := w.mirror.Upsert(ctx, row); err != nil {
		return fmt.Errorf("upsert mirrored row: %w", err)
	}
	if err := w.store.MarkMirrored(ctx, payment.ID); err != nil {
		return fmt.Errorf("mark mirrored: %w", err)
	}
	return nil
}

func (w *MirrorWorker) buildRow(ctx context.Context, payment core.PaymentRecord) (sheets.MirrorRow, error) {
	row := sheets.MirrorRow{
		PaymentID:     payment.ID,
		Date:          payment.PaymentDate.Format("2006-01-02"),
		Type:          string(payment.Type),
		AmountRupees:  payment.Amount.Rupees(),
		Method:        payment.PaymentMethod,
		TransactionID: payment.TransactionID,
		Status:        string(payment.Status),
		Origin:        string(payment.Origin),
	}

	if payment.InternID != "" {
		intern, err := w.store.GetIntern(ctx, payment.InternID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return sheets.MirrorRow{}, fmt.Errorf("resolve intern: %w", err)
		}
		row.InternName = intern.FullName
	}
	if payment.ClientID != "" {
		client, err := w.store.GetClient(ctx, payment.ClientID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return sheets.MirrorRow{}, fmt.Errorf("resolve client: %w", err)
		}
		row.ClientName = client.CompanyName
	}
	if payment.ProjectID != "" {
		project, err := w.store.GetProject(ctx, payment.ProjectID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return sheets.MirrorRow{}, fmt.Errorf("resolve project: %w", err)
		}
		row.ProjectName = project.Title
	}
	return row, nil
}
