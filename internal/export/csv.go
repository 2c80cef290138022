package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"opsledger/internal/core"
	"opsledger/internal/storage"
)

// WritePaymentsCSV streams the filtered ledger as CSV with entity names
// resolved. Amounts are in rupees with two decimals.
func (s *Service) WritePaymentsCSV(ctx context.Context, w io.Writer, filter storage.PaymentFilter) error {
	payments, err := s.store.ListPayments(ctx, filter)
	if err != nil {
		return fmt.Errorf("list payments: %w", err)
	}
	interns, err := s.internIndex(ctx)
	if err != nil {
		return err
	}
	clients, err := s.clientIndex(ctx)
	if err != nil {
		return err
	}
	projects, err := s.projectIndex(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"date", "type", "intern", "client", "project",
		"amount_rupees", "method", "transaction_id", "status", "origin"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range payments {
		record := []string{
			p.PaymentDate.Format(dateLayout),
			string(p.Type),
			interns[p.InternID].FullName,
			clients[p.ClientID].CompanyName,
			projects[p.ProjectID].Title,
			core.FormatRupees(p.Amount.Paise),
			p.PaymentMethod,
			p.TransactionID,
			string(p.Status),
			string(p.Origin),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
