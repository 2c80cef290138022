// Package export renders ledger and entity data as downloadable XLSX
// workbooks and CSV files. Amounts are written in rupees so the files open
// readable in a spreadsheet without any post-processing.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"opsledger/internal/core"
	"opsledger/internal/storage"
)

const dateLayout = "2006-01-02"

type Service struct {
	store *storage.Repository
}

func NewService(store *storage.Repository) *Service {
	return &Service{store: store}
}

// WriteInternPaymentsXLSX writes one sheet of intern fee payments with the
// intern's name and domain resolved onto each row.
func (s *Service) WriteInternPaymentsXLSX(ctx context.Context, w io.Writer) error {
	payments, err := s.store.ListPayments(ctx, storage.PaymentFilter{Type: core.TypeInternshipFee})
	if err != nil {
		return fmt.Errorf("list intern payments: %w", err)
	}
	interns, err := s.internIndex(ctx)
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(payments))
	for _, p := range payments {
		intern := interns[p.InternID]
		rows = append(rows, []any{
			intern.FullName,
			intern.Domain,
			p.Amount.Rupees(),
			p.PaymentDate.Format(dateLayout),
			p.PaymentMethod,
			p.TransactionID,
			string(p.Status),
		})
	}
	return writeSheets(w, []sheet{{
		name:    "Intern Payments",
		headers: []string{"Intern", "Domain", "Amount (Rs)", "Date", "Method", "Transaction ID", "Status"},
		rows:    rows,
	}})
}

// WriteClientPaymentsXLSX writes client-side payments (milestones and
// product sales) with client and project context.
func (s *Service) WriteClientPaymentsXLSX(ctx context.Context, w io.Writer) error {
	payments, err := s.store.ListPayments(ctx, storage.PaymentFilter{})
	if err != nil {
		return fmt.Errorf("list payments: %w", err)
	}
	clients, err := s.clientIndex(ctx)
	if err != nil {
		return err
	}
	projects, err := s.projectIndex(ctx)
	if err != nil {
		return err
	}

	var rows [][]any
	for _, p := range payments {
		if p.Type == core.TypeInternshipFee {
			continue
		}
		rows = append(rows, []any{
			clients[p.ClientID].CompanyName,
			projects[p.ProjectID].Title,
			string(p.Type),
			p.Amount.Rupees(),
			p.PaymentDate.Format(dateLayout),
			p.PaymentMethod,
			string(p.Status),
		})
	}
	return writeSheets(w, []sheet{{
		name:    "Client Payments",
		headers: []string{"Client", "Project", "Type", "Amount (Rs)", "Date", "Method", "Status"},
		rows:    rows,
	}})
}

// WriteBusinessOverviewXLSX writes a two-sheet workbook: clients with their
// contact details and projects with value against collected amount.
func (s *Service) WriteBusinessOverviewXLSX(ctx context.Context, w io.Writer) error {
	clientList, err := s.store.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("list clients: %w", err)
	}
	projectList, err := s.store.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	clients := indexByID(clientList, func(c core.Client) string { return c.ID })

	clientRows := make([][]any, 0, len(clientList))
	for _, c := range clientList {
		clientRows = append(clientRows, []any{
			c.CompanyName, c.ContactPerson, c.Email, c.Phone, c.ClientType, string(c.Status),
		})
	}
	projectRows := make([][]any, 0, len(projectList))
	for _, p := range projectList {
		clientName := "Internal"
		if p.ClientID != "" {
			clientName = clients[p.ClientID].CompanyName
		}
		projectRows = append(projectRows, []any{
			p.Title,
			clientName,
			p.Domain,
			string(p.Status),
			p.Value.Rupees(),
			p.PaidAmount.Rupees(),
			formatOptionalDate(p.StartDate),
			formatOptionalDate(p.EndDate),
		})
	}

	return writeSheets(w, []sheet{
		{
			name:    "Clients",
			headers: []string{"Company", "Contact", "Email", "Phone", "Type", "Status"},
			rows:    clientRows,
		},
		{
			name:    "Projects",
			headers: []string{"Title", "Client", "Domain", "Status", "Value (Rs)", "Collected (Rs)", "Start", "End"},
			rows:    projectRows,
		},
	})
}

// WriteInternRosterXLSX writes the full intern roster with fee standing.
func (s *Service) WriteInternRosterXLSX(ctx context.Context, w io.Writer) error {
	interns, err := s.store.ListInterns(ctx)
	if err != nil {
		return fmt.Errorf("list interns: %w", err)
	}

	rows := make([][]any, 0, len(interns))
	for _, i := range interns {
		rows = append(rows, []any{
			i.CustomID,
			i.FullName,
			i.Email,
			i.Phone,
			i.College,
			i.Domain,
			i.Batch,
			string(i.Status),
			i.TotalFee.Rupees(),
			i.PaidFee.Rupees(),
			string(i.PaymentStatus),
		})
	}
	return writeSheets(w, []sheet{{
		name: "Interns",
		headers: []string{"ID", "Name", "Email", "Phone", "College", "Domain", "Batch",
			"Status", "Total Fee (Rs)", "Paid (Rs)", "Payment Status"},
		rows: rows,
	}})
}

type sheet struct {
	name    string
	headers []string
	rows    [][]any
}

func writeSheets(w io.Writer, sheets []sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	for n, sh := range sheets {
		if n == 0 {
			// The default sheet is renamed instead of leaving an empty
			// "Sheet1" behind.
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return fmt.Errorf("add sheet %s: %w", sh.name, err)
		}

		for i, header := range sh.headers {
			cell, err := excelize.CoordinatesToCellName(i+1, 1)
			if err != nil {
				return fmt.Errorf("header cell: %w", err)
			}
			if err := f.SetCellValue(sh.name, cell, header); err != nil {
				return fmt.Errorf("write header: %w", err)
			}
		}
		for r, row := range sh.rows {
			for c, value := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+2)
				if err != nil {
					return fmt.Errorf("data cell: %w", err)
				}
				if err := f.SetCellValue(sh.name, cell, value); err != nil {
					return fmt.Errorf("write cell: %w", err)
				}
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (s *Service) internIndex(ctx context.Context) (map[string]core.Intern, error) {
	interns, err := s.store.ListInterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list interns: %w", err)
	}
	return indexByID(interns, func(i core.Intern) string { return i.ID }), nil
}

func (s *Service) clientIndex(ctx context.Context) (map[string]core.Client, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return indexByID(clients, func(c core.Client) string { return c.ID }), nil
}

func (s *Service) projectIndex(ctx context.Context) (map[string]core.Project, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return indexByID(projects, func(p core.Project) string { return p.ID }), nil
}

func indexByID[T any](items []T, id func(T) string) map[string]T {
	out := make(map[string]T, len(items))
	for _, item := range items {
		out[id(item)] = item
	}
	return out
}

func formatOptionalDate(d core.Date) string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format(dateLayout)
}
