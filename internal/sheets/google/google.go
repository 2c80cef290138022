// Package google mirrors the payments ledger into a Google Sheets
// spreadsheet using a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	ports "opsledger/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
}

var _ ports.LedgerMirror = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_LEDGER_SHEET_NAME (default "Ledger").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	ledgerSheet := strings.TrimSpace(os.Getenv("GOOGLE_LEDGER_SHEET_NAME"))
	if ledgerSheet == "" {
		ledgerSheet = "Ledger"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		ledgerSheet:   ledgerSheet,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Upsert writes the row keyed by payment ID in column A: the existing row is
// rewritten in place, otherwise the row is appended after the last used one.
func (c *Client) Upsert(ctx context.Context, row ports.MirrorRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if row.PaymentID == "" {
		return "", errors.New("mirror row missing payment id")
	}

	rowNum, total, err := c.findRow(ctx, row.PaymentID)
	if err != nil {
		return "", err
	}
	if rowNum == 0 {
		rowNum = total + 1
	}

	rng := fmt.Sprintf("%s!A%d:K%d", c.ledgerSheet, rowNum, rowNum)
	vr := &gsheet.ValueRange{Values: [][]any{{
		row.PaymentID, row.Date, row.Type, row.InternName, row.ClientName,
		row.ProjectName, row.AmountRupees, row.Method, row.TransactionID,
		row.Status, row.Origin,
	}}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write row %d in sheet %s: %w", rowNum, c.ledgerSheet, err)
	}

	slog.DebugContext(ctx, "Mirrored ledger row", "payment_id", row.PaymentID, "row", rowNum)
	return rng, nil
}

// Remove blanks the row holding the payment. The row itself stays so other
// rows keep their positions; a blank key column never matches a later
// lookup.
func (c *Client) Remove(ctx context.Context, paymentID string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rowNum, _, err := c.findRow(ctx, paymentID)
	if err != nil {
		return err
	}
	if rowNum == 0 {
		slog.WarnContext(ctx, "Payment not found in sheet, nothing to remove", "payment_id", paymentID)
		return nil
	}

	rng := fmt.Sprintf("%s!A%d:K%d", c.ledgerSheet, rowNum, rowNum)
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear row %d in sheet %s: %w", rowNum, c.ledgerSheet, err)
	}
	return nil
}

// findRow scans column A for the payment ID. Returns the 1-based row number
// (0 when absent) and the number of used rows.
func (c *Client) findRow(ctx context.Context, paymentID string) (int, int, error) {
	rng := fmt.Sprintf("%s!A:A", c.ledgerSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, 0, fmt.Errorf("read key column of %s: %w", c.ledgerSheet, err)
	}
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if key, ok := row[0].(string); ok && key == paymentID {
			return i + 1, len(resp.Values), nil
		}
	}
	return 0, len(resp.Values), nil
}
