package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"opsledger/internal/core"
)

const paymentCols = `id, intern_id, client_id, project_id, amount_paise, payment_date,
payment_method, transaction_id, status, type, origin, created_at`

// PaymentFilter selects ledger rows by equality; zero fields are ignored.
type PaymentFilter struct {
	InternID  string
	ClientID  string
	ProjectID string
	Status    core.RecordStatus
	Type      core.PaymentType
	Origin    core.PaymentOrigin
}

func (q *Queries) InsertPayment(ctx context.Context, p core.PaymentRecord) (core.PaymentRecord, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := q.db.ExecContext(ctx, `INSERT INTO payments
(id, intern_id, client_id, project_id, amount_paise, payment_date, payment_method, transaction_id, status, type, origin, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, nullStr(p.InternID), nullStr(p.ClientID), nullStr(p.ProjectID),
		p.Amount.Paise, p.PaymentDate.Format(dateLayout), p.PaymentMethod,
		p.TransactionID, string(p.Status), string(p.Type), string(p.Origin),
		p.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return core.PaymentRecord{}, fmt.Errorf("insert payment: %w", err)
	}
	return p, nil
}

func (q *Queries) UpdatePayment(ctx context.Context, p core.PaymentRecord) error {
	res, err := q.db.ExecContext(ctx, `UPDATE payments SET
intern_id = ?, client_id = ?, project_id = ?, amount_paise = ?, payment_date = ?,
payment_method = ?, transaction_id = ?, status = ?, type = ?, mirrored_at = NULL
WHERE id = ?`,
		nullStr(p.InternID), nullStr(p.ClientID), nullStr(p.ProjectID),
		p.Amount.Paise, p.PaymentDate.Format(dateLayout), p.PaymentMethod,
		p.TransactionID, string(p.Status), string(p.Type), p.ID)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return requireRow(res)
}

// RefreshSyntheticPayment updates the amount and date of an auto-created
// ledger row, keeping its dated view aligned with the latest entity edit.
func (q *Queries) RefreshSyntheticPayment(ctx context.Context, id string, amount core.Money, date core.Date) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE payments SET amount_paise = ?, payment_date = ?, mirrored_at = NULL WHERE id = ?`,
		amount.Paise, date.Format(dateLayout), id)
	if err != nil {
		return fmt.Errorf("refresh synthetic payment: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) GetPayment(ctx context.Context, id string) (core.PaymentRecord, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+paymentCols+` FROM payments WHERE id = ?`, id)
	return scanPayment(row)
}

// GetSyntheticPayment finds the auto-created row for an entity by origin.
func (q *Queries) GetSyntheticPayment(ctx context.Context, origin core.PaymentOrigin, entityID string) (core.PaymentRecord, error) {
	var col string
	switch origin {
	case core.OriginAutoIntern:
		col = "intern_id"
	case core.OriginAutoProject:
		col = "project_id"
	default:
		return core.PaymentRecord{}, fmt.Errorf("origin %q has no synthetic records", origin)
	}
	row := q.db.QueryRowContext(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE origin = ? AND `+col+` = ?`,
		string(origin), entityID)
	return scanPayment(row)
}

func (q *Queries) ListPayments(ctx context.Context, f PaymentFilter) ([]core.PaymentRecord, error) {
	where := []string{}
	args := []any{}
	add := func(cond string, v any) {
		where = append(where, cond)
		args = append(args, v)
	}
	if f.InternID != "" {
		add("intern_id = ?", f.InternID)
	}
	if f.ClientID != "" {
		add("client_id = ?", f.ClientID)
	}
	if f.ProjectID != "" {
		add("project_id = ?", f.ProjectID)
	}
	if f.Status != "" {
		add("status = ?", string(f.Status))
	}
	if f.Type != "" {
		add("type = ?", string(f.Type))
	}
	if f.Origin != "" {
		add("origin = ?", string(f.Origin))
	}
	query := `SELECT ` + paymentCols + ` FROM payments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY payment_date DESC, created_at DESC"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

// SumCompletedByIntern returns the reconciling sum for an intern: amount
// over all Completed ledger rows carrying that intern_id.
func (q *Queries) SumCompletedByIntern(ctx context.Context, internID string) (core.Money, error) {
	return q.sumCompleted(ctx, "intern_id", internID)
}

// SumCompletedByProject sums all Completed rows tied to the project,
// regardless of type, so nothing is double-booked.
func (q *Queries) SumCompletedByProject(ctx context.Context, projectID string) (core.Money, error) {
	return q.sumCompleted(ctx, "project_id", projectID)
}

func (q *Queries) sumCompleted(ctx context.Context, col, id string) (core.Money, error) {
	var total sql.NullInt64
	err := q.db.QueryRowContext(ctx,
		`SELECT SUM(amount_paise) FROM payments WHERE `+col+` = ? AND status = ?`,
		id, string(core.RecordCompleted)).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum completed payments: %w", err)
	}
	return core.Money{Paise: total.Int64}, nil
}

func (q *Queries) DeletePayment(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) DeletePaymentsByClient(ctx context.Context, clientID string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM payments WHERE client_id = ?`, clientID); err != nil {
		return fmt.Errorf("delete payments by client: %w", err)
	}
	return nil
}

func (q *Queries) DeletePaymentsByProject(ctx context.Context, projectID string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM payments WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("delete payments by project: %w", err)
	}
	return nil
}

func (q *Queries) DeletePaymentsByIntern(ctx context.Context, internID string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM payments WHERE intern_id = ?`, internID); err != nil {
		return fmt.Errorf("delete payments by intern: %w", err)
	}
	return nil
}

// ListUnmirrored returns ledger rows the sheets mirror has not seen yet,
// oldest first, for the worker's catch-up pass.
func (q *Queries) ListUnmirrored(ctx context.Context, limit int) ([]core.PaymentRecord, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE mirrored_at IS NULL ORDER BY created_at ASC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("list unmirrored payments: %w", err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (q *Queries) MarkMirrored(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `UPDATE payments SET mirrored_at = ? WHERE id = ?`, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("mark payment mirrored: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (core.PaymentRecord, error) {
	var (
		p                              core.PaymentRecord
		internID, clientID, projectID  sql.NullString
		payDate, status, ptype, origin string
		createdAt                      string
	)
	err := row.Scan(&p.ID, &internID, &clientID, &projectID, &p.Amount.Paise,
		&payDate, &p.PaymentMethod, &p.TransactionID, &status, &ptype, &origin, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PaymentRecord{}, ErrNotFound
	}
	if err != nil {
		return core.PaymentRecord{}, fmt.Errorf("scan payment: %w", err)
	}
	p.InternID = fromNull(internID)
	p.ClientID = fromNull(clientID)
	p.ProjectID = fromNull(projectID)
	p.Status = core.RecordStatus(status)
	p.Type = core.PaymentType(ptype)
	p.Origin = core.PaymentOrigin(origin)
	if t, err := time.Parse(dateLayout, payDate); err == nil {
		p.PaymentDate = core.Date{Time: t}
	}
	p.CreatedAt = parseCreatedAt(createdAt)
	return p, nil
}

func collectPayments(rows *sql.Rows) ([]core.PaymentRecord, error) {
	var out []core.PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return out, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
