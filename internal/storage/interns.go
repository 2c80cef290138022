package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"opsledger/internal/core"
)

const internCols = `id, custom_id, full_name, email, phone, college, domain, batch,
status, total_fee_paise, paid_fee_paise, payment_status, version, created_at`

func (q *Queries) InsertIntern(ctx context.Context, i core.Intern) (core.Intern, error) {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	i.Version = 1
	_, err := q.db.ExecContext(ctx, `INSERT INTO interns
(id, custom_id, full_name, email, phone, college, domain, batch, status, total_fee_paise, paid_fee_paise, payment_status, version, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.CustomID, i.FullName, i.Email, i.Phone, i.College, i.Domain, i.Batch,
		string(i.Status), i.TotalFee.Paise, i.PaidFee.Paise, string(i.PaymentStatus),
		i.Version, i.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return core.Intern{}, fmt.Errorf("insert intern: %w", err)
	}
	return i, nil
}

// UpdateIntern writes all caller-editable fields. The stored version must
// match i.Version or the write is rejected with ErrStaleVersion; on success
// the version is bumped.
func (q *Queries) UpdateIntern(ctx context.Context, i core.Intern) (core.Intern, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE interns SET
custom_id = ?, full_name = ?, email = ?, phone = ?, college = ?, domain = ?, batch = ?,
status = ?, total_fee_paise = ?, paid_fee_paise = ?, payment_status = ?, version = version + 1
WHERE id = ? AND version = ?`,
		i.CustomID, i.FullName, i.Email, i.Phone, i.College, i.Domain, i.Batch,
		string(i.Status), i.TotalFee.Paise, i.PaidFee.Paise, string(i.PaymentStatus),
		i.ID, i.Version)
	if err != nil {
		return core.Intern{}, fmt.Errorf("update intern: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Intern{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		if _, getErr := q.GetIntern(ctx, i.ID); errors.Is(getErr, ErrNotFound) {
			return core.Intern{}, ErrNotFound
		}
		return core.Intern{}, ErrStaleVersion
	}
	i.Version++
	return i, nil
}

// UpdateInternDerived writes the reconciled paid_fee and payment_status.
// Reconciler-internal, so no version precondition; the bump still invalidates
// any concurrent caller-held version.
func (q *Queries) UpdateInternDerived(ctx context.Context, id string, paidFee core.Money, status core.PaymentStatus) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE interns SET paid_fee_paise = ?, payment_status = ?, version = version + 1 WHERE id = ?`,
		paidFee.Paise, string(status), id)
	if err != nil {
		return fmt.Errorf("update intern derived fields: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) GetIntern(ctx context.Context, id string) (core.Intern, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+internCols+` FROM interns WHERE id = ?`, id)
	return scanIntern(row)
}

func (q *Queries) ListInterns(ctx context.Context) ([]core.Intern, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+internCols+` FROM interns ORDER BY full_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list interns: %w", err)
	}
	defer rows.Close()

	var out []core.Intern
	for rows.Next() {
		i, err := scanIntern(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interns: %w", err)
	}
	return out, nil
}

func (q *Queries) DeleteIntern(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM interns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete intern: %w", err)
	}
	return requireRow(res)
}

func scanIntern(row rowScanner) (core.Intern, error) {
	var (
		i                 core.Intern
		status, payStatus string
		createdAt         string
	)
	err := row.Scan(&i.ID, &i.CustomID, &i.FullName, &i.Email, &i.Phone, &i.College,
		&i.Domain, &i.Batch, &status, &i.TotalFee.Paise, &i.PaidFee.Paise,
		&payStatus, &i.Version, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Intern{}, ErrNotFound
	}
	if err != nil {
		return core.Intern{}, fmt.Errorf("scan intern: %w", err)
	}
	i.Status = core.InternStatus(status)
	i.PaymentStatus = core.PaymentStatus(payStatus)
	i.CreatedAt = parseCreatedAt(createdAt)
	return i, nil
}
