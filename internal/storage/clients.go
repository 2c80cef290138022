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

const clientCols = `id, company_name, contact_person, email, phone, client_type, status, created_at`

func (q *Queries) InsertClient(ctx context.Context, c core.Client) (core.Client, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := q.db.ExecContext(ctx, `INSERT INTO clients
(id, company_name, contact_person, email, phone, client_type, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CompanyName, c.ContactPerson, c.Email, c.Phone, c.ClientType,
		string(c.Status), c.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return core.Client{}, fmt.Errorf("insert client: %w", err)
	}
	return c, nil
}

func (q *Queries) UpdateClient(ctx context.Context, c core.Client) error {
	res, err := q.db.ExecContext(ctx, `UPDATE clients SET
company_name = ?, contact_person = ?, email = ?, phone = ?, client_type = ?, status = ?
WHERE id = ?`,
		c.CompanyName, c.ContactPerson, c.Email, c.Phone, c.ClientType, string(c.Status), c.ID)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) GetClient(ctx context.Context, id string) (core.Client, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+clientCols+` FROM clients WHERE id = ?`, id)
	return scanClient(row)
}

func (q *Queries) ListClients(ctx context.Context) ([]core.Client, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+clientCols+` FROM clients ORDER BY company_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []core.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return out, nil
}

func (q *Queries) DeleteClient(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return requireRow(res)
}

func scanClient(row rowScanner) (core.Client, error) {
	var (
		c                 core.Client
		status, createdAt string
	)
	err := row.Scan(&c.ID, &c.CompanyName, &c.ContactPerson, &c.Email, &c.Phone,
		&c.ClientType, &status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Client{}, ErrNotFound
	}
	if err != nil {
		return core.Client{}, fmt.Errorf("scan client: %w", err)
	}
	c.Status = core.ClientStatus(status)
	c.CreatedAt = parseCreatedAt(createdAt)
	return c, nil
}
