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

// Products and profiles: plain catalog tables with no reconciliation
// coupling.

func (q *Queries) InsertProduct(ctx context.Context, p core.Product) (core.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := q.db.ExecContext(ctx, `INSERT INTO products
(id, name, price_paise, category, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Price.Paise, p.Category, p.Status, p.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return core.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (q *Queries) UpdateProduct(ctx context.Context, p core.Product) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE products SET name = ?, price_paise = ?, category = ?, status = ? WHERE id = ?`,
		p.Name, p.Price.Paise, p.Category, p.Status, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) GetProduct(ctx context.Context, id string) (core.Product, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, name, price_paise, category, status, created_at FROM products WHERE id = ?`, id)
	return scanProduct(row)
}

func (q *Queries) ListProducts(ctx context.Context) ([]core.Product, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, price_paise, category, status, created_at FROM products ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []core.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

func (q *Queries) DeleteProduct(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return requireRow(res)
}

func scanProduct(row rowScanner) (core.Product, error) {
	var (
		p         core.Product
		createdAt string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Price.Paise, &p.Category, &p.Status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Product{}, ErrNotFound
	}
	if err != nil {
		return core.Product{}, fmt.Errorf("scan product: %w", err)
	}
	p.CreatedAt = parseCreatedAt(createdAt)
	return p, nil
}

func (q *Queries) InsertProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Role == "" {
		p.Role = core.RoleViewer
	}
	_, err := q.db.ExecContext(ctx, `INSERT INTO profiles
(id, email, full_name, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.FullName, p.Role, p.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return core.Profile{}, fmt.Errorf("insert profile: %w", err)
	}
	return p, nil
}

func (q *Queries) ListProfiles(ctx context.Context) ([]core.Profile, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, email, full_name, role, created_at FROM profiles ORDER BY email ASC`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []core.Profile
	for rows.Next() {
		var (
			p         core.Profile
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &createdAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.CreatedAt = parseCreatedAt(createdAt)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

func (q *Queries) UpdateProfileRole(ctx context.Context, id, role string) error {
	switch role {
	case core.RoleAdmin, core.RoleManager, core.RoleViewer:
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	res, err := q.db.ExecContext(ctx, `UPDATE profiles SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return fmt.Errorf("update profile role: %w", err)
	}
	return requireRow(res)
}
