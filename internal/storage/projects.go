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

const projectCols = `id, client_id, title, domain, value_paise, paid_amount_paise,
status, start_date, end_date, version, created_at`

func (q *Queries) InsertProject(ctx context.Context, p core.Project) (core.Project, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.Version = 1
	_, err := q.db.ExecContext(ctx, `INSERT INTO tracker_projects
(id, client_id, title, domain, value_paise, paid_amount_paise, status, start_date, end_date, version, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, nullStr(p.ClientID), p.Title, p.Domain, p.Value.Paise, p.PaidAmount.Paise,
		string(p.Status), nullDate(p.StartDate), nullDate(p.EndDate),
		p.Version, p.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return core.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (q *Queries) UpdateProject(ctx context.Context, p core.Project) (core.Project, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE tracker_projects SET
client_id = ?, title = ?, domain = ?, value_paise = ?, paid_amount_paise = ?,
status = ?, start_date = ?, end_date = ?, version = version + 1
WHERE id = ? AND version = ?`,
		nullStr(p.ClientID), p.Title, p.Domain, p.Value.Paise, p.PaidAmount.Paise,
		string(p.Status), nullDate(p.StartDate), nullDate(p.EndDate),
		p.ID, p.Version)
	if err != nil {
		return core.Project{}, fmt.Errorf("update project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Project{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		if _, getErr := q.GetProject(ctx, p.ID); errors.Is(getErr, ErrNotFound) {
			return core.Project{}, ErrNotFound
		}
		return core.Project{}, ErrStaleVersion
	}
	p.Version++
	return p, nil
}

// UpdateProjectDerived writes the reconciled paid_amount.
func (q *Queries) UpdateProjectDerived(ctx context.Context, id string, paidAmount core.Money) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE tracker_projects SET paid_amount_paise = ?, version = version + 1 WHERE id = ?`,
		paidAmount.Paise, id)
	if err != nil {
		return fmt.Errorf("update project derived fields: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) GetProject(ctx context.Context, id string) (core.Project, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+projectCols+` FROM tracker_projects WHERE id = ?`, id)
	return scanProject(row)
}

func (q *Queries) ListProjects(ctx context.Context) ([]core.Project, error) {
	return q.listProjects(ctx, `SELECT `+projectCols+` FROM tracker_projects ORDER BY created_at DESC`)
}

func (q *Queries) ListProjectsByClient(ctx context.Context, clientID string) ([]core.Project, error) {
	return q.listProjects(ctx,
		`SELECT `+projectCols+` FROM tracker_projects WHERE client_id = ? ORDER BY created_at DESC`,
		clientID)
}

func (q *Queries) listProjects(ctx context.Context, query string, args ...any) ([]core.Project, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []core.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

func (q *Queries) DeleteProject(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM tracker_projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) DeleteProjectsByClient(ctx context.Context, clientID string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM tracker_projects WHERE client_id = ?`, clientID); err != nil {
		return fmt.Errorf("delete projects by client: %w", err)
	}
	return nil
}

func scanProject(row rowScanner) (core.Project, error) {
	var (
		p                  core.Project
		clientID           sql.NullString
		startDate, endDate sql.NullString
		status, createdAt  string
	)
	err := row.Scan(&p.ID, &clientID, &p.Title, &p.Domain, &p.Value.Paise,
		&p.PaidAmount.Paise, &status, &startDate, &endDate, &p.Version, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Project{}, ErrNotFound
	}
	if err != nil {
		return core.Project{}, fmt.Errorf("scan project: %w", err)
	}
	p.ClientID = fromNull(clientID)
	p.Status = core.ProjectStatus(status)
	p.StartDate = parseNullDate(startDate)
	p.EndDate = parseNullDate(endDate)
	p.CreatedAt = parseCreatedAt(createdAt)
	return p, nil
}

func nullDate(d core.Date) any {
	if d.IsEmpty() {
		return nil
	}
	return d.Format(dateLayout)
}

func parseNullDate(ns sql.NullString) core.Date {
	if !ns.Valid || ns.String == "" {
		return core.Date{}
	}
	t, err := time.Parse(dateLayout, ns.String)
	if err != nil {
		return core.Date{}
	}
	return core.Date{Time: t}
}
