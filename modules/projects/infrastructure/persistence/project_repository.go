package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/buildgrid-io/buildgrid/modules/projects/domain/aggregates/project"
	"github.com/buildgrid-io/buildgrid/pkg/composables"
)

const selectProjects = `
	SELECT id, tenant_id, name, address, client_id, status, budget,
	       start_date, end_date, created_by, created_at, updated_at
	FROM projects
`

type ProjectRepository struct{}

func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{}
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (project.Project, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return project.Project{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return project.Project{}, err
	}
	row := tx.QueryRow(ctx, selectProjects+` WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return project.Project{}, project.ErrNotFound
	}
	return p, err
}

func (r *ProjectRepository) All(ctx context.Context) ([]project.Project, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, selectProjects+` WHERE tenant_id = $1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "query projects")
	}
	defer rows.Close()

	var out []project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProjectRepository) FindByName(ctx context.Context, name string) (project.Project, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return project.Project{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return project.Project{}, err
	}
	row := tx.QueryRow(
		ctx,
		selectProjects+` WHERE tenant_id = $1 AND lower(name) = lower($2) LIMIT 1`,
		tenantID, name,
	)
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return project.Project{}, project.ErrNotFound
	}
	return p, err
}

func (r *ProjectRepository) Create(ctx context.Context, p project.Project) (project.Project, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return project.Project{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return project.Project{}, err
	}
	row := tx.QueryRow(
		ctx,
		`INSERT INTO projects (tenant_id, name, address, client_id, status, budget, start_date, end_date, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, tenant_id, name, address, client_id, status, budget,
		           start_date, end_date, created_by, created_at, updated_at`,
		tenantID,
		p.Name(),
		nullable(p.Address()),
		nullableUUID(p.ClientID()),
		p.Status(),
		nullableDecimal(p.Budget()),
		nullableTime(p.StartDate()),
		nullableTime(p.EndDate()),
		nullableUUID(p.CreatedBy()),
	)
	created, err := scanProject(row)
	if err != nil {
		return project.Project{}, errors.Wrap(err, "insert project")
	}
	return created, nil
}

func (r *ProjectRepository) Update(ctx context.Context, p project.Project) (project.Project, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return project.Project{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return project.Project{}, err
	}
	row := tx.QueryRow(
		ctx,
		`UPDATE projects
		 SET name = $3, address = $4, client_id = $5, status = $6, budget = $7,
		     start_date = $8, end_date = $9, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2
		 RETURNING id, tenant_id, name, address, client_id, status, budget,
		           start_date, end_date, created_by, created_at, updated_at`,
		p.ID(), tenantID,
		p.Name(),
		nullable(p.Address()),
		nullableUUID(p.ClientID()),
		p.Status(),
		nullableDecimal(p.Budget()),
		nullableTime(p.StartDate()),
		nullableTime(p.EndDate()),
	)
	updated, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return project.Project{}, project.ErrNotFound
	}
	if err != nil {
		return project.Project{}, errors.Wrap(err, "update project")
	}
	return updated, nil
}

func scanProject(row pgx.Row) (project.Project, error) {
	var (
		id, tenantID         uuid.UUID
		name                 string
		address              *string
		clientID, createdBy  *uuid.UUID
		status               string
		budget               *decimal.Decimal
		startDate, endDate   *time.Time
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(
		&id, &tenantID, &name, &address, &clientID, &status, &budget,
		&startDate, &endDate, &createdBy, &createdAt, &updatedAt,
	); err != nil {
		return project.Project{}, err
	}
	return project.Hydrate(
		id, tenantID,
		name, deref(address),
		derefUUID(clientID),
		status,
		derefDecimal(budget),
		derefTime(startDate), derefTime(endDate),
		derefUUID(createdBy),
		createdAt, updatedAt,
	), nil
}
