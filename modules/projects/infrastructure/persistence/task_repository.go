package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/buildgrid-io/buildgrid/modules/projects/domain/aggregates/task"
	"github.com/buildgrid-io/buildgrid/pkg/composables"
)

const selectTasks = `
	SELECT id, tenant_id, title, description, project_id, status, priority,
	       due_date, estimated_hours, created_by, created_at, updated_at
	FROM tasks
`

type TaskRepository struct{}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{}
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (task.Task, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return task.Task{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return task.Task{}, err
	}
	row := tx.QueryRow(ctx, selectTasks+` WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return task.Task{}, task.ErrNotFound
	}
	return t, err
}

func (r *TaskRepository) All(ctx context.Context) ([]task.Task, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, selectTasks+` WHERE tenant_id = $1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "query tasks")
	}
	defer rows.Close()

	var out []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TaskRepository) Create(ctx context.Context, t task.Task) (task.Task, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return task.Task{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return task.Task{}, err
	}
	row := tx.QueryRow(
		ctx,
		`INSERT INTO tasks (tenant_id, title, description, project_id, status, priority, due_date, estimated_hours, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, tenant_id, title, description, project_id, status, priority,
		           due_date, estimated_hours, created_by, created_at, updated_at`,
		tenantID,
		t.Title(),
		nullable(t.Description()),
		t.ProjectID(),
		t.Status(),
		t.Priority(),
		nullableTime(t.DueDate()),
		nullableDecimal(t.EstimatedHours()),
		nullableUUID(t.CreatedBy()),
	)
	created, err := scanTask(row)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "insert task")
	}
	return created, nil
}

func (r *TaskRepository) Update(ctx context.Context, t task.Task) (task.Task, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return task.Task{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return task.Task{}, err
	}
	row := tx.QueryRow(
		ctx,
		`UPDATE tasks
		 SET title = $3, description = $4, project_id = $5, status = $6, priority = $7,
		     due_date = $8, estimated_hours = $9, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2
		 RETURNING id, tenant_id, title, description, project_id, status, priority,
		           due_date, estimated_hours, created_by, created_at, updated_at`,
		t.ID(), tenantID,
		t.Title(),
		nullable(t.Description()),
		t.ProjectID(),
		t.Status(),
		t.Priority(),
		nullableTime(t.DueDate()),
		nullableDecimal(t.EstimatedHours()),
	)
	updated, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return task.Task{}, task.ErrNotFound
	}
	if err != nil {
		return task.Task{}, errors.Wrap(err, "update task")
	}
	return updated, nil
}

func scanTask(row pgx.Row) (task.Task, error) {
	var (
		id, tenantID         uuid.UUID
		title                string
		description          *string
		projectID            uuid.UUID
		status, priority     string
		dueDate              *time.Time
		estimatedHours       *decimal.Decimal
		createdBy            *uuid.UUID
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(
		&id, &tenantID, &title, &description, &projectID, &status, &priority,
		&dueDate, &estimatedHours, &createdBy, &createdAt, &updatedAt,
	); err != nil {
		return task.Task{}, err
	}
	return task.Hydrate(
		id, tenantID,
		title, deref(description),
		projectID,
		status, priority,
		derefTime(dueDate),
		derefDecimal(estimatedHours),
		derefUUID(createdBy),
		createdAt, updatedAt,
	), nil
}
