package task

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Task struct {
	id             uuid.UUID
	tenantID       uuid.UUID
	title          string
	description    string
	projectID      uuid.UUID
	status         string
	priority       string
	dueDate        time.Time
	estimatedHours decimal.Decimal
	createdBy      uuid.UUID
	createdAt      time.Time
	updatedAt      time.Time
}

func New(tenantID uuid.UUID, title string, projectID uuid.UUID) Task {
	now := time.Now()
	return Task{
		id:        uuid.New(),
		tenantID:  tenantID,
		title:     title,
		projectID: projectID,
		status:    "todo",
		priority:  "medium",
		createdAt: now,
		updatedAt: now,
	}
}

func Hydrate(
	id, tenantID uuid.UUID,
	title, description string,
	projectID uuid.UUID,
	status, priority string,
	dueDate time.Time,
	estimatedHours decimal.Decimal,
	createdBy uuid.UUID,
	createdAt, updatedAt time.Time,
) Task {
	return Task{
		id:             id,
		tenantID:       tenantID,
		title:          title,
		description:    description,
		projectID:      projectID,
		status:         status,
		priority:       priority,
		dueDate:        dueDate,
		estimatedHours: estimatedHours,
		createdBy:      createdBy,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (t Task) ID() uuid.UUID                   { return t.id }
func (t Task) TenantID() uuid.UUID             { return t.tenantID }
func (t Task) Title() string                   { return t.title }
func (t Task) Description() string             { return t.description }
func (t Task) ProjectID() uuid.UUID            { return t.projectID }
func (t Task) Status() string                  { return t.status }
func (t Task) Priority() string                { return t.priority }
func (t Task) DueDate() time.Time              { return t.dueDate }
func (t Task) EstimatedHours() decimal.Decimal { return t.estimatedHours }
func (t Task) CreatedBy() uuid.UUID            { return t.createdBy }
func (t Task) CreatedAt() time.Time            { return t.createdAt }
func (t Task) UpdatedAt() time.Time            { return t.updatedAt }

func (t Task) IsZero() bool { return t.id == uuid.Nil }

func (t Task) WithTitle(title string) Task {
	t.title = title
	return t
}

func (t Task) WithProjectID(projectID uuid.UUID) Task {
	t.projectID = projectID
	return t
}

func (t Task) WithDescription(description string) Task {
	t.description = description
	return t
}

func (t Task) WithStatus(status string) Task {
	t.status = status
	return t
}

func (t Task) WithPriority(priority string) Task {
	t.priority = priority
	return t
}

func (t Task) WithDueDate(dueDate time.Time) Task {
	t.dueDate = dueDate
	return t
}

func (t Task) WithEstimatedHours(hours decimal.Decimal) Task {
	t.estimatedHours = hours
	return t
}

func (t Task) WithCreatedBy(userID uuid.UUID) Task {
	t.createdBy = userID
	return t
}
