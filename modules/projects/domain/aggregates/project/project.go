package project

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Project is an immutable aggregate. Mutations go through the setters,
// which return a copy.
type Project struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	name      string
	address   string
	clientID  uuid.UUID
	status    string
	budget    decimal.Decimal
	startDate time.Time
	endDate   time.Time
	createdBy uuid.UUID
	createdAt time.Time
	updatedAt time.Time
}

func New(tenantID uuid.UUID, name string) Project {
	now := time.Now()
	return Project{
		id:        uuid.New(),
		tenantID:  tenantID,
		name:      name,
		status:    "planning",
		createdAt: now,
		updatedAt: now,
	}
}

func Hydrate(
	id, tenantID uuid.UUID,
	name, address string,
	clientID uuid.UUID,
	status string,
	budget decimal.Decimal,
	startDate, endDate time.Time,
	createdBy uuid.UUID,
	createdAt, updatedAt time.Time,
) Project {
	return Project{
		id:        id,
		tenantID:  tenantID,
		name:      name,
		address:   address,
		clientID:  clientID,
		status:    status,
		budget:    budget,
		startDate: startDate,
		endDate:   endDate,
		createdBy: createdBy,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (p Project) ID() uuid.UUID           { return p.id }
func (p Project) TenantID() uuid.UUID     { return p.tenantID }
func (p Project) Name() string            { return p.name }
func (p Project) Address() string         { return p.address }
func (p Project) ClientID() uuid.UUID     { return p.clientID }
func (p Project) Status() string          { return p.status }
func (p Project) Budget() decimal.Decimal { return p.budget }
func (p Project) StartDate() time.Time    { return p.startDate }
func (p Project) EndDate() time.Time      { return p.endDate }
func (p Project) CreatedBy() uuid.UUID    { return p.createdBy }
func (p Project) CreatedAt() time.Time    { return p.createdAt }
func (p Project) UpdatedAt() time.Time    { return p.updatedAt }

func (p Project) IsZero() bool { return p.id == uuid.Nil }

func (p Project) WithName(name string) Project {
	p.name = name
	return p
}

func (p Project) WithAddress(address string) Project {
	p.address = address
	return p
}

func (p Project) WithClientID(clientID uuid.UUID) Project {
	p.clientID = clientID
	return p
}

func (p Project) WithStatus(status string) Project {
	p.status = status
	return p
}

func (p Project) WithBudget(budget decimal.Decimal) Project {
	p.budget = budget
	return p
}

func (p Project) WithDates(start, end time.Time) Project {
	p.startDate = start
	p.endDate = end
	return p
}

func (p Project) WithCreatedBy(userID uuid.UUID) Project {
	p.createdBy = userID
	return p
}
