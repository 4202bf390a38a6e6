package contact

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Contact struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	name      string
	email     string
	phone     string
	company   string
	jobTitle  string
	notes     string
	createdBy uuid.UUID
	createdAt time.Time
	updatedAt time.Time
}

func New(tenantID uuid.UUID, name string) Contact {
	return Contact{
		tenantID: tenantID,
		name:     strings.TrimSpace(name),
	}
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	name string,
	email string,
	phone string,
	company string,
	jobTitle string,
	notes string,
	createdBy uuid.UUID,
	createdAt time.Time,
	updatedAt time.Time,
) Contact {
	return Contact{
		id:        id,
		tenantID:  tenantID,
		name:      strings.TrimSpace(name),
		email:     strings.TrimSpace(email),
		phone:     strings.TrimSpace(phone),
		company:   strings.TrimSpace(company),
		jobTitle:  strings.TrimSpace(jobTitle),
		notes:     notes,
		createdBy: createdBy,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (c Contact) ID() uuid.UUID        { return c.id }
func (c Contact) TenantID() uuid.UUID  { return c.tenantID }
func (c Contact) Name() string         { return c.name }
func (c Contact) Email() string        { return c.email }
func (c Contact) Phone() string        { return c.phone }
func (c Contact) Company() string      { return c.company }
func (c Contact) JobTitle() string     { return c.jobTitle }
func (c Contact) Notes() string        { return c.notes }
func (c Contact) CreatedBy() uuid.UUID { return c.createdBy }
func (c Contact) CreatedAt() time.Time { return c.createdAt }
func (c Contact) UpdatedAt() time.Time { return c.updatedAt }
func (c Contact) IsZero() bool         { return c.id == uuid.Nil && c.name == "" }

func (c Contact) WithName(name string) Contact {
	c.name = strings.TrimSpace(name)
	return c
}

func (c Contact) WithEmail(email string) Contact {
	c.email = strings.TrimSpace(email)
	return c
}

func (c Contact) WithPhone(phone string) Contact {
	c.phone = strings.TrimSpace(phone)
	return c
}

func (c Contact) WithCompany(company string) Contact {
	c.company = strings.TrimSpace(company)
	return c
}

func (c Contact) WithJobTitle(jobTitle string) Contact {
	c.jobTitle = strings.TrimSpace(jobTitle)
	return c
}

func (c Contact) WithNotes(notes string) Contact {
	c.notes = notes
	return c
}

func (c Contact) WithCreatedBy(userID uuid.UUID) Contact {
	c.createdBy = userID
	return c
}
