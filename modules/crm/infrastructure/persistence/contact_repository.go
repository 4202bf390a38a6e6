package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/buildgrid-io/buildgrid/modules/crm/domain/aggregates/contact"
	"github.com/buildgrid-io/buildgrid/pkg/composables"
)

const (
	selectContacts = `
		SELECT id, tenant_id, name, email, phone, company, job_title, notes, created_by, created_at, updated_at
		FROM contacts`
)

type ContactRepository struct{}

func NewContactRepository() contact.Repository {
	return &ContactRepository{}
}

func (r *ContactRepository) GetByID(ctx context.Context, id uuid.UUID) (contact.Contact, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return contact.Contact{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return contact.Contact{}, err
	}

	row := tx.QueryRow(ctx, selectContacts+` WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return scanContact(row)
}

func (r *ContactRepository) All(ctx context.Context) ([]contact.Contact, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectContacts+` WHERE tenant_id = $1 ORDER BY created_at, id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []contact.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ContactRepository) FindByName(ctx context.Context, name string) (contact.Contact, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return contact.Contact{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return contact.Contact{}, err
	}

	row := tx.QueryRow(
		ctx,
		selectContacts+` WHERE tenant_id = $1 AND lower(name) = lower($2) ORDER BY created_at, id LIMIT 1`,
		tenantID,
		strings.TrimSpace(name),
	)
	return scanContact(row)
}

func (r *ContactRepository) Create(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return contact.Contact{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return contact.Contact{}, err
	}

	row := tx.QueryRow(
		ctx,
		`INSERT INTO contacts (tenant_id, name, email, phone, company, job_title, notes, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, tenant_id, name, email, phone, company, job_title, notes, created_by, created_at, updated_at`,
		tenantID,
		c.Name(),
		nullable(c.Email()),
		nullable(c.Phone()),
		nullable(c.Company()),
		nullable(c.JobTitle()),
		nullable(c.Notes()),
		nullableUUID(c.CreatedBy()),
	)
	created, err := scanContact(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return contact.Contact{}, contact.ErrEmailTaken
		}
		return contact.Contact{}, fmt.Errorf("create contact: %w", err)
	}
	return created, nil
}

func (r *ContactRepository) Update(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return contact.Contact{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return contact.Contact{}, err
	}

	row := tx.QueryRow(
		ctx,
		`UPDATE contacts
		 SET name = $3, email = $4, phone = $5, company = $6, job_title = $7, notes = $8, updated_at = now()
		 WHERE tenant_id = $1 AND id = $2
		 RETURNING id, tenant_id, name, email, phone, company, job_title, notes, created_by, created_at, updated_at`,
		tenantID,
		c.ID(),
		c.Name(),
		nullable(c.Email()),
		nullable(c.Phone()),
		nullable(c.Company()),
		nullable(c.JobTitle()),
		nullable(c.Notes()),
	)
	updated, err := scanContact(row)
	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			return contact.Contact{}, contact.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return contact.Contact{}, contact.ErrEmailTaken
		}
		return contact.Contact{}, fmt.Errorf("update contact: %w", err)
	}
	return updated, nil
}

func scanContact(row pgx.Row) (contact.Contact, error) {
	var (
		id, tenantID                           uuid.UUID
		name                                   string
		email, phone, company, jobTitle, notes *string
		createdBy                              *uuid.UUID
		createdAt, updatedAt                   time.Time
	)
	err := row.Scan(&id, &tenantID, &name, &email, &phone, &company, &jobTitle, &notes, &createdBy, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contact.Contact{}, contact.ErrNotFound
		}
		return contact.Contact{}, err
	}
	return contact.Hydrate(
		id,
		tenantID,
		name,
		deref(email),
		deref(phone),
		deref(company),
		deref(jobTitle),
		deref(notes),
		derefUUID(createdBy),
		createdAt,
		updatedAt,
	), nil
}
