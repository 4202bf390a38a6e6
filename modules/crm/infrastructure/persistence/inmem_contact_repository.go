package persistence

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/modules/crm/domain/aggregates/contact"
	"github.com/buildgrid-io/buildgrid/pkg/composables"
	"github.com/buildgrid-io/buildgrid/pkg/repo"
)

type contactKey struct {
	tenantID  uuid.UUID
	contactID uuid.UUID
}

// InmemContactRepository backs pipeline tests that run without Postgres.
type InmemContactRepository struct {
	storage *repo.SafeMap[contactKey, contact.Contact]
}

func NewInmemContactRepository() *InmemContactRepository {
	return &InmemContactRepository{
		storage: repo.NewSafeMap[contactKey, contact.Contact](),
	}
}

func (r *InmemContactRepository) GetByID(ctx context.Context, id uuid.UUID) (contact.Contact, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return contact.Contact{}, err
	}
	c, found := r.storage.Get(contactKey{tenantID: tenantID, contactID: id})
	if !found {
		return contact.Contact{}, contact.ErrNotFound
	}
	return c, nil
}

func (r *InmemContactRepository) All(ctx context.Context) ([]contact.Contact, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	all := r.storage.Values()
	out := make([]contact.Contact, 0, len(all))
	for _, c := range all {
		if c.TenantID() == tenantID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID().String() < out[j].ID().String() })
	return out, nil
}

func (r *InmemContactRepository) FindByName(ctx context.Context, name string) (contact.Contact, error) {
	all, err := r.All(ctx)
	if err != nil {
		return contact.Contact{}, err
	}
	for _, c := range all {
		if strings.EqualFold(c.Name(), strings.TrimSpace(name)) {
			return c, nil
		}
	}
	return contact.Contact{}, contact.ErrNotFound
}

func (r *InmemContactRepository) Create(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return contact.Contact{}, err
	}
	now := time.Now()
	created := contact.Hydrate(
		uuid.New(), tenantID,
		c.Name(), c.Email(), c.Phone(), c.Company(), c.JobTitle(), c.Notes(),
		c.CreatedBy(), now, now,
	)
	r.storage.Set(contactKey{tenantID: tenantID, contactID: created.ID()}, created)
	return created, nil
}

func (r *InmemContactRepository) Update(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return contact.Contact{}, err
	}
	key := contactKey{tenantID: tenantID, contactID: c.ID()}
	existing, found := r.storage.Get(key)
	if !found {
		return contact.Contact{}, contact.ErrNotFound
	}
	updated := contact.Hydrate(
		existing.ID(), tenantID,
		c.Name(), c.Email(), c.Phone(), c.Company(), c.JobTitle(), c.Notes(),
		existing.CreatedBy(), existing.CreatedAt(), time.Now(),
	)
	r.storage.Set(key, updated)
	return updated, nil
}
