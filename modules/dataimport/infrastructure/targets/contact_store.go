package targets

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/modules/crm/domain/aggregates/contact"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/target"
	"github.com/buildgrid-io/buildgrid/pkg/composables"
)

// ContactStore adapts the CRM contact table to the import pipeline.
type ContactStore struct {
	repo contact.Repository
}

func NewContactStore(repo contact.Repository) *ContactStore {
	return &ContactStore{repo: repo}
}

func (s *ContactStore) Entity() template.EntityType {
	return template.EntityContacts
}

func (s *ContactStore) Candidates(ctx context.Context) ([]target.Candidate, error) {
	contacts, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]target.Candidate, len(contacts))
	for i, c := range contacts {
		out[i] = target.Candidate{
			ID: c.ID(),
			Fields: map[string]string{
				"Name":  c.Name(),
				"Email": c.Email(),
				"Phone": c.Phone(),
			},
		}
	}
	return out, nil
}

func (s *ContactStore) FindByName(ctx context.Context, name string) (uuid.UUID, error) {
	c, err := s.repo.FindByName(ctx, name)
	if errors.Is(err, contact.ErrNotFound) {
		return uuid.Nil, target.ErrLookupNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return c.ID(), nil
}

func (s *ContactStore) Insert(ctx context.Context, rec record.ValidatedRecord) (uuid.UUID, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	c := contact.New(tenantID, fieldStr(rec, "Name")).
		WithEmail(fieldStr(rec, "Email")).
		WithPhone(fieldStr(rec, "Phone")).
		WithCompany(fieldStr(rec, "Company")).
		WithJobTitle(fieldStr(rec, "Job Title")).
		WithNotes(fieldStr(rec, "Notes"))
	if userID, err := composables.UseUserID(ctx); err == nil {
		c = c.WithCreatedBy(userID)
	}
	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return uuid.Nil, err
	}
	return created.ID(), nil
}

// Merge patches only the fields the import row actually carried; a blank
// cell never clears stored data.
func (s *ContactStore) Merge(ctx context.Context, id uuid.UUID, rec record.ValidatedRecord) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if v, ok := rec.Fields["Name"]; ok {
		existing = existing.WithName(v.Str)
	}
	if v, ok := rec.Fields["Email"]; ok {
		existing = existing.WithEmail(v.Str)
	}
	if v, ok := rec.Fields["Phone"]; ok {
		existing = existing.WithPhone(v.Str)
	}
	if v, ok := rec.Fields["Company"]; ok {
		existing = existing.WithCompany(v.Str)
	}
	if v, ok := rec.Fields["Job Title"]; ok {
		existing = existing.WithJobTitle(v.Str)
	}
	if v, ok := rec.Fields["Notes"]; ok {
		existing = existing.WithNotes(v.Str)
	}
	_, err = s.repo.Update(ctx, existing)
	return err
}
