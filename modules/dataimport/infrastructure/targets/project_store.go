package targets

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/target"
	"github.com/buildgrid-io/buildgrid/modules/projects/domain/aggregates/project"
	"github.com/buildgrid-io/buildgrid/pkg/composables"
)

type ProjectStore struct {
	repo project.Repository
}

func NewProjectStore(repo project.Repository) *ProjectStore {
	return &ProjectStore{repo: repo}
}

func (s *ProjectStore) Entity() template.EntityType {
	return template.EntityProjects
}

func (s *ProjectStore) Candidates(ctx context.Context) ([]target.Candidate, error) {
	projects, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]target.Candidate, len(projects))
	for i, p := range projects {
		out[i] = target.Candidate{
			ID: p.ID(),
			Fields: map[string]string{
				"Name":    p.Name(),
				"Address": p.Address(),
			},
		}
	}
	return out, nil
}

func (s *ProjectStore) FindByName(ctx context.Context, name string) (uuid.UUID, error) {
	p, err := s.repo.FindByName(ctx, name)
	if errors.Is(err, project.ErrNotFound) {
		return uuid.Nil, target.ErrLookupNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID(), nil
}

func (s *ProjectStore) Insert(ctx context.Context, rec record.ValidatedRecord) (uuid.UUID, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	p := project.New(tenantID, fieldStr(rec, "Name")).
		WithAddress(fieldStr(rec, "Address"))
	if v, ok := rec.Fields["Client Name"]; ok {
		p = p.WithClientID(v.Ref)
	}
	if v, ok := rec.Fields["Status"]; ok {
		p = p.WithStatus(v.Str)
	}
	if v, ok := rec.Fields["Budget"]; ok {
		p = p.WithBudget(v.Num)
	}
	start := p.StartDate()
	end := p.EndDate()
	if v, ok := rec.Fields["Start Date"]; ok {
		start = v.Date
	}
	if v, ok := rec.Fields["End Date"]; ok {
		end = v.Date
	}
	p = p.WithDates(start, end)
	if userID, err := composables.UseUserID(ctx); err == nil {
		p = p.WithCreatedBy(userID)
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return uuid.Nil, err
	}
	return created.ID(), nil
}

func (s *ProjectStore) Merge(ctx context.Context, id uuid.UUID, rec record.ValidatedRecord) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if v, ok := rec.Fields["Name"]; ok {
		existing = existing.WithName(v.Str)
	}
	if v, ok := rec.Fields["Address"]; ok {
		existing = existing.WithAddress(v.Str)
	}
	if v, ok := rec.Fields["Client Name"]; ok {
		existing = existing.WithClientID(v.Ref)
	}
	if v, ok := rec.Fields["Status"]; ok {
		existing = existing.WithStatus(v.Str)
	}
	if v, ok := rec.Fields["Budget"]; ok {
		existing = existing.WithBudget(v.Num)
	}
	start := existing.StartDate()
	end := existing.EndDate()
	if v, ok := rec.Fields["Start Date"]; ok {
		start = v.Date
	}
	if v, ok := rec.Fields["End Date"]; ok {
		end = v.Date
	}
	existing = existing.WithDates(start, end)
	_, err = s.repo.Update(ctx, existing)
	return err
}
