package persistence

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/modules/projects/domain/aggregates/project"
	"github.com/buildgrid-io/buildgrid/pkg/composables"
	"github.com/buildgrid-io/buildgrid/pkg/repo"
)

type projectKey struct {
	tenantID  uuid.UUID
	projectID uuid.UUID
}

type InmemProjectRepository struct {
	storage *repo.SafeMap[projectKey, project.Project]
}

func NewInmemProjectRepository() *InmemProjectRepository {
	return &InmemProjectRepository{
		storage: repo.NewSafeMap[projectKey, project.Project](),
	}
}

func (r *InmemProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (project.Project, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return project.Project{}, err
	}
	p, found := r.storage.Get(projectKey{tenantID: tenantID, projectID: id})
	if !found {
		return project.Project{}, project.ErrNotFound
	}
	return p, nil
}

func (r *InmemProjectRepository) All(ctx context.Context) ([]project.Project, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	all := r.storage.Values()
	out := make([]project.Project, 0, len(all))
	for _, p := range all {
		if p.TenantID() == tenantID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID().String() < out[j].ID().String() })
	return out, nil
}

func (r *InmemProjectRepository) FindByName(ctx context.Context, name string) (project.Project, error) {
	all, err := r.All(ctx)
	if err != nil {
		return project.Project{}, err
	}
	for _, p := range all {
		if strings.EqualFold(p.Name(), strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return project.Project{}, project.ErrNotFound
}

func (r *InmemProjectRepository) Create(ctx context.Context, p project.Project) (project.Project, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return project.Project{}, err
	}
	now := time.Now()
	created := project.Hydrate(
		uuid.New(), tenantID,
		p.Name(), p.Address(), p.ClientID(), p.Status(), p.Budget(),
		p.StartDate(), p.EndDate(),
		p.CreatedBy(), now, now,
	)
	r.storage.Set(projectKey{tenantID: tenantID, projectID: created.ID()}, created)
	return created, nil
}

func (r *InmemProjectRepository) Update(ctx context.Context, p project.Project) (project.Project, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return project.Project{}, err
	}
	key := projectKey{tenantID: tenantID, projectID: p.ID()}
	existing, found := r.storage.Get(key)
	if !found {
		return project.Project{}, project.ErrNotFound
	}
	updated := project.Hydrate(
		existing.ID(), tenantID,
		p.Name(), p.Address(), p.ClientID(), p.Status(), p.Budget(),
		p.StartDate(), p.EndDate(),
		existing.CreatedBy(), existing.CreatedAt(), time.Now(),
	)
	r.storage.Set(key, updated)
	return updated, nil
}
