package persistence

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/modules/projects/domain/aggregates/task"
	"github.com/buildgrid-io/buildgrid/pkg/composables"
	"github.com/buildgrid-io/buildgrid/pkg/repo"
)

type taskKey struct {
	tenantID uuid.UUID
	taskID   uuid.UUID
}

type InmemTaskRepository struct {
	storage *repo.SafeMap[taskKey, task.Task]
}

func NewInmemTaskRepository() *InmemTaskRepository {
	return &InmemTaskRepository{
		storage: repo.NewSafeMap[taskKey, task.Task](),
	}
}

func (r *InmemTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (task.Task, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return task.Task{}, err
	}
	t, found := r.storage.Get(taskKey{tenantID: tenantID, taskID: id})
	if !found {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (r *InmemTaskRepository) All(ctx context.Context) ([]task.Task, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	all := r.storage.Values()
	out := make([]task.Task, 0, len(all))
	for _, t := range all {
		if t.TenantID() == tenantID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID().String() < out[j].ID().String() })
	return out, nil
}

func (r *InmemTaskRepository) Create(ctx context.Context, t task.Task) (task.Task, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return task.Task{}, err
	}
	now := time.Now()
	created := task.Hydrate(
		uuid.New(), tenantID,
		t.Title(), t.Description(), t.ProjectID(), t.Status(), t.Priority(),
		t.DueDate(), t.EstimatedHours(),
		t.CreatedBy(), now, now,
	)
	r.storage.Set(taskKey{tenantID: tenantID, taskID: created.ID()}, created)
	return created, nil
}

func (r *InmemTaskRepository) Update(ctx context.Context, t task.Task) (task.Task, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return task.Task{}, err
	}
	key := taskKey{tenantID: tenantID, taskID: t.ID()}
	existing, found := r.storage.Get(key)
	if !found {
		return task.Task{}, task.ErrNotFound
	}
	updated := task.Hydrate(
		existing.ID(), tenantID,
		t.Title(), t.Description(), t.ProjectID(), t.Status(), t.Priority(),
		t.DueDate(), t.EstimatedHours(),
		existing.CreatedBy(), existing.CreatedAt(), time.Now(),
	)
	r.storage.Set(key, updated)
	return updated, nil
}
