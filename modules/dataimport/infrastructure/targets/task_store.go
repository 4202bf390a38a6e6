package targets

import (
	"context"

	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/target"
	"github.com/buildgrid-io/buildgrid/modules/projects/domain/aggregates/project"
	"github.com/buildgrid-io/buildgrid/modules/projects/domain/aggregates/task"
	"github.com/buildgrid-io/buildgrid/pkg/composables"
)

// TaskStore adapts the task table. It also reads projects so duplicate
// candidates can expose "Project Name" the way incoming rows carry it.
type TaskStore struct {
	tasks    task.Repository
	projects project.Repository
}

func NewTaskStore(tasks task.Repository, projects project.Repository) *TaskStore {
	return &TaskStore{tasks: tasks, projects: projects}
}

func (s *TaskStore) Entity() template.EntityType {
	return template.EntityTasks
}

func (s *TaskStore) Candidates(ctx context.Context) ([]target.Candidate, error) {
	tasks, err := s.tasks.All(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.projects.All(ctx)
	if err != nil {
		return nil, err
	}
	projectNames := make(map[uuid.UUID]string, len(projects))
	for _, p := range projects {
		projectNames[p.ID()] = p.Name()
	}

	out := make([]target.Candidate, len(tasks))
	for i, t := range tasks {
		out[i] = target.Candidate{
			ID: t.ID(),
			Fields: map[string]string{
				"Title":        t.Title(),
				"Project Name": projectNames[t.ProjectID()],
			},
		}
	}
	return out, nil
}

// FindByName is unused in practice: nothing declares a lookup against
// tasks. It still satisfies the store contract.
func (s *TaskStore) FindByName(ctx context.Context, name string) (uuid.UUID, error) {
	return uuid.Nil, target.ErrLookupNotFound
}

func (s *TaskStore) Insert(ctx context.Context, rec record.ValidatedRecord) (uuid.UUID, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	projectID := uuid.Nil
	if v, ok := rec.Fields["Project Name"]; ok {
		projectID = v.Ref
	}
	t := task.New(tenantID, fieldStr(rec, "Title"), projectID).
		WithDescription(fieldStr(rec, "Description"))
	if v, ok := rec.Fields["Status"]; ok {
		t = t.WithStatus(v.Str)
	}
	if v, ok := rec.Fields["Priority"]; ok {
		t = t.WithPriority(v.Str)
	}
	if v, ok := rec.Fields["Due Date"]; ok {
		t = t.WithDueDate(v.Date)
	}
	if v, ok := rec.Fields["Estimated Hours"]; ok {
		t = t.WithEstimatedHours(v.Num)
	}
	if userID, err := composables.UseUserID(ctx); err == nil {
		t = t.WithCreatedBy(userID)
	}
	created, err := s.tasks.Create(ctx, t)
	if err != nil {
		return uuid.Nil, err
	}
	return created.ID(), nil
}

func (s *TaskStore) Merge(ctx context.Context, id uuid.UUID, rec record.ValidatedRecord) error {
	existing, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if v, ok := rec.Fields["Title"]; ok {
		existing = existing.WithTitle(v.Str)
	}
	if v, ok := rec.Fields["Project Name"]; ok {
		existing = existing.WithProjectID(v.Ref)
	}
	if v, ok := rec.Fields["Description"]; ok {
		existing = existing.WithDescription(v.Str)
	}
	if v, ok := rec.Fields["Status"]; ok {
		existing = existing.WithStatus(v.Str)
	}
	if v, ok := rec.Fields["Priority"]; ok {
		existing = existing.WithPriority(v.Str)
	}
	if v, ok := rec.Fields["Due Date"]; ok {
		existing = existing.WithDueDate(v.Date)
	}
	if v, ok := rec.Fields["Estimated Hours"]; ok {
		existing = existing.WithEstimatedHours(v.Num)
	}
	_, err = s.tasks.Update(ctx, existing)
	return err
}
