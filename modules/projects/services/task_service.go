package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/modules/projects/domain/aggregates/task"
)

type TaskService struct {
	repo task.Repository
}

func NewTaskService(repo task.Repository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) GetByID(ctx context.Context, id uuid.UUID) (task.Task, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *TaskService) All(ctx context.Context) ([]task.Task, error) {
	return s.repo.All(ctx)
}

func (s *TaskService) Create(ctx context.Context, t task.Task) (task.Task, error) {
	return s.repo.Create(ctx, t)
}
