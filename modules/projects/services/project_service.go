package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/modules/projects/domain/aggregates/project"
)

type ProjectService struct {
	repo project.Repository
}

func NewProjectService(repo project.Repository) *ProjectService {
	return &ProjectService{repo: repo}
}

func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (project.Project, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ProjectService) All(ctx context.Context) ([]project.Project, error) {
	return s.repo.All(ctx)
}

func (s *ProjectService) Create(ctx context.Context, p project.Project) (project.Project, error) {
	return s.repo.Create(ctx, p)
}
