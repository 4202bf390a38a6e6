package project

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("project not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Project, error)
	// All returns every project for the tenant in the context. Used as
	// the candidate set for duplicate detection.
	All(ctx context.Context) ([]Project, error)
	// FindByName resolves a lookup field value to a project,
	// case-insensitively.
	FindByName(ctx context.Context, name string) (Project, error)
	Create(ctx context.Context, p Project) (Project, error)
	Update(ctx context.Context, p Project) (Project, error)
}
