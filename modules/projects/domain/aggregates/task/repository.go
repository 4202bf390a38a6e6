package task

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("task not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Task, error)
	All(ctx context.Context) ([]Task, error)
	Create(ctx context.Context, t Task) (Task, error)
	Update(ctx context.Context, t Task) (Task, error)
}
