package contact

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("contact not found")
	ErrEmailTaken = errors.New("contact email already exists")
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Contact, error)
	// All returns every contact of the tenant in context; the duplicate
	// detector scores against this set.
	All(ctx context.Context) ([]Contact, error)
	FindByName(ctx context.Context, name string) (Contact, error)
	Create(ctx context.Context, c Contact) (Contact, error)
	Update(ctx context.Context, c Contact) (Contact, error)
}
