package target

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
)

var (
	ErrLookupNotFound = errors.New("lookup value does not resolve")
	ErrNoStore        = errors.New("no store registered for entity type")
)

// Candidate is an existing stored record projected into template field
// labels for duplicate scoring.
type Candidate struct {
	ID     uuid.UUID
	Fields map[string]string
}

// Store adapts one target entity table to the import pipeline. All calls
// are tenant-scoped through the context.
type Store interface {
	Entity() template.EntityType
	// Candidates returns the tenant's existing records for duplicate
	// detection. Read-only.
	Candidates(ctx context.Context) ([]Candidate, error)
	// FindByName resolves this entity's natural key to an id for lookup
	// fields pointing at it. ErrLookupNotFound when nothing matches.
	FindByName(ctx context.Context, name string) (uuid.UUID, error)
	// Insert writes one validated record as a new row.
	Insert(ctx context.Context, rec record.ValidatedRecord) (uuid.UUID, error)
	// Merge patches an existing row with the record's present fields only.
	Merge(ctx context.Context, id uuid.UUID, rec record.ValidatedRecord) error
}

// Registry resolves entity types to their stores.
type Registry map[template.EntityType]Store

func (r Registry) Store(entity template.EntityType) (Store, error) {
	s, ok := r[entity]
	if !ok {
		return nil, errors.Wrapf(ErrNoStore, "%s", entity)
	}
	return s, nil
}
