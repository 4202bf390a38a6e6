package targets

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/target"
)

// InmemStore is a pipeline-facing fake used by tests: it holds candidates
// in memory and can be told to fail specific row indices on write, which
// is how partial-failure behavior is exercised without Postgres.
type InmemStore struct {
	mu       sync.Mutex
	entity   template.EntityType
	existing []target.Candidate
	inserted []record.ValidatedRecord
	merged   map[uuid.UUID]record.ValidatedRecord
	failRows map[int]error
}

func NewInmemStore(entity template.EntityType) *InmemStore {
	return &InmemStore{
		entity:   entity,
		merged:   make(map[uuid.UUID]record.ValidatedRecord),
		failRows: make(map[int]error),
	}
}

// Seed adds an existing stored record for duplicate detection and lookup
// resolution. The "Name"/"Title" field doubles as the natural key.
func (s *InmemStore) Seed(c target.Candidate) *InmemStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.existing = append(s.existing, c)
	return s
}

// FailRow makes any write for the given import index return err.
func (s *InmemStore) FailRow(index int, err error) *InmemStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRows[index] = err
	return s
}

func (s *InmemStore) Entity() template.EntityType {
	return s.entity
}

func (s *InmemStore) Candidates(ctx context.Context) ([]target.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]target.Candidate, len(s.existing))
	copy(out, s.existing)
	return out, nil
}

func (s *InmemStore) FindByName(ctx context.Context, name string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.existing {
		for _, key := range []string{"Name", "Title"} {
			if strings.EqualFold(c.Fields[key], strings.TrimSpace(name)) {
				return c.ID, nil
			}
		}
	}
	return uuid.Nil, target.ErrLookupNotFound
}

func (s *InmemStore) Insert(ctx context.Context, rec record.ValidatedRecord) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failRows[rec.Index]; ok {
		return uuid.Nil, err
	}
	s.inserted = append(s.inserted, rec)
	return uuid.New(), nil
}

func (s *InmemStore) Merge(ctx context.Context, id uuid.UUID, rec record.ValidatedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failRows[rec.Index]; ok {
		return err
	}
	s.merged[id] = rec
	return nil
}

func (s *InmemStore) Inserted() []record.ValidatedRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]record.ValidatedRecord, len(s.inserted))
	copy(out, s.inserted)
	return out
}

func (s *InmemStore) Merged() map[uuid.UUID]record.ValidatedRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]record.ValidatedRecord, len(s.merged))
	for k, v := range s.merged {
		out[k] = v
	}
	return out
}
