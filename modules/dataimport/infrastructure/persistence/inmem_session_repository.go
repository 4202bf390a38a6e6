package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/session"
	"github.com/buildgrid-io/buildgrid/pkg/composables"
	"github.com/buildgrid-io/buildgrid/pkg/repo"
)

type sessionKey struct {
	tenantID  uuid.UUID
	sessionID uuid.UUID
}

// InmemSessionRepository backs wizard tests that run without Postgres.
type InmemSessionRepository struct {
	storage *repo.SafeMap[sessionKey, session.Session]
}

func NewInmemSessionRepository() *InmemSessionRepository {
	return &InmemSessionRepository{
		storage: repo.NewSafeMap[sessionKey, session.Session](),
	}
}

func (r *InmemSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (session.Session, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return session.Session{}, err
	}
	s, found := r.storage.Get(sessionKey{tenantID: tenantID, sessionID: id})
	if !found {
		return session.Session{}, session.ErrNotFound
	}
	return s, nil
}

func (r *InmemSessionRepository) Create(ctx context.Context, s session.Session) (session.Session, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return session.Session{}, err
	}
	r.storage.Set(sessionKey{tenantID: tenantID, sessionID: s.ID()}, s)
	return s, nil
}

func (r *InmemSessionRepository) Update(ctx context.Context, s session.Session) (session.Session, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return session.Session{}, err
	}
	key := sessionKey{tenantID: tenantID, sessionID: s.ID()}
	if _, found := r.storage.Get(key); !found {
		return session.Session{}, session.ErrNotFound
	}
	r.storage.Set(key, s)
	return s, nil
}

func (r *InmemSessionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	for _, s := range r.storage.Values() {
		if s.CreatedAt().Before(cutoff) {
			r.storage.Delete(sessionKey{tenantID: s.TenantID(), sessionID: s.ID()})
			deleted++
		}
	}
	return deleted, nil
}

// InmemSuggestionRepository stores mapping suggestions per session.
type InmemSuggestionRepository struct {
	storage *repo.SafeMap[uuid.UUID, []session.Suggestion]
}

func NewInmemSuggestionRepository() *InmemSuggestionRepository {
	return &InmemSuggestionRepository{
		storage: repo.NewSafeMap[uuid.UUID, []session.Suggestion](),
	}
}

func (r *InmemSuggestionRepository) ForSession(ctx context.Context, sessionID uuid.UUID) ([]session.Suggestion, error) {
	suggestions, _ := r.storage.Get(sessionID)
	out := make([]session.Suggestion, len(suggestions))
	copy(out, suggestions)
	return out, nil
}

func (r *InmemSuggestionRepository) ReplaceForSession(
	ctx context.Context,
	sessionID uuid.UUID,
	suggestions []session.Suggestion,
) error {
	stored := make([]session.Suggestion, len(suggestions))
	copy(stored, suggestions)
	r.storage.Set(sessionID, stored)
	return nil
}
