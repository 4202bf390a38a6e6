package session

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("import session not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Session, error)
	Create(ctx context.Context, s Session) (Session, error)
	Update(ctx context.Context, s Session) (Session, error)
	// DeleteOlderThan prunes audit records past the retention window.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Suggestion is one persisted AI or heuristic mapping proposal, re-fetched
// by the operator's review screen.
type Suggestion struct {
	SessionID    uuid.UUID `json:"session_id"`
	SourceColumn string    `json:"source_column"`
	TargetField  string    `json:"target_field"`
	Confidence   int       `json:"confidence"`
}

type SuggestionRepository interface {
	ForSession(ctx context.Context, sessionID uuid.UUID) ([]Suggestion, error)
	// ReplaceForSession atomically swaps the session's suggestion set.
	ReplaceForSession(ctx context.Context, sessionID uuid.UUID, suggestions []Suggestion) error
}
