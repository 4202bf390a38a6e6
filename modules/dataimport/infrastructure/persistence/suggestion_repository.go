package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/session"
	"github.com/buildgrid-io/buildgrid/pkg/composables"
)

type SuggestionRepository struct{}

func NewSuggestionRepository() *SuggestionRepository {
	return &SuggestionRepository{}
}

func (r *SuggestionRepository) ForSession(ctx context.Context, sessionID uuid.UUID) ([]session.Suggestion, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(
		ctx,
		`SELECT session_id, source_column, target_field, confidence
		 FROM import_mapping_suggestions
		 WHERE session_id = $1
		 ORDER BY source_column`,
		sessionID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query suggestions")
	}
	defer rows.Close()

	var out []session.Suggestion
	for rows.Next() {
		var s session.Suggestion
		if err := rows.Scan(&s.SessionID, &s.SourceColumn, &s.TargetField, &s.Confidence); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SuggestionRepository) ReplaceForSession(
	ctx context.Context,
	sessionID uuid.UUID,
	suggestions []session.Suggestion,
) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(txCtx, `DELETE FROM import_mapping_suggestions WHERE session_id = $1`, sessionID); err != nil {
			return errors.Wrap(err, "clear suggestions")
		}
		for _, s := range suggestions {
			_, err := tx.Exec(
				txCtx,
				`INSERT INTO import_mapping_suggestions (session_id, source_column, target_field, confidence)
				 VALUES ($1, $2, $3, $4)`,
				sessionID, s.SourceColumn, s.TargetField, s.Confidence,
			)
			if err != nil {
				return errors.Wrap(err, "insert suggestion")
			}
		}
		return nil
	})
}
