package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/session"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/pkg/composables"
)

const selectSessions = `
	SELECT id, tenant_id, filename, file_size, content_type, entity_type,
	       confidence, status, raw_rows, mapping, result, created_by,
	       created_at, updated_at
	FROM import_sessions
`

// SessionRepository persists the wizard's audit trail. Parsed rows,
// mapping and result travel as JSONB.
type SessionRepository struct{}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{}
}

func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (session.Session, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return session.Session{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return session.Session{}, err
	}
	row := tx.QueryRow(ctx, selectSessions+` WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return session.Session{}, session.ErrNotFound
	}
	return s, err
}

func (r *SessionRepository) Create(ctx context.Context, s session.Session) (session.Session, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return session.Session{}, err
	}
	rowsJSON, mappingJSON, resultJSON, err := marshalSessionBlobs(s)
	if err != nil {
		return session.Session{}, err
	}
	_, err = tx.Exec(
		ctx,
		`INSERT INTO import_sessions
		   (id, tenant_id, filename, file_size, content_type, entity_type,
		    confidence, status, raw_rows, mapping, result, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		s.ID(), s.TenantID(), s.Filename(), s.FileSize(), s.ContentType(),
		nullableString(string(s.EntityType())), s.Confidence(), string(s.Status()),
		rowsJSON, mappingJSON, resultJSON,
		nullableID(s.CreatedBy()), s.CreatedAt(), s.UpdatedAt(),
	)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "insert import session")
	}
	return s, nil
}

func (r *SessionRepository) Update(ctx context.Context, s session.Session) (session.Session, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return session.Session{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return session.Session{}, err
	}
	_, mappingJSON, resultJSON, err := marshalSessionBlobs(s)
	if err != nil {
		return session.Session{}, err
	}
	tag, err := tx.Exec(
		ctx,
		`UPDATE import_sessions
		 SET entity_type = $3, confidence = $4, status = $5, mapping = $6,
		     result = $7, updated_at = $8
		 WHERE id = $1 AND tenant_id = $2`,
		s.ID(), tenantID,
		nullableString(string(s.EntityType())), s.Confidence(), string(s.Status()),
		mappingJSON, resultJSON, s.UpdatedAt(),
	)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "update import session")
	}
	if tag.RowsAffected() == 0 {
		return session.Session{}, session.ErrNotFound
	}
	return s, nil
}

func (r *SessionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM import_sessions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "prune import sessions")
	}
	return tag.RowsAffected(), nil
}

func marshalSessionBlobs(s session.Session) ([]byte, []byte, []byte, error) {
	rowsJSON, err := json.Marshal(s.Rows())
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "marshal rows")
	}
	var mappingJSON []byte
	if m := s.Mapping(); len(m) > 0 {
		if mappingJSON, err = json.Marshal(m); err != nil {
			return nil, nil, nil, errors.Wrap(err, "marshal mapping")
		}
	}
	var resultJSON []byte
	if res := s.Result(); res != nil {
		if resultJSON, err = json.Marshal(res); err != nil {
			return nil, nil, nil, errors.Wrap(err, "marshal result")
		}
	}
	return rowsJSON, mappingJSON, resultJSON, nil
}

func scanSession(row pgx.Row) (session.Session, error) {
	var (
		id, tenantID         uuid.UUID
		filename             string
		fileSize             int64
		contentType          string
		entityType           *string
		confidence           int
		status               string
		rowsJSON             []byte
		mappingJSON          []byte
		resultJSON           []byte
		createdBy            *uuid.UUID
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(
		&id, &tenantID, &filename, &fileSize, &contentType, &entityType,
		&confidence, &status, &rowsJSON, &mappingJSON, &resultJSON,
		&createdBy, &createdAt, &updatedAt,
	); err != nil {
		return session.Session{}, err
	}

	var rows record.Rows
	if len(rowsJSON) > 0 {
		if err := json.Unmarshal(rowsJSON, &rows); err != nil {
			return session.Session{}, errors.Wrap(err, "unmarshal rows")
		}
	}
	var mapping map[string]string
	if len(mappingJSON) > 0 {
		if err := json.Unmarshal(mappingJSON, &mapping); err != nil {
			return session.Session{}, errors.Wrap(err, "unmarshal mapping")
		}
	}
	var result *record.ImportResult
	if len(resultJSON) > 0 {
		result = &record.ImportResult{}
		if err := json.Unmarshal(resultJSON, result); err != nil {
			return session.Session{}, errors.Wrap(err, "unmarshal result")
		}
	}

	entity := template.EntityType("")
	if entityType != nil {
		entity = template.EntityType(*entityType)
	}
	by := uuid.Nil
	if createdBy != nil {
		by = *createdBy
	}
	return session.Hydrate(
		id, tenantID, filename, fileSize, contentType,
		entity, confidence, session.Status(status),
		rows, mapping, result,
		by, createdAt, updatedAt,
	), nil
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
