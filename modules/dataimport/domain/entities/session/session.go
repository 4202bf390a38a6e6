package session

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
)

// Status is the wizard lifecycle state of an import session.
type Status string

const (
	StatusUpload              Status = "upload"
	StatusAnalyzing           Status = "analyzing"
	StatusMapped              Status = "mapped"
	StatusValidated           Status = "validated"
	StatusDuplicatesPending   Status = "duplicates_pending"
	StatusImporting           Status = "importing"
	StatusCompleted           Status = "completed"
	StatusCompletedWithErrors Status = "completed_with_errors"
	StatusCancelled           Status = "cancelled"
)

var ErrInvalidTransition = errors.New("invalid session status transition")

// transitions lists the legal forward edges. analyzing → upload is the
// one sanctioned backward edge: a failed AI analysis reverts the wizard
// to the upload step. Cancellation is handled separately in CanTransitionTo.
var transitions = map[Status][]Status{
	StatusUpload:            {StatusAnalyzing},
	StatusAnalyzing:         {StatusUpload, StatusMapped},
	StatusMapped:            {StatusValidated},
	StatusValidated:         {StatusDuplicatesPending, StatusImporting},
	StatusDuplicatesPending: {StatusImporting},
	StatusImporting:         {StatusCompleted, StatusCompletedWithErrors},
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCompletedWithErrors, StatusCancelled:
		return true
	}
	return false
}

func (s Status) CanTransitionTo(next Status) bool {
	if next == StatusCancelled {
		return !s.IsTerminal()
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Session is one in-flight import operation. It owns the parsed rows for
// the duration of the wizard and is persisted as an audit record.
type Session struct {
	id          uuid.UUID
	tenantID    uuid.UUID
	filename    string
	fileSize    int64
	contentType string
	entityType  template.EntityType
	confidence  int
	status      Status
	rows        record.Rows
	mapping     map[string]string
	result      *record.ImportResult
	createdBy   uuid.UUID
	createdAt   time.Time
	updatedAt   time.Time
}

func New(tenantID uuid.UUID, filename string, fileSize int64, contentType string, rows record.Rows) Session {
	now := time.Now()
	return Session{
		id:          uuid.New(),
		tenantID:    tenantID,
		filename:    filename,
		fileSize:    fileSize,
		contentType: contentType,
		status:      StatusUpload,
		rows:        rows,
		createdAt:   now,
		updatedAt:   now,
	}
}

func Hydrate(
	id, tenantID uuid.UUID,
	filename string,
	fileSize int64,
	contentType string,
	entityType template.EntityType,
	confidence int,
	status Status,
	rows record.Rows,
	mapping map[string]string,
	result *record.ImportResult,
	createdBy uuid.UUID,
	createdAt, updatedAt time.Time,
) Session {
	return Session{
		id:          id,
		tenantID:    tenantID,
		filename:    filename,
		fileSize:    fileSize,
		contentType: contentType,
		entityType:  entityType,
		confidence:  confidence,
		status:      status,
		rows:        rows,
		mapping:     mapping,
		result:      result,
		createdBy:   createdBy,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (s Session) ID() uuid.UUID                   { return s.id }
func (s Session) TenantID() uuid.UUID             { return s.tenantID }
func (s Session) Filename() string                { return s.filename }
func (s Session) FileSize() int64                 { return s.fileSize }
func (s Session) ContentType() string             { return s.contentType }
func (s Session) EntityType() template.EntityType { return s.entityType }
func (s Session) Confidence() int                 { return s.confidence }
func (s Session) Status() Status                  { return s.status }
func (s Session) Rows() record.Rows               { return s.rows }
func (s Session) RowCount() int                   { return len(s.rows.Records) }
func (s Session) CreatedBy() uuid.UUID            { return s.createdBy }
func (s Session) CreatedAt() time.Time            { return s.createdAt }
func (s Session) UpdatedAt() time.Time            { return s.updatedAt }

func (s Session) IsZero() bool { return s.id == uuid.Nil }

func (s Session) Mapping() map[string]string {
	out := make(map[string]string, len(s.mapping))
	for k, v := range s.mapping {
		out[k] = v
	}
	return out
}

func (s Session) Result() *record.ImportResult {
	if s.result == nil {
		return nil
	}
	r := *s.result
	return &r
}

// Preview returns the first n data rows for the operator's review table.
func (s Session) Preview(n int) []record.RawRow {
	if n > len(s.rows.Records) {
		n = len(s.rows.Records)
	}
	out := make([]record.RawRow, n)
	copy(out, s.rows.Records[:n])
	return out
}

// Transition moves the session to next, rejecting any edge the lifecycle
// does not allow.
func (s Session) Transition(next Status) (Session, error) {
	if !s.status.CanTransitionTo(next) {
		return Session{}, errors.Wrapf(ErrInvalidTransition, "%s -> %s", s.status, next)
	}
	s.status = next
	s.updatedAt = time.Now()
	return s, nil
}

func (s Session) WithDetection(entityType template.EntityType, confidence int) Session {
	s.entityType = entityType
	s.confidence = confidence
	s.updatedAt = time.Now()
	return s
}

func (s Session) WithMapping(entityType template.EntityType, mapping map[string]string) Session {
	s.entityType = entityType
	s.mapping = mapping
	s.updatedAt = time.Now()
	return s
}

func (s Session) WithResult(result record.ImportResult) Session {
	s.result = &result
	s.updatedAt = time.Now()
	return s
}

func (s Session) WithCreatedBy(userID uuid.UUID) Session {
	s.createdBy = userID
	return s
}
