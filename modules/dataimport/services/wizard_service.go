package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/analysis"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/session"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/infrastructure/tabular"
	"github.com/buildgrid-io/buildgrid/pkg/composables"
	"github.com/buildgrid-io/buildgrid/pkg/eventbus"
	"github.com/buildgrid-io/buildgrid/pkg/serrors"
)

var (
	ErrFileTooLarge   = serrors.NewError("IMPORT_FILE_TOO_LARGE", "uploaded file exceeds the size limit", "")
	ErrAnalysisFailed = serrors.NewError("IMPORT_ANALYSIS_FAILED", "field analysis failed, session reverted to upload", "")
	ErrInvalidState   = serrors.NewError("IMPORT_INVALID_STATE", "operation is not allowed in the session's current state", "")
)

// WizardService is the sole orchestrator of the import pipeline. Each
// stage is a pure transformation; the wizard sequences them, advances the
// session lifecycle and is the only place that persists session state.
type WizardService struct {
	sessions      session.Repository
	registry      *TemplateRegistry
	mapping       *MappingService
	validation    *ValidationService
	duplicates    *DuplicateService
	resolutions   *ResolutionService
	executor      *ExecutorService
	publisher     eventbus.EventBus
	maxUploadSize int64
}

func NewWizardService(
	sessions session.Repository,
	registry *TemplateRegistry,
	mapping *MappingService,
	validation *ValidationService,
	duplicates *DuplicateService,
	resolutions *ResolutionService,
	executor *ExecutorService,
	publisher eventbus.EventBus,
	maxUploadSize int64,
) *WizardService {
	return &WizardService{
		sessions:      sessions,
		registry:      registry,
		mapping:       mapping,
		validation:    validation,
		duplicates:    duplicates,
		resolutions:   resolutions,
		executor:      executor,
		publisher:     publisher,
		maxUploadSize: maxUploadSize,
	}
}

// Upload parses the dropped file and opens a session in the upload state.
// Parsing never rejects malformed rows; only an unreadable container or an
// oversized file fails here.
func (s *WizardService) Upload(ctx context.Context, filename string, data []byte) (session.Session, error) {
	if s.maxUploadSize > 0 && int64(len(data)) > s.maxUploadSize {
		return session.Session{}, errors.Wrapf(ErrFileTooLarge, "%d bytes", len(data))
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return session.Session{}, err
	}

	rows, err := tabular.Parse(filename, data)
	if err != nil {
		return session.Session{}, err
	}

	sess := session.New(tenantID, filename, int64(len(data)), string(tabular.Detect(filename, data)), rows)
	if userID, err := composables.UseUserID(ctx); err == nil {
		sess = sess.WithCreatedBy(userID)
	}
	return s.sessions.Create(ctx, sess)
}

// Analyze runs field detection. A failed AI call reverts the session to
// the upload step so the operator can retry or map manually.
func (s *WizardService) Analyze(ctx context.Context, id uuid.UUID) (session.Session, analysis.Result, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return session.Session{}, analysis.Result{}, err
	}
	sess, err = s.transition(ctx, sess, session.StatusAnalyzing)
	if err != nil {
		return session.Session{}, analysis.Result{}, err
	}

	result, err := s.mapping.Analyze(ctx, sess)
	if err != nil {
		if reverted, revertErr := s.transition(ctx, sess, session.StatusUpload); revertErr == nil {
			sess = reverted
		}
		return sess, analysis.Result{}, errors.Wrap(ErrAnalysisFailed, err.Error())
	}

	sess = sess.WithDetection(result.EntityType, result.Confidence)
	sess, err = s.sessions.Update(ctx, sess)
	if err != nil {
		return session.Session{}, analysis.Result{}, err
	}
	return sess, result, nil
}

// ConfirmMapping records the operator's final mapping. Re-confirming the
// same mapping is idempotent; the stored normalized mapping is identical.
func (s *WizardService) ConfirmMapping(
	ctx context.Context,
	id uuid.UUID,
	entityType template.EntityType,
	mapping map[string]string,
) (session.Session, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return session.Session{}, err
	}
	tmpl, err := s.registry.Template(entityType)
	if err != nil {
		return session.Session{}, err
	}
	normalized, err := s.mapping.Confirm(tmpl, mapping)
	if err != nil {
		return session.Session{}, err
	}

	if sess.Status() == session.StatusAnalyzing {
		if sess, err = s.transition(ctx, sess, session.StatusMapped); err != nil {
			return session.Session{}, err
		}
	} else if sess.Status() != session.StatusMapped {
		return session.Session{}, errors.Wrapf(ErrInvalidState, "confirm mapping in %s", sess.Status())
	}

	sess = sess.WithMapping(entityType, normalized)
	return s.sessions.Update(ctx, sess)
}

// Validate coerces the session's rows through the confirmed mapping.
// Validation is pure over the session data, so re-running it in a later
// state recomputes the identical result.
func (s *WizardService) Validate(ctx context.Context, id uuid.UUID) (record.ValidationResult, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return record.ValidationResult{}, err
	}
	_, result, err := s.validate(sess)
	if err != nil {
		return record.ValidationResult{}, err
	}

	if sess.Status() == session.StatusMapped {
		if sess, err = s.transition(ctx, sess, session.StatusValidated); err != nil {
			return record.ValidationResult{}, err
		}
	}
	return result, nil
}

// DetectDuplicates scores the valid records against stored data. The
// duplicates_pending detour is entered only when at least one match
// surfaces; otherwise the session stays ready for execution.
func (s *WizardService) DetectDuplicates(ctx context.Context, id uuid.UUID) (record.DuplicateResult, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return record.DuplicateResult{}, err
	}
	switch sess.Status() {
	case session.StatusValidated, session.StatusDuplicatesPending:
	default:
		return record.DuplicateResult{}, errors.Wrapf(ErrInvalidState, "detect duplicates in %s", sess.Status())
	}

	tmpl, validation, err := s.validate(sess)
	if err != nil {
		return record.DuplicateResult{}, err
	}
	dup, err := s.duplicates.Check(ctx, tmpl, validation.Valid)
	if err != nil {
		return record.DuplicateResult{}, err
	}

	if len(dup.Duplicates) > 0 && sess.Status() == session.StatusValidated {
		if _, err := s.transition(ctx, sess, session.StatusDuplicatesPending); err != nil {
			return record.DuplicateResult{}, err
		}
	}
	return dup, nil
}

// Execute runs the terminal import. The pipeline stages re-run from the
// persisted session data (they are pure), the operator's resolutions are
// applied, and the executor writes row by row. Zero execution errors end
// in completed; any row error ends in completed_with_errors.
func (s *WizardService) Execute(
	ctx context.Context,
	id uuid.UUID,
	resolutions map[int]record.Resolution,
) (record.ImportResult, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return record.ImportResult{}, err
	}
	switch sess.Status() {
	case session.StatusValidated, session.StatusDuplicatesPending:
	default:
		return record.ImportResult{}, errors.Wrapf(ErrInvalidState, "execute in %s", sess.Status())
	}

	tmpl, validation, err := s.validate(sess)
	if err != nil {
		return record.ImportResult{}, err
	}
	dup, err := s.duplicates.Check(ctx, tmpl, validation.Valid)
	if err != nil {
		return record.ImportResult{}, err
	}
	batches, err := s.resolutions.Apply(dup, resolutions)
	if err != nil {
		return record.ImportResult{}, err
	}

	if sess, err = s.transition(ctx, sess, session.StatusImporting); err != nil {
		return record.ImportResult{}, err
	}

	result, err := s.executor.Execute(ctx, tmpl, batches)
	if err != nil {
		return record.ImportResult{}, err
	}

	final := session.StatusCompleted
	if result.HasErrors() {
		final = session.StatusCompletedWithErrors
	}
	sess = sess.WithResult(result)
	if sess, err = s.transition(ctx, sess, final); err != nil {
		return record.ImportResult{}, err
	}

	s.publisher.Publish(session.ImportCompletedEvent{
		SessionID:  sess.ID(),
		TenantID:   sess.TenantID(),
		EntityType: sess.EntityType(),
		Result:     result,
	})
	return result, nil
}

// Cancel discards the session from any non-terminal state. Rows already
// committed by a partially-successful execution stay committed.
func (s *WizardService) Cancel(ctx context.Context, id uuid.UUID) (session.Session, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return session.Session{}, err
	}
	return s.transition(ctx, sess, session.StatusCancelled)
}

func (s *WizardService) Get(ctx context.Context, id uuid.UUID) (session.Session, error) {
	return s.sessions.GetByID(ctx, id)
}

func (s *WizardService) Suggestions(ctx context.Context, id uuid.UUID) ([]session.Suggestion, error) {
	return s.mapping.Suggestions(ctx, id)
}

// PruneExpired deletes audit sessions older than the retention window.
func (s *WizardService) PruneExpired(ctx context.Context, retention time.Duration) (int64, error) {
	return s.sessions.DeleteOlderThan(ctx, time.Now().Add(-retention))
}

func (s *WizardService) validate(sess session.Session) (template.FieldTemplate, record.ValidationResult, error) {
	tmpl, err := s.registry.Template(sess.EntityType())
	if err != nil {
		return template.FieldTemplate{}, record.ValidationResult{}, err
	}
	mapping := sess.Mapping()
	if len(mapping) == 0 {
		return template.FieldTemplate{}, record.ValidationResult{}, errors.Wrap(ErrInvalidState, "no confirmed mapping")
	}
	return tmpl, s.validation.Validate(tmpl, sess.Rows(), mapping), nil
}

func (s *WizardService) transition(ctx context.Context, sess session.Session, next session.Status) (session.Session, error) {
	sess, err := sess.Transition(next)
	if err != nil {
		return session.Session{}, err
	}
	return s.sessions.Update(ctx, sess)
}
