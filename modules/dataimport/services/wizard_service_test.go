package services_test

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/analysis"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/session"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/target"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/infrastructure/persistence"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/infrastructure/targets"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/services"
	"github.com/buildgrid-io/buildgrid/pkg/composables"
	"github.com/buildgrid-io/buildgrid/pkg/eventbus"
)

const contactsCSV = "Name,Email,Phone\nJohn Doe,john@x.com,555-0100\nJane Roe,jane@x.com,555-0101\n"

type wizardFixture struct {
	wizard    *services.WizardService
	sessions  *persistence.InmemSessionRepository
	contacts  *targets.InmemStore
	publisher eventbus.EventBus
	ctx       context.Context
}

func newWizardFixture(t *testing.T, analyzer analysis.Analyzer) *wizardFixture {
	t.Helper()
	registry := services.NewTemplateRegistry()
	sessions := persistence.NewInmemSessionRepository()
	suggestions := persistence.NewInmemSuggestionRepository()
	contacts := targets.NewInmemStore(template.EntityContacts)
	stores := target.Registry{
		template.EntityContacts: contacts,
		template.EntityProjects: targets.NewInmemStore(template.EntityProjects),
		template.EntityTasks:    targets.NewInmemStore(template.EntityTasks),
	}
	publisher := eventbus.NewEventPublisher(logrus.New())
	wizard := services.NewWizardService(
		sessions,
		registry,
		services.NewMappingService(registry, analyzer, suggestions),
		services.NewValidationService(),
		services.NewDuplicateService(stores),
		services.NewResolutionService(),
		services.NewExecutorService(stores),
		publisher,
		1<<20,
	)
	return &wizardFixture{
		wizard:    wizard,
		sessions:  sessions,
		contacts:  contacts,
		publisher: publisher,
		ctx:       composables.WithTenantID(context.Background(), uuid.New()),
	}
}

// mappingFrom turns analysis suggestions into the operator's confirmation,
// as the review screen would submit them untouched.
func mappingFrom(result analysis.Result) map[string]string {
	mapping := make(map[string]string, len(result.Suggestions))
	for _, s := range result.Suggestions {
		mapping[s.SourceColumn] = s.TargetField
	}
	return mapping
}

func TestWizard_HappyPath(t *testing.T) {
	t.Parallel()
	f := newWizardFixture(t, nil)

	var completed []session.ImportCompletedEvent
	f.publisher.Subscribe(func(e session.ImportCompletedEvent) {
		completed = append(completed, e)
	})

	sess, err := f.wizard.Upload(f.ctx, "contacts.csv", []byte(contactsCSV))
	require.NoError(t, err)
	assert.Equal(t, session.StatusUpload, sess.Status())

	sess, detection, err := f.wizard.Analyze(f.ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, session.StatusAnalyzing, sess.Status())
	assert.Equal(t, template.EntityContacts, detection.EntityType)
	assert.Equal(t, 100, detection.Confidence)
	require.Len(t, detection.Suggestions, 3)

	sess, err = f.wizard.ConfirmMapping(f.ctx, sess.ID(), detection.EntityType, mappingFrom(detection))
	require.NoError(t, err)
	assert.Equal(t, session.StatusMapped, sess.Status())

	validation, err := f.wizard.Validate(f.ctx, sess.ID())
	require.NoError(t, err)
	assert.Len(t, validation.Valid, 2)
	assert.Empty(t, validation.Errors)

	dup, err := f.wizard.DetectDuplicates(f.ctx, sess.ID())
	require.NoError(t, err)
	assert.Empty(t, dup.Duplicates)

	// No duplicates surfaced, so the session skipped the pending detour.
	sess, err = f.wizard.Get(f.ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, session.StatusValidated, sess.Status())

	result, err := f.wizard.Execute(f.ctx, sess.ID(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.False(t, result.HasErrors())
	assert.Len(t, f.contacts.Inserted(), 2)

	sess, err = f.wizard.Get(f.ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, sess.Status())
	require.NotNil(t, sess.Result())
	assert.Equal(t, 2, sess.Result().Inserted)

	require.Len(t, completed, 1)
	assert.Equal(t, sess.ID(), completed[0].SessionID)
	assert.Equal(t, template.EntityContacts, completed[0].EntityType)
}

func TestWizard_RowErrorsEndInCompletedWithErrors(t *testing.T) {
	t.Parallel()
	f := newWizardFixture(t, nil)
	f.contacts.FailRow(0, errors.New("duplicate key value violates unique constraint"))

	sess, err := f.wizard.Upload(f.ctx, "contacts.csv", []byte(contactsCSV))
	require.NoError(t, err)
	sess, detection, err := f.wizard.Analyze(f.ctx, sess.ID())
	require.NoError(t, err)
	_, err = f.wizard.ConfirmMapping(f.ctx, sess.ID(), detection.EntityType, mappingFrom(detection))
	require.NoError(t, err)
	_, err = f.wizard.Validate(f.ctx, sess.ID())
	require.NoError(t, err)

	result, err := f.wizard.Execute(f.ctx, sess.ID(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 0, result.Errors[0].Row)

	sess, err = f.wizard.Get(f.ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompletedWithErrors, sess.Status())
}

func TestWizard_DuplicatesDetour(t *testing.T) {
	t.Parallel()
	f := newWizardFixture(t, nil)
	f.contacts.Seed(target.Candidate{
		ID:     uuid.New(),
		Fields: map[string]string{"Name": "John Doe", "Email": "john@x.com"},
	})

	sess, err := f.wizard.Upload(f.ctx, "contacts.csv", []byte(contactsCSV))
	require.NoError(t, err)
	sess, detection, err := f.wizard.Analyze(f.ctx, sess.ID())
	require.NoError(t, err)
	_, err = f.wizard.ConfirmMapping(f.ctx, sess.ID(), detection.EntityType, mappingFrom(detection))
	require.NoError(t, err)
	_, err = f.wizard.Validate(f.ctx, sess.ID())
	require.NoError(t, err)

	dup, err := f.wizard.DetectDuplicates(f.ctx, sess.ID())
	require.NoError(t, err)
	require.Len(t, dup.Duplicates, 1)
	assert.Equal(t, 0, dup.Duplicates[0].Record.Index)

	sess, err = f.wizard.Get(f.ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, session.StatusDuplicatesPending, sess.Status())

	// Executing with the duplicate unresolved is rejected.
	_, err = f.wizard.Execute(f.ctx, sess.ID(), nil)
	require.ErrorIs(t, err, services.ErrResolutionIncomplete)

	result, err := f.wizard.Execute(f.ctx, sess.ID(), map[int]record.Resolution{
		0: {Kind: record.ResolutionSkip},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Skipped)

	sess, err = f.wizard.Get(f.ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, sess.Status())
}

type failingAnalyzer struct{}

func (failingAnalyzer) AnalyzeMapping(context.Context, []string, []record.RawRow) (analysis.Result, error) {
	return analysis.Result{}, errors.New("model timeout")
}

func TestWizard_AnalysisFailureRevertsToUpload(t *testing.T) {
	t.Parallel()
	f := newWizardFixture(t, failingAnalyzer{})

	sess, err := f.wizard.Upload(f.ctx, "contacts.csv", []byte(contactsCSV))
	require.NoError(t, err)

	_, _, err = f.wizard.Analyze(f.ctx, sess.ID())
	require.ErrorIs(t, err, services.ErrAnalysisFailed)

	sess, err = f.wizard.Get(f.ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, session.StatusUpload, sess.Status())

	// A mapping cannot be confirmed until an analysis pass succeeds.
	_, err = f.wizard.ConfirmMapping(f.ctx, sess.ID(), template.EntityContacts, map[string]string{
		"Name":  "Name",
		"Email": "Email",
	})
	require.ErrorIs(t, err, services.ErrInvalidState)
}

func TestWizard_ConfirmMappingIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newWizardFixture(t, nil)

	sess, err := f.wizard.Upload(f.ctx, "contacts.csv", []byte(contactsCSV))
	require.NoError(t, err)
	sess, detection, err := f.wizard.Analyze(f.ctx, sess.ID())
	require.NoError(t, err)

	mapping := mappingFrom(detection)
	first, err := f.wizard.ConfirmMapping(f.ctx, sess.ID(), detection.EntityType, mapping)
	require.NoError(t, err)
	second, err := f.wizard.ConfirmMapping(f.ctx, sess.ID(), detection.EntityType, mapping)
	require.NoError(t, err)

	assert.Equal(t, session.StatusMapped, second.Status())
	assert.Equal(t, first.Mapping(), second.Mapping())
}

func TestWizard_SuggestionsPersistAcrossCalls(t *testing.T) {
	t.Parallel()
	f := newWizardFixture(t, nil)

	sess, err := f.wizard.Upload(f.ctx, "contacts.csv", []byte(contactsCSV))
	require.NoError(t, err)
	_, detection, err := f.wizard.Analyze(f.ctx, sess.ID())
	require.NoError(t, err)

	stored, err := f.wizard.Suggestions(f.ctx, sess.ID())
	require.NoError(t, err)
	require.Len(t, stored, len(detection.Suggestions))
	for _, s := range stored {
		assert.Equal(t, sess.ID(), s.SessionID)
	}
}

func TestWizard_UploadRejectsOversizedFile(t *testing.T) {
	t.Parallel()
	registry := services.NewTemplateRegistry()
	suggestions := persistence.NewInmemSuggestionRepository()
	wizard := services.NewWizardService(
		persistence.NewInmemSessionRepository(),
		registry,
		services.NewMappingService(registry, nil, suggestions),
		services.NewValidationService(),
		services.NewDuplicateService(target.Registry{}),
		services.NewResolutionService(),
		services.NewExecutorService(target.Registry{}),
		eventbus.NewEventPublisher(logrus.New()),
		16,
	)
	ctx := composables.WithTenantID(context.Background(), uuid.New())

	_, err := wizard.Upload(ctx, "contacts.csv", []byte(contactsCSV))
	require.ErrorIs(t, err, services.ErrFileTooLarge)
}

func TestWizard_StageOrderIsEnforced(t *testing.T) {
	t.Parallel()
	f := newWizardFixture(t, nil)

	sess, err := f.wizard.Upload(f.ctx, "contacts.csv", []byte(contactsCSV))
	require.NoError(t, err)

	// No confirmed mapping yet.
	_, err = f.wizard.Validate(f.ctx, sess.ID())
	require.Error(t, err)
	_, err = f.wizard.DetectDuplicates(f.ctx, sess.ID())
	require.ErrorIs(t, err, services.ErrInvalidState)
	_, err = f.wizard.Execute(f.ctx, sess.ID(), nil)
	require.ErrorIs(t, err, services.ErrInvalidState)
}

func TestWizard_Cancel(t *testing.T) {
	t.Parallel()
	f := newWizardFixture(t, nil)

	sess, err := f.wizard.Upload(f.ctx, "contacts.csv", []byte(contactsCSV))
	require.NoError(t, err)
	sess, err = f.wizard.Cancel(f.ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, session.StatusCancelled, sess.Status())

	_, _, err = f.wizard.Analyze(f.ctx, sess.ID())
	require.ErrorIs(t, err, session.ErrInvalidTransition)
	_, err = f.wizard.Cancel(f.ctx, sess.ID())
	require.ErrorIs(t, err, session.ErrInvalidTransition)
}

func TestWizard_TenantIsolation(t *testing.T) {
	t.Parallel()
	f := newWizardFixture(t, nil)

	sess, err := f.wizard.Upload(f.ctx, "contacts.csv", []byte(contactsCSV))
	require.NoError(t, err)

	otherTenant := composables.WithTenantID(context.Background(), uuid.New())
	_, err = f.wizard.Get(otherTenant, sess.ID())
	require.ErrorIs(t, err, session.ErrNotFound)
}
