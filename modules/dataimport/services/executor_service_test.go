package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/target"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/infrastructure/targets"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/services"
)

func tasksTmpl(t *testing.T) template.FieldTemplate {
	t.Helper()
	tmpl, err := services.NewTemplateRegistry().Template(template.EntityTasks)
	require.NoError(t, err)
	return tmpl
}

// Scenario: 10 inserts where row 7 violates a constraint. The other nine
// commit, the failure is reported against row 7's import index.
func TestExecute_PartialFailureDoesNotAbortBatch(t *testing.T) {
	t.Parallel()
	store := targets.NewInmemStore(template.EntityContacts).
		FailRow(7, errors.New("duplicate key value violates unique constraint"))
	svc := services.NewExecutorService(target.Registry{template.EntityContacts: store})

	var inserts []record.ValidatedRecord
	for i := range 10 {
		inserts = append(inserts, contactRecord(i, fmt.Sprintf("Company %d", i), fmt.Sprintf("c%d@x.com", i)))
	}

	result, err := svc.Execute(context.Background(), contactsTmpl(t), record.Batches{ToInsert: inserts})
	require.NoError(t, err)

	assert.Equal(t, 9, result.Inserted)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 7, result.Errors[0].Row)
	assert.Len(t, store.Inserted(), 9)
}

func TestExecute_ResolvesLookups(t *testing.T) {
	t.Parallel()
	projectID := uuid.New()
	projectStore := targets.NewInmemStore(template.EntityProjects).Seed(target.Candidate{
		ID:     projectID,
		Fields: map[string]string{"Name": "Tower A"},
	})
	taskStore := targets.NewInmemStore(template.EntityTasks)
	svc := services.NewExecutorService(target.Registry{
		template.EntityProjects: projectStore,
		template.EntityTasks:    taskStore,
	})

	rec := record.ValidatedRecord{Index: 0, Fields: map[string]record.Value{
		"Title":        record.StringValue("Pour foundation"),
		"Project Name": record.LookupValue("Tower A"),
	}}
	result, err := svc.Execute(context.Background(), tasksTmpl(t), record.Batches{ToInsert: []record.ValidatedRecord{rec}})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Inserted)
	require.Len(t, taskStore.Inserted(), 1)
	assert.Equal(t, projectID, taskStore.Inserted()[0].Fields["Project Name"].Ref)
}

// An unresolvable lookup excludes the row with a row error; it is never
// written with a nulled reference.
func TestExecute_UnresolvableLookupExcludesRow(t *testing.T) {
	t.Parallel()
	projectStore := targets.NewInmemStore(template.EntityProjects)
	taskStore := targets.NewInmemStore(template.EntityTasks)
	svc := services.NewExecutorService(target.Registry{
		template.EntityProjects: projectStore,
		template.EntityTasks:    taskStore,
	})

	rec := record.ValidatedRecord{Index: 3, Fields: map[string]record.Value{
		"Title":        record.StringValue("Pour foundation"),
		"Project Name": record.LookupValue("No Such Project"),
	}}
	result, err := svc.Execute(context.Background(), tasksTmpl(t), record.Batches{ToInsert: []record.ValidatedRecord{rec}})
	require.NoError(t, err)

	assert.Zero(t, result.Inserted)
	assert.Empty(t, taskStore.Inserted())
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, "Project Name", result.Errors[0].Field)
}

func TestExecute_MergesUpdates(t *testing.T) {
	t.Parallel()
	existingID := uuid.New()
	store := targets.NewInmemStore(template.EntityContacts)
	svc := services.NewExecutorService(target.Registry{template.EntityContacts: store})

	result, err := svc.Execute(context.Background(), contactsTmpl(t), record.Batches{
		ToUpdate: []record.Update{{
			ExistingID: existingID,
			Record:     contactRecord(1, "A Co", "new@x.com"),
		}},
		Skipped: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 2, result.Skipped)
	merged := store.Merged()
	require.Contains(t, merged, existingID)
	assert.Equal(t, "new@x.com", merged[existingID].Fields["Email"].Str)
}

func TestExecute_MissingStoreIsFatal(t *testing.T) {
	t.Parallel()
	svc := services.NewExecutorService(target.Registry{})

	_, err := svc.Execute(context.Background(), contactsTmpl(t), record.Batches{})
	require.ErrorIs(t, err, target.ErrNoStore)
}
