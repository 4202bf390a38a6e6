package services_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/infrastructure/tabular"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/services"
)

func TestTemplateRegistry_Template(t *testing.T) {
	t.Parallel()
	registry := services.NewTemplateRegistry()

	tmpl, err := registry.Template(template.EntityContacts)
	require.NoError(t, err)
	assert.Equal(t, template.EntityContacts, tmpl.Entity())

	name, ok := tmpl.Field("Name")
	require.True(t, ok)
	assert.True(t, name.Required)
}

func TestTemplateRegistry_UnknownEntityIsFatal(t *testing.T) {
	t.Parallel()
	registry := services.NewTemplateRegistry()

	_, err := registry.Template("invoices")
	require.ErrorIs(t, err, services.ErrUnknownEntityType)
}

// A downloaded template re-uploaded as-is must map every column at 100%
// confidence, since its headers are exactly the field display names.
func TestTemplateRegistry_CSVRoundTrip(t *testing.T) {
	t.Parallel()
	registry := services.NewTemplateRegistry()
	mapping := services.NewMappingService(registry, nil, nil)

	for _, entity := range registry.EntityTypes() {
		tmpl, err := registry.Template(entity)
		require.NoError(t, err)

		data, err := registry.TemplateCSV(entity)
		require.NoError(t, err)

		rows, err := tabular.ParseCSV(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, tmpl.Headers(), rows.Headers)

		suggestions := mapping.Suggest(rows.Headers, tmpl)
		require.Len(t, suggestions, len(tmpl.Headers()))
		for _, s := range suggestions {
			assert.Equal(t, s.SourceColumn, s.TargetField)
			assert.Equal(t, 100, s.Confidence)
		}
	}
}

func TestTemplateRegistry_TemplateXLSX(t *testing.T) {
	t.Parallel()
	registry := services.NewTemplateRegistry()

	data, err := registry.TemplateXLSX(template.EntityProjects)
	require.NoError(t, err)

	rows, err := tabular.ParseXLSX(bytes.NewReader(data))
	require.NoError(t, err)

	tmpl, err := registry.Template(template.EntityProjects)
	require.NoError(t, err)
	assert.Equal(t, tmpl.Headers(), rows.Headers)
}

func TestTemplateRegistry_DetectEntityType(t *testing.T) {
	t.Parallel()
	registry := services.NewTemplateRegistry()

	entity, confidence := registry.DetectEntityType([]string{"Name", "Email", "Phone", "Company"})
	assert.Equal(t, template.EntityContacts, entity)
	assert.Greater(t, confidence, 50)

	entity, _ = registry.DetectEntityType([]string{"Title", "Project Name", "Due Date"})
	assert.Equal(t, template.EntityTasks, entity)
}
