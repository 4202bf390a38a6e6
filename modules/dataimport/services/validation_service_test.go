package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/services"
)

func identityMapping(tmpl template.FieldTemplate) map[string]string {
	mapping := make(map[string]string)
	for _, f := range tmpl.Fields() {
		mapping[f.Label] = f.Label
	}
	return mapping
}

// Scenario: one good row, one row missing the required name.
func TestValidate_RequiredFieldMissing(t *testing.T) {
	t.Parallel()
	tmpl := contactsTmpl(t)
	rows := record.Rows{
		Headers: []string{"name", "email"},
		Records: []record.RawRow{
			{"name": "John Doe", "email": "john@x.com"},
			{"name": "", "email": "missing@x.com"},
		},
	}

	result := services.NewValidationService().Validate(tmpl, rows, map[string]string{
		"name":  "Name",
		"email": "Email",
	})

	require.Len(t, result.Valid, 1)
	assert.Equal(t, 0, result.Valid[0].Index)
	assert.Equal(t, "John Doe", result.Valid[0].Fields["Name"].Str)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Row)
	assert.Equal(t, "Name", result.Errors[0].Field)
	assert.Contains(t, result.Errors[0].Message, "required")
}

func TestValidate_SkippedColumnContributesNothing(t *testing.T) {
	t.Parallel()
	tmpl := contactsTmpl(t)
	rows := record.Rows{
		Headers: []string{"name", "email"},
		Records: []record.RawRow{{"name": "John", "email": "john@x.com"}},
	}

	// email is absent from the mapping, which means skipped.
	result := services.NewValidationService().Validate(tmpl, rows, map[string]string{"name": "Name"})

	require.Len(t, result.Valid, 1)
	_, hasEmail := result.Valid[0].Fields["Email"]
	assert.False(t, hasEmail)
}

func TestValidate_OptionalCoercionFailureKeepsRow(t *testing.T) {
	t.Parallel()
	registry := services.NewTemplateRegistry()
	tmpl, err := registry.Template(template.EntityProjects)
	require.NoError(t, err)

	rows := record.Rows{
		Headers: []string{"Name", "Budget"},
		Records: []record.RawRow{{"Name": "Tower A", "Budget": "lots"}},
	}
	result := services.NewValidationService().Validate(tmpl, rows, identityMapping(tmpl))

	require.Len(t, result.Valid, 1)
	_, hasBudget := result.Valid[0].Fields["Budget"]
	assert.False(t, hasBudget)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Budget", result.Errors[0].Field)
	assert.Equal(t, "lots", result.Errors[0].Value)
}

func TestValidate_RequiredCoercionFailureExcludesRow(t *testing.T) {
	t.Parallel()
	registry := services.NewTemplateRegistry()
	tmpl, err := registry.Template(template.EntityTasks)
	require.NoError(t, err)

	rows := record.Rows{
		Headers: []string{"Title", "Project Name"},
		Records: []record.RawRow{{"Title": "Pour foundation", "Project Name": ""}},
	}
	result := services.NewValidationService().Validate(tmpl, rows, identityMapping(tmpl))

	assert.Empty(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Project Name", result.Errors[0].Field)
}

func TestValidate_RowAccumulatesMultipleErrors(t *testing.T) {
	t.Parallel()
	registry := services.NewTemplateRegistry()
	tmpl, err := registry.Template(template.EntityProjects)
	require.NoError(t, err)

	rows := record.Rows{
		Headers: []string{"Name", "Budget", "Start Date"},
		Records: []record.RawRow{{"Name": "", "Budget": "lots", "Start Date": "someday"}},
	}
	result := services.NewValidationService().Validate(tmpl, rows, identityMapping(tmpl))

	assert.Empty(t, result.Valid)
	require.Len(t, result.Errors, 3)
	for _, e := range result.Errors {
		assert.Equal(t, 0, e.Row)
	}
}

func TestValidate_CoercesTypes(t *testing.T) {
	t.Parallel()
	registry := services.NewTemplateRegistry()
	tmpl, err := registry.Template(template.EntityProjects)
	require.NoError(t, err)

	rows := record.Rows{
		Headers: []string{"Name", "Budget", "Start Date", "Status"},
		Records: []record.RawRow{
			{"Name": "Tower A", "Budget": "$1,250,000.50", "Start Date": "2026-03-01", "Status": "On Hold"},
		},
	}
	result := services.NewValidationService().Validate(tmpl, rows, identityMapping(tmpl))

	require.Len(t, result.Valid, 1)
	require.Empty(t, result.Errors)
	fields := result.Valid[0].Fields
	assert.True(t, fields["Budget"].Num.Equal(decimal.RequireFromString("1250000.50")))
	assert.Equal(t, 2026, fields["Start Date"].Date.Year())
	assert.Equal(t, "on_hold", fields["Status"].Str)
}

func TestValidate_PreservesRowOrder(t *testing.T) {
	t.Parallel()
	tmpl := contactsTmpl(t)
	rows := record.Rows{
		Headers: []string{"Name"},
		Records: []record.RawRow{{"Name": "A"}, {"Name": ""}, {"Name": "C"}},
	}
	result := services.NewValidationService().Validate(tmpl, rows, map[string]string{"Name": "Name"})

	require.Len(t, result.Valid, 2)
	assert.Equal(t, 0, result.Valid[0].Index)
	assert.Equal(t, 2, result.Valid[1].Index)
}
