package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/services"
)

func contactsTmpl(t *testing.T) template.FieldTemplate {
	t.Helper()
	tmpl, err := services.NewTemplateRegistry().Template(template.EntityContacts)
	require.NoError(t, err)
	return tmpl
}

func TestSuggest_ExactAndNormalizedMatches(t *testing.T) {
	t.Parallel()
	svc := services.NewMappingService(services.NewTemplateRegistry(), nil, nil)

	suggestions := svc.Suggest([]string{"Name", "email", "job_title"}, contactsTmpl(t))
	require.Len(t, suggestions, 3)

	byColumn := make(map[string]int)
	targets := make(map[string]string)
	for _, s := range suggestions {
		byColumn[s.SourceColumn] = s.Confidence
		targets[s.SourceColumn] = s.TargetField
	}
	assert.Equal(t, 100, byColumn["Name"])
	assert.Equal(t, 95, byColumn["email"])
	assert.Equal(t, "Job Title", targets["job_title"])
	assert.Equal(t, 95, byColumn["job_title"])
}

func TestSuggest_UnmatchableColumnStaysUnmapped(t *testing.T) {
	t.Parallel()
	svc := services.NewMappingService(services.NewTemplateRegistry(), nil, nil)

	suggestions := svc.Suggest([]string{"Internal Ledger Code"}, contactsTmpl(t))
	assert.Empty(t, suggestions)
}

func TestSuggest_EachTargetProposedOnce(t *testing.T) {
	t.Parallel()
	svc := services.NewMappingService(services.NewTemplateRegistry(), nil, nil)

	suggestions := svc.Suggest([]string{"Name", "name"}, contactsTmpl(t))
	targets := make(map[string]int)
	for _, s := range suggestions {
		targets[s.TargetField]++
	}
	for target, n := range targets {
		assert.Equal(t, 1, n, "target %q suggested more than once", target)
	}
}

func TestConfirm_DropsSkipSentinel(t *testing.T) {
	t.Parallel()
	svc := services.NewMappingService(services.NewTemplateRegistry(), nil, nil)

	normalized, err := svc.Confirm(contactsTmpl(t), map[string]string{
		"full_name": "Name",
		"junk":      template.SkipField,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"full_name": "Name"}, normalized)
}

func TestConfirm_IsIdempotent(t *testing.T) {
	t.Parallel()
	svc := services.NewMappingService(services.NewTemplateRegistry(), nil, nil)
	mapping := map[string]string{"full_name": "Name", "mail": "Email"}

	first, err := svc.Confirm(contactsTmpl(t), mapping)
	require.NoError(t, err)
	second, err := svc.Confirm(contactsTmpl(t), first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestConfirm_RejectsUnknownTarget(t *testing.T) {
	t.Parallel()
	svc := services.NewMappingService(services.NewTemplateRegistry(), nil, nil)

	_, err := svc.Confirm(contactsTmpl(t), map[string]string{"col": "Shoe Size"})
	require.ErrorIs(t, err, services.ErrUnknownTargetField)
}

func TestConfirm_RejectsDuplicateTarget(t *testing.T) {
	t.Parallel()
	svc := services.NewMappingService(services.NewTemplateRegistry(), nil, nil)

	_, err := svc.Confirm(contactsTmpl(t), map[string]string{"a": "Name", "b": "Name"})
	require.ErrorIs(t, err, services.ErrDuplicateTarget)
}
