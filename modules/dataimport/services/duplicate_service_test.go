package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/target"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/infrastructure/targets"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/services"
)

func contactRecord(index int, name, email string) record.ValidatedRecord {
	fields := map[string]record.Value{}
	if name != "" {
		fields["Name"] = record.StringValue(name)
	}
	if email != "" {
		fields["Email"] = record.StringValue(email)
	}
	return record.ValidatedRecord{Index: index, Fields: fields}
}

// Scenario: an incoming record sharing name and email with a stored one
// scores above the threshold and is flagged, not clean.
func TestCheck_FlagsMatchAboveThreshold(t *testing.T) {
	t.Parallel()
	existingID := uuid.New()
	store := targets.NewInmemStore(template.EntityContacts).Seed(target.Candidate{
		ID:     existingID,
		Fields: map[string]string{"Name": "A Co", "Email": "a@x.com"},
	})
	svc := services.NewDuplicateService(target.Registry{template.EntityContacts: store})

	result, err := svc.Check(context.Background(), contactsTmpl(t), []record.ValidatedRecord{
		contactRecord(0, "A Co", "a@x.com"),
	})
	require.NoError(t, err)

	assert.Empty(t, result.Clean)
	require.Len(t, result.Duplicates, 1)
	match := result.Duplicates[0]
	assert.Equal(t, existingID, match.ExistingID)
	assert.Equal(t, 100, match.Confidence)
	assert.ElementsMatch(t, []string{"Email", "Name"}, match.MatchedFields)
}

func TestCheck_BelowThresholdStaysClean(t *testing.T) {
	t.Parallel()
	store := targets.NewInmemStore(template.EntityContacts).Seed(target.Candidate{
		ID:     uuid.New(),
		Fields: map[string]string{"Name": "A Co", "Email": "other@x.com"},
	})
	svc := services.NewDuplicateService(target.Registry{template.EntityContacts: store})

	// Name alone is worth 40 against a threshold of 70.
	result, err := svc.Check(context.Background(), contactsTmpl(t), []record.ValidatedRecord{
		contactRecord(0, "A Co", "a@x.com"),
	})
	require.NoError(t, err)

	assert.Empty(t, result.Duplicates)
	require.Len(t, result.Clean, 1)
}

func TestCheck_KeepsOnlyMostConfidentMatch(t *testing.T) {
	t.Parallel()
	strongID := uuid.New()
	store := targets.NewInmemStore(template.EntityContacts).
		Seed(target.Candidate{
			ID:     uuid.New(),
			Fields: map[string]string{"Name": "A Co", "Email": "old@x.com"},
		}).
		Seed(target.Candidate{
			ID:     strongID,
			Fields: map[string]string{"Name": "A Co", "Email": "a@x.com"},
		})
	svc := services.NewDuplicateService(target.Registry{template.EntityContacts: store})

	result, err := svc.Check(context.Background(), contactsTmpl(t), []record.ValidatedRecord{
		contactRecord(0, "A Co", "a@x.com"),
	})
	require.NoError(t, err)

	require.Len(t, result.Duplicates, 1)
	assert.Equal(t, strongID, result.Duplicates[0].ExistingID)
}

func TestCheck_TieBreaksOnSmallerID(t *testing.T) {
	t.Parallel()
	lowID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	highID := uuid.MustParse("ffffffff-0000-0000-0000-000000000001")
	store := targets.NewInmemStore(template.EntityContacts).
		Seed(target.Candidate{ID: highID, Fields: map[string]string{"Name": "A Co", "Email": "a@x.com"}}).
		Seed(target.Candidate{ID: lowID, Fields: map[string]string{"Name": "A Co", "Email": "a@x.com"}})
	svc := services.NewDuplicateService(target.Registry{template.EntityContacts: store})

	for range 5 {
		result, err := svc.Check(context.Background(), contactsTmpl(t), []record.ValidatedRecord{
			contactRecord(0, "A Co", "a@x.com"),
		})
		require.NoError(t, err)
		require.Len(t, result.Duplicates, 1)
		assert.Equal(t, lowID, result.Duplicates[0].ExistingID)
	}
}

func TestCheck_CaseInsensitiveComparison(t *testing.T) {
	t.Parallel()
	store := targets.NewInmemStore(template.EntityContacts).Seed(target.Candidate{
		ID:     uuid.New(),
		Fields: map[string]string{"Name": "acme builders", "Email": "OPS@ACME.COM"},
	})
	svc := services.NewDuplicateService(target.Registry{template.EntityContacts: store})

	result, err := svc.Check(context.Background(), contactsTmpl(t), []record.ValidatedRecord{
		contactRecord(0, "Acme Builders", "ops@acme.com"),
	})
	require.NoError(t, err)
	require.Len(t, result.Duplicates, 1)
}
