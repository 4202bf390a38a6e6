package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/services"
)

func dupResult(existingID uuid.UUID) record.DuplicateResult {
	return record.DuplicateResult{
		Clean: []record.ValidatedRecord{contactRecord(0, "Clean Co", "clean@x.com")},
		Duplicates: []record.DuplicateMatch{{
			Record:     contactRecord(1, "A Co", "a@x.com"),
			ExistingID: existingID,
			Confidence: 100,
		}},
	}
}

// Scenario: resolving a duplicate as merge routes it to ToUpdate keyed by
// the existing record's id.
func TestApply_Merge(t *testing.T) {
	t.Parallel()
	existingID := uuid.New()

	batches, err := services.NewResolutionService().Apply(dupResult(existingID), map[int]record.Resolution{
		1: {Kind: record.ResolutionMerge, ExistingID: existingID},
	})
	require.NoError(t, err)

	require.Len(t, batches.ToInsert, 1)
	assert.Equal(t, 0, batches.ToInsert[0].Index)
	require.Len(t, batches.ToUpdate, 1)
	assert.Equal(t, existingID, batches.ToUpdate[0].ExistingID)
	assert.Equal(t, 1, batches.ToUpdate[0].Record.Index)
	assert.Equal(t, 0, batches.Skipped)
}

// Scenario: resolving as skip increments the skipped count and the record
// lands in neither batch.
func TestApply_Skip(t *testing.T) {
	t.Parallel()

	batches, err := services.NewResolutionService().Apply(dupResult(uuid.New()), map[int]record.Resolution{
		1: {Kind: record.ResolutionSkip},
	})
	require.NoError(t, err)

	assert.Len(t, batches.ToInsert, 1)
	assert.Empty(t, batches.ToUpdate)
	assert.Equal(t, 1, batches.Skipped)
}

func TestApply_CreateNew(t *testing.T) {
	t.Parallel()

	batches, err := services.NewResolutionService().Apply(dupResult(uuid.New()), map[int]record.Resolution{
		1: {Kind: record.ResolutionCreateNew},
	})
	require.NoError(t, err)

	assert.Len(t, batches.ToInsert, 2)
	assert.Empty(t, batches.ToUpdate)
}

func TestApply_MergeDefaultsToMatchedID(t *testing.T) {
	t.Parallel()
	existingID := uuid.New()

	batches, err := services.NewResolutionService().Apply(dupResult(existingID), map[int]record.Resolution{
		1: {Kind: record.ResolutionMerge},
	})
	require.NoError(t, err)
	require.Len(t, batches.ToUpdate, 1)
	assert.Equal(t, existingID, batches.ToUpdate[0].ExistingID)
}

func TestApply_IncompleteResolutionsIsError(t *testing.T) {
	t.Parallel()

	_, err := services.NewResolutionService().Apply(dupResult(uuid.New()), nil)
	require.ErrorIs(t, err, services.ErrResolutionIncomplete)
}

func TestApply_UnknownKindIsError(t *testing.T) {
	t.Parallel()

	_, err := services.NewResolutionService().Apply(dupResult(uuid.New()), map[int]record.Resolution{
		1: {Kind: "postpone"},
	})
	require.ErrorIs(t, err, services.ErrUnknownResolution)
}

// Conservation: for a fully covering resolution map,
// inserts + updates + skipped always equals clean + duplicates.
func TestApply_ConservesRecordCount(t *testing.T) {
	t.Parallel()
	dup := record.DuplicateResult{
		Clean: []record.ValidatedRecord{
			contactRecord(0, "C0", ""),
			contactRecord(2, "C2", ""),
		},
		Duplicates: []record.DuplicateMatch{
			{Record: contactRecord(1, "D1", ""), ExistingID: uuid.New()},
			{Record: contactRecord(3, "D3", ""), ExistingID: uuid.New()},
			{Record: contactRecord(4, "D4", ""), ExistingID: uuid.New()},
		},
	}

	batches, err := services.NewResolutionService().Apply(dup, map[int]record.Resolution{
		1: {Kind: record.ResolutionMerge},
		3: {Kind: record.ResolutionSkip},
		4: {Kind: record.ResolutionCreateNew},
	})
	require.NoError(t, err)

	total := len(batches.ToInsert) + len(batches.ToUpdate) + batches.Skipped
	assert.Equal(t, len(dup.Clean)+len(dup.Duplicates), total)
}
