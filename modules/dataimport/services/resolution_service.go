package services

import (
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/pkg/serrors"
)

var (
	ErrResolutionIncomplete = serrors.NewError("IMPORT_RESOLUTION_INCOMPLETE", "a flagged duplicate has no resolution", "")
	ErrUnknownResolution    = serrors.NewError("IMPORT_UNKNOWN_RESOLUTION", "unknown resolution kind", "")
)

type ResolutionService struct{}

func NewResolutionService() *ResolutionService {
	return &ResolutionService{}
}

// Apply turns operator decisions into write batches. Clean records go to
// ToInsert untouched. Every flagged record must carry a resolution — an
// incomplete map is a caller contract violation, not something defaulted
// here. The output satisfies
// len(ToInsert)+len(ToUpdate)+Skipped == len(clean)+len(duplicates).
func (s *ResolutionService) Apply(
	dup record.DuplicateResult,
	resolutions map[int]record.Resolution,
) (record.Batches, error) {
	batches := record.Batches{
		ToInsert: append([]record.ValidatedRecord(nil), dup.Clean...),
	}

	for _, match := range dup.Duplicates {
		res, ok := resolutions[match.Record.Index]
		if !ok {
			return record.Batches{}, errors.Wrapf(ErrResolutionIncomplete, "row %d", match.Record.Index)
		}
		switch res.Kind {
		case record.ResolutionMerge:
			existingID := res.ExistingID
			if existingID == uuid.Nil {
				existingID = match.ExistingID
			}
			batches.ToUpdate = append(batches.ToUpdate, record.Update{
				ExistingID: existingID,
				Record:     match.Record,
			})
		case record.ResolutionCreateNew:
			batches.ToInsert = append(batches.ToInsert, match.Record)
		case record.ResolutionSkip:
			batches.Skipped++
		default:
			return record.Batches{}, errors.Wrapf(ErrUnknownResolution, "row %d: %q", match.Record.Index, res.Kind)
		}
	}
	return batches, nil
}
