package analysis

import (
	"context"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/session"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
)

// Result is the analyzer's verdict for one uploaded file.
type Result struct {
	EntityType  template.EntityType
	Confidence  int
	Suggestions []session.Suggestion
}

// Analyzer is the external field-detection collaborator. Implementations
// are best-effort: an error reverts the wizard to the upload step.
type Analyzer interface {
	AnalyzeMapping(ctx context.Context, headers []string, sample []record.RawRow) (Result, error)
}
