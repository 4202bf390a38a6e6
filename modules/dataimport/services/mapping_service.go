package services

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/analysis"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/session"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/pkg/serrors"
)

var (
	ErrUnknownTargetField = serrors.NewError("IMPORT_UNKNOWN_FIELD", "mapping targets a field the template does not declare", "")
	ErrDuplicateTarget    = serrors.NewError("IMPORT_DUPLICATE_TARGET", "two source columns map to the same target field", "")
)

// sampleRows is how many data rows accompany the headers in an AI
// analysis request.
const sampleRows = 5

type MappingService struct {
	registry    *TemplateRegistry
	analyzer    analysis.Analyzer
	suggestions session.SuggestionRepository
}

// NewMappingService builds the resolver. analyzer may be nil, in which
// case Analyze always uses the heuristic path.
func NewMappingService(
	registry *TemplateRegistry,
	analyzer analysis.Analyzer,
	suggestions session.SuggestionRepository,
) *MappingService {
	return &MappingService{
		registry:    registry,
		analyzer:    analyzer,
		suggestions: suggestions,
	}
}

// Suggest proposes source-column → target-field pairs with [0,100]
// confidence: exact display-name match scores 100, normalized match 95,
// fuzzy matches land in [50,90), anything weaker stays unmapped. Each
// target field is proposed at most once.
func (s *MappingService) Suggest(headers []string, tmpl template.FieldTemplate) []session.Suggestion {
	used := make(map[string]bool)
	var out []session.Suggestion
	for _, header := range headers {
		target, confidence := suggestOne(header, tmpl, used)
		if target == "" {
			continue
		}
		used[target] = true
		out = append(out, session.Suggestion{
			SourceColumn: header,
			TargetField:  target,
			Confidence:   confidence,
		})
	}
	return out
}

func suggestOne(header string, tmpl template.FieldTemplate, used map[string]bool) (string, int) {
	fields := tmpl.Fields()
	for _, f := range fields {
		if used[f.Label] {
			continue
		}
		if header == f.Label {
			return f.Label, 100
		}
	}
	norm := normalizeHeader(header)
	for _, f := range fields {
		if used[f.Label] {
			continue
		}
		if norm == normalizeHeader(f.Label) || norm == normalizeHeader(f.Name) {
			return f.Label, 95
		}
	}

	labels := make([]string, 0, len(fields))
	for _, f := range fields {
		if !used[f.Label] {
			labels = append(labels, f.Label)
		}
	}
	best, bestConf := "", 0
	for _, rank := range fuzzy.RankFindNormalizedFold(header, labels) {
		conf := 90 - rank.Distance*8
		if conf > bestConf {
			best, bestConf = rank.Target, conf
		}
	}
	if bestConf < 50 {
		return "", 0
	}
	return best, bestConf
}

// Analyze runs the field-detection collaborator when configured, else the
// heuristic fallback, and persists the resulting suggestions for the
// operator's review screen.
func (s *MappingService) Analyze(ctx context.Context, sess session.Session) (analysis.Result, error) {
	rows := sess.Rows()

	var result analysis.Result
	if s.analyzer != nil {
		var err error
		result, err = s.analyzer.AnalyzeMapping(ctx, rows.Headers, sess.Preview(sampleRows))
		if err != nil {
			return analysis.Result{}, errors.Wrap(err, "ai analysis")
		}
	} else {
		entity, confidence := s.registry.DetectEntityType(rows.Headers)
		result = analysis.Result{EntityType: entity, Confidence: confidence}
		if tmpl, err := s.registry.Template(entity); err == nil {
			result.Suggestions = s.Suggest(rows.Headers, tmpl)
		}
	}

	for i := range result.Suggestions {
		result.Suggestions[i].SessionID = sess.ID()
	}
	if err := s.suggestions.ReplaceForSession(ctx, sess.ID(), result.Suggestions); err != nil {
		return analysis.Result{}, errors.Wrap(err, "persist suggestions")
	}
	return result, nil
}

func (s *MappingService) Suggestions(ctx context.Context, sessionID uuid.UUID) ([]session.Suggestion, error) {
	return s.suggestions.ForSession(ctx, sessionID)
}

// Confirm validates the operator's final mapping against the template and
// normalizes it: skip-sentinel entries are dropped (a skipped column and
// an unmapped column mean the same thing downstream), unknown targets and
// duplicate targets are rejected. Confirming the same mapping twice yields
// the same normalized mapping.
func (s *MappingService) Confirm(tmpl template.FieldTemplate, mapping map[string]string) (map[string]string, error) {
	normalized := make(map[string]string, len(mapping))
	seen := make(map[string]string, len(mapping))
	for source, targetRaw := range mapping {
		target := strings.TrimSpace(targetRaw)
		if target == "" || target == template.SkipField {
			continue
		}
		if _, ok := tmpl.Field(target); !ok {
			return nil, errors.Wrapf(ErrUnknownTargetField, "%q -> %q", source, target)
		}
		if prev, ok := seen[target]; ok {
			return nil, errors.Wrapf(ErrDuplicateTarget, "%q and %q -> %q", prev, source, target)
		}
		seen[target] = source
		normalized[source] = target
	}
	return normalized, nil
}
