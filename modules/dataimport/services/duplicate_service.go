package services

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/target"
)

type DuplicateService struct {
	targets target.Registry
}

func NewDuplicateService(targets target.Registry) *DuplicateService {
	return &DuplicateService{targets: targets}
}

// Check scores every validated record against the tenant's stored records
// using the template's match rules. Only the single most confident match
// above the threshold is kept per record; score ties break on the smaller
// existing id, so the outcome is deterministic for the same stored data.
// Read-only: storage is never mutated here.
func (s *DuplicateService) Check(
	ctx context.Context,
	tmpl template.FieldTemplate,
	records []record.ValidatedRecord,
) (record.DuplicateResult, error) {
	store, err := s.targets.Store(tmpl.Entity())
	if err != nil {
		return record.DuplicateResult{}, err
	}
	candidates, err := store.Candidates(ctx)
	if err != nil {
		return record.DuplicateResult{}, errors.Wrap(err, "load duplicate candidates")
	}

	rules := tmpl.MatchRules()
	threshold := tmpl.MatchThreshold()

	var result record.DuplicateResult
	for _, rec := range records {
		best, found := bestMatch(rec, candidates, rules)
		if found && best.Confidence >= threshold {
			best.Record = rec
			result.Duplicates = append(result.Duplicates, best)
			continue
		}
		result.Clean = append(result.Clean, rec)
	}
	return result, nil
}

func bestMatch(
	rec record.ValidatedRecord,
	candidates []target.Candidate,
	rules []template.MatchRule,
) (record.DuplicateMatch, bool) {
	var (
		best  record.DuplicateMatch
		found bool
	)
	for _, cand := range candidates {
		score, matched := scoreCandidate(rec, cand, rules)
		if score == 0 {
			continue
		}
		better := score > best.Confidence ||
			(score == best.Confidence && cand.ID.String() < best.ExistingID.String())
		if !found || better {
			best = record.DuplicateMatch{
				ExistingID:    cand.ID,
				Confidence:    score,
				MatchedFields: matched,
			}
			found = true
		}
	}
	return best, found
}

func scoreCandidate(
	rec record.ValidatedRecord,
	cand target.Candidate,
	rules []template.MatchRule,
) (int, []string) {
	score := 0
	var matched []string
	for _, rule := range rules {
		incoming, ok := rec.Fields[rule.Field]
		if !ok {
			continue
		}
		existing := strings.TrimSpace(cand.Fields[rule.Field])
		if existing == "" {
			continue
		}
		if strings.EqualFold(fieldText(incoming), existing) {
			score += rule.Weight
			matched = append(matched, rule.Field)
		}
	}
	return score, matched
}

// fieldText renders a coerced value the way candidates project theirs, so
// the two sides compare on equal footing.
func fieldText(v record.Value) string {
	switch v.Type {
	case template.FieldNumber:
		return v.Num.String()
	case template.FieldBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case template.FieldDate:
		return v.Date.Format("2006-01-02")
	default:
		return strings.TrimSpace(v.Str)
	}
}
