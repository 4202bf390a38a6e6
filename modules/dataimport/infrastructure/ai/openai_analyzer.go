package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/analysis"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/session"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
)

const systemPrompt = `You map spreadsheet columns onto construction-management import templates.
Reply with a single JSON object, no prose, shaped as:
{"entity_type": "<one of the listed entity types>", "confidence": <0-100>,
 "mappings": [{"source": "<column>", "target": "<field label>", "confidence": <0-100>}]}
Omit columns that match no field.`

// TemplateCatalog is what the analyzer knows about the import shapes. It
// is satisfied by the template registry.
type TemplateCatalog interface {
	EntityTypes() []template.EntityType
	Template(entity template.EntityType) (template.FieldTemplate, error)
}

// OpenAIAnalyzer implements the field-detection collaborator on the
// chat-completions API. Best-effort by contract: any failure bubbles up
// and the wizard reverts to the upload step.
type OpenAIAnalyzer struct {
	client  openai.Client
	model   string
	catalog TemplateCatalog
}

func NewOpenAIAnalyzer(key, baseURL, model string, catalog TemplateCatalog) *OpenAIAnalyzer {
	opts := []option.RequestOption{option.WithAPIKey(key)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIAnalyzer{
		client:  openai.NewClient(opts...),
		model:   model,
		catalog: catalog,
	}
}

type aiMapping struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	Confidence int    `json:"confidence"`
}

type aiVerdict struct {
	EntityType string      `json:"entity_type"`
	Confidence int         `json:"confidence"`
	Mappings   []aiMapping `json:"mappings"`
}

func (a *OpenAIAnalyzer) AnalyzeMapping(
	ctx context.Context,
	headers []string,
	sample []record.RawRow,
) (analysis.Result, error) {
	prompt, err := a.buildPrompt(headers, sample)
	if err != nil {
		return analysis.Result{}, err
	}

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return analysis.Result{}, errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return analysis.Result{}, errors.New("chat completion returned no choices")
	}

	var verdict aiVerdict
	if err := json.Unmarshal([]byte(stripFences(resp.Choices[0].Message.Content)), &verdict); err != nil {
		return analysis.Result{}, errors.Wrap(err, "parse analyzer reply")
	}
	return a.toResult(verdict)
}

func (a *OpenAIAnalyzer) buildPrompt(headers []string, sample []record.RawRow) (string, error) {
	var b strings.Builder
	b.WriteString("Entity types and their fields:\n")
	for _, entity := range a.catalog.EntityTypes() {
		tmpl, err := a.catalog.Template(entity)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "- %s: %s\n", entity, strings.Join(tmpl.Headers(), ", "))
	}
	fmt.Fprintf(&b, "\nUploaded columns: %s\n", strings.Join(headers, ", "))
	if len(sample) > 0 {
		b.WriteString("\nSample rows:\n")
		for _, row := range sample {
			cells := make([]string, len(headers))
			for i, h := range headers {
				cells[i] = row[h]
			}
			fmt.Fprintf(&b, "%s\n", strings.Join(cells, " | "))
		}
	}
	return b.String(), nil
}

// toResult validates the model's reply against the catalog: an unknown
// entity type fails the analysis, unknown target fields are dropped.
func (a *OpenAIAnalyzer) toResult(verdict aiVerdict) (analysis.Result, error) {
	entity := template.EntityType(strings.TrimSpace(verdict.EntityType))
	tmpl, err := a.catalog.Template(entity)
	if err != nil {
		return analysis.Result{}, errors.Wrapf(err, "analyzer picked %q", verdict.EntityType)
	}

	result := analysis.Result{
		EntityType: entity,
		Confidence: clampConfidence(verdict.Confidence),
	}
	for _, m := range verdict.Mappings {
		if _, ok := tmpl.Field(m.Target); !ok {
			continue
		}
		result.Suggestions = append(result.Suggestions, session.Suggestion{
			SourceColumn: m.Source,
			TargetField:  m.Target,
			Confidence:   clampConfidence(m.Confidence),
		})
	}
	return result, nil
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// stripFences tolerates replies wrapped in a markdown code block.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
