package services

import (
	"bytes"
	"encoding/csv"
	"strings"
	"unicode"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
	"github.com/buildgrid-io/buildgrid/pkg/serrors"
)

// ErrUnknownEntityType is a configuration error: the caller asked for a
// template that does not exist. Fatal to the session, not a partial result.
var ErrUnknownEntityType = serrors.NewError("IMPORT_UNKNOWN_ENTITY", "unknown entity type", "")

// TemplateRegistry is the static catalogue of importable entity shapes.
// Templates are global, read-only configuration.
type TemplateRegistry struct {
	order     []template.EntityType
	templates map[template.EntityType]template.FieldTemplate
}

func NewTemplateRegistry() *TemplateRegistry {
	r := &TemplateRegistry{
		templates: make(map[template.EntityType]template.FieldTemplate),
	}
	r.add(contactsTemplate())
	r.add(projectsTemplate())
	r.add(tasksTemplate())
	return r
}

func (r *TemplateRegistry) add(t template.FieldTemplate) {
	r.order = append(r.order, t.Entity())
	r.templates[t.Entity()] = t
}

func (r *TemplateRegistry) Template(entity template.EntityType) (template.FieldTemplate, error) {
	t, ok := r.templates[entity]
	if !ok {
		return template.FieldTemplate{}, errors.Wrapf(ErrUnknownEntityType, "%s", entity)
	}
	return t, nil
}

func (r *TemplateRegistry) EntityTypes() []template.EntityType {
	out := make([]template.EntityType, len(r.order))
	copy(out, r.order)
	return out
}

// TemplateCSV renders the downloadable blank template: a single header row
// of field display names in template order.
func (r *TemplateRegistry) TemplateCSV(entity template.EntityType) ([]byte, error) {
	t, err := r.Template(entity)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Headers()); err != nil {
		return nil, errors.Wrap(err, "write header")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, "flush header")
	}
	return buf.Bytes(), nil
}

// TemplateXLSX renders the same header row as a single-sheet workbook.
func (r *TemplateRegistry) TemplateXLSX(entity template.EntityType) ([]byte, error) {
	t, err := r.Template(entity)
	if err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close()

	headers := t.Headers()
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow("Sheet1", "A1", &row); err != nil {
		return nil, errors.Wrap(err, "write header row")
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "serialize workbook")
	}
	return buf.Bytes(), nil
}

// DetectEntityType scores header overlap against every template and returns
// the best match with a [0,100] confidence. Used for manual defaulting when
// the AI collaborator is unavailable.
func (r *TemplateRegistry) DetectEntityType(headers []string) (template.EntityType, int) {
	normalized := make(map[string]bool, len(headers))
	for _, h := range headers {
		normalized[normalizeHeader(h)] = true
	}

	var (
		best     template.EntityType
		bestConf int
	)
	for _, entity := range r.order {
		t := r.templates[entity]
		fields := t.Fields()
		matched := 0
		for _, f := range fields {
			if normalized[normalizeHeader(f.Label)] || normalized[normalizeHeader(f.Name)] {
				matched++
			}
		}
		conf := 0
		if len(fields) > 0 {
			conf = matched * 100 / len(fields)
		}
		if conf > bestConf {
			best = entity
			bestConf = conf
		}
	}
	return best, bestConf
}

// normalizeHeader lowers the header and strips everything that is not a
// letter or digit, so "Job Title", "job_title" and "JobTitle" collide.
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func contactsTemplate() template.FieldTemplate {
	return template.New(
		template.EntityContacts,
		[]template.Field{
			{Label: "Name", Name: "name", Type: template.FieldString, Required: true},
			{Label: "Email", Name: "email", Type: template.FieldString},
			{Label: "Phone", Name: "phone", Type: template.FieldString},
			{Label: "Company", Name: "company", Type: template.FieldString},
			{Label: "Job Title", Name: "job_title", Type: template.FieldString},
			{Label: "Notes", Name: "notes", Type: template.FieldString},
		},
		[]template.MatchRule{
			{Field: "Email", Weight: 60},
			{Field: "Name", Weight: 40},
			{Field: "Phone", Weight: 20},
		},
		70,
	)
}

func projectsTemplate() template.FieldTemplate {
	return template.New(
		template.EntityProjects,
		[]template.Field{
			{Label: "Name", Name: "name", Type: template.FieldString, Required: true},
			{Label: "Address", Name: "address", Type: template.FieldString},
			{Label: "Client Name", Name: "client_id", Type: template.FieldLookup, LookupEntity: template.EntityContacts},
			{Label: "Status", Name: "status", Type: template.FieldString, Enum: []string{"planning", "active", "on_hold", "completed"}},
			{Label: "Budget", Name: "budget", Type: template.FieldNumber},
			{Label: "Start Date", Name: "start_date", Type: template.FieldDate},
			{Label: "End Date", Name: "end_date", Type: template.FieldDate},
		},
		[]template.MatchRule{
			{Field: "Name", Weight: 80},
			{Field: "Address", Weight: 30},
		},
		70,
	)
}

func tasksTemplate() template.FieldTemplate {
	return template.New(
		template.EntityTasks,
		[]template.Field{
			{Label: "Title", Name: "title", Type: template.FieldString, Required: true},
			{Label: "Project Name", Name: "project_id", Type: template.FieldLookup, Required: true, LookupEntity: template.EntityProjects},
			{Label: "Description", Name: "description", Type: template.FieldString},
			{Label: "Status", Name: "status", Type: template.FieldString, Enum: []string{"todo", "in_progress", "done"}},
			{Label: "Priority", Name: "priority", Type: template.FieldString, Enum: []string{"low", "medium", "high"}},
			{Label: "Due Date", Name: "due_date", Type: template.FieldDate},
			{Label: "Estimated Hours", Name: "estimated_hours", Type: template.FieldNumber},
		},
		[]template.MatchRule{
			{Field: "Title", Weight: 50},
			{Field: "Project Name", Weight: 40},
		},
		70,
	)
}
