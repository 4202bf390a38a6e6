package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
)

// dateFormats are tried in order when coercing a date field.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

var truthy = map[string]bool{
	"true": true, "yes": true, "y": true, "1": true,
	"false": false, "no": false, "n": false, "0": false,
}

type ValidationService struct{}

func NewValidationService() *ValidationService {
	return &ValidationService{}
}

// Validate coerces every row into template-typed values. A required field
// that is missing or fails coercion excludes the whole row; an optional
// coercion failure drops just that field and keeps the row. Every error is
// collected independently, so one row may produce several entries. Row
// order is preserved and indices are 0-based over the data rows.
func (s *ValidationService) Validate(
	tmpl template.FieldTemplate,
	rows record.Rows,
	mapping map[string]string,
) record.ValidationResult {
	// mapping is source column -> target label; validation walks the
	// template, so invert it.
	sourceFor := make(map[string]string, len(mapping))
	for source, target := range mapping {
		sourceFor[target] = source
	}

	var result record.ValidationResult
	for i, row := range rows.Records {
		rec := record.ValidatedRecord{Index: i, Fields: make(map[string]record.Value)}
		rowValid := true

		for _, f := range tmpl.Fields() {
			raw := ""
			if source, ok := sourceFor[f.Label]; ok {
				raw = strings.TrimSpace(row[source])
			}
			if raw == "" {
				if f.Required {
					rowValid = false
					result.Errors = append(result.Errors, record.RowError{
						Row:     i,
						Field:   f.Label,
						Message: fmt.Sprintf("required field %q is missing", f.Label),
					})
				}
				continue
			}

			value, err := coerce(f, raw)
			if err != nil {
				result.Errors = append(result.Errors, record.RowError{
					Row:     i,
					Field:   f.Label,
					Value:   raw,
					Message: err.Error(),
				})
				if f.Required {
					rowValid = false
				}
				continue
			}
			rec.Fields[f.Label] = value
		}

		if rowValid {
			result.Valid = append(result.Valid, rec)
		}
	}
	return result
}

func coerce(f template.Field, raw string) (record.Value, error) {
	switch f.Type {
	case template.FieldString:
		if len(f.Enum) > 0 {
			return coerceEnum(f, raw)
		}
		return record.StringValue(raw), nil
	case template.FieldNumber:
		cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return record.Value{}, fmt.Errorf("%q is not a number", raw)
		}
		return record.NumberValue(d), nil
	case template.FieldBoolean:
		b, ok := truthy[strings.ToLower(raw)]
		if !ok {
			return record.Value{}, fmt.Errorf("%q is not a boolean", raw)
		}
		return record.BoolValue(b), nil
	case template.FieldDate:
		for _, layout := range dateFormats {
			if t, err := time.Parse(layout, raw); err == nil {
				return record.DateValue(t), nil
			}
		}
		return record.Value{}, fmt.Errorf("%q is not a recognized date", raw)
	case template.FieldLookup:
		// Lookup text is resolved against tenant data at execution time.
		return record.LookupValue(raw), nil
	}
	return record.Value{}, fmt.Errorf("unsupported field type %q", f.Type)
}

func coerceEnum(f template.Field, raw string) (record.Value, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), " ", "_"))
	for _, allowed := range f.Enum {
		if norm == allowed {
			return record.StringValue(norm), nil
		}
	}
	return record.Value{}, fmt.Errorf("%q is not one of %s", raw, strings.Join(f.Enum, ", "))
}
