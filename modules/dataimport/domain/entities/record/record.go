package record

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/template"
)

// RawRow is one parsed input record keyed by source column name.
type RawRow map[string]string

// Rows is the whole parsed file. Record order is file order and is what
// "row N" refers to everywhere downstream (0-based, header excluded).
type Rows struct {
	Headers []string `json:"headers"`
	Records []RawRow `json:"records"`
}

// Value is a coerced field value tagged with its template field type.
// Exactly the fields matching Type are meaningful.
type Value struct {
	Type template.FieldType `json:"type"`
	Str  string             `json:"str,omitempty"`
	Num  decimal.Decimal    `json:"num,omitempty"`
	Bool bool               `json:"bool,omitempty"`
	Date time.Time          `json:"date,omitempty"`
	// Ref is filled by the executor once a lookup value resolves. Before
	// that a lookup Value carries only the raw text in Str.
	Ref uuid.UUID `json:"ref,omitempty"`
}

func StringValue(s string) Value {
	return Value{Type: template.FieldString, Str: s}
}

func NumberValue(d decimal.Decimal) Value {
	return Value{Type: template.FieldNumber, Num: d}
}

func BoolValue(b bool) Value {
	return Value{Type: template.FieldBoolean, Bool: b}
}

func DateValue(t time.Time) Value {
	return Value{Type: template.FieldDate, Date: t}
}

func LookupValue(raw string) Value {
	return Value{Type: template.FieldLookup, Str: raw}
}

// ValidatedRecord is a RawRow coerced into template-typed values. Fields
// holds only values that resolved to something non-empty, so a merge never
// overwrites stored data with a blank cell.
type ValidatedRecord struct {
	// Index is the 0-based data-row index, stable from validation through
	// execution.
	Index  int              `json:"index"`
	Fields map[string]Value `json:"fields"`
}

// RowError is one per-row, per-field diagnostic.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

type ValidationResult struct {
	Valid  []ValidatedRecord `json:"valid"`
	Errors []RowError        `json:"errors"`
}

// DuplicateMatch pairs a validated record with its single most confident
// stored counterpart above the template threshold.
type DuplicateMatch struct {
	Record        ValidatedRecord `json:"record"`
	ExistingID    uuid.UUID       `json:"existing_id"`
	Confidence    int             `json:"confidence"`
	MatchedFields []string        `json:"matched_fields"`
}

type DuplicateResult struct {
	Clean      []ValidatedRecord `json:"clean"`
	Duplicates []DuplicateMatch  `json:"duplicates"`
}

type ResolutionKind string

const (
	ResolutionMerge     ResolutionKind = "merge"
	ResolutionCreateNew ResolutionKind = "create_new"
	ResolutionSkip      ResolutionKind = "skip"
)

// Resolution is the operator decision for one flagged record, keyed by the
// record's import index in the resolution map.
type Resolution struct {
	Kind       ResolutionKind `json:"kind"`
	ExistingID uuid.UUID      `json:"existing_id,omitempty"`
}

// Update routes one record into an existing row.
type Update struct {
	ExistingID uuid.UUID       `json:"existing_id"`
	Record     ValidatedRecord `json:"record"`
}

// Batches is the Resolution Applier output. The invariant
// len(ToInsert)+len(ToUpdate)+Skipped == len(clean)+len(duplicates) holds
// whenever the resolution map fully covers the flagged records.
type Batches struct {
	ToInsert []ValidatedRecord `json:"to_insert"`
	ToUpdate []Update          `json:"to_update"`
	Skipped  int               `json:"skipped"`
}

// ImportResult is the terminal summary. Errors here are execution-time
// only; validation-time errors were reported before the batch ran.
type ImportResult struct {
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors,omitempty"`
}

func (r ImportResult) HasErrors() bool { return len(r.Errors) > 0 }
