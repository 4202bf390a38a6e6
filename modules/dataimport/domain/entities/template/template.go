package template

// EntityType identifies an import target table.
type EntityType string

const (
	EntityContacts EntityType = "contacts"
	EntityProjects EntityType = "projects"
	EntityTasks    EntityType = "tasks"
)

// FieldType is the closed set of value types a template field may declare.
// Validation switches exhaustively over it.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date"
	FieldLookup  FieldType = "lookup"
)

// SkipField is the reserved mapping target meaning "ignore this column".
const SkipField = "-- Skip --"

// Field describes one importable column of a target entity.
type Field struct {
	// Label is the display name and the downloadable-template CSV header.
	Label string
	// Name is the underlying storage field name.
	Name     string
	Type     FieldType
	Required bool
	// LookupEntity names the entity a lookup field resolves against by
	// natural key. Set only when Type is FieldLookup.
	LookupEntity EntityType
	// Enum restricts a string field to a closed value set when non-empty.
	Enum []string
}

// MatchRule contributes Weight points to a duplicate score when the rule's
// field compares equal between an incoming record and a stored candidate.
type MatchRule struct {
	Field  string
	Weight int
}

// FieldTemplate is the static, immutable import shape of one entity type.
type FieldTemplate struct {
	entity    EntityType
	fields    []Field
	rules     []MatchRule
	threshold int
}

func New(entity EntityType, fields []Field, rules []MatchRule, threshold int) FieldTemplate {
	return FieldTemplate{
		entity:    entity,
		fields:    fields,
		rules:     rules,
		threshold: threshold,
	}
}

func (t FieldTemplate) Entity() EntityType { return t.entity }

func (t FieldTemplate) Fields() []Field {
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}

func (t FieldTemplate) Field(label string) (Field, bool) {
	for _, f := range t.fields {
		if f.Label == label {
			return f, true
		}
	}
	return Field{}, false
}

// Headers returns the field display names in template order. This is the
// downloadable template's header row and the inverse of what the parser
// expects back.
func (t FieldTemplate) Headers() []string {
	out := make([]string, len(t.fields))
	for i, f := range t.fields {
		out[i] = f.Label
	}
	return out
}

func (t FieldTemplate) MatchRules() []MatchRule {
	out := make([]MatchRule, len(t.rules))
	copy(out, t.rules)
	return out
}

func (t FieldTemplate) MatchThreshold() int { return t.threshold }

func (t FieldTemplate) IsZero() bool { return t.entity == "" }
