package form

// FieldType is the simplified enum for form-friendly field kinds.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeList    FieldType = "list"
)

func (t FieldType) valid() bool {
	switch t {
	case FieldTypeString, FieldTypeInteger, FieldTypeNumber, FieldTypeBoolean, FieldTypeList:
		return true
	default:
		return false
	}
}

const (
	ValidationRuleMin       = "min"
	ValidationRuleMax       = "max"
	ValidationRuleMinLength = "minLength"
	ValidationRuleMaxLength = "maxLength"
	ValidationRulePattern   = "pattern"
)

// ValidationRule is a single constraint applied to a field. Bounds and
// lengths carry their threshold in Params["value"]; min/max accept
// Params["exclusive"] = "true"; pattern rules keep the expression in
// Params["pattern"]. Params["message"] overrides the generated message.
type ValidationRule struct {
	Kind   string            `json:"kind" yaml:"kind" toml:"kind"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
}

// FieldSpec declares one field of a form. Visible and Enabled are rule
// expressions evaluated on every refresh; empty rules always hold.
type FieldSpec struct {
	ID          int               `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Name        string            `json:"name" yaml:"name" toml:"name"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Type        FieldType         `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	Required    bool              `json:"required,omitempty" yaml:"required,omitempty" toml:"required,omitempty"`
	Default     any               `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
	Enum        []any             `json:"enum,omitempty" yaml:"enum,omitempty" toml:"enum,omitempty"`
	Visible     string            `json:"visible,omitempty" yaml:"visible,omitempty" toml:"visible,omitempty"`
	Enabled     string            `json:"enabled,omitempty" yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Help        string            `json:"help,omitempty" yaml:"help,omitempty" toml:"help,omitempty"`
	Validations []ValidationRule  `json:"validations,omitempty" yaml:"validations,omitempty" toml:"validations,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty" toml:"metadata,omitempty"`
}

// DisplayLabel returns the label, falling back to the name.
func (s FieldSpec) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Name
}

// Definition is the declarative description of a form.
type Definition struct {
	ID          string            `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Title       string            `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Fields      []FieldSpec       `json:"fields" yaml:"fields" toml:"fields"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty" toml:"metadata,omitempty"`
}

// Normalize fills defaults in place: missing types become string and
// missing ids take the field's 1-based position. Decoded defaults and enum
// options are folded to the shapes parsed input produces.
func (d *Definition) Normalize() {
	for i := range d.Fields {
		spec := &d.Fields[i]
		if spec.Type == "" {
			spec.Type = FieldTypeString
		}
		spec.Default = coerceSchemaValue(spec.Type, normalizeDecoded(spec.Default))
		for j, option := range spec.Enum {
			spec.Enum[j] = coerceSchemaValue(spec.Type, normalizeDecoded(option))
		}
		if spec.ID == 0 {
			spec.ID = i + 1
		}
	}
}
