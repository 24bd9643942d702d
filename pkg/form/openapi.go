package form

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	extensionNamespace = "x-formstate"
	visibleExtension   = extensionNamespace + "-visible"
	enabledExtension   = extensionNamespace + "-enabled"
)

// FromOpenAPI builds a Definition from the request body of the operation
// named operationID. Nested objects are flattened into dotted field names.
// Rules can be attached with the x-formstate-visible and x-formstate-enabled
// extensions, or with `visible`/`enabled` keys under x-formstate.
func FromOpenAPI(ctx context.Context, data []byte, operationID string) (Definition, error) {
	if err := ctx.Err(); err != nil {
		return Definition{}, err
	}
	if len(data) == 0 {
		return Definition{}, errors.New("form: openapi document is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return Definition{}, fmt.Errorf("form: load openapi: %w", err)
	}

	op, method, path := findOperation(doc, operationID)
	if op == nil {
		return Definition{}, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}

	body := requestSchema(op.RequestBody)
	if body == nil {
		return Definition{}, fmt.Errorf("form: operation %q has no request body schema", operationID)
	}

	def := Definition{
		ID:          operationID,
		Title:       op.Summary,
		Description: op.Description,
		Metadata: map[string]string{
			"method": method,
			"path":   path,
		},
	}
	if def.Title == "" {
		def.Title = body.Title
	}
	def.Fields = collectFields(nil, body)

	def.Normalize()
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

func findOperation(doc *openapi3.T, operationID string) (*openapi3.Operation, string, string) {
	if doc.Paths == nil {
		return nil, "", ""
	}
	paths := make([]string, 0, doc.Paths.Len())
	for path := range doc.Paths.Map() {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		item := doc.Paths.Value(path)
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			if id == operationID {
				return op, method, path
			}
		}
	}
	return nil, "", ""
}

func requestSchema(ref *openapi3.RequestBodyRef) *openapi3.Schema {
	if ref == nil || ref.Value == nil {
		return nil
	}
	content := ref.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	mediaTypes := make([]string, 0, len(content))
	for mediaType := range content {
		mediaTypes = append(mediaTypes, mediaType)
	}
	sort.Strings(mediaTypes)
	for _, mediaType := range mediaTypes {
		if mt := content[mediaType]; mt != nil && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func collectFields(prefix []string, schema *openapi3.Schema) []FieldSpec {
	if schema == nil {
		return nil
	}
	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []FieldSpec
	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		prop := ref.Value
		path := append(append([]string(nil), prefix...), name)
		if schemaType(prop) == "object" && len(prop.Properties) > 0 {
			out = append(out, collectFields(path, prop)...)
			continue
		}
		_, isRequired := required[name]
		out = append(out, fieldFromSchema(strings.Join(path, "."), prop, isRequired))
	}
	return out
}

func fieldFromSchema(name string, prop *openapi3.Schema, required bool) FieldSpec {
	spec := FieldSpec{
		Name:     name,
		Label:    prop.Title,
		Type:     fieldTypeFor(prop),
		Required: required,
		Help:     prop.Description,
	}
	spec.Default = coerceSchemaValue(spec.Type, prop.Default)
	if len(prop.Enum) > 0 {
		spec.Enum = make([]any, 0, len(prop.Enum))
		for _, option := range prop.Enum {
			spec.Enum = append(spec.Enum, coerceSchemaValue(spec.Type, option))
		}
	}
	if prop.Format != "" {
		spec.Metadata = map[string]string{"format": prop.Format}
	}

	if prop.Min != nil {
		spec.Validations = append(spec.Validations, boundRule(ValidationRuleMin, *prop.Min, prop.ExclusiveMin))
	}
	if prop.Max != nil {
		spec.Validations = append(spec.Validations, boundRule(ValidationRuleMax, *prop.Max, prop.ExclusiveMax))
	}
	minLength, maxLength := prop.MinLength, prop.MaxLength
	if spec.Type == FieldTypeList {
		minLength, maxLength = prop.MinItems, prop.MaxItems
	}
	if minLength > 0 {
		spec.Validations = append(spec.Validations, ValidationRule{
			Kind:   ValidationRuleMinLength,
			Params: map[string]string{"value": strconv.FormatUint(minLength, 10)},
		})
	}
	if maxLength != nil {
		spec.Validations = append(spec.Validations, ValidationRule{
			Kind:   ValidationRuleMaxLength,
			Params: map[string]string{"value": strconv.FormatUint(*maxLength, 10)},
		})
	}
	if prop.Pattern != "" {
		spec.Validations = append(spec.Validations, ValidationRule{
			Kind:   ValidationRulePattern,
			Params: map[string]string{"pattern": prop.Pattern},
		})
	}

	spec.Visible, spec.Enabled = rulesFromExtensions(prop.Extensions)
	return spec
}

func boundRule(kind string, limit float64, exclusive bool) ValidationRule {
	params := map[string]string{"value": formatNumber(limit)}
	if exclusive {
		params["exclusive"] = "true"
	}
	return ValidationRule{Kind: kind, Params: params}
}

func schemaType(schema *openapi3.Schema) string {
	if schema.Type == nil {
		if len(schema.Properties) > 0 {
			return "object"
		}
		return ""
	}
	for _, t := range schema.Type.Slice() {
		if t != "null" {
			return t
		}
	}
	return ""
}

func fieldTypeFor(schema *openapi3.Schema) FieldType {
	switch schemaType(schema) {
	case "integer":
		return FieldTypeInteger
	case "number":
		return FieldTypeNumber
	case "boolean":
		return FieldTypeBoolean
	case "array":
		return FieldTypeList
	default:
		return FieldTypeString
	}
}

// coerceSchemaValue turns whole JSON numbers into ints for integer fields so
// defaults compare equal to parsed input.
func coerceSchemaValue(fieldType FieldType, value any) any {
	if fieldType != FieldTypeInteger {
		return value
	}
	if n, ok := value.(float64); ok && n == math.Trunc(n) {
		return int(n)
	}
	return value
}

func rulesFromExtensions(ext map[string]any) (string, string) {
	if len(ext) == 0 {
		return "", ""
	}
	visible := extensionString(ext[visibleExtension])
	enabled := extensionString(ext[enabledExtension])
	if nested, ok := ext[extensionNamespace].(map[string]any); ok {
		if visible == "" {
			visible = extensionString(nested["visible"])
		}
		if enabled == "" {
			enabled = extensionString(nested["enabled"])
		}
	}
	return visible, enabled
}

func extensionString(value any) string {
	s, _ := value.(string)
	return strings.TrimSpace(s)
}
