package tool

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Field describes validation rules for a single parameter.
type Field struct {
	// Type is the expected variant: string, number, integer, boolean, array, object.
	// Empty accepts any type.
	Type string
	// Description is shown in generated input schemas.
	Description string
	// Required rejects calls that omit the field.
	Required bool
	// Regex validates string value format.
	Regex string
	// Enum restricts string values to a fixed set.
	Enum []string
	// Min sets numeric minimum.
	Min *float64
	// Max sets numeric maximum.
	Max *float64
	// MinLength sets string minimum length.
	MinLength *int
	// MaxLength sets string maximum length.
	MaxLength *int
}

// Schema validates a parameter bag against declared fields.
type Schema struct {
	fields   map[string]Field
	compiled map[string]*regexp.Regexp
	strict   bool
}

// NewSchema compiles field rules. When strict is set, unknown parameters are rejected.
func NewSchema(fields map[string]Field, strict bool) (*Schema, error) {
	compiled := make(map[string]*regexp.Regexp, len(fields))
	for name, field := range fields {
		switch field.Type {
		case "", "string", "number", "integer", "boolean", "array", "object":
		default:
			return nil, fmt.Errorf("field %s: unknown type %q", name, field.Type)
		}
		if field.Regex == "" {
			continue
		}
		re, err := regexp.Compile(field.Regex)
		if err != nil {
			return nil, fmt.Errorf("invalid regex for field %s: %w", name, err)
		}
		compiled[name] = re
	}
	return &Schema{fields: fields, compiled: compiled, strict: strict}, nil
}

// Validate checks params against the schema and returns every violation joined.
// A nil schema accepts everything.
func (s *Schema) Validate(params Params) error {
	if s == nil {
		return nil
	}
	var problems []string
	for _, name := range s.names() {
		field := s.fields[name]
		value, ok := params[name]
		if !ok || value.IsNull() {
			if field.Required {
				problems = append(problems, fmt.Sprintf("field %s is required", name))
			}
			continue
		}
		if problem := s.checkField(name, field, value); problem != "" {
			problems = append(problems, problem)
		}
	}
	if s.strict {
		for _, name := range params.Keys() {
			if _, known := s.fields[name]; !known {
				problems = append(problems, fmt.Sprintf("field %s is not allowed", name))
			}
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidParameters, strings.Join(problems, "; "))
}

func (s *Schema) checkField(name string, field Field, value Value) string {
	switch field.Type {
	case "":
	case "integer":
		if _, ok := value.AsInt(); !ok {
			return fmt.Sprintf("field %s must be an integer", name)
		}
	default:
		if value.Type().String() != field.Type {
			return fmt.Sprintf("field %s must be %s, got %s", name, field.Type, value.Type())
		}
	}

	switch value.Type() {
	case TypeString:
		v, _ := value.AsString()
		length := utf8.RuneCountInString(v)
		if field.MinLength != nil && length < *field.MinLength {
			return fmt.Sprintf("field %s is too short", name)
		}
		if field.MaxLength != nil && length > *field.MaxLength {
			return fmt.Sprintf("field %s is too long", name)
		}
		if re := s.compiled[name]; re != nil && !re.MatchString(v) {
			return fmt.Sprintf("field %s does not match required format", name)
		}
		if len(field.Enum) > 0 && !contains(field.Enum, v) {
			return fmt.Sprintf("field %s must be one of %s", name, strings.Join(field.Enum, ", "))
		}
	case TypeNumber:
		v, _ := value.AsNumber()
		if field.Min != nil && v < *field.Min {
			return fmt.Sprintf("field %s is below minimum value", name)
		}
		if field.Max != nil && v > *field.Max {
			return fmt.Sprintf("field %s is above maximum value", name)
		}
	}
	return ""
}

// JSONSchema renders the schema as a JSON Schema object for tool listings.
func (s *Schema) JSONSchema() map[string]any {
	properties := map[string]any{}
	required := []string{}
	if s != nil {
		for _, name := range s.names() {
			field := s.fields[name]
			prop := map[string]any{}
			if field.Type != "" {
				prop["type"] = field.Type
			}
			if field.Description != "" {
				prop["description"] = field.Description
			}
			if field.Regex != "" {
				prop["pattern"] = field.Regex
			}
			if len(field.Enum) > 0 {
				prop["enum"] = field.Enum
			}
			if field.Min != nil {
				prop["minimum"] = *field.Min
			}
			if field.Max != nil {
				prop["maximum"] = *field.Max
			}
			if field.MinLength != nil {
				prop["minLength"] = *field.MinLength
			}
			if field.MaxLength != nil {
				prop["maxLength"] = *field.MaxLength
			}
			properties[name] = prop
			if field.Required {
				required = append(required, name)
			}
		}
	}
	out := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func (s *Schema) names() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func contains(items []string, value string) bool {
	for _, item := range items {
		if item == value {
			return true
		}
	}
	return false
}
