// Package schema implements structural validation of decoded JSON values
// against a declarative schema: field presence, primitive type and
// required-list satisfaction, recursively through objects and arrays.
// Validation is all-or-nothing; there is no partial credit and no semantic
// checking beyond structure.
package schema

import (
	"encoding/json"
	"fmt"
)

// Type is a primitive JSON type name used in schema declarations.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeNull    Type = "null"
)

// Schema declares the expected structure of a value. A field may allow more
// than one type (e.g. a material type that is either an object or a string).
type Schema struct {
	Description string
	Types       []Type
	Properties  map[string]*Schema
	Required    []string
	Items       *Schema
}

// Validator validates values against declarative schemas.
type Validator struct{}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateStruct marshals a struct through JSON and validates the resulting
// value. This mirrors how records arrive from the broker as decoded JSON.
func (v *Validator) ValidateStruct(value any, s *Schema) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		return false
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return false
	}
	return v.Validate(decoded, s)
}

// Validate reports whether the decoded JSON value satisfies the schema.
// It never panics; an unexpected shape is simply a failure.
func (v *Validator) Validate(value any, s *Schema) bool {
	if s == nil {
		return true
	}
	if !matchesType(value, s.Types) {
		return false
	}

	switch typed := value.(type) {
	case map[string]any:
		return v.validateObject(typed, s)
	case []any:
		return v.validateArray(typed, s)
	default:
		return true
	}
}

func (v *Validator) validateObject(obj map[string]any, s *Schema) bool {
	for _, required := range s.Required {
		if _, ok := obj[required]; !ok {
			return false
		}
	}
	for name, propSchema := range s.Properties {
		propValue, ok := obj[name]
		if !ok {
			// Optional fields may be absent.
			continue
		}
		if !v.Validate(propValue, propSchema) {
			return false
		}
	}
	return true
}

func (v *Validator) validateArray(items []any, s *Schema) bool {
	if s.Items == nil {
		return true
	}
	for _, item := range items {
		if !v.Validate(item, s.Items) {
			return false
		}
	}
	return true
}

// matchesType reports whether the value is one of the allowed types.
// An empty type list allows any type.
func matchesType(value any, types []Type) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if isType(value, t) {
			return true
		}
	}
	return false
}

func isType(value any, t Type) bool {
	switch t {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeNumber:
		switch value.(type) {
		case float64, json.Number:
			return true
		}
		return false
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeObject:
		_, ok := value.(map[string]any)
		return ok
	case TypeArray:
		_, ok := value.([]any)
		return ok
	case TypeNull:
		return value == nil
	default:
		return false
	}
}

// String returns a short description of the schema, useful in logs.
func (s *Schema) String() string {
	if s == nil {
		return "<nil schema>"
	}
	return fmt.Sprintf("schema(types=%v, required=%v)", s.Types, s.Required)
}
