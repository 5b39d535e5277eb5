// Package validation checks hydrated attribute values against the attribute
// declarations of a schema.
package validation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/conduit-lang/linkage/pkg/orm/schema"
)

// Validator validates the assembled attribute mapping of one resource.
// Implementations return *ValidationErrors on failure.
type Validator interface {
	Validate(s *schema.EntitySchema, attrs map[string]any) error
}

// Func adapts a function to the Validator interface
type Func func(s *schema.EntitySchema, attrs map[string]any) error

// Validate implements Validator
func (f Func) Validate(s *schema.EntitySchema, attrs map[string]any) error {
	return f(s, attrs)
}

// Chain runs validators in order and merges their field errors. Errors that
// are not *ValidationErrors stop the chain.
func Chain(validators ...Validator) Validator {
	return Func(func(s *schema.EntitySchema, attrs map[string]any) error {
		merged := NewValidationErrors()
		for _, v := range validators {
			err := v.Validate(s, attrs)
			if err == nil {
				continue
			}
			ve, ok := err.(*ValidationErrors)
			if !ok {
				return err
			}
			for field, messages := range ve.Fields {
				for _, msg := range messages {
					merged.Add(field, msg)
				}
			}
		}
		if merged.HasErrors() {
			return merged
		}
		return nil
	})
}

// SchemaValidator checks required attributes, attribute kinds, and, for
// strict schemas, undeclared attributes. A nil value only fails the required
// check.
type SchemaValidator struct{}

// NewSchemaValidator creates a SchemaValidator
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{}
}

// Validate implements Validator
func (v *SchemaValidator) Validate(s *schema.EntitySchema, attrs map[string]any) error {
	errs := NewValidationErrors()

	for _, def := range s.Attributes() {
		value, present := attrs[def.Name]
		if !present || value == nil {
			if def.Required {
				errs.Add(def.Name, "is required")
			}
			continue
		}
		if err := CheckKind(def.Kind, value); err != nil {
			errs.Add(def.Name, err.Error())
		}
	}

	if s.Strict {
		var unknown []string
		for name := range attrs {
			if _, ok := s.Attribute(name); !ok {
				unknown = append(unknown, name)
			}
		}
		sort.Strings(unknown)
		for _, name := range unknown {
			errs.Add(name, "is not a declared attribute")
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// CheckKind reports whether a decoded JSON value fits the declared kind.
// Integers arrive as float64 and must have no fractional part; times are
// RFC 3339 strings.
func CheckKind(kind schema.Kind, value any) error {
	switch kind {
	case schema.KindAny:
		return nil

	case schema.KindString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string value, got %s", describe(value))
		}

	case schema.KindInt:
		f, ok := toFloat64(value)
		if !ok {
			return fmt.Errorf("expected integer value, got %s", describe(value))
		}
		if f != math.Trunc(f) {
			return fmt.Errorf("expected integer value, got %v", f)
		}

	case schema.KindFloat:
		if _, ok := toFloat64(value); !ok {
			return fmt.Errorf("expected numeric value, got %s", describe(value))
		}

	case schema.KindBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean value, got %s", describe(value))
		}

	case schema.KindTime:
		switch t := value.(type) {
		case time.Time:
		case string:
			if _, err := time.Parse(time.RFC3339, t); err != nil {
				return fmt.Errorf("must be an RFC 3339 timestamp")
			}
		default:
			return fmt.Errorf("expected timestamp, got %s", describe(value))
		}

	case schema.KindObject:
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("expected object, got %s", describe(value))
		}

	case schema.KindArray:
		if _, ok := value.([]any); !ok {
			return fmt.Errorf("expected array, got %s", describe(value))
		}

	default:
		return fmt.Errorf("unknown attribute kind %d", kind)
	}

	return nil
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func describe(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case float64, float32, int, int32, int64:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", value)
	}
}
