package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTarget is returned when a relationship target is neither a
	// schema, a type name, nor a forward reference
	ErrInvalidTarget = errors.New("invalid relationship target")

	// ErrUnresolvedTarget is returned when a named target is not registered
	ErrUnresolvedTarget = errors.New("unresolved relationship target")

	// ErrDuplicateType is returned when a type tag is registered twice
	ErrDuplicateType = errors.New("type already registered")

	// ErrUnknownType is returned when a type tag is not registered
	ErrUnknownType = errors.New("unknown type")

	// ErrUnknownField is returned when a relationship field is not declared
	ErrUnknownField = errors.New("unknown relationship field")

	// ErrForeignSchema is returned when a schema owned by one registry is
	// registered in or resolved against another
	ErrForeignSchema = errors.New("schema belongs to another registry")

	// ErrDuplicateField is returned when a field name is declared twice
	ErrDuplicateField = errors.New("duplicate field")
)

// SchemaError reports a problem with a type declaration. It is raised before
// any resource of the affected type is hydrated.
type SchemaError struct {
	Type  string
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema %s.%s: %v", e.Type, e.Field, e.Err)
	}
	return fmt.Sprintf("schema %s: %v", e.Type, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
