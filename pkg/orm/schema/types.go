// Package schema describes client-side resource types: their attributes, their
// relationships to other types, and the registry that resolves relationship
// targets named before the target type exists.
package schema

import (
	"fmt"
	"sync/atomic"
)

// Cardinality is the arity of a relationship
type Cardinality int

const (
	One Cardinality = iota
	Many
)

// String returns the string representation of the cardinality
func (c Cardinality) String() string {
	switch c {
	case One:
		return "one"
	case Many:
		return "many"
	default:
		return "unknown"
	}
}

// ParseCardinality converts a string to a Cardinality
func ParseCardinality(s string) (Cardinality, error) {
	switch s {
	case "one", "to_one":
		return One, nil
	case "many", "to_many":
		return Many, nil
	default:
		return 0, fmt.Errorf("unknown cardinality: %s", s)
	}
}

// Kind is the expected type of an attribute value
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
	KindObject
	KindArray
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// ParseKind converts a string to a Kind
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "any":
		return KindAny, nil
	case "string":
		return KindString, nil
	case "int", "integer":
		return KindInt, nil
	case "float", "number":
		return KindFloat, nil
	case "bool", "boolean":
		return KindBool, nil
	case "time", "timestamp":
		return KindTime, nil
	case "object":
		return KindObject, nil
	case "array":
		return KindArray, nil
	default:
		return 0, fmt.Errorf("unknown attribute kind: %s", s)
	}
}

// AttributeDef declares an attribute of a resource type
type AttributeDef struct {
	Name     string
	Kind     Kind
	Required bool
}

// ForwardRef names a relationship target that may not be registered yet.
// It is resolved against a Registry on first use.
type ForwardRef struct {
	Name string
}

// Ref returns a forward reference to the named type
func Ref(name string) ForwardRef {
	return ForwardRef{Name: name}
}

// RelationshipDef declares a relationship field. The target is either known at
// build time or resolved once by Registry.Resolve; after that the definition
// never changes.
type RelationshipDef struct {
	Name           string
	Cardinality    Cardinality
	DefaultInclude bool

	targetName string
	target     atomic.Pointer[EntitySchema]
}

// Target returns the resolved target schema, or nil while it is unresolved.
func (d *RelationshipDef) Target() *EntitySchema {
	return d.target.Load()
}

// TargetName returns the type tag of the target.
func (d *RelationshipDef) TargetName() string {
	return d.targetName
}

// Resolved reports whether the target schema is known.
func (d *RelationshipDef) Resolved() bool {
	return d.target.Load() != nil
}

// IsMany reports whether the relationship is to-many.
func (d *RelationshipDef) IsMany() bool {
	return d.Cardinality == Many
}

// EntitySchema is the per-type metadata used for fetching and hydration.
//
// A schema belongs to the first Registry it is registered in or resolved
// against; other registries reject it with ErrForeignSchema.
type EntitySchema struct {
	// Type is the JSON:API type tag.
	Type string

	// Endpoint is the collection path segment. Defaults to Type.
	Endpoint string

	// Strict rejects attributes that are not declared.
	Strict bool

	attributes     []*AttributeDef
	attrIndex      map[string]*AttributeDef
	relationships  []*RelationshipDef
	relIndex       map[string]*RelationshipDef
	defaultInclude []string

	resolved atomic.Bool
	registry atomic.Pointer[Registry]
}

// Relationships returns the relationship definitions in declaration order.
func (s *EntitySchema) Relationships() []*RelationshipDef {
	out := make([]*RelationshipDef, len(s.relationships))
	copy(out, s.relationships)
	return out
}

// Relationship returns the named relationship definition.
func (s *EntitySchema) Relationship(name string) (*RelationshipDef, bool) {
	d, ok := s.relIndex[name]
	return d, ok
}

// Attributes returns the attribute definitions in declaration order.
func (s *EntitySchema) Attributes() []*AttributeDef {
	out := make([]*AttributeDef, len(s.attributes))
	copy(out, s.attributes)
	return out
}

// Attribute returns the named attribute definition.
func (s *EntitySchema) Attribute(name string) (*AttributeDef, bool) {
	a, ok := s.attrIndex[name]
	return a, ok
}

// DefaultInclude returns the relationship fields requested on every fetch of
// this type, in declaration order.
func (s *EntitySchema) DefaultInclude() []string {
	out := make([]string, len(s.defaultInclude))
	copy(out, s.defaultInclude)
	return out
}

// HasForwardRefs reports whether any relationship target is still unresolved.
func (s *EntitySchema) HasForwardRefs() bool {
	return !s.resolved.Load() && s.unresolvedTargets() > 0
}

func (s *EntitySchema) unresolvedTargets() int {
	n := 0
	for _, d := range s.relationships {
		if !d.Resolved() {
			n++
		}
	}
	return n
}

// claim binds s to r. It fails when another registry owns s.
func (s *EntitySchema) claim(r *Registry) error {
	if s.registry.CompareAndSwap(nil, r) || s.registry.Load() == r {
		return nil
	}
	return &SchemaError{Type: s.Type, Err: ErrForeignSchema}
}

// IsResolved reports whether every relationship target is known.
func (s *EntitySchema) IsResolved() bool {
	return s.resolved.Load()
}

func (s *EntitySchema) String() string {
	return s.Type
}
