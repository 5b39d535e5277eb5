package schema

import (
	"errors"
	"fmt"
)

// AttributeOption configures an attribute declaration
type AttributeOption func(*AttributeDef)

// Required marks an attribute as mandatory
func Required() AttributeOption {
	return func(a *AttributeDef) {
		a.Required = true
	}
}

// RelationshipOption configures a relationship declaration
type RelationshipOption func(*relationshipDecl)

type relationshipDecl struct {
	cardinality    Cardinality
	explicit       bool
	defaultInclude bool
}

// DefaultInclude requests the relationship on every fetch of the owning type
func DefaultInclude() RelationshipOption {
	return func(d *relationshipDecl) {
		d.defaultInclude = true
	}
}

// WithCardinality declares the cardinality explicitly. An explicit declaration
// overrides the cardinality implied by ToOne, ToMany or Relationship.
func WithCardinality(c Cardinality) RelationshipOption {
	return func(d *relationshipDecl) {
		d.cardinality = c
		d.explicit = true
	}
}

// Builder declares an EntitySchema. Declarations are collected and checked in
// Build, so a chain never needs intermediate error handling.
type Builder struct {
	schema *EntitySchema
	fields map[string]bool
	errs   []error
}

// New starts a schema declaration for the given type tag
func New(typeTag string) *Builder {
	return &Builder{
		schema: &EntitySchema{
			Type:      typeTag,
			attrIndex: make(map[string]*AttributeDef),
			relIndex:  make(map[string]*RelationshipDef),
		},
		fields: make(map[string]bool),
	}
}

// Endpoint sets the collection path segment
func (b *Builder) Endpoint(endpoint string) *Builder {
	b.schema.Endpoint = endpoint
	return b
}

// Strict rejects undeclared attributes during validation
func (b *Builder) Strict() *Builder {
	b.schema.Strict = true
	return b
}

// Attribute declares an attribute
func (b *Builder) Attribute(name string, kind Kind, opts ...AttributeOption) *Builder {
	if !b.claim(name) {
		return b
	}

	attr := &AttributeDef{Name: name, Kind: kind}
	for _, opt := range opts {
		opt(attr)
	}

	b.schema.attributes = append(b.schema.attributes, attr)
	b.schema.attrIndex[name] = attr
	return b
}

// Relationship declares a relationship with inferred to-one cardinality.
//
// target may be a *EntitySchema, a type tag string, or a ForwardRef. Named
// targets are resolved later by Registry.Resolve.
func (b *Builder) Relationship(field string, target any, opts ...RelationshipOption) *Builder {
	return b.relationship(field, target, One, opts)
}

// ToOne declares a to-one relationship
func (b *Builder) ToOne(field string, target any, opts ...RelationshipOption) *Builder {
	return b.relationship(field, target, One, opts)
}

// ToMany declares a to-many relationship
func (b *Builder) ToMany(field string, target any, opts ...RelationshipOption) *Builder {
	return b.relationship(field, target, Many, opts)
}

func (b *Builder) relationship(field string, target any, inferred Cardinality, opts []RelationshipOption) *Builder {
	if !b.claim(field) {
		return b
	}

	decl := relationshipDecl{cardinality: inferred}
	for _, opt := range opts {
		opt(&decl)
	}

	def := &RelationshipDef{
		Name:           field,
		Cardinality:    decl.cardinality,
		DefaultInclude: decl.defaultInclude,
	}

	switch t := target.(type) {
	case *EntitySchema:
		if t == nil {
			b.fail(field, fmt.Errorf("%w: nil schema", ErrInvalidTarget))
			return b
		}
		def.target.Store(t)
		def.targetName = t.Type
	case string:
		if t == "" {
			b.fail(field, fmt.Errorf("%w: empty type name", ErrInvalidTarget))
			return b
		}
		def.targetName = t
	case ForwardRef:
		if t.Name == "" {
			b.fail(field, fmt.Errorf("%w: empty forward reference", ErrInvalidTarget))
			return b
		}
		def.targetName = t.Name
	default:
		b.fail(field, fmt.Errorf("%w: %T", ErrInvalidTarget, target))
		return b
	}

	b.schema.relationships = append(b.schema.relationships, def)
	b.schema.relIndex[field] = def
	if def.DefaultInclude {
		b.schema.defaultInclude = append(b.schema.defaultInclude, field)
	}
	return b
}

func (b *Builder) claim(name string) bool {
	if name == "" {
		b.fail("", errors.New("field name must not be empty"))
		return false
	}
	if name == "id" || name == "type" {
		b.fail(name, fmt.Errorf("%q is a reserved member name", name))
		return false
	}
	if b.fields[name] {
		b.fail(name, ErrDuplicateField)
		return false
	}
	b.fields[name] = true
	return true
}

func (b *Builder) fail(field string, err error) {
	b.errs = append(b.errs, &SchemaError{Type: b.schema.Type, Field: field, Err: err})
}

// Build returns the declared schema, or every declaration error joined.
func (b *Builder) Build() (*EntitySchema, error) {
	if b.schema.Type == "" {
		b.errs = append(b.errs, &SchemaError{Err: errors.New("type tag must not be empty")})
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	if b.schema.Endpoint == "" {
		b.schema.Endpoint = b.schema.Type
	}

	resolved := true
	for _, d := range b.schema.relationships {
		if d.target.Load() == nil {
			resolved = false
			break
		}
	}
	b.schema.resolved.Store(resolved)

	return b.schema, nil
}

// MustBuild is like Build but panics on error. It simplifies package-level
// schema variables.
func (b *Builder) MustBuild() *EntitySchema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
