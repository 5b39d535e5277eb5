// Package schemafile loads resource type declarations from YAML and registers
// them into a schema registry.
//
//	types:
//	  - type: articles
//	    attributes:
//	      - {name: title, kind: string, required: true}
//	    relationships:
//	      - {name: author, target: people, default_include: true}
//	      - {name: comments, target: comments, cardinality: many}
package schemafile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/linkage/pkg/orm/schema"
)

// File is a schema file
type File struct {
	Types []TypeDecl `yaml:"types"`
}

// TypeDecl declares one resource type
type TypeDecl struct {
	Type          string             `yaml:"type"`
	Endpoint      string             `yaml:"endpoint,omitempty"`
	Strict        bool               `yaml:"strict,omitempty"`
	Attributes    []AttributeDecl    `yaml:"attributes,omitempty"`
	Relationships []RelationshipDecl `yaml:"relationships,omitempty"`
}

// AttributeDecl declares an attribute
type AttributeDecl struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind,omitempty"`
	Required bool   `yaml:"required,omitempty"`
}

// RelationshipDecl declares a relationship. Targets are type tags and may
// name types declared later in the file or in another file.
type RelationshipDecl struct {
	Name           string `yaml:"name"`
	Target         string `yaml:"target"`
	Cardinality    string `yaml:"cardinality,omitempty"`
	DefaultInclude bool   `yaml:"default_include,omitempty"`
}

// Parse decodes a schema file. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse schema yaml: %w", err)
	}
	return &f, nil
}

// ParseFile reads and decodes the schema file at path
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Build converts the declarations into schemas, in file order. Relationship
// targets stay unresolved until the registry resolves them.
func (f *File) Build() ([]*schema.EntitySchema, error) {
	var (
		schemas []*schema.EntitySchema
		errs    []error
	)
	for _, decl := range f.Types {
		s, err := decl.Build()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		schemas = append(schemas, s)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return schemas, nil
}

// Build converts one declaration into a schema
func (d TypeDecl) Build() (*schema.EntitySchema, error) {
	b := schema.New(d.Type).Endpoint(d.Endpoint)
	if d.Strict {
		b.Strict()
	}

	var errs []error
	for _, a := range d.Attributes {
		kind, err := schema.ParseKind(a.Kind)
		if err != nil {
			errs = append(errs, &schema.SchemaError{Type: d.Type, Field: a.Name, Err: err})
			continue
		}
		var opts []schema.AttributeOption
		if a.Required {
			opts = append(opts, schema.Required())
		}
		b.Attribute(a.Name, kind, opts...)
	}

	for _, r := range d.Relationships {
		if r.Target == "" {
			errs = append(errs, &schema.SchemaError{Type: d.Type, Field: r.Name, Err: schema.ErrInvalidTarget})
			continue
		}
		var opts []schema.RelationshipOption
		if r.Cardinality != "" {
			c, err := schema.ParseCardinality(r.Cardinality)
			if err != nil {
				errs = append(errs, &schema.SchemaError{Type: d.Type, Field: r.Name, Err: err})
				continue
			}
			opts = append(opts, schema.WithCardinality(c))
		}
		if r.DefaultInclude {
			opts = append(opts, schema.DefaultInclude())
		}
		b.Relationship(r.Name, schema.Ref(r.Target), opts...)
	}

	s, err := b.Build()
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

// Register builds every declared type, registers it, and resolves the
// registry. Types from earlier files may be referenced.
//
// A type tag that is already taken fails the whole file before anything is
// registered. A resolution failure leaves the file's types in r so that a
// later file can supply the missing targets.
func (f *File) Register(r *schema.Registry) ([]*schema.EntitySchema, error) {
	schemas, err := f.Build()
	if err != nil {
		return nil, err
	}

	var errs []error
	seen := make(map[string]bool, len(schemas))
	for _, s := range schemas {
		if seen[s.Type] || r.Exists(s.Type) {
			errs = append(errs, &schema.SchemaError{Type: s.Type, Err: schema.ErrDuplicateType})
		}
		seen[s.Type] = true
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	if err := r.ResolveAll(); err != nil {
		return nil, err
	}
	return schemas, nil
}

// Load reads the schema file at path into r
func Load(path string, r *schema.Registry) ([]*schema.EntitySchema, error) {
	f, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	schemas, err := f.Register(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return schemas, nil
}
