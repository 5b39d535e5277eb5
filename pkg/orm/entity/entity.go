// Package entity turns decoded resources into caller-visible entities whose
// relationships are either resolved from included data or fetched on demand.
package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/conduit-lang/linkage/pkg/orm/document"
	"github.com/conduit-lang/linkage/pkg/orm/schema"
)

// Entity is a hydrated resource. Attributes are read-only; relationships are
// exposed through Handles.
type Entity struct {
	schema        *schema.EntitySchema
	id            string
	meta          document.Meta
	links         document.Links
	attributes    map[string]any
	relationships map[string]*Handle
	reference     bool
}

// Schema returns the entity's schema
func (e *Entity) Schema() *schema.EntitySchema {
	return e.schema
}

// Type returns the type tag
func (e *Entity) Type() string {
	return e.schema.Type
}

// ID returns the resource id
func (e *Entity) ID() string {
	return e.id
}

// Identifier returns the (type, id) pair
func (e *Entity) Identifier() document.Identifier {
	return document.Identifier{Type: e.schema.Type, ID: e.id}
}

// Meta returns the resource meta. It is never nil.
func (e *Entity) Meta() document.Meta {
	return e.meta
}

// Links returns the resource links, if any
func (e *Entity) Links() document.Links {
	return e.links
}

// IsReference reports whether the entity is a back-reference placeholder
// produced when hydration revisited a resource that was still in progress.
// A placeholder carries only its id; its relationships are fetch-on-demand.
func (e *Entity) IsReference() bool {
	return e.reference
}

// Attributes returns a copy of the attribute mapping
func (e *Entity) Attributes() map[string]any {
	out := make(map[string]any, len(e.attributes))
	for k, v := range e.attributes {
		out[k] = v
	}
	return out
}

// Attr returns a raw attribute value
func (e *Entity) Attr(name string) (any, bool) {
	v, ok := e.attributes[name]
	return v, ok
}

// String returns a string attribute, or "" when absent or not a string
func (e *Entity) String(name string) string {
	s, _ := e.attributes[name].(string)
	return s
}

// Int returns a numeric attribute truncated to int64
func (e *Entity) Int(name string) int64 {
	switch v := e.attributes[name].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	}
	return 0
}

// Float returns a numeric attribute
func (e *Entity) Float(name string) float64 {
	switch v := e.attributes[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Bool returns a boolean attribute
func (e *Entity) Bool(name string) bool {
	b, _ := e.attributes[name].(bool)
	return b
}

// Relationship returns the handle for a declared relationship field
func (e *Entity) Relationship(name string) (*Handle, bool) {
	h, ok := e.relationships[name]
	return h, ok
}

// MustRelationship is like Relationship but panics for undeclared fields
func (e *Entity) MustRelationship(name string) *Handle {
	h, ok := e.relationships[name]
	if !ok {
		panic(fmt.Sprintf("entity %s has no relationship %q", e.schema.Type, name))
	}
	return h
}

// Fields returns the base field mapping: attributes merged with id and meta.
func (e *Entity) Fields() map[string]any {
	out := e.Attributes()
	out["id"] = e.id
	out["meta"] = map[string]any(e.meta)
	return out
}

// Decode copies id, meta and attributes into out, which must be a pointer to
// a struct or map. Struct fields are matched by their `jsonapi` tag, falling
// back to a case-insensitive field name match. RFC 3339 strings decode into
// time.Time fields.
func (e *Entity) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "jsonapi",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("decode %s/%s: %w", e.schema.Type, e.id, err)
	}
	if err := dec.Decode(e.Fields()); err != nil {
		return fmt.Errorf("decode %s/%s: %w", e.schema.Type, e.id, err)
	}
	return nil
}

// DecodeAs decodes an entity into a new value of type T
func DecodeAs[T any](e *Entity) (T, error) {
	var out T
	err := e.Decode(&out)
	return out, err
}

type wireEntity struct {
	Type          string             `json:"type"`
	ID            string             `json:"id"`
	Attributes    map[string]any     `json:"attributes,omitempty"`
	Relationships map[string]*Handle `json:"relationships,omitempty"`
	Meta          document.Meta      `json:"meta,omitempty"`
	Links         document.Links     `json:"links,omitempty"`
}

// MarshalJSON renders the entity as a resource object whose relationship
// members are the handles' own JSON forms.
func (e *Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEntity{
		Type:          e.schema.Type,
		ID:            e.id,
		Attributes:    e.attributes,
		Relationships: e.relationships,
		Meta:          e.meta,
		Links:         e.links,
	})
}
