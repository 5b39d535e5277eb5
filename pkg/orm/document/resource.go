package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Resource is a JSON:API resource object as decoded from a document.
// Resources are ephemeral: the hydrator consumes them and discards them.
type Resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id"`
	Attributes    map[string]any          `json:"attributes,omitempty"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
	Links         Links                   `json:"links,omitempty"`
	Meta          Meta                    `json:"meta,omitempty"`
}

// Identifier returns the (type, id) pair of the resource.
func (r Resource) Identifier() Identifier {
	return Identifier{Type: r.Type, ID: r.ID}
}

func (r Resource) check() error {
	if r.Type == "" {
		return fmt.Errorf("%w: resource without type", ErrMalformed)
	}
	if r.ID == "" {
		return fmt.Errorf("%w: %s resource without id", ErrMalformed, r.Type)
	}
	return nil
}

// Identifier is a resource identifier object.
type Identifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Meta Meta   `json:"meta,omitempty"`
}

func (i Identifier) String() string {
	return i.Type + "/" + i.ID
}

// Relationship is a relationship object. Only linkage data is consulted by
// the hydrator; links and meta are carried for callers.
type Relationship struct {
	Data  Linkage
	Links Links
	Meta  Meta
}

type wireRelationship struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Links Links           `json:"links,omitempty"`
	Meta  Meta            `json:"meta,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Relationship) UnmarshalJSON(b []byte) error {
	var w wireRelationship
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	linkage, err := parseLinkage(w.Data)
	if err != nil {
		return err
	}

	*r = Relationship{Data: linkage, Links: w.Links, Meta: w.Meta}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r Relationship) MarshalJSON() ([]byte, error) {
	w := wireRelationship{Links: r.Links, Meta: r.Meta}
	if r.Data.Present {
		raw, err := json.Marshal(r.Data)
		if err != nil {
			return nil, err
		}
		w.Data = raw
	}
	return json.Marshal(w)
}

// Linkage is the data member of a relationship object.
//
// The zero value means the member was absent. A present to-one linkage with
// no identifiers was null.
type Linkage struct {
	Present     bool
	Many        bool
	Identifiers []Identifier
}

// ToOne returns a to-one linkage. A nil identifier yields null linkage.
func ToOne(id *Identifier) Linkage {
	if id == nil {
		return Linkage{Present: true}
	}
	return Linkage{Present: true, Identifiers: []Identifier{*id}}
}

// ToMany returns a to-many linkage.
func ToMany(ids ...Identifier) Linkage {
	return Linkage{Present: true, Many: true, Identifiers: ids}
}

// IsNull reports whether the linkage was an explicit null.
func (l Linkage) IsNull() bool {
	return l.Present && !l.Many && len(l.Identifiers) == 0
}

// MarshalJSON implements json.Marshaler.
func (l Linkage) MarshalJSON() ([]byte, error) {
	switch {
	case !l.Present:
		return []byte("null"), nil
	case l.Many:
		ids := l.Identifiers
		if ids == nil {
			ids = []Identifier{}
		}
		return json.Marshal(ids)
	case len(l.Identifiers) == 0:
		return []byte("null"), nil
	}
	return json.Marshal(l.Identifiers[0])
}

func parseLinkage(raw json.RawMessage) (Linkage, error) {
	data := bytes.TrimSpace(raw)
	switch {
	case len(data) == 0:
		return Linkage{}, nil
	case bytes.Equal(data, []byte("null")):
		return Linkage{Present: true}, nil
	case data[0] == '[':
		var ids []Identifier
		if err := json.Unmarshal(data, &ids); err != nil {
			return Linkage{}, err
		}
		if ids == nil {
			ids = []Identifier{}
		}
		return Linkage{Present: true, Many: true, Identifiers: ids}, nil
	case data[0] == '{':
		var id Identifier
		if err := json.Unmarshal(data, &id); err != nil {
			return Linkage{}, err
		}
		return Linkage{Present: true, Identifiers: []Identifier{id}}, nil
	}
	return Linkage{}, fmt.Errorf("%w: relationship data must be an object, an array or null", ErrMalformed)
}
