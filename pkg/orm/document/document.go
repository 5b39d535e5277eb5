// Package document decodes JSON:API top-level documents into resource records
// and builds the included-resource index used during hydration.
// See https://jsonapi.org/format/ for the wire format.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MediaType is the JSON:API media type.
const MediaType = "application/vnd.api+json"

var (
	// ErrMalformed is returned when a body is not a valid JSON:API document
	ErrMalformed = errors.New("malformed document")

	// ErrNoData is returned when a single resource was expected but data was null
	ErrNoData = errors.New("document has no primary data")
)

// Meta represents free-form metadata.
type Meta map[string]any

// Links holds link members. Values are either strings or link objects.
type Links map[string]any

// Document is a decoded JSON:API top-level document.
type Document struct {
	// Data holds the primary resources. A single-resource document has one entry.
	Data []Resource

	// Many is true when the data member was an array.
	Many bool

	// Null is true when the data member was present and null.
	Null bool

	// Included holds the side-car resources.
	Included []Resource

	// HasIncluded is true when the document carried an included member, even an empty one.
	HasIncluded bool

	Meta   Meta
	Links  Links
	Errors []ErrorObject
}

// wireDocument mirrors the top-level members as they appear on the wire.
type wireDocument struct {
	Data     json.RawMessage `json:"data,omitempty"`
	Included *[]Resource     `json:"included,omitempty"`
	Meta     Meta            `json:"meta,omitempty"`
	Links    Links           `json:"links,omitempty"`
	Errors   []ErrorObject   `json:"errors,omitempty"`
}

// Parse decodes a raw response body into a Document.
func Parse(body []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &doc, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(b []byte) error {
	var w wireDocument
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	*d = Document{Meta: w.Meta, Links: w.Links, Errors: w.Errors}

	if w.Included != nil {
		d.HasIncluded = true
		d.Included = *w.Included
		for i := range d.Included {
			if err := d.Included[i].check(); err != nil {
				return fmt.Errorf("included[%d]: %w", i, err)
			}
		}
	}

	data := bytes.TrimSpace(w.Data)
	switch {
	case len(data) == 0:
		// no data member; errors or meta only
	case bytes.Equal(data, []byte("null")):
		d.Null = true
	case data[0] == '[':
		d.Many = true
		if err := json.Unmarshal(data, &d.Data); err != nil {
			return err
		}
	case data[0] == '{':
		var r Resource
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		d.Data = []Resource{r}
	default:
		return fmt.Errorf("%w: data must be an object, an array or null", ErrMalformed)
	}

	for i := range d.Data {
		if err := d.Data[i].check(); err != nil {
			return fmt.Errorf("data[%d]: %w", i, err)
		}
	}

	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	w := wireDocument{Meta: d.Meta, Links: d.Links, Errors: d.Errors}

	switch {
	case d.Many:
		data := d.Data
		if data == nil {
			data = []Resource{}
		}
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		w.Data = raw
	case len(d.Data) > 0:
		raw, err := json.Marshal(d.Data[0])
		if err != nil {
			return nil, err
		}
		w.Data = raw
	case d.Null:
		w.Data = json.RawMessage("null")
	}

	if d.HasIncluded || len(d.Included) > 0 {
		included := d.Included
		if included == nil {
			included = []Resource{}
		}
		w.Included = &included
	}

	return json.Marshal(w)
}

// Single returns the primary resource of a single-resource document.
func (d *Document) Single() (*Resource, error) {
	if d.Null || len(d.Data) == 0 {
		return nil, ErrNoData
	}
	if d.Many {
		return nil, fmt.Errorf("%w: expected a single resource, got a collection", ErrMalformed)
	}
	return &d.Data[0], nil
}

// Index builds the included-resource index. It returns nil when the document
// carried no included member, which tells the hydrator to leave relationships
// unresolved.
func (d *Document) Index() *IncludedIndex {
	if !d.HasIncluded {
		return nil
	}
	return NewIndex(d.Included)
}

// ErrorObject is a JSON:API error object.
type ErrorObject struct {
	ID     string       `json:"id,omitempty"`
	Status string       `json:"status,omitempty"`
	Code   string       `json:"code,omitempty"`
	Title  string       `json:"title,omitempty"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
	Meta   Meta         `json:"meta,omitempty"`
}

// ErrorSource indicates the source of an error.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
	Header    string `json:"header,omitempty"`
}

func (e ErrorObject) Error() string {
	switch {
	case e.Detail != "" && e.Title != "":
		return e.Title + ": " + e.Detail
	case e.Detail != "":
		return e.Detail
	case e.Title != "":
		return e.Title
	}
	return "error " + e.Status
}
