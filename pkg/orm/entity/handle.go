package entity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/conduit-lang/linkage/pkg/orm/document"
	"github.com/conduit-lang/linkage/pkg/orm/schema"
)

// Kind discriminates the four handle variants
type Kind int

const (
	// ResolvedOne holds an entity resolved from included data (possibly nil)
	ResolvedOne Kind = iota
	// ResolvedMany holds entities resolved from included data
	ResolvedMany
	// IDOne holds only the owner and is fetched on demand
	IDOne
	// IDMany holds only the owner and is fetched on demand
	IDMany
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case ResolvedOne:
		return "resolved-one"
	case ResolvedMany:
		return "resolved-many"
	case IDOne:
		return "id-one"
	case IDMany:
		return "id-many"
	default:
		return "unknown"
	}
}

// Resolved reports whether the kind carries a value
func (k Kind) Resolved() bool {
	return k == ResolvedOne || k == ResolvedMany
}

// Many reports whether the kind is to-many
func (k Kind) Many() bool {
	return k == ResolvedMany || k == IDMany
}

// Fetcher performs the follow-up reads of fetch-on-demand handles. The
// client Session implements it.
type Fetcher interface {
	FetchOne(ctx context.Context, s *schema.EntitySchema, id string, opts ...FetchOption) (*Entity, error)
	FetchRelated(ctx context.Context, owner *schema.EntitySchema, id, field string, opts ...FetchOption) (Related, error)
}

// Related is the result of a related-resource fetch. One or Many is set
// according to Cardinality.
type Related struct {
	Cardinality schema.Cardinality
	One         *Entity
	Many        []*Entity
}

// Value returns One or Many depending on the cardinality
func (r Related) Value() any {
	if r.Cardinality == schema.Many {
		return r.Many
	}
	return r.One
}

// Handle is the value of a relationship field. Its kind is fixed at
// construction; fetching never mutates it.
type Handle struct {
	kind    Kind
	def     *schema.RelationshipDef
	owner   *schema.EntitySchema
	ownerID string
	linkage document.Linkage
	one     *Entity
	many    []*Entity

	// not owned; used only for follow-up reads
	fetcher Fetcher
}

type handleSpec struct {
	owner   *schema.EntitySchema
	ownerID string
	def     *schema.RelationshipDef
	linkage document.Linkage
	fetcher Fetcher
	one     *Entity
	many    []*Entity
}

// newHandle is the only constructor. The hydrator picks the kind.
func newHandle(kind Kind, spec handleSpec) *Handle {
	h := &Handle{
		kind:    kind,
		def:     spec.def,
		owner:   spec.owner,
		ownerID: spec.ownerID,
		linkage: spec.linkage,
		fetcher: spec.fetcher,
	}

	switch kind {
	case ResolvedOne:
		h.one = spec.one
	case ResolvedMany:
		h.many = spec.many
		if h.many == nil {
			h.many = []*Entity{}
		}
	case IDOne, IDMany:
	default:
		panic(fmt.Sprintf("entity: unknown handle kind %d", kind))
	}

	return h
}

// Kind returns the handle variant
func (h *Handle) Kind() Kind {
	return h.kind
}

// Def returns the relationship definition
func (h *Handle) Def() *schema.RelationshipDef {
	return h.def
}

// Owner returns the schema of the entity holding the handle
func (h *Handle) Owner() *schema.EntitySchema {
	return h.owner
}

// OwnerID returns the id of the entity holding the handle
func (h *Handle) OwnerID() string {
	return h.ownerID
}

// Linkage returns the relationship data of the source record. It is the zero
// Linkage when the record carried none.
func (h *Handle) Linkage() document.Linkage {
	return h.linkage
}

// Loaded reports whether the handle can answer without network I/O
func (h *Handle) Loaded() bool {
	return h.kind.Resolved()
}

// Value returns the resolved entity or entities. ok is false for
// fetch-on-demand handles; use Fetch, FetchOne or FetchMany for those.
func (h *Handle) Value() (value any, ok bool) {
	switch h.kind {
	case ResolvedOne:
		return h.one, true
	case ResolvedMany:
		return h.many, true
	}
	return nil, false
}

// FetchOne returns the related entity of a to-one handle. A resolved handle
// answers from memory unless options are given, in which case it is read
// again through the network like an IDOne handle.
func (h *Handle) FetchOne(ctx context.Context, opts ...FetchOption) (*Entity, error) {
	if h.kind.Many() {
		return nil, fmt.Errorf("%w: %s.%s is to-many", ErrCardinality, h.owner.Type, h.def.Name)
	}
	if h.kind == ResolvedOne && len(opts) == 0 {
		return h.one, nil
	}
	if h.fetcher == nil {
		return nil, ErrNoFetcher
	}

	// a known identifier is fetched from the target's own endpoint
	if id, ok := h.knownIdentifier(); ok {
		return h.fetcher.FetchOne(ctx, h.def.Target(), id, opts...)
	}

	related, err := h.fetcher.FetchRelated(ctx, h.owner, h.ownerID, h.def.Name, opts...)
	if err != nil {
		return nil, err
	}
	return related.One, nil
}

// FetchMany returns the related entities of a to-many handle. Missing
// included entries are nil at their position.
func (h *Handle) FetchMany(ctx context.Context, opts ...FetchOption) ([]*Entity, error) {
	if !h.kind.Many() {
		return nil, fmt.Errorf("%w: %s.%s is to-one", ErrCardinality, h.owner.Type, h.def.Name)
	}
	if h.kind == ResolvedMany && len(opts) == 0 {
		return h.many, nil
	}
	if h.fetcher == nil {
		return nil, ErrNoFetcher
	}

	related, err := h.fetcher.FetchRelated(ctx, h.owner, h.ownerID, h.def.Name, opts...)
	if err != nil {
		return nil, err
	}
	return related.Many, nil
}

// Fetch returns *Entity or []*Entity according to the handle's cardinality
func (h *Handle) Fetch(ctx context.Context, opts ...FetchOption) (any, error) {
	if h.kind.Many() {
		return h.FetchMany(ctx, opts...)
	}
	return h.FetchOne(ctx, opts...)
}

// knownIdentifier returns the linked id when it names the declared target
// type. Linkage of any other type goes through the relationship path.
func (h *Handle) knownIdentifier() (string, bool) {
	l := h.linkage
	if !l.Present || l.Many || len(l.Identifiers) != 1 || h.def.Target() == nil {
		return "", false
	}
	if l.Identifiers[0].Type != h.def.TargetName() {
		return "", false
	}
	return l.Identifiers[0].ID, true
}

// MarshalJSON renders resolved handles as their entities. Fetch-on-demand
// handles render as the record's relationship data when it had any, and as
// the owner id otherwise.
func (h *Handle) MarshalJSON() ([]byte, error) {
	switch h.kind {
	case ResolvedOne:
		return json.Marshal(h.one)
	case ResolvedMany:
		return json.Marshal(h.many)
	}
	if h.linkage.Present {
		return json.Marshal(h.linkage)
	}
	return json.Marshal(h.ownerID)
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s.%s(%s)", h.owner.Type, h.def.Name, h.kind)
}
