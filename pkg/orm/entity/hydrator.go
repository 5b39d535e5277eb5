package entity

import (
	"go.uber.org/zap"

	"github.com/conduit-lang/linkage/pkg/orm/document"
	"github.com/conduit-lang/linkage/pkg/orm/schema"
	"github.com/conduit-lang/linkage/pkg/orm/validation"
)

// Hydrator converts decoded resources into entities. It keeps no state between
// calls; every Hydrate call is its own pass with its own visited set.
type Hydrator struct {
	registry  *schema.Registry
	fetcher   Fetcher
	validator validation.Validator
	logger    *zap.Logger
}

// Option configures a Hydrator
type Option func(*Hydrator)

// WithValidator replaces the default schema validator
func WithValidator(v validation.Validator) Option {
	return func(h *Hydrator) {
		h.validator = v
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(logger *zap.Logger) Option {
	return func(h *Hydrator) {
		h.logger = logger
	}
}

// NewHydrator creates a hydrator. A nil registry means schema.Default. The
// fetcher is handed to every handle for follow-up reads and may be nil.
func NewHydrator(registry *schema.Registry, fetcher Fetcher, opts ...Option) *Hydrator {
	if registry == nil {
		registry = schema.Default
	}
	h := &Hydrator{
		registry:  registry,
		fetcher:   fetcher,
		validator: validation.NewSchemaValidator(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hydrate builds the entity for one resource. idx may be nil, in which case
// every relationship becomes a fetch-on-demand handle.
func (h *Hydrator) Hydrate(s *schema.EntitySchema, res *document.Resource, idx *document.IncludedIndex) (*Entity, error) {
	return h.newPass(idx).hydrate(s, res)
}

// HydrateAll builds entities for a list of resources in a single pass, so
// resources shared between them are hydrated once.
func (h *Hydrator) HydrateAll(s *schema.EntitySchema, resources []document.Resource, idx *document.IncludedIndex) ([]*Entity, error) {
	p := h.newPass(idx)
	out := make([]*Entity, 0, len(resources))
	for i := range resources {
		e, err := p.hydrate(s, &resources[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// HydrateDocument hydrates the primary data of doc against its own included
// member.
func (h *Hydrator) HydrateDocument(s *schema.EntitySchema, doc *document.Document) ([]*Entity, error) {
	return h.HydrateAll(s, doc.Data, doc.Index())
}

func (h *Hydrator) newPass(idx *document.IncludedIndex) *pass {
	return &pass{
		hydrator: h,
		idx:      idx,
		active:   make(map[document.Key]*Entity),
		done:     make(map[document.Key]*Entity),
	}
}

// pass is the state of one hydration. active holds entities whose
// relationships are still being built; done holds finished ones.
type pass struct {
	hydrator *Hydrator
	idx      *document.IncludedIndex
	active   map[document.Key]*Entity
	done     map[document.Key]*Entity
}

func (p *pass) hydrate(s *schema.EntitySchema, res *document.Resource) (*Entity, error) {
	if err := p.hydrator.registry.Resolve(s); err != nil {
		return nil, err
	}

	key := document.KeyOf(res.Type, res.ID)
	if e, ok := p.done[key]; ok {
		return e, nil
	}
	if _, ok := p.active[key]; ok {
		return p.reference(s, res.ID), nil
	}

	e := &Entity{
		schema:        s,
		id:            res.ID,
		meta:          cloneMeta(res.Meta),
		links:         res.Links,
		attributes:    cloneAttributes(res.Attributes),
		relationships: make(map[string]*Handle),
	}

	p.active[key] = e
	defer delete(p.active, key)

	for _, def := range s.Relationships() {
		handle, err := p.relationship(s, res, def)
		if err != nil {
			return nil, err
		}
		e.relationships[def.Name] = handle
	}

	if p.hydrator.validator != nil {
		if err := p.hydrator.validator.Validate(s, e.attributes); err != nil {
			return nil, &HydrationError{Type: s.Type, ID: res.ID, Err: err}
		}
	}

	p.done[key] = e
	return e, nil
}

func (p *pass) relationship(s *schema.EntitySchema, res *document.Resource, def *schema.RelationshipDef) (*Handle, error) {
	rel, named := res.Relationships[def.Name]
	spec := handleSpec{
		owner:   s,
		ownerID: res.ID,
		def:     def,
		linkage: rel.Data,
		fetcher: p.hydrator.fetcher,
	}

	if !named || !rel.Data.Present || p.idx == nil {
		if def.IsMany() {
			return newHandle(IDMany, spec), nil
		}
		return newHandle(IDOne, spec), nil
	}

	ids := rel.Data.Identifiers

	if def.IsMany() {
		many := make([]*Entity, len(ids))
		for i, id := range ids {
			e, err := p.related(def, id)
			if err != nil {
				return nil, err
			}
			many[i] = e
		}
		spec.many = many
		return newHandle(ResolvedMany, spec), nil
	}

	if len(ids) > 0 {
		e, err := p.related(def, ids[0])
		if err != nil {
			return nil, err
		}
		spec.one = e
	}
	return newHandle(ResolvedOne, spec), nil
}

// related hydrates the included resource behind id. Missing resources yield
// nil.
func (p *pass) related(def *schema.RelationshipDef, id document.Identifier) (*Entity, error) {
	res, ok := p.idx.Lookup(id.Type, id.ID)
	if !ok {
		p.hydrator.logger.Debug("included resource missing",
			zap.String("field", def.Name),
			zap.String("type", id.Type),
			zap.String("id", id.ID),
		)
		return nil, nil
	}
	return p.hydrate(p.target(def, id.Type), res)
}

// target prefers the registered schema for the identifier's type, which lets
// a relationship point at more than one type.
func (p *pass) target(def *schema.RelationshipDef, typeTag string) *schema.EntitySchema {
	if typeTag != def.TargetName() {
		if s, ok := p.hydrator.registry.Get(typeTag); ok {
			return s
		}
	}
	return def.Target()
}

// reference builds the placeholder returned when a cycle leads back to an
// entity that is still being hydrated.
func (p *pass) reference(s *schema.EntitySchema, id string) *Entity {
	e := &Entity{
		schema:        s,
		id:            id,
		meta:          document.Meta{},
		attributes:    map[string]any{},
		relationships: make(map[string]*Handle),
		reference:     true,
	}
	for _, def := range s.Relationships() {
		spec := handleSpec{owner: s, ownerID: id, def: def, fetcher: p.hydrator.fetcher}
		if def.IsMany() {
			e.relationships[def.Name] = newHandle(IDMany, spec)
		} else {
			e.relationships[def.Name] = newHandle(IDOne, spec)
		}
	}
	return e
}

func cloneMeta(m document.Meta) document.Meta {
	out := make(document.Meta, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAttributes(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
