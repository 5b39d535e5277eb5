// Package client fetches JSON:API resources and hydrates them into entities.
//
// A Session is the only component that performs I/O. Relationship handles
// that need a follow-up read call back into the Session that produced them.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/linkage/pkg/orm/document"
	"github.com/conduit-lang/linkage/pkg/orm/entity"
	"github.com/conduit-lang/linkage/pkg/orm/schema"
	"github.com/conduit-lang/linkage/pkg/orm/validation"
	"github.com/conduit-lang/linkage/pkg/transport"
)

// FetchOption configures a fetch
type FetchOption = entity.FetchOption

var (
	// WithInclude adds relationship paths to the include parameter
	WithInclude = entity.WithInclude

	// WithMeta adds fields to the with_meta parameter
	WithMeta = entity.WithMeta

	// WithParams adds opaque query parameters
	WithParams = entity.WithParams
)

// ErrNoTransport is returned by New when no transport is given
var ErrNoTransport = errors.New("client: transport is required")

// Session issues requests and hydrates their documents
type Session struct {
	baseURL   string
	transport transport.Transport
	registry  *schema.Registry
	validator validation.Validator
	logger    *zap.Logger
	hydrator  *entity.Hydrator
}

// Option configures a Session
type Option func(*Session)

// WithRegistry sets the registry used to resolve relationship targets.
// Defaults to schema.Default.
func WithRegistry(r *schema.Registry) Option {
	return func(s *Session) {
		s.registry = r
	}
}

// WithLogger sets the session logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithValidator replaces the attribute validator used during hydration
func WithValidator(v validation.Validator) Option {
	return func(s *Session) {
		s.validator = v
	}
}

// New creates a session for the service at baseURL
func New(baseURL string, t transport.Transport, opts ...Option) (*Session, error) {
	if t == nil {
		return nil, ErrNoTransport
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client: invalid base url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}

	s := &Session{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: t,
		registry:  schema.Default,
		validator: validation.NewSchemaValidator(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hydrator = entity.NewHydrator(s.registry, s,
		entity.WithValidator(s.validator),
		entity.WithLogger(s.logger),
	)
	return s, nil
}

// BaseURL returns the service root
func (s *Session) BaseURL() string {
	return s.baseURL
}

// Registry returns the session's schema registry
func (s *Session) Registry() *schema.Registry {
	return s.registry
}

// Schema looks up a registered schema by type tag
func (s *Session) Schema(typeTag string) (*schema.EntitySchema, error) {
	return s.registry.Lookup(typeTag)
}

// FetchOne issues GET {base}/{endpoint}/{id} and hydrates the resource
func (s *Session) FetchOne(ctx context.Context, es *schema.EntitySchema, id string, opts ...FetchOption) (*entity.Entity, error) {
	if err := s.registry.Resolve(es); err != nil {
		return nil, err
	}

	target := resourceURL(s.baseURL, es.Endpoint, id)
	doc, err := s.get(ctx, target, es, opts)
	if err != nil {
		return nil, err
	}

	res, err := doc.Single()
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}
	return s.hydrator.Hydrate(es, res, doc.Index())
}

// FetchAll issues GET {base}/{endpoint} and hydrates every resource. The
// entities of one response share a single hydration pass.
func (s *Session) FetchAll(ctx context.Context, es *schema.EntitySchema, opts ...FetchOption) ([]*entity.Entity, error) {
	if err := s.registry.Resolve(es); err != nil {
		return nil, err
	}

	doc, err := s.get(ctx, resourceURL(s.baseURL, es.Endpoint), es, opts)
	if err != nil {
		return nil, err
	}
	return s.hydrator.HydrateDocument(es, doc)
}

// FetchRelated issues GET {base}/{endpoint}/{id}/{field} and hydrates the
// result as the field's target type. The result holds one entity or a list
// according to the field's cardinality.
func (s *Session) FetchRelated(ctx context.Context, owner *schema.EntitySchema, id, field string, opts ...FetchOption) (entity.Related, error) {
	def, ok := owner.Relationship(field)
	if !ok {
		return entity.Related{}, &schema.SchemaError{Type: owner.Type, Field: field, Err: schema.ErrUnknownField}
	}
	return s.FetchRelationship(ctx, owner, id, def, opts...)
}

// FetchRelationship is FetchRelated for a relationship definition. The
// request carries the target type's default includes, never the owner's,
// because include paths are relative to the related resource.
func (s *Session) FetchRelationship(ctx context.Context, owner *schema.EntitySchema, id string, def *schema.RelationshipDef, opts ...FetchOption) (entity.Related, error) {
	if err := s.registry.Resolve(owner); err != nil {
		return entity.Related{}, err
	}
	target := def.Target()
	if err := s.registry.Resolve(target); err != nil {
		return entity.Related{}, err
	}

	doc, err := s.get(ctx, resourceURL(s.baseURL, owner.Endpoint, id, def.Name), target, opts)
	if err != nil {
		return entity.Related{}, err
	}

	entities, err := s.hydrator.HydrateDocument(target, doc)
	if err != nil {
		return entity.Related{}, err
	}

	related := entity.Related{Cardinality: def.Cardinality}
	if def.IsMany() {
		related.Many = entities
	} else if len(entities) > 0 {
		related.One = entities[0]
	}
	return related, nil
}

// FetchRelatedOne fetches a to-one relationship
func (s *Session) FetchRelatedOne(ctx context.Context, owner *schema.EntitySchema, id, field string, opts ...FetchOption) (*entity.Entity, error) {
	if def, ok := owner.Relationship(field); ok && def.IsMany() {
		return nil, fmt.Errorf("%w: %s.%s is to-many", entity.ErrCardinality, owner.Type, field)
	}
	related, err := s.FetchRelated(ctx, owner, id, field, opts...)
	if err != nil {
		return nil, err
	}
	return related.One, nil
}

// FetchRelatedMany fetches a to-many relationship
func (s *Session) FetchRelatedMany(ctx context.Context, owner *schema.EntitySchema, id, field string, opts ...FetchOption) ([]*entity.Entity, error) {
	if def, ok := owner.Relationship(field); ok && !def.IsMany() {
		return nil, fmt.Errorf("%w: %s.%s is to-one", entity.ErrCardinality, owner.Type, field)
	}
	related, err := s.FetchRelated(ctx, owner, id, field, opts...)
	if err != nil {
		return nil, err
	}
	return related.Many, nil
}

// get performs the request and parses the body. Transport errors are
// returned unchanged.
func (s *Session) get(ctx context.Context, target string, es *schema.EntitySchema, opts []FetchOption) (*document.Document, error) {
	params := buildParams(es, entity.Apply(opts...))

	s.logger.Debug("fetch",
		zap.String("type", es.Type),
		zap.String("url", target),
		zap.String("include", params["include"]),
	)

	body, err := s.transport.Get(ctx, target, params)
	if err != nil {
		return nil, err
	}

	doc, err := document.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}
	return doc, nil
}

var _ entity.Fetcher = (*Session)(nil)
