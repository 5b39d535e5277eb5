package schema

import (
	"errors"
	"fmt"
	"sync"
)

// Registry holds the declared resource types and resolves relationship
// targets by type tag.
//
// Registration never looks at relationship targets so that mutually
// referencing types can be registered in any order. Targets are resolved
// lazily, per type, on first use.
type Registry struct {
	schemas map[string]*EntitySchema
	order   []string
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]*EntitySchema),
	}
}

// Default is the process-wide registry used by the package-level helpers.
var Default = NewRegistry()

// Register adds a schema to the default registry
func Register(s *EntitySchema) error {
	return Default.Register(s)
}

// MustRegister adds schemas to the default registry and panics on error
func MustRegister(schemas ...*EntitySchema) {
	Default.MustRegister(schemas...)
}

// Resolve resolves a schema against the default registry
func Resolve(s *EntitySchema) error {
	return Default.Resolve(s)
}

// Register adds a schema. It fails for a nil schema, a type tag that is
// already registered, or a schema owned by another registry.
func (r *Registry) Register(s *EntitySchema) error {
	if s == nil {
		return &SchemaError{Err: errors.New("cannot register nil schema")}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.schemas[s.Type]; exists {
		if existing == s {
			return nil
		}
		return &SchemaError{Type: s.Type, Err: ErrDuplicateType}
	}
	if err := s.claim(r); err != nil {
		return err
	}

	r.schemas[s.Type] = s
	r.order = append(r.order, s.Type)
	return nil
}

// MustRegister registers schemas and panics on the first error
func (r *Registry) MustRegister(schemas ...*EntitySchema) {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Get retrieves a schema by type tag
func (r *Registry) Get(typeTag string) (*EntitySchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.schemas[typeTag]
	return s, exists
}

// Lookup retrieves a schema by type tag or returns a SchemaError
func (r *Registry) Lookup(typeTag string) (*EntitySchema, error) {
	s, ok := r.Get(typeTag)
	if !ok {
		return nil, &SchemaError{Type: typeTag, Err: ErrUnknownType}
	}
	return s, nil
}

// MustGet is like Lookup but panics when the type is not registered
func (r *Registry) MustGet(typeTag string) *EntitySchema {
	s, err := r.Lookup(typeTag)
	if err != nil {
		panic(err)
	}
	return s
}

// List returns the registered schemas in registration order
func (r *Registry) List() []*EntitySchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*EntitySchema, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.schemas[name])
	}
	return out
}

// Names returns the registered type tags in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Count returns the number of registered schemas
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.schemas)
}

// Exists checks if a type tag is registered
func (r *Registry) Exists(typeTag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.schemas[typeTag]
	return exists
}

// Clear removes all registered schemas (useful for testing). Removed schemas
// stay owned by r.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.schemas = make(map[string]*EntitySchema)
	r.order = nil
}

// Resolve rewrites every relationship of s whose target is still a name into
// a reference to the registered schema. Fields that are already resolved are
// left alone, so calling Resolve again is a no-op. If any name cannot be
// found the returned error joins one *SchemaError per field. Resolving a
// schema that was never registered binds it to r.
func (r *Registry) Resolve(s *EntitySchema) error {
	if s == nil {
		return &SchemaError{Err: ErrUnknownType}
	}
	if s.resolved.Load() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s.resolved.Load() {
		return nil
	}
	if err := s.claim(r); err != nil {
		return err
	}

	var errs []error
	for _, d := range s.relationships {
		if d.Resolved() {
			continue
		}
		target, ok := r.schemas[d.targetName]
		if !ok {
			errs = append(errs, &SchemaError{
				Type:  s.Type,
				Field: d.Name,
				Err:   fmt.Errorf("%w: %q", ErrUnresolvedTarget, d.targetName),
			})
			continue
		}
		d.target.Store(target)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	s.resolved.Store(true)
	return nil
}

// ResolveType resolves the schema registered under typeTag
func (r *Registry) ResolveType(typeTag string) error {
	s, err := r.Lookup(typeTag)
	if err != nil {
		return err
	}
	return r.Resolve(s)
}

// ResolveAll resolves every registered schema and reports all failures
func (r *Registry) ResolveAll() error {
	var errs []error
	for _, s := range r.List() {
		if err := r.Resolve(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RegistryStats summarizes the registry
type RegistryStats struct {
	TotalTypes          int
	TotalAttributes     int
	TotalRelationships  int
	UnresolvedTargets   int
	DefaultIncludes     int
	TypesWithForwardRef int
}

// GetStats returns statistics about the registry
func (r *Registry) GetStats() *RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &RegistryStats{TotalTypes: len(r.order)}
	for _, name := range r.order {
		s := r.schemas[name]
		stats.TotalAttributes += len(s.attributes)
		stats.TotalRelationships += len(s.relationships)
		stats.DefaultIncludes += len(s.defaultInclude)
		unresolved := s.unresolvedTargets()
		stats.UnresolvedTargets += unresolved
		if unresolved > 0 {
			stats.TypesWithForwardRef++
		}
	}
	return stats
}
