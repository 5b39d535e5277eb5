package document

// Key addresses a resource by type and id.
type Key struct {
	Type string
	ID   string
}

// KeyOf returns the index key for a type and id.
func KeyOf(typ, id string) Key {
	return Key{Type: typ, ID: id}
}

// IncludedIndex maps (type, id) to included resources. It is built once per
// document and lives for a single hydration pass. Lookups are O(1).
//
// A nil *IncludedIndex is valid and contains nothing.
type IncludedIndex struct {
	items map[Key]*Resource
}

// NewIndex indexes resources. When the same (type, id) appears twice the
// first occurrence wins.
func NewIndex(resources []Resource) *IncludedIndex {
	idx := &IncludedIndex{items: make(map[Key]*Resource, len(resources))}
	for i := range resources {
		k := KeyOf(resources[i].Type, resources[i].ID)
		if _, exists := idx.items[k]; exists {
			continue
		}
		idx.items[k] = &resources[i]
	}
	return idx
}

// Lookup returns the included resource for a type and id.
func (idx *IncludedIndex) Lookup(typ, id string) (*Resource, bool) {
	if idx == nil {
		return nil, false
	}
	r, ok := idx.items[KeyOf(typ, id)]
	return r, ok
}

// Find resolves identifiers in order. Missing resources yield nil at their
// position so callers can keep list positions aligned with the linkage.
func (idx *IncludedIndex) Find(ids ...Identifier) []*Resource {
	found := make([]*Resource, len(ids))
	for i, id := range ids {
		found[i], _ = idx.Lookup(id.Type, id.ID)
	}
	return found
}

// Len returns the number of indexed resources.
func (idx *IncludedIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.items)
}
