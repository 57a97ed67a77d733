package domain

import "sort"

// RequestType describes one 311 request category as shown in the map legend.
type RequestType struct {
	ID          string `yaml:"id" json:"id"`
	DisplayName string `yaml:"displayName" json:"displayName"`
	Color       string `yaml:"color" json:"color"`
}

// Catalog is the immutable set of request types available for filtering.
type Catalog struct {
	types map[string]RequestType
	ids   []string // sorted
}

// NewCatalog builds a catalog from the given types. Later duplicates replace
// earlier ones.
func NewCatalog(types []RequestType) Catalog {
	m := make(map[string]RequestType, len(types))
	for _, t := range types {
		m[t.ID] = t
	}
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return Catalog{types: m, ids: ids}
}

// Has reports whether id is a known request type.
func (c Catalog) Has(id string) bool {
	_, ok := c.types[id]
	return ok
}

// Get returns the request type for id.
func (c Catalog) Get(id string) (RequestType, bool) {
	t, ok := c.types[id]
	return t, ok
}

// IDs returns the catalog ids in ascending order.
func (c Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Types returns all request types ordered by id.
func (c Catalog) Types() []RequestType {
	out := make([]RequestType, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.types[id])
	}
	return out
}

// Len returns the number of request types.
func (c Catalog) Len() int { return len(c.ids) }

// All returns a TypeSet holding every catalog id.
func (c Catalog) All() TypeSet {
	return NewTypeSet(c.ids...)
}
