package report

import "github.com/couchcryptid/neighborhood-report-builder/internal/domain"

// LayerToggle maintains the request-type selection shared by the filter and
// the map legend. Changes are committed through the FilterStore, so the
// composite RangeSet and its subscribers see one atomic update.
type LayerToggle struct {
	store   *FilterStore
	catalog domain.Catalog
}

// NewLayerToggle binds a toggle to store.
func NewLayerToggle(store *FilterStore) *LayerToggle {
	return &LayerToggle{store: store, catalog: store.catalog}
}

// Toggle flips the selection of typeID.
func (l *LayerToggle) Toggle(typeID string) (domain.RangeSet, error) {
	return l.store.apply(func(rs domain.RangeSet) (domain.RangeSet, error) {
		types, err := domain.ToggleType(l.catalog, rs.RequestTypes, typeID)
		if err != nil {
			return rs, err
		}
		return domain.WithRequestTypes(rs, types), nil
	})
}

// SelectAll selects every catalog type.
func (l *LayerToggle) SelectAll() domain.RangeSet {
	rs, _ := l.store.apply(func(rs domain.RangeSet) (domain.RangeSet, error) {
		return domain.WithRequestTypes(rs, domain.SelectAllTypes(l.catalog)), nil
	})
	return rs
}

// DeselectAll clears the selection.
func (l *LayerToggle) DeselectAll() domain.RangeSet {
	rs, _ := l.store.apply(func(rs domain.RangeSet) (domain.RangeSet, error) {
		return domain.WithRequestTypes(rs, domain.DeselectAllTypes()), nil
	})
	return rs
}

// LegendEntry is one catalog type and whether it is currently selected.
type LegendEntry struct {
	Type     domain.RequestType
	Selected bool
}

// Legend returns the catalog in id order with the current selection applied.
func (l *LayerToggle) Legend() []LegendEntry {
	rs := l.store.Snapshot()
	types := l.catalog.Types()
	out := make([]LegendEntry, len(types))
	for i, t := range types {
		out[i] = LegendEntry{Type: t, Selected: rs.RequestTypes.Has(t.ID)}
	}
	return out
}
