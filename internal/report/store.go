package report

import (
	"log/slog"
	"sync"

	"github.com/couchcryptid/neighborhood-report-builder/internal/domain"
)

// rangeChange is delivered to store subscribers after each committed update.
type rangeChange struct {
	rs      domain.RangeSet
	version uint64
}

// FilterStore owns the current RangeSet of one session. Every mutation goes
// through a pure domain reducer and replaces the snapshot wholesale.
type FilterStore struct {
	mu       sync.Mutex
	catalog  domain.Catalog
	current  domain.RangeSet
	version  uint64
	dispatch dispatcher[rangeChange]
	logger   *slog.Logger
}

// NewFilterStore creates a store seeded with the catalog defaults.
func NewFilterStore(catalog domain.Catalog, logger *slog.Logger) *FilterStore {
	return &FilterStore{
		catalog: catalog,
		current: domain.DefaultRangeSet(catalog),
		logger:  logger,
	}
}

// Snapshot returns the current RangeSet.
func (s *FilterStore) Snapshot() domain.RangeSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *FilterStore) snapshot() (domain.RangeSet, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.version
}

// Update sets one filter dimension from its form value and returns the new
// RangeSet. On error the current RangeSet is returned unchanged.
func (s *FilterStore) Update(dim domain.Dimension, value string) (domain.RangeSet, error) {
	return s.apply(func(rs domain.RangeSet) (domain.RangeSet, error) {
		return domain.ApplyUpdate(rs, dim, value)
	})
}

// Subscribe registers fn to receive every committed RangeSet, in commit
// order. The returned func removes the subscription.
func (s *FilterStore) Subscribe(fn func(domain.RangeSet)) func() {
	return s.subscribe(func(c rangeChange) { fn(c.rs) })
}

func (s *FilterStore) subscribe(fn func(rangeChange)) func() {
	s.mu.Lock()
	id := s.dispatch.subs.add(fn)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.dispatch.subs.remove(id)
		s.mu.Unlock()
	}
}

// apply runs reducer against the current snapshot and commits the result.
// A result equal to the current snapshot is not a change and notifies nobody.
func (s *FilterStore) apply(reducer func(domain.RangeSet) (domain.RangeSet, error)) (domain.RangeSet, error) {
	s.mu.Lock()
	next, err := reducer(s.current)
	if err != nil {
		cur := s.current
		s.mu.Unlock()
		return cur, err
	}
	if next.Equal(s.current) {
		s.mu.Unlock()
		return next, nil
	}
	s.current = next
	s.version++
	change := rangeChange{rs: next, version: s.version}
	drain := s.dispatch.enqueue(change)
	s.mu.Unlock()

	s.logger.Debug("filters updated",
		"mode", next.Mode.String(),
		"version", change.version,
		"request_types", next.RequestTypes.Len(),
	)
	if drain {
		s.dispatch.deliver(&s.mu)
	}
	return next, nil
}
