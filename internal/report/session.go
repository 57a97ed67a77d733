package report

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/neighborhood-report-builder/internal/domain"
	"github.com/couchcryptid/neighborhood-report-builder/internal/observability"
	"github.com/jonboulle/clockwork"
)

// EventSink receives report outcome events. Publish must not block.
type EventSink interface {
	Publish(event domain.ReportEvent)
}

// SessionDeps are the collaborators shared by every session.
type SessionDeps struct {
	Catalog   domain.Catalog
	Generator Generator
	Events    EventSink // optional
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	Options   ControllerOptions
}

// Session is the explicit per-user context that owns one RangeSet and one
// GenerationState. Its methods are the only mutation entry points.
type Session struct {
	ID string

	filters    *FilterStore
	layers     *LayerToggle
	generation *Controller
	clock      clockwork.Clock
	lastActive atomic.Int64 // unix nanos
	unsubEvent func()
}

// NewSession constructs a session with default filters and an idle controller.
func NewSession(id string, deps SessionDeps) *Session {
	if deps.Options.Clock == nil {
		deps.Options.Clock = clockwork.NewRealClock()
	}
	logger := deps.Logger.With("session_id", id)

	store := NewFilterStore(deps.Catalog, logger)
	s := &Session{
		ID:         id,
		filters:    store,
		layers:     NewLayerToggle(store),
		generation: NewController(store, deps.Generator, logger, deps.Metrics, deps.Options),
		clock:      deps.Options.Clock,
	}
	if deps.Events != nil {
		s.unsubEvent = s.generation.Subscribe(func(st GenerationState) {
			publishOutcome(deps.Events, id, st)
		})
	}
	s.touch()
	return s
}

func publishOutcome(sink EventSink, sessionID string, st GenerationState) {
	switch st.Status {
	case StatusReady:
		sink.Publish(domain.NewReportEvent(sessionID, st.Query, st.Link, nil, st.RequestedAt))
	case StatusFailed:
		sink.Publish(domain.NewReportEvent(sessionID, st.Query, "", st.Err, st.RequestedAt))
	}
}

// Update sets one filter dimension.
func (s *Session) Update(dim domain.Dimension, value string) (domain.RangeSet, error) {
	s.touch()
	return s.filters.Update(dim, value)
}

// Toggle flips one request-type layer.
func (s *Session) Toggle(typeID string) (domain.RangeSet, error) {
	s.touch()
	return s.layers.Toggle(typeID)
}

// SelectAll selects every request-type layer.
func (s *Session) SelectAll() domain.RangeSet {
	s.touch()
	return s.layers.SelectAll()
}

// DeselectAll clears the request-type selection.
func (s *Session) DeselectAll() domain.RangeSet {
	s.touch()
	return s.layers.DeselectAll()
}

// RequestBuild asks the controller to generate a link for the current filters.
func (s *Session) RequestBuild() error {
	s.touch()
	return s.generation.RequestBuild()
}

// Filters returns the current RangeSet.
func (s *Session) Filters() domain.RangeSet { return s.filters.Snapshot() }

// Generation returns the current GenerationState.
func (s *Session) Generation() GenerationState { return s.generation.State() }

// Legend returns the layer legend with the current selection.
func (s *Session) Legend() []LegendEntry { return s.layers.Legend() }

// StaleResults exposes the controller's discarded-result counter.
func (s *Session) StaleResults() uint64 { return s.generation.StaleResults() }

// SubscribeFilters registers a renderer for RangeSet changes.
func (s *Session) SubscribeFilters(fn func(domain.RangeSet)) func() {
	return s.filters.Subscribe(fn)
}

// SubscribeGeneration registers a renderer for GenerationState changes.
func (s *Session) SubscribeGeneration(fn func(GenerationState)) func() {
	return s.generation.Subscribe(fn)
}

// LastActive returns when a mutation entry point was last called.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Close tears the session down, waiting for in-flight generations.
func (s *Session) Close() {
	if s.unsubEvent != nil {
		s.unsubEvent()
	}
	s.generation.Close()
}

func (s *Session) touch() {
	s.lastActive.Store(s.clock.Now().UnixNano())
}
