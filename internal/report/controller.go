package report

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/neighborhood-report-builder/internal/domain"
	"github.com/couchcryptid/neighborhood-report-builder/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Generator produces a report link for a validated descriptor. It may block;
// the controller always calls it off the caller's goroutine.
type Generator interface {
	Generate(ctx context.Context, q domain.QueryDescriptor) (string, error)
}

// Status is the lifecycle phase of report generation.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusGenerating Status = "generating"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// DefaultMinGenerating keeps the loading indicator visible for at least this
// long after a build request.
const DefaultMinGenerating = time.Second

// ErrClosed is returned by RequestBuild after Close.
var ErrClosed = errors.New("report controller closed")

// GenerationError records a rejected generation. It is the only error stored
// in a failed GenerationState.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return "report generation failed: " + e.Cause.Error()
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// GenerationState is an immutable snapshot of the controller.
//
// Link is set only when Status is ready and Err only when it is failed.
// Seq identifies the build request that produced the state; results carrying
// any other Seq are stale.
type GenerationState struct {
	Status      Status
	Link        string
	Err         *GenerationError
	Query       domain.QueryDescriptor
	RequestedAt time.Time
	Seq         uint64
}

// ControllerOptions tunes a Controller. Zero values select defaults.
type ControllerOptions struct {
	Clock         clockwork.Clock
	MinGenerating time.Duration // negative disables the floor
	Timeout       time.Duration // per generation; 0 means no timeout
}

// Controller is the report-generation state machine:
//
//	idle ──RequestBuild──▶ generating ──ok──▶ ready
//	  ▲                      │   └──err──▶ failed
//	  └──── filter change ───┴──────────────┘
//
// At most one generation is active. RequestBuild while generating is
// ignored. A filter change returns the controller to idle and retires the
// active request; its result is then discarded when it arrives.
type Controller struct {
	store     *FilterStore
	catalog   domain.Catalog
	generator Generator
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	minGen    time.Duration
	timeout   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	state        GenerationState
	seq          uint64
	builtVersion uint64 // store version the active state was built from
	stale        uint64
	closed       bool
	dispatch     dispatcher[GenerationState]
	unsubscribe  func()
}

// NewController creates a controller in the idle state and subscribes it to
// store so filter changes invalidate outdated results.
func NewController(store *FilterStore, generator Generator, logger *slog.Logger, metrics *observability.Metrics, opts ControllerOptions) *Controller {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	switch {
	case opts.MinGenerating == 0:
		opts.MinGenerating = DefaultMinGenerating
	case opts.MinGenerating < 0:
		opts.MinGenerating = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		store:     store,
		catalog:   store.catalog,
		generator: generator,
		logger:    logger,
		metrics:   metrics,
		clock:     opts.Clock,
		minGen:    opts.MinGenerating,
		timeout:   opts.Timeout,
		ctx:       ctx,
		cancel:    cancel,
		state:     GenerationState{Status: StatusIdle},
	}
	c.unsubscribe = store.subscribe(func(ch rangeChange) { c.invalidate(ch.version) })
	return c
}

// State returns the current snapshot.
func (c *Controller) State() GenerationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StaleResults returns how many generation results were discarded because a
// newer request or a filter change superseded them.
func (c *Controller) StaleResults() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

// Subscribe registers fn to receive every committed state, in commit order.
// fn may run on whichever goroutine is delivering when the state commits, so
// a slow subscriber delays later notifications but never reorders them. The
// returned func removes the subscription.
func (c *Controller) Subscribe(fn func(GenerationState)) func() {
	c.mu.Lock()
	id := c.dispatch.subs.add(fn)
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.dispatch.subs.remove(id)
		c.mu.Unlock()
	}
}

// RequestBuild validates the current filters and starts a generation.
//
// A validation error is returned as-is and leaves the state untouched. While
// a generation is already running the call is a no-op and returns nil.
func (c *Controller) RequestBuild() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state.Status == StatusGenerating {
		seq := c.state.Seq
		c.mu.Unlock()
		c.metrics.BuildRequests.WithLabelValues("ignored").Inc()
		c.logger.Debug("build already in progress, ignoring request", "seq", seq)
		return nil
	}

	// Read the filters under c.mu so a concurrent update's invalidation is
	// ordered strictly before or after this build.
	rs, version := c.store.snapshot()
	q, err := domain.BuildQuery(rs, c.catalog)
	if err != nil {
		c.mu.Unlock()
		c.metrics.BuildRequests.WithLabelValues("invalid").Inc()
		return err
	}

	c.seq++
	next := GenerationState{
		Status:      StatusGenerating,
		Query:       q,
		RequestedAt: c.clock.Now(),
		Seq:         c.seq,
	}
	c.state = next
	c.builtVersion = version
	c.wg.Add(1)
	drain := c.dispatch.enqueue(next)
	c.mu.Unlock()

	c.metrics.BuildRequests.WithLabelValues("started").Inc()
	c.logger.Info("report generation started",
		"seq", next.Seq,
		"start_date", q.StartDate.Format(domain.DateLayout),
		"end_date", q.EndDate.Format(domain.DateLayout),
		"council", q.Council,
		"request_types", len(q.RequestTypes),
	)
	if drain {
		c.dispatch.deliver(&c.mu)
	}

	go c.generate(next)
	return nil
}

// Close retires the active request, cancels in-flight generator calls and
// waits for them to return. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.unsubscribe()
	c.cancel()
	c.wg.Wait()
}

func (c *Controller) generate(req GenerationState) {
	defer c.wg.Done()

	ctx := c.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	link, err := c.generator.Generate(ctx, req.Query)
	c.holdFloor(req.RequestedAt)
	c.resolve(req, link, err)
}

// holdFloor blocks until the minimum generating duration has elapsed since
// requestedAt, or the controller is closed.
func (c *Controller) holdFloor(requestedAt time.Time) {
	remaining := c.minGen - c.clock.Since(requestedAt)
	if remaining <= 0 {
		return
	}
	select {
	case <-c.clock.After(remaining):
	case <-c.ctx.Done():
	}
}

func (c *Controller) resolve(req GenerationState, link string, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.state.Status != StatusGenerating || c.state.Seq != req.Seq {
		c.stale++
		current := c.state
		c.mu.Unlock()
		c.metrics.StaleResults.Inc()
		c.logger.Debug("discarding stale generation result",
			"seq", req.Seq,
			"current_seq", current.Seq,
			"current_status", string(current.Status),
		)
		return
	}

	next := GenerationState{
		Query:       req.Query,
		RequestedAt: req.RequestedAt,
		Seq:         req.Seq,
	}
	if err != nil {
		next.Status = StatusFailed
		next.Err = &GenerationError{Cause: err}
	} else {
		next.Status = StatusReady
		next.Link = link
	}
	c.state = next
	drain := c.dispatch.enqueue(next)
	c.mu.Unlock()

	c.metrics.GenerationDuration.Observe(c.clock.Since(req.RequestedAt).Seconds())
	c.metrics.Generations.WithLabelValues(string(next.Status)).Inc()
	if err != nil {
		c.logger.Warn("report generation failed", "seq", req.Seq, "error", err)
	} else {
		c.logger.Info("report generation ready", "seq", req.Seq)
	}
	if drain {
		c.dispatch.deliver(&c.mu)
	}
}

// invalidate returns the controller to idle when the filters it was built
// from have changed.
func (c *Controller) invalidate(version uint64) {
	c.mu.Lock()
	if c.closed || c.state.Status == StatusIdle || version <= c.builtVersion {
		c.mu.Unlock()
		return
	}
	prev := c.state.Status
	next := GenerationState{Status: StatusIdle}
	c.state = next
	drain := c.dispatch.enqueue(next)
	c.mu.Unlock()

	c.metrics.Invalidations.Inc()
	c.logger.Debug("filters changed, result invalidated", "previous_status", string(prev))
	if drain {
		c.dispatch.deliver(&c.mu)
	}
}
