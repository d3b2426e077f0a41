// Package controller implements the incremental pagination controller.
//
// A Controller turns user-driven triggers (initial load, filter change,
// scroll near the bottom, explicit "load more", local deletion) into an
// ordered, deduplicated, cached sequence of page fetches and exposes the
// accumulated result set as a consistent snapshot.
//
// Key properties:
//   - Single-flight: at most one load is in progress per epoch; a Load issued
//     while another is running is a no-op
//   - Cache hits apply synchronously inside the caller's call
//   - Failures leave the accumulated items untouched and surface a single
//     generic error in State.Err, cleared by the next successful load
//   - A reset starts a new epoch; responses that belong to a superseded epoch
//     are dropped without touching state
//
// Example usage:
//
//	c := controller.New[orders.Order](client.Feed(), orders.OrderID,
//	    controller.WithLogger(log),
//	)
//	c.Reload(ctx)                                   // page one
//	c.LoadMore(ctx)                                 // next page, if any
//	c.SetFilter(ctx, query.FilterSpec{}.WithSearch("bolt"))
//	c.Wait()
//	state := c.State()
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	paging "github.com/nrfta/feed-paging"
	"github.com/nrfta/feed-paging/cache"
	"github.com/nrfta/feed-paging/query"
)

var errNilPage = errors.New("fetcher returned no page")

// Controller owns the accumulated items, the result cache, the held cursor
// and the single-flight flag of one scrolling list. It is safe for concurrent use.
//
// Type parameter T is the item type; idOf extracts the identifier used for
// duplicate detection and local removal.
type Controller[T any] struct {
	fetcher paging.Fetcher[T]
	idOf    func(T) int64
	builder query.Builder
	cache   *cache.FIFO[*paging.Page[T]]
	logger  *zap.Logger
	tracer  trace.Tracer
	timeout time.Duration

	mu          sync.Mutex
	filter      query.FilterSpec
	items       []T
	cursor      *string
	hasMore     bool
	inFlight    bool
	loading     bool
	loadingMore bool
	err         error
	epoch       uint64
	cancel      context.CancelFunc
	listeners   []func(State[T])

	wg sync.WaitGroup
}

// New creates a Controller. No fetch is issued until Reload, SetFilter or Load is called.
func New[T any](fetcher paging.Fetcher[T], idOf func(T) int64, opts ...Option) *Controller[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Controller[T]{
		fetcher: fetcher,
		idOf:    idOf,
		builder: query.NewBuilder(o.config.EffectivePageSize()),
		cache:   cache.New[*paging.Page[T]](o.config.EffectiveCacheCapacity()),
		logger:  o.logger,
		tracer:  o.tracer,
		timeout: o.timeout,
		filter:  o.filter,
	}
}

// OnChange registers fn to receive a snapshot after every state transition.
// Callbacks run outside the controller's lock, on the goroutine that caused
// the transition, so snapshots published from different goroutines may
// arrive out of order. Listeners that care compare State.Epoch and drop a
// snapshot older than one already seen.
func (c *Controller[T]) OnChange(fn func(State[T])) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Load fetches one page. With reset the page replaces the accumulated items,
// otherwise it is appended. It returns false without doing anything when a
// load is already in flight. A cache hit is applied before Load returns;
// a miss is fetched on a separate goroutine and applied on completion.
func (c *Controller[T]) Load(ctx context.Context, reset bool, cursor *string) bool {
	c.mu.Lock()
	run := c.begin(ctx, reset, cursor)
	c.mu.Unlock()

	if run == nil {
		c.logger.Debug("load skipped, another load is in flight", zap.Bool("reset", reset))
		return false
	}
	run()
	return true
}

// LoadMore loads the page after the held cursor. It is a no-op when the
// collection is exhausted, a load is in flight, or a continuation load is
// already running. All load-more signals funnel through here.
func (c *Controller[T]) LoadMore(ctx context.Context) bool {
	c.mu.Lock()
	if !c.hasMore || c.inFlight || c.loadingMore {
		c.mu.Unlock()
		return false
	}
	run := c.begin(ctx, false, c.cursor)
	c.mu.Unlock()

	if run == nil {
		return false
	}
	run()
	return true
}

// SetFilter replaces the filter and sort configuration. When spec selects the
// same records in the same order as the current one nothing happens and
// false is returned; otherwise the controller resets and loads page one.
func (c *Controller[T]) SetFilter(ctx context.Context, spec query.FilterSpec) bool {
	c.mu.Lock()
	if spec.Equal(c.filter) {
		c.mu.Unlock()
		return false
	}
	c.filter = spec
	run := c.reset(ctx)
	c.mu.Unlock()

	run()
	return true
}

// Reload discards everything, including cached pages, and loads page one of
// the current filter again. It is also the initial load.
func (c *Controller[T]) Reload(ctx context.Context) {
	c.mu.Lock()
	run := c.reset(ctx)
	c.mu.Unlock()

	run()
}

// RemoveLocal drops every accumulated item whose identifier equals id and
// returns how many were removed. It never touches the network; callers use it
// after a deletion has been confirmed upstream.
func (c *Controller[T]) RemoveLocal(id int64) int {
	c.mu.Lock()
	kept := c.items[:0]
	for _, item := range c.items {
		if c.idOf(item) != id {
			kept = append(kept, item)
		}
	}
	removed := len(c.items) - len(kept)
	clear(c.items[len(kept):])
	c.items = kept
	state := c.snapshot()
	c.mu.Unlock()

	if removed > 0 {
		c.notify(state)
	}
	return removed
}

// State returns a snapshot of the accumulated items and flags.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// HasMore reports whether another page can be loaded.
func (c *Controller[T]) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// Loading reports whether a load is in flight.
func (c *Controller[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Filter returns the filter of the current epoch.
func (c *Controller[T]) Filter() query.FilterSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Wait blocks until every fetch goroutine has finished, including fetches
// of superseded epochs.
func (c *Controller[T]) Wait() {
	c.wg.Wait()
}

// Close cancels the in-flight fetch, if any, and waits for it to return.
// Its result is dropped.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	c.epoch++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.finish()
	c.mu.Unlock()

	c.wg.Wait()
}

// reset starts a new epoch. It must be called with c.mu held and returns the
// page-one load to run once the lock is released.
func (c *Controller[T]) reset(ctx context.Context) func() {
	c.epoch++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.finish()
	c.cache.Clear()
	c.cursor = nil
	c.items = nil
	c.hasMore = false

	c.logger.Info("pagination reset",
		zap.Uint64("epoch", c.epoch),
		zap.String("filter", c.filter.Key()),
	)

	return c.begin(ctx, true, nil)
}

// begin starts a load. It must be called with c.mu held. It returns nil when
// another load is in flight, otherwise a function to run after unlocking:
// it publishes the new state and, on a cache miss, launches the fetch.
func (c *Controller[T]) begin(ctx context.Context, reset bool, cursor *string) func() {
	if c.inFlight {
		return nil
	}

	c.inFlight = true
	if reset {
		c.loading = true
	} else {
		c.loadingMore = true
	}

	key := c.builder.Build(c.filter, cursor, reset)

	if page, ok := c.cache.Get(key); ok {
		c.logger.Debug("page served from cache", zap.Uint64("epoch", c.epoch), zap.String("query", key))
		c.apply(page, reset)
		c.finish()
		state := c.snapshot()
		return func() { c.notify(state) }
	}

	epoch := c.epoch
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.wg.Add(1)
	state := c.snapshot()

	return func() {
		c.notify(state)
		go c.fetch(fetchCtx, cancel, epoch, key, reset)
	}
}

func (c *Controller[T]) fetch(ctx context.Context, cancel context.CancelFunc, epoch uint64, key string, reset bool) {
	defer c.wg.Done()
	defer cancel()

	if c.timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, c.timeout)
		defer cancelTimeout()
	}

	requestID := paging.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = paging.WithRequestID(ctx, requestID)
	}

	ctx, span := c.tracer.Start(ctx, "controller.fetch", trace.WithAttributes(
		attribute.Int64("feed.epoch", int64(epoch)),
		attribute.Bool("feed.reset", reset),
	))
	defer span.End()

	log := c.logger.With(
		zap.Uint64("epoch", epoch),
		zap.Bool("reset", reset),
		zap.String("request_id", requestID),
	)

	start := time.Now()
	page, err := c.fetcher.Fetch(ctx, key)
	observeFetch(time.Since(start))
	if err == nil && page == nil {
		err = errNilPage
	}

	c.mu.Lock()
	if current := c.epoch; epoch != current {
		c.mu.Unlock()
		incFetch(outcomeStale)
		span.SetAttributes(attribute.Bool("feed.stale", true))
		log.Debug("dropping response of superseded epoch", zap.Uint64("current_epoch", current))
		return
	}

	if err != nil {
		c.err = &LoadError{Cause: err}
		c.finish()
		state := c.snapshot()
		c.mu.Unlock()

		incFetch(outcomeError)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("page fetch failed", zap.String("query", key), zap.Error(err))
		c.notify(state)
		return
	}

	c.cache.Put(key, page)
	c.apply(page, reset)
	c.finish()
	state := c.snapshot()
	c.mu.Unlock()

	incFetch(outcomeOK)
	span.SetAttributes(attribute.Int("feed.items", page.Len()))
	log.Debug("page applied",
		zap.Int("items", page.Len()),
		zap.Bool("has_next", page.Meta.HasNext),
	)
	c.notify(state)
}

// apply merges page into the accumulated items. It must be called with c.mu held.
// Items whose identifier is already present are skipped so the sequence never
// holds duplicates within an epoch.
func (c *Controller[T]) apply(page *paging.Page[T], reset bool) {
	if reset {
		c.items = make([]T, 0, len(page.Items))
	}

	seen := make(map[int64]struct{}, len(c.items)+len(page.Items))
	for _, item := range c.items {
		seen[c.idOf(item)] = struct{}{}
	}
	for _, item := range page.Items {
		id := c.idOf(item)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		c.items = append(c.items, item)
	}

	c.cursor = page.Meta.Cursor
	c.hasMore = page.Meta.HasNext
	c.err = nil
}

// finish clears the loading flags and releases the single-flight guard.
func (c *Controller[T]) finish() {
	c.inFlight = false
	c.loading = false
	c.loadingMore = false
	c.cancel = nil
}

func (c *Controller[T]) snapshot() State[T] {
	items := make([]T, len(c.items))
	copy(items, c.items)

	return State[T]{
		Items:       items,
		Cursor:      paging.NewCursor(paging.CursorValue(c.cursor)),
		HasMore:     c.hasMore,
		Loading:     c.loading,
		LoadingMore: c.loadingMore,
		Err:         c.err,
		Epoch:       c.epoch,
		Filter:      c.filter,
	}
}

func (c *Controller[T]) notify(state State[T]) {
	c.mu.Lock()
	listeners := c.listeners
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}
