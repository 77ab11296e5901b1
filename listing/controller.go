package listing

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/yashrajoria/bms-storefront/apperrors"
	"github.com/yashrajoria/bms-storefront/logger"
	"github.com/yashrajoria/bms-storefront/models"
)

// Page is one fetched page of items.
type Page[T any] struct {
	Items      []T
	Pagination models.Pagination
}

// FetchFunc loads the page described by params.
type FetchFunc[T any] func(ctx context.Context, params url.Values) (Page[T], error)

// State is a snapshot of what a list view renders.
type State[T any] struct {
	Query      Query
	Search     string // canonical query string, for the address bar
	Items      []T
	Pagination models.Pagination
	Loading    bool
	Err        error
	CanPrev    bool
	CanNext    bool
}

// Controller owns a list view's query and the page fetched for it. Every query
// change triggers a fetch; only the response to the most recent fetch is ever
// applied, whatever order responses arrive in.
type Controller[T any] struct {
	vocab Vocabulary
	fetch FetchFunc[T]
	log   *zap.Logger
	base  context.Context

	mu         sync.Mutex
	query      Query
	items      []T
	pagination models.Pagination
	known      bool // pagination was answered for the current query
	loading    bool
	lastErr    error
	seq        uint64
	cancel     context.CancelFunc
	closed     bool
	onChange   func(State[T])

	inflight sync.WaitGroup
}

func NewController[T any](ctx context.Context, vocab Vocabulary, fetch FetchFunc[T], log *zap.Logger) *Controller[T] {
	return &Controller[T]{
		vocab: vocab,
		fetch: fetch,
		log:   logger.OrNop(log).With(zap.String("listing", vocab.Name)),
		base:  ctx,
		query: vocab.Defaults,
	}
}

// OnChange registers fn to receive a snapshot after every state change.
func (c *Controller[T]) OnChange(fn func(State[T])) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Navigate replaces the whole query with the one encoded in raw and fetches it.
func (c *Controller[T]) Navigate(raw string) {
	q := c.vocab.Decode(raw)
	c.update(func(Query) Query { return q })
}

// SetSearch filters by free text and returns to the first page.
func (c *Controller[T]) SetSearch(text string) {
	c.update(func(q Query) Query {
		q.Query, q.Page = text, 1
		return q
	})
}

// SetCategory filters by category; "" or ALL shows every category.
func (c *Controller[T]) SetCategory(category string) {
	c.update(func(q Query) Query {
		q.Category, q.Page = category, 1
		return q
	})
}

// SetSort applies a sort dropdown choice and returns to the first page.
func (c *Controller[T]) SetSort(choice string) {
	c.update(func(q Query) Query {
		q = c.vocab.ApplySort(q, choice)
		q.Page = 1
		return q
	})
}

// SetStatus filters by order status and returns to the first page.
func (c *Controller[T]) SetStatus(status string) {
	c.update(func(q Query) Query {
		q.Status, q.Page = status, 1
		return q
	})
}

// SetLimit changes the page size and returns to the first page.
func (c *Controller[T]) SetLimit(limit int) {
	c.update(func(q Query) Query {
		q.Limit, q.Page = limit, 1
		return q
	})
}

// SetPage jumps to page, clamped to the page range once it is known for the
// current query. An out-of-range page asked for earlier is clamped when the
// answer arrives.
func (c *Controller[T]) SetPage(page int) {
	c.update(func(q Query) Query {
		q.Page = c.clampLocked(page)
		return q
	})
}

// Next moves one page forward. It does nothing on a known last page.
func (c *Controller[T]) Next() {
	c.update(func(q Query) Query {
		if !c.known || CanNext(q.Page, c.pagination.TotalPage) {
			q.Page++
		}
		return q
	})
}

// Prev moves one page back. It does nothing on the first page.
func (c *Controller[T]) Prev() {
	c.update(func(q Query) Query {
		if CanPrev(q.Page) {
			q.Page = c.clampLocked(q.Page - 1)
		}
		return q
	})
}

func (c *Controller[T]) clampLocked(page int) int {
	if !c.known {
		return Clamp(page, page)
	}
	return Clamp(page, c.pagination.TotalPage)
}

// Refresh refetches the current query.
func (c *Controller[T]) Refresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.startLocked()
	st := c.stateLocked()
	fn := c.onChange
	c.mu.Unlock()
	notify(fn, st)
}

// Wait blocks until no fetch is in flight.
func (c *Controller[T]) Wait() {
	c.inflight.Wait()
}

// State returns the current snapshot.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Close cancels any in-flight fetch and stops further updates.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
	c.inflight.Wait()
}

// update applies change to the query and fetches when the query moved.
// Page moves that land on the current page do not refetch.
func (c *Controller[T]) update(change func(Query) Query) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	next := c.vocab.Normalize(change(c.query))
	if next == c.query && c.seq > 0 {
		c.mu.Unlock()
		return
	}
	if next != c.query {
		c.known = false
	}
	c.query = next
	c.startLocked()
	st := c.stateLocked()
	fn := c.onChange
	c.mu.Unlock()
	notify(fn, st)
}

// startLocked issues a fetch for the current query, superseding any fetch
// still in flight. Must be called with mu held.
func (c *Controller[T]) startLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	c.loading = true
	params := c.vocab.Params(c.query)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer cancel()
		page, err := c.fetch(ctx, params)
		c.complete(seq, params, page, err)
	}()
}

func (c *Controller[T]) complete(seq uint64, params url.Values, page Page[T], err error) {
	c.mu.Lock()
	if seq != c.seq || c.closed {
		c.mu.Unlock()
		c.log.Debug("discarding stale listing response",
			zap.Uint64("seq", seq), zap.String("params", params.Encode()))
		return
	}

	c.loading = false
	if err != nil {
		// keep the previous page visible
		if !errors.Is(err, context.Canceled) {
			c.lastErr = apperrors.ErrFetch.Wrap(err)
			c.log.Error("listing fetch failed", zap.Error(c.lastErr), zap.String("params", params.Encode()))
		}
	} else {
		c.items = page.Items
		c.pagination = page.Pagination
		c.known = true
		c.lastErr = nil
		if last := lastPage(page.Pagination.TotalPage); c.vocab.Has(KeyPage) && c.query.Page > last {
			c.log.Debug("page out of range, clamping",
				zap.Int("page", c.query.Page), zap.Int("total_page", page.Pagination.TotalPage))
			c.query.Page = last
			c.known = false
			c.startLocked()
		}
	}
	st := c.stateLocked()
	fn := c.onChange
	c.mu.Unlock()
	notify(fn, st)
}

func (c *Controller[T]) stateLocked() State[T] {
	items := make([]T, len(c.items))
	copy(items, c.items)
	return State[T]{
		Query:      c.query,
		Search:     c.vocab.Encode(c.query),
		Items:      items,
		Pagination: c.pagination,
		Loading:    c.loading,
		Err:        c.lastErr,
		CanPrev:    c.vocab.Has(KeyPage) && CanPrev(c.query.Page),
		CanNext:    c.vocab.Has(KeyPage) && CanNext(c.query.Page, c.pagination.TotalPage),
	}
}

func notify[T any](fn func(State[T]), st State[T]) {
	if fn != nil {
		fn(st)
	}
}
