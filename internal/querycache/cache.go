// Package querycache is a client-side cache of remote API reads keyed by
// request signature. Concurrent reads of one signature share a single
// request, mutations invalidate entries by tag, and subscribers are pushed
// every state change of the entries they watch.
package querycache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"jewelry-storefront/internal/logging"
)

type fetchFunc func(ctx context.Context) (any, []Tag, error)

type entry struct {
	sig        string
	fetch      fetchFunc
	status     Status
	data       any
	hasData    bool
	err        error
	tags       []Tag
	stale      bool
	fetching   bool
	refetch    bool // invalidated while a fetch was in flight
	updatedAt  time.Time
	generation uint64
	seq        uint64
	subs       map[uint64]*subscriber
	evict      *time.Timer

	// pending holds invalidations that arrived during a fetch and matched
	// none of the entry's tags. They are checked against the fetched tags.
	pending     []pendingInvalidation
	invalidated uint64 // epoch of the last invalidation that hit the entry
}

func (e *entry) snapshot() Entry {
	return Entry{
		Signature:   e.sig,
		Status:      e.status,
		Data:        e.data,
		Err:         e.err,
		HasData:     e.hasData,
		Stale:       e.stale,
		Fetching:    e.fetching,
		UpdatedAt:   e.updatedAt,
		Subscribers: len(e.subs),
		Generation:  e.generation,
		seq:         e.seq,
	}
}

func (e *entry) subscribers() []*subscriber {
	out := make([]*subscriber, 0, len(e.subs))
	for _, s := range e.subs {
		out = append(out, s)
	}
	return out
}

func (e *entry) provides(tags []Tag) bool {
	for _, inv := range tags {
		for _, p := range e.tags {
			if inv.matches(p) {
				return true
			}
		}
	}
	return false
}

type pendingInvalidation struct {
	tags  []Tag
	epoch uint64
}

// applyPending marks e for refetch when an invalidation recorded during the
// fetch matches the tags the fetch produced.
func (e *entry) applyPending() {
	for _, p := range e.pending {
		if !e.provides(p.tags) {
			continue
		}
		e.refetch = true
		if p.epoch > e.invalidated {
			e.invalidated = p.epoch
		}
	}
	e.pending = nil
}

// fetchResult is what one shared request hands to everyone who joined it.
// start is the invalidation epoch when the request was issued.
type fetchResult struct {
	snap  Entry
	start uint64
}

// subscriber serializes deliveries to one callback and drops snapshots
// older than the last one delivered.
type subscriber struct {
	mu        sync.Mutex
	delivered bool
	last      uint64
	fn        func(Entry)
}

func (s *subscriber) deliver(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delivered && e.seq < s.last {
		return
	}
	s.delivered = true
	s.last = e.seq
	s.fn(e)
}

// Cache is safe for concurrent use. Construct it once per process (or per
// session) and share it; the zero value is not usable.
type Cache struct {
	mu              sync.Mutex
	entries         map[string]*entry
	group           singleflight.Group
	nextSub         uint64
	epoch           uint64
	revalidateOnHit bool
	keepUnusedFor   time.Duration
	now             func() time.Time
	logger          *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

type Option func(*Cache)

// WithRevalidateOnHit makes cache hits also start a background refresh.
func WithRevalidateOnHit(on bool) Option {
	return func(c *Cache) { c.revalidateOnHit = on }
}

// WithKeepUnusedFor evicts entries that have had no subscribers for d.
// Zero keeps entries for the life of the cache.
func WithKeepUnusedFor(d time.Duration) Option {
	return func(c *Cache) { c.keepUnusedFor = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

func New(opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		entries: make(map[string]*entry),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrNop(c.logger)
	return c
}

// Fetch returns the cached value for q, fetching it when the entry is
// missing or stale. Concurrent calls for the same signature share one
// request. Cancelling ctx stops the wait, not the shared request.
func Fetch[T any](ctx context.Context, c *Cache, q Query[T]) (T, error) {
	e, err := c.load(ctx, q.Signature(), q.fetcher(), false)
	if err != nil {
		var zero T
		return zero, err
	}
	return typed[T](e).Data, nil
}

// Refetch fetches q regardless of the entry's freshness. It is the manual
// retry for errored entries.
func Refetch[T any](ctx context.Context, c *Cache, q Query[T]) (T, error) {
	e, err := c.load(ctx, q.Signature(), q.fetcher(), true)
	if err != nil {
		var zero T
		return zero, err
	}
	return typed[T](e).Data, nil
}

// Peek returns the current state of q's entry without fetching.
func Peek[T any](c *Cache, q Query[T]) (Result[T], bool) {
	e, ok := c.Entry(q.Signature())
	if !ok {
		return Result[T]{}, false
	}
	return typed[T](e), true
}

// Prefetch starts a background fetch of q unless a fresh value is cached or
// a fetch is already running.
func Prefetch[T any](c *Cache, q Query[T]) {
	c.prefetch(q.Signature(), q.fetcher())
}

// Subscribe registers fn for every state change of q's entry and returns the
// function that cancels the subscription. fn receives the current state
// immediately; a fetch starts if the entry has no fresh value. Errored
// entries are not refetched. fn may run on any goroutine and must not wait
// on a fetch of the same query.
func Subscribe[T any](c *Cache, q Query[T], fn func(Result[T])) (unsubscribe func()) {
	return c.subscribe(q.Signature(), q.fetcher(), func(e Entry) { fn(typed[T](e)) })
}

// Mutate runs m and, on success, invalidates the tags it declares.
func Mutate[R any](ctx context.Context, c *Cache, m Mutation[R]) (R, error) {
	res, err := m.Run(ctx)
	if err != nil {
		c.logger.Debug("mutation failed", zap.String("mutation", m.Name), zap.Error(err))
		return res, err
	}
	if m.Invalidates != nil {
		tags := m.Invalidates(res)
		n := c.Invalidate(tags...)
		c.logger.Debug("mutation done", zap.String("mutation", m.Name), zap.Int("invalidated", n))
	}
	return res, nil
}

// Entry returns a snapshot of the entry for sig.
func (c *Cache) Entry(sig string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[sig]
	if !ok {
		return Entry{}, false
	}
	return e.snapshot(), true
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Invalidate marks every entry providing one of tags as stale and refetches
// the ones with subscribers. It returns the number of entries affected.
// An entry whose fetch is in flight is also checked against the tags that
// fetch produces; such late matches are not counted.
func (c *Cache) Invalidate(tags ...Tag) int {
	if len(tags) == 0 {
		return 0
	}
	type refresh struct {
		sig   string
		fetch fetchFunc
	}
	var pending []refresh
	n := 0
	tags = append([]Tag(nil), tags...)

	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	for sig, e := range c.entries {
		if !e.provides(tags) {
			if e.fetching {
				e.pending = append(e.pending, pendingInvalidation{tags: tags, epoch: epoch})
			}
			continue
		}
		n++
		e.invalidated = epoch
		e.stale = true
		e.seq++
		if e.fetching {
			e.refetch = true
			continue
		}
		if len(e.subs) > 0 {
			pending = append(pending, refresh{sig: sig, fetch: e.fetch})
		}
	}
	c.mu.Unlock()

	for _, r := range pending {
		c.refreshAsync(r.sig, r.fetch)
	}
	return n
}

// Reset drops every entry. Fetches in flight complete but are not stored.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.evict != nil {
			e.evict.Stop()
		}
	}
	c.entries = make(map[string]*entry)
}

// Close stops background work and waits for it to finish.
func (c *Cache) Close() {
	c.mu.Lock()
	c.closed = true
	for _, e := range c.entries {
		if e.evict != nil {
			e.evict.Stop()
		}
	}
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}

func (c *Cache) ensure(sig string, fetch fetchFunc) *entry {
	e, ok := c.entries[sig]
	if !ok {
		e = &entry{sig: sig, subs: make(map[uint64]*subscriber)}
		c.entries[sig] = e
	}
	e.fetch = fetch
	return e
}

func (c *Cache) load(ctx context.Context, sig string, fetch fetchFunc, force bool) (Entry, error) {
	c.mu.Lock()
	e := c.ensure(sig, fetch)
	if !force && e.status == StatusSuccess && !e.stale {
		snap := e.snapshot()
		revalidate := c.revalidateOnHit && !e.fetching
		c.mu.Unlock()
		if revalidate {
			c.refreshAsync(sig, fetch)
		}
		return snap, nil
	}
	observed := e.generation
	want := c.epoch
	c.mu.Unlock()

	for {
		res, err := c.run(ctx, sig, fetch, observed)
		if err != nil && res.snap.Status != StatusError {
			return Entry{}, err
		}
		if res.start >= want || !c.invalidatedSince(sig, res.start) {
			return res.snap, err
		}
		// The shared request began before an invalidation this call must
		// observe; issue a new one.
		observed = res.snap.Generation
	}
}

// invalidatedSince reports whether sig's entry was invalidated after epoch.
func (c *Cache) invalidatedSince(sig string, epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[sig]
	return ok && e.invalidated > epoch
}

func (c *Cache) run(ctx context.Context, sig string, fetch fetchFunc, observed uint64) (fetchResult, error) {
	ch := c.group.DoChan(sig, func() (any, error) {
		return c.execute(sig, fetch, observed), nil
	})
	select {
	case res := <-ch:
		r := res.Val.(fetchResult)
		if r.snap.Status == StatusError {
			return r, r.snap.Err
		}
		return r, nil
	case <-ctx.Done():
		return fetchResult{}, ctx.Err()
	}
}

// execute performs the request for sig. Calls for one signature never
// overlap: they run under the singleflight group keyed by sig.
func (c *Cache) execute(sig string, fetch fetchFunc, observed uint64) fetchResult {
	c.mu.Lock()
	e, ok := c.entries[sig]
	if !ok {
		e = c.ensure(sig, fetch)
	}
	start := c.epoch
	// Another request for sig completed after the caller looked; reuse it.
	if e.generation > observed && !e.stale && e.status == StatusSuccess {
		snap := e.snapshot()
		c.mu.Unlock()
		return fetchResult{snap: snap, start: start}
	}
	e.fetching = true
	e.pending = nil
	if !e.hasData {
		e.status = StatusPending
	}
	e.seq++
	snap := e.snapshot()
	subs := e.subscribers()
	c.mu.Unlock()
	notify(subs, snap)

	began := c.now()
	data, tags, err := fetch(c.ctx)

	c.mu.Lock()
	if current, ok := c.entries[sig]; !ok || current != e {
		// Reset or evicted while in flight.
		e.fetching = false
		e.pending = nil
		result := Entry{Signature: sig, Status: StatusSuccess, Data: data, HasData: err == nil, Err: err, UpdatedAt: c.now()}
		if err != nil {
			result.Status = StatusError
		}
		c.mu.Unlock()
		return fetchResult{snap: result, start: start}
	}
	e.fetching = false
	if err != nil {
		e.status = StatusError
		e.err = err
	} else {
		e.status = StatusSuccess
		e.data = data
		e.hasData = true
		e.err = nil
	}
	if tags != nil || err == nil {
		e.tags = tags
	}
	e.applyPending()
	e.stale = e.refetch
	again := e.refetch && len(e.subs) > 0
	e.refetch = false
	e.updatedAt = c.now()
	e.generation++
	e.seq++
	snap = e.snapshot()
	subs = e.subscribers()
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("fetch failed", zap.String("signature", sig), zap.Error(err))
	} else {
		c.logger.Debug("fetch done", zap.String("signature", sig), zap.Duration("elapsed", c.now().Sub(began)))
	}
	notify(subs, snap)
	if again {
		// Detach from this call so the refresh does not join it.
		c.group.Forget(sig)
		c.refreshAsync(sig, fetch)
	}
	return fetchResult{snap: snap, start: start}
}

func (c *Cache) refreshAsync(sig string, fetch fetchFunc) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	observed := uint64(0)
	if e, ok := c.entries[sig]; ok {
		observed = e.generation
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		_, _ = c.run(c.ctx, sig, fetch, observed)
	}()
}

func (c *Cache) prefetch(sig string, fetch fetchFunc) {
	c.mu.Lock()
	e := c.ensure(sig, fetch)
	need := (e.status == StatusUninitialized || e.stale) && !e.fetching
	c.mu.Unlock()
	if need {
		c.refreshAsync(sig, fetch)
	}
}

func (c *Cache) subscribe(sig string, fetch fetchFunc, fn func(Entry)) func() {
	sub := &subscriber{fn: fn}

	c.mu.Lock()
	e := c.ensure(sig, fetch)
	if e.evict != nil {
		e.evict.Stop()
		e.evict = nil
	}
	id := c.nextSub
	c.nextSub++
	e.subs[id] = sub
	need := (e.status == StatusUninitialized || e.stale) && !e.fetching
	snap := e.snapshot()
	c.mu.Unlock()

	sub.deliver(snap)
	if need {
		c.refreshAsync(sig, fetch)
	}

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(e, id) })
	}
}

func (c *Cache) unsubscribe(e *entry, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(e.subs, id)
	if len(e.subs) > 0 || c.keepUnusedFor <= 0 || c.closed {
		return
	}
	if current, ok := c.entries[e.sig]; !ok || current != e {
		return
	}
	e.evict = time.AfterFunc(c.keepUnusedFor, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if current, ok := c.entries[e.sig]; ok && current == e && len(e.subs) == 0 {
			delete(c.entries, e.sig)
		}
	})
}

func notify(subs []*subscriber, snap Entry) {
	for _, s := range subs {
		s.deliver(snap)
	}
}
