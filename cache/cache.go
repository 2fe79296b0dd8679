// Package cache - the duplicate-detection multi-index.
package cache

import (
	"container/list"
	"sync"

	"github.com/katalvlaran/optiq/response"
	"github.com/katalvlaran/optiq/runtime"
	"github.com/katalvlaran/optiq/vars"
)

// Cache is the evaluation cache. All methods are safe for concurrent use;
// store and lookup serialize on one mutex per the engine's shared-resource
// policy.
type Cache struct {
	mu       sync.Mutex
	opts     Options
	entries  map[string]*entry
	inflight map[int64]*flight
	byKey    map[string]*flight // live flight per key (the leader's)
	lru      *list.List         // *entry, most-recent at front; pinned pairs excluded
	metrics  *runtime.Metrics
}

type entry struct {
	pair *Pair
	elem *list.Element // nil when pinned (restart-sourced)
}

// flight tracks one in-flight evaluation key and every eval-id attached to it.
type flight struct {
	key         string
	interfaceID string
	leader      int64
	attached    []int64
}

// New builds a Cache. Metrics may be nil (library use without a Runtime).
func New(opts Options, m *runtime.Metrics) *Cache {
	return &Cache{
		opts:     opts,
		entries:  make(map[string]*entry),
		inflight: make(map[int64]*flight),
		byKey:    make(map[string]*flight),
		lru:      list.New(),
		metrics:  m,
	}
}

// Len returns the number of stored pairs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Lookup returns a copy of the stored response for (interfaceID, p), if any.
// A hit refreshes the entry's LRU position.
func (c *Cache) Lookup(interfaceID string, p vars.Point) (*response.Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[keyOf(interfaceID, p)]
	if !ok {
		if c.metrics != nil {
			c.metrics.CacheMisses.Inc()
		}
		return nil, false
	}
	if e.elem != nil {
		c.lru.MoveToFront(e.elem)
	}
	if c.metrics != nil {
		c.metrics.CacheHits.Inc()
	}
	return e.pair.Response(), true
}

// Store inserts a pair. Inserting a duplicate replaces the stored response
// only when the new pair's active set covers the old one (an equal set
// counts, which lets a restart-sourced pair pin an existing entry); a
// narrower or incomparable set leaves the stored record in place.
func (c *Cache) Store(p *Pair) error {
	if p == nil {
		return ErrNilPair
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storeLocked(p)
}

func (c *Cache) storeLocked(p *Pair) error {
	k := p.key()
	if old, ok := c.entries[k]; ok {
		if !p.resp.Set.Superset(old.pair.resp.Set) {
			return nil
		}
		old.pair = p
		if old.elem != nil {
			if p.restartSourced {
				// Upgrade to pinned.
				c.lru.Remove(old.elem)
				old.elem = nil
			} else {
				c.lru.MoveToFront(old.elem)
			}
		}
		return nil
	}
	e := &entry{pair: p}
	if !p.restartSourced {
		e.elem = c.lru.PushFront(e)
	}
	c.entries[k] = e
	c.evictLocked()
	return nil
}

// evictLocked enforces the LRU bound over unpinned entries.
func (c *Cache) evictLocked() {
	if c.opts.MaxEntries <= 0 {
		return
	}
	for len(c.entries) > c.opts.MaxEntries {
		back := c.lru.Back()
		if back == nil {
			// Only pinned entries remain; the bound yields to restart safety.
			return
		}
		e := back.Value.(*entry)
		c.lru.Remove(back)
		delete(c.entries, e.pair.key())
	}
}

// Register records eval-id as in-flight for (interfaceID, p).
// The first registration for a key is the leader — the caller that must
// actually invoke the simulator. Later registrations for the same key attach
// to the existing flight and must NOT launch; their result arrives when the
// leader completes.
//
// Errors: ErrDuplicateEval when evalID is already live.
func (c *Cache) Register(evalID int64, interfaceID string, p vars.Point) (leader bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, live := c.inflight[evalID]; live {
		return false, ErrDuplicateEval
	}
	k := keyOf(interfaceID, p)
	if f, ok := c.byKey[k]; ok {
		f.attached = append(f.attached, evalID)
		c.inflight[evalID] = f
		if c.metrics != nil {
			c.metrics.Coalesced.Inc()
		}
		return false, nil
	}
	f := &flight{key: k, interfaceID: interfaceID, leader: evalID}
	c.byKey[k] = f
	c.inflight[evalID] = f
	return true, nil
}

// InflightLeader returns the leading eval-id of a live flight for
// (interfaceID, p), if any. Callers use it to avoid launching a duplicate:
// attach to the leader instead of registering a new flight.
func (c *Cache) InflightLeader(interfaceID string, p vars.Point) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.byKey[keyOf(interfaceID, p)]
	if !ok {
		return 0, false
	}
	if c.metrics != nil {
		c.metrics.Coalesced.Inc()
	}
	return f.leader, true
}

// Pending reports whether evalID is registered and not yet completed.
func (c *Cache) Pending(evalID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[evalID]
	return ok
}

// Complete finishes the flight evalID belongs to: the pair is stored, the
// flight is dissolved, and every attached eval-id (leader included) is
// returned so the caller can deliver the shared response.
//
// Errors: ErrUnknownEval for an unregistered id; ErrInterfaceMismatch when
// the completing interface differs from the registered one; ErrCorrupt when
// the flight's key index disagrees with the eval index.
func (c *Cache) Complete(evalID int64, interfaceID string, p vars.Point, r *response.Response) (*Pair, []int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.inflight[evalID]
	if !ok {
		return nil, nil, ErrUnknownEval
	}
	if f.interfaceID != interfaceID {
		return nil, nil, ErrInterfaceMismatch
	}
	if c.byKey[f.key] != f {
		return nil, nil, ErrCorrupt
	}

	pair, err := NewPair(interfaceID, p, r, f.leader)
	if err != nil {
		return nil, nil, err
	}
	if err = c.storeLocked(pair); err != nil {
		return nil, nil, err
	}

	ids := append([]int64{f.leader}, f.attached...)
	for _, id := range ids {
		delete(c.inflight, id)
	}
	delete(c.byKey, f.key)
	return pair, ids, nil
}

// Discard dissolves the flight evalID belongs to without storing anything.
// Used for timeouts (a timed-out job is not cached) and aborts. Returns the
// dissolved eval-ids, ErrUnknownEval when none.
func (c *Cache) Discard(evalID int64) ([]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.inflight[evalID]
	if !ok {
		return nil, ErrUnknownEval
	}
	ids := append([]int64{f.leader}, f.attached...)
	for _, id := range ids {
		delete(c.inflight, id)
	}
	delete(c.byKey, f.key)
	return ids, nil
}

// Range iterates stored pairs in unspecified order until f returns false.
// Used by restart replay and final reporting.
func (c *Cache) Range(f func(*Pair) bool) {
	c.mu.Lock()
	pairs := make([]*Pair, 0, len(c.entries))
	for _, e := range c.entries {
		pairs = append(pairs, e.pair)
	}
	c.mu.Unlock()
	for _, p := range pairs {
		if !f(p) {
			return
		}
	}
}
