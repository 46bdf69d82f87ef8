// Package syncer owns the fetch-filter-mutate-reconcile lifecycle for one
// remote collection: a Controller keeps a local snapshot of server truth,
// and a Coordinator sequences authenticated mutations against it.
package syncer

import (
	"context"
	"sync"

	"github.com/farmlink/farmlink-go/internal/model"
)

// Status is the controller's lifecycle state.
type Status int

const (
	// StatusIdle means no fetch has been issued yet.
	StatusIdle Status = iota
	// StatusLoading means a fetch is in flight.
	StatusLoading
	// StatusReady means the snapshot reflects the last applied fetch.
	StatusReady
	// StatusError means the last fetch failed; stale items are kept.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Fetcher loads one collection from the server for the given query.
type Fetcher[T any] func(ctx context.Context, q model.Query) ([]T, error)

// Snapshot is the controller state exposed to views. Items are in
// server-given order; the controller never re-sorts.
type Snapshot[T any] struct {
	Items  []T
	Status Status
	Err    error
	Query  model.Query
}

// Controller synchronizes one remote collection with local view state.
// All state is mutated only by the controller's own methods; views read
// snapshots and subscribe for transitions.
//
// Fetch results are applied last-issued-wins: each Refresh takes a
// sequence number, and a response is applied only while its number is
// still the latest. A slow superseded response is discarded even if it
// arrives after a newer one, so it can never clobber fresher data.
type Controller[T any] struct {
	fetch Fetcher[T]

	mu      sync.Mutex
	items   []T
	status  Status
	err     error
	query   model.Query
	queried bool
	seq     uint64

	subs    map[uint64]func(Snapshot[T])
	nextSub uint64
}

// New creates an idle controller for the collection loaded by fetch.
func New[T any](fetch Fetcher[T]) *Controller[T] {
	return &Controller[T]{
		fetch: fetch,
		subs:  make(map[uint64]func(Snapshot[T])),
	}
}

// Subscribe registers fn to be called synchronously after every state
// transition. It returns the matching unsubscribe function.
func (c *Controller[T]) Subscribe(fn func(Snapshot[T])) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller[T]) snapshotLocked() Snapshot[T] {
	items := make([]T, len(c.items))
	copy(items, c.items)
	return Snapshot[T]{Items: items, Status: c.status, Err: c.err, Query: c.query}
}

// SetQuery stores q and triggers a refresh, unless q is structurally
// equal to the query of an already-issued fetch; the repeat trigger is
// then a no-op so duplicate mount effects don't issue duplicate fetches.
func (c *Controller[T]) SetQuery(ctx context.Context, q model.Query) error {
	c.mu.Lock()
	if c.queried && q == c.query {
		c.mu.Unlock()
		return nil
	}
	c.query = q
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// Refresh fetches the collection for the current query and replaces the
// snapshot's items wholesale with the response, in server order. On
// failure the previous items are preserved (stale data beats an empty
// view) and the error is recorded. A refresh superseded by a newer one
// while in flight is discarded and reports no error.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.queried = true
	c.seq++
	seq := c.seq
	q := c.query
	c.status = StatusLoading
	c.err = nil
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	items, err := c.fetch(ctx, q)

	c.mu.Lock()
	if seq != c.seq {
		// A newer fetch was issued while this one was in flight.
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.status = StatusError
		c.err = err
	} else {
		c.status = StatusReady
		c.err = nil
		c.items = items
	}
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	return err
}

// notify calls every subscriber outside the lock, so a subscriber may
// read Snapshot without deadlocking.
func (c *Controller[T]) notify(snap Snapshot[T]) {
	c.mu.Lock()
	fns := make([]func(Snapshot[T]), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
