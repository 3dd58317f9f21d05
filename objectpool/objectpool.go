// YSM - Yandere SQL Manager
// Copyright (C) 2025 blubskye
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Source code: https://github.com/blubskye/dbpool

// Package objectpool implements the generic, concurrency-safe LIFO stash
// that the database pool facade builds its reuse behavior on top of
// (spec.md §4.5). It is deliberately independent of the database domain:
// it knows nothing about db_pool_ names, dialects, or backends.
package objectpool

import (
	"context"
	"sync"
)

// InitFunc constructs a brand-new item. It runs outside the stash lock, so
// it may be slow and may block on I/O.
type InitFunc[T any] func(ctx context.Context) (T, error)

// ResetFunc prepares a reused item for hand-out (the lifecycle's clean, in
// this library's case). It also runs outside the stash lock.
type ResetFunc[T any] func(ctx context.Context, item T) error

// DestroyFunc releases an item that will never be reused, either because
// Reset failed or because the caller explicitly discards it.
type DestroyFunc[T any] func(item T)

// Pool is a thread-safe LIFO stash of reusable items of type T. LIFO
// ordering maximizes cache locality for the reused item and, at moderate
// concurrency, minimizes how many distinct items actually get
// materialized — the same rationale spec.md gives for the stash's
// ordering.
//
// A single non-reentrant mutex guards the stash slice only; Init and Reset
// run outside the lock so a slow or suspending constructor never blocks an
// unrelated Pull.
type Pool[T any] struct {
	mu      sync.Mutex
	stash   []T
	init    InitFunc[T]
	reset   ResetFunc[T]
	destroy DestroyFunc[T]
	metrics Recorder
}

// Recorder receives stash-depth observations. nil is a valid Recorder (the
// metrics package supplies one backed by Prometheus gauges).
type Recorder interface {
	ObserveStashDepth(n int)
	ObservePulled()
	ObserveDestroyed()
}

// New builds a Pool. destroy may be nil if items need no explicit
// teardown when discarded.
func New[T any](init InitFunc[T], reset ResetFunc[T], destroy DestroyFunc[T]) *Pool[T] {
	return &Pool[T]{init: init, reset: reset, destroy: destroy}
}

// SetRecorder attaches a metrics Recorder. Not safe to call concurrently
// with Pull/Put.
func (p *Pool[T]) SetRecorder(r Recorder) { p.metrics = r }

// Reusable is a scoped borrow from a Pool. Put or Discard ends the borrow;
// calling neither leaks the item. Only the first of these calls takes
// effect; any later Put or Discard on the same Reusable does nothing.
type Reusable[T any] struct {
	pool *Pool[T]
	item T
	done bool
}

// Item returns the borrowed value.
func (r *Reusable[T]) Item() T { return r.item }

// Put returns the item to the stash for a future Pull. This is the
// "reusable handle" path.
func (r *Reusable[T]) Put() {
	if r.done {
		return
	}
	r.done = true
	r.pool.put(r.item)
}

// Discard destroys the item instead of returning it to the stash, through
// the pool's DestroyFunc — the same teardown Pull applies to an item whose
// Reset fails.
func (r *Reusable[T]) Discard() {
	if r.done {
		return
	}
	r.done = true
	r.pool.destroyItem(r.item)
}

// Pull pops a stashed item and resets it, or constructs a fresh one if the
// stash is empty.
//
// Failure policy (spec.md §4.5): if init fails, no value is pushed and the
// error propagates — there was never anything to destroy. If reset fails,
// the item is destroyed (not returned to the stash) and the error
// propagates; the caller gets nothing to Put or Discard. This is the
// "safer" resolution spec.md's Open Question recommends: a stash slot is
// never handed out in an unknown state.
func (p *Pool[T]) Pull(ctx context.Context) (*Reusable[T], error) {
	item, popped := p.pop()

	if !popped {
		v, err := p.init(ctx)
		if err != nil {
			return nil, err
		}
		p.observePulled()
		return &Reusable[T]{pool: p, item: v}, nil
	}

	if p.reset != nil {
		if err := p.reset(ctx, item); err != nil {
			p.destroyItem(item)
			return nil, err
		}
	}
	p.observePulled()
	return &Reusable[T]{pool: p, item: item}, nil
}

// Len reports the current stash depth. Intended for diagnostics/metrics,
// not for synchronization — it is stale the instant it is returned.
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.stash)
}

// Drain destroys every stashed item and empties the stash. Used when the
// owning facade itself is torn down (spec.md property 7, "pool drop
// teardown").
func (p *Pool[T]) Drain() {
	p.mu.Lock()
	items := p.stash
	p.stash = nil
	p.mu.Unlock()

	for _, item := range items {
		p.destroyItem(item)
	}
}

func (p *Pool[T]) pop() (item T, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.stash)
	if n == 0 {
		return item, false
	}
	item = p.stash[n-1]
	p.stash = p.stash[:n-1]
	if p.metrics != nil {
		p.metrics.ObserveStashDepth(len(p.stash))
	}
	return item, true
}

func (p *Pool[T]) put(item T) {
	p.mu.Lock()
	p.stash = append(p.stash, item)
	depth := len(p.stash)
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.ObserveStashDepth(depth)
	}
}

func (p *Pool[T]) destroyItem(item T) {
	if p.destroy != nil {
		p.destroy(item)
	}
	if p.metrics != nil {
		p.metrics.ObserveDestroyed()
	}
}

func (p *Pool[T]) observePulled() {
	if p.metrics != nil {
		p.metrics.ObservePulled()
	}
}
