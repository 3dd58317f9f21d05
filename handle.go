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

package dbpool

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/blubskye/dbpool/objectpool"
)

// ReusableHandle is a scoped borrow returned by PullImmutable. Its database
// is restricted to DML; releasing it returns the database to the pool for
// a later test, which cleans it before handing it out again.
type ReusableHandle[P any] struct {
	mu       sync.Mutex
	reusable *objectpool.Reusable[*connWrapper[P]]
	log      *zap.Logger
	released bool
}

func newReusableHandle[P any](r *objectpool.Reusable[*connWrapper[P]], log *zap.Logger) *ReusableHandle[P] {
	h := &ReusableHandle[P]{reusable: r, log: log}
	runtime.SetFinalizer(h, func(h *ReusableHandle[P]) {
		if h.release() {
			log.Warn("reusable database handle released by finalizer, not by caller",
				zap.String("db_id", h.reusable.Item().id.String()))
		}
	})
	return h
}

// Unwrap returns the driver-native restricted pool.
func (h *ReusableHandle[P]) Unwrap() P { return h.reusable.Item().pool }

// Release returns the database to the pool. Safe to call more than once;
// only the first call has any effect.
func (h *ReusableHandle[P]) Release() {
	h.release()
}

// release reports whether it actually performed the release, so the
// finalizer can tell "already released by caller" from "leaked".
func (h *ReusableHandle[P]) release() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return false
	}
	h.released = true
	h.reusable.Put()
	return true
}

// SingleUseHandle is a scoped borrow returned by CreateMutable. Its
// database has full DDL privileges and is destroyed outright on release —
// there is no reuse and no cleaning.
type SingleUseHandle[P any] struct {
	mu       sync.Mutex
	wrapper  *connWrapper[P]
	log      *zap.Logger
	released bool
}

func newSingleUseHandle[P any](w *connWrapper[P], log *zap.Logger) *SingleUseHandle[P] {
	h := &SingleUseHandle[P]{wrapper: w, log: log}
	runtime.SetFinalizer(h, func(h *SingleUseHandle[P]) {
		if h.release() {
			log.Warn("single-use database handle released by finalizer, not by caller",
				zap.String("db_id", h.wrapper.id.String()))
		}
	})
	return h
}

// Unwrap returns the driver-native unrestricted pool.
func (h *SingleUseHandle[P]) Unwrap() P { return h.wrapper.pool }

// Release drops the database. Safe to call more than once; only the first
// call has any effect.
func (h *SingleUseHandle[P]) Release() {
	h.release()
}

func (h *SingleUseHandle[P]) release() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return false
	}
	h.released = true
	h.wrapper.drop(context.Background())
	return true
}

// PoolOrReusable lets production code accept either a plain, library-built
// pool or a test-owned reusable handle at the same call site, dereferencing
// both to the same underlying pool type.
type PoolOrReusable[P any] struct {
	plain    P
	reusable *ReusableHandle[P]
}

// FromPool wraps a plain, non-test pool.
func FromPool[P any](pool P) PoolOrReusable[P] {
	return PoolOrReusable[P]{plain: pool}
}

// FromReusable wraps a test-owned reusable handle.
func FromReusable[P any](h *ReusableHandle[P]) PoolOrReusable[P] {
	return PoolOrReusable[P]{reusable: h}
}

// Unwrap returns the underlying pool, regardless of which constructor built
// this value.
func (p PoolOrReusable[P]) Unwrap() P {
	if p.reusable != nil {
		return p.reusable.Unwrap()
	}
	return p.plain
}
