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

// Package dbpool is a pool of ephemeral, isolated databases for parallel
// test suites: each borrow gets its own database, so tests never observe
// each other's writes. It targets MySQL/MariaDB and PostgreSQL and is
// agnostic to which driver and connection-pool library builds the
// restricted, per-database pool handed back to test code — see
// backend/mysqladapter, backend/pgadapter, and backend/pgxadapter for the
// three shipped pairings.
package dbpool

import (
	"context"

	"go.uber.org/zap"

	"github.com/blubskye/dbpool/dbpoolmetrics"
	"github.com/blubskye/dbpool/internal/zlog"
	"github.com/blubskye/dbpool/objectpool"
	"github.com/blubskye/dbpool/poolid"
)

// LifecycleEngine is the per-engine orchestrator (lifecycle/mysql.Engine or
// lifecycle/postgres.Engine) that DatabasePool drives. P is the restricted
// pool type the underlying backend.Capability builds.
type LifecycleEngine[P any] interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, id poolid.ID, restricted bool) (P, error)
	Clean(ctx context.Context, id poolid.ID) error
	Drop(ctx context.Context, id poolid.ID, restricted bool) error
}

// DatabasePool is the facade spec.md §4.7 describes: a thin layer over an
// object pool of restricted, reusable databases, plus a bypass for
// single-use mutable ones.
type DatabasePool[P any] struct {
	engine  LifecycleEngine[P]
	objPool *objectpool.Pool[*connWrapper[P]]
	log     *zap.Logger
	metrics *dbpoolmetrics.Metrics
}

// New constructs a DatabasePool over engine: it calls engine.Init once (the
// prior-run reap step), then builds the object pool whose init/reset
// closures are Create(restricted=true)/Clean, per spec.md §4.7.
func New[P any](ctx context.Context, engine LifecycleEngine[P], opts ...Option[P]) (*DatabasePool[P], error) {
	dp := &DatabasePool[P]{
		engine: engine,
		log:    zlog.Nop(),
	}
	for _, opt := range opts {
		opt(dp)
	}

	if err := engine.Init(ctx); err != nil {
		return nil, err
	}

	dp.objPool = objectpool.New(
		func(ctx context.Context) (*connWrapper[P], error) {
			id := poolid.New()
			pool, err := engine.Create(ctx, id, true)
			if err != nil {
				return nil, err
			}
			return &connWrapper[P]{engine: engine, id: id, pool: pool, restricted: true, log: dp.log}, nil
		},
		func(ctx context.Context, w *connWrapper[P]) error {
			return engine.Clean(ctx, w.id)
		},
		func(w *connWrapper[P]) {
			w.drop(context.Background())
		},
	)
	if dp.metrics != nil {
		dp.objPool.SetRecorder(dp.metrics)
	}

	return dp, nil
}

// PullImmutable borrows a reusable, privilege-restricted database from the
// pool, cleaning it first if it is a reused slot. Release the returned
// handle to return the database to the pool for a later test.
func (dp *DatabasePool[P]) PullImmutable(ctx context.Context) (*ReusableHandle[P], error) {
	r, err := dp.objPool.Pull(ctx)
	if err != nil {
		return nil, err
	}
	return newReusableHandle(r, dp.log), nil
}

// CreateMutable provisions a brand-new, unrestricted database outside the
// stash: the test gets DDL privileges on it, and it is destroyed outright
// on release rather than cleaned and reused.
func (dp *DatabasePool[P]) CreateMutable(ctx context.Context) (*SingleUseHandle[P], error) {
	id := poolid.New()
	pool, err := dp.engine.Create(ctx, id, false)
	if err != nil {
		return nil, err
	}
	w := &connWrapper[P]{engine: dp.engine, id: id, pool: pool, restricted: false, log: dp.log}
	return newSingleUseHandle(w, dp.log), nil
}

// Close tears down every database this pool ever materialized and still
// holds stashed. Handles still checked out at the time of the call are the
// caller's responsibility; release them first (spec.md property 7).
func (dp *DatabasePool[P]) Close() {
	dp.objPool.Drain()
}

// Option configures a DatabasePool at construction time.
type Option[P any] func(*DatabasePool[P])

// WithLogger overrides the no-op default logger.
func WithLogger[P any](log *zap.Logger) Option[P] {
	return func(dp *DatabasePool[P]) { dp.log = log }
}

// WithMetrics attaches a Prometheus-backed recorder to the object pool.
func WithMetrics[P any](m *dbpoolmetrics.Metrics) Option[P] {
	return func(dp *DatabasePool[P]) { dp.metrics = m }
}

// connWrapper owns one ephemeral database end to end: it knows how to drop
// itself via the lifecycle engine. There is no implicit destructor in Go,
// so drop is called explicitly: by SingleUseHandle on release, and by the
// object pool's destroy function for reusable wrappers that are drained or
// fail to clean. Handles register a finalizer as a backstop (see handle.go).
type connWrapper[P any] struct {
	engine     LifecycleEngine[P]
	id         poolid.ID
	pool       P
	restricted bool
	log        *zap.Logger
}

func (w *connWrapper[P]) drop(ctx context.Context) {
	if err := w.engine.Drop(ctx, w.id, w.restricted); err != nil {
		w.log.Warn("drop failed; database leaks until the next init reap",
			zap.String("db_id", w.id.String()), zap.Error(err))
	}
}
