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

// Package postgres implements the PostgreSQL lifecycle engine: init,
// create, clean, and drop, per spec.md §4.1 and §4.2. Unlike MySQL,
// PostgreSQL DDL that targets tables/sequences by schema must run inside
// the target database, so create stashes a privileged per-database
// connection for clean to reuse.
package postgres

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/blubskye/dbpool/backend"
	"github.com/blubskye/dbpool/dbpoolerr"
	"github.com/blubskye/dbpool/dbpoolmetrics"
	"github.com/blubskye/dbpool/internal/reaper"
	"github.com/blubskye/dbpool/internal/zlog"
	"github.com/blubskye/dbpool/poolid"
)

// Engine is the PostgreSQL lifecycle engine, generic over the restricted
// pool type P the backend capability builds.
type Engine[P any] struct {
	cap backend.Capability[P]

	log     *zap.Logger
	metrics *dbpoolmetrics.Metrics

	dropPrevious    bool
	reapConcurrency int

	// cleanConns holds one stashed privileged connection per restricted
	// database, keyed by db id string, so Clean does not reconnect on
	// every reuse. Chosen over a mutex+map pair because entries are
	// added/removed far more often than iterated.
	cleanConns sync.Map
}

// Option configures an Engine at construction time.
type Option[P any] func(*Engine[P])

// WithLogger overrides the no-op default logger.
func WithLogger[P any](log *zap.Logger) Option[P] {
	return func(e *Engine[P]) { e.log = log }
}

// WithMetrics attaches a metrics recorder. Nil-safe if never called.
func WithMetrics[P any](m *dbpoolmetrics.Metrics) Option[P] {
	return func(e *Engine[P]) { e.metrics = m }
}

// WithDropPreviousDatabases toggles init's reap step. Defaults to true.
func WithDropPreviousDatabases[P any](drop bool) Option[P] {
	return func(e *Engine[P]) { e.dropPrevious = drop }
}

// WithReapConcurrency bounds how many prior-run databases init drops at
// once. 0 (the default) lets internal/reaper pick runtime.NumCPU.
func WithReapConcurrency[P any](n int) Option[P] {
	return func(e *Engine[P]) { e.reapConcurrency = n }
}

// New builds a PostgreSQL lifecycle engine over cap.
func New[P any](cap backend.Capability[P], opts ...Option[P]) *Engine[P] {
	e := &Engine[P]{
		cap:          cap,
		log:          zlog.Nop(),
		dropPrevious: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init reaps prior-run db_pool_ databases and their matching roles when
// dropPrevious is set. Safe to call repeatedly.
func (e *Engine[P]) Init(ctx context.Context) error {
	start := time.Now()
	if !e.dropPrevious {
		e.observe("init", "skipped", start)
		return nil
	}

	conn, err := e.cap.PrivilegedConn(ctx)
	if err != nil {
		e.observe("init", "error", start)
		return dbpoolerr.New(dbpoolerr.Connection, "init", err)
	}
	defer conn.Close()

	names, err := conn.QueryStrings(ctx, e.cap.Dialect().ListPriorDatabases())
	if err != nil {
		e.observe("init", "error", start)
		return dbpoolerr.New(dbpoolerr.Query, "init", err)
	}

	dialect := e.cap.Dialect()
	err = reaper.DropAll(e.reapConcurrency, names, func(name string) error {
		if !poolid.IsPoolName(name) {
			return nil
		}
		dropConn, err := e.cap.PrivilegedConn(ctx)
		if err != nil {
			return err
		}
		defer dropConn.Close()

		if err := dropConn.Exec(ctx, dialect.DropDatabase(name)); err != nil {
			return err
		}
		return dropConn.ExecBatch(ctx, dialect.DropPrincipal(name, ""))
	})
	if err != nil {
		e.observe("init", "error", start)
		return dbpoolerr.New(dbpoolerr.Query, "init", err)
	}

	e.log.Info("init complete", zap.Int("reaped_candidates", len(names)))
	e.observe("init", "ok", start)
	return nil
}

// Create provisions a new database and role, invokes the entity-creation
// callback on a connection scoped to the new database, grants the
// restricted or unrestricted privilege set, and returns the built
// restricted pool. When restricted, the per-database connection is stashed
// for Clean to reuse; when not, ownership of the database is handed to the
// role instead and the connection is not stashed.
func (e *Engine[P]) Create(ctx context.Context, id poolid.ID, restricted bool) (P, error) {
	start := time.Now()
	var zero P
	name := id.String()
	dialect := e.cap.Dialect()

	adminConn, err := e.cap.PrivilegedConn(ctx)
	if err != nil {
		e.observe("create", "error", start)
		return zero, dbpoolerr.New(dbpoolerr.Connection, "create", err)
	}
	defer adminConn.Close()

	if err := adminConn.Exec(ctx, dialect.CreateDatabase(name)); err != nil {
		e.observe("create", "error", start)
		return zero, dbpoolerr.New(dbpoolerr.Query, "create", err)
	}
	if err := adminConn.ExecBatch(ctx, dialect.CreatePrincipal(name, "", name)); err != nil {
		e.observe("create", "error", start)
		return zero, dbpoolerr.New(dbpoolerr.Query, "create", err)
	}

	dbConn, err := e.cap.PrivilegedConnToDatabase(ctx, name)
	if err != nil {
		e.observe("create", "error", start)
		return zero, dbpoolerr.New(dbpoolerr.Connection, "create", err)
	}

	if err := e.cap.CreateEntities(ctx, name, dbConn); err != nil {
		dbConn.Close()
		e.observe("create", "error", start)
		return zero, dbpoolerr.New(dbpoolerr.Query, "create", err)
	}

	var grant []string
	if restricted {
		grant = dialect.GrantRestricted(name, name, "")
	} else {
		grant = dialect.GrantUnrestricted(name, name, "")
	}
	if err := dbConn.ExecBatch(ctx, grant); err != nil {
		dbConn.Close()
		e.observe("create", "error", start)
		return zero, dbpoolerr.New(dbpoolerr.Query, "create", err)
	}

	if restricted {
		e.cleanConns.Store(name, dbConn)
	} else {
		dbConn.Close()
	}

	pool, err := e.cap.BuildRestrictedPool(ctx, name, name, name)
	if err != nil {
		if restricted {
			if stashed, ok := e.cleanConns.LoadAndDelete(name); ok {
				stashed.(backend.Conn).Close()
			}
		}
		e.observe("create", "error", start)
		return zero, dbpoolerr.New(dbpoolerr.Build, "create", err)
	}

	e.observe("create", "ok", start)
	return pool, nil
}

// Clean reuses the stashed privileged per-database connection to truncate
// every user table, restarting identity sequences and cascading to
// dependents in one statement per table (no foreign-key toggle needed).
func (e *Engine[P]) Clean(ctx context.Context, id poolid.ID) error {
	start := time.Now()
	name := id.String()
	dialect := e.cap.Dialect()

	v, ok := e.cleanConns.Load(name)
	if !ok {
		e.observe("clean", "error", start)
		return dbpoolerr.New(dbpoolerr.Connection, "clean", errNoStashedConn(name))
	}
	conn := v.(backend.Conn)

	tables, err := conn.QueryStrings(ctx, dialect.ListUserTables())
	if err != nil {
		e.observe("clean", "error", start)
		return dbpoolerr.New(dbpoolerr.Query, "clean", err)
	}
	if len(tables) == 0 {
		e.observe("clean", "ok", start)
		return nil
	}

	stmts := make([]string, 0, len(tables))
	for _, t := range tables {
		stmts = append(stmts, dialect.TruncateTable(t))
	}
	if err := conn.ExecBatch(ctx, stmts); err != nil {
		e.observe("clean", "error", start)
		return dbpoolerr.New(dbpoolerr.Query, "clean", err)
	}

	e.observe("clean", "ok", start)
	return nil
}

// Drop discards the stashed per-database connection (PostgreSQL refuses to
// drop a database with active backends owned by us), then drops the
// database and its role on the default privileged connection.
func (e *Engine[P]) Drop(ctx context.Context, id poolid.ID, restricted bool) error {
	start := time.Now()
	name := id.String()
	dialect := e.cap.Dialect()

	if restricted {
		if stashed, ok := e.cleanConns.LoadAndDelete(name); ok {
			stashed.(backend.Conn).Close()
		}
	}

	adminConn, err := e.cap.PrivilegedConn(ctx)
	if err != nil {
		e.observe("drop", "error", start)
		return dbpoolerr.New(dbpoolerr.Connection, "drop", err)
	}
	defer adminConn.Close()

	if err := adminConn.Exec(ctx, dialect.DropDatabase(name)); err != nil {
		e.observe("drop", "error", start)
		return dbpoolerr.New(dbpoolerr.Query, "drop", err)
	}
	if err := adminConn.ExecBatch(ctx, dialect.DropPrincipal(name, "")); err != nil {
		e.observe("drop", "error", start)
		return dbpoolerr.New(dbpoolerr.Query, "drop", err)
	}

	e.observe("drop", "ok", start)
	return nil
}

func (e *Engine[P]) observe(op, outcome string, start time.Time) {
	e.metrics.ObserveLifecycleOp("postgres", op, outcome, time.Since(start).Seconds())
}

type errNoStashedConn string

func (e errNoStashedConn) Error() string {
	return "postgres lifecycle: no stashed connection for database " + string(e)
}
