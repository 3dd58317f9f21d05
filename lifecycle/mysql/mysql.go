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

// Package mysql implements the MySQL/MariaDB lifecycle engine: init, create,
// clean, and drop, driven entirely through a backend.Capability so the same
// engine works against any (driver × pool-library) adapter, per spec.md
// §4.1 and §4.3.
package mysql

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/blubskye/dbpool/backend"
	"github.com/blubskye/dbpool/dbpoolerr"
	"github.com/blubskye/dbpool/dbpoolmetrics"
	"github.com/blubskye/dbpool/internal/reaper"
	"github.com/blubskye/dbpool/internal/zlog"
	"github.com/blubskye/dbpool/poolid"
)

// Engine is the MySQL lifecycle engine, generic over the restricted pool
// type P the backend capability builds.
type Engine[P any] struct {
	cap backend.Capability[P]

	log     *zap.Logger
	metrics *dbpoolmetrics.Metrics

	host            string
	dropPrevious    bool
	reapConcurrency int
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

// WithHost sets the account host used for every CREATE/DROP USER and GRANT
// statement. Defaults to "%" (any host), matching a developer-reachable
// test server.
func WithHost[P any](host string) Option[P] {
	return func(e *Engine[P]) { e.host = host }
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

// New builds a MySQL lifecycle engine over cap.
func New[P any](cap backend.Capability[P], opts ...Option[P]) *Engine[P] {
	e := &Engine[P]{
		cap:          cap,
		log:          zlog.Nop(),
		host:         "%",
		dropPrevious: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init reaps prior-run db_pool_ databases (and their matching users) when
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

		stmts := append([]string{dialect.DropDatabase(name)}, dialect.DropPrincipal(name, e.host)...)
		return dropConn.ExecBatch(ctx, stmts)
	})
	if err != nil {
		e.observe("init", "error", start)
		return dbpoolerr.New(dbpoolerr.Query, "init", err)
	}

	e.log.Info("init complete", zap.Int("reaped_candidates", len(names)))
	e.observe("init", "ok", start)
	return nil
}

// Create provisions a new database and scoped user, invokes the
// entity-creation callback, grants the restricted or unrestricted privilege
// set, and returns the built restricted pool.
func (e *Engine[P]) Create(ctx context.Context, id poolid.ID, restricted bool) (P, error) {
	start := time.Now()
	var zero P
	name := id.String()
	dialect := e.cap.Dialect()

	conn, err := e.cap.PrivilegedConn(ctx)
	if err != nil {
		e.observe("create", "error", start)
		return zero, dbpoolerr.New(dbpoolerr.Connection, "create", err)
	}
	defer conn.Close()

	if err := conn.Exec(ctx, dialect.CreateDatabase(name)); err != nil {
		e.observe("create", "error", start)
		return zero, dbpoolerr.New(dbpoolerr.Query, "create", err)
	}
	if err := conn.ExecBatch(ctx, dialect.CreatePrincipal(name, e.host, name)); err != nil {
		e.observe("create", "error", start)
		return zero, dbpoolerr.New(dbpoolerr.Query, "create", err)
	}

	if err := conn.Exec(ctx, fmt.Sprintf("USE %s", dialect.QuoteIdentifier(name))); err != nil {
		e.observe("create", "error", start)
		return zero, dbpoolerr.New(dbpoolerr.Query, "create", err)
	}
	if err := e.cap.CreateEntities(ctx, name, nil); err != nil {
		e.observe("create", "error", start)
		return zero, dbpoolerr.New(dbpoolerr.Query, "create", err)
	}
	if err := conn.Exec(ctx, "USE information_schema"); err != nil {
		e.observe("create", "error", start)
		return zero, dbpoolerr.New(dbpoolerr.Query, "create", err)
	}

	grant := dialect.GrantRestricted(name, name, e.host)
	if !restricted {
		grant = dialect.GrantUnrestricted(name, name, e.host)
	}
	if err := conn.ExecBatch(ctx, grant); err != nil {
		e.observe("create", "error", start)
		return zero, dbpoolerr.New(dbpoolerr.Query, "create", err)
	}

	pool, err := e.cap.BuildRestrictedPool(ctx, name, name, name)
	if err != nil {
		e.observe("create", "error", start)
		return zero, dbpoolerr.New(dbpoolerr.Build, "create", err)
	}

	e.observe("create", "ok", start)
	return pool, nil
}

// Clean truncates every user table in the database, bracketed by MySQL's
// foreign-key-check toggle so cyclic fixtures truncate in any order.
func (e *Engine[P]) Clean(ctx context.Context, id poolid.ID) error {
	start := time.Now()
	name := id.String()
	dialect := e.cap.Dialect()

	conn, err := e.cap.PrivilegedConn(ctx)
	if err != nil {
		e.observe("clean", "error", start)
		return dbpoolerr.New(dbpoolerr.Connection, "clean", err)
	}
	defer conn.Close()

	if err := conn.Exec(ctx, fmt.Sprintf("USE %s", dialect.QuoteIdentifier(name))); err != nil {
		e.observe("clean", "error", start)
		return dbpoolerr.New(dbpoolerr.Query, "clean", err)
	}

	tables, err := conn.QueryStrings(ctx, dialect.ListUserTables())
	if err != nil {
		e.observe("clean", "error", start)
		return dbpoolerr.New(dbpoolerr.Query, "clean", err)
	}
	if len(tables) == 0 {
		e.observe("clean", "ok", start)
		return nil
	}

	stmts := make([]string, 0, len(tables)+2)
	stmts = append(stmts, dialect.DisableForeignKeyChecks())
	for _, t := range tables {
		stmts = append(stmts, dialect.TruncateTable(t))
	}
	stmts = append(stmts, dialect.EnableForeignKeyChecks())

	if err := conn.ExecBatch(ctx, stmts); err != nil {
		e.observe("clean", "error", start)
		return dbpoolerr.New(dbpoolerr.Query, "clean", err)
	}

	e.observe("clean", "ok", start)
	return nil
}

// Drop removes the database and its scoped user. restricted is accepted
// for interface symmetry with the PostgreSQL engine but unused: MySQL has
// no connection-ownership pivot to unwind before dropping.
func (e *Engine[P]) Drop(ctx context.Context, id poolid.ID, restricted bool) error {
	start := time.Now()
	name := id.String()
	dialect := e.cap.Dialect()

	conn, err := e.cap.PrivilegedConn(ctx)
	if err != nil {
		e.observe("drop", "error", start)
		return dbpoolerr.New(dbpoolerr.Connection, "drop", err)
	}
	defer conn.Close()

	stmts := append([]string{dialect.DropDatabase(name)}, dialect.DropPrincipal(name, e.host)...)
	if err := conn.ExecBatch(ctx, stmts); err != nil {
		e.observe("drop", "error", start)
		return dbpoolerr.New(dbpoolerr.Query, "drop", err)
	}

	e.observe("drop", "ok", start)
	return nil
}

func (e *Engine[P]) observe(op, outcome string, start time.Time) {
	e.metrics.ObserveLifecycleOp("mysql", op, outcome, time.Since(start).Seconds())
}
