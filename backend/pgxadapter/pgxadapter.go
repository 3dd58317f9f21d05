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

// Package pgxadapter implements backend.Capability for PostgreSQL using
// jackc/pgx/v5 and its native pgxpool, grounded on
// other_examples/173fdf50_yuku-testdbpool__pool.go.go. It exists alongside
// backend/pgadapter to demonstrate that the lifecycle engine in
// lifecycle/postgres is indifferent to which pool library backs P.
package pgxadapter

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blubskye/dbpool/backend"
	"github.com/blubskye/dbpool/dbpoolconfig"
	"github.com/blubskye/dbpool/dialect"
)

// Adapter is a backend.Capability[*pgxpool.Pool] for PostgreSQL.
type Adapter struct {
	cfg         *dbpoolconfig.Config
	defaultPool *pgxpool.Pool
	createFn    backend.CreateEntities
	poolOptions func(*pgxpool.Config)
}

var _ backend.Capability[*pgxpool.Pool] = (*Adapter)(nil)

// New opens the shared default-database pgxpool.
func New(ctx context.Context, cfg *dbpoolconfig.Config, createFn backend.CreateEntities, poolOptions func(*pgxpool.Config)) (*Adapter, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DefaultURL("postgres") + "?sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("parse default pgxpool config: %w", err)
	}
	if poolOptions != nil {
		poolOptions(poolCfg)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open default pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping default pgxpool: %w", err)
	}
	return &Adapter{cfg: cfg, defaultPool: pool, createFn: createFn, poolOptions: poolOptions}, nil
}

func (a *Adapter) Dialect() dialect.Dialect { return dialect.Postgres{} }

func (a *Adapter) PrivilegedConn(ctx context.Context) (backend.Conn, error) {
	conn, err := a.defaultPool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &conn_{c: conn}, nil
}

func (a *Adapter) PrivilegedConnToDatabase(ctx context.Context, db string) (backend.Conn, error) {
	dsn := a.cfg.PrivilegedPerDatabaseURL("postgres", db) + "?sslmode=disable"
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database %s: %w", db, err)
	}
	return &directConn_{c: conn}, nil
}

func (a *Adapter) CreateEntities(ctx context.Context, dbName string, conn backend.Conn) error {
	if a.createFn == nil {
		return nil
	}
	return a.createFn(ctx, dbName, conn)
}

func (a *Adapter) BuildRestrictedPool(ctx context.Context, principal, password, db string) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		principal, password, a.cfg.HostValue(), a.cfg.PortValue(), db)
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse restricted pgxpool config: %w", err)
	}
	if a.poolOptions != nil {
		a.poolOptions(poolCfg)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open restricted pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping restricted pgxpool: %w", err)
	}
	return pool, nil
}

func (a *Adapter) ClosePool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}

// Close releases the shared default pool.
func (a *Adapter) Close() error {
	a.defaultPool.Close()
	return nil
}

// conn_ adapts a pooled *pgxpool.Conn to backend.Conn.
type conn_ struct {
	c *pgxpool.Conn
}

func (c *conn_) Exec(ctx context.Context, query string) error {
	_, err := c.c.Exec(ctx, query)
	return err
}

func (c *conn_) ExecBatch(ctx context.Context, queries []string) error {
	return execBatch(ctx, c.c, queries)
}

func (c *conn_) QueryStrings(ctx context.Context, query string) ([]string, error) {
	return queryStrings(ctx, c.c, query)
}

func (c *conn_) Close() error {
	c.c.Release()
	return nil
}

// directConn_ adapts a standalone *pgx.Conn (not pool-backed) to
// backend.Conn, used for PrivilegedConnToDatabase.
type directConn_ struct {
	c *pgx.Conn
}

func (c *directConn_) Exec(ctx context.Context, query string) error {
	_, err := c.c.Exec(ctx, query)
	return err
}

func (c *directConn_) ExecBatch(ctx context.Context, queries []string) error {
	return execBatch(ctx, c.c, queries)
}

func (c *directConn_) QueryStrings(ctx context.Context, query string) ([]string, error) {
	return queryStrings(ctx, c.c, query)
}

func (c *directConn_) Close() error {
	return c.c.Close(context.Background())
}

// pgxExecer is satisfied by both *pgxpool.Conn and *pgx.Conn.
type pgxExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgx.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func execBatch(ctx context.Context, e pgxExecer, queries []string) error {
	for _, q := range queries {
		if q == "" {
			continue
		}
		if _, err := e.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func queryStrings(ctx context.Context, e pgxExecer, query string) ([]string, error) {
	rows, err := e.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
