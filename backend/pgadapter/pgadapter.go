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

// Package pgadapter implements backend.Capability for PostgreSQL using
// database/sql over github.com/lib/pq, grounded on the teacher's
// Connection/PostgresDriver pairing. This is the default PostgreSQL
// backend; backend/pgxadapter offers a pgx/pgxpool-native alternative to
// demonstrate the lifecycle engine's indifference to pool library choice.
package pgadapter

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/blubskye/dbpool/backend"
	"github.com/blubskye/dbpool/dbpoolconfig"
	"github.com/blubskye/dbpool/dialect"
)

// Adapter is a backend.Capability[*sql.DB] for PostgreSQL.
type Adapter struct {
	cfg         *dbpoolconfig.Config
	defaultPool *sql.DB
	createFn    backend.CreateEntities
	poolOptions func(*sql.DB)
}

var _ backend.Capability[*sql.DB] = (*Adapter)(nil)

// New opens the shared default-database pool.
func New(cfg *dbpoolconfig.Config, createFn backend.CreateEntities, poolOptions func(*sql.DB)) (*Adapter, error) {
	db, err := sql.Open("postgres", cfg.DefaultURL("postgres")+"?sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("open default postgres pool: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping default postgres pool: %w", err)
	}
	return &Adapter{cfg: cfg, defaultPool: db, createFn: createFn, poolOptions: poolOptions}, nil
}

func (a *Adapter) Dialect() dialect.Dialect { return dialect.Postgres{} }

func (a *Adapter) PrivilegedConn(ctx context.Context) (backend.Conn, error) {
	conn, err := a.defaultPool.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &conn_{c: conn}, nil
}

// PrivilegedConnToDatabase opens a dedicated connection scoped to db, per
// spec.md §4.2 step 2: PostgreSQL DDL that targets tables/sequences by
// schema must run inside the target database.
func (a *Adapter) PrivilegedConnToDatabase(ctx context.Context, db string) (backend.Conn, error) {
	dsn := a.cfg.PrivilegedPerDatabaseURL("postgres", db) + "?sslmode=disable"
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open privileged per-db connection: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &conn_{c: conn, owner: sqlDB}, nil
}

func (a *Adapter) CreateEntities(ctx context.Context, dbName string, conn backend.Conn) error {
	if a.createFn == nil {
		return nil
	}
	return a.createFn(ctx, dbName, conn)
}

func (a *Adapter) BuildRestrictedPool(ctx context.Context, principal, password, db string) (*sql.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", principal, password, a.hostPort(), db)
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open restricted postgres pool: %w", err)
	}
	if a.poolOptions != nil {
		a.poolOptions(pool)
	}
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping restricted postgres pool: %w", err)
	}
	return pool, nil
}

func (a *Adapter) hostPort() string {
	return fmt.Sprintf("%s:%d", a.cfg.HostValue(), a.cfg.PortValue())
}

func (a *Adapter) ClosePool(pool *sql.DB) {
	if pool != nil {
		pool.Close()
	}
}

// Close releases the shared default pool.
func (a *Adapter) Close() error {
	return a.defaultPool.Close()
}

// conn_ adapts a pooled *sql.Conn to backend.Conn. owner, if set, is the
// single-connection *sql.DB this conn_ exclusively owns (the
// PrivilegedConnToDatabase path) and is closed alongside the connection.
type conn_ struct {
	c     *sql.Conn
	owner *sql.DB
}

func (c *conn_) Exec(ctx context.Context, query string) error {
	_, err := c.c.ExecContext(ctx, query)
	return err
}

func (c *conn_) ExecBatch(ctx context.Context, queries []string) error {
	for _, q := range queries {
		if q == "" {
			continue
		}
		if err := c.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (c *conn_) QueryStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := c.c.QueryContext(ctx, query)
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

func (c *conn_) Close() error {
	err := c.c.Close()
	if c.owner != nil {
		if oerr := c.owner.Close(); oerr != nil && err == nil {
			err = oerr
		}
	}
	return err
}
