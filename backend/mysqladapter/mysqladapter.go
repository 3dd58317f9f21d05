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

// Package mysqladapter implements backend.Capability for MySQL/MariaDB
// using database/sql over github.com/go-sql-driver/mysql, grounded on the
// teacher's Connection/MariaDBDriver pairing.
package mysqladapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/blubskye/dbpool/backend"
	"github.com/blubskye/dbpool/dbpoolconfig"
	"github.com/blubskye/dbpool/dialect"
)

// Adapter is a backend.Capability[*sql.DB] for MySQL/MariaDB. The
// restricted pool handed out to test code is a *sql.DB scoped to the
// ephemeral database, authenticating as the per-database user.
type Adapter struct {
	cfg         *dbpoolconfig.Config
	defaultPool *sql.DB
	createFn    backend.CreateEntities
	poolOptions func(*sql.DB)
}

var _ backend.Capability[*sql.DB] = (*Adapter)(nil)

// New opens the shared default-database pool and returns an Adapter bound
// to it. poolOptions, if non-nil, configures every *sql.DB this adapter
// builds (MaxOpenConns etc.) before it is handed to test code.
func New(cfg *dbpoolconfig.Config, createFn backend.CreateEntities, poolOptions func(*sql.DB)) (*Adapter, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN(""))
	if err != nil {
		return nil, fmt.Errorf("open default mysql pool: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping default mysql pool: %w", err)
	}
	return &Adapter{cfg: cfg, defaultPool: db, createFn: createFn, poolOptions: poolOptions}, nil
}

func (a *Adapter) Dialect() dialect.Dialect { return dialect.MySQL{} }

func (a *Adapter) PrivilegedConn(ctx context.Context) (backend.Conn, error) {
	conn, err := a.defaultPool.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &conn_{c: conn}, nil
}

var errNotSupported = errors.New("mysqladapter: not supported; MySQL lifecycle stays on the default connection and uses USE")

// PrivilegedConnToDatabase is not needed by the MySQL lifecycle (it issues
// a USE statement on the default connection instead, per spec.md §4.3),
// so this always errors if called.
func (a *Adapter) PrivilegedConnToDatabase(ctx context.Context, db string) (backend.Conn, error) {
	return nil, errNotSupported
}

func (a *Adapter) CreateEntities(ctx context.Context, dbName string, _ backend.Conn) error {
	if a.createFn == nil {
		return nil
	}
	return a.createFn(ctx, dbName, nil)
}

func (a *Adapter) BuildRestrictedPool(ctx context.Context, principal, password, db string) (*sql.DB, error) {
	dsn := a.cfg.MySQLDSNAs(principal, password, db)
	pool, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open restricted mysql pool: %w", err)
	}
	if a.poolOptions != nil {
		a.poolOptions(pool)
	}
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping restricted mysql pool: %w", err)
	}
	return pool, nil
}

func (a *Adapter) ClosePool(pool *sql.DB) {
	if pool != nil {
		pool.Close()
	}
}

// Close releases the shared default pool. Call once, when the owning
// DatabasePool is torn down.
func (a *Adapter) Close() error {
	return a.defaultPool.Close()
}

// conn_ adapts a pooled *sql.Conn to backend.Conn.
type conn_ struct {
	c *sql.Conn
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
	return c.c.Close()
}
