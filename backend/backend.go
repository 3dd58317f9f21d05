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

// Package backend defines the capability set the lifecycle engine needs
// from a concrete (driver × pool-library) pairing, per spec.md §4.4. The
// lifecycle engine is written once per engine family and is oblivious to
// which capability implementation, and which restricted-pool type P, it is
// handed.
package backend

import (
	"context"

	"github.com/blubskye/dbpool/dialect"
)

// Conn is a privileged administrative connection: either the shared
// default-database connection, or (PostgreSQL only) a connection opened
// directly against one ephemeral database.
type Conn interface {
	// Exec runs a single administrative statement.
	Exec(ctx context.Context, query string) error
	// ExecBatch runs several statements in order on this connection, one
	// Exec per statement, stopping at the first error.
	ExecBatch(ctx context.Context, queries []string) error
	// QueryStrings runs a query expected to return a single string
	// column (database/table name listings) and returns every row.
	QueryStrings(ctx context.Context, query string) ([]string, error)
	// Close releases the connection. Safe to call more than once.
	Close() error
}

// CreateEntities is the user-supplied schema-creation callback, invoked
// once per Create(restricted=...). For PostgreSQL, conn is already scoped
// to the newly created database; for MySQL, conn is nil and
// implementations are expected to open their own connection to dbName
// (spec.md §4.3 step 3).
type CreateEntities func(ctx context.Context, dbName string, conn Conn) error

// Capability is the per-(driver × pool-library) implementation the
// lifecycle engine drives. P is the restricted pool type handed back to
// test code (e.g. *sql.DB or *pgxpool.Pool).
type Capability[P any] interface {
	// Dialect returns the SQL dialect for this capability's engine.
	Dialect() dialect.Dialect

	// PrivilegedConn returns a privileged connection to the default
	// database, acquired from the shared pool built once at
	// construction time.
	PrivilegedConn(ctx context.Context) (Conn, error)

	// PrivilegedConnToDatabase opens a brand-new privileged connection
	// scoped to db. Used by the PostgreSQL lifecycle (spec.md §4.2 step
	// 2); MySQL lifecycle stays on the default connection and uses USE
	// instead, so MySQL capabilities may always return an error here
	// (mysqladapter does).
	PrivilegedConnToDatabase(ctx context.Context, db string) (Conn, error)

	// CreateEntities invokes the caller's schema-creation callback.
	CreateEntities(ctx context.Context, dbName string, conn Conn) error

	// BuildRestrictedPool constructs the per-database pool a
	// ReusableHandle/SingleUseHandle will dereference to, authenticating
	// as the scoped principal.
	BuildRestrictedPool(ctx context.Context, principal, password, db string) (P, error)

	// ClosePool releases a restricted pool built by BuildRestrictedPool.
	// A method rather than requiring P to implement io.Closer because
	// some pool libraries (pgxpool.Pool) expose Close with no error
	// return.
	ClosePool(pool P)
}
