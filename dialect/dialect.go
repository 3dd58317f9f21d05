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

// Package dialect produces the administrative SQL statements the lifecycle
// engine issues, one implementation per engine family. It mirrors the shape
// of a driver abstraction: callers never build admin SQL themselves, they
// ask the Dialect.
package dialect

import "fmt"

// Dialect produces engine-specific administrative statements. It holds no
// connection and no state; every method is a pure string builder.
type Dialect interface {
	// Name identifies the engine family, for logging and metrics labels.
	Name() string

	// QuoteIdentifier quotes a database/role/table identifier for safe
	// interpolation into admin SQL.
	QuoteIdentifier(name string) string

	// CreateDatabase returns the statement that provisions a new, empty
	// database named name.
	CreateDatabase(name string) string

	// DropDatabase returns the statement that destroys a database.
	DropDatabase(name string) string

	// ListPriorDatabases returns the catalog query that lists every
	// database whose name carries the db_pool_ prefix.
	ListPriorDatabases() string

	// ListUserTables returns the catalog query that lists user-schema
	// tables for the database the connection is currently scoped to.
	ListUserTables() string

	// CreatePrincipal returns the statement(s) that create a login
	// principal named name with the given password. MySQL principals are
	// host-scoped; host is ignored by the PostgreSQL dialect.
	CreatePrincipal(name, host, password string) []string

	// DropPrincipal returns the statement(s) that remove a principal
	// previously created with CreatePrincipal.
	DropPrincipal(name, host string) []string

	// GrantRestricted returns the statement(s) granting a restricted,
	// DML-only privilege set on db to principal.
	GrantRestricted(db, principal, host string) []string

	// GrantUnrestricted returns the statement(s) granting DDL-capable
	// privileges on db to principal, for CreateMutable databases.
	GrantUnrestricted(db, principal, host string) []string

	// TruncateTable returns the statement that empties one table while
	// leaving its schema intact.
	TruncateTable(table string) string

	// DisableForeignKeyChecks / EnableForeignKeyChecks bracket a batch of
	// TruncateTable statements so tables with cyclic foreign keys can be
	// truncated in any order. The PostgreSQL dialect returns ("", "")
	// since RESTART IDENTITY CASCADE on TRUNCATE makes the toggle
	// unnecessary there.
	DisableForeignKeyChecks() string
	EnableForeignKeyChecks() string
}

// Batch joins statements with ";" followed by a newline (no trailing
// separator),
// for dialects/backends that submit multi-statement strings in one round
// trip (MySQL's multiStatements mode, Postgres's simple query protocol).
func Batch(statements []string) string {
	out := ""
	for i, s := range statements {
		if i > 0 {
			out += ";\n"
		}
		out += s
	}
	return out
}

// quoteWith applies a single-character quote style, doubling any embedded
// occurrence of the quote character — the textbook SQL identifier escape,
// shared by both dialects modulo the quote character itself.
func quoteWith(quote byte, name string) string {
	q := string(quote)
	escaped := ""
	for i := 0; i < len(name); i++ {
		if name[i] == quote {
			escaped += q
		}
		escaped += string(name[i])
	}
	return fmt.Sprintf("%s%s%s", q, escaped, q)
}
