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

package dialect

import "fmt"

// Postgres implements Dialect for PostgreSQL, grounded on the teacher's
// PostgresDriver.
type Postgres struct{}

var _ Dialect = Postgres{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) QuoteIdentifier(name string) string {
	return quoteWith('"', name)
}

func (d Postgres) CreateDatabase(name string) string {
	return fmt.Sprintf("CREATE DATABASE %s", d.QuoteIdentifier(name))
}

func (d Postgres) DropDatabase(name string) string {
	return fmt.Sprintf("DROP DATABASE %s", d.QuoteIdentifier(name))
}

func (Postgres) ListPriorDatabases() string {
	return "SELECT datname FROM pg_database WHERE datname LIKE 'db\\_pool\\_%' ESCAPE '\\'"
}

func (Postgres) ListUserTables() string {
	return `SELECT table_name FROM information_schema.tables
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		AND table_type = 'BASE TABLE'`
}

func (d Postgres) CreatePrincipal(name, _ /* host is unused on Postgres */ string, password string) []string {
	return []string{
		fmt.Sprintf("CREATE ROLE %s WITH LOGIN PASSWORD '%s'", d.QuoteIdentifier(name), escapeLiteral(password)),
	}
}

func (d Postgres) DropPrincipal(name, _ string) []string {
	return []string{
		fmt.Sprintf("DROP ROLE %s", d.QuoteIdentifier(name)),
	}
}

func (d Postgres) GrantRestricted(_ /* db is implicit: run against a connection already scoped to it */ string, principal, _ string) []string {
	return []string{
		fmt.Sprintf("GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA public TO %s", d.QuoteIdentifier(principal)),
		fmt.Sprintf("GRANT USAGE, SELECT ON ALL SEQUENCES IN SCHEMA public TO %s", d.QuoteIdentifier(principal)),
	}
}

func (d Postgres) GrantUnrestricted(db, principal, _ string) []string {
	return []string{
		fmt.Sprintf("ALTER DATABASE %s OWNER TO %s", d.QuoteIdentifier(db), d.QuoteIdentifier(principal)),
	}
}

func (d Postgres) TruncateTable(table string) string {
	return fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", d.QuoteIdentifier(table))
}

// DisableForeignKeyChecks / EnableForeignKeyChecks are no-ops on PostgreSQL:
// RESTART IDENTITY CASCADE on every TRUNCATE makes a session-wide FK toggle
// unnecessary, per spec.md §4.2.
func (Postgres) DisableForeignKeyChecks() string { return "" }
func (Postgres) EnableForeignKeyChecks() string  { return "" }
