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

// MySQL implements Dialect for MySQL/MariaDB, grounded on the teacher's
// MariaDBDriver.
type MySQL struct{}

var _ Dialect = MySQL{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdentifier(name string) string {
	return quoteWith('`', name)
}

func (d MySQL) CreateDatabase(name string) string {
	return fmt.Sprintf("CREATE DATABASE %s", d.QuoteIdentifier(name))
}

func (d MySQL) DropDatabase(name string) string {
	return fmt.Sprintf("DROP DATABASE %s", d.QuoteIdentifier(name))
}

func (MySQL) ListPriorDatabases() string {
	return "SHOW DATABASES LIKE 'db\\_pool\\_%'"
}

func (MySQL) ListUserTables() string {
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'"
}

func (d MySQL) CreatePrincipal(name, host, password string) []string {
	return []string{
		fmt.Sprintf("CREATE USER %s@%s IDENTIFIED BY '%s'", d.QuoteIdentifier(name), d.quoteHost(host), escapeLiteral(password)),
	}
}

func (d MySQL) DropPrincipal(name, host string) []string {
	return []string{
		fmt.Sprintf("DROP USER %s@%s", d.QuoteIdentifier(name), d.quoteHost(host)),
	}
}

func (d MySQL) GrantRestricted(db, principal, host string) []string {
	return []string{
		fmt.Sprintf("GRANT SELECT, INSERT, UPDATE, DELETE ON %s.* TO %s@%s",
			d.QuoteIdentifier(db), d.QuoteIdentifier(principal), d.quoteHost(host)),
	}
}

func (d MySQL) GrantUnrestricted(db, principal, host string) []string {
	// MySQL has no ownership pivot equivalent to PostgreSQL's ALTER
	// DATABASE ... OWNER TO, so CreateMutable gets the full per-schema
	// privilege set instead (see SPEC_FULL.md's Open Question resolution).
	return []string{
		fmt.Sprintf("GRANT ALL PRIVILEGES ON %s.* TO %s@%s",
			d.QuoteIdentifier(db), d.QuoteIdentifier(principal), d.quoteHost(host)),
	}
}

func (d MySQL) TruncateTable(table string) string {
	return fmt.Sprintf("TRUNCATE TABLE %s", d.QuoteIdentifier(table))
}

func (MySQL) DisableForeignKeyChecks() string { return "SET FOREIGN_KEY_CHECKS = 0" }
func (MySQL) EnableForeignKeyChecks() string  { return "SET FOREIGN_KEY_CHECKS = 1" }

// quoteHost quotes a MySQL account host component. Hosts are not
// identifiers in the same sense as table/db names but the same backtick
// quoting is valid and keeps literal special characters (e.g. "%") safe.
func (d MySQL) quoteHost(host string) string {
	if host == "" {
		host = "%"
	}
	return d.QuoteIdentifier(host)
}

// escapeLiteral escapes a string for use inside a single-quoted MySQL
// string literal (passwords, mainly).
func escapeLiteral(s string) string {
	out := ""
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			out += "\\\\"
		case '\'':
			out += "\\'"
		default:
			out += string(s[i])
		}
	}
	return out
}
