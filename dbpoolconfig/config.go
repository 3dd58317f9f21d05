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

// Package dbpoolconfig holds the privileged connection configuration and
// renders the three URL shapes spec.md §3 describes, plus an env-var
// adapter grounded on bencoepp-bib's viper-based config loader.
package dbpoolconfig

import (
	"fmt"
	"net/url"

	"github.com/spf13/viper"
)

// Config is the privileged connection configuration: the top-level
// account used for CREATE/DROP/GRANT. Its chainable setters modify the
// receiver in place and return it; a Config is not copied or frozen.
type Config struct {
	username string
	password string
	hasPass  bool
	host     string
	port     int
}

// New starts a builder for the given privileged username.
func New(username string) *Config {
	return &Config{username: username, host: "localhost"}
}

// Password sets the privileged account's password. Omit the call for a
// passwordless trust-auth setup.
func (c *Config) Password(password string) *Config {
	c.password = password
	c.hasPass = true
	return c
}

// Host sets the server host.
func (c *Config) Host(host string) *Config {
	c.host = host
	return c
}

// Port sets the server port.
func (c *Config) Port(port int) *Config {
	c.port = port
	return c
}

// Username returns the configured privileged username.
func (c *Config) Username() string { return c.username }

// HostValue returns the configured host.
func (c *Config) HostValue() string { return c.host }

// PortValue returns the configured port.
func (c *Config) PortValue() int { return c.port }

// DefaultURL renders a connection string for the default database (no
// particular database selected) using scheme as the URL scheme
// ("mysql" or "postgres").
func (c *Config) DefaultURL(scheme string) string {
	return c.urlFor(scheme, c.username, c.password, c.hasPass, "")
}

// PrivilegedPerDatabaseURL renders a connection string for the privileged
// account scoped to database db — used by the PostgreSQL lifecycle to open
// a second connection inside the just-created database.
func (c *Config) PrivilegedPerDatabaseURL(scheme, db string) string {
	return c.urlFor(scheme, c.username, c.password, c.hasPass, db)
}

// RestrictedPerDatabaseURL renders a connection string where username,
// password, and database are all the per-database identifier, per spec.md
// §3's privileged-role naming contract.
func (c *Config) RestrictedPerDatabaseURL(scheme, dbID string) string {
	return c.urlFor(scheme, dbID, dbID, true, dbID)
}

func (c *Config) urlFor(scheme, user, password string, hasPassword bool, db string) string {
	u := url.URL{
		Scheme: scheme,
		Host:   fmt.Sprintf("%s:%d", c.host, c.port),
		Path:   "/" + db,
	}
	if hasPassword {
		u.User = url.UserPassword(user, password)
	} else {
		u.User = url.User(user)
	}
	return u.String()
}

// MySQLDSN renders a go-sql-driver/mysql style DSN, which does not use the
// standard URL shape.
func (c *Config) MySQLDSN(db string) string {
	if c.hasPass {
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
			c.username, c.password, c.host, c.port, db)
	}
	return fmt.Sprintf("%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		c.username, c.host, c.port, db)
}

// MySQLDSNAs renders a DSN authenticating as a specific (username,
// password) pair against database db — used for the restricted per-db
// MySQL connection, whose account differs from the privileged one.
func (c *Config) MySQLDSNAs(username, password, db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		username, password, c.host, c.port, db)
}

// Engine identifies which server family a Config targets, for FromEnv's
// per-engine variable prefixes.
type Engine string

const (
	MySQL    Engine = "mysql"
	Postgres Engine = "postgres"
)

func (e Engine) envPrefix() string {
	switch e {
	case MySQL:
		return "MYSQL"
	default:
		return "POSTGRES"
	}
}

func (e Engine) defaultPort() int {
	switch e {
	case MySQL:
		return 3306
	default:
		return 5432
	}
}

// FromEnv reads {MYSQL,POSTGRES}_{USERNAME,PASSWORD,HOST,PORT} via viper's
// AutomaticEnv binding, per spec.md §6. Absent values take the documented
// defaults: localhost, the engine's standard port, no password.
func FromEnv(engine Engine) *Config {
	prefix := engine.envPrefix()
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()

	v.SetDefault("host", "localhost")
	v.SetDefault("port", engine.defaultPort())
	v.SetDefault("username", "root")
	v.SetDefault("password", "")

	cfg := New(v.GetString("username")).
		Host(v.GetString("host")).
		Port(v.GetInt("port"))

	if pw := v.GetString("password"); pw != "" {
		cfg.Password(pw)
	}
	return cfg
}
